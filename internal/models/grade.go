package models

import "time"

// Grade represents a single recorded score. Rows are created only
// through the bulk grade writer and are always attributed to the
// recording teacher and their school.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	Score     float64   `db:"score" json:"score"`
	MaxScore  float64   `db:"max_score" json:"max_score"`
	Category  string    `db:"category" json:"category"`
	Note      *string   `db:"note" json:"note,omitempty"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter scopes grade listing queries.
type GradeFilter struct {
	StudentID string
	SubjectID string
	TeacherID string
}
