package models

import "time"

// Class represents a class or section within one school. MainTeacherID
// grants homeroom authority independent of subject assignment.
type Class struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	Name          string    `db:"name" json:"name"`
	Grade         string    `db:"grade" json:"grade"`
	MainTeacherID *string   `db:"main_teacher_id" json:"main_teacher_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
