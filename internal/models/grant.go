package models

import "time"

// TeacherSubjectGrant is a junction row linking a teacher to a subject,
// optionally pinned to one class. A nil ClassID means the teacher may
// teach the subject in any class of the school.
type TeacherSubjectGrant struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	ClassID   *string   `db:"class_id" json:"class_id,omitempty"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TeacherSubjectGrantDetail enriches the grant with the subject name for
// resolution and display.
type TeacherSubjectGrantDetail struct {
	TeacherSubjectGrant
	SubjectName string `db:"subject_name" json:"subject_name"`
}
