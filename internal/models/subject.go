package models

import "time"

// Subject represents an academic subject. SchoolID is nil for subjects
// shared across schools. The legacy teacher/class columns carry the old
// one-to-one assignment model and are read-only here; they are merged
// with junction grants during assignment resolution.
type Subject struct {
	ID              string    `db:"id" json:"id"`
	SchoolID        *string   `db:"school_id" json:"school_id,omitempty"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	LegacyTeacherID *string   `db:"legacy_teacher_id" json:"legacy_teacher_id,omitempty"`
	LegacyClassID   *string   `db:"legacy_class_id" json:"legacy_class_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Global reports whether the subject is shared across schools.
func (s Subject) Global() bool {
	return s.SchoolID == nil
}
