package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/school-portal-api/internal/models"
)

// TeacherSubjectGrantRepository reads the junction table linking teachers
// to subject/class pairs. Rows are administrator-managed; this API never
// writes them.
type TeacherSubjectGrantRepository struct {
	db *sqlx.DB
}

// NewTeacherSubjectGrantRepository constructs the repository.
func NewTeacherSubjectGrantRepository(db *sqlx.DB) *TeacherSubjectGrantRepository {
	return &TeacherSubjectGrantRepository{db: db}
}

// ListByTeacher returns the teacher's grants within one school, enriched
// with the subject name for display ordering.
func (r *TeacherSubjectGrantRepository) ListByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.TeacherSubjectGrantDetail, error) {
	const query = `
SELECT g.id, g.teacher_id, g.subject_id, g.class_id, g.school_id, g.created_at,
       s.name AS subject_name
FROM teacher_subject_assignments g
JOIN subjects s ON s.id = g.subject_id
WHERE g.teacher_id = $1 AND g.school_id = $2
ORDER BY s.name ASC, g.class_id ASC NULLS FIRST`
	var grants []models.TeacherSubjectGrantDetail
	if err := r.db.SelectContext(ctx, &grants, query, teacherID, schoolID); err != nil {
		return nil, fmt.Errorf("list teacher subject grants: %w", err)
	}
	return grants, nil
}
