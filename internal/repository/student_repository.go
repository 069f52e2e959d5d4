package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/school-portal-api/internal/models"
)

// StudentRepository reads students. Students are read-only to this API
// except through relationship checks during writes.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByIDs batch-fetches students within one school. Students outside
// the school are simply not returned; callers treat a missing id as
// not-found rather than silently scoping it away.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string, schoolID string) ([]models.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
SELECT id, school_id, class_id, full_name, active, created_at, updated_at
FROM students
WHERE id IN (?) AND school_id = ?`, ids, schoolID)
	if err != nil {
		return nil, fmt.Errorf("build student batch query: %w", err)
	}
	query = r.db.Rebind(query)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}

// ListByClass returns the current roster of a class.
func (r *StudentRepository) ListByClass(ctx context.Context, classID, schoolID string) ([]models.Student, error) {
	const query = `
SELECT id, school_id, class_id, full_name, active, created_at, updated_at
FROM students
WHERE class_id = $1 AND school_id = $2
ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID, schoolID); err != nil {
		return nil, fmt.Errorf("list students by class: %w", err)
	}
	return students, nil
}
