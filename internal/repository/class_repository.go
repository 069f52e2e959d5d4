package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/school-portal-api/internal/models"
)

// ClassRepository reads classes. Classes are administrator-managed and
// read-only to this API.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListHomeroomByTeacher returns classes where the teacher holds homeroom
// authority.
func (r *ClassRepository) ListHomeroomByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.Class, error) {
	const query = `
SELECT id, school_id, name, grade, main_teacher_id, created_at, updated_at
FROM classes
WHERE main_teacher_id = $1 AND school_id = $2
ORDER BY name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, teacherID, schoolID); err != nil {
		return nil, fmt.Errorf("list homeroom classes: %w", err)
	}
	return classes, nil
}

// FindByID fetches a class scoped to one school.
func (r *ClassRepository) FindByID(ctx context.Context, id, schoolID string) (*models.Class, error) {
	const query = `
SELECT id, school_id, name, grade, main_teacher_id, created_at, updated_at
FROM classes
WHERE id = $1 AND school_id = $2`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id, schoolID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}
