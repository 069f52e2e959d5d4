package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/school-portal-api/internal/models"
)

// SubjectRepository reads subjects. Subjects are administrator-managed
// and read-only to this API; global subjects carry a NULL school id.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListLegacyByTeacher returns subjects still assigned through the legacy
// one-to-one columns. Only rows pinned to a class count as grants.
func (r *SubjectRepository) ListLegacyByTeacher(ctx context.Context, teacherID, schoolID string) ([]models.Subject, error) {
	const query = `
SELECT id, school_id, code, name, legacy_teacher_id, legacy_class_id, created_at, updated_at
FROM subjects
WHERE legacy_teacher_id = $1
  AND legacy_class_id IS NOT NULL
  AND (school_id = $2 OR school_id IS NULL)
ORDER BY name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, teacherID, schoolID); err != nil {
		return nil, fmt.Errorf("list legacy subjects: %w", err)
	}
	return subjects, nil
}

// ListByIDs batch-fetches subjects visible to the school (own or global).
func (r *SubjectRepository) ListByIDs(ctx context.Context, ids []string, schoolID string) ([]models.Subject, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
SELECT id, school_id, code, name, legacy_teacher_id, legacy_class_id, created_at, updated_at
FROM subjects
WHERE id IN (?) AND (school_id = ? OR school_id IS NULL)`, ids, schoolID)
	if err != nil {
		return nil, fmt.Errorf("build subject batch query: %w", err)
	}
	query = r.db.Rebind(query)
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, args...); err != nil {
		return nil, fmt.Errorf("list subjects by ids: %w", err)
	}
	return subjects, nil
}
