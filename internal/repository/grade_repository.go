package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/school-portal-api/internal/models"
)

// GradeRepository persists grade rows. Writes go through BulkInsert only,
// so a rejected batch never leaves partial rows behind.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// BulkInsert persists all grades in one transaction. Ids and timestamps
// are assigned here when missing.
func (r *GradeRepository) BulkInsert(ctx context.Context, grades []models.Grade) error {
	if len(grades) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk grade insert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()
	const query = `INSERT INTO grades (id, school_id, student_id, subject_id, teacher_id, score, max_score, category, note, date, created_at, updated_at)
VALUES (:id, :school_id, :student_id, :subject_id, :teacher_id, :score, :max_score, :category, :note, :date, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range grades {
		grade := &grades[i]
		if grade.ID == "" {
			grade.ID = uuid.NewString()
		}
		if grade.CreatedAt.IsZero() {
			grade.CreatedAt = now
		}
		grade.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, grade); err != nil {
			return fmt.Errorf("bulk insert grade for student %s: %w", grade.StudentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk grade insert: %w", err)
	}
	commit = true
	return nil
}

// List returns grades for a school matching the filter.
func (r *GradeRepository) List(ctx context.Context, schoolID string, filter models.GradeFilter) ([]models.Grade, error) {
	where := []string{"school_id = $1"}
	args := []interface{}{schoolID}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.SubjectID != "" {
		args = append(args, filter.SubjectID)
		where = append(where, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT id, school_id, student_id, subject_id, teacher_id, score, max_score, category, note, date, created_at, updated_at
FROM grades
WHERE %s
ORDER BY date DESC, created_at DESC`, strings.Join(where, " AND "))
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}
