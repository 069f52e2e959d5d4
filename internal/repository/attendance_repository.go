package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusgrid/school-portal-api/internal/models"
)

// AttendanceRepository persists attendance rows. The table carries a
// uniqueness constraint on (student_id, class_id, date); BulkInsert
// detects rows that lost that race instead of failing.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByClassDate returns all marks for one class and day within a school.
func (r *AttendanceRepository) ListByClassDate(ctx context.Context, schoolID, classID string, date time.Time) ([]models.AttendanceRecord, error) {
	const query = `
SELECT id, school_id, student_id, class_id, date, status, note, teacher_id, created_at, updated_at
FROM attendance_records
WHERE school_id = $1 AND class_id = $2 AND date = $3
ORDER BY student_id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, schoolID, classID, date); err != nil {
		return nil, fmt.Errorf("list attendance by class/date: %w", err)
	}
	return records, nil
}

// BulkInsert inserts the records in one transaction, skipping rows whose
// (student, class, date) tuple already exists. The skipped rows are
// returned so the caller can retry them as updates.
func (r *AttendanceRepository) BulkInsert(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	if len(records) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk attendance insert: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()
	const query = `INSERT INTO attendance_records (id, school_id, student_id, class_id, date, status, note, teacher_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (student_id, class_id, date) DO NOTHING
RETURNING id`
	now := time.Now().UTC()
	conflicts := make([]models.AttendanceRecord, 0)
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now
		var insertedID string
		err := tx.QueryRowxContext(ctx, query, rec.ID, rec.SchoolID, rec.StudentID, rec.ClassID, rec.Date, rec.Status, rec.Note, rec.TeacherID, rec.CreatedAt, rec.UpdatedAt).Scan(&insertedID)
		if err != nil {
			if err == sql.ErrNoRows {
				conflicts = append(conflicts, *rec)
				continue
			}
			return nil, fmt.Errorf("bulk insert attendance for student %s: %w", rec.StudentID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk attendance insert: %w", err)
	}
	commit = true
	return conflicts, nil
}

// Update overwrites status, note and the marking teacher of an existing
// row, preserving its identity and creation metadata.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.AttendanceRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendance_records
SET status = $1, note = $2, teacher_id = $3, updated_at = $4
WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, record.Status, record.Note, record.TeacherID, record.UpdatedAt, record.ID)
	if err != nil {
		return fmt.Errorf("update attendance record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated attendance rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByStudentClassDate fetches the single row for one tuple, used to
// recover from insert conflicts.
func (r *AttendanceRepository) FindByStudentClassDate(ctx context.Context, schoolID, studentID, classID string, date time.Time) (*models.AttendanceRecord, error) {
	const query = `
SELECT id, school_id, student_id, class_id, date, status, note, teacher_id, created_at, updated_at
FROM attendance_records
WHERE school_id = $1 AND student_id = $2 AND class_id = $3 AND date = $4`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, schoolID, studentID, classID, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}
