package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/school-portal-api/internal/models"
)

func TestAttendanceRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	records := []models.AttendanceRecord{
		{SchoolID: "school-1", StudentID: "student-1", ClassID: "class-1", Date: date, Status: models.AttendanceStatusPresent, TeacherID: "teacher-1"},
		{SchoolID: "school-1", StudentID: "student-2", ClassID: "class-1", Date: date, Status: models.AttendanceStatusAbsent, TeacherID: "teacher-1"},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "school-1", "student-1", "class-1", date, models.AttendanceStatusPresent, nil, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("att-1"))
	// Second row loses the uniqueness race: DO NOTHING returns no row.
	mock.ExpectQuery("INSERT INTO attendance_records").
		WithArgs(sqlmock.AnyArg(), "school-1", "student-2", "class-1", date, models.AttendanceStatusAbsent, nil, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	conflicts, err := repo.BulkInsert(context.Background(), records)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "student-2", conflicts[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryBulkInsertEmpty(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	conflicts, err := repo.BulkInsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("UPDATE attendance_records").
		WithArgs(models.AttendanceStatusLate, nil, "teacher-1", sqlmock.AnyArg(), "att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &models.AttendanceRecord{ID: "att-1", Status: models.AttendanceStatusLate, TeacherID: "teacher-1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("UPDATE attendance_records").
		WithArgs(models.AttendanceStatusLate, nil, "teacher-1", sqlmock.AnyArg(), "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.AttendanceRecord{ID: "gone", Status: models.AttendanceStatusLate, TeacherID: "teacher-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByClassDate(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "school_id", "student_id", "class_id", "date", "status", "note", "teacher_id", "created_at", "updated_at"}).
		AddRow("att-1", "school-1", "student-1", "class-1", date, "PRESENT", nil, "teacher-1", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT id, school_id, student_id, class_id, date, status, note, teacher_id, created_at, updated_at
FROM attendance_records
WHERE school_id = $1 AND class_id = $2 AND date = $3
ORDER BY student_id ASC`)).
		WithArgs("school-1", "class-1", date).
		WillReturnRows(rows)

	records, err := repo.ListByClassDate(context.Background(), "school-1", "class-1", date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendanceStatusPresent, records[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
