package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgrid/school-portal-api/internal/models"
)

func TestGradeRepositoryBulkInsert(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	grades := []models.Grade{
		{SchoolID: "school-1", StudentID: "student-1", SubjectID: "subject-1", TeacherID: "teacher-1", Score: 85, MaxScore: 100, Category: "quiz", Date: time.Now()},
		{SchoolID: "school-1", StudentID: "student-2", SubjectID: "subject-1", TeacherID: "teacher-1", Score: 90, MaxScore: 100, Category: "quiz", Date: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.BulkInsert(context.Background(), grades))
	assert.NotEmpty(t, grades[0].ID)
	assert.NotEmpty(t, grades[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryBulkInsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	grades := []models.Grade{
		{SchoolID: "school-1", StudentID: "student-1", SubjectID: "subject-1", TeacherID: "teacher-1", Score: 85, MaxScore: 100, Category: "quiz", Date: time.Now()},
		{SchoolID: "school-1", StudentID: "student-2", SubjectID: "subject-1", TeacherID: "teacher-1", Score: 90, MaxScore: 100, Category: "quiz", Date: time.Now()},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO grades").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO grades").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.BulkInsert(context.Background(), grades)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "student-2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "student_id", "subject_id", "teacher_id", "score", "max_score", "category", "note", "date", "created_at", "updated_at"}).
		AddRow("grade-1", "school-1", "student-1", "subject-1", "teacher-1", 85.0, 100.0, "quiz", nil, time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND student_id = $2")).
		WithArgs("school-1", "student-1").
		WillReturnRows(rows)

	grades, err := repo.List(context.Background(), "school-1", models.GradeFilter{StudentID: "student-1"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, 85.0, grades[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}
