package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStudentRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "class_id", "full_name", "active", "created_at", "updated_at"}).
		AddRow("student-1", "school-1", "class-1", "Student One", true, time.Now(), time.Now())
	mock.ExpectQuery("FROM students").
		WithArgs("student-1", "student-2", "school-1").
		WillReturnRows(rows)

	// student-2 belongs to another school and is simply not returned.
	students, err := repo.ListByIDs(context.Background(), []string{"student-1", "student-2"}, "school-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "student-1", students[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	students, err := repo.ListByIDs(context.Background(), nil, "school-1")
	require.NoError(t, err)
	assert.Nil(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}
