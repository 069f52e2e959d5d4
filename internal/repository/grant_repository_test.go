package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepositoryMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherSubjectGrantRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newRepositoryMock(t)
	defer cleanup()
	repo := NewTeacherSubjectGrantRepository(db)

	classID := "class-1"
	rows := sqlmock.NewRows([]string{"id", "teacher_id", "subject_id", "class_id", "school_id", "created_at", "subject_name"}).
		AddRow("grant-1", "teacher-1", "subject-1", nil, "school-1", time.Now(), "Algebra").
		AddRow("grant-2", "teacher-1", "subject-2", classID, "school-1", time.Now(), "Biology")
	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT g.id, g.teacher_id, g.subject_id, g.class_id, g.school_id, g.created_at,
       s.name AS subject_name
FROM teacher_subject_assignments g
JOIN subjects s ON s.id = g.subject_id
WHERE g.teacher_id = $1 AND g.school_id = $2
ORDER BY s.name ASC, g.class_id ASC NULLS FIRST`)).
		WithArgs("teacher-1", "school-1").
		WillReturnRows(rows)

	grants, err := repo.ListByTeacher(context.Background(), "teacher-1", "school-1")
	require.NoError(t, err)
	require.Len(t, grants, 2)
	assert.Nil(t, grants[0].ClassID)
	assert.Equal(t, "Algebra", grants[0].SubjectName)
	require.NotNil(t, grants[1].ClassID)
	assert.Equal(t, classID, *grants[1].ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
