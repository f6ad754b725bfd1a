package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListChoicesByGrade(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE grade_id = $1 ORDER BY first_name, last_name, id")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "full_name"}).
			AddRow(1, "budi", "Budi Santoso").
			AddRow(2, "siti", "Siti Aminah"))

	choices, err := repo.ListChoicesByGrade(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "Siti Aminah", choices[1].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListChoicesByGradeEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students WHERE grade_id").
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "full_name"}))

	choices, err := repo.ListChoicesByGrade(context.Background(), 9)
	require.NoError(t, err)
	assert.NotNil(t, choices)
	assert.Empty(t, choices)
}

func TestDeleteStudentNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockStudent)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 3), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStudentReleasesHeldCopies(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockStudent)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(releaseStudentCopies)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteStudentRollsBackWhenReleaseFails(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockStudent)).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(releaseStudentCopies)).
		WithArgs(int64(5)).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "release held copies")
	assert.NoError(t, mock.ExpectationsWereMet())
}
