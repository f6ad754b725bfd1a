package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

func sampleRecord() *models.LibraryRecord {
	return &models.LibraryRecord{
		GradeID:      1,
		StudentID:    2,
		BookID:       3,
		BorrowedDate: models.NewDate(2024, time.March, 1),
		DueDate:      models.NewDate(2024, time.March, 10),
		Status:       models.LendingBorrowed,
	}
}

func TestCreateLibraryRecordTakesCopy(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLibraryRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(checkoutCopy)).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO library_records").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectCommit()

	record := sampleRecord()
	require.NoError(t, repo.Create(context.Background(), record))
	assert.Equal(t, int64(9), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLibraryRecordWithoutCopies(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLibraryRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(checkoutCopy)).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), sampleRecord())
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLibraryRecordReturnReleasesCopy(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLibraryRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRecord)).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "return_date"}).AddRow(3, nil))
	mock.ExpectExec(regexp.QuoteMeta(releaseCopy)).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE library_records SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record := sampleRecord()
	record.ID = 9
	returned := models.NewDate(2024, time.March, 8)
	record.ReturnDate = &returned
	record.Status = models.LendingReturned
	require.NoError(t, repo.Update(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLibraryRecordKeepsCopyWhenStillOut(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLibraryRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRecord)).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "return_date"}).AddRow(3, nil))
	mock.ExpectExec("UPDATE library_records SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	record := sampleRecord()
	record.ID = 9
	record.Remarks = "renewed"
	require.NoError(t, repo.Update(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOpenLibraryRecordReleasesCopy(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLibraryRecordRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(lockRecord)).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"book_id", "return_date"}).AddRow(3, nil))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM library_records WHERE id = $1")).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(releaseCopy)).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListLibraryRecordsNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLibraryRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "grade_id", "student_id", "book_id", "borrowed_date", "due_date", "return_date", "status", "remarks", "student_name", "book_title", "grade_standard", "grade_section"}).
		AddRow(9, 1, 2, 3, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), nil, "BORROWED", "", "Budi Santoso", "Laskar Pelangi", 10, "A")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE r.status = $1 ORDER BY r.borrowed_date DESC, r.id DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.LendingBorrowed).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM library_records r")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.LendingBorrowed
	records, total, err := repo.List(context.Background(), models.LibraryRecordFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "2024-03-10", records[0].DueDate.String())
	assert.Nil(t, records[0].ReturnDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
