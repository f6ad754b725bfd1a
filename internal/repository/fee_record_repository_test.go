package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

func TestListFeeRecordsFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRecordRepository(db)

	rows := sqlmock.NewRows([]string{"id", "grade_id", "student_id", "amount", "due_date", "payment_date", "status", "remarks", "student_name", "grade_standard", "grade_section"}).
		AddRow(4, 1, 2, "150.00", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC), "PAID", "", "Siti Aminah", 10, "B")
	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_records f JOIN students st ON st.id = f.student_id JOIN grades g ON g.id = f.grade_id WHERE f.status = $1 ORDER BY f.due_date DESC, f.id DESC LIMIT 20 OFFSET 0")).
		WithArgs("PAID").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM fee_records f")).
		WithArgs("PAID").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	status := models.FeePaid
	records, total, err := repo.List(context.Background(), models.FeeRecordFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.True(t, decimal.RequireFromString("150").Equal(records[0].Amount))
	require.NotNil(t, records[0].PaymentDate)
	assert.Equal(t, "2024-06-28", records[0].PaymentDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFeeRecord(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewFeeRecordRepository(db)

	mock.ExpectQuery("INSERT INTO fee_records").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	record := &models.FeeRecord{GradeID: 1, StudentID: 2, Amount: decimal.RequireFromString("75.50"), DueDate: models.NewDate(2024, time.August, 1), Status: models.FeePending}
	require.NoError(t, repo.Create(context.Background(), record))
	assert.Equal(t, int64(11), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
