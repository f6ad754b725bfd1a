package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

func TestExportServiceFeeRecordsCSV(t *testing.T) {
	repo := newFakeFeeRepo()
	repo.records[1] = models.FeeRecord{ID: 1, GradeID: 1, StudentID: 10, Amount: decimal.RequireFromString("150"), DueDate: models.NewDate(2024, 3, 1), Status: models.FeePending}
	paidOn := models.NewDate(2024, 2, 20)
	repo.records[2] = models.FeeRecord{ID: 2, GradeID: 1, StudentID: 11, Amount: decimal.RequireFromString("75.5"), DueDate: models.NewDate(2024, 3, 1), PaymentDate: &paidOn, Status: models.FeePaid}
	svc := NewExportService(nil, NewFeeRecordService(repo, schoolChoices(), nil, nil), NewMetricsService(), zap.NewNop())
	svc.clock = fixedClock(2024, 3, 2)

	paid := models.FeePaid
	file, err := svc.FeeRecords(context.Background(), models.FeeRecordFilter{Status: &paid}, "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "fee_records_20240302_100000.csv", file.Filename)
	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2,10 - A,student,75.50,2024-03-01,2024-02-20,PAID,", lines[1])
}

func TestExportServiceLibraryRecordsPDF(t *testing.T) {
	repo := newFakeLendingRepo(map[int64]int{})
	repo.records[1] = models.LibraryRecord{ID: 1, GradeID: 1, StudentID: 10, BookID: 7, BorrowedDate: models.NewDate(2024, 1, 1), DueDate: models.NewDate(2024, 1, 10), Status: models.LendingBorrowed}
	svc := NewExportService(NewLibraryRecordService(repo, schoolChoices(), nil, nil, nil, nil), nil, nil, zap.NewNop())

	file, err := svc.LibraryRecords(context.Background(), models.LibraryRecordFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(nil, nil, nil, zap.NewNop())
	_, err := svc.FeeRecords(context.Background(), models.FeeRecordFilter{}, "xlsx")
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "format")
}
