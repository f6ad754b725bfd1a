package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/internal/service"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type fakeFeeRecords struct {
	lastFilter models.FeeRecordFilter
	lastInput  models.FeeRecordInput
	lastID     int64
}

func (f *fakeFeeRecords) List(_ context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, *models.Pagination, error) {
	f.lastFilter = filter
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.FieldError("status", "status must be one of [PENDING PAID]")
	}
	return []models.FeeRecordDetail{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeFeeRecords) Get(_ context.Context, id int64) (*models.FeeRecordDetail, error) {
	f.lastID = id
	return nil, appErrors.Clone(appErrors.ErrNotFound, "fee record not found")
}

func (f *fakeFeeRecords) Form(context.Context, models.FormRef, *int64) (service.StudentChoiceSet, error) {
	return service.StudentChoiceSet{Students: []models.StudentChoice{}}, nil
}

func (f *fakeFeeRecords) Create(_ context.Context, in models.FeeRecordInput) (*models.FeeRecordDetail, error) {
	f.lastInput = in
	if in.Status != nil && *in.Status == models.FeePaid && in.PaymentDate == nil {
		return nil, appErrors.FieldError("payment_date", "payment date is required when the fee is paid")
	}
	return &models.FeeRecordDetail{}, nil
}

func (f *fakeFeeRecords) Update(_ context.Context, id int64, in models.FeeRecordInput) (*models.FeeRecordDetail, error) {
	f.lastID = id
	f.lastInput = in
	return &models.FeeRecordDetail{}, nil
}

func (f *fakeFeeRecords) Delete(_ context.Context, id int64) error {
	f.lastID = id
	return nil
}

func TestFeeRecordHandlerStatusFilter(t *testing.T) {
	svc := &fakeFeeRecords{}
	handler := NewFeeRecordHandler(svc, &fakeExporter{})

	c, rec := newContext(http.MethodGet, "/management/fees?status=paid&student_id=10", "")
	handler.List(c)
	requireStatus(t, rec, http.StatusOK)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, models.FeePaid, *svc.lastFilter.Status)
	assert.Equal(t, int64(10), *svc.lastFilter.StudentID)

	c, rec = newContext(http.MethodGet, "/management/fees?status=refunded", "")
	handler.List(c)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, decode(t, rec).Error.Fields, "status")
}

func TestFeeRecordHandlerCreatePaidWithoutDate(t *testing.T) {
	svc := &fakeFeeRecords{}
	handler := NewFeeRecordHandler(svc, &fakeExporter{})

	c, rec := newContext(http.MethodPost, "/management/fees", `{"grade":"1","student":10,"amount":"150.00","due_date":"2024-03-01","status":"PAID"}`)
	handler.Create(c)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, decode(t, rec).Error.Fields, "payment_date")
	require.NotNil(t, svc.lastInput.Amount)
	assert.True(t, svc.lastInput.Amount.Equal(decimal.RequireFromString("150")))

	c, rec = newContext(http.MethodPost, "/management/fees", `{"grade":"1","student":10,"amount":"150.00","due_date":"2024-03-01","status":"PAID","payment_date":"2024-02-28"}`)
	handler.Create(c)
	requireStatus(t, rec, http.StatusCreated)
}

func TestFeeRecordHandlerGetAndDelete(t *testing.T) {
	svc := &fakeFeeRecords{}
	handler := NewFeeRecordHandler(svc, &fakeExporter{})

	c, rec := newContext(http.MethodGet, "/management/fees/3", "")
	withID(c, "3")
	handler.Get(c)
	requireStatus(t, rec, http.StatusNotFound)
	assert.Equal(t, int64(3), svc.lastID)

	c, rec = newContext(http.MethodDelete, "/management/fees/6", "")
	withID(c, "6")
	handler.Delete(c)
	requireStatus(t, rec, http.StatusNoContent)
	assert.Equal(t, int64(6), svc.lastID)
}

func TestFeeRecordHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	handler := NewFeeRecordHandler(&fakeFeeRecords{}, exporter)

	c, rec := newContext(http.MethodGet, "/management/fees/export?format=pdf&status=PENDING", "")
	handler.Export(c)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "pdf", exporter.format)
	assert.Equal(t, models.FeePending, *exporter.feeFilter.Status)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))

	c, rec = newContext(http.MethodGet, "/management/fees/export?format=xlsx", "")
	handler.Export(c)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, decode(t, rec).Error.Fields, "format")
}
