package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/internal/service"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type fakeLibraryRecords struct {
	lastFilter   models.LibraryRecordFilter
	lastGrade    models.FormRef
	lastRecordID *int64
	lastInput    models.LibraryRecordInput
	createErr    error
}

func (f *fakeLibraryRecords) List(_ context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.LibraryRecordDetail{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (f *fakeLibraryRecords) Get(context.Context, int64) (*models.LibraryRecordDetail, error) {
	return &models.LibraryRecordDetail{}, nil
}

func (f *fakeLibraryRecords) Form(_ context.Context, grade models.FormRef, recordID *int64) (service.StudentChoiceSet, error) {
	f.lastGrade = grade
	f.lastRecordID = recordID
	if _, ok := grade.ID(); grade.Present() && !ok {
		return service.StudentChoiceSet{Students: []models.StudentChoice{}}, appErrors.FieldError("grade", "Select a valid choice.")
	}
	gradeID := int64(1)
	return service.StudentChoiceSet{GradeID: &gradeID, Students: []models.StudentChoice{{ID: 10, Username: "ana"}}}, nil
}

func (f *fakeLibraryRecords) Create(_ context.Context, in models.LibraryRecordInput) (*models.LibraryRecordDetail, error) {
	f.lastInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.LibraryRecordDetail{}, nil
}

func (f *fakeLibraryRecords) Update(_ context.Context, _ int64, in models.LibraryRecordInput) (*models.LibraryRecordDetail, error) {
	f.lastInput = in
	return &models.LibraryRecordDetail{}, nil
}

func (f *fakeLibraryRecords) Delete(context.Context, int64) error { return nil }

type fakeExporter struct {
	lendingFilter models.LibraryRecordFilter
	feeFilter     models.FeeRecordFilter
	format        string
}

func (f *fakeExporter) LibraryRecords(_ context.Context, filter models.LibraryRecordFilter, format string) (*service.ExportFile, error) {
	f.lendingFilter = filter
	f.format = format
	return &service.ExportFile{Filename: "library_records_20240301_120000.csv", ContentType: "text/csv", Body: []byte("Book,Student\n")}, nil
}

func (f *fakeExporter) FeeRecords(_ context.Context, filter models.FeeRecordFilter, format string) (*service.ExportFile, error) {
	f.feeFilter = filter
	f.format = format
	if format == "xlsx" {
		return nil, appErrors.FieldError("format", "format must be one of [csv pdf]")
	}
	return &service.ExportFile{Filename: "fee_records_20240301_120000.pdf", ContentType: "application/pdf", Body: []byte("%PDF-1.3")}, nil
}

func TestLibraryRecordHandlerListFilters(t *testing.T) {
	svc := &fakeLibraryRecords{}
	handler := NewLibraryRecordHandler(svc, &fakeExporter{})

	c, rec := newContext(http.MethodGet, "/library/records?status=overdue&grade_id=2&book_id=7", "")
	handler.List(c)
	requireStatus(t, rec, http.StatusOK)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, models.LendingOverdue, *svc.lastFilter.Status)
	assert.Equal(t, int64(2), *svc.lastFilter.GradeID)
	assert.Equal(t, int64(7), *svc.lastFilter.BookID)
	assert.Nil(t, svc.lastFilter.StudentID)

	c, rec = newContext(http.MethodGet, "/library/records?status=LOST", "")
	handler.List(c)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, decode(t, rec).Error.Fields, "status")
}

func TestLibraryRecordHandlerForm(t *testing.T) {
	svc := &fakeLibraryRecords{}
	handler := NewLibraryRecordHandler(svc, &fakeExporter{})

	c, rec := newContext(http.MethodGet, "/library/records/form?record=4", "")
	handler.Form(c)
	requireStatus(t, rec, http.StatusOK)
	assert.False(t, svc.lastGrade.Present())
	require.NotNil(t, svc.lastRecordID)
	assert.Equal(t, int64(4), *svc.lastRecordID)
	assert.Contains(t, rec.Body.String(), `"username":"ana"`)

	c, rec = newContext(http.MethodGet, "/library/records/form?grade=abc", "")
	handler.Form(c)
	requireStatus(t, rec, http.StatusBadRequest)
	assert.True(t, svc.lastGrade.Present())
	assert.Equal(t, "abc", svc.lastGrade.Raw())
	assert.Contains(t, decode(t, rec).Error.Fields, "grade")
}

func TestLibraryRecordHandlerCreate(t *testing.T) {
	svc := &fakeLibraryRecords{}
	handler := NewLibraryRecordHandler(svc, &fakeExporter{})

	c, rec := newContext(http.MethodPost, "/library/records", `{"grade":"1","student":10,"book":3,"due_date":"2024-03-15"}`)
	handler.Create(c)
	requireStatus(t, rec, http.StatusCreated)
	id, ok := svc.lastInput.Grade.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	require.NotNil(t, svc.lastInput.Book)
	assert.Equal(t, int64(3), *svc.lastInput.Book)

	svc.createErr = appErrors.ErrBookUnavailable
	c, rec = newContext(http.MethodPost, "/library/records", `{"grade":"1","student":10,"book":3,"due_date":"2024-03-15"}`)
	handler.Create(c)
	requireStatus(t, rec, http.StatusConflict)
	assert.Equal(t, "BOOK_UNAVAILABLE", decode(t, rec).Error.Code)
}

func TestLibraryRecordHandlerExport(t *testing.T) {
	exporter := &fakeExporter{}
	handler := NewLibraryRecordHandler(&fakeLibraryRecords{}, exporter)

	c, rec := newContext(http.MethodGet, "/library/records/export?status=BORROWED", "")
	handler.Export(c)
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "", exporter.format)
	assert.Equal(t, models.LendingBorrowed, *exporter.lendingFilter.Status)
	assert.Equal(t, `attachment; filename="library_records_20240301_120000.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Book,Student\n", rec.Body.String())
}
