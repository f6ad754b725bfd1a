package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/internal/service"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
	"github.com/noah-isme/sma-portal-api/pkg/response"
)

type libraryRecordService interface {
	List(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.LibraryRecordDetail, error)
	Form(ctx context.Context, grade models.FormRef, recordID *int64) (service.StudentChoiceSet, error)
	Create(ctx context.Context, in models.LibraryRecordInput) (*models.LibraryRecordDetail, error)
	Update(ctx context.Context, id int64, in models.LibraryRecordInput) (*models.LibraryRecordDetail, error)
	Delete(ctx context.Context, id int64) error
}

type libraryRecordExporter interface {
	LibraryRecords(ctx context.Context, filter models.LibraryRecordFilter, format string) (*service.ExportFile, error)
}

// LibraryRecordHandler exposes lending record endpoints.
type LibraryRecordHandler struct {
	records  libraryRecordService
	exporter libraryRecordExporter
}

// NewLibraryRecordHandler constructs LibraryRecordHandler.
func NewLibraryRecordHandler(records libraryRecordService, exporter libraryRecordExporter) *LibraryRecordHandler {
	return &LibraryRecordHandler{records: records, exporter: exporter}
}

func libraryRecordFilter(c *gin.Context) (models.LibraryRecordFilter, error) {
	filter := models.LibraryRecordFilter{ListParams: listParams(c)}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.LendingStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return filter, appErrors.FieldError("status", "status must be one of [BORROWED RETURNED OVERDUE]")
		}
		filter.Status = &status
	}
	var err error
	if filter.GradeID, err = queryID(c, "grade_id"); err != nil {
		return filter, err
	}
	if filter.StudentID, err = queryID(c, "student_id"); err != nil {
		return filter, err
	}
	if filter.BookID, err = queryID(c, "book_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

// List godoc
// @Summary List lending records
// @Tags Library
// @Produce json
// @Security BearerAuth
// @Param status query string false "BORROWED, RETURNED or OVERDUE"
// @Param grade_id query int false "Filter by grade"
// @Param student_id query int false "Filter by student"
// @Param book_id query int false "Filter by book"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library/records [get]
func (h *LibraryRecordHandler) List(c *gin.Context) {
	filter, err := libraryRecordFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, pagination, err := h.records.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get lending record
// @Tags Library
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /library/records/{id} [get]
func (h *LibraryRecordHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Form godoc
// @Summary Lending form student choices
// @Description Resolves the student selector from the submitted grade, or from the edited record's grade when none is submitted.
// @Tags Library
// @Produce json
// @Security BearerAuth
// @Param grade query string false "Submitted grade value"
// @Param record query int false "Record being edited"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /library/records/form [get]
func (h *LibraryRecordHandler) Form(c *gin.Context) {
	recordID, err := queryID(c, "record")
	if err != nil {
		response.Error(c, err)
		return
	}
	choices, err := h.records.Form(c.Request.Context(), formRef(c), recordID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, choices, nil)
}

// Create godoc
// @Summary Check a book out
// @Description Creates a BORROWED record and takes one copy off the shelf. Status is derived and may not be supplied.
// @Tags Library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.LibraryRecordInput true "Lending payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /library/records [post]
func (h *LibraryRecordHandler) Create(c *gin.Context) {
	var in models.LibraryRecordInput
	if err := bindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.records.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update lending record
// @Description Setting return_date returns the copy; status is re-derived from the dates.
// @Tags Library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param payload body models.LibraryRecordInput true "Lending payload"
// @Success 200 {object} response.Envelope
// @Router /library/records/{id} [put]
func (h *LibraryRecordHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var in models.LibraryRecordInput
	if err := bindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.records.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete lending record
// @Tags Library
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 204
// @Router /library/records/{id} [delete]
func (h *LibraryRecordHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.records.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export lending records
// @Tags Library
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "BORROWED, RETURNED or OVERDUE"
// @Success 200 {file} file
// @Router /library/records/export [get]
func (h *LibraryRecordHandler) Export(c *gin.Context) {
	filter, err := libraryRecordFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.LibraryRecords(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
