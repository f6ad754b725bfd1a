package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/internal/service"
	"github.com/noah-isme/sma-portal-api/pkg/response"
)

type feeRecordService interface {
	List(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.FeeRecordDetail, error)
	Form(ctx context.Context, grade models.FormRef, recordID *int64) (service.StudentChoiceSet, error)
	Create(ctx context.Context, in models.FeeRecordInput) (*models.FeeRecordDetail, error)
	Update(ctx context.Context, id int64, in models.FeeRecordInput) (*models.FeeRecordDetail, error)
	Delete(ctx context.Context, id int64) error
}

type feeRecordExporter interface {
	FeeRecords(ctx context.Context, filter models.FeeRecordFilter, format string) (*service.ExportFile, error)
}

// FeeRecordHandler exposes fee tracking endpoints.
type FeeRecordHandler struct {
	fees     feeRecordService
	exporter feeRecordExporter
}

// NewFeeRecordHandler constructs FeeRecordHandler.
func NewFeeRecordHandler(fees feeRecordService, exporter feeRecordExporter) *FeeRecordHandler {
	return &FeeRecordHandler{fees: fees, exporter: exporter}
}

func feeRecordFilter(c *gin.Context) (models.FeeRecordFilter, error) {
	filter := models.FeeRecordFilter{ListParams: listParams(c)}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.FeeStatus(strings.ToUpper(raw))
		filter.Status = &status
	}
	var err error
	if filter.GradeID, err = queryID(c, "grade_id"); err != nil {
		return filter, err
	}
	if filter.StudentID, err = queryID(c, "student_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

// List godoc
// @Summary List fee records
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING or PAID"
// @Param grade_id query int false "Filter by grade"
// @Param student_id query int false "Filter by student"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /management/fees [get]
func (h *FeeRecordHandler) List(c *gin.Context) {
	filter, err := feeRecordFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, pagination, err := h.fees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get fee record
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fee record ID"
// @Success 200 {object} response.Envelope
// @Router /management/fees/{id} [get]
func (h *FeeRecordHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.fees.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Form godoc
// @Summary Fee form student choices
// @Tags Fees
// @Produce json
// @Security BearerAuth
// @Param grade query string false "Submitted grade value"
// @Param record query int false "Record being edited"
// @Success 200 {object} response.Envelope
// @Router /management/fees/form [get]
func (h *FeeRecordHandler) Form(c *gin.Context) {
	recordID, err := queryID(c, "record")
	if err != nil {
		response.Error(c, err)
		return
	}
	choices, err := h.fees.Form(c.Request.Context(), formRef(c), recordID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, choices, nil)
}

// Create godoc
// @Summary Create fee record
// @Description A PAID record requires payment_date.
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.FeeRecordInput true "Fee payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /management/fees [post]
func (h *FeeRecordHandler) Create(c *gin.Context) {
	var in models.FeeRecordInput
	if err := bindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.fees.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update fee record
// @Tags Fees
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Fee record ID"
// @Param payload body models.FeeRecordInput true "Fee payload"
// @Success 200 {object} response.Envelope
// @Router /management/fees/{id} [put]
func (h *FeeRecordHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var in models.FeeRecordInput
	if err := bindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	record, err := h.fees.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete fee record
// @Tags Fees
// @Security BearerAuth
// @Param id path int true "Fee record ID"
// @Success 204
// @Router /management/fees/{id} [delete]
func (h *FeeRecordHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.fees.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export fee records
// @Tags Fees
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param status query string false "PENDING or PAID"
// @Success 200 {file} file
// @Router /management/fees/export [get]
func (h *FeeRecordHandler) Export(c *gin.Context) {
	filter, err := feeRecordFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.FeeRecords(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
