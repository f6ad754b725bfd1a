package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/export"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type lendingSource interface {
	ListAll(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, error)
}

type feeSource interface {
	ListAll(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, error)
}

type renderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders lending and fee listings as CSV or PDF downloads.
type ExportService struct {
	lending   lendingSource
	fees      feeSource
	renderers map[string]renderer
	metrics   *MetricsService
	clock     Clock
	logger    *zap.Logger
}

// NewExportService constructs an ExportService with CSV and PDF renderers.
func NewExportService(lending lendingSource, fees feeSource, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := export.NewCSVExporter()
	pdf := export.NewPDFExporter()
	return &ExportService{
		lending:   lending,
		fees:      fees,
		renderers: map[string]renderer{csv.Extension(): csv, pdf.Extension(): pdf},
		metrics:   metrics,
		clock:     SystemClock,
		logger:    logger,
	}
}

// LibraryRecords exports the lending records matching filter.
func (s *ExportService) LibraryRecords(ctx context.Context, filter models.LibraryRecordFilter, format string) (*ExportFile, error) {
	r, err := s.renderer(format)
	if err != nil {
		return nil, err
	}
	records, err := s.lending.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Library records",
		Headers: []string{"ID", "Grade", "Student", "Book", "Borrowed", "Due", "Returned", "Status", "Remarks"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, rec := range records {
		data.Rows = append(data.Rows, []string{
			fmt.Sprint(rec.ID),
			gradeLabel(rec.GradeStandard, rec.GradeSection),
			rec.StudentName,
			rec.BookTitle,
			rec.BorrowedDate.String(),
			rec.DueDate.String(),
			dateCell(rec.ReturnDate),
			string(rec.Status),
			rec.Remarks,
		})
	}
	return s.render(r, "library_records", data)
}

// FeeRecords exports the fee records matching filter.
func (s *ExportService) FeeRecords(ctx context.Context, filter models.FeeRecordFilter, format string) (*ExportFile, error) {
	r, err := s.renderer(format)
	if err != nil {
		return nil, err
	}
	records, err := s.fees.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Title:   "Fee records",
		Headers: []string{"ID", "Grade", "Student", "Amount", "Due", "Paid on", "Status", "Remarks"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, rec := range records {
		data.Rows = append(data.Rows, []string{
			fmt.Sprint(rec.ID),
			gradeLabel(rec.GradeStandard, rec.GradeSection),
			rec.StudentName,
			rec.Amount.StringFixed(2),
			rec.DueDate.String(),
			dateCell(rec.PaymentDate),
			string(rec.Status),
			rec.Remarks,
		})
	}
	return s.render(r, "fee_records", data)
}

func (s *ExportService) renderer(format string) (renderer, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	r, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.FieldError("format", "format must be one of [csv pdf]")
	}
	return r, nil
}

func (s *ExportService) render(r renderer, dataset string, data export.Dataset) (*ExportFile, error) {
	body, err := r.Render(data)
	if err != nil {
		return nil, internalError(err, "failed to render export")
	}
	s.metrics.RecordExport(dataset, r.Extension())
	s.logger.Info("export rendered", zap.String("dataset", dataset), zap.String("format", r.Extension()), zap.Int("rows", len(data.Rows)))
	return &ExportFile{
		Filename:    fmt.Sprintf("%s_%s.%s", dataset, s.clock().UTC().Format("20060102_150405"), r.Extension()),
		ContentType: r.ContentType(),
		Body:        body,
	}, nil
}

func gradeLabel(standard int, section string) string {
	return models.Grade{Standard: standard, Section: section}.Label()
}

func dateCell(d *models.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
