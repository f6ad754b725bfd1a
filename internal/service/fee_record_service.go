package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type feeRecordRepository interface {
	List(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, int, error)
	ListAll(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, error)
	FindByID(ctx context.Context, id int64) (*models.FeeRecordDetail, error)
	Create(ctx context.Context, record *models.FeeRecord) error
	Update(ctx context.Context, record *models.FeeRecord) error
	Delete(ctx context.Context, id int64) error
}

// FeeRecordService tracks fees owed by students.
type FeeRecordService struct {
	repo      feeRecordRepository
	students  studentChoiceLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeeRecordService constructs a FeeRecordService.
func NewFeeRecordService(repo feeRecordRepository, students studentChoiceLister, validate *validator.Validate, logger *zap.Logger) *FeeRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &FeeRecordService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns fee records, optionally filtered by status.
func (s *FeeRecordService) List(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, *models.Pagination, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, nil, appErrors.FieldError("status", "status must be one of [PENDING PAID]")
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list fee records")
	}
	return records, paginationFor(filter.ListParams, total), nil
}

// ListAll returns every record matching the filter for export.
func (s *FeeRecordService) ListAll(ctx context.Context, filter models.FeeRecordFilter) ([]models.FeeRecordDetail, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, appErrors.FieldError("status", "status must be one of [PENDING PAID]")
	}
	records, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list fee records")
	}
	return records, nil
}

// Get returns a fee record by id.
func (s *FeeRecordService) Get(ctx context.Context, id int64) (*models.FeeRecordDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "fee record not found", "failed to load fee record")
	}
	return record, nil
}

// Form resolves the student selector for a fee form, optionally editing recordID.
func (s *FeeRecordService) Form(ctx context.Context, grade models.FormRef, recordID *int64) (StudentChoiceSet, error) {
	var existingGrade *int64
	if recordID != nil {
		existing, err := s.Get(ctx, *recordID)
		if err != nil {
			return StudentChoiceSet{}, err
		}
		existingGrade = &existing.GradeID
	}
	return ResolveStudentChoices(ctx, s.students, grade, existingGrade)
}

// Create records a new fee. Status defaults to PENDING.
func (s *FeeRecordService) Create(ctx context.Context, in models.FeeRecordInput) (*models.FeeRecordDetail, error) {
	record := &models.FeeRecord{Status: models.FeePending}
	errs := fieldErrors{}
	if err := s.apply(ctx, record, in, nil, errs); err != nil {
		return nil, err
	}
	if in.Student == nil {
		errs.add("student", "student is a required field")
	}
	if in.Amount == nil {
		errs.add("amount", "amount is a required field")
	}
	if err := checkForm(s.validator, errs, *record); err != nil {
		return nil, err
	}
	if err := errs.err("invalid fee record payload"); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, s.writeError(err, "failed to create fee record")
	}
	return s.Get(ctx, record.ID)
}

// Update edits a fee record.
func (s *FeeRecordService) Update(ctx context.Context, id int64, in models.FeeRecordInput) (*models.FeeRecordDetail, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	record := existing.FeeRecord
	errs := fieldErrors{}
	if err := s.apply(ctx, &record, in, &existing.GradeID, errs); err != nil {
		return nil, err
	}
	if err := checkForm(s.validator, errs, record); err != nil {
		return nil, err
	}
	if err := errs.err("invalid fee record payload"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &record); err != nil {
		return nil, s.writeError(err, "failed to update fee record")
	}
	return s.Get(ctx, id)
}

// Delete removes a fee record.
func (s *FeeRecordService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "fee record not found", "failed to delete fee record")
	}
	return nil
}

func (s *FeeRecordService) apply(ctx context.Context, record *models.FeeRecord, in models.FeeRecordInput, existingGrade *int64, errs fieldErrors) error {
	switch gradeID, ok := in.Grade.ID(); {
	case ok:
		record.GradeID = gradeID
	case in.Grade.Present():
		errs.add("grade", msgGradeInvalid)
	case existingGrade == nil:
		errs.add("grade", "grade is a required field")
	}
	choices, err := ResolveStudentChoices(ctx, s.students, in.Grade, existingGrade)
	if err != nil {
		return err
	}
	if in.Student != nil {
		record.StudentID = *in.Student
	}
	if record.StudentID != 0 && !choices.Contains(record.StudentID) {
		errs.add("student", msgStudentNotInGrade)
	}
	if in.Amount != nil {
		record.Amount = *in.Amount
	}
	if in.DueDate != nil {
		record.DueDate = *in.DueDate
	}
	if in.PaymentDate != nil {
		record.PaymentDate = optionalDate(in.PaymentDate)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			errs.add("status", "status must be one of [PENDING PAID]")
		}
		record.Status = *in.Status
	}
	if in.Remarks != nil {
		record.Remarks = trimmed(in.Remarks)
	}
	return nil
}

func (s *FeeRecordService) writeError(err error, message string) error {
	switch {
	case database.IsCheckViolation(err, "fee_records_paid_requires_date"):
		return appErrors.FieldError("payment_date", "payment_date is required when status is PAID")
	case database.IsForeignKeyViolation(err, "fee_records_grade_id_fkey"):
		return appErrors.FieldError("grade", msgGradeInvalid)
	case database.IsForeignKeyViolation(err, "fee_records_student_id_fkey"):
		return appErrors.FieldError("student", msgStudentNotInGrade)
	}
	return lookupError(err, "fee record not found", message)
}
