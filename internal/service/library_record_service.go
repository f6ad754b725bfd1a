package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/internal/repository"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

const (
	msgStudentNotInGrade = "select a valid choice; that student is not one of the available choices"
	msgGradeInvalid      = "select a valid grade"
	msgStatusDerived     = "status is derived from the record dates and cannot be set"
)

type libraryRecordRepository interface {
	List(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, int, error)
	ListAll(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, error)
	FindByID(ctx context.Context, id int64) (*models.LibraryRecordDetail, error)
	Create(ctx context.Context, record *models.LibraryRecord) error
	Update(ctx context.Context, record *models.LibraryRecord) error
	Delete(ctx context.Context, id int64) error
}

// LibraryRecordService lends books to students and derives the lending status.
type LibraryRecordService struct {
	repo      libraryRecordRepository
	students  studentChoiceLister
	validator *validator.Validate
	metrics   *MetricsService
	clock     Clock
	logger    *zap.Logger
}

// NewLibraryRecordService constructs a LibraryRecordService. A nil clock reads the wall clock.
func NewLibraryRecordService(repo libraryRecordRepository, students studentChoiceLister, validate *validator.Validate, metrics *MetricsService, clock Clock, logger *zap.Logger) *LibraryRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if clock == nil {
		clock = SystemClock
	}
	return &LibraryRecordService{repo: repo, students: students, validator: validate, metrics: metrics, clock: clock, logger: logger}
}

// List returns lending records, most recent borrow first unless sorted otherwise.
func (s *LibraryRecordService) List(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list library records")
	}
	return records, paginationFor(filter.ListParams, total), nil
}

// ListAll returns every record matching the filter for export.
func (s *LibraryRecordService) ListAll(ctx context.Context, filter models.LibraryRecordFilter) ([]models.LibraryRecordDetail, error) {
	records, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list library records")
	}
	return records, nil
}

// Get returns a lending record by id.
func (s *LibraryRecordService) Get(ctx context.Context, id int64) (*models.LibraryRecordDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "library record not found", "failed to load library record")
	}
	return record, nil
}

// Form resolves the student selector for a lending form, optionally editing recordID.
func (s *LibraryRecordService) Form(ctx context.Context, grade models.FormRef, recordID *int64) (StudentChoiceSet, error) {
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

// Create checks a copy out to a student. New records are always BORROWED.
func (s *LibraryRecordService) Create(ctx context.Context, in models.LibraryRecordInput) (*models.LibraryRecordDetail, error) {
	errs := fieldErrors{}
	if in.Status != nil {
		errs.add("status", msgStatusDerived)
	}
	if in.ReturnDate != nil && !in.ReturnDate.IsZero() {
		errs.add("return_date", "a new record cannot have a return date")
	}

	record := &models.LibraryRecord{Status: models.LendingBorrowed, BorrowedDate: s.clock.today()}
	choices, err := s.applyGrade(ctx, record, in, nil, errs)
	if err != nil {
		return nil, err
	}
	s.applyFields(record, in)
	if in.Student == nil {
		errs.add("student", "student is a required field")
	} else if !choices.Contains(record.StudentID) {
		errs.add("student", msgStudentNotInGrade)
	}
	if in.Book == nil {
		errs.add("book", "book is a required field")
	}
	if err := checkForm(s.validator, errs, *record); err != nil {
		return nil, err
	}
	if err := errs.err("invalid library record payload"); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, s.writeError(err, "failed to create library record")
	}
	s.metrics.RecordLendingStatus(string(record.Status))
	s.logger.Info("book checked out", zap.Int64("record_id", record.ID), zap.Int64("book_id", record.BookID), zap.Int64("student_id", record.StudentID))
	return s.Get(ctx, record.ID)
}

// Update edits a lending record and re-derives its status from the dates.
func (s *LibraryRecordService) Update(ctx context.Context, id int64, in models.LibraryRecordInput) (*models.LibraryRecordDetail, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	if in.Status != nil {
		errs.add("status", msgStatusDerived)
	}

	record := existing.LibraryRecord
	choices, err := s.applyGrade(ctx, &record, in, &existing.GradeID, errs)
	if err != nil {
		return nil, err
	}
	s.applyFields(&record, in)
	if in.ReturnDate != nil {
		record.ReturnDate = optionalDate(in.ReturnDate)
	}
	if !choices.Contains(record.StudentID) {
		errs.add("student", msgStudentNotInGrade)
	}
	record.Status = models.DeriveLendingStatus(record.ReturnDate, record.DueDate, s.clock.today())
	if err := checkForm(s.validator, errs, record); err != nil {
		return nil, err
	}
	if err := errs.err("invalid library record payload"); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, &record); err != nil {
		return nil, s.writeError(err, "failed to update library record")
	}
	if record.Status != existing.Status {
		s.metrics.RecordLendingStatus(string(record.Status))
	}
	return s.Get(ctx, id)
}

// Delete removes a lending record, returning its copy to the shelf if still out.
func (s *LibraryRecordService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "library record not found", "failed to delete library record")
	}
	return nil
}

// applyGrade sets the record grade from the payload and resolves the student selector.
func (s *LibraryRecordService) applyGrade(ctx context.Context, record *models.LibraryRecord, in models.LibraryRecordInput, existingGrade *int64, errs fieldErrors) (StudentChoiceSet, error) {
	switch gradeID, ok := in.Grade.ID(); {
	case ok:
		record.GradeID = gradeID
	case in.Grade.Present():
		errs.add("grade", msgGradeInvalid)
	case existingGrade == nil:
		errs.add("grade", "grade is a required field")
	}
	return ResolveStudentChoices(ctx, s.students, in.Grade, existingGrade)
}

func (s *LibraryRecordService) applyFields(record *models.LibraryRecord, in models.LibraryRecordInput) {
	if in.Student != nil {
		record.StudentID = *in.Student
	}
	if in.Book != nil {
		record.BookID = *in.Book
	}
	if in.BorrowedDate != nil && !in.BorrowedDate.IsZero() {
		record.BorrowedDate = *in.BorrowedDate
	}
	if in.DueDate != nil {
		record.DueDate = *in.DueDate
	}
	if in.Remarks != nil {
		record.Remarks = trimmed(in.Remarks)
	}
}

func (s *LibraryRecordService) writeError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrNoCopiesAvailable):
		s.metrics.RecordCheckoutRejected()
		return appErrors.Clone(appErrors.ErrBookUnavailable, "")
	case database.IsForeignKeyViolation(err, "library_records_book_id_fkey"):
		return appErrors.FieldError("book", "book does not exist")
	case database.IsForeignKeyViolation(err, "library_records_grade_id_fkey"):
		return appErrors.FieldError("grade", msgGradeInvalid)
	case database.IsForeignKeyViolation(err, "library_records_student_id_fkey"):
		return appErrors.FieldError("student", msgStudentNotInGrade)
	}
	return lookupError(err, "library record not found", message)
}
