package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context) ([]models.Grade, error)
	FindByID(ctx context.Context, id int64) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id int64) error
}

// GradeService manages grades and serves the grade-scoped student selector.
type GradeService struct {
	repo      gradeRepository
	students  studentChoiceLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepository, students studentChoiceLister, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &GradeService{repo: repo, students: students, validator: validate, logger: logger}
}

// List returns grades ordered by standard then section.
func (s *GradeService) List(ctx context.Context) ([]models.Grade, error) {
	grades, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list grades")
	}
	return grades, nil
}

// Get returns a grade by id.
func (s *GradeService) Get(ctx context.Context, id int64) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "grade not found", "failed to load grade")
	}
	return grade, nil
}

// Create adds a grade; the (standard, section) pair is unique.
func (s *GradeService) Create(ctx context.Context, req models.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	grade := &models.Grade{Standard: req.Standard, Section: req.Section, InChargeID: req.InChargeID}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, s.writeError(err, "failed to create grade")
	}
	return s.Get(ctx, grade.ID)
}

// Update modifies a grade. A zero in_charge_id clears the assignment.
func (s *GradeService) Update(ctx context.Context, id int64, req models.UpdateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	grade, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Standard != nil {
		grade.Standard = *req.Standard
	}
	if req.Section != nil {
		grade.Section = *req.Section
	}
	if req.InChargeID != nil {
		if *req.InChargeID == 0 {
			grade.InChargeID = nil
		} else {
			grade.InChargeID = req.InChargeID
		}
	}
	if err := s.repo.Update(ctx, grade); err != nil {
		return nil, s.writeError(err, "failed to update grade")
	}
	return s.Get(ctx, id)
}

// Delete removes a grade that no student belongs to.
func (s *GradeService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err, "students_grade_id_fkey") {
			return appErrors.Clone(appErrors.ErrConflict, "grade still has students")
		}
		return lookupError(err, "grade not found", "failed to delete grade")
	}
	return nil
}

// StudentChoices lists the students a grade-scoped form may select.
func (s *GradeService) StudentChoices(ctx context.Context, gradeID int64) (StudentChoiceSet, error) {
	if _, err := s.Get(ctx, gradeID); err != nil {
		return StudentChoiceSet{}, err
	}
	return ResolveStudentChoices(ctx, s.students, models.FormRefID(gradeID), nil)
}

func (s *GradeService) writeError(err error, message string) error {
	switch {
	case database.IsUniqueViolation(err, "grades_standard_section_key"):
		return conflictError("section", "a grade with that standard and section already exists")
	case database.IsForeignKeyViolation(err, "grades_in_charge_id_fkey"):
		return appErrors.FieldError("in_charge_id", "staff member does not exist")
	}
	return lookupError(err, "grade not found", message)
}
