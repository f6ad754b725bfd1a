package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// StudentService manages student records.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students matching the filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list students")
	}
	return students, paginationFor(filter.ListParams, total), nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create registers a student in a grade.
func (s *StudentService) Create(ctx context.Context, in models.StudentInput) (*models.StudentDetail, error) {
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	student := &models.Student{}
	applyStudent(student, in, true, errs)
	if err := errs.err("invalid student payload"); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, s.writeError(err, "failed to create student")
	}
	s.logger.Info("student created", zap.Int64("id", student.ID), zap.Int64("grade_id", student.GradeID))
	return s.Get(ctx, student.ID)
}

// Update applies a partial update to a student.
func (s *StudentService) Update(ctx context.Context, id int64, in models.StudentInput) (*models.StudentDetail, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	student := existing.Student
	applyStudent(&student, in, false, errs)
	if err := errs.err("invalid student payload"); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, s.writeError(err, "failed to update student")
	}
	return s.Get(ctx, id)
}

// Delete removes a student together with their lending and fee records.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "student not found", "failed to delete student")
	}
	return nil
}

func applyStudent(st *models.Student, in models.StudentInput, creating bool, errs fieldErrors) {
	if in.Username != nil || creating {
		if st.Username = trimmed(in.Username); st.Username == "" {
			errs.add("username", "username is a required field")
		}
	}
	if in.GradeID != nil {
		st.GradeID = *in.GradeID
	} else if creating {
		errs.add("grade_id", "grade_id is a required field")
	}
	if in.FirstName != nil {
		st.FirstName = trimmed(in.FirstName)
	}
	if in.LastName != nil {
		st.LastName = trimmed(in.LastName)
	}
	if in.Gender != nil {
		gender := *in.Gender
		st.Gender = &gender
	}
	if in.AdmissionDate != nil {
		st.AdmissionDate = optionalDate(in.AdmissionDate)
	}
	if in.DateOfBirth != nil {
		st.DateOfBirth = optionalDate(in.DateOfBirth)
	}
	if in.ParentName != nil {
		st.ParentName = trimmed(in.ParentName)
	}
	if in.ParentContact != nil {
		st.ParentContact = strings.TrimSpace(*in.ParentContact)
	}
	if in.Address != nil {
		st.Address = optionalString(in.Address)
	}
}

func (s *StudentService) writeError(err error, message string) error {
	switch {
	case database.IsUniqueViolation(err, "students_username_key"):
		return conflictError("username", "a student with that username already exists")
	case database.IsForeignKeyViolation(err, "students_grade_id_fkey"):
		return appErrors.FieldError("grade_id", "grade does not exist")
	}
	return lookupError(err, "student not found", message)
}
