package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
)

type departmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, id int64) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id int64) error
}

// DepartmentService manages departments.
type DepartmentService struct {
	repo      departmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo departmentRepository, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &DepartmentService{repo: repo, validator: validate, logger: logger}
}

// List returns all departments ordered by name.
func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list departments")
	}
	return departments, nil
}

// Get returns a department by id.
func (s *DepartmentService) Get(ctx context.Context, id int64) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "department not found", "failed to load department")
	}
	return department, nil
}

// Create adds a department; names are unique.
func (s *DepartmentService) Create(ctx context.Context, req models.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	department := &models.Department{Name: req.Name, Description: req.Description}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, s.writeError(err, "failed to create department")
	}
	return department, nil
}

// Update modifies a department.
func (s *DepartmentService) Update(ctx context.Context, id int64, req models.UpdateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		department.Name = *req.Name
	}
	if req.Description != nil {
		department.Description = *req.Description
	}
	if err := s.repo.Update(ctx, department); err != nil {
		return nil, s.writeError(err, "failed to update department")
	}
	return department, nil
}

// Delete removes a department. Members keep their accounts with no department.
func (s *DepartmentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "department not found", "failed to delete department")
	}
	return nil
}

func (s *DepartmentService) writeError(err error, message string) error {
	if database.IsUniqueViolation(err, "departments_name_key") {
		return conflictError("name", "a department with that name already exists")
	}
	return lookupError(err, "department not found", message)
}
