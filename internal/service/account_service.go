package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type accountRepository interface {
	registrationIDChecker
	ListAdmins(ctx context.Context, filter models.AccountFilter) ([]models.Admin, int, error)
	ListStaff(ctx context.Context, filter models.AccountFilter) ([]models.Staff, int, error)
	ListLibrarians(ctx context.Context, filter models.AccountFilter) ([]models.Librarian, int, error)
	FindAdmin(ctx context.Context, id int64) (*models.Admin, error)
	FindStaff(ctx context.Context, id int64) (*models.Staff, error)
	FindLibrarian(ctx context.Context, id int64) (*models.Librarian, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	CreateStaff(ctx context.Context, staff *models.Staff) error
	CreateLibrarian(ctx context.Context, librarian *models.Librarian) error
	UpdateAdmin(ctx context.Context, admin *models.Admin) error
	UpdateStaff(ctx context.Context, staff *models.Staff) error
	UpdateLibrarian(ctx context.Context, librarian *models.Librarian) error
	Delete(ctx context.Context, kind models.AccountKind, id int64) error
}

// AccountService manages administrator, staff and librarian accounts.
type AccountService struct {
	repo      accountRepository
	ids       *RegistrationIDGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAccountService creates an instance of AccountService.
func NewAccountService(repo accountRepository, ids *RegistrationIDGenerator, validate *validator.Validate, logger *zap.Logger) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if ids == nil {
		ids = NewRegistrationIDGenerator(repo, 0, nil, logger)
	}
	return &AccountService{repo: repo, ids: ids, validator: validate, logger: logger}
}

// applyPerson copies the shared person fields from the payload. It returns the new
// plaintext password, if any, so hashing happens once validation has passed.
func applyPerson(p *models.Person, in models.PersonInput, creating bool, errs fieldErrors) string {
	if in.Username != nil || creating {
		username := trimmed(in.Username)
		if username == "" {
			errs.add("username", "username is a required field")
		}
		p.Username = username
	}
	if in.Email != nil {
		p.Email = strings.ToLower(trimmed(in.Email))
	}
	if in.FirstName != nil {
		p.FirstName = trimmed(in.FirstName)
	}
	if in.LastName != nil {
		p.LastName = trimmed(in.LastName)
	}
	if in.PhoneNumber != nil {
		p.PhoneNumber = optionalString(in.PhoneNumber)
	}
	if in.Address != nil {
		p.Address = optionalString(in.Address)
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = optionalDate(in.DateOfBirth)
	}
	if in.Gender != nil {
		gender := *in.Gender
		p.Gender = &gender
	}
	if in.EmergencyContact != nil {
		p.EmergencyContact = trimmed(in.EmergencyContact)
	}
	if in.Active != nil {
		p.Active = *in.Active
	}

	password := ""
	if in.Password != nil {
		password = *in.Password
	}
	confirm := ""
	if in.PasswordConfirm != nil {
		confirm = *in.PasswordConfirm
	}
	switch {
	case creating && password == "":
		errs.add("password", "password is a required field")
	case password == "" && confirm == "":
		return ""
	case confirm == "":
		errs.add("password_confirm", "password_confirm is a required field")
	case password != confirm:
		errs.add("password_confirm", "the two password fields didn't match")
	}
	return password
}

func optionalString(s *string) *string {
	value := strings.TrimSpace(*s)
	if value == "" {
		return nil
	}
	return &value
}

func optionalDate(d *models.Date) *models.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	value := *d
	return &value
}

func (s *AccountService) setPassword(p *models.Person, password string) error {
	if password == "" {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return internalError(err, "failed to hash password")
	}
	p.PasswordHash = hash
	return nil
}

// writeError maps store errors raised while saving an account.
func (s *AccountService) writeError(err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case database.IsUniqueViolation(err, "users_username_key"):
		return conflictError("username", "a user with that username already exists")
	case database.IsForeignKeyViolation(err, "admins_department_id_fkey", "staff_department_id_fkey"):
		return appErrors.FieldError("department_id", "department does not exist")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	return internalError(err, message)
}

// ListAdmins returns paginated administrators.
func (s *AccountService) ListAdmins(ctx context.Context, filter models.AccountFilter) ([]models.Admin, *models.Pagination, error) {
	admins, total, err := s.repo.ListAdmins(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list admins")
	}
	return admins, paginationFor(filter.ListParams, total), nil
}

// ListStaff returns paginated staff members.
func (s *AccountService) ListStaff(ctx context.Context, filter models.AccountFilter) ([]models.Staff, *models.Pagination, error) {
	staff, total, err := s.repo.ListStaff(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list staff")
	}
	return staff, paginationFor(filter.ListParams, total), nil
}

// ListLibrarians returns paginated librarians.
func (s *AccountService) ListLibrarians(ctx context.Context, filter models.AccountFilter) ([]models.Librarian, *models.Pagination, error) {
	librarians, total, err := s.repo.ListLibrarians(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list librarians")
	}
	return librarians, paginationFor(filter.ListParams, total), nil
}

// GetAdmin returns an administrator by id.
func (s *AccountService) GetAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.repo.FindAdmin(ctx, id)
	if err != nil {
		return nil, lookupError(err, "admin not found", "failed to load admin")
	}
	return admin, nil
}

// GetStaff returns a staff member by id.
func (s *AccountService) GetStaff(ctx context.Context, id int64) (*models.Staff, error) {
	staff, err := s.repo.FindStaff(ctx, id)
	if err != nil {
		return nil, lookupError(err, "staff not found", "failed to load staff")
	}
	return staff, nil
}

// GetLibrarian returns a librarian by id.
func (s *AccountService) GetLibrarian(ctx context.Context, id int64) (*models.Librarian, error) {
	librarian, err := s.repo.FindLibrarian(ctx, id)
	if err != nil {
		return nil, lookupError(err, "librarian not found", "failed to load librarian")
	}
	return librarian, nil
}

// CreateAdmin registers a new administrator with a fresh ADM registration ID.
func (s *AccountService) CreateAdmin(ctx context.Context, in models.AccountInput) (*models.Admin, error) {
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	admin := &models.Admin{Person: models.Person{Active: true}}
	password := applyPerson(&admin.Person, in.PersonInput, true, errs)
	admin.DepartmentID = in.DepartmentID
	admin.Qualification = trimmed(in.Qualification)
	if err := errs.err("invalid admin payload"); err != nil {
		return nil, err
	}
	if err := s.setPassword(&admin.Person, password); err != nil {
		return nil, err
	}
	if _, err := s.ids.Assign(ctx, models.RoleAdmin, func(registrationID string) error {
		admin.RegistrationID = registrationID
		return s.repo.CreateAdmin(ctx, admin)
	}); err != nil {
		return nil, s.writeError(err, "failed to create admin")
	}
	s.logger.Info("admin created", zap.Int64("id", admin.ID), zap.String("registration_id", admin.RegistrationID))
	return s.reloadAdmin(ctx, admin), nil
}

// CreateStaff registers a new staff member with a fresh STA registration ID.
func (s *AccountService) CreateStaff(ctx context.Context, in models.AccountInput) (*models.Staff, error) {
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	staff := &models.Staff{Person: models.Person{Active: true}}
	password := applyPerson(&staff.Person, in.PersonInput, true, errs)
	staff.DepartmentID = in.DepartmentID
	staff.Designation = trimmed(in.Designation)
	staff.Qualification = trimmed(in.Qualification)
	if staff.Designation == "" {
		errs.add("designation", "designation is a required field")
	}
	if staff.Qualification == "" {
		errs.add("qualification", "qualification is a required field")
	}
	if err := errs.err("invalid staff payload"); err != nil {
		return nil, err
	}
	if err := s.setPassword(&staff.Person, password); err != nil {
		return nil, err
	}
	if _, err := s.ids.Assign(ctx, models.RoleStaff, func(registrationID string) error {
		staff.RegistrationID = registrationID
		return s.repo.CreateStaff(ctx, staff)
	}); err != nil {
		return nil, s.writeError(err, "failed to create staff")
	}
	s.logger.Info("staff created", zap.Int64("id", staff.ID), zap.String("registration_id", staff.RegistrationID))
	return s.reloadStaff(ctx, staff), nil
}

// CreateLibrarian registers a new librarian with a fresh LIB registration ID.
func (s *AccountService) CreateLibrarian(ctx context.Context, in models.AccountInput) (*models.Librarian, error) {
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	librarian := &models.Librarian{Person: models.Person{Active: true}}
	password := applyPerson(&librarian.Person, in.PersonInput, true, errs)
	librarian.Qualification = trimmed(in.Qualification)
	if librarian.Qualification == "" {
		errs.add("qualification", "qualification is a required field")
	}
	if in.JoiningDate == nil || in.JoiningDate.IsZero() {
		errs.add("joining_date", "joining_date is a required field")
	} else {
		librarian.JoiningDate = *in.JoiningDate
	}
	if err := errs.err("invalid librarian payload"); err != nil {
		return nil, err
	}
	if err := s.setPassword(&librarian.Person, password); err != nil {
		return nil, err
	}
	if _, err := s.ids.Assign(ctx, models.RoleLibrarian, func(registrationID string) error {
		librarian.RegistrationID = registrationID
		return s.repo.CreateLibrarian(ctx, librarian)
	}); err != nil {
		return nil, s.writeError(err, "failed to create librarian")
	}
	s.logger.Info("librarian created", zap.Int64("id", librarian.ID), zap.String("registration_id", librarian.RegistrationID))
	return librarian, nil
}

// UpdateAdmin applies a partial update; the credential changes only when a new password is supplied.
func (s *AccountService) UpdateAdmin(ctx context.Context, id int64, in models.AccountInput) (*models.Admin, error) {
	admin, err := s.GetAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	password := applyPerson(&admin.Person, in.PersonInput, false, errs)
	if in.DepartmentID != nil {
		admin.DepartmentID = in.DepartmentID
	}
	if in.Qualification != nil {
		admin.Qualification = trimmed(in.Qualification)
	}
	if err := errs.err("invalid admin payload"); err != nil {
		return nil, err
	}
	if err := s.setPassword(&admin.Person, password); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAdmin(ctx, admin); err != nil {
		return nil, s.writeError(err, "failed to update admin")
	}
	return s.reloadAdmin(ctx, admin), nil
}

// UpdateStaff applies a partial update to a staff member.
func (s *AccountService) UpdateStaff(ctx context.Context, id int64, in models.AccountInput) (*models.Staff, error) {
	staff, err := s.GetStaff(ctx, id)
	if err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	password := applyPerson(&staff.Person, in.PersonInput, false, errs)
	if in.DepartmentID != nil {
		staff.DepartmentID = in.DepartmentID
	}
	if in.Designation != nil {
		if staff.Designation = trimmed(in.Designation); staff.Designation == "" {
			errs.add("designation", "designation cannot be blank")
		}
	}
	if in.Qualification != nil {
		if staff.Qualification = trimmed(in.Qualification); staff.Qualification == "" {
			errs.add("qualification", "qualification cannot be blank")
		}
	}
	if err := errs.err("invalid staff payload"); err != nil {
		return nil, err
	}
	if err := s.setPassword(&staff.Person, password); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStaff(ctx, staff); err != nil {
		return nil, s.writeError(err, "failed to update staff")
	}
	return s.reloadStaff(ctx, staff), nil
}

// UpdateLibrarian applies a partial update to a librarian.
func (s *AccountService) UpdateLibrarian(ctx context.Context, id int64, in models.AccountInput) (*models.Librarian, error) {
	librarian, err := s.GetLibrarian(ctx, id)
	if err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	if err := check(s.validator, errs, in); err != nil {
		return nil, err
	}
	password := applyPerson(&librarian.Person, in.PersonInput, false, errs)
	if in.Qualification != nil {
		if librarian.Qualification = trimmed(in.Qualification); librarian.Qualification == "" {
			errs.add("qualification", "qualification cannot be blank")
		}
	}
	if in.JoiningDate != nil && !in.JoiningDate.IsZero() {
		librarian.JoiningDate = *in.JoiningDate
	}
	if err := errs.err("invalid librarian payload"); err != nil {
		return nil, err
	}
	if err := s.setPassword(&librarian.Person, password); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLibrarian(ctx, librarian); err != nil {
		return nil, s.writeError(err, "failed to update librarian")
	}
	return librarian, nil
}

// Delete removes an account of the given kind.
func (s *AccountService) Delete(ctx context.Context, kind models.AccountKind, id int64) error {
	if !kind.Valid() {
		return appErrors.Clone(appErrors.ErrNotFound, "unknown account kind")
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return lookupError(err, string(kind)+" account not found", "failed to delete account")
	}
	return nil
}

// reloadAdmin refreshes joined columns such as the department name, falling back to the written value.
func (s *AccountService) reloadAdmin(ctx context.Context, admin *models.Admin) *models.Admin {
	fresh, err := s.repo.FindAdmin(ctx, admin.ID)
	if err != nil {
		s.logger.Warn("failed to reload admin", zap.Int64("id", admin.ID), zap.Error(err))
		return admin
	}
	return fresh
}

func (s *AccountService) reloadStaff(ctx context.Context, staff *models.Staff) *models.Staff {
	fresh, err := s.repo.FindStaff(ctx, staff.ID)
	if err != nil {
		s.logger.Warn("failed to reload staff", zap.Int64("id", staff.ID), zap.Error(err))
		return staff
	}
	return fresh
}
