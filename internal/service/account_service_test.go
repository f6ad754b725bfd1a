package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func staffInput(username string) models.AccountInput {
	return models.AccountInput{
		PersonInput: models.PersonInput{
			Username:        strPtr(username),
			FirstName:       strPtr("Siti"),
			LastName:        strPtr("Rahma"),
			Email:           strPtr("Siti@School.test"),
			Password:        strPtr("correct-horse"),
			PasswordConfirm: strPtr("correct-horse"),
		},
		Designation:   strPtr("Clerk"),
		Qualification: strPtr("B.Ed"),
	}
}

func newAccountService(repo *fakeAccountRepo) *AccountService {
	return NewAccountService(repo, nil, NewValidator(), zap.NewNop())
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected app error, got %v", err)
	return appErr.Fields
}

func TestAccountServiceCreateStaff(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newAccountService(repo)

	staff, err := svc.CreateStaff(context.Background(), staffInput("siti"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^STA\d{8}$`), staff.RegistrationID)
	assert.Equal(t, "siti@school.test", staff.Email)
	assert.True(t, staff.Active)

	stored := repo.people[staff.ID]
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	assert.True(t, VerifyCredential(stored.PasswordHash, "correct-horse"))
}

func TestAccountServiceCreateRequiresMatchingPasswords(t *testing.T) {
	svc := newAccountService(newFakeAccountRepo())

	in := staffInput("siti")
	in.PasswordConfirm = strPtr("different-pass")
	_, err := svc.CreateStaff(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "password_confirm")

	in = staffInput("siti")
	in.Password = nil
	in.PasswordConfirm = nil
	_, err = svc.CreateStaff(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "password")

	in = staffInput("siti")
	in.Password = strPtr("short")
	in.PasswordConfirm = strPtr("short")
	_, err = svc.CreateStaff(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "password")
}

func TestAccountServiceCreateStaffRequiresDesignation(t *testing.T) {
	svc := newAccountService(newFakeAccountRepo())
	in := staffInput("siti")
	in.Designation = nil
	_, err := svc.CreateStaff(context.Background(), in)
	require.Error(t, err)
	fields := fieldsOf(t, err)
	assert.Contains(t, fields, "designation")
}

func TestAccountServiceDuplicateUsernameConflicts(t *testing.T) {
	svc := newAccountService(newFakeAccountRepo())
	_, err := svc.CreateStaff(context.Background(), staffInput("siti"))
	require.NoError(t, err)

	_, err = svc.CreateStaff(context.Background(), staffInput("siti"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "username")
}

func TestAccountServiceUnknownDepartment(t *testing.T) {
	svc := newAccountService(newFakeAccountRepo())
	in := staffInput("siti")
	in.DepartmentID = int64Ptr(404)
	_, err := svc.CreateStaff(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "department_id")
}

func TestAccountServiceCreateLibrarianRequiresJoiningDate(t *testing.T) {
	svc := newAccountService(newFakeAccountRepo())
	in := staffInput("lib")
	_, err := svc.CreateLibrarian(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, fieldsOf(t, err), "joining_date")

	joined := models.NewDate(2023, 7, 1)
	in.JoiningDate = &joined
	librarian, err := svc.CreateLibrarian(context.Background(), in)
	require.NoError(t, err)
	assert.Regexp(t, `^LIB`, librarian.RegistrationID)
	assert.True(t, librarian.JoiningDate.Equal(joined))
}

func TestAccountServiceUpdateKeepsPasswordUnlessSupplied(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newAccountService(repo)
	staff, err := svc.CreateStaff(context.Background(), staffInput("siti"))
	require.NoError(t, err)
	originalHash := repo.people[staff.ID].PasswordHash
	originalID := staff.RegistrationID

	updated, err := svc.UpdateStaff(context.Background(), staff.ID, models.AccountInput{Designation: strPtr("Bursar")})
	require.NoError(t, err)
	assert.Equal(t, "Bursar", updated.Designation)
	assert.Equal(t, originalHash, repo.people[staff.ID].PasswordHash)
	assert.Equal(t, originalID, updated.RegistrationID)

	_, err = svc.UpdateStaff(context.Background(), staff.ID, models.AccountInput{PersonInput: models.PersonInput{
		Password:        strPtr("another-secret"),
		PasswordConfirm: strPtr("another-secret"),
	}})
	require.NoError(t, err)
	assert.NotEqual(t, originalHash, repo.people[staff.ID].PasswordHash)
	assert.True(t, VerifyCredential(repo.people[staff.ID].PasswordHash, "another-secret"))
}

func TestAccountServiceUpdateMissing(t *testing.T) {
	svc := newAccountService(newFakeAccountRepo())
	_, err := svc.UpdateAdmin(context.Background(), 99, models.AccountInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAccountServiceDelete(t *testing.T) {
	svc := newAccountService(newFakeAccountRepo())
	admin, err := svc.CreateAdmin(context.Background(), staffInput("root"))
	require.NoError(t, err)

	assert.True(t, errors.Is(svc.Delete(context.Background(), models.AccountStaff, admin.ID), appErrors.ErrNotFound))
	require.NoError(t, svc.Delete(context.Background(), models.AccountAdmin, admin.ID))
	assert.True(t, errors.Is(svc.Delete(context.Background(), models.AccountKind("teachers"), admin.ID), appErrors.ErrNotFound))
}

func TestAccountServiceConcurrentRegistrationsGetUniqueIDs(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newAccountService(repo)

	const n = 25
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			staff, err := svc.CreateStaff(context.Background(), staffInput(fmt.Sprintf("staff-%02d", i)))
			errs[i] = err
			if err == nil {
				ids[i] = staff.RegistrationID
			}
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate %s", ids[i])
		seen[ids[i]] = true
	}
}

func TestAccountServiceCreateAdminHashesHashLikePassword(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newAccountService(repo)

	in := staffInput("ayu")
	in.Designation = nil
	in.Password = strPtr("argon2isgreat")
	in.PasswordConfirm = strPtr("argon2isgreat")
	admin, err := svc.CreateAdmin(context.Background(), in)
	require.NoError(t, err)

	stored := repo.people[admin.ID]
	assert.NotEqual(t, "argon2isgreat", stored.PasswordHash)
	assert.Regexp(t, regexp.MustCompile(`^\$2[aby]\$`), stored.PasswordHash)
	assert.True(t, VerifyCredential(stored.PasswordHash, "argon2isgreat"))
}
