package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"

	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeAccountRepo, *fakeAuditWriter) {
	t.Helper()
	repo := newFakeAccountRepo()
	audit := &fakeAuditWriter{}
	svc := NewAuthService(repo, audit, NewValidator(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "sma-portal-api",
	})
	return svc, repo, audit
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestAuthServiceLoginResolvesRole(t *testing.T) {
	svc, repo, audit := newAuthFixture(t)
	user := repo.addPerson(models.Person{Username: "budi", FirstName: "Budi", LastName: "Santoso", RegistrationID: "STA20240001", PasswordHash: mustHash(t, "password1"), Active: true}, models.RoleStaff)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "budi", Password: "password1", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, models.RoleStaff, res.User.Role)
	assert.Equal(t, "Budi Santoso", res.User.FullName)
	assert.Contains(t, repo.lastLogin, user.ID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audit.entries[0].Action)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestAuthServiceLoginUnregisteredUserGetsNoneRole(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	repo.addPerson(models.Person{Username: "ghost", PasswordHash: mustHash(t, "password1"), Active: true}, models.RoleNone)

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	_, err = svc.CurrentUser(context.Background(), claims)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "You are not registered with the system", appErr.Message)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	repo.addPerson(models.Person{Username: "budi", PasswordHash: mustHash(t, "password1"), Active: true}, models.RoleStaff)
	repo.addPerson(models.Person{Username: "off", PasswordHash: mustHash(t, "password1"), Active: false}, models.RoleStaff)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "budi", Password: "nope"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "nobody", Password: "password1"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCredentials))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "off", Password: "password1"})
	assert.True(t, errors.Is(err, appErrors.ErrInactiveAccount))

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "budi"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAuthServiceLoginUpgradesLegacyHash(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	digest := pbkdf2.Key([]byte("legacy-pass"), []byte("salt"), 1000, 32, sha256.New)
	legacy := "pbkdf2_sha256$1000$salt$" + base64.StdEncoding.EncodeToString(digest)
	user := repo.addPerson(models.Person{Username: "old", PasswordHash: legacy, Active: true}, models.RoleAdmin)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "old", Password: "legacy-pass"})
	require.NoError(t, err)
	upgraded := repo.people[user.ID].PasswordHash
	assert.False(t, NeedsRehash(upgraded))
	assert.True(t, VerifyCredential(upgraded, "legacy-pass"))
}

func TestAuthServiceChangePassword(t *testing.T) {
	svc, repo, audit := newAuthFixture(t)
	user := repo.addPerson(models.Person{Username: "budi", PasswordHash: mustHash(t, "password1"), Active: true}, models.RoleStaff)

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "password2", NewPasswordConfirm: "password2",
	})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	err = svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "password1", NewPassword: "password2", NewPasswordConfirm: "mismatch1",
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	require.NoError(t, svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "password1", NewPassword: "password2", NewPasswordConfirm: "password2",
	}))
	assert.True(t, VerifyCredential(repo.people[user.ID].PasswordHash, "password2"))
	require.NotEmpty(t, audit.entries)
	assert.Equal(t, models.AuditActionPasswordChange, audit.entries[len(audit.entries)-1].Action)
}

func TestAuthServiceCurrentUserDashboards(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	cases := map[models.Role]string{
		models.RoleAdmin:     "/administration/dashboard",
		models.RoleStaff:     "/staff/dashboard",
		models.RoleLibrarian: "/library/dashboard",
	}
	for role, dashboard := range cases {
		user := repo.addPerson(models.Person{Username: string(role)}, role)
		me, err := svc.CurrentUser(context.Background(), &models.JWTClaims{UserID: user.ID, Role: role})
		require.NoError(t, err)
		assert.Equal(t, dashboard, me.Dashboard)
	}
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	_, err := svc.ValidateToken("not-a-token")
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}
