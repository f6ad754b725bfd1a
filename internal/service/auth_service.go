package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type authUserRepository interface {
	FindPersonByUsername(ctx context.Context, username string) (*models.Person, error)
	FindPersonByID(ctx context.Context, id int64) (*models.Person, error)
	ResolveRole(ctx context.Context, userID int64) (models.Role, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
}

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
}

// AuthService provides authentication use cases.
type AuthService struct {
	repo      authUserRepository
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       Clock
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, audit auditWriter, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{repo: repo, audit: audit, validator: validate, logger: logger, config: config, now: SystemClock}
}

// dashboardPaths points each role at its landing dashboard.
var dashboardPaths = map[models.Role]string{
	models.RoleAdmin:     "/administration/dashboard",
	models.RoleStaff:     "/staff/dashboard",
	models.RoleLibrarian: "/library/dashboard",
}

// Login authenticates a user, resolves their role once and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	user, err := s.repo.FindPersonByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, internalError(err, "failed to fetch user")
	}

	if !VerifyCredential(user.PasswordHash, req.Password) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "account is inactive")
	}

	now := s.now().UTC()
	if NeedsRehash(user.PasswordHash) {
		s.upgradeCredential(ctx, user.ID, req.Password, now)
	}

	role, err := s.repo.ResolveRole(ctx, user.ID)
	if err != nil {
		return nil, internalError(err, "failed to resolve role")
	}

	accessToken, err := s.generateAccessToken(user, role, now)
	if err != nil {
		return nil, internalError(err, "failed to create access token")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	s.record(ctx, (&models.AuditLog{
		UserID:    &user.ID,
		Action:    models.AuditActionLogin,
		Resource:  models.AuditResourceAuth,
		IPAddress: req.IP,
		UserAgent: req.UserAgent,
	}).WithDetails(map[string]interface{}{"status": "success", "role": role}))

	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		IssuedAt:    now,
		User: models.UserInfo{
			ID:             user.ID,
			Username:       user.Username,
			FullName:       user.FullName(),
			RegistrationID: user.RegistrationID,
			Role:           role,
		},
	}, nil
}

// upgradeCredential replaces a legacy hash with bcrypt after a successful login.
func (s *AuthService) upgradeCredential(ctx context.Context, userID int64, password string, now time.Time) {
	hash, err := HashPassword(password)
	if err != nil {
		s.logger.Warn("failed to rehash legacy credential", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash, now); err != nil {
		s.logger.Warn("failed to store rehashed credential", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ChangePassword changes the password for the given user ID.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}

	user, err := s.repo.FindPersonByID(ctx, userID)
	if err != nil {
		return lookupError(err, "user not found", "failed to load user")
	}

	if !VerifyCredential(user.PasswordHash, req.OldPassword) {
		return appErrors.Clone(appErrors.ErrForbidden, "old password does not match")
	}

	newHash, err := HashPassword(req.NewPassword)
	if err != nil {
		return internalError(err, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, newHash, s.now().UTC()); err != nil {
		return internalError(err, "failed to update password")
	}

	s.record(ctx, (&models.AuditLog{
		UserID:   &userID,
		Action:   models.AuditActionPasswordChange,
		Resource: models.AuditResourceAuth,
	}).WithDetails(map[string]interface{}{"status": "changed"}))
	return nil
}

// CurrentUser resolves where an authenticated caller should land.
func (s *AuthService) CurrentUser(ctx context.Context, claims *models.JWTClaims) (*models.CurrentUser, error) {
	if claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing authentication")
	}
	dashboard, ok := dashboardPaths[claims.Role]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "You are not registered with the system")
	}
	user, err := s.repo.FindPersonByID(ctx, claims.UserID)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	return &models.CurrentUser{
		UserInfo: models.UserInfo{
			ID:             user.ID,
			Username:       user.Username,
			FullName:       user.FullName(),
			RegistrationID: user.RegistrationID,
			Role:           claims.Role,
		},
		Dashboard: dashboard,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Role == "" {
		claims.Role = models.RoleNone
	}
	return claims, nil
}

func (s *AuthService) generateAccessToken(user *models.Person, role models.Role, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Role:     role,
		Username: user.Username,
		FullName: user.FullName(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) record(ctx context.Context, entry *models.AuditLog) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}
