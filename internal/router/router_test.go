package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-portal-api/internal/handler"
	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type tokenTable map[string]models.Role

func (t tokenTable) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := t[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: 1, Role: role}, nil
}

type stubAuth struct{}

func (stubAuth) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return nil, appErrors.ErrInvalidCredentials
}

func (stubAuth) ChangePassword(context.Context, int64, models.ChangePasswordRequest) error {
	return nil
}

func (stubAuth) CurrentUser(_ context.Context, claims *models.JWTClaims) (*models.CurrentUser, error) {
	if claims.Role == models.RoleNone {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "You are not registered with the system")
	}
	return &models.CurrentUser{UserInfo: models.UserInfo{Role: claims.Role}}, nil
}

type stubDashboards struct{}

func (stubDashboards) Admin(context.Context) (*models.AdminDashboard, bool, error) {
	return &models.AdminDashboard{}, false, nil
}

func (stubDashboards) Staff(context.Context) (*models.StaffDashboard, bool, error) {
	return &models.StaffDashboard{}, false, nil
}

func (stubDashboards) Library(context.Context) (*models.LibraryDashboard, bool, error) {
	return &models.LibraryDashboard{}, false, nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(Params{
		Env: "test",
		Tokens: tokenTable{
			"admin":     models.RoleAdmin,
			"staff":     models.RoleStaff,
			"librarian": models.RoleLibrarian,
			"student":   models.RoleStudent,
			"none":      models.RoleNone,
		},
		Handlers: Handlers{
			Auth:           handler.NewAuthHandler(stubAuth{}),
			Accounts:       handler.NewAccountHandler(nil),
			Students:       handler.NewStudentHandler(nil),
			Departments:    handler.NewDepartmentHandler(nil),
			Grades:         handler.NewGradeHandler(nil),
			Books:          handler.NewBookHandler(nil),
			LibraryRecords: handler.NewLibraryRecordHandler(nil, nil),
			Fees:           handler.NewFeeRecordHandler(nil, nil),
			Dashboard:      handler.NewDashboardHandler(stubDashboards{}),
			Media:          handler.NewMediaHandler(nil),
			Metrics:        handler.NewMetricsHandler(nil, nil),
		},
	})
}

func request(router *gin.Engine, method, path, token string) int {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRoutePolicy(t *testing.T) {
	router := testRouter()
	cases := []struct {
		method, path, token string
		status              int
	}{
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodGet, "/ready", "", http.StatusOK},
		{http.MethodPost, "/api/v1/auth/login", "", http.StatusUnauthorized},

		{http.MethodGet, "/api/v1/administration/dashboard", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/administration/dashboard", "bogus", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/administration/dashboard", "admin", http.StatusOK},
		{http.MethodGet, "/api/v1/administration/dashboard", "staff", http.StatusForbidden},
		{http.MethodGet, "/api/v1/administration/dashboard", "none", http.StatusForbidden},
		{http.MethodGet, "/api/v1/staff/dashboard", "staff", http.StatusOK},
		{http.MethodGet, "/api/v1/staff/dashboard", "admin", http.StatusForbidden},
		{http.MethodGet, "/api/v1/library/dashboard", "librarian", http.StatusOK},
		{http.MethodGet, "/api/v1/library/dashboard", "student", http.StatusForbidden},

		{http.MethodGet, "/api/v1/accounts/me", "librarian", http.StatusOK},
		{http.MethodGet, "/api/v1/accounts/me", "none", http.StatusNotFound},
		{http.MethodGet, "/api/v1/accounts/me", "", http.StatusUnauthorized},

		{http.MethodPost, "/api/v1/accounts/admins", "staff", http.StatusForbidden},
		{http.MethodDelete, "/api/v1/accounts/librarians/3", "librarian", http.StatusForbidden},
		{http.MethodPost, "/api/v1/accounts/staff/3/photo", "staff", http.StatusForbidden},
		{http.MethodGet, "/api/v1/accounts/students", "librarian", http.StatusForbidden},
		{http.MethodPost, "/api/v1/management/departments", "staff", http.StatusForbidden},
		{http.MethodPut, "/api/v1/management/grades/1", "librarian", http.StatusForbidden},
		{http.MethodGet, "/api/v1/management/fees", "librarian", http.StatusForbidden},
		{http.MethodGet, "/api/v1/management/fees/export", "none", http.StatusForbidden},
		{http.MethodPost, "/api/v1/library/books", "staff", http.StatusForbidden},
		{http.MethodGet, "/api/v1/library/records/form", "staff", http.StatusForbidden},
		{http.MethodPut, "/api/v1/library/records/1", "student", http.StatusForbidden},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, request(router, tc.method, tc.path, tc.token), "%s %s as %q", tc.method, tc.path, tc.token)
	}
}
