package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

func TestCreateAuditLogAssignsIDAndTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	userID := int64(3)
	resourceID := "42"
	entry := (&models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionUpdate,
		Resource:   models.AuditResourceBook,
		ResourceID: &resourceID,
		IPAddress:  "10.0.0.8",
		UserAgent:  "curl/8.4",
	}).WithDetails(map[string]interface{}{"status": 200})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs (id, user_id, action, resource, resource_id, details, ip_address, user_agent, created_at)")).
		WithArgs(sqlmock.AnyArg(), userID, "UPDATE", "book", resourceID, []byte(`{"status":200}`), "10.0.0.8", "curl/8.4", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLogWrapsError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.AuditLog{Action: models.AuditActionLogin, Resource: models.AuditResourceAuth})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create audit log")
}
