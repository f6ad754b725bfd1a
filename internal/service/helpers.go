package service

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// lookupError maps a missing row to NOT_FOUND and anything else to an internal error.
func lookupError(err error, notFound, failure string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return internalError(err, failure)
}

// conflictError is a 409 carrying the offending field.
func conflictError(field, message string) error {
	err := appErrors.Clone(appErrors.ErrConflict, message)
	err.Fields = map[string]string{field: message}
	return err
}

func paginationFor(params models.ListParams, total int) *models.Pagination {
	params.Normalize()
	return &models.Pagination{Page: params.Page, PageSize: params.PageSize, TotalCount: total}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
