package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

// ErrNoCopiesAvailable is returned when a checkout finds no free copy of the book.
var ErrNoCopiesAvailable = errors.New("no copies available")

// psql builds PostgreSQL statements with $n placeholders.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func withTx(ctx context.Context, db *sqlx.DB, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// orderBy resolves a whitelisted sort column, falling back to def.
func orderBy(params models.ListParams, allowed map[string]string, def string, defOrder string) string {
	column, ok := allowed[params.SortBy]
	if !ok {
		column = def
	}
	order := strings.ToUpper(params.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = defOrder
	}
	return column + " " + order
}

// paginate applies normalized LIMIT/OFFSET to the builder.
func paginate(b squirrel.SelectBuilder, params models.ListParams) squirrel.SelectBuilder {
	params.Normalize()
	return b.Limit(uint64(params.PageSize)).Offset(uint64(params.Offset()))
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
