package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-portal-api/internal/models"
)

var bookSorts = map[string]string{
	"title":            "title",
	"author":           "author",
	"available_copies": "available_copies",
	"id":               "id",
}

// BookRepository persists the library catalogue.
type BookRepository struct {
	db *sqlx.DB
}

// NewBookRepository constructs a BookRepository.
func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

// List returns books matching the filter.
func (r *BookRepository) List(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error) {
	conds := squirrel.And{}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		conds = append(conds, squirrel.Or{
			squirrel.Like{"LOWER(title)": pattern},
			squirrel.Like{"LOWER(author)": pattern},
		})
	}
	if filter.Author != "" {
		conds = append(conds, squirrel.Eq{"author": filter.Author})
	}
	if filter.AvailableOnly {
		conds = append(conds, squirrel.Gt{"available_copies": 0})
	}

	query, args, err := paginate(psql.Select("id", "title", "author", "total_copies", "available_copies").From("books").
		Where(conds).OrderBy(orderBy(filter.ListParams, bookSorts, "title", "ASC")), filter.ListParams).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list books query: %w", err)
	}
	var books []models.Book
	if err := r.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("books").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count books query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}
	return books, total, nil
}

// FindByID returns a book by id.
func (r *BookRepository) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	const query = `SELECT id, title, author, total_copies, available_copies FROM books WHERE id = $1`
	var book models.Book
	if err := r.db.GetContext(ctx, &book, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return &book, nil
}

// Create inserts a book.
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	const query = `INSERT INTO books (title, author, total_copies, available_copies) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, book.Title, book.Author, book.TotalCopies, book.AvailableCopies).Scan(&book.ID); err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

// Update modifies a book. available_copies is written only when available is non-nil,
// so concurrent checkouts and returns are not overwritten; the stored value is read back.
func (r *BookRepository) Update(ctx context.Context, book *models.Book, available *int) error {
	const query = `UPDATE books SET title = $2, author = $3, total_copies = $4, available_copies = COALESCE($5, available_copies)
        WHERE id = $1 RETURNING available_copies`
	err := r.db.QueryRowxContext(ctx, query, book.ID, book.Title, book.Author, book.TotalCopies, available).Scan(&book.AvailableCopies)
	if err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// Delete removes a book; its lending records cascade.
func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
