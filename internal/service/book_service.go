package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type bookRepository interface {
	List(ctx context.Context, filter models.BookFilter) ([]models.Book, int, error)
	FindByID(ctx context.Context, id int64) (*models.Book, error)
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book, available *int) error
	Delete(ctx context.Context, id int64) error
}

// BookService manages the library catalogue.
type BookService struct {
	repo      bookRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookService constructs a BookService.
func NewBookService(repo bookRepository, validate *validator.Validate, logger *zap.Logger) *BookService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &BookService{repo: repo, validator: validate, logger: logger}
}

// List returns books matching the filter.
func (s *BookService) List(ctx context.Context, filter models.BookFilter) ([]models.Book, *models.Pagination, error) {
	books, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list books")
	}
	return books, paginationFor(filter.ListParams, total), nil
}

// Get returns a book by id.
func (s *BookService) Get(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "book not found", "failed to load book")
	}
	return book, nil
}

// Create adds a title. Available copies default to the total.
func (s *BookService) Create(ctx context.Context, in models.BookInput) (*models.Book, error) {
	book := &models.Book{}
	applyBook(book, in)
	if in.AvailableCopies == nil {
		book.AvailableCopies = book.TotalCopies
	}
	if err := s.validator.Struct(book); err != nil {
		return nil, validationError(err, "invalid book payload")
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, s.writeError(err, "failed to create book")
	}
	return book, nil
}

// Update modifies a title. Available copies change only when the payload sets them;
// otherwise the stored count, kept by lending, is left alone.
func (s *BookService) Update(ctx context.Context, id int64, in models.BookInput) (*models.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyBook(book, in)
	if err := s.validator.Struct(book); err != nil {
		return nil, validationError(err, "invalid book payload")
	}
	if err := s.repo.Update(ctx, book, in.AvailableCopies); err != nil {
		return nil, s.writeError(err, "failed to update book")
	}
	return book, nil
}

// Delete removes a title and its lending history.
func (s *BookService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "book not found", "failed to delete book")
	}
	return nil
}

func applyBook(book *models.Book, in models.BookInput) {
	if in.Title != nil {
		book.Title = trimmed(in.Title)
	}
	if in.Author != nil {
		book.Author = trimmed(in.Author)
	}
	if in.TotalCopies != nil {
		book.TotalCopies = *in.TotalCopies
	}
	if in.AvailableCopies != nil {
		book.AvailableCopies = *in.AvailableCopies
	}
}

func (s *BookService) writeError(err error, message string) error {
	if database.IsCheckViolation(err, "books_available_copies_check") {
		return appErrors.FieldError("available_copies", "available_copies cannot exceed total_copies")
	}
	return lookupError(err, "book not found", message)
}
