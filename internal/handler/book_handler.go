package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-api/internal/models"
	"github.com/noah-isme/sma-portal-api/pkg/response"
)

type bookService interface {
	List(ctx context.Context, filter models.BookFilter) ([]models.Book, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Book, error)
	Create(ctx context.Context, in models.BookInput) (*models.Book, error)
	Update(ctx context.Context, id int64, in models.BookInput) (*models.Book, error)
	Delete(ctx context.Context, id int64) error
}

// BookHandler exposes library catalogue endpoints.
type BookHandler struct {
	books bookService
}

// NewBookHandler constructs BookHandler.
func NewBookHandler(books bookService) *BookHandler {
	return &BookHandler{books: books}
}

// List godoc
// @Summary List books
// @Tags Library
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search by title"
// @Param author query string false "Filter by author"
// @Param available query bool false "Only books with copies on the shelf"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /library/books [get]
func (h *BookHandler) List(c *gin.Context) {
	filter := models.BookFilter{
		ListParams: listParams(c),
		Author:     strings.TrimSpace(c.Query("author")),
	}
	if available := queryBool(c, "available"); available != nil {
		filter.AvailableOnly = *available
	}
	books, pagination, err := h.books.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, books, pagination)
}

// Get godoc
// @Summary Get book
// @Tags Library
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id} [get]
func (h *BookHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	book, err := h.books.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// Create godoc
// @Summary Create book
// @Tags Library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.BookInput true "Book payload"
// @Success 201 {object} response.Envelope
// @Router /library/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var in models.BookInput
	if err := bindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	book, err := h.books.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, book)
}

// Update godoc
// @Summary Update book
// @Tags Library
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param payload body models.BookInput true "Book payload"
// @Success 200 {object} response.Envelope
// @Router /library/books/{id} [put]
func (h *BookHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var in models.BookInput
	if err := bindJSON(c, &in); err != nil {
		response.Error(c, err)
		return
	}
	book, err := h.books.Update(c.Request.Context(), id, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, book, nil)
}

// Delete godoc
// @Summary Delete book
// @Tags Library
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Router /library/books/{id} [delete]
func (h *BookHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.books.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
