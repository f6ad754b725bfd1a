package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-api/internal/models"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
	"github.com/noah-isme/sma-portal-api/pkg/response"
)

type accountService interface {
	ListAdmins(ctx context.Context, filter models.AccountFilter) ([]models.Admin, *models.Pagination, error)
	ListStaff(ctx context.Context, filter models.AccountFilter) ([]models.Staff, *models.Pagination, error)
	ListLibrarians(ctx context.Context, filter models.AccountFilter) ([]models.Librarian, *models.Pagination, error)
	GetAdmin(ctx context.Context, id int64) (*models.Admin, error)
	GetStaff(ctx context.Context, id int64) (*models.Staff, error)
	GetLibrarian(ctx context.Context, id int64) (*models.Librarian, error)
	CreateAdmin(ctx context.Context, in models.AccountInput) (*models.Admin, error)
	CreateStaff(ctx context.Context, in models.AccountInput) (*models.Staff, error)
	CreateLibrarian(ctx context.Context, in models.AccountInput) (*models.Librarian, error)
	UpdateAdmin(ctx context.Context, id int64, in models.AccountInput) (*models.Admin, error)
	UpdateStaff(ctx context.Context, id int64, in models.AccountInput) (*models.Staff, error)
	UpdateLibrarian(ctx context.Context, id int64, in models.AccountInput) (*models.Librarian, error)
	Delete(ctx context.Context, kind models.AccountKind, id int64) error
}

// AccountHandler exposes admin, staff and librarian account endpoints. Each
// handler is bound to one account kind when routes are registered.
type AccountHandler struct {
	accounts accountService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// List godoc
// @Summary List accounts of one kind
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param kind path string true "admins, staff or librarians"
// @Param search query string false "Search by username, name or registration id"
// @Param department_id query int false "Filter by department"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /accounts/{kind} [get]
func (h *AccountHandler) List(kind models.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.AccountFilter{ListParams: listParams(c), Active: queryBool(c, "active")}
		departmentID, err := queryID(c, "department_id")
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.DepartmentID = departmentID

		ctx := c.Request.Context()
		var (
			items      interface{}
			pagination *models.Pagination
		)
		switch kind {
		case models.AccountAdmin:
			items, pagination, err = h.accounts.ListAdmins(ctx, filter)
		case models.AccountStaff:
			items, pagination, err = h.accounts.ListStaff(ctx, filter)
		case models.AccountLibrarian:
			items, pagination, err = h.accounts.ListLibrarians(ctx, filter)
		default:
			err = appErrors.ErrNotFound
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, items, pagination)
	}
}

// Get godoc
// @Summary Get account detail
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param kind path string true "admins, staff or librarians"
// @Param id path int true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/{kind}/{id} [get]
func (h *AccountHandler) Get(kind models.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		ctx := c.Request.Context()
		var item interface{}
		switch kind {
		case models.AccountAdmin:
			item, err = h.accounts.GetAdmin(ctx, id)
		case models.AccountStaff:
			item, err = h.accounts.GetStaff(ctx, id)
		case models.AccountLibrarian:
			item, err = h.accounts.GetLibrarian(ctx, id)
		default:
			err = appErrors.ErrNotFound
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, item, nil)
	}
}

// Create godoc
// @Summary Create account
// @Description Creates the account with a generated registration id. Password and password_confirm are required.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "admins, staff or librarians"
// @Param payload body models.AccountInput true "Account payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /accounts/{kind} [post]
func (h *AccountHandler) Create(kind models.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.AccountInput
		if err := bindJSON(c, &in); err != nil {
			response.Error(c, err)
			return
		}
		ctx := c.Request.Context()
		var (
			item interface{}
			err  error
		)
		switch kind {
		case models.AccountAdmin:
			item, err = h.accounts.CreateAdmin(ctx, in)
		case models.AccountStaff:
			item, err = h.accounts.CreateStaff(ctx, in)
		case models.AccountLibrarian:
			item, err = h.accounts.CreateLibrarian(ctx, in)
		default:
			err = appErrors.ErrNotFound
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, item)
	}
}

// Update godoc
// @Summary Update account
// @Description Partial update. The password is kept unless a new one is supplied with its confirmation.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind path string true "admins, staff or librarians"
// @Param id path int true "Account ID"
// @Param payload body models.AccountInput true "Account payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /accounts/{kind}/{id} [put]
func (h *AccountHandler) Update(kind models.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		var in models.AccountInput
		if err := bindJSON(c, &in); err != nil {
			response.Error(c, err)
			return
		}
		ctx := c.Request.Context()
		var item interface{}
		switch kind {
		case models.AccountAdmin:
			item, err = h.accounts.UpdateAdmin(ctx, id, in)
		case models.AccountStaff:
			item, err = h.accounts.UpdateStaff(ctx, id, in)
		case models.AccountLibrarian:
			item, err = h.accounts.UpdateLibrarian(ctx, id, in)
		default:
			err = appErrors.ErrNotFound
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, item, nil)
	}
}

// Delete godoc
// @Summary Delete account
// @Tags Accounts
// @Security BearerAuth
// @Param kind path string true "admins, staff or librarians"
// @Param id path int true "Account ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /accounts/{kind}/{id} [delete]
func (h *AccountHandler) Delete(kind models.AccountKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := h.accounts.Delete(c.Request.Context(), kind, id); err != nil {
			response.Error(c, err)
			return
		}
		response.NoContent(c)
	}
}
