package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-api/internal/service"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
	"github.com/noah-isme/sma-portal-api/pkg/response"
)

// multipartOverhead leaves room for boundaries and headers around the photo part.
const multipartOverhead = 64 << 10

type mediaService interface {
	MaxFileSize() int64
	UploadPhoto(ctx context.Context, kind string, id int64, contentType string, body io.Reader) (*service.PhotoResult, error)
	Open(token string) (*os.File, error)
}

// MediaHandler handles profile photo uploads and signed downloads.
type MediaHandler struct {
	media mediaService
}

// NewMediaHandler constructs MediaHandler.
func NewMediaHandler(media mediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// UploadPhoto godoc
// @Summary Upload profile photo
// @Description Stores the photo and returns a signed, expiring link to it.
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind path string true "admins, staff, librarians or students"
// @Param id path int true "Owner ID"
// @Param photo formData file true "Image file"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /accounts/{kind}/{id}/photo [post]
func (h *MediaHandler) UploadPhoto(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.media.MaxFileSize()+multipartOverhead)
		header, err := c.FormFile("photo")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.Error(c, appErrors.ErrPayloadTooLarge)
				return
			}
			response.Error(c, appErrors.FieldError("photo", "photo file is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
			return
		}
		defer file.Close()

		result, err := h.media.UploadPhoto(c.Request.Context(), kind, id, header.Header.Get("Content-Type"), file)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, result)
	}
}

// Serve godoc
// @Summary Download stored media
// @Tags Media
// @Param token path string true "Signed media token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /media/{token} [get]
func (h *MediaHandler) Serve(c *gin.Context) {
	file, err := h.media.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read media"))
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, filepath.Base(file.Name()), info.ModTime(), file)
}
