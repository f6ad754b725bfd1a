package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-api/pkg/storage"
	appErrors "github.com/noah-isme/sma-portal-api/pkg/errors"
)

type photoOwner interface {
	UpdateProfilePhoto(ctx context.Context, id int64, path string) error
}

type mediaStore interface {
	SaveStream(relPath string, r io.Reader, limit int64) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
}

// MediaConfig bounds profile photo uploads.
type MediaConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// PhotoResult describes a stored profile photo and a signed link to it.
type PhotoResult struct {
	Path      string    `json:"path"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaService stores profile photos and serves them through signed links.
type MediaService struct {
	owners  map[string]photoOwner
	store   mediaStore
	signer  *storage.SignedURLSigner
	allowed map[string]bool
	cfg     MediaConfig
	clock   Clock
	logger  *zap.Logger
}

// NewMediaService constructs a MediaService. accounts owns admin, staff and librarian photos.
func NewMediaService(accounts, students photoOwner, store mediaStore, signer *storage.SignedURLSigner, cfg MediaConfig, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 << 20
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	allowed := map[string]bool{}
	for _, mime := range cfg.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(mime))] = true
	}
	if len(allowed) == 0 {
		for mime := range photoExtensions {
			allowed[mime] = true
		}
	}
	return &MediaService{
		owners: map[string]photoOwner{
			"admins":     accounts,
			"staff":      accounts,
			"librarians": accounts,
			"students":   students,
		},
		store:   store,
		signer:  signer,
		allowed: allowed,
		cfg:     cfg,
		clock:   SystemClock,
		logger:  logger,
	}
}

// MaxFileSize reports the upload limit in bytes.
func (s *MediaService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// UploadPhoto stores a profile photo for the owner and records its path.
func (s *MediaService) UploadPhoto(ctx context.Context, kind string, id int64, contentType string, body io.Reader) (*PhotoResult, error) {
	owner, ok := s.owners[kind]
	if !ok || owner == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown account kind")
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	ext, known := photoExtensions[contentType]
	if !known || !s.allowed[contentType] {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("content type %q is not allowed", contentType))
	}

	relPath := fmt.Sprintf("profile_photos/%s/%d-%d%s", kind, id, s.clock().UnixNano(), ext)
	stored, err := s.store.SaveStream(relPath, body, s.cfg.MaxFileSize)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("photo exceeds %d bytes", s.cfg.MaxFileSize))
		}
		return nil, internalError(err, "failed to store photo")
	}

	if err := owner.UpdateProfilePhoto(ctx, id, stored); err != nil {
		if rmErr := s.store.Delete(stored); rmErr != nil {
			s.logger.Warn("failed to remove orphaned photo", zap.String("path", stored), zap.Error(rmErr))
		}
		return nil, lookupError(err, strings.TrimSuffix(kind, "s")+" not found", "failed to record photo")
	}
	s.logger.Info("profile photo stored", zap.String("kind", kind), zap.Int64("id", id), zap.String("path", stored))
	return s.Link(stored)
}

// Link signs a download link for a stored path.
func (s *MediaService) Link(relPath string) (*PhotoResult, error) {
	token, expiresAt, err := s.signer.Generate(relPath)
	if err != nil {
		return nil, internalError(err, "failed to sign media link")
	}
	return &PhotoResult{
		Path:      relPath,
		URL:       fmt.Sprintf("%s/media/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// Open resolves a signed token to the stored file.
func (s *MediaService) Open(token string) (*os.File, error) {
	relPath, err := s.signer.Parse(token)
	switch {
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, appErrors.Clone(appErrors.ErrForbidden, "media link has expired")
	case err != nil:
		return nil, appErrors.Clone(appErrors.ErrNotFound, "media not found")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "media not found")
	}
	return file, nil
}
