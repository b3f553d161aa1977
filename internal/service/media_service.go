package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/storage"
)

const (
	imageKeyPrefix = "images/"
	maxImageCount  = 5
)

// UploadedFile is a multipart file read into memory by a handler.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// MediaDownload is an opened stored object ready for streaming.
type MediaDownload struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// MediaServiceConfig holds upload limits and the public URL prefix.
type MediaServiceConfig struct {
	MaxFileSize int64
	PublicPath  string
}

// MediaService stores institute and event images in the storage backend.
type MediaService struct {
	backend storage.Backend
	cfg     MediaServiceConfig
	logger  *zap.Logger
}

// NewMediaService constructs MediaService.
func NewMediaService(backend storage.Backend, cfg MediaServiceConfig, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.PublicPath == "" {
		cfg.PublicPath = "/api/v1/uploads"
	}
	cfg.PublicPath = strings.TrimRight(cfg.PublicPath, "/")
	return &MediaService{backend: backend, cfg: cfg, logger: logger}
}

// SaveImages sniffs each file, stores the images and returns their public URLs in input order.
// Nothing is stored when any file is rejected.
func (s *MediaService) SaveImages(ctx context.Context, files []UploadedFile) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	if len(files) > maxImageCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d images are allowed", maxImageCount))
	}
	detected := make([]*mimetype.MIME, len(files))
	for i, f := range files {
		if len(f.Data) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image %q is empty", f.Filename))
		}
		if int64(len(f.Data)) > s.cfg.MaxFileSize {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("image %q exceeds %d bytes", f.Filename, s.cfg.MaxFileSize))
		}
		mt := mimetype.Detect(f.Data)
		if !strings.HasPrefix(mt.String(), "image/") {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%q is not an image", f.Filename))
		}
		detected[i] = mt
	}

	urls := make([]string, 0, len(files))
	for i, f := range files {
		key := imageKeyPrefix + uuid.NewString() + detected[i].Extension()
		if err := s.backend.Put(ctx, key, f.Data, detected[i].String()); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store image")
		}
		urls = append(urls, s.cfg.PublicPath+"/"+key)
	}
	return urls, nil
}

// OpenImage opens a stored image by key. Only keys under the image prefix are served.
func (s *MediaService) OpenImage(ctx context.Context, key string) (*MediaDownload, error) {
	key = path.Clean(strings.TrimPrefix(key, "/"))
	if !strings.HasPrefix(key, imageKeyPrefix) || strings.Contains(key, "..") {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
	}
	body, err := s.backend.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to open file")
	}
	return &MediaDownload{Body: body, ContentType: contentTypeForKey(key), Filename: path.Base(key)}, nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}
