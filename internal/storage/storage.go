// Package storage keeps voucher attachments on local disk or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Object is a stored file: Key is what the database keeps, URL is what clients get.
type Object struct {
	Key string
	URL string
}

type Storage interface {
	Put(ctx context.Context, prefix, filename, contentType string, r io.Reader, size int64) (Object, error)
	Delete(ctx context.Context, key string) error
}

var allowedExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// InferExtension picks the stored extension from the client file name, falling
// back to the content type. Anything outside the allow list is rejected.
func InferExtension(filename, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for _, allowed := range allowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := allowedExtensions[ct]; ok {
		return ext, nil
	}
	return "", apperr.Invalid("نوع الملف المرفق غير مدعوم")
}

// RandomName returns a random hex file name carrying ext.
func RandomName(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

func objectKey(prefix, filename, contentType string) (string, error) {
	ext, err := InferExtension(filename, contentType)
	if err != nil {
		return "", err
	}
	name := RandomName(ext)
	if prefix == "" {
		return name, nil
	}
	return prefix + "/" + name, nil
}

// New builds the storage backend selected in config.
func New(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocal(cfg.LocalDir, cfg.PublicPath)
	case "s3":
		return NewS3(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
