package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"soundprint-mockup/logger"
	"soundprint-mockup/models"
)

// LocalUploader writes renders under a directory, for development and the CLI.
type LocalUploader struct {
	dir           string
	publicBaseURL string
	log           *logger.Logger
}

// NewLocalUploader ensures dir exists. Without publicBaseURL, URLs are file:// paths.
func NewLocalUploader(dir, publicBaseURL string, log *logger.Logger) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	return &LocalUploader{
		dir:           abs,
		publicBaseURL: publicBaseURL,
		log:           logger.OrNop(log).With("component", "LocalUploader"),
	}, nil
}

// Ensure LocalUploader implements UploaderInterface
var _ UploaderInterface = (*LocalUploader)(nil)

func (u *LocalUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrUpload, err)
	}

	target := filepath.Join(u.dir, filepath.FromSlash(key))
	if rel, err := filepath.Rel(u.dir, target); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key %q escapes storage directory", models.ErrUpload, key)
	}

	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create directory: %v", models.ErrUpload, err)
	}

	// Write then rename so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create temp file: %v", models.ErrUpload, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: failed to write %s: %v", models.ErrUpload, key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: failed to write %s: %v", models.ErrUpload, key, err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("%w: failed to store %s: %v", models.ErrUpload, key, err)
	}

	u.log.Debug("✓ Mockup stored", "path", target, "contentType", contentType, "bytes", len(data))

	if u.publicBaseURL != "" {
		return joinURL(u.publicBaseURL, key), nil
	}
	return "file://" + filepath.ToSlash(target), nil
}
