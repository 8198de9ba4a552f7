package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"

	"soundprint-mockup/utils"
)

//go:generate mockgen -source=uploader.go -destination=mocks/uploader_mock.go -package=mocks

// UploaderInterface persists an encoded render and returns its public URL.
// Failures wrap models.ErrUpload.
type UploaderInterface interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ObjectKey builds a content-addressed key: <prefix>/<templateId>/<sha256 prefix><ext>.
// Identical renders map to the same object, so re-uploads are idempotent.
func ObjectKey(prefix, templateID string, data []byte, format string) string {
	sum := sha256.Sum256(data)
	name := hex.EncodeToString(sum[:16]) + utils.ExtensionForFormat(format)
	return path.Join(strings.Trim(prefix, "/"), templateID, name)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
