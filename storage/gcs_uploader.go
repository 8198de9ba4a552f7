package storage

import (
	"context"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"soundprint-mockup/models"
)

const gcsUploadTimeout = 2 * time.Minute

// GCSUploader uploads renders to a Google Cloud Storage bucket
type GCSUploader struct {
	client        *gcs.Client
	bucket        string
	publicBaseURL string
}

// NewGCSUploader creates a GCS uploader. Credentials come from the default chain unless opts
// override them.
func NewGCSUploader(ctx context.Context, bucket, publicBaseURL string, opts ...option.ClientOption) (*GCSUploader, error) {
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSUploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: gcsPublicBaseURL(bucket, publicBaseURL),
	}, nil
}

func gcsPublicBaseURL(bucket, publicBaseURL string) string {
	if publicBaseURL != "" {
		return publicBaseURL
	}
	return "https://storage.googleapis.com/" + bucket
}

// Ensure GCSUploader implements UploaderInterface
var _ UploaderInterface = (*GCSUploader)(nil)

func (u *GCSUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, gcsUploadTimeout)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("%w: failed to write %s to GCS: %v", models.ErrUpload, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: failed to close GCS writer for %s: %v", models.ErrUpload, key, err)
	}
	return joinURL(u.publicBaseURL, key), nil
}

func (u *GCSUploader) Close() error {
	return u.client.Close()
}
