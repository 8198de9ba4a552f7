package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"soundprint-mockup/layers"
	"soundprint-mockup/logger"
)

// DriveFile is an image file found in a Drive folder, addressable as a layer ref.
type DriveFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Ref      string `json:"ref"`
}

// DriveService handles Google Drive API operations for template layer assets
type DriveService struct {
	client *drive.Service
	log    *logger.Logger
}

// NewDriveService creates a new DriveService instance
// credentialsPath should be the path to the Service Account JSON file
func NewDriveService(ctx context.Context, credentialsPath string, log *logger.Logger) (*DriveService, error) {
	return NewDriveServiceWithOptions(ctx, log, option.WithCredentialsFile(credentialsPath))
}

// NewDriveServiceWithOptions creates a DriveService from explicit client options.
func NewDriveServiceWithOptions(ctx context.Context, log *logger.Logger, opts ...option.ClientOption) (*DriveService, error) {
	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{
		client: driveService,
		log:    logger.OrNop(log).With("component", "DriveService"),
	}, nil
}

// Ensure DriveService implements DriveServiceInterface
var _ DriveServiceInterface = (*DriveService)(nil)

// Ensure DriveService can serve drive:// layer refs
var _ layers.AssetSourceInterface = (*DriveService)(nil)

// Fetch downloads the file behind a drive://<fileId> ref.
func (ds *DriveService) Fetch(ctx context.Context, ref string) ([]byte, error) {
	fileID := strings.TrimPrefix(ref, layers.DriveScheme)
	if fileID == "" || fileID == ref {
		return nil, fmt.Errorf("invalid drive ref %q", ref)
	}
	return ds.DownloadFile(ctx, fileID)
}

// DownloadFile returns the content of a Drive file.
func (ds *DriveService) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := ds.client.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: drive file %s", layers.ErrAssetNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to download drive file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drive file %s: %w", fileID, err)
	}

	ds.log.Debug("📥 Drive file downloaded", "fileId", fileID, "bytes", len(data))
	return data, nil
}

// ListImageFiles lists all image files in a Google Drive folder
func (ds *DriveService) ListImageFiles(ctx context.Context, folderID string) ([]DriveFile, error) {
	// Build query to list files in the folder
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)

	var allFiles []*drive.File
	pageToken := ""
	for {
		call := ds.client.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			Context(ctx)

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		r, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		allFiles = append(allFiles, r.Files...)
		pageToken = r.NextPageToken

		if pageToken == "" {
			break
		}
	}

	imageMimeTypes := map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
		"image/jpg":  true,
		"image/webp": true,
	}

	var files []DriveFile
	for _, file := range allFiles {
		if !imageMimeTypes[strings.ToLower(file.MimeType)] {
			continue
		}
		files = append(files, DriveFile{
			ID:       file.Id,
			Name:     file.Name,
			MimeType: file.MimeType,
			Ref:      layers.DriveScheme + file.Id,
		})
	}

	ds.log.Info("✓ Drive folder listed", "folderId", folderID, "files", len(allFiles), "images", len(files))
	return files, nil
}
