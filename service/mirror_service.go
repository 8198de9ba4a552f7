package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"soundprint-mockup/logger"
	"soundprint-mockup/utils"
)

// MirrorReport summarizes a mirror pass.
type MirrorReport struct {
	Total      int      `json:"total"`
	Downloaded int      `json:"downloaded"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors"`
}

// MirrorLockName is the lock file held in the destination directory while a mirror pass runs.
const MirrorLockName = ".mirror.lock"

// ErrMirrorBusy is returned when another process is already mirroring into the same directory.
var ErrMirrorBusy = errors.New("mirror already running for destination")

// MirrorService copies layer images from a Drive folder into a local directory, byte for byte,
// so templates authored against drive:// refs can be served from the file asset source.
type MirrorService struct {
	driveService DriveServiceInterface
	log          *logger.Logger
}

// NewMirrorService creates a new MirrorService instance
func NewMirrorService(driveService DriveServiceInterface, log *logger.Logger) *MirrorService {
	return &MirrorService{
		driveService: driveService,
		log:          logger.OrNop(log).With("component", "MirrorService"),
	}
}

// Ensure MirrorService implements MirrorServiceInterface
var _ MirrorServiceInterface = (*MirrorService)(nil)

// MirrorFolder downloads every image in folderID into destDir. Files already on disk are skipped.
// Per-file failures are collected and do not stop the pass.
func (s *MirrorService) MirrorFolder(ctx context.Context, folderID, destDir string) (*MirrorReport, error) {
	s.log.Info("📥 Starting mirror", "folderId", folderID, "dest", destDir)

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	lockPath := filepath.Join(destDir, MirrorLockName)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire mirror lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrMirrorBusy, destDir)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.log.Warn("⚠️ Failed to release mirror lock", "path", lockPath, "error", err)
		}
	}()

	files, err := s.driveService.ListImageFiles(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list layer files from Drive: %w", err)
	}

	report := &MirrorReport{Total: len(files), Errors: []string{}}
	usedNames := make(map[string]bool)

	for _, file := range files {
		name := filepath.Base(file.Name)
		if name == "." || name == string(filepath.Separator) || name == "" {
			name = file.ID
		}

		// TEMPLATEID__LAYER.ext files land in the template's own directory, matching manifest refs
		rel := name
		if layer, err := utils.ParseLayerFileName(name); err == nil {
			rel = filepath.FromSlash(layer.Path())
		}

		// Duplicate names inside one Drive folder are legal; keep the first
		if usedNames[rel] {
			s.log.Warn("⏭️  Skipping duplicate file name", "name", name, "fileId", file.ID)
			report.Skipped++
			continue
		}
		usedNames[rel] = true

		target := filepath.Join(destDir, rel)
		if _, err := os.Stat(target); err == nil {
			report.Skipped++
			continue
		}

		data, err := s.driveService.DownloadFile(ctx, file.ID)
		if err != nil {
			msg := fmt.Sprintf("failed to download %s (%s): %v", name, file.ID, err)
			s.log.Error("❌ " + msg)
			report.Errors = append(report.Errors, msg)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			msg := fmt.Sprintf("failed to create directory for %s: %v", name, err)
			s.log.Error("❌ " + msg)
			report.Errors = append(report.Errors, msg)
			continue
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			msg := fmt.Sprintf("failed to save %s: %v", name, err)
			s.log.Error("❌ " + msg)
			report.Errors = append(report.Errors, msg)
			continue
		}
		report.Downloaded++
	}

	s.log.Info("🎉 Mirror completed",
		"downloaded", report.Downloaded, "skipped", report.Skipped, "failed", len(report.Errors), "total", report.Total)
	return report, nil
}
