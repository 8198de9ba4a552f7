package layers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DriveScheme prefixes layer refs that live in Google Drive.
const DriveScheme = "drive://"

// AssetSourceInterface fetches the raw bytes of a layer ref.
type AssetSourceInterface interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// ErrAssetNotFound is returned when a ref does not exist in its source.
var ErrAssetNotFound = errors.New("asset not found")

// FileAssetSource reads layer refs from a directory tree.
type FileAssetSource struct {
	root string
}

// NewFileAssetSource creates a source rooted at root. Absolute refs bypass the root.
func NewFileAssetSource(root string) *FileAssetSource {
	return &FileAssetSource{root: root}
}

// Ensure FileAssetSource implements AssetSourceInterface
var _ AssetSourceInterface = (*FileAssetSource)(nil)

func (s *FileAssetSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.root, filepath.FromSlash(ref))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, ref)
		}
		return nil, fmt.Errorf("failed to read asset %s: %w", ref, err)
	}
	return data, nil
}

// RoutingAssetSource sends drive:// refs to the Drive source and everything else to files.
type RoutingAssetSource struct {
	files AssetSourceInterface
	drive AssetSourceInterface
}

// NewRoutingAssetSource builds a router. drive may be nil, in which case drive:// refs fail.
func NewRoutingAssetSource(files, drive AssetSourceInterface) *RoutingAssetSource {
	return &RoutingAssetSource{files: files, drive: drive}
}

// Ensure RoutingAssetSource implements AssetSourceInterface
var _ AssetSourceInterface = (*RoutingAssetSource)(nil)

func (s *RoutingAssetSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, DriveScheme) {
		if s.drive == nil {
			return nil, fmt.Errorf("no drive source configured for %s", ref)
		}
		return s.drive.Fetch(ctx, ref)
	}
	return s.files.Fetch(ctx, ref)
}
