package service

import "context"

// MirrorServiceInterface defines the contract for copying Drive layer assets to a local asset root
type MirrorServiceInterface interface {
	MirrorFolder(ctx context.Context, folderID, destDir string) (*MirrorReport, error)
}
