package services

import (
	"context"

	"reviewhub_backend/internal/storage"
)

// AvatarAssets is the slice of the avatar manager the lifecycle engine uses.
// *storage.AvatarManager satisfies it.
type AvatarAssets interface {
	Upload(ctx context.Context, data []byte, declaredType string) (*storage.Asset, error)
	Destroy(ctx context.Context, storageID string) error
	DestroyBestEffort(ctx context.Context, storageID string)
	DisplayURL(ref string, v storage.Variant) string
}

// AvatarFile is a raw avatar received with a multipart submission.
type AvatarFile struct {
	Data        []byte
	ContentType string
}
