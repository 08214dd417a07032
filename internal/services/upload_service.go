package services

import (
	"context"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/pkg/apperrors"
)

type UploadService interface {
	UploadAvatar(ctx context.Context, file *AvatarFile) (*dto.UploadResponse, error)
}

type uploadService struct {
	avatars AvatarAssets
}

func NewUploadService(avatars AvatarAssets) UploadService {
	return &uploadService{avatars: avatars}
}

func (s *uploadService) UploadAvatar(ctx context.Context, file *AvatarFile) (*dto.UploadResponse, error) {
	if s.avatars == nil {
		return nil, apperrors.ConfigError("avatar storage", "media provider credentials must be set")
	}
	if file == nil || len(file.Data) == 0 {
		return nil, apperrors.FieldError("file", "File is required")
	}

	asset, err := s.avatars.Upload(ctx, file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}
	return &dto.UploadResponse{
		OK:        true,
		URL:       asset.URL,
		PublicID:  asset.StorageID,
		StorageID: asset.StorageID,
		Width:     asset.Width,
		Height:    asset.Height,
		Bytes:     asset.Bytes,
		Format:    asset.Format,
	}, nil
}
