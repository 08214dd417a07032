package storage

import (
	"context"
	"net/http"
	"strings"
	"time"

	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/observability"
	"reviewhub_backend/pkg/apperrors"
)

// MaxAvatarBytes is inclusive: a file of exactly this size is accepted.
const MaxAvatarBytes int64 = 5 * 1024 * 1024

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// AvatarManager validates avatar files before they reach the host and bounds
// every host call with a timeout. It never retries.
type AvatarManager struct {
	host     AvatarHost
	maxBytes int64
	timeout  time.Duration
	metrics  *observability.Metrics
}

func NewAvatarManager(host AvatarHost, maxBytes int64, timeout time.Duration, metrics *observability.Metrics) *AvatarManager {
	if maxBytes <= 0 {
		maxBytes = MaxAvatarBytes
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AvatarManager{host: host, maxBytes: maxBytes, timeout: timeout, metrics: metrics}
}

// NormalizeContentType resolves the declared type, sniffing the bytes when the
// client sent nothing useful.
func NormalizeContentType(declared string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" || ct == "image/pjpeg" {
		ct = "image/jpeg"
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(data)
	}
	return ct
}

// Validate checks type and size without touching the network.
func (m *AvatarManager) Validate(size int64, contentType string) error {
	if !allowedAvatarTypes[contentType] {
		return apperrors.ErrInvalidFileType
	}
	if size <= 0 {
		return apperrors.FieldError("file", "File is empty")
	}
	if size > m.maxBytes {
		return apperrors.ErrFileTooLarge
	}
	return nil
}

func (m *AvatarManager) Upload(ctx context.Context, data []byte, declaredType string) (*Asset, error) {
	contentType := NormalizeContentType(declaredType, data)
	if err := m.Validate(int64(len(data)), contentType); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	asset, err := m.host.Upload(ctx, data, contentType)
	m.metrics.ObserveUpstream("media", "upload", start, err)
	if err != nil {
		logger.CtxWithError(ctx, "avatar upload failed", err, "content_type", contentType, "size", len(data))
		return nil, apperrors.AssetError(err, "Avatar upload failed")
	}
	m.metrics.ObserveAvatarBytes(asset.Bytes)
	logger.CtxInfo(ctx, "avatar uploaded", "storage_id", asset.StorageID, "bytes", asset.Bytes)
	return asset, nil
}

// Destroy is a no-op for an empty id.
func (m *AvatarManager) Destroy(ctx context.Context, storageID string) error {
	if strings.TrimSpace(storageID) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := m.host.Destroy(ctx, storageID)
	m.metrics.ObserveUpstream("media", "destroy", start, err)
	if err != nil {
		return apperrors.AssetError(err, "Avatar delete failed")
	}
	return nil
}

// DestroyBestEffort logs failures instead of returning them.
func (m *AvatarManager) DestroyBestEffort(ctx context.Context, storageID string) {
	if err := m.Destroy(ctx, storageID); err != nil {
		logger.CtxWarn(ctx, "avatar destroy failed, asset left orphaned", "storage_id", storageID, "error", err.Error())
	}
}

func (m *AvatarManager) DisplayURL(ref string, v Variant) string {
	return m.host.DisplayURL(ref, v)
}
