package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"

	"reviewhub_backend/internal/imageprocessor"
)

// CloudflareR2Host implements AvatarHost on Cloudflare R2 (S3 compatible).
// R2 has no delivery transforms, so images are bounded locally before upload
// and DisplayURL returns the stored URL.
type CloudflareR2Host struct {
	client    *s3.S3
	uploader  *s3manager.Uploader
	bucket    string
	baseURL   string
	folder    string
	processor *imageprocessor.Processor
}

func NewCloudflareR2Host(cfg Config) (*CloudflareR2Host, error) {
	// R2 endpoint format: https://<account_id>.r2.cloudflarestorage.com
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for Cloudflare R2")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required for Cloudflare R2")
	}

	awsConfig := &aws.Config{
		Region:           aws.String("auto"),
		Endpoint:         aws.String(cfg.Endpoint),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Timeout > 0 {
		awsConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create R2 session: %w", err)
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.r2.dev", cfg.Bucket)
	}

	return &CloudflareR2Host{
		client:    s3.New(sess),
		uploader:  s3manager.NewUploader(sess),
		bucket:    cfg.Bucket,
		baseURL:   baseURL,
		folder:    strings.Trim(cfg.Folder, "/"),
		processor: imageprocessor.NewProcessor(85),
	}, nil
}

func (h *CloudflareR2Host) Upload(ctx context.Context, data []byte, contentType string) (*Asset, error) {
	img, err := h.processor.Fit(data, imageprocessor.AvatarBounds)
	if err != nil {
		return nil, err
	}

	key := h.objectKey(img.Format)
	_, err = h.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:       aws.String(h.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(img.Data),
		ContentType:  aws.String(img.ContentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to R2: %w", err)
	}

	return &Asset{
		URL:       h.baseURL + "/" + key,
		StorageID: key,
		Width:     img.Width,
		Height:    img.Height,
		Bytes:     int64(len(img.Data)),
		Format:    img.Format,
	}, nil
}

// Destroy relies on S3 DeleteObject succeeding for missing keys.
func (h *CloudflareR2Host) Destroy(ctx context.Context, storageID string) error {
	_, err := h.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(storageID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}
	return nil
}

func (h *CloudflareR2Host) DisplayURL(ref string, _ Variant) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || urlLike.MatchString(ref) {
		return ref
	}
	return h.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (h *CloudflareR2Host) objectKey(format string) string {
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	name := uuid.NewString() + "." + ext
	if h.folder == "" {
		return name
	}
	return h.folder + "/" + name
}
