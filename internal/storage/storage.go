package storage

import (
	"context"
	"fmt"
	"time"
)

// Asset is what the media host reports back after an upload.
type Asset struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Bytes     int64  `json:"bytes"`
	Format    string `json:"format"`
}

// Variant selects the read-time transform of DisplayURL.
type Variant struct {
	Thumb bool
	Size  int
}

var (
	VariantThumb = Variant{Thumb: true, Size: 96}
	VariantFull  = Variant{Size: 800}
)

// AvatarHost is an external image host.
type AvatarHost interface {
	// Upload stores data bounded to 1024x1024 and returns the asset reference.
	Upload(ctx context.Context, data []byte, contentType string) (*Asset, error)

	// Destroy deletes an asset. Deleting a missing asset is not an error.
	Destroy(ctx context.Context, storageID string) error

	// DisplayURL derives a display URL without network access.
	DisplayURL(ref string, v Variant) string
}

// Config holds media host settings.
type Config struct {
	Provider      string // cloudinary, r2
	CloudName     string
	APIKey        string
	APISecret     string
	Folder        string
	Bucket        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	Timeout       time.Duration
}

// NewAvatarHost creates the host selected by cfg.Provider.
func NewAvatarHost(cfg Config) (AvatarHost, error) {
	switch cfg.Provider {
	case "", "cloudinary":
		return NewCloudinaryHost(cfg)
	case "r2":
		return NewCloudflareR2Host(cfg)
	default:
		return nil, fmt.Errorf("unsupported media provider: %s", cfg.Provider)
	}
}
