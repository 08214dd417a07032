package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// avatarTransformation bounds uploads to 1024x1024 and lets the host pick
// quality and format.
const avatarTransformation = "c_limit,w_1024,h_1024/q_auto/f_auto"

// CloudinaryHost implements AvatarHost on Cloudinary.
type CloudinaryHost struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	folder    string
}

func NewCloudinaryHost(cfg Config) (*CloudinaryHost, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are required")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return &CloudinaryHost{cld: cld, cloudName: cfg.CloudName, folder: cfg.Folder}, nil
}

func (h *CloudinaryHost) Upload(ctx context.Context, data []byte, contentType string) (*Asset, error) {
	overwrite := false
	unique := true

	res, err := h.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         h.folder,
		ResourceType:   "image",
		Transformation: avatarTransformation,
		Overwrite:      &overwrite,
		UniqueFilename: &unique,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" || res.PublicID == "" {
		return nil, errors.New("cloudinary upload: empty response")
	}

	return &Asset{
		URL:       res.SecureURL,
		StorageID: res.PublicID,
		Width:     res.Width,
		Height:    res.Height,
		Bytes:     int64(res.Bytes),
		Format:    res.Format,
	}, nil
}

func (h *CloudinaryHost) Destroy(ctx context.Context, storageID string) error {
	invalidate := true
	res, err := h.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     storageID,
		ResourceType: "image",
		Invalidate:   &invalidate,
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy: unexpected result %q", res.Result)
	}
}

func (h *CloudinaryHost) DisplayURL(ref string, v Variant) string {
	return CloudinaryDisplayURL(h.cloudName, ref, v)
}

var (
	urlLike       = regexp.MustCompile(`(?i)^(https?://|blob:|data:)`)
	localLike     = regexp.MustCompile(`(?i)^(blob:|data:)`)
	versionSeg    = regexp.MustCompile(`^v\d+$`)
	imageExtRegex = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|webp|gif|avif)$`)
)

const uploadMarker = "/image/upload/"

// CloudinaryDisplayURL builds a transformed delivery URL from a public id or
// an existing Cloudinary URL. blob:/data: refs and foreign URLs pass through.
func CloudinaryDisplayURL(cloudName, ref string, v Variant) string {
	raw := strings.TrimSpace(ref)
	if raw == "" {
		return ""
	}
	if localLike.MatchString(raw) {
		return raw
	}

	publicID := extractPublicID(raw)
	if publicID == "" || cloudName == "" {
		if urlLike.MatchString(raw) {
			return raw
		}
		return ""
	}

	size := v.Size
	var t string
	if v.Thumb {
		if size <= 0 {
			size = VariantThumb.Size
		}
		t = fmt.Sprintf("c_fill,g_auto,w_%d,h_%d,q_auto,f_auto", size, size)
	} else {
		if size <= 0 {
			size = VariantFull.Size
		}
		t = fmt.Sprintf("c_limit,w_%d,h_%d,q_auto,f_auto", size, size)
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/%s/%s", cloudName, t, publicID)
}

// extractPublicID returns "" for URLs that are not Cloudinary delivery URLs.
func extractPublicID(s string) string {
	if !urlLike.MatchString(s) {
		return imageExtRegex.ReplaceAllString(s, "")
	}

	i := strings.Index(s, uploadMarker)
	if i < 0 {
		return ""
	}

	var parts []string
	for _, p := range strings.Split(s[i+len(uploadMarker):], "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	for idx, p := range parts {
		if versionSeg.MatchString(p) {
			parts = parts[idx+1:]
			break
		}
	}
	return imageExtRegex.ReplaceAllString(strings.Join(parts, "/"), "")
}
