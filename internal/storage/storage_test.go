package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"reviewhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryDisplayURL(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		v    Variant
		want string
	}{
		{
			name: "versioned url thumb",
			ref:  "https://res.cloudinary.com/demo/image/upload/v1712345/review-app/avatars/abc.jpg",
			v:    VariantThumb,
			want: "https://res.cloudinary.com/demo/image/upload/c_fill,g_auto,w_96,h_96,q_auto,f_auto/review-app/avatars/abc",
		},
		{
			name: "transformed url full",
			ref:  "https://res.cloudinary.com/demo/image/upload/c_limit,w_1024/v9/review-app/avatars/abc.png",
			v:    VariantFull,
			want: "https://res.cloudinary.com/demo/image/upload/c_limit,w_800,h_800,q_auto,f_auto/review-app/avatars/abc",
		},
		{
			name: "bare public id",
			ref:  "review-app/avatars/abc",
			v:    Variant{Thumb: true, Size: 48},
			want: "https://res.cloudinary.com/demo/image/upload/c_fill,g_auto,w_48,h_48,q_auto,f_auto/review-app/avatars/abc",
		},
		{
			name: "foreign url untouched",
			ref:  "https://example.com/me.jpg",
			v:    VariantThumb,
			want: "https://example.com/me.jpg",
		},
		{
			name: "blob preview untouched",
			ref:  "blob:https://app/123",
			v:    VariantThumb,
			want: "blob:https://app/123",
		},
		{name: "empty", ref: "  ", v: VariantThumb, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CloudinaryDisplayURL("demo", tt.ref, tt.v))
		})
	}

	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/x.jpg",
		CloudinaryDisplayURL("", "https://res.cloudinary.com/demo/image/upload/v1/x.jpg", VariantThumb))
}

func TestNormalizeContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")

	assert.Equal(t, "image/jpeg", NormalizeContentType("image/jpg", nil))
	assert.Equal(t, "image/png", NormalizeContentType("IMAGE/PNG; charset=binary", nil))
	assert.Equal(t, "image/png", NormalizeContentType("", png))
	assert.Equal(t, "image/png", NormalizeContentType("application/octet-stream", png))
}

type stubHost struct {
	uploads   int
	uploadErr error
	destroyed []string
}

func (s *stubHost) Upload(_ context.Context, data []byte, _ string) (*Asset, error) {
	s.uploads++
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &Asset{URL: "https://cdn/x.jpg", StorageID: "x", Bytes: int64(len(data))}, nil
}

func (s *stubHost) Destroy(_ context.Context, id string) error {
	s.destroyed = append(s.destroyed, id)
	return nil
}

func (s *stubHost) DisplayURL(ref string, _ Variant) string { return ref }

func TestAvatarManager_Validate(t *testing.T) {
	m := NewAvatarManager(&stubHost{}, 0, time.Second, nil)

	assert.NoError(t, m.Validate(MaxAvatarBytes, "image/png"))
	assert.ErrorIs(t, m.Validate(MaxAvatarBytes+1, "image/png"), apperrors.ErrFileTooLarge)
	assert.ErrorIs(t, m.Validate(10, "application/pdf"), apperrors.ErrInvalidFileType)
	assert.True(t, apperrors.HasCode(m.Validate(0, "image/gif"), apperrors.CodeValidationFailed))
}

func TestAvatarManager_Upload(t *testing.T) {
	host := &stubHost{}
	m := NewAvatarManager(host, 16, time.Second, nil)

	asset, err := m.Upload(context.Background(), []byte("\xff\xd8\xff\xe0tiny"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "x", asset.StorageID)

	_, err = m.Upload(context.Background(), bytes.Repeat([]byte{0xff}, 17), "image/jpeg")
	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
	assert.Equal(t, 1, host.uploads)

	host.uploadErr = errors.New("quota exceeded")
	_, err = m.Upload(context.Background(), []byte("\xff\xd8\xff\xe0tiny"), "image/jpeg")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAssetError))
}

func TestAvatarManager_DestroySkipsEmptyID(t *testing.T) {
	host := &stubHost{}
	m := NewAvatarManager(host, 0, time.Second, nil)

	require.NoError(t, m.Destroy(context.Background(), " "))
	m.DestroyBestEffort(context.Background(), "avatars/a")
	assert.Equal(t, []string{"avatars/a"}, host.destroyed)
}

func TestNewAvatarHost_UnknownProvider(t *testing.T) {
	_, err := NewAvatarHost(Config{Provider: "ftp"})
	assert.Error(t, err)
}
