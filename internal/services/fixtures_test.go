package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reviewhub_backend/internal/repositories"
	"reviewhub_backend/internal/storage"
	"reviewhub_backend/internal/validator"
	"reviewhub_backend/pkg/apperrors"

	"github.com/stretchr/testify/require"
)

// fakeHost records calls instead of talking to a media host.
type fakeHost struct {
	mu         sync.Mutex
	uploads    int
	destroyed  []string
	uploadErr  error
	destroyErr error
}

func (f *fakeHost) Upload(_ context.Context, data []byte, contentType string) (*storage.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &storage.Asset{
		URL:       "https://res.cloudinary.com/demo/image/upload/v1/review-app/avatars/new.jpg",
		StorageID: "review-app/avatars/new",
		Width:     64,
		Height:    64,
		Bytes:     int64(len(data)),
		Format:    "jpg",
	}, nil
}

func (f *fakeHost) Destroy(_ context.Context, storageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed = append(f.destroyed, storageID)
	return f.destroyErr
}

func (f *fakeHost) DisplayURL(ref string, v storage.Variant) string {
	if v.Thumb {
		return ref + "#thumb"
	}
	return ref + "#full"
}

type fixture struct {
	host    *fakeHost
	reviews *reviewService
	reports ReportService
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host := &fakeHost{}
	avatars := storage.NewAvatarManager(host, 0, time.Second, nil)

	f := &fixture{host: host, clock: time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)}
	svc := NewReviewService(
		repositories.NewReviewRepository(),
		repositories.NewCourseRepository(),
		avatars,
		nil,
		validator.New(),
		nil,
		"https://reviews.example.com",
	).(*reviewService)
	svc.now = func() time.Time { return f.clock }

	f.reviews = svc
	f.reports = NewReportService(repositories.NewReviewRepository(), avatars)
	return f
}

func (f *fixture) tick(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok, "details: %#v", appErr.Details)
	return details
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
