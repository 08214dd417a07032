package services

import (
	"context"
	"io"
	"strings"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/models"
	"reviewhub_backend/internal/repositories"
	"reviewhub_backend/internal/reports"
	"reviewhub_backend/internal/storage"
	"reviewhub_backend/pkg/apperrors"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	minPageSize     = 10
	maxPageSize     = 100
)

// ReportService is the admin query and reporting layer.
type ReportService interface {
	ListReviews(ctx context.Context, db *gorm.DB, q *dto.ReviewListQuery) (*dto.PaginatedResponse, error)
	ExportCSV(ctx context.Context, db *gorm.DB, q *dto.ReviewListQuery, w io.Writer) error
	Stats(ctx context.Context, db *gorm.DB) (*repositories.ReviewStats, error)
}

type reportService struct {
	reviewRepo repositories.ReviewRepository
	avatars    AvatarAssets
}

func NewReportService(reviewRepo repositories.ReviewRepository, avatars AvatarAssets) ReportService {
	return &reportService{reviewRepo: reviewRepo, avatars: avatars}
}

// BuildReviewFilter turns query params into a repository filter. Day bounds
// are whole days in Bangkok time, passed to the database in UTC.
func BuildReviewFilter(q *dto.ReviewListQuery) (repositories.ReviewFilter, error) {
	f := repositories.ReviewFilter{
		CourseID: strings.TrimSpace(q.CourseID),
		IsActive: q.ActiveFilter(),
		Status:   models.ReviewStatus(strings.TrimSpace(q.Status)),
		Query:    strings.TrimSpace(q.Q),
	}
	if f.Status != "" && !f.Status.Valid() {
		return f, apperrors.FieldError("status", "Must be one of: pending, approved, rejected")
	}
	if from := strings.TrimSpace(q.From); from != "" {
		t, err := reports.DayStart(from)
		if err != nil {
			return f, apperrors.FieldError("from", "Must be a date in YYYY-MM-DD format")
		}
		t = t.UTC()
		f.From = &t
	}
	if to := strings.TrimSpace(q.To); to != "" {
		t, err := reports.DayEnd(to)
		if err != nil {
			return f, apperrors.FieldError("to", "Must be a date in YYYY-MM-DD format")
		}
		t = t.UTC()
		f.To = &t
	}
	return f, nil
}

// ClampPage normalizes page to >= 1 and pageSize to [10,100], default 20.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize < minPageSize:
		pageSize = minPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

func (s *reportService) ListReviews(ctx context.Context, db *gorm.DB, q *dto.ReviewListQuery) (*dto.PaginatedResponse, error) {
	filter, err := BuildReviewFilter(q)
	if err != nil {
		return nil, err
	}
	page, pageSize := ClampPage(q.Page, q.EffectivePageSize())

	reviews, total, err := s.reviewRepo.ListReviews(ctx, db, filter, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.AdminReview, 0, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		items = append(items, &dto.AdminReview{
			Review:         r,
			AvatarThumbURL: s.displayURL(r.AvatarURL, storage.VariantThumb),
			AvatarFullURL:  s.displayURL(r.AvatarURL, storage.VariantFull),
		})
	}

	pages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &dto.PaginatedResponse{
		OK:       true,
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}

func (s *reportService) ExportCSV(ctx context.Context, db *gorm.DB, q *dto.ReviewListQuery, w io.Writer) error {
	filter, err := BuildReviewFilter(q)
	if err != nil {
		return err
	}

	reviews, err := s.reviewRepo.FindAllReviews(db.WithContext(ctx), filter)
	if err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "exporting reviews", "rows", len(reviews))
	return reports.WriteReviewsCSV(w, reviews)
}

func (s *reportService) Stats(ctx context.Context, db *gorm.DB) (*repositories.ReviewStats, error) {
	stats, err := s.reviewRepo.GetStats(ctx, db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return stats, nil
}

func (s *reportService) displayURL(ref string, v storage.Variant) string {
	if ref == "" || s.avatars == nil {
		return ref
	}
	return s.avatars.DisplayURL(ref, v)
}
