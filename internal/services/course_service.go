package services

import (
	"context"
	"errors"
	"time"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/models"
	"reviewhub_backend/internal/observability"
	"reviewhub_backend/internal/repositories"
	"reviewhub_backend/internal/upstream"
	"reviewhub_backend/pkg/apperrors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SyncTriggerAdmin = "admin"
	SyncTriggerCron  = "cron"
	SyncTriggerCLI   = "cli"

	healthSampleSize = 5
)

// CatalogSource is the upstream course catalog.
type CatalogSource interface {
	Fetch(ctx context.Context) (*upstream.CatalogResult, error)
}

type CourseService interface {
	ListActive(db *gorm.DB) ([]dto.CourseOption, error)
	ListAll(db *gorm.DB) ([]models.Course, error)
	Sync(ctx context.Context, db *gorm.DB, trigger string) (*dto.CourseSyncResult, error)
	Health(ctx context.Context, db *gorm.DB) (*dto.HealthResponse, error)
}

type courseService struct {
	courseRepo repositories.CourseRepository
	catalog    CatalogSource
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewCourseService accepts a nil catalog; Sync then reports a config error.
func NewCourseService(courseRepo repositories.CourseRepository, catalog CatalogSource, metrics *observability.Metrics) CourseService {
	return &courseService{
		courseRepo: courseRepo,
		catalog:    catalog,
		metrics:    metrics,
		now:        utcNow,
	}
}

func (s *courseService) ListActive(db *gorm.DB) ([]dto.CourseOption, error) {
	courses, err := s.courseRepo.ListActive(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return courseOptions(courses), nil
}

func (s *courseService) ListAll(db *gorm.DB) ([]models.Course, error) {
	courses, err := s.courseRepo.ListAll(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return courses, nil
}

// Sync mirrors the upstream catalog into the courses table. Zero parsed
// items aborts before any write.
func (s *courseService) Sync(ctx context.Context, db *gorm.DB, trigger string) (res *dto.CourseSyncResult, err error) {
	if s.catalog == nil {
		return nil, apperrors.ConfigError("course sync", "AI_BASE_URL must be set")
	}

	ctx, span := observability.StartSpan(ctx, "course.sync", attribute.String("trigger", trigger))
	defer func() {
		s.metrics.CourseSync(trigger, err)
		observability.EndSpan(span, err)
	}()

	start := time.Now()
	fetched, err := s.catalog.Fetch(ctx)
	s.metrics.ObserveUpstream("catalog", "fetch", start, err)
	if err != nil {
		logger.CtxWithError(ctx, "course catalog fetch failed", err, "trigger", trigger)
		var statusErr *upstream.StatusError
		if errors.As(err, &statusErr) {
			return nil, apperrors.UpstreamError(err, statusErr.Status)
		}
		return nil, apperrors.UpstreamError(err, 0)
	}

	if len(fetched.Items) == 0 {
		logger.CtxWarn(ctx, "course catalog returned no usable items", "upstream_count", fetched.UpstreamCount)
		return nil, apperrors.EmptyCatalogError(fetched.UpstreamCount)
	}

	items := make([]repositories.CourseUpsert, 0, len(fetched.Items))
	for _, it := range fetched.Items {
		items = append(items, repositories.CourseUpsert{
			Name:      it.Name,
			SourceID:  it.SourceID,
			SortOrder: it.SortOrder,
			Raw:       datatypes.JSON(it.Raw),
		})
	}

	result, err := s.courseRepo.BulkUpsert(db.WithContext(ctx), items, s.now())
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "course catalog synced",
		"trigger", trigger,
		"upstream_count", fetched.UpstreamCount,
		"parsed_count", len(items),
		"upserted", result.Upserted,
		"modified", result.Modified,
	)

	return &dto.CourseSyncResult{
		OK:            true,
		Trigger:       trigger,
		UpstreamCount: fetched.UpstreamCount,
		ParsedCount:   len(items),
		Upserted:      result.Upserted,
		Modified:      result.Modified,
	}, nil
}

func (s *courseService) Health(ctx context.Context, db *gorm.DB) (*dto.HealthResponse, error) {
	resp := &dto.HealthResponse{OK: true, Database: "up"}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.CtxWithError(ctx, "health check: database ping failed", err)
		resp.OK = false
		resp.Database = "down"
		resp.Courses.Sample = []dto.CourseOption{}
		return resp, nil
	}

	counts, err := s.courseRepo.Counts(db)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	recent, err := s.courseRepo.RecentlyUpdated(db, healthSampleSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	resp.Courses = dto.HealthCourseSnapshot{
		Total:  counts.Total,
		Active: counts.Active,
		Sample: courseOptions(recent),
	}
	return resp, nil
}

func courseOptions(courses []models.Course) []dto.CourseOption {
	out := make([]dto.CourseOption, 0, len(courses))
	for _, c := range courses {
		out = append(out, dto.CourseOption{ID: c.ID, Name: c.Name})
	}
	return out
}

func utcNow() time.Time {
	return time.Now().UTC()
}
