package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"reviewhub_backend/internal/models"
)

// ReviewFilter is shared by the admin list and the CSV export.
// Nil/empty fields do not constrain the query.
type ReviewFilter struct {
	CourseID string
	IsActive *bool
	Status   models.ReviewStatus
	Query    string
	From     *time.Time
	To       *time.Time
}

type ReviewTotals struct {
	TotalReviews      int64   `json:"totalReviews"`
	ActiveReviews     int64   `json:"activeReviews"`
	PendingReviews    int64   `json:"pendingReviews"`
	ApprovedReviews   int64   `json:"approvedReviews"`
	RejectedReviews   int64   `json:"rejectedReviews"`
	AvgRating         float64 `json:"avgRating"`
	ActiveAvgRating   float64 `json:"activeAvgRating"`
	ApprovedAvgRating float64 `json:"approvedAvgRating"`
}

type RatingBucket struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

type CourseRollup struct {
	CourseID      string    `json:"courseId"`
	CourseName    string    `json:"courseName"`
	ReviewCount   int64     `json:"reviewCount"`
	AvgRating     float64   `json:"avgRating"`
	ActiveCount   int64     `json:"activeCount"`
	PendingCount  int64     `json:"pendingCount"`
	ApprovedCount int64     `json:"approvedCount"`
	RejectedCount int64     `json:"rejectedCount"`
	LastReviewAt  time.Time `json:"lastReviewAt"`
}

type ReviewStats struct {
	Totals     ReviewTotals    `json:"totals"`
	RatingDist []RatingBucket  `json:"ratingDist"`
	PerCourse  []CourseRollup  `json:"perCourse"`
	Latest     []models.Review `json:"latest"`
}

const latestReviewsLimit = 8

type ReviewRepository interface {
	CreateReview(db *gorm.DB, review *models.Review) error
	FindReviewByID(db *gorm.DB, id string) (*models.Review, error)
	UpdateReview(db *gorm.DB, review *models.Review) error
	DeleteReview(db *gorm.DB, id string) error

	ListReviews(ctx context.Context, db *gorm.DB, filter ReviewFilter, page, pageSize int) ([]models.Review, int64, error)
	FindAllReviews(db *gorm.DB, filter ReviewFilter) ([]models.Review, error)
	FindActiveReviews(db *gorm.DB, limit int) ([]models.Review, error)
	GetStats(ctx context.Context, db *gorm.DB) (*ReviewStats, error)
}

type ReviewRepositoryImpl struct{}

func NewReviewRepository() ReviewRepository {
	return &ReviewRepositoryImpl{}
}

func (r *ReviewRepositoryImpl) CreateReview(db *gorm.DB, review *models.Review) error {
	return db.Create(review).Error
}

func (r *ReviewRepositoryImpl) FindReviewByID(db *gorm.DB, id string) (*models.Review, error) {
	if !isUUID(id) {
		return nil, ErrReviewNotFound
	}
	var review models.Review
	if err := db.Where("id = ?", id).First(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	review.CoalesceLegacy()
	return &review, nil
}

// UpdateReview writes every column in one statement so readers never see a
// partially applied patch.
func (r *ReviewRepositoryImpl) UpdateReview(db *gorm.DB, review *models.Review) error {
	result := db.Model(review).Select("*").Omit("id", "created_at").Updates(review)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepositoryImpl) DeleteReview(db *gorm.DB, id string) error {
	if !isUUID(id) {
		return ErrReviewNotFound
	}
	result := db.Where("id = ?", id).Delete(&models.Review{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListReviews returns one page and the total match count. A page past the end
// yields no items and the real total.
func (r *ReviewRepositoryImpl) ListReviews(ctx context.Context, db *gorm.DB, filter ReviewFilter, page, pageSize int) ([]models.Review, int64, error) {
	var (
		total   int64
		reviews []models.Review
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return applyReviewFilter(db.WithContext(gctx).Model(&models.Review{}), filter).Count(&total).Error
	})
	g.Go(func() error {
		q := applyReviewFilter(db.WithContext(gctx).Model(&models.Review{}), filter)
		return adminOrder(q).
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&reviews).Error
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	coalesceAll(reviews)
	return reviews, total, nil
}

func (r *ReviewRepositoryImpl) FindAllReviews(db *gorm.DB, filter ReviewFilter) ([]models.Review, error) {
	var reviews []models.Review
	q := applyReviewFilter(db.Model(&models.Review{}), filter)
	if err := adminOrder(q).Find(&reviews).Error; err != nil {
		return nil, err
	}
	coalesceAll(reviews)
	return reviews, nil
}

func (r *ReviewRepositoryImpl) FindActiveReviews(db *gorm.DB, limit int) ([]models.Review, error) {
	var reviews []models.Review
	err := db.Where("is_active = ?", true).
		Order("pinned_at DESC NULLS LAST").
		Order("display_order DESC").
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	coalesceAll(reviews)
	return reviews, nil
}

// GetStats runs the four aggregate queries concurrently.
func (r *ReviewRepositoryImpl) GetStats(ctx context.Context, db *gorm.DB) (*ReviewStats, error) {
	stats := &ReviewStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Review{}).Select(`
			COUNT(*) AS total_reviews,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_reviews,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_reviews,
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0) AS approved_reviews,
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected_reviews,
			COALESCE(AVG(rating * 1.0), 0) AS avg_rating,
			COALESCE(AVG(CASE WHEN is_active THEN rating * 1.0 END), 0) AS active_avg_rating,
			COALESCE(AVG(CASE WHEN status = 'approved' THEN rating * 1.0 END), 0) AS approved_avg_rating`).
			Scan(&stats.Totals).Error
	})

	g.Go(func() error {
		var rows []RatingBucket
		if err := db.WithContext(gctx).Model(&models.Review{}).
			Select("rating, COUNT(*) AS count").
			Group("rating").
			Scan(&rows).Error; err != nil {
			return err
		}
		stats.RatingDist = fillRatingBuckets(rows)
		return nil
	})

	g.Go(func() error {
		var rows []courseRollupRow
		if err := db.WithContext(gctx).Model(&models.Review{}).Select(`
			course_id,
			course_name,
			COUNT(*) AS review_count,
			COALESCE(AVG(rating * 1.0), 0) AS avg_rating,
			COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_count,
			COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_count,
			COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0) AS approved_count,
			COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected_count,
			MAX(created_at) AS last_review_at`).
			Group("course_id, course_name").
			Order("review_count DESC").
			Order("last_review_at DESC").
			Scan(&rows).Error; err != nil {
			return err
		}
		stats.PerCourse = make([]CourseRollup, 0, len(rows))
		for _, row := range rows {
			stats.PerCourse = append(stats.PerCourse, row.rollup())
		}
		return nil
	})

	g.Go(func() error {
		var latest []models.Review
		if err := db.WithContext(gctx).Order("created_at DESC").Limit(latestReviewsLimit).Find(&latest).Error; err != nil {
			return err
		}
		coalesceAll(latest)
		stats.Latest = latest
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func applyReviewFilter(q *gorm.DB, f ReviewFilter) *gorm.DB {
	if f.CourseID != "" {
		if isUUID(f.CourseID) {
			q = q.Where("course_id = ?", f.CourseID)
		} else {
			q = q.Where("1 = 0")
		}
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := "%" + escapeLike(strings.ToLower(term)) + "%"
		q = q.Where(`LOWER(reviewer_name) LIKE ? ESCAPE '\'
			OR LOWER(reviewer_company) LIKE ? ESCAPE '\'
			OR LOWER(reviewer_role) LIKE ? ESCAPE '\'
			OR LOWER(course_name) LIKE ? ESCAPE '\'
			OR LOWER(body) LIKE ? ESCAPE '\'
			OR LOWER(headline) LIKE ? ESCAPE '\'
			OR LOWER(comment) LIKE ? ESCAPE '\'
			OR reviewer_email_lower LIKE ? ESCAPE '\'`,
			like, like, like, like, like, like, like, like)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", f.To.UTC())
	}
	return q
}

// adminOrder surfaces active and recently pinned reviews first. display_order
// only separates legacy rows that were never pinned.
func adminOrder(q *gorm.DB) *gorm.DB {
	return q.Order("is_active DESC").
		Order("pinned_at DESC NULLS LAST").
		Order("display_order DESC").
		Order("created_at DESC")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func coalesceAll(reviews []models.Review) {
	for i := range reviews {
		reviews[i].CoalesceLegacy()
	}
}

func fillRatingBuckets(rows []RatingBucket) []RatingBucket {
	counts := make(map[int]int64, len(rows))
	for _, row := range rows {
		counts[row.Rating] = row.Count
	}
	dist := make([]RatingBucket, 0, 5)
	for rating := 1; rating <= 5; rating++ {
		dist = append(dist, RatingBucket{Rating: rating, Count: counts[rating]})
	}
	return dist
}

type courseRollupRow struct {
	CourseID      string
	CourseName    string
	ReviewCount   int64
	AvgRating     float64
	ActiveCount   int64
	PendingCount  int64
	ApprovedCount int64
	RejectedCount int64
	LastReviewAt  scanTime
}

func (row courseRollupRow) rollup() CourseRollup {
	return CourseRollup{
		CourseID:      row.CourseID,
		CourseName:    row.CourseName,
		ReviewCount:   row.ReviewCount,
		AvgRating:     row.AvgRating,
		ActiveCount:   row.ActiveCount,
		PendingCount:  row.PendingCount,
		ApprovedCount: row.ApprovedCount,
		RejectedCount: row.RejectedCount,
		LastReviewAt:  row.LastReviewAt.Time,
	}
}

// scanTime accepts aggregate timestamps, which some drivers return as text.
type scanTime struct {
	time.Time
}

var scanTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *scanTime) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("scanTime: unsupported type %T", value)
	}
}

func (t scanTime) Value() (driver.Value, error) {
	return t.Time, nil
}

func (t *scanTime) parse(s string) error {
	for _, layout := range scanTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("scanTime: cannot parse %q", s)
}
