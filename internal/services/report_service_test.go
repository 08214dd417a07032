package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/models"
	"reviewhub_backend/pkg/apperrors"
	"reviewhub_backend/test/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{-3, 5, 1, 10},
		{2, 50, 2, 50},
		{1, 1000, 1, 100},
	}
	for _, tt := range tests {
		page, size := ClampPage(tt.page, tt.size)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantSize, size)
	}
}

func TestBuildReviewFilter(t *testing.T) {
	f, err := BuildReviewFilter(&dto.ReviewListQuery{From: "2024-02-01", To: "2024-02-01", IsActive: "1"})
	require.NoError(t, err)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)
	assert.Equal(t, time.Date(2024, 1, 31, 17, 0, 0, 0, time.UTC), *f.From)
	assert.Equal(t, time.Date(2024, 2, 1, 16, 59, 59, int(999*time.Millisecond), time.UTC), *f.To)
	require.NotNil(t, f.IsActive)
	assert.True(t, *f.IsActive)

	_, err = BuildReviewFilter(&dto.ReviewListQuery{From: "02/01/2024"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = BuildReviewFilter(&dto.ReviewListQuery{Status: "archived"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
}

func TestListReviews_PaginationAndFilters(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	excel := testdb.SeedCourse(t, db, "Excel")
	bi := testdb.SeedCourse(t, db, "Power BI")

	for i := 0; i < 22; i++ {
		testdb.SeedReview(t, db, excel, &models.Review{})
	}
	testdb.SeedReview(t, db, bi, &models.Review{ReviewerEmail: "Special@Corp.example", Status: models.ReviewStatusApproved})
	testdb.SeedReview(t, db, bi, &models.Review{Body: "Loved the 100% practical labs", IsActive: true})

	t.Run("page past the end keeps total", func(t *testing.T) {
		res, err := f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{Page: 5, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, res.Items)
		assert.Equal(t, int64(24), res.Total)
		assert.Equal(t, 3, res.Pages)
		assert.Equal(t, 5, res.Page)
	})

	t.Run("limit alias and clamp", func(t *testing.T) {
		res, err := f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{Limit: 3})
		require.NoError(t, err)
		assert.Equal(t, 10, res.PageSize)
		assert.Len(t, res.Items, 10)
	})

	t.Run("active first", func(t *testing.T) {
		res, err := f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{})
		require.NoError(t, err)
		items := res.Items.([]*dto.AdminReview)
		require.NotEmpty(t, items)
		assert.True(t, items[0].IsActive)
	})

	t.Run("search matches email", func(t *testing.T) {
		res, err := f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{Q: "special@corp"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		res, err := f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{Q: "100%"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)
	})

	t.Run("course status and active", func(t *testing.T) {
		res, err := f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{CourseID: bi.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(2), res.Total)

		res, err = f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{Status: "approved"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Total)

		res, err = f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{Active: "false"})
		require.NoError(t, err)
		assert.Equal(t, int64(23), res.Total)
	})
}

func TestListReviews_BangkokDayRange(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")

	// 18:00 UTC on Jan 31 is 01:00 on Feb 1 in Bangkok.
	late := testdb.SeedReview(t, db, course, &models.Review{BaseModel: models.BaseModel{CreatedAt: time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC)}})
	testdb.SeedReview(t, db, course, &models.Review{BaseModel: models.BaseModel{CreatedAt: time.Date(2024, 1, 31, 16, 0, 0, 0, time.UTC)}})

	res, err := f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{From: "2024-02-01", To: "2024-02-01"})
	require.NoError(t, err)
	items := res.Items.([]*dto.AdminReview)
	require.Len(t, items, 1)
	assert.Equal(t, late.ID, items[0].ID)

	res, err = f.reports.ListReviews(context.Background(), db, &dto.ReviewListQuery{From: "2024-02-02", To: "2024-02-01"})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
}

func TestExportCSV(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Power BI")

	testdb.SeedReview(t, db, course, &models.Review{
		BaseModel:    models.BaseModel{CreatedAt: time.Date(2024, 1, 31, 18, 30, 5, 0, time.UTC)},
		ReviewerName: "สมชาย",
		Rating:       4,
		Body:         "Line one, with comma\nline \"two\"",
		IsActive:     true,
	})
	testdb.SeedReview(t, db, course, &models.Review{Status: models.ReviewStatusRejected})

	var buf bytes.Buffer
	require.NoError(t, f.reports.ExportCSV(context.Background(), db, &dto.ReviewListQuery{IsActive: "1"}, &buf))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\uFEFF"))

	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\uFEFF"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"createdAt(BKK)", "courseName", "rating", "reviewerName", "reviewerCompany", "reviewerRole", "body", "isActive"}, rows[0])
	assert.Equal(t, []string{"1/2/2567 01:30:05", "Power BI", "4", "สมชาย", "", "", "Line one, with comma\nline \"two\"", "1"}, rows[1])

	buf.Reset()
	err = f.reports.ExportCSV(context.Background(), db, &dto.ReviewListQuery{To: "bad"}, &buf)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
	assert.Zero(t, buf.Len())
}

func TestStats(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	excel := testdb.SeedCourse(t, db, "Excel")
	bi := testdb.SeedCourse(t, db, "Power BI")

	testdb.SeedReview(t, db, excel, &models.Review{Rating: 5, IsActive: true, Status: models.ReviewStatusApproved})
	testdb.SeedReview(t, db, excel, &models.Review{Rating: 5})
	testdb.SeedReview(t, db, excel, &models.Review{Rating: 4, Status: models.ReviewStatusRejected})
	testdb.SeedReview(t, db, bi, &models.Review{Rating: 3, IsActive: true})

	stats, err := f.reports.Stats(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.Totals.TotalReviews)
	assert.Equal(t, int64(2), stats.Totals.ActiveReviews)
	assert.Equal(t, int64(2), stats.Totals.PendingReviews)
	assert.Equal(t, int64(1), stats.Totals.ApprovedReviews)
	assert.Equal(t, int64(1), stats.Totals.RejectedReviews)
	assert.InDelta(t, 4.25, stats.Totals.AvgRating, 1e-9)
	assert.InDelta(t, 4.0, stats.Totals.ActiveAvgRating, 1e-9)
	assert.InDelta(t, 5.0, stats.Totals.ApprovedAvgRating, 1e-9)

	counts := make([]int64, 0, 5)
	for _, b := range stats.RatingDist {
		counts = append(counts, b.Count)
	}
	assert.Equal(t, []int64{0, 0, 1, 1, 2}, counts)

	require.Len(t, stats.PerCourse, 2)
	assert.Equal(t, "Excel", stats.PerCourse[0].CourseName)
	assert.Equal(t, int64(3), stats.PerCourse[0].ReviewCount)
	assert.InDelta(t, 14.0/3.0, stats.PerCourse[0].AvgRating, 1e-9)
	assert.False(t, stats.PerCourse[0].LastReviewAt.IsZero())
	assert.Len(t, stats.Latest, 4)
}

func TestStats_Empty(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)

	stats, err := f.reports.Stats(context.Background(), db)
	require.NoError(t, err)
	assert.Zero(t, stats.Totals.TotalReviews)
	assert.Zero(t, stats.Totals.AvgRating)
	assert.Len(t, stats.RatingDist, 5)
	assert.Empty(t, stats.PerCourse)
}
