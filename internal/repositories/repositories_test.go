package repositories

import (
	"context"
	"testing"
	"time"

	"reviewhub_backend/internal/models"
	"reviewhub_backend/test/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepository_AdminOrder(t *testing.T) {
	db := testdb.New(t)
	repo := NewReviewRepository()
	course := testdb.SeedCourse(t, db, "Excel")

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pinnedEarly, pinnedLate := base.Add(time.Hour), base.Add(2*time.Hour)

	legacyLow := testdb.SeedReview(t, db, course, &models.Review{DisplayOrder: 1, BaseModel: models.BaseModel{CreatedAt: base}})
	legacyHigh := testdb.SeedReview(t, db, course, &models.Review{DisplayOrder: 5, BaseModel: models.BaseModel{CreatedAt: base}})
	activeEarly := testdb.SeedReview(t, db, course, &models.Review{IsActive: true, PinnedAt: &pinnedEarly})
	activeLate := testdb.SeedReview(t, db, course, &models.Review{IsActive: true, PinnedAt: &pinnedLate})

	reviews, total, err := repo.ListReviews(context.Background(), db, ReviewFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{activeLate.ID, activeEarly.ID, legacyHigh.ID, legacyLow.ID}, ids)

	active, err := repo.FindActiveReviews(db, 10)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, activeLate.ID, active[0].ID)
}

func TestReviewRepository_UpdateWritesZeroValues(t *testing.T) {
	db := testdb.New(t)
	repo := NewReviewRepository()
	course := testdb.SeedCourse(t, db, "Excel")
	review := testdb.SeedReview(t, db, course, &models.Review{IsActive: true, AvatarURL: "u", AvatarPublicID: "p", DisplayOrder: 3})

	review.IsActive = false
	review.AvatarURL, review.AvatarPublicID = "", ""
	review.DisplayOrder = 0
	require.NoError(t, repo.UpdateReview(db, review))

	got, err := repo.FindReviewByID(db, review.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Empty(t, got.AvatarPublicID)
	assert.Zero(t, got.DisplayOrder)

	missing := &models.Review{BaseModel: models.BaseModel{ID: "missing"}}
	assert.ErrorIs(t, repo.UpdateReview(db, missing), ErrReviewNotFound)
	assert.ErrorIs(t, repo.DeleteReview(db, "missing"), ErrReviewNotFound)

	_, err = repo.FindReviewByID(db, "missing")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestReviewRepository_SearchCoversLegacyText(t *testing.T) {
	db := testdb.New(t)
	repo := NewReviewRepository()
	course := testdb.SeedCourse(t, db, "Excel")
	testdb.SeedReview(t, db, course, &models.Review{Headline: "Pivot tables", Comment: "finally clicked"})
	testdb.SeedReview(t, db, course, &models.Review{ReviewerCompany: "Under_Score Ltd"})
	testdb.SeedReview(t, db, course, &models.Review{ReviewerCompany: "UnderXScore Ltd"})

	found, err := repo.FindAllReviews(db, ReviewFilter{Query: "PIVOT"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Pivot tables\nfinally clicked", found[0].Body)

	found, err = repo.FindAllReviews(db, ReviewFilter{Query: "under_score"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCourseRepository_BulkUpsertMatchesSourceIDThenName(t *testing.T) {
	db := testdb.New(t)
	repo := NewCourseRepository()
	synced := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	res, err := repo.BulkUpsert(db, []CourseUpsert{
		{Name: "Excel", SourceID: "x-1", SortOrder: 1},
		{Name: "Canva", SortOrder: 2},
	}, synced)
	require.NoError(t, err)
	assert.Equal(t, &UpsertResult{Upserted: 2}, res)

	res, err = repo.BulkUpsert(db, []CourseUpsert{
		{Name: "Excel 365", SourceID: "x-1", SortOrder: 1},
		{Name: "Canva", SourceID: "c-9", SortOrder: 2},
	}, synced.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, &UpsertResult{Modified: 2}, res)

	all, err := repo.ListAll(db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Excel 365", all[0].Name)
	require.NotNil(t, all[1].SourceID)
	assert.Equal(t, "c-9", *all[1].SourceID)

	counts, err := repo.Counts(db)
	require.NoError(t, err)
	assert.Equal(t, &CourseCounts{Total: 2, Active: 2}, counts)

	_, err = repo.FindByID(db, "nope")
	assert.ErrorIs(t, err, ErrCourseNotFound)
}

func TestMalformedIDsNeverReachTheDatabase(t *testing.T) {
	db := testdb.New(t)
	course := testdb.SeedCourse(t, db, "Excel")
	testdb.SeedReview(t, db, course, &models.Review{})

	reviews := NewReviewRepository()
	courses := NewCourseRepository()

	list, total, err := reviews.ListReviews(context.Background(), db, ReviewFilter{CourseID: "abc"}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	// A closed pool fails any statement, so only a short-circuit can return
	// the not-found sentinels below.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = reviews.FindReviewByID(db, "not-a-uuid")
	assert.ErrorIs(t, err, ErrReviewNotFound)

	assert.ErrorIs(t, reviews.DeleteReview(db, "abc"), ErrReviewNotFound)

	_, err = courses.FindByID(db, "abc")
	assert.ErrorIs(t, err, ErrCourseNotFound)

	_, err = courses.FindByID(db, course.ID)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCourseNotFound)
}
