package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/models"
	"reviewhub_backend/pkg/apperrors"
	"reviewhub_backend/test/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput(courseID string) dto.ReviewInput {
	return dto.ReviewInput{
		CourseID:        courseID,
		ReviewerName:    "Somchai",
		ReviewerEmail:   "A@B.com",
		Rating:          float64(5),
		Body:            "Great course",
		ConsentAccepted: true,
	}
}

func TestSubmit_CreatesPendingInactive(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Power BI")

	review, err := f.reviews.Submit(context.Background(), db, validInput(course.ID))
	require.NoError(t, err)

	stored, err := f.reviews.Get(db, review.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPending, stored.Status)
	assert.False(t, stored.IsActive)
	assert.Nil(t, stored.PinnedAt)
	assert.Equal(t, models.ReviewSourcePublic, stored.Source)
	assert.Equal(t, "Power BI", stored.CourseName)
	assert.Equal(t, "a@b.com", stored.ReviewerEmailLower)
	assert.True(t, stored.ConsentAccepted)
	require.NotNil(t, stored.ConsentAcceptedAt)
	assert.Equal(t, models.DefaultConsentVersion, stored.ConsentVersion)
}

func TestSubmit_ValidationLeavesStorageUnchanged(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")

	cases := map[string]struct {
		mutate func(in *dto.ReviewInput)
		field  string
	}{
		"rating zero":     {func(in *dto.ReviewInput) { in.Rating = float64(0) }, "rating"},
		"rating six":      {func(in *dto.ReviewInput) { in.Rating = float64(6) }, "rating"},
		"rating fraction": {func(in *dto.ReviewInput) { in.Rating = 3.5 }, "rating"},
		"rating text":     {func(in *dto.ReviewInput) { in.Rating = "abc" }, "rating"},
		"empty body":      {func(in *dto.ReviewInput) { in.Body = "" }, "reviewText"},
		"no name":         {func(in *dto.ReviewInput) { in.ReviewerName = "  " }, "reviewerName"},
		"no email":        {func(in *dto.ReviewInput) { in.ReviewerEmail = "" }, "reviewerEmail"},
		"bad email":       {func(in *dto.ReviewInput) { in.ReviewerEmail = "nope" }, "reviewerEmail"},
		"no consent":      {func(in *dto.ReviewInput) { in.ConsentAccepted = false }, "consentAccepted"},
		"no course":       {func(in *dto.ReviewInput) { in.CourseID = "" }, "courseId"},
		"half avatar":     {func(in *dto.ReviewInput) { in.AvatarURL = "https://x/y.jpg" }, "avatarPublicId"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput(course.ID)
			tc.mutate(&in)

			_, err := f.reviews.Submit(context.Background(), db, in)
			details := validationDetails(t, err)
			assert.Contains(t, details, tc.field)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Review{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmit_AggregatesFieldErrors(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)

	_, err := f.reviews.Submit(context.Background(), db, dto.ReviewInput{})
	details := validationDetails(t, err)
	for _, field := range []string{"reviewerName", "reviewerEmail", "courseId", "rating", "reviewText", "consentAccepted"} {
		assert.Contains(t, details, field)
	}
}

func TestSubmit_UnknownCourse(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)

	_, err := f.reviews.Submit(context.Background(), db, validInput("00000000-0000-0000-0000-000000000000"))
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestSubmitWithAvatar(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Canva")
	jpeg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 64)...)

	t.Run("uploads then creates", func(t *testing.T) {
		review, err := f.reviews.SubmitWithAvatar(context.Background(), db, validInput(course.ID), &AvatarFile{Data: jpeg, ContentType: "image/jpeg"})
		require.NoError(t, err)
		assert.Equal(t, "review-app/avatars/new", review.AvatarPublicID)
		assert.NotEmpty(t, review.AvatarURL)
		assert.Equal(t, 1, f.host.uploads)
	})

	t.Run("invalid input never uploads", func(t *testing.T) {
		in := validInput(course.ID)
		in.Rating = float64(9)
		_, err := f.reviews.SubmitWithAvatar(context.Background(), db, in, &AvatarFile{Data: jpeg, ContentType: "image/jpeg"})
		require.Error(t, err)
		assert.Equal(t, 1, f.host.uploads)
	})

	t.Run("wrong type rejected before upload", func(t *testing.T) {
		_, err := f.reviews.SubmitWithAvatar(context.Background(), db, validInput(course.ID), &AvatarFile{Data: []byte("%PDF-1.4"), ContentType: "application/pdf"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidFileType)
		assert.Equal(t, 1, f.host.uploads)
	})

	t.Run("upload failure blocks create", func(t *testing.T) {
		f.host.uploadErr = errors.New("cloudinary down")
		defer func() { f.host.uploadErr = nil }()

		_, err := f.reviews.SubmitWithAvatar(context.Background(), db, validInput(course.ID), &AvatarFile{Data: jpeg, ContentType: "image/jpeg"})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAssetError))

		var count int64
		require.NoError(t, db.Model(&models.Review{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestUpdate_ActivationStampsPinnedAtAndOrdersPublicList(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")

	older := testdb.SeedReview(t, db, course, &models.Review{ReviewerName: "Older"})
	newer := testdb.SeedReview(t, db, course, &models.Review{ReviewerName: "Newer"})

	_, err := f.reviews.Update(context.Background(), db, newer.ID, &dto.AdminReviewPatch{IsActive: boolPtr(true)}, "admin@example.com")
	require.NoError(t, err)

	f.tick(time.Minute)
	updated, err := f.reviews.Update(context.Background(), db, older.ID, &dto.AdminReviewPatch{IsActive: boolPtr(true)}, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, updated.PinnedAt)
	assert.Equal(t, f.clock, updated.PinnedAt.UTC())
	assert.Equal(t, "admin@example.com", updated.ModeratedBy)
	assert.Equal(t, models.ReviewStatusPending, updated.Status)

	public, err := f.reviews.ListPublic(db, 12)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, older.ID, public[0].ID)
	assert.Equal(t, newer.ID, public[1].ID)

	// Deactivating keeps the last activation time.
	f.tick(time.Minute)
	off, err := f.reviews.Update(context.Background(), db, older.ID, &dto.AdminReviewPatch{IsActive: boolPtr(false)}, "")
	require.NoError(t, err)
	require.NotNil(t, off.PinnedAt)
	assert.Equal(t, f.clock.Add(-time.Minute), off.PinnedAt.UTC())

	public, err = f.reviews.ListPublic(db, 12)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, newer.ID, public[0].ID)
}

func TestUpdate_RemoveAvatarDestroysOnce(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")
	review := testdb.SeedReview(t, db, course, &models.Review{AvatarURL: "https://x/old.jpg", AvatarPublicID: "review-app/avatars/old"})

	updated, err := f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{AvatarAction: strPtr("remove")}, "admin@example.com")
	require.NoError(t, err)

	assert.Empty(t, updated.AvatarURL)
	assert.Empty(t, updated.AvatarPublicID)
	assert.Equal(t, []string{"review-app/avatars/old"}, f.host.destroyed)

	stored, err := f.reviews.Get(db, review.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.AvatarURL)
	assert.Empty(t, stored.AvatarPublicID)
}

func TestUpdate_ReplaceAvatar(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")
	review := testdb.SeedReview(t, db, course, &models.Review{AvatarURL: "https://x/old.jpg", AvatarPublicID: "old"})

	t.Run("half pair is rejected and nothing changes", func(t *testing.T) {
		_, err := f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{
			AvatarURL:    strPtr("https://x/new.jpg"),
			ReviewerName: strPtr("Changed"),
		}, "")
		assert.Contains(t, validationDetails(t, err), "avatarPublicId")

		stored, err := f.reviews.Get(db, review.ID)
		require.NoError(t, err)
		assert.Equal(t, "old", stored.AvatarPublicID)
		assert.Equal(t, "Reviewer", stored.ReviewerName)
		assert.Empty(t, f.host.destroyed)
	})

	t.Run("same id keeps asset", func(t *testing.T) {
		_, err := f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{
			AvatarURL:      strPtr("https://x/old-v2.jpg"),
			AvatarPublicID: strPtr("old"),
		}, "")
		require.NoError(t, err)
		assert.Empty(t, f.host.destroyed)
	})

	t.Run("new id destroys previous after write", func(t *testing.T) {
		f.host.destroyErr = errors.New("gone")
		defer func() { f.host.destroyErr = nil }()

		updated, err := f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{
			AvatarURL:      strPtr("https://x/new.jpg"),
			AvatarPublicID: strPtr("new"),
		}, "")
		require.NoError(t, err)
		assert.Equal(t, "new", updated.AvatarPublicID)
		assert.Equal(t, []string{"old"}, f.host.destroyed)
	})
}

func TestUpdate_ModerationPathsBehaveIdentically(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")
	viaAction := testdb.SeedReview(t, db, course, &models.Review{})
	viaStatus := testdb.SeedReview(t, db, course, &models.Review{})

	a, err := f.reviews.Update(context.Background(), db, viaAction.ID, &dto.AdminReviewPatch{Action: strPtr("reject"), Reason: strPtr("spam")}, "mod@x.io")
	require.NoError(t, err)
	s, err := f.reviews.Update(context.Background(), db, viaStatus.ID, &dto.AdminReviewPatch{Status: strPtr("rejected"), RejectReason: strPtr("spam")}, "mod@x.io")
	require.NoError(t, err)

	for _, r := range []*dto.AdminReview{a, s} {
		assert.Equal(t, models.ReviewStatusRejected, r.Status)
		assert.Equal(t, "spam", r.RejectReason)
		require.NotNil(t, r.RejectedAt)
		require.NotNil(t, r.StatusUpdatedAt)
		assert.Nil(t, r.ApprovedAt)
		assert.Equal(t, "mod@x.io", r.ModeratedBy)
	}

	f.tick(time.Hour)
	approved, err := f.reviews.Update(context.Background(), db, viaAction.ID, &dto.AdminReviewPatch{Action: strPtr("approve")}, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	assert.Nil(t, approved.RejectedAt)
	assert.Empty(t, approved.RejectReason)
	assert.False(t, approved.IsActive)

	back, err := f.reviews.Update(context.Background(), db, viaAction.ID, &dto.AdminReviewPatch{Action: strPtr("pending")}, "")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPending, back.Status)
	assert.Nil(t, back.ApprovedAt)
	assert.Nil(t, back.RejectedAt)

	_, err = f.reviews.Update(context.Background(), db, viaAction.ID, &dto.AdminReviewPatch{Status: strPtr("archived")}, "")
	assert.Contains(t, validationDetails(t, err), "status")
}

func TestUpdate_FieldRules(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	excel := testdb.SeedCourse(t, db, "Excel")
	bi := testdb.SeedCourse(t, db, "Power BI")
	review := testdb.SeedReview(t, db, excel, &models.Review{})

	updated, err := f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{
		CourseID:      strPtr(bi.ID),
		ReviewerEmail: strPtr(" New@Mail.COM "),
		Rating:        "4",
		ReviewText:    strPtr(" Edited "),
	}, "")
	require.NoError(t, err)
	assert.Equal(t, bi.ID, updated.CourseID)
	assert.Equal(t, "Power BI", updated.CourseName)
	assert.Equal(t, "new@mail.com", updated.ReviewerEmailLower)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Edited", updated.Body)

	_, err = f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{CourseID: strPtr("missing")}, "")
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	_, err = f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{ReviewerEmail: strPtr("  ")}, "")
	assert.Contains(t, validationDetails(t, err), "reviewerEmail")

	_, err = f.reviews.Update(context.Background(), db, review.ID, &dto.AdminReviewPatch{Rating: float64(6)}, "")
	assert.Contains(t, validationDetails(t, err), "rating")

	stored, err := f.reviews.Get(db, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Rating)

	_, err = f.reviews.Update(context.Background(), db, "missing", &dto.AdminReviewPatch{IsActive: boolPtr(true)}, "")
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)
}

func TestDelete(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")
	review := testdb.SeedReview(t, db, course, &models.Review{AvatarURL: "https://x/a.jpg", AvatarPublicID: "a"})

	f.host.destroyErr = errors.New("host unavailable")
	require.NoError(t, f.reviews.Delete(context.Background(), db, review.ID))
	assert.Equal(t, []string{"a"}, f.host.destroyed)

	_, err := f.reviews.Get(db, review.ID)
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)

	err = f.reviews.Delete(context.Background(), db, review.ID)
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)
}

func TestCreateByAdmin(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")

	req := &dto.AdminReviewCreateRequest{
		ReviewSubmitRequest: dto.ReviewSubmitRequest{
			ReviewerName:  "Malee",
			ReviewerEmail: "malee@example.com",
			CourseID:      course.ID,
			Rating:        float64(4),
			ReviewText:    "Entered by staff",
		},
		IsActive: boolPtr(true),
	}

	created, err := f.reviews.CreateByAdmin(context.Background(), db, req, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusApproved, created.Status)
	assert.Equal(t, models.ReviewSourceAdmin, created.Source)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.PinnedAt)
	require.NotNil(t, created.ApprovedAt)
	assert.False(t, created.ConsentAccepted)
	assert.Nil(t, created.ConsentAcceptedAt)

	req.Status = "archived"
	_, err = f.reviews.CreateByAdmin(context.Background(), db, req, "")
	assert.Contains(t, validationDetails(t, err), "status")
}

func TestListPublic_ProjectionAndLimits(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")
	now := time.Now().UTC()

	for i := 0; i < 55; i++ {
		pinned := now.Add(time.Duration(i) * time.Second)
		testdb.SeedReview(t, db, course, &models.Review{IsActive: true, PinnedAt: &pinned, AvatarURL: "https://x/a.jpg", AvatarPublicID: "a"})
	}
	testdb.SeedReview(t, db, course, &models.Review{ReviewerName: "Hidden"})

	items, err := f.reviews.ListPublic(db, 0)
	require.NoError(t, err)
	assert.Len(t, items, 12)
	assert.Equal(t, "https://x/a.jpg#thumb", items[0].AvatarURL)

	items, err = f.reviews.ListPublic(db, 500)
	require.NoError(t, err)
	assert.Len(t, items, 50)
	for _, it := range items {
		assert.NotEqual(t, "Hidden", it.ReviewerName)
	}
}

func TestGet_CoalescesLegacyText(t *testing.T) {
	db := testdb.New(t)
	f := newFixture(t)
	course := testdb.SeedCourse(t, db, "Excel")
	review := testdb.SeedReview(t, db, course, &models.Review{Headline: "Title", Comment: "Details"})

	got, err := f.reviews.Get(db, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "Title\nDetails", got.Body)
}
