package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/email"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/models"
	"reviewhub_backend/internal/observability"
	"reviewhub_backend/internal/repositories"
	"reviewhub_backend/internal/storage"
	"reviewhub_backend/internal/validator"
	"reviewhub_backend/pkg/apperrors"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

const (
	maxNameLength    = 120
	maxCompanyLength = 160
	maxBodyLength    = 5000
	maxReasonLength  = 1000

	defaultPublicLimit = 12
	maxPublicLimit     = 50

	notifyTimeout = 5 * time.Second
)

type ReviewService interface {
	// Public
	Submit(ctx context.Context, db *gorm.DB, in dto.ReviewInput) (*models.Review, error)
	SubmitWithAvatar(ctx context.Context, db *gorm.DB, in dto.ReviewInput, file *AvatarFile) (*models.Review, error)
	ListPublic(db *gorm.DB, limit int) ([]dto.PublicReview, error)

	// Admin
	CreateByAdmin(ctx context.Context, db *gorm.DB, req *dto.AdminReviewCreateRequest, admin string) (*dto.AdminReview, error)
	Get(db *gorm.DB, id string) (*dto.AdminReview, error)
	Update(ctx context.Context, db *gorm.DB, id string, patch *dto.AdminReviewPatch, admin string) (*dto.AdminReview, error)
	Delete(ctx context.Context, db *gorm.DB, id string) error
}

type reviewService struct {
	reviewRepo repositories.ReviewRepository
	courseRepo repositories.CourseRepository
	avatars    AvatarAssets
	notifier   email.Notifier
	validator  *validator.Validator
	metrics    *observability.Metrics
	adminURL   string
	now        func() time.Time
}

// NewReviewService accepts a nil avatars manager when no media host is
// configured; avatar uploads then fail with a config error.
func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	courseRepo repositories.CourseRepository,
	avatars AvatarAssets,
	notifier email.Notifier,
	v *validator.Validator,
	metrics *observability.Metrics,
	publicBaseURL string,
) ReviewService {
	if notifier == nil {
		notifier = email.NoopNotifier{}
	}
	adminURL := ""
	if base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"); base != "" {
		adminURL = base + "/admin/reviews"
	}
	return &reviewService{
		reviewRepo: reviewRepo,
		courseRepo: courseRepo,
		avatars:    avatars,
		notifier:   notifier,
		validator:  v,
		metrics:    metrics,
		adminURL:   adminURL,
		now:        utcNow,
	}
}

// ---------------- Public ----------------

func (s *reviewService) Submit(ctx context.Context, db *gorm.DB, in dto.ReviewInput) (*models.Review, error) {
	review, err := s.preparePublic(db, in)
	if err != nil {
		return nil, err
	}
	if err := s.create(ctx, db, review); err != nil {
		return nil, err
	}
	return review, nil
}

// SubmitWithAvatar validates first, uploads synchronously, then creates. The
// fresh asset is destroyed if the create fails.
func (s *reviewService) SubmitWithAvatar(ctx context.Context, db *gorm.DB, in dto.ReviewInput, file *AvatarFile) (*models.Review, error) {
	if file == nil || len(file.Data) == 0 {
		return s.Submit(ctx, db, in)
	}

	in.AvatarURL, in.AvatarPublicID = "", ""
	review, err := s.preparePublic(db, in)
	if err != nil {
		return nil, err
	}

	asset, err := s.uploadAvatar(ctx, file)
	if err != nil {
		return nil, err
	}
	review.AvatarURL = asset.URL
	review.AvatarPublicID = asset.StorageID

	if err := s.create(ctx, db, review); err != nil {
		s.destroyBestEffort(ctx, asset.StorageID)
		return nil, err
	}
	return review, nil
}

func (s *reviewService) ListPublic(db *gorm.DB, limit int) ([]dto.PublicReview, error) {
	if limit <= 0 {
		limit = defaultPublicLimit
	}
	if limit > maxPublicLimit {
		limit = maxPublicLimit
	}

	reviews, err := s.reviewRepo.FindActiveReviews(db, limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	out := make([]dto.PublicReview, 0, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		out = append(out, dto.PublicReview{
			ID:              r.ID,
			ReviewerName:    r.ReviewerName,
			ReviewerCompany: r.ReviewerCompany,
			ReviewerRole:    r.ReviewerRole,
			CourseName:      r.CourseName,
			Rating:          r.Rating,
			Body:            r.Body,
			AvatarURL:       s.displayURL(r.AvatarURL, storage.VariantThumb),
			CreatedAt:       r.CreatedAt,
			UpdatedAt:       r.UpdatedAt,
		})
	}
	return out, nil
}

// ---------------- Admin ----------------

func (s *reviewService) CreateByAdmin(ctx context.Context, db *gorm.DB, req *dto.AdminReviewCreateRequest, admin string) (*dto.AdminReview, error) {
	in := req.ReviewSubmitRequest.Normalize()
	errs := s.validateInput(in, false)

	status := models.ReviewStatusApproved
	if req.Status != "" {
		status = models.ReviewStatus(req.Status)
		if !status.Valid() {
			errs["status"] = "Must be one of: pending, approved, rejected"
		}
	}
	if len(errs) > 0 {
		return nil, apperrors.ValidationError(errs)
	}

	course, err := s.resolveCourse(db, in.CourseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	review := s.newReview(in, course, now)
	review.Source = models.ReviewSourceAdmin
	review.ModeratedBy = admin
	review.DisplayOrder = req.DisplayOrder
	if req.ConsentVersion != "" {
		review.ConsentVersion = req.ConsentVersion
	}
	if !in.ConsentAccepted {
		review.ConsentAcceptedAt = nil
	}
	applyStatus(review, status, "", now)
	if req.IsActive != nil && *req.IsActive {
		review.IsActive = true
		review.PinnedAt = &now
	}

	if err := s.create(ctx, db, review); err != nil {
		return nil, err
	}
	return s.adminView(review), nil
}

func (s *reviewService) Get(db *gorm.DB, id string) (*dto.AdminReview, error) {
	review, err := s.find(db, id)
	if err != nil {
		return nil, err
	}
	return s.adminView(review), nil
}

// Update applies a partial patch. All validation and lookups happen before
// the single write; a replaced or removed avatar is destroyed only after the
// write succeeded.
func (s *reviewService) Update(ctx context.Context, db *gorm.DB, id string, patch *dto.AdminReviewPatch, admin string) (res *dto.AdminReview, err error) {
	ctx, span := observability.StartSpan(ctx, "review.update", attribute.String("review.id", id))
	defer func() { observability.EndSpan(span, err) }()

	existing, err := s.find(db, id)
	if err != nil {
		return nil, err
	}

	next := *existing
	now := s.now()
	errs := map[string]string{}

	if patch.CourseID != nil {
		course, err := s.resolveCourse(db, strings.TrimSpace(*patch.CourseID))
		if err != nil {
			return nil, err
		}
		next.CourseID = course.ID
		next.CourseName = course.Name
	}

	if patch.ReviewerName != nil {
		name := strings.TrimSpace(*patch.ReviewerName)
		if msg := checkText(name, true, maxNameLength); msg != "" {
			errs["reviewerName"] = msg
		}
		next.ReviewerName = name
	}
	if patch.ReviewerEmail != nil {
		addr := strings.TrimSpace(*patch.ReviewerEmail)
		if msg := s.checkEmail(addr); msg != "" {
			errs["reviewerEmail"] = msg
		}
		next.ReviewerEmail = addr
		next.ReviewerEmailLower = strings.ToLower(addr)
	}
	if patch.ReviewerCompany != nil {
		next.ReviewerCompany = strings.TrimSpace(*patch.ReviewerCompany)
		if msg := checkText(next.ReviewerCompany, false, maxCompanyLength); msg != "" {
			errs["reviewerCompany"] = msg
		}
	}
	if patch.ReviewerRole != nil {
		next.ReviewerRole = strings.TrimSpace(*patch.ReviewerRole)
		if msg := checkText(next.ReviewerRole, false, maxCompanyLength); msg != "" {
			errs["reviewerRole"] = msg
		}
	}
	if patch.Rating != nil {
		rating, ok := dto.ParseRating(patch.Rating)
		if !ok {
			errs["rating"] = "Rating must be a whole number from 1 to 5"
		}
		next.Rating = rating
	}
	if text := patch.Text(); text != nil {
		body := strings.TrimSpace(*text)
		if msg := checkText(body, true, maxBodyLength); msg != "" {
			errs["reviewText"] = msg
		}
		next.Body = body
	}
	next.Headline, next.Comment = "", ""

	destroyAfter := ""
	avatarAction := ""
	if patch.AvatarAction != nil {
		avatarAction = strings.TrimSpace(*patch.AvatarAction)
	}
	switch {
	case avatarAction == "remove":
		destroyAfter = existing.AvatarPublicID
		next.AvatarURL, next.AvatarPublicID = "", ""
	case patch.AvatarURL != nil || patch.AvatarPublicID != nil:
		url, pid := trimPtr(patch.AvatarURL), trimPtr(patch.AvatarPublicID)
		if url == "" || pid == "" {
			errs["avatarPublicId"] = "avatarUrl and avatarPublicId must be provided together"
			break
		}
		if existing.AvatarPublicID != "" && existing.AvatarPublicID != pid {
			destroyAfter = existing.AvatarPublicID
		}
		next.AvatarURL, next.AvatarPublicID = url, pid
	}

	if target, reason, ok := moderationTarget(patch, errs); ok {
		applyStatus(&next, target, reason, now)
	}

	if patch.IsActive != nil {
		if *patch.IsActive && !existing.IsActive {
			next.PinnedAt = &now
		}
		next.IsActive = *patch.IsActive
	}
	if patch.DisplayOrder != nil {
		next.DisplayOrder = *patch.DisplayOrder
	}

	if len(errs) > 0 {
		return nil, apperrors.ValidationError(errs)
	}

	if admin != "" {
		next.ModeratedBy = admin
	}

	if err := s.reviewRepo.UpdateReview(db.WithContext(ctx), &next); err != nil {
		if errors.Is(err, repositories.ErrReviewNotFound) {
			return nil, apperrors.ErrReviewNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	if destroyAfter != "" {
		s.destroyBestEffort(ctx, destroyAfter)
	}
	s.recordTransitions(existing, &next)

	logger.CtxInfo(ctx, "review updated", "review_id", id, "status", next.Status, "is_active", next.IsActive)
	return s.adminView(&next), nil
}

// Delete destroys the avatar first (best-effort) and then the row.
func (s *reviewService) Delete(ctx context.Context, db *gorm.DB, id string) error {
	existing, err := s.find(db, id)
	if err != nil {
		return err
	}

	if existing.AvatarPublicID != "" {
		s.destroyBestEffort(ctx, existing.AvatarPublicID)
	}

	if err := s.reviewRepo.DeleteReview(db.WithContext(ctx), id); err != nil {
		if errors.Is(err, repositories.ErrReviewNotFound) {
			return apperrors.ErrReviewNotFound
		}
		return apperrors.InternalError(err)
	}

	s.metrics.ReviewTransition("deleted")
	logger.CtxInfo(ctx, "review deleted", "review_id", id)
	return nil
}

// ---------------- Helpers ----------------

func (s *reviewService) preparePublic(db *gorm.DB, in dto.ReviewInput) (*models.Review, error) {
	if errs := s.validateInput(in, true); len(errs) > 0 {
		return nil, apperrors.ValidationError(errs)
	}
	course, err := s.resolveCourse(db, in.CourseID)
	if err != nil {
		return nil, err
	}
	review := s.newReview(in, course, s.now())
	review.Source = models.ReviewSourcePublic
	review.Status = models.ReviewStatusPending
	review.IsActive = false
	review.PinnedAt = nil
	return review, nil
}

// validateInput collects one message per invalid field.
func (s *reviewService) validateInput(in dto.ReviewInput, requireConsent bool) map[string]string {
	errs := map[string]string{}

	if msg := checkText(in.ReviewerName, true, maxNameLength); msg != "" {
		errs["reviewerName"] = msg
	}
	if msg := s.checkEmail(in.ReviewerEmail); msg != "" {
		errs["reviewerEmail"] = msg
	}
	if msg := checkText(in.ReviewerCompany, false, maxCompanyLength); msg != "" {
		errs["reviewerCompany"] = msg
	}
	if msg := checkText(in.ReviewerRole, false, maxCompanyLength); msg != "" {
		errs["reviewerRole"] = msg
	}
	if in.CourseID == "" {
		errs["courseId"] = "This field is required"
	}
	if _, ok := dto.ParseRating(in.Rating); !ok {
		errs["rating"] = "Rating must be a whole number from 1 to 5"
	}
	if msg := checkText(in.Body, true, maxBodyLength); msg != "" {
		errs["reviewText"] = msg
	}
	if (in.AvatarURL == "") != (in.AvatarPublicID == "") {
		errs["avatarPublicId"] = "avatarUrl and avatarPublicId must be provided together"
	}
	if requireConsent && !in.ConsentAccepted {
		errs["consentAccepted"] = "Consent must be accepted"
	}
	return errs
}

func (s *reviewService) checkEmail(addr string) string {
	if strings.TrimSpace(addr) == "" {
		return "This field is required"
	}
	if s.validator != nil && !s.validator.Var(addr, "email") {
		return "Must be a valid email address"
	}
	return ""
}

func (s *reviewService) newReview(in dto.ReviewInput, course *models.Course, now time.Time) *models.Review {
	rating, _ := dto.ParseRating(in.Rating)
	review := &models.Review{
		CourseID:           course.ID,
		CourseName:         course.Name,
		ReviewerName:       in.ReviewerName,
		ReviewerEmail:      in.ReviewerEmail,
		ReviewerEmailLower: strings.ToLower(in.ReviewerEmail),
		ReviewerCompany:    in.ReviewerCompany,
		ReviewerRole:       in.ReviewerRole,
		Rating:             rating,
		Body:               in.Body,
		AvatarURL:          in.AvatarURL,
		AvatarPublicID:     in.AvatarPublicID,
		ConsentAccepted:    in.ConsentAccepted,
		ConsentAcceptedAt:  &now,
		ConsentVersion:     models.DefaultConsentVersion,
		Status:             models.ReviewStatusPending,
	}
	if in.ConsentVersion != "" {
		review.ConsentVersion = in.ConsentVersion
	}
	return review
}

func (s *reviewService) create(ctx context.Context, db *gorm.DB, review *models.Review) (err error) {
	ctx, span := observability.StartSpan(ctx, "review.create",
		attribute.String("review.source", string(review.Source)),
		attribute.String("review.course_id", review.CourseID),
	)
	defer func() { observability.EndSpan(span, err) }()

	if err := s.reviewRepo.CreateReview(db.WithContext(ctx), review); err != nil {
		return apperrors.InternalError(err)
	}

	s.metrics.ReviewTransition("created_" + string(review.Source))
	logger.CtxInfo(ctx, "review created",
		"review_id", review.ID,
		"source", review.Source,
		"course_id", review.CourseID,
		"reviewer_email", review.ReviewerEmail,
	)

	if review.Source == models.ReviewSourcePublic {
		s.notifyNewReview(ctx, review)
	}
	return nil
}

// notifyNewReview is best-effort: it is bounded and never fails the request.
func (s *reviewService) notifyNewReview(ctx context.Context, review *models.Review) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	err := s.notifier.NotifyNewReview(nctx, email.ReviewNotice{
		ReviewID:        review.ID,
		CourseName:      review.CourseName,
		ReviewerName:    review.ReviewerName,
		ReviewerCompany: review.ReviewerCompany,
		Rating:          review.Rating,
		Body:            review.Body,
		AdminURL:        s.reviewAdminURL(review.ID),
	})
	if err != nil {
		logger.CtxWarn(ctx, "new review notification failed", "review_id", review.ID, "error", err.Error())
	}
}

func (s *reviewService) reviewAdminURL(id string) string {
	if s.adminURL == "" {
		return ""
	}
	return s.adminURL + "/" + id
}

func (s *reviewService) find(db *gorm.DB, id string) (*models.Review, error) {
	review, err := s.reviewRepo.FindReviewByID(db, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repositories.ErrReviewNotFound) {
			return nil, apperrors.ErrReviewNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return review, nil
}

func (s *reviewService) resolveCourse(db *gorm.DB, id string) (*models.Course, error) {
	if id == "" {
		return nil, apperrors.FieldError("courseId", "This field is required")
	}
	course, err := s.courseRepo.FindByID(db, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCourseNotFound) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return course, nil
}

func (s *reviewService) uploadAvatar(ctx context.Context, file *AvatarFile) (*storage.Asset, error) {
	if s.avatars == nil {
		return nil, apperrors.ConfigError("avatar storage", "media provider credentials must be set")
	}
	return s.avatars.Upload(ctx, file.Data, file.ContentType)
}

func (s *reviewService) destroyBestEffort(ctx context.Context, storageID string) {
	if s.avatars == nil {
		logger.CtxWarn(ctx, "avatar storage not configured, asset left orphaned", "storage_id", storageID)
		return
	}
	s.avatars.DestroyBestEffort(ctx, storageID)
}

func (s *reviewService) displayURL(ref string, v storage.Variant) string {
	if ref == "" || s.avatars == nil {
		return ref
	}
	return s.avatars.DisplayURL(ref, v)
}

func (s *reviewService) adminView(r *models.Review) *dto.AdminReview {
	return &dto.AdminReview{
		Review:         r,
		AvatarThumbURL: s.displayURL(r.AvatarURL, storage.VariantThumb),
		AvatarFullURL:  s.displayURL(r.AvatarURL, storage.VariantFull),
	}
}

func (s *reviewService) recordTransitions(before, after *models.Review) {
	if before.Status != after.Status {
		s.metrics.ReviewTransition(string(after.Status))
	}
	if before.IsActive != after.IsActive {
		if after.IsActive {
			s.metrics.ReviewTransition("activated")
		} else {
			s.metrics.ReviewTransition("deactivated")
		}
	}
}

// moderationTarget resolves the action shorthand or the direct status field.
// The action wins when both are present.
func moderationTarget(patch *dto.AdminReviewPatch, errs map[string]string) (models.ReviewStatus, string, bool) {
	var target models.ReviewStatus
	switch {
	case patch.Action != nil && strings.TrimSpace(*patch.Action) != "":
		switch strings.TrimSpace(*patch.Action) {
		case "approve":
			target = models.ReviewStatusApproved
		case "reject":
			target = models.ReviewStatusRejected
		case "pending":
			target = models.ReviewStatusPending
		default:
			errs["action"] = "Must be one of: approve, reject, pending"
			return "", "", false
		}
	case patch.Status != nil && strings.TrimSpace(*patch.Status) != "":
		target = models.ReviewStatus(strings.TrimSpace(*patch.Status))
		if !target.Valid() {
			errs["status"] = "Must be one of: pending, approved, rejected"
			return "", "", false
		}
	default:
		return "", "", false
	}

	reason := trimPtr(patch.RejectReasonText())
	if len(reason) > maxReasonLength {
		errs["rejectReason"] = "Must be at most 1000 characters long"
	}
	return target, reason, true
}

// applyStatus stamps statusUpdatedAt and the matching approvedAt/rejectedAt,
// clearing the other one.
func applyStatus(r *models.Review, status models.ReviewStatus, reason string, now time.Time) {
	r.Status = status
	r.StatusUpdatedAt = &now
	switch status {
	case models.ReviewStatusApproved:
		r.ApprovedAt = &now
		r.RejectedAt = nil
		r.RejectReason = ""
	case models.ReviewStatusRejected:
		r.RejectedAt = &now
		r.ApprovedAt = nil
		r.RejectReason = reason
	default:
		r.ApprovedAt = nil
		r.RejectedAt = nil
		r.RejectReason = ""
	}
}

func checkText(v string, required bool, max int) string {
	if required && strings.TrimSpace(v) == "" {
		return "This field is required"
	}
	if len([]rune(v)) > max {
		return "Too long"
	}
	return ""
}

func trimPtr(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
