package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/services"
	"reviewhub_backend/internal/storage"
	"reviewhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the text fields next to a full-size avatar.
const multipartOverhead = 1 << 20

// ReviewHandler serves the public review form and the landing carousel.
type ReviewHandler struct {
	*BaseHandler
	reviewService services.ReviewService
	maxAvatar     int64
}

func NewReviewHandler(base *BaseHandler, reviewService services.ReviewService, maxAvatar int64) *ReviewHandler {
	if maxAvatar <= 0 {
		maxAvatar = storage.MaxAvatarBytes
	}
	return &ReviewHandler{
		BaseHandler:   base,
		reviewService: reviewService,
		maxAvatar:     maxAvatar,
	}
}

func (h *ReviewHandler) RegisterRoutes(api *gin.RouterGroup, limit gin.HandlerFunc) {
	reviews := api.Group("/reviews")
	{
		reviews.GET("/public", h.ListPublic)
		reviews.POST("/public", limit, h.SubmitJSON)
		reviews.POST("", limit, h.Submit)
	}
}

// ListPublic godoc
// @Summary Active reviews for the landing page
// @Tags reviews
// @Produce json
// @Param limit query int false "1..50, default 12"
// @Success 200 {object} dto.PublicReviewListResponse
// @Router /reviews/public [get]
func (h *ReviewHandler) ListPublic(c *gin.Context) {
	limit := ParseQueryInt(c, "limit", 0)

	items, err := h.reviewService.ListPublic(h.GetDB(c), limit)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, dto.PublicReviewListResponse{OK: true, Items: items})
}

// SubmitJSON godoc
// @Summary Submit a review
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body dto.ReviewSubmitRequest true "Review"
// @Success 200 {object} dto.CreatedResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /reviews/public [post]
func (h *ReviewHandler) SubmitJSON(c *gin.Context) {
	var req dto.ReviewSubmitRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.Submit(c.Request.Context(), h.GetDB(c), req.Normalize())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreatedResponse{OK: true, ID: review.ID})
}

// Submit accepts either JSON or a multipart form with an optional "avatar"
// file part. The avatar is uploaded before the review is created.
func (h *ReviewHandler) Submit(c *gin.Context) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		h.SubmitJSON(c)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxAvatar+multipartOverhead)
	if err := c.Request.ParseMultipartForm(h.maxAvatar + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return
		}
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid multipart form"))
		return
	}

	in := reviewFormRequest(c).Normalize()

	file, err := readAvatarPart(c, "avatar", h.maxAvatar)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	review, err := h.reviewService.SubmitWithAvatar(c.Request.Context(), h.GetDB(c), in, file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CreatedResponse{OK: true, ID: review.ID})
}

func reviewFormRequest(c *gin.Context) *dto.ReviewSubmitRequest {
	req := &dto.ReviewSubmitRequest{
		ReviewerName:    c.PostForm("reviewerName"),
		FullName:        c.PostForm("fullName"),
		ReviewerEmail:   c.PostForm("reviewerEmail"),
		Email:           c.PostForm("email"),
		ReviewerCompany: c.PostForm("reviewerCompany"),
		Company:         c.PostForm("company"),
		ReviewerRole:    c.PostForm("reviewerRole"),
		JobTitle:        c.PostForm("jobTitle"),
		CourseID:        c.PostForm("courseId"),
		ReviewText:      c.PostForm("reviewText"),
		Body:            c.PostForm("body"),
		Comment:         c.PostForm("comment"),
		AvatarURL:       c.PostForm("avatarUrl"),
		AvatarPublicID:  c.PostForm("avatarPublicId"),
	}
	if v, ok := c.GetPostForm("rating"); ok {
		req.Rating = v
	}
	if v, ok := c.GetPostForm("consentAccepted"); ok {
		b := formBool(v)
		req.ConsentAccepted = &b
	} else if v, ok := c.GetPostForm("consent"); ok {
		b := formBool(v)
		req.Consent = &b
	}
	return req
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true
	}
	b, _ := strconv.ParseBool(strings.TrimSpace(v))
	return b
}

// readAvatarPart returns nil when the part is absent.
func readAvatarPart(c *gin.Context, field string, maxBytes int64) (*services.AvatarFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperrors.NewBadRequestError("Invalid file part")
	}
	return readFileHeader(fh, maxBytes)
}

func readFileHeader(fh *multipart.FileHeader, maxBytes int64) (*services.AvatarFile, error) {
	if fh.Size > maxBytes {
		return nil, apperrors.ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.NewBadRequestError("Unreadable file part")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, apperrors.NewBadRequestError("Unreadable file part")
	}
	if int64(len(data)) > maxBytes {
		return nil, apperrors.ErrFileTooLarge
	}
	return &services.AvatarFile{Data: data, ContentType: fh.Header.Get("Content-Type")}, nil
}
