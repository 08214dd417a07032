package handlers

import (
	"bytes"
	"net/http"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/middleware"
	"reviewhub_backend/internal/reports"
	"reviewhub_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminReviewHandler is the moderation dashboard API. Every route sits behind
// the admin session gate.
type AdminReviewHandler struct {
	*BaseHandler
	reviewService services.ReviewService
	reportService services.ReportService
}

func NewAdminReviewHandler(base *BaseHandler, reviewService services.ReviewService, reportService services.ReportService) *AdminReviewHandler {
	return &AdminReviewHandler{
		BaseHandler:   base,
		reviewService: reviewService,
		reportService: reportService,
	}
}

func (h *AdminReviewHandler) RegisterRoutes(admin *gin.RouterGroup) {
	reviews := admin.Group("/reviews")
	{
		reviews.GET("", h.ListReviews)
		reviews.POST("", h.CreateReview)
		reviews.GET("/export", h.ExportReviews)
		reviews.GET("/stats", h.Stats)
		reviews.GET("/:id", h.GetReview)
		reviews.PUT("/:id", h.UpdateReview)
		reviews.PATCH("/:id", h.UpdateReview)
		reviews.DELETE("/:id", h.DeleteReview)
	}
}

// ListReviews godoc
// @Summary Filtered, paginated review list
// @Tags admin
// @Produce json
// @Param page query int false "Page, 1-based"
// @Param pageSize query int false "10..100, default 20"
// @Param courseId query string false "Course id"
// @Param isActive query string false "1, 0, true, false"
// @Param status query string false "pending, approved, rejected"
// @Param q query string false "Free text search"
// @Param from query string false "YYYY-MM-DD, Bangkok time"
// @Param to query string false "YYYY-MM-DD, Bangkok time"
// @Success 200 {object} dto.PaginatedResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /admin/reviews [get]
func (h *AdminReviewHandler) ListReviews(c *gin.Context) {
	var q dto.ReviewListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	res, err := h.reportService.ListReviews(c.Request.Context(), h.GetDB(c), &q)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AdminReviewHandler) CreateReview(c *gin.Context) {
	var req dto.AdminReviewCreateRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	review, err := h.reviewService.CreateByAdmin(c.Request.Context(), h.GetDB(c), &req, middleware.AdminEmail(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ReviewItemResponse{OK: true, Item: review})
}

func (h *AdminReviewHandler) GetReview(c *gin.Context) {
	review, err := h.reviewService.Get(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewItemResponse{OK: true, Item: review})
}

// UpdateReview godoc
// @Summary Partially update a review
// @Description Edits fields, moderates (action or status), toggles visibility and replaces or removes the avatar.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Review id"
// @Param request body dto.AdminReviewPatch true "Patch"
// @Success 200 {object} dto.ReviewItemResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /admin/reviews/{id} [put]
func (h *AdminReviewHandler) UpdateReview(c *gin.Context) {
	var patch dto.AdminReviewPatch
	if !h.BindAndValidate_JSON(c, &patch) {
		return
	}

	review, err := h.reviewService.Update(c.Request.Context(), h.GetDB(c), c.Param("id"), &patch, middleware.AdminEmail(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ReviewItemResponse{OK: true, Item: review})
}

func (h *AdminReviewHandler) DeleteReview(c *gin.Context) {
	if err := h.reviewService.Delete(c.Request.Context(), h.GetDB(c), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OKResponse{OK: true})
}

// ExportReviews godoc
// @Summary CSV export of the filtered review list
// @Tags admin
// @Produce text/csv
// @Success 200 {file} file
// @Router /admin/reviews/export [get]
func (h *AdminReviewHandler) ExportReviews(c *gin.Context) {
	var q dto.ReviewListQuery
	if !h.BindAndValidate_Query(c, &q) {
		return
	}

	var buf bytes.Buffer
	if err := h.reportService.ExportCSV(c.Request.Context(), h.GetDB(c), &q, &buf); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+reports.ExportFilename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, reports.ExportContentType, buf.Bytes())
}

func (h *AdminReviewHandler) Stats(c *gin.Context) {
	stats, err := h.reportService.Stats(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{OK: true, ReviewStats: stats})
}
