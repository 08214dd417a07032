package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/middleware"
	"reviewhub_backend/internal/services"
	"reviewhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	*BaseHandler
	courseService services.CourseService
	cronSecret    string
}

func NewCourseHandler(base *BaseHandler, courseService services.CourseService, cronSecret string) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   base,
		courseService: courseService,
		cronSecret:    cronSecret,
	}
}

func (h *CourseHandler) RegisterRoutes(api *gin.RouterGroup, admin *gin.RouterGroup) {
	api.GET("/courses", h.ListCourses)
	api.GET("/health", h.Health)
	api.GET("/cron/courses/sync", h.CronSync)

	admin.GET("/courses", h.ListAllCourses)
	admin.POST("/courses/sync", h.SyncCourses)
}

// ListCourses godoc
// @Summary Active courses for the review form
// @Tags courses
// @Produce json
// @Success 200 {object} dto.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	items, err := h.courseService.ListActive(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CourseListResponse{OK: true, Items: items})
}

func (h *CourseHandler) ListAllCourses(c *gin.Context) {
	items, err := h.courseService.ListAll(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AdminCourseListResponse{OK: true, Items: items})
}

// SyncCourses godoc
// @Summary Mirror the upstream course catalog
// @Tags admin
// @Produce json
// @Success 200 {object} dto.CourseSyncResult
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /admin/courses/sync [post]
func (h *CourseHandler) SyncCourses(c *gin.Context) {
	h.sync(c, services.SyncTriggerAdmin)
}

// CronSync accepts the shared secret as ?token=, a bearer header or
// x-cron-secret.
func (h *CourseHandler) CronSync(c *gin.Context) {
	if h.cronSecret == "" {
		h.HandleServiceError(c, apperrors.ConfigError("scheduled sync", "CRON_SECRET must be set"))
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token == "" {
		token = strings.TrimSpace(c.GetHeader("x-cron-secret"))
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) != 1 {
		logger.CtxWarn(c.Request.Context(), "cron sync rejected", "ip", c.ClientIP())
		apperrors.HandleError(c, apperrors.ErrUnauthorized)
		return
	}

	h.sync(c, services.SyncTriggerCron)
}

func (h *CourseHandler) sync(c *gin.Context, trigger string) {
	res, err := h.courseService.Sync(c.Request.Context(), h.GetDB(c), trigger)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Health godoc
// @Summary Database and course registry status
// @Tags system
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *CourseHandler) Health(c *gin.Context) {
	res, err := h.courseService.Health(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	status := http.StatusOK
	if !res.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, res)
}
