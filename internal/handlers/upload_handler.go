package handlers

import (
	"errors"
	"net/http"

	"reviewhub_backend/internal/services"
	"reviewhub_backend/internal/storage"
	"reviewhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ============================================
// UPLOAD HANDLER
// ============================================

type UploadHandler struct {
	*BaseHandler
	uploadService services.UploadService
	maxAvatar     int64
}

func NewUploadHandler(base *BaseHandler, uploadService services.UploadService, maxAvatar int64) *UploadHandler {
	if maxAvatar <= 0 {
		maxAvatar = storage.MaxAvatarBytes
	}
	return &UploadHandler{
		BaseHandler:   base,
		uploadService: uploadService,
		maxAvatar:     maxAvatar,
	}
}

func (h *UploadHandler) RegisterRoutes(api *gin.RouterGroup, limit gin.HandlerFunc) {
	api.POST("/uploads/avatar", limit, h.UploadAvatar)
}

// UploadAvatar godoc
// @Summary Upload an avatar image
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "JPG, PNG, WEBP or GIF up to 5MB"
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /uploads/avatar [post]
func (h *UploadHandler) UploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxAvatar+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.HandleError(c, apperrors.ErrFileTooLarge)
			return
		}
		apperrors.HandleError(c, apperrors.FieldError("file", "File is required"))
		return
	}

	file, err := readFileHeader(fh, h.maxAvatar)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	res, err := h.uploadService.UploadAvatar(c.Request.Context(), file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
