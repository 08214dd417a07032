package handlers

import (
	"net/http"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/services"
	"reviewhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// ChatHandler relays the site chat widget to the chat backend.
type ChatHandler struct {
	*BaseHandler
	chatService services.ChatService
}

func NewChatHandler(base *BaseHandler, chatService services.ChatService) *ChatHandler {
	return &ChatHandler{
		BaseHandler: base,
		chatService: chatService,
	}
}

func (h *ChatHandler) RegisterRoutes(api *gin.RouterGroup, limit gin.HandlerFunc) {
	api.POST("/chat", limit, h.Chat)
	api.POST("/feedback", limit, h.Feedback)
}

// Chat godoc
// @Summary Relay a chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Message"
// @Success 200 {object} dto.ChatResponse
// @Failure 502 {object} apperrors.ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	reply, err := h.chatService.Relay(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ChatResponse{OK: true, Reply: reply})
}

// Feedback always answers ok; forwarding is optional.
func (h *ChatHandler) Feedback(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		logger.CtxWarn(c.Request.Context(), "Failed to bind feedback body", "error", err.Error())
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body"))
		return
	}

	res := h.chatService.Feedback(c.Request.Context(), payload)
	c.JSON(http.StatusOK, dto.FeedbackResponse{
		OK:             true,
		Forwarded:      res.Forwarded,
		UpstreamStatus: res.UpstreamStatus,
	})
}
