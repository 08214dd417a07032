package handlers

import (
	"net/http"

	"reviewhub_backend/internal/dto"
	"reviewhub_backend/internal/middleware"
	"reviewhub_backend/internal/services"
	"reviewhub_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the admin session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge int
}

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		cookie:      cookie,
	}
}

// RegisterRoutes mounts login and logout on the open auth group and me behind
// the gate.
func (h *AuthHandler) RegisterRoutes(open *gin.RouterGroup, admin *gin.RouterGroup) {
	open.POST("/login", h.Login)
	open.POST("/logout", h.Logout)
	admin.GET("/auth/me", h.Me)
}

// Login godoc
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /admin/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setCookie(c, session.Token, h.cookie.MaxAge)
	c.JSON(http.StatusOK, dto.SessionResponse{
		OK:    true,
		Admin: dto.AdminIdentity{Email: session.Identity.Email, Role: session.Identity.Role},
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, dto.OKResponse{OK: true})
}

func (h *AuthHandler) Me(c *gin.Context) {
	identity, ok := middleware.AdminIdentity(c)
	if !ok {
		apperrors.HandleError(c, apperrors.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, dto.SessionResponse{
		OK:    true,
		Admin: dto.AdminIdentity{Email: identity.Email, Role: identity.Role},
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
