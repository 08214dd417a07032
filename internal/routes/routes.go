package routes

import (
	"reviewhub_backend/internal/handlers"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/middleware"
	"reviewhub_backend/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// Gate is what the admin session middleware needs.
type Gate struct {
	Verifier   middleware.SessionVerifier
	CookieName string
}

// RegisterRoutes mounts the public and admin HTTP API under /api.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	gate Gate,
	limiter ratelimit.Limiter,
) {
	if limiter == nil {
		limiter = ratelimit.Noop{}
	}

	api := ginRouter.Group("/api")
	admin := api.Group("/admin", middleware.AdminSessionMiddleware(gate.Verifier, gate.CookieName))

	appHandlers.CourseHandler.RegisterRoutes(api, admin)
	appHandlers.ReviewHandler.RegisterRoutes(api, middleware.RateLimitMiddleware(limiter, "reviews"))
	appHandlers.UploadHandler.RegisterRoutes(api, middleware.RateLimitMiddleware(limiter, "uploads"))
	appHandlers.ChatHandler.RegisterRoutes(api, middleware.RateLimitMiddleware(limiter, "chat"))

	// Login and logout stay outside the session gate.
	appHandlers.AuthHandler.RegisterRoutes(api.Group("/admin/auth"), admin)
	appHandlers.AdminReviewHandler.RegisterRoutes(admin)

	logger.Info("HTTP routes registered", "routes", len(ginRouter.Routes()))
}
