package middleware

import (
	"strings"

	"reviewhub_backend/internal/auth"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/pkg/apperrors"
	"reviewhub_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// SessionVerifier checks an admin session token.
type SessionVerifier interface {
	Verify(token string) (*auth.Identity, error)
}

// AdminSessionMiddleware gates admin routes on the session cookie. A bearer
// token is accepted as well for scripted access. Failures never reach the
// handler, so no input is bound or validated for them.
func AdminSessionMiddleware(verifier SessionVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieName)
		if token == "" {
			apperrors.HandleError(c, apperrors.ErrUnauthorized)
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			logger.CtxWarn(c.Request.Context(), "admin session rejected", "path", c.Request.URL.Path, "ip", c.ClientIP())
			apperrors.HandleError(c, apperrors.ErrUnauthorized)
			return
		}

		ctx := logger.WithAdminEmail(c.Request.Context(), identity.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(contextkeys.AdminEmailKey), identity.Email)
		c.Set(adminIdentityKey, identity)
		apperrors.EnableDebug(c)
		c.Next()
	}
}

const adminIdentityKey = "admin_identity"

// SessionToken reads the session cookie, falling back to a bearer header.
func SessionToken(c *gin.Context, cookieName string) string {
	if v, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return BearerToken(c)
}

func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// AdminEmail returns the email set by AdminSessionMiddleware.
func AdminEmail(c *gin.Context) string {
	return c.GetString(string(contextkeys.AdminEmailKey))
}

// AdminIdentity returns the identity set by AdminSessionMiddleware.
func AdminIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, ok := c.Get(adminIdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*auth.Identity)
	return id, ok
}
