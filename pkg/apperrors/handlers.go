package apperrors

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON envelope for every failed request.
type ErrorResponse struct {
	OK    bool      `json:"ok"`
	Error *AppError `json:"error"`
}

// GinErrorHandler writes errors to a gin response. Debug exposes the
// underlying reason of unexpected errors and is only enabled on admin routes.
type GinErrorHandler struct {
	Debug bool
}

func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}
	if h.Debug && appErr.Code == CodeInternalError && appErr.Details == nil {
		if reason := appErr.Err; reason != nil {
			appErr = appErr.WithDetails(gin.H{"reason": reason.Error()})
		}
	}
	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{OK: false, Error: appErr})
}

// HandleError writes err with internal details hidden.
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: DebugErrors(c)}
	handler.HandleGinError(c, err)
}

const debugKey = "apperrors.debug"

// EnableDebug marks the request as coming from a trusted audience.
func EnableDebug(c *gin.Context) {
	c.Set(debugKey, true)
}

func DebugErrors(c *gin.Context) bool {
	return c.GetBool(debugKey)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
