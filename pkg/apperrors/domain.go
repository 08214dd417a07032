package apperrors

import (
	"net/http"
)

// --- Reviews & courses ---

var ErrReviewNotFound = New(
	CodeNotFound,
	"review",
	"Review not found",
	http.StatusNotFound,
)

var ErrCourseNotFound = New(
	CodeCourseNotFound,
	"course",
	"Course not found",
	http.StatusNotFound,
)

// --- Auth ---

// ErrUnauthorized is the single response for every failed session check.
var ErrUnauthorized = New(
	CodeUnauthorized,
	"auth",
	"Unauthorized",
	http.StatusUnauthorized,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// --- Uploads ---

var ErrInvalidFileType = New(
	CodeInvalidFileType,
	"upload",
	"Only JPG, PNG, WEBP or GIF images are allowed",
	http.StatusBadRequest,
)

var ErrFileTooLarge = New(
	CodeFileTooLarge,
	"upload",
	"File is too large (max 5MB)",
	http.StatusBadRequest,
)

var ErrRateLimited = New(
	CodeRateLimited,
	"request",
	"Too many requests, please try again later",
	http.StatusTooManyRequests,
)

// AssetError wraps a failed media-host call.
func AssetError(err error, message string) *AppError {
	return Wrap(err, CodeAssetError, "upload", message, http.StatusBadGateway)
}

// UpstreamError wraps a failed catalog call; status 0 means no response was received.
func UpstreamError(err error, upstreamStatus int) *AppError {
	appErr := Wrap(err, CodeUpstreamError, "catalog", "Upstream catalog request failed", http.StatusBadGateway)
	if upstreamStatus > 0 {
		appErr.Details = map[string]int{"upstreamStatus": upstreamStatus}
	}
	return appErr
}

func EmptyCatalogError(upstreamCount int) *AppError {
	return New(CodeEmptyCatalog, "catalog", "Upstream catalog returned no usable courses", http.StatusBadGateway).
		WithDetails(map[string]int{"upstreamCount": upstreamCount})
}

// RelayError wraps a failed chat backend call.
func RelayError(err error, upstreamStatus int) *AppError {
	appErr := Wrap(err, CodeRelayError, "chat", "Chat backend request failed", http.StatusBadGateway)
	if upstreamStatus > 0 {
		appErr.Details = map[string]int{"upstreamStatus": upstreamStatus}
	}
	return appErr
}
