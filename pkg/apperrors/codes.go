package apperrors

// ErrorCode is the machine-readable error identifier returned to clients.
type ErrorCode string

const (
	// System
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeConfigError   ErrorCode = "CONFIG_ERROR"

	// Request and business rules
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeCourseNotFound   ErrorCode = "COURSE_NOT_FOUND"
	CodeRateLimited      ErrorCode = "RATE_LIMITED"

	// Auth
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// Third parties
	CodeUpstreamError ErrorCode = "UPSTREAM_ERROR"
	CodeRelayError    ErrorCode = "RELAY_ERROR"
	CodeEmptyCatalog  ErrorCode = "EMPTY_CATALOG"

	// Avatar assets
	CodeAssetError      ErrorCode = "ASSET_ERROR"
	CodeInvalidFileType ErrorCode = "INVALID_FILE_TYPE"
	CodeFileTooLarge    ErrorCode = "FILE_TOO_LARGE"
)
