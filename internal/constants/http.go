package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderOrigin        = "Origin"
)

// Bearer scheme prefix in the Authorization header
const BearerScheme = "Bearer"

// HTTP Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Common HTTP Error Messages
const (
	MsgUnauthenticated    = "Unauthenticated."
	MsgAuthFailed         = "These credentials do not match our records."
	MsgNotFound           = "Resource not found."
	MsgUserNotFound       = "User not found."
	MsgBadRequest         = "Invalid request format."
	MsgInternalError      = "Internal server error."
	MsgValidationFailed   = "The given data was invalid."
	MsgTooManyRequests    = "Too Many Attempts."
	MsgServiceUnavailable = "Service temporarily unavailable."
)
