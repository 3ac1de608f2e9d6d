package constants

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// Context Keys for request tracking and metadata
const (
	CtxKeyRequestID ContextKey = "request_id"
	CtxKeyUserID    ContextKey = "user_id"
	CtxKeyClientIP  ContextKey = "client_ip"
	CtxKeyUserAgent ContextKey = "user_agent"
	CtxKeyStartTime ContextKey = "start_time"
	CtxKeyModule    ContextKey = "module"
	CtxKeyFunction  ContextKey = "function"
)

// Keys used with gin.Context.Set by the middlewares
const (
	GinKeyUser  = "auth_user"
	GinKeyToken = "auth_token"

	// GinKeyRequestBody holds the bound and validated request DTO
	GinKeyRequestBody = "request_body"
)
