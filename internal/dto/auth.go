package dto

import (
	"time"
)

type LoginRequest struct {
	Email      string `json:"email" binding:"required,filled,email"`
	Password   string `json:"password" binding:"required,filled"`
	RememberMe *bool  `json:"remember_me"`
}

// Remember reports the remember-me flag, defaulting to false.
func (r *LoginRequest) Remember() bool {
	return r.RememberMe != nil && *r.RememberMe
}

// LoginResponse is returned once per login. Token is the only copy of the secret.
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// FormatExpiry renders an expiry as ISO-8601 in UTC.
func FormatExpiry(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
