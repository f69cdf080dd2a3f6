package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/transport/http/middleware"
)

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse builds an error payload carrying the request trace ID.
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		TraceID: middleware.GetTraceID(c),
	}
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UserSummary is the public projection of a tracker account.
type UserSummary struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	RegisteredAt time.Time  `json:"registered_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         string(user.Role),
		RegisteredAt: user.RegisteredAt,
		LastLogin:    user.LastLogin,
	}
}

// SignUpRequest is the registration payload.
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// SignUpResponse is returned on successful registration.
type SignUpResponse struct {
	User UserSummary `json:"user"`
}

// SignInRequest is the login payload.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignInResponse is returned on successful login.
type SignInResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        UserSummary `json:"user"`
}

// SessionStatusResponse reports the idle state of the caller's session.
type SessionStatusResponse struct {
	SessionID        string  `json:"session_id"`
	SecondsRemaining float64 `json:"seconds_remaining"`
	Warned           bool    `json:"warned"`
}

// SessionExtendResponse confirms a keep-alive.
type SessionExtendResponse struct {
	SessionID        string  `json:"session_id"`
	SecondsRemaining float64 `json:"seconds_remaining"`
}
