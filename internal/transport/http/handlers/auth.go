package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/security"
	"github.com/Rohit29052007/seed-track-flow/internal/transport/http/middleware"
	"github.com/Rohit29052007/seed-track-flow/internal/usecase"
)

// AuthHandler exposes registration, login and logout endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication routes, applying optional throttle
// middleware ahead of the credential-bearing handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, signUpThrottle, signInThrottle gin.HandlerFunc) {
	if signUpThrottle != nil {
		r.POST("/sign-up", signUpThrottle, h.signUp)
	} else {
		r.POST("/sign-up", h.signUp)
	}

	if signInThrottle != nil {
		r.POST("/sign-in", signInThrottle, h.signIn)
	} else {
		r.POST("/sign-in", h.signIn)
	}

	r.POST("/sign-out", middleware.RequireAuth(h.auth), h.signOut)
}

// signUp creates a new tracker account.
func (h *AuthHandler) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	user, err := h.auth.SignUp(c.Request.Context(), usecase.SignUpInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	}, c.ClientIP())
	if err != nil {
		var tooMany *usecase.TooManyAttemptsError
		var violation *security.PolicyViolation
		switch {
		case errors.As(err, &tooMany):
			respondTooManyAttempts(c, tooMany)
		case errors.As(err, &violation):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, violation.Message))
		case errors.Is(err, usecase.ErrUsernameTaken):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "username or email already registered"))
		default:
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, err.Error()))
		}
		return
	}

	c.JSON(http.StatusCreated, SignUpResponse{User: newUserSummary(user)})
}

// signIn validates credentials and opens a watched session.
func (h *AuthHandler) signIn(c *gin.Context) {
	// The throttle middleware may have bound the body already, so use the
	// cached-body variant here.
	var req SignInRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.SignIn(c.Request.Context(), usecase.SignInInput{
		Username:  req.Username,
		Password:  req.Password,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		var tooMany *usecase.TooManyAttemptsError
		switch {
		case errors.As(err, &tooMany):
			respondTooManyAttempts(c, tooMany)
		case errors.Is(err, usecase.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
		case errors.Is(err, usecase.ErrInactiveAccount):
			c.JSON(http.StatusForbidden, NewErrorResponse(c, "account is not active"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to sign in"))
		}
		return
	}

	c.JSON(http.StatusOK, SignInResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.ExpiresAt,
		User:        newUserSummary(result.User),
	})
}

// signOut revokes the caller's session.
func (h *AuthHandler) signOut(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.SignOut(c.Request.Context(), sessionID, "sign_out"); err != nil {
		if errors.Is(err, usecase.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "session not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to sign out"))
		return
	}

	c.Status(http.StatusNoContent)
}

func respondTooManyAttempts(c *gin.Context, err *usecase.TooManyAttemptsError) {
	retrySeconds := int(math.Ceil(err.RetryAfter.Seconds()))
	if retrySeconds < 0 {
		retrySeconds = 0
	}
	c.Header("Retry-After", strconv.Itoa(retrySeconds))
	c.JSON(http.StatusTooManyRequests, middleware.ProblemDetails{
		Type:       "https://tracker.seed-track-flow.example.com/errors/too-many-attempts",
		Title:      "Too Many Attempts",
		Status:     http.StatusTooManyRequests,
		Detail:     err.Error(),
		Instance:   c.FullPath(),
		RetryAfter: retrySeconds,
		TraceID:    middleware.GetTraceID(c),
	})
}
