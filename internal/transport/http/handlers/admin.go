package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/transport/http/middleware"
	"github.com/Rohit29052007/seed-track-flow/internal/usecase"
)

// LockoutClearRequest identifies one limiter record to reset.
type LockoutClearRequest struct {
	Operation  string `json:"operation"`
	Identifier string `json:"identifier"`
}

// LockoutStatusResponse reports the limiter state for one identifier.
type LockoutStatusResponse struct {
	Operation         string  `json:"operation"`
	Identifier        string  `json:"identifier"`
	Blocked           bool    `json:"blocked"`
	RemainingAttempts int     `json:"remaining_attempts"`
	RetryAfterSeconds float64 `json:"retry_after_seconds,omitempty"`
}

// AdminHandler exposes lockout administration to operators.
type AdminHandler struct {
	auth     *usecase.AuthService
	limiters map[string]*usecase.AttemptLimiter
}

// NewAdminHandler constructs AdminHandler over the service's limiters.
func NewAdminHandler(auth *usecase.AuthService, limiters ...*usecase.AttemptLimiter) *AdminHandler {
	byOp := make(map[string]*usecase.AttemptLimiter, len(limiters))
	for _, limiter := range limiters {
		if limiter != nil {
			byOp[limiter.Operation()] = limiter
		}
	}
	return &AdminHandler{auth: auth, limiters: byOp}
}

// RegisterRoutes binds admin routes behind authentication and the admin role.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin",
		middleware.RequireAuth(h.auth),
		middleware.RequireRole(string(domain.RoleAdmin)),
	)
	admin.GET("/lockouts", h.status)
	admin.POST("/lockouts/clear", h.clear)
}

// status reports the limiter state for an operation/identifier pair.
func (h *AdminHandler) status(c *gin.Context) {
	operation := c.Query("operation")
	identifier := c.Query("identifier")
	if identifier == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier is required"))
		return
	}

	limiter, ok := h.limiters[operation]
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "unknown operation"))
		return
	}

	ctx := c.Request.Context()
	resp := LockoutStatusResponse{
		Operation:         operation,
		Identifier:        identifier,
		Blocked:           limiter.IsBlocked(ctx, identifier),
		RemainingAttempts: limiter.RemainingAttempts(ctx, identifier),
	}
	if resp.Blocked {
		resp.RetryAfterSeconds = limiter.BlockedTimeRemaining(ctx, identifier).Seconds()
	}

	c.JSON(http.StatusOK, resp)
}

// clear resets attempt state for an identifier, lifting any active block.
func (h *AdminHandler) clear(c *gin.Context) {
	var req LockoutClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid clear payload"))
		return
	}
	if req.Identifier == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "identifier is required"))
		return
	}

	limiter, ok := h.limiters[req.Operation]
	if !ok {
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "unknown operation"))
		return
	}

	limiter.Clear(c.Request.Context(), req.Identifier)
	c.Status(http.StatusNoContent)
}
