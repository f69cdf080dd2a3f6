package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rohit29052007/seed-track-flow/internal/transport/http/middleware"
	"github.com/Rohit29052007/seed-track-flow/internal/usecase"
)

// SessionHandler exposes idle-watch status and keep-alive endpoints for the
// caller's own session.
type SessionHandler struct {
	auth     *usecase.AuthService
	watcher  *usecase.SessionWatcher
	onExtend func()
}

// NewSessionHandler constructs SessionHandler. onExtend, when non-nil, is
// invoked for every successful keep-alive (metrics hook).
func NewSessionHandler(auth *usecase.AuthService, watcher *usecase.SessionWatcher, onExtend func()) *SessionHandler {
	return &SessionHandler{auth: auth, watcher: watcher, onExtend: onExtend}
}

// RegisterRoutes binds session routes behind authentication.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	authed := r.Group("", middleware.RequireAuth(h.auth))
	authed.GET("/session", h.status)
	authed.POST("/session/extend", h.extend)
}

// status reports how long until the caller's session is expired for idleness
// and whether the warning threshold has been crossed. The authentication
// middleware already counted this request as activity, so the reported
// remaining time is freshly reset.
func (h *SessionHandler) status(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	remaining := h.watcher.TimeRemaining(sessionID)
	if remaining <= 0 {
		c.JSON(http.StatusGone, NewErrorResponse(c, "session is no longer watched"))
		return
	}

	c.JSON(http.StatusOK, SessionStatusResponse{
		SessionID:        sessionID,
		SecondsRemaining: remaining.Seconds(),
		Warned:           h.watcher.Warned(sessionID),
	})
}

// extend is an explicit keep-alive: it restarts the idle countdown and clears
// a pending warning.
func (h *SessionHandler) extend(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	remaining, ok := h.watcher.Extend(sessionID)
	if !ok {
		c.JSON(http.StatusGone, NewErrorResponse(c, "session is no longer watched"))
		return
	}

	if h.onExtend != nil {
		h.onExtend()
	}

	c.JSON(http.StatusOK, SessionExtendResponse{
		SessionID:        sessionID,
		SecondsRemaining: remaining.Seconds(),
	})
}
