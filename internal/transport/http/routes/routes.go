package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/infra/config"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/telemetry"
	"github.com/Rohit29052007/seed-track-flow/internal/transport/http/handlers"
	"github.com/Rohit29052007/seed-track-flow/internal/transport/http/middleware"
	"github.com/Rohit29052007/seed-track-flow/internal/usecase"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config        *config.AppConfig
	Logger        *zap.Logger
	Auth          *usecase.AuthService
	Watcher       *usecase.SessionWatcher
	SignInLimiter *usecase.AttemptLimiter
	SignUpLimiter *usecase.AttemptLimiter
	Metrics       *telemetry.Provider
	Database      DatabaseChecker
	Cache         CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics.RequestCounter()))
	}

	checks := make(map[string]handlers.HealthCheck, 2)
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}
	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Auth)

		// Throttles reject requests from already-blocked identifiers before
		// the handler runs; attempts themselves are recorded in the usecase
		// layer.
		signUpThrottle := middleware.Throttle(deps.SignUpLimiter, middleware.ClientIPIdentifier(), deps.Logger)
		signInThrottle := middleware.Throttle(deps.SignInLimiter, signInIdentifier(), deps.Logger)
		authHandler.RegisterRoutes(authGroup, signUpThrottle, signInThrottle)

		var onExtend func()
		if deps.Metrics != nil {
			onExtend = deps.Metrics.CountSessionExtend
		}
		sessionHandler := handlers.NewSessionHandler(deps.Auth, deps.Watcher, onExtend)
		sessionHandler.RegisterRoutes(api)

		adminHandler := handlers.NewAdminHandler(deps.Auth, deps.SignInLimiter, deps.SignUpLimiter)
		adminHandler.RegisterRoutes(api)
	}

	return r
}

// signInIdentifier keys the sign-in throttle on the username in the payload,
// matching the limiter key used when attempts are recorded. The body is
// rewound so the handler can bind it again.
func signInIdentifier() middleware.IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		var req struct {
			Username string `json:"username"`
		}
		if err := c.ShouldBindBodyWithJSON(&req); err != nil {
			return "", false
		}
		if req.Username == "" {
			return "", false
		}
		return req.Username, true
	}
}
