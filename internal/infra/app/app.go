package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/config"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/database"
	kafkainfra "github.com/Rohit29052007/seed-track-flow/internal/infra/kafka"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/logger"
	redisinfra "github.com/Rohit29052007/seed-track-flow/internal/infra/redis"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/security"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/telemetry"
	"github.com/Rohit29052007/seed-track-flow/internal/repository/memory"
	postgresrepo "github.com/Rohit29052007/seed-track-flow/internal/repository/postgres"
	redisrepo "github.com/Rohit29052007/seed-track-flow/internal/repository/redis"
	sqliterepo "github.com/Rohit29052007/seed-track-flow/internal/repository/sqlite"
	"github.com/Rohit29052007/seed-track-flow/internal/transport/http/routes"
	"github.com/Rohit29052007/seed-track-flow/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	sqlite   *sqliterepo.AttemptStore
	producer *kafkainfra.Producer
	watcher  *usecase.SessionWatcher
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	app := &Application{cfg: cfg, logger: log, pool: pool}

	attemptStore, err := app.buildAttemptStore(cfg, log)
	if err != nil {
		app.closeInfra()
		return nil, err
	}

	var producer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}
	app.producer = producer

	repos := postgresrepo.NewRepositories(pool)

	signInLimiter, err := usecase.NewAttemptLimiter("sign-in", usecase.AttemptLimiterConfig{
		MaxAttempts:   cfg.RateLimit.SignIn.MaxAttempts,
		Window:        cfg.RateLimit.SignIn.Window,
		BlockDuration: cfg.RateLimit.SignIn.BlockDuration,
	}, attemptStore, log)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("init sign-in limiter: %w", err)
	}

	signUpLimiter, err := usecase.NewAttemptLimiter("sign-up", usecase.AttemptLimiterConfig{
		MaxAttempts:   cfg.RateLimit.SignUp.MaxAttempts,
		Window:        cfg.RateLimit.SignUp.Window,
		BlockDuration: cfg.RateLimit.SignUp.BlockDuration,
	}, attemptStore, log)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("init sign-up limiter: %w", err)
	}

	// Lockouts feed the event bus and metrics without coupling the limiter
	// to either.
	for _, limiter := range []*usecase.AttemptLimiter{signInLimiter, signUpLimiter} {
		l := limiter
		l.WithLockoutHook(func(identifier string, record domain.AttemptRecord) {
			metrics.CountLockout(l.Operation())

			publishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			event := domain.LockoutEvent{
				OperationKey: l.Operation(),
				Identifier:   identifier,
				Attempts:     record.Count,
				BlockedUntil: record.BlockedUntil,
				At:           time.Now().UTC(),
			}
			if err := eventPublisher.PublishLockout(publishCtx, event); err != nil {
				log.Warn("publish lockout event", zap.Error(err))
			}
		})
	}

	watcher, err := usecase.NewSessionWatcher(usecase.SessionWatchConfig{
		Timeout: cfg.Session.IdleTimeout,
		Warning: cfg.Session.IdleWarning,
	}, repos.Sessions, eventPublisher, log)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("init session watcher: %w", err)
	}
	watcher.WithExpiryHook(func(sessionID, userID string) {
		metrics.CountSessionExpiry()
	})
	app.watcher = watcher

	tokens, err := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	authService, err := usecase.NewAuthService(
		repos.Users,
		repos.Sessions,
		eventPublisher,
		signInLimiter,
		signUpLimiter,
		watcher,
		tokens,
		nil,
		cfg.Session.TTL,
		log,
	)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("init auth service: %w", err)
	}
	authService.WithMetrics(metrics)

	deps := routes.Dependencies{
		Config:        cfg,
		Logger:        log,
		Auth:          authService,
		Watcher:       watcher,
		SignInLimiter: signInLimiter,
		SignUpLimiter: signUpLimiter,
		Metrics:       metrics,
		Database:      pool,
	}
	if app.redis != nil {
		deps.Cache = app.redis
	}
	app.engine = routes.Register(deps)

	return app, nil
}

// buildAttemptStore selects the attempt store backend: Redis when configured,
// otherwise the embedded SQLite file, otherwise process memory.
func (a *Application) buildAttemptStore(cfg *config.AppConfig, log *zap.Logger) (port.AttemptStore, error) {
	if cfg.Redis.Host != "" {
		client, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
		log.Info("using redis attempt store")
		return redisrepo.NewAttemptStore(client.Client(), cfg.Redis.AttemptPrefix), nil
	}

	if cfg.SQLite.Path != "" {
		store, err := sqliterepo.NewAttemptStore(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("init sqlite attempt store: %w", err)
		}
		a.sqlite = store
		log.Info("using sqlite attempt store", zap.String("path", cfg.SQLite.Path))
		return store, nil
	}

	log.Warn("no durable attempt store configured, blocks will not survive restarts")
	return memory.NewAttemptStore(), nil
}

func (a *Application) closeInfra() {
	if a.watcher != nil {
		a.watcher.Shutdown()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.sqlite != nil {
		_ = a.sqlite.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closeInfra()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting tracker API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
