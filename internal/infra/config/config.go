package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App       AppSettings       `mapstructure:"app"`
	Postgres  PostgresSettings  `mapstructure:"postgres"`
	Redis     RedisSettings     `mapstructure:"redis"`
	SQLite    SQLiteSettings    `mapstructure:"sqlite"`
	Kafka     KafkaSettings     `mapstructure:"kafka"`
	JWT       JWTSettings       `mapstructure:"jwt"`
	RateLimit RateLimitSettings `mapstructure:"rate_limit"`
	Session   SessionSettings   `mapstructure:"session"`
	Telemetry TelemetrySettings `mapstructure:"telemetry"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the Redis attempt store. When Host is empty the
// service falls back to the SQLite store.
type RedisSettings struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	DB            int    `mapstructure:"db"`
	Password      string `mapstructure:"password"`
	TLSEnabled    bool   `mapstructure:"tls_enabled"`
	AttemptPrefix string `mapstructure:"attempt_prefix"`
}

// SQLiteSettings configures the embedded fallback attempt store.
type SQLiteSettings struct {
	Path string `mapstructure:"path"`
}

// KafkaSettings configures the Kafka event producer. With no brokers the
// service logs events instead of publishing them.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LimiterSettings are the per-operation attempt limiter knobs.
type LimiterSettings struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	Window        time.Duration `mapstructure:"window"`
	BlockDuration time.Duration `mapstructure:"block_duration"`
}

// RateLimitSettings holds one limiter configuration per guarded operation.
type RateLimitSettings struct {
	SignIn LimiterSettings `mapstructure:"sign_in"`
	SignUp LimiterSettings `mapstructure:"sign_up"`
}

// SessionSettings configures session lifetime and the idle watch.
type SessionSettings struct {
	TTL         time.Duration `mapstructure:"ttl"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	IdleWarning time.Duration `mapstructure:"idle_warning"`
}

// TelemetrySettings names the service for metric labels. Metrics are served
// on the main HTTP listener under /metrics.
type TelemetrySettings struct {
	ServiceName string `mapstructure:"service_name"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("TRACKER")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.attempt_prefix",
		"sqlite.path",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.issuer",
		"jwt.access_token_ttl",
		"rate_limit.sign_in.max_attempts",
		"rate_limit.sign_in.window",
		"rate_limit.sign_in.block_duration",
		"rate_limit.sign_up.max_attempts",
		"rate_limit.sign_up.window",
		"rate_limit.sign_up.block_duration",
		"session.ttl",
		"session.idle_timeout",
		"session.idle_warning",
		"telemetry.service_name",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (set TRACKER_JWT_SECRET)")
	}
	if c.Session.IdleWarning >= c.Session.IdleTimeout {
		return fmt.Errorf("session.idle_warning (%s) must be shorter than session.idle_timeout (%s)",
			c.Session.IdleWarning, c.Session.IdleTimeout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "seed-track-flow")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "tracker")
	v.SetDefault("postgres.password", "tracker_password")
	v.SetDefault("postgres.database", "tracker")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.attempt_prefix", "tracker:attempts")

	v.SetDefault("sqlite.path", "./data/attempts.db")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "tracker")

	v.SetDefault("jwt.issuer", "seed-track-flow")
	v.SetDefault("jwt.access_token_ttl", "30m")

	v.SetDefault("rate_limit.sign_in.max_attempts", 5)
	v.SetDefault("rate_limit.sign_in.window", "15m")
	v.SetDefault("rate_limit.sign_in.block_duration", "15m")
	v.SetDefault("rate_limit.sign_up.max_attempts", 3)
	v.SetDefault("rate_limit.sign_up.window", "1h")
	v.SetDefault("rate_limit.sign_up.block_duration", "1h")

	v.SetDefault("session.ttl", "12h")
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.idle_warning", "2m")

	v.SetDefault("telemetry.service_name", "seed-track-flow")
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "TRACKER_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
