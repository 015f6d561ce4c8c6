// Package config handles application configuration loading and validation using Viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Scoring     ScoringConfig     `mapstructure:"scoring"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Mattermost  MattermostConfig  `mapstructure:"mattermost"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Badges      []BadgeConfig     `mapstructure:"badges"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`
	AdminToken  string `mapstructure:"admin_token"` // Bearer token for /api/v1/admin routes
}

// MattermostConfig contains Mattermost webhook notification settings.
type MattermostConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	Channel    string `mapstructure:"channel"`
	Enabled    bool   `mapstructure:"enabled"`
}

// DatabaseConfig contains database connection settings for PostgreSQL and Redis.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains PostgreSQL database connection and pool settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// DSN returns the libpq connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection URL used by the migration runner.
func (c *PostgresConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig contains Redis cache connection and pool settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ScoringConfig tunes the scoring engine.
type ScoringConfig struct {
	Concurrency int `mapstructure:"concurrency"` // Max submissions scored in parallel
}

// LeaderboardConfig contains leaderboard read model settings.
type LeaderboardConfig struct {
	CacheTTL     int `mapstructure:"cache_ttl"` // Seconds
	DefaultLimit int `mapstructure:"default_limit"`
}

// TTL returns the cache TTL as a duration.
func (c *LeaderboardConfig) TTL() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SchedulerConfig contains background job settings.
type SchedulerConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Timezone          string `mapstructure:"timezone"`
	LockCheckSchedule string `mapstructure:"lock_check_schedule"` // Cron expression for locking due events
	ReconcileSchedule string `mapstructure:"reconcile_schedule"`  // Cron expression for standings reconciliation
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig contains Prometheus metrics exporter settings.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig contains application logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// BadgeConfig is a badge definition provisioned at startup.
type BadgeConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`
	Icon        string `mapstructure:"icon" yaml:"icon"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/paddock/")
	}

	setDefaults(v)

	// Server configuration
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.environment", "SERVER_ENVIRONMENT")
	_ = v.BindEnv("server.admin_token", "ADMIN_TOKEN")

	// Mattermost configuration
	_ = v.BindEnv("mattermost.webhook_url", "MATTERMOST_WEBHOOK_URL")
	_ = v.BindEnv("mattermost.channel", "MATTERMOST_CHANNEL")
	_ = v.BindEnv("mattermost.enabled", "MATTERMOST_ENABLED")

	// PostgreSQL configuration
	_ = v.BindEnv("database.postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("database.postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("database.postgres.database", "POSTGRES_DB")
	_ = v.BindEnv("database.postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("database.postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("database.postgres.ssl_mode", "POSTGRES_SSL_MODE")
	_ = v.BindEnv("database.postgres.max_open_conns", "POSTGRES_MAX_OPEN_CONNS")
	_ = v.BindEnv("database.postgres.max_idle_conns", "POSTGRES_MAX_IDLE_CONNS")
	_ = v.BindEnv("database.postgres.conn_max_lifetime", "POSTGRES_CONN_MAX_LIFETIME")

	// Redis configuration
	_ = v.BindEnv("database.redis.host", "REDIS_HOST")
	_ = v.BindEnv("database.redis.port", "REDIS_PORT")
	_ = v.BindEnv("database.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.redis.db", "REDIS_DB")
	_ = v.BindEnv("database.redis.pool_size", "REDIS_POOL_SIZE")

	// Scoring and leaderboard
	_ = v.BindEnv("scoring.concurrency", "SCORING_CONCURRENCY")
	_ = v.BindEnv("leaderboard.cache_ttl", "LEADERBOARD_CACHE_TTL")
	_ = v.BindEnv("leaderboard.default_limit", "LEADERBOARD_DEFAULT_LIMIT")

	// Logging configuration
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("logging.output", "LOG_OUTPUT")

	// Scheduler configuration
	_ = v.BindEnv("scheduler.enabled", "SCHEDULER_ENABLED")
	_ = v.BindEnv("scheduler.timezone", "SCHEDULER_TIMEZONE")
	_ = v.BindEnv("scheduler.lock_check_schedule", "SCHEDULER_LOCK_CHECK_SCHEDULE")
	_ = v.BindEnv("scheduler.reconcile_schedule", "SCHEDULER_RECONCILE_SCHEDULE")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.environment", "development")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.ssl_mode", "disable")
	v.SetDefault("database.postgres.max_open_conns", 25)
	v.SetDefault("database.postgres.max_idle_conns", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", 300)
	v.SetDefault("database.redis.port", 6379)
	v.SetDefault("database.redis.pool_size", 10)
	v.SetDefault("scoring.concurrency", 8)
	v.SetDefault("leaderboard.cache_ttl", 300)
	v.SetDefault("leaderboard.default_limit", 50)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.lock_check_schedule", "* * * * *")
	v.SetDefault("scheduler.reconcile_schedule", "0 4 * * *")
	v.SetDefault("metrics.prometheus.enabled", true)
	v.SetDefault("metrics.prometheus.path", "/metrics")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.AdminToken == "" {
		return fmt.Errorf("server.admin_token is required")
	}
	if c.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if c.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if c.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if c.Database.Redis.Host == "" {
		return fmt.Errorf("database.redis.host is required")
	}
	if c.Scoring.Concurrency < 1 {
		return fmt.Errorf("scoring.concurrency must be at least 1")
	}
	if c.Mattermost.Enabled && c.Mattermost.WebhookURL == "" {
		return fmt.Errorf("mattermost.webhook_url is required when mattermost is enabled")
	}
	for i, b := range c.Badges {
		if b.Name == "" {
			return fmt.Errorf("badges[%d].name is required", i)
		}
	}

	return nil
}

// GetLocation returns the timezone location.
func (c *SchedulerConfig) GetLocation() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
