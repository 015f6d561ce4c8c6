package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
server:
  admin_token: secret
database:
  postgres:
    host: db
    database: paddock
    user: paddock
  redis:
    host: cache
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Scoring.Concurrency)
	assert.Equal(t, 50, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, 5*time.Minute, cfg.Leaderboard.TTL())
	assert.Equal(t, "* * * * *", cfg.Scheduler.LockCheckSchedule)
	assert.Equal(t, "cache:6379", cfg.Database.Redis.Addr())
	assert.Equal(t, "postgres://paddock:@db:5432/paddock?sslmode=disable", cfg.Database.Postgres.URL())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCORING_CONCURRENCY", "3")
	t.Setenv("ADMIN_TOKEN", "from-env")

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scoring.Concurrency)
	assert.Equal(t, "from-env", cfg.Server.AdminToken)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{AdminToken: "t"},
			Database: DatabaseConfig{
				Postgres: PostgresConfig{Host: "db", Database: "p", User: "u"},
				Redis:    RedisConfig{Host: "cache"},
			},
			Scoring: ScoringConfig{Concurrency: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no admin token", func(c *Config) { c.Server.AdminToken = "" }, "admin_token"},
		{"no postgres host", func(c *Config) { c.Database.Postgres.Host = "" }, "postgres.host"},
		{"no redis host", func(c *Config) { c.Database.Redis.Host = "" }, "redis.host"},
		{"zero concurrency", func(c *Config) { c.Scoring.Concurrency = 0 }, "concurrency"},
		{"mattermost without url", func(c *Config) { c.Mattermost.Enabled = true }, "webhook_url"},
		{"unnamed badge", func(c *Config) { c.Badges = []BadgeConfig{{Icon: "x"}} }, "badges[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
