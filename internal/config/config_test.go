package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 15, cfg.JWTExpirationMinutes)
	assert.Equal(t, 168, cfg.JWTRefreshExpirationHours)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAIModel)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 2.0, cfg.RateLimit.RPS)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "pma")
	t.Setenv("DB_USERNAME", "svc")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RATE_LIMIT_RPS", "0.5")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "svc:pw@tcp(db.internal:3306)/pma?charset=utf8mb4&parseTime=True&loc=Local", cfg.Database.DSN)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Session.RedisURL)
	assert.Equal(t, 0.5, cfg.RateLimit.RPS)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"JWT_EXPIRATION_MINUTES", "fifteen"},
		{"LLM_TIMEOUT", "30"},
		{"SESSION_TTL", "forever"},
		{"RATE_LIMIT_RPS", "fast"},
		{"MAX_UPLOAD_MB", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
