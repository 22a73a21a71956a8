package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/skilllink")
	t.Setenv("JWT_SECRET", "0123456789abcdef")

	cfg := Load()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 10080, cfg.JWTExpiresMin)
	assert.Equal(t, "memory", cfg.RealtimeDriver)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.False(t, cfg.StrictBookingTransitions)
	assert.False(t, cfg.MailEnabled())
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/skilllink")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("APP_BASE_URL", "https://api.skilllink.test/")
	t.Setenv("REALTIME_DRIVER", "Redis")
	t.Setenv("BOOKING_STRICT_TRANSITIONS", "true")
	t.Setenv("RESET_TOKEN_TTL", "15m")
	t.Setenv("JWT_EXPIRES_MIN", "not-a-number")

	cfg := Load()
	assert.Equal(t, "https://api.skilllink.test", cfg.AppBaseURL)
	assert.Equal(t, "redis", cfg.RealtimeDriver)
	assert.True(t, cfg.StrictBookingTransitions)
	assert.Equal(t, 15*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 10080, cfg.JWTExpiresMin)
}

func TestLoadPanicsWithoutRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	assert.PanicsWithValue(t, "missing env: DB_DSN", func() { Load() })
}

func TestValidate(t *testing.T) {
	base := Config{JWTSecret: "0123456789abcdef", JWTExpiresMin: 60, RealtimeDriver: "memory", StorageDriver: "local"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "short secret", mutate: func(c *Config) { c.JWTSecret = "short" }, wantErr: "JWT_SECRET"},
		{name: "bad realtime", mutate: func(c *Config) { c.RealtimeDriver = "kafka" }, wantErr: "REALTIME_DRIVER"},
		{name: "bad storage", mutate: func(c *Config) { c.StorageDriver = "ftp" }, wantErr: "STORAGE_DRIVER"},
		{name: "s3 without bucket", mutate: func(c *Config) { c.StorageDriver = "s3"; c.S3Bucket = "" }, wantErr: "S3_BUCKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
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
