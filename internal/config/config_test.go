package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "STORAGE",
	"JWT_SECRET", "JWT_EXPIRES_IN", "JWT_COOKIE_EXPIRES_IN", "PASSWORD_RESET_TTL",
	"LOG", "LOGLEVEL", "ENV", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD", "MAIL_FROM",
	"APP_URL", "RESET_HIDE_UNKNOWN_EMAIL",
	"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 90*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.CookieTTL)
	assert.Equal(t, 10*time.Minute, cfg.PasswordResetTTL)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.ResetHideUnknownEmail)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "Memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "7d")
	t.Setenv("ENV", "production")
	t.Setenv("APP_URL", "https://api.example.com/")
	t.Setenv("RESET_HIDE_UNKNOWN_EMAIL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.CookieTTL)
	assert.Equal(t, "https://api.example.com", cfg.AppURL)
	assert.True(t, cfg.ResetHideUnknownEmail)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfig_BadValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("JWT_EXPIRES_IN", "ninety days")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "JWT_EXPIRES_IN")
	})
	t.Run("bool", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RESET_HIDE_UNKNOWN_EMAIL", "maybe")
		_, err := LoadConfig()
		assert.ErrorContains(t, err, "RESET_HIDE_UNKNOWN_EMAIL")
	})
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"90d", 90 * 24 * time.Hour, true},
		{"10m", 10 * time.Minute, true},
		{" 1h30m ", 90 * time.Minute, true},
		{"xd", 0, false},
		{"-1d", 0, false},
		{"99999999999999d", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validConfig() *Config {
	return &Config{
		Storage:          StoragePostgres,
		DbHost:           "localhost",
		DbUser:           "app",
		DbName:           "auth",
		JWTSecret:        "0123456789abcdef0123456789abcdef",
		TokenTTL:         time.Hour,
		CookieTTL:        time.Hour,
		PasswordResetTTL: 10 * time.Minute,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ShutdownTimeout:  15 * time.Second,
		AppURL:           "https://api.example.com",
		SMTPHost:         "smtp.example.com",
		SMTPUser:         "mailer",
	}
}

func TestValidate(t *testing.T) {
	warnings, err := validConfig().Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty secret", func(c *Config) { c.JWTSecret = " " }, "JWT_SECRET"},
		{"zero token ttl", func(c *Config) { c.TokenTTL = 0 }, "JWT_EXPIRES_IN"},
		{"negative cookie ttl", func(c *Config) { c.CookieTTL = -24 * time.Hour }, "JWT_COOKIE_EXPIRES_IN"},
		{"zero reset ttl", func(c *Config) { c.PasswordResetTTL = 0 }, "PASSWORD_RESET_TTL"},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, "SERVER_READ_TIMEOUT"},
		{"negative write timeout", func(c *Config) { c.WriteTimeout = -time.Second }, "SERVER_WRITE_TIMEOUT"},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "SERVER_SHUTDOWN_TIMEOUT"},
		{"missing app url", func(c *Config) { c.AppURL = "" }, "APP_URL"},
		{"relative app url", func(c *Config) { c.AppURL = "api.example.com" }, "APP_URL"},
		{"non-http app url", func(c *Config) { c.AppURL = "javascript://x" }, "APP_URL"},
		{"incomplete db", func(c *Config) { c.DbHost = "" }, "DB"},
		{"unknown storage", func(c *Config) { c.Storage = "redis" }, "STORAGE"},
		{"no smtp in production", func(c *Config) { c.Env = "production"; c.SMTPHost = "" }, "SMTP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			_, err := cfg.Validate()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	cfg := validConfig()
	cfg.Storage = StorageMemory
	cfg.DbHost = ""
	cfg.SMTPHost = ""
	cfg.JWTSecret = "short"

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Len(t, warnings, 3)
}

func TestLoadConfig_NegativeCookieTTLFailsValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "-1d")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_COOKIE_EXPIRES_IN")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DbUser: "app", DbPass: "pw", DbHost: "db", DbPort: "5432", DbName: "auth", DbSSLMode: "disable"}
	assert.Equal(t, "postgres://app:pw@db:5432/auth?sslmode=disable", cfg.GetDSN())
	assert.NotContains(t, cfg.GetDSNSafe(), "pw")
}
