package config

import (
	"fmt"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Port      string
	DbHost    string
	DbPort    string
	DbUser    string
	DbPass    string
	DbName    string
	DbSSLMode string
	Storage   string // postgres|memory

	JWTSecret string
	TokenTTL  time.Duration
	CookieTTL time.Duration

	Log      string
	LogLevel string
	Env      string // development|production

	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	AppURL                string
	PasswordResetTTL      time.Duration
	ResetHideUnknownEmail bool

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig загружает .env, читает переменные окружения и выставляет дефолты.
// Ничего не логирует — чтобы не создавать зависимость от logger.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	def := func(v, d string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return d
		}
		return v
	}

	cfg := &Config{
		Port:      def(os.Getenv("PORT"), "8080"),
		DbHost:    os.Getenv("DB_HOST"),
		DbPort:    def(os.Getenv("DB_PORT"), "5432"),
		DbUser:    os.Getenv("DB_USER"),
		DbPass:    os.Getenv("DB_PASSWORD"),
		DbName:    os.Getenv("DB_NAME"),
		DbSSLMode: def(os.Getenv("DB_SSLMODE"), "disable"),
		Storage:   strings.ToLower(def(os.Getenv("STORAGE"), StoragePostgres)),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Log:      os.Getenv("LOG"),
		LogLevel: strings.ToLower(def(os.Getenv("LOGLEVEL"), "info")),
		Env:      strings.ToLower(def(os.Getenv("ENV"), "development")),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     def(os.Getenv("SMTP_PORT"), "587"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),

		AppURL: strings.TrimRight(os.Getenv("APP_URL"), "/"),
	}

	durations := []struct {
		env string
		def string
		dst *time.Duration
	}{
		{"JWT_EXPIRES_IN", "90d", &cfg.TokenTTL},
		{"JWT_COOKIE_EXPIRES_IN", "90d", &cfg.CookieTTL},
		{"PASSWORD_RESET_TTL", "10m", &cfg.PasswordResetTTL},
		{"SERVER_READ_TIMEOUT", "10s", &cfg.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", "10s", &cfg.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", "15s", &cfg.ShutdownTimeout},
	}
	for _, d := range durations {
		v, err := ParseDuration(def(os.Getenv(d.env), d.def))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.env, err)
		}
		*d.dst = v
	}

	hide, err := strconv.ParseBool(def(os.Getenv("RESET_HIDE_UNKNOWN_EMAIL"), "false"))
	if err != nil {
		return nil, fmt.Errorf("RESET_HIDE_UNKNOWN_EMAIL: %w", err)
	}
	cfg.ResetHideUnknownEmail = hide

	return cfg, nil
}

const (
	day     = 24 * time.Hour
	maxDays = int64(math.MaxInt64 / day)
)

// ParseDuration понимает всё, что понимает time.ParseDuration, плюс суффикс "d" (дни).
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil || n < 0 || n > maxDays {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * day, nil
	}
	return time.ParseDuration(s)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate возвращает предупреждения и фатальную ошибку (если критично).
func (c *Config) Validate() (warnings []string, err error) {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is empty")
	}
	positive := []struct {
		env string
		val time.Duration
	}{
		{"JWT_EXPIRES_IN", c.TokenTTL},
		{"JWT_COOKIE_EXPIRES_IN", c.CookieTTL},
		{"PASSWORD_RESET_TTL", c.PasswordResetTTL},
		{"SERVER_READ_TIMEOUT", c.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", c.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, p := range positive {
		if p.val <= 0 {
			return nil, fmt.Errorf("%s must be positive", p.env)
		}
	}

	// Ссылка на сброс пароля строится только из APP_URL, не из заголовков запроса.
	if err := validateAppURL(c.AppURL); err != nil {
		return nil, err
	}

	switch c.Storage {
	case StoragePostgres:
		if c.DbHost == "" || c.DbUser == "" || c.DbName == "" {
			return nil, fmt.Errorf("incomplete DB config (DB_HOST/DB_USER/DB_NAME)")
		}
	case StorageMemory:
		warnings = append(warnings, "STORAGE=memory: users are lost on restart")
	default:
		return nil, fmt.Errorf("unknown STORAGE %q", c.Storage)
	}

	if c.SMTPHost == "" || c.SMTPUser == "" {
		if c.IsProduction() {
			return nil, fmt.Errorf("SMTP_HOST and SMTP_USER are required in production")
		}
		warnings = append(warnings, "SMTP is not fully configured, reset emails will only be logged")
	}

	if len(c.JWTSecret) < 32 {
		warnings = append(warnings, "JWT_SECRET is shorter than 32 bytes")
	}

	return warnings, nil
}

func validateAppURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("APP_URL is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("APP_URL must be an absolute http(s) URL, got %q", raw)
	}
	return nil
}

// GetDSN — полная DSN (с паролем)
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbPass, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}

// GetDSNSafe — DSN без пароля (для логов)
func (c *Config) GetDSNSafe() string {
	return fmt.Sprintf(
		"postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DbUser, c.DbHost, c.DbPort, c.DbName, c.DbSSLMode,
	)
}
