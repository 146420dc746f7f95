package app

import (
	"context"
	"fmt"

	"sessionauth/internal/clock"
	"sessionauth/internal/config"
	"sessionauth/internal/db"
	"sessionauth/internal/handlers"
	"sessionauth/internal/logger"
	"sessionauth/internal/middleware"
	"sessionauth/internal/repository"
	"sessionauth/internal/routes"
	"sessionauth/internal/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Deps: внешние зависимости приложения. InitApp собирает их из конфига,
// тесты подставляют свои.
type Deps struct {
	Users    services.UserRepository
	Notifier services.Notifier
	Clock    clock.Clock
}

func NewRouter(cfg *config.Config, deps Deps) (*mux.Router, error) {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if cfg.AppURL == "" {
		return nil, fmt.Errorf("APP_URL is required to build password reset links")
	}

	// Сервисы
	tokenService, err := services.NewTokenService(services.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    cfg.TokenTTL,
	}, deps.Clock)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	authService := services.NewAuthService(deps.Users, tokenService)
	resetService := services.NewPasswordResetService(deps.Users, deps.Notifier, deps.Clock, services.ResetConfig{
		TokenTTL:         cfg.PasswordResetTTL,
		HideUnknownEmail: cfg.ResetHideUnknownEmail,
	})

	// Хендлеры
	authHandler := handlers.NewAuthHandler(authService, handlers.CookieConfig{
		TTL:    cfg.CookieTTL,
		Secure: cfg.IsProduction(),
	})
	passwordHandler := handlers.NewPasswordHandler(resetService, cfg.AppURL)
	guard := middleware.NewGuard(tokenService, deps.Users)

	// Маршруты
	router := mux.NewRouter()
	routes.InitRoutes(router, authHandler, passwordHandler, guard)
	return router, nil
}

// InitApp поднимает хранилище и почту по конфигу. Возвращаемая функция
// освобождает ресурсы (пул соединений).
func InitApp(ctx context.Context, cfg *config.Config) (*mux.Router, func(), error) {
	clk := clock.System{}
	cleanup := func() {}

	var users services.UserRepository
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Log.Warn("Хранилище в памяти: данные пропадут при перезапуске")
		users = repository.NewMemoryUserRepository(clk)
	default:
		pool, err := db.NewPostgresConnection(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		if err := db.RunMigrations(ctx, cfg.GetDSN()); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Log.Info("Подключение к БД установлено", zap.String("dsn", cfg.GetDSNSafe()))
		users = repository.NewUserRepository(pool, clk)
		cleanup = pool.Close
	}

	var notifier services.Notifier = services.LogNotifier{}
	switch {
	case cfg.SMTPHost != "" && cfg.SMTPUser != "":
		notifier = services.NewEmailService(cfg)
	case cfg.IsProduction():
		cleanup()
		return nil, nil, fmt.Errorf("SMTP is not configured, refusing to log reset emails in production")
	}

	router, err := NewRouter(cfg, Deps{Users: users, Notifier: notifier, Clock: clk})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return router, cleanup, nil
}
