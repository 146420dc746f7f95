package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sessionauth/internal/apperr"
	"sessionauth/internal/clock"
	"sessionauth/internal/logger"
	"sessionauth/internal/models"
	"sessionauth/internal/utils"

	"go.uber.org/zap"
)

const DefaultResetTokenTTL = 10 * time.Minute

var (
	ErrInvalidOrExpiredToken = apperr.New(apperr.KindInvalidResetToken, "token is invalid or has expired")
	errNoUserWithEmail       = apperr.NotFound("there is no user with that email address")
)

type ResetConfig struct {
	TokenTTL time.Duration
	// HideUnknownEmail: на неизвестный email отвечать успехом, ничего не отправляя.
	HideUnknownEmail bool
}

type PasswordResetService struct {
	repo     UserRepository
	notifier Notifier
	clock    clock.Clock
	cfg      ResetConfig
}

func NewPasswordResetService(repo UserRepository, notifier Notifier, clk clock.Clock, cfg ResetConfig) *PasswordResetService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultResetTokenTTL
	}
	return &PasswordResetService{
		repo:     repo,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
	}
}

// ForgotPassword сохраняет хеш одноразового токена и отправляет письмо со
// ссылкой. Если письмо не ушло, токен стирается до возврата ошибки.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email, baseURL string) error {
	log := logger.WithCtx(ctx)

	if strings.TrimSpace(email) == "" {
		return apperr.Validation("please provide an email")
	}

	user, err := s.repo.FindByEmail(ctx, email, false)
	if err != nil {
		return err
	}
	if user == nil {
		log.Info("Сброс пароля для неизвестного email")
		if s.cfg.HideUnknownEmail {
			return nil
		}
		return errNoUserWithEmail
	}

	token, hash, err := utils.GenerateResetToken()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "generate reset token", err)
	}

	expires := s.clock.Now().Add(s.cfg.TokenTTL)
	user.SetResetToken(hash, expires)
	if err := s.repo.Save(ctx, user, models.SaveOptions{SkipValidation: true}); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/reset-password/%s", strings.TrimRight(baseURL, "/"), token)
	body := fmt.Sprintf("Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s\n"+
		"If you didn't forget your password, please ignore this email.", link)

	if sendErr := s.notifier.Send(ctx, user.Email, resetEmailSubject(s.cfg.TokenTTL), body); sendErr != nil {
		log.Error("Ошибка отправки письма для сброса пароля",
			zap.Int64("user_id", user.ID), zap.Error(sendErr))

		// Клиент мог уже отключиться: стирание токена не должно отменяться вместе с запросом.
		user.ClearResetToken()
		cleanupCtx := context.WithoutCancel(ctx)
		if cleanupErr := s.repo.Save(cleanupCtx, user, models.SaveOptions{SkipValidation: true}); cleanupErr != nil {
			log.Error("Не удалось стереть токен сброса после ошибки отправки",
				zap.Int64("user_id", user.ID), zap.Error(cleanupErr))
			sendErr = errors.Join(sendErr, cleanupErr)
		}
		return apperr.Wrap(apperr.KindDelivery, "there was an error sending the email, try again later", sendErr)
	}

	log.Info("Письмо со ссылкой на сброс пароля отправлено",
		zap.Int64("user_id", user.ID), zap.Time("expires_at", expires))
	return nil
}

// ResetPassword ставит новый пароль по токену из письма. Сохранение обновляет
// PasswordChangedAt, поэтому все выданные ранее сессии становятся устаревшими.
func (s *PasswordResetService) ResetPassword(ctx context.Context, rawToken, password, confirm string) (*models.UserView, error) {
	if rawToken == "" {
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := s.repo.FindByResetTokenHash(ctx, utils.HashResetToken(rawToken), s.clock.Now())
	if err != nil {
		return nil, err
	}
	if user == nil {
		logger.WithCtx(ctx).Info("Неверный или просроченный токен сброса")
		return nil, ErrInvalidOrExpiredToken
	}
	if password == "" || confirm == "" {
		return nil, apperr.Validation("please provide password and passwordConfirm")
	}

	user.SetPassword(password, confirm)
	user.ClearResetToken()
	if err := s.repo.Save(ctx, user, models.SaveOptions{}); err != nil {
		return nil, err
	}

	logger.WithCtx(ctx).Info("Пароль успешно сброшен", zap.Int64("user_id", user.ID))
	view := user.View()
	return &view, nil
}

func resetEmailSubject(ttl time.Duration) string {
	return fmt.Sprintf("Your password reset token (valid for %s)", humanDuration(ttl))
}

// humanDuration: 10m → "10 minutes", 1h → "1 hour", 90s → "1m30s".
func humanDuration(d time.Duration) string {
	plural := func(n int64, unit string) string {
		if n == 1 {
			return "1 " + unit
		}
		return fmt.Sprintf("%d %ss", n, unit)
	}
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int64(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int64(d/time.Minute), "minute")
	default:
		return d.String()
	}
}
