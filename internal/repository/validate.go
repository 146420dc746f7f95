package repository

import (
	"net/mail"
	"strings"
	"time"

	"sessionauth/internal/apperr"
	"sessionauth/internal/models"
	"sessionauth/internal/utils"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72 // предел bcrypt
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateUser(u *models.User) error {
	if strings.TrimSpace(u.Name) == "" {
		return apperr.Validation("please tell us your name")
	}
	if u.Email != "" {
		if _, err := mail.ParseAddress(u.Email); err != nil {
			return apperr.Validation("please provide a valid email")
		}
	}
	return nil
}

// applyPassword проверяет и хеширует новый пароль, если он задан.
// Для существующего пользователя выставляет PasswordChangedAt, этим
// отзываются все ранее выданные токены.
func applyPassword(u *models.User, opts models.SaveOptions, now time.Time, isNew bool) error {
	if u.Password == "" {
		if isNew {
			return apperr.Validation("please provide a password")
		}
		return nil
	}

	if !opts.SkipValidation {
		if len(u.Password) < minPasswordLen {
			return apperr.Validation("password must be at least 8 characters")
		}
		if len(u.Password) > maxPasswordLen {
			return apperr.Validation("password must be at most 72 bytes")
		}
		if u.Password != u.PasswordConfirm {
			return apperr.Validation("passwords are not the same")
		}
	}

	hash, err := utils.HashPassword(u.Password)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	u.PasswordHash = hash
	u.Password = ""
	u.PasswordConfirm = ""
	if !isNew {
		changed := now
		u.PasswordChangedAt = &changed
	}
	return nil
}

func prepare(u *models.User, opts models.SaveOptions, now time.Time, isNew bool) error {
	u.Email = normalizeEmail(u.Email)
	if !opts.SkipValidation {
		if err := validateUser(u); err != nil {
			return err
		}
	}
	return applyPassword(u, opts, now, isNew)
}
