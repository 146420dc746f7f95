package services

import (
	"context"
	"time"

	"sessionauth/internal/models"
)

// UserRepository хранит пользователей. Отсутствие записи: (nil, nil).
// Create и Save сами проверяют пароль с подтверждением и хешируют его.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string, includePasswordHash bool) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error)
	Save(ctx context.Context, user *models.User, opts models.SaveOptions) error
}

// Notifier доставляет письма.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}
