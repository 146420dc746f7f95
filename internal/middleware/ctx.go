package middleware

import (
	"context"

	"sessionauth/internal/models"
)

type ctxKey string

const ContextUser ctxKey = "user"

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, ContextUser, u)
}

// UserFromContext возвращает пользователя, которого положил Guard.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(ContextUser).(*models.User)
	return u, ok && u != nil
}
