// Package reqctx переносит через context данные запроса, которые нужны
// логгеру: middleware их кладёт, logger.WithCtx читает.
package reqctx

import "context"

type (
	requestIDKey struct{}
	userIDKey    struct{}
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(requestIDKey{}).(string)
	return v, ok && v != ""
}

// WithUserID кладёт id аутентифицированного пользователя. Ставит только Guard.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func UserID(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(userIDKey{}).(int64)
	return v, ok && v > 0
}
