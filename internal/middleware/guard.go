package middleware

import (
	"context"
	"net/http"
	"strings"

	"sessionauth/internal/apperr"
	"sessionauth/internal/logger"
	"sessionauth/internal/models"
	"sessionauth/internal/reqctx"
	"sessionauth/internal/services"
	"sessionauth/internal/utils/helpers"

	"go.uber.org/zap"
)

type TokenVerifier interface {
	VerifyAndDecode(token string) (*services.SessionClaims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

var (
	errMissingCredentials = apperr.Authentication("missing credentials, please log in")
	errUserGone           = apperr.Authentication("user no longer exists")
	errStaleCredentials   = apperr.Authentication("stale credentials: password was changed, please log in again")
)

// Guard пускает к защищённым маршрутам только запросы с действующим токеном.
// Реестра сессий нет: на каждом запросе заново проверяется, что пользователь
// существует и не менял пароль после выдачи токена.
type Guard struct {
	tokens TokenVerifier
	users  UserFinder
}

func NewGuard(tokens TokenVerifier, users UserFinder) *Guard {
	return &Guard{tokens: tokens, users: users}
}

func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.authenticate(r)
		if err != nil {
			logger.WithCtx(r.Context()).Warn("Guard: доступ отклонён",
				zap.String("path", r.URL.Path), zap.String("reason", err.Error()))
			helpers.Error(w, r, err)
			return
		}

		ctx := reqctx.WithUserID(r.Context(), user.ID)
		ctx = WithUser(ctx, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) authenticate(r *http.Request) (*models.User, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, errMissingCredentials
	}

	claims, err := g.tokens.VerifyAndDecode(token)
	if err != nil {
		return nil, err
	}

	user, err := g.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errUserGone
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, errStaleCredentials
	}
	return user, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
