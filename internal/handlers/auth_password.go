package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"sessionauth/internal/logger"
	"sessionauth/internal/services"
	"sessionauth/internal/utils/helpers"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type PasswordHandler struct {
	svc *services.PasswordResetService
	// внешний адрес API (APP_URL) для ссылки в письме; заголовки запроса не используются
	appURL string
}

func NewPasswordHandler(svc *services.PasswordResetService, appURL string) *PasswordHandler {
	return &PasswordHandler{svc: svc, appURL: strings.TrimRight(appURL, "/")}
}

type forgotReq struct {
	Email string `json:"email"`
}

type resetReq struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Forgot godoc
// @Summary Запрос восстановления пароля
// @Description Отправляет письмо со ссылкой для сброса пароля (действует 10 минут).
// @Tags password
// @Accept json
// @Produce json
// @Param input body forgotReq true "Email пользователя"
// @Success 200 {object} helpers.Response
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/forgot-password [post]
func (h *PasswordHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req forgotReq
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email, h.appURL); err != nil {
		logger.WithCtx(r.Context()).Warn("Сбой при запросе восстановления пароля",
			zap.String("email_masked", maskEmail(req.Email)), zap.Error(err))
		helpers.Error(w, r, err)
		return
	}

	helpers.Message(w, http.StatusOK, "token sent to email")
}

// Reset godoc
// @Summary Сброс пароля по токену
// @Description Устанавливает новый пароль по токену из письма. Новый токен сессии не выдаётся.
// @Tags password
// @Accept json
// @Produce json
// @Param token path string true "Токен из письма"
// @Param input body resetReq true "Новый пароль"
// @Success 200 {object} helpers.Response
// @Failure 400 {object} errorResponse
// @Router /api/reset-password/{token} [patch]
func (h *PasswordHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.svc.ResetPassword(r.Context(), mux.Vars(r)["token"], req.Password, req.PasswordConfirm)
	if err != nil {
		helpers.Error(w, r, err)
		return
	}

	helpers.Success(w, http.StatusOK, userData{User: *view})
}

// maskEmail: "ivan@mail.ru" → "i***@mail.ru"
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" {
		return "***"
	}
	first, _ := utf8.DecodeRuneInString(local)
	return string(first) + "***@" + domain
}
