package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"sessionauth/internal/apperr"
	"sessionauth/internal/logger"
	"sessionauth/internal/middleware"
	"sessionauth/internal/models"
	"sessionauth/internal/services"
	"sessionauth/internal/utils/helpers"

	"go.uber.org/zap"
)

const defaultCookieName = "jwt"

type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	authService *services.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService *services.AuthService, cookie CookieConfig) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = defaultCookieName
	}
	return &AuthHandler{authService: authService, cookie: cookie}
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userData struct {
	User models.UserView `json:"user"`
}

type sessionResponse struct {
	Status string   `json:"status" example:"success"`
	Token  string   `json:"token"`
	Data   userData `json:"data"`
}

type errorResponse struct {
	Status  string `json:"status" example:"fail"`
	Message string `json:"message"`
}

// Signup godoc
// @Summary Регистрация нового пользователя
// @Tags auth
// @Accept json
// @Produce json
// @Param input body services.SignupInput true "Данные регистрации"
// @Success 201 {object} sessionResponse
// @Failure 400 {object} errorResponse
// @Router /api/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req services.SignupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		helpers.Error(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info("Пользователь зарегистрирован", zap.Int64("user_id", session.User.ID))
	h.sendSession(w, session, http.StatusCreated)
}

// Signin godoc
// @Summary Вход по email и паролю
// @Tags auth
// @Accept json
// @Produce json
// @Param input body signinRequest true "Email и пароль"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /api/signin [post]
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		helpers.Error(w, r, err)
		return
	}

	h.sendSession(w, session, http.StatusOK)
}

// UpdatePassword godoc
// @Summary Смена пароля (авторизованный пользователь)
// @Description Все ранее выданные токены перестают действовать, в ответе новый токен.
// @Tags auth
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body services.UpdatePasswordInput true "Текущий и новый пароль"
// @Success 200 {object} sessionResponse
// @Failure 400 {object} errorResponse
// @Failure 401 {object} errorResponse
// @Router /api/update-password [patch]
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helpers.Error(w, r, apperr.Authentication("missing credentials, please log in"))
		return
	}

	var req services.UpdatePasswordInput
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.UpdatePassword(r.Context(), user.ID, req)
	if err != nil {
		helpers.Error(w, r, err)
		return
	}

	h.sendSession(w, session, http.StatusOK)
}

// Me godoc
// @Summary Текущий пользователь
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} helpers.Response
// @Failure 401 {object} errorResponse
// @Router /api/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helpers.Error(w, r, apperr.Authentication("missing credentials, please log in"))
		return
	}
	helpers.Success(w, http.StatusOK, userData{User: user.View()})
}

// sendSession отвечает на signup, signin и смену пароля.
// Токен уходит и в теле, и в cookie.
func (h *AuthHandler) sendSession(w http.ResponseWriter, s *services.Session, status int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    s.Token,
		Path:     "/",
		MaxAge:   int(h.cookie.TTL / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	helpers.JSON(w, status, helpers.Response{
		Status: helpers.StatusSuccess,
		Token:  s.Token,
		Data:   userData{User: s.User},
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.WithCtx(r.Context()).Warn("Ошибка декодирования JSON", zap.String("path", r.URL.Path), zap.Error(err))
		helpers.Error(w, r, apperr.Validation("invalid JSON body"))
		return false
	}
	return true
}
