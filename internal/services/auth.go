package services

import (
	"context"
	"strings"

	"sessionauth/internal/apperr"
	"sessionauth/internal/logger"
	"sessionauth/internal/models"
	"sessionauth/internal/utils"

	"go.uber.org/zap"
)

// Одно сообщение и для неизвестного email, и для неверного пароля.
const msgIncorrectCredentials = "incorrect email or password"

type AuthService struct {
	repo   UserRepository
	tokens *TokenService
}

func NewAuthService(repo UserRepository, tokens *TokenService) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

type SignupInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type UpdatePasswordInput struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Session: публичное представление пользователя и токен.
type Session struct {
	User  models.UserView
	Token string
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if strings.TrimSpace(in.Name) == "" || in.Password == "" || in.PasswordConfirm == "" {
		return nil, apperr.Validation("missing details: name, password and passwordConfirm are required")
	}

	user := &models.User{Name: strings.TrimSpace(in.Name), Email: in.Email}
	user.SetPassword(in.Password, in.PasswordConfirm)

	if err := s.repo.Create(ctx, user); err != nil {
		logger.WithCtx(ctx).Warn("Регистрация не удалась (service)", zap.Error(err))
		return nil, err
	}

	logger.WithCtx(ctx).Info("Пользователь зарегистрирован (service)", zap.Int64("user_id", user.ID))
	return s.issue(user)
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperr.Validation("please provide email and password")
	}

	user, err := s.repo.FindByEmail(ctx, email, true)
	if err != nil {
		return nil, err
	}
	if user == nil || !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.WithCtx(ctx).Info("Неудачная попытка входа (service)")
		return nil, apperr.Authentication(msgIncorrectCredentials)
	}

	logger.WithCtx(ctx).Info("Вход выполнен (service)", zap.Int64("user_id", user.ID))
	return s.issue(user)
}

// UpdatePassword меняет пароль по текущему паролю. Сохранение обновляет
// PasswordChangedAt, поэтому все старые токены перестают работать, а
// вызывающий получает новый.
func (s *AuthService) UpdatePassword(ctx context.Context, userID int64, in UpdatePasswordInput) (*Session, error) {
	if in.PasswordCurrent == "" || in.Password == "" || in.PasswordConfirm == "" {
		return nil, apperr.Validation("passwordCurrent, password and passwordConfirm are required")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Authentication("user no longer exists")
	}
	if !utils.CheckPasswordHash(in.PasswordCurrent, user.PasswordHash) {
		return nil, apperr.Authentication("your current password is wrong")
	}

	user.SetPassword(in.Password, in.PasswordConfirm)
	if err := s.repo.Save(ctx, user, models.SaveOptions{}); err != nil {
		return nil, err
	}

	logger.WithCtx(ctx).Info("Пароль изменён (service)", zap.Int64("user_id", userID))
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := s.tokens.Sign(user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "sign token", err)
	}
	return &Session{User: user.View(), Token: token}, nil
}
