package services

import (
	"errors"
	"strconv"
	"time"

	"sessionauth/internal/apperr"
	"sessionauth/internal/clock"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = apperr.New(apperr.KindTokenInvalid, "invalid token, please log in again")
	ErrTokenExpired = apperr.New(apperr.KindTokenExpired, "your token has expired, please log in again")
)

type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// SessionClaims: проверенное содержимое сессионного токена.
type SessionClaims struct {
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService подписывает и проверяет сессионные JWT (HS256).
type TokenService struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

func NewTokenService(cfg TokenConfig, clk clock.Clock) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenService{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuedAt(),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(clk.Now),
		),
	}, nil
}

func (s *TokenService) Sign(userID int64) (string, error) {
	now := s.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyAndDecode проверяет подпись и сроки и только потом читает claims.
func (s *TokenService) VerifyAndDecode(tokenString string) (*SessionClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrTokenInvalid
	}

	return &SessionClaims{
		UserID:    userID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
