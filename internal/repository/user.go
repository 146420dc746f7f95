package repository

import (
	"context"
	"errors"
	"time"

	"sessionauth/internal/apperr"
	"sessionauth/internal/clock"
	"sessionauth/internal/logger"
	"sessionauth/internal/models"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// DBTX: общее подмножество *pgxpool.Pool, pgx.Tx и pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, name, email, password_hash, password_changed_at,
	password_reset_token_hash, password_reset_expires_at, active, created_at`

type UserRepository struct {
	db    DBTX
	clock clock.Clock
}

func NewUserRepository(db DBTX, clk clock.Clock) *UserRepository {
	return &UserRepository{db: db, clock: clk}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := prepare(user, models.SaveOptions{}, r.clock.Now(), true); err != nil {
		return err
	}

	logger.Log.Debug("Создание пользователя (repo)", zap.String("email", user.Email))
	query := `
	INSERT INTO users (name, email, password_hash, active)
	VALUES ($1, $2, $3, TRUE)
	RETURNING id, active, created_at`
	err := r.db.QueryRow(ctx, query,
		user.Name,
		nullableString(user.Email),
		user.PasswordHash,
	).Scan(&user.ID, &user.Active, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return apperr.Validation("email already in use")
		}
		logger.Log.Error("Ошибка создания пользователя (repo)", zap.Error(err))
		return apperr.Persistence("insert user", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string, includePasswordHash bool) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND active`
	user, err := r.findOne(ctx, query, normalizeEmail(email))
	if user != nil && !includePasswordHash {
		user.PasswordHash = ""
	}
	return user, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND active`
	return r.findOne(ctx, query, id)
}

// FindByResetTokenHash возвращает только пользователя с неистёкшим токеном.
func (r *UserRepository) FindByResetTokenHash(ctx context.Context, hash string, now time.Time) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
	WHERE password_reset_token_hash = $1
	  AND password_reset_expires_at > $2
	  AND active`
	return r.findOne(ctx, query, hash, now)
}

func (r *UserRepository) Save(ctx context.Context, user *models.User, opts models.SaveOptions) error {
	if err := prepare(user, opts, r.clock.Now(), false); err != nil {
		return err
	}

	// Пустой хеш: пароль не загружался (FindByEmail без хеша), не трогаем.
	query := `
	UPDATE users SET
		name = $2,
		email = $3,
		password_hash = COALESCE(NULLIF($4, ''), password_hash),
		password_changed_at = $5,
		password_reset_token_hash = $6,
		password_reset_expires_at = $7,
		active = $8
	WHERE id = $1`
	tag, err := r.db.Exec(ctx, query,
		user.ID,
		user.Name,
		nullableString(user.Email),
		user.PasswordHash,
		user.PasswordChangedAt,
		user.PasswordResetTokenHash,
		user.PasswordResetExpiresAt,
		user.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return apperr.Validation("email already in use")
		}
		logger.Log.Error("Ошибка сохранения пользователя (repo)", zap.Int64("user_id", user.ID), zap.Error(err))
		return apperr.Persistence("update user", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.Persistence("update user", ErrUserNotFound)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var (
		u     models.User
		email *string
	)
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&email,
		&u.PasswordHash,
		&u.PasswordChangedAt,
		&u.PasswordResetTokenHash,
		&u.PasswordResetExpiresAt,
		&u.Active,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Log.Error("Ошибка получения пользователя (repo)", zap.Error(err))
		return nil, apperr.Persistence("select user", err)
	}
	if email != nil {
		u.Email = *email
	}
	return &u, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Delete деактивирует пользователя; выданные ему токены перестают проходить guard.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		logger.Log.Error("Ошибка удаления пользователя (repo)", zap.Int64("user_id", id), zap.Error(err))
		return apperr.Persistence("deactivate user", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
