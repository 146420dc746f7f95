package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessionauth/internal/apperr"
	"sessionauth/internal/clock"
	"sessionauth/internal/models"
	"sessionauth/internal/utils"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var selectColumns = []string{
	"id", "name", "email", "password_hash", "password_changed_at",
	"password_reset_token_hash", "password_reset_expires_at", "active", "created_at",
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository, *clock.Manual) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)

	clk := clock.NewManual(epoch)
	return mock, NewUserRepository(mock, clk), clk
}

func strPtr(s string) *string { return &s }

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		user      *models.User
		setupMock func(mock pgxmock.PgxPoolIface)
		wantKind  apperr.Kind
		wantErr   bool
	}{
		{
			name: "inserts hashed user",
			user: newUser("A", "A@x.com", "secret123", "secret123"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("A", strPtr("a@x.com"), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"id", "active", "created_at"}).
						AddRow(int64(7), true, epoch))
			},
		},
		{
			name: "duplicate email becomes validation error",
			user: newUser("A", "a@x.com", "secret123", "secret123"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr:  true,
			wantKind: apperr.KindValidation,
		},
		{
			name: "driver error becomes persistence error",
			user: newUser("A", "a@x.com", "secret123", "secret123"),
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr:  true,
			wantKind: apperr.KindPersistence,
		},
		{
			name:      "mismatched confirmation never reaches the database",
			user:      newUser("A", "a@x.com", "secret123", "nope"),
			setupMock: func(mock pgxmock.PgxPoolIface) {},
			wantErr:   true,
			wantKind:  apperr.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo, _ := newMockRepo(t)
			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.user)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), tt.user.ID)
				assert.True(t, tt.user.Active)
				assert.True(t, utils.CheckPasswordHash("secret123", tt.user.PasswordHash))
				assert.Empty(t, tt.user.Password)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	t.Run("found with hash", func(t *testing.T) {
		mock, repo, _ := newMockRepo(t)
		mock.ExpectQuery(`FROM users WHERE email = \$1 AND active`).
			WithArgs("a@x.com").
			WillReturnRows(pgxmock.NewRows(selectColumns).
				AddRow(int64(1), "A", strPtr("a@x.com"), "hash", nil, nil, nil, true, epoch))

		u, err := repo.FindByEmail(context.Background(), " A@x.com", true)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, "a@x.com", u.Email)
		assert.Equal(t, "hash", u.PasswordHash)
		assert.Nil(t, u.PasswordChangedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("hash stripped when not requested", func(t *testing.T) {
		mock, repo, _ := newMockRepo(t)
		mock.ExpectQuery(`FROM users WHERE email`).
			WillReturnRows(pgxmock.NewRows(selectColumns).
				AddRow(int64(1), "A", strPtr("a@x.com"), "hash", nil, nil, nil, true, epoch))

		u, err := repo.FindByEmail(context.Background(), "a@x.com", false)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Empty(t, u.PasswordHash)
	})

	t.Run("not found is nil without error", func(t *testing.T) {
		mock, repo, _ := newMockRepo(t)
		mock.ExpectQuery(`FROM users WHERE email`).
			WillReturnRows(pgxmock.NewRows(selectColumns))

		u, err := repo.FindByEmail(context.Background(), "b@x.com", true)
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("driver error", func(t *testing.T) {
		mock, repo, _ := newMockRepo(t)
		mock.ExpectQuery(`FROM users WHERE email`).
			WillReturnError(errors.New("connection reset"))

		u, err := repo.FindByEmail(context.Background(), "b@x.com", true)
		assert.Nil(t, u)
		assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	})
}

func TestUserRepository_FindByID(t *testing.T) {
	mock, repo, _ := newMockRepo(t)
	changed := epoch.Add(time.Hour)
	mock.ExpectQuery(`FROM users WHERE id = \$1 AND active`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(selectColumns).
			AddRow(int64(3), "C", nil, "hash", &changed, nil, nil, true, epoch))

	u, err := repo.FindByID(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Empty(t, u.Email)
	require.NotNil(t, u.PasswordChangedAt)
	assert.True(t, u.PasswordChangedAt.Equal(changed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByResetTokenHash(t *testing.T) {
	mock, repo, _ := newMockRepo(t)
	now := epoch.Add(time.Minute)
	expires := epoch.Add(10 * time.Minute)
	mock.ExpectQuery(`password_reset_token_hash = \$1\s+AND password_reset_expires_at > \$2`).
		WithArgs("digest", now).
		WillReturnRows(pgxmock.NewRows(selectColumns).
			AddRow(int64(1), "A", strPtr("a@x.com"), "hash", nil, strPtr("digest"), &expires, true, epoch))

	u, err := repo.FindByResetTokenHash(context.Background(), "digest", now)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotNil(t, u.PasswordResetTokenHash)
	assert.Equal(t, "digest", *u.PasswordResetTokenHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Save(t *testing.T) {
	t.Run("password change stamps password_changed_at", func(t *testing.T) {
		mock, repo, clk := newMockRepo(t)
		clk.Advance(time.Hour)
		changedAt := clk.Now()

		u := &models.User{ID: 1, Name: "A", Email: "a@x.com", Active: true}
		u.SetPassword("newsecret1", "newsecret1")

		mock.ExpectExec(`UPDATE users SET`).
			WithArgs(int64(1), "A", strPtr("a@x.com"), pgxmock.AnyArg(), &changedAt,
				(*string)(nil), (*time.Time)(nil), true).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.Save(context.Background(), u, models.SaveOptions{}))
		require.NotNil(t, u.PasswordChangedAt)
		assert.True(t, u.PasswordChangedAt.Equal(changedAt))
		assert.True(t, utils.CheckPasswordHash("newsecret1", u.PasswordHash))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock, repo, _ := newMockRepo(t)
		mock.ExpectExec(`UPDATE users SET`).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Save(context.Background(), &models.User{ID: 9, Name: "A"}, models.SaveOptions{SkipValidation: true})
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	})

	t.Run("validation failure skips the update", func(t *testing.T) {
		mock, repo, _ := newMockRepo(t)
		u := &models.User{ID: 1, Name: "A"}
		u.SetPassword("newsecret1", "different1")

		err := repo.Save(context.Background(), u, models.SaveOptions{})
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Delete(t *testing.T) {
	mock, repo, _ := newMockRepo(t)
	mock.ExpectExec(`UPDATE users SET active = FALSE WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users SET active = FALSE`).
		WithArgs(int64(6)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.ErrorIs(t, repo.Delete(context.Background(), 6), ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
