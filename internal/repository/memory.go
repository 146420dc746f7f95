package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"sessionauth/internal/apperr"
	"sessionauth/internal/clock"
	"sessionauth/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// MemoryUserRepository хранит пользователей в памяти процесса (STORAGE=memory).
// Наружу всегда отдаются копии.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	clock   clock.Clock
	nextID  int64
	users   map[int64]*models.User
	byEmail map[string]int64
}

func NewMemoryUserRepository(clk clock.Clock) *MemoryUserRepository {
	return &MemoryUserRepository{
		clock:   clk,
		users:   make(map[int64]*models.User),
		byEmail: make(map[string]int64),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	now := r.clock.Now()
	if err := prepare(user, models.SaveOptions{}, now, true); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if user.Email != "" {
		if _, taken := r.byEmail[user.Email]; taken {
			return apperr.Validation("email already in use")
		}
	}

	r.nextID++
	user.ID = r.nextID
	user.Active = true
	user.CreatedAt = now

	r.users[user.ID] = user.Clone()
	if user.Email != "" {
		r.byEmail[user.Email] = user.ID
	}
	return nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string, includePasswordHash bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	u := r.activeCopy(id)
	if u != nil && !includePasswordHash {
		u.PasswordHash = ""
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeCopy(id), nil
}

func (r *MemoryUserRepository) FindByResetTokenHash(_ context.Context, hash string, now time.Time) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, u := range r.users {
		if !u.Active || u.PasswordResetTokenHash == nil || u.PasswordResetExpiresAt == nil {
			continue
		}
		if *u.PasswordResetTokenHash == hash && u.PasswordResetExpiresAt.After(now) {
			return r.activeCopy(id), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) Save(_ context.Context, user *models.User, opts models.SaveOptions) error {
	if err := prepare(user, opts, r.clock.Now(), false); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return apperr.Persistence("update user", ErrUserNotFound)
	}
	if user.Email != "" {
		if owner, taken := r.byEmail[user.Email]; taken && owner != user.ID {
			return apperr.Validation("email already in use")
		}
	}

	next := user.Clone()
	if next.PasswordHash == "" {
		next.PasswordHash = stored.PasswordHash
	}
	next.CreatedAt = stored.CreatedAt

	if stored.Email != "" {
		delete(r.byEmail, stored.Email)
	}
	if next.Email != "" {
		r.byEmail[next.Email] = next.ID
	}
	r.users[next.ID] = next
	return nil
}

// Delete помечает пользователя неактивным; поиск его больше не находит.
func (r *MemoryUserRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.Active = false
	return nil
}

func (r *MemoryUserRepository) activeCopy(id int64) *models.User {
	u, ok := r.users[id]
	if !ok || !u.Active {
		return nil
	}
	return u.Clone()
}
