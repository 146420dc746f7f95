package models

import "time"

type User struct {
	ID                     int64      `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email,omitempty"`
	PasswordHash           string     `json:"-"`
	PasswordChangedAt      *time.Time `json:"-"`
	PasswordResetTokenHash *string    `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`
	Active                 bool       `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`

	// Password и PasswordConfirm живут только до сохранения: репозиторий
	// проверяет совпадение, хеширует и обнуляет их.
	Password        string `json:"-"`
	PasswordConfirm string `json:"-"`
}

// UserView — то, что уходит клиенту.
type UserView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SaveOptions управляет частичным сохранением пользователя.
type SaveOptions struct {
	SkipValidation bool
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

func (u *User) SetPassword(password, confirm string) {
	u.Password = password
	u.PasswordConfirm = confirm
}

// ChangedPasswordAfter сравнивает с точностью до секунды, как и iat в токене.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

func (u *User) SetResetToken(hash string, expiresAt time.Time) {
	u.PasswordResetTokenHash = &hash
	u.PasswordResetExpiresAt = &expiresAt
}

func (u *User) ClearResetToken() {
	u.PasswordResetTokenHash = nil
	u.PasswordResetExpiresAt = nil
}

// Clone копирует пользователя вместе с указателями.
func (u *User) Clone() *User {
	c := *u
	if u.PasswordChangedAt != nil {
		t := *u.PasswordChangedAt
		c.PasswordChangedAt = &t
	}
	if u.PasswordResetTokenHash != nil {
		h := *u.PasswordResetTokenHash
		c.PasswordResetTokenHash = &h
	}
	if u.PasswordResetExpiresAt != nil {
		t := *u.PasswordResetExpiresAt
		c.PasswordResetExpiresAt = &t
	}
	return &c
}
