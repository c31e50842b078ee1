package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	UUID         uuid.UUID `json:"id" db:"uuid"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type UserOption func(*User)

func New(name, email, passwordHash string) *User {
	return &User{
		UUID:         uuid.New(),
		Name:         strings.TrimSpace(name),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}
}

// NormalizeEmail email хранится и ищется в нижнем регистре
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func WithName(name string) UserOption {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	return func(u *User) {
		u.Name = strings.TrimSpace(name)
	}
}

func WithEmail(email string) UserOption {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	return func(u *User) {
		u.Email = NormalizeEmail(email)
	}
}

func WithPasswordHash(hash string) UserOption {
	if hash == "" {
		return nil
	}
	return func(u *User) {
		u.PasswordHash = hash
	}
}

func (u *User) Apply(options ...UserOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(u)
	}
}
