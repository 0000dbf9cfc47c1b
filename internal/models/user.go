package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered principal. PasswordHash never leaves the server: it is
// excluded from JSON output.
type User struct {
	ID           uuid.UUID `json:"uid"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"is_verified"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserUpdate lists the fields that may change after signup. Nil fields are
// left untouched.
type UserUpdate struct {
	Verified     *bool
	PasswordHash *string
}

// Apply copies the non-nil fields onto u.
func (f UserUpdate) Apply(u *User) {
	if f.Verified != nil {
		u.Verified = *f.Verified
	}
	if f.PasswordHash != nil {
		u.PasswordHash = *f.PasswordHash
	}
}

// UserWithBooks is returned by the current-user endpoint.
type UserWithBooks struct {
	User
	Books []Book `json:"books"`
}

// Request types

type SignupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	NewPassword        string `json:"new_password"`
	ConfirmNewPassword string `json:"confirm_new_password"`
}
