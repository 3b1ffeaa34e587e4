//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxUserNameLen    = 120
	minPasswordLength = 6
)

// User is an account holder. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"                   db:"id"`
	Email        string    `json:"email"                db:"email"`
	Name         string    `json:"name"                 db:"name"`
	PasswordHash string    `json:"-"                    db:"password_hash"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"           db:"created_at"`
}

// RegisterRequest carries the fields of the sign-up form.
type RegisterRequest struct {
	Email    string
	Name     string
	Password string
	Confirm  string
}

// Validate normalises the email and checks the password pair.
func (r *RegisterRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("enter a valid email address")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxUserNameLen {
		return errors.New("name cannot exceed 120 characters")
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLength {
		return errors.New("password must be at least 6 characters")
	}
	if r.Password != r.Confirm {
		return errors.New("passwords do not match")
	}
	return nil
}

// UpdateProfileRequest carries the profile form. AvatarURL is set when a new avatar was stored.
type UpdateProfileRequest struct {
	Name      string
	AvatarURL *string
}

// Validate checks the display name.
func (r *UpdateProfileRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(r.Name) > maxUserNameLen {
		return errors.New("name cannot exceed 120 characters")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
