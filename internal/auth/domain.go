package auth

import (
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Caller projects the user into the identity carried by requests.
func (u User) Caller() shared.Caller {
	return shared.Caller{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// NewUserInput carries the fields needed to provision an account.
type NewUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token with the caller profile.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      shared.Caller `json:"user"`
}
