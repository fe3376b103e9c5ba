// Package auth handles student authentication and session management for
// KindMind. It provides signup, login, logout, and session validation via
// random tokens stored in Redis.
package auth

import (
	"time"
)

// Account represents a registered student. This is the domain model used
// throughout the application. Database scanning and JSON marshaling use
// this struct directly.
type Account struct {
	ID string `json:"id"`

	// Name preserves the casing the student typed at signup. Uniqueness
	// and lookup are case-insensitive.
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted by the signup form.
type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new account.
type RegisterInput struct {
	Name     string
	Password string
}

// LoginInput is the validated input for authenticating a student.
type LoginInput struct {
	Name     string
	Password string
}

// --- Session ---

// Session represents an authenticated student session stored in Redis.
// The session token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
