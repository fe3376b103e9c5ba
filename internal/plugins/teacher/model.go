// Package teacher implements the teacher side of KindMind: unlocking the
// dashboard with the single shared teacher credential, rotating that
// credential, managing the AI provider API key, and resetting student
// passwords. The teacher is not an account -- access is a short-lived
// unlock token issued against one shared secret.
package teacher

import "time"

// Settings keys in the settings key-value table.
const (
	// KeyPasswordHash stores the argon2id hash of the shared teacher
	// credential. Lazily initialized to the configured default on the
	// first verification ever performed.
	KeyPasswordHash = "teacher.password_hash"

	// KeyProviderAPIKey stores the generative-language provider API key.
	// Conceptually a separate namespace from the rest of the settings;
	// never returned by any API response.
	KeyProviderAPIKey = "coach.api_key"
)

// Unlock represents an active teacher unlock stored in Redis. The unlock
// token is the key, and this struct is the value (JSON-encoded).
type Unlock struct {
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Student is the roster view of an account, with credential data stripped.
type Student struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// --- Request DTOs ---

// VerifyRequest holds the password submitted to unlock teacher access.
type VerifyRequest struct {
	Password string `json:"password" form:"password"`
}

// ChangePasswordRequest holds the old and new teacher passwords.
type ChangePasswordRequest struct {
	Old string `json:"old" form:"old"`
	New string `json:"new" form:"new"`
}

// ResetStudentRequest names the student whose password is reset.
type ResetStudentRequest struct {
	Name string `json:"name" form:"name"`
}

// CredentialRequest holds a candidate provider API key.
type CredentialRequest struct {
	APIKey string `json:"api_key" form:"api_key"`
}
