package auth

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"crypto/rand"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kindmind/kindmind/internal/apperror"
)

// sessionKeyPrefix is the Redis key prefix for session data.
const sessionKeyPrefix = "session:"

// sessionTokenBytes is the number of random bytes in a session token.
// 32 bytes = 256 bits of entropy, hex-encoded to 64 characters.
const sessionTokenBytes = 32

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*Account, error)
	Login(ctx context.Context, input LoginInput) (token string, account *Account, err error)
	ValidateSession(ctx context.Context, token string) (*Session, error)
	DestroySession(ctx context.Context, token string) error

	// ResetPassword sets the named account's password to the configured
	// default. Invoked by the teacher plugin only -- the handler gating
	// lives there. Unknown names are a silent no-op so the endpoint does
	// not confirm which students exist.
	ResetPassword(ctx context.Context, name string) error
}

// authService implements AuthService with argon2id hashing and Redis sessions.
type authService struct {
	repo            AccountRepository
	redis           *redis.Client
	sessionTTL      time.Duration
	defaultPassword string
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo AccountRepository, rdb *redis.Client, sessionTTL time.Duration, defaultPassword string) AuthService {
	return &authService{
		repo:            repo,
		redis:           rdb,
		sessionTTL:      sessionTTL,
		defaultPassword: defaultPassword,
	}
}

// Register creates a new student account. It validates name uniqueness
// case-insensitively, hashes the password with argon2id, and persists the
// account with the casing the student typed.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	name := strings.TrimSpace(input.Name)

	// Check uniqueness before doing expensive hashing.
	exists, err := s.repo.NameExists(ctx, name)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking name: %w", err))
	}
	if exists {
		return nil, apperror.NewDuplicateName("that name is already taken")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	account := &Account{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating account: %w", err))
	}

	slog.Info("student registered",
		slog.String("account_id", account.ID),
		slog.String("name", account.Name),
	)

	return account, nil
}

// Login authenticates a student by name (any casing) and password. On
// success it creates a new session in Redis and returns the session token
// for the cookie.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *Account, error) {
	account, err := s.repo.FindByName(ctx, input.Name)
	if err != nil {
		// Don't reveal whether the name exists -- use a generic message.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return "", nil, apperror.NewInvalidCredentials("invalid name or password")
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding account: %w", err))
	}

	if !VerifyPassword(input.Password, account.PasswordHash) {
		return "", nil, apperror.NewInvalidCredentials("invalid name or password")
	}

	token, err := s.createSession(ctx, account)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	// Update the last login timestamp (fire-and-forget, non-critical).
	if err := s.repo.UpdateLastLogin(ctx, account.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("account_id", account.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("student logged in",
		slog.String("account_id", account.ID),
		slog.String("name", account.Name),
	)

	return token, account, nil
}

// ValidateSession looks up a session token in Redis and returns the session
// data if it exists and hasn't expired.
func (s *authService) ValidateSession(ctx context.Context, token string) (*Session, error) {
	key := sessionKeyPrefix + token

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewInvalidCredentials("session expired or invalid")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading session from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// DestroySession removes a session from Redis, effectively logging the
// student out. Idempotent: destroying an absent session is not an error.
func (s *authService) DestroySession(ctx context.Context, token string) error {
	key := sessionKeyPrefix + token

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting session from Redis: %w", err))
	}

	return nil
}

// ResetPassword sets the named account's password hash to the configured
// default. Unknown names are deliberately a no-op.
func (s *authService) ResetPassword(ctx context.Context, name string) error {
	account, err := s.repo.FindByName(ctx, name)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("finding account: %w", err))
	}

	hash, err := HashPassword(s.defaultPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing default password: %w", err))
	}

	if err := s.repo.UpdatePassword(ctx, account.ID, hash); err != nil {
		return apperror.NewInternal(fmt.Errorf("resetting password: %w", err))
	}

	slog.Info("student password reset",
		slog.String("account_id", account.ID),
		slog.String("name", account.Name),
	)

	return nil
}

// createSession generates a random session token, stores the session data in
// Redis with the configured TTL, and returns the token.
func (s *authService) createSession(ctx context.Context, account *Account) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}

	session := Session{
		AccountID: account.ID,
		Name:      account.Name,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	key := sessionKeyPrefix + token
	if err := s.redis.Set(ctx, key, data, s.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("storing session in Redis: %w", err)
	}

	return token, nil
}

// generateSessionToken creates a cryptographically random hex-encoded token.
func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
