package teacher

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kindmind/kindmind/internal/apperror"
	"github.com/kindmind/kindmind/internal/plugins/auth"
	"github.com/kindmind/kindmind/internal/plugins/coach"
)

// unlockKeyPrefix is the Redis key prefix for teacher unlock tokens.
const unlockKeyPrefix = "teacher:"

// unlockTokenBytes is the number of random bytes in an unlock token.
const unlockTokenBytes = 32

// StudentDirectory is the slice of the auth plugin the teacher plugin
// needs: the roster and the password reset. Implemented by an adapter in
// student_directory.go so teacher code never touches auth types directly.
type StudentDirectory interface {
	ListStudents(ctx context.Context) ([]Student, error)
	ResetPassword(ctx context.Context, name string) error
}

// TeacherService defines the business logic contract for teacher access.
type TeacherService interface {
	// VerifyAccess checks the password against the stored teacher
	// credential, lazily initializing it to the configured default on the
	// very first check. On success it issues a short-lived unlock token.
	VerifyAccess(ctx context.Context, password string) (token string, err error)

	// ValidateUnlock checks an unlock token and returns its data.
	ValidateUnlock(ctx context.Context, token string) (*Unlock, error)

	// DestroyUnlock removes an unlock token (teacher lock/logout). Idempotent.
	DestroyUnlock(ctx context.Context, token string) error

	// ChangePassword rotates the shared teacher credential. Fails with
	// invalid_credentials when old does not verify.
	ChangePassword(ctx context.Context, old, new string) error

	// ResetStudentPassword sets a student's password to the fixed default.
	// Silent no-op for unknown names.
	ResetStudentPassword(ctx context.Context, name string) error

	// ListStudents returns the roster.
	ListStudents(ctx context.Context) ([]Student, error)

	// SetProviderKey validates a candidate API key against the provider
	// and stores it when accepted.
	SetProviderKey(ctx context.Context, candidateKey string) error
}

// teacherService implements TeacherService over the settings store, Redis
// unlock tokens, and the coach gateway (for key validation only).
type teacherService struct {
	repo            SettingsRepository
	students        StudentDirectory
	gateway         coach.Gateway
	redis           *redis.Client
	unlockTTL       time.Duration
	defaultPassword string
}

// NewTeacherService creates a new teacher service with the given dependencies.
func NewTeacherService(
	repo SettingsRepository,
	students StudentDirectory,
	gateway coach.Gateway,
	rdb *redis.Client,
	unlockTTL time.Duration,
	defaultPassword string,
) TeacherService {
	return &teacherService{
		repo:            repo,
		students:        students,
		gateway:         gateway,
		redis:           rdb,
		unlockTTL:       unlockTTL,
		defaultPassword: defaultPassword,
	}
}

// VerifyAccess compares the password against the stored credential hash and
// issues an unlock token on success.
func (s *teacherService) VerifyAccess(ctx context.Context, password string) (string, error) {
	hash, err := s.credentialHash(ctx)
	if err != nil {
		return "", err
	}

	if !auth.VerifyPassword(password, hash) {
		return "", apperror.NewInvalidCredentials("incorrect teacher password")
	}

	token, err := s.createUnlock(ctx)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("creating teacher unlock: %w", err))
	}

	slog.Info("teacher access unlocked")
	return token, nil
}

// ValidateUnlock looks up an unlock token in Redis.
func (s *teacherService) ValidateUnlock(ctx context.Context, token string) (*Unlock, error) {
	data, err := s.redis.Get(ctx, unlockKeyPrefix+token).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewInvalidCredentials("teacher access expired")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading teacher unlock from Redis: %w", err))
	}

	var unlock Unlock
	if err := json.Unmarshal(data, &unlock); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling teacher unlock: %w", err))
	}
	return &unlock, nil
}

// DestroyUnlock removes an unlock token from Redis. Idempotent.
func (s *teacherService) DestroyUnlock(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, unlockKeyPrefix+token).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting teacher unlock: %w", err))
	}
	return nil
}

// ChangePassword verifies the old credential and stores the new hash.
func (s *teacherService) ChangePassword(ctx context.Context, old, new string) error {
	hash, err := s.credentialHash(ctx)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(old, hash) {
		return apperror.NewInvalidCredentials("incorrect teacher password")
	}

	if len(new) < 8 {
		return apperror.NewValidation("new password must be at least 8 characters")
	}

	newHash, err := auth.HashPassword(new)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing teacher password: %w", err))
	}

	if err := s.repo.Set(ctx, KeyPasswordHash, newHash); err != nil {
		return err
	}

	slog.Info("teacher password changed")
	return nil
}

// ResetStudentPassword delegates to the auth plugin via the directory.
func (s *teacherService) ResetStudentPassword(ctx context.Context, name string) error {
	return s.students.ResetPassword(ctx, name)
}

// ListStudents returns the roster.
func (s *teacherService) ListStudents(ctx context.Context) ([]Student, error) {
	return s.students.ListStudents(ctx)
}

// SetProviderKey validates the candidate key against the provider before
// storing it, so a typo never silently breaks every coach call.
func (s *teacherService) SetProviderKey(ctx context.Context, candidateKey string) error {
	if candidateKey == "" {
		return apperror.NewValidation("api_key is required")
	}

	if !s.gateway.ValidateCredential(ctx, candidateKey) {
		return apperror.NewInvalidCredentials("the provider rejected this API key")
	}

	if err := s.repo.Set(ctx, KeyProviderAPIKey, candidateKey); err != nil {
		return err
	}

	slog.Info("provider API key updated")
	return nil
}

// credentialHash loads the stored teacher credential hash, seeding it with
// the default on first read. The lazy initialization means a fresh install
// works before anyone has set a password.
func (s *teacherService) credentialHash(ctx context.Context) (string, error) {
	hash, err := s.repo.Get(ctx, KeyPasswordHash)
	if err == nil {
		return hash, nil
	}

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 404 {
		return "", err
	}

	seeded, err := auth.HashPassword(s.defaultPassword)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("hashing default teacher password: %w", err))
	}
	if err := s.repo.Set(ctx, KeyPasswordHash, seeded); err != nil {
		return "", err
	}

	slog.Info("teacher credential initialized to default")
	return seeded, nil
}

// createUnlock generates a random unlock token and stores it in Redis.
func (s *teacherService) createUnlock(ctx context.Context) (string, error) {
	b := make([]byte, unlockTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating unlock token: %w", err)
	}
	token := hex.EncodeToString(b)

	data, err := json.Marshal(Unlock{UnlockedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshaling unlock: %w", err)
	}

	if err := s.redis.Set(ctx, unlockKeyPrefix+token, data, s.unlockTTL).Err(); err != nil {
		return "", fmt.Errorf("storing unlock in Redis: %w", err)
	}
	return token, nil
}
