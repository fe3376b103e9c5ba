package teacher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kindmind/kindmind/internal/apperror"
	"github.com/kindmind/kindmind/internal/plugins/auth"
	"github.com/kindmind/kindmind/internal/plugins/coach"
)

// --- Mock Settings Repository ---

// mockSettingsRepo is an in-memory SettingsRepository.
type mockSettingsRepo struct {
	values map[string]string
	getFn  func(ctx context.Context, key string) (string, error)
	setFn  func(ctx context.Context, key, value string) error
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{values: map[string]string{}}
}

func (m *mockSettingsRepo) Get(ctx context.Context, key string) (string, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	value, ok := m.values[key]
	if !ok {
		return "", apperror.NewNotFound("setting not found")
	}
	return value, nil
}

func (m *mockSettingsRepo) Set(ctx context.Context, key, value string) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.values[key] = value
	return nil
}

// --- Mock Student Directory ---

type mockStudentDirectory struct {
	listStudentsFn  func(ctx context.Context) ([]Student, error)
	resetPasswordFn func(ctx context.Context, name string) error
}

func (m *mockStudentDirectory) ListStudents(ctx context.Context) ([]Student, error) {
	if m.listStudentsFn != nil {
		return m.listStudentsFn(ctx)
	}
	return nil, nil
}

func (m *mockStudentDirectory) ResetPassword(ctx context.Context, name string) error {
	if m.resetPasswordFn != nil {
		return m.resetPasswordFn(ctx, name)
	}
	return nil
}

// --- Mock Coach Gateway ---

type mockGateway struct {
	continueFn           func(ctx context.Context, history []coach.Turn) (string, error)
	concludeFn           func(ctx context.Context, history []coach.Turn) (string, error)
	summarizeFn          func(ctx context.Context, history []coach.Turn) (coach.Summary, error)
	classifyMoodFn       func(ctx context.Context, moodText string) coach.Classification
	validateCredentialFn func(ctx context.Context, candidateKey string) bool
}

func (m *mockGateway) Continue(ctx context.Context, history []coach.Turn) (string, error) {
	if m.continueFn != nil {
		return m.continueFn(ctx, history)
	}
	return "", errors.New("not implemented")
}

func (m *mockGateway) Conclude(ctx context.Context, history []coach.Turn) (string, error) {
	if m.concludeFn != nil {
		return m.concludeFn(ctx, history)
	}
	return "", errors.New("not implemented")
}

func (m *mockGateway) Summarize(ctx context.Context, history []coach.Turn) (coach.Summary, error) {
	if m.summarizeFn != nil {
		return m.summarizeFn(ctx, history)
	}
	return coach.Summary{}, errors.New("not implemented")
}

func (m *mockGateway) ClassifyMood(ctx context.Context, moodText string) coach.Classification {
	if m.classifyMoodFn != nil {
		return m.classifyMoodFn(ctx, moodText)
	}
	return coach.DefaultClassification()
}

func (m *mockGateway) ValidateCredential(ctx context.Context, candidateKey string) bool {
	if m.validateCredentialFn != nil {
		return m.validateCredentialFn(ctx, candidateKey)
	}
	return false
}

// --- Test Helpers ---

// newTestTeacherService creates a teacherService without Redis (the unlock
// token round-trip is integration-tested; everything else is unit-testable).
func newTestTeacherService(repo SettingsRepository, students StudentDirectory, gateway coach.Gateway) *teacherService {
	if students == nil {
		students = &mockStudentDirectory{}
	}
	if gateway == nil {
		gateway = &mockGateway{}
	}
	return &teacherService{
		repo:            repo,
		students:        students,
		gateway:         gateway,
		unlockTTL:       time.Hour,
		defaultPassword: "teacher123",
	}
}

func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Credential Initialization Tests ---

func TestCredentialHash_LazyInitOnFirstUse(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := newTestTeacherService(repo, nil, nil)

	hash, err := svc.credentialHash(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The default credential must have been seeded and stored.
	if !auth.VerifyPassword("teacher123", hash) {
		t.Error("expected seeded hash to verify against the default password")
	}
	stored, ok := repo.values[KeyPasswordHash]
	if !ok {
		t.Fatal("expected credential hash to be stored")
	}
	if stored != hash {
		t.Error("expected stored hash to match returned hash")
	}
}

func TestCredentialHash_UsesStoredHash(t *testing.T) {
	existing, err := auth.HashPassword("custom-password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	repo := newMockSettingsRepo()
	repo.values[KeyPasswordHash] = existing

	svc := newTestTeacherService(repo, nil, nil)
	hash, err := svc.credentialHash(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash != existing {
		t.Error("expected stored hash, not a reseeded default")
	}
}

func TestCredentialHash_RepoError(t *testing.T) {
	repo := newMockSettingsRepo()
	repo.getFn = func(ctx context.Context, key string) (string, error) {
		return "", apperror.NewInternal(errors.New("db down"))
	}

	svc := newTestTeacherService(repo, nil, nil)
	_, err := svc.credentialHash(context.Background())
	assertAppError(t, err, 500)
}

// --- ChangePassword Tests ---

func TestChangePassword_Success(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := newTestTeacherService(repo, nil, nil)

	// First use seeds the default, so the default is the old password.
	err := svc.ChangePassword(context.Background(), "teacher123", "a-new-password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := repo.values[KeyPasswordHash]
	if !auth.VerifyPassword("a-new-password", stored) {
		t.Error("expected new password to verify against stored hash")
	}
	if auth.VerifyPassword("teacher123", stored) {
		t.Error("expected old password to no longer verify")
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := newTestTeacherService(repo, nil, nil)

	err := svc.ChangePassword(context.Background(), "not-the-password", "a-new-password")
	assertAppError(t, err, 401)
}

func TestChangePassword_TooShort(t *testing.T) {
	repo := newMockSettingsRepo()
	svc := newTestTeacherService(repo, nil, nil)

	err := svc.ChangePassword(context.Background(), "teacher123", "short")
	assertAppError(t, err, 422)
}

// --- Student Reset Tests ---

func TestResetStudentPassword_Delegates(t *testing.T) {
	var capturedName string
	students := &mockStudentDirectory{
		resetPasswordFn: func(ctx context.Context, name string) error {
			capturedName = name
			return nil
		},
	}

	svc := newTestTeacherService(newMockSettingsRepo(), students, nil)
	if err := svc.ResetStudentPassword(context.Background(), "maya"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedName != "maya" {
		t.Errorf("expected reset for maya, got %s", capturedName)
	}
}

// --- Provider Key Tests ---

func TestSetProviderKey_ValidatesBeforeStoring(t *testing.T) {
	repo := newMockSettingsRepo()
	var validatedKey string
	gateway := &mockGateway{
		validateCredentialFn: func(ctx context.Context, candidateKey string) bool {
			validatedKey = candidateKey
			return true
		},
	}

	svc := newTestTeacherService(repo, nil, gateway)
	if err := svc.SetProviderKey(context.Background(), "good-key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if validatedKey != "good-key" {
		t.Errorf("expected good-key to be validated, got %s", validatedKey)
	}
	if repo.values[KeyProviderAPIKey] != "good-key" {
		t.Error("expected validated key to be stored")
	}
}

func TestSetProviderKey_RejectedKeyNotStored(t *testing.T) {
	repo := newMockSettingsRepo()
	gateway := &mockGateway{
		validateCredentialFn: func(ctx context.Context, candidateKey string) bool {
			return false
		},
	}

	svc := newTestTeacherService(repo, nil, gateway)
	err := svc.SetProviderKey(context.Background(), "bad-key")
	assertAppError(t, err, 401)

	if _, ok := repo.values[KeyProviderAPIKey]; ok {
		t.Error("expected rejected key to not be stored")
	}
}

func TestSetProviderKey_EmptyKey(t *testing.T) {
	svc := newTestTeacherService(newMockSettingsRepo(), nil, nil)
	err := svc.SetProviderKey(context.Background(), "")
	assertAppError(t, err, 422)
}

// --- Credential Source Tests ---

func TestCredentialSource_StoredKeyWins(t *testing.T) {
	repo := newMockSettingsRepo()
	repo.values[KeyProviderAPIKey] = "stored-key"

	src := NewCredentialSource(repo, "env-key")
	key, err := src.APIKey(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "stored-key" {
		t.Errorf("expected stored-key, got %s", key)
	}
}

func TestCredentialSource_EnvFallback(t *testing.T) {
	src := NewCredentialSource(newMockSettingsRepo(), "env-key")
	key, err := src.APIKey(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "env-key" {
		t.Errorf("expected env-key, got %s", key)
	}
}

func TestCredentialSource_Missing(t *testing.T) {
	src := NewCredentialSource(newMockSettingsRepo(), "")
	_, err := src.APIKey(context.Background())
	assertAppError(t, err, 503)

	var appErr *apperror.AppError
	errors.As(err, &appErr)
	if appErr.Type != "credential_missing" {
		t.Errorf("expected credential_missing, got %s", appErr.Type)
	}
}
