package teacher

import (
	"context"
	"errors"

	"github.com/kindmind/kindmind/internal/apperror"
)

// CredentialSource resolves the provider API key for the coach gateway.
// A key stored by a teacher through the API takes precedence over the
// optional environment seed. Satisfies coach.CredentialSource.
type CredentialSource struct {
	repo   SettingsRepository
	envKey string
}

// NewCredentialSource creates a credential source over the settings store
// with an optional environment fallback key.
func NewCredentialSource(repo SettingsRepository, envKey string) *CredentialSource {
	return &CredentialSource{repo: repo, envKey: envKey}
}

// APIKey returns the stored provider key, falling back to the environment
// seed. When neither exists, returns the credential_missing error that
// blocks all coach gateway operations.
func (s *CredentialSource) APIKey(ctx context.Context) (string, error) {
	value, err := s.repo.Get(ctx, KeyProviderAPIKey)
	if err == nil && value != "" {
		return value, nil
	}
	if err != nil {
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) || appErr.Code != 404 {
			return "", err
		}
	}

	if s.envKey != "" {
		return s.envKey, nil
	}
	return "", apperror.NewCredentialMissing()
}
