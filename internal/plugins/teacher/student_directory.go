package teacher

import (
	"context"

	"github.com/kindmind/kindmind/internal/plugins/auth"
)

// StudentDirectoryAdapter wraps the auth plugin to satisfy the
// StudentDirectory interface. This adapter pattern keeps auth types out of
// the rest of the teacher package -- only this file references auth.
type StudentDirectoryAdapter struct {
	repo    auth.AccountRepository
	service auth.AuthService
}

// NewStudentDirectoryAdapter creates a new adapter around the auth plugin.
func NewStudentDirectoryAdapter(repo auth.AccountRepository, service auth.AuthService) StudentDirectory {
	return &StudentDirectoryAdapter{repo: repo, service: service}
}

// ListStudents maps accounts onto the roster view.
func (a *StudentDirectoryAdapter) ListStudents(ctx context.Context) ([]Student, error) {
	accounts, err := a.repo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	students := make([]Student, 0, len(accounts))
	for _, acc := range accounts {
		students = append(students, Student{
			ID:          acc.ID,
			Name:        acc.Name,
			CreatedAt:   acc.CreatedAt,
			LastLoginAt: acc.LastLoginAt,
		})
	}
	return students, nil
}

// ResetPassword delegates to the auth service's default-password reset.
func (a *StudentDirectoryAdapter) ResetPassword(ctx context.Context, name string) error {
	return a.service.ResetPassword(ctx, name)
}
