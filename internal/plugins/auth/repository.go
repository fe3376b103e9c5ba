package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kindmind/kindmind/internal/apperror"
)

// AccountRepository defines the data access contract for student accounts.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)

	// FindByName looks an account up case-insensitively. The returned
	// Account carries the originally stored casing.
	FindByName(ctx context.Context, name string) (*Account, error)

	// NameExists reports whether an account with the given name exists,
	// compared case-insensitively.
	NameExists(ctx context.Context, name string) (bool, error)

	UpdateLastLogin(ctx context.Context, id string) error

	// UpdatePassword sets a new password hash. Used by the teacher-
	// initiated reset.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// ListAccounts returns every student ordered by creation date, for the
	// teacher roster.
	ListAccounts(ctx context.Context) ([]Account, error)
}

// accountRepository implements AccountRepository with hand-written MariaDB queries.
type accountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new account repository backed by the given DB pool.
func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{db: db}
}

// accountColumns is the SELECT column list for account queries.
const accountColumns = `id, name, password_hash, created_at, last_login_at`

// Create inserts a new account row. The name_lower column backs the
// case-insensitive unique constraint.
func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	query := `INSERT INTO accounts (id, name, name_lower, password_hash, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Name,
		strings.ToLower(account.Name),
		account.PasswordHash,
		account.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}

	return nil
}

// FindByID retrieves an account by its UUID.
// Returns apperror.NotFound if no account exists with this ID.
func (r *accountRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by id: %w", err)
	}

	return account, nil
}

// FindByName retrieves an account by name, case-insensitively.
// Returns apperror.NotFound if no account matches.
func (r *accountRepository) FindByName(ctx context.Context, name string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name_lower = ?`

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(name))).Scan(
		&account.ID,
		&account.Name,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying account by name: %w", err)
	}

	return account, nil
}

// NameExists reports whether any account already claims the name,
// compared case-insensitively. Used during signup before hashing.
func (r *accountRepository) NameExists(ctx context.Context, name string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE name_lower = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(name))).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking name existence: %w", err)
	}

	return exists, nil
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given account.
func (r *accountRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE accounts SET last_login_at = NOW() WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// UpdatePassword sets a new password hash for an account.
func (r *accountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE accounts SET password_hash = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("account not found")
	}

	return nil
}

// ListAccounts returns every student ordered by creation date.
// Password hashes are deliberately excluded from this query.
func (r *accountRepository) ListAccounts(ctx context.Context) ([]Account, error) {
	query := `SELECT id, name, created_at, last_login_at
	          FROM accounts ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.LastLoginAt); err != nil {
			return nil, fmt.Errorf("scanning account row: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}
