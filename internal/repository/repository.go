package repository

import (
	"context"
	"time"

	"github.com/utafrali/AccountsGo/internal/domain"
)

// ListFilter narrows an account listing. Zero values mean "no filter".
type ListFilter struct {
	Search        string // matches full name or email, case-insensitive
	Role          string
	Status        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// AccountRepository defines the interface for account persistence operations.
// All lookups exclude soft-deleted rows.
type AccountRepository interface {
	// Create inserts a new account into the store.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Account, error)

	// GetByEmail retrieves an account by its email address.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// Update modifies an account's profile fields (full name, email,
	// profile picture, role, status).
	Update(ctx context.Context, account *domain.Account) error

	// SetOneTimeCode stores a one-time code and its expiry on the account,
	// replacing any previous code.
	SetOneTimeCode(ctx context.Context, id, code string, expiresAt time.Time) error

	// MarkVerified flips the account to verified and clears the stored
	// one-time code in the same statement.
	MarkVerified(ctx context.Context, id string) error

	// UpdatePassword replaces the password hash and clears the stored
	// one-time code in the same statement.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetStatus sets the account status (ACTIVE or INACTIVE).
	SetStatus(ctx context.Context, id, status string) error

	// SoftDelete marks the account deleted, recording when and by whom.
	// The row is retained but excluded from every other operation.
	SoftDelete(ctx context.Context, id, deletedBy string) error

	// List returns a page of accounts matching the filter plus the total
	// match count.
	List(ctx context.Context, filter ListFilter) ([]domain.Account, int, error)
}
