package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/AccountsGo/internal/domain"
	"github.com/utafrali/AccountsGo/internal/repository"
	"github.com/utafrali/AccountsGo/pkg/database"
	apperrors "github.com/utafrali/AccountsGo/pkg/errors"
)

const accountColumns = `id, role, full_name, email, password_hash, profile_picture, is_verified, status,
		one_time_code, code_expires_at, is_deleted, deleted_at, deleted_by, created_at, updated_at`

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool database.DBTX
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(pool database.DBTX) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account into the database.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, role, full_name, email, password_hash, profile_picture, is_verified, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Role,
		a.FullName,
		a.Email,
		a.PasswordHash,
		a.ProfilePicture,
		a.IsVerified,
		a.Status,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID. Soft-deleted rows are invisible.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1 AND is_deleted = false`

	return r.scanAccount(ctx, query, id)
}

// GetByEmail retrieves an account by its email address. Soft-deleted rows are
// invisible, so a deleted account's email can be registered again.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1 AND is_deleted = false`

	return r.scanAccount(ctx, query, email)
}

// Update modifies an account's profile fields.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	a.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE accounts
		SET role = $1, full_name = $2, email = $3, profile_picture = $4, is_verified = $5, status = $6, updated_at = $7
		WHERE id = $8 AND is_deleted = false`

	ct, err := r.pool.Exec(ctx, query,
		a.Role,
		a.FullName,
		a.Email,
		a.ProfilePicture,
		a.IsVerified,
		a.Status,
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("account", "email", a.Email)
		}
		return fmt.Errorf("update account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", a.ID)
	}

	return nil
}

// SetOneTimeCode stores a one-time code and its expiry, replacing any previous code.
func (r *AccountRepository) SetOneTimeCode(ctx context.Context, id, code string, expiresAt time.Time) error {
	query := `
		UPDATE accounts
		SET one_time_code = $1, code_expires_at = $2, updated_at = $3
		WHERE id = $4 AND is_deleted = false`

	ct, err := r.pool.Exec(ctx, query, code, expiresAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set one-time code: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", id)
	}

	return nil
}

// MarkVerified flips the account to verified and consumes the stored one-time
// code in the same statement.
func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET is_verified = true, one_time_code = NULL, code_expires_at = NULL, updated_at = $1
		WHERE id = $2 AND is_deleted = false`

	ct, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark account verified: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", id)
	}

	return nil
}

// UpdatePassword replaces the password hash and consumes the stored one-time
// code in the same statement.
func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $1, one_time_code = NULL, code_expires_at = NULL, updated_at = $2
		WHERE id = $3 AND is_deleted = false`

	ct, err := r.pool.Exec(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", id)
	}

	return nil
}

// SetStatus sets the account status.
func (r *AccountRepository) SetStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE accounts
		SET status = $1, updated_at = $2
		WHERE id = $3 AND is_deleted = false`

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set account status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", id)
	}

	return nil
}

// SoftDelete marks the account deleted. The row is retained for audit but
// excluded from every other operation.
func (r *AccountRepository) SoftDelete(ctx context.Context, id, deletedBy string) error {
	now := time.Now().UTC()
	query := `
		UPDATE accounts
		SET is_deleted = true, deleted_at = $1, deleted_by = $2, updated_at = $1
		WHERE id = $3 AND is_deleted = false`

	ct, err := r.pool.Exec(ctx, query, now, deletedBy, id)
	if err != nil {
		return fmt.Errorf("soft-delete account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", id)
	}

	return nil
}

// List returns a page of accounts matching the filter plus the total match count.
func (r *AccountRepository) List(ctx context.Context, filter repository.ListFilter) ([]domain.Account, int, error) {
	where := []string{"is_deleted = false"}
	args := []any{}
	arg := 1

	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", arg, arg))
		args = append(args, "%"+filter.Search+"%")
		arg++
	}
	if filter.Role != "" {
		where = append(where, fmt.Sprintf("role = $%d", arg))
		args = append(args, filter.Role)
		arg++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", arg))
		args = append(args, filter.Status)
		arg++
	}
	if filter.CreatedAfter != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", arg))
		args = append(args, *filter.CreatedAfter)
		arg++
	}
	if filter.CreatedBefore != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", arg))
		args = append(args, *filter.CreatedBefore)
		arg++
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM accounts WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, arg, arg+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var a domain.Account
		if err := scanAccountFields(rows, &a); err != nil {
			return nil, 0, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate account rows: %w", err)
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}

	return accounts, total, nil
}

// scanAccount is a helper that executes a query expected to return a single account row.
func (r *AccountRepository) scanAccount(ctx context.Context, query string, args ...any) (*domain.Account, error) {
	var a domain.Account

	err := scanAccountFields(r.pool.QueryRow(ctx, query, args...), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &a, nil
}

func scanAccountFields(row pgx.Row, a *domain.Account) error {
	return row.Scan(
		&a.ID,
		&a.Role,
		&a.FullName,
		&a.Email,
		&a.PasswordHash,
		&a.ProfilePicture,
		&a.IsVerified,
		&a.Status,
		&a.OneTimeCode,
		&a.CodeExpiresAt,
		&a.IsDeleted,
		&a.DeletedAt,
		&a.DeletedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
