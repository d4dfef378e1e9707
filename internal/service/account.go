package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/utafrali/AccountsGo/internal/auth"
	"github.com/utafrali/AccountsGo/internal/domain"
	"github.com/utafrali/AccountsGo/internal/event"
	"github.com/utafrali/AccountsGo/internal/mail"
	"github.com/utafrali/AccountsGo/internal/repository"
	"github.com/utafrali/AccountsGo/internal/session"
	apperrors "github.com/utafrali/AccountsGo/pkg/errors"
	"github.com/utafrali/AccountsGo/pkg/pagination"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// PlatformAdmin is the sign-in platform hint that restricts authentication to
// administrative roles.
const PlatformAdmin = "admin"

// Config holds the tunables of the account service.
type Config struct {
	SessionTTL    time.Duration
	SignupCodeTTL time.Duration
	ResetCodeTTL  time.Duration

	// VerifyBaseURL prefixes the links embedded in verification and
	// password-reset emails, e.g. "https://accounts.example.com".
	VerifyBaseURL string
}

// AccountService implements the business logic for account, auth, and
// verification operations.
type AccountService struct {
	repo     repository.AccountRepository
	codec    *auth.TokenCodec
	mailer   mail.Mailer
	producer *event.Producer
	revoker  session.Revoker
	logger   *slog.Logger
	cfg      Config
}

// NewAccountService creates a new account service.
func NewAccountService(
	repo repository.AccountRepository,
	codec *auth.TokenCodec,
	mailer mail.Mailer,
	producer *event.Producer,
	revoker session.Revoker,
	logger *slog.Logger,
	cfg Config,
) *AccountService {
	return &AccountService{
		repo:     repo,
		codec:    codec,
		mailer:   mailer,
		producer: producer,
		revoker:  revoker,
		logger:   logger,
		cfg:      cfg,
	}
}

// --- Input types ---

// SignUpInput holds the parameters for registering a new account.
type SignUpInput struct {
	FullName string
	Email    string
	Password string
}

// SignInInput holds the parameters for signing in. Platform set to
// PlatformAdmin restricts authentication to administrative roles.
type SignInInput struct {
	Email    string
	Password string
	Platform string
}

// SignInResult is the successful outcome of a sign-in.
type SignInResult struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

// UpdateProfileInput holds the parameters for updating an account's profile.
type UpdateProfileInput struct {
	FullName       *string
	Email          *string
	ProfilePicture *string
}

// --- Auth operations ---

// SignUp creates a new unverified account and starts the signup-verification
// flow. The account cannot sign in until the mailed code is consumed.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*domain.Account, error) {
	if input.FullName == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.New().String(),
		Role:         domain.RoleUser,
		FullName:     input.FullName,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   false,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.startVerification(ctx, account, flowSignup); err != nil {
		// The account exists; the user can request a fresh code later.
		s.logger.ErrorContext(ctx, "failed to start signup verification",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("account_id", account.ID),
		slog.String("email", account.Email),
	)

	return account, nil
}

// SignIn authenticates an account with email and password, returning a
// session token. Rejections stay generic so callers cannot probe which check
// failed.
func (s *AccountService) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get account for sign in: %w", err)
	}

	if input.Platform == PlatformAdmin && !isAdminRole(account.Role) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	if !account.IsVerified {
		return nil, apperrors.Unauthorized("account not verified, please verify your email")
	}

	if account.Status == domain.StatusInactive {
		return nil, apperrors.AccountInactive()
	}

	if !auth.VerifyPassword(input.Password, account.PasswordHash) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.codec.IssueSessionToken(account.ID, account.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.logger.InfoContext(ctx, "account signed in",
		slog.String("account_id", account.ID),
		slog.String("role", account.Role),
	)

	return &SignInResult{
		Token:   "Bearer " + token,
		Account: account,
	}, nil
}

// SignOut revokes the presented session token. With no revocation store
// configured this is a no-op and the token stays valid until expiry.
func (s *AccountService) SignOut(ctx context.Context, accountID, tokenID string) error {
	if tokenID == "" {
		return nil
	}

	if err := s.revoker.Revoke(ctx, tokenID, s.cfg.SessionTTL); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.logger.InfoContext(ctx, "account signed out",
		slog.String("account_id", accountID),
	)

	return nil
}

// CheckPrincipal reloads the account behind a validated session token and
// returns its live role. It rejects revoked tokens, soft-deleted or missing
// accounts, and INACTIVE accounts.
func (s *AccountService) CheckPrincipal(ctx context.Context, accountID, tokenID string) (string, error) {
	if tokenID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, tokenID)
		if err != nil {
			return "", fmt.Errorf("check session revocation: %w", err)
		}
		if revoked {
			return "", apperrors.SessionExpired()
		}
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.Unauthorized("account no longer exists")
		}
		return "", fmt.Errorf("reload principal: %w", err)
	}

	if account.Status == domain.StatusInactive {
		return "", apperrors.AccountInactive()
	}

	return account.Role, nil
}

// --- Profile operations ---

// GetProfile retrieves an account by its ID.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account profile: %w", err)
	}
	return account, nil
}

// UpdateProfile updates an account's own profile fields.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, input UpdateProfileInput) (*domain.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account for update: %w", err)
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, apperrors.InvalidInput("full name must not be empty")
		}
		account.FullName = *input.FullName
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		account.Email = email
	}
	if input.ProfilePicture != nil {
		account.ProfilePicture = *input.ProfilePicture
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	// Publish account updated event (non-blocking on failure).
	if err := s.producer.PublishAccountUpdated(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.updated event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account profile updated",
		slog.String("account_id", account.ID),
	)

	return account, nil
}

// UpdatePassword changes an authenticated account's password after verifying
// the current one.
func (s *AccountService) UpdatePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account for password update: %w", err)
	}

	if !auth.VerifyPassword(currentPassword, account.PasswordHash) {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.InfoContext(ctx, "password updated",
		slog.String("account_id", account.ID),
	)

	return nil
}

// Deactivate sets the account status to INACTIVE. The authorization gate
// rejects every later request carrying this account's tokens, expired or not.
func (s *AccountService) Deactivate(ctx context.Context, accountID string) error {
	if err := s.repo.SetStatus(ctx, accountID, domain.StatusInactive); err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}

	if err := s.producer.PublishAccountDeactivated(ctx, accountID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.deactivated event",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account deactivated",
		slog.String("account_id", accountID),
	)

	return nil
}

// Delete soft-deletes the account, recording the acting principal. The row is
// kept for audit; the email becomes free for re-registration.
func (s *AccountService) Delete(ctx context.Context, accountID, deletedBy string) error {
	if err := s.repo.SoftDelete(ctx, accountID, deletedBy); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if err := s.producer.PublishAccountDeleted(ctx, accountID, deletedBy); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.deleted event",
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account deleted",
		slog.String("account_id", accountID),
		slog.String("deleted_by", deletedBy),
	)

	return nil
}

// --- Admin operations ---

// CreateAccountInput holds the parameters for an admin-created account.
type CreateAccountInput struct {
	FullName string
	Email    string
	Role     string
}

// CreateAccount creates an account on someone's behalf with a generated
// password. The password and a verification link are mailed to the new owner.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if input.FullName == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if !domain.IsValidRole(input.Role) {
		return nil, apperrors.InvalidInput("invalid role")
	}

	password, err := generatePassword()
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash generated password: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:           uuid.New().String(),
		Role:         input.Role,
		FullName:     input.FullName,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   false,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	if err := s.sendInvite(ctx, account, password); err != nil {
		s.logger.ErrorContext(ctx, "failed to send invite email",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishAccountRegistered(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.registered event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account created by admin",
		slog.String("account_id", account.ID),
		slog.String("role", account.Role),
	)

	return account, nil
}

// ListAccountsInput narrows an admin account listing.
type ListAccountsInput struct {
	Search        string
	Role          string
	Status        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ListAccounts returns a page of accounts matching the filter.
func (s *AccountService) ListAccounts(ctx context.Context, input ListAccountsInput, params pagination.Params) (*pagination.Result[domain.Account], error) {
	if input.Status != "" && input.Status != domain.StatusActive && input.Status != domain.StatusInactive {
		return nil, apperrors.InvalidInput("invalid status filter")
	}
	if input.Role != "" && !domain.IsValidRole(input.Role) {
		return nil, apperrors.InvalidInput("invalid role filter")
	}

	accounts, total, err := s.repo.List(ctx, repository.ListFilter{
		Search:        input.Search,
		Role:          input.Role,
		Status:        input.Status,
		CreatedAfter:  input.CreatedAfter,
		CreatedBefore: input.CreatedBefore,
		Limit:         params.PerPage,
		Offset:        params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	result := pagination.NewResult(accounts, total, params)
	return &result, nil
}

// UpdateAccountInput holds the parameters for an admin account update.
type UpdateAccountInput struct {
	FullName       *string
	Email          *string
	Role           *string
	Status         *string
	ProfilePicture *string
}

// UpdateAccount applies an admin update to any account.
func (s *AccountService) UpdateAccount(ctx context.Context, accountID string, input UpdateAccountInput) (*domain.Account, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("get account for admin update: %w", err)
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, apperrors.InvalidInput("full name must not be empty")
		}
		account.FullName = *input.FullName
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		account.Email = email
	}
	if input.Role != nil {
		if !domain.IsValidRole(*input.Role) {
			return nil, apperrors.InvalidInput("invalid role")
		}
		account.Role = *input.Role
	}
	if input.Status != nil {
		if *input.Status != domain.StatusActive && *input.Status != domain.StatusInactive {
			return nil, apperrors.InvalidInput("invalid status")
		}
		account.Status = *input.Status
	}
	if input.ProfilePicture != nil {
		account.ProfilePicture = *input.ProfilePicture
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("admin update account: %w", err)
	}

	if err := s.producer.PublishAccountUpdated(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.updated event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account updated by admin",
		slog.String("account_id", account.ID),
	)

	return account, nil
}

// --- Helpers ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isAdminRole(role string) bool {
	for _, r := range domain.AdminRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
