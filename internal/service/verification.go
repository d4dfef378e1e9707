package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/utafrali/AccountsGo/internal/auth"
	"github.com/utafrali/AccountsGo/internal/domain"
	"github.com/utafrali/AccountsGo/internal/mail"
	apperrors "github.com/utafrali/AccountsGo/pkg/errors"
)

// verificationFlow selects the TTL, mail template, and consumption mutation of
// a verification round.
type verificationFlow int

const (
	flowSignup verificationFlow = iota
	flowReset
)

// VerifyResult is the outcome of consuming a signup-verification code.
type VerifyResult struct {
	AlreadyVerified bool `json:"already_verified"`
}

var (
	errCodeInvalid = apperrors.InvalidInput("invalid verification code")
	errCodeExpired = apperrors.InvalidInput("verification code expired, please request a new one")
)

// VerifyAccount consumes a signup-verification token for the given account.
// Re-verifying an already-verified account is a no-op reported in the result.
func (s *AccountService) VerifyAccount(ctx context.Context, accountID, token string) (*VerifyResult, error) {
	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errCodeInvalid
		}
		return nil, fmt.Errorf("get account for verification: %w", err)
	}

	if account.IsVerified {
		return &VerifyResult{AlreadyVerified: true}, nil
	}

	if err := s.checkVerificationToken(account, token); err != nil {
		return nil, err
	}

	if err := s.repo.MarkVerified(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("mark account verified: %w", err)
	}

	if err := s.producer.PublishAccountVerified(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.verified event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account verified",
		slog.String("account_id", account.ID),
	)

	return &VerifyResult{}, nil
}

// RequestPasswordReset starts the reset flow for the given email. The outcome
// is identical whether or not the email exists, to avoid account enumeration.
// Each request issues a fresh code, invalidating any prior pending reset.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email",
				slog.String("email", email),
			)
			return nil
		}
		return fmt.Errorf("get account for password reset: %w", err)
	}

	if err := s.startVerification(ctx, account, flowReset); err != nil {
		return fmt.Errorf("start password reset: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("account_id", account.ID),
	)

	return nil
}

// ResetPassword consumes a reset token and replaces the account's password.
// The stored one-time code is cleared in the same statement as the hash
// replacement, so a consumed code can never validate again.
func (s *AccountService) ResetPassword(ctx context.Context, accountID, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return errCodeInvalid
		}
		return fmt.Errorf("get account for password reset: %w", err)
	}

	if err := s.checkVerificationToken(account, token); err != nil {
		return err
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.producer.PublishAccountPasswordReset(ctx, account.ID, account.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.password_reset event",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("account_id", account.ID),
	)

	return nil
}

// ChangePassword replaces the password for the account with the given email
// without any prior check. Exposed unauthenticated for parity with the
// upstream API surface.
func (s *AccountService) ChangePassword(ctx context.Context, email, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidInput("unable to change password")
		}
		return fmt.Errorf("get account for password change: %w", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("account_id", account.ID),
	)

	return nil
}

// --- Flow mechanics ---

// startVerification generates a one-time code, stores it on the account with
// the flow's TTL, wraps it in a signed token, and mails the composite link.
// Mail delivery failure is logged, never rolled back.
func (s *AccountService) startVerification(ctx context.Context, account *domain.Account, flow verificationFlow) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate one-time code: %w", err)
	}

	ttl := s.cfg.SignupCodeTTL
	if flow == flowReset {
		ttl = s.cfg.ResetCodeTTL
	}

	expiresAt := time.Now().UTC().Add(ttl)
	if err := s.repo.SetOneTimeCode(ctx, account.ID, code, expiresAt); err != nil {
		return fmt.Errorf("store one-time code: %w", err)
	}

	token, err := s.codec.IssueVerificationToken(account.ID, code, ttl)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	data := mail.VerificationData{
		FullName: account.FullName,
		Code:     code,
		ValidFor: formatTTL(ttl),
	}

	var msg *mail.Message
	switch flow {
	case flowReset:
		data.Link = fmt.Sprintf("%s/api/v1/auth/reset-password/%s/%s", s.cfg.VerifyBaseURL, account.ID, token)
		msg, err = mail.NewPasswordResetMessage(account.Email, data)
	default:
		data.Link = fmt.Sprintf("%s/api/v1/auth/verify/%s/%s", s.cfg.VerifyBaseURL, account.ID, token)
		msg, err = mail.NewVerificationMessage(account.Email, data)
	}
	if err != nil {
		return err
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			slog.String("account_id", account.ID),
			slog.String("mailer", s.mailer.Name()),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// sendInvite mails the generated password plus a verification link to an
// admin-created account.
func (s *AccountService) sendInvite(ctx context.Context, account *domain.Account, password string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate one-time code: %w", err)
	}

	expiresAt := time.Now().UTC().Add(s.cfg.SignupCodeTTL)
	if err := s.repo.SetOneTimeCode(ctx, account.ID, code, expiresAt); err != nil {
		return fmt.Errorf("store one-time code: %w", err)
	}

	token, err := s.codec.IssueVerificationToken(account.ID, code, s.cfg.SignupCodeTTL)
	if err != nil {
		return fmt.Errorf("issue verification token: %w", err)
	}

	msg, err := mail.NewInviteMessage(account.Email, mail.InviteData{
		FullName: account.FullName,
		Email:    account.Email,
		Password: password,
		Link:     fmt.Sprintf("%s/api/v1/auth/verify/%s/%s", s.cfg.VerifyBaseURL, account.ID, token),
	})
	if err != nil {
		return err
	}

	return s.mailer.Send(ctx, msg)
}

// checkVerificationToken decodes the token and cross-checks the embedded code
// against the code stored on the freshly loaded account. Both must agree.
func (s *AccountService) checkVerificationToken(account *domain.Account, token string) error {
	claims, err := s.codec.ValidateVerificationToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return errCodeExpired
		}
		return errCodeInvalid
	}

	if claims.AccountID != account.ID {
		return errCodeInvalid
	}

	if account.OneTimeCode == nil || *account.OneTimeCode != claims.Code {
		return errCodeInvalid
	}

	if account.CodeExpiresAt != nil && time.Now().UTC().After(*account.CodeExpiresAt) {
		return errCodeExpired
	}

	return nil
}

// generateCode produces a 4-digit one-time code uniformly in [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}

const passwordLength = 9

const passwordCharset = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generatePassword produces a random temporary password that satisfies
// validatePassword.
func generatePassword() (string, error) {
	buf := make([]byte, passwordLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", err
		}
		buf[i] = passwordCharset[n.Int64()]
	}

	// Pin one character of each required class so complexity always holds.
	buf[0] = 'a' + byte(buf[0]%26)
	buf[1] = 'A' + byte(buf[1]%26)
	buf[2] = '2' + byte(buf[2]%8)

	return string(buf), nil
}

func formatTTL(ttl time.Duration) string {
	if ttl >= time.Hour {
		return fmt.Sprintf("%d hours", int(ttl.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
}
