package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Validation failure kinds. Callers must distinguish them: an expired token
// produces a re-login prompt while a malformed one gets a generic rejection.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrMissingSecret  = errors.New("signing secret is not configured")
)

// SessionClaims are the JWT claims carried by a session token.
type SessionClaims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// VerificationClaims are the JWT claims carried by a verification token.
// The embedded one-time code is cross-checked against the copy stored on
// the account, so the token alone is never sufficient.
type VerificationClaims struct {
	AccountID string `json:"account_id"`
	Code      string `json:"code"`
	jwt.RegisteredClaims
}

// TokenCodec signs and validates session and verification tokens with a
// process-wide HMAC secret loaded once at startup.
type TokenCodec struct {
	secret     []byte
	sessionTTL time.Duration
}

// NewTokenCodec creates a token codec. An empty secret is a configuration
// error; callers treat it as fatal at boot.
func NewTokenCodec(secret string, sessionTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	return &TokenCodec{
		secret:     []byte(secret),
		sessionTTL: sessionTTL,
	}, nil
}

// IssueSessionToken creates a signed session token bound to the account and
// its role. The token carries a unique jti so it can be revoked by id.
func (c *TokenCodec) IssueSessionToken(accountID, role string) (string, error) {
	now := time.Now().UTC()
	claims := &SessionClaims{
		AccountID: accountID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.sessionTTL)),
			Issuer:    "accounts-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// IssueVerificationToken creates a signed token embedding the one-time code,
// valid for the given flow-specific ttl.
func (c *TokenCodec) IssueVerificationToken(accountID, code string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &VerificationClaims{
		AccountID: accountID,
		Code:      code,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "accounts-service",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign verification token: %w", err)
	}

	return signed, nil
}

// ValidateSessionToken parses and validates a session token, returning the
// claims, ErrTokenExpired, or ErrTokenMalformed.
func (c *TokenCodec) ValidateSessionToken(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := c.parse(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateVerificationToken parses and validates a verification token,
// returning the claims, ErrTokenExpired, or ErrTokenMalformed.
func (c *TokenCodec) ValidateVerificationToken(raw string) (*VerificationClaims, error) {
	claims := &VerificationClaims{}
	if err := c.parse(raw, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *TokenCodec) parse(raw string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenMalformed
	}

	if !token.Valid {
		return ErrTokenMalformed
	}

	return nil
}
