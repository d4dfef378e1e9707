package domain

import (
	"time"
)

// Account status values.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Account represents a persisted identity (user or administrator).
//
// PasswordHash, OneTimeCode, and CodeExpiresAt are never serialized outward.
type Account struct {
	ID             string     `json:"id"`
	Role           string     `json:"role"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	IsVerified     bool       `json:"is_verified"`
	Status         string     `json:"status"`
	OneTimeCode    *string    `json:"-"`
	CodeExpiresAt  *time.Time `json:"-"`
	IsDeleted      bool       `json:"-"`
	DeletedAt      *time.Time `json:"-"`
	DeletedBy      *string    `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Active reports whether the account may hold a session: verified by the gate
// after every token check, not cached from the token itself.
func (a *Account) Active() bool {
	return a.Status == StatusActive && !a.IsDeleted
}

// Principal is the authenticated identity attached to a request after the
// authorization gate succeeds.
type Principal struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}
