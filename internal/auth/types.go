package auth

import (
	"strings"
	"time"
)

const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusDisabled = "disabled"

	RoleCustomer = "customer"
	RoleAgent    = "agent"
	RoleAdmin    = "admin"
)

// Account is a read-only projection of a stored credential record. The auth
// core reads it to decide token issuance; it never owns the row's lifecycle.
type Account struct {
	ID                  string
	FullName            string
	Email               string
	Phone               string
	PasswordHash        string
	Role                string
	Status              string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Subject returns the identifier embedded into tokens for this account.
func (a *Account) Subject() string {
	return NormalizeEmail(a.Email)
}

// Active reports whether the account may authenticate at all.
func (a *Account) Active() bool {
	return a.Status == StatusActive
}

// Locked reports whether a lock-until timestamp is still in effect.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// Profile is the public projection returned to clients. It never carries the
// password hash.
type Profile struct {
	ID          string     `json:"id"`
	FullName    string     `json:"fullName"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone,omitempty"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Profile builds the client-facing projection of the account.
func (a *Account) Profile() Profile {
	return Profile{
		ID:          a.ID,
		FullName:    a.FullName,
		Email:       a.Email,
		Phone:       a.Phone,
		Role:        a.Role,
		Status:      a.Status,
		LastLoginAt: a.LastLoginAt,
	}
}

// Session is the result of a successful login or refresh.
type Session struct {
	Token       string  `json:"token"`
	TokenType   string  `json:"tokenType"`
	ExpiresInMs int64   `json:"expiresIn"`
	User        Profile `json:"user"`
}

// ResetToken is a persisted single-use password recovery credential. Rows are
// never deleted; consumption sets UsedAt exactly once.
type ResetToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}

// Expired reports whether the token's validity window has passed.
func (t *ResetToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Used reports whether the token was already consumed.
func (t *ResetToken) Used() bool {
	return t.UsedAt != nil
}

// NormalizeEmail lower-cases and trims an email for lookups and subject
// comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
