package auth

import (
	"context"
	"time"
)

// Store describes the persistence the auth core depends on. The core only
// reads and updates what it needs; account rows are owned elsewhere.
type Store interface {
	Users(ctx context.Context) UserStore
	ResetTokens(ctx context.Context) ResetTokenStore
}

// UserStore is the keyed account lookup surface.
type UserStore interface {
	Create(ctx context.Context, a *Account) error
	Find(ctx context.Context, id string) (*Account, error)
	// FindByEmail looks up by normalized email. Returns ErrNotFound when the
	// email is unknown.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// ResetTokenStore manages single-use password reset tokens.
type ResetTokenStore interface {
	Create(ctx context.Context, t *ResetToken) error
	// FindByToken looks up by the exact opaque token value. Returns
	// ErrNotFound when absent.
	FindByToken(ctx context.Context, token string) (*ResetToken, error)
	// Consume marks the token used and rewrites the owning account's password
	// hash in one transaction. The token row is re-checked inside the
	// transaction; when a concurrent consumer already won, or the token
	// expired meanwhile, ErrResetTokenExpiredOrUsed is returned and the
	// password is left untouched.
	Consume(ctx context.Context, tokenID, userID, passwordHash string, at time.Time) error
}
