package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/camelloncase/participa-auth/internal/ids"
)

// ForgotPassword mints a single-use reset token for the account behind the
// email and reports whether a token was actually created. An unknown email
// returns (false, nil) with no row created, so callers cannot probe which
// addresses exist; only the created flag may feed internal accounting, never
// the response. Delivery of the raw token is out of scope.
func (s *Service) ForgotPassword(ctx context.Context, email string) (bool, error) {
	account, err := s.store.Users(ctx).FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	now := s.now().UTC()
	token := &ResetToken{
		ID:        ids.New(),
		Token:     uuid.NewString(),
		UserID:    account.ID,
		ExpiresAt: now.Add(s.resetTTL),
		CreatedAt: now,
	}
	if err := s.store.ResetTokens(ctx).Create(ctx, token); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword consumes a reset token exactly once and rewrites the owning
// account's password. The expired and already-used cases are reported as the
// same error; the confirmation mismatch is checked only after those.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	tokens := s.store.ResetTokens(ctx)
	record, err := tokens.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrResetTokenNotFound
		}
		return err
	}
	now := s.now().UTC()
	if record.Expired(now) || record.Used() {
		return ErrResetTokenExpiredOrUsed
	}
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	// The store re-checks the token under its transaction; if a concurrent
	// consume won the race, this surfaces ErrResetTokenExpiredOrUsed and the
	// password stays unchanged.
	return tokens.Consume(ctx, record.ID, record.UserID, hash, now)
}
