package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for every login failure regardless of
	// which check failed, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrInvalidToken is the generic verification failure surfaced at the
	// boundary ("invalid or expired token").
	ErrInvalidToken = errors.New("auth: invalid or expired token")

	ErrTokenMalformed   = errors.New("auth: token malformed")
	ErrSignatureInvalid = errors.New("auth: token signature invalid")
	ErrTokenExpired     = errors.New("auth: token expired")

	ErrResetTokenNotFound = errors.New("auth: password reset token not found")
	// ErrResetTokenExpiredOrUsed covers both the expired and the already
	// consumed case; the two are indistinguishable to the caller.
	ErrResetTokenExpiredOrUsed = errors.New("auth: password reset token expired or already used")
	ErrPasswordMismatch        = errors.New("auth: new password and confirmation do not match")

	ErrNotFound      = errors.New("auth: not found")
	ErrAlreadyExists = errors.New("auth: already exists")
)
