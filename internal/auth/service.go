package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/camelloncase/participa-auth/internal/ids"
)

const bearerPrefix = "Bearer "

// Service orchestrates credential verification, token issuance and the
// password recovery flow. It holds no mutable state of its own; everything it
// touches lives behind Store.
type Service struct {
	store    Store
	codec    *Codec
	hasher   Hasher
	now      func() time.Time
	resetTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithHasher overrides the password hashing primitive.
func WithHasher(h Hasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithResetTokenTTL configures the password reset token validity window.
func WithResetTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.resetTTL = ttl
		}
	}
}

// NewService constructs the session issuer.
func NewService(store Store, codec *Codec, opts ...ServiceOption) *Service {
	svc := &Service{
		store:    store,
		codec:    codec,
		hasher:   BcryptHasher{},
		now:      time.Now,
		resetTTL: time.Hour,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Login verifies the credentials and mints a fresh bearer token. Every
// failure mode (unknown email, wrong password, disabled or locked account)
// collapses into ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	account, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	now := s.now().UTC()
	if !account.Active() || account.Locked(now) {
		return Session{}, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	session, err := s.issueSession(account, now)
	if err != nil {
		return Session{}, err
	}
	// Best effort; a failed timestamp update must not fail the login.
	_ = s.store.Users(ctx).TouchLastLogin(ctx, account.ID, now)
	return session, nil
}

// Refresh exchanges a still-valid bearer token for a brand-new one. The old
// token is never extended; a fresh token with a fresh TTL is minted after the
// account is re-resolved and re-checked against the presented claims.
func (s *Service) Refresh(ctx context.Context, authHeader string) (Session, error) {
	token, err := ExtractBearerToken(authHeader)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	now := s.now().UTC()
	claims, err := s.codec.Verify(token, now)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	account, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	if !s.tokenValidFor(claims, account, now) {
		return Session{}, ErrInvalidToken
	}
	return s.issueSession(account, now)
}

// Validate is the best-effort check for lower-trust callers: any failure,
// from a parse error to a vanished account, collapses to false.
func (s *Service) Validate(ctx context.Context, token string) bool {
	_, err := s.Authenticate(ctx, token)
	return err == nil
}

// Authenticate verifies a bearer token and resolves it to a live account.
// Used by the inbound request authenticator.
func (s *Service) Authenticate(ctx context.Context, token string) (*Account, error) {
	now := s.now().UTC()
	claims, err := s.codec.Verify(token, now)
	if err != nil {
		return nil, err
	}
	account, err := s.resolveSubject(ctx, claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !s.tokenValidFor(claims, account, now) {
		return nil, ErrInvalidToken
	}
	return account, nil
}

// Register creates a new customer account with a hashed password.
func (s *Service) Register(ctx context.Context, fullName, email, phone, password string) (Profile, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Profile{}, ErrInvalidCredentials
	}
	users := s.store.Users(ctx)
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return Profile{}, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return Profile{}, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Profile{}, err
	}
	account := &Account{
		ID:           ids.New(),
		FullName:     strings.TrimSpace(fullName),
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Role:         RoleCustomer,
		Status:       StatusActive,
	}
	if err := users.Create(ctx, account); err != nil {
		return Profile{}, err
	}
	return account.Profile(), nil
}

// TokenTTL exposes the configured bearer token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.codec.TTL()
}

func (s *Service) issueSession(account *Account, now time.Time) (Session, error) {
	token, err := s.codec.Issue(account.Subject(), []string{account.Role}, now)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:       token,
		TokenType:   "Bearer",
		ExpiresInMs: s.codec.TTL().Milliseconds(),
		User:        account.Profile(),
	}, nil
}

// resolveSubject maps a token subject back to a live account. Subjects are
// normalized emails, so the comparison is case-insensitive by construction.
func (s *Service) resolveSubject(ctx context.Context, subject string) (*Account, error) {
	account, err := s.store.Users(ctx).FindByEmail(ctx, NormalizeEmail(subject))
	if err != nil {
		return nil, err
	}
	return account, nil
}

// tokenValidFor re-checks a verified token against the specific account it
// resolves to, guarding against tokens that outlive an account state change.
func (s *Service) tokenValidFor(claims *Claims, account *Account, now time.Time) bool {
	if !strings.EqualFold(claims.Subject, account.Subject()) {
		return false
	}
	if !account.Active() || account.Locked(now) {
		return false
	}
	return true
}

// ExtractBearerToken pulls the token out of an Authorization header value.
func ExtractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
