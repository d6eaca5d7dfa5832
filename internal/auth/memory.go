package auth

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store used by tests and local development. It
// mirrors the PG store's consume semantics: the used/expiry re-check and the
// dual write happen under one lock.
type MemStore struct {
	mu       sync.Mutex
	accounts map[string]*Account   // keyed by id
	emails   map[string]string     // normalized email -> id
	tokens   map[string]*ResetToken // keyed by opaque token value
}

func NewMemStore() *MemStore {
	return &MemStore{
		accounts: make(map[string]*Account),
		emails:   make(map[string]string),
		tokens:   make(map[string]*ResetToken),
	}
}

func (s *MemStore) Users(context.Context) UserStore           { return (*memUsers)(s) }
func (s *MemStore) ResetTokens(context.Context) ResetTokenStore { return (*memTokens)(s) }

// ResetTokenCount reports how many reset tokens exist, for store inspection
// in tests.
func (s *MemStore) ResetTokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// ResetTokenValues returns the opaque token values currently stored. Tests
// use it to recover the token a flow just minted.
func (s *MemStore) ResetTokenValues() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	values := make([]string, 0, len(s.tokens))
	for v := range s.tokens {
		values = append(values, v)
	}
	return values
}

type memUsers MemStore

func (s *memUsers) Create(_ context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := NormalizeEmail(a.Email)
	if _, ok := s.emails[email]; ok {
		return ErrAlreadyExists
	}
	cp := *a
	s.accounts[a.ID] = &cp
	s.emails[email] = a.ID
	return nil
}

func (s *memUsers) Find(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (s *memUsers) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = passwordHash
	return nil
}

func (s *memUsers) TouchLastLogin(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	t := at
	a.LastLoginAt = &t
	return nil
}

type memTokens MemStore

func (s *memTokens) Create(_ context.Context, t *ResetToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.tokens[t.Token] = &cp
	return nil
}

func (s *memTokens) FindByToken(_ context.Context, token string) (*ResetToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memTokens) Consume(_ context.Context, tokenID, userID, passwordHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var record *ResetToken
	for _, t := range s.tokens {
		if t.ID == tokenID {
			record = t
			break
		}
	}
	if record == nil {
		return ErrResetTokenNotFound
	}
	if record.Used() || record.Expired(at) {
		return ErrResetTokenExpiredOrUsed
	}
	a, ok := s.accounts[userID]
	if !ok {
		return ErrNotFound
	}
	used := at
	record.UsedAt = &used
	a.PasswordHash = passwordHash
	return nil
}
