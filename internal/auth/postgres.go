package auth

import (
	"context"
	"database/sql"
	"time"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Users(context.Context) UserStore { return &userStore{db: s.db} }
func (s *PGStore) ResetTokens(context.Context) ResetTokenStore {
	return &resetTokenStore{db: s.db}
}

// User store ---------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `id, full_name, email, phone_e164, password_hash, role, status, failed_login_attempts, locked_until, last_login_at, created_at, updated_at`

func (s *userStore) Create(ctx context.Context, a *Account) error {
	_, err := s.db.ExecContext(ctx,
		`insert into users(id, full_name, email, phone_e164, password_hash, role, status)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.FullName, a.Email, a.Phone, a.PasswordHash, a.Role, a.Status,
	)
	return err
}

func (s *userStore) Find(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanAccount(row)
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email=$1`, email)
	return scanAccount(row)
}

func (s *userStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=$2, updated_at=now() where id=$1`,
		userID, passwordHash,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`update users set last_login_at=$2 where id=$1`, userID, at)
	return err
}

func scanAccount(row *sql.Row) (*Account, error) {
	var (
		a           Account
		phone       sql.NullString
		lockedUntil sql.NullTime
		lastLogin   sql.NullTime
	)
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &phone, &a.PasswordHash, &a.Role,
		&a.Status, &a.FailedLoginAttempts, &lockedUntil, &lastLogin, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Phone = phone.String
	if lockedUntil.Valid {
		a.LockedUntil = &lockedUntil.Time
	}
	if lastLogin.Valid {
		a.LastLoginAt = &lastLogin.Time
	}
	return &a, nil
}

// Reset token store --------------------------------------------------------

type resetTokenStore struct{ db *sql.DB }

func (s *resetTokenStore) Create(ctx context.Context, t *ResetToken) error {
	_, err := s.db.ExecContext(ctx,
		`insert into password_reset_tokens(id, token, user_id, expires_at, created_at)
		 values($1,$2,$3,$4,$5)`,
		t.ID, t.Token, t.UserID, t.ExpiresAt, t.CreatedAt,
	)
	return err
}

func (s *resetTokenStore) FindByToken(ctx context.Context, token string) (*ResetToken, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, token, user_id, expires_at, created_at, used_at from password_reset_tokens where token=$1`, token)
	var (
		t      ResetToken
		usedAt sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &usedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return &t, nil
}

// Consume marks the token used and rewrites the password hash in one
// transaction. The guarded update is the race arbiter: of two concurrent
// consumers exactly one flips used_at, the other sees zero rows.
func (s *resetTokenStore) Consume(ctx context.Context, tokenID, userID, passwordHash string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`update password_reset_tokens set used_at=$2
		 where id=$1 and used_at is null and expires_at > $2`,
		tokenID, at,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrResetTokenExpiredOrUsed
	}

	res, err = tx.ExecContext(ctx,
		`update users set password_hash=$2, updated_at=$3 where id=$1`,
		userID, passwordHash, at,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}
