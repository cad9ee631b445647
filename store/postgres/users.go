package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrEthical07/authsvc/credential"
	"github.com/MrEthical07/authsvc/store"
)

// poolIface is the subset of *pgxpool.Pool the store needs; pgxmock
// satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserStore is a PostgreSQL-backed store.UserStore.
type UserStore struct {
	pool     poolIface
	verifier store.PasswordVerifier
}

// NewUserStore returns a store over pool. Pass a *pgxpool.Pool in production.
func NewUserStore(pool poolIface, verifier store.PasswordVerifier) *UserStore {
	return &UserStore{pool: pool, verifier: verifier}
}

func (s *UserStore) AddUser(ctx context.Context, u store.User) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (email, password_hash, requires_2fa, created_at) VALUES ($1, $2, $3, $4)`,
		u.Email.String(), u.PasswordHash, u.Requires2FA, createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return store.ErrUserAlreadyExists
		}
		return fmt.Errorf("%w: insert user: %v", store.ErrBackend, err)
	}
	return nil
}

func (s *UserStore) GetUser(ctx context.Context, email credential.Email) (store.User, error) {
	var (
		rawEmail string
		u        store.User
	)
	err := s.pool.QueryRow(ctx,
		`SELECT email, password_hash, requires_2fa, created_at FROM users WHERE email = $1`,
		email.String()).Scan(&rawEmail, &u.PasswordHash, &u.Requires2FA, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.User{}, store.ErrUserNotFound
		}
		return store.User{}, fmt.Errorf("%w: get user: %v", store.ErrBackend, err)
	}

	u.Email, err = credential.ParseEmail(rawEmail)
	if err != nil {
		return store.User{}, fmt.Errorf("%w: stored email %q: %v", store.ErrBackend, rawEmail, err)
	}
	return u, nil
}

func (s *UserStore) ValidateUser(ctx context.Context, email credential.Email, password credential.Password) error {
	u, err := s.GetUser(ctx, email)
	if err != nil {
		return err
	}

	ok, err := s.verifier.Verify(password.Reveal(), u.PasswordHash)
	if err != nil {
		return fmt.Errorf("%w: verify password: %v", store.ErrBackend, err)
	}
	if !ok {
		return store.ErrInvalidCredentials
	}
	return nil
}
