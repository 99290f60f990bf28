package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// Account is one login row. The Role column feeds admin gating on the session.
type Account struct {
	ID       string
	Username string
	Role     string
}

// AccountStore persists login accounts with bcrypt-hashed passwords.
type AccountStore struct {
	pool *pgxpool.Pool
}

// NewAccountStore creates an AccountStore over the pool.
func NewAccountStore(pool *pgxpool.Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Create inserts a new account with the given role.
//
// Precondition: username and password must be non-empty.
// Postcondition: Returns the new account ID, ErrDuplicateName on a username
// collision, or another error.
func (s *AccountStore) Create(ctx context.Context, username, password, role string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	var id string
	err = s.pool.QueryRow(ctx,
		`INSERT INTO accounts (username, password_hash, role)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		username, hash, role,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicateName
		}
		return "", fmt.Errorf("inserting account %q: %w", username, err)
	}
	return id, nil
}

// SetRole changes an account's privilege level.
//
// Precondition: role must be a valid session role.
// Postcondition: Returns ErrAccountNotFound when no row matches.
func (s *AccountStore) SetRole(ctx context.Context, username, role string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET role = $2 WHERE username = $1`,
		username, role,
	)
	if err != nil {
		return fmt.Errorf("updating role for %q: %w", username, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Authenticate verifies the password against the stored hash.
//
// Postcondition: Returns the account on success; ErrAccountNotFound or
// ErrInvalidCredentials otherwise. The two failure modes are distinct errors
// but callers should present them identically.
func (s *AccountStore) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	var (
		acct Account
		hash []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, role, password_hash
		 FROM accounts
		 WHERE username = $1`,
		username,
	).Scan(&acct.ID, &acct.Username, &acct.Role, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying account %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &acct, nil
}
