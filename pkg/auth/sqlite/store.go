// Package sqlite is a local credential store implementing auth.Authenticator
// on top of SQLite, with bcrypt password hashes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/goliatone/go-formstate/pkg/auth"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	email         TEXT PRIMARY KEY,
	password_hash BLOB NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);
`

// ErrUserExists is returned by AddUser for an email already on file.
var ErrUserExists = errors.New("sqlite: user already exists")

// Store keeps users in a SQLite database.
type Store struct {
	db   *sql.DB
	cost int
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCost sets the bcrypt cost used by AddUser.
func WithCost(cost int) Option {
	return func(s *Store) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithClock overrides the time source for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Ensure Store satisfies the authenticator boundary.
var (
	_ auth.Authenticator = (*Store)(nil)
	_ auth.DisplayNamer  = (*Store)(nil)
)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, options ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	s := &Store{
		db:   db,
		cost: bcrypt.DefaultCost,
		now:  time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddUser stores a new account.
func (s *Store) AddUser(ctx context.Context, email, password, displayName string) error {
	key := normalizeEmail(email)
	if key == "" {
		return errors.New("sqlite: email is required")
	}
	if password == "" {
		return errors.New("sqlite: password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("sqlite: hash password: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, display_name, created_at) VALUES (?, ?, ?, ?)`,
		key, hash, strings.TrimSpace(displayName), s.now().Unix(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s", ErrUserExists, key)
		}
		return fmt.Errorf("sqlite: insert user: %w", err)
	}
	return nil
}

// SignIn checks the credential pair. Unknown accounts fail with
// auth.CodeUserNotFound, a mismatched password with auth.CodeWrongPassword.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	var hash []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash FROM users WHERE email = ?`,
		normalizeEmail(email),
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.NewError(auth.CodeUserNotFound, "no account for this address")
	}
	if err != nil {
		return auth.WrapError(auth.CodeInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return auth.NewError(auth.CodeWrongPassword, "credential does not match")
		}
		return auth.WrapError(auth.CodeInternal, err)
	}
	return nil
}

// DisplayName returns the stored display name for email.
func (s *Store) DisplayName(ctx context.Context, email string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT display_name FROM users WHERE email = ?`,
		normalizeEmail(email),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", auth.NewError(auth.CodeUserNotFound, "no account for this address")
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: read display name: %w", err)
	}
	return name, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(email)))
}
