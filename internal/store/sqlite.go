// Package store persists application user records in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"deskmates.dev/internal/models"
)

// ErrNotFound is returned when a user does not exist
var ErrNotFound = errors.New("user not found")

// UserStore reads and writes the users table
type UserStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(path string) (*UserStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &UserStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		created_at TEXT NOT NULL
	);`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}

// Close closes the database
func (s *UserStore) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *UserStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the user with the given id
func (s *UserStore) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", id, err)
	}

	u.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("user %s has bad created_at %q: %w", id, created, err)
	}
	return &u, nil
}

// InsertIfAbsent adds the user unless a row with the same id exists. It
// reports whether a row was written; existing rows are never modified.
func (s *UserStore) InsertIfAbsent(ctx context.Context, u models.User) (bool, error) {
	if u.ID == "" {
		return false, fmt.Errorf("user id is required")
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, created_at) VALUES (?, ?, ?) ON CONFLICT(id) DO NOTHING`,
		u.ID, u.Email, u.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("inserting user %s: %w", u.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Count returns the number of users
func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
