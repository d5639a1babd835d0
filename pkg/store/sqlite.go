package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/learnhub-client/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS profile_images (
	user_id    INTEGER PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// SQLite is the default durable key-value backend. It also carries the
// single-row-per-user profile image table.
type SQLite struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewSQLite opens (creating if necessary) the database at path.
func NewSQLite(path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}

	return &SQLite{db: db, logger: logger}, nil
}

// NewSQLiteFromDB wraps an existing connection. Used by tests.
func NewSQLiteFromDB(db *sqlx.DB, logger *zap.Logger) *SQLite {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLite{db: db, logger: logger}
}

// Get returns the stored value for key, or ErrCacheMiss when absent.
func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv_entries WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.ErrCacheMiss
		}
		return "", fmt.Errorf("sqlite get %s: %w", key, err)
	}
	return value, nil
}

// Set stores the value under key, replacing any existing entry.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", key, err)
	}
	return nil
}

// Remove deletes the entry for key. Removing an absent key is not an error.
func (s *SQLite) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("sqlite remove %s: %w", key, err)
	}
	return nil
}

// SaveAvatar stores the profile image for the user, replacing any prior row.
func (s *SQLite) SaveAvatar(ctx context.Context, userID int64, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profile_images (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite save avatar for user %d: %w", userID, err)
	}
	return nil
}

// LoadAvatar returns the stored profile image, or ErrCacheMiss when none exists.
func (s *SQLite) LoadAvatar(ctx context.Context, userID int64) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT data FROM profile_images WHERE user_id = ?`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("sqlite load avatar for user %d: %w", userID, err)
	}
	return data, nil
}

// DeleteAvatar removes the stored profile image for the user.
func (s *SQLite) DeleteAvatar(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profile_images WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("sqlite delete avatar for user %d: %w", userID, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
