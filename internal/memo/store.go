package memo

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"fotoprotokoll/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; stale databases are discarded and rebuilt.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is a SQLite-backed memo table keyed by content digest.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
	group  singleflight.Group
}

// Open initializes or connects to the memo database at path. A database with
// a mismatched schema version is deleted and recreated: memo entries are
// recomputable by definition.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "memo")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create memo directory: %w", err)
	}

	store, err := open(path, logger)
	if err == nil {
		return store, nil
	}

	logger.Warn("memo database unusable, rebuilding",
		logging.String(logging.FieldEventType, "memo_db_rebuild"),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "previously memoized analyses will be recomputed"))

	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		return nil, fmt.Errorf("remove stale memo db: %w", rmErr)
	}
	return open(path, logger)
}

func open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logger}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Do returns the memoized payload for key, computing and storing it on a
// miss. Concurrent calls for the same key share one compute invocation. The
// bool reports whether the payload came from the cache. Compute errors are
// returned without being stored.
func (s *Store) Do(ctx context.Context, key, model string, compute func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("memo key cannot be empty")
	}

	if payload, found, err := s.Get(ctx, key); err != nil {
		return nil, false, err
	} else if found {
		return payload, true, nil
	}

	type result struct {
		payload []byte
		cached  bool
	}
	value, err, _ := s.group.Do(key, func() (any, error) {
		// Another caller may have stored the key while this one waited.
		if payload, found, err := s.Get(ctx, key); err != nil {
			return nil, err
		} else if found {
			return result{payload: payload, cached: true}, nil
		}

		payload, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.Put(ctx, key, model, payload); err != nil {
			return nil, err
		}
		return result{payload: payload}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := value.(result)
	return res.payload, res.cached, nil
}

// Get returns the stored payload for key. A corrupt payload counts as a miss
// and is removed so the next Do recomputes it.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)

	var payload []byte
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT payload FROM memo WHERE key = ?", key).Scan(&payload)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("memo get: %w", err)
	}

	if !json.Valid(payload) {
		s.logger.Warn("discarding corrupt memo entry",
			logging.String(logging.FieldEventType, "memo_entry_corrupt"),
			logging.String("key", key))
		if err := s.Delete(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return payload, true, nil
}

// Put stores a payload under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key, model string, payload []byte) error {
	ctx = ensureContext(ctx)
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("memo key cannot be empty")
	}
	if len(payload) == 0 {
		return errors.New("memo payload cannot be empty")
	}

	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx,
			"INSERT OR REPLACE INTO memo (key, payload, model, created_at) VALUES (?, ?, ?, ?)",
			key, payload, model, time.Now().UTC().Format(time.RFC3339))
		return execErr
	})
	if err != nil {
		return fmt.Errorf("memo put: %w", err)
	}
	return nil
}

// Delete removes the entry for key if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, "DELETE FROM memo WHERE key = ?", key)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("memo delete: %w", err)
	}
	return nil
}

// Count returns the number of memoized entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM memo").Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("memo count: %w", err)
	}
	return count, nil
}

// Clear removes all memoized entries.
func (s *Store) Clear(ctx context.Context) error {
	ctx = ensureContext(ctx)
	err := retryOnBusy(ctx, func() error {
		_, execErr := s.db.ExecContext(ctx, "DELETE FROM memo")
		return execErr
	})
	if err != nil {
		return fmt.Errorf("memo clear: %w", err)
	}
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("schema version mismatch: database has version %d, expected %d", version, schemaVersion)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
