// Package state persists the client-side view state that must survive
// restarts: the login hint, the used-quotes ledger, and one-shot alerts.
// Storage is a single-table SQLite key/value store (pure-Go driver), the
// durable stand-in for the browser's localStorage.
package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/quotehub/quotehub/internal/domain"
)

// Storage keys. keyUsedQuotes holds one JSON array; the alert keys are
// written and consumed together.
const (
	keyHasLoggedIn  = "hasLoggedIn"
	keyUsedQuotes   = "usedQuotes"
	keyAlertMessage = "alertMessage"
	keyAlertType    = "alertType"
)

const createTableStmt = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// Config configures the state store.
type Config struct {
	// Path is the SQLite database file. Parent directories are created
	// as needed.
	Path string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Store implements ports.StateStore over a single kv table. A mutex
// serializes every read-modify-write so concurrent mutations cannot lose
// updates; reads share the same lock for simplicity, the table holds a
// handful of rows.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu sync.Mutex
}

// Open opens (creating if necessary) the state database at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("state: path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "state.Store"))

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	// A single connection sidesteps SQLITE_BUSY under the store's own
	// mutex; throughput is not a concern here.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableStmt); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	logger.Debug("state store opened", slog.String("path", cfg.Path))

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database.
// Implements ports.StateStore.
func (s *Store) Close() error {
	return s.db.Close()
}

// get reads one key. Missing keys return ("", false, nil).
func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading key %q: %w", key, err)
	}

	return value, true, nil
}

// put upserts one key.
func (s *Store) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	return nil
}

// del removes keys.
func (s *Store) del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("deleting key %q: %w", key, err)
		}
	}

	return nil
}

// HasLoggedIn reports whether a session was ever established. A missing
// record reads as false. Implements ports.StateStore.
func (s *Store) HasLoggedIn(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok, err := s.get(ctx, keyHasLoggedIn)
	if err != nil {
		return false, err
	}

	return ok && value == "true", nil
}

// SetHasLoggedIn records (or clears) the login hint.
// Implements ports.StateStore.
func (s *Store) SetHasLoggedIn(ctx context.Context, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !v {
		return s.del(ctx, keyHasLoggedIn)
	}

	return s.put(ctx, keyHasLoggedIn, "true")
}

// UsedQuotes returns the recorded ledger. A missing or undecodable record
// reads as empty; a corrupt ledger is logged and discarded rather than
// wedging every caller. Implements ports.StateStore.
func (s *Store) UsedQuotes(ctx context.Context) ([]domain.UsedQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.usedQuotesLocked(ctx)
}

// usedQuotesLocked reads the ledger; the caller holds s.mu.
func (s *Store) usedQuotesLocked(ctx context.Context) ([]domain.UsedQuote, error) {
	value, ok, err := s.get(ctx, keyUsedQuotes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.UsedQuote{}, nil
	}

	var used []domain.UsedQuote
	if err := json.Unmarshal([]byte(value), &used); err != nil {
		s.logger.WarnContext(ctx, "used-quotes ledger undecodable, resetting",
			slog.Any("error", err))

		return []domain.UsedQuote{}, nil
	}

	return used, nil
}

// MutateUsedQuotes applies fn to the ledger and persists the result as
// one atomic read-modify-write. Implements ports.StateStore.
func (s *Store) MutateUsedQuotes(ctx context.Context, fn func([]domain.UsedQuote) []domain.UsedQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used, err := s.usedQuotesLocked(ctx)
	if err != nil {
		return err
	}

	mutated := fn(used)
	if mutated == nil {
		mutated = []domain.UsedQuote{}
	}

	encoded, err := json.Marshal(mutated)
	if err != nil {
		return fmt.Errorf("encoding used-quotes ledger: %w", err)
	}

	return s.put(ctx, keyUsedQuotes, string(encoded))
}

// PutAlert stores a one-shot alert, replacing any pending one.
// Implements ports.StateStore.
func (s *Store) PutAlert(ctx context.Context, alert domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.put(ctx, keyAlertMessage, alert.Message); err != nil {
		return err
	}

	return s.put(ctx, keyAlertType, string(alert.Type))
}

// TakeAlert returns the pending alert and clears it in the same locked
// section. Returns nil when no alert is pending.
// Implements ports.StateStore.
func (s *Store) TakeAlert(ctx context.Context) (*domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok, err := s.get(ctx, keyAlertMessage)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil //nolint:nilnil // absence of an alert is not an error
	}

	alertType, _, err := s.get(ctx, keyAlertType)
	if err != nil {
		return nil, err
	}
	if alertType == "" {
		alertType = string(domain.AlertInfo)
	}

	if err := s.del(ctx, keyAlertMessage, keyAlertType); err != nil {
		return nil, err
	}

	return &domain.Alert{Type: domain.AlertType(alertType), Message: message}, nil
}

// Name returns the health check name for the store.
// Implements ports.HealthChecker.
func (s *Store) Name() string {
	return "state-store"
}

// Check verifies the database answers a trivial query.
// Implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
