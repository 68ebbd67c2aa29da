package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"shortloop/internal/config"
	"shortloop/internal/logging"
	"shortloop/internal/services"
)

// Store manages engine persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the engine database and applies the schema.
// An unreadable or mismatched database is renamed aside and recreated empty;
// the store-corrupt condition is logged and tallied, never fatal.
func Open(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	logger = logging.NewComponentLogger(logger, "store")

	dbPath := cfg.DatabasePath()
	store, err := openAt(dbPath, logger)
	if err == nil {
		return store, nil
	}

	// Fail open: keep the unreadable file for inspection and start empty.
	aside := fmt.Sprintf("%s.corrupt-%s", dbPath, time.Now().UTC().Format("20060102T150405"))
	if renameErr := os.Rename(dbPath, aside); renameErr != nil {
		return nil, services.Wrap(services.ErrStoreCorrupt, "store", "open", "database unreadable and could not be moved aside", err)
	}
	logger.Warn("engine database unreadable; starting with an empty store",
		logging.Args(
			logging.Error(err),
			logging.String("moved_to", aside),
			logging.String(logging.FieldEventType, "store_corrupt"),
			logging.String(logging.FieldErrorHint, "inspect the moved-aside file to recover scores"),
		)...)

	store, reopenErr := openAt(dbPath, logger)
	if reopenErr != nil {
		return nil, fmt.Errorf("recreate engine database: %w", reopenErr)
	}
	if err := store.IncrementMetric(context.Background(), string(services.KindStoreCorrupt)); err != nil {
		logger.Warn("failed to record store-corrupt metric", logging.Args(logging.Error(err))...)
	}
	return store, nil
}

func openAt(dbPath string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, logger: logger}
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

// Path returns the on-disk location backing the store.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}
