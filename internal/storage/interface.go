/*
Package storage implements a persistent store for search history.

It provides SQLite-based recording of discovery requests with graceful
degradation: if the database is unavailable, every operation becomes a
no-op instead of failing the search that triggered it.

The database defaults to ~/.piece-hub/history.db and uses modernc.org/sqlite
(a pure Go, CGo-free implementation).
*/
package storage

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Storage defines the interface for persistent storage operations.
type Storage interface {
	// Init initializes the database and runs migrations.
	Init() error

	// RecordSearch records a discovery request.
	RecordSearch(search SearchRecord) error

	// RecentSearches returns up to limit records, newest first.
	RecentSearches(limit int) ([]SearchRecord, error)

	// Stats aggregates the searches recorded since a given time.
	Stats(since time.Time) (SearchStats, error)

	// Cleanup removes records older than the retention period.
	Cleanup(retention time.Duration) error

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
}

var _ Storage = (*SQLiteStorage)(nil)

// NewStorage creates a SQLite storage instance backed by dbPath.
//
// An empty dbPath selects ~/.piece-hub/history.db. The directory is created
// on Init. If the database cannot be opened, the storage is disabled but
// operations will not fail.
func NewStorage(dbPath string) *SQLiteStorage {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Warn().Err(err).Msg("failed to get home directory, search history disabled")
			return &SQLiteStorage{enabled: false}
		}
		dbPath = filepath.Join(home, ".piece-hub", "history.db")
	}

	return &SQLiteStorage{
		dbPath:  dbPath,
		enabled: true,
	}
}

// Disabled returns a storage whose operations are all no-ops.
func Disabled() *SQLiteStorage {
	return &SQLiteStorage{enabled: false}
}

// Enabled reports whether the database is usable.
func (s *SQLiteStorage) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && s.db != nil
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Init initializes the database and runs migrations.
//
// If initialization fails, storage is disabled and subsequent operations
// become no-ops (graceful degradation).
func (s *SQLiteStorage) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			log.Warn().Err(initErr).Str("path", s.dbPath).Msg("search history disabled")
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			log.Warn().Err(initErr).Str("path", s.dbPath).Msg("search history disabled")
			return
		}

		// SQLite allows one writer; a single connection serialises access.
		db.SetMaxOpenConns(1)

		if err := db.Ping(); err != nil {
			db.Close()
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			log.Warn().Err(initErr).Str("path", s.dbPath).Msg("search history disabled")
			return
		}
		s.db = db

		if err := s.runMigrations(); err != nil {
			db.Close()
			s.db = nil
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			log.Warn().Err(initErr).Str("path", s.dbPath).Msg("search history disabled")
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// HashQuery creates a SHA256 hash of a query string for privacy.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(query))
	return hex.EncodeToString(hash[:])
}
