package storage

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// timeLayout is used for every stored timestamp. It is fixed width and
// values are always UTC, so string comparison orders them in time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// migration is one schema step. Its statements run in a single
// transaction together with the schema_migrations bookkeeping row.
type migration struct {
	version    int
	name       string
	statements []string
}

// migrations are applied in order; append only.
var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS search_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				search_id TEXT NOT NULL UNIQUE,
				query_hash TEXT NOT NULL,
				categories TEXT NOT NULL DEFAULT '[]',
				nested INTEGER NOT NULL DEFAULT 0,
				timestamp TEXT NOT NULL,
				results_count INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_search_history_timestamp
				ON search_history(timestamp DESC)`,
		},
	},
}

// runMigrations brings the schema up to the latest version.
func (s *SQLiteStorage) runMigrations() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	current, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		log.Debug().Int("version", m.version).Str("name", m.name).Msg("running migration")
		if err := s.applyMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
	}

	return nil
}

func (s *SQLiteStorage) applyMigration(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
		return err
	}

	return tx.Commit()
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStorage) getCurrentMigrationVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// categoriesToJSON converts a category list to JSON for storage.
func categoriesToJSON(categories []string) string {
	if len(categories) == 0 {
		return "[]"
	}
	data, err := json.Marshal(categories)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal categories")
		return "[]"
	}
	return string(data)
}

// jsonToCategories parses a stored category list.
func jsonToCategories(jsonStr string) ([]string, error) {
	var categories []string
	if err := json.Unmarshal([]byte(jsonStr), &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
