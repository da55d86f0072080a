/*
Package config handles loading and saving piece-hub configuration.

Configuration is stored in ~/.piece-hub.json using camelCase keys.

Schema:
  {
    "catalog": {
      "path": "~/.piece-hub/catalog.json"
    },
    "search": {
      "pieceThreshold": 0.3,
      "nestedThreshold": 0.2,
      "suggestionLimit": 3,
      "distance": 100,
      "location": 0,
      "duplicatePolicy": "last"
    },
    "history": {
      "enabled": true,
      "path": "~/.piece-hub/history.db",
      "retentionDays": 30
    }
  }
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/khanglvm/piece-hub/internal/search"
)

// DefaultRetentionDays is how long search history is kept.
const DefaultRetentionDays = 30

// Config represents the root configuration structure.
type Config struct {
	// Catalog locates the piece catalog.
	Catalog *CatalogConfig `json:"catalog,omitempty"`

	// Search tunes the discovery engine.
	Search *SearchSettings `json:"search,omitempty"`

	// History controls the local search history store.
	History *HistoryConfig `json:"history,omitempty"`
}

// CatalogConfig locates the piece catalog.
type CatalogConfig struct {
	// Path is a .json, .jsonl or .yaml catalog file. A leading ~ expands
	// to the home directory.
	Path string `json:"path,omitempty"`
}

// SearchSettings mirrors search.Config in the config file.
type SearchSettings struct {
	PieceThreshold  float64 `json:"pieceThreshold"`
	NestedThreshold float64 `json:"nestedThreshold"`
	SuggestionLimit int     `json:"suggestionLimit"`
	Distance        int     `json:"distance"`
	Location        int     `json:"location"`

	// DuplicatePolicy is "last" or "first".
	DuplicatePolicy string `json:"duplicatePolicy"`
}

// HistoryConfig controls search history recording.
type HistoryConfig struct {
	Enabled bool `json:"enabled"`

	// Path is the SQLite database file.
	Path string `json:"path,omitempty"`

	// RetentionDays is how long records are kept by cleanup.
	RetentionDays int `json:"retentionDays,omitempty"`
}

// NewConfig creates a configuration populated with defaults.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills sections missing from the file.
func (c *Config) applyDefaults() {
	if c.Catalog == nil {
		c.Catalog = &CatalogConfig{Path: "~/.piece-hub/catalog.json"}
	}
	if c.Search == nil {
		def := search.DefaultConfig()
		c.Search = &SearchSettings{
			PieceThreshold:  def.PieceThreshold,
			NestedThreshold: def.NestedThreshold,
			SuggestionLimit: def.SuggestionLimit,
			Distance:        def.Distance,
			Location:        def.Location,
			DuplicatePolicy: string(def.DuplicatePolicy),
		}
	}
	if c.History == nil {
		c.History = &HistoryConfig{
			Enabled:       true,
			Path:          "~/.piece-hub/history.db",
			RetentionDays: DefaultRetentionDays,
		}
	}
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = "~/.piece-hub/history.db"
	}
	if c.History.RetentionDays == 0 {
		c.History.RetentionDays = DefaultRetentionDays
	}
}

// EngineConfig converts the search section into an engine configuration.
func (c *Config) EngineConfig() search.Config {
	s := c.Search
	if s == nil {
		return search.DefaultConfig()
	}
	return search.Config{
		PieceThreshold:  s.PieceThreshold,
		NestedThreshold: s.NestedThreshold,
		SuggestionLimit: s.SuggestionLimit,
		Distance:        s.Distance,
		Location:        s.Location,
		DuplicatePolicy: search.DuplicatePolicy(s.DuplicatePolicy),
	}
}

// GetDefaultConfigPath returns the path to ~/.piece-hub.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".piece-hub.json"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadOrCreate reads the configuration at path, falling back to defaults
// when the file does not exist yet. An empty path means the default path.
func LoadOrCreate(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetDefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFrom(path)
	if err == nil {
		return cfg, nil
	}

	var notFound *ConfigNotFoundError
	if errors.As(err, &notFound) {
		return NewConfig(), nil
	}
	return nil, err
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
