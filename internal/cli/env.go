package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/khanglvm/piece-hub/internal/config"
	"github.com/khanglvm/piece-hub/internal/history"
	"github.com/khanglvm/piece-hub/internal/piece"
	"github.com/khanglvm/piece-hub/internal/search"
	"github.com/khanglvm/piece-hub/internal/storage"
)

// environment is everything a discovery command needs.
type environment struct {
	cfg    *config.Config
	engine *search.Engine
	pieces []piece.Piece
}

// loadConfig reads the configuration selected by the root flags.
func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	cfg, err := config.LoadOrCreate(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadEnvironment reads the config and catalog and builds the engine.
func loadEnvironment(opts *GlobalOptions) (*environment, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	catalogPath := opts.CatalogPath
	if catalogPath == "" {
		catalogPath = cfg.Catalog.Path
	}
	if catalogPath == "" {
		return nil, fmt.Errorf("no catalog configured: pass --catalog or set catalog.path in the config")
	}
	catalogPath, err = config.ExpandPath(catalogPath)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pieces, err := piece.LoadCatalog(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Debug().Str("path", catalogPath).Int("pieces", len(pieces)).Dur("took", time.Since(start)).Msg("catalog loaded")

	engine, err := search.NewEngine(cfg.EngineConfig())
	if err != nil {
		return nil, err
	}

	return &environment{cfg: cfg, engine: engine, pieces: pieces}, nil
}

// openStorage returns the history store, or a disabled one when history
// is turned off.
func openStorage(cfg *config.Config) (*storage.SQLiteStorage, error) {
	if cfg.History == nil || !cfg.History.Enabled {
		return storage.Disabled(), nil
	}
	path, err := config.ExpandPath(cfg.History.Path)
	if err != nil {
		return nil, err
	}
	return storage.NewStorage(path), nil
}

// newTracker opens the history store and starts a tracker on it. The
// returned stop function flushes the tracker and closes the store.
func newTracker(cfg *config.Config) (*history.Tracker, func()) {
	store, err := openStorage(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("search history disabled")
		store = storage.Disabled()
	}

	tracker := history.NewTracker(store)
	return tracker, func() {
		tracker.Stop()
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close history store")
		}
	}
}

// toCategories converts flag values to category tags. A flag that was not
// given yields nil, which disables category filtering.
func toCategories(values []string, given bool) []piece.Category {
	if !given {
		return nil
	}
	categories := make([]piece.Category, 0, len(values))
	for _, v := range values {
		categories = append(categories, piece.Category(v))
	}
	return categories
}
