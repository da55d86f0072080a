/*
Package config provides validation helpers for piece-hub configuration.

Validation runs on load and before every save so an out-of-range setting
is reported against the file rather than when the engine is built.
*/
package config

import (
	"fmt"
)

// Validate checks every configured section.
func Validate(cfg *Config) error {
	if cfg.Search != nil {
		if err := cfg.EngineConfig().Validate(); err != nil {
			return fmt.Errorf("search: %w", err)
		}
	}

	if cfg.History != nil {
		if cfg.History.RetentionDays < 0 {
			return fmt.Errorf("history: %w: retentionDays must not be negative, got %d", ErrInvalidSetting, cfg.History.RetentionDays)
		}
		if cfg.History.Enabled && cfg.History.Path == "" {
			return fmt.Errorf("history: %w: path is required when history is enabled", ErrInvalidSetting)
		}
	}

	return nil
}
