package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/goccy/go-json"
)

// LoadFrom reads, completes and validates the config file at path.
// Sections and keys missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, &ConfigNotFoundError{
			Path: path,
			Hint: "Run 'piece-hub config init' to create configuration",
		}
	case errors.Is(err, fs.ErrPermission):
		return nil, &PermissionError{
			Path:    path,
			Op:      "read",
			Fix:     readPermissionFix(path),
			Details: permissionDetails(path),
			Err:     err,
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, &InvalidConfigError{
			Path: path,
			Err:  fmt.Errorf("JSON parse error: %w", err),
			Hint: "Restore from .bak file if available",
		}
	}
	cfg.applyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, &InvalidConfigError{
			Path: path,
			Err:  err,
			Hint: "Fix the setting named above, or remove it to use the default",
		}
	}

	return cfg, nil
}

func readPermissionFix(path string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("Right-click %s → Properties → Security → Edit permissions", path)
	}
	return fmt.Sprintf("Run: chmod 644 %s", path)
}

// permissionDetails reports the file mode on unix-like systems.
func permissionDetails(path string) string {
	if runtime.GOOS == "windows" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("Current permissions: %04o", info.Mode().Perm())
}
