package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrInvalidSetting is wrapped by validation failures outside the search
// section, which wraps search.ErrInvalidOptions instead.
var ErrInvalidSetting = errors.New("invalid setting")

// PermissionError is returned when the config file or its directory cannot
// be read or written.
type PermissionError struct {
	Path    string
	Op      string // "read" or "write"
	Fix     string // Suggested fix command
	Details string // Additional context
	Err     error
}

func (e *PermissionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "permission denied (cannot %s config): %s\n", e.Op, e.Path)
	if e.Details != "" {
		b.WriteString(e.Details)
		b.WriteByte('\n')
	}
	b.WriteString("💡 Fix: ")
	b.WriteString(e.Fix)
	return b.String()
}

// Unwrap returns the underlying cause, or fs.ErrPermission.
func (e *PermissionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return fs.ErrPermission
}

// ConfigNotFoundError is returned by LoadFrom for a missing file.
// LoadOrCreate turns it into the default configuration.
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	msg := "config file not found: " + e.Path
	if e.Hint != "" {
		msg += "\n\n💡 " + e.Hint
	}
	return msg
}

func (e *ConfigNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// InvalidConfigError is returned for a file that does not parse or holds
// an out-of-range setting. Err is the parse or validation failure.
type InvalidConfigError struct {
	Path string
	Err  error
	Hint string
}

func (e *InvalidConfigError) Error() string {
	msg := "invalid config: " + e.Path + "\n"
	if e.Err != nil {
		msg += e.Err.Error() + "\n"
	}
	if e.Hint != "" {
		msg += "💡 " + e.Hint
	}
	return msg
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}
