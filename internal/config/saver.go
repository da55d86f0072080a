package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Save validates cfg and writes it to path. The previous file, if any, is
// copied to path+".bak" first, and the new content replaces the file in a
// single rename so readers never see a partial write.
func Save(cfg *Config, path string) error {
	if err := checkWritePermission(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := validateJSON(data); err != nil {
		return &InvalidConfigError{
			Path: path,
			Err:  err,
			Hint: "Check search and history settings and try again",
		}
	}

	if err := backupConfig(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to create config backup")
	}

	return atomicWrite(path, data)
}

// backupConfig copies an existing config to path+".bak".
func backupConfig(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path+".bak", data, 0644)
}

// validateJSON checks data the way LoadFrom would read it back.
func validateJSON(data []byte) error {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return err
	}
	cfg.applyDefaults()
	return Validate(cfg)
}

func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// One temp file per writer; rename is the commit point.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		os.Remove(tmpPath)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return cleanup(err)
	}

	return os.Rename(tmpPath, path)
}

// checkWritePermission verifies that both the directory and an existing
// file at path are writable.
func checkWritePermission(path string) error {
	dir := filepath.Dir(path)
	if err := checkDirectoryWritable(dir); err != nil {
		return &PermissionError{
			Path:    dir,
			Op:      "write",
			Fix:     writePermissionFix(dir),
			Details: "Cannot write to config directory",
			Err:     err,
		}
	}

	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := checkFileWritable(path); err != nil {
		return &PermissionError{
			Path:    path,
			Op:      "write",
			Fix:     writePermissionFix(path),
			Details: "Config file is read-only",
			Err:     err,
		}
	}
	return nil
}

func checkDirectoryWritable(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		// atomicWrite creates it; check the nearest existing parent.
		parent := filepath.Dir(dir)
		if parent == dir {
			return err
		}
		return checkDirectoryWritable(parent)
	}

	probe := filepath.Join(dir, ".write-test-"+randomString(8))
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}

func checkFileWritable(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	return f.Close()
}

func writePermissionFix(path string) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("Right-click %s → Properties → Security → Grant 'Write' permission", path)
	}
	return fmt.Sprintf("Run: chmod u+w %s", path)
}

func randomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rand.IntN(len(letters))]
	}
	return string(b)
}
