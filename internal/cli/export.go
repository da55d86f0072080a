package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"

	"github.com/khanglvm/piece-hub/internal/piece"
	"github.com/khanglvm/piece-hub/internal/search"
)

// Export formats.
const (
	exportJSON  = "json"
	exportJSONL = "jsonl"
	exportYAML  = "yaml"
)

// NewExportCmd creates the export command.
func NewExportCmd(opts *GlobalOptions) *cobra.Command {
	var (
		format     string
		output     string
		categories []string
		nested     bool
	)

	cmd := &cobra.Command{
		Use:   "export [query...]",
		Short: "Export discovery results as a catalog file",
		Long: `Run a discovery request and write the matching pieces in catalog format.

The output can be loaded again with --catalog, so export doubles as a way to
cut a smaller catalog out of a large one. With --nested each piece keeps only
its best matching actions and triggers.

Without --output the result is written to stdout. Writes to a file hold an
exclusive lock on <output>.lock for the duration of the export.`,
		Example: `  # Whole catalog as JSONL on stdout
  piece-hub export --format jsonl

  # Communication pieces about messages, narrowed, to a file
  piece-hub export message --nested -c COMMUNICATION --output ./messaging.json

  # Convert a catalog to YAML
  piece-hub --catalog pieces.json export --format yaml --output pieces.yaml

Grep usage examples:
  # Extract all piece IDs
  piece-hub export --format jsonl | jq -r '.id'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := search.Request{
				SearchQuery:               strings.Join(args, " "),
				Categories:                toCategories(categories, cmd.Flags().Changed("category")),
				IncludeActionsAndTriggers: nested,
			}
			return runExport(cmd.OutOrStdout(), opts, req, format, output)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", exportJSON, "Output format: json, jsonl or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: stdout)")
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "Keep pieces with any of these categories (repeatable)")
	cmd.Flags().BoolVarP(&nested, "nested", "n", false, "Narrow actions and triggers to the best matches")

	return cmd
}

// runExport executes the export command.
func runExport(w io.Writer, opts *GlobalOptions, req search.Request, format, output string) error {
	switch format {
	case exportJSON, exportJSONL, exportYAML:
	default:
		return fmt.Errorf("unknown format %q: use json, jsonl or yaml", format)
	}

	env, err := loadEnvironment(opts)
	if err != nil {
		return err
	}

	results, err := env.engine.Discover(env.pieces, req)
	if err != nil {
		return err
	}
	pieces := results.Pieces()

	if output == "" || output == "-" {
		return writePieces(w, pieces, format)
	}

	// Acquire file lock to prevent concurrent writes
	lockFile, err := acquireFileLock(output)
	if err != nil {
		return fmt.Errorf("failed to acquire file lock: %w", err)
	}
	defer func() {
		if err := releaseFileLock(lockFile); err != nil {
			log.Warn().Err(err).Str("path", output).Msg("failed to release export lock")
		}
	}()

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := writePieces(file, pieces, format); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintf(w, "✓ Exported %d pieces to %s\n", len(pieces), output)
	return nil
}

// writePieces encodes pieces in one of the catalog formats.
func writePieces(w io.Writer, pieces []piece.Piece, format string) error {
	switch format {
	case exportYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(pieces); err != nil {
			return fmt.Errorf("failed to encode pieces: %w", err)
		}
		return encoder.Close()

	case exportJSONL:
		// JSONL format (one per line)
		encoder := json.NewEncoder(w)
		for _, p := range pieces {
			if err := encoder.Encode(p); err != nil {
				return fmt.Errorf("failed to encode piece %s: %w", p.ID, err)
			}
		}
		return nil

	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(pieces); err != nil {
			return fmt.Errorf("failed to encode pieces: %w", err)
		}
		return nil
	}
}

// acquireFileLock acquires an exclusive lock on the export file.
func acquireFileLock(path string) (*os.File, error) {
	lockPath := path + ".lock"
	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	// Try to acquire exclusive lock (non-blocking)
	err = unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		lockFile.Close()
		return nil, fmt.Errorf("failed to acquire lock (another export in progress?): %w", err)
	}

	return lockFile, nil
}

// releaseFileLock releases the file lock and removes the lock file.
func releaseFileLock(lockFile *os.File) error {
	if lockFile == nil {
		return nil
	}

	lockPath := lockFile.Name()

	unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)
	lockFile.Close()

	return os.Remove(lockPath)
}
