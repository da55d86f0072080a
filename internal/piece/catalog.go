package piece

import (
	"bufio"
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Catalog errors.
var (
	ErrUnknownFormat  = errors.New("unknown catalog format")
	ErrDuplicatePiece = errors.New("duplicate piece id")
	ErrMissingID      = errors.New("piece has no id")
)

// Format identifies a catalog file encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 4 * 1024 * 1024

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// LoadCatalog reads an ordered piece list from path.
func LoadCatalog(path string) ([]Piece, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	pieces, err := ParseCatalog(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return pieces, nil
}

// ParseCatalog decodes pieces from r and checks id uniqueness.
func ParseCatalog(r io.Reader, format Format) ([]Piece, error) {
	var (
		pieces []Piece
		err    error
	)

	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&pieces)
	case FormatJSONL:
		pieces, err = parseJSONL(r)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&pieces)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}

	if err := checkIDs(pieces); err != nil {
		return nil, err
	}
	return pieces, nil
}

func parseJSONL(r io.Reader) ([]Piece, error) {
	var pieces []Piece

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		var p Piece
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		pieces = append(pieces, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pieces, nil
}

func checkIDs(pieces []Piece) error {
	seen := make(map[string]struct{}, len(pieces))
	for i := range pieces {
		id := pieces[i].ID
		if id == "" {
			return fmt.Errorf("%w (index %d, %q)", ErrMissingID, i, pieces[i].DisplayName)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePiece, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// CountCategories returns the number of pieces per category tag, plus the
// number of uncategorized pieces.
func CountCategories(pieces []Piece) (counts map[Category]int, uncategorized int) {
	counts = make(map[Category]int)
	for i := range pieces {
		if len(pieces[i].Categories) == 0 {
			uncategorized++
			continue
		}
		for _, c := range pieces[i].Categories {
			counts[c]++
		}
	}
	return counts, uncategorized
}

// CategoryCount pairs a category tag with the number of pieces carrying it.
type CategoryCount struct {
	Category Category `json:"category" yaml:"category"`
	Count    int      `json:"count" yaml:"count"`
}

// SortedCategoryCounts returns CountCategories as a list ordered by count,
// most used first, then by tag.
func SortedCategoryCounts(pieces []Piece) (counts []CategoryCount, uncategorized int) {
	byTag, uncategorized := CountCategories(pieces)

	counts = make([]CategoryCount, 0, len(byTag))
	for c, n := range byTag {
		counts = append(counts, CategoryCount{Category: c, Count: n})
	}
	slices.SortFunc(counts, func(a, b CategoryCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return counts, uncategorized
}
