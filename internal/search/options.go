package search

import (
	"errors"
	"fmt"
)

// Error values for search operations.
var (
	// ErrInvalidOptions is returned when thresholds, limits or distances
	// are out of range.
	ErrInvalidOptions = errors.New("invalid search options")

	// ErrCatalogInconsistent means a piece matched during nested search
	// could not be found again in the catalog it came from. The whole
	// discovery call is aborted.
	ErrCatalogInconsistent = errors.New("catalog inconsistent: piece not found")
)

const (
	// DefaultPieceThreshold is the tolerance for piece-level search.
	DefaultPieceThreshold = 0.3

	// DefaultNestedThreshold is the stricter tolerance used when
	// searching actions and triggers.
	DefaultNestedThreshold = 0.2

	// DefaultSuggestionLimit is how many actions and how many triggers
	// are kept per piece in nested search.
	DefaultSuggestionLimit = 3

	// DefaultDistance is how many characters away from Location a match
	// may start before its score reaches 1.
	DefaultDistance = 100
)

// Options tunes one ranked search.
type Options struct {
	// Threshold is the highest per-field match score accepted, in [0,1].
	// 0 requires an exact match at Location.
	Threshold float64

	// Distance weighs how far from Location a match may be. 0 selects
	// DefaultDistance.
	Distance int

	// Location is where in a field a match is expected to start.
	Location int

	// Limit caps the number of hits after ranking. 0 means no limit.
	Limit int
}

func (o Options) distance() int {
	if o.Distance == 0 {
		return DefaultDistance
	}
	return o.Distance
}

// Validate checks that all values are in range.
func (o Options) Validate() error {
	if o.Threshold < 0 || o.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v not in [0,1]", ErrInvalidOptions, o.Threshold)
	}
	if o.Distance < 0 {
		return fmt.Errorf("%w: negative distance %d", ErrInvalidOptions, o.Distance)
	}
	if o.Location < 0 {
		return fmt.Errorf("%w: negative location %d", ErrInvalidOptions, o.Location)
	}
	if o.Limit < 0 {
		return fmt.Errorf("%w: negative limit %d", ErrInvalidOptions, o.Limit)
	}
	return nil
}

// DuplicatePolicy decides which sub-entity is kept when two suggestions
// of the same kind share a name.
type DuplicatePolicy string

const (
	// LastWins lets a later suggestion (in rank order) overwrite an
	// earlier one with the same name.
	LastWins DuplicatePolicy = "last"

	// FirstWins keeps the highest-ranked suggestion for each name.
	FirstWins DuplicatePolicy = "first"
)

// Config configures an Engine.
type Config struct {
	PieceThreshold  float64
	NestedThreshold float64
	SuggestionLimit int
	Distance        int
	Location        int
	DuplicatePolicy DuplicatePolicy
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		PieceThreshold:  DefaultPieceThreshold,
		NestedThreshold: DefaultNestedThreshold,
		SuggestionLimit: DefaultSuggestionLimit,
		Distance:        DefaultDistance,
		DuplicatePolicy: LastWins,
	}
}

// Validate checks that all values are in range.
func (c Config) Validate() error {
	if err := c.pieceOptions().Validate(); err != nil {
		return fmt.Errorf("piece search: %w", err)
	}
	if err := c.nestedOptions().Validate(); err != nil {
		return fmt.Errorf("nested search: %w", err)
	}
	if c.SuggestionLimit < 1 {
		return fmt.Errorf("%w: suggestion limit must be at least 1, got %d", ErrInvalidOptions, c.SuggestionLimit)
	}
	switch c.DuplicatePolicy {
	case LastWins, FirstWins:
	default:
		return fmt.Errorf("%w: unknown duplicate policy %q", ErrInvalidOptions, c.DuplicatePolicy)
	}
	return nil
}

func (c Config) pieceOptions() Options {
	return Options{Threshold: c.PieceThreshold, Distance: c.Distance, Location: c.Location}
}

func (c Config) nestedOptions() Options {
	return Options{Threshold: c.NestedThreshold, Distance: c.Distance, Location: c.Location}
}

func (c Config) suggestionOptions() Options {
	opts := c.nestedOptions()
	opts.Limit = c.SuggestionLimit
	return opts
}
