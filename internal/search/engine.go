package search

import (
	"github.com/khanglvm/piece-hub/internal/piece"
)

// Request is a caller's discovery request.
type Request struct {
	// SearchQuery is free text. A blank (empty or whitespace-only) query
	// is treated as absent: no text filtering and no narrowing.
	SearchQuery string `json:"searchQuery,omitempty"`

	// Categories restricts results to pieces carrying any of these tags.
	// nil means no category filtering.
	Categories []piece.Category `json:"categories,omitempty"`

	// IncludeActionsAndTriggers also searches inside actions and triggers
	// and narrows them in the results.
	IncludeActionsAndTriggers bool `json:"includeActionsAndTriggers,omitempty"`
}

// Engine runs discovery requests. It holds only configuration and is safe
// for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Discover searches pieces, then filters the ranked list by category.
func (e *Engine) Discover(pieces []piece.Piece, req Request) (Results, error) {
	var (
		results Results
		err     error
	)

	if req.IncludeActionsAndTriggers {
		results, err = e.SearchNested(pieces, req.SearchQuery)
		if err != nil {
			return nil, err
		}
	} else {
		results = e.Search(pieces, req.SearchQuery)
	}

	return FilterByCategory(results, req.Categories), nil
}

// Search ranks pieces by display name and description. Results carry the
// pieces' own actions and triggers.
func (e *Engine) Search(pieces []piece.Piece, query string) Results {
	refs := make([]*piece.Piece, len(pieces))
	for i := range pieces {
		refs[i] = &pieces[i]
	}

	hits := Search(refs, query, PieceKeys, e.cfg.pieceOptions())

	results := make(Results, len(hits))
	for i, hit := range hits {
		results[i] = MatchResult{
			Piece:    hit.Item,
			Actions:  hit.Item.Actions,
			Triggers: hit.Item.Triggers,
			Score:    hit.Score,
		}
	}
	return results
}

// FilterByCategory keeps the results whose piece carries at least one of
// categories, in order. A nil categories slice keeps everything.
func FilterByCategory(results Results, categories []piece.Category) Results {
	if categories == nil {
		return results
	}

	filtered := make(Results, 0, len(results))
	for _, r := range results {
		if r.Piece.HasAnyCategory(categories) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
