package search

import (
	"fmt"
	"strings"

	"github.com/khanglvm/piece-hub/internal/piece"
)

// flatten materializes each piece's actions and triggers as ordered
// lists, in mapping order.
func flatten(pieces []piece.Piece) []*flatPiece {
	flat := make([]*flatPiece, len(pieces))
	for i := range pieces {
		p := &pieces[i]
		flat[i] = &flatPiece{
			ID:          p.ID,
			DisplayName: p.DisplayName,
			Description: p.Description,
			Actions:     p.Actions.Values(),
			Triggers:    p.Triggers.Values(),
		}
	}
	return flat
}

// indexByID maps each id to its first piece, like a linear find would.
func indexByID(pieces []piece.Piece) map[string]*piece.Piece {
	byID := make(map[string]*piece.Piece, len(pieces))
	for i := range pieces {
		if _, seen := byID[pieces[i].ID]; !seen {
			byID[pieces[i].ID] = &pieces[i]
		}
	}
	return byID
}

// SearchNested ranks pieces by their own fields and by those of their
// actions and triggers, then narrows each matching piece's actions and
// triggers to the best SuggestionLimit matches of each kind.
// A blank query narrows nothing: it returns Search's unnarrowed identity.
func (e *Engine) SearchNested(pieces []piece.Piece, query string) (Results, error) {
	if strings.TrimSpace(query) == "" {
		return e.Search(pieces, query), nil
	}
	hits := Search(flatten(pieces), query, nestedPieceKeys, e.cfg.nestedOptions())
	return e.collapse(hits, indexByID(pieces), query)
}

// collapse regroups piece-level hits into results, in hit order. A hit
// whose piece cannot be found aborts the call.
func (e *Engine) collapse(hits []Hit[*flatPiece], byID map[string]*piece.Piece, query string) (Results, error) {
	opts := e.cfg.suggestionOptions()

	results := make(Results, 0, len(hits))
	for _, hit := range hits {
		original, ok := byID[hit.Item.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCatalogInconsistent, hit.Item.ID)
		}
		results = append(results, MatchResult{
			Piece:    original,
			Actions:  suggest(hit.Item.Actions, query, opts, e.cfg.DuplicatePolicy),
			Triggers: suggest(hit.Item.Triggers, query, opts, e.cfg.DuplicatePolicy),
			Score:    hit.Score,
			Narrowed: true,
		})
	}
	return results, nil
}

// suggest returns the top matches of items keyed by name. Suggestions are
// inserted in rank order; policy decides what happens on a repeated name.
func suggest[T piece.Capability](items []T, query string, opts Options, policy DuplicatePolicy) piece.Capabilities[T] {
	var out piece.Capabilities[T]
	for _, hit := range Search(items, query, CapabilityKeys[T](), opts) {
		name := hit.Item.GetName()
		if policy == FirstWins {
			if _, exists := out.Get(name); exists {
				continue
			}
		}
		out.Set(name, hit.Item)
	}
	return out
}
