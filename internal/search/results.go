/*
Package search implements approximate-match discovery over a piece catalog.

Queries are matched against piece fields with a case-insensitive bitap
scan that tolerates a bounded number of edits and prefers matches near the
start of a field. Per-field scores are folded into one weighted score per
piece, pieces are ranked by it, and the ranked list is then filtered by
category. In nested mode the search also looks inside each piece's actions
and triggers and narrows them to the best few matches.

The engine is pure: it never writes to the pieces it is given and keeps no
state between calls.
*/
package search

import (
	"github.com/khanglvm/piece-hub/internal/piece"
)

// MatchResult is a piece selected by discovery, with the actions and
// triggers to show for it.
type MatchResult struct {
	// Piece is the catalog entry. It is never modified.
	Piece *piece.Piece

	// Actions and Triggers are the piece's own mappings, or the narrowed
	// suggestions when Narrowed is set.
	Actions  piece.Actions
	Triggers piece.Triggers

	// Score is the piece-level score (0 when no query was given).
	Score float64

	// Narrowed reports whether Actions and Triggers were replaced by
	// nested-search suggestions.
	Narrowed bool
}

// View returns a copy of the piece carrying the result's actions and
// triggers.
func (r MatchResult) View() piece.Piece {
	p := *r.Piece
	p.Actions = r.Actions
	p.Triggers = r.Triggers
	return p
}

// Results is a slice of MatchResult with helper methods.
type Results []MatchResult

// IDs returns the piece IDs in result order.
func (r Results) IDs() []string {
	ids := make([]string, len(r))
	for i, result := range r {
		ids[i] = result.Piece.ID
	}
	return ids
}

// Pieces returns the piece views in result order.
func (r Results) Pieces() []piece.Piece {
	pieces := make([]piece.Piece, len(r))
	for i, result := range r {
		pieces[i] = result.View()
	}
	return pieces
}
