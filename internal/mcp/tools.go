package mcp

import (
	"github.com/goccy/go-json"

	"github.com/khanglvm/piece-hub/internal/history"
	"github.com/khanglvm/piece-hub/internal/piece"
	"github.com/khanglvm/piece-hub/internal/search"
)

// SearchArgs are the pieces_search arguments.
type SearchArgs struct {
	search.Request

	// Limit caps the number of pieces returned. 0 returns all.
	Limit int `json:"limit,omitempty"`
}

// SearchResponse is the pieces_search payload.
type SearchResponse struct {
	// Total is the number of matches before Limit was applied.
	Total  int        `json:"total"`
	Pieces []PieceHit `json:"pieces"`
}

// PieceHit is one ranked piece. Actions and triggers are narrowed when
// Narrowed is set.
type PieceHit struct {
	piece.Piece
	Score    float64 `json:"score"`
	Narrowed bool    `json:"narrowed,omitempty"`
}

// CategoriesResponse is the pieces_categories payload.
type CategoriesResponse struct {
	Categories    []piece.CategoryCount `json:"categories"`
	Uncategorized int                   `json:"uncategorized"`
}

// execSearch runs a discovery request and records it in search history.
func (s *Server) execSearch(args SearchArgs) (string, error) {
	results, err := s.engine.Discover(s.pieces, args.Request)
	if err != nil {
		return "", err
	}

	if s.tracker != nil {
		s.tracker.Track(history.NewSearchEvent(args.Request, len(results)))
	}

	resp := SearchResponse{Total: len(results), Pieces: []PieceHit{}}
	if args.Limit > 0 && len(results) > args.Limit {
		results = results[:args.Limit]
	}
	for _, r := range results {
		resp.Pieces = append(resp.Pieces, PieceHit{
			Piece:    r.View(),
			Score:    r.Score,
			Narrowed: r.Narrowed,
		})
	}

	return marshalCompact(resp)
}

// execCategories counts pieces per category.
func (s *Server) execCategories() (string, error) {
	counts, uncategorized := piece.SortedCategoryCounts(s.pieces)
	return marshalCompact(CategoriesResponse{Categories: counts, Uncategorized: uncategorized})
}

// marshalCompact keeps tool output small for model context windows.
func marshalCompact(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
