package search

import (
	"cmp"
	"slices"
	"strings"
)

// Hit is one ranked search result.
type Hit[T any] struct {
	Item T

	// Index is the item's position in the searched slice.
	Index int

	// Score is the combined field score; lower is better, 0 is exact.
	Score float64
}

// Search ranks items against query. Items survive when at least one key
// value matches within opts.Threshold; survivors are sorted by ascending
// score, ties keeping input order, and cut to opts.Limit when set.
// A blank query returns every item in input order with score 0.
func Search[T any](items []T, query string, keys []Key[T], opts Options) []Hit[T] {
	if strings.TrimSpace(query) == "" {
		hits := make([]Hit[T], len(items))
		for i, item := range items {
			hits[i] = Hit[T]{Item: item, Index: i}
		}
		return hits
	}

	m := NewMatcher(query, opts)
	weights := normalizeWeights(keys)

	hits := make([]Hit[T], 0, len(items))
	for i, item := range items {
		score, ok := scoreItem(item, m, keys, weights)
		if !ok {
			continue
		}
		hits = append(hits, Hit[T]{Item: item, Index: i, Score: score})
	}

	slices.SortStableFunc(hits, func(a, b Hit[T]) int {
		return cmp.Compare(a.Score, b.Score)
	})

	if opts.Limit > 0 && len(hits) > opts.Limit {
		hits = hits[:opts.Limit]
	}
	return hits
}

// SearchItems is Search without scores.
func SearchItems[T any](items []T, query string, keys []Key[T], opts Options) []T {
	hits := Search(items, query, keys, opts)
	out := make([]T, len(hits))
	for i, h := range hits {
		out[i] = h.Item
	}
	return out
}
