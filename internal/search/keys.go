package search

import (
	"math"
	"strings"

	"github.com/khanglvm/piece-hub/internal/piece"
)

// Key names. Each entity kind declares a fixed key set built from these.
const (
	KeyDisplayName        = "displayName"
	KeyDescription        = "description"
	KeyActionDisplayName  = "actions.displayName"
	KeyActionDescription  = "actions.description"
	KeyTriggerDisplayName = "triggers.displayName"
	KeyTriggerDescription = "triggers.description"
)

// epsilon replaces an exact (0) field score so the weighted product stays
// informative about the other fields.
const epsilon = 2.220446049250313e-16

// Key extracts the searchable texts of one field from an item.
// Weight is relative to the other keys of the same set; 0 counts as 1.
type Key[T any] struct {
	Name   string
	Weight float64
	Values func(T) []string
}

// PieceKeys searches a piece by its own display name and description.
var PieceKeys = []Key[*piece.Piece]{
	{Name: KeyDisplayName, Values: func(p *piece.Piece) []string { return []string{p.DisplayName} }},
	{Name: KeyDescription, Values: func(p *piece.Piece) []string { return []string{p.Description} }},
}

// CapabilityKeys searches an action or trigger by its display name and
// description.
func CapabilityKeys[T piece.Capability]() []Key[T] {
	return []Key[T]{
		{Name: KeyDisplayName, Values: func(c T) []string { return []string{c.GetDisplayName()} }},
		{Name: KeyDescription, Values: func(c T) []string { return []string{c.GetDescription()} }},
	}
}

// flatPiece is a piece with its actions and triggers materialized as
// ordered lists, so nested fields can be searched as arrays.
type flatPiece struct {
	ID          string
	DisplayName string
	Description string
	Actions     []piece.Action
	Triggers    []piece.Trigger
}

// nestedPieceKeys searches a piece by its own fields and by every action
// and trigger it exposes.
var nestedPieceKeys = []Key[*flatPiece]{
	{Name: KeyDisplayName, Values: func(p *flatPiece) []string { return []string{p.DisplayName} }},
	{Name: KeyDescription, Values: func(p *flatPiece) []string { return []string{p.Description} }},
	{Name: KeyActionDisplayName, Values: func(p *flatPiece) []string { return displayNames(p.Actions) }},
	{Name: KeyActionDescription, Values: func(p *flatPiece) []string { return descriptions(p.Actions) }},
	{Name: KeyTriggerDisplayName, Values: func(p *flatPiece) []string { return displayNames(p.Triggers) }},
	{Name: KeyTriggerDescription, Values: func(p *flatPiece) []string { return descriptions(p.Triggers) }},
}

func displayNames[T piece.Capability](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.GetDisplayName()
	}
	return out
}

func descriptions[T piece.Capability](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.GetDescription()
	}
	return out
}

// normalizeWeights scales key weights to sum to 1.
func normalizeWeights[T any](keys []Key[T]) []float64 {
	weights := make([]float64, len(keys))
	total := 0.0
	for i, k := range keys {
		w := k.Weight
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// fieldNorm is 1/sqrt(number of space-separated tokens), rounded to three
// decimals. Matches in short fields count for more than in long ones.
func fieldNorm(value string) float64 {
	tokens := len(strings.FieldsFunc(value, func(r rune) bool { return r == ' ' }))
	if tokens == 0 {
		tokens = 1
	}
	return math.Round(1/math.Sqrt(float64(tokens))*1000) / 1000
}

// scoreItem matches every value of every key and folds the matches into
// one score: the product of score^(weight*norm). Values that do not match
// are left out. ok is false when no value matched.
func scoreItem[T any](item T, m *Matcher, keys []Key[T], weights []float64) (score float64, ok bool) {
	score = 1
	for k, key := range keys {
		for _, value := range key.Values(item) {
			if strings.TrimSpace(value) == "" {
				continue
			}
			s, hit := m.Match(value)
			if !hit {
				continue
			}
			ok = true
			if s == 0 {
				s = epsilon
			}
			score *= math.Pow(s, weights[k]*fieldNorm(value))
		}
	}
	if !ok {
		return 1, false
	}
	return score, true
}

// Score returns the combined score of item for query over keys, and
// whether any key matched within opts.Threshold.
func Score[T any](item T, query string, keys []Key[T], opts Options) (float64, bool) {
	if strings.TrimSpace(query) == "" {
		return 0, true
	}
	return scoreItem(item, NewMatcher(query, opts), keys, normalizeWeights(keys))
}
