package search

import (
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/piece-hub/internal/piece"
)

func examplePieces() []piece.Piece {
	return []piece.Piece{
		{
			ID:          "1",
			DisplayName: "Slack",
			Description: "Messaging",
			Categories:  []piece.Category{"comms"},
			Actions: piece.NewCapabilities(
				piece.Action{Name: "send", DisplayName: "Send Message", Description: "Posts a message"},
			),
		},
		{
			ID:          "2",
			DisplayName: "Sheets",
			Description: "Spreadsheets",
			Categories:  []piece.Category{"data"},
		},
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestDiscover_TypoMatchesPiece(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.Discover(examplePieces(), Request{SearchQuery: "slck"})
	require.NoError(t, err)

	assert.Equal(t, []string{"1"}, results.IDs())
	assert.False(t, results[0].Narrowed)
	assert.Equal(t, 1, results[0].Actions.Len())
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
}

func TestDiscover_CategoryOnly(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.Discover(examplePieces(), Request{Categories: []piece.Category{"data"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"2"}, results.IDs())
}

func TestDiscover_NestedNarrowsActions(t *testing.T) {
	e := newTestEngine(t)
	pieces := examplePieces()

	results, err := e.Discover(pieces, Request{SearchQuery: "message", IncludeActionsAndTriggers: true})
	require.NoError(t, err)
	require.Equal(t, []string{"1"}, results.IDs())

	r := results[0]
	assert.True(t, r.Narrowed)
	assert.Same(t, &pieces[0], r.Piece)
	assert.Equal(t, []string{"send"}, r.Actions.Names())
	assert.Equal(t, 0, r.Triggers.Len())

	data, err := json.Marshal(r.View())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"triggers":{}`)
	assert.Contains(t, string(data), `"actions":{"send":`)
}

func TestDiscover_NestedWithoutQueryIsPlain(t *testing.T) {
	e := newTestEngine(t)

	results, err := e.Discover(examplePieces(), Request{IncludeActionsAndTriggers: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2"}, results.IDs())
	for _, r := range results {
		assert.False(t, r.Narrowed)
	}
}

func TestDiscover_EmptyQueryEqualsCategoryFilter(t *testing.T) {
	e := newTestEngine(t)
	pieces := append(examplePieces(),
		piece.Piece{ID: "3", DisplayName: "Gmail", Categories: []piece.Category{"comms", "data"}},
		piece.Piece{ID: "4", DisplayName: "Webhook"},
	)

	for _, cats := range [][]piece.Category{nil, {}, {"comms"}, {"data"}, {"comms", "data"}, {"none"}} {
		results, err := e.Discover(pieces, Request{Categories: cats})
		require.NoError(t, err)

		want := FilterByCategory(e.Search(pieces, ""), cats)
		assert.Equal(t, want.IDs(), results.IDs(), "categories %v", cats)
	}
}

func TestDiscover_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t)
	pieces := examplePieces()
	before, err := json.Marshal(pieces)
	require.NoError(t, err)

	_, err = e.Discover(pieces, Request{SearchQuery: "message", IncludeActionsAndTriggers: true})
	require.NoError(t, err)

	after, err := json.Marshal(pieces)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestDiscover_ConcurrentCalls(t *testing.T) {
	e := newTestEngine(t)
	pieces := examplePieces()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := e.Discover(pieces, Request{SearchQuery: "message", IncludeActionsAndTriggers: true})
			assert.NoError(t, err)
			assert.Equal(t, []string{"1"}, results.IDs())
		}()
	}
	wg.Wait()
}

func TestFilterByCategory(t *testing.T) {
	pieces := []piece.Piece{
		{ID: "a", Categories: []piece.Category{"x"}},
		{ID: "b"},
		{ID: "c", Categories: []piece.Category{"y", "x"}},
		{ID: "d", Categories: []piece.Category{"z"}},
	}
	results := newTestEngine(t).Search(pieces, "")

	tests := []struct {
		name       string
		categories []piece.Category
		want       []string
	}{
		{name: "absent", categories: nil, want: []string{"a", "b", "c", "d"}},
		{name: "empty set", categories: []piece.Category{}, want: []string{}},
		{name: "single", categories: []piece.Category{"x"}, want: []string{"a", "c"}},
		{name: "union", categories: []piece.Category{"z", "y"}, want: []string{"c", "d"}},
		{name: "unknown", categories: []piece.Category{"w"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByCategory(results, tt.categories)
			assert.Equal(t, tt.want, got.IDs())
		})
	}
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative threshold", mutate: func(c *Config) { c.PieceThreshold = -0.1 }},
		{name: "threshold above one", mutate: func(c *Config) { c.NestedThreshold = 1.5 }},
		{name: "zero suggestion limit", mutate: func(c *Config) { c.SuggestionLimit = 0 }},
		{name: "negative distance", mutate: func(c *Config) { c.Distance = -1 }},
		{name: "negative location", mutate: func(c *Config) { c.Location = -3 }},
		{name: "unknown policy", mutate: func(c *Config) { c.DuplicatePolicy = "random" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewEngine(cfg)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.3, cfg.PieceThreshold)
	assert.Equal(t, 0.2, cfg.NestedThreshold)
	assert.Equal(t, 3, cfg.SuggestionLimit)
	assert.Equal(t, LastWins, cfg.DuplicatePolicy)
	assert.NoError(t, cfg.Validate())
}
