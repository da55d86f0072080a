package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/piece-hub/internal/piece"
)

func sheetsPiece() piece.Piece {
	return piece.Piece{
		ID:          "sheets",
		DisplayName: "Google Sheets",
		Description: "Create, edit, and collaborate on spreadsheets online",
		Actions: piece.NewCapabilities(
			piece.Action{Name: "create_row", DisplayName: "Create Row"},
			piece.Action{Name: "create_sheet", DisplayName: "Create Sheet"},
			piece.Action{Name: "create_column", DisplayName: "Create Column"},
			piece.Action{Name: "create_chart", DisplayName: "Create Chart"},
			piece.Action{Name: "create_file", DisplayName: "Create File"},
			piece.Action{Name: "delete_row", DisplayName: "Delete Row"},
		),
		Triggers: piece.NewCapabilities(
			piece.Trigger{Name: "new_row", DisplayName: "New Row", Description: "Triggers when a row is created"},
			piece.Trigger{Name: "new_sheet", DisplayName: "New Sheet", Description: "Triggers when a sheet is created"},
			piece.Trigger{Name: "new_file", DisplayName: "New File", Description: "Triggers when a file is created"},
			piece.Trigger{Name: "new_chart", DisplayName: "New Chart", Description: "Triggers when a chart is created"},
		),
	}
}

func TestSearchNested_BoundsSuggestions(t *testing.T) {
	e := newTestEngine(t)
	pieces := []piece.Piece{sheetsPiece()}

	results, err := e.SearchNested(pieces, "create")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, []string{"create_row", "create_sheet", "create_column"}, r.Actions.Names())
	assert.LessOrEqual(t, r.Triggers.Len(), DefaultSuggestionLimit)
	assert.Equal(t, 6, pieces[0].Actions.Len(), "original mapping untouched")
}

func TestSearchNested_RespectsSuggestionLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SuggestionLimit = 1
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	results, err := e.SearchNested([]piece.Piece{sheetsPiece()}, "create")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"create_row"}, results[0].Actions.Names())
	assert.LessOrEqual(t, results[0].Triggers.Len(), 1)
}

func TestSearchNested_BlankQueryDoesNotNarrow(t *testing.T) {
	e := newTestEngine(t)
	pieces := []piece.Piece{sheetsPiece()}

	for _, query := range []string{"", "   "} {
		results, err := e.SearchNested(pieces, query)
		require.NoError(t, err)
		require.Len(t, results, 1)

		r := results[0]
		assert.False(t, r.Narrowed, "query %q", query)
		assert.Equal(t, pieces[0].Actions.Names(), r.Actions.Names())
		assert.Equal(t, pieces[0].Triggers.Names(), r.Triggers.Names())
	}
}

func TestSearchNested_NoFabricatedEntities(t *testing.T) {
	e := newTestEngine(t)
	pieces := append(examplePieces(), sheetsPiece())

	for _, query := range []string{"create", "message", "row", "sheet", "new"} {
		results, err := e.SearchNested(pieces, query)
		require.NoError(t, err)

		for _, r := range results {
			for name, action := range r.Actions.All() {
				original, ok := r.Piece.Actions.Get(name)
				require.True(t, ok, "query %q: action %q not in %s", query, name, r.Piece.ID)
				assert.Equal(t, original, action)
			}
			for name := range r.Triggers.All() {
				_, ok := r.Piece.Triggers.Get(name)
				assert.True(t, ok, "query %q: trigger %q not in %s", query, name, r.Piece.ID)
			}
			assert.LessOrEqual(t, r.Actions.Len(), DefaultSuggestionLimit)
			assert.LessOrEqual(t, r.Triggers.Len(), DefaultSuggestionLimit)
		}
	}
}

func TestSearchNested_MatchesThroughSubEntities(t *testing.T) {
	e := newTestEngine(t)
	pieces := []piece.Piece{
		{ID: "plain", DisplayName: "Webhook", Description: "Receive HTTP requests"},
		sheetsPiece(),
	}

	results, err := e.SearchNested(pieces, "delete row")
	require.NoError(t, err)

	require.Equal(t, []string{"sheets"}, results.IDs())
	assert.Equal(t, []string{"delete_row"}, results[0].Actions.Names())
	assert.Equal(t, 0, results[0].Triggers.Len())
}

func TestSearchNested_DuplicateNames(t *testing.T) {
	// Two entries share the name "dup"; "Create Row" ranks above
	// "Create Rows" for the query "create row".
	p := piece.Piece{ID: "dup", DisplayName: "Duplicates"}
	p.Actions.Set("exact", piece.Action{Name: "dup", DisplayName: "Create Row"})
	p.Actions.Set("prefix", piece.Action{Name: "dup", DisplayName: "Create Rows"})

	tests := []struct {
		policy DuplicatePolicy
		want   string
	}{
		{policy: LastWins, want: "Create Rows"},
		{policy: FirstWins, want: "Create Row"},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.DuplicatePolicy = tt.policy
			e, err := NewEngine(cfg)
			require.NoError(t, err)

			results, err := e.SearchNested([]piece.Piece{p}, "create row")
			require.NoError(t, err)
			require.Len(t, results, 1)

			require.Equal(t, 1, results[0].Actions.Len())
			got, ok := results[0].Actions.Get("dup")
			require.True(t, ok)
			assert.Equal(t, tt.want, got.DisplayName)
		})
	}
}

func TestCollapse_MissingPieceAborts(t *testing.T) {
	e := newTestEngine(t)
	pieces := examplePieces()

	hits := []Hit[*flatPiece]{
		{Item: flatten(pieces)[0]},
		{Item: &flatPiece{ID: "ghost", DisplayName: "Ghost"}},
	}

	results, err := e.collapse(hits, indexByID(pieces), "message")
	assert.ErrorIs(t, err, ErrCatalogInconsistent)
	assert.ErrorContains(t, err, "ghost")
	assert.Nil(t, results)
}

func TestIndexByID_FirstOccurrenceWins(t *testing.T) {
	pieces := []piece.Piece{
		{ID: "x", DisplayName: "first"},
		{ID: "x", DisplayName: "second"},
	}

	byID := indexByID(pieces)
	require.Len(t, byID, 1)
	assert.Equal(t, "first", byID["x"].DisplayName)
}

func TestFlatten_PreservesMappingOrder(t *testing.T) {
	p := sheetsPiece()
	flat := flatten([]piece.Piece{p})

	require.Len(t, flat, 1)
	names := make([]string, len(flat[0].Actions))
	for i, a := range flat[0].Actions {
		names[i] = a.Name
	}
	assert.Equal(t, p.Actions.Names(), names)
	assert.Len(t, flat[0].Triggers, 4)
}
