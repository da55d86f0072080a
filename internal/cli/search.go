package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/khanglvm/piece-hub/internal/history"
	"github.com/khanglvm/piece-hub/internal/search"
)

// searchOutput is the --json payload of the search command.
type searchOutput struct {
	Total   int               `json:"total"`
	Results []searchOutputHit `json:"results"`
}

type searchOutputHit struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Score       float64  `json:"score"`
	Categories  []string `json:"categories,omitempty"`
	Actions     []string `json:"actions"`
	Triggers    []string `json:"triggers"`
	Narrowed    bool     `json:"narrowed,omitempty"`
}

// NewSearchCmd creates the 'search' command.
func NewSearchCmd(opts *GlobalOptions) *cobra.Command {
	var (
		categories []string
		nested     bool
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "search [query...]",
		Aliases: []string{"find", "s"},
		Short:   "Search the piece catalog",
		Long: `Rank catalog pieces by how well their display name and description match
the query. Misspellings are tolerated.

With --nested the query is also matched against each piece's actions and
triggers, and only the best few of each are shown.

Without a query all pieces are listed in catalog order, which together
with --category lists a category.`,
		Example: `  piece-hub search slack
  piece-hub search "send message" --nested
  piece-hub search --category COMMUNICATION
  piece-hub search gogle sheets -c PRODUCTIVITY -l 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := search.Request{
				SearchQuery:               strings.Join(args, " "),
				Categories:                toCategories(categories, cmd.Flags().Changed("category")),
				IncludeActionsAndTriggers: nested,
			}
			return runSearch(cmd.OutOrStdout(), opts, req, limit, jsonOutput)
		},
	}

	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "Keep pieces with any of these categories (repeatable)")
	cmd.Flags().BoolVarP(&nested, "nested", "n", false, "Also search actions and triggers")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of pieces to show (0 for all)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// runSearch runs one discovery request and prints the ranked pieces.
func runSearch(w io.Writer, opts *GlobalOptions, req search.Request, limit int, jsonOutput bool) error {
	if limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	env, err := loadEnvironment(opts)
	if err != nil {
		return err
	}

	results, err := env.engine.Discover(env.pieces, req)
	if err != nil {
		return err
	}

	tracker, stop := newTracker(env.cfg)
	tracker.Track(history.NewSearchEvent(req, len(results)))
	stop()

	total := len(results)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if jsonOutput {
		return printSearchJSON(w, total, results)
	}
	printSearchText(w, total, results)
	return nil
}

func printSearchJSON(w io.Writer, total int, results search.Results) error {
	out := searchOutput{Total: total, Results: make([]searchOutputHit, 0, len(results))}
	for _, r := range results {
		hit := searchOutputHit{
			ID:          r.Piece.ID,
			DisplayName: r.Piece.DisplayName,
			Score:       r.Score,
			Actions:     r.Actions.Names(),
			Triggers:    r.Triggers.Names(),
			Narrowed:    r.Narrowed,
		}
		for _, c := range r.Piece.Categories {
			hit.Categories = append(hit.Categories, string(c))
		}
		out.Results = append(out.Results, hit)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printSearchText(w io.Writer, total int, results search.Results) {
	if total == 0 {
		fmt.Fprintln(w, "No pieces found.")
		return
	}

	if len(results) < total {
		fmt.Fprintf(w, "Found %d pieces (showing %d):\n\n", total, len(results))
	} else {
		fmt.Fprintf(w, "Found %d pieces:\n\n", total)
	}

	for i, r := range results {
		fmt.Fprintf(w, "%d. %s (%s)  score %.3f\n", i+1, r.Piece.DisplayName, r.Piece.ID, r.Score)
		if r.Piece.Description != "" {
			fmt.Fprintf(w, "   %s\n", r.Piece.Description)
		}
		if len(r.Piece.Categories) > 0 {
			tags := make([]string, len(r.Piece.Categories))
			for j, c := range r.Piece.Categories {
				tags[j] = string(c)
			}
			fmt.Fprintf(w, "   Categories: %s\n", strings.Join(tags, ", "))
		}
		if r.Narrowed {
			fmt.Fprintf(w, "   Actions:    %s\n", joinOrNone(r.Actions.Names()))
			fmt.Fprintf(w, "   Triggers:   %s\n", joinOrNone(r.Triggers.Names()))
		} else {
			fmt.Fprintf(w, "   %d actions, %d triggers\n", r.Actions.Len(), r.Triggers.Len())
		}
	}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
