package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/khanglvm/piece-hub/internal/piece"
)

// NewCategoriesCmd creates the 'categories' command for listing category tags.
func NewCategoriesCmd(opts *GlobalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cats", "ls"},
		Short:   "List category tags in the catalog",
		Long:    `Display every category tag used in the catalog with the number of pieces carrying it.`,
		Example: `  piece-hub categories
  piece-hub cats --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCategories(cmd.OutOrStdout(), opts, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

// runCategories prints category counts, most used first.
func runCategories(w io.Writer, opts *GlobalOptions, jsonOutput bool) error {
	env, err := loadEnvironment(opts)
	if err != nil {
		return err
	}

	counts, uncategorized := piece.SortedCategoryCounts(env.pieces)

	if jsonOutput {
		data, err := json.MarshalIndent(struct {
			Pieces        int                   `json:"pieces"`
			Categories    []piece.CategoryCount `json:"categories"`
			Uncategorized int                   `json:"uncategorized"`
		}{len(env.pieces), counts, uncategorized}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	if len(env.pieces) == 0 {
		fmt.Fprintln(w, "Catalog is empty.")
		return nil
	}

	fmt.Fprintf(w, "Categories (%d pieces):\n\n", len(env.pieces))
	for _, c := range counts {
		fmt.Fprintf(w, "  %-28s %d\n", c.Category, c.Count)
	}
	if uncategorized > 0 {
		fmt.Fprintf(w, "  %-28s %d\n", "(uncategorized)", uncategorized)
	}

	return nil
}
