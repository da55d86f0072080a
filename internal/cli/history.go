/*
Package cli provides commands for managing search history.

History is kept locally in ~/.piece-hub/history.db. Queries are stored only
as SHA256 hashes.
*/
package cli

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/khanglvm/piece-hub/internal/config"
	"github.com/khanglvm/piece-hub/internal/storage"
)

// NewHistoryCmd creates the history command group.
func NewHistoryCmd(opts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage local search history",
		Long: `Every search made through the CLI or the tool server is recorded locally:
a hash of the query, the category filter, whether the search was nested and
the number of results.

Commands:
  stats    Show search statistics
  recent   List the most recent searches
  prune    Delete records older than the retention period
  clear    Delete all history
  disable  Turn off recording
  enable   Turn on recording`,
	}

	cmd.AddCommand(newHistoryStatsCmd(opts))
	cmd.AddCommand(newHistoryRecentCmd(opts))
	cmd.AddCommand(newHistoryPruneCmd(opts))
	cmd.AddCommand(newHistoryClearCmd(opts))
	cmd.AddCommand(newHistoryToggleCmd(opts, false))
	cmd.AddCommand(newHistoryToggleCmd(opts, true))

	return cmd
}

// openHistory opens the configured history store. The caller closes it.
func openHistory(opts *GlobalOptions) (*storage.SQLiteStorage, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	store, err := openStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, cfg, nil
}

// newHistoryStatsCmd shows aggregate statistics.
func newHistoryStatsCmd(opts *GlobalOptions) *cobra.Command {
	var (
		days       int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show search statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}

			store, _, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			stats, err := store.Stats(time.Now().AddDate(0, 0, -days))
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			if jsonOutput {
				return printJSON(w, stats)
			}

			if !store.Enabled() {
				fmt.Fprintln(w, "Search history is disabled.")
				fmt.Fprintln(w, "Run 'piece-hub history enable' to turn it on.")
				return nil
			}

			fmt.Fprintln(w, "Search History")
			fmt.Fprintln(w, "==============")
			fmt.Fprintf(w, "Window:          last %d days\n", days)
			fmt.Fprintf(w, "Searches:        %d\n", stats.Total)
			fmt.Fprintf(w, "Nested:          %d\n", stats.Nested)
			fmt.Fprintf(w, "No results:      %d\n", stats.ZeroResults)
			fmt.Fprintf(w, "Avg results:     %.1f\n", stats.AvgResults)
			if len(stats.Categories) > 0 {
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Category filters:")
				for _, c := range sortedCounts(stats.Categories) {
					fmt.Fprintf(w, "  %-28s %d\n", c.name, c.count)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 7, "Number of days to include")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// newHistoryRecentCmd lists recent searches.
func newHistoryRecentCmd(opts *GlobalOptions) *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List the most recent searches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			store, _, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.RecentSearches(limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(w, records)
			}

			if len(records) == 0 {
				fmt.Fprintln(w, "No searches recorded.")
				return nil
			}

			for _, r := range records {
				query := "(no query)"
				if r.QueryHash != "" {
					query = r.QueryHash[:12]
				}
				line := fmt.Sprintf("%s  %-12s  %3d results", r.Timestamp.Local().Format(time.DateTime), query, r.ResultsCount)
				if r.Nested {
					line += "  nested"
				}
				if len(r.Categories) > 0 {
					line += "  [" + strings.Join(r.Categories, ", ") + "]"
				}
				fmt.Fprintln(w, line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of searches to show")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	return cmd
}

// newHistoryPruneCmd deletes records past the retention period.
func newHistoryPruneCmd(opts *GlobalOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete records older than the retention period",
		Long: `Delete search records older than history.retentionDays from the config
(default 30), or --days when given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openHistory(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			if !cmd.Flags().Changed("days") {
				days = cfg.History.RetentionDays
			}
			if days <= 0 {
				return fmt.Errorf("retention must be positive, got %d days", days)
			}

			if err := store.Cleanup(time.Duration(days) * 24 * time.Hour); err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed searches older than %d days\n", days)
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Retention in days (default: history.retentionDays)")
	return cmd
}

// newHistoryClearCmd deletes the history database.
func newHistoryClearCmd(opts *GlobalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all search history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !yes && !confirm(cmd.InOrStdin(), w, "This will delete all search history. Continue? (y/N): ") {
				fmt.Fprintln(w, "Cancelled")
				return nil
			}

			dbPath, err := config.ExpandPath(cfg.History.Path)
			if err != nil {
				return err
			}
			if dbPath == "" {
				fmt.Fprintln(w, "No search history found")
				return nil
			}

			if err := os.Remove(dbPath); err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(w, "No search history found")
					return nil
				}
				return fmt.Errorf("failed to delete database: %w", err)
			}

			fmt.Fprintln(w, "Search history cleared successfully")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// newHistoryToggleCmd creates 'enable' or 'disable', which persist the
// history.enabled setting.
func newHistoryToggleCmd(opts *GlobalOptions, enable bool) *cobra.Command {
	use, short := "disable", "Turn off search recording"
	if enable {
		use, short = "enable", "Turn on search recording"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return err
			}

			cfg, err := config.LoadOrCreate(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			cfg.History.Enabled = enable
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Search history %sd in %s\n", use, path)
			return nil
		},
	}
}

// confirm asks a yes/no question on w and reads the answer from r.
func confirm(r io.Reader, w io.Writer, prompt string) bool {
	fmt.Fprint(w, prompt)
	answer, _ := bufio.NewReader(r).ReadString('\n')
	answer = strings.TrimSpace(answer)
	return answer == "y" || answer == "Y"
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

type nameCount struct {
	name  string
	count int
}

// sortedCounts orders a count map by count, then name.
func sortedCounts(m map[string]int) []nameCount {
	counts := make([]nameCount, 0, len(m))
	for name, count := range m {
		counts = append(counts, nameCount{name, count})
	}
	slices.SortFunc(counts, func(a, b nameCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	return counts
}
