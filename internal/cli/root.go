/*
Package cli implements the piece-hub commands.

Every command reads the same configuration and catalog, selected by the
persistent --config and --catalog flags, and writes its results to the
command's output stream. Logs go to stderr so stdout stays machine
readable.
*/
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/khanglvm/piece-hub/internal/version"
)

// GlobalOptions are the persistent root flags shared by all commands.
type GlobalOptions struct {
	ConfigPath  string
	CatalogPath string
	Debug       bool
}

// NewRootCmd creates the piece-hub root command with all subcommands.
func NewRootCmd() *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "piece-hub",
		Short: "Typo-tolerant discovery over an integration piece catalog",
		Long: `piece-hub finds integration pieces (Slack, Google Sheets, ...) in a catalog
by free text and category.

Matching is approximate: misspelled queries still find what they mean, and
results are ranked by how close and how early the query matches a piece's
name and description. Nested search also looks inside each piece's actions
and triggers and keeps only the best few.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(opts.Debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: ~/.piece-hub.json)")
	rootCmd.PersistentFlags().StringVar(&opts.CatalogPath, "catalog", "", "Catalog file, overrides the configured path")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(NewSearchCmd(opts))
	rootCmd.AddCommand(NewCategoriesCmd(opts))
	rootCmd.AddCommand(NewExportCmd(opts))
	rootCmd.AddCommand(NewServeCmd(opts))
	rootCmd.AddCommand(NewHistoryCmd(opts))
	rootCmd.AddCommand(NewConfigCmd(opts))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// setupLogging routes zerolog to stderr at info level, or debug.
func setupLogging(debug bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
}
