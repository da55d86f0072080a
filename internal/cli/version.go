/*
Package cli implements the version command for piece-hub.

The version command displays version, commit, and build date information.
*/
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/piece-hub/internal/version"
)

// NewVersionCmd creates the 'version' command
func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version, commit hash, and build date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			w := cmd.OutOrStdout()
			if jsonOutput {
				return printJSON(w, info)
			}
			fmt.Fprintf(w, "Version:  %s\n", info.Version)
			fmt.Fprintf(w, "Commit:   %s\n", info.Commit)
			fmt.Fprintf(w, "Built:    %s\n", info.Date)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
