/*
Package main is the entry point for piece-hub CLI.

piece-hub finds integration pieces in a catalog by typo-tolerant free text
search and category, and serves the same discovery to AI clients over MCP.

Usage:
  piece-hub [command]

Available Commands:
  search      Search the piece catalog
  categories  List category tags in the catalog
  export      Export discovery results as a catalog file
  serve       Run the MCP server (stdio transport)
  history     Manage local search history
  config      Inspect or create the configuration file
  version     Show version information

Examples:
  # Write a config pointing at a catalog
  piece-hub --catalog ~/pieces/catalog.json config init

  # Find Google Sheets actions that add rows
  piece-hub search "gogle sheets add row" --nested

  # Run as MCP server
  piece-hub serve
*/
package main

import (
	"fmt"
	"os"

	"github.com/khanglvm/piece-hub/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
