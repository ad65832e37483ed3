// ctxprimer: project knowledge base and context primer for AI coding agents.
//
// ctxprimer indexes a source tree (symbols, call edges, domains, lock
// constraints, temporary-code markers, naming conventions) into a local
// SQLite cache, then selects a token-budgeted subset of context sections
// to prime a coding agent with.
//
// Usage:
//
//	ctxprimer index              # Scan the project into .ctxprimer/index.db
//	ctxprimer primer             # Generate a budget-constrained primer
//	ctxprimer query file X       # Look up a file, symbol, or domain
//	ctxprimer attempt start ...  # Track a debugging attempt
//	ctxprimer serve              # Start the MCP server (stdio transport)
//	ctxprimer watch              # Re-index automatically on file changes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctxprimer/ctxprimer/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "ctxprimer",
	Short: "Project knowledge base and context primer for AI coding agents",
	Long: `ctxprimer indexes a source tree into a structured knowledge base and
generates token-budgeted context primers from it.

Start with 'ctxprimer index', then 'ctxprimer primer' to see what an
agent would receive.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ctxprimer version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ctxprimer v%s\n", server.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
