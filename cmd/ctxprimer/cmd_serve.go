package main

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/ctxprimer/ctxprimer/internal/server"
)

var serveRoot string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start the MCP server over stdio. Tools exposed:

  primer_generate    - budget-constrained context primer
  kb_query           - file/symbol/domain lookup
  constraints_check  - lock level for a file path

Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "ctxprimer": {
        "command": "ctxprimer",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveRoot, "root", ".", "project root")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, cleanup, err := server.New(serveRoot)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	return mcpserver.ServeStdio(s)
}
