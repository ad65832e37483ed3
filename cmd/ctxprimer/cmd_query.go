package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctxprimer/ctxprimer/internal/config"
	"github.com/ctxprimer/ctxprimer/internal/index"
)

var (
	queryRoot  string
	queryCache string
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query {file|symbol|domain} NAME",
	Short: "Look up a file, symbol, or domain in the knowledge base",
	Long: `Query the index for one entity.

Examples:
  ctxprimer query file internal/auth/token.go
  ctxprimer query symbol ValidateToken
  ctxprimer query domain auth --json`,
	Args: cobra.ExactArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryRoot, "root", ".", "project root")
	queryCmd.Flags().StringVar(&queryCache, "cache", "", "index database path (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "emit JSON instead of text")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	kind, name := args[0], args[1]

	cfg, err := config.Load(queryRoot)
	if err != nil {
		return err
	}
	store, err := index.Open(cachePath(cfg, queryRoot, queryCache))
	if err != nil {
		return fmt.Errorf("index cache unavailable, run 'ctxprimer index' first: %w", err)
	}
	defer store.Close()

	switch kind {
	case "file":
		detail, err := store.FileInfo(name)
		if err != nil {
			return err
		}
		if queryJSON {
			return printJSON(detail)
		}
		printFile(detail)
	case "symbol":
		details, err := store.SymbolInfo(name)
		if err != nil {
			return err
		}
		if queryJSON {
			return printJSON(details)
		}
		for _, d := range details {
			printSymbol(d)
		}
	case "domain":
		detail, err := store.DomainInfo(name)
		if err != nil {
			return err
		}
		if queryJSON {
			return printJSON(detail)
		}
		printDomain(detail)
	default:
		return fmt.Errorf("unknown query kind %q (want file, symbol, or domain)", kind)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printFile(d *index.FileDetail) {
	fmt.Printf("%s (%s)\n", d.Path, orNone(d.Language))
	if d.Domain != "" {
		fmt.Printf("  domain:  %s\n", d.Domain)
	}
	if d.Purpose != "" {
		fmt.Printf("  purpose: %s\n", d.Purpose)
	}
	if d.LockLevel != "" {
		fmt.Printf("  lock:    %s", d.LockLevel)
		if d.LockReason != "" {
			fmt.Printf(" (%s)", d.LockReason)
		}
		fmt.Println()
	}
	if len(d.Symbols) > 0 {
		fmt.Println("  symbols:")
		for _, s := range d.Symbols {
			fmt.Printf("    %-10s %s:%d  %s\n", s.Kind, shortPath(s.File), s.Line, s.Name)
		}
	}
}

func printSymbol(d index.SymbolDetail) {
	fmt.Printf("%s (%s) %s:%d\n", d.Name, d.Kind, d.File, d.Line)
	if d.Signature != "" {
		fmt.Printf("  %s\n", d.Signature)
	}
	if len(d.Callers) > 0 {
		fmt.Printf("  called by: %s\n", strings.Join(d.Callers, ", "))
	}
	if len(d.Callees) > 0 {
		fmt.Printf("  calls:     %s\n", strings.Join(d.Callees, ", "))
	}
}

func printDomain(d *index.DomainDetail) {
	fmt.Printf("%s (%d files)\n", d.Name, d.FileCount)
	if d.Description != "" {
		fmt.Printf("  %s\n", d.Description)
	}
	for _, f := range d.Files {
		fmt.Printf("  %s\n", f)
	}
}

func shortPath(p string) string {
	if len(p) <= 40 {
		return p
	}
	return "..." + p[len(p)-37:]
}
