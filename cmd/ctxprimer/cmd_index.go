package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctxprimer/ctxprimer/internal/config"
	"github.com/ctxprimer/ctxprimer/internal/index"
	"github.com/ctxprimer/ctxprimer/internal/scan"
)

var (
	indexRoot  string
	indexCache string
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the project and rebuild the knowledge base",
	Long: `Scan the project tree, extract symbols, call edges, domains, lock
constraints, and temporary-code markers, and save everything to the index
cache. Debugging attempts recorded with 'ctxprimer attempt' survive
re-indexing.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexRoot, "root", ".", "project root to scan")
	indexCmd.Flags().StringVar(&indexCache, "cache", "", "index database path (default from config)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(indexRoot)
	if err != nil {
		return err
	}

	res, err := scan.Project(cmd.Context(), indexRoot, scan.Options{Ignore: cfg.Ignore})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", indexRoot, err)
	}

	store, err := index.Open(cachePath(cfg, indexRoot, indexCache))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.SaveScan(res); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	fmt.Printf("Indexed %d files, %d symbols, %d domains (primary language: %s)\n",
		len(res.Files), len(res.Symbols), len(res.Domains), orNone(res.PrimaryLanguage))
	return nil
}

// cachePath resolves the index database location: an explicit --cache flag
// wins, otherwise the config decides.
func cachePath(cfg config.Config, root, flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.CacheFile(root)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
