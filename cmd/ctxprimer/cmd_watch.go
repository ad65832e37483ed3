package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ctxprimer/ctxprimer/internal/config"
	"github.com/ctxprimer/ctxprimer/internal/index"
	"github.com/ctxprimer/ctxprimer/internal/scan"
	"github.com/ctxprimer/ctxprimer/internal/watch"
)

var (
	watchRoot  string
	watchCache string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-index automatically when source files change",
	Long: `Watch the project root and re-run the indexer whenever source files
change. Changes are debounced, so a burst of saves triggers one re-index.
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRoot, "root", ".", "project root to watch")
	watchCmd.Flags().StringVar(&watchCache, "cache", "", "index database path (default from config)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(watchRoot)
	if err != nil {
		return err
	}
	cache := cachePath(cfg, watchRoot, watchCache)

	reindex := func(ctx context.Context) error {
		res, err := scan.Project(ctx, watchRoot, scan.Options{Ignore: cfg.Ignore})
		if err != nil {
			return err
		}
		store, err := index.Open(cache)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveScan(res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "re-indexed: %d files, %d symbols\n", len(res.Files), len(res.Symbols))
		return nil
	}

	// Index once up front so the watcher starts from a fresh cache.
	if err := reindex(cmd.Context()); err != nil {
		return err
	}

	w, err := watch.New(watchRoot, reindex)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", watchRoot)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
