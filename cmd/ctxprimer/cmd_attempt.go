package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctxprimer/ctxprimer/internal/config"
	"github.com/ctxprimer/ctxprimer/internal/index"
)

var (
	attemptRoot  string
	attemptCache string
)

var attemptCmd = &cobra.Command{
	Use:   "attempt",
	Short: "Track debugging attempts so failed approaches are not repeated",
	Long: `Debugging attempts are stored in the index and surfaced in primers:
an agent seeing "tried X, failed twice" will not burn tokens retrying X.

Subcommands:
  start   - Record a new attempt for a problem
  fail    - Record a failed approach on an open attempt
  resolve - Close an attempt
  list    - Show open attempts

Examples:
  ctxprimer attempt start "login 500s under load"
  ctxprimer attempt fail 3f9a1c2e "raised pool size, still 500s"
  ctxprimer attempt resolve 3f9a1c2e`,
}

var attemptStartCmd = &cobra.Command{
	Use:   "start PROBLEM",
	Short: "Record a new debugging attempt",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAttemptStore(func(store *index.Store) error {
			id, err := store.StartAttempt(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("Started attempt %s\n", id)
			return nil
		})
	},
}

var attemptFailCmd = &cobra.Command{
	Use:   "fail ID NOTE",
	Short: "Record a failed approach on an open attempt",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAttemptStore(func(store *index.Store) error {
			if err := store.FailAttempt(args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Printf("Recorded failure on attempt %s\n", args[0])
			return nil
		})
	},
}

var attemptResolveCmd = &cobra.Command{
	Use:   "resolve ID",
	Short: "Close an attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAttemptStore(func(store *index.Store) error {
			if err := store.ResolveAttempt(args[0]); err != nil {
				return err
			}
			fmt.Printf("Resolved attempt %s\n", args[0])
			return nil
		})
	},
}

var attemptListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show open attempts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAttemptStore(func(store *index.Store) error {
			attempts, err := store.OpenAttempts()
			if err != nil {
				return err
			}
			if len(attempts) == 0 {
				fmt.Println("No open attempts.")
				return nil
			}
			for _, a := range attempts {
				fmt.Printf("%s  %s (failures: %d, since %s)\n", a.ID, a.Problem, a.Failures, a.CreatedAt)
				for _, n := range a.Notes {
					fmt.Printf("          - %s\n", n)
				}
			}
			return nil
		})
	},
}

func init() {
	attemptCmd.PersistentFlags().StringVar(&attemptRoot, "root", ".", "project root")
	attemptCmd.PersistentFlags().StringVar(&attemptCache, "cache", "", "index database path (default from config)")
	attemptCmd.AddCommand(attemptStartCmd, attemptFailCmd, attemptResolveCmd, attemptListCmd)
	rootCmd.AddCommand(attemptCmd)
}

func withAttemptStore(fn func(*index.Store) error) error {
	cfg, err := config.Load(attemptRoot)
	if err != nil {
		return err
	}
	store, err := index.Open(cachePath(cfg, attemptRoot, attemptCache))
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
