package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/rewardroster/internal/channel/remote"
)

var (
	cfg    *Config
	client *remote.Client
	logger *slog.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "roster",
		Short: "CLI tool for the reward roster server",
		Long: `roster inspects and edits a shared reward roster.

Changes go through the same client engine as every other roster client:
suggestions follow the fairness rule, edits are pushed to the server and
other clients see them immediately.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
			if cfg.Verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
			client = remote.NewClient(cfg.ServerURL, logger)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: ROSTER_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Connect and save timeout")
	rootCmd.PersistentFlags().StringVar(&cfg.Messages, "messages", cfg.Messages, "Message catalog override (env: ROSTER_MESSAGES)")

	// Add subcommands
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(newGiveCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newActiveCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newRankCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
