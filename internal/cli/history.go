package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/rewardroster/internal/engine"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Hand-out history commands",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryDeleteCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List hand-out history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := client.LoadState(cmd.Context())
			if err != nil {
				return err
			}
			NewOutput(cmd, cfg.Output).Print(History{Entries: snap.History})
			return nil
		},
	}
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a history entry",
		Long: `Delete a history entry on the server. Counts are not changed; every
connected client drops the entry when the server confirms.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *engine.Engine) error {
				if err := e.DeleteHistory(cmd.Context(), args[0]); err != nil {
					return err
				}
				NewOutput(cmd, cfg.Output).PrintMessage("Deleted " + args[0])
				return nil
			})
		},
	}
}
