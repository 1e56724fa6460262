package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/rewardroster/internal/channel/remote"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream roster events",
		Long: `Connect to the server's event stream and print roster changes as they
happen.

Events include:
  - state-replaced: a client saved the whole roster
  - player-added: a player joined the roster
  - player-updated: a player's counts or status changed
  - player-removed: a player left the roster

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Handle interrupt
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			jsonOutput := cfg.Output == "json"
			err := client.Stream(ctx, func(m remote.Message) {
				printEvent(cmd, m, jsonOutput)
			})
			if ctx.Err() != nil || errors.Is(err, remote.ErrStreamClosed) {
				if !jsonOutput {
					fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
				}
				return nil
			}
			return err
		},
	}
}

// StreamEvent is one printed event
type StreamEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func printEvent(cmd *cobra.Command, m remote.Message, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		jsonData, _ := json.Marshal(StreamEvent{Time: now, Event: m.Event, Data: m.Data})
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := m.Data
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	displayData = strings.ReplaceAll(displayData, "\n", " ")
	fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", timestamp, m.Event, displayData)
}
