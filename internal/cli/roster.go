package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/rewardroster/internal/engine"
	"github.com/mcoot/rewardroster/internal/fairness"
	"github.com/mcoot/rewardroster/internal/model"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the shared roster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := client.LoadState(cmd.Context())
			if err != nil {
				return err
			}
			NewOutput(cmd, cfg.Output).Print(Roster{Revision: snap.Revision, Items: snap.Items, Players: snap.Players})
			return nil
		},
	}
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <item>",
		Short: "Show who should receive an item next",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item := args[0]
			return withEngine(cmd, func(e *engine.Engine) error {
				p, ok, err := e.Suggest(item)
				if err != nil {
					return err
				}
				text, err := e.SuggestionText(item)
				if err != nil {
					return err
				}
				s := Suggestion{Item: item, Text: text}
				if ok {
					score := fairness.ScoreOf(p, item)
					s.Player = p.Name
					s.ItemCount = score.ItemCount
					s.Total = score.TotalCount
				}
				NewOutput(cmd, cfg.Output).Print(s)
				return nil
			})
		},
	}
}

func newGiveCmd() *cobra.Command {
	var quantity int

	cmd := &cobra.Command{
		Use:   "give <player> <item>...",
		Short: "Hand items to a player",
		Long: `Hand one or more items to a player as a single change. Use "next" as
the player to hand each item to its suggested recipient.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 1 {
				return fmt.Errorf("--quantity must be at least 1")
			}
			player, items := args[0], args[1:]
			return withEngine(cmd, func(e *engine.Engine) error {
				batch := make([]model.Assignment, 0, len(items))
				for _, item := range items {
					to := player
					if player == "next" {
						p, ok, err := e.Suggest(item)
						if err != nil {
							return err
						}
						if !ok {
							return fmt.Errorf("no active player can receive %s", item)
						}
						to = p.Name
					}
					batch = append(batch, model.Assignment{Player: to, Item: item, Quantity: quantity})
				}
				if err := e.Distribute(batch); err != nil {
					return err
				}
				out := NewOutput(cmd, cfg.Output)
				if cfg.Output == "json" {
					out.Print(batch)
					return nil
				}
				for _, a := range batch {
					out.PrintMessage(fmt.Sprintf("%s +%d %s", a.Player, a.Quantity, a.Item))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "n", 1, "How many of each item to hand out")

	return cmd
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <player> <item> <count>",
		Short: "Set a player's count of an item",
		Long: `Set a count directly. Fractions are rounded down and negative values
become zero.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid count %q", args[2])
			}
			return withEngine(cmd, func(e *engine.Engine) error {
				e.SetEditUnlocked(true)
				n, err := e.SetCount(args[0], args[1], value)
				if err != nil {
					return err
				}
				NewOutput(cmd, cfg.Output).PrintMessage(fmt.Sprintf("%s now holds %d %s", args[0], n, args[1]))
				return nil
			})
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Add a player to the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *engine.Engine) error {
				if err := e.AddPlayer(args[0]); err != nil {
					return err
				}
				NewOutput(cmd, cfg.Output).PrintMessage("Added " + args[0])
				return nil
			})
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a player from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *engine.Engine) error {
				if err := e.RemovePlayer(args[0]); err != nil {
					return err
				}
				NewOutput(cmd, cfg.Output).PrintMessage("Removed " + args[0])
				return nil
			})
		},
	}
}

func newActiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active <name> <true|false>",
		Short: "Include or exclude a player from suggestions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := strconv.ParseBool(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q: want true or false", args[1])
			}
			return withEngine(cmd, func(e *engine.Engine) error {
				if err := e.SetActive(args[0], active); err != nil {
					return err
				}
				state := "inactive"
				if active {
					state = "active"
				}
				NewOutput(cmd, cfg.Output).PrintMessage(args[0] + " is now " + state)
				return nil
			})
		},
	}
}

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Drag the row at one position onto another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[0])
			}
			to, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
			return withEngine(cmd, func(e *engine.Engine) error {
				e.SetEditUnlocked(true)
				moved, err := e.Move(from, to)
				if err != nil {
					return err
				}
				snap := e.Snapshot()
				if !moved {
					NewOutput(cmd, cfg.Output).PrintMessage("Nothing to move")
					return nil
				}
				NewOutput(cmd, cfg.Output).Print(Roster{Revision: snap.Revision, Items: snap.Items, Players: snap.Players})
				return nil
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "List players matching a query",
		Long: `Every whitespace-separated term must match a player's name, status,
an item name or one of its counts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *engine.Engine) error {
				e.Search(strings.Join(args, " "))
				snap := e.Snapshot()
				NewOutput(cmd, cfg.Output).Print(Roster{Revision: snap.Revision, Items: snap.Items, Players: e.Matches()})
				return nil
			})
		},
	}
}

func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank <item>",
		Short: "Rank players by how many of an item they hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *engine.Engine) error {
				ranking, err := e.Rankings(args[0])
				if err != nil {
					return err
				}
				NewOutput(cmd, cfg.Output).Print(Rankings{Item: args[0], Ranking: ranking})
				return nil
			})
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the distribution so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(e *engine.Engine) error {
				NewOutput(cmd, cfg.Output).Print(e.Stats())
				return nil
			})
		},
	}
}
