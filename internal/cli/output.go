package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mcoot/rewardroster/internal/api/response"
	"github.com/mcoot/rewardroster/internal/insights"
	"github.com/mcoot/rewardroster/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to the command's stdout
func NewOutput(cmd *cobra.Command, format string) *Output {
	return &Output{format: format, w: cmd.OutOrStdout()}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Roster:
		o.printRoster(v)
	case Suggestion:
		o.printSuggestion(v)
	case Rankings:
		o.printRankings(v)
	case insights.Stats:
		o.printStats(v)
	case History:
		o.printHistory(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\nStorage: %s\n", v.Status, v.Storage)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Roster is a table of players over the item catalog
type Roster struct {
	Revision int64          `json:"revision"`
	Items    []string       `json:"items"`
	Players  []model.Player `json:"players"`
}

// Suggestion is the next recipient of an item
type Suggestion struct {
	Item      string `json:"item"`
	Player    string `json:"player,omitempty"`
	ItemCount int    `json:"item_count"`
	Total     int    `json:"total"`
	Text      string `json:"text"`
}

// Rankings is an item leaderboard
type Rankings struct {
	Item    string             `json:"item"`
	Ranking []insights.Ranking `json:"ranking"`
}

// History lists history entries, oldest first
type History struct {
	Entries []model.HistoryEntry `json:"entries"`
}

func (o *Output) table() *tabwriter.Writer {
	return tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
}

func (o *Output) printRoster(r Roster) {
	fmt.Fprintf(o.w, "Revision: %d\n", r.Revision)
	tw := o.table()
	fmt.Fprintf(tw, "#\tPLAYER\tACTIVE\t%s\tTOTAL\n", strings.ToUpper(strings.Join(r.Items, "\t")))
	for i, p := range r.Players {
		cells := make([]string, len(r.Items))
		for j, item := range r.Items {
			cells[j] = strconv.Itoa(p.Count(item))
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", i, p.Name, yesNo(p.Active), strings.Join(cells, "\t"), p.Total())
	}
	_ = tw.Flush()
}

func (o *Output) printSuggestion(s Suggestion) {
	fmt.Fprintln(o.w, s.Text)
	if s.Player != "" {
		fmt.Fprintf(o.w, "  holds %d %s, %d rewards in total\n", s.ItemCount, s.Item, s.Total)
	}
}

func (o *Output) printRankings(r Rankings) {
	tw := o.table()
	fmt.Fprintf(tw, "POS\tPLAYER\t%s\tTOTAL\n", strings.ToUpper(r.Item))
	for _, rk := range r.Ranking {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", rk.Position, rk.Player, rk.Count, rk.Total)
	}
	_ = tw.Flush()
}

func (o *Output) printStats(s insights.Stats) {
	fmt.Fprintf(o.w, "Players: %d (%d active)\n", s.Players, s.ActivePlayers)
	fmt.Fprintf(o.w, "Rewards handed out: %d\n", s.GrandTotal)
	fmt.Fprintf(o.w, "Players holding repeats: %d\n", s.Repeats)

	items := make([]string, 0, len(s.ItemTotals))
	for item := range s.ItemTotals {
		items = append(items, item)
	}
	sort.Strings(items)
	tw := o.table()
	fmt.Fprintln(tw, "ITEM\tHANDED OUT")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%d\n", item, s.ItemTotals[item])
	}
	_ = tw.Flush()
}

func (o *Output) printHistory(h History) {
	if len(h.Entries) == 0 {
		fmt.Fprintln(o.w, "No history")
		return
	}
	tw := o.table()
	fmt.Fprintln(tw, "ID\tTIME\tACTION\tPLAYER\tITEM\tQTY")
	for _, e := range h.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Player, e.Item, e.Quantity)
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
