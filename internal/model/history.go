package model

import "time"

// HistoryAction tags what produced a history entry
type HistoryAction string

const (
	ActionDistribute HistoryAction = "distribute" // batch or single hand-out
	ActionIncrease   HistoryAction = "increase"   // manual count raise
	ActionDecrease   HistoryAction = "decrease"   // manual count lowering
)

// HistoryEntry records one reward hand-out. Entries are append-only from
// the client's perspective; deletion is a backend operation.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Player    string        `json:"player"`
	Item      string        `json:"item"`
	Quantity  int           `json:"quantity"`
	Timestamp time.Time     `json:"timestamp"`
	Action    HistoryAction `json:"action"`
}
