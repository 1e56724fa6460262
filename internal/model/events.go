package model

// EventType identifies the type of sync event
type EventType string

const (
	EventStateReplaced EventType = "state-replaced"
	EventPlayerAdded   EventType = "player-added"
	EventPlayerUpdated EventType = "player-updated"
	EventPlayerRemoved EventType = "player-removed"
)

// Event is an inbound change published on the sync channel. Origin is the
// id of the client whose write caused it, empty for server-side writes.
type Event struct {
	Type     EventType    `json:"type"`
	Origin   string       `json:"origin,omitempty"`
	Revision int64        `json:"revision"`
	Snapshot *Snapshot    `json:"snapshot,omitempty"` // state-replaced
	Player   *Player      `json:"player,omitempty"`   // player-added
	Patch    *PlayerPatch `json:"patch,omitempty"`    // player-updated
	Name     string       `json:"name,omitempty"`     // player-removed
}

// Update is an outbound full-state push
type Update struct {
	Origin   string   `json:"origin"`
	Snapshot Snapshot `json:"snapshot"`
}

// PushAck is returned by the backend for an accepted push
type PushAck struct {
	Revision int64 `json:"revision"`
}

// Assignment hands quantity of item to player. Zero quantity means one.
type Assignment struct {
	Player   string `json:"player"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity,omitempty"`
}
