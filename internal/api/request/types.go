package request

// AddPlayerRequest is the request body for adding a player
type AddPlayerRequest struct {
	Name string `json:"name"`
}

// UpdatePlayerRequest is the request body for patching a player. Absent
// fields and count keys are left unchanged.
type UpdatePlayerRequest struct {
	Active *bool          `json:"active,omitempty"`
	Counts map[string]int `json:"counts,omitempty"`
}

// OriginHeader carries the writing client's origin tag. Events caused by
// the write are published with the same tag.
const OriginHeader = "X-Roster-Origin"
