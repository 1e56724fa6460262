package response

// Revision is returned for every accepted write
type Revision struct {
	Revision int64 `json:"revision"`
}

// Health reports server and storage status
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// Health statuses
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)
