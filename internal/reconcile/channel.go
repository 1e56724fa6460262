// Package reconcile keeps the local roster store in step with a shared
// multi-client channel: it loads state on connect, pushes local changes
// in order, applies inbound events, and reconnects with backoff.
package reconcile

import (
	"context"

	"github.com/mcoot/rewardroster/internal/model"
)

// Channel is the backend collaborator
type Channel interface {
	// LoadState fetches the full shared snapshot
	LoadState(ctx context.Context) (*model.Snapshot, error)
	// PushState replaces the shared snapshot
	PushState(ctx context.Context, u model.Update) (model.PushAck, error)
	// Listen subscribes to inbound events. It calls onReady once the
	// subscription is live and before any event is handled, then calls
	// handle for each event in arrival order. It returns when ctx is
	// cancelled or the connection drops.
	Listen(ctx context.Context, onReady func(), handle func(model.Event)) error
}

// HistoryDeleter is implemented by channels that can delete history
// entries on the backend. Deletions are not tagged with an origin, so the
// resulting replace event is applied by every client including the caller.
type HistoryDeleter interface {
	DeleteHistory(ctx context.Context, id string) error
}
