package storage

import (
	"context"

	"github.com/mcoot/rewardroster/internal/model"
)

// Storage persists the shared roster snapshot
type Storage interface {
	// GetSnapshot returns the stored snapshot or model.ErrStateNotFound
	GetSnapshot(ctx context.Context) (*model.Snapshot, error)
	// SaveSnapshot replaces the stored snapshot
	SaveSnapshot(ctx context.Context, s *model.Snapshot) error
	// Ping checks the backing store is reachable
	Ping(ctx context.Context) error
}
