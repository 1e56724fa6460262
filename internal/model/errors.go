package model

import "errors"

// Common errors used across the application
var (
	// Roster errors
	ErrPlayerNotFound    = errors.New("player not found")
	ErrDuplicatePlayer   = errors.New("player already exists")
	ErrInvalidPlayerName = errors.New("invalid player name")
	ErrItemNotFound      = errors.New("item not in catalog")
	ErrInvalidIndex      = errors.New("roster index out of range")
	ErrHistoryNotFound   = errors.New("history entry not found")

	// Editing errors
	ErrEditLocked  = errors.New("editing is locked")
	ErrNotDragging = errors.New("no drag in progress")

	// Sync errors
	ErrNotConnected      = errors.New("not connected to sync channel")
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrPushQueueFull     = errors.New("push queue is full")

	// Storage errors
	ErrStateNotFound = errors.New("no stored roster state")
)
