package entities

import (
	"errors"
	"fmt"
)

// Core error taxonomy. All of these are surfaced to the caller as-is;
// nothing in the sync core retries internally.
var (
	// ErrInvalidArgument indicates bad caller input, rejected before any mutation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidRange indicates a backfill period or chunk count that cannot be satisfied.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrTerminalState indicates an attempted mutation on a record already in
	// a terminal state.
	ErrTerminalState = errors.New("record is in a terminal state")

	// ErrConflict indicates a violation of the one-active-job-per-project invariant.
	ErrConflict = errors.New("an active sync already exists for this project")

	// ErrAlreadySyncing is returned by the orchestrator when a resync is
	// requested for a project that already has an active progress record.
	// The UI surfaces this as a no-op, not a hard failure.
	ErrAlreadySyncing = fmt.Errorf("already syncing: %w", ErrConflict)
)

// SyncError is an opaque failure surfaced by the external sync executor.
// It carries the executor's message verbatim.
type SyncError struct {
	Message string
}

func (e *SyncError) Error() string {
	return "sync failed: " + e.Message
}
