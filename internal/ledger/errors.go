package ledger

import "errors"

// Sentinel errors of the assignment ledger. Domain invariant violations are
// fatal to the calling action; contention errors are recoverable by choosing
// a different destination.
var (
	// ErrCapacityExceeded is returned when an open or credit would push a
	// container past its maximum biomass.
	ErrCapacityExceeded = errors.New("container capacity exceeded")
	// ErrContainerBusy is returned when a container already holds an active
	// assignment for a different batch and mixing was not allowed.
	ErrContainerBusy = errors.New("container busy with another batch")
	// ErrNegativePopulation is returned when a debit or mortality would take
	// an assignment below zero fish.
	ErrNegativePopulation = errors.New("population would become negative")
	// ErrAssignmentClosed is returned on mutation of an inactive assignment.
	ErrAssignmentClosed = errors.New("assignment already closed")
	// ErrOverlap is returned when opening would create overlapping active
	// intervals for the same (batch, container) pair.
	ErrOverlap = errors.New("overlapping active assignment for batch and container")
)
