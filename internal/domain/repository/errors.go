package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrSignalNotFound means the key is absent or expired. Nothing to show,
	// not an outage.
	ErrSignalNotFound = errors.New("signal not found")

	// ErrStoreUnavailable means the keyed backend could not be reached.
	// Callers must never conflate this with ErrSignalNotFound.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNoBackup means the user never entered a signal view this session;
	// there is nothing to go back to.
	ErrNoBackup = errors.New("no signal view backup available")

	// ErrMalformedInteraction means an interaction identifier did not match
	// any known pattern or carried the wrong parameter count.
	ErrMalformedInteraction = errors.New("malformed interaction identifier")
)

// RejectedPayload is returned by the normalizer for payloads that cannot be
// reconciled into a canonical signal.
type RejectedPayload struct {
	Reason string
}

func (e *RejectedPayload) Error() string {
	return "payload rejected: " + e.Reason
}

// Rejectf builds a RejectedPayload with a formatted reason.
func Rejectf(format string, a ...interface{}) *RejectedPayload {
	return &RejectedPayload{Reason: fmt.Sprintf(format, a...)}
}

// CollaboratorFailure wraps an analysis collaborator error. It degrades to an
// apologetic sub-view and never reaches the user-facing text verbatim.
type CollaboratorFailure struct {
	Kind string
	Err  error
}

func (e *CollaboratorFailure) Error() string {
	return fmt.Sprintf("collaborator %s failed: %v", e.Kind, e.Err)
}

func (e *CollaboratorFailure) Unwrap() error {
	return e.Err
}
