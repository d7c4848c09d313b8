package match

import "errors"

var (
	// ErrAdmissionDenied is returned by Register when the moderation gate
	// reports the address banned. No participant state is created.
	ErrAdmissionDenied = errors.New("match: admission denied")

	// ErrNotFound is returned for operations referencing an unknown or
	// already-removed participant id. Callers on race-prone paths treat it
	// as a benign no-op.
	ErrNotFound = errors.New("match: participant not found")
)
