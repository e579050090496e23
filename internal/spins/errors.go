package spins

import "errors"

var (
	// ErrNoEligibleParticipants means every active participant of the
	// session has already been selected.
	ErrNoEligibleParticipants = errors.New("no eligible participants: all participants have been selected")
	// ErrDuplicateSelection means a concurrent spin won the race for the
	// drawn participant. The caller should retry the whole spin; the pool
	// has changed.
	ErrDuplicateSelection = errors.New("participant already selected in this session")
	// ErrSessionNotFound covers both a missing session and one owned by a
	// different admin.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInactive means the session was soft-deleted.
	ErrSessionInactive = errors.New("session is no longer active")
)
