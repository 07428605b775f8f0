package internal

import "github.com/google/uuid"

// NewChallengeID returns the identifier for a pending MFA challenge record.
func NewChallengeID() string {
	return uuid.NewString()
}

// NewEventID returns a synthetic identifier for auth events delivered
// without one, so dedup bookkeeping always has a key to record.
func NewEventID() string {
	return uuid.NewString()
}
