package markers

import (
	"context"
	"errors"
	"time"
)

// Marker keys. The contract is the key set, not the literal names: every
// ephemeral key is cleared on sign-out and on MFA completion, preference
// keys survive both.
const (
	// KeyRecovery is an exported constant or variable used by the lifecycle orchestrator.
	KeyRecovery = "recovery_in_progress"
	// KeyMFAInProgress is an exported constant or variable used by the lifecycle orchestrator.
	KeyMFAInProgress = "mfa_in_progress"
	// KeyMFACompleted is an exported constant or variable used by the lifecycle orchestrator.
	KeyMFACompleted = "mfa_completed"
	// KeyPendingChallenge is an exported constant or variable used by the lifecycle orchestrator.
	KeyPendingChallenge = "mfa_pending_challenge"
	// KeyChallengeAttempts is an exported constant or variable used by the lifecycle orchestrator.
	KeyChallengeAttempts = "mfa_challenge_attempts"
	// KeyChallengeLockUntil survives sign-out: a lockout a forced
	// sign-out could clear would be no lockout at all.
	KeyChallengeLockUntil = "mfa_challenge_lock_until"
	// KeyBranchPreference survives sign-out and MFA completion.
	KeyBranchPreference = "branch_preference"
)

// EphemeralKeys lists every marker cleared on sign-out and MFA completion.
// The lockout and preference keys are deliberately absent.
var EphemeralKeys = []string{
	KeyRecovery,
	KeyMFAInProgress,
	KeyMFACompleted,
	KeyPendingChallenge,
	KeyChallengeAttempts,
}

var (
	// ErrNotFound is an exported constant or variable used by the lifecycle orchestrator.
	ErrNotFound = errors.New("marker not found")
	// ErrUnavailable is an exported constant or variable used by the lifecycle orchestrator.
	ErrUnavailable = errors.New("marker backend unavailable")
)

// Store is the durable marker backend. Get returns ErrNotFound for a missing
// or expired key; backend failures wrap ErrUnavailable.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

// ClearEphemeral removes every auth marker while leaving preferences intact.
func ClearEphemeral(ctx context.Context, s Store) error {
	return s.Delete(ctx, EphemeralKeys...)
}

// Flag reports whether key is present with the value "true". Backend errors
// read as false; flag reads sit on hot guard paths and fail toward the
// unflagged state.
func Flag(ctx context.Context, s Store, key string) bool {
	v, err := s.Get(ctx, key)
	return err == nil && v == "true"
}

// SetFlag writes key as a boolean marker with the store's default lifetime.
func SetFlag(ctx context.Context, s Store, key string, ttl time.Duration) error {
	return s.Set(ctx, key, "true", ttl)
}
