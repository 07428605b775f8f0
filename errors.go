package authflow

import "errors"

var (
	// ErrNotReady is an exported constant or variable used by the lifecycle orchestrator.
	ErrNotReady = errors.New("orchestrator not initialized")
	// ErrBootstrapCompleted is an exported constant or variable used by the lifecycle orchestrator.
	ErrBootstrapCompleted = errors.New("bootstrap already completed")
	// ErrClosed is an exported constant or variable used by the lifecycle orchestrator.
	ErrClosed = errors.New("orchestrator closed")
	// ErrSignOutFailed is an exported constant or variable used by the lifecycle orchestrator.
	ErrSignOutFailed = errors.New("sign out failed")
	// ErrRecoveryActive is an exported constant or variable used by the lifecycle orchestrator.
	ErrRecoveryActive = errors.New("password recovery in progress")
	// ErrNoPendingChallenge is an exported constant or variable used by the lifecycle orchestrator.
	ErrNoPendingChallenge = errors.New("no pending mfa challenge")
	// ErrChallengeLocked is an exported constant or variable used by the lifecycle orchestrator.
	ErrChallengeLocked = errors.New("mfa challenge locked out")
	// ErrChallengeAttemptsExceeded is an exported constant or variable used by the lifecycle orchestrator.
	ErrChallengeAttemptsExceeded = errors.New("mfa challenge attempts exceeded")
	// ErrNoChallengeIdentity is an exported constant or variable used by the lifecycle orchestrator.
	ErrNoChallengeIdentity = errors.New("no identity available for mfa challenge")
	// ErrPasswordUpdateFailed is an exported constant or variable used by the lifecycle orchestrator.
	ErrPasswordUpdateFailed = errors.New("password update failed")
)
