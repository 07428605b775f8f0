package authflow

import (
	"context"
	"time"

	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

// AuthEventKind identifies an identity-backend event on the auth stream.
//
// AuthEventKind instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuthEventKind string

const (
	// EventSignedIn is an exported constant or variable used by the lifecycle orchestrator.
	EventSignedIn AuthEventKind = "SIGNED_IN"
	// EventSignedOut is an exported constant or variable used by the lifecycle orchestrator.
	EventSignedOut AuthEventKind = "SIGNED_OUT"
	// EventTokenRefreshed is an exported constant or variable used by the lifecycle orchestrator.
	EventTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
	// EventPasswordRecovery is an exported constant or variable used by the lifecycle orchestrator.
	EventPasswordRecovery AuthEventKind = "PASSWORD_RECOVERY"
)

// AuthEvent is one delivery from the identity backend's event stream. The
// session may be nil (sign-out). Events without an ID are assigned one on
// receipt so dedup bookkeeping always has a key.
type AuthEvent struct {
	ID      string
	Kind    AuthEventKind
	Session *session.Session
}

// IdentityClient is the identity/session backend boundary. Credential
// verification, token issuance, and refresh live behind it; the orchestrator
// only consumes outcomes.
type IdentityClient interface {
	GetSession(ctx context.Context) (*session.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error)
	SignOut(ctx context.Context) error
	UpdateUser(ctx context.Context, attributes map[string]string) error
	ExchangeRecoveryCode(ctx context.Context, code string) (*session.Session, error)

	// OnAuthStateChange registers the event callback and returns the
	// unsubscribe handle. The orchestrator subscribes exactly once.
	OnAuthStateChange(fn func(AuthEvent)) (unsubscribe func())
}

// SettingsClient fetches remote feature flags. Lookups fail open: any error
// reads as the flag being disabled.
type SettingsClient interface {
	Setting(ctx context.Context, key string) (bool, error)
}

// Navigator is the routing boundary. Replace is expected to be idempotent
// when the target equals the current route.
type Navigator interface {
	Current() routes.Path
	Replace(route routes.Path)
	ReplaceWithParams(route routes.Path, params map[string]string)
}

// Notifier surfaces transient user-visible signals. Warning is the
// dismissible, time-bounded inactivity notice; Dismiss clears it.
type Notifier interface {
	Success(message string)
	Error(message string)
	Warning(message string, duration time.Duration)
	Dismiss()
}

type noopNotifier struct{}

func (noopNotifier) Success(string)                {}
func (noopNotifier) Error(string)                  {}
func (noopNotifier) Warning(string, time.Duration) {}
func (noopNotifier) Dismiss()                      {}
