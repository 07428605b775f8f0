package authflow

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/okellolabs/authflow/idle"
	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

// Orchestrator defines a public type used by authflow APIs.
//
// Orchestrator instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
//
// The orchestrator owns the single authoritative session state for the
// process. Every lifecycle transition funnels through it: the bootstrap
// sequence, the identity backend's event stream, the MFA gate, password
// recovery, and the inactivity timer. Consumers read through CurrentUser
// and CanAccess and never mutate session state directly.
type Orchestrator struct {
	config   Config
	identity IdentityClient
	settings SettingsClient
	nav      Navigator
	notifier Notifier

	markerStore markers.Store
	guard       *routes.Guard
	sessions    *session.Store
	timer       *idle.Timer
	audit       *auditDispatcher
	metrics     *Metrics
	logger      *zap.Logger

	// mu serializes lifecycle transitions. Blocking dependency calls are
	// made outside the lock; every post-call path re-checks the lifecycle
	// flags it depends on before acting.
	mu             sync.Mutex
	bootstrapped   bool
	lastEventKind  AuthEventKind
	lastEventID    string
	welcomed       bool
	roleRedirected bool

	authReady atomic.Bool
	closed    atomic.Bool

	unsubscribe func()
	closeOnce   sync.Once
}

// AuthReady describes the authready operation and its observable behavior.
//
// AuthReady may return an error when input validation, dependency calls, or security checks fail.
// AuthReady does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// AuthReady stays false until Bootstrap has resolved the initial session
// one way or the other. Consumers gate their first render on it.
func (o *Orchestrator) AuthReady() bool {
	return o != nil && o.authReady.Load()
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser may return an error when input validation, dependency calls, or security checks fail.
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o *Orchestrator) CurrentUser() *session.User {
	if o == nil {
		return nil
	}
	return o.sessions.User()
}

// CurrentSession describes the currentsession operation and its observable behavior.
//
// CurrentSession may return an error when input validation, dependency calls, or security checks fail.
// CurrentSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o *Orchestrator) CurrentSession() *session.Session {
	if o == nil {
		return nil
	}
	return o.sessions.Current()
}

// Subscribe describes the subscribe operation and its observable behavior.
//
// Subscribe may return an error when input validation, dependency calls, or security checks fail.
// Subscribe does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Subscribe attaches the orchestrator to the identity backend's event
// stream exactly once; repeat calls are no-ops. Close releases the
// subscription.
func (o *Orchestrator) Subscribe() {
	if o == nil || o.closed.Load() {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unsubscribe != nil {
		return
	}
	o.unsubscribe = o.identity.OnAuthStateChange(func(ev AuthEvent) {
		if err := o.HandleAuthEvent(context.Background(), ev); err != nil {
			o.logger.Warn("auth event dropped", zap.String("kind", string(ev.Kind)), zap.Error(err))
		}
	})
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o *Orchestrator) Close() {
	if o == nil {
		return
	}
	o.closeOnce.Do(func() {
		o.closed.Store(true)

		o.mu.Lock()
		unsub := o.unsubscribe
		o.unsubscribe = nil
		o.mu.Unlock()

		if unsub != nil {
			unsub()
		}
		if o.timer != nil {
			o.timer.Disarm()
		}
		if o.audit != nil {
			o.audit.Close()
		}
	})
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Logout is the user-initiated sign-out. A backend sign-out failure leaves
// local state untouched and surfaces the failure; the forced inactivity
// logout deliberately does not share this behavior.
func (o *Orchestrator) Logout(ctx context.Context) error {
	if o == nil {
		return ErrNotReady
	}
	if o.closed.Load() {
		return ErrClosed
	}

	subject := o.subject()
	if err := o.identity.SignOut(ctx); err != nil {
		o.notifier.Error("Sign out failed. Please try again.")
		o.emitAudit(ctx, auditEventSignOut, false, subject, err, nil)
		return fmt.Errorf("%w: %v", ErrSignOutFailed, err)
	}

	o.timer.Disarm()
	if err := markers.ClearEphemeral(ctx, o.markerStore); err != nil {
		o.logger.Warn("marker clear failed on sign out", zap.Error(err))
	}
	o.sessions.Clear()

	o.mu.Lock()
	o.welcomed = false
	o.roleRedirected = false
	o.lastEventKind = EventSignedOut
	o.mu.Unlock()

	o.nav.Replace(routes.Login)
	o.metricInc(MetricSignOut)
	o.emitAudit(ctx, auditEventSignOut, true, subject, nil, nil)
	return nil
}

// OnActivity describes the onactivity operation and its observable behavior.
//
// OnActivity may return an error when input validation, dependency calls, or security checks fail.
// OnActivity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// OnActivity is safe to wire directly to high-frequency input listeners;
// the timer throttles resets internally. Activity on a public route is
// ignored because those routes are excluded from inactivity tracking.
func (o *Orchestrator) OnActivity() {
	if o == nil || o.closed.Load() {
		return
	}
	if !o.sessions.Authenticated() {
		return
	}
	if o.guard.IsPublic(o.nav.Current()) {
		return
	}
	o.timer.OnActivity()
}

// RouteChanged describes the routechanged operation and its observable behavior.
//
// RouteChanged may return an error when input validation, dependency calls, or security checks fail.
// RouteChanged does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// RouteChanged keeps the inactivity timer aligned with the tracked route
// set: entering a tracked route arms it, leaving to a public route
// disarms it.
func (o *Orchestrator) RouteChanged(route routes.Path) {
	if o == nil || o.closed.Load() {
		return
	}
	if !o.sessions.Authenticated() || o.guard.IsPublic(route) {
		o.timer.Disarm()
		return
	}
	o.timer.Arm()
}

// CanAccess describes the canaccess operation and its observable behavior.
//
// CanAccess may return an error when input validation, dependency calls, or security checks fail.
// CanAccess does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Recovery is checked before anything else: while a password recovery is
// in progress every guarded navigation lands on the update-password
// screen, authenticated or not. An unfinished MFA challenge pins
// navigation to the challenge screen the same way.
func (o *Orchestrator) CanAccess(ctx context.Context, route routes.Path, allowed []session.Role) routes.Decision {
	if o == nil {
		return routes.Decision{RedirectTo: routes.Login}
	}

	if markers.Flag(ctx, o.markerStore, markers.KeyRecovery) && route != routes.UpdatePassword {
		return routes.Decision{RedirectTo: routes.UpdatePassword}
	}

	if o.sessions.Authenticated() &&
		markers.Flag(ctx, o.markerStore, markers.KeyMFAInProgress) &&
		!markers.Flag(ctx, o.markerStore, markers.KeyMFACompleted) &&
		route != routes.MFAChallenge {
		return routes.Decision{RedirectTo: routes.MFAChallenge}
	}

	decision := o.guard.CanAccess(route, o.sessions.User(), allowed)
	if !decision.Allowed && decision.RedirectTo != routes.Login {
		o.metricInc(MetricRoleRedirect)
	}
	return decision
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o *Orchestrator) MetricsSnapshot() MetricsSnapshot {
	if o == nil || o.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return o.metrics.Snapshot()
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o *Orchestrator) AuditDropped() uint64 {
	if o == nil || o.audit == nil {
		return 0
	}
	return o.audit.Dropped()
}

func (o *Orchestrator) metricInc(id MetricID) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.Inc(id)
}

// subject is the audit subject for the current session, empty when signed
// out.
func (o *Orchestrator) subject() string {
	if u := o.sessions.User(); u != nil {
		return u.Email
	}
	return ""
}

// postLoginLanding is the landing page used immediately after a completed
// sign-in. Staff land on the staff console; every other role starts from
// the main dashboard and navigates onward from there.
func postLoginLanding(role session.Role) routes.Path {
	if role == session.RoleStaff {
		return routes.Staff
	}
	return routes.Dashboard
}
