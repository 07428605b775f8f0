package authflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/okellolabs/authflow/internal"
	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

// HandleAuthEvent describes the handleauthevent operation and its observable behavior.
//
// HandleAuthEvent may return an error when input validation, dependency calls, or security checks fail.
// HandleAuthEvent does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// HandleAuthEvent consumes one delivery from the identity backend's event
// stream. Ordering of checks is load-bearing: the recovery veto runs before
// anything else, then kind-level deduplication, then the wholesale session
// replacement, and only then the per-kind behavior. Token refreshes are
// exempt from deduplication because consecutive refreshes are legitimate.
func (o *Orchestrator) HandleAuthEvent(ctx context.Context, ev AuthEvent) error {
	if o == nil {
		return ErrNotReady
	}
	if o.closed.Load() {
		return ErrClosed
	}
	if ev.ID == "" {
		ev.ID = internal.NewEventID()
	}

	if ev.Kind == EventPasswordRecovery {
		return o.handleRecoveryEvent(ctx, ev)
	}
	if markers.Flag(ctx, o.markerStore, markers.KeyRecovery) {
		// Active recovery vetoes every other event. The session still
		// gets installed so the password update call is authenticated,
		// but no sign-in side effects run and navigation stays pinned.
		if ev.Session.Authenticated() {
			o.installSession(ev.Session)
		}
		o.nav.Replace(routes.UpdatePassword)
		return nil
	}

	o.mu.Lock()
	if ev.Kind == o.lastEventKind && ev.Kind != EventTokenRefreshed {
		o.mu.Unlock()
		o.metricInc(MetricEventDeduped)
		o.emitAudit(ctx, auditEventEventDeduped, true, "", nil, func() map[string]string {
			return map[string]string{"kind": string(ev.Kind), "event_id": ev.ID}
		})
		return nil
	}
	o.lastEventKind = ev.Kind
	o.lastEventID = ev.ID
	o.mu.Unlock()

	o.metricInc(MetricEventProcessed)

	if !ev.Session.Authenticated() {
		return o.handleUnauthenticated(ctx, ev)
	}

	user := o.installSession(ev.Session)

	if markers.Flag(ctx, o.markerStore, markers.KeyMFAInProgress) &&
		!markers.Flag(ctx, o.markerStore, markers.KeyMFACompleted) {
		if _, err := o.PendingChallenge(ctx); err != nil {
			// In-progress flag with no pending record is an orphan,
			// typically a marker backend hiccup mid-challenge. Clear
			// it and fall through to a normal evaluation.
			o.emitAudit(ctx, auditEventChallengeOrphaned, false, user.Email, err, nil)
			if derr := o.markerStore.Delete(ctx, markers.KeyMFAInProgress, markers.KeyMFACompleted); derr != nil {
				o.logger.Warn("orphaned challenge marker clear failed", zap.Error(derr))
			}
		} else {
			o.nav.Replace(routes.MFAChallenge)
			return nil
		}
	}

	switch ev.Kind {
	case EventSignedIn:
		return o.handleSignedIn(ctx, ev, user)
	case EventTokenRefreshed:
		// A refresh is backend housekeeping, not user activity: the
		// inactivity timer is deliberately left alone.
		o.metricInc(MetricTokenRefreshed)
		o.emitAudit(ctx, auditEventTokenRefreshed, true, user.Email, nil, nil)
		return nil
	default:
		return nil
	}
}

func (o *Orchestrator) handleSignedIn(ctx context.Context, ev AuthEvent, user *session.User) error {
	// The feature flag lookup blocks; anything can have happened on the
	// stream meanwhile. Act only if this event is still the latest and
	// recovery has not started underneath us.
	required := o.requiresChallenge(ctx, user.Role)

	o.mu.Lock()
	stale := o.lastEventID != ev.ID
	o.mu.Unlock()
	if stale {
		return nil
	}
	if markers.Flag(ctx, o.markerStore, markers.KeyRecovery) {
		o.nav.Replace(routes.UpdatePassword)
		return nil
	}

	if required {
		return o.beginChallenge(ctx, o.sessions.Current(), user)
	}

	o.mu.Lock()
	welcome := !o.welcomed
	o.welcomed = true
	o.mu.Unlock()
	if welcome {
		o.notifier.Success("Signed in successfully")
	}

	o.redirectToRoleLanding(user)

	if !o.guard.IsPublic(o.nav.Current()) {
		o.timer.Arm()
	}

	o.metricInc(MetricSignIn)
	o.emitAudit(ctx, auditEventSignIn, true, user.Email, nil, func() map[string]string {
		return map[string]string{"role": string(user.Role), "event_id": ev.ID}
	})
	return nil
}

func (o *Orchestrator) handleUnauthenticated(ctx context.Context, ev AuthEvent) error {
	o.sessions.Clear()
	o.timer.Disarm()

	if ev.Kind != EventSignedOut {
		return nil
	}

	if err := markers.ClearEphemeral(ctx, o.markerStore); err != nil {
		o.logger.Warn("marker clear failed on sign out event", zap.Error(err))
	}

	o.mu.Lock()
	o.welcomed = false
	o.roleRedirected = false
	o.mu.Unlock()

	o.nav.Replace(routes.Login)
	o.metricInc(MetricSignOut)
	o.emitAudit(ctx, auditEventSignOut, true, "", nil, func() map[string]string {
		return map[string]string{"event_id": ev.ID}
	})
	return nil
}

// handleRecoveryEvent reacts to the backend's PASSWORD_RECOVERY delivery,
// which arrives when a recovery link establishes its temporary session.
func (o *Orchestrator) handleRecoveryEvent(ctx context.Context, ev AuthEvent) error {
	if err := markers.SetFlag(ctx, o.markerStore, markers.KeyRecovery, o.config.Markers.TTL); err != nil {
		o.logger.Warn("recovery marker write failed", zap.Error(err))
	}

	if ev.Session.Authenticated() {
		o.installSession(ev.Session)
	}

	o.mu.Lock()
	o.lastEventKind = EventPasswordRecovery
	o.lastEventID = ev.ID
	o.mu.Unlock()

	o.timer.Disarm()
	o.nav.Replace(routes.UpdatePassword)
	o.metricInc(MetricRecoveryStarted)
	o.emitAudit(ctx, auditEventRecoveryStarted, true, o.subject(), nil, nil)
	return nil
}

// installSession replaces the owned session wholesale. Hydration backfills
// identity fields from the access token when the backend delivered a thin
// session; a malformed token is not fatal.
func (o *Orchestrator) installSession(sess *session.Session) *session.User {
	if err := session.Hydrate(sess); err != nil {
		o.logger.Debug("token hydrate skipped", zap.Error(err))
	}
	return o.sessions.Replace(sess)
}
