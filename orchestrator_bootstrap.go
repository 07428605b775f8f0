package authflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/okellolabs/authflow/internal"
	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

// Bootstrap describes the bootstrap operation and its observable behavior.
//
// Bootstrap may return an error when input validation, dependency calls, or security checks fail.
// Bootstrap does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Bootstrap runs exactly once per orchestrator, at application start, with
// the raw page address the application loaded on. It resolves the initial
// session, detects recovery and confirmation tokens riding in the address,
// and only then flips AuthReady. Every failure path still flips AuthReady:
// the application must never hang on an unresolved auth state.
func (o *Orchestrator) Bootstrap(ctx context.Context, rawAddr string) error {
	if o == nil {
		return ErrNotReady
	}
	if o.closed.Load() {
		return ErrClosed
	}

	o.mu.Lock()
	if o.bootstrapped {
		o.mu.Unlock()
		return ErrBootstrapCompleted
	}
	o.bootstrapped = true
	o.mu.Unlock()

	defer o.authReady.Store(true)

	addr := internal.ParseAddress(rawAddr)

	// A backend error delivered through the callback address (expired or
	// already-used link) short-circuits everything else.
	if addr.ErrorMessage != "" {
		o.notifier.Error(addr.ErrorMessage)
		o.emitAudit(ctx, auditEventCallbackError, false, "", nil, func() map[string]string {
			return map[string]string{"message": addr.ErrorMessage}
		})
		o.nav.Replace(routes.Login)
		return nil
	}

	if addr.Recovery {
		return o.bootstrapRecovery(ctx, addr)
	}

	if addr.Code != "" {
		sess, err := o.identity.ExchangeRecoveryCode(ctx, addr.Code)
		if err != nil {
			o.logger.Warn("code exchange failed", zap.Error(err))
			o.notifier.Error("This link has expired or already been used. Please request a new one.")
			o.nav.Replace(routes.Login)
			return nil
		}
		return o.bootstrapSession(ctx, sess, addr)
	}

	sess, err := o.identity.GetSession(ctx)
	if err != nil {
		o.logger.Warn("initial session fetch failed", zap.Error(err))
		sess = nil
	}
	return o.bootstrapSession(ctx, sess, addr)
}

// bootstrapRecovery handles an address carrying a recovery-type token. The
// recovery marker is set before any navigation so a mid-flow reload lands
// back on the update-password screen instead of the app.
func (o *Orchestrator) bootstrapRecovery(ctx context.Context, addr internal.Address) error {
	if err := markers.SetFlag(ctx, o.markerStore, markers.KeyRecovery, o.config.Markers.TTL); err != nil {
		o.logger.Warn("recovery marker write failed", zap.Error(err))
	}

	if addr.Code != "" {
		sess, err := o.identity.ExchangeRecoveryCode(ctx, addr.Code)
		if err != nil {
			o.logger.Warn("recovery code exchange failed", zap.Error(err))
			o.notifier.Error("This recovery link has expired or already been used. Please request a new one.")
			if derr := o.markerStore.Delete(ctx, markers.KeyRecovery); derr != nil {
				o.logger.Warn("recovery marker clear failed", zap.Error(derr))
			}
			o.nav.Replace(routes.Login)
			return nil
		}
		o.adoptSession(sess)
	}

	o.mu.Lock()
	o.lastEventKind = EventPasswordRecovery
	o.mu.Unlock()

	o.metricInc(MetricRecoveryStarted)
	o.emitAudit(ctx, auditEventRecoveryStarted, true, o.subject(), nil, nil)
	o.nav.Replace(routes.UpdatePassword)
	return nil
}

// bootstrapSession finishes bootstrap once the initial session (possibly
// nil) is known.
func (o *Orchestrator) bootstrapSession(ctx context.Context, sess *session.Session, addr internal.Address) error {
	if !sess.Authenticated() {
		o.sessions.Clear()
		o.emitAudit(ctx, auditEventBootstrapNoSession, true, "", nil, nil)
		// The root route is left alone: the application's own entry view
		// decides where an anonymous visitor goes from there.
		if current := o.nav.Current(); current != routes.Root && !o.guard.IsPublic(current) {
			o.nav.Replace(routes.Login)
		}
		return nil
	}

	// Recovery may have been flagged by an earlier visit; re-check before
	// treating this as a normal authenticated load.
	if markers.Flag(ctx, o.markerStore, markers.KeyRecovery) {
		o.adoptSession(sess)
		o.nav.Replace(routes.UpdatePassword)
		return nil
	}

	// An email-confirmation redirect carries a fresh session for a user
	// who just proved control of their inbox. It bypasses the MFA gate
	// for this load only.
	if addr.SignupConfirmation {
		if err := markers.SetFlag(ctx, o.markerStore, markers.KeyMFACompleted, o.config.Markers.TTL); err != nil {
			o.logger.Warn("confirmation marker write failed", zap.Error(err))
		}
		o.emitAudit(ctx, auditEventSignupConfirmation, true, sess.Email, nil, nil)
	}

	user := o.adoptSession(sess)

	if markers.Flag(ctx, o.markerStore, markers.KeyMFAInProgress) &&
		!markers.Flag(ctx, o.markerStore, markers.KeyMFACompleted) {
		o.nav.Replace(routes.MFAChallenge)
		o.emitAudit(ctx, auditEventBootstrapCompleted, true, user.Email, nil, nil)
		o.metricInc(MetricBootstrapCompleted)
		return nil
	}

	// A restored backend session is no more trusted than a fresh sign-in:
	// a privileged role still has to clear the second factor before it can
	// see anything.
	if o.requiresChallenge(ctx, user.Role) {
		if err := o.beginChallenge(ctx, sess, user); err != nil {
			return err
		}
		o.emitAudit(ctx, auditEventBootstrapCompleted, true, user.Email, nil, nil)
		o.metricInc(MetricBootstrapCompleted)
		return nil
	}

	o.redirectToRoleLanding(user)

	if !o.guard.IsPublic(o.nav.Current()) {
		o.timer.Arm()
	}

	o.metricInc(MetricBootstrapCompleted)
	o.emitAudit(ctx, auditEventBootstrapCompleted, true, user.Email, nil, func() map[string]string {
		return map[string]string{"role": string(user.Role)}
	})
	return nil
}

// adoptSession installs the session wholesale and records the bookkeeping
// that makes the backend's initial SIGNED_IN replay deduplicate instead of
// re-running the sign-in path.
func (o *Orchestrator) adoptSession(sess *session.Session) *session.User {
	user := o.installSession(sess)

	o.mu.Lock()
	o.lastEventKind = EventSignedIn
	o.welcomed = true
	o.mu.Unlock()

	return user
}

// redirectToRoleLanding performs the one-time post-auth role redirect. It
// only fires from an entry route; a reload deep inside the app stays where
// it is.
func (o *Orchestrator) redirectToRoleLanding(user *session.User) {
	o.mu.Lock()
	done := o.roleRedirected
	o.roleRedirected = true
	o.mu.Unlock()
	if done {
		return
	}

	current := o.nav.Current()
	if current != routes.Root && !o.guard.IsPublic(current) {
		return
	}

	o.nav.Replace(postLoginLanding(user.Role))
	o.metricInc(MetricRoleRedirect)
}
