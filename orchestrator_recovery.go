package authflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/okellolabs/authflow/internal"
	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
)

// RecoveryActive describes the recoveryactive operation and its observable behavior.
//
// RecoveryActive may return an error when input validation, dependency calls, or security checks fail.
// RecoveryActive does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o *Orchestrator) RecoveryActive(ctx context.Context) bool {
	if o == nil {
		return false
	}
	return markers.Flag(ctx, o.markerStore, markers.KeyRecovery)
}

// HandleRecoveryCallback describes the handlerecoverycallback operation and its observable behavior.
//
// HandleRecoveryCallback may return an error when input validation, dependency calls, or security checks fail.
// HandleRecoveryCallback does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// HandleRecoveryCallback processes a recovery link landing after bootstrap
// already ran, exchanging the one-time code for a temporary session and
// pinning navigation to the update-password screen.
func (o *Orchestrator) HandleRecoveryCallback(ctx context.Context, rawAddr string) error {
	if o == nil {
		return ErrNotReady
	}
	if o.closed.Load() {
		return ErrClosed
	}

	addr := internal.ParseAddress(rawAddr)

	if addr.ErrorMessage != "" {
		o.notifier.Error(addr.ErrorMessage)
		o.emitAudit(ctx, auditEventCallbackError, false, "", nil, func() map[string]string {
			return map[string]string{"message": addr.ErrorMessage}
		})
		o.nav.Replace(routes.Login)
		return nil
	}

	if !addr.Recovery && addr.Code == "" {
		o.nav.Replace(routes.Login)
		return nil
	}

	return o.bootstrapRecovery(ctx, addr)
}

// CompleteRecovery describes the completerecovery operation and its observable behavior.
//
// CompleteRecovery may return an error when input validation, dependency calls, or security checks fail.
// CompleteRecovery does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A successful password update deliberately ends the temporary recovery
// session: the user proves the new password by signing in with it.
func (o *Orchestrator) CompleteRecovery(ctx context.Context, newPassword string) error {
	if o == nil {
		return ErrNotReady
	}
	if o.closed.Load() {
		return ErrClosed
	}

	subject := o.subject()
	if err := o.identity.UpdateUser(ctx, map[string]string{"password": newPassword}); err != nil {
		o.notifier.Error("Password update failed. Please try again.")
		o.emitAudit(ctx, auditEventRecoveryCompleted, false, subject, err, nil)
		return fmt.Errorf("%w: %v", ErrPasswordUpdateFailed, err)
	}

	if err := markers.ClearEphemeral(ctx, o.markerStore); err != nil {
		o.logger.Warn("marker clear failed after password update", zap.Error(err))
	}

	if err := o.identity.SignOut(ctx); err != nil {
		o.logger.Warn("sign out failed after password update", zap.Error(err))
	}
	o.sessions.Clear()
	o.timer.Disarm()

	o.mu.Lock()
	o.welcomed = false
	o.roleRedirected = false
	o.lastEventKind = EventSignedOut
	o.mu.Unlock()

	o.notifier.Success("Password updated. Please sign in with your new password.")
	o.nav.Replace(routes.Login)

	o.metricInc(MetricRecoveryCompleted)
	o.emitAudit(ctx, auditEventRecoveryCompleted, true, subject, nil, nil)
	return nil
}

// AbandonRecovery describes the abandonrecovery operation and its observable behavior.
//
// AbandonRecovery may return an error when input validation, dependency calls, or security checks fail.
// AbandonRecovery does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Leaving the update-password screen without updating discards the
// temporary recovery session entirely; the stale recovery marker must not
// keep vetoing future sign-ins.
func (o *Orchestrator) AbandonRecovery(ctx context.Context) error {
	if o == nil {
		return ErrNotReady
	}

	subject := o.subject()
	if err := markers.ClearEphemeral(ctx, o.markerStore); err != nil {
		o.logger.Warn("marker clear failed on recovery abandon", zap.Error(err))
	}
	if err := o.identity.SignOut(ctx); err != nil {
		o.logger.Warn("sign out failed on recovery abandon", zap.Error(err))
	}
	o.sessions.Clear()
	o.timer.Disarm()

	o.mu.Lock()
	o.welcomed = false
	o.roleRedirected = false
	o.lastEventKind = EventSignedOut
	o.mu.Unlock()

	o.nav.Replace(routes.Login)
	o.emitAudit(ctx, auditEventRecoveryAbandoned, true, subject, nil, nil)
	return nil
}
