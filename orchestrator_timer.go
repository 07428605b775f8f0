package authflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
)

// onIdleWarning runs on the timer's warning edge, one warning lead before
// the forced logout.
func (o *Orchestrator) onIdleWarning() {
	if o.closed.Load() {
		return
	}

	lead := o.config.Inactivity.WarningLead
	o.notifier.Warning(fmt.Sprintf("You will be logged out in %s due to inactivity.", lead), lead)
	o.metricInc(MetricInactivityWarning)
	o.emitAudit(context.Background(), auditEventInactivityWarning, true, o.subject(), nil, nil)
}

// onIdleExpire runs when the timeout elapses with no qualifying activity.
func (o *Orchestrator) onIdleExpire() {
	if o.closed.Load() {
		return
	}
	o.forcedLogout(context.Background())
}

// forcedLogout is the inactivity logout. Unlike the user-initiated Logout,
// a backend sign-out failure does not abort it: local state is torn down
// regardless, because an idle session left live is worse than a backend
// token that outlives it.
func (o *Orchestrator) forcedLogout(ctx context.Context) {
	subject := o.subject()

	if err := o.identity.SignOut(ctx); err != nil {
		o.logger.Warn("sign out failed on inactivity logout", zap.Error(err))
	}
	if err := markers.ClearEphemeral(ctx, o.markerStore); err != nil {
		o.logger.Warn("marker clear failed on inactivity logout", zap.Error(err))
	}
	o.sessions.Clear()
	o.timer.Disarm()

	o.mu.Lock()
	o.welcomed = false
	o.roleRedirected = false
	o.lastEventKind = EventSignedOut
	o.mu.Unlock()

	o.notifier.Dismiss()
	o.notifier.Error("You have been logged out due to inactivity.")
	o.nav.Replace(routes.Login)

	o.metricInc(MetricInactivityLogout)
	o.emitAudit(ctx, auditEventInactivityLogout, true, subject, nil, nil)
}
