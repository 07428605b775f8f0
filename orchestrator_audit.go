package authflow

import (
	"context"
	"time"
)

const (
	auditEventBootstrapCompleted  = "bootstrap_completed"
	auditEventBootstrapNoSession  = "bootstrap_no_session"
	auditEventSignIn              = "sign_in"
	auditEventSignOut             = "sign_out"
	auditEventEventDeduped        = "event_deduped"
	auditEventTokenRefreshed      = "token_refreshed"
	auditEventMFARequired         = "mfa_required"
	auditEventMFACompleted        = "mfa_completed"
	auditEventMFAFailure          = "mfa_failure"
	auditEventMFAAttemptsExceeded = "mfa_attempts_exceeded"
	auditEventMFAAbandoned        = "mfa_abandoned"
	auditEventInactivityWarning   = "inactivity_warning"
	auditEventInactivityLogout    = "inactivity_logout"
	auditEventRecoveryStarted     = "recovery_started"
	auditEventRecoveryCompleted   = "recovery_completed"
	auditEventRecoveryAbandoned   = "recovery_abandoned"
	auditEventSignupConfirmation  = "signup_confirmation_in_progress"
	auditEventCallbackError       = "auth_callback_error"
	auditEventChallengeOrphaned   = "mfa_challenge_without_identity"
)

// emitAudit builds the event lazily through metaFn so disabled audit costs
// no map allocation.
func (o *Orchestrator) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	subject string,
	err error,
	metaFn func() map[string]string,
) {
	if o == nil || o.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Subject:   subject,
		Route:     string(o.nav.Current()),
		Success:   success,
	}
	if err != nil {
		event.Error = err.Error()
	}
	if metaFn != nil {
		event.Metadata = metaFn()
	}

	o.audit.Emit(ctx, event)
}
