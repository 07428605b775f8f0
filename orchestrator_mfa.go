package authflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/okellolabs/authflow/internal"
	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

// RequiresChallenge describes the requireschallenge operation and its observable behavior.
//
// RequiresChallenge may return an error when input validation, dependency calls, or security checks fail.
// RequiresChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Only roles in the configured privileged set are ever challenged, and only
// when the remote feature flag is on. The flag lookup fails open: when the
// settings backend is unreachable, sign-in proceeds without a challenge
// rather than locking every privileged user out.
func (o *Orchestrator) RequiresChallenge(ctx context.Context, role session.Role) bool {
	if o == nil {
		return false
	}
	return o.requiresChallenge(ctx, role)
}

func (o *Orchestrator) requiresChallenge(ctx context.Context, role session.Role) bool {
	privileged := false
	for _, r := range o.config.MFA.PrivilegedRoles {
		if r == role {
			privileged = true
			break
		}
	}
	if !privileged {
		return false
	}

	if markers.Flag(ctx, o.markerStore, markers.KeyMFACompleted) {
		return false
	}

	if o.settings == nil {
		return false
	}
	enabled, err := o.settings.Setting(ctx, o.config.MFA.SettingKey)
	if err != nil {
		o.logger.Warn("mfa setting lookup failed, proceeding without challenge", zap.Error(err))
		return false
	}
	return enabled
}

// beginChallenge parks the signed-in identity as a pending challenge record
// and pins navigation to the challenge screen. The inactivity timer stays
// disarmed until the challenge completes.
func (o *Orchestrator) beginChallenge(ctx context.Context, sess *session.Session, user *session.User) error {
	ch := &markers.Challenge{
		ChallengeID: internal.NewChallengeID(),
		SubjectID:   sess.SubjectID,
		Email:       user.Email,
		Role:        string(user.Role),
		Branch:      user.Branch,
		IssuedAt:    time.Now().Unix(),
	}
	encoded, err := markers.EncodeChallenge(ch)
	if err != nil {
		return err
	}

	if err := o.markerStore.Set(ctx, markers.KeyPendingChallenge, string(encoded), o.config.MFA.ChallengeTTL); err != nil {
		return err
	}
	if err := markers.SetFlag(ctx, o.markerStore, markers.KeyMFAInProgress, o.config.Markers.TTL); err != nil {
		return err
	}
	if err := o.markerStore.Delete(ctx, markers.KeyMFACompleted); err != nil {
		o.logger.Warn("stale completion marker clear failed", zap.Error(err))
	}

	o.timer.Disarm()
	// The params are a convenience for the challenge screen; the pending
	// record stays authoritative.
	o.nav.ReplaceWithParams(routes.MFAChallenge, map[string]string{
		"subject": ch.SubjectID,
		"email":   ch.Email,
		"role":    ch.Role,
	})
	o.metricInc(MetricMFAChallengeRequired)
	o.emitAudit(ctx, auditEventMFARequired, true, user.Email, nil, func() map[string]string {
		return map[string]string{"challenge_id": ch.ChallengeID, "role": string(user.Role)}
	})
	return nil
}

// PendingChallenge describes the pendingchallenge operation and its observable behavior.
//
// PendingChallenge may return an error when input validation, dependency calls, or security checks fail.
// PendingChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// A corrupt or expired record reads as no pending challenge; the record is
// removed so it cannot shadow a later one.
func (o *Orchestrator) PendingChallenge(ctx context.Context) (*markers.Challenge, error) {
	if o == nil {
		return nil, ErrNotReady
	}

	raw, err := o.markerStore.Get(ctx, markers.KeyPendingChallenge)
	if err != nil {
		if errors.Is(err, markers.ErrNotFound) {
			return nil, ErrNoPendingChallenge
		}
		return nil, err
	}

	ch, err := markers.DecodeChallenge([]byte(raw))
	if err != nil {
		if derr := o.markerStore.Delete(ctx, markers.KeyPendingChallenge); derr != nil {
			o.logger.Warn("corrupt challenge clear failed", zap.Error(derr))
		}
		return nil, ErrNoPendingChallenge
	}

	if time.Since(time.Unix(ch.IssuedAt, 0)) > o.config.MFA.ChallengeTTL {
		if derr := o.markerStore.Delete(ctx, markers.KeyPendingChallenge); derr != nil {
			o.logger.Warn("expired challenge clear failed", zap.Error(derr))
		}
		return nil, ErrNoPendingChallenge
	}

	return ch, nil
}

// ChallengeLocked describes the challengelocked operation and its observable behavior.
//
// ChallengeLocked may return an error when input validation, dependency calls, or security checks fail.
// ChallengeLocked does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (o *Orchestrator) ChallengeLocked(ctx context.Context) (bool, time.Duration) {
	if o == nil {
		return false, 0
	}

	raw, err := o.markerStore.Get(ctx, markers.KeyChallengeLockUntil)
	if err != nil {
		return false, 0
	}
	until, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, 0
	}

	remaining := time.Until(time.Unix(until, 0))
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

// CompleteMFAChallenge describes the completemfachallenge operation and its observable behavior.
//
// CompleteMFAChallenge may return an error when input validation, dependency calls, or security checks fail.
// CompleteMFAChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The challenge screen calls this after the backend verified the second
// factor. The pending record is consumed exactly once; the completion
// marker then suppresses further challenges for this browsing session.
func (o *Orchestrator) CompleteMFAChallenge(ctx context.Context) error {
	if o == nil {
		return ErrNotReady
	}

	if locked, _ := o.ChallengeLocked(ctx); locked {
		return ErrChallengeLocked
	}

	ch, err := o.PendingChallenge(ctx)
	if err != nil {
		return err
	}

	if err := markers.SetFlag(ctx, o.markerStore, markers.KeyMFACompleted, o.config.Markers.TTL); err != nil {
		return err
	}
	if err := o.markerStore.Delete(ctx,
		markers.KeyMFAInProgress,
		markers.KeyPendingChallenge,
		markers.KeyChallengeAttempts,
		markers.KeyChallengeLockUntil,
	); err != nil {
		o.logger.Warn("challenge marker clear failed", zap.Error(err))
	}

	role := session.NormalizeRole(ch.Role)

	o.mu.Lock()
	welcome := !o.welcomed
	o.welcomed = true
	o.mu.Unlock()
	if welcome {
		o.notifier.Success("Signed in successfully")
	}

	o.nav.Replace(postLoginLanding(role))
	o.timer.Arm()

	o.metricInc(MetricMFAChallengeCompleted)
	o.metricInc(MetricSignIn)
	o.emitAudit(ctx, auditEventMFACompleted, true, ch.Email, nil, func() map[string]string {
		return map[string]string{"challenge_id": ch.ChallengeID}
	})
	return nil
}

// FailMFAChallenge describes the failmfachallenge operation and its observable behavior.
//
// FailMFAChallenge may return an error when input validation, dependency calls, or security checks fail.
// FailMFAChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Each failed verification burns one attempt. Exhausting the attempt
// budget locks the challenge for the configured duration and force-signs
// the user out; the lock marker survives the sign-out so a fresh login
// cannot bypass it. The remaining attempt count is returned for display.
func (o *Orchestrator) FailMFAChallenge(ctx context.Context) (int, error) {
	if o == nil {
		return 0, ErrNotReady
	}

	if locked, _ := o.ChallengeLocked(ctx); locked {
		return 0, ErrChallengeLocked
	}

	attempts := 0
	if raw, err := o.markerStore.Get(ctx, markers.KeyChallengeAttempts); err == nil {
		if n, perr := strconv.Atoi(raw); perr == nil {
			attempts = n
		}
	}
	attempts++

	if attempts >= o.config.MFA.MaxAttempts {
		until := time.Now().Add(o.config.MFA.LockoutDuration).Unix()
		if err := o.markerStore.Set(ctx, markers.KeyChallengeLockUntil, strconv.FormatInt(until, 10), o.config.Markers.TTL); err != nil {
			o.logger.Warn("lockout marker write failed", zap.Error(err))
		}
		if err := o.markerStore.Delete(ctx,
			markers.KeyChallengeAttempts,
			markers.KeyPendingChallenge,
			markers.KeyMFAInProgress,
		); err != nil {
			o.logger.Warn("challenge marker clear failed", zap.Error(err))
		}

		subject := o.subject()
		if err := o.identity.SignOut(ctx); err != nil {
			o.logger.Warn("sign out failed after mfa lockout", zap.Error(err))
		}
		o.sessions.Clear()
		o.timer.Disarm()
		o.notifier.Error("Too many failed attempts. Try again later.")
		o.nav.Replace(routes.Login)

		o.metricInc(MetricMFALockout)
		o.emitAudit(ctx, auditEventMFAAttemptsExceeded, false, subject, ErrChallengeAttemptsExceeded, func() map[string]string {
			return map[string]string{"attempts": strconv.Itoa(attempts)}
		})
		return 0, ErrChallengeAttemptsExceeded
	}

	if err := o.markerStore.Set(ctx, markers.KeyChallengeAttempts, strconv.Itoa(attempts), o.config.Markers.TTL); err != nil {
		return 0, fmt.Errorf("attempt marker write: %w", err)
	}

	remaining := o.config.MFA.MaxAttempts - attempts
	o.metricInc(MetricMFAChallengeFailed)
	o.emitAudit(ctx, auditEventMFAFailure, false, o.subject(), nil, func() map[string]string {
		return map[string]string{"remaining": strconv.Itoa(remaining)}
	})
	return remaining, nil
}

// AbandonMFAChallenge describes the abandonmfachallenge operation and its observable behavior.
//
// AbandonMFAChallenge may return an error when input validation, dependency calls, or security checks fail.
// AbandonMFAChallenge does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Walking away from an unfinished challenge tears the half-open session
// down completely; a partially authenticated state must never persist.
func (o *Orchestrator) AbandonMFAChallenge(ctx context.Context) error {
	if o == nil {
		return ErrNotReady
	}

	subject := o.subject()
	if err := o.identity.SignOut(ctx); err != nil {
		o.logger.Warn("sign out failed on challenge abandon", zap.Error(err))
	}
	if err := markers.ClearEphemeral(ctx, o.markerStore); err != nil {
		o.logger.Warn("marker clear failed on challenge abandon", zap.Error(err))
	}
	o.sessions.Clear()
	o.timer.Disarm()

	o.mu.Lock()
	o.welcomed = false
	o.roleRedirected = false
	o.lastEventKind = EventSignedOut
	o.mu.Unlock()

	o.nav.Replace(routes.Login)
	o.emitAudit(ctx, auditEventMFAAbandoned, true, subject, nil, nil)
	return nil
}

// ResolveChallengeIdentity describes the resolvechallengeidentity operation and its observable behavior.
//
// ResolveChallengeIdentity may return an error when input validation, dependency calls, or security checks fail.
// ResolveChallengeIdentity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The challenge screen needs an identity to verify against even after a
// reload dropped the in-memory session. The chain is live session, then
// the pending record, then a fresh backend query. ErrNoChallengeIdentity
// means the screen has nothing to work with and should bounce to login.
func (o *Orchestrator) ResolveChallengeIdentity(ctx context.Context) (*session.User, error) {
	if o == nil {
		return nil, ErrNotReady
	}

	if u := o.sessions.User(); u != nil {
		return u, nil
	}

	ch, err := o.PendingChallenge(ctx)
	if err == nil {
		return &session.User{
			Email:  ch.Email,
			Role:   session.NormalizeRole(ch.Role),
			Branch: ch.Branch,
		}, nil
	}
	if !errors.Is(err, ErrNoPendingChallenge) {
		return nil, err
	}

	sess, gerr := o.identity.GetSession(ctx)
	if gerr != nil {
		o.logger.Warn("session query failed resolving challenge identity", zap.Error(gerr))
		return nil, ErrNoChallengeIdentity
	}
	if u := session.Project(sess); u != nil {
		return u, nil
	}
	return nil, ErrNoChallengeIdentity
}
