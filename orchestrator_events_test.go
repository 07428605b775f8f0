package authflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okellolabs/authflow/idle"
	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

func signedInEvent(email, role string) AuthEvent {
	return AuthEvent{Kind: EventSignedIn, Session: testSession(email, role)}
}

func TestSignedInInstallsSessionAndRedirects(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("HandleAuthEvent failed: %v", err)
	}

	u := h.orch.CurrentUser()
	if u == nil || u.Role != session.RoleStaff {
		t.Fatalf("expected staff user, got %+v", u)
	}
	if h.nav.Current() != routes.Staff {
		t.Fatalf("expected staff landing, got %s", h.nav.Current())
	}
	if h.notifier.Successes() != 1 {
		t.Fatal("expected one welcome notification")
	}
	if h.orch.timer.State() != idle.StateArmed {
		t.Fatal("expected the inactivity timer to be armed")
	}
}

func TestConsecutiveSignedInEventsDeduplicate(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	first := signedInEvent("staff@example.com", string(session.RoleStaff))
	second := signedInEvent("other@example.com", string(session.RoleStaff))

	if err := h.orch.HandleAuthEvent(ctx, first); err != nil {
		t.Fatalf("first event failed: %v", err)
	}
	if err := h.orch.HandleAuthEvent(ctx, second); err != nil {
		t.Fatalf("second event failed: %v", err)
	}

	// The duplicate is dropped entirely: no session replacement, no
	// second welcome.
	if got := h.orch.CurrentUser().Email; got != "staff@example.com" {
		t.Fatalf("expected dedup to keep first session, got %s", got)
	}
	if h.notifier.Successes() != 1 {
		t.Fatal("expected exactly one welcome notification")
	}
	if got := h.orch.MetricsSnapshot().Counters[MetricEventDeduped]; got != 1 {
		t.Fatalf("expected 1 deduped metric, got %d", got)
	}
}

func TestTokenRefreshedIsExemptFromDedupAndTimerReset(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	refreshed := testSession("staff@example.com", string(session.RoleStaff))
	refreshed.AccessToken = "rotated-1"
	if err := h.orch.HandleAuthEvent(ctx, AuthEvent{Kind: EventTokenRefreshed, Session: refreshed}); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}
	rotated := testSession("staff@example.com", string(session.RoleStaff))
	rotated.AccessToken = "rotated-2"
	if err := h.orch.HandleAuthEvent(ctx, AuthEvent{Kind: EventTokenRefreshed, Session: rotated}); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}

	if got := h.orch.CurrentSession().AccessToken; got != "rotated-2" {
		t.Fatalf("expected consecutive refreshes to both apply, got token %s", got)
	}
	if got := h.orch.MetricsSnapshot().Counters[MetricTokenRefreshed]; got != 2 {
		t.Fatalf("expected 2 refresh metrics, got %d", got)
	}
	if h.notifier.Successes() != 1 {
		t.Fatal("expected no extra welcome on refresh")
	}
}

func TestSignedOutClearsEverything(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if err := markers.SetFlag(ctx, h.store, markers.KeyMFACompleted, time.Hour); err != nil {
		t.Fatalf("SetFlag failed: %v", err)
	}

	if err := h.orch.HandleAuthEvent(ctx, AuthEvent{Kind: EventSignedOut}); err != nil {
		t.Fatalf("sign-out event failed: %v", err)
	}

	if h.orch.CurrentUser() != nil {
		t.Fatal("expected no user after sign-out")
	}
	if h.nav.Current() != routes.Login {
		t.Fatalf("expected login route, got %s", h.nav.Current())
	}
	if markers.Flag(ctx, h.store, markers.KeyMFACompleted) {
		t.Fatal("expected ephemeral markers to be cleared")
	}
	if h.orch.timer.State() != idle.StateDisarmed {
		t.Fatal("expected the timer to be disarmed")
	}
}

func TestBranchPreferenceSurvivesSignOut(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.store.Set(ctx, markers.KeyBranchPreference, "HQ", time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if err := h.orch.HandleAuthEvent(ctx, AuthEvent{Kind: EventSignedOut}); err != nil {
		t.Fatalf("sign-out event failed: %v", err)
	}

	if v, err := h.store.Get(ctx, markers.KeyBranchPreference); err != nil || v != "HQ" {
		t.Fatalf("expected branch preference to survive, got %q err %v", v, err)
	}
}

func TestSignOutThenSignInIsNotDeduplicated(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
	if err := h.orch.HandleAuthEvent(ctx, AuthEvent{Kind: EventSignedOut}); err != nil {
		t.Fatalf("sign-out failed: %v", err)
	}
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("second sign-in failed: %v", err)
	}

	if h.orch.CurrentUser() == nil {
		t.Fatal("expected a user after re-sign-in")
	}
	if h.notifier.Successes() != 2 {
		t.Fatalf("expected a fresh welcome after the sign-out, got %d", h.notifier.Successes())
	}
}

func TestRecoveryEventVetoesSignInSideEffects(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	recovery := AuthEvent{Kind: EventPasswordRecovery, Session: testSession("staff@example.com", string(session.RoleStaff))}
	if err := h.orch.HandleAuthEvent(ctx, recovery); err != nil {
		t.Fatalf("recovery event failed: %v", err)
	}

	if h.nav.Current() != routes.UpdatePassword {
		t.Fatalf("expected update-password, got %s", h.nav.Current())
	}
	if !h.orch.RecoveryActive(ctx) {
		t.Fatal("expected recovery marker to be set")
	}

	// A SIGNED_IN arriving mid-recovery installs the session but runs no
	// sign-in side effects and stays pinned to update-password.
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("mid-recovery sign-in failed: %v", err)
	}
	if h.nav.Current() != routes.UpdatePassword {
		t.Fatalf("expected to stay on update-password, got %s", h.nav.Current())
	}
	if h.notifier.Successes() != 0 {
		t.Fatal("expected no welcome during recovery")
	}
	if h.orch.timer.State() != idle.StateDisarmed {
		t.Fatal("expected the timer to stay disarmed during recovery")
	}
}

func TestEventsRejectedAfterClose(t *testing.T) {
	h := newHarness(t, testConfig())
	h.orch.Close()

	err := h.orch.HandleAuthEvent(context.Background(), signedInEvent("staff@example.com", string(session.RoleStaff)))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
