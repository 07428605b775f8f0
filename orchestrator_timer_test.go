package authflow

import (
	"context"
	"testing"
	"time"

	"github.com/okellolabs/authflow/idle"
	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

func shortTimerConfig() Config {
	cfg := testConfig()
	cfg.Inactivity.Timeout = 150 * time.Millisecond
	cfg.Inactivity.WarningLead = 75 * time.Millisecond
	cfg.Inactivity.ActivityThrottle = time.Millisecond
	return cfg
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestInactivityWarningThenForcedLogout(t *testing.T) {
	h := newHarness(t, shortTimerConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return len(h.notifier.warnings) > 0
	})

	waitFor(t, time.Second, func() bool {
		return h.orch.CurrentUser() == nil
	})

	if h.nav.Current() != routes.Login {
		t.Fatalf("expected login after forced logout, got %s", h.nav.Current())
	}
	if h.identity.SignOutCalls() == 0 {
		t.Fatal("expected a backend sign-out")
	}
	h.notifier.mu.Lock()
	dismissed := h.notifier.dismissed
	failures := len(h.notifier.failures)
	h.notifier.mu.Unlock()
	if dismissed == 0 {
		t.Fatal("expected the warning to be dismissed")
	}
	if failures == 0 {
		t.Fatal("expected the forced-logout notification")
	}

	waitFor(t, time.Second, func() bool {
		snap := h.orch.MetricsSnapshot()
		return snap.Counters[MetricInactivityWarning] == 1 && snap.Counters[MetricInactivityLogout] == 1
	})
}

func TestActivityDefersForcedLogout(t *testing.T) {
	h := newHarness(t, shortTimerConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	// Keep poking well inside the timeout; the session must survive
	// several multiples of it.
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		h.orch.OnActivity()
		time.Sleep(20 * time.Millisecond)
	}

	if h.orch.CurrentUser() == nil {
		t.Fatal("expected activity to keep the session alive")
	}
	if got := h.orch.MetricsSnapshot().Counters[MetricInactivityLogout]; got != 0 {
		t.Fatalf("expected no forced logout, got %d", got)
	}
}

func TestActivityOnPublicRouteIgnored(t *testing.T) {
	h := newHarness(t, shortTimerConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	// Simulate the user parked on an excluded route: activity there must
	// not defer the logout.
	h.orch.RouteChanged(routes.Login)
	h.nav.SetCurrent(routes.Login)
	h.orch.OnActivity()

	if got := h.orch.timer.State(); got != idle.StateDisarmed {
		t.Fatalf("expected a disarmed timer on a public route, got state %d", got)
	}
}

func TestRouteChangeTogglesTracking(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	h.nav.SetCurrent(routes.Login)
	if err := h.orch.HandleAuthEvent(ctx, signedInEvent("staff@example.com", string(session.RoleStaff))); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}

	h.orch.RouteChanged(routes.UpdatePassword)
	if got := h.orch.timer.State(); got != idle.StateDisarmed {
		t.Fatalf("expected disarmed on a public route, got state %d", got)
	}

	h.orch.RouteChanged(routes.Dashboard)
	if got := h.orch.timer.State(); got != idle.StateArmed {
		t.Fatalf("expected the timer to re-arm on a tracked route, got state %d", got)
	}
}
