package routes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okellolabs/authflow/session"
)

func TestGuardDefaultsWhenNilConfigured(t *testing.T) {
	g := NewGuard(nil, nil)

	require.True(t, g.IsPublic(Login))
	require.True(t, g.IsPublic(UpdatePassword))
	require.True(t, g.IsPublic(MFAChallenge))
	require.False(t, g.IsPublic(Dashboard))
	require.False(t, g.IsPublic(Root))

	require.Equal(t, ManagerDashboard, g.Landing(session.RoleManager))
	require.Equal(t, Staff, g.Landing(session.RoleStaff))
}

func TestGuardLandingFallsBackToStaff(t *testing.T) {
	g := NewGuard(nil, nil)
	require.Equal(t, Staff, g.Landing(session.Role("UNKNOWN")))
}

func TestGuardUnauthenticated(t *testing.T) {
	g := NewGuard(nil, nil)

	d := g.CanAccess(Dashboard, nil, nil)
	require.False(t, d.Allowed)
	require.Equal(t, Login, d.RedirectTo)

	d = g.CanAccess(Login, nil, nil)
	require.True(t, d.Allowed)
}

func TestGuardEmptyAllowedSetAdmitsAnyRole(t *testing.T) {
	g := NewGuard(nil, nil)
	u := &session.User{Email: "x@example.com", Role: session.RoleChecker}

	d := g.CanAccess(Dashboard, u, nil)
	require.True(t, d.Allowed)
}

func TestGuardRoleMismatchRedirectsToRoleLanding(t *testing.T) {
	g := NewGuard(nil, nil)

	cases := []struct {
		role    session.Role
		landing Path
	}{
		{session.RoleAdmin, Dashboard},
		{session.RoleManager, ManagerDashboard},
		{session.RoleRegional, RegionalDashboard},
		{session.RoleOperations, OperationsDashboard},
		{session.RoleChecker, CheckerDashboard},
		{session.RoleHR, HRDashboard},
		{session.RoleStaff, Staff},
	}
	for _, tc := range cases {
		u := &session.User{Email: "x@example.com", Role: tc.role}
		d := g.CanAccess(HRDashboard, u, []session.Role{session.RoleHR})
		if tc.role == session.RoleHR {
			require.True(t, d.Allowed)
			continue
		}
		require.False(t, d.Allowed, "role %s", tc.role)
		require.Equal(t, tc.landing, d.RedirectTo, "role %s", tc.role)
	}
}

func TestGuardCustomConfiguration(t *testing.T) {
	g := NewGuard(
		[]Path{Login, "/health"},
		map[session.Role]Path{session.RoleAdmin: HRDashboard},
	)

	require.True(t, g.IsPublic("/health"))
	require.False(t, g.IsPublic(UpdatePassword))
	require.Equal(t, HRDashboard, g.Landing(session.RoleAdmin))
}
