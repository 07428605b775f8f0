package routes

import (
	"github.com/okellolabs/authflow/session"
)

// Decision is the guard's verdict for a route access check.
type Decision struct {
	Allowed    bool
	RedirectTo Path
}

// Guard evaluates route access against the current derived user. It holds no
// session state of its own; every route change re-evaluates from scratch.
type Guard struct {
	public   map[Path]struct{}
	landings map[session.Role]Path
}

// NewGuard describes the newguard operation and its observable behavior.
//
// Nil maps fall back to the default public set and per-role landing table.
func NewGuard(public []Path, landings map[session.Role]Path) *Guard {
	if public == nil {
		public = PublicPaths()
	}
	if landings == nil {
		landings = DefaultLandings()
	}

	publicSet := make(map[Path]struct{}, len(public))
	for _, p := range public {
		publicSet[p] = struct{}{}
	}

	cloned := make(map[session.Role]Path, len(landings))
	for role, path := range landings {
		cloned[role] = path
	}

	return &Guard{public: publicSet, landings: cloned}
}

// DefaultLandings is the fixed per-role landing page mapping.
func DefaultLandings() map[session.Role]Path {
	return map[session.Role]Path{
		session.RoleAdmin:      Dashboard,
		session.RoleManager:    ManagerDashboard,
		session.RoleRegional:   RegionalDashboard,
		session.RoleOperations: OperationsDashboard,
		session.RoleChecker:    CheckerDashboard,
		session.RoleHR:         HRDashboard,
		session.RoleStaff:      Staff,
	}
}

// IsPublic reports whether the route is reachable without authentication.
func (g *Guard) IsPublic(route Path) bool {
	_, ok := g.public[route]
	return ok
}

// Landing returns the role's default landing page, falling back to the staff
// landing for unmapped roles.
func (g *Guard) Landing(role session.Role) Path {
	if p, ok := g.landings[role]; ok {
		return p
	}
	return Staff
}

// CanAccess decides allow-or-redirect for a route. No authenticated user
// redirects to login unless the route is public; an authenticated user whose
// role is outside the route's allowed set redirects to that role's landing.
// An empty allowed set admits every authenticated role.
func (g *Guard) CanAccess(route Path, user *session.User, allowed []session.Role) Decision {
	if user == nil {
		if g.IsPublic(route) {
			return Decision{Allowed: true}
		}
		return Decision{RedirectTo: Login}
	}

	if len(allowed) == 0 {
		return Decision{Allowed: true}
	}
	for _, role := range allowed {
		if role == user.Role {
			return Decision{Allowed: true}
		}
	}
	return Decision{RedirectTo: g.Landing(user.Role)}
}
