package routes

// Path identifies an application route.
//
// Path instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Path string

const (
	// Root is an exported constant or variable used by the lifecycle orchestrator.
	Root Path = "/"
	// Login is an exported constant or variable used by the lifecycle orchestrator.
	Login Path = "/login"
	// UpdatePassword is an exported constant or variable used by the lifecycle orchestrator.
	UpdatePassword Path = "/update-password"
	// MFAChallenge is an exported constant or variable used by the lifecycle orchestrator.
	MFAChallenge Path = "/mfa-challenge"
	// Dashboard is an exported constant or variable used by the lifecycle orchestrator.
	Dashboard Path = "/dashboard"
	// Staff is an exported constant or variable used by the lifecycle orchestrator.
	Staff Path = "/staff"
	// ManagerDashboard is an exported constant or variable used by the lifecycle orchestrator.
	ManagerDashboard Path = "/manager-dashboard"
	// RegionalDashboard is an exported constant or variable used by the lifecycle orchestrator.
	RegionalDashboard Path = "/regional-dashboard"
	// OperationsDashboard is an exported constant or variable used by the lifecycle orchestrator.
	OperationsDashboard Path = "/operations-dashboard"
	// CheckerDashboard is an exported constant or variable used by the lifecycle orchestrator.
	CheckerDashboard Path = "/checker-dashboard"
	// HRDashboard is an exported constant or variable used by the lifecycle orchestrator.
	HRDashboard Path = "/hr-dashboard"
)

// PublicPaths are reachable without an authenticated session. The same set
// is excluded from inactivity tracking.
func PublicPaths() []Path {
	return []Path{Login, UpdatePassword, MFAChallenge}
}
