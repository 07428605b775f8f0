package session

import "strings"

// Role is the role attribute carried in a session's profile metadata.
//
// Role instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Role string

const (
	// RoleAdmin is an exported constant or variable used by the lifecycle orchestrator.
	RoleAdmin Role = "ADMIN"
	// RoleManager is an exported constant or variable used by the lifecycle orchestrator.
	RoleManager Role = "MANAGER"
	// RoleRegional is an exported constant or variable used by the lifecycle orchestrator.
	RoleRegional Role = "REGIONAL"
	// RoleOperations is an exported constant or variable used by the lifecycle orchestrator.
	RoleOperations Role = "OPERATIONS"
	// RoleChecker is an exported constant or variable used by the lifecycle orchestrator.
	RoleChecker Role = "CHECKER"
	// RoleHR is an exported constant or variable used by the lifecycle orchestrator.
	RoleHR Role = "HR"
	// RoleStaff is the least-privileged role and the fallback when the
	// backend supplies no role or an unknown one.
	RoleStaff Role = "STAFF"
)

var validRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleManager:    {},
	RoleRegional:   {},
	RoleOperations: {},
	RoleChecker:    {},
	RoleHR:         {},
	RoleStaff:      {},
}

// NormalizeRole maps a raw role attribute to a known Role, falling back to
// RoleStaff for empty or unrecognized values. Backends are inconsistent
// about case and padding, so both are forgiven.
func NormalizeRole(raw string) Role {
	r := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := validRoles[r]; ok {
		return r
	}
	return RoleStaff
}

// ValidRole reports whether raw names one of the known roles.
func ValidRole(raw string) bool {
	_, ok := validRoles[Role(strings.ToUpper(strings.TrimSpace(raw)))]
	return ok
}
