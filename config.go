package authflow

import (
	"errors"
	"time"

	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

// Config defines a public type used by authflow APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Routes     RoutesConfig
	MFA        MFAConfig
	Inactivity InactivityConfig
	Markers    MarkersConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig defines a public type used by authflow APIs.
//
// RoutesConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RoutesConfig struct {
	// Public routes are reachable without authentication and excluded
	// from inactivity tracking.
	Public []routes.Path
	// Landings is the per-role default landing page mapping used by the
	// navigation guard.
	Landings map[session.Role]routes.Path
}

/*
====================================
MFA CONFIG
====================================
*/

// MFAConfig defines a public type used by authflow APIs.
//
// MFAConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MFAConfig struct {
	// PrivilegedRoles is the fixed set of roles subject to a second
	// factor. Roles outside this set never see a challenge.
	PrivilegedRoles []session.Role
	// SettingKey is the remote feature flag consulted before challenging
	// a privileged role. Lookup errors fail open to disabled.
	SettingKey      string
	MaxAttempts     int
	LockoutDuration time.Duration
	ChallengeTTL    time.Duration
}

/*
====================================
INACTIVITY CONFIG
====================================
*/

// InactivityConfig defines a public type used by authflow APIs.
//
// InactivityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type InactivityConfig struct {
	Timeout          time.Duration
	WarningLead      time.Duration
	ActivityThrottle time.Duration
}

// MarkersConfig defines a public type used by authflow APIs.
//
// MarkersConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MarkersConfig struct {
	// TTL bounds every durable marker's lifetime so no marker outlives
	// the browsing session.
	TTL time.Duration
}

// AuditConfig defines a public type used by authflow APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authflow APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return cloneConfig(defaultConfig())
}

func defaultConfig() Config {
	return Config{
		Routes: RoutesConfig{
			Public:   routes.PublicPaths(),
			Landings: routes.DefaultLandings(),
		},
		MFA: MFAConfig{
			PrivilegedRoles: []session.Role{session.RoleAdmin},
			SettingKey:      "mfa_enabled",
			MaxAttempts:     5,
			LockoutDuration: 10 * time.Minute,
			ChallengeTTL:    10 * time.Minute,
		},
		Inactivity: InactivityConfig{
			Timeout:          10 * time.Minute,
			WarningLead:      60 * time.Second,
			ActivityThrottle: 5 * time.Second,
		},
		Markers: MarkersConfig{
			TTL: 12 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg

	if cfg.Routes.Public != nil {
		out.Routes.Public = make([]routes.Path, len(cfg.Routes.Public))
		copy(out.Routes.Public, cfg.Routes.Public)
	}
	if cfg.Routes.Landings != nil {
		out.Routes.Landings = make(map[session.Role]routes.Path, len(cfg.Routes.Landings))
		for role, path := range cfg.Routes.Landings {
			out.Routes.Landings[role] = path
		}
	}
	if cfg.MFA.PrivilegedRoles != nil {
		out.MFA.PrivilegedRoles = make([]session.Role, len(cfg.MFA.PrivilegedRoles))
		copy(out.MFA.PrivilegedRoles, cfg.MFA.PrivilegedRoles)
	}

	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.MFA.SettingKey == "" {
		return errors.New("MFA SettingKey is required")
	}
	if c.MFA.MaxAttempts <= 0 {
		return errors.New("MFA MaxAttempts must be > 0")
	}
	if c.MFA.LockoutDuration <= 0 {
		return errors.New("MFA LockoutDuration must be > 0")
	}
	if c.MFA.ChallengeTTL <= 0 {
		return errors.New("MFA ChallengeTTL must be > 0")
	}
	for _, role := range c.MFA.PrivilegedRoles {
		if !session.ValidRole(string(role)) {
			return errors.New("MFA PrivilegedRoles contains an unknown role")
		}
	}

	if c.Inactivity.Timeout <= 0 {
		return errors.New("Inactivity Timeout must be > 0")
	}
	if c.Inactivity.WarningLead <= 0 {
		return errors.New("Inactivity WarningLead must be > 0")
	}
	if c.Inactivity.WarningLead >= c.Inactivity.Timeout {
		return errors.New("Inactivity WarningLead must be < Timeout")
	}
	if c.Inactivity.ActivityThrottle < 0 {
		return errors.New("Inactivity ActivityThrottle must be >= 0")
	}

	if c.Markers.TTL <= 0 {
		return errors.New("Markers TTL must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
