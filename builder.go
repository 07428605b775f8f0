package authflow

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/okellolabs/authflow/idle"
	"github.com/okellolabs/authflow/markers"
	"github.com/okellolabs/authflow/routes"
	"github.com/okellolabs/authflow/session"
)

// Builder defines a public type used by authflow APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	identity IdentityClient
	settings SettingsClient
	nav      Navigator
	notifier Notifier

	markerStore markers.Store
	redisClient *redis.Client
	markerScope string

	auditSink AuditSink
	logger    *zap.Logger

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithIdentity describes the withidentity operation and its observable behavior.
//
// WithIdentity may return an error when input validation, dependency calls, or security checks fail.
// WithIdentity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithIdentity(client IdentityClient) *Builder {
	b.identity = client
	return b
}

// WithSettings describes the withsettings operation and its observable behavior.
//
// WithSettings may return an error when input validation, dependency calls, or security checks fail.
// WithSettings does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSettings(client SettingsClient) *Builder {
	b.settings = client
	return b
}

// WithNavigator describes the withnavigator operation and its observable behavior.
//
// WithNavigator may return an error when input validation, dependency calls, or security checks fail.
// WithNavigator does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNavigator(nav Navigator) *Builder {
	b.nav = nav
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier may return an error when input validation, dependency calls, or security checks fail.
// WithNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithMarkerStore describes the withmarkerstore operation and its observable behavior.
//
// WithMarkerStore may return an error when input validation, dependency calls, or security checks fail.
// WithMarkerStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMarkerStore(s markers.Store) *Builder {
	b.markerStore = s
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// WithRedis backs the marker store with Redis, scoped per browsing session.
// Scope is typically a session cookie value so two tabs of the same
// session share markers while distinct users never collide.
func (b *Builder) WithRedis(client *redis.Client, scope string) *Builder {
	b.redisClient = client
	b.markerScope = scope
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Orchestrator, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.identity == nil {
		return nil, errors.New("identity client required")
	}
	if b.nav == nil {
		return nil, errors.New("navigator required")
	}

	notifier := b.notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := b.markerStore
	if store == nil {
		if b.redisClient != nil {
			store = markers.NewRedis(b.redisClient, "af", b.markerScope, cfg.Markers.TTL)
		} else {
			store = markers.NewMemory()
		}
	}

	var sink AuditSink = NoOpSink{}
	if b.auditSink != nil {
		sink = b.auditSink
	}

	o := &Orchestrator{
		config:      cfg,
		identity:    b.identity,
		settings:    b.settings,
		nav:         b.nav,
		notifier:    notifier,
		markerStore: store,
		guard:       routes.NewGuard(cfg.Routes.Public, cfg.Routes.Landings),
		sessions:    session.NewStore(),
		audit:       newAuditDispatcher(cfg.Audit, sink),
		metrics:     NewMetrics(cfg.Metrics),
		logger:      logger,
	}
	o.timer = idle.New(idle.Config{
		Timeout:          cfg.Inactivity.Timeout,
		WarningLead:      cfg.Inactivity.WarningLead,
		ActivityThrottle: cfg.Inactivity.ActivityThrottle,
	}, o.onIdleWarning, o.onIdleExpire)

	b.built = true
	return o, nil
}
