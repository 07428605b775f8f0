package authflow

import "sync/atomic"

// MetricID defines a public type used by authflow APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricBootstrapCompleted is an exported constant or variable used by the lifecycle orchestrator.
	MetricBootstrapCompleted MetricID = iota
	// MetricEventProcessed is an exported constant or variable used by the lifecycle orchestrator.
	MetricEventProcessed
	// MetricEventDeduped is an exported constant or variable used by the lifecycle orchestrator.
	MetricEventDeduped
	// MetricSignIn is an exported constant or variable used by the lifecycle orchestrator.
	MetricSignIn
	// MetricSignOut is an exported constant or variable used by the lifecycle orchestrator.
	MetricSignOut
	// MetricTokenRefreshed is an exported constant or variable used by the lifecycle orchestrator.
	MetricTokenRefreshed
	// MetricRoleRedirect is an exported constant or variable used by the lifecycle orchestrator.
	MetricRoleRedirect
	// MetricMFAChallengeRequired is an exported constant or variable used by the lifecycle orchestrator.
	MetricMFAChallengeRequired
	// MetricMFAChallengeCompleted is an exported constant or variable used by the lifecycle orchestrator.
	MetricMFAChallengeCompleted
	// MetricMFAChallengeFailed is an exported constant or variable used by the lifecycle orchestrator.
	MetricMFAChallengeFailed
	// MetricMFALockout is an exported constant or variable used by the lifecycle orchestrator.
	MetricMFALockout
	// MetricInactivityWarning is an exported constant or variable used by the lifecycle orchestrator.
	MetricInactivityWarning
	// MetricInactivityLogout is an exported constant or variable used by the lifecycle orchestrator.
	MetricInactivityLogout
	// MetricRecoveryStarted is an exported constant or variable used by the lifecycle orchestrator.
	MetricRecoveryStarted
	// MetricRecoveryCompleted is an exported constant or variable used by the lifecycle orchestrator.
	MetricRecoveryCompleted
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by authflow APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot defines a public type used by authflow APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics describes the newmetrics operation and its observable behavior.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
