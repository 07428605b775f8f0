package idle

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// State is the inactivity timer's lifecycle state.
type State uint8

const (
	// StateDisarmed is an exported constant or variable used by the lifecycle orchestrator.
	StateDisarmed State = iota
	// StateArmed is an exported constant or variable used by the lifecycle orchestrator.
	StateArmed
	// StateWarningShown is an exported constant or variable used by the lifecycle orchestrator.
	StateWarningShown
	// StateExpired is an exported constant or variable used by the lifecycle orchestrator.
	StateExpired
)

// Config carries the timer durations. Defaults: 10 minute timeout, 60 second
// warning lead, 5 second activity throttle.
type Config struct {
	Timeout          time.Duration
	WarningLead      time.Duration
	ActivityThrottle time.Duration
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Minute,
		WarningLead:      60 * time.Second,
		ActivityThrottle: 5 * time.Second,
	}
}

// Timer owns the warning/logout handle pair for inactivity tracking. At most
// one pair is live at a time: arming always cancels the previous pair first.
// Activity resets are throttled so a high-frequency pointer-move stream does
// not re-arm on every event; the throttle never changes observable timeout
// behavior because a suppressed reset is always followed within the throttle
// interval by an accepted one or by silence.
type Timer struct {
	mu  sync.Mutex
	cfg Config

	onWarning func()
	onExpire  func()

	limiter *rate.Limiter

	state      State
	generation uint64
	warning    *time.Timer
	logout     *time.Timer
}

// New describes the new operation and its observable behavior.
func New(cfg Config, onWarning, onExpire func()) *Timer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.WarningLead <= 0 || cfg.WarningLead >= cfg.Timeout {
		cfg.WarningLead = cfg.Timeout / 10
	}
	if cfg.ActivityThrottle <= 0 {
		cfg.ActivityThrottle = DefaultConfig().ActivityThrottle
	}
	return &Timer{
		cfg:       cfg,
		onWarning: onWarning,
		onExpire:  onExpire,
		limiter:   rate.NewLimiter(rate.Every(cfg.ActivityThrottle), 1),
		state:     StateDisarmed,
	}
}

// Arm starts a fresh warning/logout pair, cancelling any live pair first.
func (t *Timer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLocked()
}

// Reset is Arm for an already-armed timer: any qualifying activity restores
// the full timeout and clears a shown warning. A disarmed timer stays
// disarmed.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateArmed && t.state != StateWarningShown {
		return
	}
	t.armLocked()
}

// OnActivity is the throttled entry point wired to activity listeners.
func (t *Timer) OnActivity() {
	if !t.limiter.Allow() {
		return
	}
	t.Reset()
}

// Disarm cancels the live pair. Safe to call in any state.
func (t *Timer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.state = StateDisarmed
}

// State describes the state operation and its observable behavior.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) armLocked() {
	t.cancelLocked()
	t.generation++
	gen := t.generation

	t.state = StateArmed
	t.warning = time.AfterFunc(t.cfg.Timeout-t.cfg.WarningLead, func() { t.fireWarning(gen) })
	t.logout = time.AfterFunc(t.cfg.Timeout, func() { t.fireExpire(gen) })
}

// cancelLocked stops both handles. A handle that already fired is harmless:
// its callback re-checks the generation before acting.
func (t *Timer) cancelLocked() {
	if t.warning != nil {
		t.warning.Stop()
		t.warning = nil
	}
	if t.logout != nil {
		t.logout.Stop()
		t.logout = nil
	}
}

func (t *Timer) fireWarning(gen uint64) {
	t.mu.Lock()
	if gen != t.generation || t.state != StateArmed {
		t.mu.Unlock()
		return
	}
	t.state = StateWarningShown
	cb := t.onWarning
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (t *Timer) fireExpire(gen uint64) {
	t.mu.Lock()
	if gen != t.generation || (t.state != StateArmed && t.state != StateWarningShown) {
		t.mu.Unlock()
		return
	}
	t.state = StateExpired
	t.warning = nil
	t.logout = nil
	cb := t.onExpire
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}
