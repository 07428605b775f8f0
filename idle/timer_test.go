package idle

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testTimer(warnings, expiries *atomic.Int32, cfg Config) *Timer {
	return New(cfg,
		func() { warnings.Add(1) },
		func() { expiries.Add(1) },
	)
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, timeout, 5*time.Millisecond)
}

func TestTimerWarningThenExpiry(t *testing.T) {
	var warnings, expiries atomic.Int32
	tm := testTimer(&warnings, &expiries, Config{
		Timeout:          120 * time.Millisecond,
		WarningLead:      60 * time.Millisecond,
		ActivityThrottle: time.Millisecond,
	})
	defer tm.Disarm()

	tm.Arm()
	require.Equal(t, StateArmed, tm.State())

	eventually(t, time.Second, func() bool { return warnings.Load() == 1 })
	require.Equal(t, StateWarningShown, tm.State())
	require.Equal(t, int32(0), expiries.Load())

	eventually(t, time.Second, func() bool { return expiries.Load() == 1 })
	require.Equal(t, StateExpired, tm.State())
	require.Equal(t, int32(1), warnings.Load())
}

func TestTimerResetClearsShownWarning(t *testing.T) {
	var warnings, expiries atomic.Int32
	tm := testTimer(&warnings, &expiries, Config{
		Timeout:          120 * time.Millisecond,
		WarningLead:      60 * time.Millisecond,
		ActivityThrottle: time.Millisecond,
	})
	defer tm.Disarm()

	tm.Arm()
	eventually(t, time.Second, func() bool { return warnings.Load() == 1 })

	tm.Reset()
	require.Equal(t, StateArmed, tm.State())

	// The full timeout is restored: a second warning fires before any
	// expiry.
	eventually(t, time.Second, func() bool { return warnings.Load() == 2 })
	require.Equal(t, int32(0), expiries.Load())
}

func TestTimerResetWhileDisarmedStaysDisarmed(t *testing.T) {
	var warnings, expiries atomic.Int32
	tm := testTimer(&warnings, &expiries, Config{
		Timeout:     50 * time.Millisecond,
		WarningLead: 25 * time.Millisecond,
	})

	tm.Reset()
	require.Equal(t, StateDisarmed, tm.State())

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), warnings.Load())
	require.Equal(t, int32(0), expiries.Load())
}

func TestTimerDisarmCancelsPendingCallbacks(t *testing.T) {
	var warnings, expiries atomic.Int32
	tm := testTimer(&warnings, &expiries, Config{
		Timeout:     50 * time.Millisecond,
		WarningLead: 25 * time.Millisecond,
	})

	tm.Arm()
	tm.Disarm()
	require.Equal(t, StateDisarmed, tm.State())

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), warnings.Load())
	require.Equal(t, int32(0), expiries.Load())
}

func TestTimerActivityThrottle(t *testing.T) {
	var warnings, expiries atomic.Int32
	tm := testTimer(&warnings, &expiries, Config{
		Timeout:          time.Minute,
		WarningLead:      time.Second,
		ActivityThrottle: time.Hour,
	})
	defer tm.Disarm()

	tm.Arm()
	tm.mu.Lock()
	gen := tm.generation
	tm.mu.Unlock()

	// The limiter's initial token admits one reset; the rest of the
	// burst is suppressed.
	for i := 0; i < 50; i++ {
		tm.OnActivity()
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	require.Equal(t, gen+1, tm.generation)
}

func TestTimerRearmSupersedesOldCallbacks(t *testing.T) {
	var warnings, expiries atomic.Int32
	tm := testTimer(&warnings, &expiries, Config{
		Timeout:          80 * time.Millisecond,
		WarningLead:      40 * time.Millisecond,
		ActivityThrottle: time.Millisecond,
	})
	defer tm.Disarm()

	tm.Arm()
	time.Sleep(20 * time.Millisecond)
	tm.Arm()

	// Only the second pair may fire: one warning, one expiry.
	eventually(t, time.Second, func() bool { return expiries.Load() == 1 })
	require.Equal(t, int32(1), warnings.Load())
}

func TestTimerConfigDefaults(t *testing.T) {
	tm := New(Config{}, nil, nil)
	require.Equal(t, DefaultConfig().Timeout, tm.cfg.Timeout)
	require.Equal(t, DefaultConfig().Timeout/10, tm.cfg.WarningLead)
	require.Equal(t, DefaultConfig().ActivityThrottle, tm.cfg.ActivityThrottle)
}
