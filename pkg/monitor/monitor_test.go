package monitor

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/mpdev-io/mpdev/pkg/link"
)

// syncBuffer is a goroutine-safe writer capturing the monitor's output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testMonitor struct {
	*Monitor
	lnk   *link.Link
	clock clockwork.FakeClock
	out   *syncBuffer

	mu    sync.Mutex
	polls int
}

func newTestMonitor(output string) (*testMonitor, func()) {
	lnk := link.New("/dev/ttyUSB0", 115200)
	out := &syncBuffer{}

	tm := &testMonitor{
		lnk:   lnk,
		clock: clockwork.NewFakeClock(),
		out:   out,
	}
	tm.Monitor = New(lnk, out)
	tm.Monitor.clock = tm.clock

	oldReadBoard := readBoard
	readBoard = func(_ *link.Link, _ time.Duration) ([]byte, error) {
		tm.mu.Lock()
		defer tm.mu.Unlock()
		tm.polls++
		return []byte(output), nil
	}
	return tm, func() { readBoard = oldReadBoard }
}

func (tm *testMonitor) pollCount() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.polls
}

// tick advances the fake clock through one full poll cycle. The run loop
// only re-registers its timer after pollOnce returns, so blocking for the
// next waiter guarantees the cycle finished.
func (tm *testMonitor) tick() {
	tm.clock.BlockUntil(1)
	tm.clock.Advance(tm.Interval)
	tm.clock.BlockUntil(1)
}

func TestMonitorPollsAndForwardsOutput(t *testing.T) {
	tm, restore := newTestMonitor(">>> hello\n")
	defer restore()
	tm.Start()
	defer tm.Stop()

	assert.Equal(t, Polling, tm.State())

	tm.tick()
	tm.tick()

	assert.Equal(t, 2, tm.pollCount())
	assert.Equal(t, ">>> hello\n>>> hello\n", tm.out.String())
}

func TestMonitorSkipsWhileExclusiveHeld(t *testing.T) {
	tm, restore := newTestMonitor("output")
	defer restore()
	tm.Start()
	defer tm.Stop()

	// Detach the monitor from the link so that acquisition doesn't suspend
	// it: this exercises the per-cycle ExclusiveHeld check on its own.
	tm.lnk.SetMonitor(nil)
	token, err := tm.lnk.AcquireExclusive("op")
	assert.NoError(t, err)

	tm.tick()
	tm.tick()
	assert.Zero(t, tm.pollCount())
	assert.Empty(t, tm.out.String())

	token.Release()
	tm.tick()
	assert.Equal(t, 1, tm.pollCount())
}

func TestMonitorSuspendedByOperation(t *testing.T) {
	tm, restore := newTestMonitor("output")
	defer restore()
	tm.Start()
	defer tm.Stop()

	// New registered the monitor with the link, so acquisition suspends it.
	token, err := tm.lnk.AcquireExclusive("op")
	assert.NoError(t, err)
	assert.Equal(t, Suspended, tm.State())

	tm.tick()
	assert.Zero(t, tm.pollCount())

	token.Release()
	assert.Equal(t, Polling, tm.State())

	tm.tick()
	assert.Equal(t, 1, tm.pollCount())
}

func TestResumeOnlyAfterLastSuspender(t *testing.T) {
	tm, restore := newTestMonitor("output")
	defer restore()
	tm.Start()
	defer tm.Stop()

	tm.Suspend()
	tm.Suspend()
	tm.Resume()
	assert.Equal(t, Suspended, tm.State())

	tm.Resume()
	assert.Equal(t, Polling, tm.State())

	// Extra resumes are no-ops.
	tm.Resume()
	assert.Equal(t, Polling, tm.State())
}

func TestResumeDoesNotStartIdleMonitor(t *testing.T) {
	tm, restore := newTestMonitor("output")
	defer restore()

	// The monitor was never started, so a suspend/resume pair from an
	// operation must leave it idle.
	tm.Suspend()
	tm.Resume()
	assert.Equal(t, Idle, tm.State())
}

func TestStopWhileSuspended(t *testing.T) {
	tm, restore := newTestMonitor("output")
	defer restore()
	tm.Start()
	tm.Suspend()
	tm.Stop()
	assert.Equal(t, Idle, tm.State())
}
