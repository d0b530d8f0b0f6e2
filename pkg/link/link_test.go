package link

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// recordingSuspender records suspend/resume calls.
type recordingSuspender struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSuspender) Suspend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "suspend")
}

func (s *recordingSuspender) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "resume")
}

func (s *recordingSuspender) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.events...)
}

func TestExclusiveAccess(t *testing.T) {
	lnk := New("/dev/ttyUSB0", 115200)
	assert.False(t, lnk.ExclusiveHeld())

	token, err := lnk.AcquireExclusive("first")
	assert.NoError(t, err)
	assert.True(t, lnk.ExclusiveHeld())

	// A second operation can't get the link until the first releases it.
	acquired := make(chan *Token)
	go func() {
		second, err := lnk.AcquireExclusive("second")
		assert.NoError(t, err)
		acquired <- second
	}()

	select {
	case <-acquired:
		t.Fatal("second operation acquired the link while the first held it")
	case <-time.After(50 * time.Millisecond):
	}

	token.Release()
	second := <-acquired
	assert.True(t, lnk.ExclusiveHeld())
	second.Release()
	assert.False(t, lnk.ExclusiveHeld())
}

func TestAcquireTimesOut(t *testing.T) {
	lnk := New("/dev/ttyUSB0", 115200)
	lnk.AcquireTimeout = 10 * time.Millisecond

	token, err := lnk.AcquireExclusive("holder")
	assert.NoError(t, err)
	defer token.Release()

	_, err = lnk.AcquireExclusive("blocked")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "busy")
}

func TestReleaseIsIdempotent(t *testing.T) {
	lnk := New("/dev/ttyUSB0", 115200)

	token, err := lnk.AcquireExclusive("op")
	assert.NoError(t, err)

	token.Release()
	token.Release()
	assert.False(t, lnk.ExclusiveHeld())

	// The link is still usable after the double release.
	again, err := lnk.AcquireExclusive("op")
	assert.NoError(t, err)
	again.Release()
}

func TestMonitorSuspendedAroundOperations(t *testing.T) {
	lnk := New("/dev/ttyUSB0", 115200)
	suspender := &recordingSuspender{}
	lnk.SetMonitor(suspender)

	token, err := lnk.AcquireExclusive("op")
	assert.NoError(t, err)
	assert.Equal(t, []string{"suspend"}, suspender.Events())

	token.Release()
	assert.Equal(t, []string{"suspend", "resume"}, suspender.Events())
}

func TestMonitorResumedAfterFailedAcquire(t *testing.T) {
	lnk := New("/dev/ttyUSB0", 115200)
	lnk.AcquireTimeout = 10 * time.Millisecond
	suspender := &recordingSuspender{}
	lnk.SetMonitor(suspender)

	token, err := lnk.AcquireExclusive("holder")
	assert.NoError(t, err)

	// The failed acquisition must undo its suspension, or the monitor
	// would stay paused forever.
	_, err = lnk.AcquireExclusive("blocked")
	assert.Error(t, err)
	assert.Equal(t, []string{"suspend", "suspend", "resume"}, suspender.Events())

	token.Release()
	assert.Equal(t, []string{"suspend", "suspend", "resume", "resume"},
		suspender.Events())
}

func TestState(t *testing.T) {
	lnk := New("/dev/ttyACM0", 9600)

	state := lnk.State()
	assert.Equal(t, "/dev/ttyACM0", state.Port)
	assert.Empty(t, state.ExclusiveHolder)

	token, err := lnk.AcquireExclusive("op")
	assert.NoError(t, err)
	assert.Equal(t, token.OperationID, lnk.State().ExclusiveHolder)
	token.Release()
	assert.Empty(t, lnk.State().ExclusiveHolder)
}
