// Package monitor implements the passive serial monitor: a timer loop that
// drains whatever the board has printed since the last poll and feeds it to
// an output writer. The monitor never competes with exclusive operations for
// the serial link; it checks before every cycle and skips rather than
// queueing a backlog.
package monitor

import (
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"github.com/mpdev-io/mpdev/pkg/link"
)

const (
	// DefaultInterval is how often the monitor polls the board for output.
	DefaultInterval = 2 * time.Second

	// DefaultPollWindow bounds how long a single poll may hold the serial
	// port.
	DefaultPollWindow = 250 * time.Millisecond
)

// State is the monitor's lifecycle state.
type State int

const (
	// Idle means the monitor hasn't been started or has been stopped.
	Idle State = iota

	// Polling means the monitor reads the board on every tick.
	Polling

	// Suspended means an exclusive operation paused the monitor. Ticks are
	// skipped until Resume.
	Suspended
)

// readBoard is mocked for unit testing. It opens the serial port, reads
// whatever bytes arrive within the window, and closes the port again.
var readBoard = func(lnk *link.Link, window time.Duration) ([]byte, error) {
	port, err := lnk.Open()
	if err != nil {
		return nil, err
	}
	defer port.Close()

	if err := port.SetReadTimeout(window); err != nil {
		return nil, err
	}

	var output []byte
	buf := make([]byte, 1024)
	for {
		n, err := port.Read(buf)
		if err != nil {
			return output, err
		}
		if n == 0 {
			// Read timeout expired with nothing buffered.
			return output, nil
		}
		output = append(output, buf[:n]...)
	}
}

// Monitor polls the serial link at a fixed interval while no operation holds
// exclusive access.
type Monitor struct {
	lnk *link.Link
	out io.Writer

	// Interval and PollWindow may be overridden before Start.
	Interval   time.Duration
	PollWindow time.Duration

	clock clockwork.Clock

	// mu is held for the duration of each poll cycle, so Suspend blocks
	// until any in-flight read has finished.
	mu         sync.Mutex
	state      State
	suspends   int
	wasPolling bool

	stop chan struct{}
	done chan struct{}
}

// New creates a Monitor that writes the board's output to out, and registers
// it with the link so that exclusive operations suspend it.
func New(lnk *link.Link, out io.Writer) *Monitor {
	m := &Monitor{
		lnk:        lnk,
		out:        out,
		Interval:   DefaultInterval,
		PollWindow: DefaultPollWindow,
		clock:      clockwork.NewRealClock(),
	}
	lnk.SetMonitor(m)
	return m
}

// Start begins polling. It's a no-op if the monitor is already running.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return
	}

	m.state = Polling
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.run(m.stop, m.done)
}

// Stop halts polling entirely and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.state == Idle {
		m.mu.Unlock()
		return
	}
	stop, done := m.stop, m.done
	m.state = Idle
	m.suspends = 0
	m.wasPolling = false
	m.mu.Unlock()

	close(stop)
	<-done
}

// State returns the monitor's current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Suspend pauses polling on behalf of an exclusive operation. It blocks
// until any in-flight poll cycle has finished, so after it returns no
// monitor reads can interleave with the caller's serial traffic. Suspends
// nest: the monitor resumes once every suspender has called Resume.
func (m *Monitor) Suspend() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.suspends == 0 {
		m.wasPolling = m.state == Polling
	}
	m.suspends++
	if m.state == Polling {
		m.state = Suspended
	}
}

// Resume undoes one Suspend. Polling restarts only if the monitor was
// polling before the first suspension, which makes resume idempotent for
// monitors that were never started.
func (m *Monitor) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.suspends == 0 {
		return
	}
	m.suspends--
	if m.suspends == 0 && m.state == Suspended && m.wasPolling {
		m.state = Polling
	}
}

func (m *Monitor) run(stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-m.clock.After(m.Interval):
			m.pollOnce()
		case <-stop:
			return
		}
	}
}

// pollOnce runs one poll cycle. A cycle is skipped, not queued, when the
// monitor is suspended or an operation holds the link.
func (m *Monitor) pollOnce() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Polling {
		return
	}
	if m.lnk.ExclusiveHeld() {
		return
	}

	output, err := readBoard(m.lnk, m.PollWindow)
	if err != nil {
		log.WithError(err).Debug("Serial poll failed. Will retry on the next tick.")
		return
	}
	if len(output) == 0 {
		return
	}

	if _, err := m.out.Write(output); err != nil {
		log.WithError(err).Warn("Failed to write board output")
	}
}
