package link

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/mpdev-io/mpdev/pkg/errors"
)

// DefaultAcquireTimeout is how long an operation waits for exclusive access
// before giving up and reporting the link as busy.
const DefaultAcquireTimeout = 10 * time.Second

// Control bytes understood by the MicroPython REPL.
const (
	// CtrlC interrupts the running program.
	CtrlC = 0x03

	// CtrlD soft-resets the board.
	CtrlD = 0x04
)

// Suspender pauses and resumes the passive serial monitor. Suspend blocks
// until any in-flight poll cycle has finished, so that after it returns, no
// monitor reads can interleave with the caller's serial traffic.
type Suspender interface {
	Suspend()
	Resume()
}

// ConnectionState describes the current owner of the serial link.
type ConnectionState struct {
	Port             string
	ExclusiveHolder  string
	MonitorSuspended bool
}

// Link arbitrates access to the single serial connection to the board. The
// physical link is half-duplex, so at most one operation may hold exclusive
// access at a time; interleaved traffic corrupts the command framing.
type Link struct {
	port string
	baud int

	// AcquireTimeout bounds how long AcquireExclusive waits.
	AcquireTimeout time.Duration

	sem chan struct{}

	mu      sync.Mutex
	holder  string
	monitor Suspender
}

// New creates a Link for the given serial port.
func New(port string, baud int) *Link {
	return &Link{
		port:           port,
		baud:           baud,
		AcquireTimeout: DefaultAcquireTimeout,
		sem:            make(chan struct{}, 1),
	}
}

// Port returns the serial device the link is bound to.
func (l *Link) Port() string {
	return l.port
}

// BaudRate returns the configured serial speed.
func (l *Link) BaudRate() int {
	return l.baud
}

// SetMonitor registers the passive monitor so that exclusive operations can
// suspend its polling for their whole duration.
func (l *Link) SetMonitor(m Suspender) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.monitor = m
}

// State returns a copy of the link's connection state.
func (l *Link) State() ConnectionState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return ConnectionState{
		Port:             l.port,
		ExclusiveHolder:  l.holder,
		MonitorSuspended: l.monitor != nil && l.holder != "",
	}
}

// ExclusiveHeld returns whether any operation currently holds exclusive
// access. The monitor consults this before every poll cycle.
func (l *Link) ExclusiveHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holder != ""
}

// Token represents held exclusive access. Release is idempotent.
type Token struct {
	link        *Link
	OperationID string
	once        sync.Once
}

// AcquireExclusive suspends the monitor and takes exclusive access to the
// link for the named operation. It fails rather than waiting forever if
// another operation appears to be holding the link permanently.
func (l *Link) AcquireExclusive(operation string) (*Token, error) {
	l.mu.Lock()
	monitor := l.monitor
	l.mu.Unlock()

	// Suspend before acquiring so that no poll cycle can start between the
	// acquisition and the operation's first serial exchange.
	if monitor != nil {
		monitor.Suspend()
	}

	select {
	case l.sem <- struct{}{}:
	case <-time.After(l.AcquireTimeout):
		if monitor != nil {
			monitor.Resume()
		}
		return nil, errors.NewFriendlyError(
			"The serial link to the board is busy: another operation has "+
				"held it for over %s. Wait for it to finish, or restart mpdev.",
			l.AcquireTimeout)
	}

	id := uuid.New().String()
	l.mu.Lock()
	l.holder = id
	l.mu.Unlock()

	log.WithFields(log.Fields{
		"operation": operation,
		"id":        id,
	}).Debug("Acquired exclusive access to serial link")
	return &Token{link: l, OperationID: id}, nil
}

// Release gives up exclusive access and resumes the monitor if it was running
// before the operation suspended it.
func (t *Token) Release() {
	t.once.Do(func() {
		l := t.link

		l.mu.Lock()
		l.holder = ""
		monitor := l.monitor
		l.mu.Unlock()

		<-l.sem
		if monitor != nil {
			monitor.Resume()
		}
		log.WithField("id", t.OperationID).Debug("Released exclusive access to serial link")
	})
}

// openPort is mocked for unit testing.
var openPort = func(device string, baud int) (serial.Port, error) {
	return serial.Open(device, &serial.Mode{BaudRate: baud})
}

// Open opens the underlying serial port. Callers that issue their own serial
// traffic must hold an exclusive token for as long as the port is open.
func (l *Link) Open() (serial.Port, error) {
	if l.port == "" {
		return nil, errors.LinkUnavailable{Reason: "no port configured"}
	}

	port, err := openPort(l.port, l.baud)
	if err != nil {
		return nil, errors.WithContext(err, "open serial port")
	}
	return port, nil
}

// SendInterrupt sends Ctrl-C to the board to stop the running program.
func (l *Link) SendInterrupt(token *Token) error {
	return l.sendControl(token, CtrlC)
}

// SendSoftReset sends Ctrl-D to the board to trigger a soft reset.
func (l *Link) SendSoftReset(token *Token) error {
	return l.sendControl(token, CtrlD)
}

func (l *Link) sendControl(token *Token, b byte) error {
	if token == nil || token.link != l {
		return errors.New("control bytes require exclusive access")
	}

	port, err := l.Open()
	if err != nil {
		return err
	}
	defer port.Close()

	if _, err := port.Write([]byte{b}); err != nil {
		return errors.WithContext(err, "write control byte")
	}
	return nil
}
