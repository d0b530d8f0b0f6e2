package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mpdev-io/mpdev/pkg/errors"
)

// friendlyError is an error whose message can be shown to the user directly,
// without the log formatting used for unexpected errors.
type friendlyError interface {
	FriendlyMessage() string
}

// HandleFatalError prints the given error and exits the process. Friendly
// errors are printed bare; anything else is logged with its full context so
// that bug reports contain the chain of failed operations.
func HandleFatalError(err error) {
	if friendly, ok := errors.RootCause(err).(friendlyError); ok {
		fmt.Fprintln(os.Stderr, friendly.FriendlyMessage())
	} else {
		log.WithError(err).Error("Fatal error")
	}
	os.Exit(1)
}

// HandlePanic recovers from panics in goroutines so that we can log the stack
// trace before crashing, rather than dumping it raw to the terminal.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("panic", r).Error(string(debug.Stack()))
		os.Exit(1)
	}
}

// PromptYesOrNo asks the user the given question, and only accepts a yes or
// no answer.
func PromptYesOrNo(in io.Reader, out io.Writer, question string) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "%s (y/n): ", question)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return false, errors.WithContext(err, "read answer")
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// ProgressPrinter writes a message followed by a trailing dot at a regular
// interval, to show the user that a slow operation is still making progress.
type ProgressPrinter struct {
	out     io.Writer
	message string
	stop    chan struct{}
	stopped chan struct{}
}

// NewProgressPrinter creates a new ProgressPrinter.
func NewProgressPrinter(out io.Writer, message string) *ProgressPrinter {
	return &ProgressPrinter{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Run prints the progress message until Stop is called. It's meant to be run
// in its own goroutine.
func (pp *ProgressPrinter) Run() {
	defer close(pp.stopped)

	fmt.Fprintf(pp.out, "%s..", pp.message)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fmt.Fprint(pp.out, ".")
		case <-pp.stop:
			fmt.Fprintln(pp.out)
			return
		}
	}
}

// Stop terminates the printer and waits for its final newline to be written.
func (pp *ProgressPrinter) Stop() {
	close(pp.stop)
	<-pp.stopped
}
