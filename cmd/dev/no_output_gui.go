package dev

import (
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
)

// noOutputGUI implements a headless session surface used with --no-gui and
// during integration tests. Serial output and log messages go straight to
// stdout, and Run just blocks until `mpdev dev` is killed.
type noOutputGUI struct{}

func (gui noOutputGUI) Run(_ string) error {
	// Just wait for Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	return nil
}

func (gui noOutputGUI) GetLogger() *logrus.Logger {
	return logrus.StandardLogger()
}

func (gui noOutputGUI) SerialWriter() io.Writer {
	return os.Stdout
}
