package dev

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/errors"
	"github.com/mpdev-io/mpdev/pkg/fswatch"
	"github.com/mpdev-io/mpdev/pkg/link"
	"github.com/mpdev-io/mpdev/pkg/monitor"
)

// chanWriter provides an io.Writer interface for writing to a channel.
type chanWriter chan []byte

func (w chanWriter) Write(p []byte) (int, error) {
	cpy := make([]byte, len(p))
	copy(cpy, p)
	w <- cpy
	return len(p), nil
}

// devGUI abstracts the user-facing surface of the dev session, so that the
// session logic is the same with and without the terminal GUI.
type devGUI interface {
	// Run implements the main GUI loop. It returns when the user quits.
	Run(port string) error

	// GetLogger returns a logrus Logger that displays messages on the
	// user's screen.
	GetLogger() *logrus.Logger

	// SerialWriter returns the writer the serial monitor feeds board
	// output into.
	SerialWriter() io.Writer
}

// New creates a new `dev` command.
func New() *cobra.Command {
	var disableGUI bool
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start a development session against the board",
		Long: `Watch the board's serial output, and sync saved files to the board.

The serial monitor polls the board for output between operations. When the
workspace's auto-sync flag is enabled (see "mpdev autosync"), saving a file
in the project directory pushes the change to the board.`,
		Run: func(_ *cobra.Command, _ []string) {
			var gui devGUI
			if disableGUI {
				gui = noOutputGUI{}
			} else {
				gui = newDevGUI()
			}

			if err := run(gui); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&disableGUI, "no-gui", false,
		"Print serial output and status messages to stdout instead of the GUI.")
	return cmd
}

func run(gui devGUI) error {
	userConfig, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	projectDir, project, err := util.ResolveProject(userConfig)
	if err != nil {
		return err
	}

	port, err := link.ResolvePort(userConfig.Port)
	if err != nil {
		return err
	}
	lnk := link.New(port, userConfig.BaudRate)

	logger := gui.GetLogger()

	mon := monitor.New(lnk, gui.SerialWriter())
	mon.Start()
	defer mon.Stop()

	s, err := newSyncer(logger, lnk, userConfig, projectDir, project)
	if err != nil {
		return err
	}
	go func() {
		defer util.HandlePanic()
		s.Run()
	}()
	defer s.Stop()

	logger.Infof("Watching %s. Quit with Ctrl-C.", port)
	return gui.Run(port)
}

// watchProject sets up the file watcher, falling back to pure polling when
// the project has more files than the OS lets us watch.
func watchProject(logger *logrus.Logger, projectDir string,
	project config.Project) (chan struct{}, error) {

	fileWatcher, err := fswatch.Watch(projectDir, project.Ignore)
	if err != nil {
		rootCause := errors.RootCause(err)
		if dneErr, ok := rootCause.(errors.FileNotFound); ok {
			return nil, errors.NewFriendlyError(
				"Failed to watch files for syncing.\n"+
					"%q doesn't exist.", dneErr.Path)
		} else if strings.Contains(rootCause.Error(), "too many open files") {
			logger.Warnf("Too many files for mpdev to automatically watch "+
				"for changes. mpdev will poll for changes every %d seconds "+
				"instead.", pollSeconds)

			// Disable the file watcher channel.
			return nil, nil
		}
		return nil, errors.WithContext(err, "watch files")
	}
	return fileWatcher, nil
}
