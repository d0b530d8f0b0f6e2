package dev

import (
	"fmt"
	"io"
	"time"

	"github.com/buger/goterm"
	"github.com/jroimartin/gocui"
	"github.com/sirupsen/logrus"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

const (
	serialWidgetName = "serial"
	statusWidgetName = "status"

	// statusHeight is the height of the status view at the bottom of the
	// screen.
	statusHeight = 6
)

// devGUIImpl contains the GUI implementation for normal user usage.
type devGUIImpl struct {
	logger    *logrus.Logger
	loggerOut chanWriter
	serialOut chanWriter
}

func newDevGUI() devGUI {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		TimestampFormat: time.Kitchen,
	})

	// Allow 256 `Write`s without a corresponding `Read`. We give a generous
	// buffer here because if the channel becomes full, calls to write log
	// messages will block until there's space in the channel (which means that
	// any work in the same thread can't proceed until the log message is
	// written to the UI).
	loggerOut := chanWriter(make(chan []byte, 256))
	logger.SetOutput(loggerOut)

	serialOut := chanWriter(make(chan []byte, 256))
	return &devGUIImpl{logger, loggerOut, serialOut}
}

func (gui *devGUIImpl) GetLogger() *logrus.Logger {
	return gui.logger
}

func (gui *devGUIImpl) SerialWriter() io.Writer {
	return gui.serialOut
}

func (gui *devGUIImpl) Run(port string) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer g.Close()

	serial := &serialWidget{port: port}
	go func() {
		defer util.HandlePanic()
		copyToView(g, serialWidgetName, gui.serialOut)
	}()

	status := &statusWidget{}
	go func() {
		defer util.HandlePanic()
		copyToView(g, statusWidgetName, gui.loggerOut)
	}()

	g.SetManager(serial, status)
	ctrlCHandler := func(_ *gocui.Gui, _ *gocui.View) error {
		return gocui.ErrQuit
	}
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, ctrlCHandler); err != nil {
		return errors.WithContext(err, "bind GUI Ctrl-C")
	}

	if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

// copyToView appends everything written to `c` to the named view.
func copyToView(g *gocui.Gui, viewName string, c chanWriter) {
	for chunk := range c {
		chunk := chunk
		g.Update(func(g *gocui.Gui) error {
			view, err := g.View(viewName)
			if err != nil {
				// The view doesn't exist until the first layout pass.
				return nil
			}
			_, err = view.Write(chunk)
			return err
		})
	}
}

// serialWidget displays the board's serial output. It takes up the screen
// above the status view.
type serialWidget struct {
	port string
}

func (w *serialWidget) Layout(g *gocui.Gui) error {
	maxWidth, maxHeight := g.Size()

	v, err := g.SetView(serialWidgetName, 0, 0, maxWidth-1, maxHeight-statusHeight-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}

	v.Title = fmt.Sprintf("Serial monitor (%s)", goterm.Color(w.port, goterm.CYAN))
	v.Wrap = true
	v.Autoscroll = true
	return nil
}

// statusWidget displays sync progress and errors. It's placed at the bottom
// of the screen.
type statusWidget struct{}

func (w *statusWidget) Layout(g *gocui.Gui) error {
	maxWidth, maxHeight := g.Size()

	v, err := g.SetView(statusWidgetName, 0, maxHeight-statusHeight, maxWidth-1, maxHeight-1)
	if err != nil && err != gocui.ErrUnknownView {
		return err
	}

	v.Title = "Status"
	v.Wrap = true
	v.Autoscroll = true
	return nil
}
