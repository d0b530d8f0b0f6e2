package repl

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// exitByte is the key that detaches the terminal from the board (Ctrl-]).
const exitByte = 0x1d

// New creates a new `repl` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Open a terminal connected to the board's REPL",
		Long: "Connect the terminal directly to the MicroPython REPL over the\n" +
			"serial link. Detach with Ctrl-].",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	session, err := util.OpenSession("repl")
	if err != nil {
		return err
	}
	defer session.Close()

	port, err := session.Link.Open()
	if err != nil {
		return err
	}
	defer port.Close()

	fmt.Printf("Connected to %s. Detach with Ctrl-].\n", session.Link.Port())

	// Put the terminal into raw mode to prevent it echoing characters twice.
	oldState, err := terminal.MakeRaw(0)
	if err != nil {
		return errors.WithContext(err, "set terminal mode")
	}

	defer func() {
		_ = terminal.Restore(0, oldState)
	}()

	// Board output is copied to the screen until the serial port closes.
	go func() {
		defer util.HandlePanic()
		_, _ = io.Copy(os.Stdout, port)
	}()

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return errors.WithContext(err, "read stdin")
		}
		if n == 0 {
			continue
		}

		if buf[0] == exitByte {
			return nil
		}

		if _, err := port.Write(buf[:n]); err != nil {
			return errors.WithContext(err, "write serial")
		}
	}
}
