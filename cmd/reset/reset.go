package reset

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// New creates a new `reset` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Soft-reset the board",
		Long: "Send Ctrl-D over the serial link to restart the MicroPython\n" +
			"interpreter. The board's filesystem is untouched.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	session, err := util.OpenSession("reset")
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Link.SendSoftReset(session.Token); err != nil {
		return errors.WithContext(err, "send soft reset")
	}

	fmt.Println("Board reset.")
	return nil
}
