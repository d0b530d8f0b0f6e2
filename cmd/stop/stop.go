package stop

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// New creates a new `stop` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Interrupt the program running on the board",
		Long:  "Send Ctrl-C over the serial link to stop the running program.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	session, err := util.OpenSession("stop")
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Link.SendInterrupt(session.Token); err != nil {
		return errors.WithContext(err, "send interrupt")
	}

	fmt.Println("Sent interrupt to the board.")
	return nil
}
