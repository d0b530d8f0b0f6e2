package run

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// New creates a new `run` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "run FILE",
		Short: "Run a local Python file on the board",
		Long: "Upload the given file to the board's memory and execute it.\n" +
			"The file isn't written to the board's filesystem; use `mpdev sync` for that.",
		Args: cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			if err := run(args[0]); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewFriendlyError("%q does not exist.", path)
		}
		return errors.WithContext(err, "stat file")
	}

	session, err := util.OpenSession("run")
	if err != nil {
		return err
	}
	defer session.Close()

	output, err := session.Client.Run(path)
	if err != nil {
		return errors.WithContext(err, "run file")
	}

	os.Stdout.Write(output)
	return nil
}
