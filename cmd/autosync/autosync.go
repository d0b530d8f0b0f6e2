package autosync

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// New creates a new `autosync` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "autosync",
		Short: "Toggle syncing files to the board whenever they're saved",
		Long: "Toggle the workspace's auto-sync flag. When enabled,\n" +
			"`mpdev dev` pushes changed files to the board on every save.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	userConfig, err := config.ParseUser()
	if err != nil {
		return errors.WithContext(err, "parse user config")
	}

	projectDir, _, err := util.ResolveProject(userConfig)
	if err != nil {
		return err
	}

	enabled, err := config.ToggleAutoSync(projectDir)
	if err != nil {
		return errors.WithContext(err, "toggle auto-sync")
	}

	if enabled {
		fmt.Println("Auto-sync enabled.")
	} else {
		fmt.Println("Auto-sync disabled.")
	}
	return nil
}
