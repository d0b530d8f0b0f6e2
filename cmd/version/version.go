package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/errors"
	"github.com/mpdev-io/mpdev/pkg/tool"
	"github.com/mpdev-io/mpdev/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of mpdev and the device control tool.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func run() error {
	fmt.Printf("mpdev version: %s\n", version.Version)

	override := ""
	if userConfig, err := config.ParseUser(); err == nil {
		override = userConfig.Tool
	}

	toolPath, err := tool.Resolve(override)
	if err != nil {
		return err
	}

	if err := tool.CheckVersion(toolPath); err != nil {
		return errors.WithContext(err, "check tool version")
	}

	fmt.Printf("device tool:   %s\n", toolPath)
	return nil
}
