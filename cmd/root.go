package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/autosync"
	configCmd "github.com/mpdev-io/mpdev/cmd/config"
	"github.com/mpdev-io/mpdev/cmd/dev"
	diffCmd "github.com/mpdev-io/mpdev/cmd/diff"
	"github.com/mpdev-io/mpdev/cmd/repl"
	"github.com/mpdev-io/mpdev/cmd/reset"
	runCmd "github.com/mpdev-io/mpdev/cmd/run"
	"github.com/mpdev-io/mpdev/cmd/stop"
	syncCmd "github.com/mpdev-io/mpdev/cmd/sync"
	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/cmd/version"
	"github.com/mpdev-io/mpdev/cmd/wipe"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "MPDEV_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "mpdev",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		autosync.New(),
		configCmd.New(),
		dev.New(),
		diffCmd.New(),
		repl.New(),
		reset.New(),
		runCmd.New(),
		stop.New(),
		syncCmd.New(),
		version.New(),
		wipe.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
