package wipe

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/errors"
	syncPkg "github.com/mpdev-io/mpdev/pkg/sync"
)

// New creates a new `wipe` command.
func New() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every file on the board",
		Long: "Delete everything on the board's filesystem. This is\n" +
			"irreversible, so it prompts for confirmation unless --force is given.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(force); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt.")
	return cmd
}

func run(force bool) error {
	if !force {
		confirmed, err := util.PromptYesOrNo(os.Stdin, os.Stdout,
			"Delete every file on the board? This can't be undone.")
		if err != nil {
			return errors.WithContext(err, "confirm")
		}
		if !confirmed {
			fmt.Println("Aborted.")
			return nil
		}
	}

	session, err := util.OpenSession("wipe")
	if err != nil {
		return err
	}
	defer session.Close()

	boardRoot := "/"
	if _, project, err := util.ResolveProject(session.User); err == nil {
		boardRoot = project.BoardRoot
	}

	orchestrator := syncPkg.New(session.Client, "", boardRoot, nil)

	pp := util.NewProgressPrinter(os.Stdout, "Wiping the board")
	go pp.Run()
	report, err := orchestrator.Wipe(context.Background())
	pp.Stop()

	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	if !report.OK() {
		return errors.NewFriendlyError("Some files could not be deleted.")
	}
	return nil
}
