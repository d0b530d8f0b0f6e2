package sync

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/errors"
	syncPkg "github.com/mpdev-io/mpdev/pkg/sync"
)

// New creates a new `sync` command.
func New() *cobra.Command {
	var baseline, fromBoard, withDeletes bool
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the project directory with the board",
		Long: `Copy changed files between the project directory and the board.

By default only added and modified files are copied, and nothing is ever
deleted from the target. Pass --delete to also remove target files that no
longer exist on the source side.`,
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(baseline, fromBoard, withDeletes); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&baseline, "baseline", false,
		"Copy every file instead of only the changed ones.")
	cmd.Flags().BoolVar(&fromBoard, "from-board", false,
		"Copy from the board to the project directory instead.")
	cmd.Flags().BoolVar(&withDeletes, "delete", false,
		"Also delete target files that don't exist on the source side.")
	return cmd
}

func run(baseline, fromBoard, withDeletes bool) error {
	session, err := util.OpenSession("sync")
	if err != nil {
		return err
	}
	defer session.Close()

	projectDir, project, err := util.ResolveProject(session.User)
	if err != nil {
		return err
	}

	// Ctrl-C stops the sync between file transfers, so exclusive access is
	// always released cleanly before we exit.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		defer util.HandlePanic()
		<-interrupts
		cancel()
	}()

	orchestrator := syncPkg.New(session.Client, projectDir, project.BoardRoot, project.Ignore)

	direction := syncPkg.LocalToBoard
	if fromBoard {
		direction = syncPkg.BoardToLocal
	}

	pp := util.NewProgressPrinter(os.Stdout, fmt.Sprintf("Syncing %s", direction))
	go pp.Run()

	var report syncPkg.Report
	switch {
	case baseline && fromBoard:
		report, err = orchestrator.BaselineDownload(ctx)
	case baseline:
		report, err = orchestrator.BaselineUpload(ctx)
	default:
		report, err = orchestrator.SyncDiffs(ctx, direction, withDeletes)
	}
	pp.Stop()

	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	if !report.OK() {
		return errors.NewFriendlyError("Some files failed to sync. " +
			"Fix the failures above and run `mpdev sync` again.")
	}
	return nil
}
