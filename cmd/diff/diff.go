package diff

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/buger/goterm"
	"github.com/spf13/cobra"

	"github.com/mpdev-io/mpdev/cmd/util"
	"github.com/mpdev-io/mpdev/pkg/sync"
)

// New creates a new `diff` command.
func New() *cobra.Command {
	var showUnchanged bool
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the differences between the project and the board",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(showUnchanged); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&showUnchanged, "all", false,
		"Also list files that are identical on both sides.")
	return cmd
}

func run(showUnchanged bool) error {
	session, err := util.OpenSession("diff")
	if err != nil {
		return err
	}
	defer session.Close()

	projectDir, project, err := util.ResolveProject(session.User)
	if err != nil {
		return err
	}

	orchestrator := sync.New(session.Client, projectDir, project.BoardRoot, project.Ignore)
	diffs, err := orchestrator.CheckDiffs()
	if err != nil {
		return err
	}

	changed := 0
	out := tabwriter.NewWriter(os.Stdout, 0, 10, 3, ' ', 0)
	for _, entry := range diffs {
		if entry.Kind == sync.Unchanged && !showUnchanged {
			continue
		}
		if entry.Kind != sync.Unchanged {
			changed++
		}
		fmt.Fprintf(out, "%s\t%s\n", kindString(entry.Kind), entry.Path)
	}
	out.Flush()

	if changed == 0 {
		fmt.Println("The board is up to date.")
	}
	return nil
}

func kindString(kind sync.DiffKind) string {
	switch kind {
	case sync.Added:
		return goterm.Color("added", goterm.GREEN)
	case sync.Removed:
		return goterm.Color("removed", goterm.RED)
	case sync.Modified:
		return goterm.Color("modified", goterm.YELLOW)
	default:
		return "unchanged"
	}
}
