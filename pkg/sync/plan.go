package sync

import (
	"sort"
	"strings"
)

// Op is one kind of action in a sync plan.
type Op int

const (
	// OpMkdir creates a directory on the target.
	OpMkdir Op = iota

	// OpWrite copies a file from the source to the target.
	OpWrite

	// OpDelete removes a file or directory from the target.
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpMkdir:
		return "mkdir"
	case OpWrite:
		return "write"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Action is one step of a sync plan.
type Action struct {
	Op   Op
	Path string
}

// Plan is the ordered list of actions that brings the target in line with
// the source. It's derived once from a diff and applied without re-diffing:
// nothing else mutates either side while an operation holds the link.
//
// Ordering guarantees: directory creations precede the files inside them,
// and deletions run children before parents. A target file blocking a source
// directory is deleted before any directory is created, regardless of
// includeDeletes: the file is being replaced, not dropped. The reverse type
// change, a source file where the target has a directory, is not expanded;
// the write fails per-file and surfaces in the report.
type Plan []Action

// NewPlan derives a plan from a diff. Removed entries are only turned into
// deletions when includeDeletes is set; the default sync is additive, since
// silently deleting user files is a safety hazard.
func NewPlan(diffs []DiffEntry, includeDeletes bool) Plan {
	var replaced, mkdirs, writes, deletes []string
	for _, diff := range diffs {
		switch diff.Kind {
		case Added:
			if diff.IsDir {
				mkdirs = append(mkdirs, diff.Path)
			} else {
				writes = append(writes, diff.Path)
			}
		case Modified:
			if diff.IsDir {
				// Modified directories only arise from type changes: the
				// target has a file where the source has a directory. The
				// file makes way for the mkdir.
				replaced = append(replaced, diff.Path)
				mkdirs = append(mkdirs, diff.Path)
			} else {
				writes = append(writes, diff.Path)
			}
		case Removed:
			if includeDeletes {
				deletes = append(deletes, diff.Path)
			}
		}
	}

	// Lexicographic order puts parents before their children.
	sort.Strings(mkdirs)
	sort.Strings(writes)

	// Reverse lexicographic order puts children before their parents, so
	// files are deleted before the directories containing them.
	sort.Sort(sort.Reverse(sort.StringSlice(replaced)))
	sort.Sort(sort.Reverse(sort.StringSlice(deletes)))

	plan := make(Plan, 0, len(replaced)+len(mkdirs)+len(writes)+len(deletes))
	for _, path := range replaced {
		plan = append(plan, Action{Op: OpDelete, Path: path})
	}
	for _, path := range mkdirs {
		plan = append(plan, Action{Op: OpMkdir, Path: path})
	}
	for _, path := range writes {
		plan = append(plan, Action{Op: OpWrite, Path: path})
	}
	for _, path := range deletes {
		plan = append(plan, Action{Op: OpDelete, Path: path})
	}
	return plan
}

func (p Plan) String() string {
	var parts []string
	for _, action := range p {
		parts = append(parts, action.Op.String()+" "+action.Path)
	}
	return strings.Join(parts, ", ")
}
