package sync

import (
	"sort"
)

// DiffKind classifies one path's difference between a source and a target
// snapshot.
type DiffKind int

const (
	// Unchanged means the path exists on both sides with equal content.
	Unchanged DiffKind = iota

	// Added means the path exists in the source but not the target.
	Added

	// Removed means the path exists in the target but not the source.
	Removed

	// Modified means the path exists on both sides with differing content.
	Modified
)

func (k DiffKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	}
	return "unknown"
}

// DiffEntry is the classification of one path.
type DiffEntry struct {
	Path  string
	Kind  DiffKind
	IsDir bool

	// Size is the source side's file size for Added/Modified entries. It's
	// only used for display.
	Size int64
}

// Diff compares the source snapshot against the target and classifies every
// path present in either. The output is ordered lexicographically by path,
// so repeated diffs of identical snapshots are identical.
//
// Two directories are never Modified: a path that is a directory on both
// sides is Unchanged regardless of contents, since the children carry their
// own entries. A path that is a file on one side and a directory on the
// other is Modified.
func Diff(source, target Snapshot) []DiffEntry {
	paths := map[string]struct{}{}
	for path := range source {
		paths[path] = struct{}{}
	}
	for path := range target {
		paths[path] = struct{}{}
	}

	sortedPaths := make([]string, 0, len(paths))
	for path := range paths {
		sortedPaths = append(sortedPaths, path)
	}
	sort.Strings(sortedPaths)

	var diffs []DiffEntry
	for _, path := range sortedPaths {
		src, inSource := source[path]
		dst, inTarget := target[path]

		switch {
		case inSource && !inTarget:
			diffs = append(diffs, DiffEntry{Path: path, Kind: Added, IsDir: src.IsDir, Size: src.Size})
		case !inSource && inTarget:
			diffs = append(diffs, DiffEntry{Path: path, Kind: Removed, IsDir: dst.IsDir})
		case src.IsDir && dst.IsDir:
			diffs = append(diffs, DiffEntry{Path: path, Kind: Unchanged, IsDir: true})
		case src.IsDir != dst.IsDir:
			diffs = append(diffs, DiffEntry{Path: path, Kind: Modified, IsDir: src.IsDir, Size: src.Size})
		case src.Hash == dst.Hash:
			diffs = append(diffs, DiffEntry{Path: path, Kind: Unchanged})
		default:
			diffs = append(diffs, DiffEntry{Path: path, Kind: Modified, Size: src.Size})
		}
	}
	return diffs
}
