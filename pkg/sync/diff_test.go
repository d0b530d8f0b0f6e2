package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffClassification(t *testing.T) {
	source := Snapshot{}
	source.Add(Entry{Path: "main.py", Hash: "h1", Size: 10})
	source.Add(Entry{Path: "lib", IsDir: true})
	source.Add(Entry{Path: "lib/util.py", Hash: "h2", Size: 20})

	target := Snapshot{}
	target.Add(Entry{Path: "main.py", Hash: "h1", Size: 10})
	target.Add(Entry{Path: "old.py", Hash: "h3", Size: 30})

	exp := []DiffEntry{
		{Path: "lib", Kind: Added, IsDir: true},
		{Path: "lib/util.py", Kind: Added, Size: 20},
		{Path: "main.py", Kind: Unchanged},
		{Path: "old.py", Kind: Removed},
	}
	assert.Equal(t, exp, Diff(source, target))
}

func TestDiffContentChange(t *testing.T) {
	source := Snapshot{"boot.py": {Path: "boot.py", Hash: "before", Size: 5}}
	target := Snapshot{"boot.py": {Path: "boot.py", Hash: "after", Size: 5}}

	diffs := Diff(source, target)
	assert.Len(t, diffs, 1)
	assert.Equal(t, Modified, diffs[0].Kind)
}

func TestDiffTypeChange(t *testing.T) {
	// A path that's a file on one side and a directory on the other is
	// Modified, never Unchanged.
	source := Snapshot{"data": {Path: "data", IsDir: true}}
	target := Snapshot{"data": {Path: "data", Hash: "h1"}}

	diffs := Diff(source, target)
	assert.Len(t, diffs, 1)
	assert.Equal(t, Modified, diffs[0].Kind)
}

func TestDiffDirectoriesNeverModified(t *testing.T) {
	// Directory contents are carried by the children's entries; the
	// directories themselves always compare Unchanged.
	source := Snapshot{
		"lib":      {Path: "lib", IsDir: true},
		"lib/a.py": {Path: "lib/a.py", Hash: "h1"},
	}
	target := Snapshot{
		"lib":      {Path: "lib", IsDir: true},
		"lib/a.py": {Path: "lib/a.py", Hash: "h2"},
	}

	exp := []DiffEntry{
		{Path: "lib", Kind: Unchanged, IsDir: true},
		{Path: "lib/a.py", Kind: Modified},
	}
	assert.Equal(t, exp, Diff(source, target))
}

func TestDiffIdempotence(t *testing.T) {
	snapshot := Snapshot{
		"a.py":     {Path: "a.py", Hash: "h1"},
		"lib":      {Path: "lib", IsDir: true},
		"lib/b.py": {Path: "lib/b.py", Hash: "h2"},
	}

	for _, diff := range Diff(snapshot, snapshot) {
		assert.Equal(t, Unchanged, diff.Kind, diff.Path)
	}
}

func TestDiffSymmetry(t *testing.T) {
	a := Snapshot{
		"same.py":     {Path: "same.py", Hash: "h1"},
		"changed.py":  {Path: "changed.py", Hash: "h2"},
		"only-in-a":   {Path: "only-in-a", Hash: "h3"},
		"only-in-a-d": {Path: "only-in-a-d", IsDir: true},
	}
	b := Snapshot{
		"same.py":    {Path: "same.py", Hash: "h1"},
		"changed.py": {Path: "changed.py", Hash: "h2-changed"},
		"only-in-b":  {Path: "only-in-b", Hash: "h4"},
	}

	forward := map[string]DiffKind{}
	for _, diff := range Diff(a, b) {
		forward[diff.Path] = diff.Kind
	}

	for _, diff := range Diff(b, a) {
		switch forward[diff.Path] {
		case Added:
			assert.Equal(t, Removed, diff.Kind, diff.Path)
		case Removed:
			assert.Equal(t, Added, diff.Kind, diff.Path)
		default:
			assert.Equal(t, forward[diff.Path], diff.Kind, diff.Path)
		}
	}
}

func TestDiffDeterminism(t *testing.T) {
	source := Snapshot{
		"z.py": {Path: "z.py", Hash: "h1"},
		"a.py": {Path: "a.py", Hash: "h2"},
		"m.py": {Path: "m.py", Hash: "h3"},
	}
	target := Snapshot{
		"a.py": {Path: "a.py", Hash: "changed"},
	}

	first := Diff(source, target)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Diff(source, target))
	}

	// Output is ordered lexicographically by path.
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].Path < first[i].Path)
	}
}
