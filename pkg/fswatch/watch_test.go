package fswatch

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/mpdev-io/mpdev/pkg/errors"
)

func TestGetPathsToWatch(t *testing.T) {
	fs = afero.NewMemMapFs()
	dirs := []string{
		"/project/lib",
		"/project/lib/deep",
		"/project/.git/objects",
		"/project/.mpdev",
	}
	for _, dir := range dirs {
		assert.NoError(t, fs.MkdirAll(dir, 0755))
	}
	assert.NoError(t, afero.WriteFile(fs, "/project/main.py", []byte("pass"), 0644))

	paths, err := getPathsToWatch("/project", []string{".git", ".mpdev"})
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"/project",
		"/project/lib",
		"/project/lib/deep",
	}, paths)
}

func TestGetPathsToWatchMissingRoot(t *testing.T) {
	fs = afero.NewMemMapFs()

	_, err := getPathsToWatch("/nonexistent", nil)
	assert.Equal(t, errors.FileNotFound{Path: "/nonexistent"}, err)
}

func TestGetPathsToWatchFile(t *testing.T) {
	fs = afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "/main.py", []byte("pass"), 0644))

	paths, err := getPathsToWatch("/main.py", nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"/main.py"}, paths)
}

func TestCombineUpdates(t *testing.T) {
	updates := make(chan fsnotify.Event)
	combined := combineUpdates(updates)

	// A burst of events should coalesce into a single pending notification.
	for i := 0; i < 5; i++ {
		updates <- fsnotify.Event{Name: "main.py", Op: fsnotify.Write}
	}

	select {
	case <-combined:
	case <-time.After(time.Second):
		t.Fatal("expected a combined update")
	}
}

func TestIsIgnored(t *testing.T) {
	ignore := []string{".git", "build"}
	assert.True(t, isIgnored(".git", ignore))
	assert.True(t, isIgnored(".git/objects/ab", ignore))
	assert.True(t, isIgnored("build/out.py", ignore))
	assert.False(t, isIgnored("buildings/out.py", ignore))
	assert.False(t, isIgnored("main.py", ignore))
}
