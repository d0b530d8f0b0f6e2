package fswatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/mpdev-io/mpdev/pkg/errors"
)

var fs = afero.NewOsFs()

// Watch watches for changes to files under `root`, skipping the ignored
// prefixes. It sends an event on the returned channel whenever a watched
// file changes. Events are coalesced: a burst of saves produces at most one
// pending event, because the consumer re-snapshots the whole tree anyway.
func Watch(root string, ignore []string) (chan struct{}, error) {
	pathsToWatch, err := getPathsToWatch(root, ignore)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}
	return combineUpdates(watcher.Events), nil
}

func combineUpdates(updates <-chan fsnotify.Event) chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

// getPathsToWatch returns the root and every non-ignored directory under it.
// fsnotify doesn't watch directories recursively, so each subdirectory needs
// its own watch.
func getPathsToWatch(root string, ignore []string) (paths []string, err error) {
	fi, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat")
	}
	if !fi.IsDir() {
		return []string{root}, nil
	}

	err = afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return errors.WithContext(err, "walk error")
		}
		if !fi.IsDir() {
			return nil
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(relativePath, "..") {
			return errors.WithContext(err, "normalized path")
		}

		if relativePath != "." && isIgnored(filepath.ToSlash(relativePath), ignore) {
			return filepath.SkipDir
		}

		paths = append(paths, path)
		return nil
	})
	return paths, err
}

func isIgnored(path string, ignore []string) bool {
	for _, prefix := range ignore {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
