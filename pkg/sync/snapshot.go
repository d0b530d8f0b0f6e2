package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/mpdev-io/mpdev/pkg/board"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// Entry is one filesystem node in a snapshot, either local or on the board.
// Paths are relative to the snapshot root and always use forward slashes.
// Directories never carry Size or Hash.
type Entry struct {
	Path    string
	IsDir   bool
	Size    int64
	Hash    string
	ModTime int64
}

// Snapshot maps relative paths to their metadata for one filesystem root at
// one point in time. Snapshots are value objects: they're built at the start
// of an operation and discarded afterwards, never cached, because the board's
// contents can change between calls.
type Snapshot map[string]Entry

// Add updates the snapshot.
func (s Snapshot) Add(e Entry) {
	s[e.Path] = e
}

// Paths returns the snapshot's paths in lexicographic order.
func (s Snapshot) Paths() []string {
	paths := make([]string, 0, len(s))
	for path := range s {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// HashFile returns the sha256 hex digest of the file at the given path. This
// matches the digest the device control tool computes on-device, so local
// and board entries compare directly.
func HashFile(path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", errors.WithContext(err, "open")
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errors.WithContext(err, "read")
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// SnapshotLocal walks the local directory at root and returns its snapshot.
// Paths matching the ignore prefixes are skipped entirely, including their
// children.
func SnapshotLocal(root string, ignore []string) (Snapshot, error) {
	if _, err := fs.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: root}
		}
		return nil, errors.WithContext(err, "stat root")
	}

	snapshot := Snapshot{}
	err := afero.Walk(fs, root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		relativePath, err := filepath.Rel(root, path)
		if err != nil || strings.HasPrefix(relativePath, "..") {
			return errors.WithContext(err, "normalize path")
		}
		normalizedPath := filepath.ToSlash(relativePath)

		if isIgnored(normalizedPath, ignore) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if fi.IsDir() {
			snapshot.Add(Entry{Path: normalizedPath, IsDir: true})
			return nil
		}

		hash, err := HashFile(path)
		if err != nil {
			return errors.WithContext(err, "hash "+normalizedPath)
		}

		snapshot.Add(Entry{
			Path:    normalizedPath,
			Size:    fi.Size(),
			Hash:    hash,
			ModTime: fi.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// SnapshotBoard converts the control tool's listing into a snapshot with the
// same path normalization as SnapshotLocal, so the two sides are comparable.
func SnapshotBoard(entries []board.Entry) Snapshot {
	snapshot := Snapshot{}
	for _, entry := range entries {
		path := strings.TrimPrefix(entry.Path, "/")
		if path == "" || path == "." {
			continue
		}

		if entry.IsDir {
			snapshot.Add(Entry{Path: path, IsDir: true})
			continue
		}

		snapshot.Add(Entry{
			Path:    path,
			Size:    entry.Size,
			Hash:    entry.Hash,
			ModTime: entry.MTime,
		})
	}
	return snapshot
}

// isIgnored returns whether the path equals an ignore prefix or lives under
// one.
func isIgnored(path string, ignore []string) bool {
	for _, prefix := range ignore {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
