package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/mpdev-io/mpdev/pkg/board"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

func sha256Hex(contents string) string {
	sum := sha256.Sum256([]byte(contents))
	return hex.EncodeToString(sum[:])
}

func TestSnapshotLocal(t *testing.T) {
	fs = afero.NewMemMapFs()
	writeFile(t, "/project/main.py", "print('hi')")
	writeFile(t, "/project/lib/util.py", "util")
	writeFile(t, "/project/.git/HEAD", "ref")
	writeFile(t, "/project/mpdev.yaml", "name: test")

	snapshot, err := SnapshotLocal("/project", []string{".git", "mpdev.yaml"})
	assert.NoError(t, err)

	assert.Equal(t, []string{"lib", "lib/util.py", "main.py"}, snapshot.Paths())

	assert.True(t, snapshot["lib"].IsDir)
	assert.Empty(t, snapshot["lib"].Hash)

	assert.Equal(t, sha256Hex("print('hi')"), snapshot["main.py"].Hash)
	assert.Equal(t, int64(len("print('hi')")), snapshot["main.py"].Size)
	assert.Equal(t, sha256Hex("util"), snapshot["lib/util.py"].Hash)
}

func TestSnapshotLocalMissingRoot(t *testing.T) {
	fs = afero.NewMemMapFs()

	_, err := SnapshotLocal("/dne", nil)
	assert.Equal(t, errors.FileNotFound{Path: "/dne"}, errors.RootCause(err))
}

func TestSnapshotBoard(t *testing.T) {
	entries := []board.Entry{
		{Path: "/main.py", Size: 11, Hash: "abc"},
		{Path: "lib", IsDir: true},
		{Path: "lib/util.py", Size: 4, Hash: "def", MTime: 12345},
		{Path: "/", IsDir: true},
	}

	snapshot := SnapshotBoard(entries)
	assert.Equal(t, []string{"lib", "lib/util.py", "main.py"}, snapshot.Paths())

	// Leading slashes are stripped so board paths compare against local
	// ones.
	assert.Equal(t, "abc", snapshot["main.py"].Hash)
	assert.True(t, snapshot["lib"].IsDir)
	assert.Equal(t, int64(12345), snapshot["lib/util.py"].ModTime)
}

func TestHashFileMatchesBoardDigest(t *testing.T) {
	fs = afero.NewMemMapFs()
	writeFile(t, "/project/main.py", "contents")

	hash, err := HashFile("/project/main.py")
	assert.NoError(t, err)
	assert.Equal(t, sha256Hex("contents"), hash)
}

func writeFile(t *testing.T, path, contents string) {
	assert.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
}
