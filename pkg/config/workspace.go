package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mpdev-io/mpdev/pkg/errors"
)

const (
	// StateDir is the directory inside a project that holds per-workspace
	// mpdev state.
	StateDir = ".mpdev"

	// StateFilename is the name of the workspace state file.
	StateFilename = "state.json"
)

// WorkspaceState is the small per-workspace record persisted between runs.
// It's read at orchestration time rather than cached in memory, so edits made
// by other processes are picked up on the next command.
type WorkspaceState struct {
	// AutoSync controls whether `mpdev dev` pushes changed files to the
	// board whenever they're saved.
	AutoSync bool `json:"auto_sync"`
}

// StateFilePath returns the path to the state file for the given project
// directory.
func StateFilePath(projectDir string) string {
	return filepath.Join(projectDir, StateDir, StateFilename)
}

// LoadWorkspaceState reads the workspace state for the given project
// directory. A missing state file is not an error; it returns the zero state.
func LoadWorkspaceState(projectDir string) (WorkspaceState, error) {
	data, err := afero.ReadFile(fs, StateFilePath(projectDir))
	if err != nil {
		if os.IsNotExist(err) {
			return WorkspaceState{}, nil
		}
		return WorkspaceState{}, errors.WithContext(err, "read state file")
	}

	var state WorkspaceState
	if err := json.Unmarshal(data, &state); err != nil {
		return WorkspaceState{}, errors.WithContext(err, "parse state file")
	}
	return state, nil
}

// SaveWorkspaceState writes the workspace state for the given project
// directory, creating the state directory if needed.
func SaveWorkspaceState(projectDir string, state WorkspaceState) error {
	if err := fs.MkdirAll(filepath.Join(projectDir, StateDir), 0755); err != nil {
		return errors.WithContext(err, "create state dir")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.WithContext(err, "marshal state")
	}

	if err := afero.WriteFile(fs, StateFilePath(projectDir), data, 0644); err != nil {
		return errors.WithContext(err, "write state file")
	}
	return nil
}

// ToggleAutoSync flips the auto-sync flag and returns the new value.
func ToggleAutoSync(projectDir string) (bool, error) {
	state, err := LoadWorkspaceState(projectDir)
	if err != nil {
		return false, err
	}

	state.AutoSync = !state.AutoSync
	if err := SaveWorkspaceState(projectDir, state); err != nil {
		return false, err
	}
	return state.AutoSync, nil
}
