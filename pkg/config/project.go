package config

import (
	"path/filepath"

	"github.com/mpdev-io/mpdev/pkg/errors"
)

// Project contains the configuration describing how a project directory maps
// onto the board's filesystem.
type Project struct {
	Version string `json:"version,omitempty"`
	Name    string `json:"name"` // Required.

	// BoardRoot is the directory on the board that the project syncs into.
	// Defaults to the filesystem root.
	BoardRoot string `json:"boardRoot,omitempty"`

	// Ignore lists path prefixes (relative to the project directory) that
	// are never snapshotted or synced.
	Ignore []string `json:"ignore,omitempty"`

	// Only populated and consumed by mpdev. Never set by user.
	path string
}

// GetPath returns the filepath that the project was parsed from. A getter
// method is used rather than making the field public so that it can't get set
// by the yaml Unmarshalling.
func (c Project) GetPath() string {
	return c.path
}

func (c Project) getVersion() string {
	return c.Version
}

// alwaysIgnored are paths that are never synced to the board, no matter what
// the project config says.
var alwaysIgnored = []string{"mpdev.yaml", ".mpdev", ".git", ".DS_Store"}

// InitialProjectConfigVersion is the first version of the mpdev
// project config. Config files that do not specify a version
// will default to this version.
const InitialProjectConfigVersion = "v1alpha1"

// SupportedProjectConfigVersion is the supported version of the
// mpdev project config of the current mpdev binary.
const SupportedProjectConfigVersion = "v1alpha1"

// ParseProject parses the project configuration in the directory `path`.
func ParseProject(path string) (Project, error) {
	configPath := filepath.Join(path, "mpdev.yaml")
	config := Project{
		path:    configPath,
		Version: InitialProjectConfigVersion,
	}
	if err := parseConfig(configPath, &config, SupportedProjectConfigVersion); err != nil {
		return Project{}, errors.WithContext(err, "parse")
	}

	if config.Name == "" {
		return Project{}, errors.NewFriendlyError(
			"The project defined in %q does not have a name set.\n"+
				"The name field in the project configuration is required.",
			configPath)
	}

	if config.BoardRoot == "" {
		config.BoardRoot = "/"
	}

	config.Ignore = append(config.Ignore, alwaysIgnored...)
	return config, nil
}
