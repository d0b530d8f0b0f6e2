package config

import (
	"path/filepath"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/mpdev-io/mpdev/pkg/errors"
)

const (
	// UserConfigPath is the default path to the mpdev user config.
	UserConfigPath = "~/.mpdev.yaml"

	// AutoPort is the port value that makes mpdev pick the board by
	// enumerating connected USB serial devices.
	AutoPort = "auto"

	// DefaultBaudRate is the MicroPython REPL default.
	DefaultBaudRate = 115200

	// InitialUserConfigVersion is the first version of the mpdev user
	// config. Config files that do not specify a version will default to
	// this version.
	InitialUserConfigVersion = "v1alpha1"

	// SupportedUserConfigVersion is the supported version of the mpdev
	// user config of the current mpdev binary.
	SupportedUserConfigVersion = "v1alpha1"
)

// User contains the configuration describing how to reach the user's board.
type User struct {
	Version string `json:"version,omitempty"`

	// Port is the serial device of the board, or "auto" to pick the first
	// connected MicroPython board.
	Port string `json:"port"`

	// BaudRate is the serial speed. Defaults to 115200 when unset.
	BaudRate int `json:"baudRate,omitempty"`

	// Tool overrides the path to the device control tool. When empty, the
	// tool is looked up on the PATH.
	Tool string `json:"tool,omitempty"`

	// Project is the default project directory used when a command isn't
	// run from inside one.
	Project string `json:"project,omitempty"`
}

func (u User) getVersion() string {
	return u.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParseUser attempts to parse the User stored in the default path.
// The result is never cached: a user changing the configured port takes
// effect on the next operation without restarting anything.
func ParseUser() (User, error) {
	path, err := GetUserConfigPath()
	if err != nil {
		return User{}, errors.WithContext(err, "expand config path")
	}

	config := User{Version: InitialUserConfigVersion}
	if err := parseConfig(path, &config, SupportedUserConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return User{}, errors.NewFriendlyError("The mpdev user config "+
				"file doesn't exist at %q. Please run `mpdev config` to "+
				"create it.", path)
		}
		return User{}, errors.WithContext(err, "parse")
	}

	if config.BaudRate == 0 {
		config.BaudRate = DefaultBaudRate
	}

	config.Project, err = homedirExpand(config.Project)
	if err != nil {
		return User{}, errors.WithContext(err, "expand project path")
	}

	// Evaluate relative paths relative to the config path.
	if config.Project != "" && !filepath.IsAbs(config.Project) {
		config.Project = filepath.Join(filepath.Dir(path), config.Project)
	}
	return config, nil
}

// WriteUser writes the given user config to disk.
func WriteUser(cfg User) error {
	cfg.Version = SupportedUserConfigVersion
	path, err := GetUserConfigPath()
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}

// GetUserConfigPath returns the path to the user's global mpdev
// configuration. This path is expanded, so it can be directly passed to file
// operations.
func GetUserConfigPath() (string, error) {
	return homedirExpand(UserConfigPath)
}
