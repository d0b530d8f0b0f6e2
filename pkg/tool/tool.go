// Package tool locates the external device control tool and checks that it's
// new enough to speak the JSON listing protocol.
package tool

import (
	"os/exec"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/mpdev-io/mpdev/pkg/errors"
	"github.com/mpdev-io/mpdev/pkg/version"
)

// DefaultTool is the name of the device control tool looked up on the PATH
// when the user config doesn't override it.
const DefaultTool = "mpremote"

// Mocked for unit testing.
var (
	lookPath      = exec.LookPath
	versionOutput = func(path string) ([]byte, error) {
		return exec.Command(path, "version").Output()
	}
)

// Resolve returns the path to the device control tool. The override from the
// user config wins; otherwise the tool is looked up on the PATH. The result
// is never cached, so a config change takes effect on the next operation.
func Resolve(override string) (string, error) {
	if override != "" {
		path, err := lookPath(override)
		if err != nil {
			return "", errors.NewFriendlyError(
				"The configured device tool %q isn't executable.\n"+
					"Please check the `tool` field in ~/.mpdev.yaml.", override)
		}
		return path, nil
	}

	path, err := lookPath(DefaultTool)
	if err != nil {
		return "", errors.NewFriendlyError(
			"The %q tool isn't installed.\n"+
				"Install it with `pip install %s` and make sure it's on "+
				"your PATH.", DefaultTool, DefaultTool)
	}
	return path, nil
}

// CheckVersion verifies that the tool at `path` is at least the minimum
// supported version.
func CheckVersion(path string) error {
	out, err := versionOutput(path)
	if err != nil {
		return errors.ToolInvocationFailed{Subcommand: "version", Err: err}
	}

	// The tool prints e.g. "mpremote 1.20.0"; take the last field.
	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) == 0 {
		return errors.ProtocolError{Subcommand: "version", Output: string(out)}
	}

	toolVersion, err := goversion.NewVersion(fields[len(fields)-1])
	if err != nil {
		return errors.ProtocolError{Subcommand: "version", Output: string(out)}
	}

	minVersion, err := goversion.NewVersion(version.MinToolVersion)
	if err != nil {
		return errors.WithContext(err, "parse minimum version")
	}

	if toolVersion.LessThan(minVersion) {
		return errors.NewFriendlyError(
			"The device tool at %q is version %s, but mpdev requires at "+
				"least %s. Please upgrade it.",
			path, toolVersion, minVersion)
	}
	return nil
}
