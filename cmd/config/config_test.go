package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

func mockSetup(input string, existing *config.User) (out *bytes.Buffer, written *config.User) {
	out = &bytes.Buffer{}
	written = &config.User{}

	stdout = out
	stdin = strings.NewReader(input)
	parseUserConfig = func() (config.User, error) {
		if existing == nil {
			return config.User{}, errors.New("no config")
		}
		return *existing, nil
	}
	writeUserConfig = func(cfg config.User) error {
		*written = cfg
		return nil
	}
	resolveTool = func(string) (string, error) { return "/usr/bin/mpremote", nil }
	checkToolVer = func(string) error { return nil }
	return out, written
}

func TestSetupConfigFromFlags(t *testing.T) {
	_, written := mockSetup("", nil)

	err := SetupConfig(config.User{Port: "/dev/ttyUSB0", BaudRate: 9600})
	assert.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", written.Port)
	assert.Equal(t, 9600, written.BaudRate)
}

func TestSetupConfigPromptsWithDefaults(t *testing.T) {
	out, written := mockSetup("\n\n", nil)

	err := SetupConfig(config.User{})
	assert.NoError(t, err)

	// Hitting enter at both prompts accepts the defaults.
	assert.Equal(t, config.AutoPort, written.Port)
	assert.Equal(t, config.DefaultBaudRate, written.BaudRate)
	assert.Contains(t, out.String(), "Serial port of the board [auto]: ")
	assert.Contains(t, out.String(), "Baud rate [115200]: ")
}

func TestSetupConfigKeepsExistingValues(t *testing.T) {
	existing := &config.User{Port: "/dev/ttyACM1", BaudRate: 57600}
	_, written := mockSetup("\n\n", existing)

	err := SetupConfig(config.User{})
	assert.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM1", written.Port)
	assert.Equal(t, 57600, written.BaudRate)
}

func TestSetupConfigRejectsBadBaudRate(t *testing.T) {
	mockSetup("auto\nfast\n", nil)

	err := SetupConfig(config.User{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid baud rate")
}
