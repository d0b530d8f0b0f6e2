package link

import (
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/mpdev-io/mpdev/pkg/config"
	"github.com/mpdev-io/mpdev/pkg/errors"
)

// knownVIDs are the USB vendor IDs of serial bridges and native USB stacks
// commonly found on MicroPython boards.
var knownVIDs = map[string]bool{
	"10C4": true, // Silicon Labs CP210x (most ESP32 dev kits)
	"1A86": true, // WCH CH340
	"0403": true, // FTDI
	"303A": true, // Espressif native USB
	"F055": true, // MicroPython USB device
	"2E8A": true, // Raspberry Pi Pico
}

// listPorts is mocked for unit testing.
var listPorts = enumerator.GetDetailedPortsList

// ResolvePort turns the configured port value into a concrete serial device.
// "auto" enumerates connected USB serial devices and picks the one that looks
// like a MicroPython board; anything else is passed through as-is.
func ResolvePort(configured string) (string, error) {
	if configured == "" {
		return "", errors.LinkUnavailable{Reason: "no port configured"}
	}
	if configured != config.AutoPort {
		return configured, nil
	}

	ports, err := listPorts()
	if err != nil {
		return "", errors.WithContext(err, "enumerate serial ports")
	}

	var matches []string
	for _, port := range ports {
		if port.IsUSB && knownVIDs[strings.ToUpper(port.VID)] {
			matches = append(matches, port.Name)
		}
	}

	switch len(matches) {
	case 0:
		return "", errors.NewFriendlyError(
			"No MicroPython board found. Is the board plugged in?\n" +
				"If your board uses an unusual USB serial chip, set the " +
				"port explicitly in ~/.mpdev.yaml.")
	case 1:
		return matches[0], nil
	default:
		return "", errors.NewFriendlyError(
			"Multiple boards found (%s). Set the port explicitly in "+
				"~/.mpdev.yaml to pick one.", strings.Join(matches, ", "))
	}
}
