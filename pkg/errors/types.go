package errors

import (
	"fmt"
)

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// LinkUnavailable represents when no usable serial port is configured or
// connected. It's fatal for the operation that hit it, and is never retried.
type LinkUnavailable struct {
	Reason string
}

func (err LinkUnavailable) Error() string {
	return fmt.Sprintf("serial link unavailable: %s", err.Reason)
}

// ToolInvocationFailed represents a failure to run the external device
// control tool: the binary is missing, the subprocess exited non-zero, or it
// didn't complete within the timeout. Stderr is the tool's own diagnostic
// text, passed through verbatim.
type ToolInvocationFailed struct {
	Subcommand string
	Stderr     string
	Err        error
}

func (err ToolInvocationFailed) Error() string {
	if err.Stderr != "" {
		return fmt.Sprintf("tool %q failed: %s", err.Subcommand, err.Stderr)
	}
	return fmt.Sprintf("tool %q failed: %s", err.Subcommand, err.Err)
}

// ProtocolError represents malformed output from the device control tool on
// an operation that requires a structured result. Read-only listings degrade
// to empty instead of returning this.
type ProtocolError struct {
	Subcommand string
	Output     string
}

func (err ProtocolError) Error() string {
	return fmt.Sprintf("malformed response from tool %q: %q", err.Subcommand, err.Output)
}
