package errors

import (
	"errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// ContextError annotates an error with the operation that caused it. The
// annotations are joined when the error is printed, so that the final message
// reads like a call stack summary.
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

// WithContext wraps err with a description of the operation that failed.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause returns the innermost error in a chain of ContextErrors. It's
// used to inspect the type of the original failure without the wrapping
// annotations getting in the way.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}

// FriendlyError is an error with a message meant to be shown directly to the
// user, without any additional context or log formatting.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage implements the friendly error interface checked by the
// command-level error handler.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

// NewFriendlyError creates a FriendlyError according to the format specifier.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}
