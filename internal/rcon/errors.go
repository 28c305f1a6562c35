package rcon

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConnected is returned by transports while the connection is down.
	// It is retryable: the transport reconnects on its own.
	ErrNotConnected = errors.New("rcon: not connected")

	// ErrTimeout matches every *TimeoutError.
	ErrTimeout = errors.New("rcon: confirmation timed out")

	// ErrCancelled is joined with the context error when a caller abandons a wait.
	ErrCancelled = errors.New("rcon: wait cancelled")

	// ErrNotFound is returned by resolvers when a display name has no known UID.
	ErrNotFound = errors.New("rcon: player not found")

	// ErrEmptyRoster is returned when a roster reply contains no player lines.
	ErrEmptyRoster = errors.New("rcon: roster is empty")

	ErrInvalidArgument = errors.New("rcon: invalid argument")
)

// TransportError reports that a command could not be handed to the transport.
type TransportError struct {
	Command string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rcon: send %q: %v", e.Command, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether the failure came from a dropped connection.
func (e *TransportError) Retryable() bool {
	return errors.Is(e.Err, ErrNotConnected)
}

// TimeoutError reports that no matching server line arrived in time.
//
// The outcome is ambiguous: the command may have been applied by the server
// with its confirmation lost or delayed.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("rcon: no confirmation after %s", e.After)
	}
	return fmt.Sprintf("rcon: %s: no confirmation after %s", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ResolutionError reports that a display name could not be mapped to a UID.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("rcon: resolve %q: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
