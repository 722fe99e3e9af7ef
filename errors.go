package roverlink

import (
	"errors"
	"fmt"

	"github.com/banshee-data/roverlink/internal/wire"
)

// The error taxonomy mirrors how failures propagate: precondition errors are
// rejected before any I/O, protocol errors abort an exchange mid-flight
// leaving state unchanged, transport errors come from the serial link, and
// fatal errors mean the session cannot be (or stay) usable. Whether a fatal
// error terminates the process is the caller's policy, not the driver's.

// ErrNotConnected is returned by operations invoked before Connect or after
// Close.
var ErrNotConnected = errors.New("robot is not connected")

// PreconditionError reports an operation rejected before any I/O: invalid
// slot or pin, out-of-range value, already-attached hardware.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// FatalError reports a failure the session cannot recover from: the port
// cannot be opened, or the firmware and host API disagree by a major
// version.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FatalError) Unwrap() error { return e.Err }

func preconditionf(op, format string, args ...any) error {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// echoMismatch builds the protocol error for an attach reply that does not
// echo the sent command verbatim.
func echoMismatch(command, response string) error {
	return &wire.ProtocolError{
		Command:  command,
		Response: response,
		Reason:   "controller did not echo the command",
	}
}
