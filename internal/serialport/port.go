// Package serialport abstracts the serial link to the robot controller so the
// protocol engine can be exercised against real hardware or an in-memory port.
package serialport

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Port defines the minimal interface needed for the robot serial link.
// SetReadTimeout is required: the retry engine uses short read timeouts to
// emulate an "any bytes available?" poll without blocking forever.
type Port interface {
	io.ReadWriter
	io.Closer
	// SetReadTimeout sets the timeout for subsequent Read calls. A Read that
	// sees no data within the timeout returns n == 0 with a nil error.
	SetReadTimeout(timeout time.Duration) error
}

// Options describes the serial connection parameters used when opening a
// port. The zero value normalizes to the controller defaults (9600 8N1).
type Options struct {
	BaudRate int    `json:"baud_rate"`
	DataBits int    `json:"data_bits"`
	StopBits int    `json:"stop_bits"`
	Parity   string `json:"parity"`
}

// Normalize validates the options and applies defaults for any unset values.
func (o Options) Normalize() (Options, error) {
	opts := o

	if opts.BaudRate <= 0 {
		opts.BaudRate = 9600
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	if parity == "" {
		parity = "N"
	}

	switch parity {
	case "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}

	opts.Parity = parity
	return opts, nil
}

// Equal reports whether two Options describe the same serial configuration.
func (o Options) Equal(other Options) bool {
	normalizedA, errA := o.Normalize()
	normalizedB, errB := other.Normalize()
	if errA != nil || errB != nil {
		return false
	}

	return normalizedA.BaudRate == normalizedB.BaudRate &&
		normalizedA.DataBits == normalizedB.DataBits &&
		normalizedA.StopBits == normalizedB.StopBits &&
		normalizedA.Parity == normalizedB.Parity
}

// Factory defines an interface for opening serial ports. This abstraction
// enables dependency injection of port creation for testing.
type Factory interface {
	// Open opens a serial port at the specified path with the given options.
	Open(path string, opts Options) (Port, error)
}
