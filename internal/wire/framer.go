// Package wire implements the line-oriented command/response protocol spoken
// by the rover controller firmware: CRLF-terminated ASCII commands, fixed
// retry and settle policy, and whitespace-delimited replies.
package wire

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/banshee-data/roverlink/internal/serialport"
)

const (
	// readBufferSize bounds a single response. The firmware never replies
	// with more than a bulk pin read, which is far below this.
	readBufferSize = 1024

	// retryBudget is the total number of send attempts for commands that
	// expect a reply.
	retryBudget = 4

	// pollTimeout is the read timeout used to emulate an availability check
	// on the port between retry attempts.
	pollTimeout = 50 * time.Millisecond

	// DefaultSettle is the pause between writing a command and polling for
	// the reply. Slow commands pass a larger value per call.
	DefaultSettle = 100 * time.Millisecond

	// DefaultEchoTimeout bounds the wait for a completion echo from
	// encoded-motor moves. The firmware gives no progress indication on
	// this path, so an unresponsive device would otherwise block forever.
	DefaultEchoTimeout = 60 * time.Second
)

var (
	// ErrNotConnected is returned when no port is attached to the framer.
	ErrNotConnected = errors.New("serial link is not connected")

	// ErrNoResponse is returned when the retry budget is exhausted without
	// the controller sending any bytes. Recoverable: the caller reports a
	// sentinel value and the session stays usable.
	ErrNoResponse = errors.New("no response from the controller")

	// ErrEchoTimeout is returned when a completion echo does not arrive
	// within the configured echo timeout.
	ErrEchoTimeout = errors.New("timed out waiting for completion echo")
)

// TransportError wraps an I/O failure on the serial link.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("serial %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExchangeOptions selects the round-trip policy for a single command. The
// firmware has three reply disciplines, so the options are mutually narrow:
// Retry for commands that must answer, WaitQuiet for commands where silence
// is acceptable, EchoUntil for blocking moves acknowledged by echoing the
// command back verbatim.
type ExchangeOptions struct {
	// Settle is the pause before polling for a reply; zero means
	// DefaultSettle.
	Settle time.Duration

	// Retry re-sends the command up to the retry budget while the
	// controller stays silent.
	Retry bool

	// WaitQuiet suppresses the retry/availability check: one round trip,
	// and an empty reply is not an error.
	WaitQuiet bool

	// EchoUntil keeps reading until the decoded reply equals this string.
	// Used for moves where the controller echoes the command on completion.
	EchoUntil string

	// EchoTimeout bounds the EchoUntil wait; zero means DefaultEchoTimeout.
	EchoTimeout time.Duration
}

// Framer turns commands into wire messages and reads back replies. It owns
// no locking: the protocol is half-duplex and the session serializes access.
type Framer struct {
	port    serialport.Port
	verbose bool

	// sleep is replaceable so tests do not pay real settle times.
	sleep func(time.Duration)
}

// NewFramer creates a framer over the given port.
func NewFramer(port serialport.Port) *Framer {
	return &Framer{
		port:  port,
		sleep: time.Sleep,
	}
}

// SetVerbose enables debug logging of every exchange.
func (f *Framer) SetVerbose(v bool) { f.verbose = v }

// SetSleep replaces the settle-time sleep function. Test hook.
func (f *Framer) SetSleep(fn func(time.Duration)) { f.sleep = fn }

func (f *Framer) debugf(format string, args ...any) {
	if f.verbose {
		log.Printf(format, args...)
	}
}

// Exchange writes command with a CRLF terminator and returns the trimmed
// reply text according to the options' round-trip policy.
func (f *Framer) Exchange(command string, opts ExchangeOptions) (string, error) {
	if f.port == nil {
		return "", ErrNotConnected
	}

	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	attempts := 1
	if opts.Retry && !opts.WaitQuiet {
		attempts = retryBudget
	}

	f.debugf("sending command: %s", command)
	payload := []byte(command + "\r\n")
	buf := make([]byte, readBufferSize)
	total := 0

	for attempt := 1; attempt <= attempts; attempt++ {
		if _, err := f.port.Write(payload); err != nil {
			return "", &TransportError{Op: "write", Err: err}
		}
		f.sleep(settle)

		if err := f.port.SetReadTimeout(pollTimeout); err != nil {
			return "", &TransportError{Op: "set read timeout", Err: err}
		}
		n, err := f.port.Read(buf[total:])
		if err != nil {
			return "", &TransportError{Op: "read", Err: err}
		}
		total += n
		if total > 0 {
			break
		}
		if attempt < attempts {
			f.debugf("no response from the controller, trying %d more times", attempts-attempt)
		}
	}

	if total == 0 {
		if opts.WaitQuiet {
			return "", nil
		}
		return "", ErrNoResponse
	}

	text := strings.TrimSpace(string(buf[:total]))

	if opts.EchoUntil != "" && text != opts.EchoUntil {
		echoTimeout := opts.EchoTimeout
		if echoTimeout <= 0 {
			echoTimeout = DefaultEchoTimeout
		}
		deadline := time.Now().Add(echoTimeout)

		for text != opts.EchoUntil {
			if time.Now().After(deadline) {
				return text, ErrEchoTimeout
			}
			if total == len(buf) {
				// The echo replaces everything before it; discard and
				// keep listening rather than overflow.
				total = 0
			}
			n, err := f.port.Read(buf[total:])
			if err != nil {
				return "", &TransportError{Op: "read", Err: err}
			}
			total += n
			text = strings.TrimSpace(string(buf[:total]))
		}
	}

	f.debugf("received %d bytes from the controller: %s", total, text)
	return text, nil
}
