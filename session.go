// Package roverlink drives a microcontroller-based robot over a serial
// link. A Session owns the link and exposes typed operations for motors,
// servos, pins, and accessory sensors, translated into the controller's
// line-oriented text protocol.
//
// A Session is not safe for concurrent use. The protocol is strictly
// half-duplex request/reply with no pipelining, so callers that share a
// Session across goroutines must serialize access themselves, typically by
// giving one goroutine exclusive ownership. The engine carries no locks.
package roverlink

import (
	"log"
	"time"

	"github.com/banshee-data/roverlink/internal/serialport"
	"github.com/banshee-data/roverlink/internal/wire"
)

const (
	// bootDelay is how long the controller takes to reset after the port
	// opens (opening the port toggles DTR, which reboots the board).
	bootDelay = 3 * time.Second

	// closeSettle drains any in-flight reply before teardown commands.
	closeSettle = 300 * time.Millisecond

	// attachSettle is the settle time for servo and GPS attach commands,
	// which take longer than the general case on the firmware side.
	attachSettle = 500 * time.Millisecond

	defaultMixerSpeed = 30
)

// Config carries the immutable parameters of a Session.
type Config struct {
	// Port is the serial device path, e.g. /dev/ttyUSB0 or COM3.
	Port string

	// Serial holds baud rate and framing options. The zero value
	// normalizes to the controller default of 9600 8N1.
	Serial serialport.Options

	// Board describes the pin layout. Defaults to ArduinoUno.
	Board Board

	// Verbose enables debug logging of every exchange and failure detail.
	Verbose bool

	// EchoTimeout bounds the blocking wait for encoded-motor completion
	// echoes. Zero means the engine default (60s).
	EchoTimeout time.Duration

	// Factory opens the serial port. Nil means the real go.bug.st/serial
	// backed factory; tests inject a mock.
	Factory serialport.Factory
}

// Session is a single connection to a robot controller. Create one with
// NewSession, bring it up with Connect, and always Close it. A closed
// Session cannot be reconnected.
type Session struct {
	cfg     Config
	factory serialport.Factory
	port    serialport.Port
	framer  *wire.Framer
	board   Board

	digitalAvail []int
	analogAvail  []int
	analogCache  []int // nil until the first refresh this session
	digitalCache []int

	motorsAttached [NumMotors]bool
	motorsRunning  [NumMotors]bool
	servosAttached [NumServos]bool
	gpsAttached    bool

	firmware Version

	resetOnClose       bool
	overrideValidation bool
	mixerSpeed         int
	closed             bool

	// sleep is replaceable so tests do not pay real settle and run times.
	sleep func(time.Duration)
}

// NewSession creates a Session. It does not touch the serial port; call
// Connect for that.
func NewSession(cfg Config) *Session {
	if cfg.Board.empty() {
		cfg.Board = ArduinoUno()
	}
	factory := cfg.Factory
	if factory == nil {
		factory = serialport.RealFactory{}
	}
	return &Session{
		cfg:          cfg,
		factory:      factory,
		board:        cfg.Board,
		resetOnClose: true,
		mixerSpeed:   defaultMixerSpeed,
		sleep:        time.Sleep,
	}
}

// Connected reports whether the session holds an open serial link.
func (s *Session) Connected() bool {
	return s.port != nil
}

// Firmware returns the version triple reported by the controller during
// Connect. Zero before Connect or if the version query failed.
func (s *Session) Firmware() Version {
	return s.firmware
}

// SetResetOnClose controls whether Close drives attached servos to neutral
// and stops attached motors before dropping the link. Default true.
func (s *Session) SetResetOnClose(reset bool) {
	s.resetOnClose = reset
}

// SetOverrideValidation disables range validation on motor, servo, and
// timing arguments. Hard preconditions (connected, attached, slot bounds)
// still apply. This is an escape hatch for advanced callers: with it set,
// the values you send reach the hardware unchecked.
func (s *Session) SetOverrideValidation(override bool) {
	if override {
		log.Printf("WARNING: validation overridden; you are now responsible for every value sent to the controller")
	}
	s.overrideValidation = override
}

// OverrideValidation reports whether range validation is disabled.
func (s *Session) OverrideValidation() bool {
	return s.overrideValidation
}

// Connect opens the serial port, waits out the controller reset, initializes
// the pin pools, primes the analog cache, and verifies the firmware version.
// Failures to establish the link and major version mismatches are returned
// as *FatalError: the session is unusable, and whether to exit is the
// caller's decision.
func (s *Session) Connect() error {
	if s.closed {
		return preconditionf("connect", "session has been closed and cannot reconnect")
	}
	if s.Connected() {
		return preconditionf("connect", "robot is already connected")
	}
	if s.cfg.Port == "" {
		return &FatalError{Reason: "no serial port specified"}
	}

	port, err := s.factory.Open(s.cfg.Port, s.cfg.Serial)
	if err != nil {
		return &FatalError{Reason: "cannot open serial port " + s.cfg.Port, Err: err}
	}
	s.port = port
	s.framer = wire.NewFramer(port)
	s.framer.SetVerbose(s.cfg.Verbose)
	s.framer.SetSleep(func(d time.Duration) { s.sleep(d) })

	s.debugf("resetting robot...")
	s.sleep(bootDelay)

	s.initPinPools()
	if err := s.RefreshAnalogPins(); err != nil {
		// The priming read is best-effort; a quiet controller here is
		// diagnosed by the version check that follows.
		s.debugf("initial analog refresh failed: %v", err)
	}

	if err := s.checkFirmware(); err != nil {
		s.port.Close()
		s.port = nil
		s.framer = nil
		return err
	}
	log.Printf("connected to %s (firmware %s, API %s)", s.cfg.Port, s.firmware, APIVersion())
	return nil
}

// checkFirmware queries the controller version and applies the mismatch
// policy. Malformed replies are logged and tolerated; only a major version
// gap is fatal.
func (s *Session) checkFirmware() error {
	resp, err := s.exchange("n", wire.ExchangeOptions{Retry: true})
	if err != nil {
		log.Printf("firmware version query failed: %v", err)
		return nil
	}
	tokens, err := wire.Expect("n", resp, 4)
	if err != nil {
		log.Printf("firmware version check: %v", err)
		s.dumpTokens(err)
		return nil
	}
	values, err := wire.Ints("n", resp, tokens[1:])
	if err != nil {
		log.Printf("firmware version check: %v", err)
		return nil
	}

	s.firmware = Version{Major: values[0], Minor: values[1], Subminor: values[2]}
	switch {
	case s.firmware.Major > VersionMajor:
		return &FatalError{Reason: "host API is a major version behind the firmware (" + s.firmware.String() + "); update the driver"}
	case s.firmware.Major < VersionMajor:
		return &FatalError{Reason: "firmware is a major version behind the host API (" + s.firmware.String() + "); update the controller"}
	}
	switch {
	case s.firmware.Minor > VersionMinor:
		log.Printf("host API is a minor version behind the firmware (%s); consider updating", s.firmware)
	case s.firmware.Minor < VersionMinor:
		log.Printf("firmware is a minor version behind the host API (%s)", s.firmware)
	case s.firmware.Subminor != VersionSubminor:
		s.debugf("subminor firmware difference (%s), no action needed", s.firmware)
	}
	return nil
}

// Close resets attached hardware (unless disabled), closes the port, and
// permanently retires the session.
func (s *Session) Close() error {
	if !s.Connected() {
		return nil
	}
	s.sleep(closeSettle)
	if s.resetOnClose {
		for servo := Servo1; servo < NumServos; servo++ {
			if s.servosAttached[servo] {
				if err := s.MoveServo(servo, 90); err != nil {
					s.debugf("reset servo %d: %v", servo, err)
				}
			}
		}
		for motor := Motor1; motor < NumMotors; motor++ {
			if s.motorsAttached[motor] {
				if err := s.RunMotor(motor, 0, 0); err != nil {
					s.debugf("stop motor %d: %v", motor, err)
				}
			}
		}
	}
	err := s.port.Close()
	s.port = nil
	s.framer = nil
	s.closed = true
	return err
}

// exchange is the single funnel for command round trips.
func (s *Session) exchange(command string, opts wire.ExchangeOptions) (string, error) {
	if !s.Connected() {
		return "", ErrNotConnected
	}
	if opts.EchoTimeout == 0 {
		opts.EchoTimeout = s.cfg.EchoTimeout
	}
	return s.framer.Exchange(command, opts)
}

func (s *Session) debugf(format string, args ...any) {
	if s.cfg.Verbose {
		log.Printf(format, args...)
	}
}

// dumpTokens logs a token-by-token view of a malformed response when
// verbose mode is on.
func (s *Session) dumpTokens(err error) {
	if !s.cfg.Verbose {
		return
	}
	if perr, ok := err.(*wire.ProtocolError); ok {
		for i, token := range perr.Tokens {
			log.Printf("[%d] = %s", i, token)
		}
	}
}
