package roverlink

import (
	"fmt"
	"time"

	"github.com/banshee-data/roverlink/internal/wire"
)

const (
	pingSettle         = 200 * time.Millisecond
	compassSettle      = 300 * time.Millisecond
	gpsSettle          = 500 * time.Millisecond
	temperatureSettle  = 1000 * time.Millisecond
	conductivitySettle = 3000 * time.Millisecond

	// The GPS module occupies two fixed digital pins for its software
	// serial link.
	gpsRXPin = 10
	gpsTXPin = 11
)

// Ping reads a distance in centimeters from an ultrasonic ping sensor on a
// free digital pin. Ping sensors need no attach step, but the pin must not
// have been claimed by other hardware. Returns −1 with an error on failure.
func (s *Session) Ping(pin int) (int, error) {
	if !s.Connected() {
		return -1, ErrNotConnected
	}
	if !contains(s.digitalAvail, pin) {
		return -1, preconditionf("ping", "pin %d has already been attached", pin)
	}
	command := fmt.Sprintf("q %d", pin)
	resp, err := s.exchange(command, wire.ExchangeOptions{Retry: true, Settle: pingSettle})
	if err != nil {
		return -1, err
	}
	tokens, err := wire.Expect(command, resp, 3)
	if err != nil {
		s.dumpTokens(err)
		return -1, err
	}
	return wire.Int(command, resp, tokens[2])
}

// Temperature reads the water temperature sensor on digital pin 2, in
// degrees Celsius. The sensor is slow and allowed to stay silent, so a
// single unhurried round trip is made. Returns −1 with an error on failure.
//
// Deprecated: the temperature sensor is no longer fitted to current robots.
func (s *Session) Temperature() (int, error) {
	if !s.Connected() {
		return -1, ErrNotConnected
	}
	resp, err := s.exchange("r t", wire.ExchangeOptions{WaitQuiet: true, Settle: temperatureSettle})
	if err != nil {
		return -1, err
	}
	tokens, err := wire.Expect("r t", resp, 2)
	if err != nil {
		s.dumpTokens(err)
		return -1, err
	}
	return wire.Int("r t", resp, tokens[1])
}

// Conductivity reads the conductivity probe: the voltage difference between
// the two probe plates in ADC units (0–1023). The probe needs digital pins
// 12 and 13 and analog pins 4 and 5 wired, and takes seconds to settle.
// Returns −1 with an error on failure.
func (s *Session) Conductivity() (int, error) {
	if !s.Connected() {
		return -1, ErrNotConnected
	}
	resp, err := s.exchange("c", wire.ExchangeOptions{Retry: true, Settle: conductivitySettle})
	if err != nil {
		return -1, err
	}
	tokens, err := wire.Expect("c", resp, 2)
	if err != nil {
		s.dumpTokens(err)
		return -1, err
	}
	return wire.Int("c", resp, tokens[1])
}

// Compass reads the compass heading in degrees.
//
// Deprecated: the compass is unusable near running motors.
func (s *Session) Compass() (int, error) {
	if !s.Connected() {
		return -1, ErrNotConnected
	}
	resp, err := s.exchange("c", wire.ExchangeOptions{Retry: true, Settle: compassSettle})
	if err != nil {
		return -1, err
	}
	tokens, err := wire.Expect("c", resp, 2)
	if err != nil {
		s.dumpTokens(err)
		return -1, err
	}
	return wire.Int("c", resp, tokens[1])
}

// Gyroscope reads the three orientation axes (x, y, z) of the I2C gyroscope
// on analog pins 4 and 5. Returns {−1, −1, −1} with an error on failure.
//
// Deprecated: the gyroscope is no longer fitted to current robots.
func (s *Session) Gyroscope() ([3]int, error) {
	failed := [3]int{-1, -1, -1}
	if !s.Connected() {
		return failed, ErrNotConnected
	}
	resp, err := s.exchange("g", wire.ExchangeOptions{Retry: true})
	if err != nil {
		return failed, err
	}
	tokens, err := wire.Expect("g", resp, 4)
	if err != nil {
		s.dumpTokens(err)
		return failed, err
	}
	values, err := wire.Ints("g", resp, tokens[1:])
	if err != nil {
		return failed, err
	}
	return [3]int{values[0], values[1], values[2]}, nil
}

// AttachGPS attaches the GPS module, which claims digital pins 10 and 11
// for its software serial link. Both pins must be free. The controller
// acknowledges by echoing the attach command verbatim.
func (s *Session) AttachGPS() error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if s.gpsAttached {
		return preconditionf("attach gps", "GPS has already been attached")
	}
	if !contains(s.digitalAvail, gpsRXPin) {
		return preconditionf("attach gps", "pin %d has already been attached", gpsRXPin)
	}
	if !contains(s.digitalAvail, gpsTXPin) {
		return preconditionf("attach gps", "pin %d has already been attached", gpsTXPin)
	}
	command := "a g"
	resp, err := s.exchange(command, wire.ExchangeOptions{Retry: true, Settle: attachSettle})
	if err != nil {
		return err
	}
	if resp != command {
		return echoMismatch(command, resp)
	}
	s.claimDigitalPin(gpsRXPin)
	s.claimDigitalPin(gpsTXPin)
	s.gpsAttached = true
	s.debugf("successfully attached GPS sensor")
	return nil
}

// GPSCoordinates reads the GPS fix as {degrees latitude, minutes latitude,
// degrees longitude, minutes longitude}. The module needs about 30 seconds
// from cold boot to first fix and works poorly indoors. AttachGPS must be
// called first. Returns {−1, −1, −1, −1} with an error on failure.
func (s *Session) GPSCoordinates() ([4]float64, error) {
	failed := [4]float64{-1, -1, -1, -1}
	if !s.Connected() {
		return failed, ErrNotConnected
	}
	if !s.gpsAttached {
		return failed, preconditionf("gps", "GPS not attached; call AttachGPS first")
	}
	resp, err := s.exchange("g", wire.ExchangeOptions{Retry: true, Settle: gpsSettle})
	if err != nil {
		return failed, err
	}
	tokens, err := wire.Expect("g", resp, 5)
	if err != nil {
		s.dumpTokens(err)
		return failed, err
	}
	values, err := wire.Floats("g", resp, tokens[1:])
	if err != nil {
		return failed, err
	}
	var coords [4]float64
	copy(coords[:], values)
	return coords, nil
}
