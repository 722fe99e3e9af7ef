package roverlink

import (
	"log"

	"github.com/banshee-data/roverlink/internal/wire"
)

// Unread is the sentinel cached for a pin that has not been successfully
// read this session. Analog readings span 0–1023 and digital readings are
// 0/1, so −1 is unambiguous.
const Unread = -1

func (s *Session) initPinPools() {
	s.digitalAvail = append([]int(nil), s.board.DigitalPins...)
	s.analogAvail = append([]int(nil), s.board.AnalogPins...)
	s.analogCache = nil
	s.digitalCache = nil
}

// AvailableDigitalPins returns the digital pins that are still free: not
// attached to a motor, servo, or accessory. Pins leave this set when
// attached and never return during a session.
func (s *Session) AvailableDigitalPins() []int {
	return append([]int(nil), s.digitalAvail...)
}

// AvailableAnalogPins returns the analog pins that can be read.
func (s *Session) AvailableAnalogPins() []int {
	return append([]int(nil), s.analogAvail...)
}

// RefreshAnalogPins reads every free analog pin in one bulk exchange and
// repopulates the cache in pool order. The cache is reset to the Unread
// sentinel first, so a failed refresh leaves clearly-stale entries rather
// than silently keeping old readings.
func (s *Session) RefreshAnalogPins() error {
	s.analogCache = make([]int, len(s.analogAvail))
	for i := range s.analogCache {
		s.analogCache[i] = Unread
	}
	return s.refreshPins("r a", s.analogAvail, s.analogCache)
}

// RefreshDigitalPins reads every free digital pin in one bulk exchange and
// repopulates the cache in pool order.
func (s *Session) RefreshDigitalPins() error {
	s.digitalCache = make([]int, len(s.digitalAvail))
	for i := range s.digitalCache {
		s.digitalCache[i] = Unread
	}
	return s.refreshPins("r d", s.digitalAvail, s.digitalCache)
}

func (s *Session) refreshPins(command string, pool []int, cache []int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	resp, err := s.exchange(command, wire.ExchangeOptions{Retry: true})
	if err != nil {
		return err
	}
	tokens, err := wire.AtLeast(command, resp, len(pool)+1)
	if err != nil {
		s.dumpTokens(err)
		return err
	}
	values, err := wire.Ints(command, resp, tokens[1:len(pool)+1])
	if err != nil {
		return err
	}
	copy(cache, values)
	return nil
}

// AnalogPin returns the cached reading of analog pin x, between 0 and 1023.
// The cache is only updated by RefreshAnalogPins; the first access this
// session triggers a refresh automatically. Returns the Unread sentinel
// with an error if the pin does not exist or is attached to hardware.
func (s *Session) AnalogPin(x int) (int, error) {
	if s.analogCache == nil {
		if err := s.RefreshAnalogPins(); err != nil {
			return Unread, err
		}
	}
	idx := indexOf(s.analogAvail, x)
	if idx < 0 {
		return Unread, preconditionf("analog pin", "pin %d doesn't exist, or is attached to something", x)
	}
	return s.analogCache[idx], nil
}

// DigitalPin returns the cached reading of digital pin x, 0 or 1. The cache
// is only updated by RefreshDigitalPins; the first access this session
// triggers a refresh automatically.
func (s *Session) DigitalPin(x int) (int, error) {
	if s.digitalCache == nil {
		if err := s.RefreshDigitalPins(); err != nil {
			return Unread, err
		}
	}
	idx := indexOf(s.digitalAvail, x)
	if idx < 0 {
		return Unread, preconditionf("digital pin", "pin %d doesn't exist, or is attached to something", x)
	}
	return s.digitalCache[idx], nil
}

// claimDigitalPin removes pin from the free pool after a successful attach.
func (s *Session) claimDigitalPin(pin int) {
	idx := indexOf(s.digitalAvail, pin)
	if idx < 0 {
		log.Printf("claiming digital pin %d that is not in the free pool", pin)
		return
	}
	s.digitalAvail = append(s.digitalAvail[:idx], s.digitalAvail[idx+1:]...)
	// The cache is positional; force a refresh before the next read.
	s.digitalCache = nil
}

func indexOf(pins []int, pin int) int {
	for i, p := range pins {
		if p == pin {
			return i
		}
	}
	return -1
}

func contains(pins []int, pin int) bool {
	return indexOf(pins, pin) >= 0
}
