package roverlink

import (
	"fmt"

	"github.com/banshee-data/roverlink/internal/wire"
)

// Servo identifies a servo slot.
type Servo int

const (
	Servo1 Servo = iota
	Servo2
	Servo3

	// NumServos is the number of servo slots on the controller.
	NumServos
)

const (
	minServoAngle = 0
	maxServoAngle = 180

	// neutralServoAngle is where servos start and where Close parks them.
	neutralServoAngle = 90
)

func (sv Servo) valid() bool { return sv >= Servo1 && sv < NumServos }

// AttachServo binds a servo slot to a free digital pin. Servos must be
// attached before MoveServo will accept them. The controller acknowledges
// by echoing the attach command verbatim; any other reply leaves both the
// slot and the pin unattached.
func (s *Session) AttachServo(servo Servo, pin int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !servo.valid() {
		return preconditionf("attach servo", "invalid servo number %d", servo)
	}
	if s.servosAttached[servo] {
		return preconditionf("attach servo", "servo %d has already been attached", servo)
	}
	if !contains(s.digitalAvail, pin) {
		return preconditionf("attach servo", "pin %d has already been attached", pin)
	}

	command := fmt.Sprintf("a s %d %d", servo, pin)
	resp, err := s.exchange(command, wire.ExchangeOptions{Retry: true, Settle: attachSettle})
	if err != nil {
		return err
	}
	if resp != command {
		return echoMismatch(command, resp)
	}
	s.servosAttached[servo] = true
	s.claimDigitalPin(pin)
	s.debugf("successfully attached servo %d to pin %d", servo, pin)
	return nil
}

// MoveServo moves a servo to an angular position between 0 and 180. Servos
// start at 90; a standard servo holds the commanded angle, a continuous-
// rotation servo spins at a rate proportional to the distance from 90.
//
// This is a non-blocking call: the command is fired at the controller and
// the function returns without waiting for the physical move. Consecutive
// calls may overwrite each other before the first move is visible.
func (s *Session) MoveServo(servo Servo, position int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !servo.valid() {
		return preconditionf("move servo", "invalid servo number %d", servo)
	}
	if !s.servosAttached[servo] {
		return preconditionf("move servo", "servo %d has not been attached", servo)
	}
	if !s.overrideValidation && (position < minServoAngle || position > maxServoAngle) {
		return preconditionf("move servo", "position must be between %d and %d, got %d", minServoAngle, maxServoAngle, position)
	}
	s.debugf("moving servo %d to position %d", servo, position)
	_, err := s.exchange(fmt.Sprintf("v %d %d", servo, position), wire.ExchangeOptions{WaitQuiet: true})
	return err
}

// MoveAllServos moves the three servos simultaneously. All three must be
// attached. Non-blocking like MoveServo.
func (s *Session) MoveAllServos(pos1, pos2, pos3 int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	for servo := Servo1; servo < NumServos; servo++ {
		if !s.servosAttached[servo] {
			return preconditionf("move servos", "servo %d has not been attached", servo)
		}
	}
	if !s.overrideValidation {
		for _, pos := range []int{pos1, pos2, pos3} {
			if pos < minServoAngle || pos > maxServoAngle {
				return preconditionf("move servos", "positions must be between %d and %d, got %d", minServoAngle, maxServoAngle, pos)
			}
		}
	}
	s.debugf("moving servos to positions %d, %d, and %d", pos1, pos2, pos3)
	_, err := s.exchange(fmt.Sprintf("V %d %d %d", pos1, pos2, pos3), wire.ExchangeOptions{WaitQuiet: true})
	return err
}
