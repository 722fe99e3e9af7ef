package roverlink

import (
	"fmt"
	"time"

	"github.com/banshee-data/roverlink/internal/wire"
)

// Motor identifies a DC motor slot. Slots are logical positions independent
// of the digital pin the motor is wired to.
type Motor int

const (
	Motor1 Motor = iota
	Motor2
	Motor3
	Motor4

	// NumMotors is the number of motor slots on the controller.
	NumMotors
)

const (
	maxMotorSpeed = 500
	maxQuadSpeed  = 255
	maxRunMillis  = 30000

	// maxRunningMotors caps how many motors may run concurrently: the
	// power supply browns out beyond two.
	maxRunningMotors = 2

	// encodedMoveSettle is the pause after an encoded move completes,
	// letting the controller flush its encoder state.
	encodedMoveSettle = time.Second
)

func (m Motor) valid() bool { return m >= Motor1 && m < NumMotors }

// encoderCapable reports whether the slot has a quadrature encoder; only
// the first two motor headers are wired for one.
func (m Motor) encoderCapable() bool { return m == Motor1 || m == Motor2 }

// AttachMotor binds a motor slot to a free digital pin. Motors must be
// attached before RunMotor or RunEncodedMotor will accept them. The
// controller acknowledges by echoing the attach command verbatim; any other
// reply leaves both the slot and the pin unattached.
func (s *Session) AttachMotor(motor Motor, pin int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor.valid() {
		return preconditionf("attach motor", "invalid motor number %d", motor)
	}
	if s.motorsAttached[motor] {
		return preconditionf("attach motor", "motor %d has already been attached", motor)
	}
	if !contains(s.digitalAvail, pin) {
		return preconditionf("attach motor", "pin %d has already been attached", pin)
	}

	command := fmt.Sprintf("a m %d %d", motor, pin)
	resp, err := s.exchange(command, wire.ExchangeOptions{Retry: true})
	if err != nil {
		return err
	}
	if resp != command {
		return echoMismatch(command, resp)
	}
	s.motorsAttached[motor] = true
	s.claimDigitalPin(pin)
	s.debugf("successfully attached motor %d to pin %d", motor, pin)
	return nil
}

// RunMotor runs one motor at speed [-500, 500] for timeMs milliseconds,
// blocking for the duration. A negative speed reverses the motor. A time of
// zero runs the motor until the next command to the same slot, surviving
// even host program exit. At most two motors may run concurrently.
func (s *Session) RunMotor(motor Motor, speed, timeMs int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor.valid() {
		return preconditionf("run motor", "invalid motor number %d", motor)
	}
	if !s.overrideValidation {
		if speed < -maxMotorSpeed || speed > maxMotorSpeed {
			return preconditionf("run motor", "speed must be between -%d and %d, got %d", maxMotorSpeed, maxMotorSpeed, speed)
		}
		if timeMs < 0 || timeMs > maxRunMillis {
			return preconditionf("run motor", "time must be between 0 and %dms, got %d", maxRunMillis, timeMs)
		}
	}
	if !s.motorsAttached[motor] {
		return preconditionf("run motor", "motor %d has not been attached", motor)
	}
	restore, err := s.markRunning(motor, speed)
	if err != nil {
		return err
	}

	s.debugf("running motor %d at speed %d for %dms", motor, speed, timeMs)
	_, err = s.exchange(fmt.Sprintf("d %d %d %d", motor, speed, timeMs), wire.ExchangeOptions{})
	if err != nil {
		restore()
		return err
	}
	s.sleep(time.Duration(timeMs) * time.Millisecond)
	if timeMs != 0 {
		s.motorsRunning[motor] = false
	}
	return nil
}

// RunTwoMotors runs two motors at independent speeds for the same duration,
// blocking for the duration. Same limits as RunMotor.
func (s *Session) RunTwoMotors(motor1 Motor, speed1 int, motor2 Motor, speed2 int, timeMs int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor1.valid() || !motor2.valid() {
		return preconditionf("run motor", "invalid motor number")
	}
	if !s.overrideValidation {
		for _, speed := range []int{speed1, speed2} {
			if speed < -maxMotorSpeed || speed > maxMotorSpeed {
				return preconditionf("run motor", "speed must be between -%d and %d, got %d", maxMotorSpeed, maxMotorSpeed, speed)
			}
		}
		if timeMs < 0 || timeMs > maxRunMillis {
			return preconditionf("run motor", "time must be between 0 and %dms, got %d", maxRunMillis, timeMs)
		}
	}
	if !s.motorsAttached[motor1] || !s.motorsAttached[motor2] {
		return preconditionf("run motor", "one of these motors has not been attached")
	}
	restore, err := s.markRunningPair(motor1, speed1, motor2, speed2)
	if err != nil {
		return err
	}

	s.debugf("running motor %d at speed %d and motor %d at speed %d for %dms", motor1, speed1, motor2, speed2, timeMs)
	command := fmt.Sprintf("D %d %d %d %d %d", motor1, speed1, motor2, speed2, timeMs)
	if _, err := s.exchange(command, wire.ExchangeOptions{}); err != nil {
		restore()
		return err
	}
	s.sleep(time.Duration(timeMs) * time.Millisecond)
	if timeMs != 0 {
		s.motorsRunning[motor1] = false
		s.motorsRunning[motor2] = false
	}
	return nil
}

// RunFourMotors runs all four motors at independent speeds [-255, 255] for
// the same duration.
//
// Deprecated: the controller's power budget only supports two concurrent
// motors, so this is rejected unless validation is overridden.
func (s *Session) RunFourMotors(motor1 Motor, speed1 int, motor2 Motor, speed2 int, motor3 Motor, speed3 int, motor4 Motor, speed4 int, timeMs int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	motors := []Motor{motor1, motor2, motor3, motor4}
	speeds := []int{speed1, speed2, speed3, speed4}
	for _, m := range motors {
		if !m.valid() {
			return preconditionf("run motor", "invalid motor number %d", m)
		}
	}
	if !s.overrideValidation {
		return preconditionf("run motor", "no more than %d motors may run at once, so four-motor runs are unavailable", maxRunningMotors)
	}
	for i, speed := range speeds {
		if speed < -maxQuadSpeed || speed > maxQuadSpeed {
			return preconditionf("run motor", "speed must be between -%d and %d, got %d for motor %d", maxQuadSpeed, maxQuadSpeed, speed, motors[i])
		}
	}
	if timeMs < 0 {
		return preconditionf("run motor", "time must be at least 0, got %d", timeMs)
	}
	for _, m := range motors {
		if !s.motorsAttached[m] {
			return preconditionf("run motor", "motor %d has not been attached", m)
		}
	}

	command := fmt.Sprintf("F %d %d %d %d %d %d %d %d %d",
		motor1, speed1, motor2, speed2, motor3, speed3, motor4, speed4, timeMs)
	if _, err := s.exchange(command, wire.ExchangeOptions{}); err != nil {
		return err
	}
	s.sleep(time.Duration(timeMs) * time.Millisecond)
	return nil
}

// RunEncodedMotor runs an encoder-equipped motor at the given speed until
// it has moved the given number of ticks. The call blocks until the
// controller echoes the command back as its completion signal, bounded by
// the session echo timeout.
func (s *Session) RunEncodedMotor(motor Motor, speed, ticks int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor.valid() {
		return preconditionf("run encoded motor", "invalid motor number %d", motor)
	}
	if !s.overrideValidation {
		if speed < -maxMotorSpeed || speed > maxMotorSpeed {
			return preconditionf("run encoded motor", "speed must be between -%d and %d, got %d", maxMotorSpeed, maxMotorSpeed, speed)
		}
		if !motor.encoderCapable() {
			return preconditionf("run encoded motor", "motor %d has no encoder", motor)
		}
		if ticks <= 0 {
			return preconditionf("run encoded motor", "tick count must be positive, got %d", ticks)
		}
	}
	if !s.motorsAttached[motor] {
		return preconditionf("run encoded motor", "motor %d has not been attached", motor)
	}
	restore, err := s.markRunning(motor, speed)
	if err != nil {
		return err
	}

	s.debugf("running encoded motor %d to tick %d at speed %d", motor, ticks, speed)
	command := fmt.Sprintf("e %d %d %d", motor, speed, ticks)
	_, err = s.exchange(command, wire.ExchangeOptions{EchoUntil: command})
	if err != nil {
		restore()
		return err
	}
	s.debugf("done running encoded motor")
	s.motorsRunning[motor] = false
	s.sleep(encodedMoveSettle)
	return nil
}

// RunTwoEncodedMotors runs both encoder-equipped motors for independent
// tick counts, blocking until the controller echoes completion.
func (s *Session) RunTwoEncodedMotors(motor1 Motor, speed1, ticks1 int, motor2 Motor, speed2, ticks2 int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor1.valid() || !motor2.valid() {
		return preconditionf("run encoded motor", "invalid motor number")
	}
	if !s.overrideValidation {
		for _, speed := range []int{speed1, speed2} {
			if speed < -maxMotorSpeed || speed > maxMotorSpeed {
				return preconditionf("run encoded motor", "speed must be between -%d and %d, got %d", maxMotorSpeed, maxMotorSpeed, speed)
			}
		}
		if !motor1.encoderCapable() || !motor2.encoderCapable() {
			return preconditionf("run encoded motor", "both motors must have encoders")
		}
		if ticks1 <= 0 || ticks2 <= 0 {
			return preconditionf("run encoded motor", "tick counts must be positive")
		}
	}
	if !s.motorsAttached[motor1] || !s.motorsAttached[motor2] {
		return preconditionf("run encoded motor", "one of these motors has not been attached")
	}
	restore, err := s.markRunningPair(motor1, speed1, motor2, speed2)
	if err != nil {
		return err
	}

	s.debugf("running encoded motor %d at speed %d for %d ticks and motor %d at speed %d for %d ticks",
		motor1, speed1, ticks1, motor2, speed2, ticks2)
	command := fmt.Sprintf("E %d %d %d %d %d %d", motor1, speed1, ticks1, motor2, speed2, ticks2)
	_, err = s.exchange(command, wire.ExchangeOptions{EchoUntil: command})
	if err != nil {
		restore()
		return err
	}
	s.debugf("done running encoded motors")
	s.motorsRunning[motor1] = false
	s.motorsRunning[motor2] = false
	s.sleep(encodedMoveSettle)
	return nil
}

// EncoderPosition returns the net tick count of an encoded motor since the
// last reset. Forward motion increments, reverse decrements, so the count
// may be negative. Returns −1 with an error on failure.
func (s *Session) EncoderPosition(motor Motor) (int, error) {
	if !s.Connected() {
		return -1, ErrNotConnected
	}
	if !motor.valid() {
		return -1, preconditionf("encoder position", "invalid motor number %d", motor)
	}
	if !s.overrideValidation && !motor.encoderCapable() {
		return -1, preconditionf("encoder position", "motor %d has no encoder", motor)
	}
	s.debugf("checking tick position for encoder %d", motor)
	command := fmt.Sprintf("p %d", motor)
	resp, err := s.exchange(command, wire.ExchangeOptions{Retry: true})
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

// ResetEncoderPosition zeroes the tick count of an encoded motor. The
// controller is expected to acknowledge with a non-empty reply.
func (s *Session) ResetEncoderPosition(motor Motor) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor.valid() {
		return preconditionf("reset encoder", "invalid motor number %d", motor)
	}
	if !s.overrideValidation && !motor.encoderCapable() {
		return preconditionf("reset encoder", "motor %d has no encoder", motor)
	}
	if _, err := s.exchange(fmt.Sprintf("z %d", motor), wire.ExchangeOptions{}); err != nil {
		return err
	}
	s.debugf("done resetting the encoder tick count")
	return nil
}

// SetMotorRampUpTime sets how long all motors take to reach their target
// speed, in milliseconds. Default 0 (instant). The ramp counts against the
// total run time of subsequent timed moves.
func (s *Session) SetMotorRampUpTime(millis int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if millis < 0 {
		return preconditionf("ramp-up time", "time must be at least 0, got %d", millis)
	}
	if _, err := s.exchange(fmt.Sprintf("m %d", millis), wire.ExchangeOptions{}); err != nil {
		return err
	}
	s.debugf("done setting the ramp up time")
	return nil
}

// RunMixer runs the small mixing motor on a motor header at the configured
// mixer speed, blocking for the duration.
//
// Deprecated: the mixer accessory is no longer fitted to current robots.
func (s *Session) RunMixer(motor Motor, timeMs int) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor.valid() {
		return preconditionf("run mixer", "invalid motor number %d", motor)
	}
	if !s.overrideValidation && timeMs < 0 {
		return preconditionf("run mixer", "time must be at least 0, got %d", timeMs)
	}
	s.debugf("running mixer on port %d at speed %d for %dms", motor, s.mixerSpeed, timeMs)
	if _, err := s.exchange(fmt.Sprintf("d %d %d %d", motor, s.mixerSpeed, timeMs), wire.ExchangeOptions{}); err != nil {
		return err
	}
	s.sleep(time.Duration(timeMs) * time.Millisecond)
	return nil
}

// StopMixer stops a mixer started with a zero run time.
//
// Deprecated: the mixer accessory is no longer fitted to current robots.
func (s *Session) StopMixer(motor Motor) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	if !motor.valid() {
		return preconditionf("stop mixer", "invalid motor number %d", motor)
	}
	s.debugf("stopping mixer on port %d", motor)
	_, err := s.exchange(fmt.Sprintf("d %d 0 0", motor), wire.ExchangeOptions{})
	return err
}

// SetMixerSpeed sets the speed used by RunMixer, clamped to [0, 255].
//
// Deprecated: the mixer accessory is no longer fitted to current robots.
func (s *Session) SetMixerSpeed(speed int) {
	if !s.overrideValidation && speed > maxQuadSpeed {
		s.debugf("mixer speed %d is above %d, clamping", speed, maxQuadSpeed)
		speed = maxQuadSpeed
	}
	if !s.overrideValidation && speed < 0 {
		s.debugf("mixer speed %d is below 0, clamping", speed)
		speed = 0
	}
	s.mixerSpeed = speed
}

// MixerSpeed returns the speed used by RunMixer.
//
// Deprecated: the mixer accessory is no longer fitted to current robots.
func (s *Session) MixerSpeed() int {
	return s.mixerSpeed
}

// markRunning speculatively flips a motor's running flag and enforces the
// concurrent-motor cap. On violation the flag is rolled back and an error
// returned without any command reaching the wire. The returned restore
// function undoes the update if the exchange itself fails.
func (s *Session) markRunning(motor Motor, speed int) (restore func(), err error) {
	if s.overrideValidation {
		return func() {}, nil
	}
	prev := s.motorsRunning[motor]
	s.motorsRunning[motor] = speed != 0
	if s.countRunning() > maxRunningMotors {
		s.motorsRunning[motor] = prev
		return nil, preconditionf("run motor", "no more than %d motors may run at any given time", maxRunningMotors)
	}
	return func() { s.motorsRunning[motor] = prev }, nil
}

func (s *Session) markRunningPair(motor1 Motor, speed1 int, motor2 Motor, speed2 int) (restore func(), err error) {
	if s.overrideValidation {
		return func() {}, nil
	}
	prev1 := s.motorsRunning[motor1]
	prev2 := s.motorsRunning[motor2]
	s.motorsRunning[motor1] = speed1 != 0
	s.motorsRunning[motor2] = speed2 != 0
	if s.countRunning() > maxRunningMotors {
		s.motorsRunning[motor1] = prev1
		s.motorsRunning[motor2] = prev2
		return nil, preconditionf("run motor", "no more than %d motors may run at any given time", maxRunningMotors)
	}
	return func() {
		s.motorsRunning[motor1] = prev1
		s.motorsRunning[motor2] = prev2
	}, nil
}

func (s *Session) countRunning() int {
	n := 0
	for _, running := range s.motorsRunning {
		if running {
			n++
		}
	}
	return n
}
