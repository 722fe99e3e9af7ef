package roverlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roverlink/internal/wire"
)

func TestAttachServo(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	require.NoError(t, rig.session.AttachServo(Servo1, 9))
	assert.Contains(t, rig.written(), "a s 0 9\r\n")
	assert.NotContains(t, rig.session.AvailableDigitalPins(), 9)
}

func TestAttachServoEchoMismatch(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	rig.replies["a s 0 9"] = "a s 0"

	err := rig.session.AttachServo(Servo1, 9)
	var perr *wire.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, rig.session.AvailableDigitalPins(), 9)

	// The slot stays free for a successful retry.
	rig.replies = map[string]string{}
	require.NoError(t, rig.session.AttachServo(Servo1, 9))
}

func TestAttachServoPreconditions(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	require.NoError(t, rig.session.AttachServo(Servo1, 9))

	var precondition *PreconditionError
	require.ErrorAs(t, rig.session.AttachServo(Servo1, 8), &precondition, "slot reuse")
	require.ErrorAs(t, rig.session.AttachServo(Servo2, 9), &precondition, "pin reuse")
	require.ErrorAs(t, rig.session.AttachServo(Servo(3), 8), &precondition, "bad slot")
}

func TestMoveServo(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	require.NoError(t, rig.session.AttachServo(Servo1, 9))

	require.NoError(t, rig.session.MoveServo(Servo1, 45))
	assert.Contains(t, rig.written(), "v 0 45\r\n")
}

func TestMoveServoAcceptsSilence(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	require.NoError(t, rig.session.AttachServo(Servo1, 9))

	rig.replies["v 0 45"] = ""
	require.NoError(t, rig.session.MoveServo(Servo1, 45))
}

func TestMoveServoBounds(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	require.NoError(t, rig.session.AttachServo(Servo1, 9))

	require.NoError(t, rig.session.MoveServo(Servo1, 0))
	require.NoError(t, rig.session.MoveServo(Servo1, 180))

	var precondition *PreconditionError
	require.ErrorAs(t, rig.session.MoveServo(Servo1, -1), &precondition)
	require.ErrorAs(t, rig.session.MoveServo(Servo1, 181), &precondition)
}

func TestMoveServoOverrideValidation(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	require.NoError(t, rig.session.AttachServo(Servo1, 9))
	rig.session.SetOverrideValidation(true)

	require.NoError(t, rig.session.MoveServo(Servo1, 200))
	assert.Contains(t, rig.written(), "v 0 200\r\n")

	var precondition *PreconditionError
	require.ErrorAs(t, rig.session.MoveServo(Servo2, 90), &precondition, "attachment still required")
}

func TestMoveServoUnattached(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	var precondition *PreconditionError
	require.ErrorAs(t, rig.session.MoveServo(Servo1, 90), &precondition)
}

func TestMoveAllServos(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	require.NoError(t, rig.session.AttachServo(Servo1, 7))
	require.NoError(t, rig.session.AttachServo(Servo2, 8))

	var precondition *PreconditionError
	require.ErrorAs(t, rig.session.MoveAllServos(10, 20, 30), &precondition, "all three must be attached")

	require.NoError(t, rig.session.AttachServo(Servo3, 9))
	require.NoError(t, rig.session.MoveAllServos(10, 20, 30))
	assert.Contains(t, rig.written(), "V 10 20 30\r\n")
}
