package roverlink

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailablePinsMatchBoard(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	board := ArduinoUno()
	if diff := cmp.Diff(board.DigitalPins, rig.session.AvailableDigitalPins()); diff != "" {
		t.Errorf("digital pins mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(board.AnalogPins, rig.session.AvailableAnalogPins()); diff != "" {
		t.Errorf("analog pins mismatch (-want +got):\n%s", diff)
	}
}

func TestAvailablePinsReturnsCopies(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	pins := rig.session.AvailableDigitalPins()
	pins[0] = 99
	assert.NotEqual(t, 99, rig.session.AvailableDigitalPins()[0])
}

func TestAnalogPinReadsCachedValue(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	// Connect primed the cache from the canned bulk read.
	v, err := rig.session.AnalogPin(0)
	require.NoError(t, err)
	assert.Equal(t, 810, v)

	v, err = rig.session.AnalogPin(5)
	require.NoError(t, err)
	assert.Equal(t, 860, v)
}

func TestAnalogPinCacheOnlyChangesOnRefresh(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	rig.replies["r a"] = "r 1 2 3 4 5 6"
	v, err := rig.session.AnalogPin(0)
	require.NoError(t, err)
	assert.Equal(t, 810, v, "cache must not change without an explicit refresh")

	require.NoError(t, rig.session.RefreshAnalogPins())
	v, err = rig.session.AnalogPin(0)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestDigitalPinAutoRefreshesOnFirstRead(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	v, err := rig.session.DigitalPin(2)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = rig.session.DigitalPin(3)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestPinReadUnknownPin(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	_, err := rig.session.AnalogPin(17)
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)

	v, _ := rig.session.AnalogPin(17)
	assert.Equal(t, Unread, v)
}

func TestAttachedPinLeavesThePool(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)
	require.NoError(t, rig.session.AttachMotor(Motor1, 6))

	assert.NotContains(t, rig.session.AvailableDigitalPins(), 6)

	_, err := rig.session.DigitalPin(6)
	var precondition *PreconditionError
	require.ErrorAs(t, err, &precondition)
}

func TestBulkReadRealignsAfterAttach(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	// Claim pin 2, the first digital pin. The bulk read now reports one
	// value per remaining pin and the cache must index by the new order.
	require.NoError(t, rig.session.AttachMotor(Motor1, 2))
	rig.replies["r d"] = "r 7 8 9 10 11 12 13 14 15 16 17"

	v, err := rig.session.DigitalPin(3)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = rig.session.DigitalPin(13)
	require.NoError(t, err)
	assert.Equal(t, 17, v)
}

func TestRefreshFailureResetsCacheToUnread(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	rig.replies["r a"] = "r 500"
	require.Error(t, rig.session.RefreshAnalogPins())

	v, err := rig.session.AnalogPin(0)
	require.NoError(t, err)
	assert.Equal(t, Unread, v)
}

func TestRefreshSilentControllerFails(t *testing.T) {
	rig := newTestRig(t)
	rig.connect(t)

	rig.replies["r a"] = ""
	assert.Error(t, rig.session.RefreshAnalogPins())
}
