package serialport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsNormalizeDefaults(t *testing.T) {
	opts, err := Options{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 9600, opts.BaudRate)
	assert.Equal(t, 8, opts.DataBits)
	assert.Equal(t, 1, opts.StopBits)
	assert.Equal(t, "N", opts.Parity)
}

func TestOptionsNormalizeParityAliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "N"},
		{"none", "N"},
		{"E", "E"},
		{"even", "E"},
		{"odd", "O"},
		{" n ", "N"},
	}
	for _, tt := range tests {
		opts, err := Options{Parity: tt.in}.Normalize()
		require.NoError(t, err, "parity %q", tt.in)
		assert.Equal(t, tt.want, opts.Parity, "parity %q", tt.in)
	}
}

func TestOptionsNormalizeRejectsBadValues(t *testing.T) {
	_, err := Options{DataBits: 9}.Normalize()
	assert.Error(t, err)

	_, err = Options{StopBits: 3}.Normalize()
	assert.Error(t, err)

	_, err = Options{Parity: "M"}.Normalize()
	assert.Error(t, err)
}

func TestOptionsEqual(t *testing.T) {
	assert.True(t, Options{}.Equal(Options{BaudRate: 9600, Parity: "none"}))
	assert.False(t, Options{BaudRate: 9600}.Equal(Options{BaudRate: 115200}))
	assert.False(t, Options{DataBits: 9}.Equal(Options{DataBits: 9}))
}

func TestTestablePortEmptyReadActsLikeTimeout(t *testing.T) {
	port := NewTestablePort()

	buf := make([]byte, 16)
	n, err := port.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, port.ReadCalls)
}

func TestTestablePortRespond(t *testing.T) {
	port := NewTestablePort()
	port.Respond = func(command string) string {
		assert.Equal(t, "q 6", command)
		return "q 6 42"
	}

	_, err := port.Write([]byte("q 6\r\n"))
	require.NoError(t, err)

	buf := make([]byte, 64)
	n, err := port.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "q 6 42", string(buf[:n]))
	assert.Equal(t, []byte("q 6\r\n"), port.GetWrittenData())
}

func TestTestablePortSilentRespond(t *testing.T) {
	port := NewTestablePort()
	port.Respond = func(string) string { return "" }

	_, err := port.Write([]byte("v 0 90\r\n"))
	require.NoError(t, err)

	n, err := port.Read(make([]byte, 16))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTestablePortInjectedErrors(t *testing.T) {
	port := NewTestablePort()
	port.ReadError = errors.New("read failed")
	port.WriteError = errors.New("write failed")

	_, err := port.Read(make([]byte, 1))
	assert.EqualError(t, err, "read failed")

	_, err = port.Write([]byte("n\r\n"))
	assert.EqualError(t, err, "write failed")

	// Injected errors are one-shot.
	_, err = port.Write([]byte("n\r\n"))
	assert.NoError(t, err)
}

func TestTestablePortClosed(t *testing.T) {
	port := NewTestablePort()
	require.NoError(t, port.Close())
	assert.True(t, port.Closed)

	_, err := port.Read(make([]byte, 1))
	assert.Error(t, err)
	_, err = port.Write([]byte("n\r\n"))
	assert.Error(t, err)
}

func TestMockFactoryRecordsCalls(t *testing.T) {
	port := NewTestablePort()
	factory := NewMockFactory(port)

	got, err := factory.Open("/dev/ttyACM0", Options{BaudRate: 9600})
	require.NoError(t, err)
	assert.Same(t, port, got.(*TestablePort))

	call := factory.LastCall()
	require.NotNil(t, call)
	assert.Equal(t, "/dev/ttyACM0", call.Path)
	assert.Equal(t, 9600, call.Opts.BaudRate)
}

func TestMockFactoryError(t *testing.T) {
	factory := NewMockFactory(nil)
	factory.Error = errors.New("no such device")

	_, err := factory.Open("/dev/ttyACM9", Options{})
	assert.EqualError(t, err, "no such device")
	assert.Len(t, factory.OpenCalls, 1)
}

func TestSetReadTimeoutRecorded(t *testing.T) {
	port := NewTestablePort()
	require.NoError(t, port.SetReadTimeout(50*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, port.ReadTimeout)
}
