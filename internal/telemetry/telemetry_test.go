package telemetry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenAssignsSessionID(t *testing.T) {
	a := openTestStore(t)
	b := openTestStore(t)
	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestRecordAndQueryReadings(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.RecordReading("analog", 0, 512))
	require.NoError(t, store.RecordReading("analog", 1, 1023))
	require.NoError(t, store.RecordReading("digital", 13, 1))

	analog, err := store.Readings("analog", 10)
	require.NoError(t, err)
	require.Len(t, analog, 2)
	for _, r := range analog {
		assert.Equal(t, store.SessionID(), r.SessionID)
		assert.Equal(t, "analog", r.Kind)
	}

	digital, err := store.Readings("digital", 10)
	require.NoError(t, err)
	require.Len(t, digital, 1)
	assert.Equal(t, 13, digital[0].Pin)
	assert.Equal(t, 1, digital[0].Value)
}

func TestReadingsHonorsLimit(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordReading("analog", 0, i*100))
	}

	readings, err := store.Readings("analog", 3)
	require.NoError(t, err)
	assert.Len(t, readings, 3)
}

func TestRecordCommand(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.RecordCommand("q 6", "q 6 42", nil))
	require.NoError(t, store.RecordCommand("n", "", errors.New("no response from controller")))

	var count int
	require.NoError(t, store.QueryRow("SELECT COUNT(*) FROM commands").Scan(&count))
	assert.Equal(t, 2, count)

	var errText string
	require.NoError(t, store.QueryRow(
		"SELECT error FROM commands WHERE command = ?", "n",
	).Scan(&errText))
	assert.Equal(t, "no response from controller", errText)
}
