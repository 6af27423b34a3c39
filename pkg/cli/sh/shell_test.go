package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rover.go/pkg/rover/telemetry"
)

func TestParseSwitch(t *testing.T) {
	for _, arg := range []string{"on", "ON", "1", "true", "yes"} {
		on, err := ParseSwitch(arg)
		require.NoError(t, err)
		require.True(t, on, arg)
	}
	for _, arg := range []string{"off", "0", "False", "no"} {
		on, err := ParseSwitch(arg)
		require.NoError(t, err)
		require.False(t, on, arg)
	}
	_, err := ParseSwitch("maybe")
	require.EqualError(t, err, `invalid switch "maybe", on or off expected`)
}

func TestFormatTelemetry(t *testing.T) {
	store := telemetry.NewStore()
	d := telemetry.NewDispatcher(store)
	d.Dispatch("CT70")
	d.Dispatch("CL1001")
	expected := "battery  70 (70)\n" +
		"voltage  -\n" +
		"sonar    -\n" +
		"line1    1\n" +
		"line2    0\n" +
		"line3    0\n" +
		"line4    1"
	require.Equal(t, expected, FormatTelemetry(store.Snapshot()))
}
