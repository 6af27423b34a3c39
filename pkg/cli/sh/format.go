package sh

import (
	"bytes"
	"fmt"

	"github.com/robotalks/rover.go/pkg/rover/telemetry"
)

// FormatTelemetry prints a snapshot into friendly string for display.
func FormatTelemetry(snap telemetry.Snapshot) string {
	var w bytes.Buffer
	for n, slot := range telemetry.Slots() {
		if n > 0 {
			w.WriteByte('\n')
		}
		if !snap.Received(slot) {
			fmt.Fprintf(&w, "%-8s -", slot)
			continue
		}
		fmt.Fprintf(&w, "%-8s %d", slot, snap.Value(slot))
		if slot == telemetry.Battery && snap.BatteryText != "" {
			fmt.Fprintf(&w, " (%s)", snap.BatteryText)
		}
	}
	return w.String()
}
