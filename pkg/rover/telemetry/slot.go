// Package telemetry caches the last known sensor values reported by the rover.
package telemetry

import (
	"fmt"
	"strings"
)

// Slot identifies one cached value.
type Slot int

// Slots.
const (
	Battery Slot = iota
	Voltage
	SonarDistance
	Line1
	Line2
	Line3
	Line4

	// NumSlots is the number of slots.
	NumSlots = iota
)

var slotNames = [NumSlots]string{
	Battery:       "battery",
	Voltage:       "voltage",
	SonarDistance: "sonar",
	Line1:         "line1",
	Line2:         "line2",
	Line3:         "line3",
	Line4:         "line4",
}

// Slots lists all slots in order.
func Slots() []Slot {
	slots := make([]Slot, NumSlots)
	for n := range slots {
		slots[n] = Slot(n)
	}
	return slots
}

// IsValid checks the slot is defined.
func (s Slot) IsValid() bool {
	return s >= 0 && s < NumSlots
}

func (s Slot) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

// LineSensor returns the slot of line sensor n (1 to 4).
func LineSensor(n int) (Slot, bool) {
	if n < 1 || n > 4 {
		return 0, false
	}
	return Line1 + Slot(n-1), true
}

// ParseSlot parses a slot name, case insensitive.
func ParseSlot(name string) (Slot, bool) {
	for n, s := range slotNames {
		if strings.EqualFold(name, s) {
			return Slot(n), true
		}
	}
	return 0, false
}
