package protocol

import (
	"fmt"
	"strings"
)

// CarMode selects the autonomous behavior of the board.
type CarMode int

// Car modes.
const (
	Manual CarMode = iota
	AIDrive
	BallTracking
	PersonDetect
	FaceDetect

	// NumCarModes is the number of defined car modes.
	NumCarModes = iota
)

var carModeNames = [NumCarModes]string{
	Manual:       "manual",
	AIDrive:      "ai",
	BallTracking: "ball",
	PersonDetect: "person",
	FaceDetect:   "face",
}

// IsValid checks if the mode is one of the defined modes.
func (m CarMode) IsValid() bool {
	return m >= 0 && m < NumCarModes
}

func (m CarMode) String() string {
	if !m.IsValid() {
		return fmt.Sprintf("CarMode(%d)", int(m))
	}
	return carModeNames[m]
}

// ParseCarMode parses the name of a car mode, case insensitive.
func ParseCarMode(s string) (CarMode, error) {
	for n, name := range carModeNames {
		if strings.EqualFold(s, name) {
			return CarMode(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// ColorFilter is the target color for AI tracking.
type ColorFilter int

// Color filters.
const (
	Red ColorFilter = iota
	Green
	Blue
	Black

	// NumColorFilters is the number of defined color filters.
	NumColorFilters = iota
)

var colorFilterNames = [NumColorFilters]string{
	Red:   "red",
	Green: "green",
	Blue:  "blue",
	Black: "black",
}

// IsValid checks if the color is one of the defined filters.
func (c ColorFilter) IsValid() bool {
	return c >= 0 && c < NumColorFilters
}

func (c ColorFilter) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("ColorFilter(%d)", int(c))
	}
	return colorFilterNames[c]
}

// ParseColorFilter parses the name of a color filter, case insensitive.
func ParseColorFilter(s string) (ColorFilter, error) {
	for n, name := range colorFilterNames {
		if strings.EqualFold(s, name) {
			return ColorFilter(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownColor, s)
}

// Direction is the rotation sign of a wheel.
type Direction int

// Directions.
const (
	Positive Direction = iota
	Negative
)

func (d Direction) String() string {
	switch d {
	case Positive:
		return "+"
	case Negative:
		return "-"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "+", "-", "positive", "negative", "fwd" and "rev".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "+", "positive", "pos", "fwd":
		return Positive, nil
	case "-", "negative", "neg", "rev":
		return Negative, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}
