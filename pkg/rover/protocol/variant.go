package protocol

import (
	"fmt"
	"strings"
)

// Variant describes the differences between firmware revisions.
type Variant struct {
	Name     string
	BaudRate int

	ObstacleAvoidanceOn  string
	ObstacleAvoidanceOff string
}

// Known protocol variants.
var (
	V1 = Variant{
		Name:                 "v1",
		BaudRate:             115200,
		ObstacleAvoidanceOn:  "CTCKON=1",
		ObstacleAvoidanceOff: "CTCKON=0",
	}
	V2 = Variant{
		Name:                 "v2",
		BaudRate:             9600,
		ObstacleAvoidanceOn:  "CTESTON",
		ObstacleAvoidanceOff: "CTESTOFF",
	}

	// DefaultVariant is used when no variant is configured.
	DefaultVariant = V1

	variants = []Variant{V1, V2}
)

// VariantByName finds a known variant.
func VariantByName(name string) (Variant, error) {
	for _, v := range variants {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// EncodeObstacleAvoidance encodes the obstacle avoidance toggle.
func (v Variant) EncodeObstacleAvoidance(on bool) string {
	if on {
		return v.ObstacleAvoidanceOn
	}
	return v.ObstacleAvoidanceOff
}
