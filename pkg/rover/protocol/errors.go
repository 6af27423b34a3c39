package protocol

import "errors"

var (
	// ErrUnknownMode indicates a CarMode outside of the defined set.
	ErrUnknownMode = errors.New("unknown car mode")
	// ErrUnknownColor indicates a ColorFilter outside of the defined set.
	ErrUnknownColor = errors.New("unknown color filter")
	// ErrUnknownDirection indicates a Direction outside of the defined set.
	ErrUnknownDirection = errors.New("unknown direction")
	// ErrUnknownVariant indicates an unsupported protocol variant name.
	ErrUnknownVariant = errors.New("unknown protocol variant")
)
