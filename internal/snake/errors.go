package snake

import "errors"

var (
	// ErrInvalidInput reports malformed input such as a contour with fewer
	// than three points, an empty image or a wrongly shaped energy term.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfBounds reports a gradient sample below row or column zero while
	// the ClampUpper policy is active.
	ErrOutOfBounds = errors.New("candidate outside image")

	// ErrEnergyNotReady reports a relocation attempt without a combined
	// energy field from the current pass.
	ErrEnergyNotReady = errors.New("energy field not combined")
)
