// Package capture defines the collaborator that supplies decoded video
// frames and audio buffers to the sampling loop, plus a synthetic source for
// development and tests. Connecting to a real capture transport is out of
// scope for this module; callers provide their own Source implementation.
package capture

import (
	"errors"
	"image"
)

// ErrUnavailable signals that the source has nothing to deliver right now.
// The sampling loop treats it as a no-op cycle, not a failure.
var ErrUnavailable = errors.New("capture source unavailable")

// Source supplies one decoded frame and one mono audio buffer per call.
type Source interface {
	// Capture returns the latest frame and audio buffer, or ErrUnavailable
	// when neither is ready.
	Capture() (image.Image, []float64, error)

	// Close releases the source.
	Close() error
}
