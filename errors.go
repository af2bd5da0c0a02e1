package display

import "errors"

// Errors returned by the swap chain and surface.
var (
	// ErrNoBufferAvailable is returned by Acquire when every eligible
	// slot is empty: both buffers are out with the producer, or the
	// only filled slot is the one presented last.
	ErrNoBufferAvailable = errors.New("display: no buffer available")

	// ErrNoSlotAvailable is returned by Submit and Cancel when no
	// slot is empty to take the buffer back.
	ErrNoSlotAvailable = errors.New("display: no slot available")

	// ErrSurfaceClosed is returned when operating on a surface whose
	// last reference has been released.
	ErrSurfaceClosed = errors.New("display: surface closed")

	// ErrNotConfigured is returned when presenting through a surface
	// before Configure has allocated its buffers.
	ErrNotConfigured = errors.New("display: surface not configured")

	// ErrBufferMismatch is returned when a submitted buffer does not
	// match the surface's current configuration. Happens when the
	// surface was reconfigured while the buffer was out with the
	// producer; the producer keeps the buffer and its fence, and
	// should release both.
	ErrBufferMismatch = errors.New("display: buffer does not match surface configuration")

	// ErrInvalidDimensions is returned by Configure for non-positive
	// width or height.
	ErrInvalidDimensions = errors.New("display: invalid dimensions")
)
