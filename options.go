package display

import "github.com/gogpu/display/hal"

// SurfaceOption configures a Surface during creation.
// Use functional options to customize Surface behavior.
//
// Example:
//
//	// Default composition pipeline on the driver's compositor
//	s, err := display.New(alloc, comp)
//
//	// Custom presenter (dependency injection)
//	s, err := display.New(alloc, comp, display.WithPresenter(p))
type SurfaceOption func(*surfaceOptions)

// surfaceOptions holds optional configuration for Surface creation.
type surfaceOptions struct {
	presenter Presenter
	listener  hal.DisplayListener
	vsync     bool
}

// defaultSurfaceOptions returns the default surface options.
func defaultSurfaceOptions() surfaceOptions {
	return surfaceOptions{
		presenter: nil, // Will be set to a Pipeline over the compositor if nil
	}
}

// WithPresenter sets a custom presenter for the Surface.
// Use this for dependency injection when submitted frames should go
// somewhere other than the default composition pipeline.
//
// Example:
//
//	// Using a recording presenter in tests
//	rec := &recordingPresenter{}
//	s, err := display.New(alloc, comp, display.WithPresenter(rec))
func WithPresenter(p Presenter) SurfaceOption {
	return func(o *surfaceOptions) {
		o.presenter = p
	}
}

// WithListener installs a display event listener during creation.
// Equivalent to calling comp.SetListener before New, but keeps the
// wiring in one place.
//
// Example:
//
//	s, err := display.New(alloc, comp,
//		display.WithListener(l),
//		display.WithVSync())
func WithListener(l hal.DisplayListener) SurfaceOption {
	return func(o *surfaceOptions) {
		o.listener = l
	}
}

// WithVSync enables vsync callbacks as soon as the surface exists.
// A listener installed with WithListener starts receiving VSync
// timestamps immediately. Enabling vsync without a listener is
// allowed but produces nothing observable.
func WithVSync() SurfaceOption {
	return func(o *surfaceOptions) {
		o.vsync = true
	}
}
