package postfx

import "time"

// CompositorBuilderOption is a functional option used to configure a Compositor during construction.
type CompositorBuilderOption func(*compositor)

// WithEnabled sets whether the post-processing stage starts enabled. Defaults to true.
//
// Parameters:
//   - enabled: true to enable
//
// Returns:
//   - CompositorBuilderOption: a function that sets the enabled state
func WithEnabled(enabled bool) CompositorBuilderOption {
	return func(c *compositor) {
		c.enabled = enabled
	}
}

// WithDepth sets whether the compositor's target carries a depth image. With depth the glyph/smooth
// split follows scene depth; without it the split is fixed at DefaultSplit. Defaults to true.
//
// Parameters:
//   - depth: true to attach a depth image
//
// Returns:
//   - CompositorBuilderOption: a function that sets the depth attachment
func WithDepth(depth bool) CompositorBuilderOption {
	return func(c *compositor) {
		c.depth = depth
	}
}

// WithConfigureObserver registers a function called after every reconfiguration with the pipeline
// key and the time the configure took.
//
// Parameters:
//   - fn: the observer
//
// Returns:
//   - CompositorBuilderOption: a function that sets the observer
func WithConfigureObserver(fn func(program string, elapsed time.Duration)) CompositorBuilderOption {
	return func(c *compositor) {
		c.onConfigure = fn
	}
}
