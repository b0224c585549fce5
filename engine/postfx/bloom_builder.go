package postfx

import "slices"

// BloomBuilderOption is a functional option used to configure a BloomEffect during construction.
type BloomBuilderOption func(*bloomEffect)

// WithBlurSchedule sets the blur radii.
//
// Parameters:
//   - schedule: the radii, may be empty
//
// Returns:
//   - BloomBuilderOption: a function that sets the schedule
func WithBlurSchedule(schedule BlurSchedule) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.schedule = slices.Clone(schedule)
	}
}

// WithThreshold sets the bright pass curve pow(color, exponent) + offset.
//
// Parameters:
//   - exponent: the power the color is raised to
//   - offset: the value added after the power curve
//
// Returns:
//   - BloomBuilderOption: a function that sets the threshold
func WithThreshold(exponent, offset float32) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.exponent, b.offset = exponent, offset
	}
}

// WithIntensity sets the blend weight of the bloom buffer.
//
// Parameters:
//   - intensity: the weight
//
// Returns:
//   - BloomBuilderOption: a function that sets the intensity
func WithIntensity(intensity float32) BloomBuilderOption {
	return func(b *bloomEffect) {
		b.intensity = intensity
	}
}
