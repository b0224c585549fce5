package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithColor is an option builder that sets the base RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color option to a material
func WithColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.color = color
	}
}

// WithOpacity is an option builder that sets the initial live opacity.
//
// Parameters:
//   - opacity: the live opacity
//
// Returns:
//   - MaterialBuilderOption: a function that applies the opacity option to a material
func WithOpacity(opacity float32) MaterialBuilderOption {
	return func(m *material) {
		m.opacity = opacity
	}
}

// WithTargetOpacity is an option builder that sets a pending target opacity.
//
// Parameters:
//   - opacity: the target opacity applied on the first frame
//
// Returns:
//   - MaterialBuilderOption: a function that applies the target opacity option to a material
func WithTargetOpacity(opacity float32) MaterialBuilderOption {
	return func(m *material) {
		m.targetOpacity = opacity
		m.hasTargetOpacity = true
	}
}
