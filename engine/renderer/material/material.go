package material

// material is the implementation of the Material interface.
type material struct {
	name             string
	color            [4]float32
	opacity          float32
	targetOpacity    float32
	hasTargetOpacity bool
}

// Material defines the surface properties of a renderable object: its base color and two opacities.
//
// The live opacity is what the object renders with. The target opacity is an optional pending value that
// other components write whenever they like (e.g. during a fade); it is copied into the live opacity once
// per frame, before the scene renders, so several writes within one frame never show up as flicker.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Color retrieves the RGB color of the material. The alpha channel is ignored in favor of Opacity.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	Color() [4]float32

	// SetColor sets the base color of the material.
	//
	// Parameters:
	//   - color: the base color as RGBA values
	SetColor(color [4]float32)

	// Opacity retrieves the live opacity the object is rendered with.
	//
	// Returns:
	//   - float32: the live opacity
	Opacity() float32

	// SetOpacity sets the live opacity directly, bypassing the per-frame target.
	//
	// Parameters:
	//   - opacity: the new live opacity
	SetOpacity(opacity float32)

	// TargetOpacity retrieves the pending target opacity.
	//
	// Returns:
	//   - float32: the target opacity
	//   - bool: false if the material carries no target opacity
	TargetOpacity() (float32, bool)

	// SetTargetOpacity schedules a new live opacity, applied on the next frame.
	//
	// Parameters:
	//   - opacity: the target opacity
	SetTargetOpacity(opacity float32)

	// ClearTargetOpacity removes the target opacity so the live opacity is left alone.
	ClearTargetOpacity()

	// ApplyTargetOpacity copies the target opacity into the live opacity when the two differ.
	//
	// Returns:
	//   - bool: true if the live opacity changed
	ApplyTargetOpacity() bool
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// A new material is opaque white with no target opacity.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		color:   [4]float32{1, 1, 1, 1},
		opacity: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Color() [4]float32 {
	return m.color
}

func (m *material) SetColor(color [4]float32) {
	m.color = color
}

func (m *material) Opacity() float32 {
	return m.opacity
}

func (m *material) SetOpacity(opacity float32) {
	m.opacity = opacity
}

func (m *material) TargetOpacity() (float32, bool) {
	return m.targetOpacity, m.hasTargetOpacity
}

func (m *material) SetTargetOpacity(opacity float32) {
	m.targetOpacity = opacity
	m.hasTargetOpacity = true
}

func (m *material) ClearTargetOpacity() {
	m.targetOpacity = 0
	m.hasTargetOpacity = false
}

func (m *material) ApplyTargetOpacity() bool {
	if !m.hasTargetOpacity || m.targetOpacity == m.opacity {
		return false
	}
	m.opacity = m.targetOpacity
	return true
}
