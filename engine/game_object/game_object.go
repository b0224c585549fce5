package game_object

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-post/engine/renderer/material"
)

// gameObject is the implementation of the GameObject interface.
type gameObject struct {
	id       uint64
	enabled  atomic.Bool
	material material.Material

	// rect is x, y, width, height in normalized surface coordinates with the origin at the top-left
	rect     [4]float32
	distance float32
}

// GameObject is a renderable object of the base scene: a screen-aligned rectangle drawn at a view
// distance with a material. The rectangle is enough to give the post-processing stage real color,
// depth and per-object opacity to work with.
type GameObject interface {
	// ID retrieves the scene-assigned object identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled reports whether the object is drawn.
	//
	// Returns:
	//   - bool: true if the object renders
	Enabled() bool

	// Material retrieves the object's material.
	//
	// Returns:
	//   - material.Material: the material, never nil
	Material() material.Material

	// Rect retrieves the covered area in normalized surface coordinates.
	//
	// Returns:
	//   - x, y: the top-left corner
	//   - w, h: the size
	Rect() (x, y, w, h float32)

	// Distance retrieves the view distance the object is drawn at.
	//
	// Returns:
	//   - float32: the distance from the camera
	Distance() float32

	// SetID sets the object identifier. Called by the scene when the object is added.
	//
	// Parameters:
	//   - id: the new ID
	SetID(id uint64)

	// SetEnabled toggles whether the object is drawn.
	//
	// Parameters:
	//   - enabled: true to draw the object
	SetEnabled(enabled bool)

	// SetMaterial replaces the object's material.
	//
	// Parameters:
	//   - m: the new material
	SetMaterial(m material.Material)

	// SetRect sets the covered area in normalized surface coordinates.
	//
	// Parameters:
	//   - x, y: the top-left corner
	//   - w, h: the size
	SetRect(x, y, w, h float32)

	// SetDistance sets the view distance the object is drawn at.
	//
	// Parameters:
	//   - d: the distance from the camera
	SetDistance(d float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates an enabled GameObject covering the whole surface at distance 1 with a default material.
//
// Parameters:
//   - options: variadic list of GameObjectBuilderOption functions to configure the object
//
// Returns:
//   - GameObject: a new GameObject instance
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		rect:     [4]float32{0, 0, 1, 1},
		distance: 1,
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.material == nil {
		obj.material = material.NewMaterial()
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Material() material.Material {
	return g.material
}

func (g *gameObject) Rect() (x, y, w, h float32) {
	return g.rect[0], g.rect[1], g.rect[2], g.rect[3]
}

func (g *gameObject) Distance() float32 {
	return g.distance
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetMaterial(m material.Material) {
	g.material = m
}

func (g *gameObject) SetRect(x, y, w, h float32) {
	g.rect = [4]float32{x, y, w, h}
}

func (g *gameObject) SetDistance(d float32) {
	g.distance = d
}
