package game_object

import (
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/material"
)

// GameObjectBuilderOption is a functional option used to configure a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithEnabled sets whether the object is drawn.
//
// Parameters:
//   - enabled: true to draw the object
//
// Returns:
//   - GameObjectBuilderOption: a function that sets the enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.enabled.Store(enabled)
	}
}

// WithMaterial sets the object's material.
//
// Parameters:
//   - m: the material to use
//
// Returns:
//   - GameObjectBuilderOption: a function that sets the material
func WithMaterial(m material.Material) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.material = m
	}
}

// WithRect sets the covered area in normalized surface coordinates, origin top-left.
//
// Parameters:
//   - x, y: the top-left corner
//   - w, h: the size
//
// Returns:
//   - GameObjectBuilderOption: a function that sets the rectangle
func WithRect(x, y, w, h float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.rect = [4]float32{x, y, w, h}
	}
}

// WithDistance sets the view distance the object is drawn at.
//
// Parameters:
//   - d: the distance from the camera
//
// Returns:
//   - GameObjectBuilderOption: a function that sets the distance
func WithDistance(d float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.distance = d
	}
}
