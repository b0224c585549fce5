package scene

import (
	"github.com/Carmen-Shannon/oxy-post/engine/game_object"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			if obj.ID() == 0 {
				obj.SetID(s.nextID)
				s.nextID++
			}
			s.registry[obj.ID()] = obj
		}
	}
}

// WithClearColor sets the color the base render starts from. Defaults to transparent black, so
// uncovered pixels carry alpha 0.
//
// Parameters:
//   - color: the RGBA clear color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithClearColor(color [4]float32) SceneBuilderOption {
	return func(s *scene) {
		s.clearColor = color
	}
}
