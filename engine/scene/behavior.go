package scene

// Stage orders the per-frame hooks of behaviors. Lower stages run first; behaviors of the same
// stage run in registration order.
type Stage int

const (
	// StageEffect is for behaviors that produce intermediate images, such as bloom.
	StageEffect Stage = iota

	// StageComposite is for behaviors that consume those images and write the display surface.
	StageComposite
)

// Behavior is a component attached to a scene that hooks into every frame.
// Tick runs before the scene renders its objects, Tock runs after and before the surface is presented.
type Behavior interface {
	// Stage returns the hook ordering group of the behavior.
	//
	// Returns:
	//   - Stage: the stage
	Stage() Stage

	// Attach is called once when the behavior is added to a scene. It allocates resources and
	// subscribes to scene events.
	//
	// Parameters:
	//   - s: the scene the behavior joins
	//
	// Returns:
	//   - error: an error aborts the registration
	Attach(s Scene) error

	// Detach is called once when the behavior is removed. It frees everything Attach allocated.
	//
	// Parameters:
	//   - s: the scene the behavior leaves
	Detach(s Scene)

	// Tick is the pre-render hook.
	//
	// Parameters:
	//   - s: the owning scene
	//   - deltaTime: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - error: a fatal frame error
	Tick(s Scene, deltaTime float32) error

	// Tock is the post-render hook.
	//
	// Parameters:
	//   - s: the owning scene
	//   - deltaTime: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - error: a fatal frame error
	Tock(s Scene, deltaTime float32) error
}
