package scene

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/camera"
	"github.com/Carmen-Shannon/oxy-post/engine/game_object"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
)

// ErrBehaviorAttached is returned when a behavior is added to a scene it already belongs to.
var ErrBehaviorAttached = errors.New("scene: behavior already attached")

// Scene holds the renderable objects of one view, its camera and renderer, and the behaviors that
// hook into its frame. The base render goes into the scene's render target when one is installed
// (the post-processing stage owns it) and straight to the display surface otherwise.
// Scenes can be hot-swapped via the Active flag. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// ClearColor returns the color the base render starts from.
	ClearColor() [4]float32

	// SetClearColor sets the color the base render starts from.
	//
	// Parameters:
	//   - color: the RGBA clear color
	SetClearColor(color [4]float32)

	// RenderTarget returns the offscreen target the base render goes into, or nil for the display surface.
	//
	// Returns:
	//   - renderer.RenderTarget: the installed target or nil
	RenderTarget() renderer.RenderTarget

	// SetRenderTarget installs the offscreen target of the base render. Nil renders to the display surface.
	//
	// Parameters:
	//   - rt: the target or nil
	SetRenderTarget(rt renderer.RenderTarget)

	// Count returns the number of objects in the scene.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// Add adds an object to the scene, assigning an ID when it has none.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves an object by ID. Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes an object by ID.
	//
	// Parameters:
	//   - id: the object's ID
	Remove(id uint64)

	// Objects returns the scene's objects ordered by ID.
	//
	// Returns:
	//   - []game_object.GameObject: a snapshot of the objects
	Objects() []game_object.GameObject

	// Clear removes all objects. Behaviors stay attached.
	Clear()

	// AddBehavior attaches a behavior and registers its frame hooks.
	//
	// Parameters:
	//   - b: the behavior
	//
	// Returns:
	//   - error: ErrBehaviorAttached, or the error returned by b.Attach
	AddBehavior(b Behavior) error

	// RemoveBehavior detaches a behavior. Unknown behaviors are ignored.
	//
	// Parameters:
	//   - b: the behavior
	RemoveBehavior(b Behavior)

	// Behaviors returns the attached behaviors in hook order: by stage, then by registration.
	//
	// Returns:
	//   - []Behavior: a snapshot of the behaviors
	Behaviors() []Behavior

	// On subscribes a handler to a scene event. Handlers run synchronously on the emitting
	// goroutine in subscription order.
	//
	// Parameters:
	//   - event: the event name
	//   - handler: the function to call
	//
	// Returns:
	//   - func(): removes the subscription, safe to call more than once
	On(event string, handler func()) func()

	// Emit notifies every handler subscribed to event.
	//
	// Parameters:
	//   - event: the event name
	Emit(event string)

	// Tick runs the pre-render hook of every behavior in hook order.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - error: the first hook error
	Tick(deltaTime float32) error

	// Render clears the render target (or the surface) and draws the enabled objects with depth
	// testing. Must be called between BeginFrame and EndFrame on the renderer.
	//
	// Returns:
	//   - error: a draw error
	Render() error

	// Tock runs the post-render hook of every behavior in hook order.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - error: the first hook error
	Tock(deltaTime float32) error

	// Release detaches every behavior. The renderer is not released.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	registry map[uint64]game_object.GameObject
	nextID   uint64

	cam        camera.Camera
	r          renderer.Renderer
	target     renderer.RenderTarget
	clearColor [4]float32

	behaviors []Behavior

	handlers      map[string][]eventHandler
	nextHandlerID uint64

	// objectPipeline is compiled on the first Render.
	objectPipeline pipeline.Pipeline
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera and renderer. Both are required and NewScene
// panics if either is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}

	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		active:   false,
		cam:      cam,
		r:        r,
		registry: make(map[uint64]game_object.GameObject),
		nextID:   1,
		handlers: make(map[string][]eventHandler),
	}

	for _, option := range options {
		option(s)
	}

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) ClearColor() [4]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clearColor
}

func (s *scene) SetClearColor(color [4]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearColor = color
}

func (s *scene) RenderTarget() renderer.RenderTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

func (s *scene) SetRenderTarget(rt renderer.RenderTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = rt
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if obj.ID() == 0 {
		obj.SetID(atomic.AddUint64(&s.nextID, 1) - 1)
	}
	s.registry[obj.ID()] = obj
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registry, id)
}

func (s *scene) Objects() []game_object.GameObject {
	s.mu.RLock()
	out := make([]game_object.GameObject, 0, len(s.registry))
	for _, obj := range s.registry {
		out = append(out, obj)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
}

func (s *scene) AddBehavior(b Behavior) error {
	s.mu.RLock()
	attached := slices.Contains(s.behaviors, b)
	s.mu.RUnlock()
	if attached {
		return ErrBehaviorAttached
	}

	// Attach subscribes and emits on the scene, so it runs without the lock held.
	if err := b.Attach(s); err != nil {
		return err
	}

	s.mu.Lock()
	s.behaviors = append(s.behaviors, b)
	// stable: same-stage behaviors keep registration order
	sort.SliceStable(s.behaviors, func(i, j int) bool { return s.behaviors[i].Stage() < s.behaviors[j].Stage() })
	s.mu.Unlock()
	return nil
}

func (s *scene) RemoveBehavior(b Behavior) {
	s.mu.Lock()
	i := slices.Index(s.behaviors, b)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.behaviors = slices.Delete(s.behaviors, i, i+1)
	s.mu.Unlock()

	b.Detach(s)
}

func (s *scene) Behaviors() []Behavior {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.behaviors)
}

func (s *scene) Tick(deltaTime float32) error {
	for _, b := range s.Behaviors() {
		if err := b.Tick(s, deltaTime); err != nil {
			return fmt.Errorf("scene %s tick: %w", s.Name(), err)
		}
	}
	return nil
}

func (s *scene) Render() error {
	s.mu.RLock()
	r, cam, target, clearColor := s.r, s.cam, s.target, s.clearColor
	s.mu.RUnlock()

	if target != nil && target.Size().Empty() {
		return nil
	}
	if err := r.Clear(target, clearColor); err != nil {
		return err
	}

	p, err := s.objectPipelineFor(r)
	if err != nil {
		return err
	}
	for _, obj := range s.Objects() {
		if !obj.Enabled() {
			continue
		}
		m := obj.Material()
		c := m.Color()
		x, y, w, h := obj.Rect()
		if err := errors.Join(
			p.SetVec4("rect", [4]float32{x, y, w, h}),
			p.SetVec4("color", [4]float32{c[0], c[1], c[2], m.Opacity()}),
			p.SetFloat("depth", cam.DepthAt(obj.Distance())),
		); err != nil {
			return err
		}
		if err := r.DrawFullscreen(p, target); err != nil {
			return fmt.Errorf("scene %s: draw object %d: %w", s.Name(), obj.ID(), err)
		}
	}
	return nil
}

// objectPipelineFor compiles the object program on first use.
func (s *scene) objectPipelineFor(r renderer.Renderer) (pipeline.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objectPipeline != nil {
		return s.objectPipeline, nil
	}
	p, err := r.CompileProgram(objectProgram(), pipeline.WithDepth(true, true), pipeline.WithAlphaBlend())
	if err != nil {
		return nil, err
	}
	common.Logger().Debug("object pipeline compiled", "scene", s.name, "pipeline", p.PipelineKey())
	s.objectPipeline = p
	return p, nil
}

func (s *scene) Tock(deltaTime float32) error {
	for _, b := range s.Behaviors() {
		if err := b.Tock(s, deltaTime); err != nil {
			return fmt.Errorf("scene %s tock: %w", s.Name(), err)
		}
	}
	return nil
}

func (s *scene) Release() {
	for _, b := range slices.Backward(s.Behaviors()) {
		s.RemoveBehavior(b)
	}
}
