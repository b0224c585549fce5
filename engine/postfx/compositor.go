package postfx

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/game_object"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-post/engine/scene"
)

// compositor is the implementation of the Compositor interface.
type compositor struct {
	mu *sync.Mutex

	r      renderer.Renderer
	s      scene.Scene
	target renderer.RenderTarget
	depth  bool

	// pipeline is nil until the first configure
	pipeline pipeline.Pipeline
	features shader.FeatureSet
	effects  []Effect
	cache    *permutationCache

	needsConfig    atomic.Bool
	configureCount int
	enabled        bool
	unsubscribe    func()

	onConfigure func(program string, elapsed time.Duration)
}

// Compositor owns the offscreen image the scene renders into and writes the final frame: a glyph
// stylized version of the scene blended with the smooth image, plus the output of every effect.
//
// The composite program is rebuilt lazily. Any EventPipelineModified notification only marks the
// compositor; the next Tock reconfigures once, however many notifications arrived, before blending.
// Each distinct feature set is compiled once and kept for reuse.
type Compositor interface {
	scene.Behavior

	// Enabled reports whether the post-processing stage is active.
	//
	// Returns:
	//   - bool: true if the scene renders into the compositor's target
	Enabled() bool

	// SetEnabled toggles the post-processing stage. When disabled the scene renders straight to the
	// display surface and Tock does nothing.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// Target returns the full resolution color and depth image the scene renders into.
	//
	// Returns:
	//   - renderer.RenderTarget: the target, nil before Attach
	Target() renderer.RenderTarget

	// Pipeline returns the current composite pipeline.
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline, nil before the first configure
	Pipeline() pipeline.Pipeline

	// Features returns the feature set of the current composite pipeline.
	//
	// Returns:
	//   - shader.FeatureSet: the enabled defines
	Features() shader.FeatureSet

	// Effects returns the effects blended by the current composite pipeline, in hook order.
	//
	// Returns:
	//   - []Effect: the honored effects
	Effects() []Effect

	// NeedsConfig reports whether a reconfiguration is pending.
	//
	// Returns:
	//   - bool: true if the next blend rebuilds the program
	NeedsConfig() bool

	// ConfigureCount returns how many times the program was reconfigured.
	//
	// Returns:
	//   - int: the configure count
	ConfigureCount() int

	// CacheStats returns the permutation cache hit and miss counts.
	//
	// Returns:
	//   - hits: configures that reused a compiled pipeline
	//   - misses: configures that compiled a new one
	CacheStats() (hits, misses int)

	// ResizeIfNeeded sizes the target to exactly the surface size.
	//
	// Parameters:
	//   - surface: the display surface size
	//
	// Returns:
	//   - bool: true if the target was reallocated
	//   - error: an allocation error
	ResizeIfNeeded(surface common.Extent) (bool, error)

	// ApplyOpacity copies every pending target opacity into the live opacity.
	//
	// Parameters:
	//   - objects: the scene's objects
	//
	// Returns:
	//   - int: how many materials changed
	ApplyOpacity(objects []game_object.GameObject) int

	// Blend configures if needed and draws the final image to the display surface.
	//
	// Parameters:
	//   - s: the scene being composited
	//
	// Returns:
	//   - error: a *shader.CompileError when the program cannot be built, or a draw error
	Blend(s scene.Scene) error
}

var _ Compositor = &compositor{}

// NewCompositor creates an enabled compositor with a depth attachment. GPU resources are created
// when it is added to a scene.
//
// Parameters:
//   - options: functional options to override the defaults
//
// Returns:
//   - Compositor: the new compositor
func NewCompositor(options ...CompositorBuilderOption) Compositor {
	c := &compositor{
		mu:      &sync.Mutex{},
		depth:   true,
		enabled: true,
		cache:   newPermutationCache(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *compositor) Stage() scene.Stage {
	return scene.StageComposite
}

func (c *compositor) Attach(s scene.Scene) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s != nil {
		return ErrAlreadyAttached
	}

	r := s.Renderer()
	size := r.SurfaceSize()
	target, err := r.CreateRenderTarget("Compositor Target", renderer.RenderTargetDescriptor{
		Width:  size.Width,
		Height: size.Height,
		Filter: renderer.FilterNearest,
		Depth:  c.depth,
	})
	if err != nil {
		return fmt.Errorf("compositor: %w", err)
	}
	c.r, c.s, c.target = r, s, target

	c.unsubscribe = s.On(EventPipelineModified, func() {
		c.needsConfig.Store(true)
	})
	c.needsConfig.Store(true)

	if c.enabled {
		s.SetRenderTarget(target)
	}
	return nil
}

func (c *compositor) Detach(s scene.Scene) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s == nil {
		return
	}

	c.unsubscribe()
	if s.RenderTarget() == c.target {
		s.SetRenderTarget(nil)
	}
	for _, p := range c.cache.Drain() {
		c.r.ReleasePipeline(p.PipelineKey())
	}
	c.target.Release()
	c.r, c.s, c.target, c.pipeline, c.effects, c.features = nil, nil, nil, nil, nil, 0
}

func (c *compositor) Tick(s scene.Scene, deltaTime float32) error {
	c.ApplyOpacity(s.Objects())
	if !c.Enabled() {
		return nil
	}
	_, err := c.ResizeIfNeeded(s.Renderer().SurfaceSize())
	return err
}

func (c *compositor) Tock(s scene.Scene, deltaTime float32) error {
	if !c.Enabled() {
		return nil
	}
	if s.Renderer().SurfaceSize().Empty() || s.RenderTarget() != c.Target() {
		return nil
	}
	return c.Blend(s)
}

func (c *compositor) ApplyOpacity(objects []game_object.GameObject) int {
	applied := 0
	for _, obj := range objects {
		if obj.Material().ApplyTargetOpacity() {
			applied++
		}
	}
	return applied
}

func (c *compositor) ResizeIfNeeded(surface common.Extent) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil || c.target.Size() == surface {
		return false, nil
	}
	changed, err := c.target.Resize(surface.Width, surface.Height)
	if err != nil {
		return false, fmt.Errorf("compositor: resize: %w", err)
	}
	if changed {
		common.Logger().Debug("compositor target resized", "width", surface.Width, "height", surface.Height)
	}
	return changed, nil
}

func (c *compositor) Blend(s scene.Scene) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.target == nil {
		return nil
	}

	if c.needsConfig.Load() {
		if err := c.configure(s); err != nil {
			common.Logger().Error("composite program failed to compile", "error", err)
			return err
		}
	}

	p := c.pipeline
	size := c.target.Size()
	cam := s.Camera()
	errs := []error{
		p.SetTexture("srcTexture", c.target),
		p.SetVec2("resolution", float32(size.Width), float32(size.Height)),
		p.SetFloat("cameraNear", cam.Near()),
		p.SetFloat("cameraFar", cam.Far()),
	}
	for _, e := range c.effects {
		errs = append(errs, e.Bind(p))
	}
	if c.features.Has(shader.FeatureBlendDepth) {
		errs = append(errs, p.SetTexture("depthTexture", c.target))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	return c.r.DrawFullscreen(p, nil)
}

// configure collects the uniforms and defines of the composite program from the scene's current
// effects and swaps in the matching pipeline, compiling it on first use. Caller must hold c.mu.
func (c *compositor) configure(s scene.Scene) error {
	start := time.Now()

	uniforms := []shader.Uniform{
		{Name: "srcTexture", Kind: shader.UniformTexture},
		{Name: "resolution", Kind: shader.UniformVec2},
	}
	var features shader.FeatureSet
	var effects []Effect
	for _, b := range s.Behaviors() {
		e, ok := b.(Effect)
		if !ok {
			continue
		}
		if features.Has(e.Feature()) {
			common.Logger().Warn("effect skipped, feature already claimed",
				"effect", e.Name(), "feature", e.Feature().String())
			continue
		}
		if !slices.Equal(e.Uniforms(), featureUniforms[e.Feature()]) {
			common.Logger().Warn("effect skipped, uniforms do not match its feature",
				"effect", e.Name(), "feature", e.Feature().String())
			continue
		}
		features = features.With(e.Feature())
		uniforms = append(uniforms, e.Uniforms()...)
		effects = append(effects, e)
	}
	uniforms = append(uniforms,
		shader.Uniform{Name: "cameraNear", Kind: shader.UniformFloat},
		shader.Uniform{Name: "cameraFar", Kind: shader.UniformFloat},
	)
	if c.target.HasDepth() {
		uniforms = append(uniforms, shader.Uniform{Name: "depthTexture", Kind: shader.UniformDepthTexture})
		features = features.With(shader.FeatureBlendDepth)
	}

	p, cached := c.cache.Get(features)
	if !cached {
		var err error
		p, err = c.r.CompileProgram(compositeProgram(features, uniforms))
		if err != nil {
			return err
		}
		c.cache.Put(features, p)
	}

	c.pipeline = p
	c.features = features
	c.effects = effects
	c.needsConfig.Store(false)
	c.configureCount++

	elapsed := time.Since(start)
	common.Logger().Info("composite program configured",
		"pipeline", p.PipelineKey(), "cached", cached, "effects", len(effects), "elapsed", elapsed)
	if c.onConfigure != nil {
		c.onConfigure(p.PipelineKey(), elapsed)
	}
	return nil
}

func (c *compositor) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *compositor) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
	if c.s == nil {
		return
	}
	if enabled {
		c.s.SetRenderTarget(c.target)
	} else if c.s.RenderTarget() == c.target {
		c.s.SetRenderTarget(nil)
	}
}

func (c *compositor) Target() renderer.RenderTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *compositor) Pipeline() pipeline.Pipeline {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline
}

func (c *compositor) Features() shader.FeatureSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.features
}

func (c *compositor) Effects() []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.effects)
}

func (c *compositor) NeedsConfig() bool {
	return c.needsConfig.Load()
}

func (c *compositor) ConfigureCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configureCount
}

func (c *compositor) CacheStats() (int, int) {
	return c.cache.Stats()
}
