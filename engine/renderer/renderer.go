package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceSource provides the platform surface a GPU backend presents to. engine/window.Window satisfies it.
type SurfaceSource interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	workers              int
	headlessSize         common.Extent
	validateShaders      bool
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// Every draw is a fullscreen pass of a compiled program into a render target or the display surface.
// The Renderer manages a cache of compiled pipelines keyed by permutation label and delegates the
// actual work to a backend, so the same scene runs on the GPU or headless on the CPU.
type Renderer interface {
	// Type returns the backend type selected at construction.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	Type() RendererBackendType

	// SurfaceSize returns the current size of the display surface.
	//
	// Returns:
	//   - common.Extent: the surface size in pixels
	SurfaceSize() common.Extent

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// CreateRenderTarget allocates an offscreen render target on the backend.
	//
	// Parameters:
	//   - label: a debug label
	//   - desc: the target description
	//
	// Returns:
	//   - RenderTarget: the new target
	//   - error: an error if allocation fails
	CreateRenderTarget(label string, desc RenderTargetDescriptor) (RenderTarget, error)

	// CompileProgram compiles a program permutation, registers it with the backend and caches the
	// resulting pipeline by its permutation label. A program whose label is already cached returns the
	// cached pipeline without recompiling.
	//
	// Parameters:
	//   - p: the program to compile
	//   - opts: pipeline options applied when the pipeline is first created
	//
	// Returns:
	//   - pipeline.Pipeline: the compiled pipeline
	//   - error: a *shader.CompileError naming the program and its feature set
	CompileProgram(p *shader.Program, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error)

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// ReleasePipeline frees the backend resources of a cached pipeline and drops it from the cache.
	//
	// Parameters:
	//   - key: the pipeline key
	ReleasePipeline(key string)

	// Clear fills a target with a color and resets its depth to the far plane.
	//
	// Parameters:
	//   - target: the target to clear, nil for the display surface
	//   - color: the RGBA clear color
	//
	// Returns:
	//   - error: an error if the target is unknown or no frame is active
	Clear(target RenderTarget, color [4]float32) error

	// DrawFullscreen runs one fullscreen pass of a compiled pipeline with its current uniform values.
	//
	// Parameters:
	//   - p: the pipeline to draw
	//   - target: the destination, nil for the display surface
	//
	// Returns:
	//   - error: an error if the pipeline or target cannot be used
	DrawFullscreen(p pipeline.Pipeline, target RenderTarget) error

	// BeginFrame acquires the display surface image for a new frame.
	// Must be paired with EndFrame after all draws within a single frame.
	//
	// Returns:
	//   - error: ErrNoSurface if the surface is empty, or an acquisition error
	BeginFrame() error

	// EndFrame submits the frame's work. Does not present the surface; call Present after EndFrame.
	EndFrame()

	// Present presents the surface to the display and releases the frame image.
	Present()

	// ReadPixels reads back a target as RGBA float32 values, row-major from the top-left.
	//
	// Parameters:
	//   - target: the target to read, nil for the display surface
	//
	// Returns:
	//   - []float32: 4 values per pixel
	//   - error: ErrUnsupported on backends that cannot read back
	ReadPixels(target RenderTarget) ([]float32, error)

	// Release frees all pipelines and backend resources.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type.
// The wgpu backend presents to the surface provided by src; the software backend ignores src and uses
// the size set with WithHeadlessSize (or src's size when src is not nil).
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - src: the platform surface, may be nil for the software backend
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the backend could not be created
func NewRenderer(backendType RendererBackendType, src SurfaceSource, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]pipeline.Pipeline),
		backendType:     backendType,
		validateShaders: true,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	width, height := int(r.headlessSize.Width), int(r.headlessSize.Height)
	if src != nil {
		width, height = src.Width(), src.Height()
	}

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.workers)
	case BackendTypeWGPU:
		if src == nil {
			return nil, errors.New("renderer: wgpu backend requires a surface source")
		}
		b, err := newWGPURendererBackend(src.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("renderer: unknown backend type %d", backendType)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(width, height)
	return r, nil
}

func (r *renderer) Type() RendererBackendType {
	return r.backendType
}

func (r *renderer) SurfaceSize() common.Extent {
	return r.backend.SurfaceSize()
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) CreateRenderTarget(label string, desc RenderTargetDescriptor) (RenderTarget, error) {
	return r.backend.CreateRenderTarget(label, desc)
}

func (r *renderer) CompileProgram(p *shader.Program, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	if p == nil {
		return nil, errors.New("renderer: nil program")
	}
	key := p.Label()

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, exists := r.pipelineCache[key]; exists {
		return cached, nil
	}

	s, err := shader.Compile(p, shader.CompileOptions{Validate: r.validateShaders})
	if err != nil {
		return nil, err
	}
	pl := pipeline.NewPipeline(s, opts...)
	if err := r.backend.RegisterPipeline(pl); err != nil {
		return nil, &shader.CompileError{Program: p.Key, Features: p.Features, Stage: shader.StageBackend, Err: err}
	}
	r.pipelineCache[key] = pl
	return pl, nil
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, v := range r.pipelineCache {
		out[k] = v
	}
	return out
}

func (r *renderer) ReleasePipeline(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, exists := r.pipelineCache[key]
	if !exists {
		return
	}
	r.backend.ReleasePipeline(p)
	delete(r.pipelineCache, key)
}

func (r *renderer) Clear(target RenderTarget, color [4]float32) error {
	return r.backend.Clear(target, color)
}

func (r *renderer) DrawFullscreen(p pipeline.Pipeline, target RenderTarget) error {
	if p == nil {
		return errors.New("renderer: nil pipeline")
	}
	return r.backend.Draw(p, target)
}

func (r *renderer) BeginFrame() error {
	if r.backend.SurfaceSize().Empty() {
		return ErrNoSurface
	}
	return r.backend.BeginFrame()
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) ReadPixels(target RenderTarget) ([]float32, error) {
	return r.backend.ReadPixels(target)
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelineCache {
		r.backend.ReleasePipeline(p)
		delete(r.pipelineCache, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
