package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU backend. It runs each program's Go fragment kernel over a
	// float32 framebuffer and needs no window or GPU.
	BackendTypeSoftware
)

// String returns the configuration name of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeSoftware:
		return "software"
	default:
		return "wgpu"
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

var (
	// ErrNoSurface is returned when a frame is requested while the surface has no pixels.
	ErrNoSurface = errors.New("renderer: surface is empty")

	// ErrUnsupported is returned when a backend cannot perform an operation.
	ErrUnsupported = errors.New("renderer: operation not supported by backend")

	// ErrUnknownTarget is returned when a render target was created by a different backend or already released.
	ErrUnknownTarget = errors.New("renderer: unknown render target")
)

// RendererBackend is the top-level backend interface for the Renderer.
// Every backend draws fullscreen programs into its own render targets or into the display surface.
type RendererBackend interface {
	// SurfaceSize returns the current size of the display surface.
	SurfaceSize() common.Extent

	// ConfigureSurface (re)configures the display surface for the given size.
	ConfigureSurface(width, height int)

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// CreateRenderTarget allocates an offscreen target.
	CreateRenderTarget(label string, desc RenderTargetDescriptor) (RenderTarget, error)

	// RegisterPipeline prepares backend resources for a pipeline.
	RegisterPipeline(p pipeline.Pipeline) error

	// ReleasePipeline frees backend resources owned by a pipeline.
	ReleasePipeline(p pipeline.Pipeline)

	// Clear fills a target (nil means the surface) with a color and resets its depth to 1.
	Clear(target RenderTarget, color [4]float32) error

	// Draw runs a fullscreen pass of the pipeline into a target (nil means the surface).
	Draw(p pipeline.Pipeline, target RenderTarget) error

	// BeginFrame acquires the surface image for the frame.
	BeginFrame() error

	// EndFrame flushes the frame's work.
	EndFrame()

	// Present shows the surface image.
	Present()

	// ReadPixels returns the RGBA float32 contents of a target (nil means the surface), row-major from the top-left.
	ReadPixels(target RenderTarget) ([]float32, error)

	// Release frees every backend resource.
	Release()
}
