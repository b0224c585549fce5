package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRenderTarget is the GPU implementation of RenderTarget: an RGBA16Float texture plus an optional
// Depth32Float texture, both usable as render attachments and as shader bindings.
type wgpuRenderTarget struct {
	mu      *sync.Mutex
	backend *wgpuRendererBackendImpl

	label    string
	width    uint32
	height   uint32
	filter   FilterMode
	hasDepth bool

	colorTexture *wgpu.Texture
	colorView    *wgpu.TextureView
	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
	sampler      *wgpu.Sampler

	resizeCount int
	released    bool
}

var _ RenderTarget = &wgpuRenderTarget{}

func (t *wgpuRenderTarget) Label() string {
	return t.label
}

func (t *wgpuRenderTarget) Width() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.width
}

func (t *wgpuRenderTarget) Height() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.height
}

func (t *wgpuRenderTarget) Size() common.Extent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return common.Extent{Width: t.width, Height: t.height}
}

func (t *wgpuRenderTarget) HasDepth() bool {
	return t.hasDepth
}

func (t *wgpuRenderTarget) Format() wgpu.TextureFormat {
	return ColorFormat
}

func (t *wgpuRenderTarget) Filter() FilterMode {
	return t.filter
}

func (t *wgpuRenderTarget) Resize(width, height uint32) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return false, ErrUnknownTarget
	}
	if t.width == width && t.height == height {
		return false, nil
	}
	t.releaseTextures()
	if err := t.allocate(width, height); err != nil {
		return false, err
	}
	t.resizeCount++
	return true, nil
}

func (t *wgpuRenderTarget) ResizeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resizeCount
}

func (t *wgpuRenderTarget) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.releaseTextures()
	if t.sampler != nil {
		t.sampler.Release()
		t.sampler = nil
	}
	t.released = true
}

// allocate creates the textures and views for the given size. Zero sizes allocate nothing.
// Caller must hold t.mu.
func (t *wgpuRenderTarget) allocate(width, height uint32) error {
	t.width, t.height = width, height
	if width == 0 || height == 0 {
		return nil
	}
	device := t.backend.device

	colorTexture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: t.label + " Color Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s color texture: %w", t.label, err)
	}
	colorView, err := colorTexture.CreateView(nil)
	if err != nil {
		colorTexture.Release()
		return fmt.Errorf("failed to create %s color view: %w", t.label, err)
	}
	t.colorTexture, t.colorView = colorTexture, colorView

	if !t.hasDepth {
		return nil
	}
	depthTexture, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: t.label + " Depth Texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s depth texture: %w", t.label, err)
	}
	depthView, err := depthTexture.CreateView(nil)
	if err != nil {
		depthTexture.Release()
		return fmt.Errorf("failed to create %s depth view: %w", t.label, err)
	}
	t.depthTexture, t.depthView = depthTexture, depthView
	return nil
}

// releaseTextures frees the textures and views. Caller must hold t.mu.
func (t *wgpuRenderTarget) releaseTextures() {
	if t.colorView != nil {
		t.colorView.Release()
		t.colorView = nil
	}
	if t.colorTexture != nil {
		t.colorTexture.Release()
		t.colorTexture = nil
	}
	if t.depthView != nil {
		t.depthView.Release()
		t.depthView = nil
	}
	if t.depthTexture != nil {
		t.depthTexture.Release()
		t.depthTexture = nil
	}
}

// views returns the current views and sampler, or an error if the target holds no storage.
func (t *wgpuRenderTarget) views() (color, depth *wgpu.TextureView, sampler *wgpu.Sampler, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, nil, nil, fmt.Errorf("%w: %s was released", ErrUnknownTarget, t.label)
	}
	if t.colorView == nil {
		return nil, nil, nil, fmt.Errorf("renderer: %s has no storage (%dx%d)", t.label, t.width, t.height)
	}
	return t.colorView, t.depthView, t.sampler, nil
}
