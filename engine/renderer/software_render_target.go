package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// softwareRenderTarget is the CPU implementation of RenderTarget: float32 RGBA color and float32 depth,
// row-major from the top-left.
type softwareRenderTarget struct {
	mu *sync.RWMutex

	label    string
	width    uint32
	height   uint32
	filter   FilterMode
	hasDepth bool

	color []float32
	depth []float32

	resizeCount int
	released    bool
}

// SoftwareRenderTarget exposes pixel access on targets created by the software backend.
// Tests and headless tools use it to seed inputs and inspect results.
type SoftwareRenderTarget interface {
	RenderTarget

	// Pixel returns the RGBA value at a pixel, clamped to the edge.
	Pixel(x, y int) [4]float32

	// SetPixel writes the RGBA value at a pixel. Out of range writes are ignored.
	SetPixel(x, y int, c [4]float32)

	// Depth returns the depth value at a pixel, clamped to the edge. Targets without depth return 1.
	Depth(x, y int) float32

	// SetDepth writes the depth value at a pixel. Ignored on targets without depth.
	SetDepth(x, y int, d float32)

	// Fill sets every pixel to c.
	Fill(c [4]float32)
}

var _ SoftwareRenderTarget = &softwareRenderTarget{}

func newSoftwareRenderTarget(label string, desc RenderTargetDescriptor) *softwareRenderTarget {
	t := &softwareRenderTarget{
		mu:       &sync.RWMutex{},
		label:    label,
		filter:   desc.Filter,
		hasDepth: desc.Depth,
	}
	t.allocate(desc.Width, desc.Height)
	return t
}

// allocate replaces the storage. Caller must hold t.mu for writing, or own t exclusively.
func (t *softwareRenderTarget) allocate(width, height uint32) {
	t.width, t.height = width, height
	n := int(width) * int(height)
	t.color = make([]float32, n*4)
	if t.hasDepth {
		t.depth = make([]float32, n)
		for i := range t.depth {
			t.depth[i] = 1
		}
	}
}

func (t *softwareRenderTarget) Label() string {
	return t.label
}

func (t *softwareRenderTarget) Width() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.width
}

func (t *softwareRenderTarget) Height() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height
}

func (t *softwareRenderTarget) Size() common.Extent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return common.Extent{Width: t.width, Height: t.height}
}

func (t *softwareRenderTarget) HasDepth() bool {
	return t.hasDepth
}

func (t *softwareRenderTarget) Format() wgpu.TextureFormat {
	return ColorFormat
}

func (t *softwareRenderTarget) Filter() FilterMode {
	return t.filter
}

func (t *softwareRenderTarget) Resize(width, height uint32) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return false, ErrUnknownTarget
	}
	if t.width == width && t.height == height {
		return false, nil
	}
	t.allocate(width, height)
	t.resizeCount++
	return true, nil
}

func (t *softwareRenderTarget) ResizeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.resizeCount
}

func (t *softwareRenderTarget) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released = true
	t.color = nil
	t.depth = nil
}

func (t *softwareRenderTarget) clampCoord(x, y int) (int, int) {
	x = max(0, min(x, int(t.width)-1))
	y = max(0, min(y, int(t.height)-1))
	return x, y
}

// texel reads a pixel without locking. Caller must hold t.mu.
func (t *softwareRenderTarget) texel(x, y int) [4]float32 {
	if t.width == 0 || t.height == 0 {
		return [4]float32{}
	}
	x, y = t.clampCoord(x, y)
	i := (y*int(t.width) + x) * 4
	return [4]float32{t.color[i], t.color[i+1], t.color[i+2], t.color[i+3]}
}

func (t *softwareRenderTarget) Pixel(x, y int) [4]float32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.texel(x, y)
}

func (t *softwareRenderTarget) SetPixel(x, y int, c [4]float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if x < 0 || y < 0 || x >= int(t.width) || y >= int(t.height) {
		return
	}
	i := (y*int(t.width) + x) * 4
	copy(t.color[i:i+4], c[:])
}

// depthTexel reads a depth value without locking. Caller must hold t.mu.
func (t *softwareRenderTarget) depthTexel(x, y int) float32 {
	if !t.hasDepth || t.width == 0 || t.height == 0 {
		return 1
	}
	x, y = t.clampCoord(x, y)
	return t.depth[y*int(t.width)+x]
}

func (t *softwareRenderTarget) Depth(x, y int) float32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.depthTexel(x, y)
}

func (t *softwareRenderTarget) SetDepth(x, y int, d float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasDepth || x < 0 || y < 0 || x >= int(t.width) || y >= int(t.height) {
		return
	}
	t.depth[y*int(t.width)+x] = d
}

func (t *softwareRenderTarget) Fill(c [4]float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := 0; i < len(t.color); i += 4 {
		copy(t.color[i:i+4], c[:])
	}
}

// clear fills color and resets depth to the far plane. Caller must hold t.mu.
func (t *softwareRenderTarget) clear(c [4]float32) {
	for i := 0; i < len(t.color); i += 4 {
		copy(t.color[i:i+4], c[:])
	}
	for i := range t.depth {
		t.depth[i] = 1
	}
}

// sample reads the target at normalized uv with its own filter and clamp-to-edge addressing.
// Caller must hold t.mu.
func (t *softwareRenderTarget) sample(u, v float32) [4]float32 {
	if t.width == 0 || t.height == 0 {
		return [4]float32{}
	}
	w, h := float32(t.width), float32(t.height)
	if t.filter == FilterNearest {
		return t.texel(int(math32.Floor(u*w)), int(math32.Floor(v*h)))
	}

	// bilinear between texel centers
	x := u*w - 0.5
	y := v*h - 0.5
	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)

	var out [4]float32
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*fx
		bottom := c01[i] + (c11[i]-c01[i])*fx
		out[i] = top + (bottom-top)*fy
	}
	return out
}
