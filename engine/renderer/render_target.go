package renderer

import (
	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// ColorFormat is the pixel format of every offscreen color target. Half floats keep bright-pass
// values above 1 intact between passes.
const ColorFormat = wgpu.TextureFormatRGBA16Float

// DepthFormat is the format of the depth attachment of offscreen targets.
const DepthFormat = wgpu.TextureFormatDepth32Float

// FilterMode selects how a render target is sampled when bound as a texture.
type FilterMode int

const (
	// FilterLinear samples with bilinear filtering.
	FilterLinear FilterMode = iota

	// FilterNearest samples the nearest texel.
	FilterNearest
)

// samplerStagingData returns the clamp-to-edge sampler configuration for the filter.
func (f FilterMode) samplerStagingData() common.SamplerStagingData {
	filter := wgpu.FilterModeLinear
	if f == FilterNearest {
		filter = wgpu.FilterModeNearest
	}
	return common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		LodMaxClamp:  1,
	}
}

// RenderTargetDescriptor describes an offscreen render target.
type RenderTargetDescriptor struct {
	// Width and Height are the initial size in pixels. Zero is allowed and allocates nothing until resized.
	Width, Height uint32
	// Filter is the sampling mode used when the target is bound as a texture.
	Filter FilterMode
	// Depth attaches a depth image that can be tested against and bound as a depth texture.
	Depth bool
}

// RenderTarget is an offscreen color image, optionally paired with a depth image.
// It is owned by the component that created it; resizing keeps the same RenderTarget value.
type RenderTarget interface {
	pipeline.Texture

	// Size returns the current size as an extent.
	//
	// Returns:
	//   - common.Extent: width and height in pixels
	Size() common.Extent

	// Format returns the color format.
	//
	// Returns:
	//   - wgpu.TextureFormat: the color format
	Format() wgpu.TextureFormat

	// Filter returns the sampling mode.
	//
	// Returns:
	//   - FilterMode: the sampling mode
	Filter() FilterMode

	// Resize changes the target's size in place. A call with the current size does nothing.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - bool: true if the storage was actually reallocated
	//   - error: an error if the backend failed to allocate the new storage
	Resize(width, height uint32) (bool, error)

	// ResizeCount returns how many times the storage was reallocated since creation.
	//
	// Returns:
	//   - int: the reallocation count
	ResizeCount() int

	// Release frees the target's storage. The target must not be used afterwards.
	Release()
}
