// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Extent is a 2D pixel size of a surface or render target.
type Extent struct {
	// Width is the horizontal size in pixels.
	Width uint32
	// Height is the vertical size in pixels.
	Height uint32
}

// Empty reports whether either dimension is zero. An empty surface has nothing to render into.
//
// Returns:
//   - bool: true if the extent covers no pixels
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Half returns the extent scaled by one half, rounding each dimension up so that any
// non-empty extent stays non-empty: half(n) = (n + 1) / 2.
//
// Returns:
//   - Extent: the half-resolution extent
func (e Extent) Half() Extent {
	return Extent{Width: (e.Width + 1) / 2, Height: (e.Height + 1) / 2}
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields are replaced with backend defaults at creation time.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}
