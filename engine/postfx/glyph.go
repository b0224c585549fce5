package postfx

import (
	"github.com/chewxy/math32"
)

// DefaultSplit is the glyph/smooth blend weight used when no depth image is available.
const DefaultSplit float32 = 1.0 / 3.0

// MaxDepthSplit is the blend weight at the far plane when the split is depth driven.
const MaxDepthSplit float32 = 2.0 / 3.0

// GlyphBandCount is the number of luminance bands, including the below-threshold default.
const GlyphBandCount = 8

// glyphThresholds holds the exclusive lower bound of bands 1 through 7.
var glyphThresholds = [GlyphBandCount - 1]float32{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}

// glyphPatterns are 5x5 dot-matrix characters packed row-major into the low 25 bits, darkest first:
// '.', ':', '*', 'o', '&', '8', '@' and '#'. Everything above the last threshold stays '#'.
var glyphPatterns = [GlyphBandCount]uint32{
	65536, 65600, 332772, 15255086, 23385164, 15252014, 13199452, 11512810,
}

// GlyphBand maps a grayscale luminance to its band. Thresholds are strict, so a value exactly on a
// threshold stays in the lower band.
//
// Parameters:
//   - gray: the mean of the red, green and blue channels
//
// Returns:
//   - int: the band in [0, GlyphBandCount)
func GlyphBand(gray float32) int {
	band := 0
	for i, t := range glyphThresholds {
		if gray > t {
			band = i + 1
		}
	}
	return band
}

// GlyphPattern returns the packed bitmap of the band gray falls in.
//
// Parameters:
//   - gray: the mean of the red, green and blue channels
//
// Returns:
//   - uint32: the 25 bit glyph
func GlyphPattern(gray float32) uint32 {
	return glyphPatterns[GlyphBand(gray)]
}

// GlyphInk reports whether a pixel lies on the ink of a glyph. Glyphs tile the image in 8x8 pixel
// blocks; the 5x5 cells sit in the middle of each block.
//
// Parameters:
//   - pattern: the packed glyph
//   - fragCoord: the pixel center, origin top-left
//
// Returns:
//   - float32: 1 on ink, 0 otherwise
func GlyphInk(pattern uint32, fragCoord [2]float32) float32 {
	cx := math32.Floor((math32.Mod(fragCoord[0]/4, 2)-1)*4 + 2.5)
	cy := math32.Floor((math32.Mod(fragCoord[1]/4, 2)-1)*4 + 2.5)
	if cx < 0 || cx > 4 || cy < 0 || cy > 4 {
		return 0
	}
	bit := uint32(cx + 5*cy)
	return float32((pattern >> bit) & 1)
}

// LinearizeDepth maps a [0, 1] perspective depth sample to the fraction of the distance between
// the near and far planes.
//
// Parameters:
//   - d: the depth sample
//   - near: the camera near plane
//   - far: the camera far plane
//
// Returns:
//   - float32: 0 at the near plane, 1 at the far plane; samples outside [0, 1] saturate
func LinearizeDepth(d, near, far float32) float32 {
	d = clamp01(d)
	z := near * far / (far - d*(far-near))
	return clamp01((z - near) / (far - near))
}

// DepthSplit is the depth driven glyph/smooth blend weight: 0 at the near plane growing linearly
// in linearized depth to MaxDepthSplit at the far plane.
//
// Parameters:
//   - d: the depth sample
//   - near: the camera near plane
//   - far: the camera far plane
//
// Returns:
//   - float32: the blend weight
func DepthSplit(d, near, far float32) float32 {
	return LinearizeDepth(d, near, far) * MaxDepthSplit
}

func clamp01(v float32) float32 {
	return math32.Max(0, math32.Min(v, 1))
}
