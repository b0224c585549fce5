package postfx

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-post/engine/camera"
	"github.com/stretchr/testify/assert"
)

func TestGlyphBandThresholdsAreStrict(t *testing.T) {
	assert.Equal(t, 0, GlyphBand(-1))
	assert.Equal(t, 0, GlyphBand(0))
	assert.Equal(t, 0, GlyphBand(0.2))
	assert.Equal(t, 1, GlyphBand(0.21))
	assert.Equal(t, 3, GlyphBand(0.5))
	assert.Equal(t, 6, GlyphBand(0.8))
	assert.Equal(t, 7, GlyphBand(0.81))
	assert.Equal(t, GlyphBandCount-1, GlyphBand(0.95))
	assert.Equal(t, GlyphBandCount-1, GlyphBand(4))
}

func TestGlyphBrightestBandIsHash(t *testing.T) {
	const hash uint32 = 11512810
	for _, gray := range []float32{0.81, 0.9, 0.95, 1, 2} {
		assert.Equal(t, hash, GlyphPattern(gray), "gray %v", gray)
	}
	assert.Equal(t, uint32(13199452), GlyphPattern(0.8))
}

func TestGlyphBandMonotonic(t *testing.T) {
	prev := GlyphBand(0)
	for i := 1; i <= 1000; i++ {
		band := GlyphBand(float32(i) / 1000)
		assert.GreaterOrEqual(t, band, prev, "gray %v", float32(i)/1000)
		prev = band
	}
	assert.Equal(t, GlyphBandCount-1, prev)
}

func TestGlyphInkCellLayout(t *testing.T) {
	const solid uint32 = 1<<25 - 1

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			fc := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
			inCell := x%8 >= 1 && x%8 <= 5 && y%8 >= 1 && y%8 <= 5
			want := float32(0)
			if inCell {
				want = 1
			}
			assert.Equal(t, want, GlyphInk(solid, fc), "pixel %d,%d", x, y)
		}
	}
}

func TestGlyphInkSingleDot(t *testing.T) {
	dot := GlyphPattern(0)

	inked := 0
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if GlyphInk(dot, [2]float32{float32(x) + 0.5, float32(y) + 0.5}) == 1 {
				inked++
				// bit 16 is column 1 of row 3, drawn at pixel 2,4 of the block
				assert.Equal(t, 2, x)
				assert.Equal(t, 4, y)
			}
		}
	}
	assert.Equal(t, 1, inked)
}

func TestDepthSplitEndpoints(t *testing.T) {
	assert.InDelta(t, 0, DepthSplit(0, 1, 10), 1e-6)
	assert.InDelta(t, MaxDepthSplit, DepthSplit(1, 1, 10), 1e-6)
	assert.InDelta(t, MaxDepthSplit, DepthSplit(2, 1, 10), 1e-6, "clamped past the far plane")
	assert.InDelta(t, 0, DepthSplit(-0.5, 1, 10), 1e-6, "clamped before the near plane")
	assert.InDelta(t, 1, LinearizeDepth(1.5, 1, 10), 1e-6)
}

func TestDepthSplitLinearInDistance(t *testing.T) {
	cam := camera.NewCamera(camera.WithClipPlanes(1, 10))

	for _, dist := range []float32{1, 2.5, 5.5, 7, 10} {
		d := cam.DepthAt(dist)
		want := (dist - 1) / 9
		assert.InDelta(t, want, LinearizeDepth(d, 1, 10), 1e-5, "distance %v", dist)
		assert.InDelta(t, want*MaxDepthSplit, DepthSplit(d, 1, 10), 1e-5, "distance %v", dist)
	}
}
