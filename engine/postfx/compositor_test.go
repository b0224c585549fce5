package postfx

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/game_object"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-post/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attachCompositor(t *testing.T, s scene.Scene, options ...CompositorBuilderOption) Compositor {
	t.Helper()
	c := NewCompositor(options...)
	require.NoError(t, s.AddBehavior(c))
	return c
}

// expectedComposite is the blend of a flat image of color c at pixel x, y.
func expectedComposite(c [4]float32, split float32, x, y int) [3]float32 {
	fc := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
	ink := GlyphInk(GlyphPattern((c[0]+c[1]+c[2])/3), fc)
	var out [3]float32
	for i := range out {
		styled := (1-split)*c[i]*ink + split*c[i]
		out[i] = c[i]*(1-c[3]) + styled*c[3]
	}
	return out
}

func TestCompositorAttachInstallsTarget(t *testing.T) {
	s := newTestScene(t, 16, 8)
	c := attachCompositor(t, s)

	assert.Equal(t, scene.StageComposite, c.Stage())
	require.NotNil(t, c.Target())
	assert.Same(t, c.Target(), s.RenderTarget())
	assert.Equal(t, common.Extent{Width: 16, Height: 8}, c.Target().Size())
	assert.True(t, c.Target().HasDepth())
	assert.True(t, c.NeedsConfig())
	assert.Nil(t, c.Pipeline())
}

func TestCompositorReconfiguresOncePerBurst(t *testing.T) {
	s := newTestScene(t, 8, 8)
	c := attachCompositor(t, s, WithDepth(false))

	for range 5 {
		s.Emit(EventPipelineModified)
	}
	require.NoError(t, s.Tock(0))
	assert.Equal(t, 1, c.ConfigureCount())
	assert.False(t, c.NeedsConfig())

	require.NoError(t, s.Tock(0))
	assert.Equal(t, 1, c.ConfigureCount(), "no notification, no rebuild")

	s.Emit(EventPipelineModified)
	s.Emit(EventPipelineModified)
	assert.True(t, c.NeedsConfig())
	require.NoError(t, s.Tock(0))
	assert.Equal(t, 2, c.ConfigureCount())
}

func TestCompositorBlendWithoutEffects(t *testing.T) {
	s := newTestScene(t, 16, 16)
	c := attachCompositor(t, s, WithDepth(false))
	color := [4]float32{0.5, 0.25, 0.75, 1}
	require.NoError(t, s.Renderer().Clear(c.Target(), color))

	require.NoError(t, s.Tock(0))
	assert.Equal(t, shader.FeatureSet(0), c.Features())
	assert.Equal(t, "composite[none]", c.Pipeline().PipelineKey())
	assert.Empty(t, c.Effects())

	px, err := s.Renderer().ReadPixels(nil)
	require.NoError(t, err)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			i := (y*16 + x) * 4
			want := expectedComposite(color, DefaultSplit, x, y)
			assert.InDelta(t, want[0], px[i], 1e-6)
			assert.InDelta(t, want[1], px[i+1], 1e-6)
			assert.InDelta(t, want[2], px[i+2], 1e-6)
			assert.Equal(t, float32(1), px[i+3])
		}
	}
}

func TestCompositorTransparentPixelsPassThrough(t *testing.T) {
	s := newTestScene(t, 8, 8)
	c := attachCompositor(t, s, WithDepth(false))
	require.NoError(t, s.Renderer().Clear(c.Target(), [4]float32{0.3, 0.6, 0.9, 0}))

	require.NoError(t, s.Tock(0))
	px, err := s.Renderer().ReadPixels(nil)
	require.NoError(t, err)
	for i := 0; i < len(px); i += 4 {
		assert.InDelta(t, 0.3, px[i], 1e-6)
		assert.InDelta(t, 0.6, px[i+1], 1e-6)
		assert.InDelta(t, 0.9, px[i+2], 1e-6)
		assert.Equal(t, float32(1), px[i+3])
	}
}

func TestCompositorDepthSplit(t *testing.T) {
	s := newTestScene(t, 8, 8)
	c := attachCompositor(t, s)
	color := [4]float32{0.95, 0.95, 0.95, 1}
	// a clear leaves depth at the far plane
	require.NoError(t, s.Renderer().Clear(c.Target(), color))

	require.NoError(t, s.Tock(0))
	assert.True(t, c.Features().Has(shader.FeatureBlendDepth))

	px, err := s.Renderer().ReadPixels(nil)
	require.NoError(t, err)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			want := expectedComposite(color, MaxDepthSplit, x, y)
			assert.InDelta(t, want[0], px[(y*8+x)*4], 1e-5, "pixel %d,%d", x, y)
		}
	}
}

func TestCompositorAddsBloom(t *testing.T) {
	s := newTestScene(t, 16, 16)
	b := attachBloom(t, s, WithIntensity(2))
	c := attachCompositor(t, s, WithDepth(false))
	color := [4]float32{0.5, 0.25, 0.75, 1}

	_, err := b.ResizeIfNeeded(s.Renderer().SurfaceSize())
	require.NoError(t, err)
	require.NoError(t, s.Renderer().Clear(c.Target(), color))
	require.NoError(t, s.Renderer().Clear(b.Output(), [4]float32{0.1, 0.1, 0.1, 1}))

	require.NoError(t, c.Blend(s))
	assert.True(t, c.Features().Has(shader.FeatureBlendBloom))
	assert.Equal(t, "composite[BLEND_BLOOM]", c.Pipeline().PipelineKey())
	require.Len(t, c.Effects(), 1)
	assert.Equal(t, "bloom", c.Effects()[0].Name())

	px, err := s.Renderer().ReadPixels(nil)
	require.NoError(t, err)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			i := (y*16 + x) * 4
			want := expectedComposite(color, DefaultSplit, x, y)
			assert.InDelta(t, want[0]+0.2, px[i], 1e-6)
			assert.InDelta(t, want[1]+0.2, px[i+1], 1e-6)
			assert.InDelta(t, want[2]+0.2, px[i+2], 1e-6)
		}
	}
}

func TestCompositorReusesPermutations(t *testing.T) {
	s := newTestScene(t, 8, 8)
	var configured []string
	c := attachCompositor(t, s, WithDepth(false), WithConfigureObserver(func(program string, elapsed time.Duration) {
		configured = append(configured, program)
	}))
	b := attachBloom(t, s)

	require.NoError(t, s.Tock(0))
	s.RemoveBehavior(b)
	require.NoError(t, s.Tock(0))
	require.NoError(t, s.AddBehavior(b))
	require.NoError(t, s.Tock(0))

	assert.Equal(t, []string{"composite[BLEND_BLOOM]", "composite[none]", "composite[BLEND_BLOOM]"}, configured)
	hits, misses := c.CacheStats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
	assert.Equal(t, 3, c.ConfigureCount())
}

func TestCompositorFirstEffectWinsFeature(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { common.SetLogger(nil) })

	s := newTestScene(t, 8, 8)
	first := attachBloom(t, s)
	attachBloom(t, s)
	c := attachCompositor(t, s, WithDepth(false))

	require.NoError(t, s.Tock(0))
	require.Len(t, c.Effects(), 1)
	assert.Same(t, first, c.Effects()[0])
	assert.Contains(t, buf.String(), "feature already claimed")
}

// renamedBloom claims the bloom feature but declares uniforms the composite source never reads.
type renamedBloom struct {
	BloomEffect
}

func (r *renamedBloom) Uniforms() []shader.Uniform {
	return []shader.Uniform{{Name: "glowTexture", Kind: shader.UniformTexture}}
}

func TestCompositorSkipsEffectWithForeignUniforms(t *testing.T) {
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { common.SetLogger(nil) })

	s := newTestScene(t, 8, 8)
	require.NoError(t, s.AddBehavior(&renamedBloom{BloomEffect: NewBloomEffect()}))
	bloom := attachBloom(t, s)
	c := attachCompositor(t, s, WithDepth(false))

	require.NoError(t, s.Tock(0))
	require.Len(t, c.Effects(), 1)
	assert.Same(t, bloom, c.Effects()[0])
	assert.True(t, c.Features().Has(shader.FeatureBlendBloom))
	assert.Contains(t, buf.String(), "uniforms do not match its feature")
	_, ok := c.Pipeline().Shader().Program().Uniform("glowTexture")
	assert.False(t, ok)
}

func TestCompositorDisabled(t *testing.T) {
	s := newTestScene(t, 8, 8)
	c := attachCompositor(t, s, WithEnabled(false))
	assert.Nil(t, s.RenderTarget())

	require.NoError(t, s.Tock(0))
	assert.Equal(t, 0, c.ConfigureCount())

	c.SetEnabled(true)
	assert.Same(t, c.Target(), s.RenderTarget())
	require.NoError(t, s.Tock(0))
	assert.Equal(t, 1, c.ConfigureCount())

	c.SetEnabled(false)
	assert.Nil(t, s.RenderTarget())
}

func TestCompositorTickResizesAndAppliesOpacity(t *testing.T) {
	s := newTestScene(t, 8, 8)
	c := attachCompositor(t, s)
	m := material.NewMaterial(material.WithOpacity(0.25), material.WithTargetOpacity(1))
	s.Add(game_object.NewGameObject(game_object.WithMaterial(m)))

	s.Renderer().Resize(12, 6)
	require.NoError(t, s.Tick(0))
	assert.Equal(t, common.Extent{Width: 12, Height: 6}, c.Target().Size())
	assert.Equal(t, float32(1), m.Opacity())

	c.SetEnabled(false)
	m.SetTargetOpacity(0.5)
	s.Renderer().Resize(4, 4)
	require.NoError(t, s.Tick(0))
	assert.Equal(t, common.Extent{Width: 12, Height: 6}, c.Target().Size(), "disabled compositor keeps its size")
	assert.Equal(t, float32(0.5), m.Opacity(), "opacity applies regardless")
}

func TestCompositorDetachRestoresSurface(t *testing.T) {
	s := newTestScene(t, 8, 8)
	c := attachCompositor(t, s)
	require.NoError(t, s.Tock(0))
	target := c.Target()

	s.RemoveBehavior(c)
	assert.Nil(t, s.RenderTarget())
	assert.Nil(t, c.Target())
	assert.Nil(t, s.Renderer().Pipeline("composite[BLEND_DEPTH]"))
	_, err := s.Renderer().ReadPixels(target)
	assert.ErrorIs(t, err, renderer.ErrUnknownTarget)
}
