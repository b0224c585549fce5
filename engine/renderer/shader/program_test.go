package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureSetString(t *testing.T) {
	assert.Equal(t, "none", FeatureSet(0).String())
	assert.Equal(t, "BLEND_BLOOM", FeatureSet(0).With(FeatureBlendBloom).String())
	assert.Equal(t, "BLEND_BLOOM|BLEND_DEPTH", FeatureSet(0).With(FeatureBlendDepth).With(FeatureBlendBloom).String())
}

func TestFeatureSetHas(t *testing.T) {
	s := FeatureSet(0).With(FeatureBlendDepth)
	assert.True(t, s.Has(FeatureBlendDepth))
	assert.False(t, s.Has(FeatureBlendBloom))
	assert.Equal(t, []Feature{FeatureBlendDepth}, s.Features())
}

func TestRegisterFeature(t *testing.T) {
	f := RegisterFeature("TEST_VIGNETTE")
	assert.Equal(t, f, RegisterFeature("TEST_VIGNETTE"))
	assert.NotEqual(t, FeatureBlendBloom, f)
	assert.NotEqual(t, FeatureBlendDepth, f)

	got, ok := LookupFeature("TEST_VIGNETTE")
	require.True(t, ok)
	assert.Equal(t, f, got)
	assert.Equal(t, "TEST_VIGNETTE", f.String())

	_, ok = LookupFeature("NEVER_REGISTERED")
	assert.False(t, ok)
}

func TestLayoutUniforms(t *testing.T) {
	layout := LayoutUniforms([]Uniform{
		{Name: "srcTexture", Kind: UniformTexture},
		{Name: "resolution", Kind: UniformVec2},
		{Name: "bloomTexture", Kind: UniformTexture},
		{Name: "bloomIntensity", Kind: UniformFloat},
		{Name: "cameraNear", Kind: UniformFloat},
		{Name: "cameraFar", Kind: UniformFloat},
		{Name: "depthTexture", Kind: UniformDepthTexture},
	})

	assert.Equal(t, map[string]uint64{
		"resolution":     0,
		"bloomIntensity": 8,
		"cameraNear":     12,
		"cameraFar":      16,
	}, layout.Offsets)
	assert.Equal(t, uint64(32), layout.Size)
}

func TestLayoutUniformsVec4Alignment(t *testing.T) {
	layout := LayoutUniforms([]Uniform{
		{Name: "a", Kind: UniformFloat},
		{Name: "b", Kind: UniformVec4},
	})
	assert.Equal(t, uint64(16), layout.Offsets["b"])
	assert.Equal(t, uint64(32), layout.Size)
}

func TestLayoutUniformsTexturesOnly(t *testing.T) {
	layout := LayoutUniforms([]Uniform{{Name: "srcTexture", Kind: UniformTexture}})
	assert.Empty(t, layout.Offsets)
	assert.Zero(t, layout.Size)
}

func TestProgramLabel(t *testing.T) {
	p := &Program{Key: "composite", Features: FeatureSet(0).With(FeatureBlendBloom)}
	assert.Equal(t, "composite[BLEND_BLOOM]", p.Label())

	p.Uniforms = []Uniform{{Name: "resolution", Kind: UniformVec2}}
	u, ok := p.Uniform("resolution")
	require.True(t, ok)
	assert.Equal(t, UniformVec2, u.Kind)
	_, ok = p.Uniform("missing")
	assert.False(t, ok)
}
