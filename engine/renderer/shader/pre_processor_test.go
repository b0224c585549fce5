package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flagSource = `//@oxy:if BLEND_BLOOM
bloom_line
//@oxy:else
no_bloom_line
//@oxy:endif
//@oxy:if BLEND_DEPTH
depth_line
//@oxy:if BLEND_BLOOM
depth_and_bloom_line
//@oxy:endif
//@oxy:endif
tail_line`

func TestProcessFeatureBlocks(t *testing.T) {
	tests := []struct {
		name     string
		features FeatureSet
		want     []string
		dropped  []string
	}{
		{
			name:    "no features",
			want:    []string{"no_bloom_line", "tail_line"},
			dropped: []string{"bloom_line\n", "depth_line", "depth_and_bloom_line"},
		},
		{
			name:     "bloom only",
			features: FeatureSet(0).With(FeatureBlendBloom),
			want:     []string{"bloom_line", "tail_line"},
			dropped:  []string{"no_bloom_line", "depth_line", "depth_and_bloom_line"},
		},
		{
			name:     "depth only",
			features: FeatureSet(0).With(FeatureBlendDepth),
			want:     []string{"no_bloom_line", "depth_line", "tail_line"},
			dropped:  []string{"depth_and_bloom_line"},
		},
		{
			name:     "both",
			features: FeatureSet(0).With(FeatureBlendBloom).With(FeatureBlendDepth),
			want:     []string{"bloom_line", "depth_line", "depth_and_bloom_line", "tail_line"},
			dropped:  []string{"no_bloom_line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewPreProcessor().Process(flagSource, tt.features, nil)
			require.NoError(t, err)
			lines := strings.Split(out, "\n")
			for _, w := range tt.want {
				assert.Contains(t, lines, w)
			}
			for _, d := range tt.dropped {
				assert.NotContains(t, lines, strings.TrimSuffix(d, "\n"))
			}
			assert.NotContains(t, out, annotationPrefix)
		})
	}
}

func TestProcessNestedInsideDisabledBlock(t *testing.T) {
	src := "//@oxy:if BLEND_DEPTH\n//@oxy:if BLEND_BLOOM\ninner\n//@oxy:else\ninner_else\n//@oxy:endif\n//@oxy:endif"
	out, err := NewPreProcessor().Process(src, FeatureSet(0).With(FeatureBlendBloom), nil)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		errMsg string
	}{
		{"endif without if", "//@oxy:endif", "without a matching if"},
		{"else without if", "//@oxy:else", "without a matching if"},
		{"duplicate else", "//@oxy:if BLEND_BLOOM\n//@oxy:else\n//@oxy:else\n//@oxy:endif", "duplicate"},
		{"unclosed if", "//@oxy:if BLEND_BLOOM\nx", "never closed"},
		{"unknown feature", "//@oxy:if NOT_A_FLAG\n//@oxy:endif", "unknown feature"},
		{"unknown snippet", "//@oxy:include teapot", "unknown snippet"},
		{"unknown annotation", "//@oxy:define X", "unknown @oxy annotation"},
		{"empty annotation", "//@oxy:", "empty"},
		{"uniforms twice", "//@oxy:uniforms\n//@oxy:uniforms", "only be expanded once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(tt.source, 0, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProcessIgnoresPrefixOutsideComments(t *testing.T) {
	src := `let s = "@oxy:include glyph";`
	out, err := NewPreProcessor().Process(src, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestProcessInclude(t *testing.T) {
	out, err := NewPreProcessor().Process("//@oxy:include glyph\n//@oxy:include depth", 0, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "fn glyphPattern(gray: f32) -> u32")
	assert.Contains(t, out, "fn depthSplit(d: f32, near: f32, far: f32) -> f32")
}

func TestProcessUniformsExpansion(t *testing.T) {
	uniforms := []Uniform{
		{Name: "srcTexture", Kind: UniformTexture},
		{Name: "resolution", Kind: UniformVec2},
		{Name: "bloomTexture", Kind: UniformTexture},
		{Name: "bloomIntensity", Kind: UniformFloat},
		{Name: "cameraNear", Kind: UniformFloat},
		{Name: "cameraFar", Kind: UniformFloat},
		{Name: "depthTexture", Kind: UniformDepthTexture},
	}

	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:uniforms", 0, uniforms)
	require.NoError(t, err)

	assert.Contains(t, out, "struct Params {\n    resolution: vec2<f32>,\n    bloomIntensity: f32,\n    cameraNear: f32,\n    cameraFar: f32,\n};")
	assert.Contains(t, out, "@group(0) @binding(0) var<uniform> params: Params;")
	assert.Contains(t, out, "@group(0) @binding(1) var srcTexture: texture_2d<f32>;")
	assert.Contains(t, out, "@group(0) @binding(2) var srcTextureSampler: sampler;")
	assert.Contains(t, out, "@group(0) @binding(3) var bloomTexture: texture_2d<f32>;")
	assert.Contains(t, out, "@group(0) @binding(4) var bloomTextureSampler: sampler;")
	assert.Contains(t, out, "@group(0) @binding(5) var depthTexture: texture_depth_2d;")

	decls := pp.Declarations()
	require.Len(t, decls, 6)
	for i, d := range decls {
		assert.Equal(t, AnnotationTypeBindingGroup, d.Type)
		require.NotNil(t, d.Binding)
		assert.Equal(t, i, *d.Binding)
		assert.Equal(t, 0, *d.Group)
	}
	assert.Equal(t, []AnnotationArg{AnnotationArgParams, "params", ""}, decls[0].Args)
	assert.Equal(t, []AnnotationArg{AnnotationArgSampler, "bloomTextureSampler", "bloomTexture"}, decls[4].Args)
	assert.Equal(t, []AnnotationArg{AnnotationArgDepthTexture, "depthTexture", "depthTexture"}, decls[5].Args)
}

func TestProcessUniformsWithoutParams(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@oxy:uniforms", 0, []Uniform{{Name: "srcTexture", Kind: UniformTexture}})
	require.NoError(t, err)
	assert.NotContains(t, out, "struct Params")
	assert.Contains(t, out, "@group(0) @binding(0) var srcTexture: texture_2d<f32>;")
	assert.Len(t, pp.Declarations(), 2)
}

func TestProcessResetsDeclarations(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@oxy:uniforms", 0, []Uniform{{Name: "a", Kind: UniformFloat}})
	require.NoError(t, err)
	_, err = pp.Process("plain", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
}
