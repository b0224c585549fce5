package shader

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgramSource = `//@oxy:include fullscreen_vertex
//@oxy:uniforms

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    return fullscreenVertex(index, 0.0);
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    var color = textureSample(srcTexture, srcTextureSampler, in.uv);
//@oxy:if BLEND_BLOOM
    color = color * params.gain;
//@oxy:endif
    return color;
}
`

func testProgram(features FeatureSet) *Program {
	return &Program{
		Key:      "test",
		Source:   testProgramSource,
		Features: features,
		Uniforms: []Uniform{
			{Name: "srcTexture", Kind: UniformTexture},
			{Name: "gain", Kind: UniformFloat},
		},
	}
}

func TestCompile(t *testing.T) {
	s, err := Compile(testProgram(FeatureSet(0).With(FeatureBlendBloom)), CompileOptions{})
	require.NoError(t, err)

	assert.Equal(t, "test[BLEND_BLOOM]", s.Key())
	assert.Equal(t, "vs_main", s.EntryPoint(ShaderTypeVertex))
	assert.Equal(t, "fs_main", s.EntryPoint(ShaderTypeFragment))
	assert.Contains(t, s.Source(), "params.gain")
	assert.Len(t, s.Declarations(), 3)
	assert.Equal(t, uint64(16), s.UniformLayout().Size)

	layouts := s.BindGroupLayoutDescriptors()
	require.Contains(t, layouts, 0)
	assert.Len(t, layouts[0].Entries, 3)
	assert.Equal(t, "srcTextureSampler", s.BindGroupVarNames()[0][2])
}

func TestCompileDropsDisabledBlock(t *testing.T) {
	s, err := Compile(testProgram(0), CompileOptions{})
	require.NoError(t, err)
	assert.NotContains(t, s.Source(), "params.gain")
	assert.Equal(t, "test[none]", s.Key())
}

func TestCompileErrorNamesPermutation(t *testing.T) {
	p := testProgram(FeatureSet(0).With(FeatureBlendDepth))
	p.Source = "//@oxy:if BLEND_DEPTH\n" + p.Source

	_, err := Compile(p, CompileOptions{})
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "test", ce.Program)
	assert.Equal(t, StagePreprocess, ce.Stage)
	assert.Contains(t, err.Error(), "BLEND_DEPTH")
}

func TestCompileRequiresBothEntryPoints(t *testing.T) {
	p := &Program{Key: "vs_only", Source: "@vertex\nfn main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }"}
	_, err := Compile(p, CompileOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry point")
}

func TestCompileValidateRejectsSyntaxError(t *testing.T) {
	p := &Program{Key: "broken", Source: "@vertex\nfn vs( {\n}\n@fragment\nfn fs() {}"}
	_, err := Compile(p, CompileOptions{Validate: true})
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, StageValidate, ce.Stage)
}

func TestValidate(t *testing.T) {
	ok := `@vertex
fn main(@builtin(vertex_index) idx: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}`
	assert.NoError(t, Validate(ok, false))
	assert.Error(t, Validate("fn main( {", false))
}
