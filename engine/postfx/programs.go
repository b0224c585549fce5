package postfx

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
)

//go:embed assets/bright.wgsl
var brightSource string

//go:embed assets/blur.wgsl
var blurSource string

//go:embed assets/composite.wgsl
var compositeSource string

// featureUniforms is the uniform set the composite source reads inside each effect's feature
// block. An effect claiming a feature must declare exactly this set, which is what lets compiled
// composites be cached by feature set alone.
var featureUniforms = map[shader.Feature][]shader.Uniform{
	shader.FeatureBlendBloom: {
		{Name: "bloomTexture", Kind: shader.UniformTexture},
		{Name: "bloomIntensity", Kind: shader.UniformFloat},
	},
}

const (
	brightProgramKey    = "bloom_bright"
	blurProgramKey      = "bloom_blur"
	compositeProgramKey = "composite"
)

func brightProgram() *shader.Program {
	return &shader.Program{
		Key:    brightProgramKey,
		Source: brightSource,
		Uniforms: []shader.Uniform{
			{Name: "srcTexture", Kind: shader.UniformTexture},
			{Name: "threxp", Kind: shader.UniformVec2},
		},
		Kernel: brightKernel,
	}
}

func blurProgram() *shader.Program {
	return &shader.Program{
		Key:    blurProgramKey,
		Source: blurSource,
		Uniforms: []shader.Uniform{
			{Name: "srcTexture", Kind: shader.UniformTexture},
			{Name: "pixelSize", Kind: shader.UniformVec2},
			{Name: "iteration", Kind: shader.UniformFloat},
		},
		Kernel: blurKernel,
	}
}

// compositeProgram builds the final blend permutation for a feature set and its collected uniforms.
func compositeProgram(features shader.FeatureSet, uniforms []shader.Uniform) *shader.Program {
	return &shader.Program{
		Key:      compositeProgramKey,
		Source:   compositeSource,
		Features: features,
		Uniforms: uniforms,
		Kernel:   compositeKernel,
	}
}
