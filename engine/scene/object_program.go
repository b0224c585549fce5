package scene

import (
	_ "embed"

	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
)

//go:embed assets/object.wgsl
var objectSource string

// objectProgram draws one screen-aligned object: its rect filled with the material color, alpha set
// to the live opacity, at the camera depth of the object's distance.
func objectProgram() *shader.Program {
	return &shader.Program{
		Key:    "object",
		Source: objectSource,
		Uniforms: []shader.Uniform{
			{Name: "rect", Kind: shader.UniformVec4},
			{Name: "color", Kind: shader.UniformVec4},
			{Name: "depth", Kind: shader.UniformFloat},
		},
		Kernel: objectKernel,
	}
}

func objectKernel(in shader.FragmentInput) shader.FragmentOutput {
	fc, res := in.FragCoord(), in.Resolution()
	u, v := fc[0]/res[0], fc[1]/res[1]
	r := in.Vec4("rect")
	if u < r[0] || v < r[1] || u >= r[0]+r[2] || v >= r[1]+r[3] {
		return shader.FragmentOutput{Discard: true}
	}
	return shader.FragmentOutput{Color: in.Vec4("color"), Depth: in.Float("depth")}
}
