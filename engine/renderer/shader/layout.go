package shader

import (
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// fieldLayout is the size and alignment of a Params field in the uniform address space.
type fieldLayout struct {
	size  uint64
	align uint64
}

// paramsFieldLayouts covers every WGSL type a non-texture uniform can expand to.
var paramsFieldLayouts = map[string]fieldLayout{
	"f32":       {size: 4, align: 4},
	"vec2<f32>": {size: 8, align: 8},
	"vec4<f32>": {size: 16, align: 16},
}

// bindingVisibility is shared by every generated binding so one layout serves both stages.
const bindingVisibility = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

// roundUpAlign rounds value up to the next multiple of a power-of-two alignment.
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// bindGroupLayouts derives the group layouts and variable names from the declarations the
// pre-processor recorded, so the generated WGSL never has to be parsed back.
//
// Parameters:
//   - decls: generated binding declarations
//   - layout: the Params buffer layout, used for the uniform buffer's minimum binding size
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: layouts by group index
//   - map[int]map[int]string: WGSL variable names by group then binding
func bindGroupLayouts(decls []Annotation, layout UniformLayout) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	layouts := make(map[int]wgpu.BindGroupLayoutDescriptor)
	names := make(map[int]map[int]string)

	for _, d := range decls {
		if d.Type != AnnotationTypeBindingGroup || d.Group == nil || d.Binding == nil || len(d.Args) < 2 {
			continue
		}
		group, binding := *d.Group, *d.Binding

		entry := wgpu.BindGroupLayoutEntry{Binding: uint32(binding), Visibility: bindingVisibility}
		switch d.Args[0] {
		case AnnotationArgParams:
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
			entry.Buffer.MinBindingSize = layout.Size
		case AnnotationArgTexture:
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		case AnnotationArgSampler:
			entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		case AnnotationArgDepthTexture:
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
			entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
		default:
			continue
		}

		desc := layouts[group]
		desc.Entries = append(desc.Entries, entry)
		layouts[group] = desc

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = string(d.Args[1])
	}
	return layouts, names
}

// findEntryPoints scans processed WGSL for the first @vertex and @fragment functions.
// Line comments are ignored; the stage attribute may sit on its own line above the fn.
//
// Parameters:
//   - source: processed WGSL source
//
// Returns:
//   - map[ShaderType]string: entry point names by stage, missing stages are absent
func findEntryPoints(source string) map[ShaderType]string {
	found := make(map[ShaderType]string, 2)
	pending := ShaderType(-1)

	for _, line := range strings.Split(source, "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		tokens := strings.Fields(line)
		for i, tok := range tokens {
			switch tok {
			case "@vertex":
				pending = ShaderTypeVertex
			case "@fragment":
				pending = ShaderTypeFragment
			case "@compute":
				pending = -1
			case "fn":
				if pending < 0 || i+1 >= len(tokens) {
					continue
				}
				name, _, _ := strings.Cut(tokens[i+1], "(")
				if _, ok := found[pending]; !ok && name != "" {
					found[pending] = name
				}
				pending = -1
			}
		}
	}
	return found
}
