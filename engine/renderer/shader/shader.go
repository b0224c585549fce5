package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies a pipeline stage of a shader module.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
// It holds the processed WGSL module of one program permutation and the layout data derived from it.
type shader struct {
	program                    *Program
	source                     string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	entryPoints                map[ShaderType]string
	declarations               []Annotation
	layout                     UniformLayout
}

// Shader is a pre-processed, validated program permutation ready for a backend. It exposes the
// final WGSL source, entry points, bind group layouts, generated binding declarations and the
// Params buffer layout.
type Shader interface {
	// Program returns the descriptor this shader was compiled from.
	//
	// Returns:
	//   - *Program: the source program
	Program() *Program

	// Key retrieves the permutation label, used for caching, labels and diagnostics.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the entry function name for the given stage, or "" if the module has none.
	//
	// Parameters:
	//   - stage: the pipeline stage
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint(stage ShaderType) string

	// BindGroupLayoutDescriptors returns the layout descriptors of the generated bindings, keyed by group.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: layouts by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarNames returns the WGSL variable names keyed by group and binding.
	//
	// Returns:
	//   - map[int]map[int]string: variable names by group then binding
	BindGroupVarNames() map[int]map[int]string

	// Declarations returns the bindings generated by the pre-processor.
	//
	// Returns:
	//   - []Annotation: generated binding declarations
	Declarations() []Annotation

	// UniformLayout returns the Params buffer layout.
	//
	// Returns:
	//   - UniformLayout: offsets and size of the Params struct
	UniformLayout() UniformLayout
}

var _ Shader = &shader{}

// CompileOptions controls optional compile steps.
type CompileOptions struct {
	// Validate runs the processed source through the WGSL front end.
	Validate bool

	// Strict adds IR validation on top of Validate.
	Strict bool
}

// Compile pre-processes a program for its feature set, optionally validates the resulting WGSL
// and derives its bind group layouts. All failures are returned as *CompileError.
//
// Parameters:
//   - p: the program to compile
//   - opts: compile options
//
// Returns:
//   - Shader: the compiled permutation
//   - error: a *CompileError naming the program and its feature set
func Compile(p *Program, opts CompileOptions) (Shader, error) {
	if p == nil {
		return nil, errors.New("shader: nil program")
	}

	pp := NewPreProcessor()
	source, err := pp.Process(p.Source, p.Features, p.Uniforms)
	if err != nil {
		return nil, &CompileError{Program: p.Key, Features: p.Features, Stage: StagePreprocess, Err: err}
	}

	if opts.Validate {
		if err := Validate(source, opts.Strict); err != nil {
			return nil, &CompileError{Program: p.Key, Features: p.Features, Stage: StageValidate, Err: err}
		}
	}

	s := &shader{
		program:      p,
		source:       source,
		entryPoints:  findEntryPoints(source),
		declarations: append([]Annotation(nil), pp.Declarations()...),
		layout:       LayoutUniforms(p.Uniforms),
	}
	if s.entryPoints[ShaderTypeVertex] == "" || s.entryPoints[ShaderTypeFragment] == "" {
		return nil, &CompileError{
			Program:  p.Key,
			Features: p.Features,
			Stage:    StagePreprocess,
			Err:      fmt.Errorf("module must declare both a @vertex and a @fragment entry point"),
		}
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = bindGroupLayouts(s.declarations, s.layout)

	return s, nil
}

func (s *shader) Program() *Program {
	return s.program
}

func (s *shader) Key() string {
	return s.program.Label()
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint(stage ShaderType) string {
	return s.entryPoints[stage]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarNames() map[int]map[int]string {
	return s.bindingVarNames
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) UniformLayout() UniformLayout {
	return s.layout
}
