// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans shader
// source code for @oxy: annotations, drops feature blocks that are disabled for the
// permutation being built, injects embedded snippets, and expands the uniform
// declarations into WGSL bindings. Every generated binding is recorded in a
// declarations list that backends use to wire resources by uniform name.
//
// The pre-processor maintains one registry:
//   - snippetRegistry: maps AnnotationArg keys to embedded WGSL snippet sources, used by @oxy:include.
package shader

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed assets/fullscreen_vertex.wgsl
var fullscreenVertexSource string

//go:embed assets/glyph.wgsl
var glyphSource string

//go:embed assets/depth.wgsl
var depthSource string

// paramsGroup is the bind group every generated binding lives in.
const paramsGroup = 0

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// snippetRegistry maps snippet argument keys to embedded WGSL source.
	snippetRegistry map[AnnotationArg]string

	// declarations accumulates generated binding annotations during a Process call.
	// Reset at the start of each Process invocation.
	declarations []Annotation
}

// PreProcessor processes raw WGSL shader source code containing @oxy: annotations for one
// permutation (feature set + uniform declarations) and collects the generated bindings.
type PreProcessor interface {
	// Process pre-processes source for the given feature set and uniforms. Lines inside
	// disabled //@oxy:if blocks are dropped, //@oxy:include lines are replaced with the
	// snippet source and //@oxy:uniforms expands to the generated binding declarations.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the raw WGSL shader source code containing annotations to be processed
	//   - features: the enabled feature set
	//   - uniforms: the program's uniform declarations
	//
	// Returns:
	//   - string: the processed WGSL shader source code
	//   - error: an error if any annotation is malformed or the if/endif blocks are unbalanced
	Process(source string, features FeatureSet, uniforms []Uniform) (string, error)

	// Declarations returns the generated binding annotations from the most recent call to
	// Process, in binding order. Returns nil if Process has not been called.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the snippet registry pre-populated.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		snippetRegistry: map[AnnotationArg]string{
			AnnotationArgFullscreenVertex: fullscreenVertexSource,
			AnnotationArgGlyph:            glyphSource,
			AnnotationArgDepth:            depthSource,
		},
	}
}

// condFrame tracks one open //@oxy:if block.
type condFrame struct {
	line     int
	taken    bool // condition result of the if
	inElse   bool
	inactive bool // an enclosing block is already dropping lines
}

func (f condFrame) emitting() bool {
	if f.inactive {
		return false
	}
	return f.taken != f.inElse
}

func (p *preProcessor) Process(source string, features FeatureSet, uniforms []Uniform) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []condFrame
	uniformsEmitted := false

	emitting := func() bool {
		return len(stack) == 0 || stack[len(stack)-1].emitting()
	}

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			if emitting() {
				out = append(out, line)
			}
			continue
		}

		switch a.Type {
		case annotationTypeIf:
			f, _ := LookupFeature(string(a.Args[0]))
			stack = append(stack, condFrame{line: a.Line, taken: features.Has(f), inactive: !emitting()})
		case annotationTypeElse:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy else without a matching if", a.Line)
			}
			top := &stack[len(stack)-1]
			if top.inElse {
				return "", fmt.Errorf("line %d: duplicate @oxy else for the if on line %d", a.Line, top.line)
			}
			top.inElse = true
		case annotationTypeEndIf:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy endif without a matching if", a.Line)
			}
			stack = stack[:len(stack)-1]
		case annotationTypeInclude:
			if !emitting() {
				continue
			}
			out = append(out, p.snippetRegistry[a.Args[0]])
		case annotationTypeUniforms:
			if !emitting() {
				continue
			}
			if uniformsEmitted {
				return "", fmt.Errorf("line %d: @oxy uniforms may only be expanded once", a.Line)
			}
			out = append(out, p.expandUniforms(uniforms, a.Line))
			uniformsEmitted = true
		default:
			return "", fmt.Errorf("line %d: unexpected annotation type %q", a.Line, a.Type)
		}
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: @oxy if is never closed", stack[len(stack)-1].line)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

// expandUniforms renders the Params struct followed by one binding per resource, recording
// a declaration for each generated binding.
//
// Parameters:
//   - uniforms: the program's uniform declarations
//   - line: the source line of the //@oxy:uniforms annotation
//
// Returns:
//   - string: the generated WGSL
func (p *preProcessor) expandUniforms(uniforms []Uniform, line int) string {
	var b strings.Builder
	binding := 0

	var fields []Uniform
	for _, u := range uniforms {
		if !u.Kind.IsTexture() {
			fields = append(fields, u)
		}
	}
	if len(fields) > 0 {
		b.WriteString("struct Params {\n")
		for _, u := range fields {
			fmt.Fprintf(&b, "    %s: %s,\n", u.Name, u.Kind.wgslType())
		}
		b.WriteString("};\n")
		fmt.Fprintf(&b, "@group(%d) @binding(%d) var<uniform> params: Params;\n", paramsGroup, binding)
		p.record(AnnotationArgParams, "params", "", binding, line)
		binding++
	}

	for _, u := range uniforms {
		switch u.Kind {
		case UniformTexture:
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var %s: %s;\n", paramsGroup, binding, u.Name, u.Kind.wgslType())
			p.record(AnnotationArgTexture, u.Name, u.Name, binding, line)
			binding++
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var %sSampler: sampler;\n", paramsGroup, binding, u.Name)
			p.record(AnnotationArgSampler, u.Name+"Sampler", u.Name, binding, line)
			binding++
		case UniformDepthTexture:
			fmt.Fprintf(&b, "@group(%d) @binding(%d) var %s: %s;\n", paramsGroup, binding, u.Name, u.Kind.wgslType())
			p.record(AnnotationArgDepthTexture, u.Name, u.Name, binding, line)
			binding++
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (p *preProcessor) record(role AnnotationArg, varName, uniform string, binding, line int) {
	group := paramsGroup
	bindingIdx := binding
	p.declarations = append(p.declarations, Annotation{
		Type:    AnnotationTypeBindingGroup,
		Args:    []AnnotationArg{role, AnnotationArg(varName), AnnotationArg(uniform)},
		Line:    line,
		Group:   &group,
		Binding: &bindingIdx,
	})
}
