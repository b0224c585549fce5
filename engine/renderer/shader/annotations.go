// annotations.go defines the annotation types, argument constants, and parser for the
// Oxy WGSL shader pre-processor. Annotations are single-line WGSL comments prefixed
// with @oxy: that drive snippet injection, uniform binding generation, and feature
// (define) blocks. The parsed results are stored as Annotation values and consumed
// by the PreProcessor.
package shader

import (
	"fmt"
	"slices"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects a registered WGSL snippet at the annotation site.
	//
	// Syntax: //@oxy:include <snippet>
	//
	// Example: //@oxy:include fullscreen_vertex
	annotationTypeInclude AnnotationType = "include"

	// annotationTypeUniforms expands into the Params struct, its uniform binding and one
	// binding per texture uniform (plus a sampler for color textures), in declaration order.
	//
	// Syntax: //@oxy:uniforms
	annotationTypeUniforms AnnotationType = "uniforms"

	// annotationTypeIf opens a block kept only when the named feature is enabled.
	//
	// Syntax: //@oxy:if <FEATURE>
	annotationTypeIf AnnotationType = "if"

	// annotationTypeElse flips the innermost open if block.
	//
	// Syntax: //@oxy:else
	annotationTypeElse AnnotationType = "else"

	// annotationTypeEndIf closes the innermost open if block.
	//
	// Syntax: //@oxy:endif
	annotationTypeEndIf AnnotationType = "endif"

	// AnnotationTypeBindingGroup is never written by hand. The pre-processor records one
	// declaration of this type for every binding it generates from //@oxy:uniforms so that
	// backends can wire resources by uniform name.
	AnnotationTypeBindingGroup AnnotationType = "group"
)

// Annotation represents a single parsed @oxy: annotation, or a binding generated from one.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include: [0] = snippet key
	//   - if:      [0] = feature name
	//   - group:   [0] = binding role, [1] = WGSL variable name, [2] = owning uniform name
	Args []AnnotationArg

	// Line is the 1-based line number in the original WGSL source where this annotation
	// was found. Used for error reporting.
	Line int

	// Group is the @group index for generated bindings. Nil for parsed annotations.
	Group *int

	// Binding is the @binding index for generated bindings. Nil for parsed annotations.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
type AnnotationArg string

// ── Snippet arguments ──────────────────────────────────────────────────────────
// These identify embedded WGSL snippets injected by @oxy:include.

const (
	// AnnotationArgFullscreenVertex identifies the fullscreen-triangle VertexOutput struct and builder.
	// Source: engine/renderer/shader/assets/fullscreen_vertex.wgsl
	AnnotationArgFullscreenVertex AnnotationArg = "fullscreen_vertex"

	// AnnotationArgGlyph identifies the glyph band and ink helpers.
	// Source: engine/renderer/shader/assets/glyph.wgsl
	AnnotationArgGlyph AnnotationArg = "glyph"

	// AnnotationArgDepth identifies the depth linearization and split helpers.
	// Source: engine/renderer/shader/assets/depth.wgsl
	AnnotationArgDepth AnnotationArg = "depth"
)

// ── Binding role arguments ─────────────────────────────────────────────────────
// These qualify generated bindings recorded in the declarations list.

const (
	// AnnotationArgParams marks the Params uniform buffer binding.
	AnnotationArgParams AnnotationArg = "params"

	// AnnotationArgTexture marks a color texture binding.
	AnnotationArgTexture AnnotationArg = "texture"

	// AnnotationArgSampler marks the sampler paired with a color texture.
	AnnotationArgSampler AnnotationArg = "sampler"

	// AnnotationArgDepthTexture marks a depth texture binding.
	AnnotationArgDepthTexture AnnotationArg = "depth_texture"
)

// validSnippets lists all AnnotationArg values accepted by @oxy:include.
var validSnippets = []AnnotationArg{
	AnnotationArgFullscreenVertex,
	AnnotationArgGlyph,
	AnnotationArgDepth,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix. Returns
// a populated Annotation for valid annotations, or an error describing the problem for
// malformed annotations with correct prefix but invalid syntax or unknown arguments.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "//") {
		return nil, nil
	}
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	switch AnnotationType(args[0]) {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validSnippets, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown snippet %q in @oxy include annotation", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeInclude, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	case annotationTypeIf:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy if annotation requires exactly one feature name", lineNum)
		}
		if _, ok := LookupFeature(args[1]); !ok {
			return nil, fmt.Errorf("line %d: unknown feature %q in @oxy if annotation", lineNum, args[1])
		}
		return &Annotation{Type: annotationTypeIf, Args: []AnnotationArg{AnnotationArg(args[1])}, Line: lineNum}, nil
	case annotationTypeUniforms, annotationTypeElse, annotationTypeEndIf:
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy %s annotation takes no arguments", lineNum, args[0])
		}
		return &Annotation{Type: AnnotationType(args[0]), Line: lineNum}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
}
