package shader

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
	"sync"
)

// Feature is a single compile-time define flag. Each registered feature owns one bit of a FeatureSet.
type Feature uint32

// FeatureSet is a bitset of enabled Features. It is the identity of a shader permutation:
// two programs built from the same source and the same FeatureSet are interchangeable.
type FeatureSet uint32

const (
	// FeatureBlendBloom adds the bloom buffer term to the composite blend.
	FeatureBlendBloom Feature = 1 << iota

	// FeatureBlendDepth drives the glyph/smooth split from linearized scene depth.
	FeatureBlendDepth
)

var (
	featureMu    sync.RWMutex
	featureNames = map[Feature]string{
		FeatureBlendBloom: "BLEND_BLOOM",
		FeatureBlendDepth: "BLEND_DEPTH",
	}
	nextFeature = FeatureBlendDepth << 1
)

// RegisterFeature returns the Feature bound to name, allocating a new bit the first time a name is seen.
// Effects that contribute their own define blocks register their flag once at package init.
//
// Parameters:
//   - name: the define name as written in //@oxy:if annotations
//
// Returns:
//   - Feature: the feature bit for name
func RegisterFeature(name string) Feature {
	featureMu.Lock()
	defer featureMu.Unlock()

	for f, n := range featureNames {
		if n == name {
			return f
		}
	}
	if nextFeature == 0 {
		panic(fmt.Sprintf("shader: feature bits exhausted registering %q", name))
	}
	f := nextFeature
	featureNames[f] = name
	nextFeature <<= 1
	return f
}

// LookupFeature resolves a define name to its Feature.
//
// Parameters:
//   - name: the define name
//
// Returns:
//   - Feature: the feature bit
//   - bool: false if the name was never registered
func LookupFeature(name string) (Feature, bool) {
	featureMu.RLock()
	defer featureMu.RUnlock()

	for f, n := range featureNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

// String returns the define name of the feature.
func (f Feature) String() string {
	featureMu.RLock()
	defer featureMu.RUnlock()

	if n, ok := featureNames[f]; ok {
		return n
	}
	return fmt.Sprintf("FEATURE_%d", bits.TrailingZeros32(uint32(f)))
}

// Has reports whether f is enabled in the set.
func (s FeatureSet) Has(f Feature) bool {
	return uint32(s)&uint32(f) != 0
}

// With returns a copy of the set with f enabled.
func (s FeatureSet) With(f Feature) FeatureSet {
	return s | FeatureSet(f)
}

// Features lists the enabled features in ascending bit order.
func (s FeatureSet) Features() []Feature {
	out := make([]Feature, 0, bits.OnesCount32(uint32(s)))
	for v := uint32(s); v != 0; v &= v - 1 {
		out = append(out, Feature(v&-v))
	}
	return out
}

// String renders the set as sorted define names joined by "|", or "none".
func (s FeatureSet) String() string {
	if s == 0 {
		return "none"
	}
	names := make([]string, 0, bits.OnesCount32(uint32(s)))
	for _, f := range s.Features() {
		names = append(names, f.String())
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

// UniformKind is the type of a named program parameter.
type UniformKind int

const (
	// UniformFloat is a single f32 packed into the Params struct.
	UniformFloat UniformKind = iota

	// UniformVec2 is a vec2<f32> packed into the Params struct.
	UniformVec2

	// UniformVec4 is a vec4<f32> packed into the Params struct.
	UniformVec4

	// UniformTexture is a filterable color texture bound with its own sampler.
	UniformTexture

	// UniformDepthTexture is a depth texture read with textureLoad (no sampler).
	UniformDepthTexture
)

// wgslType returns the WGSL type emitted for the uniform.
func (k UniformKind) wgslType() string {
	switch k {
	case UniformFloat:
		return "f32"
	case UniformVec2:
		return "vec2<f32>"
	case UniformVec4:
		return "vec4<f32>"
	case UniformTexture:
		return "texture_2d<f32>"
	case UniformDepthTexture:
		return "texture_depth_2d"
	}
	return ""
}

// IsTexture reports whether the uniform occupies its own binding instead of a Params field.
func (k UniformKind) IsTexture() bool {
	return k == UniformTexture || k == UniformDepthTexture
}

// Uniform declares one named program parameter.
type Uniform struct {
	Name string
	Kind UniformKind
}

// UniformLayout describes where each scalar/vector uniform lives inside the Params buffer.
type UniformLayout struct {
	// Offsets maps a uniform name to its byte offset.
	Offsets map[string]uint64
	// Size is the total buffer size, rounded up to 16 bytes. Zero when no Params struct is emitted.
	Size uint64
}

// LayoutUniforms places the non-texture uniforms in declaration order using WGSL uniform
// address space alignment rules.
//
// Parameters:
//   - uniforms: the program's uniform declarations
//
// Returns:
//   - UniformLayout: the computed offsets and buffer size
func LayoutUniforms(uniforms []Uniform) UniformLayout {
	layout := UniformLayout{Offsets: make(map[string]uint64)}
	offset := uint64(0)
	hasParams := false
	for _, u := range uniforms {
		if u.Kind.IsTexture() {
			continue
		}
		tl := paramsFieldLayouts[u.Kind.wgslType()]
		offset = roundUpAlign(tl.align, offset)
		layout.Offsets[u.Name] = offset
		offset += tl.size
		hasParams = true
	}
	if hasParams {
		layout.Size = roundUpAlign(16, offset)
	}
	return layout
}

// FragmentInput is what a Go fragment kernel can read for the pixel being shaded.
// It mirrors the WGSL builtins and bindings a program declares.
type FragmentInput interface {
	// FragCoord returns the pixel-center framebuffer coordinate (x+0.5, y+0.5), origin top-left.
	FragCoord() [2]float32

	// Resolution returns the size of the target being drawn.
	Resolution() [2]float32

	// Defined reports whether the program was built with f enabled.
	Defined(f Feature) bool

	// Float returns a UniformFloat value.
	Float(name string) float32

	// Vec2 returns a UniformVec2 value.
	Vec2(name string) [2]float32

	// Vec4 returns a UniformVec4 value.
	Vec4(name string) [4]float32

	// Sample samples a UniformTexture at normalized uv with the texture's own filter, clamp-to-edge.
	Sample(name string, u, v float32) [4]float32

	// LoadDepth reads a UniformDepthTexture texel by integer coordinate, clamped to the edge.
	LoadDepth(name string, x, y int) float32
}

// FragmentOutput is the result of one kernel invocation.
type FragmentOutput struct {
	Color   [4]float32
	Depth   float32
	Discard bool
}

// FragmentFunc is the Go rendition of a program's fragment stage, run by the software backend.
type FragmentFunc func(in FragmentInput) FragmentOutput

// Program is a shader program descriptor: WGSL source with @oxy: annotations, the feature
// set baked into it, its uniform declarations and the equivalent Go fragment kernel.
// A Program is immutable once compiled; a different feature set means a different Program.
type Program struct {
	// Key identifies the program family (e.g. "composite"). Permutations share a key.
	Key string

	// Source holds the WGSL module containing both the @vertex and @fragment entry points.
	Source string

	// Features are the defines enabled for this permutation.
	Features FeatureSet

	// Uniforms are the declared parameters in binding order.
	Uniforms []Uniform

	// Kernel is the Go fragment stage used by the software backend.
	Kernel FragmentFunc
}

// Label returns the program key followed by its feature set, e.g. "composite[BLEND_BLOOM|BLEND_DEPTH]".
//
// Returns:
//   - string: a human readable permutation name
func (p *Program) Label() string {
	return fmt.Sprintf("%s[%s]", p.Key, p.Features)
}

// Uniform looks up a uniform declaration by name.
//
// Parameters:
//   - name: the uniform name
//
// Returns:
//   - Uniform: the declaration
//   - bool: false if the program does not declare name
func (p *Program) Uniform(name string) (Uniform, bool) {
	for _, u := range p.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return Uniform{}, false
}
