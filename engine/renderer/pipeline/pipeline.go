package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrUnknownUniform is returned when a value is set for a uniform the program does not declare.
var ErrUnknownUniform = errors.New("pipeline: unknown uniform")

// Texture is the view of a render target a pipeline can bind to a texture uniform.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	HasDepth() bool
}

// pipeline is the implementation of the Pipeline interface.
// It pairs a compiled shader permutation with its fixed-function state and the CPU-side uniform values
// that a backend uploads on every draw.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, the permutation label of its shader
	pipelineKey string

	shader shader.Shader

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState

	mu       sync.RWMutex
	values   map[string][4]float32
	textures map[string]Texture

	// handle is the backend-owned object (GPU pipelines, bind group caches) attached on first draw
	handle any
}

// Pipeline is a compiled program permutation ready to draw: the shader, the depth and blend state it is
// drawn with and the current value of every declared uniform. Uniform values persist across frames until
// they are set again.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader returns the compiled shader permutation this pipeline draws with.
	//
	// Returns:
	//   - shader.Shader: the compiled shader
	Shader() shader.Shader

	// Features returns the define flags the shader was compiled with.
	//
	// Returns:
	//   - shader.FeatureSet: the feature set of the permutation
	Features() shader.FeatureSet

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writing is enabled, false otherwise
	DepthWriteEnabled() bool

	// BlendEnabled returns whether blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled, false otherwise
	BlendEnabled() bool

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state configured for this pipeline.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state for this pipeline, used only when blending is enabled
	BlendState() *wgpu.BlendState

	// SetFloat sets a UniformFloat value.
	//
	// Parameters:
	//   - name: the uniform name
	//   - v: the value
	//
	// Returns:
	//   - error: ErrUnknownUniform if the program does not declare a float uniform with this name
	SetFloat(name string, v float32) error

	// SetVec2 sets a UniformVec2 value.
	//
	// Parameters:
	//   - name: the uniform name
	//   - x, y: the components
	//
	// Returns:
	//   - error: ErrUnknownUniform if the program does not declare a vec2 uniform with this name
	SetVec2(name string, x, y float32) error

	// SetVec4 sets a UniformVec4 value.
	//
	// Parameters:
	//   - name: the uniform name
	//   - v: the components
	//
	// Returns:
	//   - error: ErrUnknownUniform if the program does not declare a vec4 uniform with this name
	SetVec4(name string, v [4]float32) error

	// SetTexture binds a render target to a texture uniform. Depth texture uniforms bind the
	// target's depth attachment and require one.
	//
	// Parameters:
	//   - name: the uniform name
	//   - t: the render target to bind
	//
	// Returns:
	//   - error: ErrUnknownUniform for undeclared names, or an error if a depth uniform is given a target without depth
	SetTexture(name string, t Texture) error

	// Float returns the current value of a UniformFloat, zero if never set.
	Float(name string) float32

	// Vec2 returns the current value of a UniformVec2, zero if never set.
	Vec2(name string) [2]float32

	// Vec4 returns the current value of a UniformVec4, zero if never set.
	Vec4(name string) [4]float32

	// Texture returns the render target bound to a texture uniform, nil if never set.
	Texture(name string) Texture

	// UniformData packs the scalar and vector uniforms into the shader's Params buffer layout.
	//
	// Returns:
	//   - []float32: the buffer contents, nil when the program has no Params struct
	UniformData() []float32

	// Handle returns the backend-owned object attached to this pipeline.
	//
	// Returns:
	//   - any: the backend handle, nil before the first draw
	Handle() any

	// SetHandle attaches a backend-owned object to this pipeline.
	//
	// Parameters:
	//   - h: the backend handle
	SetHandle(h any)
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline from a compiled shader.
//
// Parameters:
//   - s: the compiled shader permutation
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(s shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	if s == nil {
		panic("pipeline: nil shader")
	}
	p := &pipeline{
		pipelineKey:       s.Key(),
		shader:            s,
		depthTestEnabled:  false,
		depthWriteEnabled: false,
		blendEnabled:      false,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
		values:   make(map[string][4]float32),
		textures: make(map[string]Texture),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) Features() shader.FeatureSet {
	return p.shader.Program().Features
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) SetFloat(name string, v float32) error {
	return p.setValue(name, shader.UniformFloat, [4]float32{v})
}

func (p *pipeline) SetVec2(name string, x, y float32) error {
	return p.setValue(name, shader.UniformVec2, [4]float32{x, y})
}

func (p *pipeline) SetVec4(name string, v [4]float32) error {
	return p.setValue(name, shader.UniformVec4, v)
}

func (p *pipeline) setValue(name string, kind shader.UniformKind, v [4]float32) error {
	u, ok := p.shader.Program().Uniform(name)
	if !ok || u.Kind != kind {
		return fmt.Errorf("%w %q in %s", ErrUnknownUniform, name, p.pipelineKey)
	}
	p.mu.Lock()
	p.values[name] = v
	p.mu.Unlock()
	return nil
}

func (p *pipeline) SetTexture(name string, t Texture) error {
	u, ok := p.shader.Program().Uniform(name)
	if !ok || !u.Kind.IsTexture() {
		return fmt.Errorf("%w %q in %s", ErrUnknownUniform, name, p.pipelineKey)
	}
	if u.Kind == shader.UniformDepthTexture && t != nil && !t.HasDepth() {
		return fmt.Errorf("pipeline: %s bound to %q has no depth attachment", t.Label(), name)
	}
	p.mu.Lock()
	p.textures[name] = t
	p.mu.Unlock()
	return nil
}

func (p *pipeline) Float(name string) float32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[name][0]
}

func (p *pipeline) Vec2(name string) [2]float32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v := p.values[name]
	return [2]float32{v[0], v[1]}
}

func (p *pipeline) Vec4(name string) [4]float32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.values[name]
}

func (p *pipeline) Texture(name string) Texture {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.textures[name]
}

func (p *pipeline) UniformData() []float32 {
	layout := p.shader.UniformLayout()
	if layout.Size == 0 {
		return nil
	}
	data := make([]float32, layout.Size/4)

	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, u := range p.shader.Program().Uniforms {
		off, ok := layout.Offsets[u.Name]
		if !ok {
			continue
		}
		v := p.values[u.Name]
		i := off / 4
		switch u.Kind {
		case shader.UniformFloat:
			data[i] = v[0]
		case shader.UniformVec2:
			copy(data[i:i+2], v[:2])
		case shader.UniformVec4:
			copy(data[i:i+4], v[:])
		}
	}
	return data
}

// UniformBytes returns the packed Params buffer as bytes for a GPU upload.
//
// Parameters:
//   - p: the pipeline to pack
//
// Returns:
//   - []byte: the buffer contents, nil when the program has no Params struct
func UniformBytes(p Pipeline) []byte {
	data := p.UniformData()
	if len(data) == 0 {
		return nil
	}
	return wgpu.ToBytes(data)
}

func (p *pipeline) Handle() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handle
}

func (p *pipeline) SetHandle(h any) {
	p.mu.Lock()
	p.handle = h
	p.mu.Unlock()
}
