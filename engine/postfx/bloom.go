package postfx

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-post/engine/scene"
)

// ErrAlreadyAttached is returned when an effect or compositor is attached to a second scene.
var ErrAlreadyAttached = errors.New("postfx: already attached to a scene")

// bloomEffect is the implementation of the BloomEffect interface.
type bloomEffect struct {
	mu *sync.Mutex

	r       renderer.Renderer
	buffers [2]renderer.RenderTarget
	bright  pipeline.Pipeline
	blur    pipeline.Pipeline

	schedule  BlurSchedule
	exponent  float32
	offset    float32
	intensity float32

	// output is the index of the buffer holding the last rendered result
	output   int
	attached bool
}

// BloomEffect is a Kawase bloom at half the surface resolution. Every frame it extracts the bright
// parts of the scene image with pow(color, exponent) + offset into the first of two ping-pong buffers,
// then blurs back and forth between them once per radius of its schedule. The buffer holding the last
// iteration is exposed to the compositor together with the intensity it is blended with.
type BloomEffect interface {
	Effect

	// Schedule returns the blur radii.
	//
	// Returns:
	//   - BlurSchedule: a copy of the schedule
	Schedule() BlurSchedule

	// SetSchedule replaces the blur radii. Takes effect on the next frame.
	//
	// Parameters:
	//   - schedule: the radii, may be empty
	SetSchedule(schedule BlurSchedule)

	// Threshold returns the bright pass curve.
	//
	// Returns:
	//   - exponent: the power the color is raised to
	//   - offset: the value added after the power curve
	Threshold() (exponent, offset float32)

	// SetThreshold sets the bright pass curve. Values are not range checked.
	//
	// Parameters:
	//   - exponent: the power the color is raised to
	//   - offset: the value added after the power curve
	SetThreshold(exponent, offset float32)

	// Intensity returns the weight the compositor multiplies the bloom buffer by.
	//
	// Returns:
	//   - float32: the intensity
	Intensity() float32

	// SetIntensity sets the blend weight. Any finite value is accepted, including negative values.
	//
	// Parameters:
	//   - intensity: the new weight
	SetIntensity(intensity float32)

	// Buffers returns the two ping-pong buffers, nil before Attach.
	//
	// Returns:
	//   - [2]renderer.RenderTarget: buffer 0 receives the bright pass
	Buffers() [2]renderer.RenderTarget

	// OutputIndex returns which buffer holds the current bloom image: len(schedule) mod 2 after a render.
	//
	// Returns:
	//   - int: 0 or 1
	OutputIndex() int

	// Output returns the buffer holding the current bloom image.
	//
	// Returns:
	//   - renderer.RenderTarget: the output buffer, nil before Attach
	Output() renderer.RenderTarget

	// ResizeIfNeeded sizes both buffers to half the surface, rounding up. Buffers already at that
	// size are left alone.
	//
	// Parameters:
	//   - surface: the display surface size
	//
	// Returns:
	//   - bool: true if any buffer was reallocated
	//   - error: an allocation error
	ResizeIfNeeded(surface common.Extent) (bool, error)

	// Render runs the bright pass from src and the blur schedule.
	//
	// Parameters:
	//   - src: the scene image
	//
	// Returns:
	//   - error: a draw error
	Render(src renderer.RenderTarget) error
}

var _ BloomEffect = &bloomEffect{}

// NewBloomEffect creates a bloom with the 1 2 3 4 schedule, exponent 16, offset 0 and intensity 1.
// GPU resources are created when it is added to a scene.
//
// Parameters:
//   - options: functional options to override the defaults
//
// Returns:
//   - BloomEffect: the new effect
func NewBloomEffect(options ...BloomBuilderOption) BloomEffect {
	b := &bloomEffect{
		mu:        &sync.Mutex{},
		schedule:  DefaultBlurSchedule(),
		exponent:  16,
		offset:    0,
		intensity: 1,
	}
	for _, option := range options {
		option(b)
	}
	return b
}

func (b *bloomEffect) Name() string {
	return "bloom"
}

func (b *bloomEffect) Stage() scene.Stage {
	return scene.StageEffect
}

func (b *bloomEffect) Feature() shader.Feature {
	return shader.FeatureBlendBloom
}

func (b *bloomEffect) Uniforms() []shader.Uniform {
	return slices.Clone(featureUniforms[shader.FeatureBlendBloom])
}

func (b *bloomEffect) Bind(p pipeline.Pipeline) error {
	return errors.Join(
		p.SetTexture("bloomTexture", b.Output()),
		p.SetFloat("bloomIntensity", b.Intensity()),
	)
}

func (b *bloomEffect) Attach(s scene.Scene) error {
	b.mu.Lock()
	if b.attached {
		b.mu.Unlock()
		return ErrAlreadyAttached
	}

	r := s.Renderer()
	var err error
	for i, label := range []string{"Bloom Ping", "Bloom Pong"} {
		// real sizing happens on the first frame
		b.buffers[i], err = r.CreateRenderTarget(label, renderer.RenderTargetDescriptor{Width: 1, Height: 1, Filter: renderer.FilterLinear})
		if err != nil {
			b.releaseBuffers()
			b.mu.Unlock()
			return fmt.Errorf("bloom: %w", err)
		}
	}
	if b.bright, err = r.CompileProgram(brightProgram()); err == nil {
		b.blur, err = r.CompileProgram(blurProgram())
	}
	if err != nil {
		b.releaseBuffers()
		b.mu.Unlock()
		return err
	}
	b.r = r
	b.output = 0
	b.attached = true
	b.mu.Unlock()

	s.Emit(EventPipelineModified)
	return nil
}

func (b *bloomEffect) Detach(s scene.Scene) {
	b.mu.Lock()
	if !b.attached {
		b.mu.Unlock()
		return
	}
	// the bright and blur pipelines stay in the renderer's cache for the next attach
	b.releaseBuffers()
	b.bright, b.blur, b.r = nil, nil, nil
	b.attached = false
	b.mu.Unlock()

	s.Emit(EventPipelineModified)
}

// releaseBuffers frees both ping-pong buffers. Caller must hold b.mu.
func (b *bloomEffect) releaseBuffers() {
	for i, rt := range b.buffers {
		if rt != nil {
			rt.Release()
			b.buffers[i] = nil
		}
	}
}

func (b *bloomEffect) Tick(s scene.Scene, deltaTime float32) error {
	return nil
}

func (b *bloomEffect) Tock(s scene.Scene, deltaTime float32) error {
	src := s.RenderTarget()
	if src == nil {
		return nil
	}
	surface := s.Renderer().SurfaceSize()
	if surface.Empty() {
		return nil
	}
	if _, err := b.ResizeIfNeeded(surface); err != nil {
		return err
	}
	return b.Render(src)
}

func (b *bloomEffect) ResizeIfNeeded(surface common.Extent) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	half := surface.Half()
	resized := false
	for _, rt := range b.buffers {
		if rt == nil || rt.Size() == half {
			continue
		}
		changed, err := rt.Resize(half.Width, half.Height)
		if err != nil {
			return resized, fmt.Errorf("bloom: resize %s: %w", rt.Label(), err)
		}
		resized = resized || changed
	}
	if resized {
		common.Logger().Debug("bloom buffers resized", "width", half.Width, "height", half.Height)
	}
	return resized, nil
}

func (b *bloomEffect) Render(src renderer.RenderTarget) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return nil
	}

	if err := errors.Join(
		b.bright.SetTexture("srcTexture", src),
		b.bright.SetVec2("threxp", b.exponent, b.offset),
	); err != nil {
		return err
	}
	if err := b.r.DrawFullscreen(b.bright, b.buffers[0]); err != nil {
		return fmt.Errorf("bloom bright pass: %w", err)
	}

	for i, radius := range b.schedule {
		read, write := b.buffers[i%2], b.buffers[(i+1)%2]
		size := write.Size()
		if err := errors.Join(
			b.blur.SetTexture("srcTexture", read),
			b.blur.SetVec2("pixelSize", 1/float32(size.Width), 1/float32(size.Height)),
			b.blur.SetFloat("iteration", radius),
		); err != nil {
			return err
		}
		if err := b.r.DrawFullscreen(b.blur, write); err != nil {
			return fmt.Errorf("bloom blur pass %d: %w", i, err)
		}
	}
	b.output = len(b.schedule) % 2
	return nil
}

func (b *bloomEffect) Schedule() BlurSchedule {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.schedule)
}

func (b *bloomEffect) SetSchedule(schedule BlurSchedule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.schedule = slices.Clone(schedule)
}

func (b *bloomEffect) Threshold() (float32, float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.exponent, b.offset
}

func (b *bloomEffect) SetThreshold(exponent, offset float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.exponent, b.offset = exponent, offset
}

func (b *bloomEffect) Intensity() float32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.intensity
}

func (b *bloomEffect) SetIntensity(intensity float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.intensity = intensity
}

func (b *bloomEffect) Buffers() [2]renderer.RenderTarget {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffers
}

func (b *bloomEffect) OutputIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.output
}

func (b *bloomEffect) Output() renderer.RenderTarget {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffers[b.output]
}
