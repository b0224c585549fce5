package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
)

// bandsPerWorker controls how finely a draw is split into row bands.
const bandsPerWorker = 4

// softwareRendererBackendImpl runs every program's Go fragment kernel over float32 targets.
// Row bands of a draw are shaded in parallel on a reusable worker pool.
type softwareRendererBackendImpl struct {
	mu *sync.Mutex

	// pool manages a bounded set of reusable goroutines for fragment shading.
	// A WaitGroup per draw provides the barrier since pool.Wait() blocks until
	// workers idle-exit which is unsuitable for frame-rate workloads.
	pool    worker.DynamicWorkerPool
	workers int

	surface     *softwareRenderTarget
	presentMode PresentMode

	inFrame bool
	frames  uint64
}

var _ RendererBackend = &softwareRendererBackendImpl{}

func newSoftwareRendererBackend(workers int) *softwareRendererBackendImpl {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &softwareRendererBackendImpl{
		mu:      &sync.Mutex{},
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers: workers,
		surface: newSoftwareRenderTarget("Surface", RenderTargetDescriptor{Filter: FilterNearest, Depth: true}),
	}
}

// SoftwareSurface returns the display surface of a renderer built with BackendTypeSoftware.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - SoftwareRenderTarget: the surface image
//   - bool: false if r does not use the software backend
func SoftwareSurface(r Renderer) (SoftwareRenderTarget, bool) {
	impl, ok := r.(*renderer)
	if !ok {
		return nil, false
	}
	b, ok := impl.backend.(*softwareRendererBackendImpl)
	if !ok {
		return nil, false
	}
	return b.surface, true
}

func (b *softwareRendererBackendImpl) SurfaceSize() common.Extent {
	return b.surface.Size()
}

func (b *softwareRendererBackendImpl) ConfigureSurface(width, height int) {
	_, _ = b.surface.Resize(uint32(max(width, 0)), uint32(max(height, 0)))
}

func (b *softwareRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode
}

func (b *softwareRendererBackendImpl) CreateRenderTarget(label string, desc RenderTargetDescriptor) (RenderTarget, error) {
	return newSoftwareRenderTarget(label, desc), nil
}

func (b *softwareRendererBackendImpl) RegisterPipeline(p pipeline.Pipeline) error {
	if p.Shader().Program().Kernel == nil {
		return fmt.Errorf("%w: program %s has no fragment kernel", ErrUnsupported, p.PipelineKey())
	}
	return nil
}

func (b *softwareRendererBackendImpl) ReleasePipeline(p pipeline.Pipeline) {
	p.SetHandle(nil)
}

// resolve maps a RenderTarget (nil for the surface) to a live software target.
func (b *softwareRendererBackendImpl) resolve(target RenderTarget) (*softwareRenderTarget, error) {
	if target == nil {
		return b.surface, nil
	}
	t, ok := target.(*softwareRenderTarget)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target.Label())
	}
	t.mu.RLock()
	released := t.released
	t.mu.RUnlock()
	if released {
		return nil, fmt.Errorf("%w: %s was released", ErrUnknownTarget, t.label)
	}
	return t, nil
}

func (b *softwareRendererBackendImpl) Clear(target RenderTarget, color [4]float32) error {
	dst, err := b.resolve(target)
	if err != nil {
		return err
	}
	dst.mu.Lock()
	dst.clear(color)
	dst.mu.Unlock()
	return nil
}

func (b *softwareRendererBackendImpl) Draw(p pipeline.Pipeline, target RenderTarget) error {
	dst, err := b.resolve(target)
	if err != nil {
		return err
	}
	program := p.Shader().Program()
	if program.Kernel == nil {
		return fmt.Errorf("%w: program %s has no fragment kernel", ErrUnsupported, p.PipelineKey())
	}

	values := make(map[string][4]float32)
	textures := make(map[string]*softwareRenderTarget)
	var sources []*softwareRenderTarget
	for _, u := range program.Uniforms {
		if !u.Kind.IsTexture() {
			values[u.Name] = p.Vec4(u.Name)
			continue
		}
		bound := p.Texture(u.Name)
		if bound == nil {
			return fmt.Errorf("renderer: %s uniform %q has no texture bound", p.PipelineKey(), u.Name)
		}
		rt, ok := bound.(RenderTarget)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTarget, bound.Label())
		}
		src, err := b.resolve(rt)
		if err != nil {
			return err
		}
		if src == dst {
			return fmt.Errorf("renderer: %s samples %s while drawing into it", p.PipelineKey(), dst.label)
		}
		textures[u.Name] = src
		seen := false
		for _, s := range sources {
			seen = seen || s == src
		}
		if !seen {
			sources = append(sources, src)
		}
	}

	for _, s := range sources {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	dst.mu.Lock()
	defer dst.mu.Unlock()

	width, height := int(dst.width), int(dst.height)
	if width == 0 || height == 0 {
		return nil
	}

	d := &softwareDraw{
		dst:        dst,
		kernel:     program.Kernel,
		features:   program.Features,
		values:     values,
		textures:   textures,
		res:        [2]float32{float32(width), float32(height)},
		depthTest:  p.DepthTestEnabled() && dst.hasDepth,
		depthWrite: p.DepthWriteEnabled() && dst.hasDepth,
		blend:      p.BlendEnabled(),
	}

	rowsPerBand := max(1, height/(b.workers*bandsPerWorker))
	var wg sync.WaitGroup
	taskID := 0
	for y0 := 0; y0 < height; y0 += rowsPerBand {
		y1 := min(y0+rowsPerBand, height)
		wg.Add(1)
		id := taskID
		taskID++
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				d.shadeRows(y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()
	return nil
}

func (b *softwareRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return errors.New("renderer: previous frame not yet presented")
	}
	b.inFrame = true
	return nil
}

func (b *softwareRendererBackendImpl) EndFrame() {}

func (b *softwareRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return
	}
	b.inFrame = false
	b.frames++
}

func (b *softwareRendererBackendImpl) ReadPixels(target RenderTarget) ([]float32, error) {
	src, err := b.resolve(target)
	if err != nil {
		return nil, err
	}
	src.mu.RLock()
	defer src.mu.RUnlock()
	return append([]float32(nil), src.color...), nil
}

func (b *softwareRendererBackendImpl) Release() {
	b.surface.Release()
}

// softwareDraw holds the immutable state of one fullscreen draw shared by all row bands.
type softwareDraw struct {
	dst        *softwareRenderTarget
	kernel     shader.FragmentFunc
	features   shader.FeatureSet
	values     map[string][4]float32
	textures   map[string]*softwareRenderTarget
	res        [2]float32
	depthTest  bool
	depthWrite bool
	blend      bool
}

// shadeRows runs the kernel for every pixel of rows [y0, y1).
func (d *softwareDraw) shadeRows(y0, y1 int) {
	in := &softwareFragment{draw: d}
	width := int(d.dst.width)
	for y := y0; y < y1; y++ {
		for x := 0; x < width; x++ {
			in.fc = [2]float32{float32(x) + 0.5, float32(y) + 0.5}
			out := d.kernel(in)
			if out.Discard {
				continue
			}

			pi := y*width + x
			if d.depthTest && !(out.Depth < d.dst.depth[pi]) {
				continue
			}
			if d.depthWrite {
				d.dst.depth[pi] = out.Depth
			}

			c := d.dst.color[pi*4 : pi*4+4]
			if d.blend {
				a := out.Color[3]
				c[0] = out.Color[0]*a + c[0]*(1-a)
				c[1] = out.Color[1]*a + c[1]*(1-a)
				c[2] = out.Color[2]*a + c[2]*(1-a)
				c[3] = a + c[3]*(1-a)
				continue
			}
			copy(c, out.Color[:])
		}
	}
}

// softwareFragment is the shader.FragmentInput handed to a kernel. One instance is reused per band.
type softwareFragment struct {
	draw *softwareDraw
	fc   [2]float32
}

var _ shader.FragmentInput = &softwareFragment{}

func (f *softwareFragment) FragCoord() [2]float32 {
	return f.fc
}

func (f *softwareFragment) Resolution() [2]float32 {
	return f.draw.res
}

func (f *softwareFragment) Defined(feature shader.Feature) bool {
	return f.draw.features.Has(feature)
}

func (f *softwareFragment) Float(name string) float32 {
	return f.draw.values[name][0]
}

func (f *softwareFragment) Vec2(name string) [2]float32 {
	v := f.draw.values[name]
	return [2]float32{v[0], v[1]}
}

func (f *softwareFragment) Vec4(name string) [4]float32 {
	return f.draw.values[name]
}

func (f *softwareFragment) Sample(name string, u, v float32) [4]float32 {
	t, ok := f.draw.textures[name]
	if !ok {
		return [4]float32{}
	}
	return t.sample(u, v)
}

func (f *softwareFragment) LoadDepth(name string, x, y int) float32 {
	t, ok := f.draw.textures[name]
	if !ok {
		return 1
	}
	return t.depthTexel(x, y)
}
