package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-post/common"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-post/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat    *wgpu.TextureFormat
	surfaceSize      common.Extent
	depthTexture     *wgpu.Texture
	depthTextureView *wgpu.TextureView

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	// Frame state: the acquired swapchain image, valid between BeginFrame and Present
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

// wgpuPipelineVariant identifies the render pipeline of a program for one kind of attachment set.
type wgpuPipelineVariant struct {
	format wgpu.TextureFormat
	depth  bool
}

// wgpuPipelineHandle is the GPU state attached to a pipeline.Pipeline. Render pipelines are created
// lazily per attachment variant since a program may draw into offscreen targets and the surface.
type wgpuPipelineHandle struct {
	module          *wgpu.ShaderModule
	bindGroupLayout *wgpu.BindGroupLayout
	pipelineLayout  *wgpu.PipelineLayout
	renderPipelines map[wgpuPipelineVariant]*wgpu.RenderPipeline
	uniformBuffer   *wgpu.Buffer
}

type wgpuRendererBackend interface {
	RendererBackend

	// Device returns the logical device.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue
}

var _ wgpuRendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuRendererBackendImpl) SurfaceSize() common.Extent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceSize
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.surfaceSize = common.Extent{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}
	if b.surfaceSize.Empty() {
		// minimized: keep the old configuration until a real size arrives
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
	}
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Surface Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) CreateRenderTarget(label string, desc RenderTargetDescriptor) (RenderTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	staging := desc.Filter.samplerStagingData()
	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(staging.AddressModeU, wgpu.AddressModeClampToEdge),
		AddressModeV:  common.Coalesce(staging.AddressModeV, wgpu.AddressModeClampToEdge),
		AddressModeW:  common.Coalesce(staging.AddressModeW, wgpu.AddressModeClampToEdge),
		MagFilter:     staging.MagFilter,
		MinFilter:     staging.MinFilter,
		MipmapFilter:  common.Coalesce(staging.MipmapFilter, wgpu.MipmapFilterModeNearest),
		LodMinClamp:   common.Coalesce(staging.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(staging.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(staging.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s sampler: %w", label, err)
	}

	t := &wgpuRenderTarget{
		mu:       &sync.Mutex{},
		backend:  b,
		label:    label,
		filter:   desc.Filter,
		hasDepth: desc.Depth,
		sampler:  samp,
	}
	if err := t.allocate(desc.Width, desc.Height); err != nil {
		samp.Release()
		return nil, err
	}
	return t, nil
}

func (b *wgpuRendererBackendImpl) RegisterPipeline(p pipeline.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := p.Shader()
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	})
	if err != nil {
		return err
	}

	h := &wgpuPipelineHandle{
		module:          module,
		renderPipelines: make(map[wgpuPipelineVariant]*wgpu.RenderPipeline),
	}

	var bindGroupLayouts []*wgpu.BindGroupLayout
	if desc, ok := s.BindGroupLayoutDescriptors()[0]; ok && len(desc.Entries) > 0 {
		sort.Slice(desc.Entries, func(i, j int) bool { return desc.Entries[i].Binding < desc.Entries[j].Binding })
		layout, layoutErr := b.device.CreateBindGroupLayout(&desc)
		if layoutErr != nil {
			module.Release()
			return fmt.Errorf("failed to create bind group layout for group 0: %w", layoutErr)
		}
		h.bindGroupLayout = layout
		bindGroupLayouts = append(bindGroupLayouts, layout)
	}

	h.pipelineLayout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		b.releaseHandle(h)
		return err
	}

	if size := s.UniformLayout().Size; size > 0 {
		h.uniformBuffer, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: p.PipelineKey() + " Params Buffer",
			Size:  size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			b.releaseHandle(h)
			return err
		}
	}

	p.SetHandle(h)
	return nil
}

// renderPipeline returns the render pipeline of p for a variant, creating it on first use.
// Caller must hold b.mu.
func (b *wgpuRendererBackendImpl) renderPipeline(p pipeline.Pipeline, h *wgpuPipelineHandle, variant wgpuPipelineVariant) (*wgpu.RenderPipeline, error) {
	if rp, ok := h.renderPipelines[variant]; ok {
		return rp, nil
	}
	s := p.Shader()

	var depthStencil *wgpu.DepthStencilState
	if variant.depth {
		depthCompare := wgpu.CompareFunctionLess
		if !p.DepthTestEnabled() {
			depthCompare = wgpu.CompareFunctionAlways
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: h.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     h.module,
			EntryPoint: s.EntryPoint(shader.ShaderTypeVertex),
		},
		Fragment: &wgpu.FragmentState{
			Module:     h.module,
			EntryPoint: s.EntryPoint(shader.ShaderTypeFragment),
			Targets: []wgpu.ColorTargetState{
				func() wgpu.ColorTargetState {
					state := wgpu.ColorTargetState{
						Format:    variant.format,
						WriteMask: p.WriteMask(),
					}
					if p.BlendEnabled() {
						state.Blend = p.BlendState()
					}
					return state
				}(),
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, err
	}
	h.renderPipelines[variant] = created
	return created, nil
}

func (b *wgpuRendererBackendImpl) ReleasePipeline(p pipeline.Pipeline) {
	h, ok := p.Handle().(*wgpuPipelineHandle)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseHandle(h)
	p.SetHandle(nil)
}

// releaseHandle frees every GPU object owned by h. Caller must hold b.mu.
func (b *wgpuRendererBackendImpl) releaseHandle(h *wgpuPipelineHandle) {
	for variant, rp := range h.renderPipelines {
		rp.Release()
		delete(h.renderPipelines, variant)
	}
	if h.uniformBuffer != nil {
		h.uniformBuffer.Release()
		h.uniformBuffer = nil
	}
	if h.pipelineLayout != nil {
		h.pipelineLayout.Release()
		h.pipelineLayout = nil
	}
	if h.bindGroupLayout != nil {
		h.bindGroupLayout.Release()
		h.bindGroupLayout = nil
	}
	if h.module != nil {
		h.module.Release()
		h.module = nil
	}
}

// attachments resolves the color and depth views and the color format of a target (nil for the surface).
// Caller must hold b.mu.
func (b *wgpuRendererBackendImpl) attachments(target RenderTarget) (*wgpu.TextureView, *wgpu.TextureView, wgpu.TextureFormat, error) {
	if target == nil {
		if b.frameView == nil {
			return nil, nil, 0, errors.New("renderer: no frame in progress, call BeginFrame first")
		}
		return b.frameView, b.depthTextureView, *b.surfaceFormat, nil
	}
	t, ok := target.(*wgpuRenderTarget)
	if !ok {
		return nil, nil, 0, fmt.Errorf("%w: %s", ErrUnknownTarget, target.Label())
	}
	color, depth, _, err := t.views()
	if err != nil {
		return nil, nil, 0, err
	}
	return color, depth, ColorFormat, nil
}

// submitPass records one render pass into a fresh encoder and submits it.
// Caller must hold b.mu.
func (b *wgpuRendererBackendImpl) submitPass(desc *wgpu.RenderPassDescriptor, record func(pass *wgpu.RenderPassEncoder)) error {
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(desc)
	if record != nil {
		record(pass)
	}
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Clear(target RenderTarget, color [4]float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	colorView, depthView, _, err := b.attachments(target)
	if err != nil {
		return err
	}
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    colorView,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3]),
				},
			},
		},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}
	return b.submitPass(desc, nil)
}

func (b *wgpuRendererBackendImpl) Draw(p pipeline.Pipeline, target RenderTarget) error {
	h, ok := p.Handle().(*wgpuPipelineHandle)
	if !ok {
		return fmt.Errorf("renderer: pipeline %s is not registered with the wgpu backend", p.PipelineKey())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	colorView, depthView, format, err := b.attachments(target)
	if err != nil {
		return err
	}
	rp, err := b.renderPipeline(p, h, wgpuPipelineVariant{format: format, depth: depthView != nil})
	if err != nil {
		return err
	}

	var bindGroup *wgpu.BindGroup
	if h.bindGroupLayout != nil {
		bindGroup, err = b.createBindGroup(p, h, target)
		if err != nil {
			return err
		}
		defer bindGroup.Release()
	}
	if h.uniformBuffer != nil {
		b.queue.WriteBuffer(h.uniformBuffer, 0, pipeline.UniformBytes(p))
	}

	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    colorView,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	}
	if depthView != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:         depthView,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
	}

	return b.submitPass(desc, func(pass *wgpu.RenderPassEncoder) {
		pass.SetPipeline(rp)
		if bindGroup != nil {
			pass.SetBindGroup(0, bindGroup, nil)
		}
		pass.Draw(3, 1, 0, 0)
	})
}

// createBindGroup builds the group 0 bind group from the generated binding declarations and the
// pipeline's current texture bindings. Caller must hold b.mu.
func (b *wgpuRendererBackendImpl) createBindGroup(p pipeline.Pipeline, h *wgpuPipelineHandle, target RenderTarget) (*wgpu.BindGroup, error) {
	decls := p.Shader().Declarations()
	entries := make([]wgpu.BindGroupEntry, 0, len(decls))
	for _, decl := range decls {
		if decl.Type != shader.AnnotationTypeBindingGroup || decl.Binding == nil {
			continue
		}
		binding := uint32(*decl.Binding)
		role := decl.Args[0]
		if role == shader.AnnotationArgParams {
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: binding,
				Buffer:  h.uniformBuffer,
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
			continue
		}

		uniform := string(decl.Args[2])
		bound, ok := p.Texture(uniform).(*wgpuRenderTarget)
		if !ok {
			return nil, fmt.Errorf("renderer: %s uniform %q has no wgpu texture bound", p.PipelineKey(), uniform)
		}
		if target != nil && RenderTarget(bound) == target {
			return nil, fmt.Errorf("renderer: %s samples %s while drawing into it", p.PipelineKey(), bound.label)
		}
		color, depth, samp, err := bound.views()
		if err != nil {
			return nil, err
		}
		switch role {
		case shader.AnnotationArgTexture:
			entries = append(entries, wgpu.BindGroupEntry{Binding: binding, TextureView: color})
		case shader.AnnotationArgSampler:
			entries = append(entries, wgpu.BindGroupEntry{Binding: binding, Sampler: samp})
		case shader.AnnotationArgDepthTexture:
			if depth == nil {
				return nil, fmt.Errorf("renderer: %s bound to %q has no depth attachment", bound.label, uniform)
			}
			entries = append(entries, wgpu.BindGroupEntry{Binding: binding, TextureView: depth})
		}
	}

	return b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   p.PipelineKey() + " Bind Group",
		Layout:  h.bindGroupLayout,
		Entries: entries,
	})
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If a previous frame's surface texture is still held, avoid acquiring another one.
	// This prevents wgpu-native validation errors like "Surface image is already acquired".
	if b.frameSurface != nil {
		return errors.New("renderer: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	return nil
}

// EndFrame is a no-op: every pass is submitted as soon as it is recorded.
func (b *wgpuRendererBackendImpl) EndFrame() {}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// If no frame surface is held, nothing to present.
	if b.frameSurface == nil {
		return
	}

	// Present the acquired surface image and release local references.
	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) ReadPixels(target RenderTarget) ([]float32, error) {
	return nil, fmt.Errorf("%w: wgpu read back", ErrUnsupported)
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
