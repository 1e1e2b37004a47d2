package renderer

import (
	_ "embed"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

//go:embed assets/composite.wgsl
var compositeSource string

//go:embed assets/mesh_warp.wgsl
var meshWarpSource string

//go:embed assets/waveform.wgsl
var waveformSource string

//go:embed assets/blit.wgsl
var blitSource string

// wgpuBackend owns the GPU device, the ping-pong texture pair, and the
// four fixed pipelines of the feedback loop. Pipelines are created once at
// construction; only textures and their bind groups are recreated on
// resize.
type wgpuBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	width, height int

	// Ping-pong pair. textures[pp.Prev()] is sampled, textures[pp.Curr()]
	// is the frame's render target.
	textures [2]*wgpu.Texture
	views    [2]*wgpu.TextureView
	pp       pingPong

	sampler *wgpu.Sampler

	// Fixed pipelines.
	compositePipeline *wgpu.RenderPipeline
	meshPipeline      *wgpu.RenderPipeline
	wavePipeline      *wgpu.RenderPipeline
	blitPipeline      *wgpu.RenderPipeline

	feedbackLayout *wgpu.BindGroupLayout
	waveLayout     *wgpu.BindGroupLayout
	blitLayout     *wgpu.BindGroupLayout

	// Per-orientation bind groups: feedbackGroups[i] samples textures[i].
	feedbackGroups [2]*wgpu.BindGroup
	blitGroups     [2]*wgpu.BindGroup
	waveGroup      *wgpu.BindGroup

	frameUniformBuffer *wgpu.Buffer
	waveUniformBuffer  *wgpu.Buffer
	waveStorageBuffer  *wgpu.Buffer

	meshVertexBuffer *wgpu.Buffer
	meshUVBuffer     *wgpu.Buffer
	meshIndexBuffer  *wgpu.Buffer
	meshIndexCount   int

	// Reusable marshal scratch so the per-frame path does not allocate.
	frameScratch [FrameUniformsSize]byte
	waveScratch  [WaveUniformsSize]byte
	pointScratch []byte
	uvScratch    []byte
}

func newWGPUBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, cfg *rendererConfig) *wgpuBackend {
	runtime.LockOSThread()

	b := &wgpuBackend{
		instance: wgpu.CreateInstance(nil),
		width:    width,
		height:   height,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: b.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: no compatible GPU adapter: %v", err))
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "OneDrop Device",
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: device request failed: %v", err))
	}
	b.device = device
	b.queue = device.GetQueue()

	b.configureSurface(width, height)
	b.createSampler()
	b.createBuffers(cfg)
	b.createPipelines()
	b.createTextures(width, height)

	return b
}

func (b *wgpuBackend) configureSurface(width, height int) {
	caps := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = caps.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})
	b.width, b.height = width, height
}

func (b *wgpuBackend) createSampler() {
	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Feedback Sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: sampler creation failed: %v", err))
	}
	b.sampler = sampler
}

func (b *wgpuBackend) createBuffers(cfg *rendererConfig) {
	mustBuffer := func(label string, size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: label,
			Size:  size,
			Usage: usage,
		})
		if err != nil {
			panic(fmt.Sprintf("renderer: buffer %q creation failed: %v", label, err))
		}
		return buf
	}

	b.frameUniformBuffer = mustBuffer("Frame Uniforms", FrameUniformsSize,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	b.waveUniformBuffer = mustBuffer("Wave Uniforms", WaveUniformsSize,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	b.waveStorageBuffer = mustBuffer("Wave Points", MaxWavePoints*WavePointSize,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	b.pointScratch = make([]byte, MaxWavePoints*WavePointSize)

	mesh := NewWarpMesh(cfg.meshCols, cfg.meshRows)
	b.meshIndexCount = len(mesh.Indices)
	b.uvScratch = make([]byte, len(mesh.UV)*4)

	b.meshVertexBuffer = mustBuffer("Warp Mesh Positions", uint64(len(mesh.Positions)*4),
		wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
	b.queue.WriteBuffer(b.meshVertexBuffer, 0, f32Bytes(mesh.Positions))

	b.meshUVBuffer = mustBuffer("Warp Mesh UVs", uint64(len(mesh.UV)*4),
		wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst)
	b.queue.WriteBuffer(b.meshUVBuffer, 0, f32Bytes(mesh.UV))

	b.meshIndexBuffer = mustBuffer("Warp Mesh Indices", uint64(len(mesh.Indices)*4),
		wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst)
	b.queue.WriteBuffer(b.meshIndexBuffer, 0, u32Bytes(mesh.Indices))
}

func (b *wgpuBackend) createPipelines() {
	compositeModule := b.mustShaderModule("Composite Shader", compositeSource)
	meshModule := b.mustShaderModule("Mesh Warp Shader", meshWarpSource)
	waveModule := b.mustShaderModule("Waveform Shader", waveformSource)
	blitModule := b.mustShaderModule("Blit Shader", blitSource)

	b.feedbackLayout = b.mustBindGroupLayout("Feedback Layout", []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: FrameUniformsSize,
			},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
		{
			Binding:    2,
			Visibility: wgpu.ShaderStageFragment,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		},
	})

	b.waveLayout = b.mustBindGroupLayout("Waveform Layout", []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: WaveUniformsSize,
			},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type: wgpu.BufferBindingTypeReadOnlyStorage,
			},
		},
	})

	b.blitLayout = b.mustBindGroupLayout("Blit Layout", []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageFragment,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		},
	})

	additive := &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
		},
	}

	b.compositePipeline = b.mustRenderPipeline("Composite", compositeModule, b.feedbackLayout,
		nil, wgpu.PrimitiveTopologyTriangleStrip, b.surfaceFormat, nil)

	meshLayouts := []wgpu.VertexBufferLayout{
		{
			ArrayStride: 8,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
		{
			ArrayStride: 8,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},
			},
		},
	}
	b.meshPipeline = b.mustRenderPipeline("Mesh Warp", meshModule, b.feedbackLayout,
		meshLayouts, wgpu.PrimitiveTopologyTriangleList, b.surfaceFormat, nil)

	b.wavePipeline = b.mustRenderPipeline("Waveform", waveModule, b.waveLayout,
		nil, wgpu.PrimitiveTopologyTriangleList, b.surfaceFormat, additive)

	b.blitPipeline = b.mustRenderPipeline("Blit", blitModule, b.blitLayout,
		nil, wgpu.PrimitiveTopologyTriangleStrip, b.surfaceFormat, nil)
}

func (b *wgpuBackend) mustShaderModule(label, source string) *wgpu.ShaderModule {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: shader %q compile failed: %v", label, err))
	}
	return module
}

func (b *wgpuBackend) mustBindGroupLayout(label string, entries []wgpu.BindGroupLayoutEntry) *wgpu.BindGroupLayout {
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: bind group layout %q failed: %v", label, err))
	}
	return layout
}

func (b *wgpuBackend) mustRenderPipeline(
	label string,
	module *wgpu.ShaderModule,
	bindLayout *wgpu.BindGroupLayout,
	vertexLayouts []wgpu.VertexBufferLayout,
	topology wgpu.PrimitiveTopology,
	format wgpu.TextureFormat,
	blend *wgpu.BlendState,
) *wgpu.RenderPipeline {
	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label + " Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bindLayout},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: pipeline layout %q failed: %v", label, err))
	}

	pipeline, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					Blend:     blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: pipeline %q failed: %v", label, err))
	}
	return pipeline
}

// createTextures (re)creates the ping-pong pair and every bind group that
// references it. The pair matches the surface format so the blit stays a
// plain sample.
func (b *wgpuBackend) createTextures(width, height int) {
	for i := 0; i < 2; i++ {
		if b.views[i] != nil {
			b.views[i].Release()
		}
		if b.textures[i] != nil {
			b.textures[i].Release()
		}

		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: fmt.Sprintf("Feedback Texture %d", i),
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		})
		if err != nil {
			panic(fmt.Sprintf("renderer: feedback texture creation failed: %v", err))
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			panic(fmt.Sprintf("renderer: feedback view creation failed: %v", err))
		}
		b.textures[i] = tex
		b.views[i] = view
	}

	for i := 0; i < 2; i++ {
		feedback, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("Feedback Bind Group %d", i),
			Layout: b.feedbackLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: b.frameUniformBuffer, Size: wgpu.WholeSize},
				{Binding: 1, TextureView: b.views[i]},
				{Binding: 2, Sampler: b.sampler},
			},
		})
		if err != nil {
			panic(fmt.Sprintf("renderer: feedback bind group failed: %v", err))
		}
		b.feedbackGroups[i] = feedback

		blit, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("Blit Bind Group %d", i),
			Layout: b.blitLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: b.views[i]},
				{Binding: 1, Sampler: b.sampler},
			},
		})
		if err != nil {
			panic(fmt.Sprintf("renderer: blit bind group failed: %v", err))
		}
		b.blitGroups[i] = blit
	}

	if b.waveGroup == nil {
		waveGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "Waveform Bind Group",
			Layout: b.waveLayout,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: b.waveUniformBuffer, Size: wgpu.WholeSize},
				{Binding: 1, Buffer: b.waveStorageBuffer, Size: wgpu.WholeSize},
			},
		})
		if err != nil {
			panic(fmt.Sprintf("renderer: waveform bind group failed: %v", err))
		}
		b.waveGroup = waveGroup
	}
}

// Resize reconfigures the surface and rebuilds the ping-pong pair in place.
func (b *wgpuBackend) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.configureSurface(width, height)
	b.createTextures(width, height)
}

// RenderFrame runs the frame's passes: feedback (composite or mesh warp)
// into the current texture, waveform overlay on top, blit to the surface,
// present, then role swap.
func (b *wgpuBackend) RenderFrame(frame *Frame) error {
	prev := b.pp.Prev()
	curr := b.pp.Curr()

	frame.Uniforms.MarshalInto(b.frameScratch[:])
	b.queue.WriteBuffer(b.frameUniformBuffer, 0, b.frameScratch[:])

	if frame.UseMesh && frame.Mesh != nil {
		uv := frame.Mesh.UV
		copy(b.uvScratch, f32Bytes(uv))
		b.queue.WriteBuffer(b.meshUVBuffer, 0, b.uvScratch[:len(uv)*4])
	}

	pointCount := 0
	if frame.DrawWave && len(frame.WavePoints) > 0 {
		points := frame.WavePoints
		if len(points) > MaxWavePoints {
			points = points[:MaxWavePoints]
		}
		pointCount = len(points)
		frame.Wave.Count = uint32(pointCount)
		MarshalWavePoints(b.pointScratch, points)
		b.queue.WriteBuffer(b.waveStorageBuffer, 0, b.pointScratch[:pointCount*WavePointSize])
		frame.Wave.MarshalInto(b.waveScratch[:])
		b.queue.WriteBuffer(b.waveUniformBuffer, 0, b.waveScratch[:])
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: acquire surface texture: %w", err)
	}
	surfaceView, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("renderer: surface view: %w", err)
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		surfaceView.Release()
		surfaceTexture.Release()
		return fmt.Errorf("renderer: command encoder: %w", err)
	}

	// Pass 1 — feedback into curr, sampling prev.
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Feedback Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       b.views[curr],
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	if frame.UseMesh && frame.Mesh != nil {
		pass.SetPipeline(b.meshPipeline)
		pass.SetBindGroup(0, b.feedbackGroups[prev], nil)
		pass.SetVertexBuffer(0, b.meshVertexBuffer, 0, wgpu.WholeSize)
		pass.SetVertexBuffer(1, b.meshUVBuffer, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(b.meshIndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(b.meshIndexCount), 1, 0, 0, 0)
	} else {
		pass.SetPipeline(b.compositePipeline)
		pass.SetBindGroup(0, b.feedbackGroups[prev], nil)
		pass.Draw(4, 1, 0, 0)
	}
	pass.End()

	// Pass 2 — waveform overlay, additive, loading the feedback result.
	if pointCount > 0 {
		wavePass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "Waveform Pass",
			ColorAttachments: []wgpu.RenderPassColorAttachment{
				{
					View:    b.views[curr],
					LoadOp:  wgpu.LoadOpLoad,
					StoreOp: wgpu.StoreOpStore,
				},
			},
		})
		wavePass.SetPipeline(b.wavePipeline)
		wavePass.SetBindGroup(0, b.waveGroup, nil)
		wavePass.Draw(uint32(pointCount*6), 1, 0, 0)
		wavePass.End()
	}

	// Pass 3 — blit curr to the swapchain surface.
	blitPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Blit Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       surfaceView,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{},
			},
		},
	})
	blitPass.SetPipeline(b.blitPipeline)
	blitPass.SetBindGroup(0, b.blitGroups[curr], nil)
	blitPass.Draw(4, 1, 0, 0)
	blitPass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		encoder.Release()
		surfaceView.Release()
		surfaceTexture.Release()
		return fmt.Errorf("renderer: encoder finish: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	encoder.Release()

	b.surface.Present()
	surfaceView.Release()
	surfaceTexture.Release()

	b.pp.Swap()
	return nil
}

// CurrentTexture returns the view of the texture written last frame.
func (b *wgpuBackend) CurrentTexture() *wgpu.TextureView {
	return b.views[b.pp.Prev()]
}

func (b *wgpuBackend) Close() {
	for i := 0; i < 2; i++ {
		if b.views[i] != nil {
			b.views[i].Release()
		}
		if b.textures[i] != nil {
			b.textures[i].Release()
		}
	}
	if b.device != nil {
		b.device.Release()
	}
}
