package webgpu

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// surfaceDepthFormat carries a stencil aspect so the stencil render states work on the surface.
const surfaceDepthFormat = wgpu.TextureFormatDepth24PlusStencil8

// DeviceBuilderOption is a functional option used to configure a SurfaceDevice during construction.
type DeviceBuilderOption func(*deviceOptions)

type deviceOptions struct {
	fallbackAdapter bool
	sampleCount     uint32
	vsync           bool
	width, height   int
}

// WithFallbackAdapter forces the software fallback adapter.
func WithFallbackAdapter(force bool) DeviceBuilderOption {
	return func(o *deviceOptions) {
		o.fallbackAdapter = force
	}
}

// WithMultiSamples sets the sample count of the surface attachments. WebGPU only guarantees 1
// and 4 samples; every count above 1 selects 4.
func WithMultiSamples(samples int) DeviceBuilderOption {
	return func(o *deviceOptions) {
		o.sampleCount = 1
		if samples > 1 {
			o.sampleCount = 4
		}
	}
}

// WithVsync selects FIFO presentation instead of immediate presentation.
func WithVsync(vsync bool) DeviceBuilderOption {
	return func(o *deviceOptions) {
		o.vsync = vsync
	}
}

// WithSurfaceSize sets the initial surface size.
func WithSurfaceSize(width, height int) DeviceBuilderOption {
	return func(o *deviceOptions) {
		o.width, o.height = width, height
	}
}

// SurfaceDevice is a WebGPU device presenting to a window surface. Besides the Device methods the
// render context uses Configure, SetVsync, Present and Release.
type SurfaceDevice struct {
	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	info     AdapterInfo

	format        wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   uint32
	width, height int

	msaaTexture *wgpu.Texture
	msaaView    *wgpu.TextureView
	depth       *wgpu.Texture
	depthView   *wgpu.TextureView

	// lost is ErrSurfaceLost or ErrDeviceLost once a frame failed for that reason
	lost error

	constantsLayout *wgpu.BindGroupLayout
	texturesLayout  *wgpu.BindGroupLayout
	layout          *wgpu.PipelineLayout

	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Device = &SurfaceDevice{}

// NewSurfaceDevice requests an adapter compatible with the surface, creates a device on it and
// configures the surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface, usually from the window
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - *SurfaceDevice: the device
//   - error: an error if no adapter or device could be obtained
func NewSurfaceDevice(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...DeviceBuilderOption) (*SurfaceDevice, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("webgpu: nil surface descriptor")
	}
	opts := deviceOptions{sampleCount: 1, width: 800, height: 600}
	for _, opt := range options {
		opt(&opts)
	}
	runtime.LockOSThread()

	d := &SurfaceDevice{
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: opts.sampleCount,
	}
	if opts.vsync {
		d.presentMode = wgpu.PresentModeFifo
	}
	d.surface = d.instance.CreateSurface(surfaceDescriptor)

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: opts.fallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", err)
	}
	d.adapter = a

	supported := a.GetLimits()
	limits := wgpu.DefaultLimits()
	limits.MaxTextureDimension2D = max(limits.MaxTextureDimension2D, supported.Limits.MaxTextureDimension2D)

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Render System Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	info := a.GetInfo()
	d.info = AdapterInfo{
		Name:        info.Name,
		Vendor:      info.VendorName,
		Backend:     fmt.Sprint(info.BackendType),
		Driver:      info.DriverDescription,
		MaxTexture:  limits.MaxTextureDimension2D,
		MaxSamples:  4,
		Anisotropic: true,
	}

	if err := d.createLayouts(); err != nil {
		d.Release()
		return nil, err
	}
	if err := d.Configure(opts.width, opts.height); err != nil {
		d.Release()
		return nil, err
	}
	return d, nil
}

// createLayouts creates the pipeline layout every pipeline shares.
func (d *SurfaceDevice) createLayouts() error {
	var err error
	d.constantsLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Constants Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   constantsSize,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("webgpu: constants bind group layout: %w", err)
	}

	entries := make([]wgpu.BindGroupLayoutEntry, 0, 2*maxTextureSlots)
	for slot := range maxTextureSlots {
		entries = append(entries,
			wgpu.BindGroupLayoutEntry{
				Binding:    uint32(2 * slot),
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			wgpu.BindGroupLayoutEntry{
				Binding:    uint32(2*slot + 1),
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		)
	}
	d.texturesLayout, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Textures Layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("webgpu: texture bind group layout: %w", err)
	}

	d.layout, err = d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Render System Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{d.constantsLayout, d.texturesLayout},
	})
	if err != nil {
		return fmt.Errorf("webgpu: pipeline layout: %w", err)
	}
	return nil
}

// Configure (re)configures the surface for a size and recreates the multisample and depth buffers.
//
// Parameters:
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//
// Returns:
//   - error: an error if the attachments could not be created
func (d *SurfaceDevice) Configure(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("webgpu: invalid surface size %dx%d", width, height)
	}
	d.width, d.height = width, height
	d.releaseFrame()
	if d.lost == ErrSurfaceLost {
		d.lost = nil
	}

	capabilities := d.surface.GetCapabilities(d.adapter)
	if len(capabilities.Formats) == 0 {
		return errors.New("webgpu: surface has no formats for this adapter")
	}
	d.format = capabilities.Formats[0]
	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	d.releaseAttachments()
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	var err error
	if d.sampleCount > 1 {
		// the passes draw into the multisample texture and resolve into the surface texture
		d.msaaTexture, err = d.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   d.sampleCount,
			Dimension:     wgpu.TextureDimension2D,
			Format:        d.format,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("webgpu: multisample texture: %w", err)
		}
		if d.msaaView, err = d.msaaTexture.CreateView(nil); err != nil {
			return fmt.Errorf("webgpu: multisample view: %w", err)
		}
	}
	d.depth, err = d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   d.sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        surfaceDepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("webgpu: depth texture: %w", err)
	}
	if d.depthView, err = d.depth.CreateView(nil); err != nil {
		return fmt.Errorf("webgpu: depth view: %w", err)
	}
	return nil
}

// SetVsync switches between FIFO and immediate presentation and reconfigures the surface.
func (d *SurfaceDevice) SetVsync(vsync bool) error {
	mode := wgpu.PresentModeImmediate
	if vsync {
		mode = wgpu.PresentModeFifo
	}
	if mode == d.presentMode {
		return nil
	}
	d.presentMode = mode
	return d.Configure(d.width, d.height)
}

// Present shows the acquired surface texture. Presenting without an acquired texture is a no-op.
func (d *SurfaceDevice) Present() {
	if d.frameTexture == nil {
		return
	}
	d.surface.Present()
	d.releaseFrame()
}

// Lost reports why the last frame failed: ErrSurfaceLost when the surface needs to be
// reconfigured, ErrDeviceLost when the device has to be replaced, nil otherwise.
func (d *SurfaceDevice) Lost() error {
	return d.lost
}

// markLost records a loss. A device loss is never downgraded to a surface loss.
func (d *SurfaceDevice) markLost(err error) {
	if d.lost != ErrDeviceLost {
		d.lost = err
	}
}

func (d *SurfaceDevice) releaseFrame() {
	if d.frameView != nil {
		d.frameView.Release()
		d.frameView = nil
	}
	if d.frameTexture != nil {
		d.frameTexture.Release()
		d.frameTexture = nil
	}
}

func (d *SurfaceDevice) releaseAttachments() {
	if d.msaaView != nil {
		d.msaaView.Release()
		d.msaaView = nil
	}
	if d.msaaTexture != nil {
		d.msaaTexture.Release()
		d.msaaTexture = nil
	}
	if d.depthView != nil {
		d.depthView.Release()
		d.depthView = nil
	}
	if d.depth != nil {
		d.depth.Release()
		d.depth = nil
	}
}

// Release releases the device, the surface and everything they own.
func (d *SurfaceDevice) Release() {
	if d.pass != nil {
		d.pass.Release()
		d.pass = nil
	}
	if d.encoder != nil {
		d.encoder.Release()
		d.encoder = nil
	}
	d.releaseFrame()
	d.releaseAttachments()
	if d.layout != nil {
		d.layout.Release()
		d.layout = nil
	}
	if d.texturesLayout != nil {
		d.texturesLayout.Release()
		d.texturesLayout = nil
	}
	if d.constantsLayout != nil {
		d.constantsLayout.Release()
		d.constantsLayout = nil
	}
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func (d *SurfaceDevice) Adapter() AdapterInfo              { return d.info }
func (d *SurfaceDevice) SurfaceFormat() wgpu.TextureFormat { return d.format }
func (d *SurfaceDevice) SampleCount() uint32               { return d.sampleCount }
func (d *SurfaceDevice) DepthFormat() wgpu.TextureFormat   { return surfaceDepthFormat }
func (d *SurfaceDevice) SurfaceSize() (width, height int)  { return d.width, d.height }
func (d *SurfaceDevice) WGPUDevice() *wgpu.Device          { return d.device }
func (d *SurfaceDevice) WGPUQueue() *wgpu.Queue            { return d.queue }

func (d *SurfaceDevice) CreateBuffer(desc BufferDesc) (Buffer, error) {
	b, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *SurfaceDevice) WriteBuffer(b Buffer, offset uint64, data []byte) {
	d.queue.WriteBuffer(b.(*wgpu.Buffer), offset, data)
}

func (d *SurfaceDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	t, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     desc.Usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        desc.Format,
		MipLevelCount: max(desc.MipLevels, 1),
		SampleCount:   max(desc.SampleCount, 1),
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *SurfaceDevice) CreateView(t Texture) (TextureView, error) {
	v, err := t.(*wgpu.Texture).CreateView(nil)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (d *SurfaceDevice) WriteTexture(t Texture, level, width, height, bytesPerRow uint32, pixels []byte) {
	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.(*wgpu.Texture),
			MipLevel: level,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  bytesPerRow,
			RowsPerImage: height,
		},
		&wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (d *SurfaceDevice) CreateSampler(desc SamplerDesc) (Sampler, error) {
	s, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Texture Sampler",
		AddressModeU:  desc.Address,
		AddressModeV:  desc.Address,
		AddressModeW:  desc.Address,
		MagFilter:     desc.MagFilter,
		MinFilter:     desc.MinFilter,
		MipmapFilter:  desc.MipFilter,
		LodMinClamp:   0,
		LodMaxClamp:   desc.LodMaxClamp,
		MaxAnisotropy: max(desc.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *SurfaceDevice) CreateShaderModule(label, source string) (ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (d *SurfaceDevice) CreatePipeline(desc PipelineDesc) (Pipeline, error) {
	p, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: d.layout,
		Vertex: wgpu.VertexState{
			Module:     desc.Vertex.(*wgpu.ShaderModule),
			EntryPoint: desc.VertexEntry,
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: desc.Layout.Stride,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes:  desc.Layout.Attributes,
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     desc.Fragment.(*wgpu.ShaderModule),
			EntryPoint: desc.FragmentEntry,
			Targets:    []wgpu.ColorTargetState{desc.State.ColorTarget()},
		},
		Primitive: desc.State.Primitive(),
		Multisample: wgpu.MultisampleState{
			Count: desc.State.SampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: desc.State.DepthStencil(),
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *SurfaceDevice) CreateConstantsBindGroup(desc ConstantsBindGroupDesc) (BindGroup, error) {
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Constants Bind Group",
		Layout: d.constantsLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  desc.Buffer.(*wgpu.Buffer),
			Offset:  0,
			Size:    desc.Size,
		}},
	})
	if err != nil {
		return nil, err
	}
	return bg, nil
}

func (d *SurfaceDevice) CreateTextureBindGroup(desc TextureBindGroupDesc) (BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, 2*maxTextureSlots)
	for slot := range maxTextureSlots {
		if desc.Views[slot] == nil || desc.Samplers[slot] == nil {
			return nil, fmt.Errorf("texture slot %d is empty", slot)
		}
		entries = append(entries,
			wgpu.BindGroupEntry{Binding: uint32(2 * slot), TextureView: desc.Views[slot].(*wgpu.TextureView)},
			wgpu.BindGroupEntry{Binding: uint32(2*slot + 1), Sampler: desc.Samplers[slot].(*wgpu.Sampler)},
		)
	}
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Texture Bind Group",
		Layout:  d.texturesLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return bg, nil
}

func (d *SurfaceDevice) AcquireFrame() error {
	if d.frameTexture != nil {
		return nil
	}
	t, err := d.surface.GetCurrentTexture()
	if err != nil {
		d.markLost(ErrSurfaceLost)
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	}
	v, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		d.markLost(ErrSurfaceLost)
		return fmt.Errorf("%w: %v", ErrSurfaceLost, err)
	}
	d.frameTexture, d.frameView = t, v
	return nil
}

func (d *SurfaceDevice) BeginPass(desc PassDesc) error {
	if d.pass != nil {
		return errors.New("webgpu: render pass already open")
	}
	if d.encoder == nil {
		encoder, err := d.device.CreateCommandEncoder(nil)
		if err != nil {
			return err
		}
		d.encoder = encoder
	}

	color := wgpu.RenderPassColorAttachment{
		LoadOp:     wgpu.LoadOpLoad,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: wgpu.Color{R: desc.ColorValue[0], G: desc.ColorValue[1], B: desc.ColorValue[2], A: desc.ColorValue[3]},
	}
	if desc.ClearColor {
		color.LoadOp = wgpu.LoadOpClear
	}
	switch {
	case desc.Color != nil:
		color.View = desc.Color.(*wgpu.TextureView)
	case d.frameView == nil:
		return errors.New("webgpu: no surface texture acquired")
	case d.msaaView != nil:
		color.View = d.msaaView
		color.ResolveTarget = d.frameView
	default:
		color.View = d.frameView
	}

	depth := &wgpu.RenderPassDepthStencilAttachment{
		View:              d.depthView,
		DepthLoadOp:       wgpu.LoadOpLoad,
		DepthStoreOp:      wgpu.StoreOpStore,
		DepthClearValue:   desc.DepthValue,
		StencilLoadOp:     wgpu.LoadOpLoad,
		StencilStoreOp:    wgpu.StoreOpStore,
		StencilClearValue: desc.StencilValue,
	}
	if desc.Depth != nil {
		depth.View = desc.Depth.(*wgpu.TextureView)
	}
	if desc.ClearDepth {
		depth.DepthLoadOp = wgpu.LoadOpClear
	}
	if desc.ClearStencil {
		depth.StencilLoadOp = wgpu.LoadOpClear
	}

	pd := &wgpu.RenderPassDescriptor{
		ColorAttachments:       []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: depth,
	}
	d.pass = d.encoder.BeginRenderPass(pd)
	return nil
}

func (d *SurfaceDevice) SetPipeline(p Pipeline) {
	d.pass.SetPipeline(p.(*wgpu.RenderPipeline))
}

func (d *SurfaceDevice) SetBindGroup(group uint32, bg BindGroup, offsets []uint32) {
	d.pass.SetBindGroup(group, bg.(*wgpu.BindGroup), offsets)
}

func (d *SurfaceDevice) SetVertexBuffer(b Buffer, offset, size uint64) {
	d.pass.SetVertexBuffer(0, b.(*wgpu.Buffer), offset, size)
}

func (d *SurfaceDevice) SetIndexBuffer(b Buffer, format wgpu.IndexFormat, size uint64) {
	d.pass.SetIndexBuffer(b.(*wgpu.Buffer), format, 0, size)
}

func (d *SurfaceDevice) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	d.pass.SetViewport(x, y, width, height, minDepth, maxDepth)
}

func (d *SurfaceDevice) SetScissorRect(x, y, width, height uint32) {
	d.pass.SetScissorRect(x, y, width, height)
}

func (d *SurfaceDevice) SetStencilReference(ref uint32) {
	d.pass.SetStencilReference(ref)
}

func (d *SurfaceDevice) Draw(count, first uint32) {
	d.pass.Draw(count, 1, first, 0)
}

func (d *SurfaceDevice) DrawIndexed(count, first uint32) {
	d.pass.DrawIndexed(count, 1, first, 0, 0)
}

func (d *SurfaceDevice) EndPass() {
	if d.pass == nil {
		return
	}
	d.pass.End()
	d.pass.Release()
	d.pass = nil
}

func (d *SurfaceDevice) Submit() error {
	d.EndPass()
	if d.encoder == nil {
		return nil
	}
	encoder := d.encoder
	d.encoder = nil
	defer encoder.Release()
	cb, err := encoder.Finish(nil)
	if err != nil {
		d.markLost(ErrDeviceLost)
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	d.queue.Submit(cb)
	cb.Release()
	return nil
}
