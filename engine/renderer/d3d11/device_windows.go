//go:build windows

package d3d11

import (
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/d3d11/internal/dx"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/internal/hlsl"
	"golang.org/x/sys/windows"
)

// deviceError maps the device-removal HRESULTs to ErrDeviceLost.
func deviceError(err error) error {
	var code dx.ErrorCode
	if errors.As(err, &code) && (code.Code == dx.DXGI_ERROR_DEVICE_REMOVED || code.Code == dx.DXGI_ERROR_DEVICE_RESET) {
		return fmt.Errorf("%w: %v", ErrDeviceLost, err)
	}
	return err
}

// PresentOptions configures the device and swap chain of a NativeDevice.
type PresentOptions struct {
	Window       uintptr
	Size         common.Size2
	Fullscreen   bool
	FeatureLevel uint32
	MultiSamples int
	// SwapInterval is the number of vertical blanks Present waits for, 0 disables vsync.
	SwapInterval int
}

func (o PresentOptions) samples() uint32 {
	return uint32(max(o.MultiSamples, 1))
}

// NativeDevice is the Direct3D 11 device of a window. It implements Device for the render system
// and the presentation calls for the render context.
type NativeDevice struct {
	dev       *dx.Device
	ctx       *dx.DeviceContext
	swapChain *dx.IDXGISwapChain
	level     uint32
	options   PresentOptions
	adapter   AdapterInfo

	backBuffer *comObject
	depthTex   *texture
	depthView  *comObject
}

var _ Device = &NativeDevice{}

// OpenDevice creates a hardware device on the default adapter with exactly the requested feature
// level, and a swap chain for the window.
//
// Parameters:
//   - options: the device and swap chain configuration
//
// Returns:
//   - *NativeDevice: the device
//   - error: an error if Direct3D 11 is unavailable or the configuration is not supported
func OpenDevice(options PresentOptions) (*NativeDevice, error) {
	dev, ctx, level, err := dx.CreateDevice(dx.CREATE_DEVICE_BGRA_SUPPORT, []uint32{options.FeatureLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to create D3D11 device: %w", err)
	}
	nd := &NativeDevice{dev: dev, ctx: ctx, level: level, options: options}
	swapChain, desc, err := dx.CreateSwapChain(dev, &dx.DXGI_SWAP_CHAIN_DESC{
		BufferDesc: dx.DXGI_MODE_DESC{
			Width:  uint32(options.Size.Width),
			Height: uint32(options.Size.Height),
			Format: dx.DXGI_FORMAT_R8G8B8A8_UNORM,
		},
		SampleDesc:   dx.DXGI_SAMPLE_DESC{Count: options.samples()},
		BufferUsage:  dx.DXGI_USAGE_RENDER_TARGET_OUTPUT,
		BufferCount:  1,
		OutputWindow: windows.Handle(options.Window),
		Windowed:     1,
		SwapEffect:   dx.DXGI_SWAP_EFFECT_DISCARD,
	})
	if err != nil {
		nd.Close()
		return nil, err
	}
	nd.swapChain = swapChain
	nd.adapter = AdapterInfo{
		Description: windows.UTF16ToString(desc.Description[:]),
		Vendor:      vendorName(desc.VendorId),
		Version:     featureLevelName(level),
		VideoMemory: uint64(desc.DedicatedVideoMemory),
	}
	if err := nd.createBackBuffer(); err != nil {
		nd.Close()
		return nil, err
	}
	if options.Fullscreen {
		if err := swapChain.SetFullscreenState(true); err != nil {
			nd.Close()
			return nil, fmt.Errorf("failed to enter fullscreen: %w", err)
		}
	}
	return nd, nil
}

func vendorName(id uint32) string {
	switch id {
	case 0x10DE:
		return "NVIDIA Corporation"
	case 0x1002, 0x1022:
		return "Advanced Micro Devices, Inc."
	case 0x8086:
		return "Intel Corporation"
	case 0x1414:
		return "Microsoft Corporation"
	}
	return fmt.Sprintf("vendor %#04x", id)
}

func (d *NativeDevice) createBackBuffer() error {
	buf, err := d.swapChain.GetBuffer(0, &dx.IID_Texture2D)
	if err != nil {
		return fmt.Errorf("failed to get the back buffer: %w", err)
	}
	rtv, err := d.dev.CreateRenderTargetView((*dx.Resource)(unsafe.Pointer(buf)))
	dx.IUnknownRelease(unsafe.Pointer(buf), buf.Vtbl.Release)
	if err != nil {
		return fmt.Errorf("failed to create the back buffer view: %w", err)
	}
	d.backBuffer = newComObject(unsafe.Pointer(rtv))

	depth, err := d.CreateTexture2D(TextureDesc{
		Width:     d.options.Size.Width,
		Height:    d.options.Size.Height,
		MipLevels: 1,
		Format:    formatD24UnormS8Uint,
		Bind:      bindDepthStencil,
		Samples:   int(d.options.samples()),
	})
	if err != nil {
		return fmt.Errorf("failed to create the depth buffer: %w", err)
	}
	d.depthTex = depth.(*texture)
	view, err := d.CreateDepthStencilView(depth)
	if err != nil {
		return fmt.Errorf("failed to create the depth buffer view: %w", err)
	}
	d.depthView = view.(*comObject)
	return nil
}

func (d *NativeDevice) releaseBackBuffer() {
	d.ctx.OMSetRenderTargets(nil, nil)
	for _, o := range []Object{d.backBuffer, d.depthView, d.depthTex} {
		if o != nil && !isNilObject(o) {
			o.Release()
		}
	}
	d.backBuffer, d.depthView, d.depthTex = nil, nil, nil
}

func isNilObject(o Object) bool {
	switch v := o.(type) {
	case *comObject:
		return v == nil
	case *texture:
		return v == nil
	}
	return false
}

// Present shows the back buffer with the configured swap interval.
//
// Returns:
//   - error: ErrDeviceLost when the device was removed
func (d *NativeDevice) Present() error {
	return deviceError(d.swapChain.Present(d.options.SwapInterval, 0))
}

// SetSwapInterval changes the number of vertical blanks Present waits for.
func (d *NativeDevice) SetSwapInterval(interval int) {
	d.options.SwapInterval = max(interval, 0)
}

// SetFullscreen switches the swap chain between windowed and exclusive fullscreen mode.
func (d *NativeDevice) SetFullscreen(fullscreen bool) error {
	if err := d.swapChain.SetFullscreenState(fullscreen); err != nil {
		return deviceError(err)
	}
	d.options.Fullscreen = fullscreen
	return nil
}

// Resize resizes the swap chain buffers. The views returned by BackBuffer before the call are
// released.
//
// Parameters:
//   - size: the new back buffer size
//
// Returns:
//   - error: an error if the buffers could not be resized
func (d *NativeDevice) Resize(size common.Size2) error {
	if size == d.options.Size {
		return nil
	}
	d.releaseBackBuffer()
	if err := d.swapChain.ResizeBuffers(0, uint32(size.Width), uint32(size.Height), 0, 0); err != nil {
		return deviceError(err)
	}
	d.options.Size = size
	return d.createBackBuffer()
}

// Removed reports why the device was removed, nil while it is operational.
func (d *NativeDevice) Removed() error {
	return deviceError(d.dev.GetDeviceRemovedReason())
}

// Close leaves fullscreen mode and releases the swap chain, the context and the device.
func (d *NativeDevice) Close() {
	if d.swapChain != nil {
		if d.options.Fullscreen {
			_ = d.swapChain.SetFullscreenState(false)
		}
		d.releaseBackBuffer()
		dx.IUnknownRelease(unsafe.Pointer(d.swapChain), d.swapChain.Vtbl.Release)
		d.swapChain = nil
	}
	if d.ctx != nil {
		d.ctx.ClearState()
		d.ctx.Flush()
		dx.IUnknownRelease(unsafe.Pointer(d.ctx), d.ctx.Vtbl.Release)
		d.ctx = nil
	}
	if d.dev != nil {
		dx.IUnknownRelease(unsafe.Pointer(d.dev), d.dev.Vtbl.Release)
		d.dev = nil
	}
}

func (d *NativeDevice) Adapter() AdapterInfo {
	return d.adapter
}

func (d *NativeDevice) FeatureLevel() uint32 {
	return d.level
}

func (d *NativeDevice) BackBuffer() (RenderTargetView, DepthStencilView) {
	return d.backBuffer, d.depthView
}

// comObject wraps any COM interface pointer without methods beyond IUnknown.
type comObject struct {
	ptr unsafe.Pointer
}

func newComObject(ptr unsafe.Pointer) *comObject {
	return &comObject{ptr: ptr}
}

func (o *comObject) Release() {
	if o.ptr == nil {
		return
	}
	unk := (*dx.IUnknown)(o.ptr)
	dx.IUnknownRelease(o.ptr, unk.Vtbl.Release)
	o.ptr = nil
}

// pointer returns the COM pointer of one of the wrappers, nil for a nil interface.
func pointer(o Object) unsafe.Pointer {
	switch v := o.(type) {
	case *comObject:
		if v != nil {
			return v.ptr
		}
	case *buffer:
		if v != nil {
			return v.ptr
		}
	case *texture:
		if v != nil {
			return v.ptr
		}
	case *shaderResourceView:
		if v != nil {
			return v.ptr
		}
	case *query:
		if v != nil {
			return v.ptr
		}
	}
	return nil
}

type buffer struct {
	comObject
	ctx     *dx.DeviceContext
	size    int
	dynamic bool
}

func (b *buffer) Write(offset int, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if offset < 0 || offset+len(data) > b.size {
		return fmt.Errorf("write of %d bytes at %d outside of a %d byte buffer", len(data), offset, b.size)
	}
	res := (*dx.Resource)(b.ptr)
	if !b.dynamic {
		box := &dx.BOX{Left: uint32(offset), Right: uint32(offset + len(data)), Bottom: 1, Back: 1}
		b.ctx.UpdateSubresource(res, 0, box, 0, 0, data)
		return nil
	}
	mapType := uint32(dx.MAP_WRITE_NO_OVERWRITE)
	if offset == 0 && len(data) == b.size {
		mapType = dx.MAP_WRITE_DISCARD
	}
	m, err := b.ctx.Map(res, 0, mapType, 0)
	if err != nil {
		return deviceError(err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(m.Data)), b.size)[offset:], data)
	b.ctx.Unmap(res, 0)
	return nil
}

func (d *NativeDevice) CreateBuffer(desc BufferDesc, data []byte) (Buffer, error) {
	bd := dx.BUFFER_DESC{
		ByteWidth: uint32(desc.Size),
		Usage:     desc.Usage,
		BindFlags: desc.Bind,
	}
	if desc.Usage == usageDynamic {
		bd.CPUAccessFlags = dx.CPU_ACCESS_WRITE
	}
	b, err := d.dev.CreateBuffer(&bd, data)
	if err != nil {
		return nil, deviceError(err)
	}
	return &buffer{comObject: comObject{ptr: unsafe.Pointer(b)}, ctx: d.ctx, size: desc.Size, dynamic: desc.Usage == usageDynamic}, nil
}

type texture struct {
	comObject
	ctx     *dx.DeviceContext
	format  uint32
	samples int
}

func (t *texture) WriteLevel(level int, pixels []byte, pitch int) error {
	if len(pixels) == 0 {
		return nil
	}
	t.ctx.UpdateSubresource((*dx.Resource)(t.ptr), uint32(level), nil, uint32(pitch), 0, pixels)
	return nil
}

func (d *NativeDevice) CreateTexture2D(desc TextureDesc) (Texture, error) {
	td := dx.TEXTURE2D_DESC{
		Width:      uint32(desc.Width),
		Height:     uint32(desc.Height),
		MipLevels:  uint32(desc.MipLevels),
		ArraySize:  1,
		Format:     desc.Format,
		SampleDesc: dx.DXGI_SAMPLE_DESC{Count: uint32(max(desc.Samples, 1))},
		Usage:      dx.USAGE_DEFAULT,
		BindFlags:  desc.Bind,
		MiscFlags:  desc.Misc,
	}
	t, err := d.dev.CreateTexture2D(&td)
	if err != nil {
		return nil, deviceError(err)
	}
	return &texture{comObject: comObject{ptr: unsafe.Pointer(t)}, ctx: d.ctx, format: desc.Format, samples: max(desc.Samples, 1)}, nil
}

type shaderResourceView struct {
	comObject
	ctx *dx.DeviceContext
}

func (v *shaderResourceView) GenerateMips() {
	v.ctx.GenerateMips((*dx.ShaderResourceView)(v.ptr))
}

func (d *NativeDevice) CreateShaderResourceView(t Texture) (ShaderResourceView, error) {
	v, err := d.dev.CreateShaderResourceView((*dx.Resource)(pointer(t)))
	if err != nil {
		return nil, deviceError(err)
	}
	return &shaderResourceView{comObject: comObject{ptr: unsafe.Pointer(v)}, ctx: d.ctx}, nil
}

func (d *NativeDevice) CreateRenderTargetView(t Texture) (RenderTargetView, error) {
	v, err := d.dev.CreateRenderTargetView((*dx.Resource)(pointer(t)))
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(v)), nil
}

func (d *NativeDevice) CreateDepthStencilView(t Texture) (DepthStencilView, error) {
	desc := dx.DEPTH_STENCIL_VIEW_DESC_TEX2D{
		Format:        formatD24UnormS8Uint,
		ViewDimension: dx.DSV_DIMENSION_TEXTURE2D,
	}
	if tex, ok := t.(*texture); ok && tex.samples > 1 {
		desc.ViewDimension = dx.DSV_DIMENSION_TEXTURE2DMS
	}
	v, err := d.dev.CreateDepthStencilViewTEX2D((*dx.Resource)(pointer(t)), &desc)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(v)), nil
}

func (d *NativeDevice) CreateInputLayout(elements []InputElement, bytecode []byte) (InputLayout, error) {
	descs := make([]dx.INPUT_ELEMENT_DESC, len(elements))
	// the semantic names must stay alive until the call returns
	names := make([][]byte, len(elements))
	for i, e := range elements {
		names[i] = append([]byte(e.Semantic), 0)
		descs[i] = dx.INPUT_ELEMENT_DESC{
			SemanticName:      &names[i][0],
			SemanticIndex:     uint32(e.Index),
			Format:            e.Format,
			AlignedByteOffset: uint32(e.Offset),
		}
	}
	l, err := d.dev.CreateInputLayout(descs, bytecode)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(l)), nil
}

func bool32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (d *NativeDevice) CreateBlendState(desc BlendDesc) (StateObject, error) {
	var bd dx.BLEND_DESC
	bd.RenderTarget[0] = dx.RENDER_TARGET_BLEND_DESC{
		BlendEnable:           bool32(desc.Enable),
		SrcBlend:              desc.Src,
		DestBlend:             desc.Dst,
		BlendOp:               1, // D3D11_BLEND_OP_ADD
		SrcBlendAlpha:         alphaFactor(desc.Src),
		DestBlendAlpha:        alphaFactor(desc.Dst),
		BlendOpAlpha:          1,
		RenderTargetWriteMask: desc.WriteMask,
	}
	s, err := d.dev.CreateBlendState(&bd)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(s)), nil
}

// alphaFactor replaces color factors, which are invalid for the alpha channel, with their alpha
// counterparts.
func alphaFactor(f uint32) uint32 {
	switch f {
	case blendSrcColor:
		return blendSrcAlpha
	case blendInvSrcColor:
		return blendInvSrcAlpha
	case blendDestColor:
		return blendDestAlpha
	case blendInvDestColor:
		return blendInvDestAlpha
	}
	return f
}

func (d *NativeDevice) CreateDepthStencilState(desc DepthStencilDesc) (StateObject, error) {
	op := dx.DEPTH_STENCILOP_DESC{
		StencilFailOp:      desc.Fail,
		StencilDepthFailOp: desc.DepthFail,
		StencilPassOp:      desc.Pass,
		StencilFunc:        desc.StencilFunc,
	}
	dd := dx.DEPTH_STENCIL_DESC{
		DepthEnable:      bool32(desc.DepthEnable),
		DepthWriteMask:   bool32(desc.DepthWrite),
		DepthFunc:        desc.DepthFunc,
		StencilEnable:    bool32(desc.StencilEnable),
		StencilReadMask:  desc.ReadMask,
		StencilWriteMask: desc.WriteMask,
		FrontFace:        op,
		BackFace:         op,
	}
	s, err := d.dev.CreateDepthStencilState(&dd)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(s)), nil
}

func (d *NativeDevice) CreateRasterizerState(desc RasterizerDesc) (StateObject, error) {
	rd := dx.RASTERIZER_DESC{
		FillMode:              desc.Fill,
		CullMode:              desc.Cull,
		FrontCounterClockwise: bool32(desc.FrontCounterClockwise),
		DepthClipEnable:       bool32(desc.DepthClip),
		ScissorEnable:         bool32(desc.Scissor),
		MultisampleEnable:     bool32(desc.Multisample),
		AntialiasedLineEnable: bool32(desc.AntialiasedLines),
	}
	s, err := d.dev.CreateRasterizerState(&rd)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(s)), nil
}

func (d *NativeDevice) CreateSamplerState(desc SamplerDesc) (StateObject, error) {
	sd := dx.SAMPLER_DESC{
		Filter:         desc.Filter,
		AddressU:       desc.Address,
		AddressV:       desc.Address,
		AddressW:       desc.Address,
		MaxAnisotropy:  max(desc.MaxAnisotropy, 1),
		ComparisonFunc: cmpNever,
		MaxLOD:         math.MaxFloat32,
	}
	s, err := d.dev.CreateSamplerState(&sd)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(s)), nil
}

type query struct {
	comObject
	ctx *dx.DeviceContext
	typ uint32
}

func (q *query) Data() (uint64, bool, error) {
	var (
		ok  bool
		err error
		v   uint64
	)
	switch q.typ {
	case queryOcclusionPredicate:
		var b uint32
		ok, err = q.ctx.GetData((*dx.Query)(q.ptr), unsafe.Pointer(&b), 4, 0)
		v = uint64(b)
	case queryTimestampDisjoint:
		var data struct {
			Frequency uint64
			Disjoint  int32
		}
		ok, err = q.ctx.GetData((*dx.Query)(q.ptr), unsafe.Pointer(&data), uint32(unsafe.Sizeof(data)), 0)
		if data.Disjoint == 0 {
			v = data.Frequency
		}
	case querySOStatistics:
		var data struct {
			NumPrimitivesWritten    uint64
			PrimitivesStorageNeeded uint64
		}
		ok, err = q.ctx.GetData((*dx.Query)(q.ptr), unsafe.Pointer(&data), uint32(unsafe.Sizeof(data)), 0)
		v = data.PrimitivesStorageNeeded
	default:
		ok, err = q.ctx.GetData((*dx.Query)(q.ptr), unsafe.Pointer(&v), 8, 0)
	}
	return v, ok, deviceError(err)
}

func (d *NativeDevice) CreateQuery(typ uint32) (Query, error) {
	q, err := d.dev.CreateQuery(&dx.QUERY_DESC{Query: typ})
	if err != nil {
		return nil, deviceError(err)
	}
	return &query{comObject: comObject{ptr: unsafe.Pointer(q)}, ctx: d.ctx, typ: typ}, nil
}

func (d *NativeDevice) CompileShader(source, entryPoint, profile string) ([]byte, error) {
	return hlsl.Compile(source, entryPoint, profile)
}

func (d *NativeDevice) CreateVertexShader(bytecode []byte) (Shader, error) {
	s, err := d.dev.CreateVertexShader(bytecode)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(s)), nil
}

func (d *NativeDevice) CreatePixelShader(bytecode []byte) (Shader, error) {
	s, err := d.dev.CreatePixelShader(bytecode)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(s)), nil
}

func (d *NativeDevice) CreateGeometryShader(bytecode []byte) (Shader, error) {
	s, err := d.dev.CreateGeometryShader(bytecode)
	if err != nil {
		return nil, deviceError(err)
	}
	return newComObject(unsafe.Pointer(s)), nil
}

func (d *NativeDevice) IASetInputLayout(l InputLayout) {
	d.ctx.IASetInputLayout((*dx.InputLayout)(pointer(l)))
}

func (d *NativeDevice) IASetVertexBuffer(b Buffer, stride int) {
	d.ctx.IASetVertexBuffers((*dx.Buffer)(pointer(b)), uint32(stride), 0)
}

func (d *NativeDevice) IASetIndexBuffer(b Buffer, format uint32) {
	d.ctx.IASetIndexBuffer((*dx.Buffer)(pointer(b)), format, 0)
}

func (d *NativeDevice) IASetPrimitiveTopology(topology uint32) {
	d.ctx.IASetPrimitiveTopology(topology)
}

func (d *NativeDevice) VSSetShader(s Shader) {
	d.ctx.VSSetShader((*dx.VertexShader)(pointer(s)))
}

func (d *NativeDevice) PSSetShader(s Shader) {
	d.ctx.PSSetShader((*dx.PixelShader)(pointer(s)))
}

func (d *NativeDevice) GSSetShader(s Shader) {
	d.ctx.GSSetShader((*dx.GeometryShader)(pointer(s)))
}

func (d *NativeDevice) VSSetConstantBuffer(slot int, b Buffer) {
	d.ctx.VSSetConstantBuffers(uint32(slot), (*dx.Buffer)(pointer(b)))
}

func (d *NativeDevice) PSSetConstantBuffer(slot int, b Buffer) {
	d.ctx.PSSetConstantBuffers(uint32(slot), (*dx.Buffer)(pointer(b)))
}

func (d *NativeDevice) PSSetShaderResource(slot int, v ShaderResourceView) {
	d.ctx.PSSetShaderResources(uint32(slot), (*dx.ShaderResourceView)(pointer(v)))
}

func (d *NativeDevice) PSSetSampler(slot int, s StateObject) {
	d.ctx.PSSetSamplers(uint32(slot), (*dx.SamplerState)(pointer(s)))
}

func (d *NativeDevice) OMSetBlendState(s StateObject) {
	d.ctx.OMSetBlendState((*dx.BlendState)(pointer(s)), nil, 0xFFFFFFFF)
}

func (d *NativeDevice) OMSetDepthStencilState(s StateObject, ref uint32) {
	d.ctx.OMSetDepthStencilState((*dx.DepthStencilState)(pointer(s)), ref)
}

func (d *NativeDevice) OMSetRenderTarget(rt RenderTargetView, ds DepthStencilView) {
	d.ctx.OMSetRenderTargets((*dx.RenderTargetView)(pointer(rt)), (*dx.DepthStencilView)(pointer(ds)))
}

func (d *NativeDevice) RSSetState(s StateObject) {
	d.ctx.RSSetState((*dx.RasterizerState)(pointer(s)))
}

func (d *NativeDevice) RSSetViewport(v Viewport) {
	d.ctx.RSSetViewports(&dx.VIEWPORT{
		TopLeftX: v.X,
		TopLeftY: v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	})
}

func (d *NativeDevice) RSSetScissorRect(r common.Rect) {
	d.ctx.RSSetScissorRects(&dx.RECT{
		Left:   int32(r.Left),
		Top:    int32(r.Top),
		Right:  int32(r.Right),
		Bottom: int32(r.Bottom),
	})
}

func (d *NativeDevice) ClearRenderTargetView(rt RenderTargetView, color [4]float32) {
	d.ctx.ClearRenderTargetView((*dx.RenderTargetView)(pointer(rt)), &color)
}

func (d *NativeDevice) ClearDepthStencilView(ds DepthStencilView, flags uint32, depth float32, stencil uint8) {
	d.ctx.ClearDepthStencilView((*dx.DepthStencilView)(pointer(ds)), flags, depth, stencil)
}

func (d *NativeDevice) Draw(count, start int) {
	d.ctx.Draw(uint32(count), uint32(start))
}

func (d *NativeDevice) DrawIndexed(count, start int) {
	d.ctx.DrawIndexed(uint32(count), uint32(start), 0)
}

func (d *NativeDevice) Begin(q Query) {
	d.ctx.Begin((*dx.Query)(pointer(q)))
}

func (d *NativeDevice) End(q Query) {
	d.ctx.End((*dx.Query)(pointer(q)))
}

func (d *NativeDevice) Flush() {
	d.ctx.Flush()
}
