//go:build windows

package d3d9

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/internal/hlsl"
	"github.com/gonutz/d3d9"
)

// D3DCAPS9 bits read by Caps.
const (
	ptextureCapsPow2         = 0x00000002
	ptextureCapsNonPow2Cond  = 0x00000100
	prasterCapsScissorTest   = 0x01000000
	caps2CanAutoGenMipMap    = 0x40000000
	getDataFlush             = 0x1
	sFalse                   = 1
	errDeviceLostCode        = -2005530520 // 0x88760868
	errDeviceNotResetCode    = -2005530519 // 0x88760869
	multisampleNonMaskable   = 1
	createHardwareProcessing = 0x00000040
	createSoftwareProcessing = 0x00000020
	createFPUPreserve        = 0x00000002
)

// deviceError maps the device-loss HRESULTs to the package sentinels.
func deviceError(err error) error {
	if err == nil {
		return nil
	}
	var d3dErr d3d9.Error
	if errors.As(err, &d3dErr) {
		switch d3dErr.Code() {
		case errDeviceLostCode:
			return ErrDeviceLost
		case errDeviceNotResetCode:
			return ErrDeviceNotReset
		}
	}
	return err
}

// PresentOptions configures the swap chain of a NativeDevice.
type PresentOptions struct {
	Window       uintptr
	Size         common.Size2
	Fullscreen   bool
	VSync        bool
	Stencil      bool
	MultiSamples int
	// SoftwareVertexProcessing creates the device with software vertex processing.
	SoftwareVertexProcessing bool
}

func (o PresentOptions) parameters() d3d9.PRESENT_PARAMETERS {
	pp := d3d9.PRESENT_PARAMETERS{
		BackBufferWidth:        uint32(o.Size.Width),
		BackBufferHeight:       uint32(o.Size.Height),
		BackBufferFormat:       d3d9.FMT_X8R8G8B8,
		BackBufferCount:        1,
		SwapEffect:             d3d9.SWAPEFFECT_DISCARD,
		HDeviceWindow:          d3d9.HWND(o.Window),
		Windowed:               1,
		EnableAutoDepthStencil: 1,
		AutoDepthStencilFormat: d3d9.FMT_D24X8,
		PresentationInterval:   d3d9.PRESENT_INTERVAL_IMMEDIATE,
	}
	if o.Stencil {
		pp.AutoDepthStencilFormat = d3d9.FMT_D24S8
	}
	if o.Fullscreen {
		pp.Windowed = 0
		pp.BackBufferFormat = d3d9.FMT_A8R8G8B8
	}
	if o.VSync {
		pp.PresentationInterval = d3d9.PRESENT_INTERVAL_ONE
	}
	if o.MultiSamples > 1 {
		pp.MultiSampleType = d3d9.MULTISAMPLE_TYPE(o.MultiSamples)
	}
	return pp
}

// NativeDevice is the Direct3D 9 device of a window. It implements Device for the render system
// and the presentation calls for the render context.
type NativeDevice struct {
	d3d     *d3d9.Direct3D
	dev     *d3d9.Device
	options PresentOptions
	adapter AdapterInfo
}

var _ Device = &NativeDevice{}

// OpenDevice creates the Direct3D 9 object and a HAL device on the default adapter with the vertex
// processing selected by the options.
//
// Parameters:
//   - options: the swap chain configuration
//
// Returns:
//   - *NativeDevice: the device
//   - error: an error if Direct3D 9 is unavailable or no device could be created
func OpenDevice(options PresentOptions) (*NativeDevice, error) {
	d3d, err := d3d9.Create(d3d9.SDK_VERSION)
	if err != nil {
		return nil, fmt.Errorf("failed to create Direct3D9: %w", err)
	}
	nd := &NativeDevice{d3d: d3d, options: options}
	if id, err := d3d.GetAdapterIdentifier(d3d9.ADAPTER_DEFAULT, 0); err == nil {
		nd.adapter = AdapterInfo{
			Description: cString(fmt.Sprintf("%s", id.Description)),
			Driver:      cString(fmt.Sprintf("%s", id.Driver)),
			Vendor:      cString(fmt.Sprintf("%s", id.DeviceName)),
			Version:     "Direct3D 9",
		}
	}

	behavior := uint32(createHardwareProcessing)
	if options.SoftwareVertexProcessing {
		behavior = createSoftwareProcessing
	}
	dev, _, err := d3d.CreateDevice(
		d3d9.ADAPTER_DEFAULT,
		d3d9.DEVTYPE_HAL,
		d3d9.HWND(options.Window),
		behavior|createFPUPreserve,
		options.parameters(),
	)
	if err != nil {
		d3d.Release()
		return nil, fmt.Errorf("failed to create D3D9 device: %w", err)
	}
	nd.dev = dev
	return nd, nil
}

func cString(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Present shows the back buffer.
//
// Returns:
//   - error: ErrDeviceLost when the device was lost
func (d *NativeDevice) Present() error {
	return deviceError(d.dev.Present(nil, nil, 0, nil))
}

// TestCooperativeLevel reports whether a lost device can be reset.
//
// Returns:
//   - error: nil if the device is operational, ErrDeviceNotReset if it can be reset now,
//     ErrDeviceLost if it is still lost
func (d *NativeDevice) TestCooperativeLevel() error {
	return deviceError(d.dev.TestCooperativeLevel())
}

// Reset resets the device with new swap chain options. All default pool resources must have been
// released. The window of the device is kept.
func (d *NativeDevice) Reset(options PresentOptions) error {
	options.Window = d.options.Window
	d.options = options
	_, err := d.dev.Reset(d.options.parameters())
	return deviceError(err)
}

// Close releases the device and the Direct3D 9 object.
func (d *NativeDevice) Close() {
	if d.dev != nil {
		d.dev.Release()
		d.dev = nil
	}
	if d.d3d != nil {
		d.d3d.Release()
		d.d3d = nil
	}
}

func (d *NativeDevice) Adapter() AdapterInfo {
	return d.adapter
}

func (d *NativeDevice) Caps() DeviceCaps {
	caps, err := d.dev.GetDeviceCaps()
	if err != nil {
		return DeviceCaps{MaxTextureWidth: 2048, MaxTextureHeight: 2048, MaxSimultaneousTextures: 1}
	}
	c := DeviceCaps{
		MaxTextureWidth:         int(caps.MaxTextureWidth),
		MaxTextureHeight:        int(caps.MaxTextureHeight),
		MaxSimultaneousTextures: int(caps.MaxSimultaneousTextures),
		MaxActiveLights:         int(caps.MaxActiveLights),
		MaxUserClipPlanes:       int(caps.MaxUserClipPlanes),
		MaxAnisotropy:           int(caps.MaxAnisotropy),
		MaxPointSize:            caps.MaxPointSize,
		VertexShaderVersion:     caps.VertexShaderVersion,
		PixelShaderVersion:      caps.PixelShaderVersion,
		NonPowerOfTwo:           caps.TextureCaps&ptextureCapsPow2 == 0 || caps.TextureCaps&ptextureCapsNonPow2Cond != 0,
		ScissorTest:             caps.RasterCaps&prasterCapsScissorTest != 0,
		AutoGenMipMap:           caps.Caps2&caps2CanAutoGenMipMap != 0,
		MultiSamples:            d.options.MultiSamples,
	}
	if q, err := d.dev.CreateQuery(d3d9.QUERYTYPE_OCCLUSION); err == nil {
		c.Occlusion = true
		q.Release()
	}
	if q, err := d.dev.CreateQuery(d3d9.QUERYTYPE_TIMESTAMP); err == nil {
		c.Timestamp = true
		q.Release()
	}
	return c
}

func (d *NativeDevice) SetRenderState(state, value uint32) error {
	return d.dev.SetRenderState(d3d9.RENDERSTATETYPE(state), value)
}

func (d *NativeDevice) SetSamplerState(sampler, state, value uint32) error {
	return d.dev.SetSamplerState(sampler, d3d9.SAMPLERSTATETYPE(state), value)
}

func (d *NativeDevice) SetTextureStageState(stage, state, value uint32) error {
	return d.dev.SetTextureStageState(stage, d3d9.TEXTURESTAGESTATETYPE(state), value)
}

func (d *NativeDevice) SetTransform(state uint32, m [16]float32) error {
	return d.dev.SetTransform(d3d9.TRANSFORMSTATETYPE(state), d3d9.MATRIX(m))
}

func colorValue9(c ColorValue) d3d9.COLORVALUE {
	return d3d9.COLORVALUE{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (d *NativeDevice) SetLight(index int, l Light) error {
	return d.dev.SetLight(uint32(index), d3d9.LIGHT{
		Type:         d3d9.LIGHTTYPE(l.Type),
		Diffuse:      colorValue9(l.Diffuse),
		Specular:     colorValue9(l.Specular),
		Ambient:      colorValue9(l.Ambient),
		Position:     d3d9.VECTOR{X: l.Position[0], Y: l.Position[1], Z: l.Position[2]},
		Direction:    d3d9.VECTOR{X: l.Direction[0], Y: l.Direction[1], Z: l.Direction[2]},
		Range:        l.Range,
		Falloff:      l.Falloff,
		Attenuation0: l.Attenuation0,
		Attenuation1: l.Attenuation1,
		Attenuation2: l.Attenuation2,
		Theta:        l.Theta,
		Phi:          l.Phi,
	})
}

func (d *NativeDevice) LightEnable(index int, enable bool) error {
	return d.dev.LightEnable(uint32(index), enable)
}

func (d *NativeDevice) SetMaterial(m Material) error {
	return d.dev.SetMaterial(d3d9.MATERIAL{
		Diffuse:  colorValue9(m.Diffuse),
		Ambient:  colorValue9(m.Ambient),
		Specular: colorValue9(m.Specular),
		Emissive: colorValue9(m.Emissive),
		Power:    m.Power,
	})
}

func (d *NativeDevice) SetClipPlane(index int, plane [4]float32) error {
	return d.dev.SetClipPlane(uint32(index), plane)
}

func (d *NativeDevice) SetViewport(v Viewport) error {
	return d.dev.SetViewport(d3d9.VIEWPORT{
		X:      uint32(v.X),
		Y:      uint32(v.Y),
		Width:  uint32(v.Width),
		Height: uint32(v.Height),
		MinZ:   v.MinZ,
		MaxZ:   v.MaxZ,
	})
}

func (d *NativeDevice) SetScissorRect(r common.Rect) error {
	return d.dev.SetScissorRect(d3d9.RECT{
		Left:   int32(r.Left),
		Top:    int32(r.Top),
		Right:  int32(r.Right),
		Bottom: int32(r.Bottom),
	})
}

func (d *NativeDevice) Clear(flags, color uint32, z float32, stencil uint32) error {
	return d.dev.Clear(nil, flags, d3d9.COLOR(color), z, stencil)
}

func (d *NativeDevice) BeginScene() error {
	return deviceError(d.dev.BeginScene())
}

func (d *NativeDevice) EndScene() error {
	return deviceError(d.dev.EndScene())
}

type vertexBuffer struct{ vb *d3d9.VertexBuffer }

func (b *vertexBuffer) Release() { b.vb.Release() }

func (b *vertexBuffer) Write(offset int, data []byte) error {
	flags := uint32(0)
	if offset == 0 {
		flags = d3d9.LOCK_DISCARD
	}
	mem, err := b.vb.Lock(uint(offset), uint(len(data)), flags)
	if err != nil {
		return deviceError(err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(mem.Memory)), len(data)), data)
	return b.vb.Unlock()
}

type indexBuffer struct{ ib *d3d9.IndexBuffer }

func (b *indexBuffer) Release() { b.ib.Release() }

func (b *indexBuffer) Write(offset int, data []byte) error {
	flags := uint32(0)
	if offset == 0 {
		flags = d3d9.LOCK_DISCARD
	}
	mem, err := b.ib.Lock(uint(offset), uint(len(data)), flags)
	if err != nil {
		return deviceError(err)
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(mem.Memory)), len(data)), data)
	return b.ib.Unlock()
}

// pool returns the pool of a buffer. Dynamic buffers must live in the default pool.
func pool(usage uint32) d3d9.POOL {
	if usage&usageDynamic != 0 {
		return d3d9.POOL_DEFAULT
	}
	return d3d9.POOL_MANAGED
}

func (d *NativeDevice) CreateVertexBuffer(size int, usage uint32) (VertexBuffer, error) {
	vb, err := d.dev.CreateVertexBuffer(uint(size), usage, 0, pool(usage), 0)
	if err != nil {
		return nil, deviceError(err)
	}
	return &vertexBuffer{vb: vb}, nil
}

func (d *NativeDevice) CreateIndexBuffer(size int, usage, format uint32) (IndexBuffer, error) {
	ib, err := d.dev.CreateIndexBuffer(uint(size), usage, d3d9.FORMAT(format), pool(usage), 0)
	if err != nil {
		return nil, deviceError(err)
	}
	return &indexBuffer{ib: ib}, nil
}

func (d *NativeDevice) SetStreamSource(vb VertexBuffer, stride int) error {
	var native *d3d9.VertexBuffer
	if b, ok := vb.(*vertexBuffer); ok {
		native = b.vb
	}
	return d.dev.SetStreamSource(0, native, 0, uint(stride))
}

func (d *NativeDevice) SetIndices(ib IndexBuffer) error {
	var native *d3d9.IndexBuffer
	if b, ok := ib.(*indexBuffer); ok {
		native = b.ib
	}
	return d.dev.SetIndices(native)
}

type vertexDeclaration struct{ decl *d3d9.VertexDeclaration }

func (v *vertexDeclaration) Release() { v.decl.Release() }

func (d *NativeDevice) CreateVertexDeclaration(elements []VertexElement) (VertexDeclaration, error) {
	native := make([]d3d9.VERTEXELEMENT, 0, len(elements)+1)
	for _, e := range elements {
		native = append(native, d3d9.VERTEXELEMENT{
			Stream:     e.Stream,
			Offset:     e.Offset,
			Type:       d3d9.DECLTYPE(e.Type),
			Method:     d3d9.DECLMETHOD(e.Method),
			Usage:      d3d9.DECLUSAGE(e.Usage),
			UsageIndex: e.UsageIndex,
		})
	}
	// D3DDECL_END
	native = append(native, d3d9.VERTEXELEMENT{Stream: 0xFF, Type: d3d9.DECLTYPE(declUnused)})
	decl, err := d.dev.CreateVertexDeclaration(native)
	if err != nil {
		return nil, deviceError(err)
	}
	return &vertexDeclaration{decl: decl}, nil
}

func (d *NativeDevice) SetVertexDeclaration(decl VertexDeclaration) error {
	var native *d3d9.VertexDeclaration
	if v, ok := decl.(*vertexDeclaration); ok {
		native = v.decl
	}
	return d.dev.SetVertexDeclaration(native)
}

func (d *NativeDevice) SetFVF(fvf uint32) error {
	return d.dev.SetFVF(fvf)
}

func (d *NativeDevice) DrawPrimitive(primitive uint32, startVertex, primitiveCount int) error {
	return d.dev.DrawPrimitive(d3d9.PRIMITIVETYPE(primitive), uint(startVertex), uint(primitiveCount))
}

func (d *NativeDevice) DrawIndexedPrimitive(primitive uint32, numVertices, startIndex, primitiveCount int) error {
	return d.dev.DrawIndexedPrimitive(d3d9.PRIMITIVETYPE(primitive), 0, 0, uint(numVertices), uint(startIndex), uint(primitiveCount))
}

func (d *NativeDevice) DrawPrimitiveUP(primitive uint32, primitiveCount int, data []byte, stride int) error {
	if len(data) == 0 {
		return nil
	}
	return d.dev.DrawPrimitiveUP(d3d9.PRIMITIVETYPE(primitive), uint(primitiveCount), uintptr(unsafe.Pointer(&data[0])), uint(stride))
}

type surface struct{ s *d3d9.Surface }

func (s *surface) Release() { s.s.Release() }

func nativeSurface(s Surface) *d3d9.Surface {
	if v, ok := s.(*surface); ok {
		return v.s
	}
	return nil
}

type texture struct{ tex *d3d9.Texture }

func (t *texture) Release() { t.tex.Release() }

func (t *texture) WriteLevel(level int, pixels []byte, pitch int) error {
	rect, err := t.tex.LockRect(uint(level), nil, 0)
	if err != nil {
		return deviceError(err)
	}
	rect.SetAllBytes(pixels, pitch)
	return t.tex.UnlockRect(uint(level))
}

func (t *texture) Surface() (Surface, error) {
	s, err := t.tex.GetSurfaceLevel(0)
	if err != nil {
		return nil, deviceError(err)
	}
	return &surface{s: s}, nil
}

func (t *texture) GenerateMipSubLevels() {
	t.tex.GenerateMipSubLevels()
}

func (d *NativeDevice) CreateTexture(width, height, levels int, usage, format, pool uint32) (Texture, error) {
	tex, err := d.dev.CreateTexture(uint(width), uint(height), uint(levels), usage, d3d9.FORMAT(format), d3d9.POOL(pool), 0)
	if err != nil {
		return nil, deviceError(err)
	}
	return &texture{tex: tex}, nil
}

func (d *NativeDevice) SetTexture(stage int, tex Texture) error {
	if t, ok := tex.(*texture); ok {
		return d.dev.SetTexture(uint32(stage), t.tex)
	}
	return d.dev.SetTexture(uint32(stage), nil)
}

func (d *NativeDevice) RenderTarget() (Surface, error) {
	s, err := d.dev.GetRenderTarget(0)
	if err != nil {
		return nil, deviceError(err)
	}
	return &surface{s: s}, nil
}

func (d *NativeDevice) DepthStencilSurface() (Surface, error) {
	s, err := d.dev.GetDepthStencilSurface()
	if err != nil {
		return nil, deviceError(err)
	}
	return &surface{s: s}, nil
}

func (d *NativeDevice) CreateDepthStencilSurface(width, height int, format uint32) (Surface, error) {
	s, err := d.dev.CreateDepthStencilSurface(uint(width), uint(height), d3d9.FORMAT(format), d3d9.MULTISAMPLE_NONE, 0, true, 0)
	if err != nil {
		return nil, deviceError(err)
	}
	return &surface{s: s}, nil
}

func (d *NativeDevice) SetRenderTarget(s Surface) error {
	return d.dev.SetRenderTarget(0, nativeSurface(s))
}

func (d *NativeDevice) SetDepthStencilSurface(s Surface) error {
	return d.dev.SetDepthStencilSurface(nativeSurface(s))
}

type query struct {
	q    *d3d9.Query
	size int
}

func (q *query) Release() { q.q.Release() }

func (q *query) Issue(flags uint32) error {
	return q.q.Issue(flags)
}

func (q *query) Data() (uint64, bool, error) {
	var buf [8]byte
	err := q.q.GetData(buf[:q.size], getDataFlush)
	if err != nil {
		var d3dErr d3d9.Error
		if errors.As(err, &d3dErr) && d3dErr.Code() == sFalse {
			return 0, false, nil
		}
		return 0, false, deviceError(err)
	}
	var v uint64
	for i := q.size - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}
	return v, true, nil
}

func (d *NativeDevice) CreateQuery(typ uint32) (Query, error) {
	q, err := d.dev.CreateQuery(d3d9.QUERYTYPE(typ))
	if err != nil {
		return nil, deviceError(err)
	}
	// occlusion results are DWORDs, timestamps UINT64s
	size := 8
	if typ == queryOcclusion {
		size = 4
	}
	return &query{q: q, size: size}, nil
}

// CompileShader compiles HLSL with the D3DCompiler library.
func (d *NativeDevice) CompileShader(source, entryPoint, profile string) ([]byte, error) {
	return hlsl.Compile(source, entryPoint, profile)
}

type vertexShader struct{ s *d3d9.VertexShader }

func (s *vertexShader) Release() { s.s.Release() }

type pixelShader struct{ s *d3d9.PixelShader }

func (s *pixelShader) Release() { s.s.Release() }

func (d *NativeDevice) CreateVertexShader(bytecode []byte) (VertexShader, error) {
	s, err := d.dev.CreateVertexShaderFromBytes(bytecode)
	if err != nil {
		return nil, deviceError(err)
	}
	return &vertexShader{s: s}, nil
}

func (d *NativeDevice) CreatePixelShader(bytecode []byte) (PixelShader, error) {
	s, err := d.dev.CreatePixelShaderFromBytes(bytecode)
	if err != nil {
		return nil, deviceError(err)
	}
	return &pixelShader{s: s}, nil
}

func (d *NativeDevice) SetVertexShader(s VertexShader) error {
	var native *d3d9.VertexShader
	if v, ok := s.(*vertexShader); ok {
		native = v.s
	}
	return d.dev.SetVertexShader(native)
}

func (d *NativeDevice) SetPixelShader(s PixelShader) error {
	var native *d3d9.PixelShader
	if v, ok := s.(*pixelShader); ok {
		native = v.s
	}
	return d.dev.SetPixelShader(native)
}

func (d *NativeDevice) SetVertexShaderConstantF(register int, data []float32) error {
	return d.dev.SetVertexShaderConstantF(uint(register), data)
}

func (d *NativeDevice) SetPixelShaderConstantF(register int, data []float32) error {
	return d.dev.SetPixelShaderConstantF(uint(register), data)
}
