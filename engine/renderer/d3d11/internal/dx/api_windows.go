//go:build windows

package dx

import (
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type IDXGIObject struct {
	Vtbl *struct {
		_IUnknownVTbl
		SetPrivateData          uintptr
		SetPrivateDataInterface uintptr
		GetPrivateData          uintptr
		GetParent               uintptr
	}
}

type IDXGIFactory struct {
	Vtbl *struct {
		_IUnknownVTbl
		SetPrivateData          uintptr
		SetPrivateDataInterface uintptr
		GetPrivateData          uintptr
		GetParent               uintptr
		EnumAdapters            uintptr
		MakeWindowAssociation   uintptr
		GetWindowAssociation    uintptr
		CreateSwapChain         uintptr
		CreateSoftwareAdapter   uintptr
	}
}

// ErrorCode is a failed HRESULT.
type ErrorCode struct {
	Name string
	Code uint32
}

func (e ErrorCode) Error() string {
	return fmt.Sprintf("%s: %#x", e.Name, e.Code)
}

var (
	IID_Texture2D    = GUID{0x6f15aaf2, 0xd208, 0x4e89, 0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}
	IID_IDXGIDevice  = GUID{0x54ec77fa, 0x1377, 0x44e6, 0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}
	IID_IDXGIFactory = GUID{0x7b7166ec, 0x21c7, 0x44ae, 0xb2, 0x1a, 0xc9, 0xae, 0x32, 0x1a, 0xe3, 0x69}
)

var (
	d3d11 = windows.NewLazySystemDLL("d3d11.dll")

	_D3D11CreateDevice = d3d11.NewProc("D3D11CreateDevice")
)

const (
	SDK_VERSION          = 7
	DRIVER_TYPE_HARDWARE = 1

	CREATE_DEVICE_BGRA_SUPPORT = 0x20

	DXGI_FORMAT_R8G8B8A8_UNORM    = 28
	DXGI_FORMAT_D24_UNORM_S8_UINT = 45

	DXGI_USAGE_RENDER_TARGET_OUTPUT = 1 << (1 + 4)
	DXGI_SWAP_EFFECT_DISCARD        = 0
	DXGI_MWA_NO_ALT_ENTER           = 0x2

	DXGI_STATUS_OCCLUDED      = 0x087A0001
	DXGI_ERROR_DEVICE_REMOVED = 0x887A0005
	DXGI_ERROR_DEVICE_RESET   = 0x887A0007

	USAGE_DEFAULT = 0
	USAGE_DYNAMIC = 2

	CPU_ACCESS_WRITE = 0x10000

	MAP_WRITE_DISCARD      = 4
	MAP_WRITE_NO_OVERWRITE = 5

	BIND_DEPTH_STENCIL = 0x40

	DSV_DIMENSION_TEXTURE2D   = 3
	DSV_DIMENSION_TEXTURE2DMS = 4

	ASYNC_GETDATA_DONOTFLUSH = 0x1

	S_FALSE = 1
)

// CreateDevice creates a hardware device with the first supported feature level of levels.
func CreateDevice(flags uint32, levels []uint32) (*Device, *DeviceContext, uint32, error) {
	var (
		dev     *Device
		ctx     *DeviceContext
		featLvl uint32
	)
	var levelsPtr uintptr
	if len(levels) > 0 {
		levelsPtr = uintptr(unsafe.Pointer(&levels[0]))
	}
	r, _, _ := _D3D11CreateDevice.Call(
		0,                    // pAdapter
		DRIVER_TYPE_HARDWARE, // driverType
		0,                    // Software
		uintptr(flags),       // Flags
		levelsPtr,            // pFeatureLevels
		uintptr(len(levels)), // FeatureLevels
		SDK_VERSION,          // SDKVersion
		uintptr(unsafe.Pointer(&dev)),
		uintptr(unsafe.Pointer(&featLvl)),
		uintptr(unsafe.Pointer(&ctx)),
	)
	if r != 0 {
		return nil, nil, 0, ErrorCode{Name: "D3D11CreateDevice", Code: uint32(r)}
	}
	return dev, ctx, featLvl, nil
}

// CreateSwapChain creates a swap chain for hwnd through the factory of the device's adapter and
// returns the adapter description alongside.
func CreateSwapChain(dev *Device, desc *DXGI_SWAP_CHAIN_DESC) (*IDXGISwapChain, DXGI_ADAPTER_DESC, error) {
	var adapterDesc DXGI_ADAPTER_DESC
	dxgiDev, err := IUnknownQueryInterface(unsafe.Pointer(dev), dev.Vtbl.QueryInterface, &IID_IDXGIDevice)
	if err != nil {
		return nil, adapterDesc, fmt.Errorf("CreateSwapChain: %w", err)
	}
	adapter, err := (*IDXGIDevice)(unsafe.Pointer(dxgiDev)).GetAdapter()
	IUnknownRelease(unsafe.Pointer(dxgiDev), dxgiDev.Vtbl.Release)
	if err != nil {
		return nil, adapterDesc, fmt.Errorf("CreateSwapChain: %w", err)
	}
	if d, err := adapter.GetDesc(); err == nil {
		adapterDesc = d
	}
	factory, err := (*IDXGIObject)(unsafe.Pointer(adapter)).GetParent(&IID_IDXGIFactory)
	IUnknownRelease(unsafe.Pointer(adapter), adapter.Vtbl.Release)
	if err != nil {
		return nil, adapterDesc, fmt.Errorf("CreateSwapChain: %w", err)
	}
	f := (*IDXGIFactory)(unsafe.Pointer(factory))
	defer IUnknownRelease(unsafe.Pointer(f), f.Vtbl.Release)
	swchain, err := f.CreateSwapChain((*IUnknown)(unsafe.Pointer(dev)), desc)
	if err != nil {
		return nil, adapterDesc, fmt.Errorf("CreateSwapChain: %w", err)
	}
	f.MakeWindowAssociation(desc.OutputWindow, DXGI_MWA_NO_ALT_ENTER)
	return swchain, adapterDesc, nil
}

func (d *IDXGIObject) GetParent(guid *GUID) (*IDXGIObject, error) {
	var parent *IDXGIObject
	r, _, _ := syscall.Syscall(
		d.Vtbl.GetParent,
		3,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(guid)),
		uintptr(unsafe.Pointer(&parent)),
	)
	if r != 0 {
		return nil, ErrorCode{Name: "IDXGIObjectGetParent", Code: uint32(r)}
	}
	return parent, nil
}

func (d *IDXGIFactory) CreateSwapChain(device *IUnknown, desc *DXGI_SWAP_CHAIN_DESC) (*IDXGISwapChain, error) {
	var swchain *IDXGISwapChain
	r, _, _ := syscall.Syscall6(
		d.Vtbl.CreateSwapChain,
		4,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(device)),
		uintptr(unsafe.Pointer(desc)),
		uintptr(unsafe.Pointer(&swchain)),
		0, 0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "IDXGIFactoryCreateSwapChain", Code: uint32(r)}
	}
	return swchain, nil
}

func (d *IDXGIFactory) MakeWindowAssociation(hwnd windows.Handle, flags uint32) {
	syscall.Syscall(
		d.Vtbl.MakeWindowAssociation,
		3,
		uintptr(unsafe.Pointer(d)),
		uintptr(hwnd),
		uintptr(flags),
	)
}

func (d *IDXGIDevice) GetAdapter() (*IDXGIAdapter, error) {
	var adapter *IDXGIAdapter
	r, _, _ := syscall.Syscall(
		d.Vtbl.GetAdapter,
		2,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(&adapter)),
		0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "IDXGIDeviceGetAdapter", Code: uint32(r)}
	}
	return adapter, nil
}

func (a *IDXGIAdapter) GetDesc() (DXGI_ADAPTER_DESC, error) {
	var desc DXGI_ADAPTER_DESC
	r, _, _ := syscall.Syscall(
		a.Vtbl.GetDesc,
		2,
		uintptr(unsafe.Pointer(a)),
		uintptr(unsafe.Pointer(&desc)),
		0,
	)
	if r != 0 {
		return desc, ErrorCode{Name: "IDXGIAdapterGetDesc", Code: uint32(r)}
	}
	return desc, nil
}

func (s *IDXGISwapChain) Present(syncInterval int, flags uint32) error {
	r, _, _ := syscall.Syscall(
		s.Vtbl.Present,
		3,
		uintptr(unsafe.Pointer(s)),
		uintptr(syncInterval),
		uintptr(flags),
	)
	if r != 0 && uint32(r) != DXGI_STATUS_OCCLUDED {
		return ErrorCode{Name: "IDXGISwapChainPresent", Code: uint32(r)}
	}
	return nil
}

func (s *IDXGISwapChain) GetBuffer(index int, riid *GUID) (*IUnknown, error) {
	var buf *IUnknown
	r, _, _ := syscall.Syscall6(
		s.Vtbl.GetBuffer,
		4,
		uintptr(unsafe.Pointer(s)),
		uintptr(index),
		uintptr(unsafe.Pointer(riid)),
		uintptr(unsafe.Pointer(&buf)),
		0,
		0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "IDXGISwapChainGetBuffer", Code: uint32(r)}
	}
	return buf, nil
}

func (s *IDXGISwapChain) ResizeBuffers(buffers, width, height, newFormat, flags uint32) error {
	r, _, _ := syscall.Syscall6(
		s.Vtbl.ResizeBuffers,
		6,
		uintptr(unsafe.Pointer(s)),
		uintptr(buffers),
		uintptr(width),
		uintptr(height),
		uintptr(newFormat),
		uintptr(flags),
	)
	if r != 0 {
		return ErrorCode{Name: "IDXGISwapChainResizeBuffers", Code: uint32(r)}
	}
	return nil
}

func (s *IDXGISwapChain) SetFullscreenState(fullscreen bool) error {
	var state uintptr
	if fullscreen {
		state = 1
	}
	r, _, _ := syscall.Syscall(
		s.Vtbl.SetFullscreenState,
		3,
		uintptr(unsafe.Pointer(s)),
		state,
		0,
	)
	if r != 0 {
		return ErrorCode{Name: "IDXGISwapChainSetFullscreenState", Code: uint32(r)}
	}
	return nil
}

func (d *Device) CreateBuffer(desc *BUFFER_DESC, data []byte) (*Buffer, error) {
	var dataDesc *SUBRESOURCE_DATA
	if len(data) > 0 {
		dataDesc = &SUBRESOURCE_DATA{
			SysMem: &data[0],
		}
	}
	var buf *Buffer
	r, _, _ := syscall.Syscall6(
		d.Vtbl.CreateBuffer,
		4,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(desc)),
		uintptr(unsafe.Pointer(dataDesc)),
		uintptr(unsafe.Pointer(&buf)),
		0, 0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "DeviceCreateBuffer", Code: uint32(r)}
	}
	return buf, nil
}

func (d *Device) CreateTexture2D(desc *TEXTURE2D_DESC) (*Texture2D, error) {
	var tex *Texture2D
	r, _, _ := syscall.Syscall6(
		d.Vtbl.CreateTexture2D,
		4,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(desc)),
		0, // pInitialData
		uintptr(unsafe.Pointer(&tex)),
		0, 0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "DeviceCreateTexture2D", Code: uint32(r)}
	}
	return tex, nil
}

func (d *Device) CreateShaderResourceView(res *Resource) (*ShaderResourceView, error) {
	var view *ShaderResourceView
	r, _, _ := syscall.Syscall6(
		d.Vtbl.CreateShaderResourceView,
		4,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(res)),
		0, // pDesc
		uintptr(unsafe.Pointer(&view)),
		0, 0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "DeviceCreateShaderResourceView", Code: uint32(r)}
	}
	return view, nil
}

func (d *Device) CreateRenderTargetView(res *Resource) (*RenderTargetView, error) {
	var target *RenderTargetView
	r, _, _ := syscall.Syscall6(
		d.Vtbl.CreateRenderTargetView,
		4,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(res)),
		0, // pDesc
		uintptr(unsafe.Pointer(&target)),
		0, 0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "DeviceCreateRenderTargetView", Code: uint32(r)}
	}
	return target, nil
}

func (d *Device) CreateDepthStencilViewTEX2D(res *Resource, desc *DEPTH_STENCIL_VIEW_DESC_TEX2D) (*DepthStencilView, error) {
	var view *DepthStencilView
	r, _, _ := syscall.Syscall6(
		d.Vtbl.CreateDepthStencilView,
		4,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(res)),
		uintptr(unsafe.Pointer(desc)),
		uintptr(unsafe.Pointer(&view)),
		0, 0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: "DeviceCreateDepthStencilView", Code: uint32(r)}
	}
	return view, nil
}

func (d *Device) CreateInputLayout(descs []INPUT_ELEMENT_DESC, bytecode []byte) (*InputLayout, error) {
	var pdesc *INPUT_ELEMENT_DESC
	if len(descs) > 0 {
		pdesc = &descs[0]
	}
	var layout *InputLayout
	r, _, _ := syscall.Syscall6(
		d.Vtbl.CreateInputLayout,
		6,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(pdesc)),
		uintptr(len(descs)),
		uintptr(unsafe.Pointer(&bytecode[0])),
		uintptr(len(bytecode)),
		uintptr(unsafe.Pointer(&layout)),
	)
	if r != 0 {
		return nil, ErrorCode{Name: "DeviceCreateInputLayout", Code: uint32(r)}
	}
	return layout, nil
}

// createShader calls one of the Create*Shader methods, which share their signature.
func (d *Device) createShader(method uintptr, name string, bytecode []byte) (*IUnknown, error) {
	var shader *IUnknown
	r, _, _ := syscall.Syscall6(
		method,
		5,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(&bytecode[0])),
		uintptr(len(bytecode)),
		0, // pClassLinkage
		uintptr(unsafe.Pointer(&shader)),
		0,
	)
	if r != 0 {
		return nil, ErrorCode{Name: name, Code: uint32(r)}
	}
	return shader, nil
}

func (d *Device) CreateVertexShader(bytecode []byte) (*VertexShader, error) {
	s, err := d.createShader(d.Vtbl.CreateVertexShader, "DeviceCreateVertexShader", bytecode)
	return (*VertexShader)(s), err
}

func (d *Device) CreatePixelShader(bytecode []byte) (*PixelShader, error) {
	s, err := d.createShader(d.Vtbl.CreatePixelShader, "DeviceCreatePixelShader", bytecode)
	return (*PixelShader)(s), err
}

func (d *Device) CreateGeometryShader(bytecode []byte) (*GeometryShader, error) {
	s, err := d.createShader(d.Vtbl.CreateGeometryShader, "DeviceCreateGeometryShader", bytecode)
	return (*GeometryShader)(s), err
}

// createState calls one of the Create*State methods, which take a description and return the
// object.
func (d *Device) createState(method uintptr, name string, desc unsafe.Pointer) (*IUnknown, error) {
	var state *IUnknown
	r, _, _ := syscall.Syscall(
		method,
		3,
		uintptr(unsafe.Pointer(d)),
		uintptr(desc),
		uintptr(unsafe.Pointer(&state)),
	)
	if r != 0 {
		return nil, ErrorCode{Name: name, Code: uint32(r)}
	}
	return state, nil
}

func (d *Device) CreateBlendState(desc *BLEND_DESC) (*BlendState, error) {
	s, err := d.createState(d.Vtbl.CreateBlendState, "DeviceCreateBlendState", unsafe.Pointer(desc))
	return (*BlendState)(s), err
}

func (d *Device) CreateDepthStencilState(desc *DEPTH_STENCIL_DESC) (*DepthStencilState, error) {
	s, err := d.createState(d.Vtbl.CreateDepthStencilState, "DeviceCreateDepthStencilState", unsafe.Pointer(desc))
	return (*DepthStencilState)(s), err
}

func (d *Device) CreateRasterizerState(desc *RASTERIZER_DESC) (*RasterizerState, error) {
	s, err := d.createState(d.Vtbl.CreateRasterizerState, "DeviceCreateRasterizerState", unsafe.Pointer(desc))
	return (*RasterizerState)(s), err
}

func (d *Device) CreateSamplerState(desc *SAMPLER_DESC) (*SamplerState, error) {
	s, err := d.createState(d.Vtbl.CreateSamplerState, "DeviceCreateSamplerState", unsafe.Pointer(desc))
	return (*SamplerState)(s), err
}

func (d *Device) CreateQuery(desc *QUERY_DESC) (*Query, error) {
	s, err := d.createState(d.Vtbl.CreateQuery, "DeviceCreateQuery", unsafe.Pointer(desc))
	return (*Query)(s), err
}

func (d *Device) GetFeatureLevel() uint32 {
	lvl, _, _ := syscall.Syscall(
		d.Vtbl.GetFeatureLevel,
		1,
		uintptr(unsafe.Pointer(d)),
		0, 0,
	)
	return uint32(lvl)
}

func (d *Device) GetDeviceRemovedReason() error {
	r, _, _ := syscall.Syscall(
		d.Vtbl.GetDeviceRemovedReason,
		1,
		uintptr(unsafe.Pointer(d)),
		0, 0,
	)
	if r != 0 {
		return ErrorCode{Name: "DeviceGetDeviceRemovedReason", Code: uint32(r)}
	}
	return nil
}

func (c *DeviceContext) Map(resource *Resource, subResource, mapType, mapFlags uint32) (MAPPED_SUBRESOURCE, error) {
	var resMap MAPPED_SUBRESOURCE
	r, _, _ := syscall.Syscall6(
		c.Vtbl.Map,
		6,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(resource)),
		uintptr(subResource),
		uintptr(mapType),
		uintptr(mapFlags),
		uintptr(unsafe.Pointer(&resMap)),
	)
	if r != 0 {
		return resMap, ErrorCode{Name: "DeviceContextMap", Code: uint32(r)}
	}
	return resMap, nil
}

func (c *DeviceContext) Unmap(resource *Resource, subResource uint32) {
	syscall.Syscall(
		c.Vtbl.Unmap,
		3,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(resource)),
		uintptr(subResource),
	)
}

func (c *DeviceContext) UpdateSubresource(res *Resource, subResource uint32, dstBox *BOX, rowPitch, depthPitch uint32, data []byte) {
	syscall.Syscall9(
		c.Vtbl.UpdateSubresource,
		7,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(res)),
		uintptr(subResource),
		uintptr(unsafe.Pointer(dstBox)),
		uintptr(unsafe.Pointer(&data[0])),
		uintptr(rowPitch),
		uintptr(depthPitch),
		0, 0,
	)
}

func (c *DeviceContext) GenerateMips(view *ShaderResourceView) {
	syscall.Syscall(
		c.Vtbl.GenerateMips,
		2,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(view)),
		0,
	)
}

func (c *DeviceContext) IASetInputLayout(layout *InputLayout) {
	syscall.Syscall(
		c.Vtbl.IASetInputLayout,
		2,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(layout)),
		0,
	)
}

func (c *DeviceContext) IASetVertexBuffers(buf *Buffer, stride, offset uint32) {
	syscall.Syscall6(
		c.Vtbl.IASetVertexBuffers,
		6,
		uintptr(unsafe.Pointer(c)),
		0, // StartSlot
		1, // NumBuffers
		uintptr(unsafe.Pointer(&buf)),
		uintptr(unsafe.Pointer(&stride)),
		uintptr(unsafe.Pointer(&offset)),
	)
}

func (c *DeviceContext) IASetIndexBuffer(buf *Buffer, format, offset uint32) {
	syscall.Syscall6(
		c.Vtbl.IASetIndexBuffer,
		4,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(buf)),
		uintptr(format),
		uintptr(offset),
		0, 0,
	)
}

func (c *DeviceContext) IASetPrimitiveTopology(mode uint32) {
	syscall.Syscall(
		c.Vtbl.IASetPrimitiveTopology,
		2,
		uintptr(unsafe.Pointer(c)),
		uintptr(mode),
		0,
	)
}

// setShader calls one of the *SetShader methods without class instances.
func (c *DeviceContext) setShader(method uintptr, s unsafe.Pointer) {
	syscall.Syscall6(
		method,
		4,
		uintptr(unsafe.Pointer(c)),
		uintptr(s),
		0, // ppClassInstances
		0, // NumClassInstances
		0, 0,
	)
}

func (c *DeviceContext) VSSetShader(s *VertexShader) {
	c.setShader(c.Vtbl.VSSetShader, unsafe.Pointer(s))
}

func (c *DeviceContext) PSSetShader(s *PixelShader) {
	c.setShader(c.Vtbl.PSSetShader, unsafe.Pointer(s))
}

func (c *DeviceContext) GSSetShader(s *GeometryShader) {
	c.setShader(c.Vtbl.GSSetShader, unsafe.Pointer(s))
}

// setSlot calls one of the *SetConstantBuffers, *SetShaderResources or *SetSamplers methods with
// a single object.
func (c *DeviceContext) setSlot(method uintptr, slot uint32, obj unsafe.Pointer) {
	syscall.Syscall6(
		method,
		4,
		uintptr(unsafe.Pointer(c)),
		uintptr(slot),
		1,
		uintptr(unsafe.Pointer(&obj)),
		0, 0,
	)
}

func (c *DeviceContext) VSSetConstantBuffers(slot uint32, b *Buffer) {
	c.setSlot(c.Vtbl.VSSetConstantBuffers, slot, unsafe.Pointer(b))
}

func (c *DeviceContext) PSSetConstantBuffers(slot uint32, b *Buffer) {
	c.setSlot(c.Vtbl.PSSetConstantBuffers, slot, unsafe.Pointer(b))
}

func (c *DeviceContext) PSSetShaderResources(slot uint32, v *ShaderResourceView) {
	c.setSlot(c.Vtbl.PSSetShaderResources, slot, unsafe.Pointer(v))
}

func (c *DeviceContext) PSSetSamplers(slot uint32, s *SamplerState) {
	c.setSlot(c.Vtbl.PSSetSamplers, slot, unsafe.Pointer(s))
}

func (c *DeviceContext) OMSetRenderTargets(target *RenderTargetView, depthStencil *DepthStencilView) {
	var num uintptr
	if target != nil {
		num = 1
	}
	syscall.Syscall6(
		c.Vtbl.OMSetRenderTargets,
		4,
		uintptr(unsafe.Pointer(c)),
		num,
		uintptr(unsafe.Pointer(&target)),
		uintptr(unsafe.Pointer(depthStencil)),
		0, 0,
	)
}

func (c *DeviceContext) OMSetBlendState(state *BlendState, factor *[4]float32, sampleMask uint32) {
	syscall.Syscall6(
		c.Vtbl.OMSetBlendState,
		4,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(state)),
		uintptr(unsafe.Pointer(factor)),
		uintptr(sampleMask),
		0, 0,
	)
}

func (c *DeviceContext) OMSetDepthStencilState(state *DepthStencilState, stencilRef uint32) {
	syscall.Syscall(
		c.Vtbl.OMSetDepthStencilState,
		3,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(state)),
		uintptr(stencilRef),
	)
}

func (c *DeviceContext) RSSetState(state *RasterizerState) {
	syscall.Syscall(
		c.Vtbl.RSSetState,
		2,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(state)),
		0,
	)
}

func (c *DeviceContext) RSSetViewports(viewport *VIEWPORT) {
	syscall.Syscall(
		c.Vtbl.RSSetViewports,
		3,
		uintptr(unsafe.Pointer(c)),
		1, // NumViewports
		uintptr(unsafe.Pointer(viewport)),
	)
}

func (c *DeviceContext) RSSetScissorRects(rect *RECT) {
	syscall.Syscall(
		c.Vtbl.RSSetScissorRects,
		3,
		uintptr(unsafe.Pointer(c)),
		1, // NumRects
		uintptr(unsafe.Pointer(rect)),
	)
}

func (c *DeviceContext) ClearRenderTargetView(target *RenderTargetView, color *[4]float32) {
	syscall.Syscall(
		c.Vtbl.ClearRenderTargetView,
		3,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(target)),
		uintptr(unsafe.Pointer(color)),
	)
}

func (c *DeviceContext) ClearDepthStencilView(target *DepthStencilView, flags uint32, depth float32, stencil uint8) {
	syscall.Syscall6(
		c.Vtbl.ClearDepthStencilView,
		5,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(target)),
		uintptr(flags),
		uintptr(*(*uint32)(unsafe.Pointer(&depth))),
		uintptr(stencil),
		0,
	)
}

func (c *DeviceContext) Draw(count, start uint32) {
	syscall.Syscall(
		c.Vtbl.Draw,
		3,
		uintptr(unsafe.Pointer(c)),
		uintptr(count),
		uintptr(start),
	)
}

func (c *DeviceContext) DrawIndexed(count, start uint32, base int32) {
	syscall.Syscall6(
		c.Vtbl.DrawIndexed,
		4,
		uintptr(unsafe.Pointer(c)),
		uintptr(count),
		uintptr(start),
		uintptr(base),
		0, 0,
	)
}

func (c *DeviceContext) Begin(q *Query) {
	syscall.Syscall(
		c.Vtbl.Begin,
		2,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(q)),
		0,
	)
}

func (c *DeviceContext) End(q *Query) {
	syscall.Syscall(
		c.Vtbl.End,
		2,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(q)),
		0,
	)
}

// GetData reads size bytes of query data into data. It returns false while the data is not
// available yet (S_FALSE).
func (c *DeviceContext) GetData(q *Query, data unsafe.Pointer, size, flags uint32) (bool, error) {
	r, _, _ := syscall.Syscall6(
		c.Vtbl.GetData,
		5,
		uintptr(unsafe.Pointer(c)),
		uintptr(unsafe.Pointer(q)),
		uintptr(data),
		uintptr(size),
		uintptr(flags),
		0,
	)
	switch r {
	case 0:
		return true, nil
	case S_FALSE:
		return false, nil
	}
	return false, ErrorCode{Name: "DeviceContextGetData", Code: uint32(r)}
}

func (c *DeviceContext) Flush() {
	syscall.Syscall(
		c.Vtbl.Flush,
		1,
		uintptr(unsafe.Pointer(c)),
		0, 0,
	)
}

func (c *DeviceContext) ClearState() {
	syscall.Syscall(
		c.Vtbl.ClearState,
		1,
		uintptr(unsafe.Pointer(c)),
		0, 0,
	)
}

func IUnknownQueryInterface(obj unsafe.Pointer, queryInterfaceMethod uintptr, guid *GUID) (*IUnknown, error) {
	var ref *IUnknown
	r, _, _ := syscall.Syscall(
		queryInterfaceMethod,
		3,
		uintptr(obj),
		uintptr(unsafe.Pointer(guid)),
		uintptr(unsafe.Pointer(&ref)),
	)
	if r != 0 {
		return nil, ErrorCode{Name: "IUnknownQueryInterface", Code: uint32(r)}
	}
	return ref, nil
}

func IUnknownRelease(obj unsafe.Pointer, releaseMethod uintptr) {
	syscall.Syscall(
		releaseMethod,
		1,
		uintptr(obj),
		0,
		0,
	)
}
