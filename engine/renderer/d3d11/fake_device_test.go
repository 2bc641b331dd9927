package d3d11

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
)

type bufferWrite struct {
	kind   string
	offset int
	data   []byte
}

// fakeObject stands in for every native object. Pointers keep the cached bindings comparable.
type fakeObject struct {
	dev   *fakeDevice
	kind  string
	id    int
	typ   uint32
	size  int
	value uint64
}

func (o *fakeObject) String() string {
	return fmt.Sprintf("%s#%d", o.kind, o.id)
}

func (o *fakeObject) Release() {
	o.dev.released[o.kind]++
}

func (o *fakeObject) Write(offset int, data []byte) error {
	if offset+len(data) > o.size {
		return fmt.Errorf("write of %d bytes at %d outside of a %d byte buffer", len(data), offset, o.size)
	}
	o.dev.writes = append(o.dev.writes, bufferWrite{kind: o.kind, offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func (o *fakeObject) WriteLevel(level int, pixels []byte, pitch int) error {
	o.dev.record("WriteLevel", o, level, len(pixels), pitch)
	o.dev.writes = append(o.dev.writes, bufferWrite{kind: "textureLevel", offset: level, data: append([]byte(nil), pixels...)})
	return nil
}

func (o *fakeObject) GenerateMips() {
	o.dev.record("GenerateMips", o)
}

func (o *fakeObject) Data() (uint64, bool, error) {
	if o.dev.removed {
		return 0, false, ErrDeviceLost
	}
	if !o.dev.available {
		return 0, false, nil
	}
	switch o.typ {
	case queryOcclusion, queryOcclusionPredicate:
		return o.dev.samples, true, nil
	case querySOStatistics:
		return o.dev.primitives, true, nil
	case queryTimestampDisjoint:
		return o.dev.frequency, true, nil
	}
	return o.value, true, nil
}

// fakeDevice records the device calls made by the render system.
type fakeDevice struct {
	level uint32

	calls    []string
	writes   []bufferWrite
	sources  []string
	released map[string]int
	created  map[string]int
	nextID   int

	backBuffer *fakeObject
	backDepth  *fakeObject

	failCompile bool
	available   bool
	removed     bool
	samples     uint64
	primitives  uint64
	clock       uint64
	tick        uint64
	frequency   uint64
}

var _ Device = &fakeDevice{}

func newFakeDevice() *fakeDevice {
	f := &fakeDevice{
		level:     FeatureLevel11_0,
		released:  map[string]int{},
		created:   map[string]int{},
		available: true,
		tick:      1,
		frequency: 1,
	}
	f.backBuffer = f.object("backBuffer")
	f.backDepth = f.object("backDepth")
	return f
}

func (f *fakeDevice) record(name string, args ...any) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	f.calls = append(f.calls, name+"("+strings.Join(parts, ",")+")")
}

// count returns how many recorded calls start with prefix.
func (f *fakeDevice) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeDevice) reset() {
	f.calls = nil
	f.writes = nil
	f.sources = nil
}

// writesOf returns the buffer writes to objects of kind.
func (f *fakeDevice) writesOf(kind string) []bufferWrite {
	var out []bufferWrite
	for _, w := range f.writes {
		if w.kind == kind {
			out = append(out, w)
		}
	}
	return out
}

func (f *fakeDevice) object(kind string) *fakeObject {
	f.nextID++
	f.created[kind]++
	return &fakeObject{dev: f, kind: kind, id: f.nextID}
}

func (f *fakeDevice) Adapter() AdapterInfo {
	return AdapterInfo{Description: "fake adapter", Vendor: "fake vendor", Version: featureLevelName(f.level)}
}

func (f *fakeDevice) FeatureLevel() uint32 { return f.level }

func (f *fakeDevice) BackBuffer() (RenderTargetView, DepthStencilView) {
	return f.backBuffer, f.backDepth
}

func bufferKind(bind uint32) string {
	switch {
	case bind&bindVertexBuffer != 0:
		return "vertexBuffer"
	case bind&bindIndexBuffer != 0:
		return "indexBuffer"
	case bind&bindConstantBuffer != 0:
		return "constantBuffer"
	}
	return "buffer"
}

func (f *fakeDevice) CreateBuffer(desc BufferDesc, data []byte) (Buffer, error) {
	f.record("CreateBuffer", desc.Size, desc.Usage, desc.Bind)
	b := f.object(bufferKind(desc.Bind))
	b.size = desc.Size
	return b, nil
}

func (f *fakeDevice) CreateTexture2D(desc TextureDesc) (Texture, error) {
	f.record("CreateTexture2D", desc.Width, desc.Height, desc.MipLevels, desc.Format, desc.Bind, desc.Misc)
	return f.object("texture"), nil
}

func (f *fakeDevice) CreateShaderResourceView(t Texture) (ShaderResourceView, error) {
	f.record("CreateShaderResourceView", t)
	return f.object("view"), nil
}

func (f *fakeDevice) CreateRenderTargetView(t Texture) (RenderTargetView, error) {
	f.record("CreateRenderTargetView", t)
	return f.object("targetView"), nil
}

func (f *fakeDevice) CreateDepthStencilView(t Texture) (DepthStencilView, error) {
	f.record("CreateDepthStencilView", t)
	return f.object("depthView"), nil
}

func (f *fakeDevice) CreateInputLayout(elements []InputElement, bytecode []byte) (InputLayout, error) {
	semantics := make([]string, len(elements))
	for i, e := range elements {
		semantics[i] = fmt.Sprintf("%s%d", e.Semantic, e.Index)
	}
	f.record("CreateInputLayout", strings.Join(semantics, "+"), string(bytecode))
	return f.object("inputLayout"), nil
}

func (f *fakeDevice) CreateBlendState(desc BlendDesc) (StateObject, error) {
	f.record("CreateBlendState", desc.Enable, desc.Src, desc.Dst, desc.WriteMask)
	return f.object("blendState"), nil
}

func (f *fakeDevice) CreateDepthStencilState(desc DepthStencilDesc) (StateObject, error) {
	f.record("CreateDepthStencilState", desc.DepthEnable, desc.DepthWrite, desc.DepthFunc, desc.StencilEnable)
	return f.object("depthStencilState"), nil
}

func (f *fakeDevice) CreateRasterizerState(desc RasterizerDesc) (StateObject, error) {
	f.record("CreateRasterizerState", desc.Fill, desc.Cull, desc.FrontCounterClockwise, desc.Scissor)
	return f.object("rasterizerState"), nil
}

func (f *fakeDevice) CreateSamplerState(desc SamplerDesc) (StateObject, error) {
	f.record("CreateSamplerState", fmt.Sprintf("%#x", desc.Filter), desc.Address, desc.MaxAnisotropy)
	return f.object("samplerState"), nil
}

func (f *fakeDevice) CreateQuery(typ uint32) (Query, error) {
	f.record("CreateQuery", typ)
	q := f.object("query")
	q.typ = typ
	return q, nil
}

func (f *fakeDevice) CompileShader(source, entryPoint, profile string) ([]byte, error) {
	f.record("CompileShader", entryPoint, profile)
	f.sources = append(f.sources, source)
	if f.failCompile {
		return nil, errors.New("error X3000: syntax error")
	}
	return []byte(profile + ":" + entryPoint), nil
}

func (f *fakeDevice) CreateVertexShader(bytecode []byte) (Shader, error) {
	f.record("CreateVertexShader", string(bytecode))
	return f.object("vertexShader"), nil
}

func (f *fakeDevice) CreatePixelShader(bytecode []byte) (Shader, error) {
	f.record("CreatePixelShader", string(bytecode))
	return f.object("pixelShader"), nil
}

func (f *fakeDevice) CreateGeometryShader(bytecode []byte) (Shader, error) {
	f.record("CreateGeometryShader", string(bytecode))
	return f.object("geometryShader"), nil
}

func (f *fakeDevice) IASetInputLayout(l InputLayout)           { f.record("IASetInputLayout", l) }
func (f *fakeDevice) IASetVertexBuffer(b Buffer, stride int)   { f.record("IASetVertexBuffer", b, stride) }
func (f *fakeDevice) IASetIndexBuffer(b Buffer, format uint32) { f.record("IASetIndexBuffer", b, format) }
func (f *fakeDevice) IASetPrimitiveTopology(topology uint32) {
	f.record("IASetPrimitiveTopology", topology)
}

func (f *fakeDevice) VSSetShader(s Shader) { f.record("VSSetShader", s) }
func (f *fakeDevice) PSSetShader(s Shader) { f.record("PSSetShader", s) }
func (f *fakeDevice) GSSetShader(s Shader) { f.record("GSSetShader", s) }
func (f *fakeDevice) VSSetConstantBuffer(slot int, b Buffer) {
	f.record("VSSetConstantBuffer", slot, b)
}

func (f *fakeDevice) PSSetConstantBuffer(slot int, b Buffer) {
	f.record("PSSetConstantBuffer", slot, b)
}

func (f *fakeDevice) PSSetShaderResource(slot int, v ShaderResourceView) {
	f.record("PSSetShaderResource", slot, v)
}

func (f *fakeDevice) PSSetSampler(slot int, s StateObject) { f.record("PSSetSampler", slot, s) }
func (f *fakeDevice) OMSetBlendState(s StateObject)        { f.record("OMSetBlendState", s) }
func (f *fakeDevice) OMSetDepthStencilState(s StateObject, ref uint32) {
	f.record("OMSetDepthStencilState", s, ref)
}

func (f *fakeDevice) OMSetRenderTarget(rt RenderTargetView, ds DepthStencilView) {
	f.record("OMSetRenderTarget", rt, ds)
}

func (f *fakeDevice) RSSetState(s StateObject) { f.record("RSSetState", s) }
func (f *fakeDevice) RSSetViewport(v Viewport) {
	f.record("RSSetViewport", v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

func (f *fakeDevice) RSSetScissorRect(r common.Rect) {
	f.record("RSSetScissorRect", r.Left, r.Top, r.Right, r.Bottom)
}

func (f *fakeDevice) ClearRenderTargetView(rt RenderTargetView, color [4]float32) {
	f.record("ClearRenderTargetView", rt, color)
}

func (f *fakeDevice) ClearDepthStencilView(ds DepthStencilView, flags uint32, depth float32, stencil uint8) {
	f.record("ClearDepthStencilView", ds, flags, depth, stencil)
}

func (f *fakeDevice) Draw(count, start int)        { f.record("Draw", count, start) }
func (f *fakeDevice) DrawIndexed(count, start int) { f.record("DrawIndexed", count, start) }

func (f *fakeDevice) Begin(q Query) { f.record("Begin", q) }
func (f *fakeDevice) End(q Query) {
	f.record("End", q)
	if o, ok := q.(*fakeObject); ok && o.typ == queryTimestamp {
		o.value = f.clock
		f.clock += f.tick
	}
}

func (f *fakeDevice) Flush() { f.record("Flush") }
