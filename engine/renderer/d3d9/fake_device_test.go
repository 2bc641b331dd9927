package d3d9

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
	value uint64
}

func (o *fakeObject) String() string {
	return fmt.Sprintf("%s#%d", o.kind, o.id)
}

func (o *fakeObject) Release() {
	o.dev.released[o.kind]++
}

func (o *fakeObject) Write(offset int, data []byte) error {
	o.dev.writes = append(o.dev.writes, bufferWrite{kind: o.kind, offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func (o *fakeObject) WriteLevel(level int, pixels []byte, pitch int) error {
	o.dev.record("WriteLevel", o, level, len(pixels), pitch)
	o.dev.writes = append(o.dev.writes, bufferWrite{kind: "textureLevel", offset: level, data: append([]byte(nil), pixels...)})
	return nil
}

func (o *fakeObject) Surface() (Surface, error) {
	return o.dev.object("surface"), nil
}

func (o *fakeObject) GenerateMipSubLevels() {
	o.dev.record("GenerateMipSubLevels", o)
}

func (o *fakeObject) Issue(flags uint32) error {
	o.dev.record("Issue", o, flags)
	if o.typ == queryTimestamp && flags == issueEnd {
		o.value = o.dev.clock
		o.dev.clock += o.dev.tick
	}
	return nil
}

func (o *fakeObject) Data() (uint64, bool, error) {
	if o.dev.lost {
		return 0, false, ErrDeviceLost
	}
	if !o.dev.available {
		return 0, false, nil
	}
	switch o.typ {
	case queryOcclusion:
		return o.dev.samples, true, nil
	case queryTimestampFreq:
		return o.dev.frequency, true, nil
	}
	return o.value, true, nil
}

// fakeDevice records the device calls made by the render system.
type fakeDevice struct {
	caps DeviceCaps

	calls    []string
	writes   []bufferWrite
	released map[string]int
	created  map[string]int
	nextID   int

	failCompile bool
	available   bool
	lost        bool
	samples     uint64
	clock       uint64
	tick        uint64
	frequency   uint64
}

var _ Device = &fakeDevice{}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps: DeviceCaps{
			MaxTextureWidth:         4096,
			MaxTextureHeight:        2048,
			MaxSimultaneousTextures: 8,
			MaxActiveLights:         8,
			MaxUserClipPlanes:       6,
			MaxAnisotropy:           16,
			MaxPointSize:            64,
			VertexShaderVersion:     0xFFFE0300,
			PixelShaderVersion:      0xFFFF0300,
			NonPowerOfTwo:           true,
			ScissorTest:             true,
			Occlusion:               true,
			Timestamp:               true,
			AutoGenMipMap:           true,
		},
		released:  map[string]int{},
		created:   map[string]int{},
		available: true,
		tick:      1,
		frequency: 1,
	}
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
	return AdapterInfo{Description: "fake adapter", Driver: "fake.dll", Vendor: "fake vendor", Version: "Direct3D 9"}
}

func (f *fakeDevice) Caps() DeviceCaps { return f.caps }

func (f *fakeDevice) SetRenderState(state, value uint32) error {
	f.record("SetRenderState", state, value)
	return nil
}

func (f *fakeDevice) SetSamplerState(sampler, state, value uint32) error {
	f.record("SetSamplerState", sampler, state, value)
	return nil
}

func (f *fakeDevice) SetTextureStageState(stage, state, value uint32) error {
	f.record("SetTextureStageState", stage, state, value)
	return nil
}

func (f *fakeDevice) SetTransform(state uint32, m [16]float32) error {
	f.record("SetTransform", state, m)
	return nil
}

func (f *fakeDevice) SetLight(index int, light Light) error {
	f.record("SetLight", index, light.Type, light.Direction, light.Theta, light.Phi)
	return nil
}

func (f *fakeDevice) LightEnable(index int, enable bool) error {
	f.record("LightEnable", index, enable)
	return nil
}

func (f *fakeDevice) SetMaterial(m Material) error {
	f.record("SetMaterial", m.Diffuse)
	return nil
}

func (f *fakeDevice) SetClipPlane(index int, plane [4]float32) error {
	f.record("SetClipPlane", index, plane)
	return nil
}

func (f *fakeDevice) SetViewport(v Viewport) error {
	f.record("SetViewport", v.X, v.Y, v.Width, v.Height, v.MinZ, v.MaxZ)
	return nil
}

func (f *fakeDevice) SetScissorRect(r common.Rect) error {
	f.record("SetScissorRect", r.Left, r.Top, r.Right, r.Bottom)
	return nil
}

func (f *fakeDevice) Clear(flags, color uint32, z float32, stencil uint32) error {
	f.record("Clear", flags, fmt.Sprintf("%08X", color), z, stencil)
	return nil
}

func (f *fakeDevice) BeginScene() error {
	f.record("BeginScene")
	if f.lost {
		return ErrDeviceLost
	}
	return nil
}

func (f *fakeDevice) EndScene() error {
	f.record("EndScene")
	return nil
}

func (f *fakeDevice) CreateVertexBuffer(size int, usage uint32) (VertexBuffer, error) {
	f.record("CreateVertexBuffer", size, usage)
	return f.object("vertexBuffer"), nil
}

func (f *fakeDevice) CreateIndexBuffer(size int, usage, format uint32) (IndexBuffer, error) {
	f.record("CreateIndexBuffer", size, usage, format)
	return f.object("indexBuffer"), nil
}

func (f *fakeDevice) SetStreamSource(vb VertexBuffer, stride int) error {
	f.record("SetStreamSource", vb, stride)
	return nil
}

func (f *fakeDevice) SetIndices(ib IndexBuffer) error {
	f.record("SetIndices", ib)
	return nil
}

func (f *fakeDevice) CreateVertexDeclaration(elements []VertexElement) (VertexDeclaration, error) {
	f.record("CreateVertexDeclaration", len(elements))
	return f.object("declaration"), nil
}

func (f *fakeDevice) SetVertexDeclaration(decl VertexDeclaration) error {
	f.record("SetVertexDeclaration", decl)
	return nil
}

func (f *fakeDevice) SetFVF(fvf uint32) error {
	f.record("SetFVF", fvf)
	return nil
}

func (f *fakeDevice) DrawPrimitive(primitive uint32, startVertex, primitiveCount int) error {
	f.record("DrawPrimitive", primitive, startVertex, primitiveCount)
	return nil
}

func (f *fakeDevice) DrawIndexedPrimitive(primitive uint32, numVertices, startIndex, primitiveCount int) error {
	f.record("DrawIndexedPrimitive", primitive, numVertices, startIndex, primitiveCount)
	return nil
}

func (f *fakeDevice) DrawPrimitiveUP(primitive uint32, primitiveCount int, data []byte, stride int) error {
	f.record("DrawPrimitiveUP", primitive, primitiveCount, len(data), stride)
	f.writes = append(f.writes, bufferWrite{kind: "userPointer", data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeDevice) CreateTexture(width, height, levels int, usage, format, pool uint32) (Texture, error) {
	f.record("CreateTexture", width, height, levels, usage, format, pool)
	return f.object("texture"), nil
}

func (f *fakeDevice) SetTexture(stage int, tex Texture) error {
	f.record("SetTexture", stage, tex)
	return nil
}

func (f *fakeDevice) RenderTarget() (Surface, error) {
	return f.object("backBuffer"), nil
}

func (f *fakeDevice) DepthStencilSurface() (Surface, error) {
	return f.object("backDepth"), nil
}

func (f *fakeDevice) CreateDepthStencilSurface(width, height int, format uint32) (Surface, error) {
	f.record("CreateDepthStencilSurface", width, height, format)
	return f.object("depth"), nil
}

func (f *fakeDevice) SetRenderTarget(s Surface) error {
	f.record("SetRenderTarget", s)
	return nil
}

func (f *fakeDevice) SetDepthStencilSurface(s Surface) error {
	f.record("SetDepthStencilSurface", s)
	return nil
}

func (f *fakeDevice) CreateQuery(typ uint32) (Query, error) {
	f.record("CreateQuery", typ)
	q := f.object("query")
	q.typ = typ
	return q, nil
}

func (f *fakeDevice) CompileShader(source, entryPoint, profile string) ([]byte, error) {
	f.record("CompileShader", entryPoint, profile)
	if f.failCompile {
		return nil, errors.New("error X3000: syntax error")
	}
	return []byte(profile + ":" + entryPoint), nil
}

func (f *fakeDevice) CreateVertexShader(bytecode []byte) (VertexShader, error) {
	f.record("CreateVertexShader", string(bytecode))
	return f.object("vertexShader"), nil
}

func (f *fakeDevice) CreatePixelShader(bytecode []byte) (PixelShader, error) {
	f.record("CreatePixelShader", string(bytecode))
	return f.object("pixelShader"), nil
}

func (f *fakeDevice) SetVertexShader(s VertexShader) error {
	f.record("SetVertexShader", s)
	return nil
}

func (f *fakeDevice) SetPixelShader(s PixelShader) error {
	f.record("SetPixelShader", s)
	return nil
}

func (f *fakeDevice) SetVertexShaderConstantF(register int, data []float32) error {
	f.record("SetVertexShaderConstantF", register, len(data))
	return nil
}

func (f *fakeDevice) SetPixelShaderConstantF(register int, data []float32) error {
	f.record("SetPixelShaderConstantF", register, len(data))
	return nil
}
