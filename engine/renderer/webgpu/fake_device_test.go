package webgpu

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

type bufferWrite struct {
	kind   string
	offset uint64
	data   []byte
}

// fakeObject stands in for every native object. Pointers keep the cached bindings comparable.
type fakeObject struct {
	dev  *fakeDevice
	kind string
	id   int
	size uint64
}

func (o *fakeObject) String() string {
	return fmt.Sprintf("%s#%d", o.kind, o.id)
}

func (o *fakeObject) Release() {
	o.dev.released[o.kind]++
}

// fakeDevice records the device calls made by the render system.
type fakeDevice struct {
	calls    []string
	writes   []bufferWrite
	sources  []string
	released map[string]int
	created  map[string]int
	nextID   int

	passes    []PassDesc
	pipelines []PipelineDesc
	inPass    bool
	submits   int

	failShader  bool
	failAcquire bool
	anisotropic bool
}

var _ Device = &fakeDevice{}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		released:    map[string]int{},
		created:     map[string]int{},
		anisotropic: true,
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
	f.sources = nil
	f.passes = nil
	f.pipelines = nil
}

// writesOf returns the writes to objects of kind.
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
	return AdapterInfo{
		Name:        "fake adapter",
		Vendor:      "fake vendor",
		Backend:     "Vulkan",
		MaxTexture:  16384,
		MaxSamples:  4,
		Anisotropic: f.anisotropic,
	}
}

func (f *fakeDevice) SurfaceFormat() wgpu.TextureFormat { return wgpu.TextureFormatBGRA8Unorm }
func (f *fakeDevice) SampleCount() uint32               { return 1 }
func (f *fakeDevice) DepthFormat() wgpu.TextureFormat   { return surfaceDepthFormat }

func bufferKind(usage wgpu.BufferUsage) string {
	switch {
	case usage&wgpu.BufferUsageVertex != 0:
		return "vertexBuffer"
	case usage&wgpu.BufferUsageIndex != 0:
		return "indexBuffer"
	case usage&wgpu.BufferUsageUniform != 0:
		return "uniformBuffer"
	}
	return "buffer"
}

func (f *fakeDevice) CreateBuffer(desc BufferDesc) (Buffer, error) {
	f.record("CreateBuffer", desc.Label, desc.Size)
	b := f.object(bufferKind(desc.Usage))
	b.size = desc.Size
	return b, nil
}

func (f *fakeDevice) WriteBuffer(b Buffer, offset uint64, data []byte) {
	o := b.(*fakeObject)
	if offset+uint64(len(data)) > o.size {
		panic(fmt.Sprintf("write of %d bytes at %d outside of a %d byte buffer", len(data), offset, o.size))
	}
	if offset%4 != 0 || len(data)%4 != 0 {
		panic(fmt.Sprintf("unaligned write of %d bytes at %d", len(data), offset))
	}
	f.record("WriteBuffer", b, offset, len(data))
	f.writes = append(f.writes, bufferWrite{kind: o.kind, offset: offset, data: append([]byte(nil), data...)})
}

func (f *fakeDevice) CreateTexture(desc TextureDesc) (Texture, error) {
	f.record("CreateTexture", desc.Label, desc.Width, desc.Height, desc.MipLevels, fmt.Sprintf("%d", desc.Format))
	return f.object("texture"), nil
}

func (f *fakeDevice) CreateView(t Texture) (TextureView, error) {
	f.record("CreateView", t)
	return f.object("view"), nil
}

func (f *fakeDevice) WriteTexture(t Texture, level, width, height, bytesPerRow uint32, pixels []byte) {
	f.record("WriteTexture", t, level, width, height, bytesPerRow)
	f.writes = append(f.writes, bufferWrite{kind: "textureLevel", offset: uint64(level), data: append([]byte(nil), pixels...)})
}

func (f *fakeDevice) CreateSampler(desc SamplerDesc) (Sampler, error) {
	f.record("CreateSampler", fmt.Sprintf("%d", desc.Address), fmt.Sprintf("%d", desc.MipFilter), desc.MaxAnisotropy)
	return f.object("sampler"), nil
}

func (f *fakeDevice) CreateShaderModule(label, source string) (ShaderModule, error) {
	f.record("CreateShaderModule", label)
	f.sources = append(f.sources, source)
	if f.failShader {
		return nil, errors.New("shader parsing error: expected expression")
	}
	return f.object("shaderModule"), nil
}

func (f *fakeDevice) CreatePipeline(desc PipelineDesc) (Pipeline, error) {
	f.record("CreatePipeline", desc.Label, desc.VertexEntry, desc.FragmentEntry, desc.Layout.Stride)
	f.pipelines = append(f.pipelines, desc)
	return f.object("pipeline"), nil
}

func (f *fakeDevice) CreateConstantsBindGroup(desc ConstantsBindGroupDesc) (BindGroup, error) {
	f.record("CreateConstantsBindGroup", desc.Buffer, desc.Size)
	return f.object("constantsGroup"), nil
}

func (f *fakeDevice) CreateTextureBindGroup(desc TextureBindGroupDesc) (BindGroup, error) {
	f.record("CreateTextureBindGroup", desc.Views[0], desc.Samplers[0])
	return f.object("textureGroup"), nil
}

func (f *fakeDevice) AcquireFrame() error {
	f.record("AcquireFrame")
	if f.failAcquire {
		return ErrSurfaceLost
	}
	return nil
}

func (f *fakeDevice) BeginPass(desc PassDesc) error {
	if f.inPass {
		panic("BeginPass inside an open pass")
	}
	f.inPass = true
	f.record("BeginPass", desc.Color, desc.ClearColor, desc.ClearDepth, desc.ClearStencil)
	f.passes = append(f.passes, desc)
	return nil
}

func (f *fakeDevice) requirePass(call string) {
	if !f.inPass {
		panic(call + " outside of a pass")
	}
}

func (f *fakeDevice) SetPipeline(p Pipeline) {
	f.requirePass("SetPipeline")
	f.record("SetPipeline", p)
}

func (f *fakeDevice) SetBindGroup(group uint32, bg BindGroup, offsets []uint32) {
	f.requirePass("SetBindGroup")
	f.record("SetBindGroup", group, bg, offsets)
}

func (f *fakeDevice) SetVertexBuffer(b Buffer, offset, size uint64) {
	f.requirePass("SetVertexBuffer")
	f.record("SetVertexBuffer", b, offset, size)
}

func (f *fakeDevice) SetIndexBuffer(b Buffer, format wgpu.IndexFormat, size uint64) {
	f.requirePass("SetIndexBuffer")
	f.record("SetIndexBuffer", b, fmt.Sprintf("%d", format), size)
}

func (f *fakeDevice) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	f.requirePass("SetViewport")
	f.record("SetViewport", x, y, width, height, minDepth, maxDepth)
}

func (f *fakeDevice) SetScissorRect(x, y, width, height uint32) {
	f.requirePass("SetScissorRect")
	f.record("SetScissorRect", x, y, width, height)
}

func (f *fakeDevice) SetStencilReference(ref uint32) {
	f.requirePass("SetStencilReference")
	f.record("SetStencilReference", ref)
}

func (f *fakeDevice) Draw(count, first uint32) {
	f.requirePass("Draw")
	f.record("Draw", count, first)
}

func (f *fakeDevice) DrawIndexed(count, first uint32) {
	f.requirePass("DrawIndexed")
	f.record("DrawIndexed", count, first)
}

func (f *fakeDevice) EndPass() {
	f.requirePass("EndPass")
	f.inPass = false
	f.record("EndPass")
}

func (f *fakeDevice) Submit() error {
	if f.inPass {
		panic("Submit inside an open pass")
	}
	f.submits++
	f.record("Submit")
	return nil
}
