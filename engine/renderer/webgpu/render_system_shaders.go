package webgpu

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// builtins are the objects the render system draws with when no shader class is bound.
type builtins struct {
	// variants holds the mesh shader variants by attribute mask, created on first use
	variants map[uint8]*shaderProgram

	// constants is the ring of fixed-function constant blocks bound at group 0
	constants      Buffer
	constantsGroup BindGroup

	// sprites is the ring 2D batches are written to. It grows to the largest batch.
	sprites    Buffer
	spriteSize int

	white      Texture
	whiteView  TextureView
	sampler    Sampler
	whiteGroup BindGroup
}

// createBuiltins creates the constants ring, the white fallback texture and the 2D shader variant.
// Mesh variants are created lazily by meshVariant.
func (r *renderSystem) createBuiltins() error {
	b := &r.builtin
	b.variants = make(map[uint8]*shaderProgram)

	var err error
	b.constants, err = r.dev.CreateBuffer(BufferDesc{
		Label: "Fixed Constants",
		Size:  constantsStride * constantsRingSlots,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("fixed-function constants buffer: %w", err)
	}
	if b.constantsGroup, err = r.dev.CreateConstantsBindGroup(ConstantsBindGroupDesc{Buffer: b.constants, Size: constantsSize}); err != nil {
		return fmt.Errorf("constants bind group: %w", err)
	}

	b.white, err = r.dev.CreateTexture(TextureDesc{
		Label:       "White",
		Width:       1,
		Height:      1,
		MipLevels:   1,
		SampleCount: 1,
		Format:      wgpu.TextureFormatRGBA8Unorm,
		Usage:       wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("white texture: %w", err)
	}
	r.dev.WriteTexture(b.white, 0, 1, 1, 4, []byte{0xff, 0xff, 0xff, 0xff})
	if b.whiteView, err = r.dev.CreateView(b.white); err != nil {
		return fmt.Errorf("white texture view: %w", err)
	}
	b.sampler, err = r.dev.CreateSampler(SamplerDesc{
		Address:       wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipFilter:     wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return fmt.Errorf("default sampler: %w", err)
	}
	for slot := range maxTextureSlots {
		r.slots.views[slot] = b.whiteView
		r.slots.samplers[slot] = b.sampler
	}
	group, err := r.dev.CreateTextureBindGroup(TextureBindGroupDesc{Views: r.slots.views, Samplers: r.slots.samplers})
	if err != nil {
		return fmt.Errorf("white bind group: %w", err)
	}
	b.whiteGroup = group
	r.textureGroups[r.slots] = group

	if _, err := r.meshVariant(builtinColor | builtinTexCoord); err != nil {
		return err
	}
	// the constants ring must not be skipped on a fresh buffer
	r.frame.uploadedSerial = 0
	r.frame.fixedSerial++
	return nil
}

func releaseObject[T Object](o *T) {
	var zero T
	if any(*o) != nil {
		(*o).Release()
	}
	*o = zero
}

// releaseBuiltins releases what createBuiltins and meshVariant created. Missing objects are
// skipped so that it also cleans up a partial createBuiltins.
func (r *renderSystem) releaseBuiltins() {
	b := &r.builtin
	for mask, v := range b.variants {
		r.purgePipelines(v)
		if v.vertex != nil {
			v.vertex.Release()
		}
		delete(b.variants, mask)
	}
	releaseObject(&b.sprites)
	releaseObject(&b.constantsGroup)
	releaseObject(&b.constants)
	if b.whiteGroup != nil {
		for key, g := range r.textureGroups {
			if g == b.whiteGroup {
				delete(r.textureGroups, key)
			}
		}
	}
	releaseObject(&b.whiteGroup)
	releaseObject(&b.sampler)
	releaseObject(&b.whiteView)
	releaseObject(&b.white)
	b.spriteSize = 0
}

// meshVariant returns the built-in mesh shader reading the attributes of mask. Both entry points
// live in one module.
func (r *renderSystem) meshVariant(mask uint8) (*shaderProgram, error) {
	if v, ok := r.builtin.variants[mask]; ok {
		return v, nil
	}
	label := fmt.Sprintf("Mesh Shader %03b", mask)
	module, err := r.dev.CreateShaderModule(label, meshVariantSource(mask))
	if err != nil {
		return nil, fmt.Errorf("built-in mesh shader %03b: %w", mask, err)
	}
	v := &shaderProgram{
		label:         label,
		vertex:        module,
		vertexEntry:   meshVertexEntry,
		fragment:      module,
		fragmentEntry: meshFragmentEntry,
	}
	r.builtin.variants[mask] = v
	return v, nil
}

// builtinProgram returns the built-in mesh shader variant of format with the layout its vertex
// buffers are read with.
func (r *renderSystem) builtinProgram(format *renderer.VertexFormat) (*shaderProgram, *VertexLayout, error) {
	if format == nil {
		format = renderer.VertexFormatDefault
	}
	mask, ok := builtinMask(format)
	if !ok {
		return nil, nil, fmt.Errorf("vertex format %s has no position", format.Name())
	}
	prog, err := r.meshVariant(mask)
	if err != nil {
		return nil, nil, err
	}
	key := layoutKey{format: format, mask: mask}
	layout, ok := r.layouts[key]
	if !ok {
		l, ok := builtinLayoutOf(format, mask)
		if !ok {
			return nil, nil, fmt.Errorf("vertex format %s has attributes without a vertex format", format.Name())
		}
		layout = &l
		r.layouts[key] = layout
	}
	return prog, layout, nil
}

func (r *renderSystem) CreateShaderClass(inputLayout *renderer.VertexFormat) *renderer.ShaderClass {
	if !r.QueryVideoSupport(renderer.FeatureShader) {
		return nil
	}
	class := renderer.NewShaderClass(inputLayout)
	class.SetHandle(r.programs.Insert(&gpuProgram{class: class}))
	return class
}

// CreateShader creates a shader module of one stage. WebGPU only takes WGSL, with vertex and
// fragment stages.
func (r *renderSystem) CreateShader(class *renderer.ShaderClass, t renderer.ShaderType, version renderer.ShaderVersion, source []string, entryPoint string) *renderer.Shader {
	if class == nil {
		return nil
	}
	if !r.programs.Contains(class.Handle()) {
		common.Logger().Warn("shader created for an invalid shader class")
		return nil
	}
	if version != renderer.WGSL {
		common.Logger().Error("could not create shader", "type", t, "error", fmt.Errorf("shader version %d is not supported by WebGPU", version))
		return nil
	}
	if t != renderer.ShaderVertex && t != renderer.ShaderPixel {
		common.Logger().Error("could not create shader", "type", t, "error", fmt.Errorf("unsupported shader stage %s", t))
		return nil
	}
	src := strings.Join(source, "\n")
	if entryPoint == "" {
		entryPoint = shader.WGSLEntryPoint(src, t)
	}
	if entryPoint == "" {
		entryPoint = "main"
	}
	module, err := r.dev.CreateShaderModule(t.String(), src)
	if err != nil {
		common.Logger().Error("could not compile shader", "type", t, "error", err)
		return nil
	}

	if old := class.Shader(t); old != nil {
		r.deleteShader(old)
	}
	sh := renderer.NewShader(class, t, version, src, entryPoint)
	sh.SetHandle(r.shaders.Insert(gpuShader{module: module, stage: t, source: src, entry: entryPoint}))
	class.Attach(sh)
	class.SetLinked(false)
	return sh
}

func (r *renderSystem) deleteShader(s *renderer.Shader) {
	if native, ok := r.shaders.Remove(s.Handle()); ok && native.module != nil {
		native.module.Release()
	}
	s.SetHandle(renderer.InvalidHandle)
}

// linkProgram pairs the stages of a class and derives the vertex layout of its input format.
// Pipelines of the previous link are released; their modules may be gone.
func (r *renderSystem) linkProgram(p *gpuProgram) error {
	var stages [2]gpuShader
	for i, t := range []renderer.ShaderType{renderer.ShaderVertex, renderer.ShaderPixel} {
		s := p.class.Shader(t)
		if s == nil {
			return fmt.Errorf("%s shader is missing", t)
		}
		native, ok := r.shaders.Lookup(s.Handle())
		if !ok || native.module == nil {
			return fmt.Errorf("%s shader is not available", t)
		}
		stages[i] = native
	}
	format := p.class.InputLayout()
	if format == nil {
		format = renderer.VertexFormatDefault
	}
	layout, ok := vertexLayout(format)
	if !ok {
		return fmt.Errorf("vertex format %s has attributes without a vertex format", format.Name())
	}
	r.purgePipelines(p.program)
	p.program = &shaderProgram{
		label:         "Shader Class " + p.class.Handle().String(),
		vertex:        stages[0].module,
		vertexEntry:   stages[0].entry,
		fragment:      stages[1].module,
		fragmentEntry: stages[1].entry,
	}
	p.layout = &layout
	return nil
}

func (r *renderSystem) LinkShaderClass(class *renderer.ShaderClass) bool {
	if class == nil {
		return false
	}
	p, ok := r.programs.Lookup(class.Handle())
	if !ok {
		return false
	}
	if err := r.linkProgram(p); err != nil {
		common.Logger().Error("could not link shader class", "error", err)
		class.SetLinked(false)
		return false
	}
	class.SetLinked(true)
	return true
}

// BindShaderClass makes later draws use the program of a linked class. Unbinding falls back to the
// built-in mesh shader.
func (r *renderSystem) BindShaderClass(class *renderer.ShaderClass) {
	if class == nil {
		r.StoreShaderClass(nil)
		return
	}
	p, ok := r.programs.Lookup(class.Handle())
	if !ok || !class.Linked() || p.program == nil {
		common.Logger().Warn("bind of an unlinked shader class")
		return
	}
	r.StoreShaderClass(class)
}

func (r *renderSystem) DeleteShaderClass(class *renderer.ShaderClass) {
	if class == nil || !class.Handle().Valid() {
		return
	}
	if r.BoundShaderClass() == class {
		r.BindShaderClass(nil)
	}
	if p, ok := r.programs.Remove(class.Handle()); ok {
		r.purgePipelines(p.program)
	}
	for _, s := range class.Shaders() {
		r.deleteShader(s)
	}
	class.SetHandle(renderer.InvalidHandle)
	class.SetLinked(false)
}
