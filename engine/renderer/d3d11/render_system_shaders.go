package d3d11

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// compiledShader is a built-in shader together with the bytecode input layouts are validated
// against.
type compiledShader struct {
	shader   Shader
	bytecode []byte
}

// builtins are the objects the render system draws with when no shader class is bound.
type builtins struct {
	// meshVS holds the mesh vertex shader variants by attribute mask, compiled on first use
	meshVS map[uint8]compiledShader
	meshPS Shader

	spriteVS     Shader
	spritePS     Shader
	spriteLayout InputLayout
	// spriteBuffer is a dynamic vertex buffer that grows to the largest 2D batch
	spriteBuffer     Buffer
	spriteBufferSize int
	spriteConstants  Buffer

	constants Buffer

	white     Texture
	whiteView ShaderResourceView
}

var sprite2DElements = []InputElement{
	{Semantic: "POSITION", Format: formatR32G32B32Float, Offset: 0},
	{Semantic: "COLOR", Format: formatR8G8B8A8Unorm, Offset: 12},
	{Semantic: "TEXCOORD", Format: formatR32G32Float, Offset: 16},
}

func (r *renderSystem) compileBuiltin(source string, t renderer.ShaderType) ([]byte, error) {
	profile := builtinProfile(t, r.level)
	bytecode, err := r.dev.CompileShader(source, "main", profile)
	if err != nil {
		return nil, fmt.Errorf("built-in %s shader (%s): %w", t, profile, err)
	}
	return bytecode, nil
}

// createBuiltins compiles the built-in pixel and sprite shaders and allocates the constant buffers
// and the fallback texture. Mesh vertex shader variants are created lazily by meshVariant.
func (r *renderSystem) createBuiltins() error {
	b := &r.builtin
	b.meshVS = make(map[uint8]compiledShader)

	code, err := r.compileBuiltin(fixedConstantsSource+meshPixelSource, renderer.ShaderPixel)
	if err != nil {
		return err
	}
	if b.meshPS, err = r.dev.CreatePixelShader(code); err != nil {
		return fmt.Errorf("built-in mesh pixel shader: %w", err)
	}

	if code, err = r.compileBuiltin(spriteVertexSource, renderer.ShaderVertex); err != nil {
		return err
	}
	if b.spriteVS, err = r.dev.CreateVertexShader(code); err != nil {
		return fmt.Errorf("built-in sprite vertex shader: %w", err)
	}
	if b.spriteLayout, err = r.dev.CreateInputLayout(sprite2DElements, code); err != nil {
		return fmt.Errorf("sprite input layout: %w", err)
	}
	if code, err = r.compileBuiltin(spritePixelSource, renderer.ShaderPixel); err != nil {
		return err
	}
	if b.spritePS, err = r.dev.CreatePixelShader(code); err != nil {
		return fmt.Errorf("built-in sprite pixel shader: %w", err)
	}

	desc := BufferDesc{Size: constantsSize, Usage: usageDynamic, Bind: bindConstantBuffer}
	if b.constants, err = r.dev.CreateBuffer(desc, nil); err != nil {
		return fmt.Errorf("fixed-function constant buffer: %w", err)
	}
	desc.Size = spriteConstantsSize
	if b.spriteConstants, err = r.dev.CreateBuffer(desc, nil); err != nil {
		return fmt.Errorf("sprite constant buffer: %w", err)
	}

	b.white, err = r.dev.CreateTexture2D(TextureDesc{
		Width:     1,
		Height:    1,
		MipLevels: 1,
		Format:    formatR8G8B8A8Unorm,
		Bind:      bindShaderResource,
	})
	if err != nil {
		return fmt.Errorf("white texture: %w", err)
	}
	if err = b.white.WriteLevel(0, []byte{0xff, 0xff, 0xff, 0xff}, 4); err != nil {
		return fmt.Errorf("white texture: %w", err)
	}
	if b.whiteView, err = r.dev.CreateShaderResourceView(b.white); err != nil {
		return fmt.Errorf("white texture view: %w", err)
	}
	// the constant buffer write must not be skipped on a fresh buffer
	r.uploadedSerial = 0
	r.fixedSerial++
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
	for mask, vs := range b.meshVS {
		vs.shader.Release()
		delete(b.meshVS, mask)
	}
	releaseObject(&b.meshPS)
	releaseObject(&b.spriteVS)
	releaseObject(&b.spritePS)
	releaseObject(&b.spriteLayout)
	releaseObject(&b.spriteBuffer)
	releaseObject(&b.spriteConstants)
	releaseObject(&b.constants)
	releaseObject(&b.whiteView)
	releaseObject(&b.white)
	b.spriteBufferSize = 0
}

// meshVariant returns the built-in mesh vertex shader reading the attributes of mask.
func (r *renderSystem) meshVariant(mask uint8) (compiledShader, error) {
	if vs, ok := r.builtin.meshVS[mask]; ok {
		return vs, nil
	}
	src := meshVariantSource(mask, r.level >= FeatureLevel10_0)
	code, err := r.compileBuiltin(src, renderer.ShaderVertex)
	if err != nil {
		return compiledShader{}, err
	}
	s, err := r.dev.CreateVertexShader(code)
	if err != nil {
		return compiledShader{}, fmt.Errorf("built-in mesh vertex shader: %w", err)
	}
	vs := compiledShader{shader: s, bytecode: code}
	r.builtin.meshVS[mask] = vs
	return vs, nil
}

func (r *renderSystem) setVertexShader(s Shader) {
	r.Track(r.state.vertexShader.Set(s, r.dev.VSSetShader))
}

func (r *renderSystem) setPixelShader(s Shader) {
	r.Track(r.state.pixelShader.Set(s, r.dev.PSSetShader))
}

func (r *renderSystem) setGeometryShader(s Shader) {
	r.Track(r.state.geometryShader.Set(s, r.dev.GSSetShader))
}

// shaderVersions returns the shader models a device of level accepts. Feature level 9_3 runs
// shader model 4 in its level_9_3 variant.
func shaderVersions(level uint32) []renderer.ShaderVersion {
	switch {
	case level >= FeatureLevel11_0:
		return []renderer.ShaderVersion{renderer.HLSL4, renderer.HLSL4_1, renderer.HLSL5}
	case level >= FeatureLevel10_1:
		return []renderer.ShaderVersion{renderer.HLSL4, renderer.HLSL4_1}
	}
	return []renderer.ShaderVersion{renderer.HLSL4}
}

func (r *renderSystem) shaderProfile(t renderer.ShaderType, version renderer.ShaderVersion) (string, error) {
	supported := false
	for _, v := range shaderVersions(r.level) {
		supported = supported || v == version
	}
	if !supported {
		return "", fmt.Errorf("shader version %d is not supported by %s", version, featureLevelName(r.level))
	}
	switch t {
	case renderer.ShaderVertex, renderer.ShaderPixel:
	case renderer.ShaderGeometry:
		if r.level < FeatureLevel10_0 {
			return "", errors.New("geometry shaders need feature level 10_0")
		}
	default:
		return "", fmt.Errorf("unsupported shader stage %s", t)
	}
	profile := version.Profile(t)
	if profile == "" {
		return "", fmt.Errorf("unsupported shader stage %s", t)
	}
	if r.level < FeatureLevel10_0 {
		profile += "_level_9_3"
	}
	return profile, nil
}

// createShaderObject creates the native shader of a compiled stage.
func (r *renderSystem) createShaderObject(s *d3dShader) error {
	var err error
	switch s.stage {
	case renderer.ShaderVertex:
		s.native, err = r.dev.CreateVertexShader(s.bytecode)
	case renderer.ShaderPixel:
		s.native, err = r.dev.CreatePixelShader(s.bytecode)
	case renderer.ShaderGeometry:
		s.native, err = r.dev.CreateGeometryShader(s.bytecode)
	default:
		err = fmt.Errorf("unsupported shader stage %s", s.stage)
	}
	return err
}

func (r *renderSystem) CreateShaderClass(inputLayout *renderer.VertexFormat) *renderer.ShaderClass {
	if !r.QueryVideoSupport(renderer.FeatureShader) {
		return nil
	}
	class := renderer.NewShaderClass(inputLayout)
	class.SetHandle(r.programs.Insert(&d3dProgram{class: class}))
	return class
}

func (r *renderSystem) CreateShader(class *renderer.ShaderClass, t renderer.ShaderType, version renderer.ShaderVersion, source []string, entryPoint string) *renderer.Shader {
	if class == nil {
		return nil
	}
	if !r.programs.Contains(class.Handle()) {
		common.Logger().Warn("shader created for an invalid shader class")
		return nil
	}
	profile, err := r.shaderProfile(t, version)
	if err != nil {
		common.Logger().Error("could not create shader", "type", t, "error", err)
		return nil
	}
	if entryPoint == "" {
		entryPoint = "main"
	}
	src := strings.Join(source, "\n")
	bytecode, err := r.dev.CompileShader(src, entryPoint, profile)
	if err != nil {
		common.Logger().Error("could not compile shader", "type", t, "profile", profile, "error", err)
		return nil
	}
	native := d3dShader{stage: t, bytecode: bytecode}
	if err := r.createShaderObject(&native); err != nil {
		common.Logger().Error("could not create shader", "type", t, "error", err)
		return nil
	}

	if old := class.Shader(t); old != nil {
		r.deleteShader(old)
	}
	shader := renderer.NewShader(class, t, version, src, entryPoint)
	shader.SetHandle(r.shaders.Insert(native))
	class.Attach(shader)
	class.SetLinked(false)
	return shader
}

func (r *renderSystem) forgetShader(s Shader) {
	for _, c := range []*renderer.Cached[Shader]{&r.state.vertexShader, &r.state.pixelShader, &r.state.geometryShader} {
		if v, ok := c.Value(); ok && v == s {
			c.Invalidate()
		}
	}
}

func (r *renderSystem) deleteShader(s *renderer.Shader) {
	if native, ok := r.shaders.Remove(s.Handle()); ok && native.native != nil {
		r.forgetShader(native.native)
		native.native.Release()
	}
	s.SetHandle(renderer.InvalidHandle)
}

// linkProgram checks the stages of a class and creates the input layout of its vertex format
// against the vertex shader signature. Direct3D 11 has no program objects.
func (r *renderSystem) linkProgram(p *d3dProgram) error {
	for _, t := range []renderer.ShaderType{renderer.ShaderVertex, renderer.ShaderPixel} {
		s := p.class.Shader(t)
		if s == nil {
			return fmt.Errorf("%s shader is missing", t)
		}
		if native, ok := r.shaders.Lookup(s.Handle()); !ok || native.native == nil {
			return fmt.Errorf("%s shader is not available", t)
		}
	}
	vs, _ := r.shaders.Lookup(p.class.Shader(renderer.ShaderVertex).Handle())
	format := p.class.InputLayout()
	if format == nil {
		format = renderer.VertexFormatDefault
	}
	elements, ok := inputElements(format)
	if !ok {
		return fmt.Errorf("vertex format %s has attributes without a DXGI format", format.Name())
	}
	layout, err := r.dev.CreateInputLayout(elements, vs.bytecode)
	if err != nil {
		return fmt.Errorf("CreateInputLayout(%s): %w", format.Name(), err)
	}
	r.releaseProgramLayout(p)
	p.layout = layout
	return nil
}

func (r *renderSystem) releaseProgramLayout(p *d3dProgram) {
	if p.layout == nil {
		return
	}
	if l, ok := r.state.inputLayout.Value(); ok && l == p.layout {
		r.state.inputLayout.Invalidate()
	}
	p.layout.Release()
	p.layout = nil
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

func (r *renderSystem) stageShader(class *renderer.ShaderClass, t renderer.ShaderType) Shader {
	s := class.Shader(t)
	if s == nil {
		return nil
	}
	native, _ := r.shaders.Lookup(s.Handle())
	return native.native
}

func (r *renderSystem) bindClassShaders(class *renderer.ShaderClass) error {
	vs := r.stageShader(class, renderer.ShaderVertex)
	ps := r.stageShader(class, renderer.ShaderPixel)
	if vs == nil || ps == nil {
		return errors.New("shader stages are not available")
	}
	r.setVertexShader(vs)
	r.setPixelShader(ps)
	r.setGeometryShader(r.stageShader(class, renderer.ShaderGeometry))
	return nil
}

// BindShaderClass binds the stages of a linked class. Unbinding falls back to the built-in shaders
// on the next BindMeshBuffer.
func (r *renderSystem) BindShaderClass(class *renderer.ShaderClass) {
	if class == nil {
		r.StoreShaderClass(nil)
		r.setGeometryShader(nil)
		return
	}
	p, ok := r.programs.Lookup(class.Handle())
	if !ok || !class.Linked() {
		common.Logger().Warn("bind of an unlinked shader class")
		return
	}
	if err := r.bindClassShaders(class); err != nil {
		common.Logger().Warn("could not bind shader class", "error", err)
		return
	}
	if p.layout != nil {
		r.setInputLayout(p.layout)
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
	for _, s := range class.Shaders() {
		r.deleteShader(s)
	}
	if p, ok := r.programs.Remove(class.Handle()); ok {
		r.releaseProgramLayout(p)
	}
	class.SetHandle(renderer.InvalidHandle)
	class.SetLinked(false)
}
