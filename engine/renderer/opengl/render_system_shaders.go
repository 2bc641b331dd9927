package opengl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/shader"
)

func (r *renderSystem) useProgram(id uint32) {
	r.Track(r.state.program.Set(id, r.gl.UseProgram))
}

func (r *renderSystem) compileShader(stage uint32, source string) (uint32, error) {
	id := r.gl.CreateShader(stage)
	if id == 0 {
		return 0, errors.New("glCreateShader returned no name")
	}
	r.gl.ShaderSource(id, source)
	r.gl.CompileShader(id)
	if ok, log := r.gl.ShaderStatus(id); !ok {
		r.gl.DeleteShader(id)
		return 0, fmt.Errorf("shader compilation failed: %s", log)
	}
	return id, nil
}

func (r *renderSystem) lookupUniforms(program uint32) programUniforms {
	return programUniforms{
		world:      r.gl.GetUniformLocation(program, "uWorld"),
		view:       r.gl.GetUniformLocation(program, "uView"),
		projection: r.gl.GetUniformLocation(program, "uProjection"),
		fixed:      r.gl.GetUniformLocation(program, "uFixed"),
		texture:    r.gl.GetUniformLocation(program, "uTexture"),
		textured:   r.gl.GetUniformLocation(program, "uTextured"),
	}
}

// finishLink checks the link status and initializes the sampler uniform.
func (r *renderSystem) finishLink(p *glProgram) error {
	r.gl.LinkProgram(p.id)
	if ok, log := r.gl.ProgramStatus(p.id); !ok {
		return fmt.Errorf("program link failed: %s", log)
	}
	p.uniforms = r.lookupUniforms(p.id)
	p.serial = 0
	if p.uniforms.texture >= 0 {
		r.useProgram(p.id)
		r.gl.Uniform1i(p.uniforms.texture, 0)
	}
	return nil
}

func (r *renderSystem) CreateShaderClass(inputLayout *renderer.VertexFormat) *renderer.ShaderClass {
	if !r.QueryVideoSupport(renderer.FeatureShader) {
		return nil
	}
	id := r.gl.CreateProgram()
	if id == 0 {
		common.Logger().Error("could not create OpenGL program")
		return nil
	}
	class := renderer.NewShaderClass(inputLayout)
	class.SetHandle(r.programs.Insert(&glProgram{id: id, class: class}))
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
	src := strings.Join(source, "\n")
	if version.IsHLSL() && t == renderer.ShaderCompute && r.profile != ProfileES {
		// HLSL compute shaders are rewritten into GLSL 4.30 compute shaders
		translated, err := shader.NewPreProcessor().Process(src, t, renderer.GLSL430, entryPoint, shader.SolveMacros)
		if err != nil {
			return nil
		}
		src, version, entryPoint = translated, renderer.GLSL430, "main"
	}
	if !version.IsGLSL() {
		common.Logger().Error("OpenGL shaders must be GLSL", "type", t)
		return nil
	}
	stage, ok := shaderStage(t)
	if !ok {
		common.Logger().Error("unsupported shader type", "type", t)
		return nil
	}
	if !strings.HasPrefix(strings.TrimSpace(src), "#version") {
		src = version.VersionDirective() + "\n" + src
	}
	id, err := r.compileShader(stage, src)
	if err != nil {
		common.Logger().Error("could not create shader", "type", t, "error", err)
		return nil
	}

	if old := class.Shader(t); old != nil {
		r.deleteShader(old)
	}
	sh := renderer.NewShader(class, t, version, src, entryPoint)
	sh.SetHandle(r.shaders.Insert(glShader{id: id, stage: stage, source: src}))
	class.Attach(sh)
	class.SetLinked(false)
	return sh
}

func (r *renderSystem) deleteShader(s *renderer.Shader) {
	if native, ok := r.shaders.Remove(s.Handle()); ok && native.id != 0 {
		r.gl.DeleteShader(native.id)
	}
	s.SetHandle(renderer.InvalidHandle)
}

// linkProgram attaches the class's shaders and links them. Attribute i of the input layout is
// bound to location i under its semantic name.
func (r *renderSystem) linkProgram(p *glProgram) error {
	for _, s := range p.class.Shaders() {
		native, ok := r.shaders.Lookup(s.Handle())
		if !ok {
			return fmt.Errorf("%s shader is not available", s.Type())
		}
		r.gl.AttachShader(p.id, native.id)
	}
	if layout := p.class.InputLayout(); layout != nil {
		for i, a := range layout.Attributes() {
			r.gl.BindAttribLocation(p.id, uint32(i), a.SemanticName())
		}
	}
	return r.finishLink(p)
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

func (r *renderSystem) BindShaderClass(class *renderer.ShaderClass) {
	if class == nil {
		r.StoreShaderClass(nil)
		if r.fixedFunction() {
			r.useProgram(0)
		}
		return
	}
	p, ok := r.programs.Lookup(class.Handle())
	if !ok || !class.Linked() {
		common.Logger().Warn("bind of an unlinked shader class")
		return
	}
	r.useProgram(p.id)
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
	if p, ok := r.programs.Remove(class.Handle()); ok && p.id != 0 {
		if v, _ := r.state.program.Value(); v == p.id {
			r.state.program.Invalidate()
		}
		r.gl.DeleteProgram(p.id)
	}
	class.SetHandle(renderer.InvalidHandle)
	class.SetLinked(false)
}

// buildProgram compiles and links one of the built-in programs.
func (r *renderSystem) buildProgram(vertex, fragment string) (*glProgram, error) {
	vs, err := r.compileShader(glVertexShader, expandBuiltin(vertex, r.profile))
	if err != nil {
		return nil, fmt.Errorf("vertex stage: %w", err)
	}
	defer r.gl.DeleteShader(vs)
	fs, err := r.compileShader(glFragmentShader, expandBuiltin(fragment, r.profile))
	if err != nil {
		return nil, fmt.Errorf("fragment stage: %w", err)
	}
	defer r.gl.DeleteShader(fs)

	p := &glProgram{id: r.gl.CreateProgram()}
	if p.id == 0 {
		return nil, errors.New("glCreateProgram returned no name")
	}
	r.gl.AttachShader(p.id, vs)
	r.gl.AttachShader(p.id, fs)
	r.gl.BindAttribLocation(p.id, locPosition, "Position")
	r.gl.BindAttribLocation(p.id, locNormal, "Normal")
	r.gl.BindAttribLocation(p.id, locColor, "Color")
	r.gl.BindAttribLocation(p.id, locTexCoord, "TexCoord")
	if err := r.finishLink(p); err != nil {
		r.gl.DeleteProgram(p.id)
		return nil, err
	}
	return p, nil
}

// createBuiltins creates the objects core and ES contexts need to emulate the fixed-function
// pipeline and to stream 2D vertices.
func (r *renderSystem) createBuiltins() error {
	if r.streamBuffer = r.gl.GenBuffer(); r.streamBuffer == 0 {
		return errors.New("could not create the 2D stream buffer")
	}
	if r.fixedFunction() {
		return nil
	}
	if r.vao = r.gl.GenVertexArray(); r.vao == 0 {
		return errors.New("could not create the vertex array object")
	}
	r.gl.BindVertexArray(r.vao)

	var err error
	if r.meshProgram, err = r.buildProgram(meshVertexSource, meshFragmentSource); err != nil {
		return fmt.Errorf("mesh program: %w", err)
	}
	if r.spriteProgram, err = r.buildProgram(spriteVertexSource, spriteFragmentSource); err != nil {
		return fmt.Errorf("2D program: %w", err)
	}
	return nil
}

func (r *renderSystem) deleteBuiltins() {
	for _, p := range []*glProgram{r.meshProgram, r.spriteProgram} {
		if p != nil && p.id != 0 {
			r.gl.DeleteProgram(p.id)
		}
	}
	r.meshProgram, r.spriteProgram = nil, nil
	if r.vao != 0 {
		r.gl.DeleteVertexArray(r.vao)
		r.vao = 0
	}
	if r.streamBuffer != 0 {
		r.gl.DeleteBuffer(r.streamBuffer)
		r.streamBuffer = 0
	}
}
