package d3d9

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

func (r *renderSystem) setVertexShader(s VertexShader) {
	r.Track(r.state.vertexShader.Set(s, func(s VertexShader) {
		r.check("SetVertexShader", r.dev.SetVertexShader(s))
	}))
}

func (r *renderSystem) setPixelShader(s PixelShader) {
	r.Track(r.state.pixelShader.Set(s, func(s PixelShader) {
		r.check("SetPixelShader", r.dev.SetPixelShader(s))
	}))
}

// createShaderObject creates the native shader of a compiled stage.
func (r *renderSystem) createShaderObject(s *d3dShader) error {
	var err error
	switch s.stage {
	case renderer.ShaderVertex:
		s.vs, err = r.dev.CreateVertexShader(s.bytecode)
	case renderer.ShaderPixel:
		s.ps, err = r.dev.CreatePixelShader(s.bytecode)
	default:
		err = fmt.Errorf("unsupported shader stage %s", s.stage)
	}
	return err
}

func (s d3dShader) release() {
	if s.vs != nil {
		s.vs.Release()
	}
	if s.ps != nil {
		s.ps.Release()
	}
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
	if version != renderer.HLSL2 && version != renderer.HLSL3 {
		common.Logger().Error("Direct3D 9 shaders must be HLSL shader model 2 or 3", "type", t)
		return nil
	}
	profile := version.Profile(t)
	if profile == "" {
		common.Logger().Error("unsupported shader type", "type", t)
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

func (r *renderSystem) deleteShader(s *renderer.Shader) {
	if native, ok := r.shaders.Remove(s.Handle()); ok {
		if v, _ := r.state.vertexShader.Value(); native.vs != nil && v == native.vs {
			r.state.vertexShader.Invalidate()
		}
		if v, _ := r.state.pixelShader.Value(); native.ps != nil && v == native.ps {
			r.state.pixelShader.Invalidate()
		}
		native.release()
	}
	s.SetHandle(renderer.InvalidHandle)
}

// linkProgram checks that both stages exist and builds the declaration of the input layout.
// Direct3D 9 has no program objects; the stages are bound individually.
func (r *renderSystem) linkProgram(p *d3dProgram) error {
	for _, t := range []renderer.ShaderType{renderer.ShaderVertex, renderer.ShaderPixel} {
		s := p.class.Shader(t)
		if s == nil {
			return fmt.Errorf("%s shader is missing", t)
		}
		if native, ok := r.shaders.Lookup(s.Handle()); !ok || (native.vs == nil && native.ps == nil) {
			return fmt.Errorf("%s shader is not available", t)
		}
	}
	layout := p.class.InputLayout()
	if layout == nil {
		layout = renderer.VertexFormatDefault
	}
	decl, err := r.declarationFor(layout)
	if err != nil {
		return err
	}
	p.decl = decl
	p.serial = 0
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

func (r *renderSystem) stageShaders(class *renderer.ShaderClass) (VertexShader, PixelShader, error) {
	vs, okVS := r.shaders.Lookup(class.Shader(renderer.ShaderVertex).Handle())
	ps, okPS := r.shaders.Lookup(class.Shader(renderer.ShaderPixel).Handle())
	if !okVS || !okPS || vs.vs == nil || ps.ps == nil {
		return nil, nil, errors.New("shader stages are not available")
	}
	return vs.vs, ps.ps, nil
}

func (r *renderSystem) BindShaderClass(class *renderer.ShaderClass) {
	if class == nil {
		r.StoreShaderClass(nil)
		r.setVertexShader(nil)
		r.setPixelShader(nil)
		return
	}
	p, ok := r.programs.Lookup(class.Handle())
	if !ok || !class.Linked() {
		common.Logger().Warn("bind of an unlinked shader class")
		return
	}
	vs, ps, err := r.stageShaders(class)
	if err != nil {
		common.Logger().Warn("could not bind shader class", "error", err)
		return
	}
	r.setVertexShader(vs)
	r.setPixelShader(ps)
	if p.decl != nil {
		r.setDeclaration(p.decl)
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
	r.programs.Remove(class.Handle())
	class.SetHandle(renderer.InvalidHandle)
	class.SetLinked(false)
}
