package renderer

import "fmt"

// ShaderType is the pipeline stage of a shader.
type ShaderType int

const (
	ShaderVertex ShaderType = iota
	ShaderPixel
	ShaderGeometry
	ShaderTessControl
	ShaderTessEvaluation
	ShaderCompute
)

func (t ShaderType) String() string {
	switch t {
	case ShaderVertex:
		return "vertex"
	case ShaderPixel:
		return "pixel"
	case ShaderGeometry:
		return "geometry"
	case ShaderTessControl:
		return "tessellation-control"
	case ShaderTessEvaluation:
		return "tessellation-evaluation"
	case ShaderCompute:
		return "compute"
	}
	return fmt.Sprintf("ShaderType(%d)", int(t))
}

// ShaderVersion is the shading language and version a shader is written in.
type ShaderVersion int

const (
	GLSL120 ShaderVersion = iota
	GLSL130
	GLSL140
	GLSL150
	GLSL330
	GLSL400
	GLSL410
	GLSL420
	GLSL430
	ESSL100
	ESSL300
	HLSL2
	HLSL3
	HLSL4
	HLSL4_1
	HLSL5
	WGSL
)

var glslDirectives = map[ShaderVersion]string{
	GLSL120: "#version 120",
	GLSL130: "#version 130",
	GLSL140: "#version 140",
	GLSL150: "#version 150",
	GLSL330: "#version 330",
	GLSL400: "#version 400",
	GLSL410: "#version 410",
	GLSL420: "#version 420",
	GLSL430: "#version 430",
	ESSL100: "#version 100",
	ESSL300: "#version 300 es",
}

// IsGLSL reports whether the version is a GLSL or GLSL ES version.
func (v ShaderVersion) IsGLSL() bool {
	return v <= ESSL300
}

// IsHLSL reports whether the version is an HLSL shader model.
func (v ShaderVersion) IsHLSL() bool {
	return v >= HLSL2 && v <= HLSL5
}

// VersionDirective returns the GLSL #version line, or "" for non-GLSL versions.
func (v ShaderVersion) VersionDirective() string {
	return glslDirectives[v]
}

// Profile returns the HLSL compile target for a stage, e.g. "vs_4_0", or "" if the stage is not
// available in that shader model.
//
// Parameters:
//   - t: the shader stage
//
// Returns:
//   - string: the compiler profile
func (v ShaderVersion) Profile(t ShaderType) string {
	var model string
	switch v {
	case HLSL2:
		model = "2_0"
	case HLSL3:
		model = "3_0"
	case HLSL4:
		model = "4_0"
	case HLSL4_1:
		model = "4_1"
	case HLSL5:
		model = "5_0"
	default:
		return ""
	}
	prefix := map[ShaderType]string{
		ShaderVertex:         "vs",
		ShaderPixel:          "ps",
		ShaderGeometry:       "gs",
		ShaderTessControl:    "hs",
		ShaderTessEvaluation: "ds",
		ShaderCompute:        "cs",
	}[t]
	if prefix == "" || (v < HLSL4 && t != ShaderVertex && t != ShaderPixel) ||
		(v < HLSL5 && (t == ShaderTessControl || t == ShaderTessEvaluation || t == ShaderCompute)) {
		return ""
	}
	return prefix + "_" + model
}

// ShaderClass groups the shaders of one program together with the vertex input layout they expect.
type ShaderClass struct {
	handle  Handle
	layout  *VertexFormat
	shaders map[ShaderType]*Shader
	linked  bool
}

// NewShaderClass creates an empty shader class. Backends call it from CreateShaderClass.
func NewShaderClass(layout *VertexFormat) *ShaderClass {
	return &ShaderClass{layout: layout, shaders: make(map[ShaderType]*Shader)}
}

// Handle returns the native program handle.
func (c *ShaderClass) Handle() Handle {
	if c == nil {
		return InvalidHandle
	}
	return c.handle
}

// SetHandle attaches the native program handle. Only backends call this.
func (c *ShaderClass) SetHandle(h Handle) {
	c.handle = h
}

// InputLayout returns the vertex format the class was created for.
func (c *ShaderClass) InputLayout() *VertexFormat {
	return c.layout
}

// Shader returns the attached shader of a stage, or nil.
func (c *ShaderClass) Shader(t ShaderType) *Shader {
	return c.shaders[t]
}

// Shaders returns all attached shaders.
func (c *ShaderClass) Shaders() map[ShaderType]*Shader {
	return c.shaders
}

// Attach stores a shader for its stage, replacing a previous one, and marks the class unlinked.
func (c *ShaderClass) Attach(s *Shader) {
	c.shaders[s.typ] = s
	c.linked = false
}

// Linked reports whether the class was linked successfully.
func (c *ShaderClass) Linked() bool {
	return c != nil && c.linked
}

// SetLinked records the link state. Only backends call this.
func (c *ShaderClass) SetLinked(linked bool) {
	c.linked = linked
}

// Shader is one compiled shader stage attached to a ShaderClass.
type Shader struct {
	handle     Handle
	class      *ShaderClass
	typ        ShaderType
	version    ShaderVersion
	source     string
	entryPoint string
}

// NewShader creates a shader wrapper. Backends call it from CreateShader after compiling.
func NewShader(class *ShaderClass, t ShaderType, version ShaderVersion, source, entryPoint string) *Shader {
	return &Shader{class: class, typ: t, version: version, source: source, entryPoint: entryPoint}
}

// Handle returns the native shader handle.
func (s *Shader) Handle() Handle {
	if s == nil {
		return InvalidHandle
	}
	return s.handle
}

// SetHandle attaches the native shader handle. Only backends call this.
func (s *Shader) SetHandle(h Handle) {
	s.handle = h
}

// Class returns the owning shader class.
func (s *Shader) Class() *ShaderClass {
	return s.class
}

// Type returns the pipeline stage.
func (s *Shader) Type() ShaderType {
	return s.typ
}

// Version returns the shading language version.
func (s *Shader) Version() ShaderVersion {
	return s.version
}

// Source returns the source code as passed to the compiler.
func (s *Shader) Source() string {
	return s.source
}

// EntryPoint returns the entry point function name.
func (s *Shader) EntryPoint() string {
	return s.entryPoint
}
