package opengl

import (
	"fmt"
	"strings"
)

type bufferUpload struct {
	target uint32
	offset int
	data   []byte
}

// fakeFunctions records the GL calls made by the render system.
type fakeFunctions struct {
	es       bool
	integers map[uint32]int32

	calls   []string
	nextID  uint32
	uploads []bufferUpload
	deleted map[string]int

	failCompile bool
	failLink    bool
	available   bool
	result      uint64
}

var _ Functions = &fakeFunctions{}

func newFakeFunctions() *fakeFunctions {
	return &fakeFunctions{
		integers: map[uint32]int32{
			glMaxTexSize:          4096,
			glMaxTexImageUnits:    8,
			glMaxLights:           8,
			glMaxClipPlanes:       6,
			glMaxSamples:          4,
			glMaxTexMaxAnisotropy: 16,
		},
		deleted:   map[string]int{},
		available: true,
	}
}

func (f *fakeFunctions) record(name string, args ...any) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	f.calls = append(f.calls, name+"("+strings.Join(parts, ",")+")")
}

// count returns how many recorded calls start with prefix.
func (f *fakeFunctions) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeFunctions) reset() {
	f.calls = nil
	f.uploads = nil
}

func (f *fakeFunctions) gen(name string) uint32 {
	f.nextID++
	f.record(name)
	return f.nextID
}

func (f *fakeFunctions) Init() error { return nil }
func (f *fakeFunctions) ES() bool    { return f.es }
func (f *fakeFunctions) GetString(name uint32) string {
	return map[uint32]string{glRenderer: "fake renderer", glVendor: "fake vendor", glVersion: "3.3 fake"}[name]
}

func (f *fakeFunctions) GetInteger(pname uint32) int32 { return f.integers[pname] }
func (f *fakeFunctions) GetError() uint32              { return 0 }
func (f *fakeFunctions) Flush()                        { f.record("Flush") }
func (f *fakeFunctions) Finish()                       { f.record("Finish") }

func (f *fakeFunctions) Enable(cap uint32)             { f.record("Enable", cap) }
func (f *fakeFunctions) Disable(cap uint32)            { f.record("Disable", cap) }
func (f *fakeFunctions) BlendFunc(src, dst uint32)     { f.record("BlendFunc", src, dst) }
func (f *fakeFunctions) DepthFunc(fn uint32)           { f.record("DepthFunc", fn) }
func (f *fakeFunctions) DepthMask(flag bool)           { f.record("DepthMask", flag) }
func (f *fakeFunctions) DepthRange(near, far float64)  { f.record("DepthRange", near, far) }
func (f *fakeFunctions) ColorMask(r, g, b, a bool)     { f.record("ColorMask", r, g, b, a) }
func (f *fakeFunctions) CullFace(mode uint32)          { f.record("CullFace", mode) }
func (f *fakeFunctions) FrontFace(mode uint32)         { f.record("FrontFace", mode) }
func (f *fakeFunctions) LineWidth(width float32)       { f.record("LineWidth", width) }
func (f *fakeFunctions) PointSize(size float32)        { f.record("PointSize", size) }
func (f *fakeFunctions) PolygonMode(face, mode uint32) { f.record("PolygonMode", face, mode) }
func (f *fakeFunctions) StencilMask(mask uint32)       { f.record("StencilMask", mask) }
func (f *fakeFunctions) StencilFunc(fn uint32, ref int32, mask uint32) {
	f.record("StencilFunc", fn, ref, mask)
}

func (f *fakeFunctions) StencilOp(fail, zfail, zpass uint32) { f.record("StencilOp", fail, zfail, zpass) }
func (f *fakeFunctions) ClearColor(r, g, b, a float32)       { f.record("ClearColor", r, g, b, a) }
func (f *fakeFunctions) ClearStencil(s int32)                { f.record("ClearStencil", s) }
func (f *fakeFunctions) ClearDepth(d float64)                { f.record("ClearDepth", d) }
func (f *fakeFunctions) Clear(mask uint32)                   { f.record("Clear", mask) }
func (f *fakeFunctions) Viewport(x, y, width, height int32)  { f.record("Viewport", x, y, width, height) }
func (f *fakeFunctions) Scissor(x, y, width, height int32)   { f.record("Scissor", x, y, width, height) }

func (f *fakeFunctions) ShadeModel(mode uint32)                      { f.record("ShadeModel", mode) }
func (f *fakeFunctions) ClipPlane(plane uint32, equation [4]float64) { f.record("ClipPlane", plane, equation) }
func (f *fakeFunctions) MatrixMode(mode uint32)                      { f.record("MatrixMode", mode) }
func (f *fakeFunctions) LoadMatrix(m [16]float32)                    { f.record("LoadMatrix", m) }
func (f *fakeFunctions) Fogi(pname uint32, param int32)              { f.record("Fogi", pname, param) }
func (f *fakeFunctions) Fogf(pname uint32, param float32)            { f.record("Fogf", pname, param) }
func (f *fakeFunctions) Fogfv(pname uint32, params [4]float32)       { f.record("Fogfv", pname, params) }
func (f *fakeFunctions) Lightf(light, pname uint32, param float32)   { f.record("Lightf", light, pname, param) }
func (f *fakeFunctions) Lightfv(light, pname uint32, params [4]float32) {
	f.record("Lightfv", light, pname, params)
}

func (f *fakeFunctions) LightModelfv(pname uint32, params [4]float32) {
	f.record("LightModelfv", pname, params)
}

func (f *fakeFunctions) Materialf(face, pname uint32, param float32) {
	f.record("Materialf", face, pname, param)
}

func (f *fakeFunctions) Materialfv(face, pname uint32, params [4]float32) {
	f.record("Materialfv", face, pname, params)
}

func (f *fakeFunctions) ColorMaterial(face, mode uint32)    { f.record("ColorMaterial", face, mode) }
func (f *fakeFunctions) EnableClientState(array uint32)     { f.record("EnableClientState", array) }
func (f *fakeFunctions) DisableClientState(array uint32)    { f.record("DisableClientState", array) }
func (f *fakeFunctions) ClientActiveTexture(texture uint32) { f.record("ClientActiveTexture", texture) }
func (f *fakeFunctions) VertexPointer(size int32, xtype uint32, stride int32, offset int) {
	f.record("VertexPointer", size, xtype, stride, offset)
}

func (f *fakeFunctions) NormalPointer(xtype uint32, stride int32, offset int) {
	f.record("NormalPointer", xtype, stride, offset)
}

func (f *fakeFunctions) ColorPointer(size int32, xtype uint32, stride int32, offset int) {
	f.record("ColorPointer", size, xtype, stride, offset)
}

func (f *fakeFunctions) TexCoordPointer(size int32, xtype uint32, stride int32, offset int) {
	f.record("TexCoordPointer", size, xtype, stride, offset)
}

func (f *fakeFunctions) GenBuffer() uint32                { return f.gen("GenBuffer") }
func (f *fakeFunctions) DeleteBuffer(buffer uint32)       { f.deleted["buffer"]++; f.record("DeleteBuffer", buffer) }
func (f *fakeFunctions) BindBuffer(target, buffer uint32) { f.record("BindBuffer", target, buffer) }
func (f *fakeFunctions) BufferData(target uint32, data []byte, usage uint32) {
	f.uploads = append(f.uploads, bufferUpload{target: target, data: append([]byte(nil), data...)})
	f.record("BufferData", target, len(data), usage)
}

func (f *fakeFunctions) BufferSubData(target uint32, offset int, data []byte) {
	f.uploads = append(f.uploads, bufferUpload{target: target, offset: offset, data: append([]byte(nil), data...)})
	f.record("BufferSubData", target, offset, len(data))
}

func (f *fakeFunctions) GenVertexArray() uint32         { return f.gen("GenVertexArray") }
func (f *fakeFunctions) DeleteVertexArray(array uint32) { f.record("DeleteVertexArray", array) }
func (f *fakeFunctions) BindVertexArray(array uint32)   { f.record("BindVertexArray", array) }
func (f *fakeFunctions) EnableVertexAttribArray(index uint32) {
	f.record("EnableVertexAttribArray", index)
}

func (f *fakeFunctions) DisableVertexAttribArray(index uint32) {
	f.record("DisableVertexAttribArray", index)
}

func (f *fakeFunctions) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	f.record("VertexAttribPointer", index, size, xtype, normalized, stride, offset)
}

func (f *fakeFunctions) VertexAttrib4f(index uint32, x, y, z, w float32) {
	f.record("VertexAttrib4f", index, x, y, z, w)
}

func (f *fakeFunctions) DrawArrays(mode uint32, first, count int32) {
	f.record("DrawArrays", mode, first, count)
}

func (f *fakeFunctions) DrawElements(mode uint32, count int32, xtype uint32, offset int) {
	f.record("DrawElements", mode, count, xtype, offset)
}

func (f *fakeFunctions) GenTexture() uint32                 { return f.gen("GenTexture") }
func (f *fakeFunctions) DeleteTexture(texture uint32)       { f.deleted["texture"]++; f.record("DeleteTexture", texture) }
func (f *fakeFunctions) ActiveTexture(unit uint32)          { f.record("ActiveTexture", unit) }
func (f *fakeFunctions) BindTexture(target, texture uint32) { f.record("BindTexture", target, texture) }
func (f *fakeFunctions) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	f.record("TexImage2D", target, level, internalFormat, width, height, format, xtype, len(pixels))
}

func (f *fakeFunctions) TexSubImage2D(target uint32, level, x, y, width, height int32, format, xtype uint32, pixels []byte) {
	f.record("TexSubImage2D", target, level, x, y, width, height, format, xtype, len(pixels))
}

func (f *fakeFunctions) TexParameteri(target, pname uint32, param int32) {
	f.record("TexParameteri", target, pname, param)
}

func (f *fakeFunctions) TexParameterf(target, pname uint32, param float32) {
	f.record("TexParameterf", target, pname, param)
}

func (f *fakeFunctions) GenerateMipmap(target uint32)          { f.record("GenerateMipmap", target) }
func (f *fakeFunctions) PixelStorei(pname uint32, param int32) { f.record("PixelStorei", pname, param) }

func (f *fakeFunctions) GenFramebuffer() uint32            { return f.gen("GenFramebuffer") }
func (f *fakeFunctions) DeleteFramebuffer(fb uint32)       { f.record("DeleteFramebuffer", fb) }
func (f *fakeFunctions) BindFramebuffer(target, fb uint32) { f.record("BindFramebuffer", target, fb) }
func (f *fakeFunctions) FramebufferTexture2D(target, attachment, texTarget, texture uint32, level int32) {
	f.record("FramebufferTexture2D", target, attachment, texTarget, texture, level)
}

func (f *fakeFunctions) GenRenderbuffer() uint32            { return f.gen("GenRenderbuffer") }
func (f *fakeFunctions) DeleteRenderbuffer(rb uint32)       { f.record("DeleteRenderbuffer", rb) }
func (f *fakeFunctions) BindRenderbuffer(target, rb uint32) { f.record("BindRenderbuffer", target, rb) }
func (f *fakeFunctions) RenderbufferStorage(target, format uint32, width, height int32) {
	f.record("RenderbufferStorage", target, format, width, height)
}

func (f *fakeFunctions) FramebufferRenderbuffer(target, attachment, rbTarget, rb uint32) {
	f.record("FramebufferRenderbuffer", target, attachment, rbTarget, rb)
}

func (f *fakeFunctions) CheckFramebufferStatus(target uint32) uint32 { return glFramebufferComplete }

func (f *fakeFunctions) CreateShader(xtype uint32) uint32 { return f.gen("CreateShader") }
func (f *fakeFunctions) ShaderSource(shader uint32, source string) {
	f.record("ShaderSource", shader)
}

func (f *fakeFunctions) CompileShader(shader uint32) { f.record("CompileShader", shader) }
func (f *fakeFunctions) ShaderStatus(shader uint32) (bool, string) {
	if f.failCompile {
		return false, "syntax error"
	}
	return true, ""
}

func (f *fakeFunctions) DeleteShader(shader uint32) { f.deleted["shader"]++; f.record("DeleteShader", shader) }
func (f *fakeFunctions) CreateProgram() uint32      { return f.gen("CreateProgram") }
func (f *fakeFunctions) AttachShader(program, shader uint32) {
	f.record("AttachShader", program, shader)
}

func (f *fakeFunctions) BindAttribLocation(program, index uint32, name string) {
	f.record("BindAttribLocation", program, index, name)
}

func (f *fakeFunctions) LinkProgram(program uint32) { f.record("LinkProgram", program) }
func (f *fakeFunctions) ProgramStatus(program uint32) (bool, string) {
	if f.failLink {
		return false, "link error"
	}
	return true, ""
}

func (f *fakeFunctions) UseProgram(program uint32)    { f.record("UseProgram", program) }
func (f *fakeFunctions) DeleteProgram(program uint32) { f.deleted["program"]++; f.record("DeleteProgram", program) }
func (f *fakeFunctions) GetUniformLocation(program uint32, name string) int32 {
	switch name {
	case "uWorld":
		return 0
	case "uView":
		return 1
	case "uProjection":
		return 2
	case "uFixed":
		return 3
	case "uTexture":
		return 4
	case "uTextured":
		return 5
	}
	return -1
}

func (f *fakeFunctions) Uniform1i(location, v int32) { f.record("Uniform1i", location, v) }
func (f *fakeFunctions) Uniform4fv(location int32, values []float32) {
	f.record("Uniform4fv", location, len(values))
}

func (f *fakeFunctions) UniformMatrix4fv(location int32, m [16]float32) {
	f.record("UniformMatrix4fv", location)
}

func (f *fakeFunctions) GenQuery() uint32                { return f.gen("GenQuery") }
func (f *fakeFunctions) DeleteQuery(query uint32)        { f.deleted["query"]++; f.record("DeleteQuery", query) }
func (f *fakeFunctions) BeginQuery(target, query uint32) { f.record("BeginQuery", target, query) }
func (f *fakeFunctions) EndQuery(target uint32)          { f.record("EndQuery", target) }
func (f *fakeFunctions) GetQueryObjectuiv(query, pname uint32) uint32 {
	f.record("GetQueryObjectuiv", query, pname)
	if f.available {
		return 1
	}
	return 0
}

func (f *fakeFunctions) GetQueryObjectui64v(query, pname uint32) uint64 {
	f.record("GetQueryObjectui64v", query, pname)
	return f.result
}
