//go:build !gles

package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v3.3-compatibility/gl"
)

type nativeFunctions struct{}

var _ Functions = &nativeFunctions{}

// NewFunctions returns the desktop OpenGL implementation of Functions. A context must be current
// on the calling thread before Init is called.
func NewFunctions() Functions {
	return &nativeFunctions{}
}

func (f *nativeFunctions) Init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to load OpenGL entry points: %w", err)
	}
	return nil
}

func (f *nativeFunctions) ES() bool { return false }

func (f *nativeFunctions) GetString(name uint32) string {
	s := gl.GetString(name)
	if s == nil {
		return ""
	}
	return gl.GoStr(s)
}

func (f *nativeFunctions) GetInteger(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

func (f *nativeFunctions) GetError() uint32 { return gl.GetError() }
func (f *nativeFunctions) Flush()           { gl.Flush() }
func (f *nativeFunctions) Finish()          { gl.Finish() }

func (f *nativeFunctions) Enable(cap uint32)             { gl.Enable(cap) }
func (f *nativeFunctions) Disable(cap uint32)            { gl.Disable(cap) }
func (f *nativeFunctions) BlendFunc(src, dst uint32)     { gl.BlendFunc(src, dst) }
func (f *nativeFunctions) DepthFunc(fn uint32)           { gl.DepthFunc(fn) }
func (f *nativeFunctions) DepthMask(flag bool)           { gl.DepthMask(flag) }
func (f *nativeFunctions) DepthRange(near, far float64)  { gl.DepthRange(near, far) }
func (f *nativeFunctions) ColorMask(r, g, b, a bool)     { gl.ColorMask(r, g, b, a) }
func (f *nativeFunctions) CullFace(mode uint32)          { gl.CullFace(mode) }
func (f *nativeFunctions) FrontFace(mode uint32)         { gl.FrontFace(mode) }
func (f *nativeFunctions) LineWidth(width float32)       { gl.LineWidth(width) }
func (f *nativeFunctions) PointSize(size float32)        { gl.PointSize(size) }
func (f *nativeFunctions) PolygonMode(face, mode uint32) { gl.PolygonMode(face, mode) }
func (f *nativeFunctions) StencilMask(mask uint32)       { gl.StencilMask(mask) }
func (f *nativeFunctions) StencilOp(fail, zfail, zpass uint32) {
	gl.StencilOp(fail, zfail, zpass)
}
func (f *nativeFunctions) StencilFunc(fn uint32, ref int32, mask uint32) {
	gl.StencilFunc(fn, ref, mask)
}
func (f *nativeFunctions) ClearColor(r, g, b, a float32) { gl.ClearColor(r, g, b, a) }
func (f *nativeFunctions) ClearStencil(s int32)          { gl.ClearStencil(s) }
func (f *nativeFunctions) ClearDepth(d float64)          { gl.ClearDepth(d) }
func (f *nativeFunctions) Clear(mask uint32)             { gl.Clear(mask) }
func (f *nativeFunctions) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}
func (f *nativeFunctions) Scissor(x, y, width, height int32) {
	gl.Scissor(x, y, width, height)
}

func (f *nativeFunctions) ShadeModel(mode uint32) { gl.ShadeModel(mode) }
func (f *nativeFunctions) ClipPlane(plane uint32, equation [4]float64) {
	gl.ClipPlane(plane, &equation[0])
}
func (f *nativeFunctions) MatrixMode(mode uint32)           { gl.MatrixMode(mode) }
func (f *nativeFunctions) LoadMatrix(m [16]float32)         { gl.LoadMatrixf(&m[0]) }
func (f *nativeFunctions) Fogi(pname uint32, param int32)   { gl.Fogi(pname, param) }
func (f *nativeFunctions) Fogf(pname uint32, param float32) { gl.Fogf(pname, param) }
func (f *nativeFunctions) Fogfv(pname uint32, params [4]float32) {
	gl.Fogfv(pname, &params[0])
}
func (f *nativeFunctions) Lightf(light, pname uint32, param float32) {
	gl.Lightf(light, pname, param)
}
func (f *nativeFunctions) Lightfv(light, pname uint32, params [4]float32) {
	gl.Lightfv(light, pname, &params[0])
}
func (f *nativeFunctions) LightModelfv(pname uint32, params [4]float32) {
	gl.LightModelfv(pname, &params[0])
}
func (f *nativeFunctions) Materialf(face, pname uint32, param float32) {
	gl.Materialf(face, pname, param)
}
func (f *nativeFunctions) Materialfv(face, pname uint32, params [4]float32) {
	gl.Materialfv(face, pname, &params[0])
}
func (f *nativeFunctions) ColorMaterial(face, mode uint32)    { gl.ColorMaterial(face, mode) }
func (f *nativeFunctions) EnableClientState(array uint32)     { gl.EnableClientState(array) }
func (f *nativeFunctions) DisableClientState(array uint32)    { gl.DisableClientState(array) }
func (f *nativeFunctions) ClientActiveTexture(texture uint32) { gl.ClientActiveTexture(texture) }
func (f *nativeFunctions) VertexPointer(size int32, xtype uint32, stride int32, offset int) {
	gl.VertexPointer(size, xtype, stride, gl.PtrOffset(offset))
}
func (f *nativeFunctions) NormalPointer(xtype uint32, stride int32, offset int) {
	gl.NormalPointer(xtype, stride, gl.PtrOffset(offset))
}
func (f *nativeFunctions) ColorPointer(size int32, xtype uint32, stride int32, offset int) {
	gl.ColorPointer(size, xtype, stride, gl.PtrOffset(offset))
}
func (f *nativeFunctions) TexCoordPointer(size int32, xtype uint32, stride int32, offset int) {
	gl.TexCoordPointer(size, xtype, stride, gl.PtrOffset(offset))
}

func (f *nativeFunctions) GenBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}
func (f *nativeFunctions) DeleteBuffer(buffer uint32)       { gl.DeleteBuffers(1, &buffer) }
func (f *nativeFunctions) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }
func (f *nativeFunctions) BufferData(target uint32, data []byte, usage uint32) {
	gl.BufferData(target, len(data), bytePtr(data), usage)
}
func (f *nativeFunctions) BufferSubData(target uint32, offset int, data []byte) {
	gl.BufferSubData(target, offset, len(data), bytePtr(data))
}

func (f *nativeFunctions) GenVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}
func (f *nativeFunctions) DeleteVertexArray(array uint32)       { gl.DeleteVertexArrays(1, &array) }
func (f *nativeFunctions) BindVertexArray(array uint32)         { gl.BindVertexArray(array) }
func (f *nativeFunctions) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }
func (f *nativeFunctions) DisableVertexAttribArray(index uint32) {
	gl.DisableVertexAttribArray(index)
}
func (f *nativeFunctions) VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, xtype, normalized, stride, gl.PtrOffset(offset))
}
func (f *nativeFunctions) VertexAttrib4f(index uint32, x, y, z, w float32) {
	gl.VertexAttrib4f(index, x, y, z, w)
}

func (f *nativeFunctions) DrawArrays(mode uint32, first, count int32) {
	gl.DrawArrays(mode, first, count)
}
func (f *nativeFunctions) DrawElements(mode uint32, count int32, xtype uint32, offset int) {
	gl.DrawElements(mode, count, xtype, gl.PtrOffset(offset))
}

func (f *nativeFunctions) GenTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}
func (f *nativeFunctions) DeleteTexture(texture uint32)       { gl.DeleteTextures(1, &texture) }
func (f *nativeFunctions) ActiveTexture(unit uint32)          { gl.ActiveTexture(unit) }
func (f *nativeFunctions) BindTexture(target, texture uint32) { gl.BindTexture(target, texture) }
func (f *nativeFunctions) TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte) {
	gl.TexImage2D(target, level, internalFormat, width, height, 0, format, xtype, bytePtr(pixels))
}
func (f *nativeFunctions) TexSubImage2D(target uint32, level, x, y, width, height int32, format, xtype uint32, pixels []byte) {
	gl.TexSubImage2D(target, level, x, y, width, height, format, xtype, bytePtr(pixels))
}
func (f *nativeFunctions) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}
func (f *nativeFunctions) TexParameterf(target, pname uint32, param float32) {
	gl.TexParameterf(target, pname, param)
}
func (f *nativeFunctions) GenerateMipmap(target uint32)          { gl.GenerateMipmap(target) }
func (f *nativeFunctions) PixelStorei(pname uint32, param int32) { gl.PixelStorei(pname, param) }

func (f *nativeFunctions) GenFramebuffer() uint32 {
	var id uint32
	gl.GenFramebuffers(1, &id)
	return id
}
func (f *nativeFunctions) DeleteFramebuffer(fb uint32)       { gl.DeleteFramebuffers(1, &fb) }
func (f *nativeFunctions) BindFramebuffer(target, fb uint32) { gl.BindFramebuffer(target, fb) }
func (f *nativeFunctions) FramebufferTexture2D(target, attachment, texTarget, texture uint32, level int32) {
	gl.FramebufferTexture2D(target, attachment, texTarget, texture, level)
}
func (f *nativeFunctions) GenRenderbuffer() uint32 {
	var id uint32
	gl.GenRenderbuffers(1, &id)
	return id
}
func (f *nativeFunctions) DeleteRenderbuffer(rb uint32)       { gl.DeleteRenderbuffers(1, &rb) }
func (f *nativeFunctions) BindRenderbuffer(target, rb uint32) { gl.BindRenderbuffer(target, rb) }
func (f *nativeFunctions) RenderbufferStorage(target, format uint32, width, height int32) {
	gl.RenderbufferStorage(target, format, width, height)
}
func (f *nativeFunctions) FramebufferRenderbuffer(target, attachment, rbTarget, rb uint32) {
	gl.FramebufferRenderbuffer(target, attachment, rbTarget, rb)
}
func (f *nativeFunctions) CheckFramebufferStatus(target uint32) uint32 {
	return gl.CheckFramebufferStatus(target)
}

func (f *nativeFunctions) CreateShader(xtype uint32) uint32 { return gl.CreateShader(xtype) }
func (f *nativeFunctions) ShaderSource(shader uint32, source string) {
	csources, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(shader, 1, csources, nil)
}
func (f *nativeFunctions) CompileShader(shader uint32) { gl.CompileShader(shader) }
func (f *nativeFunctions) ShaderStatus(shader uint32) (bool, string) {
	var status, length int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
	log := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(shader, length, nil, gl.Str(log))
	return status == gl.TRUE, strings.TrimRight(log, "\x00")
}
func (f *nativeFunctions) DeleteShader(shader uint32)          { gl.DeleteShader(shader) }
func (f *nativeFunctions) CreateProgram() uint32               { return gl.CreateProgram() }
func (f *nativeFunctions) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }
func (f *nativeFunctions) BindAttribLocation(program, index uint32, name string) {
	gl.BindAttribLocation(program, index, gl.Str(name+"\x00"))
}
func (f *nativeFunctions) LinkProgram(program uint32) { gl.LinkProgram(program) }
func (f *nativeFunctions) ProgramStatus(program uint32) (bool, string) {
	var status, length int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
	log := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(program, length, nil, gl.Str(log))
	return status == gl.TRUE, strings.TrimRight(log, "\x00")
}
func (f *nativeFunctions) UseProgram(program uint32)    { gl.UseProgram(program) }
func (f *nativeFunctions) DeleteProgram(program uint32) { gl.DeleteProgram(program) }
func (f *nativeFunctions) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
func (f *nativeFunctions) Uniform1i(location, v int32) { gl.Uniform1i(location, v) }
func (f *nativeFunctions) Uniform4fv(location int32, values []float32) {
	if len(values) >= 4 {
		gl.Uniform4fv(location, int32(len(values)/4), &values[0])
	}
}
func (f *nativeFunctions) UniformMatrix4fv(location int32, m [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (f *nativeFunctions) GenQuery() uint32 {
	var id uint32
	gl.GenQueries(1, &id)
	return id
}
func (f *nativeFunctions) DeleteQuery(query uint32)        { gl.DeleteQueries(1, &query) }
func (f *nativeFunctions) BeginQuery(target, query uint32) { gl.BeginQuery(target, query) }
func (f *nativeFunctions) EndQuery(target uint32)          { gl.EndQuery(target) }
func (f *nativeFunctions) GetQueryObjectuiv(query, pname uint32) uint32 {
	var v uint32
	gl.GetQueryObjectuiv(query, pname, &v)
	return v
}
func (f *nativeFunctions) GetQueryObjectui64v(query, pname uint32) uint64 {
	var v uint64
	gl.GetQueryObjectui64v(query, pname, &v)
	return v
}

func bytePtr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}
