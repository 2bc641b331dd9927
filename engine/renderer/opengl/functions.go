package opengl

// Functions is the subset of the OpenGL API used by the backend. The cgo implementations wrap
// go-gl bindings; ES builds turn the fixed-function entry points into no-ops. Tests substitute a
// recording fake.
//
// Methods mirror the GL entry points they wrap. Slices replace pointer/length pairs, and
// object-creating functions return the new name directly.
type Functions interface {
	// Init loads the entry points of the current context.
	Init() error

	// ES reports whether the functions target OpenGL ES.
	ES() bool

	GetString(name uint32) string
	GetInteger(pname uint32) int32
	GetError() uint32
	Flush()
	Finish()

	Enable(cap uint32)
	Disable(cap uint32)
	BlendFunc(src, dst uint32)
	DepthFunc(fn uint32)
	DepthMask(flag bool)
	DepthRange(near, far float64)
	ColorMask(r, g, b, a bool)
	CullFace(mode uint32)
	FrontFace(mode uint32)
	LineWidth(width float32)
	PointSize(size float32)
	PolygonMode(face, mode uint32)
	StencilMask(mask uint32)
	StencilFunc(fn uint32, ref int32, mask uint32)
	StencilOp(fail, zfail, zpass uint32)
	ClearColor(r, g, b, a float32)
	ClearStencil(s int32)
	ClearDepth(d float64)
	Clear(mask uint32)
	Viewport(x, y, width, height int32)
	Scissor(x, y, width, height int32)

	// Fixed-function state, unavailable on ES.
	ShadeModel(mode uint32)
	ClipPlane(plane uint32, equation [4]float64)
	MatrixMode(mode uint32)
	LoadMatrix(m [16]float32)
	Fogi(pname uint32, param int32)
	Fogf(pname uint32, param float32)
	Fogfv(pname uint32, params [4]float32)
	Lightf(light, pname uint32, param float32)
	Lightfv(light, pname uint32, params [4]float32)
	LightModelfv(pname uint32, params [4]float32)
	Materialf(face, pname uint32, param float32)
	Materialfv(face, pname uint32, params [4]float32)
	ColorMaterial(face, mode uint32)
	EnableClientState(array uint32)
	DisableClientState(array uint32)
	ClientActiveTexture(texture uint32)
	VertexPointer(size int32, xtype uint32, stride int32, offset int)
	NormalPointer(xtype uint32, stride int32, offset int)
	ColorPointer(size int32, xtype uint32, stride int32, offset int)
	TexCoordPointer(size int32, xtype uint32, stride int32, offset int)

	GenBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, data []byte, usage uint32)
	BufferSubData(target uint32, offset int, data []byte)

	GenVertexArray() uint32
	DeleteVertexArray(array uint32)
	BindVertexArray(array uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, xtype uint32, normalized bool, stride int32, offset int)
	VertexAttrib4f(index uint32, x, y, z, w float32)

	DrawArrays(mode uint32, first, count int32)
	DrawElements(mode uint32, count int32, xtype uint32, offset int)

	GenTexture() uint32
	DeleteTexture(texture uint32)
	ActiveTexture(unit uint32)
	BindTexture(target, texture uint32)
	TexImage2D(target uint32, level, internalFormat, width, height int32, format, xtype uint32, pixels []byte)
	TexSubImage2D(target uint32, level, x, y, width, height int32, format, xtype uint32, pixels []byte)
	TexParameteri(target, pname uint32, param int32)
	TexParameterf(target, pname uint32, param float32)
	GenerateMipmap(target uint32)
	PixelStorei(pname uint32, param int32)

	GenFramebuffer() uint32
	DeleteFramebuffer(fb uint32)
	BindFramebuffer(target, fb uint32)
	FramebufferTexture2D(target, attachment, texTarget, texture uint32, level int32)
	GenRenderbuffer() uint32
	DeleteRenderbuffer(rb uint32)
	BindRenderbuffer(target, rb uint32)
	RenderbufferStorage(target, format uint32, width, height int32)
	FramebufferRenderbuffer(target, attachment, rbTarget, rb uint32)
	CheckFramebufferStatus(target uint32) uint32

	CreateShader(xtype uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	// ShaderStatus returns the compile status and info log.
	ShaderStatus(shader uint32) (bool, string)
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	BindAttribLocation(program, index uint32, name string)
	LinkProgram(program uint32)
	// ProgramStatus returns the link status and info log.
	ProgramStatus(program uint32) (bool, string)
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	GetUniformLocation(program uint32, name string) int32
	Uniform1i(location, v int32)
	Uniform4fv(location int32, values []float32)
	UniformMatrix4fv(location int32, m [16]float32)

	GenQuery() uint32
	DeleteQuery(query uint32)
	BeginQuery(target, query uint32)
	EndQuery(target uint32)
	GetQueryObjectuiv(query, pname uint32) uint32
	GetQueryObjectui64v(query, pname uint32) uint64
}
