package opengl

// OpenGL enumerants used by the backend. The values are fixed by the Khronos registry and shared
// by desktop GL and GL ES, which lets the backend stay independent of the binding package.
const (
	glZero = 0
	glOne  = 1

	glPoints        = 0x0000
	glLines         = 0x0001
	glLineStrip     = 0x0003
	glTriangles     = 0x0004
	glTriangleStrip = 0x0005
	glTriangleFan   = 0x0006

	glDepthBufferBit   = 0x00000100
	glStencilBufferBit = 0x00000400
	glColorBufferBit   = 0x00004000

	glNever    = 0x0200
	glLess     = 0x0201
	glEqual    = 0x0202
	glLequal   = 0x0203
	glGreater  = 0x0204
	glNotequal = 0x0205
	glGequal   = 0x0206
	glAlways   = 0x0207

	glSrcColor         = 0x0300
	glOneMinusSrcColor = 0x0301
	glSrcAlpha         = 0x0302
	glOneMinusSrcAlpha = 0x0303
	glDstAlpha         = 0x0304
	glOneMinusDstAlpha = 0x0305
	glDstColor         = 0x0306
	glOneMinusDstColor = 0x0307

	glFront        = 0x0404
	glBack         = 0x0405
	glFrontAndBack = 0x0408

	glCW  = 0x0900
	glCCW = 0x0901

	glPointSmooth   = 0x0B10
	glLineSmooth    = 0x0B20
	glCullFace      = 0x0B44
	glLighting      = 0x0B50
	glLightModelAmb = 0x0B53
	glColorMaterial = 0x0B57
	glFog           = 0x0B60
	glFogDensity    = 0x0B62
	glFogStart      = 0x0B63
	glFogEnd        = 0x0B64
	glFogMode       = 0x0B65
	glFogColor      = 0x0B66
	glDepthTest     = 0x0B71
	glStencilTest   = 0x0B90
	glNormalize     = 0x0BA1
	glDither        = 0x0BD0
	glBlend         = 0x0BE2
	glScissorTest   = 0x0C11
	glUnpackAlign   = 0x0CF5
	glMaxLights     = 0x0D31
	glMaxClipPlanes = 0x0D32
	glMaxTexSize    = 0x0D33
	glTexture2D     = 0x0DE1
	glMultisample   = 0x809D

	glExp    = 0x0800
	glExp2   = 0x0801
	glLinear = 0x2601

	glAmbient              = 0x1200
	glDiffuse              = 0x1201
	glSpecular             = 0x1202
	glPosition             = 0x1203
	glSpotDirection        = 0x1204
	glSpotExponent         = 0x1205
	glSpotCutoff           = 0x1206
	glConstantAttenuation  = 0x1207
	glLinearAttenuation    = 0x1208
	glQuadraticAttenuation = 0x1209
	glEmission             = 0x1600
	glShininess            = 0x1601
	glAmbientAndDiffuse    = 0x1602

	glByte          = 0x1400
	glUnsignedByte  = 0x1401
	glShort         = 0x1402
	glUnsignedShort = 0x1403
	glInt           = 0x1404
	glUnsignedInt   = 0x1405
	glFloat         = 0x1406

	glModelview     = 0x1700
	glProjection    = 0x1701
	glTextureMatrix = 0x1702

	glPoint = 0x1B00
	glLine  = 0x1B01
	glFill  = 0x1B02

	glFlat   = 0x1D00
	glSmooth = 0x1D01

	glKeep     = 0x1E00
	glReplace  = 0x1E01
	glIncr     = 0x1E02
	glDecr     = 0x1E03
	glInvert   = 0x150A
	glIncrWrap = 0x8507
	glDecrWrap = 0x8508

	glVendor   = 0x1F00
	glRenderer = 0x1F01
	glVersion  = 0x1F02

	glRed            = 0x1903
	glAlpha          = 0x1906
	glRGB            = 0x1907
	glRGBA           = 0x1908
	glLuminance      = 0x1909
	glLuminanceAlpha = 0x190A
	glRG             = 0x8227
	glR8             = 0x8229
	glRG8            = 0x822B
	glRGB8           = 0x8051
	glRGBA8          = 0x8058
	glBGR            = 0x80E0
	glBGRA           = 0x80E1
	glDepth24Stencil = 0x88F0

	glNearest              = 0x2600
	glLinearFilter         = 0x2601
	glNearestMipmapNearest = 0x2700
	glLinearMipmapNearest  = 0x2701
	glNearestMipmapLinear  = 0x2702
	glLinearMipmapLinear   = 0x2703
	glTexMagFilter         = 0x2800
	glTexMinFilter         = 0x2801
	glTexWrapS             = 0x2802
	glTexWrapT             = 0x2803
	glRepeat               = 0x2901
	glClampToEdge          = 0x812F
	glMirroredRepeat       = 0x8370
	glTexMaxAnisotropy     = 0x84FE
	glMaxTexMaxAnisotropy  = 0x84FF
	glTexture0             = 0x84C0
	glMaxTexImageUnits     = 0x8872
	glMaxSamples           = 0x8D57

	glVertexArray       = 0x8074
	glNormalArray       = 0x8075
	glColorArray        = 0x8076
	glTextureCoordArray = 0x8078

	glArrayBuffer        = 0x8892
	glElementArrayBuffer = 0x8893
	glStreamDraw         = 0x88E0
	glStaticDraw         = 0x88E4
	glDynamicDraw        = 0x88E8

	glFramebuffer            = 0x8D40
	glRenderbuffer           = 0x8D41
	glColorAttachment0       = 0x8CE0
	glDepthStencilAttachment = 0x821A
	glFramebufferComplete    = 0x8CD5

	glFragmentShader       = 0x8B30
	glVertexShader         = 0x8B31
	glGeometryShader       = 0x8DD9
	glTessEvaluationShader = 0x8E87
	glTessControlShader    = 0x8E88
	glComputeShader        = 0x91B9

	glSamplesPassed        = 0x8914
	glAnySamplesPassed     = 0x8C2F
	glPrimitivesGenerated  = 0x8C87
	glTimeElapsed          = 0x88BF
	glQueryResult          = 0x8866
	glQueryResultAvailable = 0x8867

	glLight0     = 0x4000
	glClipPlane0 = 0x3000
)
