package d3d11

// Native Direct3D 11 and DXGI enumerants used by the render system.
const (
	usageDefault = 0
	usageDynamic = 2

	bindVertexBuffer   = 0x1
	bindIndexBuffer    = 0x2
	bindConstantBuffer = 0x4
	bindShaderResource = 0x8
	bindRenderTarget   = 0x20
	bindDepthStencil   = 0x40

	cpuAccessWrite = 0x10000

	miscGenerateMips = 0x1

	formatUnknown           = 0
	formatR32G32B32A32Float = 2
	formatR32G32B32Float    = 6
	formatR16G16B16A16Unorm = 11
	formatR32G32Float       = 16
	formatR8G8B8A8Unorm     = 28
	formatR8G8B8A8Uint      = 30
	formatR16G16Unorm       = 35
	formatR32Float          = 41
	formatR32Uint           = 42
	formatD24UnormS8Uint    = 45
	formatR8G8Unorm         = 49
	formatR16Uint           = 57
	formatR8Unorm           = 61
	formatA8Unorm           = 65
	formatB8G8R8A8Unorm     = 87

	topologyPointList     = 1
	topologyLineList      = 2
	topologyLineStrip     = 3
	topologyTriangleList  = 4
	topologyTriangleStrip = 5

	blendZero         = 1
	blendOne          = 2
	blendSrcColor     = 3
	blendInvSrcColor  = 4
	blendSrcAlpha     = 5
	blendInvSrcAlpha  = 6
	blendDestAlpha    = 7
	blendInvDestAlpha = 8
	blendDestColor    = 9
	blendInvDestColor = 10

	colorWriteAll = 0xF

	cmpNever        = 1
	cmpLess         = 2
	cmpEqual        = 3
	cmpLessEqual    = 4
	cmpGreater      = 5
	cmpNotEqual     = 6
	cmpGreaterEqual = 7
	cmpAlways       = 8

	stencilOpKeep    = 1
	stencilOpZero    = 2
	stencilOpReplace = 3
	stencilOpIncrSat = 4
	stencilOpDecrSat = 5
	stencilOpInvert  = 6
	stencilOpIncr    = 7
	stencilOpDecr    = 8

	fillWireframe = 2
	fillSolid     = 3

	cullNone  = 1
	cullFront = 2
	cullBack  = 3

	filterMinMagMipPoint       = 0x0
	filterMinMagPointMipLinear = 0x1
	filterMinMagLinearMipPoint = 0x14
	filterMinMagMipLinear      = 0x15
	filterAnisotropic          = 0x55

	addressWrap   = 1
	addressMirror = 2
	addressClamp  = 3

	clearDepth   = 0x1
	clearStencil = 0x2

	queryEvent              = 0
	queryOcclusion          = 1
	queryTimestamp          = 2
	queryTimestampDisjoint  = 3
	queryOcclusionPredicate = 5
	querySOStatistics       = 6

	maxTextureSlots = 8
)
