package d3d9

// D3DRENDERSTATETYPE
const (
	rsZEnable               = 7
	rsFillMode              = 8
	rsShadeMode             = 9
	rsZWriteEnable          = 14
	rsSrcBlend              = 19
	rsDestBlend             = 20
	rsCullMode              = 22
	rsZFunc                 = 23
	rsDitherEnable          = 26
	rsAlphaBlendEnable      = 27
	rsFogEnable             = 28
	rsSpecularEnable        = 29
	rsFogColor              = 34
	rsFogTableMode          = 35
	rsFogStart              = 36
	rsFogEnd                = 37
	rsFogDensity            = 38
	rsRangeFogEnable        = 48
	rsStencilEnable         = 52
	rsStencilFail           = 53
	rsStencilZFail          = 54
	rsStencilPass           = 55
	rsStencilFunc           = 56
	rsStencilRef            = 57
	rsStencilMask           = 58
	rsStencilWriteMask      = 59
	rsLighting              = 137
	rsAmbient               = 139
	rsFogVertexMode         = 140
	rsColorVertex           = 141
	rsNormalizeNormals      = 143
	rsDiffuseMaterialSource = 145
	rsAmbientMaterialSource = 147
	rsClipPlaneEnable       = 152
	rsPointSize             = 154
	rsMultisampleAntialias  = 161
	rsColorWriteEnable      = 168
	rsScissorTestEnable     = 174
	rsAntialiasedLineEnable = 176
)

// D3DBLEND
const (
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
)

// D3DCMPFUNC
const (
	cmpNever        = 1
	cmpLess         = 2
	cmpEqual        = 3
	cmpLessEqual    = 4
	cmpGreater      = 5
	cmpNotEqual     = 6
	cmpGreaterEqual = 7
	cmpAlways       = 8
)

// D3DSTENCILOP
const (
	stencilOpKeep    = 1
	stencilOpZero    = 2
	stencilOpReplace = 3
	stencilOpIncrSat = 4
	stencilOpDecrSat = 5
	stencilOpInvert  = 6
	stencilOpIncr    = 7
	stencilOpDecr    = 8
)

const (
	cullNone = 1
	cullCW   = 2
	cullCCW  = 3

	fillPoint     = 1
	fillWireframe = 2
	fillSolid     = 3

	shadeFlat    = 1
	shadeGouraud = 2

	fogNone   = 0
	fogExp    = 1
	fogExp2   = 2
	fogLinear = 3

	mcsMaterial = 0
	mcsColor1   = 1
)

// D3DTRANSFORMSTATETYPE
const (
	tsView       = 2
	tsProjection = 3
	tsTexture0   = 16
	tsWorld      = 256
)

// D3DSAMPLERSTATETYPE and D3DTEXTUREFILTERTYPE
const (
	sampAddressU      = 1
	sampAddressV      = 2
	sampMagFilter     = 5
	sampMinFilter     = 6
	sampMipFilter     = 7
	sampMaxAnisotropy = 10

	texfNone        = 0
	texfPoint       = 1
	texfLinear      = 2
	texfAnisotropic = 3

	taddressWrap   = 1
	taddressMirror = 2
	taddressClamp  = 3
)

// D3DTEXTURESTAGESTATETYPE
const (
	tssColorOp   = 1
	tssColorArg1 = 2
	tssColorArg2 = 3
	tssAlphaOp   = 4
	tssAlphaArg1 = 5
	tssAlphaArg2 = 6

	topDisable    = 1
	topSelectArg1 = 2
	topSelectArg2 = 3
	topModulate   = 4

	taDiffuse = 0
	taCurrent = 1
	taTexture = 2
)

// D3DPRIMITIVETYPE
const (
	ptPointList     = 1
	ptLineList      = 2
	ptLineStrip     = 3
	ptTriangleList  = 4
	ptTriangleStrip = 5
	ptTriangleFan   = 6
)

// D3DFORMAT
const (
	fmtUnknown  = 0
	fmtA8R8G8B8 = 21
	fmtX8R8G8B8 = 22
	fmtA8       = 28
	fmtL8       = 50
	fmtA8L8     = 51
	fmtD24S8    = 75
	fmtIndex16  = 101
	fmtIndex32  = 102
)

// D3DUSAGE and D3DPOOL
const (
	usageRenderTarget  = 0x1
	usageWriteOnly     = 0x8
	usageDynamic       = 0x200
	usageAutoGenMipMap = 0x400

	poolDefault = 0
	poolManaged = 1
)

const (
	clearTarget  = 0x1
	clearZBuffer = 0x2
	clearStencil = 0x4
)

// D3DQUERYTYPE and D3DISSUE
const (
	queryOcclusion     = 9
	queryTimestamp     = 10
	queryTimestampFreq = 12

	issueEnd   = 1
	issueBegin = 2
)

// D3DDECLTYPE and D3DDECLUSAGE
const (
	declFloat1   = 0
	declFloat2   = 1
	declFloat3   = 2
	declFloat4   = 3
	declD3DColor = 4
	declUByte4   = 5
	declShort2   = 6
	declShort4   = 7
	declUByte4N  = 8
	declUShort2N = 11
	declUShort4N = 12
	declUnused   = 17

	declUsagePosition     = 0
	declUsageBlendWeight  = 1
	declUsageBlendIndices = 2
	declUsageNormal       = 3
	declUsageTexCoord     = 5
	declUsageTangent      = 6
	declUsageBinormal     = 7
	declUsageColor        = 10
)

// D3DLIGHTTYPE
const (
	lightPoint       = 1
	lightSpot        = 2
	lightDirectional = 3
)

// D3DFVF of the 2D vertex stream: position, diffuse color, one texture coordinate set.
const fvf2D = 0x002 | 0x040 | 0x100

const maxTextureStages = 8
