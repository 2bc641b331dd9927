// Package rendercontext owns the window, the native device or context and the swap chain of a
// render system. Opening a context walks an ordered list of configurations until one succeeds.
package rendercontext

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// Version is an API version number such as OpenGL 3.3.
type Version struct {
	Major int
	Minor int
}

// Valid reports whether a version was requested.
func (v Version) Valid() bool {
	return v.Major > 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AntiAliasing requests a multisampled default framebuffer.
type AntiAliasing struct {
	Enabled      bool
	MultiSamples int
}

// Samples returns the sample count to request, 0 when anti-aliasing is off.
func (a AntiAliasing) Samples() int {
	if !a.Enabled || a.MultiSamples < 2 {
		return 0
	}
	return a.MultiSamples
}

// VSync configures vertical synchronisation. Interval is the number of vertical blanks a flip waits
// for while enabled.
type VSync struct {
	Enabled  bool
	Interval int
}

// RendererProfile selects the API tier the context is created with.
type RendererProfile struct {
	// UseExtProfile creates an OpenGL context through the versioned context entry points.
	UseExtProfile bool
	// UseGLCoreProfile requests a core instead of a compatibility profile for ext contexts.
	UseGLCoreProfile bool
	// GLVersion is the version of ext contexts. An invalid version selects 3.3.
	GLVersion Version
	// D3DFeatureLevel is the highest Direct3D 11 feature level to try, 0 starts at 11_0.
	D3DFeatureLevel uint32
}

// DeviceFlags hold the device options of a context.
type DeviceFlags struct {
	AntiAliasing    AntiAliasing
	VSync           VSync
	RendererProfile RendererProfile
	// Hidden creates the window without showing it.
	Hidden bool
}

// Config describes the context to open.
type Config struct {
	Backend    renderer.BackendType
	Title      string
	Resolution common.Size2
	ColorDepth int
	Fullscreen bool
	Flags      DeviceFlags

	// RenderSystem holds the options the render system of the context is created with. The screen
	// size and sample count are taken from the context.
	RenderSystem []renderer.RenderSystemBuilderOption
}

// DefaultConfig returns the configuration a closed context is reset to.
func DefaultConfig() Config {
	return Config{
		Backend:    renderer.BackendOpenGL,
		Title:      "oxy-render",
		Resolution: common.Size2{Width: 800, Height: 600},
		ColorDepth: 32,
		Flags: DeviceFlags{
			AntiAliasing: AntiAliasing{MultiSamples: 2},
			VSync:        VSync{Enabled: true, Interval: 1},
		},
	}
}
