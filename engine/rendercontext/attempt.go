package rendercontext

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/d3d11"
)

// AttemptKind is the way a context is created.
type AttemptKind int

const (
	// AttemptGLExt creates a versioned core or compatibility profile context.
	AttemptGLExt AttemptKind = iota
	// AttemptGLCompatibility creates a compatibility profile context without a specific version.
	AttemptGLCompatibility
	// AttemptGLStandard creates whatever context the driver offers by default.
	AttemptGLStandard
	// AttemptGLES creates an OpenGL ES 3.0 context.
	AttemptGLES
	// AttemptD3D9Hardware creates a HAL device with hardware vertex processing.
	AttemptD3D9Hardware
	// AttemptD3D9Software creates a HAL device with software vertex processing.
	AttemptD3D9Software
	// AttemptD3D11 creates a hardware device of one feature level.
	AttemptD3D11
	// AttemptWebGPU requests a WebGPU adapter and device for the window surface.
	AttemptWebGPU
)

var attemptKindNames = map[AttemptKind]string{
	AttemptGLExt:           "OpenGL ext profile",
	AttemptGLCompatibility: "OpenGL compatibility profile",
	AttemptGLStandard:      "OpenGL standard",
	AttemptGLES:            "OpenGL ES",
	AttemptD3D9Hardware:    "Direct3D9 HAL hardware vertex processing",
	AttemptD3D9Software:    "Direct3D9 HAL software vertex processing",
	AttemptD3D11:           "Direct3D11",
	AttemptWebGPU:          "WebGPU",
}

func (k AttemptKind) String() string {
	if name, ok := attemptKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("AttemptKind(%d)", int(k))
}

// defaultGLVersion is the version of ext contexts when none was requested.
var defaultGLVersion = Version{Major: 3, Minor: 3}

// d3d11Levels are the Direct3D 11 feature levels from the highest down.
var d3d11Levels = []uint32{d3d11.FeatureLevel11_0, d3d11.FeatureLevel10_1, d3d11.FeatureLevel10_0, d3d11.FeatureLevel9_3}

// Attempt is one configuration tried while opening a context.
type Attempt struct {
	Kind AttemptKind
	// Samples is the multisample count, 0 without anti-aliasing.
	Samples int

	// CoreProfile and GLVersion apply to AttemptGLExt.
	CoreProfile bool
	GLVersion   Version

	// FeatureLevel applies to AttemptD3D11.
	FeatureLevel uint32
}

func (a Attempt) String() string {
	s := a.Kind.String()
	switch a.Kind {
	case AttemptGLExt:
		profile := "compatibility"
		if a.CoreProfile {
			profile = "core"
		}
		s += fmt.Sprintf(" %s %s", a.GLVersion, profile)
	case AttemptD3D11:
		s += fmt.Sprintf(" feature level %d_%d", a.FeatureLevel>>12, (a.FeatureLevel>>8)&0xf)
	}
	if a.Samples > 0 {
		s += fmt.Sprintf(" with %dx anti-aliasing", a.Samples)
	}
	return s
}

// Attempts returns the configurations to try for cfg, in order.
//
// Parameters:
//   - cfg: the requested configuration
//   - extAvailable: whether versioned OpenGL contexts can be requested
//
// Returns:
//   - []Attempt: the attempts, best first
func Attempts(cfg Config, extAvailable bool) []Attempt {
	samples := cfg.Flags.AntiAliasing.Samples()
	// withoutAA repeats a list once more without multisampling when anti-aliasing was requested
	withoutAA := func(list []Attempt, keep func(Attempt) bool) []Attempt {
		if samples == 0 {
			return list
		}
		for _, a := range slices.Clone(list) {
			if keep(a) {
				a.Samples = 0
				list = append(list, a)
			}
		}
		return list
	}

	switch cfg.Backend {
	case renderer.BackendOpenGL:
		var list []Attempt
		profile := cfg.Flags.RendererProfile
		if profile.UseExtProfile && extAvailable {
			version := profile.GLVersion
			if !version.Valid() {
				version = defaultGLVersion
			}
			list = append(list, Attempt{Kind: AttemptGLExt, Samples: samples, CoreProfile: profile.UseGLCoreProfile, GLVersion: version})
		}
		list = append(list,
			Attempt{Kind: AttemptGLCompatibility, Samples: samples},
			Attempt{Kind: AttemptGLStandard, Samples: samples},
		)
		return withoutAA(list, func(a Attempt) bool { return a.Kind == AttemptGLStandard })

	case renderer.BackendOpenGLES:
		return withoutAA([]Attempt{{Kind: AttemptGLES, Samples: samples}}, func(Attempt) bool { return true })

	case renderer.BackendDirect3D9:
		var list []Attempt
		if samples > 0 {
			list = append(list, Attempt{Kind: AttemptD3D9Hardware, Samples: samples})
		}
		return append(list, Attempt{Kind: AttemptD3D9Hardware}, Attempt{Kind: AttemptD3D9Software})

	case renderer.BackendDirect3D11:
		levels := d3d11Levels
		if highest := cfg.Flags.RendererProfile.D3DFeatureLevel; highest != 0 {
			levels = slices.DeleteFunc(slices.Clone(levels), func(l uint32) bool { return l > highest })
		}
		var list []Attempt
		for _, level := range levels {
			list = append(list, Attempt{Kind: AttemptD3D11, Samples: samples, FeatureLevel: level})
		}
		return withoutAA(list, func(Attempt) bool { return true })

	case renderer.BackendWebGPU:
		return withoutAA([]Attempt{{Kind: AttemptWebGPU, Samples: samples}}, func(Attempt) bool { return true })
	}
	return nil
}
