package rendercontext

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/opengl"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/webgpu"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

var errFullscreen = errors.New("switching fullscreen mode failed")

// DesktopPlatform opens GLFW windows. OpenGL and OpenGL ES contexts are created by GLFW, WebGPU
// devices on the window surface and Direct3D devices on the native window handle.
type DesktopPlatform struct{}

var _ Platform = &DesktopPlatform{}

// NewDesktopPlatform creates the GLFW platform.
func NewDesktopPlatform() *DesktopPlatform {
	return &DesktopPlatform{}
}

// ExtContextAvailable is always true: GLFW loads the versioned context entry points itself.
func (p *DesktopPlatform) ExtContextAvailable() bool {
	return true
}

func (p *DesktopPlatform) Open(cfg Config, a Attempt, share Surface) (Surface, error) {
	switch a.Kind {
	case AttemptGLExt, AttemptGLCompatibility, AttemptGLStandard, AttemptGLES:
		return openGL(cfg, a, share)
	case AttemptWebGPU:
		return openWebGPU(cfg, a)
	case AttemptD3D9Hardware, AttemptD3D9Software:
		return openD3D9(cfg, a)
	case AttemptD3D11:
		return openD3D11(cfg, a)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, a.Kind)
}

// windowOptions are the window options shared by every attempt.
func windowOptions(cfg Config, hints window.ContextHints) []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(cfg.Title),
		window.WithSize(cfg.Resolution),
		window.WithFullscreen(cfg.Fullscreen, cfg.ColorDepth),
		window.WithVisible(!cfg.Flags.Hidden),
		window.WithContext(hints),
	}
}

// guard converts a panic of a GLFW call into an error wrapping sentinel.
func guard(sentinel error, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", sentinel, r)
		}
	}()
	if err := f(); err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return nil
}

// glHints returns the context hints of an OpenGL attempt together with the profile the render
// system drives it with.
func glHints(a Attempt) (window.ContextHints, opengl.Profile) {
	hints := window.ContextHints{API: window.OpenGLAPI, Samples: a.Samples, DepthBits: 24, StencilBits: 8}
	switch a.Kind {
	case AttemptGLExt:
		hints.Major, hints.Minor = a.GLVersion.Major, a.GLVersion.Minor
		if a.CoreProfile {
			hints.Profile = window.ProfileCore
			return hints, opengl.ProfileCore
		}
		hints.Profile = window.ProfileCompatibility
	case AttemptGLCompatibility:
		hints.Major, hints.Minor = 3, 2
		hints.Profile = window.ProfileCompatibility
	case AttemptGLES:
		hints.API = window.OpenGLESAPI
		hints.Major, hints.Minor = 3, 0
		return hints, opengl.ProfileES
	}
	return hints, opengl.ProfileCompatibility
}

type glSurface struct {
	win     window.Window
	hints   window.ContextHints
	profile opengl.Profile
	rs      renderer.RenderSystem
}

func openGL(cfg Config, a Attempt, share Surface) (Surface, error) {
	hints, profile := glHints(a)
	if s, ok := share.(*glSurface); ok {
		hints.Share = s.win
	}
	var win window.Window
	err := guard(ErrGLCreate, func() error {
		var err error
		win, err = window.NewWindow(windowOptions(cfg, hints)...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &glSurface{win: win, hints: hints, profile: profile}, nil
}

func (s *glSurface) Window() window.Window {
	return s.win
}

func (s *glSurface) MakeCurrent() error {
	return guard(ErrGLActivate, s.win.MakeContextCurrent)
}

func (s *glSurface) ReleaseCurrent() error {
	return guard(ErrGLDeactivate, func() error {
		s.win.DetachCurrentContext()
		return nil
	})
}

// NewRenderSystem loads the entry points of the current context before creating the render system.
func (s *glSurface) NewRenderSystem(options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	fns := opengl.NewFunctions()
	if err := fns.Init(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGLCreate, err)
	}
	rs, err := opengl.NewRenderSystem(fns, s.profile, options...)
	if err != nil {
		return nil, err
	}
	s.rs = rs
	return rs, nil
}

func (s *glSurface) Resize(size common.Size2) error {
	if s.win.Width() != size.Width || s.win.Height() != size.Height {
		s.win.SetSize(size.Width, size.Height)
	}
	if s.rs != nil {
		s.rs.Resize(size)
	}
	return nil
}

func (s *glSurface) SetFullscreen(fullscreen bool, size common.Size2, colorDepth int) error {
	return guard(errFullscreen, func() error {
		if err := s.win.SetFullscreen(fullscreen, colorDepth); err != nil {
			return err
		}
		s.win.SetSize(size.Width, size.Height)
		return nil
	})
}

// SetSwapInterval applies to the current context, which is this one while it is active.
func (s *glSurface) SetSwapInterval(interval int) error {
	s.win.SetSwapInterval(interval)
	return nil
}

func (s *glSurface) Present() error {
	s.win.SwapBuffers()
	return nil
}

// Recover does nothing: desktop OpenGL contexts are not lost.
func (s *glSurface) Recover() error {
	return nil
}

// CreateShared creates a hidden 1x1 window whose context shares the objects of this one.
func (s *glSurface) CreateShared() (Surface, error) {
	hints := s.hints
	hints.Share = s.win
	hints.Samples = 0
	var win window.Window
	err := guard(ErrGLShareLists, func() error {
		var err error
		win, err = window.NewWindow(
			window.WithTitle("shared context"),
			window.WithSize(common.Size2{Width: 1, Height: 1}),
			window.WithVisible(false),
			window.WithContext(hints),
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &glSurface{win: win, hints: hints, profile: s.profile}, nil
}

func (s *glSurface) Close() error {
	s.rs = nil
	return guard(ErrGLDelete, s.win.Close)
}

type webgpuSurface struct {
	win     window.Window
	dev     *webgpu.SurfaceDevice
	samples int
	vsync   bool
	rs      renderer.RenderSystem
}

func openWebGPU(cfg Config, a Attempt) (Surface, error) {
	win, err := window.NewWindow(windowOptions(cfg, window.ContextHints{API: window.NoAPI})...)
	if err != nil {
		return nil, err
	}
	s := &webgpuSurface{win: win, samples: a.Samples, vsync: cfg.Flags.VSync.Enabled}
	if s.dev, err = s.newDevice(); err != nil {
		_ = win.Close()
		return nil, err
	}
	return s, nil
}

func (s *webgpuSurface) newDevice() (*webgpu.SurfaceDevice, error) {
	return webgpu.NewSurfaceDevice(s.win.SurfaceDescriptor(),
		webgpu.WithMultiSamples(s.samples),
		webgpu.WithVsync(s.vsync),
		webgpu.WithSurfaceSize(s.win.Width(), s.win.Height()),
	)
}

func (s *webgpuSurface) Window() window.Window {
	return s.win
}

// MakeCurrent does nothing: WebGPU devices are not bound to a thread.
func (s *webgpuSurface) MakeCurrent() error {
	return nil
}

func (s *webgpuSurface) ReleaseCurrent() error {
	return nil
}

func (s *webgpuSurface) NewRenderSystem(options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	rs, err := webgpu.NewRenderSystem(s.dev, options...)
	if err != nil {
		return nil, err
	}
	s.rs = rs
	return rs, nil
}

// Resize submits the work recorded for the old size before the surface is reconfigured.
func (s *webgpuSurface) Resize(size common.Size2) error {
	if s.win.Width() != size.Width || s.win.Height() != size.Height {
		s.win.SetSize(size.Width, size.Height)
	}
	if s.rs != nil {
		s.rs.Resize(size)
	}
	return s.dev.Configure(size.Width, size.Height)
}

func (s *webgpuSurface) SetFullscreen(fullscreen bool, size common.Size2, colorDepth int) error {
	if err := s.win.SetFullscreen(fullscreen, colorDepth); err != nil {
		return err
	}
	return s.Resize(size)
}

func (s *webgpuSurface) SetSwapInterval(interval int) error {
	s.vsync = interval > 0
	return s.dev.SetVsync(s.vsync)
}

// Present shows the frame. A lost surface is reconfigured here, a lost device is reported.
func (s *webgpuSurface) Present() error {
	s.dev.Present()
	switch lost := s.dev.Lost(); {
	case errors.Is(lost, webgpu.ErrDeviceLost):
		return deviceLost(lost)
	case errors.Is(lost, webgpu.ErrSurfaceLost):
		width, height := s.dev.SurfaceSize()
		common.Logger().Warn("WebGPU surface lost, reconfiguring", "width", width, "height", height)
		return s.dev.Configure(width, height)
	}
	return nil
}

// Recover replaces the lost device. Resources are released on the old device and recreated on the
// new one.
func (s *webgpuSurface) Recover() error {
	if s.rs == nil {
		return nil
	}
	replacer, ok := s.rs.(webgpu.DeviceReplacer)
	if !ok {
		return errors.New("render system cannot replace its device")
	}
	s.rs.ReleaseAllResources()
	s.dev.Release()
	dev, err := s.newDevice()
	if err != nil {
		return fmt.Errorf("could not create a new WebGPU device: %w", err)
	}
	s.dev = dev
	replacer.ReplaceDevice(dev)
	return s.rs.RecreateAllResources()
}

func (s *webgpuSurface) CreateShared() (Surface, error) {
	return nil, ErrSharingUnsupported
}

func (s *webgpuSurface) Close() error {
	s.rs = nil
	if s.dev != nil {
		s.dev.Release()
		s.dev = nil
	}
	return s.win.Close()
}
