//go:build windows

package rendercontext

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/d3d11"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer/d3d9"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// d3dWindow creates the window Direct3D presents to.
func d3dWindow(cfg Config) (window.Window, uintptr, error) {
	// the swap chain owns fullscreen mode, the window starts windowed
	windowed := cfg
	windowed.Fullscreen = false
	win, err := window.NewWindow(windowOptions(windowed, window.ContextHints{API: window.NoAPI})...)
	if err != nil {
		return nil, 0, err
	}
	hwnd := win.NativeHandle()
	if hwnd == 0 {
		_ = win.Close()
		return nil, 0, errors.New("window has no native handle")
	}
	return win, hwnd, nil
}

type d3d9Surface struct {
	win     window.Window
	dev     *d3d9.NativeDevice
	options d3d9.PresentOptions
	rs      renderer.RenderSystem
}

func openD3D9(cfg Config, a Attempt) (Surface, error) {
	win, hwnd, err := d3dWindow(cfg)
	if err != nil {
		return nil, err
	}
	options := d3d9.PresentOptions{
		Window:                   hwnd,
		Size:                     cfg.Resolution,
		Fullscreen:               cfg.Fullscreen,
		VSync:                    cfg.Flags.VSync.Enabled,
		Stencil:                  true,
		MultiSamples:             a.Samples,
		SoftwareVertexProcessing: a.Kind == AttemptD3D9Software,
	}
	dev, err := d3d9.OpenDevice(options)
	if err != nil {
		_ = win.Close()
		return nil, err
	}
	return &d3d9Surface{win: win, dev: dev, options: options}, nil
}

func (s *d3d9Surface) Window() window.Window {
	return s.win
}

func (s *d3d9Surface) MakeCurrent() error {
	return nil
}

func (s *d3d9Surface) ReleaseCurrent() error {
	return nil
}

func (s *d3d9Surface) NewRenderSystem(options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	rs, err := d3d9.NewRenderSystem(s.dev, options...)
	if err != nil {
		return nil, err
	}
	s.rs = rs
	return rs, nil
}

// reset resets the device with the current options. Default pool resources are released before
// and recreated after the reset.
func (s *d3d9Surface) reset() error {
	if s.rs != nil {
		s.rs.ReleaseAllResources()
	}
	if err := s.dev.Reset(s.options); err != nil {
		if errors.Is(err, d3d9.ErrDeviceLost) {
			return deviceLost(err)
		}
		return err
	}
	if s.rs == nil {
		return nil
	}
	s.rs.Resize(s.options.Size)
	return s.rs.RecreateAllResources()
}

func (s *d3d9Surface) Resize(size common.Size2) error {
	if s.win.Width() != size.Width || s.win.Height() != size.Height {
		s.win.SetSize(size.Width, size.Height)
	}
	s.options.Size = size
	return s.reset()
}

func (s *d3d9Surface) SetFullscreen(fullscreen bool, size common.Size2, colorDepth int) error {
	s.options.Fullscreen = fullscreen
	s.options.Size = size
	return s.reset()
}

func (s *d3d9Surface) SetSwapInterval(interval int) error {
	if s.options.VSync == (interval > 0) {
		return nil
	}
	s.options.VSync = interval > 0
	return s.reset()
}

func (s *d3d9Surface) Present() error {
	if err := s.dev.Present(); err != nil {
		if errors.Is(err, d3d9.ErrDeviceLost) {
			return deviceLost(err)
		}
		return err
	}
	return nil
}

// Recover resets the device once the driver allows it.
func (s *d3d9Surface) Recover() error {
	switch err := s.dev.TestCooperativeLevel(); {
	case err == nil:
		return nil
	case errors.Is(err, d3d9.ErrDeviceNotReset):
		return s.reset()
	case errors.Is(err, d3d9.ErrDeviceLost):
		return deviceLost(err)
	default:
		return err
	}
}

func (s *d3d9Surface) CreateShared() (Surface, error) {
	return nil, ErrSharingUnsupported
}

func (s *d3d9Surface) Close() error {
	s.rs = nil
	s.dev.Close()
	return s.win.Close()
}

type d3d11Surface struct {
	win     window.Window
	dev     *d3d11.NativeDevice
	options d3d11.PresentOptions
	rs      renderer.RenderSystem
}

func openD3D11(cfg Config, a Attempt) (Surface, error) {
	win, hwnd, err := d3dWindow(cfg)
	if err != nil {
		return nil, err
	}
	options := d3d11.PresentOptions{
		Window:       hwnd,
		Size:         cfg.Resolution,
		Fullscreen:   cfg.Fullscreen,
		FeatureLevel: a.FeatureLevel,
		MultiSamples: a.Samples,
	}
	if cfg.Flags.VSync.Enabled {
		options.SwapInterval = max(cfg.Flags.VSync.Interval, 1)
	}
	dev, err := d3d11.OpenDevice(options)
	if err != nil {
		_ = win.Close()
		return nil, err
	}
	return &d3d11Surface{win: win, dev: dev, options: options}, nil
}

func (s *d3d11Surface) Window() window.Window {
	return s.win
}

func (s *d3d11Surface) MakeCurrent() error {
	return nil
}

func (s *d3d11Surface) ReleaseCurrent() error {
	return nil
}

func (s *d3d11Surface) NewRenderSystem(options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	rs, err := d3d11.NewRenderSystem(s.dev, options...)
	if err != nil {
		return nil, err
	}
	s.rs = rs
	return rs, nil
}

// Resize resizes the swap chain before the render system picks up its new views.
func (s *d3d11Surface) Resize(size common.Size2) error {
	if s.win.Width() != size.Width || s.win.Height() != size.Height {
		s.win.SetSize(size.Width, size.Height)
	}
	if err := s.dev.Resize(size); err != nil {
		return err
	}
	s.options.Size = size
	if s.rs != nil {
		s.rs.Resize(size)
	}
	return nil
}

func (s *d3d11Surface) SetFullscreen(fullscreen bool, size common.Size2, colorDepth int) error {
	if err := s.dev.SetFullscreen(fullscreen); err != nil {
		return err
	}
	s.options.Fullscreen = fullscreen
	return s.Resize(size)
}

func (s *d3d11Surface) SetSwapInterval(interval int) error {
	s.options.SwapInterval = interval
	s.dev.SetSwapInterval(interval)
	return nil
}

func (s *d3d11Surface) Present() error {
	if err := s.dev.Present(); err != nil {
		if errors.Is(err, d3d11.ErrDeviceLost) {
			return deviceLost(err)
		}
		return err
	}
	return nil
}

// Recover replaces the removed device with a new one of the same feature level.
func (s *d3d11Surface) Recover() error {
	if s.rs == nil {
		return nil
	}
	replacer, ok := s.rs.(d3d11.DeviceReplacer)
	if !ok {
		return errors.New("render system cannot replace its device")
	}
	s.rs.ReleaseAllResources()
	s.dev.Close()
	dev, err := d3d11.OpenDevice(s.options)
	if err != nil {
		return fmt.Errorf("could not create a new Direct3D 11 device: %w", err)
	}
	s.dev = dev
	replacer.ReplaceDevice(dev)
	return s.rs.RecreateAllResources()
}

func (s *d3d11Surface) CreateShared() (Surface, error) {
	return nil, ErrSharingUnsupported
}

func (s *d3d11Surface) Close() error {
	s.rs = nil
	s.dev.Close()
	return s.win.Close()
}
