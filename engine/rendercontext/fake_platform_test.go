package rendercontext

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// fakeRenderSystem implements the part of renderer.RenderSystem the context calls. Other methods
// panic through the nil embedded interface.
type fakeRenderSystem struct {
	renderer.RenderSystem
	calls []string
}

func (r *fakeRenderSystem) Renderer() string { return "fake renderer" }
func (r *fakeRenderSystem) Vendor() string   { return "fake vendor" }
func (r *fakeRenderSystem) Version() string  { return "fake 1.0" }

func (r *fakeRenderSystem) Resize(size common.Size2) {
	r.calls = append(r.calls, fmt.Sprintf("Resize(%dx%d)", size.Width, size.Height))
}

func (r *fakeRenderSystem) Close() {
	r.calls = append(r.calls, "Close")
}

// fakePlatform records the attempts made and fails those listed in fail.
type fakePlatform struct {
	ext      bool
	fail     map[AttemptKind]bool
	failRS   map[AttemptKind]bool
	attempts []Attempt
	shares   []Surface
	surfaces []*fakeSurface
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{ext: true, fail: map[AttemptKind]bool{}, failRS: map[AttemptKind]bool{}}
}

func (p *fakePlatform) ExtContextAvailable() bool {
	return p.ext
}

func (p *fakePlatform) Open(cfg Config, a Attempt, share Surface) (Surface, error) {
	p.attempts = append(p.attempts, a)
	p.shares = append(p.shares, share)
	if p.fail[a.Kind] {
		return nil, fmt.Errorf("%w: %s", ErrGLCreate, a.Kind)
	}
	s := &fakeSurface{platform: p, attempt: a, size: cfg.Resolution, failRS: p.failRS[a.Kind]}
	p.surfaces = append(p.surfaces, s)
	return s, nil
}

// open returns the surfaces that were not closed.
func (p *fakePlatform) open() []*fakeSurface {
	var list []*fakeSurface
	for _, s := range p.surfaces {
		if !s.closed {
			list = append(list, s)
		}
	}
	return list
}

type fakeSurface struct {
	platform *fakePlatform
	attempt  Attempt
	size     common.Size2
	failRS   bool

	calls      []string
	rs         *fakeRenderSystem
	closed     bool
	fullscreen bool
	interval   int

	presentErr error
	recoverErr error
}

func (s *fakeSurface) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *fakeSurface) count(call string) int {
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (s *fakeSurface) Window() window.Window { return nil }

func (s *fakeSurface) MakeCurrent() error {
	s.record("MakeCurrent")
	return nil
}

func (s *fakeSurface) ReleaseCurrent() error {
	s.record("ReleaseCurrent")
	return nil
}

func (s *fakeSurface) NewRenderSystem(options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	s.record("NewRenderSystem")
	if s.failRS {
		return nil, errors.New("render system creation failed")
	}
	s.rs = &fakeRenderSystem{}
	return s.rs, nil
}

func (s *fakeSurface) Resize(size common.Size2) error {
	s.record(fmt.Sprintf("Resize(%dx%d)", size.Width, size.Height))
	s.size = size
	if s.rs != nil {
		s.rs.Resize(size)
	}
	return nil
}

func (s *fakeSurface) SetFullscreen(fullscreen bool, size common.Size2, colorDepth int) error {
	s.record(fmt.Sprintf("SetFullscreen(%t)", fullscreen))
	s.fullscreen = fullscreen
	return nil
}

func (s *fakeSurface) SetSwapInterval(interval int) error {
	s.record(fmt.Sprintf("SetSwapInterval(%d)", interval))
	s.interval = interval
	return nil
}

func (s *fakeSurface) Present() error {
	s.record("Present")
	return s.presentErr
}

func (s *fakeSurface) Recover() error {
	s.record("Recover")
	if s.recoverErr == nil {
		s.presentErr = nil
	}
	return s.recoverErr
}

func (s *fakeSurface) CreateShared() (Surface, error) {
	s.record("CreateShared")
	if s.attempt.Kind == AttemptWebGPU {
		return nil, ErrSharingUnsupported
	}
	shared := &fakeSurface{platform: s.platform, attempt: s.attempt}
	s.platform.surfaces = append(s.platform.surfaces, shared)
	return shared, nil
}

func (s *fakeSurface) Close() error {
	s.record("Close")
	s.closed = true
	return nil
}
