package engine

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/loader"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/rendercontext"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderSystem records the frame calls of the render loop. Methods it does not override panic.
type fakeRenderSystem struct {
	renderer.RenderSystem
	mu       sync.Mutex
	calls    []string
	textures int
	stats    renderer.FrameStats
}

func (f *fakeRenderSystem) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRenderSystem) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeRenderSystem) Renderer() string { return "fake" }
func (f *fakeRenderSystem) Vendor() string   { return "test" }
func (f *fakeRenderSystem) Version() string  { return "1.0" }
func (f *fakeRenderSystem) BeginFrame()      { f.record("BeginFrame"); f.stats.Frames++ }
func (f *fakeRenderSystem) EndFrame()        { f.record("EndFrame") }
func (f *fakeRenderSystem) ClearBuffers(flags renderer.ClearFlags) {
	if flags == renderer.ClearAll {
		f.record("ClearAll")
	}
}
func (f *fakeRenderSystem) Stats() renderer.FrameStats { return f.stats }
func (f *fakeRenderSystem) ResetStats()                { f.record("ResetStats"); f.stats = renderer.FrameStats{} }
func (f *fakeRenderSystem) Close()                     { f.record("Close") }
func (f *fakeRenderSystem) CreateTexture(flags renderer.TextureCreationFlags) *renderer.Texture {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textures++
	return renderer.NewTexture(flags)
}
func (f *fakeRenderSystem) DeleteTexture(*renderer.Texture) {}

// fakeSurface is a headless surface.
type fakeSurface struct {
	rs         *fakeRenderSystem
	mu         sync.Mutex
	calls      []string
	presentErr error
	recoverErr error
}

func (s *fakeSurface) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSurface) has(call string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (s *fakeSurface) Window() window.Window     { return nil }
func (s *fakeSurface) MakeCurrent() error        { return nil }
func (s *fakeSurface) ReleaseCurrent() error     { return nil }
func (s *fakeSurface) Resize(common.Size2) error { return nil }
func (s *fakeSurface) NewRenderSystem(...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error) {
	return s.rs, nil
}
func (s *fakeSurface) SetFullscreen(fullscreen bool, _ common.Size2, _ int) error {
	if fullscreen {
		s.record("fullscreen")
	}
	return nil
}
func (s *fakeSurface) SetSwapInterval(interval int) error {
	if interval == 0 {
		s.record("vsync off")
	}
	return nil
}
func (s *fakeSurface) Present() error {
	s.record("Present")
	return s.presentErr
}
func (s *fakeSurface) Recover() error { return s.recoverErr }
func (s *fakeSurface) CreateShared() (rendercontext.Surface, error) {
	return nil, rendercontext.ErrSharingUnsupported
}
func (s *fakeSurface) Close() error {
	s.record("Close")
	return nil
}

type fakePlatform struct {
	surface *fakeSurface
	fail    bool
	opened  []rendercontext.Config
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{surface: &fakeSurface{rs: &fakeRenderSystem{}}}
}

func (p *fakePlatform) ExtContextAvailable() bool { return true }

func (p *fakePlatform) Open(cfg rendercontext.Config, _ rendercontext.Attempt, _ rendercontext.Surface) (rendercontext.Surface, error) {
	if p.fail {
		return nil, rendercontext.ErrGLCreate
	}
	p.opened = append(p.opened, cfg)
	return p.surface, nil
}

// quitAfter quits the engine once the render callback ran n times and returns the frame counter.
func quitAfter(e Engine, n int) *int {
	frames := 0
	e.SetRenderCallback(func(renderer.RenderSystem, float32) {
		frames++
		if frames == n {
			e.Quit()
		}
	})
	return &frames
}

func TestRunRendersFramesAndCloses(t *testing.T) {
	p := newFakePlatform()
	cfg := config.Default()
	cfg.Resolution = "320x200"
	e := NewEngine(WithConfig(cfg), WithPlatform(p))
	frames := quitAfter(e, 3)

	require.NoError(t, e.Run())
	assert.Equal(t, 3, *frames)

	rs := p.surface.rs
	assert.Equal(t, 3, rs.count("BeginFrame"))
	assert.Equal(t, 3, rs.count("ClearAll"))
	assert.Equal(t, 3, rs.count("EndFrame"))
	assert.Equal(t, 1, rs.count("Close"))
	assert.True(t, p.surface.has("Present"))
	assert.True(t, p.surface.has("Close"))

	require.Len(t, p.opened, 1)
	assert.Equal(t, common.Size2{Width: 320, Height: 200}, p.opened[0].Resolution)
	assert.Equal(t, rendercontext.StateClosed, e.Context().State())
	assert.False(t, e.Execute("help"))
}

func TestRunOpenFailure(t *testing.T) {
	p := newFakePlatform()
	p.fail = true
	e := NewEngine(WithPlatform(p))

	err := e.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, rendercontext.ErrNoAttemptSucceeded)
	assert.Equal(t, rendercontext.StateClosed, e.Context().State())
}

func TestRunReportsOptionErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("resolution = \"wide\"\n"), 0o644))

	e := NewEngine(WithConfigFile(path), WithPlatform(newFakePlatform()))
	assert.ErrorIs(t, e.Run(), config.ErrInvalidResolution)
}

func TestRunRecoversFromRenderPanic(t *testing.T) {
	p := newFakePlatform()
	e := NewEngine(WithPlatform(p))
	e.SetRenderCallback(func(renderer.RenderSystem, float32) {
		panic("boom")
	})

	err := e.Run()
	assert.ErrorIs(t, err, ErrRenderPanic)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, p.surface.rs.count("Close"))
}

func TestRunStopsWhenDeviceCannotBeRestored(t *testing.T) {
	p := newFakePlatform()
	p.surface.presentErr = rendercontext.ErrDeviceLost
	p.surface.recoverErr = errors.New("driver gone")
	e := NewEngine(WithPlatform(p))
	time.AfterFunc(5*time.Second, e.Quit)

	assert.ErrorIs(t, e.Run(), ErrContextClosed)
}

type recordingPrinter struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingPrinter) Confirm(msg string) { r.add(msg) }
func (r *recordingPrinter) Error(msg string)   { r.add("error: " + msg) }
func (r *recordingPrinter) add(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func TestConsoleCommandsRunOnRenderThread(t *testing.T) {
	p := newFakePlatform()
	printer := &recordingPrinter{}
	e := NewEngine(
		WithPlatform(p),
		WithConsolePrinter(printer),
		WithConsoleInput(strings.NewReader("vsync\nfullscreen\n")),
	)
	require.True(t, e.Execute("hardware"))
	time.AfterFunc(5*time.Second, e.Quit)
	e.SetRenderCallback(func(renderer.RenderSystem, float32) {
		if p.surface.has("fullscreen") {
			e.Quit()
		}
	})

	require.NoError(t, e.Run())
	assert.True(t, p.surface.has("vsync off"))
	assert.Contains(t, printer.messages, "fake: test")
	assert.Contains(t, printer.messages, "vertical synchronisation disabled")
	assert.Contains(t, printer.messages, "switched fullscreen mode")
}

func TestConsoleWithoutContext(t *testing.T) {
	printer := &recordingPrinter{}
	e := NewEngine(WithPlatform(newFakePlatform()), WithConsolePrinter(printer))

	require.NoError(t, e.Console().Execute("vsync"))
	assert.Equal(t, []string{"error: no active render context"}, printer.messages)
}

func TestTickCallback(t *testing.T) {
	e := NewEngine(WithPlatform(newFakePlatform()), WithTickRate(200))
	var mu sync.Mutex
	ticks := 0
	e.SetTickCallback(func(dt float32) {
		mu.Lock()
		defer mu.Unlock()
		ticks++
		if ticks == 3 {
			e.Quit()
		}
	})
	time.AfterFunc(5*time.Second, e.Quit)

	require.NoError(t, e.Run())
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, ticks, 3)
}

func TestLoaderIsBoundWhileRunning(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "tile.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	p := newFakePlatform()
	l := loader.NewLoader()
	e := NewEngine(WithPlatform(p), WithLoader(l))
	require.True(t, l.LoadAsync(path))
	time.AfterFunc(5*time.Second, e.Quit)
	e.SetRenderCallback(func(renderer.RenderSystem, float32) {
		if l.Get(path) != nil {
			e.Quit()
		}
	})

	require.NoError(t, e.Run())
	assert.Equal(t, 1, p.surface.rs.textures)
	assert.Nil(t, l.Get(path), "textures of a closed render system are dropped")
}

func TestProfilerResetsStats(t *testing.T) {
	p := newFakePlatform()
	e := NewEngine(WithPlatform(p), WithProfiling(true))
	e.(*engine).profiler = profiler.NewProfiler(profiler.WithInterval(time.Nanosecond))
	quitAfter(e, 3)

	require.NoError(t, e.Run())
	assert.Positive(t, p.surface.rs.count("ResetStats"))

	p = newFakePlatform()
	e = NewEngine(WithPlatform(p), WithProfiling(true))
	e.DisableProfiler()
	quitAfter(e, 3)
	require.NoError(t, e.Run())
	assert.Zero(t, p.surface.rs.count("ResetStats"))
}

func TestOptions(t *testing.T) {
	cfg := config.Default()
	cfg.TickRate = 30
	cfg.FrameLimit = 50
	cfg.Profiling = true
	e := NewEngine(WithConfig(cfg), WithBackend(renderer.BackendWebGPU), WithKeyBinding(common.KeyF9, ""), WithKeyBinding(common.KeyT, "textures")).(*engine)

	assert.Equal(t, renderer.BackendWebGPU, e.Config().Backend)
	assert.Equal(t, time.Second/30, e.engineTickRate)
	assert.Equal(t, time.Second/50, e.renderFrameLimit)
	assert.True(t, e.profilingEnabled.Load())
	assert.NotContains(t, e.keyBindings, uint32(common.KeyF9))
	assert.Equal(t, "textures", e.keyBindings[common.KeyT])
	assert.Equal(t, "fullscreen", e.keyBindings[common.KeyF11])

	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
	e.SetTickRate(-1)
	assert.Equal(t, time.Second/60, e.engineTickRate)
}
