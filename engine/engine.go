package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/console"
	"github.com/Carmen-Shannon/oxy-render/engine/loader"
	"github.com/Carmen-Shannon/oxy-render/engine/profiler"
	"github.com/Carmen-Shannon/oxy-render/engine/rendercontext"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

var (
	// ErrRenderPanic is returned by Run when the render loop panicked.
	ErrRenderPanic = errors.New("render loop panicked")

	// ErrContextClosed is returned by Run when the render context was closed while running, e.g.
	// after a device that could not be restored.
	ErrContextClosed = errors.New("render context closed while running")
)

// backgroundFrameTime is the minimum frame duration while the window has no input focus.
const backgroundFrameTime = time.Second / 10

// engine implements the Engine interface.
// Coordinates the render thread, the tick goroutine and console input.
type engine struct {
	cfg config.Config
	err error // deferred option error, returned by Run

	platform rendercontext.Platform
	tracker  *rendercontext.Tracker
	ctx      *rendercontext.Context
	console  *console.Console
	printer  console.Printer
	loader   loader.Loader

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	commands        chan string
	input           io.Reader
	keyBindings     map[uint32]string

	running atomic.Bool
	focused atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(rs renderer.RenderSystem, deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine opens a render context from a configuration and drives it.
// The render loop runs on the goroutine calling Run, which is locked to its OS thread and owns the
// active render context. Game logic ticks run on their own goroutine.
type Engine interface {
	// Config returns the configuration the render context is opened with.
	//
	// Returns:
	//   - config.Config: the configuration
	Config() config.Config

	// Context returns the render context. It is closed before Run and after Run returned.
	//
	// Returns:
	//   - *rendercontext.Context: the render context
	Context() *rendercontext.Context

	// Console returns the console command lines are executed with.
	//
	// Returns:
	//   - *console.Console: the console
	Console() *console.Console

	// Loader returns the texture loader bound to the render system while running.
	//
	// Returns:
	//   - loader.Loader: the loader
	Loader() loader.Loader

	// Execute queues a console command line for the render thread.
	// Safe to call from any goroutine.
	//
	// Parameters:
	//   - line: the command line
	//
	// Returns:
	//   - bool: false if the engine quit or the queue is full
	Execute(line string) bool

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Must be called before Run.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame between BeginFrame and
	// EndFrame, after the buffers were cleared. Must be called before Run.
	//
	// Parameters:
	//   - callback: function receiving the render system and the delta time in seconds
	SetRenderCallback(callback func(rs renderer.RenderSystem, deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default). Must be called before Run.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run opens the render context and runs the render loop until the window closes or Quit is
	// called. The context is closed when Run returns.
	//
	// Returns:
	//   - error: an option or open error, ErrRenderPanic or ErrContextClosed
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Without options it uses config.Default() and the desktop platform.
//
// Parameters:
//   - options: functional options for engine configuration (config, backend, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		commands:        make(chan string, 32),
		quitChannel:     make(chan struct{}),
		keyBindings: map[uint32]string{
			common.KeyF9:  "stats",
			common.KeyF10: "vsync",
			common.KeyF11: "fullscreen",
		},
		profiler:       profiler.NewProfiler(),
		engineTickRate: time.Second / 60,
	}
	WithConfig(config.Default())(e)

	for _, opt := range options {
		opt(e)
	}

	if e.platform == nil {
		e.platform = rendercontext.NewDesktopPlatform()
	}
	e.tracker = rendercontext.NewTracker()
	e.ctx = rendercontext.New(e.tracker, e.platform)
	e.console = console.New(e.activeContext, e.printer)
	if e.loader == nil {
		sampler, _ := e.cfg.Sampler()
		e.loader = loader.NewLoader(loader.WithSampler(sampler), loader.WithMipMaps(e.cfg.Textures.MipMaps))
	}
	return e
}

// activeContext returns the active context as a console.RenderContext. A nil *Context must not
// become a non-nil interface.
func (e *engine) activeContext() console.RenderContext {
	if c := e.tracker.Active(); c != nil {
		return c
	}
	return nil
}

func (e *engine) Config() config.Config {
	return e.cfg
}

func (e *engine) Context() *rendercontext.Context {
	return e.ctx
}

func (e *engine) Console() *console.Console {
	return e.console
}

func (e *engine) Loader() loader.Loader {
	return e.loader
}

func (e *engine) Execute(line string) bool {
	select {
	case <-e.quitChannel:
		return false
	default:
	}
	select {
	case e.commands <- line:
		return true
	default:
		common.Logger().Warn("console queue is full, dropping command", "command", line)
		return false
	}
}

func (e *engine) Run() error {
	if e.err != nil {
		return e.err
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := e.open(); err != nil {
		return err
	}
	e.running.Store(true)
	e.focused.Store(true)

	e.wg.Add(1)
	go e.handleEngine()
	if e.input != nil {
		// not tracked by the WaitGroup: a blocked read cannot be interrupted
		go e.handleInput()
	}

	err := e.handleRender()
	e.signalQuit()
	e.wg.Wait()
	e.running.Store(false)
	e.close()
	return err
}

// open opens the render context and binds the window callbacks, the loader and the console to it.
func (e *engine) open() error {
	cfg := e.cfg.ContextConfig()
	if err := e.ctx.Open(cfg); err != nil {
		return fmt.Errorf("failed to open render context: %w", err)
	}
	rs := e.ctx.RenderSystem()
	e.loader.SetRenderSystem(rs)

	if w := e.ctx.Window(); w != nil {
		w.SetResizeCallback(func(width, height int) {
			e.ctx.SetResolution(common.Size2{Width: width, Height: height})
		})
		w.SetCloseCallback(e.signalQuit)
		w.SetFocusCallback(e.focused.Store)
		w.SetKeyDownCallback(func(keyCode uint32) {
			if line, ok := e.keyBindings[keyCode]; ok {
				e.Execute(line)
			}
		})
	}

	common.Logger().Info("render context opened",
		"backend", cfg.Backend,
		"attempt", e.ctx.Attempt(),
		"renderer", rs.Renderer(),
		"vendor", rs.Vendor(),
		"version", rs.Version(),
	)
	return nil
}

// close detaches the loader and closes the render context.
func (e *engine) close() {
	e.loader.SetRenderSystem(nil)
	e.ctx.CloseGraphicsScreen()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleInput reads command lines from the console input and queues them for the render thread.
func (e *engine) handleInput() {
	scanner := bufio.NewScanner(e.input)
	for scanner.Scan() {
		select {
		case <-e.quitChannel:
			return
		case e.commands <- scanner.Text():
		}
	}
	if err := scanner.Err(); err != nil {
		common.Logger().Error("console input failed", "error", err)
	}
}

// handleRender runs the uncapped (or frame-limited) render loop on the calling thread.
// Each frame polls window events, executes queued console commands, creates the textures the
// loader decoded, then renders and presents.
// Recovers from panics to avoid crashing the process and reports them as ErrRenderPanic.
func (e *engine) handleRender() (err error) {
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render loop recovered from panic", "panic", r)
			err = fmt.Errorf("%w: %v", ErrRenderPanic, r)
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return nil
		default:
		}

		if w := e.ctx.Window(); w != nil && !w.PollEvents() {
			return nil
		}
		e.executeCommands()
		if e.ctx.State() == rendercontext.StateClosed {
			return ErrContextClosed
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		e.renderFrame(dt)

		// Frame rate limiting
		limit := e.renderFrameLimit
		if !e.focused.Load() {
			limit = max(limit, backgroundFrameTime)
		}
		if limit > 0 {
			elapsed := time.Since(lastRender)
			if remaining := limit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// executeCommands runs the queued console commands. The console reports failures itself.
func (e *engine) executeCommands() {
	for {
		select {
		case line := <-e.commands:
			if err := e.console.Execute(line); err != nil {
				common.Logger().Debug("console command failed", "command", line, "error", err)
			}
		default:
			return
		}
	}
}

func (e *engine) renderFrame(dt float32) {
	rs := e.ctx.RenderSystem()
	if rs == nil {
		return
	}
	for _, r := range e.loader.Poll() {
		if r.Err != nil {
			common.Logger().Warn("could not load texture", "path", r.Path, "error", r.Err)
		}
	}

	rs.BeginFrame()
	rs.ClearBuffers(renderer.ClearAll)
	if e.renderCallback != nil {
		e.renderCallback(rs, dt)
	}
	rs.EndFrame()
	e.ctx.FlipBuffers()

	if e.profilingEnabled.Load() && e.profiler != nil {
		if rs := e.ctx.RenderSystem(); rs != nil {
			e.profiler.Tick(rs)
		} else {
			e.profiler.Tick(nil)
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(rs renderer.RenderSystem, deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
