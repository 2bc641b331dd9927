package engine

import (
	"io"
	"time"

	"github.com/Carmen-Shannon/oxy-render/engine/config"
	"github.com/Carmen-Shannon/oxy-render/engine/console"
	"github.com/Carmen-Shannon/oxy-render/engine/loader"
	"github.com/Carmen-Shannon/oxy-render/engine/rendercontext"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig sets the configuration the render context is opened with. The tick rate, frame limit
// and profiling settings of cfg are applied as well; options after WithConfig override them.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
		WithTickRate(float64(cfg.TickRate))(e)
		WithRenderFrameLimit(float64(cfg.FrameLimit))(e)
		WithProfiling(cfg.Profiling)(e)
	}
}

// WithConfigFile loads the configuration from a TOML file, creating it with the defaults if it does
// not exist. A load error is returned by Run.
//
// Parameters:
//   - path: the path of the file, "~" is expanded
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfigFile(path string) EngineBuilderOption {
	return func(e *engine) {
		cfg, err := config.LoadOrCreate(path)
		if err != nil {
			e.err = err
			return
		}
		WithConfig(cfg)(e)
	}
}

// WithBackend overrides the render system backend of the configuration.
//
// Parameters:
//   - backend: the backend
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(backend renderer.BackendType) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.Backend = backend
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// The tick callback will be called at this rate for game logic updates.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithPlatform sets the platform creating windows and devices. Defaults to the desktop platform.
//
// Parameters:
//   - p: the platform
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPlatform(p rendercontext.Platform) EngineBuilderOption {
	return func(e *engine) {
		e.platform = p
	}
}

// WithLoader sets the texture loader. Defaults to a loader using the texture settings of the
// configuration.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithConsoleInput reads console command lines from r, one per line, e.g. os.Stdin.
//
// Parameters:
//   - r: the reader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConsoleInput(r io.Reader) EngineBuilderOption {
	return func(e *engine) {
		e.input = r
	}
}

// WithConsolePrinter sets where console output goes. Defaults to the log.
//
// Parameters:
//   - p: the printer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConsolePrinter(p console.Printer) EngineBuilderOption {
	return func(e *engine) {
		e.printer = p
	}
}

// WithKeyBinding executes a console command line when a key is pressed. An empty line removes the
// binding. F9, F10 and F11 are bound to "stats", "vsync" and "fullscreen" by default.
//
// Parameters:
//   - keyCode: the key code, see the common.Key constants
//   - line: the command line
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithKeyBinding(keyCode uint32, line string) EngineBuilderOption {
	return func(e *engine) {
		if line == "" {
			delete(e.keyBindings, keyCode)
			return
		}
		e.keyBindings[keyCode] = line
	}
}
