package rendercontext

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

var (
	// ErrNoAttemptSucceeded is returned by Open when every configuration failed.
	ErrNoAttemptSucceeded = errors.New("no render context configuration succeeded")

	// ErrUnsupportedPlatform is returned for backends the platform cannot create.
	ErrUnsupportedPlatform = errors.New("render system backend is not supported on this platform")

	// ErrDeviceLost is returned by Surface.Present when the device was lost. Surface.Recover
	// returns it while the device cannot be restored yet.
	ErrDeviceLost = errors.New("render device lost")

	// ErrSharingUnsupported is returned by CreateSharedContext for backends without object sharing.
	ErrSharingUnsupported = errors.New("render context sharing is not supported by this backend")

	// ErrClosed is returned for operations that need an open context.
	ErrClosed = errors.New("render context is closed")
)

// OpenGL context errors.
var (
	ErrGLCreate     = errors.New("could not create OpenGL render context")
	ErrGLActivate   = errors.New("could not activate OpenGL render context")
	ErrGLDeactivate = errors.New("could not release OpenGL render context")
	ErrGLDelete     = errors.New("could not delete OpenGL render context")
	ErrGLShareLists = errors.New("could not share lists for OpenGL render context")
)

// Platform creates the window and the native device of one attempt.
type Platform interface {
	// ExtContextAvailable reports whether versioned OpenGL contexts can be requested. Ext profile
	// attempts are skipped when it returns false.
	ExtContextAvailable() bool

	// Open creates a window and its native device or context. A failed Open leaves nothing behind.
	//
	// Parameters:
	//   - cfg: the requested configuration
	//   - a: the attempt to make
	//   - share: the surface of the root context whose objects are shared, or nil
	//
	// Returns:
	//   - Surface: the surface
	//   - error: an error if the attempt failed
	Open(cfg Config, a Attempt, share Surface) (Surface, error)
}

// Surface is an open window with its device or context.
type Surface interface {
	// Window returns the platform window, nil for headless surfaces.
	Window() window.Window

	// MakeCurrent binds the context to the calling thread. Devices without thread affinity do
	// nothing.
	MakeCurrent() error

	// ReleaseCurrent unbinds the context from the calling thread.
	ReleaseCurrent() error

	// NewRenderSystem creates the render system drawing to this surface. The surface keeps it to
	// release and recreate resources around device resets.
	NewRenderSystem(options ...renderer.RenderSystemBuilderOption) (renderer.RenderSystem, error)

	// Resize changes the size of the window and its back buffer and informs the render system.
	Resize(size common.Size2) error

	// SetFullscreen switches between fullscreen and windowed presentation.
	SetFullscreen(fullscreen bool, size common.Size2, colorDepth int) error

	// SetSwapInterval sets the number of vertical blanks a flip waits for, 0 disables vsync.
	SetSwapInterval(interval int) error

	// Present shows the back buffer. It returns an error wrapping ErrDeviceLost when the device
	// was lost.
	Present() error

	// Recover restores a lost device and the resources of the render system. It returns an error
	// wrapping ErrDeviceLost while the device cannot be restored yet.
	Recover() error

	// CreateShared creates a hidden surface sharing the objects of this one.
	CreateShared() (Surface, error)

	// Close releases the device and the window.
	Close() error
}

// deviceLost wraps a backend device loss error.
func deviceLost(err error) error {
	return fmt.Errorf("%w: %w", ErrDeviceLost, err)
}
