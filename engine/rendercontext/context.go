package rendercontext

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-render/common"
	"github.com/Carmen-Shannon/oxy-render/engine/renderer"
	"github.com/Carmen-Shannon/oxy-render/engine/window"
)

// State is the lifecycle state of a Context.
type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
	StateActive
	StateInactive
)

var stateNames = [...]string{"closed", "opening", "open", "active", "inactive"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Tracker holds the active context of the render thread and the root context whose objects later
// contexts share. It replaces a process-wide active context pointer and is handed to every context
// of the process.
type Tracker struct {
	active *Context
	root   *Context
}

// NewTracker creates a tracker without contexts.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Active returns the active context, or nil.
func (t *Tracker) Active() *Context {
	return t.active
}

// Root returns the first context opened, or nil.
func (t *Tracker) Root() *Context {
	return t.root
}

// Context is a render context: a window, its native device or context and the render system drawing
// to it. All methods must be called from the render thread.
type Context struct {
	tracker  *Tracker
	platform Platform

	state   State
	cfg     Config
	attempt Attempt
	surface Surface
	rs      renderer.RenderSystem

	// applied is the resolution the surface currently has. It differs from cfg.Resolution while a
	// resize is deferred.
	applied common.Size2

	shared []*SharedContext
}

// New creates a closed context.
//
// Parameters:
//   - tracker: the tracker shared by all contexts of the process
//   - platform: the platform creating windows and devices
//
// Returns:
//   - *Context: the context
func New(tracker *Tracker, platform Platform) *Context {
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Context{tracker: tracker, platform: platform, state: StateClosed, cfg: DefaultConfig()}
}

// State returns the lifecycle state.
func (c *Context) State() State {
	return c.state
}

// Config returns the current configuration.
func (c *Context) Config() Config {
	return c.cfg
}

// Attempt returns the attempt the context was opened with.
func (c *Context) Attempt() Attempt {
	return c.attempt
}

// RenderSystem returns the render system of an open context, nil otherwise.
func (c *Context) RenderSystem() renderer.RenderSystem {
	return c.rs
}

// Window returns the window of an open context, nil otherwise.
func (c *Context) Window() window.Window {
	if c.surface == nil {
		return nil
	}
	return c.surface.Window()
}

// Activated reports whether the context is the active context of its tracker.
func (c *Context) Activated() bool {
	return c.tracker.active == c
}

// OpenGraphicsScreen opens the context with the first attempt for cfg that succeeds and activates
// it. Failures are logged.
//
// Parameters:
//   - cfg: the requested configuration
//
// Returns:
//   - bool: true if the context was opened
func (c *Context) OpenGraphicsScreen(cfg Config) bool {
	if err := c.Open(cfg); err != nil {
		common.Logger().Error("could not open render context", "backend", cfg.Backend, "error", err)
		return false
	}
	return true
}

// Open opens the context with the first attempt for cfg that succeeds and activates it. Every
// failed attempt is torn down completely before the next one.
//
// Parameters:
//   - cfg: the requested configuration
//
// Returns:
//   - error: ErrNoAttemptSucceeded joined with the error of every attempt, or nil
func (c *Context) Open(cfg Config) error {
	if c.state != StateClosed {
		return fmt.Errorf("render context is already %s", c.state)
	}
	if !cfg.Resolution.Valid() {
		return fmt.Errorf("invalid resolution %dx%d", cfg.Resolution.Width, cfg.Resolution.Height)
	}
	c.state = StateOpening

	attempts := Attempts(cfg, c.platform.ExtContextAvailable())
	if len(attempts) == 0 {
		c.state = StateClosed
		return fmt.Errorf("%w: %s", ErrUnsupportedPlatform, cfg.Backend)
	}
	var errs []error
	for i, a := range attempts {
		err := c.tryOpen(cfg, a)
		if err == nil {
			c.attempt = a
			if c.tracker.root == nil {
				c.tracker.root = c
			}
			common.Logger().Info("render context opened",
				"attempt", a.String(),
				"renderer", c.rs.Renderer(),
				"vendor", c.rs.Vendor(),
				"version", c.rs.Version(),
			)
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", a, err))
		if i+1 < len(attempts) {
			common.Logger().Warn("render context attempt failed, falling back", "attempt", a.String(), "next", attempts[i+1].String(), "error", err)
		}
	}
	c.state = StateClosed
	c.cfg = DefaultConfig()
	return fmt.Errorf("%w: %w", ErrNoAttemptSucceeded, errors.Join(errs...))
}

// tryOpen makes one attempt. On failure nothing of the attempt is left.
func (c *Context) tryOpen(cfg Config, a Attempt) error {
	var share Surface
	if root := c.tracker.root; root != nil && root != c {
		share = root.surface
	}
	s, err := c.platform.Open(cfg, a, share)
	if err != nil {
		return err
	}
	c.surface = s
	c.cfg = cfg
	c.applied = cfg.Resolution
	c.state = StateOpen

	if err := c.activate(); err != nil {
		c.teardown()
		return err
	}
	options := append(slices.Clone(cfg.RenderSystem),
		renderer.WithScreenSize(cfg.Resolution.Width, cfg.Resolution.Height),
		renderer.WithMultiSamples(a.Samples),
	)
	rs, err := s.NewRenderSystem(options...)
	if err != nil {
		c.teardown()
		return err
	}
	c.rs = rs
	c.SetVsync(cfg.Flags.VSync.Enabled)
	return nil
}

// teardown releases the surface of a failed attempt.
func (c *Context) teardown() {
	if c.tracker.active == c {
		c.tracker.active = nil
		if err := c.surface.ReleaseCurrent(); err != nil {
			common.Logger().Debug("could not release render context", "error", err)
		}
	}
	if err := c.surface.Close(); err != nil {
		common.Logger().Debug("could not close render surface", "error", err)
	}
	c.surface = nil
	c.rs = nil
	c.state = StateOpening
}

// Activate makes the context the active context of its tracker and applies a deferred resolution.
// Activating the active context does nothing.
//
// Returns:
//   - bool: true if the context is active
func (c *Context) Activate() bool {
	if err := c.activate(); err != nil {
		common.Logger().Error("could not activate render context", "error", err)
		return false
	}
	return true
}

func (c *Context) activate() error {
	switch c.state {
	case StateOpen, StateActive, StateInactive:
	default:
		return ErrClosed
	}
	if c.tracker.active == c {
		return nil
	}
	if err := c.surface.MakeCurrent(); err != nil {
		return err
	}
	if prev := c.tracker.active; prev != nil {
		prev.state = StateInactive
	}
	c.tracker.active = c
	c.state = StateActive
	c.applyResolution()
	return nil
}

// Deactivate releases the context from the render thread.
//
// Returns:
//   - bool: true if the context was released
func (c *Context) Deactivate() bool {
	if c.surface == nil {
		return false
	}
	if c.tracker.active == c {
		c.tracker.active = nil
	}
	if c.state == StateActive {
		c.state = StateInactive
	}
	if err := c.surface.ReleaseCurrent(); err != nil {
		common.Logger().Error("could not release render context", "error", err)
		return false
	}
	return true
}

// SetResolution changes the resolution. It is applied immediately when the context is active and
// on the next activation otherwise.
//
// Parameters:
//   - size: the new resolution in pixels
//
// Returns:
//   - bool: false for an invalid size
func (c *Context) SetResolution(size common.Size2) bool {
	if !size.Valid() {
		return false
	}
	c.cfg.Resolution = size
	if c.state == StateActive {
		c.applyResolution()
	}
	return true
}

func (c *Context) applyResolution() {
	size := c.cfg.Resolution
	if c.surface == nil || size == c.applied {
		return
	}
	if err := c.surface.Resize(size); err != nil {
		common.Logger().Error("could not change resolution", "width", size.Width, "height", size.Height, "error", err)
		return
	}
	c.applied = size
}

// SetFullscreen switches between fullscreen and windowed mode.
//
// Parameters:
//   - fullscreen: true for fullscreen mode
func (c *Context) SetFullscreen(fullscreen bool) {
	if c.cfg.Fullscreen == fullscreen {
		return
	}
	if c.surface != nil {
		if err := c.surface.SetFullscreen(fullscreen, c.cfg.Resolution, c.cfg.ColorDepth); err != nil {
			common.Logger().Error("switching fullscreen mode failed", "error", err)
			return
		}
	}
	c.cfg.Fullscreen = fullscreen
}

// Fullscreen reports whether the context is in fullscreen mode.
func (c *Context) Fullscreen() bool {
	return c.cfg.Fullscreen
}

// SetVsync enables or disables vertical synchronisation. While enabled a flip waits for
// Flags.VSync.Interval vertical blanks.
//
// Parameters:
//   - enabled: true to enable vertical synchronisation
func (c *Context) SetVsync(enabled bool) {
	c.cfg.Flags.VSync.Enabled = enabled
	if c.surface == nil {
		return
	}
	interval := 0
	if enabled {
		interval = max(c.cfg.Flags.VSync.Interval, 1)
	}
	if err := c.surface.SetSwapInterval(interval); err != nil {
		common.Logger().Warn("could not change the swap interval", "interval", interval, "error", err)
	}
}

// Vsync reports whether vertical synchronisation is enabled.
func (c *Context) Vsync() bool {
	return c.cfg.Flags.VSync.Enabled
}

// FlipBuffers presents the back buffer. A lost device is recovered; while it cannot be restored the
// frame is dropped.
func (c *Context) FlipBuffers() {
	if c.surface == nil || c.state == StateOpening {
		return
	}
	err := c.surface.Present()
	if err == nil {
		return
	}
	if !errors.Is(err, ErrDeviceLost) {
		common.Logger().Debug("flip buffers failed", "error", err)
		return
	}
	c.recover()
}

// recover restores a lost device. A failure other than a device that is still lost closes the
// context.
func (c *Context) recover() {
	err := c.surface.Recover()
	switch {
	case err == nil:
		common.Logger().Info("render device restored")
	case errors.Is(err, ErrDeviceLost):
		common.Logger().Debug("render device still lost", "error", err)
	default:
		common.Logger().Error("could not restore render device", "error", err)
		c.CloseGraphicsScreen()
	}
}

// CreateSharedContext creates a hidden context sharing the objects of this one, for resource
// creation on another thread.
//
// Returns:
//   - *SharedContext: the shared context
//   - error: ErrClosed, ErrSharingUnsupported or a platform error
func (c *Context) CreateSharedContext() (*SharedContext, error) {
	if c.surface == nil || c.state == StateOpening {
		return nil, ErrClosed
	}
	s, err := c.surface.CreateShared()
	if err != nil {
		return nil, err
	}
	sc := &SharedContext{owner: c, surface: s}
	c.shared = append(c.shared, sc)
	return sc, nil
}

// DeleteSharedContext closes a shared context of this context.
//
// Parameters:
//   - sc: the shared context
func (c *Context) DeleteSharedContext(sc *SharedContext) {
	i := slices.Index(c.shared, sc)
	if i < 0 {
		return
	}
	c.shared = slices.Delete(c.shared, i, i+1)
	sc.close()
}

// SharedContexts returns the number of open shared contexts.
func (c *Context) SharedContexts() int {
	return len(c.shared)
}

// CloseGraphicsScreen closes the render system, the device and the window, leaves fullscreen mode
// and resets the configuration. Closing a closed context does nothing.
func (c *Context) CloseGraphicsScreen() {
	if c.state == StateClosed || c.surface == nil {
		return
	}
	for _, sc := range c.shared {
		sc.close()
	}
	c.shared = nil

	if c.rs != nil {
		c.rs.Close()
		c.rs = nil
	}
	if c.tracker.active == c {
		c.tracker.active = nil
		if err := c.surface.ReleaseCurrent(); err != nil {
			common.Logger().Error("could not release render context", "error", err)
		}
	}
	if c.cfg.Fullscreen {
		if err := c.surface.SetFullscreen(false, c.cfg.Resolution, c.cfg.ColorDepth); err != nil {
			common.Logger().Warn("could not leave fullscreen mode", "error", err)
		}
	}
	if err := c.surface.Close(); err != nil {
		common.Logger().Error("could not close render context", "error", err)
	}
	if c.tracker.root == c {
		c.tracker.root = nil
	}
	c.surface = nil
	c.applied = common.Size2{}
	c.attempt = Attempt{}
	c.cfg = DefaultConfig()
	c.state = StateClosed
}

// SharedContext is a hidden context in the object-sharing group of a root context. Activating it
// binds it to the calling thread without changing the active context of the tracker, which belongs
// to the render thread. Objects created through it are still destroyed through the render system
// that owns them.
type SharedContext struct {
	owner   *Context
	surface Surface
	active  bool
}

// Activate binds the shared context to the calling thread.
//
// Returns:
//   - bool: true on success
func (sc *SharedContext) Activate() bool {
	if sc.surface == nil {
		return false
	}
	if sc.active {
		return true
	}
	if err := sc.surface.MakeCurrent(); err != nil {
		common.Logger().Error("could not activate shared render context", "error", err)
		return false
	}
	sc.active = true
	return true
}

// Deactivate unbinds the shared context from the calling thread.
//
// Returns:
//   - bool: true on success
func (sc *SharedContext) Deactivate() bool {
	if sc.surface == nil {
		return false
	}
	sc.active = false
	if err := sc.surface.ReleaseCurrent(); err != nil {
		common.Logger().Error("could not release shared render context", "error", err)
		return false
	}
	return true
}

// Owner returns the context whose objects are shared.
func (sc *SharedContext) Owner() *Context {
	return sc.owner
}

func (sc *SharedContext) close() {
	if sc.surface == nil {
		return
	}
	if sc.active {
		sc.Deactivate()
	}
	if err := sc.surface.Close(); err != nil {
		common.Logger().Error("could not delete shared render context", "error", err)
	}
	sc.surface = nil
}
