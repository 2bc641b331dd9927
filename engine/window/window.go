package window

import "github.com/cogentcore/webgpu/wgpu"

// ClientAPI selects the graphics API the window creates a context for.
type ClientAPI int

const (
	// NoAPI creates a window without a graphics context (Direct3D, WebGPU).
	NoAPI ClientAPI = iota

	// OpenGLAPI creates a desktop OpenGL context.
	OpenGLAPI

	// OpenGLESAPI creates an OpenGL ES context.
	OpenGLESAPI
)

// Profile selects the OpenGL context profile. Profiles other than ProfileAny require version 3.2
// or newer.
type Profile int

const (
	ProfileAny Profile = iota
	ProfileCompatibility
	ProfileCore
)

// ContextHints configure the graphics context created together with the window.
type ContextHints struct {
	API ClientAPI

	// Major and Minor request a context version, 0.0 leaves the choice to the driver.
	Major, Minor int
	Profile      Profile

	// Samples is the multisample count of the default framebuffer, 0 disables multisampling.
	Samples int

	// DepthBits and StencilBits size the default depth-stencil buffer.
	DepthBits   int
	StencilBits int

	// Share is a window whose context shares its objects with the new context.
	Share Window
}

// Window provides platform windowing and input event handling.
// Wraps platform-specific window implementations with a common interface.
type Window interface {
	// SetResizeCallback sets the function called when the window is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetCloseCallback sets the function called when the user closes the window.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetCloseCallback(callback func())

	// SetFocusCallback sets the function called when the window gains or loses input focus.
	//
	// Parameters:
	//   - callback: function receiving true when focus was gained
	SetFocusCallback(callback func(focused bool))

	// SetKeyDownCallback sets the callback for key press events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// NativeHandle returns the platform window handle Direct3D swap chains present to.
	//
	// Returns:
	//   - uintptr: the HWND on Windows, 0 elsewhere
	NativeHandle() uintptr

	// MakeContextCurrent binds the OpenGL context of the window to the calling thread.
	//
	// Returns:
	//   - error: an error if the window has no context
	MakeContextCurrent() error

	// DetachCurrentContext releases the context bound to the calling thread.
	DetachCurrentContext()

	// SwapBuffers presents the back buffer of the OpenGL context.
	SwapBuffers()

	// SetSwapInterval sets the number of vertical blanks SwapBuffers waits for on the current
	// context.
	//
	// Parameters:
	//   - interval: 0 disables vertical synchronisation
	SetSwapInterval(interval int)

	// SetFullscreen switches between a fullscreen video mode on the primary monitor and a window.
	//
	// Parameters:
	//   - fullscreen: true to enter fullscreen mode
	//   - colorDepth: the requested bits per pixel of the video mode, 0 keeps the current depth
	//
	// Returns:
	//   - error: an error if no monitor is available
	SetFullscreen(fullscreen bool, colorDepth int) error

	// Fullscreen reports whether the window covers a monitor in fullscreen mode.
	Fullscreen() bool

	// SetSize resizes the client area, or changes the video mode in fullscreen mode.
	//
	// Parameters:
	//   - width: the width in pixels
	//   - height: the height in pixels
	SetSize(width, height int)

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// PollEvents processes pending events once without blocking.
	//
	// Returns:
	//   - bool: false once the window was closed
	PollEvents() bool

	// Width returns the current window client area width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current window client area height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth is the maximum allowed window width during resize.
	maxWidth int

	// maxHeight is the maximum allowed window height during resize.
	maxHeight int

	// minWidth is the minimum allowed window width during resize.
	minWidth int

	// minHeight is the minimum allowed window height during resize.
	minHeight int

	// width is the current window client area width in pixels.
	width int

	// height is the current window client area height in pixels.
	height int

	// visible shows the window right after creation.
	visible bool

	// fullscreen is true while the window covers a monitor.
	fullscreen bool

	// colorDepth is the bits per pixel requested for fullscreen video modes.
	colorDepth int

	// hints configure the graphics context created with the window.
	hints ContextHints

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onResize is called when the window is resized.
	onResize func(width, height int)

	// onClose is called when the user requests the window to close.
	onClose func()

	// onFocus is called when the window gains or loses focus.
	onFocus func(focused bool)

	// onKeyDown is called when a key is pressed.
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
//   - error: an error if the platform window or its context could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "Default Window Title",
		maxWidth:  -1,
		maxHeight: -1,
		minWidth:  200,
		minHeight: 150,
		width:     1280,
		height:    720,
		visible:   true,
		hints:     ContextHints{DepthBits: 24, StencilBits: 8},
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetCloseCallback(callback func()) {
	w.onClose = callback
}

func (w *engineWindow) SetFocusCallback(callback func(focused bool)) {
	w.onFocus = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) NativeHandle() uintptr {
	return platformNativeHandle(w)
}

func (w *engineWindow) MakeContextCurrent() error {
	return platformMakeContextCurrent(w)
}

func (w *engineWindow) DetachCurrentContext() {
	platformDetachCurrentContext()
}

func (w *engineWindow) SwapBuffers() {
	platformSwapBuffers(w)
}

func (w *engineWindow) SetSwapInterval(interval int) {
	platformSwapInterval(max(interval, 0))
}

func (w *engineWindow) SetFullscreen(fullscreen bool, colorDepth int) error {
	if w.fullscreen == fullscreen {
		return nil
	}
	if colorDepth > 0 {
		w.colorDepth = colorDepth
	}
	if err := platformSetFullscreen(w, fullscreen); err != nil {
		return err
	}
	w.fullscreen = fullscreen
	return nil
}

func (w *engineWindow) Fullscreen() bool {
	return w.fullscreen
}

func (w *engineWindow) SetSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	platformSetSize(w, width, height)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
