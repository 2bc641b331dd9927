package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool

	// windowed is the position and size restored when leaving fullscreen mode.
	windowedX, windowedY          int
	windowedWidth, windowedHeight int
}

// glfwUsers counts the open windows. GLFW is initialized by the first and terminated with the last.
var glfwUsers int

func acquireGLFW() error {
	if glfwUsers == 0 {
		if err := glfw.Init(); err != nil {
			return fmt.Errorf("failed to initialize GLFW: %w", err)
		}
	}
	glfwUsers++
	return nil
}

func releaseGLFW() {
	glfwUsers--
	if glfwUsers == 0 {
		glfw.Terminate()
	}
}

func boolHint(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

// applyContextHints sets the window hints of the requested context.
//
// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
func applyContextHints(h ContextHints) {
	switch h.API {
	case NoAPI:
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
		return
	case OpenGLESAPI:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
	default:
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	}
	if h.Major > 0 {
		glfw.WindowHint(glfw.ContextVersionMajor, h.Major)
		glfw.WindowHint(glfw.ContextVersionMinor, h.Minor)
	}
	if h.API == OpenGLAPI {
		switch h.Profile {
		case ProfileCore:
			glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
			glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		case ProfileCompatibility:
			glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
		}
	}
	glfw.WindowHint(glfw.Samples, max(h.Samples, 0))
	glfw.WindowHint(glfw.DepthBits, h.DepthBits)
	glfw.WindowHint(glfw.StencilBits, h.StencilBits)
	glfw.WindowHint(glfw.DoubleBuffer, glfw.True)
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := acquireGLFW(); err != nil {
		return err
	}

	glfw.DefaultWindowHints()
	applyContextHints(w.hints)
	glfw.WindowHint(glfw.Visible, boolHint(w.visible))

	var share *glfw.Window
	if sw, ok := w.hints.Share.(*engineWindow); ok && sw.internalWindow != nil {
		share = sw.internalWindow.(*glfwWindow).window
	}
	var monitor *glfw.Monitor
	if w.fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		if w.colorDepth > 0 {
			glfw.WindowHint(glfw.RedBits, w.colorDepth/4)
			glfw.WindowHint(glfw.GreenBits, w.colorDepth/4)
			glfw.WindowHint(glfw.BlueBits, w.colorDepth/4)
		}
	}

	win, err := glfw.CreateWindow(w.width, w.height, w.title, monitor, share)
	if err != nil {
		releaseGLFW()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, sizeLimit(w.maxWidth), sizeLimit(w.maxHeight))

	gw := &glfwWindow{
		parent:         w,
		window:         win,
		running:        true,
		windowedWidth:  w.width,
		windowedHeight: w.height,
	}
	gw.windowedX, gw.windowedY = win.GetPos()
	w.internalWindow = gw

	// Register GLFW callbacks for input and window events.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press && w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCloseCallback
	win.SetCloseCallback(func(_ *glfw.Window) {
		gw.running = false
		if w.onClose != nil {
			w.onClose()
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFocusCallback
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if w.onFocus != nil {
			w.onFocus(focused)
		}
	})

	// Use framebuffer size callback for pixel-accurate resize events.
	// On high-DPI displays (e.g., macOS Retina), framebuffer size differs from window size.
	// The render context requires pixel dimensions for correct surface configuration.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	// Update stored dimensions to reflect actual framebuffer size (may differ from requested on high-DPI).
	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

func sizeLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

func glfwOf(w *engineWindow) (*glfwWindow, error) {
	if w.internalWindow == nil {
		return nil, errors.New("window is not initialized")
	}
	return w.internalWindow.(*glfwWindow), nil
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
// Uses the wgpuglfw bridge package which has per-platform implementations (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	gw, err := glfwOf(w)
	if err != nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func platformMakeContextCurrent(w *engineWindow) error {
	gw, err := glfwOf(w)
	if err != nil {
		return err
	}
	if w.hints.API == NoAPI {
		return errors.New("window has no OpenGL context")
	}
	gw.window.MakeContextCurrent()
	return nil
}

func platformDetachCurrentContext() {
	glfw.DetachCurrentContext()
}

func platformSwapBuffers(w *engineWindow) {
	if gw, err := glfwOf(w); err == nil {
		gw.window.SwapBuffers()
	}
}

// platformSwapInterval applies to the context current on the calling thread.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#SwapInterval
func platformSwapInterval(interval int) {
	glfw.SwapInterval(interval)
}

// platformSetFullscreen moves the window onto the primary monitor with a matching video mode, or
// restores its windowed position and size.
//
// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_monitor
func platformSetFullscreen(w *engineWindow, fullscreen bool) error {
	gw, err := glfwOf(w)
	if err != nil {
		return err
	}
	if !fullscreen {
		gw.window.SetMonitor(nil, gw.windowedX, gw.windowedY, gw.windowedWidth, gw.windowedHeight, glfw.DontCare)
		return nil
	}
	monitor := glfw.GetPrimaryMonitor()
	if monitor == nil {
		return errors.New("no monitor available for fullscreen mode")
	}
	gw.windowedX, gw.windowedY = gw.window.GetPos()
	gw.windowedWidth, gw.windowedHeight = gw.window.GetSize()
	refresh := glfw.DontCare
	if mode := monitor.GetVideoMode(); mode != nil {
		refresh = mode.RefreshRate
	}
	gw.window.SetMonitor(monitor, 0, 0, w.width, w.height, refresh)
	return nil
}

func platformSetSize(w *engineWindow, width, height int) {
	gw, err := glfwOf(w)
	if err != nil {
		return
	}
	if w.fullscreen {
		if monitor := gw.window.GetMonitor(); monitor != nil {
			gw.window.SetMonitor(monitor, 0, 0, width, height, glfw.DontCare)
			return
		}
	}
	gw.window.SetSize(width, height)
}

// platformIsRunningCheck returns whether the GLFW window is still active.
// Returns false if the internal window is nil, the running flag is cleared, or GLFW reports ShouldClose.
//
// Parameters:
//   - w: the engineWindow to check
//
// Returns:
//   - bool: true if the window is still running
func platformIsRunningCheck(w *engineWindow) bool {
	gw, err := glfwOf(w)
	if err != nil {
		return false
	}
	return gw.running && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the GLFW window and terminates GLFW with the last window.
// Returns an error if the internal window has not been initialized.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	gw, err := glfwOf(w)
	if err != nil {
		return err
	}
	gw.running = false
	if w.fullscreen {
		gw.window.SetMonitor(nil, gw.windowedX, gw.windowedY, gw.windowedWidth, gw.windowedHeight, glfw.DontCare)
		w.fullscreen = false
	}
	gw.window.Destroy()
	w.internalWindow = nil
	releaseGLFW()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
