//go:build windows

package window

import "unsafe"

// platformNativeHandle returns the HWND of the window.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.GetWin32Window
func platformNativeHandle(w *engineWindow) uintptr {
	gw, err := glfwOf(w)
	if err != nil {
		return 0
	}
	return uintptr(unsafe.Pointer(gw.window.GetWin32Window()))
}
