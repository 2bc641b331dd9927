//go:build !windows

package window

// platformNativeHandle returns 0: only Direct3D presents to a native handle.
func platformNativeHandle(w *engineWindow) uintptr {
	return 0
}
