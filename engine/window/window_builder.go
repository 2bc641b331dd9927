package window

import "github.com/Carmen-Shannon/oxy-render/common"

// WindowBuilderOption configures a window created by NewWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the title bar text.
//
// Parameters:
//   - title: the title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the client area size, or the video mode size in fullscreen. Empty sizes keep
// the default of 1280x720.
//
// Parameters:
//   - size: the size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(size common.Size2) WindowBuilderOption {
	return func(w *engineWindow) {
		if size.Width > 0 && size.Height > 0 {
			w.width, w.height = size.Width, size.Height
		}
	}
}

// WithVisible shows the window right after creation. Hidden windows carry secondary contexts.
//
// Parameters:
//   - visible: false to create the window hidden
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithVisible(visible bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.visible = visible
	}
}

// WithFullscreen creates the window fullscreen on the primary monitor.
//
// Parameters:
//   - fullscreen: true for fullscreen mode
//   - colorDepth: requested bits per pixel of the video mode, 0 keeps the desktop depth
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithFullscreen(fullscreen bool, colorDepth int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.fullscreen = fullscreen
		w.colorDepth = colorDepth
	}
}

// WithContext sets the client API and context hints used when the window is created.
//
// Parameters:
//   - hints: the context hints
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithContext(hints ContextHints) WindowBuilderOption {
	return func(w *engineWindow) {
		w.hints = hints
	}
}
