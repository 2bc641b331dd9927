package common

// Key codes passed to window key callbacks and engine key bindings.
// The values are the GLFW key codes: printable keys use their upper case ASCII value.
const (
	KeySpace = 32
	Key0     = 48
	Key1     = 49
	Key9     = 57
)

// Letter keys.
const (
	KeyA = 65 + iota
	KeyB
	KeyC
	KeyD
	KeyE
	KeyF
	KeyG
	KeyH
	KeyI
	KeyJ
	KeyK
	KeyL
	KeyM
	KeyN
	KeyO
	KeyP
	KeyQ
	KeyR
	KeyS
	KeyT
	KeyU
	KeyV
	KeyW
	KeyX
	KeyY
	KeyZ
)

// Editing and navigation keys.
const (
	KeyEscape = 256 + iota
	KeyEnter
	KeyTab
	KeyBackspace
)

// Function keys. F9, F10 and F11 carry the default engine bindings.
const (
	KeyF1 = 290 + iota
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)
