package common

// Key is a virtual key code. Values match GLFW key codes, which use ASCII for
// printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeyW     Key = 87 // W key (ASCII)
	KeyA     Key = 65 // A key (ASCII)
	KeyS     Key = 83 // S key (ASCII)
	KeyD     Key = 68 // D key (ASCII)
	KeyQ     Key = 81 // Q key (ASCII)
	KeyE     Key = 69 // E key (ASCII)
	KeyC     Key = 67 // C key (ASCII)
	KeyL     Key = 76 // L key (ASCII)
	KeyP     Key = 80 // P key (ASCII)
	KeyR     Key = 82 // R key (ASCII)
	KeySpace Key = 32 // Spacebar (ASCII)

	KeyEsc       Key = 256 // Escape key (GLFW)
	KeyBackspace Key = 259 // Backspace key (GLFW)
	KeyRight     Key = 262 // Right arrow (GLFW)
	KeyLeft      Key = 263 // Left arrow (GLFW)
	KeyDown      Key = 264 // Down arrow (GLFW)
	KeyUp        Key = 265 // Up arrow (GLFW)

	Key1 Key = 49 // 1 key (ASCII)
	Key2 Key = 50 // 2 key (ASCII)
	Key3 Key = 51 // 3 key (ASCII)
	Key4 Key = 52 // 4 key (ASCII)
	Key5 Key = 53 // 5 key (ASCII)
	Key6 Key = 54 // 6 key (ASCII)
	Key7 Key = 55 // 7 key (ASCII)
	Key8 Key = 56 // 8 key (ASCII)
	Key9 Key = 57 // 9 key (ASCII)
)

// Additional non-printable keys
const (
	KeyLeftShift  Key = 340 // Left Shift (GLFW)
	KeyRightShift Key = 344 // Right Shift (GLFW)
)

// DigitIndex maps Key1..Key9 to 0..8.
//
// Returns:
//   - int: the zero-based digit index
//   - bool: false if k is not a digit key from 1 to 9
func (k Key) DigitIndex() (int, bool) {
	if k < Key1 || k > Key9 {
		return 0, false
	}
	return int(k - Key1), true
}

// MouseButton identifies a mouse button. Values match GLFW button numbers.
type MouseButton int

const (
	MouseLeft   MouseButton = 0
	MouseRight  MouseButton = 1
	MouseMiddle MouseButton = 2
)
