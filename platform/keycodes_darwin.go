//go:build darwin

package platform

// specialKeyCode is the virtual key code of the dedicated fn/globe key.
const specialKeyCode uint16 = 0x3F

// SpecialKeyCode returns the key code of the platform's dedicated
// function-style key, or 0 when the platform has none.
func SpecialKeyCode() uint16 {
	return specialKeyCode
}

// keyCodes maps key names to macOS (ANSI layout) virtual key codes.
var keyCodes = map[string]uint16{
	"a": 0x00, "b": 0x0B, "c": 0x08, "d": 0x02, "e": 0x0E,
	"f": 0x03, "g": 0x05, "h": 0x04, "i": 0x22, "j": 0x26,
	"k": 0x28, "l": 0x25, "m": 0x2E, "n": 0x2D, "o": 0x1F,
	"p": 0x23, "q": 0x0C, "r": 0x0F, "s": 0x01, "t": 0x11,
	"u": 0x20, "v": 0x09, "w": 0x0D, "x": 0x07, "y": 0x10,
	"z": 0x06,
	"1": 0x12, "2": 0x13, "3": 0x14, "4": 0x15, "5": 0x17,
	"6": 0x16, "7": 0x1A, "8": 0x1C, "9": 0x19, "0": 0x1D,
	"f1": 0x7A, "f2": 0x78, "f3": 0x63, "f4": 0x76,
	"f5": 0x60, "f6": 0x61, "f7": 0x62, "f8": 0x64,
	"f9": 0x65, "f10": 0x6D, "f11": 0x67, "f12": 0x6F,
	"space": 0x31, "enter": 0x24, "esc": 0x35,
	"tab": 0x30, "backspace": 0x33,
}
