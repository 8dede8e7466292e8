package keyboard

import "github.com/char5742/inputreader/internal/display"

// DPAD key codes, in the platform's KEYCODE_DPAD_* numbering.
const (
	KeycodeDpadUp    int32 = 19
	KeycodeDpadDown  int32 = 20
	KeycodeDpadLeft  int32 = 21
	KeycodeDpadRight int32 = 22
)

// dpadRotationTable maps (orientation, key code) to the key code that
// should be reported instead, for devices whose DPAD is fixed to the
// device body rather than following the display. Index by orientation
// then original direction, counter-clockwise: rotating the display
// clockwise must rotate the reported direction counter-clockwise to stay
// visually consistent.
var dpadRotationTable = [4]map[int32]int32{
	display.Rotation0: {
		KeycodeDpadUp:    KeycodeDpadUp,
		KeycodeDpadRight: KeycodeDpadRight,
		KeycodeDpadDown:  KeycodeDpadDown,
		KeycodeDpadLeft:  KeycodeDpadLeft,
	},
	display.Rotation90: {
		KeycodeDpadUp:    KeycodeDpadLeft,
		KeycodeDpadRight: KeycodeDpadUp,
		KeycodeDpadDown:  KeycodeDpadRight,
		KeycodeDpadLeft:  KeycodeDpadDown,
	},
	display.Rotation180: {
		KeycodeDpadUp:    KeycodeDpadDown,
		KeycodeDpadRight: KeycodeDpadLeft,
		KeycodeDpadDown:  KeycodeDpadUp,
		KeycodeDpadLeft:  KeycodeDpadRight,
	},
	display.Rotation270: {
		KeycodeDpadUp:    KeycodeDpadRight,
		KeycodeDpadRight: KeycodeDpadDown,
		KeycodeDpadDown:  KeycodeDpadLeft,
		KeycodeDpadLeft:  KeycodeDpadUp,
	},
}

// RotateKeyCode returns the key code a DPAD-only device should report for
// keyCode under orientation, or keyCode unchanged if it is not a DPAD
// direction or the orientation is unknown.
func RotateKeyCode(keyCode int32, orientation display.Orientation) int32 {
	table := dpadRotationTable[clampOrientation(orientation)]
	if rotated, ok := table[keyCode]; ok {
		return rotated
	}
	return keyCode
}

func clampOrientation(o display.Orientation) display.Orientation {
	if o < display.Rotation0 || o > display.Rotation270 {
		return display.Rotation0
	}
	return o
}
