// Package keyboard implements the pure keyboard-side helpers: meta-state
// bookkeeping and the DPAD key-code rotation table used when a device has
// no independent orientation sensor and must track the display instead.
package keyboard

// Meta-state bits, matching the platform's KeyEvent.META_* constants this
// reader must stay bit-compatible with.
const (
	MetaAltLeftOn  int32 = 1 << 4
	MetaAltRightOn int32 = 1 << 5
	MetaAltOn      int32 = 1 << 1

	MetaShiftLeftOn  int32 = 1 << 6
	MetaShiftRightOn int32 = 1 << 7
	MetaShiftOn      int32 = 1 << 0

	MetaSymOn int32 = 1 << 2
)

// keyMetaBit maps one modifier key code to the left/right meta bit it
// contributes, or 0 for keys that carry no meta-state.
var keyMetaBit = map[int32]int32{
	codeAltLeft:    MetaAltLeftOn,
	codeAltRight:   MetaAltRightOn,
	codeShiftLeft:  MetaShiftLeftOn,
	codeShiftRight: MetaShiftRightOn,
	codeSym:        MetaSymOn,
}

// Linux input key codes for the modifier keys this reader tracks directly.
// Named locally rather than imported from a device-specific package since
// meta-state tracking is keycode-space logic, not device-space.
const (
	codeAltLeft    int32 = 56
	codeAltRight   int32 = 100
	codeShiftLeft  int32 = 42
	codeShiftRight int32 = 54
	codeSym        int32 = 150
)

// UpdateMetaState folds one key transition into old, producing the new
// meta-state. Summary bits (ALT_ON, SHIFT_ON) are derived, never stored
// independently, so left+right always agree with the summary.
func UpdateMetaState(keyCode int32, down bool, old int32) int32 {
	bit, tracked := keyMetaBit[keyCode]
	if !tracked {
		return old
	}

	next := old
	if down {
		next |= bit
	} else {
		next &^= bit
	}

	next = setSummary(next, MetaAltLeftOn, MetaAltRightOn, MetaAltOn)
	next = setSummary(next, MetaShiftLeftOn, MetaShiftRightOn, MetaShiftOn)
	return next
}

func setSummary(state int32, left, right, summary int32) int32 {
	if state&(left|right) != 0 {
		return state | summary
	}
	return state &^ summary
}
