package device

import "time"

// KeyboardCurrent is a keyboard's live modifier/timing state.
type KeyboardCurrent struct {
	MetaState int32
	DownTime  time.Duration
}

// KeyboardState is the full per-device state for a keyboard.
type KeyboardState struct {
	Current KeyboardCurrent
}
