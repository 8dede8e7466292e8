// Package policy defines the reader's pluggable policy surface: the rules
// a concrete implementation supplies for virtual keys, display queries,
// filter toggles, and the action bits returned from each interception
// point.
package policy

import "time"

// ActionBits is the bitfield a Policy's Intercept* calls return to tell
// the reader what to do beyond plain dispatch.
type ActionBits uint32

const (
	// ActionAppSwitchComing signals the reader to notify the dispatcher
	// that an application switch is about to happen before forwarding
	// this key.
	ActionAppSwitchComing ActionBits = 1 << 0
	// ActionWokeHere marks this event as having woken the device.
	ActionWokeHere ActionBits = 1 << 1
	// ActionBrightHere marks this event as having turned the screen
	// bright from a dim state.
	ActionBrightHere ActionBits = 1 << 2
	// ActionDispatch tells the reader to forward the event at all; its
	// absence means the policy consumed the event itself and the reader
	// must not notify the dispatcher.
	ActionDispatch ActionBits = 1 << 3
)

// VirtualKeyDefinition is one policy-supplied bezel key, in display
// coordinates; the reader translates it into raw touch-screen
// coordinates when it configures the device.
type VirtualKeyDefinition struct {
	ScanCode int32
	KeyCode  int32
	Flags    uint32

	CenterX int32
	CenterY int32
	Width   int32
	Height  int32
}

// Policy is the reader's injected rule set.
type Policy interface {
	// GetDisplayInfo returns the current display configuration. ok is
	// false when the policy cannot yet answer.
	GetDisplayInfo() (width, height, orientation int32, ok bool)

	// GetVirtualKeyDefinitions returns the bezel key definitions for the
	// named touch-screen device, or nil if it has none.
	GetVirtualKeyDefinitions(deviceName string) []VirtualKeyDefinition

	// GetExcludedDeviceNames returns device names to ignore entirely.
	GetExcludedDeviceNames() []string

	// FilterTouchEvents gates both the bad-touch filter and the
	// averaging filter, matching the production policy where one flag
	// covers both. FilterJumpyTouchEvents gates the jumpy-touch filter
	// independently.
	FilterTouchEvents() bool
	FilterJumpyTouchEvents() bool

	// InterceptKey is consulted for every physical and virtual key
	// transition before the reader builds a KeyEvent.
	InterceptKey(when time.Duration, deviceID int32, down bool, keyCode, scanCode int32, flags uint32) ActionBits

	// InterceptTouch is consulted once per touch-screen sync frame.
	InterceptTouch(when time.Duration) ActionBits

	// InterceptSwitch is consulted for SW_* switch transitions.
	InterceptSwitch(when time.Duration, code, value int32) ActionBits

	// InterceptTrackball is consulted once per trackball sync frame.
	InterceptTrackball(when time.Duration, downChanged, down, deltaChanged bool) ActionBits

	// VirtualKeyDownFeedback lets the policy trigger haptic/visual
	// feedback when a virtual key goes down; the reader calls it and
	// otherwise ignores what the policy does with it.
	VirtualKeyDownFeedback()
}
