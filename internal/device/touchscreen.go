package device

import (
	"time"

	"github.com/char5742/inputreader/internal/bitset"
)

// Pointer is one active touch's position and size in raw touch-screen
// coordinates.
type Pointer struct {
	ID       uint32
	X        int32
	Y        int32
	Pressure int32
	Size     int32
}

// TouchData is a full touch frame: which pointers are down, where, and the
// id bookkeeping needed to find a pointer by id in O(1).
//
// Invariant: for every bit i set in IDBits, Pointers[IDToIndex[i]].ID == i
// and IDToIndex[i] < PointerCount.
type TouchData struct {
	PointerCount uint32
	Pointers     [MaxPointers]Pointer
	IDToIndex    [MaxPointerID + 1]uint32
	IDBits       bitset.Set32
}

// Clear resets the frame to empty.
func (t *TouchData) Clear() {
	t.PointerCount = 0
	t.IDBits = bitset.Set32{}
}

// CopyFrom replaces t's contents with other's.
func (t *TouchData) CopyFrom(other TouchData) {
	*t = other
}

// IndexOfID returns the pointer index for id. Callers must check IDBits first.
func (t *TouchData) IndexOfID(id uint32) uint32 {
	return t.IDToIndex[id]
}

// VirtualKeyStatus is the virtual-key state machine's current state.
type VirtualKeyStatus int

const (
	VirtualKeyUp VirtualKeyStatus = iota
	VirtualKeyDown
	VirtualKeyCanceled
)

// CurrentVirtualKeyState tracks the single in-flight virtual key press, if
// any. A touchscreen has at most one virtual key down at a time.
type CurrentVirtualKeyState struct {
	Status   VirtualKeyStatus
	KeyCode  int32
	ScanCode int32
	DownTime time.Duration
}

// VirtualKey is one bezel hit-rectangle, in raw touch-screen coordinates,
// that produces a key event instead of a touch event.
type VirtualKey struct {
	ScanCode int32
	KeyCode  int32
	Flags    uint32

	HitLeft   int32
	HitRight  int32
	HitTop    int32
	HitBottom int32
}

// Hit reports whether the raw point (x, y) falls within the key's rectangle.
func (k VirtualKey) Hit(x, y int32) bool {
	return x >= k.HitLeft && x <= k.HitRight && y >= k.HitTop && y <= k.HitBottom
}

// TouchAxisParameters is the per-axis calibration plus the filter toggles
// read from policy at configuration time.
type TouchAxisParameters struct {
	XAxis        AbsoluteAxisInfo
	YAxis        AbsoluteAxisInfo
	PressureAxis AbsoluteAxisInfo
	SizeAxis     AbsoluteAxisInfo

	UseBadTouchFilter      bool
	UseJumpyTouchFilter    bool
	UseAveragingTouchFilter bool
}

// TouchPrecalculated caches origin/scale for every mapped axis so per-event
// coordinate mapping is two multiplications.
type TouchPrecalculated struct {
	XOrigin int32
	XScale  float32
	YOrigin int32
	YScale  float32

	PressureOrigin int32
	PressureScale  float32
	SizeOrigin     int32
	SizeScale      float32
}

// TouchScreenState is the shared per-device state both single-touch and
// multi-touch paths funnel into: calibration, the virtual key list, the
// current/last touch frames, and the in-flight virtual key press.
type TouchScreenState struct {
	Parameters    TouchAxisParameters
	Precalculated TouchPrecalculated
	VirtualKeys   []VirtualKey

	CurrentTouch TouchData
	LastTouch    TouchData

	DownTime         time.Duration
	CurrentVirtualKey CurrentVirtualKeyState
}

// NewTouchScreenState returns a TouchScreenState with identity precalc
// (valid before the first successful display-size configuration).
func NewTouchScreenState() *TouchScreenState {
	return &TouchScreenState{
		Precalculated: TouchPrecalculated{XScale: 1, YScale: 1, PressureScale: 1, SizeScale: 1},
	}
}

// ResetTouches clears both touch frames and the virtual key machine,
// matching the reader's device-reset step.
func (t *TouchScreenState) ResetTouches() {
	t.CurrentTouch.Clear()
	t.LastTouch.Clear()
	t.CurrentVirtualKey = CurrentVirtualKeyState{}
}

// FindVirtualKeyHit returns the virtual key whose rectangle contains
// (x, y), or nil if none matches.
func (t *TouchScreenState) FindVirtualKeyHit(x, y int32) *VirtualKey {
	for i := range t.VirtualKeys {
		if t.VirtualKeys[i].Hit(x, y) {
			return &t.VirtualKeys[i]
		}
	}
	return nil
}
