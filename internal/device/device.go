// Package device holds the per-device state the reader accumulates:
// immutable classification, calibration, and the scratch accumulators that
// absorb fragmented raw events between sync markers.
package device

const (
	MaxPointers  = 10
	MaxPointerID = 31
)

// Classes is a bitfield describing what kinds of input a device produces.
// A device carries exactly the substate matching its class bits; absent
// substate is inert and never touched by the reader.
type Classes uint32

const (
	ClassKeyboard Classes = 1 << iota
	ClassAlphaKey
	ClassTouchscreen
	ClassMultiTouch
	ClassTrackball
	ClassDPad
)

func (c Classes) Has(bit Classes) bool { return c&bit != 0 }

// AbsoluteAxisInfo describes the calibration of one absolute axis as
// reported by the driver. It is invalid when the driver reports no range.
type AbsoluteAxisInfo struct {
	Valid bool
	Min   int32
	Max   int32
	Flat  int32
	Fuzz  int32
	Range int32
}

// NewAbsoluteAxisInfo builds a valid AbsoluteAxisInfo, computing Range, or
// an invalid one when min == max (no usable range).
func NewAbsoluteAxisInfo(min, max, flat, fuzz int32) AbsoluteAxisInfo {
	rng := max - min
	if rng == 0 {
		return AbsoluteAxisInfo{}
	}
	return AbsoluteAxisInfo{Valid: true, Min: min, Max: max, Flat: flat, Fuzz: fuzz, Range: rng}
}

// Device is identified by DeviceID and carries immutable classification
// plus whatever mutable substate its Classes call for. It is owned
// exclusively by the reader thread; no aliasing reference escapes it.
type Device struct {
	ID      int32
	Classes Classes
	Name    string
	Ignored bool

	Keyboard     *KeyboardState
	Trackball    *TrackballState
	SingleTouch  *SingleTouchState
	MultiTouch   *MultiTouchState
	TouchScreen  *TouchScreenState
}

// IsKeyboard reports whether this device produces key events.
func (d *Device) IsKeyboard() bool { return d.Classes.Has(ClassKeyboard) }

// IsTrackball reports whether this device produces trackball motion.
func (d *Device) IsTrackball() bool { return d.Classes.Has(ClassTrackball) }

// IsSingleTouchScreen reports whether this device is a non-multitouch digitizer.
func (d *Device) IsSingleTouchScreen() bool {
	return d.Classes.Has(ClassTouchscreen) && !d.Classes.Has(ClassMultiTouch)
}

// IsMultiTouchScreen reports whether this device is a multitouch digitizer.
func (d *Device) IsMultiTouchScreen() bool {
	return d.Classes.Has(ClassTouchscreen) && d.Classes.Has(ClassMultiTouch)
}

// IsTouchScreen reports whether this device is any kind of digitizer.
func (d *Device) IsTouchScreen() bool { return d.Classes.Has(ClassTouchscreen) }

// New constructs a Device and allocates the substate its Classes require.
// TouchScreenState is allocated for any touchscreen (single or multi) since
// it holds the shared dispatch/virtual-key machinery both paths feed into.
func New(id int32, classes Classes, name string) *Device {
	d := &Device{ID: id, Classes: classes, Name: name}
	if classes == 0 {
		d.Ignored = true
		return d
	}
	if classes.Has(ClassKeyboard) {
		d.Keyboard = &KeyboardState{}
	}
	if classes.Has(ClassTrackball) {
		d.Trackball = NewTrackballState()
	}
	if classes.Has(ClassTouchscreen) {
		d.TouchScreen = NewTouchScreenState()
		if classes.Has(ClassMultiTouch) {
			d.MultiTouch = &MultiTouchState{}
		} else {
			d.SingleTouch = &SingleTouchState{}
		}
	}
	return d
}

// Reset clears per-frame state on device (re)configuration, matching the
// reader's "reset devices on add" step.
func (d *Device) Reset() {
	if d.Keyboard != nil {
		*d.Keyboard = KeyboardState{}
	}
	if d.Trackball != nil {
		d.Trackball.Current = TrackballCurrent{}
		d.Trackball.Accumulator = TrackballAccumulator{}
	}
	if d.SingleTouch != nil {
		*d.SingleTouch = SingleTouchState{}
	}
	if d.MultiTouch != nil {
		*d.MultiTouch = MultiTouchState{}
	}
	if d.TouchScreen != nil {
		d.TouchScreen.ResetTouches()
	}
}
