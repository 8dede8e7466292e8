package device

// singleTouchField is one bit per absorbed axis in the single-touch
// accumulator. Must be consulted before reading any field: an unset bit
// means the field was not reported this frame and the prior value stands.
type singleTouchField uint32

const (
	FieldBtnTouch singleTouchField = 1 << iota
	FieldAbsX
	FieldAbsY
	FieldAbsPressure
	FieldAbsToolWidth
)

// SingleTouchAccumulator absorbs fragmented BTN_TOUCH/ABS_* events between
// SYN_REPORT markers for a non-multitouch digitizer.
type SingleTouchAccumulator struct {
	Fields       singleTouchField
	BtnTouch     bool
	AbsX         int32
	AbsY         int32
	AbsPressure  int32
	AbsToolWidth int32
}

// Dirty reports whether any field was set since the last Clear.
func (a *SingleTouchAccumulator) Dirty() bool { return a.Fields != 0 }

// Clear resets the accumulator after its data has been consumed.
func (a *SingleTouchAccumulator) Clear() { *a = SingleTouchAccumulator{} }

// SingleTouchCurrent is the digitizer's last known field values, applied
// from the accumulator on each sync and carried forward across frames
// where a field is absent.
type SingleTouchCurrent struct {
	Down     bool
	X        int32
	Y        int32
	Pressure int32
	Size     int32
}

// SingleTouchState is the full per-device state for a non-multitouch
// digitizer: the live accumulator plus the carried-forward current values.
type SingleTouchState struct {
	Accumulator SingleTouchAccumulator
	Current     SingleTouchCurrent
}
