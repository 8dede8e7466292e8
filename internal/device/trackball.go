package device

import "time"

// trackballField is one bit per absorbed axis/button in the trackball
// accumulator.
type trackballField uint32

const (
	FieldBtnMouse trackballField = 1 << iota
	FieldRelX
	FieldRelY
)

// DeltaFields are the motion axes as opposed to the button.
const DeltaFields = FieldRelX | FieldRelY

// TrackballAccumulator absorbs fragmented BTN_MOUSE/REL_* events between
// SYN_REPORT markers.
type TrackballAccumulator struct {
	Fields   trackballField
	BtnMouse bool
	RelX     int32
	RelY     int32
}

// Dirty reports whether any field was set since the last Clear.
func (a *TrackballAccumulator) Dirty() bool { return a.Fields != 0 }

// Clear resets the accumulator after its data has been consumed.
func (a *TrackballAccumulator) Clear() { *a = TrackballAccumulator{} }

// TrackballCurrent is the trackball's carried-forward button state.
type TrackballCurrent struct {
	Down     bool
	DownTime time.Duration
}

// TrackballPrecalculated caches the fixed scale/precision derived once at
// configuration time from the movement threshold constant.
type TrackballPrecalculated struct {
	XScale     float32
	YScale     float32
	XPrecision float32
	YPrecision float32
}

// TrackballState is the full per-device state for a trackball.
type TrackballState struct {
	Accumulator   TrackballAccumulator
	Current       TrackballCurrent
	Precalculated TrackballPrecalculated
}

// MovementThreshold is the amount a trackball needs to move to generate a
// key event in the legacy navigation model; here it also sets the scale
// used to turn raw relative motion into display-space motion.
const MovementThreshold = 6

// NewTrackballState builds a TrackballState with the fixed precalculated
// scale/precision every trackball uses.
func NewTrackballState() *TrackballState {
	return &TrackballState{
		Precalculated: TrackballPrecalculated{
			XScale:     1.0 / MovementThreshold,
			YScale:     1.0 / MovementThreshold,
			XPrecision: MovementThreshold,
			YPrecision: MovementThreshold,
		},
	}
}
