package reader

import (
	"time"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
	"github.com/char5742/inputreader/internal/rawevent"
	"github.com/char5742/inputreader/internal/touch"
)

// handleRelativeMotion absorbs one REL event into the device's trackball
// accumulator, per §4.2. Events on a device with no trackball substate
// are ignored.
func (r *Reader) handleRelativeMotion(ev rawevent.Event) {
	d := r.devices.LookupNonIgnored(ev.DeviceID)
	if d == nil || d.Trackball == nil {
		return
	}

	switch ev.ScanCode {
	case rawevent.RelX:
		d.Trackball.Accumulator.RelX = ev.Value
		d.Trackball.Accumulator.Fields |= device.FieldRelX
	case rawevent.RelY:
		d.Trackball.Accumulator.RelY = ev.Value
		d.Trackball.Accumulator.Fields |= device.FieldRelY
	}
}

// onTrackballStateChanged implements the trackball half of §4.9: map the
// accumulated relative motion into display space and dispatch one motion
// notification with a single pointer at id 0.
func (r *Reader) onTrackballStateChanged(d *device.Device, when time.Duration) {
	acc := d.Trackball.Accumulator

	downChanged := false
	if acc.Fields&device.FieldBtnMouse != 0 && acc.BtnMouse != d.Trackball.Current.Down {
		downChanged = true
		d.Trackball.Current.Down = acc.BtnMouse
		if acc.BtnMouse {
			d.Trackball.Current.DownTime = when
		}
	}
	deltaChanged := acc.Fields&device.DeltaFields != 0

	if !r.refreshDisplayProperties() {
		return
	}

	actions := r.policy.InterceptTrackball(when, downChanged, d.Trackball.Current.Down, deltaChanged)
	policyFlags, _, shouldDispatch := r.applyStandardInputDispatchPolicyActions(when, actions, 0, 0)
	if !shouldDispatch {
		return
	}

	var relX, relY int32
	if acc.Fields&device.FieldRelX != 0 {
		relX = acc.RelX
	}
	if acc.Fields&device.FieldRelY != 0 {
		relY = acc.RelY
	}
	coords := touch.MapTrackballDelta(relX, relY, d.Trackball.Precalculated, r.displayProps.Orientation)

	action := dispatch.MotionActionMove
	switch {
	case downChanged && d.Trackball.Current.Down:
		action = dispatch.MotionActionDown
	case downChanged && !d.Trackball.Current.Down:
		action = dispatch.MotionActionUp
	}

	r.dispatcher.NotifyMotion(dispatch.MotionEvent{
		When:        when,
		DeviceID:    d.ID,
		Nature:      dispatch.NatureTrackball,
		PolicyFlags: policyFlags,
		Action:      action,
		MetaState:   r.globalMeta(),
		PointerIDs:  []int32{0},
		Pointers:    []dispatch.PointerCoords{coords},
		XPrecision:  d.Trackball.Precalculated.XPrecision,
		YPrecision:  d.Trackball.Precalculated.YPrecision,
		DownTime:    d.Trackball.Current.DownTime,
	})
}
