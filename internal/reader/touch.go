package reader

import (
	"time"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
	"github.com/char5742/inputreader/internal/rawevent"
	"github.com/char5742/inputreader/internal/touch"
)

// handleAbsoluteMotion absorbs one ABS event into the matching
// accumulator, per §4.2. Events on a device with no touch substate are
// ignored.
func (r *Reader) handleAbsoluteMotion(ev rawevent.Event) {
	d := r.devices.LookupNonIgnored(ev.DeviceID)
	if d == nil {
		return
	}

	switch {
	case d.SingleTouch != nil:
		absorbSingleTouchField(&d.SingleTouch.Accumulator, ev.ScanCode, ev.Value)
	case d.MultiTouch != nil:
		slot := d.MultiTouch.Accumulator.PointerCount
		absorbMultiTouchField(&d.MultiTouch.Accumulator.Pointers[slot], ev.ScanCode, ev.Value)
	}
}

func absorbSingleTouchField(acc *device.SingleTouchAccumulator, scanCode int32, value int32) {
	switch scanCode {
	case rawevent.AbsX:
		acc.AbsX = value
		acc.Fields |= device.FieldAbsX
	case rawevent.AbsY:
		acc.AbsY = value
		acc.Fields |= device.FieldAbsY
	case rawevent.AbsPressure:
		acc.AbsPressure = value
		acc.Fields |= device.FieldAbsPressure
	case rawevent.AbsToolWidth:
		acc.AbsToolWidth = value
		acc.Fields |= device.FieldAbsToolWidth
	}
}

func absorbMultiTouchField(acc *device.MultiTouchPointerAccumulator, scanCode int32, value int32) {
	switch scanCode {
	case rawevent.AbsMTPositionX:
		acc.AbsMTPositionX = value
		acc.Fields |= device.FieldAbsMTPositionX
	case rawevent.AbsMTPositionY:
		acc.AbsMTPositionY = value
		acc.Fields |= device.FieldAbsMTPositionY
	case rawevent.AbsMTTouchMajor:
		acc.AbsMTTouchMajor = value
		acc.Fields |= device.FieldAbsMTTouchMajor
	case rawevent.AbsMTWidthMajor:
		acc.AbsMTWidthMajor = value
		acc.Fields |= device.FieldAbsMTWidthMajor
	case rawevent.AbsMTTrackingID:
		acc.AbsMTTrackingID = value
		acc.Fields |= device.FieldAbsMTTrackingID
	}
}

// handleSync implements the two sync markers of §4.2: SYN_MT_REPORT
// advances the multitouch pointer slot; SYN_REPORT flushes every dirty
// accumulator on the device through its state-changed handler.
func (r *Reader) handleSync(ev rawevent.Event) {
	d := r.devices.LookupNonIgnored(ev.DeviceID)
	if d == nil {
		return
	}

	switch ev.ScanCode {
	case rawevent.SynMTReport:
		if d.MultiTouch != nil {
			if overflow := d.MultiTouch.Accumulator.AdvanceSlot(); overflow {
				r.log.Warnf("multitouch pointer overflow on device %d", d.ID)
			}
		}
	case rawevent.SynReport:
		if d.SingleTouch != nil && d.SingleTouch.Accumulator.Dirty() {
			r.onSingleTouchScreenStateChanged(d, ev.When)
			d.SingleTouch.Accumulator.Clear()
		}
		if d.MultiTouch != nil && d.MultiTouch.Accumulator.Dirty() {
			r.onMultiTouchScreenStateChanged(d, ev.When)
			d.MultiTouch.Accumulator.Clear()
		}
		if d.Trackball != nil && d.Trackball.Accumulator.Dirty() {
			r.onTrackballStateChanged(d, ev.When)
			d.Trackball.Accumulator.Clear()
		}
	}
}

// handleKeyAsButton diverts BTN_TOUCH/BTN_MOUSE key events away from the
// keyboard path into the matching touch/trackball accumulator, since
// evdev reports them as EV_KEY even though they belong to a different
// device substate.
func (r *Reader) handleKeyAsButton(d *device.Device, ev rawevent.Event) bool {
	switch {
	case ev.ScanCode == rawevent.BtnTouch && d.SingleTouch != nil:
		d.SingleTouch.Accumulator.BtnTouch = ev.Down()
		d.SingleTouch.Accumulator.Fields |= device.FieldBtnTouch
		return true
	case ev.ScanCode == rawevent.BtnMouse && d.Trackball != nil:
		d.Trackball.Accumulator.BtnMouse = ev.Down()
		d.Trackball.Accumulator.Fields |= device.FieldBtnMouse
		return true
	}
	return false
}

// onSingleTouchScreenStateChanged implements §4.4.
func (r *Reader) onSingleTouchScreenStateChanged(d *device.Device, when time.Duration) {
	acc := &d.SingleTouch.Accumulator
	cur := &d.SingleTouch.Current

	if acc.Fields&device.FieldBtnTouch != 0 {
		cur.Down = acc.BtnTouch
	}
	if acc.Fields&device.FieldAbsX != 0 {
		cur.X = acc.AbsX
	}
	if acc.Fields&device.FieldAbsY != 0 {
		cur.Y = acc.AbsY
	}
	if acc.Fields&device.FieldAbsPressure != 0 {
		cur.Pressure = acc.AbsPressure
	}
	if acc.Fields&device.FieldAbsToolWidth != 0 {
		cur.Size = acc.AbsToolWidth
	}

	var current device.TouchData
	if cur.Down {
		current.PointerCount = 1
		current.Pointers[0] = device.Pointer{ID: 0, X: cur.X, Y: cur.Y, Pressure: cur.Pressure, Size: cur.Size}
		current.IDToIndex[0] = 0
		current.IDBits.MarkBit(0)
	}

	r.onTouchScreenChanged(d, when, &current, true)
}

// onMultiTouchScreenStateChanged implements §4.3.
func (r *Reader) onMultiTouchScreenStateChanged(d *device.Device, when time.Duration) {
	acc := &d.MultiTouch.Accumulator

	var current device.TouchData
	havePointerIDs := true
	anyMissingID := false

	for i := uint32(0); i < acc.PointerCount; i++ {
		p := acc.Pointers[i]
		if p.Fields&device.RequiredMultiTouchFields != device.RequiredMultiTouchFields {
			r.log.Debugf("dropping multitouch pointer slot %d on device %d: missing required field", i, d.ID)
			continue
		}
		if p.AbsMTTouchMajor <= 0 {
			continue
		}

		idx := current.PointerCount
		current.Pointers[idx] = device.Pointer{
			X:        p.AbsMTPositionX,
			Y:        p.AbsMTPositionY,
			Pressure: p.AbsMTTouchMajor,
			Size:     p.AbsMTWidthMajor,
		}

		if p.Fields&device.FieldAbsMTTrackingID == 0 || p.AbsMTTrackingID > device.MaxPointerID {
			anyMissingID = true
		} else {
			current.Pointers[idx].ID = uint32(p.AbsMTTrackingID)
		}
		current.PointerCount++
	}

	if anyMissingID {
		havePointerIDs = false
	} else {
		for i := uint32(0); i < current.PointerCount; i++ {
			id := current.Pointers[i].ID
			current.IDToIndex[id] = i
			current.IDBits.MarkBit(id)
		}
	}

	r.onTouchScreenChanged(d, when, &current, havePointerIDs)
}

// onTouchScreenChanged implements the fixed preprocessing pipeline of
// §4.5, then either consumes the frame as a virtual key or dispatches it
// as touch motion.
func (r *Reader) onTouchScreenChanged(d *device.Device, when time.Duration, current *device.TouchData, havePointerIDs bool) {
	if !r.refreshDisplayProperties() {
		d.TouchScreen.LastTouch.Clear()
		return
	}

	actions := r.policy.InterceptTouch(when)
	policyFlags, _, shouldDispatch := r.applyStandardInputDispatchPolicyActions(when, actions, 0, 0)
	if !shouldDispatch {
		d.TouchScreen.LastTouch.Clear()
		return
	}

	params := d.TouchScreen.Parameters

	if params.UseBadTouchFilter {
		before := current.IDBits
		touch.ApplyBadTouchFilter(&d.TouchScreen.LastTouch, current)
		if !current.IDBits.Equal(before) {
			havePointerIDs = false
		}
	}
	if params.UseJumpyTouchFilter {
		before := current.IDBits
		touch.ApplyJumpyTouchFilter(&d.TouchScreen.LastTouch, current)
		if !current.IDBits.Equal(before) {
			havePointerIDs = false
		}
	}

	if !havePointerIDs {
		r.identifier.AssignIDs(&d.TouchScreen.LastTouch, current)
	}

	saved := *current
	if params.UseAveragingTouchFilter {
		touch.ApplyAveragingTouchFilter(&d.TouchScreen.LastTouch, current)
	}

	if !r.consumeVirtualKeyTouches(d, when, current, policyFlags) {
		r.dispatchTouches(d, when, current, policyFlags)
	}

	d.TouchScreen.LastTouch = saved
	r.updateExportedVirtualKeyState()
}

// consumeVirtualKeyTouches implements the virtual-key state machine of
// §4.7. It returns true when the frame was consumed by the machine and
// must not also be handed to the touch dispatch orchestrator.
func (r *Reader) consumeVirtualKeyTouches(d *device.Device, when time.Duration, current *device.TouchData, policyFlags uint32) bool {
	vk := &d.TouchScreen.CurrentVirtualKey
	count := current.PointerCount
	lastCount := d.TouchScreen.LastTouch.PointerCount

	var hit *device.VirtualKey
	if count == 1 {
		p := current.Pointers[0]
		hit = d.TouchScreen.FindVirtualKeyHit(p.X, p.Y)
	}

	switch vk.Status {
	case device.VirtualKeyUp:
		if count == 1 && lastCount == 0 && hit != nil {
			r.emitVirtualKeyEvent(d, when, *hit, true, false, policyFlags)
			*vk = device.CurrentVirtualKeyState{Status: device.VirtualKeyDown, KeyCode: hit.KeyCode, ScanCode: hit.ScanCode, DownTime: when}
			r.policy.VirtualKeyDownFeedback()
			return true
		}
		return false

	case device.VirtualKeyDown:
		switch {
		case count == 0:
			r.emitVirtualKeyEvent(d, when, device.VirtualKey{KeyCode: vk.KeyCode, ScanCode: vk.ScanCode}, false, false, policyFlags)
			vk.Status = device.VirtualKeyUp
			return true
		case count == 1 && hit != nil && hit.KeyCode == vk.KeyCode && hit.ScanCode == vk.ScanCode:
			return true
		default:
			r.emitVirtualKeyEvent(d, when, device.VirtualKey{KeyCode: vk.KeyCode, ScanCode: vk.ScanCode}, false, true, policyFlags)
			vk.Status = device.VirtualKeyCanceled
			return true
		}

	case device.VirtualKeyCanceled:
		if count == 0 {
			vk.Status = device.VirtualKeyUp
		}
		return true
	}
	return false
}

// emitVirtualKeyEvent sends one virtual-key KEY_DOWN/KEY_UP through the
// same policy interception and action handling physical keys use.
func (r *Reader) emitVirtualKeyEvent(d *device.Device, when time.Duration, key device.VirtualKey, down bool, canceled bool, policyFlags uint32) {
	actions := r.policy.InterceptKey(when, d.ID, down, key.KeyCode, key.ScanCode, uint32(policyFlags))
	outPolicyFlags, eventFlags, shouldDispatch := r.applyStandardInputDispatchPolicyActions(when, actions, policyFlags, dispatch.KeyFlagFromSystem|dispatch.KeyFlagVirtualHardKey)
	if !shouldDispatch {
		return
	}
	if canceled {
		eventFlags |= dispatch.KeyFlagCanceled
	}

	action := dispatch.KeyActionUp
	if down {
		action = dispatch.KeyActionDown
	}

	r.dispatcher.NotifyKey(dispatch.KeyEvent{
		When:        when,
		DeviceID:    d.ID,
		Nature:      dispatch.NatureKey,
		PolicyFlags: outPolicyFlags,
		Action:      action,
		Flags:       eventFlags,
		KeyCode:     key.KeyCode,
		ScanCode:    key.ScanCode,
		MetaState:   r.globalMeta(),
		DownTime:    d.TouchScreen.CurrentVirtualKey.DownTime,
	})
}

// dispatchTouches implements §4.8/§4.9: plan the ups-before-downs steps
// from the id-set diff, then map and emit each one.
func (r *Reader) dispatchTouches(d *device.Device, when time.Duration, current *device.TouchData, policyFlags uint32) {
	steps := touch.PlanSteps(&d.TouchScreen.LastTouch, current)
	for _, step := range steps {
		if touch.IsDown(step.Action) {
			d.TouchScreen.DownTime = when
		}
		r.dispatchTouch(d, when, current, step, policyFlags)
	}
}

// dispatchTouch maps one planned step's active pointers into display
// space and emits the motion notification.
func (r *Reader) dispatchTouch(d *device.Device, when time.Duration, current *device.TouchData, step touch.Step, policyFlags uint32) {
	source := current
	if step.Source == touch.SourceLast {
		source = &d.TouchScreen.LastTouch
	}

	orientedWidth, orientedHeight := r.displayProps.OrientedSize()

	var ids []int32
	var coords []dispatch.PointerCoords
	active := step.ActiveIDs
	for !active.IsEmpty() {
		id := active.FirstMarkedBit()
		active.ClearBit(id)
		p := source.Pointers[source.IndexOfID(id)]
		c := touch.MapPoint(p, d.TouchScreen.Precalculated, r.displayProps.Orientation, r.displayProps.Width, r.displayProps.Height)
		ids = append(ids, int32(id))
		coords = append(coords, c)
	}

	var edgeFlags int32
	if step.Action == dispatch.MotionActionDown && len(coords) > 0 {
		edgeFlags = touch.EdgeFlags(coords[0], orientedWidth, orientedHeight)
	}

	r.dispatcher.NotifyMotion(dispatch.MotionEvent{
		When:        when,
		DeviceID:    d.ID,
		Nature:      dispatch.NatureTouch,
		PolicyFlags: policyFlags,
		Action:      step.Action,
		MetaState:   r.globalMeta(),
		EdgeFlags:   edgeFlags,
		PointerIDs:  ids,
		Pointers:    coords,
		DownTime:    d.TouchScreen.DownTime,
	})
}
