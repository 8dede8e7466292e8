package reader

import (
	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
	"github.com/char5742/inputreader/internal/keyboard"
	"github.com/char5742/inputreader/internal/rawevent"
)

// handleKey absorbs one KEY event into its device's keyboard state (if
// any) and, for keyboards, runs the full meta-state + rotation + policy
// + dispatch path of §4.10 immediately — keyboards have no accumulator
// to wait on a sync for, unlike touch/trackball axes.
func (r *Reader) handleKey(ev rawevent.Event) {
	d := r.devices.LookupNonIgnored(ev.DeviceID)
	if d == nil {
		return
	}
	if r.handleKeyAsButton(d, ev) {
		return
	}
	if d.Keyboard == nil {
		return
	}
	r.onKey(d, ev)
}

// onKey implements §4.10 in full: meta-state update, DPAD rotation,
// policy interception, and conditional dispatch.
func (r *Reader) onKey(d *device.Device, ev rawevent.Event) {
	if !r.refreshDisplayProperties() {
		return
	}

	down := ev.Down()

	old := d.Keyboard.Current.MetaState
	next := keyboard.UpdateMetaState(ev.KeyCode, down, old)
	if next != old {
		d.Keyboard.Current.MetaState = next
		r.invalidateGlobalMetaState()
	}
	if down {
		d.Keyboard.Current.DownTime = ev.When
	}

	keyCode := keyboard.RotateKeyCode(ev.KeyCode, r.displayProps.Orientation)

	actions := r.policy.InterceptKey(ev.When, d.ID, down, keyCode, ev.ScanCode, ev.Flags)
	policyFlags, eventFlags, shouldDispatch := r.applyStandardInputDispatchPolicyActions(ev.When, actions, ev.Flags, dispatch.KeyFlagFromSystem)
	if !shouldDispatch {
		return
	}

	action := dispatch.KeyActionUp
	if down {
		action = dispatch.KeyActionDown
	}

	r.dispatcher.NotifyKey(dispatch.KeyEvent{
		When:        ev.When,
		DeviceID:    d.ID,
		Nature:      dispatch.NatureKey,
		PolicyFlags: policyFlags,
		Action:      action,
		Flags:       eventFlags,
		KeyCode:     keyCode,
		ScanCode:    ev.ScanCode,
		MetaState:   d.Keyboard.Current.MetaState,
		DownTime:    d.Keyboard.Current.DownTime,
	})
}

// globalMeta returns the lazily-aggregated global meta-state, recomputing
// it from every keyboard device when the cache has been invalidated.
func (r *Reader) globalMeta() int32 {
	if r.globalMetaState != unknownMetaState {
		return r.globalMetaState
	}
	var agg int32
	for _, d := range r.devices.All() {
		if d.Keyboard != nil {
			agg |= d.Keyboard.Current.MetaState
		}
	}
	r.globalMetaState = agg
	return agg
}
