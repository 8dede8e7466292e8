package reader

import (
	"time"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/display"
)

// refreshDisplayProperties implements §4.13: every handler that emits
// events into display space calls this first. On policy failure it
// resets to unknown and the caller must skip the event.
func (r *Reader) refreshDisplayProperties() bool {
	width, height, orientation, ok := r.policy.GetDisplayInfo()
	if !ok {
		r.displayProps = display.Unknown()
		return false
	}

	prevWidth, prevHeight := r.displayProps.Width, r.displayProps.Height

	r.displayProps.Width = width
	r.displayProps.Height = height
	r.displayProps.Orientation = display.Orientation(orientation)

	if width != prevWidth || height != prevHeight {
		for _, d := range r.devices.All() {
			if d.IsTouchScreen() {
				r.configureDeviceForCurrentDisplaySize(d)
			}
		}
	}

	return true
}

// onConfigurationChanged rebuilds the exported InputConfiguration from
// every registered device's classes and notifies the dispatcher,
// implementing §4.15's configuration-change half.
func (r *Reader) onConfigurationChanged(when time.Duration) {
	cfg := InputConfiguration{}
	for _, d := range r.devices.All() {
		if d.Ignored {
			continue
		}
		if d.Classes.Has(device.ClassTouchscreen) {
			cfg.Touchscreen = TouchscreenFinger
		}
		if d.Classes.Has(device.ClassAlphaKey) {
			cfg.Keyboard = KeyboardQwerty
		}
		if d.Classes.Has(device.ClassTrackball) {
			cfg.Navigation = NavigationTrackball
		} else if d.Classes.Has(device.ClassDPad) {
			cfg.Navigation = NavigationDPad
		}
	}
	r.updateExportedInputConfiguration(cfg)
	r.dispatcher.NotifyConfigurationChanged(when)
}
