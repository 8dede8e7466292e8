package reader

import (
	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/rawevent"
	"github.com/char5742/inputreader/internal/touch"
)

// ConfigureExcludedDevices forwards the policy's excluded device name
// list to the event source, once, before the reader starts pulling
// events. Typically called by the daemon wiring at startup.
func (r *Reader) ConfigureExcludedDevices() {
	for _, name := range r.policy.GetExcludedDeviceNames() {
		r.source.AddExcludedDevice(name)
	}
}

// handleDeviceAdded implements §4.14: classify, configure if not
// ignored, reset, register, and notify on configuration change.
func (r *Reader) handleDeviceAdded(ev rawevent.Event) {
	if r.devices.Lookup(ev.DeviceID) != nil {
		r.log.Warnf("spurious DEVICE_ADDED for already-registered id %d", ev.DeviceID)
		return
	}

	classes, err := r.source.GetDeviceClasses(ev.DeviceID)
	if err != nil {
		r.log.Errorf("get device classes for id %d: %v", ev.DeviceID, err)
		return
	}
	name, err := r.source.GetDeviceName(ev.DeviceID)
	if err != nil {
		r.log.Errorf("get device name for id %d: %v", ev.DeviceID, err)
		name = ""
	}

	d := device.New(ev.DeviceID, classes, name)
	if !d.Ignored {
		r.configureDevice(d)
	}
	d.Reset()
	r.devices.Add(d)
	r.invalidateGlobalMetaState()

	if !d.Ignored {
		r.onConfigurationChanged(ev.When)
	}
}

// handleDeviceRemoved implements §4.14's removal half.
func (r *Reader) handleDeviceRemoved(ev rawevent.Event) {
	d := r.devices.Lookup(ev.DeviceID)
	if d == nil {
		r.log.Warnf("spurious DEVICE_REMOVED for unknown id %d", ev.DeviceID)
		return
	}
	r.devices.Remove(ev.DeviceID)
	r.invalidateGlobalMetaState()
	if !d.Ignored {
		r.onConfigurationChanged(ev.When)
	}
}

// configureDevice populates calibration, filter toggles, and virtual-key
// definitions for a freshly classified, non-ignored device.
func (r *Reader) configureDevice(d *device.Device) {
	if d.IsMultiTouchScreen() {
		r.configureAbsoluteAxisInfo(d, rawevent.AbsMTPositionX, &d.TouchScreen.Parameters.XAxis)
		r.configureAbsoluteAxisInfo(d, rawevent.AbsMTPositionY, &d.TouchScreen.Parameters.YAxis)
		r.configureAbsoluteAxisInfo(d, rawevent.AbsMTTouchMajor, &d.TouchScreen.Parameters.PressureAxis)
		r.configureAbsoluteAxisInfo(d, rawevent.AbsMTWidthMajor, &d.TouchScreen.Parameters.SizeAxis)
	} else if d.IsSingleTouchScreen() {
		r.configureAbsoluteAxisInfo(d, rawevent.AbsX, &d.TouchScreen.Parameters.XAxis)
		r.configureAbsoluteAxisInfo(d, rawevent.AbsY, &d.TouchScreen.Parameters.YAxis)
		r.configureAbsoluteAxisInfo(d, rawevent.AbsPressure, &d.TouchScreen.Parameters.PressureAxis)
		r.configureAbsoluteAxisInfo(d, rawevent.AbsToolWidth, &d.TouchScreen.Parameters.SizeAxis)
	}

	if d.IsTouchScreen() {
		d.TouchScreen.Parameters.UseBadTouchFilter = r.policy.FilterTouchEvents()
		d.TouchScreen.Parameters.UseAveragingTouchFilter = r.policy.FilterTouchEvents()
		d.TouchScreen.Parameters.UseJumpyTouchFilter = r.policy.FilterJumpyTouchEvents()

		pOrigin, pScale, sOrigin, sScale := touch.PrecalculatePressureSize(d.TouchScreen.Parameters)
		d.TouchScreen.Precalculated.PressureOrigin = pOrigin
		d.TouchScreen.Precalculated.PressureScale = pScale
		d.TouchScreen.Precalculated.SizeOrigin = sOrigin
		d.TouchScreen.Precalculated.SizeScale = sScale

		r.configureDeviceForCurrentDisplaySize(d)
		r.configureVirtualKeys(d)
	}
}

// configureDeviceForCurrentDisplaySize recalculates x/y origin and scale
// once the display size is known; called both at DEVICE_ADDED and again
// whenever the display is resized.
func (r *Reader) configureDeviceForCurrentDisplaySize(d *device.Device) {
	width, height := int32(-1), int32(-1)
	if r.displayProps.Known() {
		width, height = r.displayProps.Width, r.displayProps.Height
	}
	xOrigin, xScale, yOrigin, yScale, _ := touch.PrecalculateXY(d.TouchScreen.Parameters, width, height)
	d.TouchScreen.Precalculated.XOrigin = xOrigin
	d.TouchScreen.Precalculated.XScale = xScale
	d.TouchScreen.Precalculated.YOrigin = yOrigin
	d.TouchScreen.Precalculated.YScale = yScale
}

// configureVirtualKeys loads the policy's bezel key definitions for d's
// name, translating display-coordinate hit rectangles into raw
// touch-screen coordinates via the inverse of the x/y scale, and drops
// any key whose scan code doesn't resolve to a key code. A non-zero
// KeyCode in the definition is emitted in place of the resolved one.
func (r *Reader) configureVirtualKeys(d *device.Device) {
	defs := r.policy.GetVirtualKeyDefinitions(d.Name)
	if len(defs) == 0 {
		d.TouchScreen.VirtualKeys = nil
		return
	}

	keys := make([]device.VirtualKey, 0, len(defs))
	for _, def := range defs {
		keyCode, flags, ok := r.source.ScancodeToKeycode(d.ID, def.ScanCode)
		if !ok {
			r.log.Warnf("dropping virtual key with unresolvable scan code %d on %q", def.ScanCode, d.Name)
			continue
		}
		if def.KeyCode != 0 {
			keyCode = def.KeyCode
		}

		rawCenterX := toRaw(def.CenterX, d.TouchScreen.Precalculated.XOrigin, d.TouchScreen.Precalculated.XScale)
		rawCenterY := toRaw(def.CenterY, d.TouchScreen.Precalculated.YOrigin, d.TouchScreen.Precalculated.YScale)
		rawHalfWidth := toRawDelta(def.Width/2, d.TouchScreen.Precalculated.XScale)
		rawHalfHeight := toRawDelta(def.Height/2, d.TouchScreen.Precalculated.YScale)

		keys = append(keys, device.VirtualKey{
			ScanCode:  def.ScanCode,
			KeyCode:   keyCode,
			Flags:     flags | uint32(dispatchFlagVirtual),
			HitLeft:   rawCenterX - rawHalfWidth,
			HitRight:  rawCenterX + rawHalfWidth,
			HitTop:    rawCenterY - rawHalfHeight,
			HitBottom: rawCenterY + rawHalfHeight,
		})
	}
	d.TouchScreen.VirtualKeys = keys
}

// dispatchFlagVirtual marks a VirtualKey as coming from a bezel key
// rather than a physical one; it is stored in every VirtualKey.Flags
// built here. emitVirtualKeyEvent does not read VirtualKey.Flags: the
// emitted KeyEvent.Flags are KeyFlagFromSystem|KeyFlagVirtualHardKey.
const dispatchFlagVirtual uint32 = 1 << 4

func toRaw(displayCoord, origin int32, scale float32) int32 {
	if scale == 0 {
		return displayCoord + origin
	}
	return int32(float32(displayCoord)/scale) + origin
}

func toRawDelta(displayDelta int32, scale float32) int32 {
	if scale == 0 {
		return displayDelta
	}
	return int32(float32(displayDelta) / scale)
}

// configureAbsoluteAxisInfo queries one absolute axis for d and stores it
// into dst, leaving dst as the invalid zero value on failure.
func (r *Reader) configureAbsoluteAxisInfo(d *device.Device, axis int32, dst *device.AbsoluteAxisInfo) {
	info, err := r.source.GetAbsoluteInfo(d.ID, axis)
	if err != nil {
		r.log.Warnf("absolute axis %d unavailable on %q: %v", axis, d.Name, err)
		*dst = device.AbsoluteAxisInfo{}
		return
	}
	*dst = info
}

func (r *Reader) invalidateGlobalMetaState() {
	r.globalMetaState = unknownMetaState
}
