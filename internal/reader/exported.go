package reader

import (
	"sync"

	"github.com/char5742/inputreader/internal/device"
)

// Touchscreen/Keyboard/Navigation classify what kind of hardware an
// InputConfiguration reports, mirroring the platform's own enumeration.
type Touchscreen int32
type KeyboardKind int32
type Navigation int32

const (
	TouchscreenNotSupported Touchscreen = 0
	TouchscreenFinger       Touchscreen = 1

	KeyboardNoKeys KeyboardKind = 0
	KeyboardQwerty KeyboardKind = 1

	NavigationNoNav    Navigation = 0
	NavigationDPad     Navigation = 1
	NavigationTrackball Navigation = 2
)

// KeyStateVirtual is the distinct "key state" code surfaced when a query
// matches the currently-down virtual key rather than a physical key.
const KeyStateVirtual int32 = -2

// InputConfiguration is the aggregate hardware shape derived from every
// registered device's classes, rebuilt on every configuration change.
type InputConfiguration struct {
	Touchscreen Touchscreen
	Keyboard    KeyboardKind
	Navigation  Navigation
}

// exportedState is the mirror of §4.15/§5: everything external pollers
// may read while the reader thread writes it, guarded by one mutex.
type exportedState struct {
	mu sync.Mutex

	virtualKeyCode  int32
	virtualScanCode int32
	configuration   InputConfiguration
}

func newExportedState() exportedState {
	return exportedState{virtualKeyCode: -1, virtualScanCode: -1}
}

// updateExportedVirtualKeyState scans every touch-screen device for a
// currently-DOWN virtual key and republishes its code/scan-code, or -1
// if none is down.
func (r *Reader) updateExportedVirtualKeyState() {
	code, scan := int32(-1), int32(-1)
	for _, d := range r.devices.All() {
		if d.TouchScreen == nil {
			continue
		}
		vk := d.TouchScreen.CurrentVirtualKey
		if vk.Status == device.VirtualKeyDown {
			code, scan = vk.KeyCode, vk.ScanCode
			break
		}
	}

	r.exported.mu.Lock()
	r.exported.virtualKeyCode = code
	r.exported.virtualScanCode = scan
	r.exported.mu.Unlock()
}

func (r *Reader) updateExportedInputConfiguration(cfg InputConfiguration) {
	r.exported.mu.Lock()
	r.exported.configuration = cfg
	r.exported.mu.Unlock()
}

// GetCurrentVirtualKey returns the exported virtual key/scan code
// snapshot. Safe to call from any goroutine.
func (r *Reader) GetCurrentVirtualKey() (keyCode, scanCode int32) {
	r.exported.mu.Lock()
	defer r.exported.mu.Unlock()
	return r.exported.virtualKeyCode, r.exported.virtualScanCode
}

// GetCurrentInputConfiguration returns the exported configuration
// snapshot. Safe to call from any goroutine.
func (r *Reader) GetCurrentInputConfiguration() InputConfiguration {
	r.exported.mu.Lock()
	defer r.exported.mu.Unlock()
	return r.exported.configuration
}

// GetCurrentScanCodeState reports whether scanCode is currently down on
// deviceID (or any matching device if deviceID < 0), consulting the
// event source's own ioctl-backed query. Safe to call from any goroutine
// that does not also drive LoopOnce, matching the source's guarantee
// that GetScanCodeState is itself synchronous and side-effect free.
func (r *Reader) GetCurrentScanCodeState(deviceID int32, scanCode int32) int32 {
	return r.source.GetScanCodeState(deviceID, 0, scanCode)
}

// GetCurrentKeyCodeState reports the state of keyCode, substituting
// KeyStateVirtual when keyCode matches the currently-down virtual key.
func (r *Reader) GetCurrentKeyCodeState(deviceID int32, keyCode int32) int32 {
	if vkCode, _ := r.GetCurrentVirtualKey(); vkCode == keyCode {
		return KeyStateVirtual
	}
	return r.source.GetKeyCodeState(deviceID, 0, keyCode)
}

// GetCurrentSwitchState reports the current state of a switch code.
func (r *Reader) GetCurrentSwitchState(deviceID int32, switchCode int32) int32 {
	return r.source.GetSwitchState(deviceID, 0, switchCode)
}

// HasKeys reports, per key code, whether any known device can produce
// it.
func (r *Reader) HasKeys(keyCodes []int32) []bool {
	return r.source.HasKeys(keyCodes)
}
