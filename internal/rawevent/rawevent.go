// Package rawevent defines the event shape the reader consumes from its
// EventSource collaborator and the constants that classify it.
package rawevent

import (
	"time"

	"github.com/char5742/inputreader/internal/device"
)

// Type enumerates the raw event categories the reader dispatches on.
type Type uint16

const (
	DeviceAdded Type = iota
	DeviceRemoved
	Syn
	Key
	Rel
	Abs
	Switch
)

// Sub-opcodes carried in ScanCode, mirroring the evdev wire protocol.
const (
	SynReport   = 0
	SynMTReport = 2

	BtnTouch = 0x14a
	BtnMouse = 0x110

	RelX = 0x00
	RelY = 0x01

	AbsX             = 0x00
	AbsY             = 0x01
	AbsPressure      = 0x18
	AbsToolWidth     = 0x1c
	AbsMTTouchMajor  = 0x30
	AbsMTWidthMajor  = 0x32
	AbsMTPositionX   = 0x35
	AbsMTPositionY   = 0x36
	AbsMTTrackingID  = 0x39
)

// Event is one translated raw input event. When is restamped on receipt by
// the event loop driver to a monotonic timestamp; the EventSource's own
// notion of time is discarded. Name is only meaningful on DeviceAdded.
type Event struct {
	DeviceID int32
	Type     Type
	ScanCode int32
	KeyCode  int32
	Flags    uint32
	Value    int32
	When     time.Duration
	Name     string
}

// Down reports whether a key/button-shaped event represents a press.
func (e Event) Down() bool {
	return e.Value != 0
}

// EventSource is the reader's injected input collaborator: a blocking
// source of raw events plus the capability/calibration queries the
// reader needs once it learns a new device exists. Implementations are
// free to be a real evdev backend, a hotplug-aware wrapper around one, or
// a deterministic recording for tests.
type EventSource interface {
	// GetEvent blocks until the next raw event is available.
	GetEvent() (Event, error)

	// GetDeviceClasses probes deviceID's capabilities.
	GetDeviceClasses(deviceID int32) (device.Classes, error)

	// GetDeviceName returns the driver-reported name for deviceID.
	GetDeviceName(deviceID int32) (string, error)

	// GetAbsoluteInfo returns the calibration of one absolute axis.
	GetAbsoluteInfo(deviceID int32, axis int32) (device.AbsoluteAxisInfo, error)

	// ScancodeToKeycode translates a raw scan code into a platform key
	// code plus any flags (e.g. FLAG_VIRTUAL), using a static table.
	ScancodeToKeycode(deviceID int32, scanCode int32) (keyCode int32, flags uint32, ok bool)

	// AddExcludedDevice records a device name to skip entirely.
	AddExcludedDevice(name string)

	// GetScanCodeState/GetKeyCodeState/GetSwitchState report the current
	// (post-hoc, ioctl-queried) state of one scan/key/switch code,
	// restricted to deviceID if non-negative or any matching device in
	// classes otherwise. KeyStateVirtual-aware callers interpret the
	// returned value as platform KEY_STATE_* codes.
	GetScanCodeState(deviceID int32, classes device.Classes, scanCode int32) int32
	GetKeyCodeState(deviceID int32, classes device.Classes, keyCode int32) int32
	GetSwitchState(deviceID int32, classes device.Classes, sw int32) int32

	// HasKeys reports, per key code, whether any device can produce it.
	HasKeys(keyCodes []int32) []bool
}
