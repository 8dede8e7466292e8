// Package uinputdispatch implements dispatch.Dispatcher by replaying
// every notification onto a pair of kernel uinput virtual devices: one
// keyboard, one multitouch touchscreen.
package uinputdispatch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
	"github.com/char5742/inputreader/internal/logger"
)

// UIInput ioctl request codes and limits, carried over from the
// teacher's consts.device block (uinput.h).
const (
	maxNameSize = 80
	devCreate   = 0x5501
	devDestroy  = 0x5502
	setEvBit    = 0x40045564
	setKeyBit   = 0x40045565
	setRelBit   = 0x40045566
	setAbsBit   = 0x40045567
	setPropBit  = 0x4004556a
	busVirtual  = 0x06

	absSize = 64

	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	btnTouch = 0x14a

	absMTSlot       = 0x2f
	absMTPositionX  = 0x35
	absMTPositionY  = 0x36
	absMTTrackingID = 0x39
	absMTTouchMajor = 0x30
	absMTPressure   = 0x3a

	propPointer = 0x00
)

// inputID and userDev mirror struct input_id / uinput_user_dev.
type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type userDev struct {
	Name       [maxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [absSize]int32
	Absmin     [absSize]int32
	Absfuzz    [absSize]int32
	Absflat    [absSize]int32
}

type wireEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const wireEventSize = 24

// Dispatcher owns one virtual keyboard device and one virtual
// multitouch touchscreen device, created at construction time, and
// implements dispatch.Dispatcher by replaying notifications onto them.
type Dispatcher struct {
	log *logger.Logger

	mu sync.Mutex

	keyboard *os.File
	touch    *os.File

	slotOfID map[int32]int
	nextSlot int
}

// New opens uinputPath (typically /dev/uinput) twice and registers one
// full-range keyboard device and one multitouch touchscreen device sized
// width x height, matching the display the reader maps coordinates into.
func New(uinputPath string, width, height int32) (*Dispatcher, error) {
	kb, err := createKeyboardDevice(uinputPath)
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}
	ts, err := createTouchDevice(uinputPath, width, height)
	if err != nil {
		_ = releaseDevice(kb)
		_ = kb.Close()
		return nil, fmt.Errorf("create virtual touchscreen: %w", err)
	}
	return &Dispatcher{
		log:      logger.New("uinputdispatch"),
		keyboard: kb,
		touch:    ts,
		slotOfID: map[int32]int{},
	}, nil
}

// Close destroys both virtual devices.
func (d *Dispatcher) Close() error {
	_ = releaseDevice(d.keyboard)
	_ = releaseDevice(d.touch)
	err1 := d.keyboard.Close()
	err2 := d.touch.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// NotifyKey replays one key transition onto the virtual keyboard device.
func (d *Dispatcher) NotifyKey(ev dispatch.KeyEvent) {
	value := int32(0)
	if ev.Action == dispatch.KeyActionDown {
		value = 1
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := writeEvents(d.keyboard, []wireEvent{
		{Type: evKey, Code: uint16(ev.KeyCode), Value: value},
		{Type: evSyn, Code: synReport, Value: 0},
	}); err != nil {
		d.log.Warnf("write key event: %v", err)
	}
}

// NotifyMotion replays one motion notification onto the virtual
// touchscreen device, mapping each reader pointer id to a stable MT
// slot for the lifetime of that pointer.
func (d *Dispatcher) NotifyMotion(ev dispatch.MotionEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []wireEvent
	action := ev.Action &^ (0xff << dispatch.PointerIndexShift)
	switch action {
	case dispatch.MotionActionUp:
		for _, id := range ev.PointerIDs {
			events = append(events, d.liftEvents(id)...)
		}
	case dispatch.MotionActionPointerUp:
		upID := ev.Action >> dispatch.PointerIndexShift
		events = append(events, d.liftEvents(upID)...)
	default:
		for i, id := range ev.PointerIDs {
			if i >= len(ev.Pointers) {
				break
			}
			events = append(events, d.touchEvents(id, ev.Pointers[i])...)
		}
	}
	events = append(events, wireEvent{Type: evSyn, Code: synReport, Value: 0})

	if err := writeEvents(d.touch, events); err != nil {
		d.log.Warnf("write motion event: %v", err)
	}
}

func (d *Dispatcher) slotFor(id int32) int {
	if slot, ok := d.slotOfID[id]; ok {
		return slot
	}
	slot := d.nextSlot
	d.nextSlot = (d.nextSlot + 1) % device.MaxPointers
	d.slotOfID[id] = slot
	return slot
}

func (d *Dispatcher) touchEvents(id int32, c dispatch.PointerCoords) []wireEvent {
	_, isNew := d.slotOfID[id]
	slot := d.slotFor(id)
	events := []wireEvent{
		{Type: evAbs, Code: absMTSlot, Value: int32(slot)},
	}
	if !isNew {
		events = append(events, wireEvent{Type: evAbs, Code: absMTTrackingID, Value: id})
	}
	events = append(events,
		wireEvent{Type: evAbs, Code: absMTPositionX, Value: int32(c.X)},
		wireEvent{Type: evAbs, Code: absMTPositionY, Value: int32(c.Y)},
		wireEvent{Type: evAbs, Code: absMTTouchMajor, Value: int32(c.Size)},
		wireEvent{Type: evAbs, Code: absMTPressure, Value: int32(c.Pressure * 255)},
		wireEvent{Type: evKey, Code: btnTouch, Value: 1},
	)
	return events
}

func (d *Dispatcher) liftEvents(id int32) []wireEvent {
	slot, ok := d.slotOfID[id]
	if !ok {
		return nil
	}
	delete(d.slotOfID, id)
	events := []wireEvent{
		{Type: evAbs, Code: absMTSlot, Value: int32(slot)},
		{Type: evAbs, Code: absMTTrackingID, Value: -1},
	}
	if len(d.slotOfID) == 0 {
		events = append(events, wireEvent{Type: evKey, Code: btnTouch, Value: 0})
	}
	return events
}

// NotifyAppSwitchComing has no uinput representation; an application
// switch is not an input event, so this is a no-op.
func (d *Dispatcher) NotifyAppSwitchComing(when time.Duration) {}

// NotifyConfigurationChanged has no uinput representation either.
func (d *Dispatcher) NotifyConfigurationChanged(when time.Duration) {}

func createKeyboardDevice(path string) (*os.File, error) {
	f, err := createDeviceFile(path)
	if err != nil {
		return nil, err
	}
	if err := registerBit(f, setEvBit, evKey); err != nil {
		_ = f.Close()
		return nil, err
	}
	// Registers key codes 1 (KEY_ESC) through 0xff; higher codes are not
	// registered on the virtual keyboard.
	for code := 1; code <= 0xff; code++ {
		if err := registerBit(f, setKeyBit, code); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	dev := userDev{
		Name: toUinputName("inputreader-keyboard"),
		ID:   inputID{Bustype: busVirtual, Vendor: 0x4711, Product: 0x0818, Version: 1},
	}
	return createUinputDevice(f, dev)
}

func createTouchDevice(path string, width, height int32) (*os.File, error) {
	f, err := createDeviceFile(path)
	if err != nil {
		return nil, err
	}
	if err := registerBit(f, setEvBit, evKey); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := registerBit(f, setKeyBit, btnTouch); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := registerBit(f, setEvBit, evAbs); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := registerBit(f, setPropBit, propPointer); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, axis := range []int{absMTSlot, absMTPositionX, absMTPositionY, absMTTrackingID, absMTTouchMajor, absMTPressure} {
		if err := registerBit(f, setAbsBit, axis); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	var absMin, absMax [absSize]int32
	absMin[absMTSlot], absMax[absMTSlot] = 0, int32(device.MaxPointers-1)
	absMin[absMTPositionX], absMax[absMTPositionX] = 0, width
	absMin[absMTPositionY], absMax[absMTPositionY] = 0, height
	absMin[absMTTrackingID], absMax[absMTTrackingID] = -1, device.MaxPointerID
	absMin[absMTTouchMajor], absMax[absMTTouchMajor] = 0, 255
	absMin[absMTPressure], absMax[absMTPressure] = 0, 255

	dev := userDev{
		Name:   toUinputName("inputreader-touchscreen"),
		ID:     inputID{Bustype: busVirtual, Vendor: 0x4711, Product: 0x0819, Version: 1},
		Absmin: absMin,
		Absmax: absMax,
	}
	return createUinputDevice(f, dev)
}

func createDeviceFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func registerBit(f *os.File, req uintptr, bit int) error {
	if err := ioctlInt(f, req, bit); err != nil {
		return fmt.Errorf("ioctl %#x bit %d: %w", req, bit, err)
	}
	return nil
}

func ioctlInt(f *os.File, req uintptr, arg int) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func createUinputDevice(f *os.File, dev userDev) (*os.File, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, dev); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("encode uinput_user_dev: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write uinput_user_dev: %w", err)
	}
	if err := ioctlInt(f, devCreate, 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return f, nil
}

func releaseDevice(f *os.File) error {
	return ioctlInt(f, devDestroy, 0)
}

func writeEvents(f *os.File, events []wireEvent) error {
	buf := make([]byte, 0, wireEventSize*len(events))
	for _, ev := range events {
		var b [wireEventSize]byte
		binary.LittleEndian.PutUint64(b[0:8], uint64(ev.Sec))
		binary.LittleEndian.PutUint64(b[8:16], uint64(ev.Usec))
		binary.LittleEndian.PutUint16(b[16:18], ev.Type)
		binary.LittleEndian.PutUint16(b[18:20], ev.Code)
		binary.LittleEndian.PutUint32(b[20:24], uint32(ev.Value))
		buf = append(buf, b[:]...)
	}
	_, err := f.Write(buf)
	return err
}

func toUinputName(name string) [maxNameSize]byte {
	var out [maxNameSize]byte
	copy(out[:], name)
	return out
}
