// Package evdevsource implements rawevent.EventSource against real
// /dev/input/eventN character devices, classifying each one the way the
// teacher's device scan did (by probing its capability bitmasks with
// ioctl) instead of guessing from its by-id symlink name.
package evdevsource

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/logger"
	"github.com/char5742/inputreader/internal/rawevent"
)

// ioctl request codes not exposed by golang.org/x/sys/unix, mirroring the
// teacher's own pattern of hand-computing EVIOCG* request numbers rather
// than pulling in a dedicated evdev-ioctl dependency.
const (
	eviocgbitBase = 0x80000000 | (0x45 << 8) | 0x20 // _IOC(_IOC_READ, 'E', 0x20, size) base, size filled in per call
	eviocgabsBase = 0x80000000 | (0x45 << 8) | 0x40
	eviocgname    = 0x80ff4506
	eviocgrab     = 0x40044590

	evBitsSize  = (0x1f / 8) + 1
	keyBitsSize = (0x2ff / 8) + 1
	absBitsSize = (0x3f / 8) + 1
	swBitsSize  = (0x0f / 8) + 1
)

const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03
)

// inputEvent mirrors struct input_event from linux/input.h on a 64-bit
// system, which is what the kernel actually writes to the character
// device; this module targets linux/amd64 and linux/arm64 only.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = 24

// openDevice is one live evdev character device the source has opened
// and is polling.
type openDevice struct {
	id      int32
	path    string
	name    string
	classes device.Classes
	file    *os.File
}

// Source polls a set of open evdev character devices with a single
// epoll loop and surfaces them as rawevent.Events, implementing
// rawevent.EventSource. Device hotplug is driven externally (see the
// hotplug package); Source only exposes Add/Remove so a watcher can push
// discoveries in without either package depending on the other's
// internals.
type Source struct {
	log *logger.Logger

	mu      sync.Mutex
	devices map[int32]*openDevice
	nextID  int32

	epfd          int
	wakeRead      *os.File
	wakePipeWrite *os.File
	pending       []rawevent.Event

	excluded map[string]bool
}

// wakeEventFd is the synthetic epoll Fd value for the self-pipe: every
// real device id is non-negative (assigned by nextID), so a negative
// sentinel can never collide with one.
const wakeEventFd int32 = -1

// New creates a Source with an empty device set and its own epoll
// instance, ready for AddDevice calls (typically driven by an initial
// directory scan plus a hotplug watcher). A self-pipe is registered with
// the poller so AddDevice/RemoveDevice called from a different goroutine
// (the hotplug watcher) can wake a GetEvent blocked in epoll_wait.
func New() (*Source, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, int(r.Fd()), &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     wakeEventFd,
	}); err != nil {
		return nil, fmt.Errorf("epoll_ctl add wake pipe: %w", err)
	}
	s := &Source{
		log:      logger.New("evdevsource"),
		devices:  map[int32]*openDevice{},
		epfd:     epfd,
		wakeRead: r,
		excluded: map[string]bool{},
	}
	s.wakePipeWrite = w
	return s, nil
}

// AddDevice opens path, classifies it by probing its EV_KEY/EV_ABS/EV_REL
// bitmasks, registers it with the poller, and enqueues the synthetic
// DeviceAdded event for the next GetEvent call, waking a blocked poll if
// necessary. Safe to call from any goroutine. A device whose name is on
// the exclusion list is opened (so later GetDeviceName/GetDeviceClasses
// calls still work if the policy changes its mind) but never polled or
// surfaced.
func (s *Source) AddDevice(path string) error {
	f, err := os.OpenFile(path, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	name, err := queryName(f)
	if err != nil {
		name = path
	}
	classes := classify(f)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	od := &openDevice{id: id, path: path, name: name, classes: classes, file: f}
	s.devices[id] = od
	excluded := s.excluded[name]
	if !excluded {
		s.pending = append(s.pending, rawevent.Event{DeviceID: id, Type: rawevent.DeviceAdded, Name: name})
	}
	s.mu.Unlock()

	if !excluded {
		if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, int(f.Fd()), &unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     id,
		}); err != nil {
			s.log.Warnf("epoll_ctl add %s: %v", path, err)
		}
	}
	s.wake()
	return nil
}

// RemoveDevice closes the device matching path (a no-op if not found)
// and enqueues the synthetic DeviceRemoved event. Safe to call from any
// goroutine.
func (s *Source) RemoveDevice(path string) {
	s.mu.Lock()
	for id, od := range s.devices {
		if od.path != path {
			continue
		}
		_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, int(od.file.Fd()), nil)
		_ = od.file.Close()
		delete(s.devices, id)
		s.pending = append(s.pending, rawevent.Event{DeviceID: id, Type: rawevent.DeviceRemoved})
		break
	}
	s.mu.Unlock()
	s.wake()
}

// wake writes one byte to the self-pipe, unblocking a GetEvent sitting
// in epoll_wait so it notices newly pending events.
func (s *Source) wake() {
	_, _ = s.wakePipeWrite.Write([]byte{0})
}

// ScanDir opens every eventN character device under dir (typically
// /dev/input), skipping any it cannot open, feeding each into
// Source.AddDevice.
func (s *Source) ScanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if len(name) < 5 || name[:5] != "event" {
			continue
		}
		path := dir + "/" + name
		if err := s.AddDevice(path); err != nil {
			s.log.Warnf("scan: %v", err)
		}
	}
	return nil
}

// GetEvent blocks until the next raw event is ready: either a queued
// translation of several input_event records read in one syscall, or a
// fresh epoll wait across every open device.
func (s *Source) GetEvent() (rawevent.Event, error) {
	for {
		s.mu.Lock()
		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return ev, nil
		}
		s.mu.Unlock()

		events := make([]unix.EpollEvent, 16)
		n, err := unix.EpollWait(s.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return rawevent.Event{}, fmt.Errorf("epoll_wait: %w", err)
		}
		for i := 0; i < n; i++ {
			if events[i].Fd == wakeEventFd {
				buf := make([]byte, 64)
				_, _ = s.wakeRead.Read(buf)
				continue
			}
			s.drain(events[i].Fd)
		}
	}
}

// drain reads every fully-buffered input_event off deviceID's file and
// translates each into a rawevent.Event appended to pending.
func (s *Source) drain(deviceID int32) {
	s.mu.Lock()
	od := s.devices[deviceID]
	s.mu.Unlock()
	if od == nil {
		return
	}

	buf := make([]byte, inputEventSize*64)
	n, err := od.file.Read(buf)
	if err != nil || n < inputEventSize {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for off := 0; off+inputEventSize <= n; off += inputEventSize {
		ev := decodeInputEvent(buf[off : off+inputEventSize])
		translated, ok := translate(deviceID, ev)
		if ok {
			s.pending = append(s.pending, translated)
		}
	}
}

func decodeInputEvent(b []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(b[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(b[8:16])),
		Type:  binary.LittleEndian.Uint16(b[16:18]),
		Code:  binary.LittleEndian.Uint16(b[18:20]),
		Value: int32(binary.LittleEndian.Uint32(b[20:24])),
	}
}

func translate(deviceID int32, ev inputEvent) (rawevent.Event, bool) {
	when := time.Duration(ev.Sec)*time.Second + time.Duration(ev.Usec)*time.Microsecond
	base := rawevent.Event{DeviceID: deviceID, ScanCode: int32(ev.Code), Value: ev.Value, When: when}
	switch ev.Type {
	case evSyn:
		base.Type = rawevent.Syn
	case evKey:
		base.Type = rawevent.Key
		base.KeyCode = int32(ev.Code)
	case evRel:
		base.Type = rawevent.Rel
	case evAbs:
		base.Type = rawevent.Abs
	default:
		return rawevent.Event{}, false
	}
	return base, true
}

// classify probes EV_KEY/EV_ABS/EV_REL bitmasks via EVIOCGBIT: a raw
// ioctl syscall against the open file, no cgo, no dedicated evdev
// library.
func classify(f *os.File) device.Classes {
	var classes device.Classes

	evBits := make([]byte, evBitsSize)
	if ioctlRead(f, eviocgbitBase|uintptr(evBitsSize)<<16, evBits) {
		hasKey := testBit(evBits, evKey)
		hasAbs := testBit(evBits, evAbs)
		hasRel := testBit(evBits, evRel)

		if hasKey {
			keyBits := make([]byte, keyBitsSize)
			if ioctlReadFor(f, evKey, keyBitsSize, keyBits) {
				if testBit(keyBits, 0x01) { // KEY_ESC or any alpha key present
					classes |= device.ClassKeyboard
				}
				if hasAlphaKeys(keyBits) {
					classes |= device.ClassAlphaKey | device.ClassKeyboard
				}
				if testBit(keyBits, 0x14a) { // BTN_TOUCH
					classes |= device.ClassTouchscreen
				}
			}
		}
		if hasAbs {
			absBits := make([]byte, absBitsSize)
			if ioctlReadFor(f, evAbs, absBitsSize, absBits) {
				if testBit(absBits, 0x35) { // ABS_MT_POSITION_X
					classes |= device.ClassTouchscreen | device.ClassMultiTouch
				} else if testBit(absBits, 0x00) && classes.Has(device.ClassTouchscreen) {
					// single-touch digitizer: ABS_X present, no MT axes.
				}
			}
		}
		if hasRel && classes&device.ClassKeyboard == 0 {
			classes |= device.ClassTrackball
		}
		if hasKey {
			keyBits := make([]byte, keyBitsSize)
			if ioctlReadFor(f, evKey, keyBitsSize, keyBits) {
				if testBit(keyBits, 0x103) && testBit(keyBits, 0x106) { // KEY_UP/KEY_LEFT present
					classes |= device.ClassDPad
				}
			}
		}
	}
	return classes
}

func hasAlphaKeys(keyBits []byte) bool {
	// KEY_Q..KEY_P (0x10-0x19) is present on every alphanumeric keyboard
	// and absent on power/volume-only keypads.
	for code := 0x10; code <= 0x19; code++ {
		if testBit(keyBits, code) {
			return true
		}
	}
	return false
}

func testBit(bits []byte, code int) bool {
	idx := code / 8
	if idx >= len(bits) {
		return false
	}
	return bits[idx]&(1<<(code%8)) != 0
}

func ioctlRead(f *os.File, req uintptr, out []byte) bool {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), req, uintptr(unsafe.Pointer(&out[0])))
	return errno == 0
}

// ioctlReadFor computes the EVIOCGBIT request for evType with size bytes
// of result buffer, then issues it.
func ioctlReadFor(f *os.File, evType int, size int, out []byte) bool {
	req := uintptr(0x80000000 | (0x45 << 8) | 0x20 | (evType << 0))
	req |= uintptr(size) << 16
	return ioctlRead(f, req, out)
}

func queryName(f *os.File) (string, error) {
	buf := make([]byte, 128)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), uintptr(eviocgname|len(buf)<<16), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return "", errno
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n]), nil
}

// GetDeviceClasses returns the classification computed at AddDevice time.
func (s *Source) GetDeviceClasses(deviceID int32) (device.Classes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.devices[deviceID]
	if od == nil {
		return 0, fmt.Errorf("unknown device %d", deviceID)
	}
	return od.classes, nil
}

// GetDeviceName returns the driver-reported name queried at AddDevice time.
func (s *Source) GetDeviceName(deviceID int32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	od := s.devices[deviceID]
	if od == nil {
		return "", fmt.Errorf("unknown device %d", deviceID)
	}
	return od.name, nil
}

// GetAbsoluteInfo issues EVIOCGABS for axis, translating the kernel's
// input_absinfo into device.AbsoluteAxisInfo.
func (s *Source) GetAbsoluteInfo(deviceID int32, axis int32) (device.AbsoluteAxisInfo, error) {
	s.mu.Lock()
	od := s.devices[deviceID]
	s.mu.Unlock()
	if od == nil {
		return device.AbsoluteAxisInfo{}, fmt.Errorf("unknown device %d", deviceID)
	}

	var raw [6]int32 // value, min, max, fuzz, flat, resolution
	req := uintptr(eviocgabsBase) | uintptr(axis) | uintptr(unsafe.Sizeof(raw))<<16
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, od.file.Fd(), req, uintptr(unsafe.Pointer(&raw[0])))
	if errno != 0 {
		return device.AbsoluteAxisInfo{}, errno
	}
	return device.NewAbsoluteAxisInfo(raw[1], raw[2], raw[4], raw[3]), nil
}

// ScancodeToKeycode implements the static identity mapping: evdev
// already reports Linux key codes, which this module treats directly as
// platform key codes rather than pulling in a .kl keylayout parser for a
// single-machine daemon. FLAG_VIRTUAL is added by the caller, not here.
func (s *Source) ScancodeToKeycode(deviceID int32, scanCode int32) (keyCode int32, flags uint32, ok bool) {
	return scanCode, 0, true
}

// AddExcludedDevice records name; any device already open under that
// name is immediately dropped from polling (but stays queryable).
func (s *Source) AddExcludedDevice(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excluded[name] = true
	for _, od := range s.devices {
		if od.name == name {
			_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, int(od.file.Fd()), nil)
		}
	}
}

func (s *Source) GetScanCodeState(deviceID int32, classes device.Classes, scanCode int32) int32 {
	return s.queryBit(deviceID, classes, scanCode)
}

func (s *Source) GetKeyCodeState(deviceID int32, classes device.Classes, keyCode int32) int32 {
	return s.queryBit(deviceID, classes, keyCode)
}

// eviocgswBase is EVIOCGSW(0): _IOC(_IOC_READ, 'E', 0x1b, 0), sized at call
// time the same way ioctlReadFor sizes EVIOCGBIT.
const eviocgswBase = uintptr(0x80000000 | (0x45 << 8) | 0x1b)

func (s *Source) GetSwitchState(deviceID int32, classes device.Classes, sw int32) int32 {
	swBits := make([]byte, swBitsSize)
	req := eviocgswBase | uintptr(swBitsSize)<<16

	s.mu.Lock()
	var candidates []*openDevice
	for id, od := range s.devices {
		if deviceID >= 0 && id != deviceID {
			continue
		}
		if deviceID < 0 && classes != 0 && od.classes&classes == 0 {
			continue
		}
		candidates = append(candidates, od)
	}
	s.mu.Unlock()

	for _, od := range candidates {
		if ioctlRead(od.file, req, swBits) && testBit(swBits, int(sw)) {
			return 1
		}
	}
	return 0
}

// queryBit issues EVIOCGKEY against every candidate device (deviceID if
// >= 0, else every device matching classes) and returns 1 if any reports
// the bit set.
func (s *Source) queryBit(deviceID int32, classes device.Classes, code int32) int32 {
	const eviocgkey = 0x80484518
	keyBits := make([]byte, keyBitsSize)

	s.mu.Lock()
	var candidates []*openDevice
	for id, od := range s.devices {
		if deviceID >= 0 && id != deviceID {
			continue
		}
		if deviceID < 0 && classes != 0 && od.classes&classes == 0 {
			continue
		}
		candidates = append(candidates, od)
	}
	s.mu.Unlock()

	for _, od := range candidates {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, od.file.Fd(), eviocgkey, uintptr(unsafe.Pointer(&keyBits[0])))
		if errno == 0 && testBit(keyBits, int(code)) {
			return 1
		}
	}
	return 0
}

// HasKeys reports, per key code, whether any known device's EVIOCGBIT
// key bitmask has it set.
func (s *Source) HasKeys(keyCodes []int32) []bool {
	s.mu.Lock()
	devices := make([]*openDevice, 0, len(s.devices))
	for _, od := range s.devices {
		devices = append(devices, od)
	}
	s.mu.Unlock()
	sort.Slice(devices, func(i, j int) bool { return devices[i].id < devices[j].id })

	result := make([]bool, len(keyCodes))
	for _, od := range devices {
		keyBits := make([]byte, keyBitsSize)
		if !ioctlReadFor(od.file, evKey, keyBitsSize, keyBits) {
			continue
		}
		for i, kc := range keyCodes {
			if !result[i] && testBit(keyBits, int(kc)) {
				result[i] = true
			}
		}
	}
	return result
}
