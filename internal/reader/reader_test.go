package reader

import (
	"errors"
	"testing"
	"time"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
	"github.com/char5742/inputreader/internal/keyboard"
	"github.com/char5742/inputreader/internal/policy"
	"github.com/char5742/inputreader/internal/rawevent"
)

// fakeSource is a canned, queue-driven rawevent.EventSource for driving
// the reader one event at a time in tests.
type fakeSource struct {
	events  []rawevent.Event
	classes map[int32]device.Classes
	names   map[int32]string
	axes    map[[2]int32]device.AbsoluteAxisInfo
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		classes: map[int32]device.Classes{},
		names:   map[int32]string{},
		axes:    map[[2]int32]device.AbsoluteAxisInfo{},
	}
}

func (s *fakeSource) push(ev rawevent.Event) { s.events = append(s.events, ev) }

func (s *fakeSource) GetEvent() (rawevent.Event, error) {
	if len(s.events) == 0 {
		return rawevent.Event{}, errors.New("no more events")
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *fakeSource) GetDeviceClasses(deviceID int32) (device.Classes, error) {
	return s.classes[deviceID], nil
}

func (s *fakeSource) GetDeviceName(deviceID int32) (string, error) {
	return s.names[deviceID], nil
}

func (s *fakeSource) GetAbsoluteInfo(deviceID int32, axis int32) (device.AbsoluteAxisInfo, error) {
	info, ok := s.axes[[2]int32{deviceID, axis}]
	if !ok {
		return device.AbsoluteAxisInfo{}, errors.New("no axis info")
	}
	return info, nil
}

func (s *fakeSource) ScancodeToKeycode(deviceID int32, scanCode int32) (int32, uint32, bool) {
	return scanCode, 0, true
}

func (s *fakeSource) AddExcludedDevice(name string) {}

func (s *fakeSource) GetScanCodeState(deviceID int32, classes device.Classes, scanCode int32) int32 {
	return 0
}

func (s *fakeSource) GetKeyCodeState(deviceID int32, classes device.Classes, keyCode int32) int32 {
	return 0
}

func (s *fakeSource) GetSwitchState(deviceID int32, classes device.Classes, sw int32) int32 {
	return 0
}

func (s *fakeSource) HasKeys(keyCodes []int32) []bool {
	return make([]bool, len(keyCodes))
}

// fakePolicy is a configurable policy.Policy; every Intercept* call
// dispatches by default unless told otherwise.
type fakePolicy struct {
	width, height, orientation int32
	displayOK                  bool

	virtualKeys map[string][]policy.VirtualKeyDefinition
	excluded    []string
	filterTouch bool
	filterJumpy bool

	feedbackCalls int
}

func newFakePolicy() *fakePolicy {
	return &fakePolicy{displayOK: true, virtualKeys: map[string][]policy.VirtualKeyDefinition{}}
}

func (p *fakePolicy) GetDisplayInfo() (int32, int32, int32, bool) {
	return p.width, p.height, p.orientation, p.displayOK
}

func (p *fakePolicy) GetVirtualKeyDefinitions(deviceName string) []policy.VirtualKeyDefinition {
	return p.virtualKeys[deviceName]
}

func (p *fakePolicy) GetExcludedDeviceNames() []string { return p.excluded }
func (p *fakePolicy) FilterTouchEvents() bool          { return p.filterTouch }
func (p *fakePolicy) FilterJumpyTouchEvents() bool     { return p.filterJumpy }

func (p *fakePolicy) InterceptKey(when time.Duration, deviceID int32, down bool, keyCode, scanCode int32, flags uint32) policy.ActionBits {
	return policy.ActionDispatch
}

func (p *fakePolicy) InterceptTouch(when time.Duration) policy.ActionBits {
	return policy.ActionDispatch
}

func (p *fakePolicy) InterceptSwitch(when time.Duration, code, value int32) policy.ActionBits {
	return policy.ActionDispatch
}

func (p *fakePolicy) InterceptTrackball(when time.Duration, downChanged, down, deltaChanged bool) policy.ActionBits {
	return policy.ActionDispatch
}

func (p *fakePolicy) VirtualKeyDownFeedback() { p.feedbackCalls++ }

// fakeDispatcher records every notification for assertion.
type fakeDispatcher struct {
	keys             []dispatch.KeyEvent
	motions          []dispatch.MotionEvent
	appSwitchCalls   int
	configChangeCalls int
}

func (d *fakeDispatcher) NotifyKey(ev dispatch.KeyEvent)       { d.keys = append(d.keys, ev) }
func (d *fakeDispatcher) NotifyMotion(ev dispatch.MotionEvent) { d.motions = append(d.motions, ev) }
func (d *fakeDispatcher) NotifyAppSwitchComing(when time.Duration) { d.appSwitchCalls++ }
func (d *fakeDispatcher) NotifyConfigurationChanged(when time.Duration) { d.configChangeCalls++ }

func runAll(t *testing.T, r *Reader) {
	t.Helper()
	for {
		if err := r.LoopOnce(); err != nil {
			return
		}
	}
}

func TestSingleFingerTap(t *testing.T) {
	src := newFakeSource()
	pol := newFakePolicy()
	pol.width, pol.height, pol.orientation = 480, 800, 0
	disp := &fakeDispatcher{}
	r := New(src, pol, disp)

	src.classes[1] = device.ClassTouchscreen
	src.names[1] = "touch1"
	src.axes[[2]int32{1, rawevent.AbsX}] = device.NewAbsoluteAxisInfo(0, 1000, 0, 0)
	src.axes[[2]int32{1, rawevent.AbsY}] = device.NewAbsoluteAxisInfo(0, 1000, 0, 0)
	src.axes[[2]int32{1, rawevent.AbsPressure}] = device.NewAbsoluteAxisInfo(0, 100, 0, 0)

	src.push(rawevent.Event{Type: rawevent.DeviceAdded, DeviceID: 1})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsX, Value: 100})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsY, Value: 200})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsPressure, Value: 50})
	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, ScanCode: rawevent.BtnTouch, Value: 1})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})
	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, ScanCode: rawevent.BtnTouch, Value: 0})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})

	runAll(t, r)

	if len(disp.motions) != 2 {
		t.Fatalf("expected 2 motion events, got %d", len(disp.motions))
	}
	down, up := disp.motions[0], disp.motions[1]
	if down.Action != dispatch.MotionActionDown {
		t.Fatalf("expected first event DOWN, got %d", down.Action)
	}
	if up.Action != dispatch.MotionActionUp {
		t.Fatalf("expected second event UP, got %d", up.Action)
	}
	wantX, wantY, wantP := float32(48), float32(160), float32(0.5)
	if down.Pointers[0].X != wantX || down.Pointers[0].Y != wantY || down.Pointers[0].Pressure != wantP {
		t.Fatalf("unexpected DOWN coords: %+v", down.Pointers[0])
	}
	if up.Pointers[0].X != wantX || up.Pointers[0].Y != wantY {
		t.Fatalf("expected UP coords to match DOWN, got %+v", up.Pointers[0])
	}
	if down.DownTime != up.DownTime {
		t.Fatalf("expected UP to carry the same downTime as DOWN")
	}
}

func TestTwoFingerSequence(t *testing.T) {
	src := newFakeSource()
	pol := newFakePolicy()
	pol.width, pol.height, pol.orientation = 480, 800, 0
	disp := &fakeDispatcher{}
	r := New(src, pol, disp)

	src.classes[2] = device.ClassTouchscreen | device.ClassMultiTouch
	src.names[2] = "mt1"

	pushMTPointer := func(x, y, major, width, id int32) {
		src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 2, ScanCode: rawevent.AbsMTPositionX, Value: x})
		src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 2, ScanCode: rawevent.AbsMTPositionY, Value: y})
		src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 2, ScanCode: rawevent.AbsMTTouchMajor, Value: major})
		src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 2, ScanCode: rawevent.AbsMTWidthMajor, Value: width})
		src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 2, ScanCode: rawevent.AbsMTTrackingID, Value: id})
		src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 2, ScanCode: rawevent.SynMTReport})
	}

	src.push(rawevent.Event{Type: rawevent.DeviceAdded, DeviceID: 2})

	pushMTPointer(50, 50, 10, 5, 3)
	pushMTPointer(200, 300, 10, 5, 7)
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 2, ScanCode: rawevent.SynReport})

	pushMTPointer(55, 55, 10, 5, 3)
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 2, ScanCode: rawevent.SynReport})

	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 2, ScanCode: rawevent.SynMTReport})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 2, ScanCode: rawevent.SynReport})

	runAll(t, r)

	if len(disp.motions) != 4 {
		t.Fatalf("expected 4 motion events, got %d: %+v", len(disp.motions), disp.motions)
	}

	if disp.motions[0].Action != dispatch.MotionActionDown {
		t.Fatalf("expected first event DOWN for id 3, got %d", disp.motions[0].Action)
	}
	wantPointerDown := dispatch.MotionActionPointerDown | (7 << dispatch.PointerIndexShift)
	if disp.motions[1].Action != wantPointerDown {
		t.Fatalf("expected POINTER_DOWN for id 7, got %d", disp.motions[1].Action)
	}
	wantPointerUp := dispatch.MotionActionPointerUp | (7 << dispatch.PointerIndexShift)
	if disp.motions[2].Action != wantPointerUp {
		t.Fatalf("expected POINTER_UP for id 7, got %d", disp.motions[2].Action)
	}
	if disp.motions[3].Action != dispatch.MotionActionUp {
		t.Fatalf("expected final event UP for id 3, got %d", disp.motions[3].Action)
	}
}

func TestRotationAffectsKeyAndTouch(t *testing.T) {
	src := newFakeSource()
	pol := newFakePolicy()
	pol.width, pol.height, pol.orientation = 480, 800, 1 // Rotation90
	disp := &fakeDispatcher{}
	r := New(src, pol, disp)

	src.classes[1] = device.ClassKeyboard | device.ClassDPad
	src.names[1] = "dpad1"
	src.classes[2] = device.ClassTouchscreen
	src.names[2] = "touch1"

	src.push(rawevent.Event{Type: rawevent.DeviceAdded, DeviceID: 1})
	src.push(rawevent.Event{Type: rawevent.DeviceAdded, DeviceID: 2})

	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, KeyCode: keyboard.KeycodeDpadDown, Value: 1})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 2, ScanCode: rawevent.AbsX, Value: 10})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 2, ScanCode: rawevent.AbsY, Value: 20})
	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 2, ScanCode: rawevent.BtnTouch, Value: 1})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 2, ScanCode: rawevent.SynReport})

	runAll(t, r)

	if len(disp.keys) != 1 {
		t.Fatalf("expected 1 key event, got %d", len(disp.keys))
	}
	if disp.keys[0].KeyCode != keyboard.KeycodeDpadRight {
		t.Fatalf("expected DPAD_DOWN to rotate to DPAD_RIGHT at 90 degrees, got %d", disp.keys[0].KeyCode)
	}

	if len(disp.motions) != 1 {
		t.Fatalf("expected 1 motion event, got %d", len(disp.motions))
	}
	got := disp.motions[0].Pointers[0]
	if got.X != 20 || got.Y != 470 {
		t.Fatalf("expected raw (10,20) to map to (20,470) at 90 degrees, got (%v,%v)", got.X, got.Y)
	}
}

func TestVirtualKeyPressAndRelease(t *testing.T) {
	src := newFakeSource()
	pol := newFakePolicy()
	pol.width, pol.height, pol.orientation = 480, 800, 0
	pol.virtualKeys["vk1"] = []policy.VirtualKeyDefinition{
		{ScanCode: 99, KeyCode: 200, CenterX: 500, CenterY: 10, Width: 20, Height: 20},
	}
	disp := &fakeDispatcher{}
	r := New(src, pol, disp)

	src.classes[1] = device.ClassTouchscreen
	src.names[1] = "vk1"

	src.push(rawevent.Event{Type: rawevent.DeviceAdded, DeviceID: 1})

	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsX, Value: 500})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsY, Value: 10})
	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, ScanCode: rawevent.BtnTouch, Value: 1})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})

	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, ScanCode: rawevent.BtnTouch, Value: 0})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})

	runAll(t, r)

	if len(disp.motions) != 0 {
		t.Fatalf("expected the virtual key machine to consume every frame, got %d motions", len(disp.motions))
	}
	if len(disp.keys) != 2 {
		t.Fatalf("expected KEY_DOWN then KEY_UP, got %d key events", len(disp.keys))
	}
	if disp.keys[0].Action != dispatch.KeyActionDown || disp.keys[0].KeyCode != 200 {
		t.Fatalf("expected KEY_DOWN for code 200, got %+v", disp.keys[0])
	}
	if disp.keys[0].Flags&dispatch.KeyFlagFromSystem == 0 || disp.keys[0].Flags&dispatch.KeyFlagVirtualHardKey == 0 {
		t.Fatalf("expected virtual key flags on DOWN, got %d", disp.keys[0].Flags)
	}
	if disp.keys[1].Action != dispatch.KeyActionUp || disp.keys[1].KeyCode != 200 {
		t.Fatalf("expected KEY_UP for code 200, got %+v", disp.keys[1])
	}
	if pol.feedbackCalls != 1 {
		t.Fatalf("expected exactly one haptic feedback call, got %d", pol.feedbackCalls)
	}
}

func TestVirtualKeySlideOutCancels(t *testing.T) {
	src := newFakeSource()
	pol := newFakePolicy()
	pol.width, pol.height, pol.orientation = 480, 800, 0
	pol.virtualKeys["vk1"] = []policy.VirtualKeyDefinition{
		{ScanCode: 99, KeyCode: 200, CenterX: 500, CenterY: 10, Width: 20, Height: 20},
	}
	disp := &fakeDispatcher{}
	r := New(src, pol, disp)

	src.classes[1] = device.ClassTouchscreen
	src.names[1] = "vk1"

	src.push(rawevent.Event{Type: rawevent.DeviceAdded, DeviceID: 1})

	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsX, Value: 500})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsY, Value: 10})
	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, ScanCode: rawevent.BtnTouch, Value: 1})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})

	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsX, Value: 100})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsY, Value: 400})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})

	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, ScanCode: rawevent.BtnTouch, Value: 0})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})

	runAll(t, r)

	if len(disp.motions) != 0 {
		t.Fatalf("expected the virtual key machine to consume every frame, got %d motions", len(disp.motions))
	}
	if len(disp.keys) != 2 {
		t.Fatalf("expected KEY_DOWN then KEY_UP|CANCELED, got %d key events", len(disp.keys))
	}
	if disp.keys[1].Flags&dispatch.KeyFlagCanceled == 0 {
		t.Fatalf("expected CANCELED flag on slide-out release, got %d", disp.keys[1].Flags)
	}
}

func TestDisplayInfoFailureDropsTouchAndResetsProperties(t *testing.T) {
	src := newFakeSource()
	pol := newFakePolicy()
	pol.displayOK = false
	disp := &fakeDispatcher{}
	r := New(src, pol, disp)

	src.classes[1] = device.ClassTouchscreen
	src.names[1] = "touch1"

	src.push(rawevent.Event{Type: rawevent.DeviceAdded, DeviceID: 1})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsX, Value: 100})
	src.push(rawevent.Event{Type: rawevent.Abs, DeviceID: 1, ScanCode: rawevent.AbsY, Value: 200})
	src.push(rawevent.Event{Type: rawevent.Key, DeviceID: 1, ScanCode: rawevent.BtnTouch, Value: 1})
	src.push(rawevent.Event{Type: rawevent.Syn, DeviceID: 1, ScanCode: rawevent.SynReport})

	runAll(t, r)

	if len(disp.motions) != 0 {
		t.Fatalf("expected no motion events when display info fails, got %d", len(disp.motions))
	}
	if r.displayProps.Known() {
		t.Fatalf("expected display properties to reset to unknown on failure")
	}
}
