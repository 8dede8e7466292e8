package uinputdispatch

import (
	"testing"

	"github.com/char5742/inputreader/internal/dispatch"
)

func newTestDispatcher() *Dispatcher {
	return &Dispatcher{slotOfID: map[int32]int{}}
}

func TestSlotForIsStablePerID(t *testing.T) {
	d := newTestDispatcher()

	slotA := d.slotFor(3)
	slotB := d.slotFor(7)
	if d.slotFor(3) != slotA {
		t.Fatal("slot for a known id must not change")
	}
	if slotA == slotB {
		t.Fatal("distinct ids must get distinct slots")
	}
}

func TestTouchEventsFirstContactSetsTrackingID(t *testing.T) {
	d := newTestDispatcher()
	events := d.touchEvents(3, dispatch.PointerCoords{X: 10, Y: 20, Pressure: 0.5, Size: 4})

	found := false
	for _, ev := range events {
		if ev.Code == absMTTrackingID {
			found = true
			if ev.Value != 3 {
				t.Fatalf("tracking id should be pointer id 3, got %d", ev.Value)
			}
		}
	}
	if !found {
		t.Fatal("first report for a pointer must assign a tracking id")
	}
}

func TestTouchEventsFollowUpOmitsTrackingID(t *testing.T) {
	d := newTestDispatcher()
	d.touchEvents(3, dispatch.PointerCoords{X: 10, Y: 20})
	events := d.touchEvents(3, dispatch.PointerCoords{X: 11, Y: 21})

	for _, ev := range events {
		if ev.Code == absMTTrackingID {
			t.Fatal("a move on an already-tracked pointer must not re-set tracking id")
		}
	}
}

func TestLiftEventsClearsBtnTouchOnlyWhenLastPointer(t *testing.T) {
	d := newTestDispatcher()
	d.touchEvents(3, dispatch.PointerCoords{})
	d.touchEvents(7, dispatch.PointerCoords{})

	liftFirst := d.liftEvents(3)
	if hasBtnTouchUp(liftFirst) {
		t.Fatal("lifting one of two pointers must not clear BTN_TOUCH")
	}

	liftSecond := d.liftEvents(7)
	if !hasBtnTouchUp(liftSecond) {
		t.Fatal("lifting the last pointer must clear BTN_TOUCH")
	}
}

func TestLiftEventsUnknownIDIsNoOp(t *testing.T) {
	d := newTestDispatcher()
	if events := d.liftEvents(99); events != nil {
		t.Fatalf("lifting an id never reported must be a no-op, got %v", events)
	}
}

func hasBtnTouchUp(events []wireEvent) bool {
	for _, ev := range events {
		if ev.Type == evKey && ev.Code == btnTouch && ev.Value == 0 {
			return true
		}
	}
	return false
}
