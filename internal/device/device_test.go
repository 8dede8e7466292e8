package device

import "testing"

func TestNewZeroClassesIgnored(t *testing.T) {
	d := New(5, 0, "nonsense")
	if !d.Ignored {
		t.Fatal("expected classes == 0 to mark the device ignored")
	}
	if d.Keyboard != nil || d.Trackball != nil || d.TouchScreen != nil {
		t.Fatal("expected no substate for an ignored device")
	}
}

func TestNewAllocatesMatchingSubstate(t *testing.T) {
	d := New(1, ClassKeyboard, "kbd")
	if d.Keyboard == nil {
		t.Fatal("expected keyboard substate")
	}
	if d.Trackball != nil || d.TouchScreen != nil {
		t.Fatal("expected no unrelated substate")
	}

	mt := New(2, ClassTouchscreen|ClassMultiTouch, "mt")
	if mt.TouchScreen == nil || mt.MultiTouch == nil || mt.SingleTouch != nil {
		t.Fatal("expected multitouch substate only")
	}

	st := New(3, ClassTouchscreen, "st")
	if st.TouchScreen == nil || st.SingleTouch == nil || st.MultiTouch != nil {
		t.Fatal("expected single-touch substate only")
	}
}

func TestMultiTouchAccumulatorAdvanceSlot(t *testing.T) {
	var acc MultiTouchAccumulator
	if acc.Dirty() {
		t.Fatal("expected fresh accumulator to be clean")
	}

	acc.Pointers[0].Fields = FieldAbsMTPositionX
	if overflow := acc.AdvanceSlot(); overflow {
		t.Fatal("did not expect overflow on first pointer")
	}
	if acc.PointerCount != 1 {
		t.Fatalf("expected pointer count 1, got %d", acc.PointerCount)
	}
	if !acc.Dirty() {
		t.Fatal("expected accumulator to be dirty after advancing a slot")
	}
}

func TestMultiTouchAccumulatorOverflow(t *testing.T) {
	var acc MultiTouchAccumulator
	acc.PointerCount = MaxPointers
	acc.Pointers[MaxPointers].Fields = FieldAbsMTPositionX

	overflow := acc.AdvanceSlot()
	if !overflow {
		t.Fatal("expected overflow when advancing past MaxPointers")
	}
	if acc.PointerCount != MaxPointers {
		t.Fatalf("expected pointer count to stay capped, got %d", acc.PointerCount)
	}
}

func TestMultiTouchAccumulatorEmptySlotNoOp(t *testing.T) {
	var acc MultiTouchAccumulator
	overflow := acc.AdvanceSlot()
	if overflow {
		t.Fatal("did not expect overflow for an empty slot")
	}
	if acc.PointerCount != 0 {
		t.Fatalf("expected pointer count to stay 0, got %d", acc.PointerCount)
	}
}

func TestVirtualKeyHit(t *testing.T) {
	vk := VirtualKey{HitLeft: 10, HitRight: 20, HitTop: 30, HitBottom: 40}
	if !vk.Hit(15, 35) {
		t.Fatal("expected point inside rectangle to hit")
	}
	if vk.Hit(5, 35) {
		t.Fatal("expected point outside rectangle to miss")
	}
}

func TestFindVirtualKeyHit(t *testing.T) {
	ts := NewTouchScreenState()
	ts.VirtualKeys = []VirtualKey{
		{KeyCode: 1, HitLeft: 0, HitRight: 10, HitTop: 0, HitBottom: 10},
		{KeyCode: 2, HitLeft: 20, HitRight: 30, HitTop: 0, HitBottom: 10},
	}
	if got := ts.FindVirtualKeyHit(25, 5); got == nil || got.KeyCode != 2 {
		t.Fatalf("expected hit on key 2, got %+v", got)
	}
	if got := ts.FindVirtualKeyHit(100, 100); got != nil {
		t.Fatalf("expected no hit, got %+v", got)
	}
}
