package keyboard

import "testing"

func TestUpdateMetaStateTracksLeftShift(t *testing.T) {
	state := UpdateMetaState(codeShiftLeft, true, 0)
	if state&MetaShiftLeftOn == 0 {
		t.Fatal("expected SHIFT_LEFT_ON bit set")
	}
	if state&MetaShiftOn == 0 {
		t.Fatal("expected summary SHIFT_ON bit set")
	}

	state = UpdateMetaState(codeShiftLeft, false, state)
	if state&MetaShiftLeftOn != 0 || state&MetaShiftOn != 0 {
		t.Fatal("expected both bits cleared on release")
	}
}

func TestUpdateMetaStateIgnoresUntrackedKey(t *testing.T) {
	state := UpdateMetaState(9999, true, 42)
	if state != 42 {
		t.Fatalf("expected state unchanged for untracked key, got %d", state)
	}
}

func TestUpdateMetaStateSummaryStaysOnWithEitherSide(t *testing.T) {
	state := UpdateMetaState(codeAltLeft, true, 0)
	state = UpdateMetaState(codeAltRight, true, state)
	state = UpdateMetaState(codeAltLeft, false, state)

	if state&MetaAltOn == 0 {
		t.Fatal("expected ALT_ON to remain set while right alt is still down")
	}
}
