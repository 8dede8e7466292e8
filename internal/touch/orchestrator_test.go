package touch

import (
	"testing"

	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
)

func withPointers(ids ...uint32) device.TouchData {
	var t device.TouchData
	for i, id := range ids {
		t.Pointers[i] = device.Pointer{ID: id}
		t.IDToIndex[id] = uint32(i)
		t.IDBits.MarkBit(id)
	}
	t.PointerCount = uint32(len(ids))
	return t
}

func TestPlanStepsNoOpWhenBothEmpty(t *testing.T) {
	last := withPointers()
	current := withPointers()

	if steps := PlanSteps(&last, &current); steps != nil {
		t.Fatalf("expected no steps, got %+v", steps)
	}
}

func TestPlanStepsFirstDown(t *testing.T) {
	last := withPointers()
	current := withPointers(0)

	steps := PlanSteps(&last, &current)
	if len(steps) != 1 || steps[0].Action != dispatch.MotionActionDown {
		t.Fatalf("expected a single DOWN step, got %+v", steps)
	}
	if steps[0].Source != SourceCurrent {
		t.Fatalf("expected DOWN to read from current, got %v", steps[0].Source)
	}
}

func TestPlanStepsLastUp(t *testing.T) {
	last := withPointers(0)
	current := withPointers()

	steps := PlanSteps(&last, &current)
	if len(steps) != 1 || steps[0].Action != dispatch.MotionActionUp {
		t.Fatalf("expected a single UP step, got %+v", steps)
	}
	if steps[0].Source != SourceLast {
		t.Fatalf("expected UP to read from last, got %v", steps[0].Source)
	}
}

func TestPlanStepsMoveOnly(t *testing.T) {
	last := withPointers(0, 1)
	current := withPointers(0, 1)

	steps := PlanSteps(&last, &current)
	if len(steps) != 1 || steps[0].Action != dispatch.MotionActionMove {
		t.Fatalf("expected a single MOVE step, got %+v", steps)
	}
}

func TestPlanStepsSecondPointerDownCarriesShiftedID(t *testing.T) {
	last := withPointers(0)
	current := withPointers(0, 5)

	steps := PlanSteps(&last, &current)
	if len(steps) != 1 {
		t.Fatalf("expected one step, got %+v", steps)
	}
	wantAction := dispatch.MotionActionPointerDown | (5 << dispatch.PointerIndexShift)
	if steps[0].Action != wantAction {
		t.Fatalf("expected POINTER_DOWN for id 5, got action %d", steps[0].Action)
	}
	if !steps[0].ActiveIDs.HasBit(0) || !steps[0].ActiveIDs.HasBit(5) {
		t.Fatalf("expected both ids active after the down, got %+v", steps[0].ActiveIDs)
	}
}

func TestPlanStepsUpsBeforeDowns(t *testing.T) {
	last := withPointers(0, 1)
	current := withPointers(1, 2)

	steps := PlanSteps(&last, &current)
	if len(steps) != 2 {
		t.Fatalf("expected two steps, got %+v", steps)
	}
	if steps[0].Action&0xff != dispatch.MotionActionPointerUp && steps[0].Action != dispatch.MotionActionUp {
		t.Fatalf("expected UP to come first, got %+v", steps[0])
	}
	if steps[1].Action&0xff != dispatch.MotionActionPointerDown && steps[1].Action != dispatch.MotionActionDown {
		t.Fatalf("expected DOWN to come second, got %+v", steps[1])
	}
}
