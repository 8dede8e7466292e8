package touch

import (
	"github.com/char5742/inputreader/internal/bitset"
	"github.com/char5742/inputreader/internal/device"
	"github.com/char5742/inputreader/internal/dispatch"
)

// Step is one planned motion notification. Source selects whether the
// pointer positions for this step come from the frame that just ended
// (lastTouch, for the UP half) or the frame just computed (currentTouch,
// for the MOVE and DOWN halves) — both still need to be visible to the
// caller because a POINTER_UP step must report the positions of the
// pointers still active in the OLD frame, while POINTER_DOWN reports them
// from the NEW frame, exactly the asymmetry the production orchestrator
// has.
type Step struct {
	Action    int32
	Source    TouchSource
	ActiveIDs bitset.Set32
}

// TouchSource distinguishes which of the two TouchData snapshots a Step's
// ActiveIDs should be read from.
type TouchSource int

const (
	SourceCurrent TouchSource = iota
	SourceLast
)

// PlanSteps reproduces the production dispatch orchestrator exactly:
// given the id sets of last and current, emit zero or more motion steps
// with ups strictly preceding downs and both groups walked in ascending
// id order.
//
// PlanSteps does not touch downTime; the caller stamps it for a step
// whose Action is MotionActionDown (see IsDown), which is planned when
// the id set goes from empty to non-empty.
func PlanSteps(last, current *device.TouchData) []Step {
	if current.PointerCount == 0 && last.PointerCount == 0 {
		return nil
	}

	currentIDBits := current.IDBits
	lastIDBits := last.IDBits

	if currentIDBits.Equal(lastIDBits) {
		return []Step{{Action: dispatch.MotionActionMove, Source: SourceCurrent, ActiveIDs: currentIDBits}}
	}

	upIDBits := lastIDBits.Difference(currentIDBits)
	downIDBits := currentIDBits.Difference(lastIDBits)
	activeIDBits := lastIDBits

	var steps []Step

	for !upIDBits.IsEmpty() {
		upID := upIDBits.FirstMarkedBit()
		upIDBits.ClearBit(upID)
		oldActiveIDBits := activeIDBits
		activeIDBits.ClearBit(upID)

		action := dispatch.MotionActionUp
		if !activeIDBits.IsEmpty() {
			action = dispatch.MotionActionPointerUp | (int32(upID) << dispatch.PointerIndexShift)
		}
		steps = append(steps, Step{Action: action, Source: SourceLast, ActiveIDs: oldActiveIDBits})
	}

	for !downIDBits.IsEmpty() {
		downID := downIDBits.FirstMarkedBit()
		downIDBits.ClearBit(downID)
		oldActiveIDBits := activeIDBits
		activeIDBits.MarkBit(downID)

		action := dispatch.MotionActionDown
		if !oldActiveIDBits.IsEmpty() {
			action = dispatch.MotionActionPointerDown | (int32(downID) << dispatch.PointerIndexShift)
		}
		steps = append(steps, Step{Action: action, Source: SourceCurrent, ActiveIDs: activeIDBits})
	}

	return steps
}

// IsDown reports whether action (with any pointer-index bits masked off)
// is a fresh MOTION_DOWN, the step whose when the caller should stamp
// into TouchScreenState.DownTime.
func IsDown(action int32) bool {
	return action == dispatch.MotionActionDown
}
