package touch

import "github.com/char5742/inputreader/internal/device"

// jumpLimit bounds how far a pointer may move between two consecutive
// frames before the jumpy-touch filter substitutes the previous position.
const jumpLimit = 25

// ApplyBadTouchFilter drops newly-appeared pointers that land implausibly
// far from every pointer already down, a pattern seen on digitizers that
// emit a spurious extra contact at screen edges. It mutates current in
// place, removing filtered pointers from both the pointer array and the id
// bookkeeping.
func ApplyBadTouchFilter(last, current *device.TouchData) {
	if last.PointerCount == 0 || current.PointerCount <= last.PointerCount {
		return
	}

	keep := make([]device.Pointer, 0, current.PointerCount)
	for i := uint32(0); i < current.PointerCount; i++ {
		p := current.Pointers[i]
		if last.IDBits.HasBit(p.ID) || plausibleNeighbor(last, p) {
			keep = append(keep, p)
		}
	}
	rebuild(current, keep)
}

// plausibleNeighbor reports whether p lies within badTouchRadius of any
// pointer already tracked in last.
func plausibleNeighbor(last *device.TouchData, p device.Pointer) bool {
	const badTouchRadius = 200
	for i := uint32(0); i < last.PointerCount; i++ {
		lp := last.Pointers[i]
		dx := int64(lp.X - p.X)
		dy := int64(lp.Y - p.Y)
		if dx*dx+dy*dy <= badTouchRadius*badTouchRadius {
			return true
		}
	}
	return false
}

// ApplyJumpyTouchFilter clamps any pointer whose position moved more than
// jumpLimit units since the last frame back to its previous position,
// suppressing single-frame spikes some digitizers report under pressure.
func ApplyJumpyTouchFilter(last, current *device.TouchData) {
	for i := uint32(0); i < current.PointerCount; i++ {
		p := &current.Pointers[i]
		if !last.IDBits.HasBit(p.ID) {
			continue
		}
		lp := last.Pointers[last.IDToIndex[p.ID]]
		if abs32(p.X-lp.X) > jumpLimit {
			p.X = lp.X
		}
		if abs32(p.Y-lp.Y) > jumpLimit {
			p.Y = lp.Y
		}
	}
}

// ApplyAveragingTouchFilter smooths position by averaging each pointer's
// new coordinates with its previous frame's, reducing digitizer jitter at
// the cost of a little added latency.
func ApplyAveragingTouchFilter(last, current *device.TouchData) {
	for i := uint32(0); i < current.PointerCount; i++ {
		p := &current.Pointers[i]
		if !last.IDBits.HasBit(p.ID) {
			continue
		}
		lp := last.Pointers[last.IDToIndex[p.ID]]
		p.X = (p.X + lp.X) / 2
		p.Y = (p.Y + lp.Y) / 2
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// rebuild replaces current's pointer array and id bookkeeping with kept,
// recomputing IDBits and IDToIndex from scratch.
func rebuild(current *device.TouchData, kept []device.Pointer) {
	current.Clear()
	current.PointerCount = uint32(len(kept))
	for i, p := range kept {
		current.Pointers[i] = p
		current.IDToIndex[p.ID] = uint32(i)
		current.IDBits.MarkBit(p.ID)
	}
}
