package touch

import (
	"github.com/char5742/inputreader/internal/bitset"
	"github.com/char5742/inputreader/internal/device"
)

// PointerIdentifier is the injectable strategy for assigning pointer ids
// when the driver does not provide stable tracking ids. Exposed as an
// interface, rather than calling AssignPointerIDs directly, so the
// algorithmic piece of pointer identity can be swapped or stubbed
// independently of the rest of the touch pipeline.
type PointerIdentifier interface {
	AssignIDs(last, current *device.TouchData)
}

// NearestNeighborIdentifier is the default PointerIdentifier: it keeps a
// pointer's previous id when the two frames' positions plausibly refer
// to the same contact, matching AssignPointerIDs.
type NearestNeighborIdentifier struct{}

func (NearestNeighborIdentifier) AssignIDs(last, current *device.TouchData) {
	AssignPointerIDs(last, current)
}

// AssignPointerIDs assigns each pointer in current a stable identifier,
// preferring to keep the id it had in last when the two plausibly refer to
// the same physical contact. A pointer whose ID is already marked in
// current.IDBits keeps it. The reader calls this only for frames without
// usable driver ids: a multi-touch frame whose tracking ids were missing
// or over MaxPointerID, or a frame whose id set a filter changed.
//
// The strategy mirrors the original: find the unused id closest in position
// to each new pointer that has none yet, falling back to the lowest unused
// id if the frame carries no position history to compare against.
func AssignPointerIDs(last, current *device.TouchData) {
	if current.PointerCount == 0 {
		return
	}

	usedIDs := current.IDBits
	assigned := make([]bool, current.PointerCount)

	for i := uint32(0); i < current.PointerCount; i++ {
		if current.IDBits.HasBit(current.Pointers[i].ID) {
			assigned[i] = true
		}
	}

	for i := uint32(0); i < current.PointerCount; i++ {
		if assigned[i] {
			continue
		}
		id := closestUnusedID(last, current.Pointers[i], usedIDs)
		current.Pointers[i].ID = id
		current.IDToIndex[id] = i
		current.IDBits.MarkBit(id)
		usedIDs.MarkBit(id)
		assigned[i] = true
	}

	for i := uint32(0); i < current.PointerCount; i++ {
		id := current.Pointers[i].ID
		current.IDToIndex[id] = i
	}
}

// closestUnusedID finds, among ids present in last but not in used, the one
// whose last known position is nearest to p. If last carries no usable
// history it returns the lowest id not in used.
func closestUnusedID(last *device.TouchData, p device.Pointer, used bitset.Set32) uint32 {
	bestID := uint32(0)
	bestDist := int64(-1)
	found := false

	for id := uint32(0); id <= device.MaxPointerID; id++ {
		if !last.IDBits.HasBit(id) || used.HasBit(id) {
			continue
		}
		lp := last.Pointers[last.IDToIndex[id]]
		dx := int64(lp.X - p.X)
		dy := int64(lp.Y - p.Y)
		dist := dx*dx + dy*dy
		if !found || dist < bestDist {
			found = true
			bestDist = dist
			bestID = id
		}
	}
	if found {
		return bestID
	}

	for id := uint32(0); id <= device.MaxPointerID; id++ {
		if !used.HasBit(id) {
			return id
		}
	}
	return 0
}
