package device

// multiTouchField is one bit per absorbed axis, per pointer slot, in the
// multitouch accumulator.
type multiTouchField uint32

const (
	FieldAbsMTPositionX multiTouchField = 1 << iota
	FieldAbsMTPositionY
	FieldAbsMTTouchMajor
	FieldAbsMTWidthMajor
	FieldAbsMTTrackingID
)

// RequiredMultiTouchFields are the fields every pointer must carry to
// survive onMultiTouchScreenStateChanged; a pointer missing any of these
// is dropped.
const RequiredMultiTouchFields = FieldAbsMTPositionX | FieldAbsMTPositionY |
	FieldAbsMTTouchMajor | FieldAbsMTWidthMajor

// MultiTouchPointerAccumulator absorbs one pointer slot's fragmented
// ABS_MT_* events between SYN_MT_REPORT markers.
type MultiTouchPointerAccumulator struct {
	Fields          multiTouchField
	AbsMTPositionX  int32
	AbsMTPositionY  int32
	AbsMTTouchMajor int32
	AbsMTWidthMajor int32
	AbsMTTrackingID int32
}

func (p *MultiTouchPointerAccumulator) clear() { *p = MultiTouchPointerAccumulator{} }

// MultiTouchAccumulator absorbs an entire multitouch frame: one pointer
// slot at a time, advanced at each SYN_MT_REPORT.
type MultiTouchAccumulator struct {
	Pointers     [MaxPointers + 1]MultiTouchPointerAccumulator
	PointerCount uint32

	// Touched is set by AdvanceSlot whenever a SYN_MT_REPORT is seen, even
	// an empty one reporting zero contacts. PointerCount alone cannot
	// distinguish "no MT report this frame" from "MT report said zero
	// contacts" — the latter must still flow through to clear every
	// pointer downstream, so Dirty keys off this instead.
	Touched bool
}

// Dirty reports whether any SYN_MT_REPORT has been seen since the last Clear.
func (a *MultiTouchAccumulator) Dirty() bool { return a.Touched }

// Clear resets the accumulator after its data has been consumed.
func (a *MultiTouchAccumulator) Clear() {
	a.PointerCount = 0
	a.Touched = false
	for i := range a.Pointers {
		a.Pointers[i].clear()
	}
}

// AdvanceSlot implements the SYN_MT_REPORT boundary from the accumulator
// protocol: if the current slot has any fields set, advance PointerCount
// (capped at MaxPointers; overflow is reported by returning true so the
// caller can log it, and the overflowing slot is dropped), then clear the
// next slot.
func (a *MultiTouchAccumulator) AdvanceSlot() (overflowed bool) {
	a.Touched = true
	idx := a.PointerCount
	if a.Pointers[idx].Fields == 0 {
		a.Pointers[idx].clear()
		return false
	}
	if idx == MaxPointers {
		a.Pointers[idx].clear()
		return true
	}
	a.PointerCount = idx + 1
	a.Pointers[a.PointerCount].clear()
	return false
}

// MultiTouchState is the full per-device state for a multitouch digitizer.
type MultiTouchState struct {
	Accumulator MultiTouchAccumulator
}
