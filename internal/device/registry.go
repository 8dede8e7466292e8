package device

// Registry maps device id to Device. The reader is its only mutator and
// the only reader; nothing else may hold a Device reference across calls.
type Registry struct {
	byID map[int32]*Device
}

// NewRegistry returns an empty device registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[int32]*Device)}
}

// Add inserts device under its own ID. Callers must check Lookup first;
// Add does not guard against overwriting an existing entry.
func (r *Registry) Add(d *Device) {
	r.byID[d.ID] = d
}

// Remove deletes the device with the given id, if present.
func (r *Registry) Remove(id int32) {
	delete(r.byID, id)
}

// Lookup returns the device with the given id, or nil.
func (r *Registry) Lookup(id int32) *Device {
	return r.byID[id]
}

// LookupNonIgnored returns the device with the given id, unless it is nil
// or ignored.
func (r *Registry) LookupNonIgnored(id int32) *Device {
	d := r.byID[id]
	if d == nil || d.Ignored {
		return nil
	}
	return d
}

// All returns every registered device, in no particular order.
func (r *Registry) All() []*Device {
	out := make([]*Device, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, d)
	}
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	return len(r.byID)
}
