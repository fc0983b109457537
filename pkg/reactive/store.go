package reactive

// valueCell is one slot of the value store.
type valueCell struct {
	value   Value
	version uint64
}

// CreateValue allocates a state cell holding initial. Freed slots are reused
// under a new generation.
func (rt *Runtime) CreateValue(initial Value) ValueID {
	return ValueID{h: rt.values.Alloc(valueCell{value: initial})}
}

// ReadValue returns the current value of id. Inside an evaluation (derived
// computation or effect body) the read is recorded as a dependency.
func (rt *Runtime) ReadValue(id ValueID) (Value, error) {
	cell, ok := rt.values.Get(id.h)
	if !ok {
		return Absent(), staleErr(id)
	}
	rt.tracker.record(id.sourceKey())
	return cell.value, nil
}

// Peek returns the current value of id without recording a dependency.
func (rt *Runtime) Peek(id ValueID) (Value, error) {
	cell, ok := rt.values.Get(id.h)
	if !ok {
		return Absent(), staleErr(id)
	}
	return cell.value, nil
}

// Version returns how many committed changes id has seen.
func (rt *Runtime) Version(id ValueID) (uint64, error) {
	cell, ok := rt.values.Get(id.h)
	if !ok {
		return 0, staleErr(id)
	}
	return cell.version, nil
}

// WriteValue stores v in id. A write equal to the current value (see
// Value.Equal) is a no-op. Otherwise the version is bumped, dependents are
// invalidated and, unless a batch is open, pending effects run before
// WriteValue returns.
func (rt *Runtime) WriteValue(id ValueID, v Value) error {
	cell, ok := rt.values.Get(id.h)
	if !ok {
		return staleErr(id)
	}
	if cell.value.Equal(v) {
		rt.observer.ValueWritten(id, false)
		return nil
	}

	cell.value = v
	cell.version++
	rt.observer.ValueWritten(id, true)

	rt.BeginBatch()
	rt.propagate(id.sourceKey())
	return rt.EndBatch()
}

// Update writes fn(current) to id. The current value is read untracked.
func (rt *Runtime) Update(id ValueID, fn func(Value) Value) error {
	cur, err := rt.Peek(id)
	if err != nil {
		return err
	}
	return rt.WriteValue(id, fn(cur))
}

// DisposeValue frees id. Subscribers lose the edge; any later access through
// id fails with ErrStaleHandle.
func (rt *Runtime) DisposeValue(id ValueID) error {
	if _, ok := rt.values.Release(id.h); !ok {
		return staleErr(id)
	}
	rt.graph.clearSource(id.sourceKey())
	return nil
}

// propagate invalidates everything downstream of src. Derived values are
// only marked dirty (never evaluated); effects are queued on the current
// batch.
func (rt *Runtime) propagate(src key) {
	for _, sub := range rt.graph.subscribersOf(src) {
		switch sub.kind {
		case keyDerived:
			cell, ok := rt.derived.Get(sub.h)
			if !ok {
				continue
			}
			// A dirty cell has already told its readers, unless one of
			// them failed without pulling it.
			if cell.dirty && !cell.relay {
				continue
			}
			cell.dirty = true
			cell.relay = false
			rt.propagate(sub)
		case keyEffect:
			rt.enqueue(EffectID{h: sub.h})
		}
	}
}
