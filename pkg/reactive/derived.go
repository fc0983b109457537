package reactive

import (
	"fmt"
	"time"

	rerrors "github.com/vango-dev/rover/internal/errors"
)

// DeriveFunc computes a derived value. Reads performed while it runs become
// the derived value's dependencies.
type DeriveFunc func() (Value, error)

type derivedCell struct {
	compute DeriveFunc
	cached  Value

	// dirty means cached is not valid. A new cell starts dirty.
	dirty bool
	// relay marks a dirty cell that must still pass the next invalidation
	// on: its last evaluation failed, or a reader failed before pulling it.
	relay bool
	// computing is set while compute runs; a read then is a cycle.
	computing bool
}

// CreateDerived registers a lazily evaluated computation. fn is not called
// until the first read.
func (rt *Runtime) CreateDerived(fn DeriveFunc) DerivedID {
	return DerivedID{h: rt.derived.Alloc(derivedCell{compute: fn, dirty: true})}
}

// ReadDerived returns the value of id, recomputing it first when dirty.
// Inside an outer evaluation id is recorded as a dependency, also when the
// computation fails, so the outer consumer hears about the fix.
//
// A failing computation is not cached: every read while the cause persists
// fails again with an error matching ErrComputeFailed.
//
// Effects triggered by writes made inside the computation run before
// ReadDerived returns. If they exceed the run budget the storm goes to the
// DiagnosticSink only; the read itself still succeeds.
func (rt *Runtime) ReadDerived(id DerivedID) (Value, error) {
	cell, ok := rt.derived.Get(id.h)
	if !ok {
		return Absent(), staleErr(id)
	}
	if cell.computing {
		return Absent(), rerrors.New("R004").WithDetail(id.String())
	}

	if cell.dirty {
		if err := rt.computeDerived(id); err != nil {
			rt.tracker.record(id.sourceKey())
			return Absent(), err
		}
		if cell, ok = rt.derived.Get(id.h); !ok {
			return Absent(), staleErr(id)
		}
	}

	rt.tracker.record(id.sourceKey())
	return cell.cached, nil
}

// IsDirty reports whether id will recompute on its next read.
func (rt *Runtime) IsDirty(id DerivedID) (bool, error) {
	cell, ok := rt.derived.Get(id.h)
	if !ok {
		return false, staleErr(id)
	}
	return cell.dirty, nil
}

// DisposeDerived frees id and drops its edges in both directions.
func (rt *Runtime) DisposeDerived(id DerivedID) error {
	if _, ok := rt.derived.Release(id.h); !ok {
		return staleErr(id)
	}
	rt.graph.clearSubscriber(id.subscriberKey())
	rt.graph.clearSource(id.sourceKey())
	return nil
}

func (rt *Runtime) computeDerived(id DerivedID) error {
	cell, _ := rt.derived.Get(id.h)
	cell.computing = true
	compute := cell.compute

	start := time.Now()
	rt.BeginBatch()
	mark := rt.tracker.begin(id.subscriberKey())
	v, err := callCompute(compute)
	reads := rt.liveKeys(rt.tracker.end(mark))
	elapsed := time.Since(start)

	// compute may have allocated (moving the arena) or disposed id.
	cell, ok := rt.derived.Get(id.h)
	if ok {
		cell.computing = false
		k := id.subscriberKey()
		if err != nil {
			err = rerrors.New("R003").WithDetail(id.String()).Wrap(err)
			cell.relay = true
			rt.keepSubscriptions(k, reads)
		} else {
			cell.cached = v
			cell.dirty = false
			cell.relay = false
			rt.graph.replaceSubscriptions(k, reads)
		}
	} else if err != nil {
		err = rerrors.New("R003").WithDetail(id.String()).Wrap(err)
	}
	rt.observer.DerivedComputed(id, elapsed, err)

	// Writes made by compute run their effects here; storms are reported
	// through the diagnostic sink.
	_ = rt.EndBatch()
	return err
}

func callCompute(fn DeriveFunc) (v Value, err error) {
	if fn == nil {
		return Absent(), nil
	}
	defer func() {
		if r := recover(); r != nil {
			v, err = Absent(), fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// keepSubscriptions adds reads to sub's sources without dropping any, for
// an evaluation that failed part way. Dirty derived sources it never pulled
// are flagged to relay the next invalidation, so sub is reached again.
func (rt *Runtime) keepSubscriptions(sub key, reads []key) {
	kept := union(rt.graph.sourcesOf(sub), reads)
	rt.graph.replaceSubscriptions(sub, kept)
	for _, src := range kept {
		if src.kind != keyDerived {
			continue
		}
		if cell, ok := rt.derived.Get(src.h); ok && cell.dirty {
			cell.relay = true
		}
	}
}

// liveKeys drops keys whose handle was freed during the evaluation.
func (rt *Runtime) liveKeys(keys []key) []key {
	out := keys[:0]
	for _, k := range keys {
		if rt.alive(k) {
			out = append(out, k)
		}
	}
	return out
}

func (rt *Runtime) alive(k key) bool {
	switch k.kind {
	case keyValue:
		return rt.values.Contains(k.h)
	case keyDerived:
		return rt.derived.Contains(k.h)
	case keyEffect:
		return rt.effects.Contains(k.h)
	default:
		return false
	}
}
