package reactive

import (
	"fmt"
	"time"

	rerrors "github.com/vango-dev/rover/internal/errors"
)

// Cleanup undoes the side effects of one effect run. It is called before
// the next run and once more when the effect is disposed.
type Cleanup func() error

// EffectFunc is an effect body. Reads performed while it runs become the
// effect's dependencies. It may return a Cleanup.
type EffectFunc func() (Cleanup, error)

type effectCell struct {
	body    EffectFunc
	cleanup Cleanup
}

// CreateEffect registers fn and runs it once before returning. fn reruns
// whenever something it read changes. Failures of fn are reported to the
// DiagnosticSink, not returned; the error result only reports a storm in
// the drain that follows the first run.
func (rt *Runtime) CreateEffect(fn EffectFunc) (EffectID, error) {
	id := EffectID{h: rt.effects.Alloc(effectCell{body: fn})}
	rt.BeginBatch()
	rt.runEffect(id)
	return id, rt.EndBatch()
}

// DisposeEffect runs the latest cleanup of id, removes its subscriptions and
// frees it. A pending rerun is cancelled.
func (rt *Runtime) DisposeEffect(id EffectID) error {
	cell, ok := rt.effects.Release(id.h)
	if !ok {
		return staleErr(id)
	}
	rt.graph.clearSubscriber(id.subscriberKey())
	rt.dequeue(id)

	if cell.cleanup == nil {
		return nil
	}
	rt.BeginBatch()
	rt.callCleanup(id, cell.cleanup)
	return rt.EndBatch()
}

// runEffect runs the previous cleanup, then the body under a fresh tracking
// scope, and replaces the effect's subscriptions with what the body read.
func (rt *Runtime) runEffect(id EffectID) {
	cell, ok := rt.effects.Get(id.h)
	if !ok {
		return
	}
	body := cell.body
	if prev := cell.cleanup; prev != nil {
		cell.cleanup = nil
		rt.callCleanup(id, prev)
		if _, ok := rt.effects.Get(id.h); !ok {
			return
		}
	}

	start := time.Now()
	mark := rt.tracker.begin(id.subscriberKey())
	cleanup, err := callEffect(body)
	reads := rt.liveKeys(rt.tracker.end(mark))
	elapsed := time.Since(start)

	if err != nil {
		err = rerrors.New("R005").WithDetail(id.String()).Wrap(err)
		rt.sink.Report(Diagnostic{Kind: DiagEffectFailed, Effect: id, Err: err})
	}
	rt.observer.EffectRan(id, elapsed, err)

	cell, ok = rt.effects.Get(id.h)
	if !ok {
		// Disposed by its own body: nothing will call this cleanup later.
		if cleanup != nil {
			rt.callCleanup(id, cleanup)
		}
		return
	}
	cell.cleanup = cleanup

	k := id.subscriberKey()
	if err != nil {
		rt.keepSubscriptions(k, reads)
		return
	}
	rt.graph.replaceSubscriptions(k, reads)
}

// callCleanup runs c untracked and reports its failure.
func (rt *Runtime) callCleanup(id EffectID, c Cleanup) {
	mark := rt.tracker.suspend()
	err := safeCleanup(c)
	rt.tracker.end(mark)
	if err != nil {
		rt.sink.Report(Diagnostic{
			Kind:   DiagCleanupFailed,
			Effect: id,
			Err:    rerrors.New("R006").WithDetail(id.String()).Wrap(err),
		})
	}
}

func callEffect(fn EffectFunc) (c Cleanup, err error) {
	if fn == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func safeCleanup(c Cleanup) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c()
}
