package reactive

import (
	"log/slog"
	"time"

	rerrors "github.com/vango-dev/rover/internal/errors"
)

// BeginBatch opens a batch. Effects invalidated while any batch is open are
// queued and run once each when the outermost batch ends.
func (rt *Runtime) BeginBatch() {
	rt.batchDepth++
}

// EndBatch closes the innermost batch. Closing the outermost batch drains
// the pending effects in the order they were first queued. The error is
// ErrBatchUnderflow without an open batch, or ErrEffectStorm when the drain
// hit the run budget.
func (rt *Runtime) EndBatch() error {
	if rt.batchDepth == 0 {
		return rerrors.New("R008")
	}
	rt.batchDepth--
	if rt.batchDepth > 0 || rt.draining {
		return nil
	}
	return rt.drain()
}

// Batch runs fn inside a batch. If fn panics the batch is closed without
// draining and the panic continues.
func (rt *Runtime) Batch(fn func()) error {
	rt.BeginBatch()
	done := false
	defer func() {
		if !done {
			rt.batchDepth--
		}
	}()
	fn()
	done = true
	return rt.EndBatch()
}

// InBatch reports whether a batch is open or being drained.
func (rt *Runtime) InBatch() bool {
	return rt.batchDepth > 0 || rt.draining
}

// BatchDepth returns the number of open batches.
func (rt *Runtime) BatchDepth() int {
	return rt.batchDepth
}

// Pending returns the queued effects in run order.
func (rt *Runtime) Pending() []EffectID {
	out := make([]EffectID, len(rt.pending))
	copy(out, rt.pending)
	return out
}

// enqueue queues id once per drain.
func (rt *Runtime) enqueue(id EffectID) {
	if _, ok := rt.pendingSet[id]; ok {
		return
	}
	rt.pendingSet[id] = struct{}{}
	rt.pending = append(rt.pending, id)
}

func (rt *Runtime) dequeue(id EffectID) {
	if _, ok := rt.pendingSet[id]; !ok {
		return
	}
	delete(rt.pendingSet, id)
	for i, p := range rt.pending {
		if p == id {
			rt.pending = append(rt.pending[:i], rt.pending[i+1:]...)
			break
		}
	}
}

// drain runs pending effects until none are left. Effects queued by the runs
// themselves join the same drain.
func (rt *Runtime) drain() error {
	if len(rt.pending) == 0 {
		return nil
	}
	rt.draining = true
	defer func() { rt.draining = false }()

	start := time.Now()
	runs := 0
	for len(rt.pending) > 0 {
		if rt.maxEffectRuns > 0 && runs >= rt.maxEffectRuns {
			err := rerrors.New("R007").WithDetailf("%d runs, %d effects still pending", runs, len(rt.pending))
			rt.sink.Report(Diagnostic{Kind: DiagEffectStorm, Err: err})
			rt.observer.BatchDrained(runs, time.Since(start))
			return err
		}
		id := rt.pending[0]
		rt.pending = rt.pending[1:]
		delete(rt.pendingSet, id)
		rt.runEffect(id)
		runs++
	}
	rt.pending = nil

	elapsed := time.Since(start)
	rt.observer.BatchDrained(runs, elapsed)
	rt.logger.Debug("batch drained",
		slog.Int("runs", runs),
		slog.Duration("elapsed", elapsed),
	)
	return nil
}
