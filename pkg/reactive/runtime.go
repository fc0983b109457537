package reactive

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vango-dev/rover/internal/arena"
	rerrors "github.com/vango-dev/rover/internal/errors"
)

// DefaultMaxEffectRuns bounds the effect runs of a single drain.
const DefaultMaxEffectRuns = 10000

// Runtime owns one reactive world: the value store, derived values,
// effects, their dependency graph and the batch state.
//
// A Runtime is single-threaded. Every method must be called from the
// goroutine that owns it; none of them may be called concurrently. Several
// runtimes can coexist independently.
type Runtime struct {
	id       string
	logger   *slog.Logger
	sink     DiagnosticSink
	observer Observer

	// maxEffectRuns caps effect runs per drain; 0 disables the cap.
	maxEffectRuns int

	values  arena.Arena[valueCell]
	derived arena.Arena[derivedCell]
	effects arena.Arena[effectCell]

	graph   graph
	tracker tracker

	batchDepth int
	draining   bool
	pending    []EffectID
	pendingSet map[EffectID]struct{}
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger used for debug output and the default
// diagnostic sink.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithDiagnostics replaces the default log-based diagnostic sink.
func WithDiagnostics(sink DiagnosticSink) Option {
	return func(rt *Runtime) {
		rt.sink = sink
	}
}

// WithObserver installs instrumentation callbacks.
func WithObserver(obs Observer) Option {
	return func(rt *Runtime) {
		if obs != nil {
			rt.observer = obs
		}
	}
}

// WithMaxEffectRuns caps effect runs per drain. n <= 0 disables the cap.
func WithMaxEffectRuns(n int) Option {
	return func(rt *Runtime) {
		if n < 0 {
			n = 0
		}
		rt.maxEffectRuns = n
	}
}

// WithID sets the runtime instance id used in logs and metrics.
func WithID(id string) Option {
	return func(rt *Runtime) {
		if id != "" {
			rt.id = id
		}
	}
}

// New creates an empty Runtime.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		id:            uuid.Must(uuid.NewV7()).String(),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:      NopObserver{},
		maxEffectRuns: DefaultMaxEffectRuns,
		graph:         newGraph(),
		pendingSet:    make(map[EffectID]struct{}),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.sink == nil {
		rt.sink = logSink{logger: rt.logger}
	}
	rt.logger = rt.logger.With(slog.String("runtime", rt.id))
	return rt
}

// ID returns the runtime instance id.
func (rt *Runtime) ID() string {
	return rt.id
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Close disposes every effect (running final cleanups) and drops all state.
// Handles issued before Close are stale afterwards, also once the runtime
// is reused.
func (rt *Runtime) Close() {
	var ids []EffectID
	rt.effects.Each(func(h arena.Handle, _ *effectCell) {
		ids = append(ids, EffectID{h: h})
	})
	for _, id := range ids {
		if err := rt.DisposeEffect(id); err != nil {
			rt.logger.Warn("dispose effect on close",
				slog.String("effect", id.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	rt.values.Reset()
	rt.derived.Reset()
	rt.effects.Reset()
	rt.graph = newGraph()
	rt.tracker = tracker{}
	rt.batchDepth = 0
	rt.pending = nil
	rt.pendingSet = make(map[EffectID]struct{})
	rt.logger.Debug("runtime closed", slog.Int("effects", len(ids)))
}

// Stats is a point-in-time summary of a Runtime.
type Stats struct {
	ID             string `json:"id"`
	Values         int    `json:"values"`
	Derived        int    `json:"derived"`
	Effects        int    `json:"effects"`
	Edges          int    `json:"edges"`
	PendingEffects int    `json:"pendingEffects"`
	BatchDepth     int    `json:"batchDepth"`
}

// Stats returns live counts for inspection.
func (rt *Runtime) Stats() Stats {
	return Stats{
		ID:             rt.id,
		Values:         rt.values.Len(),
		Derived:        rt.derived.Len(),
		Effects:        rt.effects.Len(),
		Edges:          rt.graph.edges(),
		PendingEffects: len(rt.pending),
		BatchDepth:     rt.batchDepth,
	}
}

// Subscribers returns who currently depends on src, in subscription order.
func (rt *Runtime) Subscribers(src Source) []Subscriber {
	keys := rt.graph.subscribersOf(src.sourceKey())
	out := make([]Subscriber, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.subscriber())
	}
	return out
}

// Sources returns what sub read during its last evaluation, in read order.
func (rt *Runtime) Sources(sub Subscriber) []Source {
	keys := rt.graph.sourcesOf(sub.subscriberKey())
	out := make([]Source, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.source())
	}
	return out
}

// Untrack runs fn without recording reads into the current evaluation.
func (rt *Runtime) Untrack(fn func()) {
	mark := rt.tracker.suspend()
	defer rt.tracker.end(mark)
	fn()
}

// Tracking reports whether reads are currently being recorded.
func (rt *Runtime) Tracking() bool {
	return rt.tracker.active()
}

// Read reads any source: a value or a derived value.
func (rt *Runtime) Read(src Source) (Value, error) {
	switch id := src.(type) {
	case ValueID:
		return rt.ReadValue(id)
	case DerivedID:
		return rt.ReadDerived(id)
	default:
		return Absent(), staleErr(src)
	}
}

// Write writes any source. Derived values are read-only: writing one fails
// with ErrReadOnly and changes nothing.
func (rt *Runtime) Write(src Source, v Value) error {
	switch id := src.(type) {
	case ValueID:
		return rt.WriteValue(id, v)
	case DerivedID:
		if !rt.derived.Contains(id.h) {
			return staleErr(id)
		}
		return rerrors.New("R002").WithDetail(id.String())
	default:
		return staleErr(src)
	}
}
