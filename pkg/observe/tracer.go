package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/rover/pkg/reactive"
)

// Default tracer name for rover runtimes.
const defaultTracerName = "rover"

// TracerConfig configures the OpenTelemetry observer.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "rover").
	TracerName string

	// Provider is the tracer provider.
	// Default: the global provider from otel.GetTracerProvider.
	Provider trace.TracerProvider

	// RuntimeID is added to every span as rover.runtime.
	RuntimeID string
}

// TracerOption configures a Tracer.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(provider trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = provider
	}
}

// WithRuntimeID tags spans with the runtime instance id.
func WithRuntimeID(id string) TracerOption {
	return func(c *TracerConfig) {
		c.RuntimeID = id
	}
}

// Tracer is a reactive.Observer that records one span per derived
// evaluation, effect run and batch drain. Observers are called after the
// work is done, so spans are back-dated with explicit timestamps.
type Tracer struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

var _ reactive.Observer = (*Tracer)(nil)

// NewTracer creates a tracing observer.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Provider == nil {
		config.Provider = otel.GetTracerProvider()
	}

	t := &Tracer{tracer: config.Provider.Tracer(config.TracerName)}
	if config.RuntimeID != "" {
		t.attrs = append(t.attrs, attribute.String("rover.runtime", config.RuntimeID))
	}
	return t
}

// ValueWritten implements reactive.Observer. Writes are too frequent to
// trace individually.
func (t *Tracer) ValueWritten(reactive.ValueID, bool) {}

// DerivedComputed implements reactive.Observer.
func (t *Tracer) DerivedComputed(id reactive.DerivedID, elapsed time.Duration, err error) {
	t.record("reactive.derived", elapsed, err, attribute.String("rover.derived", id.String()))
}

// EffectRan implements reactive.Observer.
func (t *Tracer) EffectRan(id reactive.EffectID, elapsed time.Duration, err error) {
	t.record("reactive.effect", elapsed, err, attribute.String("rover.effect", id.String()))
}

// BatchDrained implements reactive.Observer.
func (t *Tracer) BatchDrained(runs int, elapsed time.Duration) {
	t.record("reactive.drain", elapsed, nil, attribute.Int("rover.drain.runs", runs))
}

func (t *Tracer) record(name string, elapsed time.Duration, err error, attrs ...attribute.KeyValue) {
	end := time.Now()
	_, span := t.tracer.Start(context.Background(), name,
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.attrs...),
		trace.WithAttributes(attrs...),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(end))
}
