package reactive

import (
	"context"
	"log/slog"
)

// DiagnosticKind classifies a failure recovered at the effect boundary.
type DiagnosticKind uint8

const (
	// DiagEffectFailed: an effect body returned an error or panicked.
	DiagEffectFailed DiagnosticKind = iota + 1
	// DiagCleanupFailed: a cleanup returned an error or panicked.
	DiagCleanupFailed
	// DiagEffectStorm: a drain hit the effect run budget.
	DiagEffectStorm
)

// String returns a short name for the kind.
func (k DiagnosticKind) String() string {
	switch k {
	case DiagEffectFailed:
		return "effect_failed"
	case DiagCleanupFailed:
		return "cleanup_failed"
	case DiagEffectStorm:
		return "effect_storm"
	default:
		return "unknown"
	}
}

// Diagnostic describes one recovered failure.
type Diagnostic struct {
	Kind   DiagnosticKind
	Effect EffectID
	Err    error
}

// DiagnosticSink receives failures that the scheduler recovers from so the
// drain can continue.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// DiagnosticFunc adapts a function to DiagnosticSink.
type DiagnosticFunc func(Diagnostic)

// Report implements DiagnosticSink.
func (f DiagnosticFunc) Report(d Diagnostic) { f(d) }

// logSink is the default sink: one warning per diagnostic.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Report(d Diagnostic) {
	attrs := []slog.Attr{
		slog.String("kind", d.Kind.String()),
	}
	if !d.Effect.IsZero() {
		attrs = append(attrs, slog.String("effect", d.Effect.h.String()))
	}
	if d.Err != nil {
		attrs = append(attrs, slog.String("error", d.Err.Error()))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelWarn, "reactive diagnostic", attrs...)
}
