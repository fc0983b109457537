package reactive

import (
	rerrors "github.com/vango-dev/rover/internal/errors"
)

// Sentinel errors. Returned errors carry the handle in their detail and
// match these with errors.Is.
var (
	// ErrStaleHandle is returned for a disposed (or never allocated) handle.
	ErrStaleHandle = rerrors.New("R001")

	// ErrReadOnly is returned when writing a derived value.
	ErrReadOnly = rerrors.New("R002")

	// ErrComputeFailed wraps an error returned (or a panic raised) by a
	// derived computation.
	ErrComputeFailed = rerrors.New("R003")

	// ErrCycle is returned when a derived value is read during its own
	// computation.
	ErrCycle = rerrors.New("R004")

	// ErrEffectFailed wraps an error returned (or a panic raised) by an
	// effect body. It is reported to the DiagnosticSink, never returned.
	ErrEffectFailed = rerrors.New("R005")

	// ErrCleanupFailed wraps a failing cleanup. Reported, never returned.
	ErrCleanupFailed = rerrors.New("R006")

	// ErrEffectStorm is reported when one drain exceeds the effect run budget.
	ErrEffectStorm = rerrors.New("R007")

	// ErrBatchUnderflow is returned by EndBatch without a matching BeginBatch.
	ErrBatchUnderflow = rerrors.New("R008")

	// ErrNotSerializable is returned when encoding an opaque reference or a
	// non-finite number.
	ErrNotSerializable = rerrors.New("R009")
)

func staleErr(id interface{ String() string }) error {
	if id == nil {
		return rerrors.New("R001").WithDetail("nil handle")
	}
	return rerrors.New("R001").WithDetail(id.String())
}
