package reactive

import "time"

// Observer receives instrumentation callbacks from a Runtime. Callbacks run
// synchronously on the runtime's goroutine and must not call back into it.
type Observer interface {
	// ValueWritten is called for every write; changed is false for writes
	// rejected by the equality rule.
	ValueWritten(id ValueID, changed bool)

	// DerivedComputed is called after each evaluation of a derived value.
	DerivedComputed(id DerivedID, elapsed time.Duration, err error)

	// EffectRan is called after each effect run, including the first.
	EffectRan(id EffectID, elapsed time.Duration, err error)

	// BatchDrained is called after the outermost batch drains.
	BatchDrained(runs int, elapsed time.Duration)
}

// NopObserver ignores every callback.
type NopObserver struct{}

func (NopObserver) ValueWritten(ValueID, bool)                      {}
func (NopObserver) DerivedComputed(DerivedID, time.Duration, error) {}
func (NopObserver) EffectRan(EffectID, time.Duration, error)        {}
func (NopObserver) BatchDrained(int, time.Duration)                 {}
