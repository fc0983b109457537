// Package reactive is a single-threaded dependency-tracking engine.
//
// A Runtime holds three kinds of nodes:
//
//   - values: mutable cells written with WriteValue,
//   - derived values: memoized computations, evaluated lazily on read,
//   - effects: reactions that rerun eagerly after their inputs change.
//
// Dependencies are discovered while derived values and effects run: every
// read inside the evaluation is recorded, and after the evaluation the
// subscriber's edges are replaced with exactly that set.
//
// Writes invalidate downstream derived values without evaluating them and
// queue downstream effects. Queued effects run when the outermost batch
// ends; a write outside an explicit batch is its own batch.
//
//	rt := reactive.New()
//	count := rt.CreateValue(reactive.Int(0))
//	double := rt.CreateDerived(func() (reactive.Value, error) {
//		v, err := rt.ReadValue(count)
//		if err != nil {
//			return reactive.Absent(), err
//		}
//		n, _ := v.AsNumber()
//		return reactive.Number(n * 2), nil
//	})
//	rt.CreateEffect(func() (reactive.Cleanup, error) {
//		v, err := rt.ReadDerived(double)
//		fmt.Println(v, err)
//		return nil, nil
//	})
//	rt.WriteValue(count, reactive.Int(7)) // prints 14 <nil>
//
// Handles are generational: a handle whose slot was freed and reused fails
// with ErrStaleHandle instead of aliasing the new occupant.
package reactive
