package reactive_test

import (
	"fmt"

	"github.com/vango-dev/rover/pkg/reactive"
)

func Example() {
	rt := reactive.New()
	defer rt.Close()

	count := rt.CreateValue(reactive.Int(0))
	double := rt.CreateDerived(func() (reactive.Value, error) {
		v, err := rt.ReadValue(count)
		if err != nil {
			return reactive.Absent(), err
		}
		n, _ := v.AsNumber()
		return reactive.Number(n * 2), nil
	})
	_, _ = rt.CreateEffect(func() (reactive.Cleanup, error) {
		v, err := rt.ReadDerived(double)
		if err != nil {
			return nil, err
		}
		fmt.Println("double:", v)
		return nil, nil
	})

	_ = rt.Batch(func() {
		_ = rt.WriteValue(count, reactive.Int(5))
		_ = rt.WriteValue(count, reactive.Int(5))
		_ = rt.WriteValue(count, reactive.Int(7))
	})
	// Output:
	// double: 0
	// double: 14
}
