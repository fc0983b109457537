package reactive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(rt *Runtime, src Source) DeriveFunc {
	return func() (Value, error) {
		v, err := rt.Read(src)
		if err != nil {
			return Absent(), err
		}
		n, _ := v.AsNumber()
		return Number(n * 2), nil
	}
}

func TestDerivedIsLazy(t *testing.T) {
	rt, _ := newTestRuntime(t)
	v := rt.CreateValue(Int(1))

	calls := 0
	d := rt.CreateDerived(func() (Value, error) {
		calls++
		return rt.ReadValue(v)
	})
	assert.Zero(t, calls, "not computed on creation")
	dirty, err := rt.IsDirty(d)
	require.NoError(t, err)
	assert.True(t, dirty)

	require.NoError(t, rt.WriteValue(v, Int(2)))
	assert.Zero(t, calls, "not computed on upstream write")

	assert.Equal(t, 2.0, number(rt.ReadDerived(d)))
	assert.Equal(t, 2.0, number(rt.ReadDerived(d)))
	assert.Equal(t, 1, calls, "cached while clean")

	require.NoError(t, rt.WriteValue(v, Int(3)))
	assert.Equal(t, 1, calls, "invalidated, not recomputed")
	dirty, _ = rt.IsDirty(d)
	assert.True(t, dirty)

	assert.Equal(t, 3.0, number(rt.ReadDerived(d)))
	assert.Equal(t, 2, calls)
}

func TestDerivedChain(t *testing.T) {
	rt, _ := newTestRuntime(t)
	v := rt.CreateValue(Int(1))
	d1 := rt.CreateDerived(double(rt, v))
	d2 := rt.CreateDerived(double(rt, d1))

	assert.Equal(t, 4.0, number(rt.ReadDerived(d2)))
	assert.Equal(t, []Source{d1}, rt.Sources(d2))
	assert.Equal(t, []Subscriber{d2}, rt.Subscribers(d1))

	require.NoError(t, rt.WriteValue(v, Int(5)))
	dirty, _ := rt.IsDirty(d2)
	assert.True(t, dirty, "transitively invalidated")
	assert.Equal(t, 20.0, number(rt.ReadDerived(d2)))
}

func TestDerivedDependencyCurrency(t *testing.T) {
	rt, _ := newTestRuntime(t)
	useA := rt.CreateValue(Bool(true))
	a := rt.CreateValue(Int(1))
	b := rt.CreateValue(Int(2))

	calls := 0
	d := rt.CreateDerived(func() (Value, error) {
		calls++
		flag, _ := rt.ReadValue(useA)
		if flag.Truthy() {
			return rt.ReadValue(a)
		}
		return rt.ReadValue(b)
	})

	assert.Equal(t, 1.0, number(rt.ReadDerived(d)))
	assert.Equal(t, []Source{useA, a}, rt.Sources(d))

	require.NoError(t, rt.WriteValue(useA, Bool(false)))
	assert.Equal(t, 2.0, number(rt.ReadDerived(d)))
	assert.Equal(t, []Source{useA, b}, rt.Sources(d))
	assert.Empty(t, rt.Subscribers(a))

	require.NoError(t, rt.WriteValue(a, Int(10)))
	dirty, _ := rt.IsDirty(d)
	assert.False(t, dirty, "a is no longer a dependency")

	require.NoError(t, rt.WriteValue(b, Int(20)))
	dirty, _ = rt.IsDirty(d)
	assert.True(t, dirty)
	assert.Equal(t, 20.0, number(rt.ReadDerived(d)))
	assert.Equal(t, 3, calls)
}

func TestDerivedFailureIsNotCached(t *testing.T) {
	rt, _ := newTestRuntime(t)
	v := rt.CreateValue(Int(0))
	boom := errors.New("division by zero")

	calls := 0
	d := rt.CreateDerived(func() (Value, error) {
		calls++
		x, _ := rt.ReadValue(v)
		n, _ := x.AsNumber()
		if n == 0 {
			return Absent(), boom
		}
		return Number(100 / n), nil
	})

	for i := 0; i < 2; i++ {
		_, err := rt.ReadDerived(d)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrComputeFailed)
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, 2, calls, "every read while failing retries")
	dirty, _ := rt.IsDirty(d)
	assert.True(t, dirty)

	require.NoError(t, rt.WriteValue(v, Int(4)))
	assert.Equal(t, 25.0, number(rt.ReadDerived(d)))
}

func TestDerivedFailurePropagatesToOuterDerived(t *testing.T) {
	rt, _ := newTestRuntime(t)
	v := rt.CreateValue(Int(0))
	inner := rt.CreateDerived(func() (Value, error) {
		x, _ := rt.ReadValue(v)
		if !x.Equal(Int(1)) {
			return Absent(), errors.New("not ready")
		}
		return Text("ready"), nil
	})
	outer := rt.CreateDerived(func() (Value, error) {
		return rt.ReadDerived(inner)
	})

	_, err := rt.ReadDerived(outer)
	assert.ErrorIs(t, err, ErrComputeFailed)
	assert.Equal(t, []Source{inner}, rt.Sources(outer), "failed read is still a dependency")

	require.NoError(t, rt.WriteValue(v, Int(1)))
	got, err := rt.ReadDerived(outer)
	require.NoError(t, err)
	assert.Equal(t, "ready", got.String())
}

func TestDerivedPanicIsRecovered(t *testing.T) {
	rt, _ := newTestRuntime(t)
	d := rt.CreateDerived(func() (Value, error) { panic("bad") })

	_, err := rt.ReadDerived(d)
	assert.ErrorIs(t, err, ErrComputeFailed)
	assert.Contains(t, err.Error(), "panic: bad")
	assert.False(t, rt.Tracking(), "tracking scope closed after panic")
	assert.Zero(t, rt.BatchDepth())
}

func TestDerivedSelfReadIsCycle(t *testing.T) {
	rt, _ := newTestRuntime(t)
	var d DerivedID
	d = rt.CreateDerived(func() (Value, error) {
		return rt.ReadDerived(d)
	})

	_, err := rt.ReadDerived(d)
	assert.ErrorIs(t, err, ErrComputeFailed)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestDerivedMutualCycle(t *testing.T) {
	rt, _ := newTestRuntime(t)
	var a, b DerivedID
	a = rt.CreateDerived(func() (Value, error) { return rt.ReadDerived(b) })
	b = rt.CreateDerived(func() (Value, error) { return rt.ReadDerived(a) })

	_, err := rt.ReadDerived(a)
	assert.ErrorIs(t, err, ErrCycle)
}

func TestDisposeDerived(t *testing.T) {
	rt, _ := newTestRuntime(t)
	v := rt.CreateValue(Int(1))
	d := rt.CreateDerived(double(rt, v))
	require.Equal(t, 2.0, number(rt.ReadDerived(d)))

	require.NoError(t, rt.DisposeDerived(d))
	_, err := rt.ReadDerived(d)
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.ErrorIs(t, rt.Write(d, Int(1)), ErrStaleHandle)
	assert.Empty(t, rt.Subscribers(v))
	assert.ErrorIs(t, rt.DisposeDerived(d), ErrStaleHandle)
}

func TestUntrack(t *testing.T) {
	rt, _ := newTestRuntime(t)
	a := rt.CreateValue(Int(1))
	b := rt.CreateValue(Int(2))
	d := rt.CreateDerived(func() (Value, error) {
		x, _ := rt.ReadValue(a)
		rt.Untrack(func() {
			assert.False(t, rt.Tracking())
			_, _ = rt.ReadValue(b)
		})
		assert.True(t, rt.Tracking())
		return x, nil
	})
	_, err := rt.ReadDerived(d)
	require.NoError(t, err)
	assert.Equal(t, []Source{a}, rt.Sources(d))
}

func TestStormInsideComputeIsReportedNotReturned(t *testing.T) {
	rt, diags := newTestRuntime(t, WithMaxEffectRuns(1))
	w := rt.CreateValue(Int(0))
	runs := 0
	for i := 0; i < 2; i++ {
		_, err := rt.CreateEffect(func() (Cleanup, error) {
			runs++
			_, err := rt.ReadValue(w)
			return nil, err
		})
		require.NoError(t, err)
	}
	runs = 0

	d := rt.CreateDerived(func() (Value, error) {
		return Int(7), rt.WriteValue(w, Int(1))
	})
	v, err := rt.ReadDerived(d)
	require.NoError(t, err)
	assert.Equal(t, 7.0, number(v, nil))

	assert.Equal(t, 1, runs)
	require.Len(t, *diags, 1)
	assert.Equal(t, DiagEffectStorm, (*diags)[0].Kind)
	assert.Len(t, rt.Pending(), 1)
}
