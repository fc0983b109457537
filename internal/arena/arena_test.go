package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocAndGet(t *testing.T) {
	var a Arena[string]
	h := a.Alloc("hello")

	v, ok := a.Get(h)
	require.True(t, ok)
	assert.Equal(t, "hello", *v)
	assert.Equal(t, 1, a.Len())
	assert.False(t, h.IsZero())
}

func TestZeroHandleNeverResolves(t *testing.T) {
	var a Arena[int]
	a.Alloc(1)

	_, ok := a.Get(Handle{})
	assert.False(t, ok)
}

func TestReleaseReusesSlotWithNewGeneration(t *testing.T) {
	var a Arena[int]
	h1 := a.Alloc(1)
	_ = a.Alloc(2)

	item, ok := a.Release(h1)
	require.True(t, ok)
	assert.Equal(t, 1, item)
	assert.Equal(t, 1, a.Len())

	h3 := a.Alloc(3)
	assert.Equal(t, h1.Index, h3.Index, "slot should be reused")
	assert.NotEqual(t, h1.Gen, h3.Gen, "generation should change")

	_, ok = a.Get(h1)
	assert.False(t, ok, "stale handle must not resolve to the new occupant")

	v, ok := a.Get(h3)
	require.True(t, ok)
	assert.Equal(t, 3, *v)
	assert.Equal(t, 2, a.Cap())
}

func TestDoubleReleaseFails(t *testing.T) {
	var a Arena[int]
	h := a.Alloc(1)

	_, ok := a.Release(h)
	require.True(t, ok)
	_, ok = a.Release(h)
	assert.False(t, ok)
	assert.Equal(t, 0, a.Len())
}

func TestEachVisitsLiveItemsInSlotOrder(t *testing.T) {
	var a Arena[string]
	a.Alloc("a")
	b := a.Alloc("b")
	a.Alloc("c")
	a.Release(b)

	var got []string
	a.Each(func(_ Handle, s *string) {
		got = append(got, *s)
	})
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestGetOutOfRange(t *testing.T) {
	var a Arena[int]
	_, ok := a.Get(Handle{Index: 42, Gen: 1})
	assert.False(t, ok)
}

func TestResetInvalidatesEveryHandle(t *testing.T) {
	var a Arena[int]
	h1 := a.Alloc(1)
	h2 := a.Alloc(2)
	h3 := a.Alloc(3)
	_, ok := a.Release(h2)
	require.True(t, ok)

	a.Reset()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 3, a.Cap())

	fresh := a.Alloc(99)
	assert.Equal(t, uint32(0), fresh.Index, "lowest slot is reused first")
	for _, old := range []Handle{h1, h2, h3} {
		_, ok := a.Get(old)
		assert.False(t, ok, "handle %s resolved after Reset", old)
	}
	v, ok := a.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, 99, *v)

	a.Alloc(100)
	a.Alloc(101)
	assert.Equal(t, 3, a.Cap())
	a.Alloc(102)
	assert.Equal(t, 4, a.Cap())
}
