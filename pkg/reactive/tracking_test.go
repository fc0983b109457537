package reactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsInnermostScope(t *testing.T) {
	var tr tracker
	assert.False(t, tr.active())
	tr.record(vk(1)) // no scope: ignored

	outer := tr.begin(ek(1))
	tr.record(vk(1))
	inner := tr.begin(ek(2))
	tr.record(vk(2))
	tr.record(vk(2))
	assert.True(t, tr.evaluating(ek(1)))
	assert.Equal(t, []key{vk(2)}, tr.end(inner))

	tr.record(vk(3))
	assert.Equal(t, []key{vk(1), vk(3)}, tr.end(outer))
	assert.False(t, tr.active())
}

func TestTrackerSuspend(t *testing.T) {
	var tr tracker
	outer := tr.begin(ek(1))
	mark := tr.suspend()
	assert.False(t, tr.active())
	tr.record(vk(1))
	tr.end(mark)
	assert.True(t, tr.active())
	assert.Empty(t, tr.end(outer))
}

func TestTrackerEndDiscardsAbandonedScopes(t *testing.T) {
	var tr tracker
	outer := tr.begin(ek(1))
	tr.begin(ek(2)) // never ended, as after a recovered panic
	tr.record(vk(1))
	assert.Nil(t, tr.end(outer))
	assert.Empty(t, tr.stack)
	assert.Nil(t, tr.end(5))
}

func TestTrackerIgnoresSelfReads(t *testing.T) {
	var tr tracker
	owner := key{kind: keyDerived, h: vk(1).h}
	mark := tr.begin(owner)
	tr.record(owner)
	assert.Empty(t, tr.end(mark))
}
