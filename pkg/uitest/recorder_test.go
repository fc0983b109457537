package uitest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/rover/pkg/reactive"
	"github.com/vango-dev/rover/pkg/ui"
)

type scene struct {
	rt    *reactive.Runtime
	reg   *ui.Registry
	rec   *Recorder
	count reactive.ValueID
	root  ui.NodeID
	label ui.NodeID
}

func newScene(t *testing.T) *scene {
	t.Helper()
	s := &scene{rt: reactive.New(), rec: NewRecorder()}
	t.Cleanup(s.rt.Close)
	s.reg = ui.NewRegistry(s.rt)

	s.count = s.rt.CreateValue(reactive.Int(0))
	var err error
	s.label, err = s.reg.BindText(func() (reactive.Value, error) {
		v, err := s.rt.ReadValue(s.count)
		if err != nil {
			return reactive.Absent(), err
		}
		return reactive.Text("Count: " + v.String()), nil
	})
	require.NoError(t, err)

	a, _ := s.reg.CreateNode(ui.StaticText("a"))
	b, _ := s.reg.CreateNode(ui.StaticText("b"))
	row, err := s.reg.CreateNode(ui.Row(a, b))
	require.NoError(t, err)
	s.root, err = s.reg.CreateNode(ui.Column(s.label, row))
	require.NoError(t, err)
	require.NoError(t, s.reg.SetRoot(s.root))
	require.NoError(t, s.reg.Mount(s.rec))
	return s
}

func TestSnapshotAfterMount(t *testing.T) {
	s := newScene(t)
	AssertSnapshot(t, s.rec, "mount")
}

func TestSnapshotAfterUpdates(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.rt.Batch(func() {
		for i := 1; i <= 3; i++ {
			require.NoError(t, s.rt.WriteValue(s.count, reactive.Int(int64(i))))
		}
	}))
	require.NoError(t, s.reg.Render())

	extra, err := s.reg.CreateNode(ui.StaticText("added later"))
	require.NoError(t, err)
	require.NoError(t, s.reg.AppendChild(s.root, extra))
	require.NoError(t, s.reg.Render())

	AssertSnapshot(t, s.rec, "updates")
	assert.Empty(t, s.rec.Violations())
}

func TestRecorderFlagsViolations(t *testing.T) {
	s := newScene(t)
	unknown, _ := s.reg.CreateNode(ui.StaticText("never mounted"))

	require.NoError(t, s.rec.Update(s.reg, []ui.NodeID{unknown}))
	s.rec.NodeAdded(s.reg, s.label)
	s.rec.NodeRemoved(unknown)

	assert.Equal(t, []string{
		"update of unknown " + unknown.String(),
		s.label.String() + " added twice",
		"removal of unknown " + unknown.String(),
	}, s.rec.Violations())
}

func TestCallString(t *testing.T) {
	s := newScene(t)
	calls := s.rec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "mount", calls[0].Op)
	assert.Len(t, calls[0].IDs, 5)
	assert.Contains(t, calls[0].String(), s.root.String())
}
