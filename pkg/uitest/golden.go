package uitest

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertSnapshot compares the recorder's outline with
// testdata/golden/<name>.golden. Run tests with -update to rewrite it.
func AssertSnapshot(t *testing.T, r *Recorder, name string) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(r.Snapshot()))
}
