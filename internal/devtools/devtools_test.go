package devtools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/rover/pkg/reactive"
	"github.com/vango-dev/rover/pkg/ui"
	"github.com/vango-dev/rover/pkg/uitest"
)

type fixture struct {
	rt    *reactive.Runtime
	reg   *ui.Registry
	rec   *uitest.Recorder
	hub   *Hub
	tap   *TapRenderer
	count reactive.ValueID
	root  ui.NodeID
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{rt: reactive.New(), rec: uitest.NewRecorder()}
	t.Cleanup(f.rt.Close)
	f.reg = ui.NewRegistry(f.rt)
	f.hub = NewHub(quietLogger())
	t.Cleanup(f.hub.Close)
	f.tap = Tap(f.rec, f.hub)

	f.count = f.rt.CreateValue(reactive.Int(0))
	label, err := f.reg.BindSource(f.count)
	require.NoError(t, err)
	f.root, err = f.reg.CreateNode(ui.Column(label))
	require.NoError(t, err)
	require.NoError(t, f.reg.SetRoot(f.root))
	return f
}

func dial(t *testing.T, srv *httptest.Server, hub *Hub) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestTapForwardsToInner(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Mount(f.tap))

	require.NoError(t, f.rt.WriteValue(f.count, reactive.Int(3)))
	require.NoError(t, f.reg.Render())

	label, _ := f.reg.Children(f.root)
	assert.Equal(t, "3", f.rec.Text(label[0]))
	assert.Empty(t, f.rec.Violations())

	snap := f.tap.Snapshot()
	assert.Equal(t, 1, snap.Calls[EventMount])
	assert.Equal(t, 1, snap.Calls[EventUpdate])
	assert.Equal(t, 2, snap.Nodes)
	assert.Equal(t, f.rt.ID(), snap.Runtime.ID)
	require.NotNil(t, snap.Last)
	assert.Equal(t, EventUpdate, snap.Last.Type)
	require.Len(t, snap.Last.Nodes, 1)
	assert.Equal(t, "3", snap.Last.Nodes[0].Content)
}

func TestTapWithoutInner(t *testing.T) {
	f := newFixture(t)
	tap := Tap(nil, nil)
	require.NoError(t, f.reg.Mount(tap))

	extra, err := f.reg.CreateNode(ui.StaticText("x"))
	require.NoError(t, err)
	require.NoError(t, f.reg.AppendChild(f.root, extra))
	require.NoError(t, f.reg.RemoveNode(extra))

	snap := tap.Snapshot()
	assert.Equal(t, 1, snap.Calls[EventAdded])
	assert.Equal(t, 1, snap.Calls[EventRemoved])
	assert.Equal(t, EventRemoved, snap.Last.Type)
	assert.Equal(t, extra.String(), snap.Last.Nodes[0].ID)
}

func TestWebSocketStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(NewServer(f.hub, f.tap, WithLogger(quietLogger())))
	defer srv.Close()
	conn := dial(t, srv, f.hub)

	require.NoError(t, f.reg.Mount(f.tap))
	ev := readEvent(t, conn)
	assert.Equal(t, EventMount, ev.Type)
	assert.Equal(t, f.rt.ID(), ev.Runtime)
	require.Len(t, ev.Nodes, 2)
	assert.Equal(t, "Column", ev.Nodes[0].Kind)
	assert.Equal(t, "0", ev.Nodes[1].Content)

	require.NoError(t, f.rt.WriteValue(f.count, reactive.Int(7)))
	require.NoError(t, f.reg.Render())
	ev = readEvent(t, conn)
	assert.Equal(t, EventUpdate, ev.Type)
	require.Len(t, ev.Nodes, 1)
	assert.Equal(t, "7", ev.Nodes[0].Content)
}

func TestStatsEndpoint(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.Mount(f.tap))
	srv := httptest.NewServer(NewServer(f.hub, f.tap, WithLogger(quietLogger())))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, 1, snap.Calls[EventMount])
	assert.Equal(t, 1, snap.Runtime.Values)
	assert.Equal(t, 1, snap.Runtime.Effects)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "devtools_test_hits_total", Help: "test"})
	reg.MustRegister(hits)
	hits.Add(2)

	srv := httptest.NewServer(NewServer(f.hub, f.tap, WithGatherer(reg), WithLogger(quietLogger())))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "devtools_test_hits_total 2")
}

func TestServeStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(f.hub, f.tap, WithLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/stats")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
