package devtools

import (
	"sync"
	"time"

	"github.com/vango-dev/rover/pkg/reactive"
	"github.com/vango-dev/rover/pkg/ui"
)

// EventType names a renderer contract call.
type EventType string

const (
	EventMount   EventType = "mount"
	EventUpdate  EventType = "update"
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// NodeInfo describes one node at the time of an event.
type NodeInfo struct {
	ID      string `json:"id"`
	Kind    string `json:"kind,omitempty"`
	Content string `json:"content,omitempty"`
}

// Event is one renderer call as seen by the inspector.
type Event struct {
	Type    EventType  `json:"type"`
	Runtime string     `json:"runtime"`
	Time    time.Time  `json:"time"`
	Nodes   []NodeInfo `json:"nodes"`
}

// Snapshot is the state served on /stats.
type Snapshot struct {
	Runtime reactive.Stats    `json:"runtime"`
	Nodes   int               `json:"nodes"`
	Calls   map[EventType]int `json:"calls"`
	Last    *Event            `json:"last,omitempty"`
}

// TapRenderer forwards every call to an inner renderer and reports it to a
// hub. Calls arrive on the runtime's goroutine; the cached snapshot is
// read from HTTP handlers, so it is guarded.
type TapRenderer struct {
	inner ui.Renderer
	hub   *Hub

	mu    sync.RWMutex
	snap  Snapshot
	clock func() time.Time
}

// Tap wraps inner. inner may be nil to observe without rendering.
func Tap(inner ui.Renderer, hub *Hub) *TapRenderer {
	return &TapRenderer{
		inner: inner,
		hub:   hub,
		snap:  Snapshot{Calls: make(map[EventType]int)},
		clock: time.Now,
	}
}

func (t *TapRenderer) Mount(reg *ui.Registry) error {
	if t.inner != nil {
		if err := t.inner.Mount(reg); err != nil {
			return err
		}
	}
	var nodes []NodeInfo
	reg.Walk(reg.Root(), func(id ui.NodeID, n ui.Node, _ int) {
		nodes = append(nodes, describe(id, n))
	})
	t.emit(reg, EventMount, nodes)
	return nil
}

func (t *TapRenderer) Update(reg *ui.Registry, dirty []ui.NodeID) error {
	if t.inner != nil {
		if err := t.inner.Update(reg, dirty); err != nil {
			return err
		}
	}
	nodes := make([]NodeInfo, 0, len(dirty))
	for _, id := range dirty {
		n, err := reg.Node(id)
		if err != nil {
			nodes = append(nodes, NodeInfo{ID: id.String()})
			continue
		}
		nodes = append(nodes, describe(id, n))
	}
	t.emit(reg, EventUpdate, nodes)
	return nil
}

func (t *TapRenderer) NodeAdded(reg *ui.Registry, id ui.NodeID) {
	if t.inner != nil {
		t.inner.NodeAdded(reg, id)
	}
	var nodes []NodeInfo
	reg.Walk(id, func(id ui.NodeID, n ui.Node, _ int) {
		nodes = append(nodes, describe(id, n))
	})
	t.emit(reg, EventAdded, nodes)
}

// NodeRemoved has no registry to describe the node with, so the event
// carries ids only and the cached counts are left as of the last call.
func (t *TapRenderer) NodeRemoved(id ui.NodeID) {
	if t.inner != nil {
		t.inner.NodeRemoved(id)
	}
	ev := Event{
		Type:  EventRemoved,
		Time:  t.clock(),
		Nodes: []NodeInfo{{ID: id.String()}},
	}

	t.mu.Lock()
	ev.Runtime = t.snap.Runtime.ID
	t.snap.Calls[EventRemoved]++
	t.snap.Last = &ev
	t.mu.Unlock()

	if t.hub != nil {
		t.hub.Broadcast(ev)
	}
}

// Snapshot returns a copy of the cached state.
func (t *TapRenderer) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := t.snap
	out.Calls = make(map[EventType]int, len(t.snap.Calls))
	for k, v := range t.snap.Calls {
		out.Calls[k] = v
	}
	if t.snap.Last != nil {
		last := *t.snap.Last
		out.Last = &last
	}
	return out
}

func (t *TapRenderer) emit(reg *ui.Registry, typ EventType, nodes []NodeInfo) {
	stats := reg.Runtime().Stats()
	ev := Event{
		Type:    typ,
		Runtime: stats.ID,
		Time:    t.clock(),
		Nodes:   nodes,
	}

	t.mu.Lock()
	t.snap.Runtime = stats
	t.snap.Nodes = reg.Len()
	t.snap.Calls[typ]++
	t.snap.Last = &ev
	t.mu.Unlock()

	if t.hub != nil {
		t.hub.Broadcast(ev)
	}
}

func describe(id ui.NodeID, n ui.Node) NodeInfo {
	info := NodeInfo{ID: id.String(), Kind: n.Kind.String()}
	if n.IsLeaf() {
		info.Content = n.Content.String()
	}
	return info
}
