// Package uitest provides a headless renderer that records every call it
// receives and checks the node identity contract along the way.
package uitest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/rover/pkg/ui"
)

// View is the recorder's stand-in for a native view.
type View struct {
	ID       ui.NodeID
	Kind     ui.Kind
	Text     string
	Children []ui.NodeID
	Updates  int // in-place refreshes since creation
}

// Call is one renderer contract call.
type Call struct {
	Op  string // "mount", "update", "added", "removed"
	IDs []ui.NodeID
}

// String returns "op id, id".
func (c Call) String() string {
	ids := make([]string, len(c.IDs))
	for i, id := range c.IDs {
		ids[i] = id.String()
	}
	return c.Op + " " + strings.Join(ids, ", ")
}

// Recorder implements ui.Renderer in memory.
//
// A view is created at most once per node id. Updates or removals naming an
// id the recorder never received, and additions of an id it already has, are
// recorded as violations instead of failing, so tests can assert on them.
type Recorder struct {
	root       ui.NodeID
	views      map[ui.NodeID]*View
	created    int
	calls      []Call
	violations []string
}

var _ ui.Renderer = (*Recorder)(nil)

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{views: make(map[ui.NodeID]*View)}
}

// Mount builds views for the tree under reg.Root().
func (r *Recorder) Mount(reg *ui.Registry) error {
	r.root = reg.Root()
	var ids []ui.NodeID
	reg.Walk(r.root, func(id ui.NodeID, n ui.Node, _ int) {
		r.create(id, n)
		ids = append(ids, id)
	})
	r.calls = append(r.calls, Call{Op: "mount", IDs: ids})
	return nil
}

// Update refreshes existing views from the registry.
func (r *Recorder) Update(reg *ui.Registry, dirty []ui.NodeID) error {
	r.calls = append(r.calls, Call{Op: "update", IDs: append([]ui.NodeID(nil), dirty...)})
	for _, id := range dirty {
		v, ok := r.views[id]
		if !ok {
			r.violate("update of unknown %s", id)
			continue
		}
		n, err := reg.Node(id)
		if err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
		v.fill(n)
		v.Updates++
	}
	return nil
}

// NodeAdded builds views for a newly attached subtree.
func (r *Recorder) NodeAdded(reg *ui.Registry, id ui.NodeID) {
	r.calls = append(r.calls, Call{Op: "added", IDs: []ui.NodeID{id}})
	reg.Walk(id, func(id ui.NodeID, n ui.Node, _ int) {
		if _, ok := r.views[id]; ok {
			r.violate("%s added twice", id)
			return
		}
		r.create(id, n)
	})
}

// NodeRemoved drops the view of id.
func (r *Recorder) NodeRemoved(id ui.NodeID) {
	r.calls = append(r.calls, Call{Op: "removed", IDs: []ui.NodeID{id}})
	if _, ok := r.views[id]; !ok {
		r.violate("removal of unknown %s", id)
		return
	}
	delete(r.views, id)
	if id == r.root {
		r.root = ui.NodeID{}
	}
}

func (r *Recorder) create(id ui.NodeID, n ui.Node) {
	v := &View{ID: id}
	v.fill(n)
	r.views[id] = v
	r.created++
}

func (v *View) fill(n ui.Node) {
	v.Kind = n.Kind
	v.Text = n.Content.String()
	v.Children = n.Children
}

func (r *Recorder) violate(format string, args ...any) {
	r.violations = append(r.violations, fmt.Sprintf(format, args...))
}

// View returns the view for id.
func (r *Recorder) View(id ui.NodeID) (*View, bool) {
	v, ok := r.views[id]
	return v, ok
}

// Text returns the text shown by the view for id.
func (r *Recorder) Text(id ui.NodeID) string {
	if v, ok := r.views[id]; ok {
		return v.Text
	}
	return ""
}

// Created counts views created since the recorder was made.
func (r *Recorder) Created() int { return r.created }

// Live counts views currently held.
func (r *Recorder) Live() int { return len(r.views) }

// Calls returns the contract calls received so far.
func (r *Recorder) Calls() []Call { return append([]Call(nil), r.calls...) }

// Violations returns identity contract violations seen so far.
func (r *Recorder) Violations() []string { return append([]string(nil), r.violations...) }

// Snapshot renders the views as an indented outline, one node per line.
// Views unreachable from the root are listed after it, sorted by id.
func (r *Recorder) Snapshot() string {
	var b strings.Builder
	seen := make(map[ui.NodeID]bool, len(r.views))
	r.outline(&b, r.root, 0, seen)

	var orphans []*View
	for id, v := range r.views {
		if !seen[id] {
			orphans = append(orphans, v)
		}
	}
	sort.Slice(orphans, func(i, j int) bool {
		return orphans[i].ID.String() < orphans[j].ID.String()
	})
	for _, v := range orphans {
		b.WriteString("detached ")
		r.outline(&b, v.ID, 0, seen)
	}
	return b.String()
}

func (r *Recorder) outline(b *strings.Builder, id ui.NodeID, depth int, seen map[ui.NodeID]bool) {
	v, ok := r.views[id]
	if !ok || seen[id] {
		return
	}
	seen[id] = true
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(v.Kind.String())
	if v.Kind == ui.KindText {
		fmt.Fprintf(b, " %q", v.Text)
	}
	b.WriteByte('\n')
	for _, child := range v.Children {
		r.outline(b, child, depth+1, seen)
	}
}
