package ui

import (
	"log/slog"
	"time"
)

// Renderer turns registry nodes into native views. The registry calls it;
// it never mutates the registry.
//
// Node ids are the only join key: Update and NodeRemoved only ever name ids
// the renderer already received through Mount or NodeAdded, and an id keeps
// referring to the same node for as long as it lives.
type Renderer interface {
	// Mount builds views for the whole tree under reg.Root().
	Mount(reg *Registry) error

	// Update refreshes existing views in place. dirty lists mounted nodes
	// whose content or children changed, in the order they changed.
	Update(reg *Registry, dirty []NodeID) error

	// NodeAdded builds views for a subtree attached under a mounted
	// container. id is the subtree root.
	NodeAdded(reg *Registry, id NodeID)

	// NodeRemoved drops the view of a removed node.
	NodeRemoved(id NodeID)
}

// Mount attaches r to the registry and lets it build the current tree.
// Pending dirty marks are dropped: the renderer starts from fresh views.
func (r *Registry) Mount(renderer Renderer) error {
	if r.renderer != nil {
		return nodeErr("R027", r.root)
	}
	if !r.nodes.Contains(r.root.h) {
		return nodeErr("R020", r.root)
	}

	r.renderer = renderer
	r.markMounted(r.root)
	if err := renderer.Mount(r); err != nil {
		r.renderer = nil
		clear(r.mounted)
		return err
	}
	r.TakeDirtyNodes()

	r.logger.Debug("renderer mounted", slog.Int("nodes", len(r.mounted)))
	return nil
}

// Mounted reports whether id is part of the mounted tree.
func (r *Registry) Mounted(id NodeID) bool {
	return r.isMounted(id)
}

// Render runs one render pass: it takes the dirty set and hands the mounted
// part of it to the renderer. It must run after the outermost batch has
// drained, so the renderer never sees a half-updated graph.
func (r *Registry) Render() error {
	if r.renderer == nil {
		return nodeErr("R029", r.root)
	}
	if r.rt.InBatch() {
		return nodeErr("R025", r.root)
	}

	start := time.Now()
	taken := r.TakeDirtyNodes()
	dirty := taken[:0]
	for _, id := range taken {
		if r.isMounted(id) {
			dirty = append(dirty, id)
		}
	}
	if len(dirty) == 0 {
		return nil
	}

	err := r.renderer.Update(r, dirty)
	r.logger.Debug("render pass",
		slog.Int("dirty", len(dirty)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return err
}

func (r *Registry) isMounted(id NodeID) bool {
	if r.renderer == nil {
		return false
	}
	_, ok := r.mounted[id]
	return ok
}

// markMounted records id and its descendants as known to the renderer.
func (r *Registry) markMounted(id NodeID) {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return
	}
	r.mounted[id] = struct{}{}
	for _, child := range s.node.Children {
		r.markMounted(child)
	}
}

// Walk visits id and its descendants depth-first, parents before children.
func (r *Registry) Walk(id NodeID, fn func(id NodeID, n Node, depth int)) {
	r.walk(id, 0, fn)
}

func (r *Registry) walk(id NodeID, depth int, fn func(NodeID, Node, int)) {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return
	}
	fn(id, s.node.clone(), depth)
	for _, child := range append([]NodeID(nil), s.node.Children...) {
		r.walk(child, depth+1, fn)
	}
}
