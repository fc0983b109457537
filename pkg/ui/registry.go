package ui

import (
	"errors"
	"io"
	"log/slog"

	"github.com/vango-dev/rover/internal/arena"
	rerrors "github.com/vango-dev/rover/internal/errors"
	"github.com/vango-dev/rover/pkg/reactive"
)

type slot struct {
	node      Node
	finalized bool
	parent    NodeID
	effects   []reactive.EffectID
}

// Registry owns the UI nodes of one reactive runtime: their content, the
// tree they form, the effects bound to them and the set of nodes changed
// since the last render pass.
//
// Like the runtime, a Registry is single-threaded.
type Registry struct {
	rt     *reactive.Runtime
	logger *slog.Logger

	nodes        arena.Arena[slot]
	effectToNode map[reactive.EffectID]NodeID

	dirty    []NodeID
	dirtySet map[NodeID]struct{}

	root     NodeID
	renderer Renderer
	mounted  map[NodeID]struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for render-pass debug output.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry whose bindings run on rt.
func NewRegistry(rt *reactive.Runtime, opts ...RegistryOption) *Registry {
	r := &Registry{
		rt:           rt,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		effectToNode: make(map[reactive.EffectID]NodeID),
		dirtySet:     make(map[NodeID]struct{}),
		mounted:      make(map[NodeID]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Runtime returns the runtime bindings are created on.
func (r *Registry) Runtime() *reactive.Runtime {
	return r.rt
}

// Len returns the number of live nodes, reserved ones included.
func (r *Registry) Len() int {
	return r.nodes.Len()
}

// ReserveNode allocates a placeholder slot and returns its id before any
// content exists.
func (r *Registry) ReserveNode() NodeID {
	return NodeID{h: r.nodes.Alloc(slot{node: Node{Kind: KindPlaceholder}})}
}

// FinalizeNode installs n as the content of a reserved node. Children listed
// by a container must be finalized, not yet attached anywhere and listed
// once; they are adopted by id. Nothing changes when an error is returned.
func (r *Registry) FinalizeNode(id NodeID, n Node) error {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return nodeErr("R020", id)
	}
	if s.finalized {
		return nodeErr("R022", id)
	}
	if n.Kind == KindPlaceholder {
		return rerrors.New("R021").WithDetailf("%s: placeholder content", id)
	}
	seen := make(map[NodeID]struct{}, len(n.Children))
	for _, child := range n.Children {
		if _, dup := seen[child]; dup {
			return rerrors.New("R026").WithDetailf("%s listed twice", child)
		}
		seen[child] = struct{}{}
		if err := r.checkAdoptable(id, child); err != nil {
			return err
		}
	}

	n = n.clone()
	for _, child := range n.Children {
		c, _ := r.nodes.Get(child.h)
		c.parent = id
	}
	s, _ = r.nodes.Get(id.h)
	s.node = n
	s.finalized = true
	return nil
}

// CreateNode reserves and finalizes a node in one step.
func (r *Registry) CreateNode(n Node) (NodeID, error) {
	id := r.ReserveNode()
	if err := r.FinalizeNode(id, n); err != nil {
		r.nodes.Release(id.h)
		return NodeID{}, err
	}
	return id, nil
}

// checkAdoptable validates child as a new child of parent.
func (r *Registry) checkAdoptable(parent, child NodeID) error {
	c, ok := r.nodes.Get(child.h)
	if !ok {
		return nodeErr("R020", child)
	}
	if !c.finalized {
		return nodeErr("R021", child)
	}
	if !c.parent.IsZero() || child == r.root {
		return nodeErr("R026", child)
	}
	for at := parent; !at.IsZero(); {
		if at == child {
			return nodeErr("R028", child)
		}
		s, ok := r.nodes.Get(at.h)
		if !ok {
			break
		}
		at = s.parent
	}
	return nil
}

// Node returns a copy of the content of id.
func (r *Registry) Node(id NodeID) (Node, error) {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return Node{}, nodeErr("R020", id)
	}
	return s.node.clone(), nil
}

// Children returns the ordered children of id (nil for leaves).
func (r *Registry) Children(id NodeID) ([]NodeID, error) {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return nil, nodeErr("R020", id)
	}
	if len(s.node.Children) == 0 {
		return nil, nil
	}
	return append([]NodeID(nil), s.node.Children...), nil
}

// Parent returns the container holding id, or the zero id.
func (r *Registry) Parent(id NodeID) (NodeID, error) {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return NodeID{}, nodeErr("R020", id)
	}
	return s.parent, nil
}

// Contains reports whether id names a live node.
func (r *Registry) Contains(id NodeID) bool {
	return r.nodes.Contains(id.h)
}

// SetRoot makes id the top of the tree. It must be finalized, unattached,
// and set before a renderer is mounted.
func (r *Registry) SetRoot(id NodeID) error {
	if r.renderer != nil {
		return nodeErr("R027", id)
	}
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return nodeErr("R020", id)
	}
	if !s.finalized {
		return nodeErr("R021", id)
	}
	if !s.parent.IsZero() {
		return nodeErr("R026", id)
	}
	r.root = id
	return nil
}

// Root returns the root node, or the zero id when none is set.
func (r *Registry) Root() NodeID {
	return r.root
}

// AppendChild adds child at the end of parent's children.
func (r *Registry) AppendChild(parent, child NodeID) error {
	s, ok := r.nodes.Get(parent.h)
	if !ok {
		return nodeErr("R020", parent)
	}
	return r.InsertChild(parent, len(s.node.Children), child)
}

// InsertChild adds child to parent's children at index (clamped to the
// list). The parent is marked dirty. When the parent is mounted the
// renderer is told about the new subtree.
func (r *Registry) InsertChild(parent NodeID, index int, child NodeID) error {
	p, ok := r.nodes.Get(parent.h)
	if !ok {
		return nodeErr("R020", parent)
	}
	if !p.finalized {
		return nodeErr("R021", parent)
	}
	if !p.node.IsContainer() {
		return nodeErr("R024", parent)
	}
	if err := r.checkAdoptable(parent, child); err != nil {
		return err
	}

	p, _ = r.nodes.Get(parent.h)
	children := p.node.Children
	if index < 0 {
		index = 0
	}
	if index > len(children) {
		index = len(children)
	}
	children = append(children, NodeID{})
	copy(children[index+1:], children[index:])
	children[index] = child
	p.node.Children = children

	c, _ := r.nodes.Get(child.h)
	c.parent = parent
	r.markDirty(parent)

	if r.isMounted(parent) {
		r.markMounted(child)
		r.renderer.NodeAdded(r, child)
	}
	return nil
}

// AttachEffect binds effect to node. An effect drives at most one node;
// attaching it again moves it. Removing the node disposes the effect.
func (r *Registry) AttachEffect(node NodeID, effect reactive.EffectID) error {
	s, ok := r.nodes.Get(node.h)
	if !ok {
		return nodeErr("R020", node)
	}
	if prev, ok := r.effectToNode[effect]; ok {
		if prev == node {
			return nil
		}
		r.detachEffect(prev, effect)
	}
	s.effects = append(s.effects, effect)
	r.effectToNode[effect] = node
	return nil
}

func (r *Registry) detachEffect(node NodeID, effect reactive.EffectID) {
	delete(r.effectToNode, effect)
	s, ok := r.nodes.Get(node.h)
	if !ok {
		return
	}
	for i, e := range s.effects {
		if e == effect {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			return
		}
	}
}

// EffectsOf returns the effects bound to node.
func (r *Registry) EffectsOf(node NodeID) []reactive.EffectID {
	s, ok := r.nodes.Get(node.h)
	if !ok || len(s.effects) == 0 {
		return nil
	}
	return append([]reactive.EffectID(nil), s.effects...)
}

// NodeOf returns the node effect is bound to.
func (r *Registry) NodeOf(effect reactive.EffectID) (NodeID, bool) {
	id, ok := r.effectToNode[effect]
	return id, ok
}

// UpdateLeafContent replaces the content of a finalized leaf in place and
// marks it dirty. The node keeps its id.
func (r *Registry) UpdateLeafContent(id NodeID, v reactive.Value) error {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return nodeErr("R020", id)
	}
	if !s.finalized {
		return nodeErr("R021", id)
	}
	if !s.node.IsLeaf() {
		return nodeErr("R023", id)
	}
	s.node.Content = v
	r.markDirty(id)
	return nil
}

// MarkDirty queues id for the next render pass. Idempotent.
func (r *Registry) MarkDirty(id NodeID) error {
	if !r.nodes.Contains(id.h) {
		return nodeErr("R020", id)
	}
	r.markDirty(id)
	return nil
}

func (r *Registry) markDirty(id NodeID) {
	if _, ok := r.dirtySet[id]; ok {
		return
	}
	r.dirtySet[id] = struct{}{}
	r.dirty = append(r.dirty, id)
}

// TakeDirtyNodes returns the nodes changed since the last call, in the
// order they were first marked, and clears the set. Removed nodes are left
// out.
func (r *Registry) TakeDirtyNodes() []NodeID {
	if len(r.dirty) == 0 {
		return nil
	}
	out := make([]NodeID, 0, len(r.dirty))
	for _, id := range r.dirty {
		if r.nodes.Contains(id.h) {
			out = append(out, id)
		}
	}
	r.dirty = nil
	clear(r.dirtySet)
	return out
}

// RemoveNode removes id and all its descendants. Bound effects are disposed
// first (running their cleanups), then the slots are freed. The former
// parent is marked dirty; a mounted renderer is told about every removed
// node it had.
func (r *Registry) RemoveNode(id NodeID) error {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return nodeErr("R020", id)
	}

	if parent := s.parent; !parent.IsZero() {
		if p, ok := r.nodes.Get(parent.h); ok {
			for i, c := range p.node.Children {
				if c == id {
					p.node.Children = append(p.node.Children[:i], p.node.Children[i+1:]...)
					break
				}
			}
			r.markDirty(parent)
		}
	}
	if r.root == id {
		r.root = NodeID{}
	}

	r.rt.BeginBatch()
	removed := r.removeSubtree(id)
	err := r.rt.EndBatch()

	r.logger.Debug("node removed",
		slog.String("node", id.String()),
		slog.Int("removed", removed),
	)
	return err
}

func (r *Registry) removeSubtree(id NodeID) int {
	s, ok := r.nodes.Get(id.h)
	if !ok {
		return 0
	}
	children := append([]NodeID(nil), s.node.Children...)
	effects := append([]reactive.EffectID(nil), s.effects...)

	n := 0
	for _, child := range children {
		n += r.removeSubtree(child)
	}

	for _, e := range effects {
		delete(r.effectToNode, e)
		if err := r.rt.DisposeEffect(e); err != nil && !errors.Is(err, reactive.ErrStaleHandle) {
			r.logger.Warn("dispose bound effect",
				slog.String("node", id.String()),
				slog.String("effect", e.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	r.nodes.Release(id.h)
	delete(r.dirtySet, id)
	if r.isMounted(id) {
		delete(r.mounted, id)
		r.renderer.NodeRemoved(id)
	}
	return n + 1
}
