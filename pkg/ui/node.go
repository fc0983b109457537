package ui

import (
	"github.com/vango-dev/rover/internal/arena"
	"github.com/vango-dev/rover/pkg/reactive"
)

// NodeID is the stable identity of a UI node. It is the join key between
// the registry and a renderer's native views, and it never changes while
// the node lives.
type NodeID struct{ h arena.Handle }

// IsZero reports whether id was never assigned.
func (id NodeID) IsZero() bool { return id.h.IsZero() }

// String returns "node index.gen".
func (id NodeID) String() string { return "node " + id.h.String() }

// Kind is the node variant discriminator.
type Kind uint8

const (
	KindPlaceholder Kind = iota // Reserved, no content yet
	KindText                    // Leaf with a value
	KindColumn                  // Children stacked vertically
	KindRow                     // Children laid out horizontally
	KindView                    // Generic container
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindPlaceholder:
		return "Placeholder"
	case KindText:
		return "Text"
	case KindColumn:
		return "Column"
	case KindRow:
		return "Row"
	case KindView:
		return "View"
	default:
		return "Unknown"
	}
}

// Node is the content of one registry slot.
type Node struct {
	Kind     Kind
	Content  reactive.Value // For KindText
	Children []NodeID       // For containers, in order
}

// IsLeaf reports whether n carries content instead of children.
func (n Node) IsLeaf() bool { return n.Kind == KindText }

// IsContainer reports whether n holds an ordered child list.
func (n Node) IsContainer() bool {
	switch n.Kind {
	case KindColumn, KindRow, KindView:
		return true
	}
	return false
}

// Text returns a leaf node showing v.
func Text(v reactive.Value) Node {
	return Node{Kind: KindText, Content: v}
}

// StaticText returns a leaf node showing s.
func StaticText(s string) Node {
	return Text(reactive.Text(s))
}

// Column returns a vertical container.
func Column(children ...NodeID) Node {
	return Node{Kind: KindColumn, Children: children}
}

// Row returns a horizontal container.
func Row(children ...NodeID) Node {
	return Node{Kind: KindRow, Children: children}
}

// View returns a generic container.
func View(children ...NodeID) Node {
	return Node{Kind: KindView, Children: children}
}

func (n Node) clone() Node {
	if n.Children != nil {
		n.Children = append([]NodeID(nil), n.Children...)
	}
	return n
}
