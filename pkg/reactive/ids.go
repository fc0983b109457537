package reactive

import "github.com/vango-dev/rover/internal/arena"

// keyKind tags which id space a graph key belongs to.
type keyKind uint8

const (
	keyValue keyKind = iota + 1
	keyDerived
	keyEffect
)

// key is the graph's view of any handle: comparable and kind-tagged.
type key struct {
	kind keyKind
	h    arena.Handle
}

// ValueID is a handle to a state cell.
type ValueID struct{ h arena.Handle }

// DerivedID is a handle to a derived value.
type DerivedID struct{ h arena.Handle }

// EffectID is a handle to an effect.
type EffectID struct{ h arena.Handle }

// Source is a handle that can be read and depended on: a ValueID or a DerivedID.
type Source interface {
	sourceKey() key
	String() string
}

// Subscriber is a handle that depends on sources: a DerivedID or an EffectID.
type Subscriber interface {
	subscriberKey() key
	String() string
}

func (id ValueID) String() string   { return "value " + id.h.String() }
func (id DerivedID) String() string { return "derived " + id.h.String() }
func (id EffectID) String() string  { return "effect " + id.h.String() }

// IsZero reports whether id was never assigned.
func (id ValueID) IsZero() bool { return id.h.IsZero() }

// IsZero reports whether id was never assigned.
func (id DerivedID) IsZero() bool { return id.h.IsZero() }

// IsZero reports whether id was never assigned.
func (id EffectID) IsZero() bool { return id.h.IsZero() }

func (id ValueID) sourceKey() key       { return key{kind: keyValue, h: id.h} }
func (id DerivedID) sourceKey() key     { return key{kind: keyDerived, h: id.h} }
func (id DerivedID) subscriberKey() key { return key{kind: keyDerived, h: id.h} }
func (id EffectID) subscriberKey() key  { return key{kind: keyEffect, h: id.h} }

func (k key) source() Source {
	switch k.kind {
	case keyValue:
		return ValueID{h: k.h}
	case keyDerived:
		return DerivedID{h: k.h}
	default:
		return nil
	}
}

func (k key) subscriber() Subscriber {
	switch k.kind {
	case keyDerived:
		return DerivedID{h: k.h}
	case keyEffect:
		return EffectID{h: k.h}
	default:
		return nil
	}
}
