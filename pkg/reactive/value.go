package reactive

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNumber
	KindText
	KindBool
	KindComposite
	KindOpaque
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindComposite:
		return "composite"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Value is the payload of a reactive cell or derived result.
//
// It is a closed union: absent, number, text, bool, composite or opaque
// reference. The zero Value is absent. Values are immutable; composites and
// opaque references are shared by pointer and compared by identity, so a
// change nested inside a composite is invisible to change detection.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	ref  any
}

// Composite is a list and/or record of values. It is compared by identity:
// build a new Composite to commit a change.
type Composite struct {
	Items  []Value
	Fields map[string]Value
}

// Absent returns the empty value.
func Absent() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Int returns a numeric value holding i.
func Int(i int64) Value { return Value{kind: KindNumber, num: float64(i)} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a new composite holding items.
func List(items ...Value) Value {
	return Value{kind: KindComposite, ref: &Composite{Items: items}}
}

// Record returns a new composite holding fields.
func Record(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindComposite, ref: &Composite{Fields: fields}}
}

// FromComposite wraps an existing composite. Two values wrapping the same
// pointer are equal.
func FromComposite(c *Composite) Value {
	if c == nil {
		return Absent()
	}
	return Value{kind: KindComposite, ref: c}
}

// Opaque wraps a host reference. Equality is reference identity.
func Opaque(ref any) Value {
	if ref == nil {
		return Absent()
	}
	return Value{kind: KindOpaque, ref: ref}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the empty value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// AsInt returns the number held by v if it is integral.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber || v.num != math.Trunc(v.num) || math.IsInf(v.num, 0) {
		return 0, false
	}
	return int64(v.num), true
}

// AsText returns the text held by v.
func (v Value) AsText() (string, bool) {
	return v.str, v.kind == KindText
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsComposite returns the composite held by v.
func (v Value) AsComposite() (*Composite, bool) {
	c, ok := v.ref.(*Composite)
	return c, ok && v.kind == KindComposite
}

// AsOpaque returns the host reference held by v.
func (v Value) AsOpaque() (any, bool) {
	if v.kind != KindOpaque {
		return nil, false
	}
	return v.ref, true
}

// Truthy reports whether v counts as true in a condition.
// Only absent and false are falsy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindAbsent:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Equal is the change-detection rule used by writes.
// Scalars compare by payload (NaN equals NaN); composites and opaque
// references compare by identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent:
		return true
	case KindNumber:
		if math.IsNaN(v.num) && math.IsNaN(o.num) {
			return true
		}
		return v.num == o.num
	case KindText:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	case KindComposite, KindOpaque:
		return sameRef(v.ref, o.ref)
	default:
		return false
	}
}

// sameRef compares host references by identity without panicking on
// uncomparable dynamic types.
func sameRef(a, b any) bool {
	av, bv := reflect.ValueOf(a), reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if av.Kind() == reflect.Slice && av.Len() != bv.Len() {
			return false
		}
		return av.Pointer() == bv.Pointer()
	}
	if av.Type().Comparable() {
		return a == b
	}
	return false
}

// String returns the display form used by text nodes.
func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return ""
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindComposite:
		c, _ := v.ref.(*Composite)
		return c.String()
	case KindOpaque:
		return fmt.Sprintf("<%T>", v.ref)
	default:
		return "?"
	}
}

// String renders items as "[a, b]" and fields as "{k: v}" with sorted keys.
func (c *Composite) String() string {
	if c == nil {
		return ""
	}

	var b strings.Builder
	if len(c.Items) > 0 || c.Fields == nil {
		b.WriteByte('[')
		for i, item := range c.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(item.String())
		}
		b.WriteByte(']')
	}
	if c.Fields != nil {
		keys := make([]string, 0, len(c.Fields))
		for k := range c.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(c.Fields[k].String())
		}
		b.WriteByte('}')
	}
	return b.String()
}
