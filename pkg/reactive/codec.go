package reactive

import (
	"encoding/json"
	"math"
	"sort"

	rerrors "github.com/vango-dev/rover/internal/errors"
)

// itemsKey holds list items when a composite carries both items and fields.
const itemsKey = "$items"

// MarshalJSON encodes v as plain JSON: absent is null, a list composite is an
// array and a record composite is an object. Opaque references and
// non-finite numbers cannot be encoded and fail with ErrNotSerializable.
func (v Value) MarshalJSON() ([]byte, error) {
	plain, err := v.toPlain()
	if err != nil {
		return nil, err
	}
	return json.Marshal(plain)
}

// UnmarshalJSON decodes plain JSON into v. Arrays and objects decode into
// fresh composites.
func (v *Value) UnmarshalJSON(data []byte) error {
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return err
	}
	*v = fromPlain(plain)
	return nil
}

func (v Value) toPlain() (any, error) {
	switch v.kind {
	case KindAbsent:
		return nil, nil
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return nil, rerrors.New("R009").WithDetailf("number %v", v.num)
		}
		return v.num, nil
	case KindText:
		return v.str, nil
	case KindBool:
		return v.b, nil
	case KindComposite:
		c, _ := v.ref.(*Composite)
		return c.toPlain()
	default:
		return nil, rerrors.New("R009").WithDetailf("%s value of type %T", v.kind, v.ref)
	}
}

func (c *Composite) toPlain() (any, error) {
	items := make([]any, 0, len(c.Items))
	for _, item := range c.Items {
		p, err := item.toPlain()
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if c.Fields == nil {
		return items, nil
	}

	fields := make(map[string]any, len(c.Fields)+1)
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p, err := c.Fields[k].toPlain()
		if err != nil {
			return nil, err
		}
		fields[k] = p
	}
	if len(c.Items) > 0 {
		fields[itemsKey] = items
	}
	return fields, nil
}

func fromPlain(p any) Value {
	switch x := p.(type) {
	case nil:
		return Absent()
	case float64:
		return Number(x)
	case string:
		return Text(x)
	case bool:
		return Bool(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = fromPlain(item)
		}
		return List(items...)
	case map[string]any:
		c := &Composite{Fields: make(map[string]Value, len(x))}
		for k, item := range x {
			if k == itemsKey {
				if list, ok := item.([]any); ok {
					for _, li := range list {
						c.Items = append(c.Items, fromPlain(li))
					}
					continue
				}
			}
			c.Fields[k] = fromPlain(item)
		}
		return FromComposite(c)
	default:
		return Absent()
	}
}
