package reactive

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSON(t *testing.T) {
	v := Record(map[string]Value{
		"count": Int(3),
		"name":  Text("rover"),
		"tags":  List(Text("a"), Bool(true), Absent()),
	})
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3,"name":"rover","tags":["a",true,null]}`, string(data))
}

func TestMarshalJSONMixedComposite(t *testing.T) {
	v := FromComposite(&Composite{
		Items:  []Value{Int(1)},
		Fields: map[string]Value{"k": Text("v")},
	})
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v","$items":[1]}`, string(data))

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	c, ok := back.AsComposite()
	require.True(t, ok)
	assert.Equal(t, "[1]{k: v}", c.String())
}

func TestMarshalJSONRejectsOpaque(t *testing.T) {
	_, err := json.Marshal(List(Opaque(new(int))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotSerializable))

	_, err = Number(math.Inf(1)).MarshalJSON()
	assert.ErrorIs(t, err, ErrNotSerializable)
}

func TestUnmarshalJSON(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`[1, "two", false, null, {"x": 2.5}]`), &v))

	c, ok := v.AsComposite()
	require.True(t, ok)
	require.Len(t, c.Items, 5)
	assert.True(t, c.Items[0].Equal(Int(1)))
	assert.True(t, c.Items[1].Equal(Text("two")))
	assert.True(t, c.Items[2].Equal(Bool(false)))
	assert.True(t, c.Items[3].IsAbsent())
	assert.Equal(t, "{x: 2.5}", c.Items[4].String())

	assert.Error(t, json.Unmarshal([]byte(`{`), &v))
}
