package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON_RoundTrip(t *testing.T) {
	v, err := FromJSON([]byte(`{"name":"demo","count":3,"tags":["a","b"],"active":true,"meta":null}`))
	require.NoError(t, err)
	require.Equal(t, KindMap, v.Kind)

	name, ok := v.Get("name")
	require.True(t, ok)
	assert.Equal(t, "demo", name.Str)

	count, ok := v.Get("count")
	require.True(t, ok)
	assert.Equal(t, float64(3), count.Number)

	tags, ok := v.Get("tags")
	require.True(t, ok)
	require.Len(t, tags.Array, 2)
	assert.Equal(t, "a", tags.Array[0].Str)

	meta, ok := v.Get("meta")
	require.True(t, ok)
	assert.Equal(t, KindNull, meta.Kind)
}

func TestSchema_Validate_MissingRequired(t *testing.T) {
	schema := Schema{Kind: KindMap, Fields: map[string]Schema{
		"to":     {Kind: KindString, Required: true},
		"amount": {Kind: KindNumber, Required: true},
	}}

	v := Map(map[string]Value{"to": String("acct-1")})
	err := schema.Validate(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")
}

func TestSchema_Validate_WrongKind(t *testing.T) {
	schema := Schema{Kind: KindMap, Fields: map[string]Schema{
		"amount": {Kind: KindNumber, Required: true},
	}}
	v := Map(map[string]Value{"amount": String("not a number")})
	err := schema.Validate(v)
	require.Error(t, err)
}

func TestSchema_Validate_Array(t *testing.T) {
	schema := Schema{Kind: KindArray, Elem: &Schema{Kind: KindString}}
	v := Array(String("a"), String("b"))
	assert.NoError(t, schema.Validate(v))

	bad := Array(String("a"), Number(1))
	assert.Error(t, schema.Validate(bad))
}

func TestRedacted_ListsFieldKindsNotValues(t *testing.T) {
	v := Map(map[string]Value{
		"api_key": String("super-secret"),
		"amount":  Number(42),
	})
	r := v.Redacted()
	assert.Equal(t, "string", r["api_key"])
	assert.Equal(t, "number", r["amount"])
}
