package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSONPrimitives(t *testing.T) {
	s, err := MarshalJSON(Int(1), "")
	require.NoError(t, err)
	assert.Equal(t, "1", s)

	s, err = MarshalJSON(Str("hi"), "")
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, s)

	s, err = MarshalJSON(Bool(true), "")
	require.NoError(t, err)
	assert.Equal(t, "true", s)

	s, err = MarshalJSON(Null(), "")
	require.NoError(t, err)
	assert.Equal(t, "null", s)

	s, err = MarshalJSON(Undefined(), "")
	require.NoError(t, err)
	assert.Equal(t, "null", s)
}

func TestMarshalJSONPreservesObjectInsertionOrder(t *testing.T) {
	o := NewObject()
	o.Set("z", Int(1))
	o.Set("a", Int(2))
	s, err := MarshalJSON(Obj(o), "")
	require.NoError(t, err)
	assert.Equal(t, `{"z": 1, "a": 2}`, s)
}

func TestMarshalJSONEscapesHTMLUnsafeCharacters(t *testing.T) {
	s, err := MarshalJSON(Str("<script>&"), "")
	require.NoError(t, err)
	assert.Equal(t, `"\u003cscript\u003e\u0026"`, s)
}

func TestMarshalJSONIndent(t *testing.T) {
	o := NewObject()
	o.Set("a", Array([]Value{Int(1), Int(2)}))
	s, err := MarshalJSON(Obj(o), "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}", s)
}

func TestMarshalJSONRejectsFunctionValues(t *testing.T) {
	fn := Func(func(args []Value, env *Environment) (Value, error) { return Null(), nil })
	_, err := MarshalJSON(fn, "")
	require.Error(t, err)
	var target *TypeError
	assert.ErrorAs(t, err, &target)
}

func TestMarshalJSONEmptyArrayAndObject(t *testing.T) {
	s, err := MarshalJSON(Array(nil), "")
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	s, err = MarshalJSON(Obj(NewObject()), "")
	require.NoError(t, err)
	assert.Equal(t, "{}", s)
}
