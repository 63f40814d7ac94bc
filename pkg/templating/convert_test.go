package templating

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGoPrimitives(t *testing.T) {
	assert.Equal(t, TypeNull, FromGo(nil).Type())
	assert.Equal(t, "hi", FromGo("hi").AsString())
	assert.True(t, FromGo(true).AsBool())
	assert.Equal(t, int64(7), FromGo(7).AsInt())
	assert.Equal(t, int64(7), FromGo(int64(7)).AsInt())
	assert.Equal(t, 1.5, FromGo(1.5).AsFloat())
}

func TestFromGoSliceAndMap(t *testing.T) {
	v := FromGo([]any{1, "x", true})
	assert.Equal(t, TypeArray, v.Type())
	seq := v.AsSeq()
	assert.Equal(t, int64(1), seq[0].AsInt())
	assert.Equal(t, "x", seq[1].AsString())
	assert.True(t, seq[2].AsBool())

	m := FromGo(map[string]any{"b": 2, "a": 1})
	assert.Equal(t, TypeObject, m.Type())
	assert.Equal(t, []string{"a", "b"}, m.AsObject().Keys(), "map keys have no native order, so FromGo sorts them")
}

func TestFromGoPointerAndNilPointer(t *testing.T) {
	s := "hello"
	assert.Equal(t, "hello", FromGo(&s).AsString())

	var nilPtr *string
	assert.True(t, FromGo(nilPtr).IsNull())
}

func TestFromGoStructFallsBackToString(t *testing.T) {
	type point struct{ X, Y int }
	v := FromGo(point{X: 1, Y: 2})
	assert.Equal(t, TypeString, v.Type())
	assert.Contains(t, v.AsString(), "1")
}

func TestFromGoFuncWrapsAsCallableFunction(t *testing.T) {
	add := func(a, b int) int { return a + b }
	v := FromGo(add)
	assert.Equal(t, TypeFunction, v.Type())

	result, err := v.fn([]Value{Int(2), Int(3)}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), result.AsInt())
}

func TestFromGoFuncSurfacesErrorReturn(t *testing.T) {
	parse := func(s string) (int, error) {
		if s == "" {
			return 0, fmt.Errorf("empty input")
		}
		return len(s), nil
	}
	v := FromGo(parse)

	_, err := v.fn([]Value{Str("")}, nil)
	assert.Error(t, err)

	ok, err := v.fn([]Value{Str("abc")}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), ok.AsInt())
}

func TestFromGoFuncWrongArgCountIsArgumentError(t *testing.T) {
	add := func(a, b int) int { return a + b }
	v := FromGo(add)
	_, err := v.fn([]Value{Int(1)}, nil)
	assert.Error(t, err)
	var target *ArgumentError
	assert.ErrorAs(t, err, &target)
}

func TestToGoRoundTrip(t *testing.T) {
	o := NewObject()
	o.Set("a", Int(1))
	o.Set("b", Array([]Value{Str("x")}))
	got := ToGo(Obj(o))
	m, ok := got.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, int64(1), m["a"])
	assert.Equal(t, []any{"x"}, m["b"])
}
