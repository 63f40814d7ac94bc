package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callBuiltin(t *testing.T, recv Value, name string, args ...Value) Value {
	t.Helper()
	member, ok := lookupBuiltin(recv, name)
	require.True(t, ok, "builtin %q must resolve on %v", name, recv.Type())
	if member.Type() != TypeFunction {
		return member
	}
	out, err := member.fn(args, nil)
	require.NoError(t, err)
	return out
}

func TestStringBuiltinMethods(t *testing.T) {
	s := Str(" Hello World ")
	assert.Equal(t, int64(13), callBuiltin(t, s, "length").AsInt())
	assert.Equal(t, "Hello World", callBuiltin(t, s, "strip").AsString())
	assert.Equal(t, " HELLO WORLD ", callBuiltin(t, s, "upper").AsString())
	assert.Equal(t, " hello world ", callBuiltin(t, s, "lower").AsString())
}

func TestStringStartswithEndswithAcceptsTuple(t *testing.T) {
	s := Str("hello.txt")
	yes := callBuiltin(t, s, "endswith", Array([]Value{Str(".json"), Str(".txt")}))
	assert.True(t, yes.AsBool())
	no := callBuiltin(t, s, "startswith", Str("world"))
	assert.False(t, no.AsBool())
}

func TestStringSplitWhitespaceAndSeparator(t *testing.T) {
	ws := callBuiltin(t, Str("  a  b c "), "split")
	seq := ws.AsSeq()
	require.Len(t, seq, 3)
	assert.Equal(t, "a", seq[0].AsString())
	assert.Equal(t, "c", seq[2].AsString())

	sep := callBuiltin(t, Str("a,b,c"), "split", Str(","))
	assert.Len(t, sep.AsSeq(), 3)

	limited := callBuiltin(t, Str("a,b,c"), "split", Str(","), Int(1))
	seq2 := limited.AsSeq()
	require.Len(t, seq2, 2)
	assert.Equal(t, "b,c", seq2[1].AsString())
}

func TestStringReplaceMethod(t *testing.T) {
	out := callBuiltin(t, Str("aaa"), "replace", Str("a"), Str("b"), Int(2))
	assert.Equal(t, "bba", out.AsString())
}

func TestStringTitleAndCapitalize(t *testing.T) {
	assert.Equal(t, "Hello World", callBuiltin(t, Str("hello world"), "title").AsString())
	assert.Equal(t, "Hello", callBuiltin(t, Str("hELLO"), "capitalize").AsString())
}

func TestSeqBuiltinLength(t *testing.T) {
	arr := Array([]Value{Int(1), Int(2), Int(3)})
	assert.Equal(t, int64(3), callBuiltin(t, arr, "length").AsInt())
}

func TestObjectBuiltinGetKeysValuesItems(t *testing.T) {
	o := NewObject()
	o.Set("a", Int(1))
	o.Set("b", Int(2))
	v := Obj(o)

	assert.Equal(t, int64(2), callBuiltin(t, v, "length").AsInt())

	got := callBuiltin(t, v, "get", Str("a"))
	assert.Equal(t, int64(1), got.AsInt())

	fallback := callBuiltin(t, v, "get", Str("missing"), Str("fallback"))
	assert.Equal(t, "fallback", fallback.AsString())

	keys := callBuiltin(t, v, "keys")
	assert.Equal(t, []string{"a", "b"}, []string{keys.AsSeq()[0].AsString(), keys.AsSeq()[1].AsString()})

	items := callBuiltin(t, v, "items")
	pair := items.AsSeq()[0].AsSeq()
	assert.Equal(t, "a", pair[0].AsString())
	assert.Equal(t, int64(1), pair[1].AsInt())
}

func TestLookupBuiltinReturnsFalseForUnknownMember(t *testing.T) {
	_, ok := lookupBuiltin(Str("x"), "no_such_method")
	assert.False(t, ok)

	_, ok = lookupBuiltin(Str("x"), "keys")
	assert.False(t, ok, "keys/values/items are object-only, not available on strings")
}

func TestStringToClustersHandlesMultiByteRunes(t *testing.T) {
	clusters := stringToClusters("héllo")
	assert.Len(t, clusters, 5)
}
