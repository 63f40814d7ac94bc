package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv() *Environment {
	env := NewEnvironment()
	registerDefaultFilters(env)
	registerDefaultTests(env)
	return env
}

func runFilter(t *testing.T, env *Environment, name string, input Value, args ...Value) Value {
	t.Helper()
	fn, ok := env.Filter(name)
	require.True(t, ok, "filter %q must be registered", name)
	out, err := fn(input, args, env)
	require.NoError(t, err)
	return out
}

func TestStringFilters(t *testing.T) {
	env := newTestEnv()
	assert.Equal(t, "HI", runFilter(t, env, "upper", Str("hi")).AsString())
	assert.Equal(t, "hi", runFilter(t, env, "lower", Str("HI")).AsString())
	assert.Equal(t, "hi", runFilter(t, env, "trim", Str("  hi  ")).AsString())
	assert.Equal(t, "Hi There", runFilter(t, env, "title", Str("hi there")).AsString())
	assert.Equal(t, "Hi", runFilter(t, env, "capitalize", Str("hi")).AsString())
}

func TestLengthFilterAcrossTypes(t *testing.T) {
	env := newTestEnv()
	assert.Equal(t, int64(3), runFilter(t, env, "length", Str("abc")).AsInt())
	assert.Equal(t, int64(2), runFilter(t, env, "length", Array([]Value{Int(1), Int(2)})).AsInt())
	assert.Equal(t, int64(1), runFilter(t, env, "length", objOf("a", Int(1))).AsInt())
}

func TestJoinFilter(t *testing.T) {
	env := newTestEnv()
	out := runFilter(t, env, "join", Array([]Value{Str("a"), Str("b"), Str("c")}), Str(", "))
	assert.Equal(t, "a, b, c", out.AsString())
}

func TestDefaultFilter(t *testing.T) {
	env := newTestEnv()
	assert.Equal(t, "fallback", runFilter(t, env, "default", Undefined(), Str("fallback")).AsString())
	assert.Equal(t, "present", runFilter(t, env, "default", Str("present"), Str("fallback")).AsString())
	out := runFilter(t, env, "default", Str(""), Str("fallback"), Bool(true))
	assert.Equal(t, "fallback", out.AsString(), "default(..., true) also replaces falsy (not just undefined) values")
}

func TestSortFilterReverse(t *testing.T) {
	env := newTestEnv()
	kwargs := NewObject()
	kwargs.Set("reverse", Bool(true))
	out := runFilter(t, env, "sort", Array([]Value{Int(3), Int(1), Int(2)}), KwArgs(kwargs))
	seq := out.AsSeq()
	assert.Equal(t, []int64{3, 2, 1}, []int64{seq[0].AsInt(), seq[1].AsInt(), seq[2].AsInt()})
}

func TestMapFilterByAttribute(t *testing.T) {
	env := newTestEnv()
	a, b := NewObject(), NewObject()
	a.Set("name", Str("alice"))
	b.Set("name", Str("bob"))
	kwargs := NewObject()
	kwargs.Set("attribute", Str("name"))
	out := runFilter(t, env, "map", Array([]Value{Obj(a), Obj(b)}), KwArgs(kwargs))
	seq := out.AsSeq()
	assert.Equal(t, "alice", seq[0].AsString())
	assert.Equal(t, "bob", seq[1].AsString())
}

func TestSelectRejectFilters(t *testing.T) {
	env := newTestEnv()
	nums := Array([]Value{Int(1), Int(2), Int(3), Int(4)})
	even := runFilter(t, env, "select", nums, Str("even"))
	odd := runFilter(t, env, "reject", nums, Str("even"))
	assert.Len(t, even.AsSeq(), 2)
	assert.Len(t, odd.AsSeq(), 2)
}

func TestSelectattrFilter(t *testing.T) {
	env := newTestEnv()
	a, b := NewObject(), NewObject()
	a.Set("active", Bool(true))
	b.Set("active", Bool(false))
	out := runFilter(t, env, "selectattr", Array([]Value{Obj(a), Obj(b)}), Str("active"))
	assert.Len(t, out.AsSeq(), 1)
}

func TestRoundFilter(t *testing.T) {
	env := newTestEnv()
	assert.Equal(t, 2.0, runFilter(t, env, "round", Float(2.4)).AsFloat())
	assert.Equal(t, 3.0, runFilter(t, env, "round", Float(2.5)).AsFloat())
}

func TestB64DecodeFilter(t *testing.T) {
	env := newTestEnv()
	out := runFilter(t, env, "b64decode", Str("aGVsbG8="))
	assert.Equal(t, "hello", out.AsString())
}

func TestGlobMatchFilter(t *testing.T) {
	env := newTestEnv()
	names := Array([]Value{Str("get_time"), Str("get_weather"), Str("send_email")})
	out := runFilter(t, env, "glob_match", names, Str("get_*"))
	seq := out.AsSeq()
	assert.Len(t, seq, 2)
}

func TestTruncateFilter(t *testing.T) {
	env := newTestEnv()
	out := runFilter(t, env, "truncate", Str("abcdefgh"), Int(4))
	assert.Equal(t, "abcd...", out.AsString())
}

func TestIndentFilterDefaultSkipsFirstLineAndBlankLines(t *testing.T) {
	env := newTestEnv()
	out := runFilter(t, env, "indent", Str("a\n\nb"), Int(2))
	assert.Equal(t, "a\n\n  b", out.AsString())
}

func TestIndentFilterFirstIndentsEveryLine(t *testing.T) {
	env := newTestEnv()
	out := runFilter(t, env, "indent", Str("a\nb"), Int(2), Bool(true))
	assert.Equal(t, "  a\n  b", out.AsString())
}

func TestIndentFilterBlankIndentsBlankLinesToo(t *testing.T) {
	env := newTestEnv()
	out := runFilter(t, env, "indent", Str("a\n\nb"), Int(2), Bool(false), Bool(true))
	assert.Equal(t, "a\n  \n  b", out.AsString())
}
