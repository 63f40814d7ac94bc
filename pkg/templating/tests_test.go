package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTest(t *testing.T, env *Environment, name string, subject Value, args ...Value) bool {
	t.Helper()
	fn, ok := env.Test(name)
	require.True(t, ok, "test %q must be registered", name)
	out, err := fn(subject, args)
	require.NoError(t, err)
	return out
}

func TestDefinedUndefinedNoneTests(t *testing.T) {
	env := newTestEnv()
	assert.True(t, runTest(t, env, "defined", Int(1)))
	assert.False(t, runTest(t, env, "defined", Undefined()))
	assert.True(t, runTest(t, env, "undefined", Undefined()))
	assert.True(t, runTest(t, env, "none", Null()))
	assert.False(t, runTest(t, env, "none", Int(0)))
}

func TestNumericTypeTests(t *testing.T) {
	env := newTestEnv()
	assert.True(t, runTest(t, env, "number", Int(1)))
	assert.True(t, runTest(t, env, "number", Float(1.5)))
	assert.True(t, runTest(t, env, "integer", Int(1)))
	assert.False(t, runTest(t, env, "integer", Float(1.5)))
	assert.True(t, runTest(t, env, "float", Float(1.5)))
}

func TestOddEvenDivisiblebyTests(t *testing.T) {
	env := newTestEnv()
	assert.True(t, runTest(t, env, "odd", Int(3)))
	assert.True(t, runTest(t, env, "even", Int(4)))
	assert.True(t, runTest(t, env, "divisibleby", Int(9), Int(3)))
	assert.False(t, runTest(t, env, "divisibleby", Int(10), Int(3)))
}

func TestStringCaseTests(t *testing.T) {
	env := newTestEnv()
	assert.True(t, runTest(t, env, "lower", Str("abc")))
	assert.False(t, runTest(t, env, "lower", Str("ABC")))
	assert.True(t, runTest(t, env, "upper", Str("ABC")))
}

func TestComparisonTests(t *testing.T) {
	env := newTestEnv()
	assert.True(t, runTest(t, env, "eq", Int(1), Int(1)))
	assert.True(t, runTest(t, env, "ne", Int(1), Int(2)))
	assert.True(t, runTest(t, env, "lt", Int(1), Int(2)))
	assert.True(t, runTest(t, env, "ge", Int(2), Int(2)))
}

func TestInTestDelegatesToContainsValue(t *testing.T) {
	env := newTestEnv()
	xs := Array([]Value{Int(1), Int(2), Int(3)})
	assert.True(t, runTest(t, env, "in", Int(2), xs))
	assert.False(t, runTest(t, env, "in", Int(9), xs))
}

func TestMappingIterableSequenceTests(t *testing.T) {
	env := newTestEnv()
	o := NewObject()
	o.Set("a", Int(1))
	assert.True(t, runTest(t, env, "mapping", Obj(o)))
	assert.False(t, runTest(t, env, "mapping", Array(nil)))
	assert.True(t, runTest(t, env, "iterable", Array(nil)))
	assert.True(t, runTest(t, env, "iterable", Str("x")))
	assert.True(t, runTest(t, env, "sequence", Array(nil)))
}

func TestCallableTest(t *testing.T) {
	env := newTestEnv()
	fn := Func(func(args []Value, env *Environment) (Value, error) { return Null(), nil })
	assert.True(t, runTest(t, env, "callable", fn))
	assert.False(t, runTest(t, env, "callable", Int(1)))
}
