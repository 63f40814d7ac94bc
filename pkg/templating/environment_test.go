package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvironmentLookupWalksParentChain(t *testing.T) {
	root := NewEnvironment()
	root.Set("a", Int(1))
	child := root.Child()
	child.Set("b", Int(2))

	v, ok := child.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v.AsInt())

	_, ok = root.Lookup("b")
	assert.False(t, ok, "a parent scope must not see a child's bindings")
}

func TestEnvironmentSetNeverShadowsThroughToParent(t *testing.T) {
	root := NewEnvironment()
	root.Set("x", Int(1))
	child := root.Child()
	child.Set("x", Int(2))

	rv, _ := root.Lookup("x")
	cv, _ := child.Lookup("x")
	assert.Equal(t, int64(1), rv.AsInt())
	assert.Equal(t, int64(2), cv.AsInt())
}

func TestEnvironmentFilterAndTestRegistriesShareAcrossChildren(t *testing.T) {
	root := NewEnvironment()
	root.RegisterFilter("shout", func(in Value, args []Value, env *Environment) (Value, error) {
		return Str(in.AsString() + "!"), nil
	})
	child := root.Child().Child()
	fn, ok := child.Filter("shout")
	assert.True(t, ok)
	out, err := fn(Str("hi"), nil, child)
	assert.NoError(t, err)
	assert.Equal(t, "hi!", out.AsString())
}

func TestEnvironmentLookupDistinguishesUnboundFromUndefinedValue(t *testing.T) {
	env := NewEnvironment()
	env.Set("u", Undefined())
	v, ok := env.Lookup("u")
	assert.True(t, ok)
	assert.True(t, v.IsUndefined())

	_, ok = env.Lookup("never_set")
	assert.False(t, ok)
}
