package templating

import "strings"

// registerDefaultTests installs every built-in `is` test onto env's root
// registry. Grounded on the common Jinja2 test set; tests not meaningful
// without autoescape/sandboxing/template-inheritance (e.g. `escaped`,
// `sameas`) are omitted since those features are out of scope.
func registerDefaultTests(env *Environment) {
	env.RegisterTest("boolean", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeBoolean, nil
	})
	env.RegisterTest("callable", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeFunction, nil
	})
	env.RegisterTest("defined", func(v Value, args []Value) (bool, error) {
		return !v.IsUndefined(), nil
	})
	env.RegisterTest("undefined", func(v Value, args []Value) (bool, error) {
		return v.IsUndefined(), nil
	})
	env.RegisterTest("none", func(v Value, args []Value) (bool, error) {
		return v.IsNull(), nil
	})
	env.RegisterTest("number", func(v Value, args []Value) (bool, error) {
		return v.IsNumeric(), nil
	})
	env.RegisterTest("integer", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeInteger, nil
	})
	env.RegisterTest("float", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeFloat, nil
	})
	env.RegisterTest("string", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeString, nil
	})
	env.RegisterTest("mapping", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeObject || v.Type() == TypeKeywordArguments, nil
	})
	env.RegisterTest("iterable", func(v Value, args []Value) (bool, error) {
		switch v.Type() {
		case TypeArray, TypeTuple, TypeObject, TypeKeywordArguments, TypeString:
			return true, nil
		default:
			return false, nil
		}
	})
	env.RegisterTest("sequence", func(v Value, args []Value) (bool, error) {
		switch v.Type() {
		case TypeArray, TypeTuple, TypeString:
			return true, nil
		default:
			return false, nil
		}
	})
	env.RegisterTest("odd", func(v Value, args []Value) (bool, error) {
		if v.Type() != TypeInteger {
			return false, &TypeError{Operation: "is odd", Got: v.Type()}
		}
		return v.AsInt()%2 != 0, nil
	})
	env.RegisterTest("even", func(v Value, args []Value) (bool, error) {
		if v.Type() != TypeInteger {
			return false, &TypeError{Operation: "is even", Got: v.Type()}
		}
		return v.AsInt()%2 == 0, nil
	})
	env.RegisterTest("divisibleby", func(v Value, args []Value) (bool, error) {
		if len(args) == 0 || v.Type() != TypeInteger || args[0].Type() != TypeInteger {
			return false, argError("is divisibleby", "expected an integer divisor")
		}
		d := args[0].AsInt()
		if d == 0 {
			return false, argError("is divisibleby", "division by zero")
		}
		return v.AsInt()%d == 0, nil
	})
	env.RegisterTest("lower", func(v Value, args []Value) (bool, error) {
		s := v.AsString()
		return s == strings.ToLower(s), nil
	})
	env.RegisterTest("upper", func(v Value, args []Value) (bool, error) {
		s := v.AsString()
		return s == strings.ToUpper(s), nil
	})
	env.RegisterTest("true", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeBoolean && v.AsBool(), nil
	})
	env.RegisterTest("false", func(v Value, args []Value) (bool, error) {
		return v.Type() == TypeBoolean && !v.AsBool(), nil
	})
	eq := func(v Value, args []Value) (bool, error) {
		if len(args) == 0 {
			return false, argError("is eq", "expected 1 argument")
		}
		return v.Equal(args[0]), nil
	}
	env.RegisterTest("eq", eq)
	env.RegisterTest("equalto", eq)
	env.RegisterTest("==", eq)
	ne := func(v Value, args []Value) (bool, error) {
		if len(args) == 0 {
			return false, argError("is ne", "expected 1 argument")
		}
		return !v.Equal(args[0]), nil
	}
	env.RegisterTest("ne", ne)
	cmpTest := func(name string, ok func(c int) bool) TestFunc {
		return func(v Value, args []Value) (bool, error) {
			if len(args) == 0 {
				return false, argError("is "+name, "expected 1 argument")
			}
			c, err := Compare(v, args[0])
			if err != nil {
				return false, err
			}
			return ok(c), nil
		}
	}
	env.RegisterTest("lt", cmpTest("lt", func(c int) bool { return c < 0 }))
	env.RegisterTest("le", cmpTest("le", func(c int) bool { return c <= 0 }))
	env.RegisterTest("gt", cmpTest("gt", func(c int) bool { return c > 0 }))
	env.RegisterTest("ge", cmpTest("ge", func(c int) bool { return c >= 0 }))
	env.RegisterTest("in", func(v Value, args []Value) (bool, error) {
		if len(args) == 0 {
			return false, argError("is in", "expected 1 argument")
		}
		return containsValue(args[0], v)
	})
}
