package templating

import (
	"fmt"
	"reflect"
)

// FromGo converts an arbitrary Go value into a Value, the same way a host
// application's render-time variables cross into the template's value
// model. nil becomes Null; strings, bools, and every built-in integer and
// floating point kind convert directly; slices, arrays, and maps convert
// element-wise (map keys are stringified with fmt.Sprint and then sorted,
// since a Go map carries no insertion order to preserve); pointers convert
// their pointee (a nil pointer converts like nil); funcs are wrapped as
// callable Function values; anything else falls back to its fmt.Sprint
// representation as a String, rather than failing the whole render over one
// inconvenient host type.
func FromGo(v any) Value {
	if v == nil {
		return Null()
	}
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return Str(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return Int(int64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return Int(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case map[string]any:
		return fromGoMap(t)
	case []any:
		return fromGoSlice(t)
	}
	return fromGoReflect(reflect.ValueOf(v))
}

func fromGoMap(m map[string]any) Value {
	o := NewObject()
	for k, v := range m {
		o.Set(k, FromGo(v))
	}
	return Obj(sortedClone(o))
}

func fromGoSlice(items []any) Value {
	out := make([]Value, len(items))
	for i, it := range items {
		out[i] = FromGo(it)
	}
	return Array(out)
}

// sortedClone returns o with keys reordered alphabetically; used only when
// the source of the keys was a Go map, which carries no meaningful order of
// its own, so sorting at least makes output deterministic across renders.
func sortedClone(o *Object) *Object {
	keys := append([]string(nil), o.Keys()...)
	sortStrings(keys)
	c := NewObject()
	for _, k := range keys {
		v, _ := o.Get(k)
		c.Set(k, v)
	}
	return c
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func fromGoReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null()
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return fromGoReflect(rv.Elem())
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make([]Value, n)
		for i := 0; i < n; i++ {
			out[i] = FromGo(rv.Index(i).Interface())
		}
		return Array(out)
	case reflect.Map:
		o := NewObject()
		for _, key := range rv.MapKeys() {
			o.Set(fmt.Sprint(key.Interface()), FromGo(rv.MapIndex(key).Interface()))
		}
		return Obj(sortedClone(o))
	case reflect.String:
		return Str(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.Func:
		return Func(wrapGoFunc(rv))
	default:
		return Str(fmt.Sprint(rv.Interface()))
	}
}

// wrapGoFunc adapts an arbitrary host Go function into a Callable so it can
// be bound as a template global via Engine's WithGlobal option (the
// mechanism range and strftime_now would use if a host wanted to override
// the built-in ones). Positional args are converted from Value to each
// parameter's concrete Go type at the call boundary with ToGo plus a
// reflect-level numeric coercion, and the result converts back with FromGo;
// a trailing error return is surfaced as the Callable's error instead of
// being wrapped into the Value.
func wrapGoFunc(rv reflect.Value) Callable {
	rt := rv.Type()
	errorType := reflect.TypeOf((*error)(nil)).Elem()
	return func(args []Value, env *Environment) (Value, error) {
		variadic := rt.IsVariadic()
		if !variadic && len(args) != rt.NumIn() {
			return Value{}, argError("function", fmt.Sprintf("expected %d arguments, got %d", rt.NumIn(), len(args)))
		}
		if variadic && len(args) < rt.NumIn()-1 {
			return Value{}, argError("function", fmt.Sprintf("expected at least %d arguments, got %d", rt.NumIn()-1, len(args)))
		}

		in := make([]reflect.Value, len(args))
		for i, a := range args {
			paramType := rt.In(i)
			if variadic && i >= rt.NumIn()-1 {
				paramType = rt.In(rt.NumIn() - 1).Elem()
			}
			in[i] = goValueFor(a, paramType)
		}

		results := rv.Call(in)
		if len(results) == 0 {
			return Null(), nil
		}
		last := results[len(results)-1]
		if last.Type().Implements(errorType) && !last.IsNil() {
			return Value{}, last.Interface().(error)
		}
		if last.Type().Implements(errorType) {
			if len(results) == 1 {
				return Null(), nil
			}
			return FromGo(results[0].Interface()), nil
		}
		return FromGo(results[0].Interface()), nil
	}
}

// goValueFor converts a Value into a reflect.Value assignable to want,
// coercing between Go's numeric kinds the way ToGo's fixed output types
// (int64, float64) need to when the target parameter is, say, an int or a
// float32.
func goValueFor(v Value, want reflect.Type) reflect.Value {
	native := ToGo(v)
	if native == nil {
		return reflect.Zero(want)
	}
	nv := reflect.ValueOf(native)
	if nv.Type().AssignableTo(want) {
		return nv
	}
	if nv.Type().ConvertibleTo(want) {
		return nv.Convert(want)
	}
	return reflect.Zero(want)
}

// ToGo converts a Value back into a plain Go value (map[string]any,
// []any, string, bool, int64, float64, or nil), the inverse of FromGo used
// by goValueFor to pass Values into wrapped Go functions.
func ToGo(v Value) any {
	switch v.Type() {
	case TypeInteger:
		return v.AsInt()
	case TypeFloat:
		return v.AsFloat()
	case TypeString:
		return v.AsString()
	case TypeBoolean:
		return v.AsBool()
	case TypeNull, TypeUndefined:
		return nil
	case TypeArray, TypeTuple:
		seq := v.AsSeq()
		out := make([]any, len(seq))
		for i, e := range seq {
			out[i] = ToGo(e)
		}
		return out
	case TypeObject, TypeKeywordArguments:
		obj := v.AsObject()
		out := make(map[string]any, obj.Len())
		for _, k := range obj.Keys() {
			val, _ := obj.Get(k)
			out[k] = ToGo(val)
		}
		return out
	case TypeFunction:
		return "<function>"
	default:
		return nil
	}
}
