package templating

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

// Type is the stable tag identifying a Value's variant. Tests and error
// messages reference these strings directly, so they must not change.
type Type string

const (
	TypeInteger          Type = "IntegerValue"
	TypeFloat            Type = "FloatValue"
	TypeString           Type = "StringValue"
	TypeBoolean          Type = "BooleanValue"
	TypeNull             Type = "NullValue"
	TypeUndefined        Type = "UndefinedValue"
	TypeArray            Type = "ArrayValue"
	TypeTuple            Type = "TupleValue"
	TypeObject           Type = "ObjectValue"
	TypeKeywordArguments Type = "KeywordArgumentsValue"
	TypeFunction         Type = "FunctionValue"
)

// Callable is the shape every Function value closes over: positional
// arguments already evaluated, plus the environment the call happened in
// (macros need it to read the call-site scope; host functions mostly
// ignore it).
type Callable func(args []Value, env *Environment) (Value, error)

// Value is the tagged variant every template expression evaluates to. It is
// a value type (not an interface) on purpose: dispatch happens by reading
// typ, never by dynamic type assertion on a base interface, so a new
// variant can't sneak in without touching every switch that matters.
type Value struct {
	typ Type
	i   int64
	f   float64
	s   string
	b   bool
	seq []Value
	obj *Object
	fn  Callable
}

// Object is an insertion-ordered string-keyed map, matching Jinja's
// dict semantics (iteration order follows insertion, not key sort order).
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty ordered map.
func NewObject() *Object {
	return &Object{vals: map[string]Value{}}
}

// Get returns the value bound to key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Set inserts or overwrites key. Overwriting an existing key keeps its
// original position, matching Python dict semantics.
func (o *Object) Set(key string, v Value) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Keys returns the keys in insertion order. Callers must not mutate the
// returned slice.
func (o *Object) Keys() []string { return o.keys }

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }

// Clone returns a shallow copy with its own key/value storage.
func (o *Object) Clone() *Object {
	c := NewObject()
	for _, k := range o.keys {
		c.Set(k, o.vals[k])
	}
	return c
}

func Int(i int64) Value    { return Value{typ: TypeInteger, i: i} }
func Float(f float64) Value { return Value{typ: TypeFloat, f: f} }
func Str(s string) Value   { return Value{typ: TypeString, s: s} }
func Bool(b bool) Value    { return Value{typ: TypeBoolean, b: b} }
func Null() Value          { return Value{typ: TypeNull} }
func Undefined() Value     { return Value{typ: TypeUndefined} }

func Array(items []Value) Value { return Value{typ: TypeArray, seq: items} }
func Tuple(items []Value) Value { return Value{typ: TypeTuple, seq: items} }

func Obj(o *Object) Value { return Value{typ: TypeObject, obj: o} }

// KwArgs wraps an Object as the distinguished kwargs payload that
// CallExpression/FilterCall argument evaluation appends as the final
// positional argument when any keyword argument was supplied.
func KwArgs(o *Object) Value { return Value{typ: TypeKeywordArguments, obj: o} }

func Func(c Callable) Value { return Value{typ: TypeFunction, fn: c} }

// Type reports the variant tag.
func (v Value) Type() Type { return v.typ }

func (v Value) IsUndefined() bool { return v.typ == TypeUndefined }
func (v Value) IsNull() bool      { return v.typ == TypeNull }

// IsNumeric reports whether v is an Integer or a Float.
func (v Value) IsNumeric() bool { return v.typ == TypeInteger || v.typ == TypeFloat }

// AsInt returns the integer payload; only meaningful when Type() ==
// TypeInteger.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload; only meaningful when Type() ==
// TypeFloat.
func (v Value) AsFloat() float64 { return v.f }

// AsBool returns the boolean payload; only meaningful when Type() ==
// TypeBoolean.
func (v Value) AsBool() bool { return v.b }

// AsString returns the raw string payload; only meaningful when Type() ==
// TypeString.
func (v Value) AsString() string { return v.s }

// AsSeq returns the backing slice for Array/Tuple values.
func (v Value) AsSeq() []Value { return v.seq }

// AsObject returns the backing ordered map for Object/KeywordArguments
// values.
func (v Value) AsObject() *Object { return v.obj }

// AsCallable returns the backing Callable for Function values.
func (v Value) AsCallable() Callable { return v.fn }

// Float64 returns the numeric value of an Integer or Float receiver as a
// float64; any other type returns 0, so callers that care about the
// distinction must check IsNumeric first.
func (v Value) Float64() float64 {
	if v.typ == TypeInteger {
		return float64(v.i)
	}
	return v.f
}

// Truthy implements §3's truthiness table: Python-flavored, not Go's.
func (v Value) Truthy() bool {
	switch v.typ {
	case TypeInteger:
		return v.i != 0
	case TypeFloat:
		return v.f != 0
	case TypeString:
		return v.s != ""
	case TypeBoolean:
		return v.b
	case TypeNull, TypeUndefined:
		return false
	case TypeArray, TypeTuple:
		return len(v.seq) > 0
	case TypeObject, TypeKeywordArguments:
		return v.obj.Len() > 0
	case TypeFunction:
		return true
	default:
		return false
	}
}

// runeLen counts grapheme clusters rather than raw code points wherever a
// cluster spans more than one rune (combining marks, emoji ZWJ sequences);
// plain ASCII/Latin templates pay no extra cost since uniseg short-circuits
// single-rune clusters.
func runeLen(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// String renders v the way it appears when concatenated into template
// output. Float keeps a trailing ".0" when it is mathematically an
// integer; Null/Undefined render as empty strings.
func (v Value) String() string {
	switch v.typ {
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return formatFloat(v.f)
	case TypeString:
		return v.s
	case TypeBoolean:
		if v.b {
			return "True"
		}
		return "False"
	case TypeNull, TypeUndefined:
		return ""
	case TypeArray, TypeTuple:
		parts := make([]string, len(v.seq))
		for i, e := range v.seq {
			parts[i] = reprOf(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeObject, TypeKeywordArguments:
		parts := make([]string, 0, v.obj.Len())
		for _, k := range v.obj.Keys() {
			val, _ := v.obj.Get(k)
			parts = append(parts, fmt.Sprintf("%q: %s", k, reprOf(val)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case TypeFunction:
		return "<function>"
	default:
		return ""
	}
}

// reprOf mirrors Python's repr() for the limited purpose of rendering
// containers: strings get quoted, everything else uses String().
func reprOf(v Value) string {
	if v.typ == TypeString {
		return fmt.Sprintf("%q", v.s)
	}
	return v.String()
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10) + ".0"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal implements Jinja's loose `==`: Integer/Float/Boolean compare by
// numeric value across kinds (1 == 1.0 == True is all true pairwise against
// each other where relevant), String/Array/Tuple/Object compare
// structurally, and any other pairing (including anything touching
// Null/Undefined) is equal only to its own kind.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		return v.Float64() == o.Float64()
	}
	if v.typ == TypeBoolean && o.IsNumeric() {
		return boolToFloat(v.b) == o.Float64()
	}
	if o.typ == TypeBoolean && v.IsNumeric() {
		return boolToFloat(o.b) == v.Float64()
	}
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeBoolean:
		return v.b == o.b
	case TypeString:
		return v.s == o.s
	case TypeNull, TypeUndefined:
		return true
	case TypeArray, TypeTuple:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case TypeObject, TypeKeywordArguments:
		if v.obj.Len() != o.obj.Len() {
			return false
		}
		for _, k := range v.obj.Keys() {
			ov, ok := o.obj.Get(k)
			if !ok {
				return false
			}
			vv, _ := v.obj.Get(k)
			if !vv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Compare orders two values for `sort`/`< <= > >=`. Numerics compare by
// value; strings compare byte-wise (locale-aware collation is out of
// scope). Comparing across any other pairing is an error.
func Compare(a, b Value) (int, error) {
	if a.IsNumeric() && b.IsNumeric() {
		af, bf := a.Float64(), b.Float64()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if a.typ == TypeString && b.typ == TypeString {
		return strings.Compare(a.s, b.s), nil
	}
	return 0, fmt.Errorf("cannot compare %s and %s", a.typ, b.typ)
}

// sortValues sorts a copy of items ascending using Compare, returning an
// error if any two elements are not comparable.
func sortValues(items []Value) ([]Value, error) {
	out := make([]Value, len(items))
	copy(out, items)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		c, err := Compare(out[i], out[j])
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return out, nil
}
