package templating

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// lookupBuiltin resolves a type-specific member or method on receiver by
// name. Rather than attaching a map of bound methods to every Value at
// construction time (which would mean allocating a closure-per-member for
// every string and array the interpreter ever touches), it builds the
// single requested callable lazily, closing over receiver only when name
// actually resolves to something. This mirrors the host-languages-without-
// closures guidance in the design notes, adapted to Go where it mostly
// buys us fewer allocations rather than working around a missing feature.
func lookupBuiltin(receiver Value, name string) (Value, bool) {
	switch receiver.typ {
	case TypeString:
		return stringBuiltin(receiver, name)
	case TypeArray, TypeTuple:
		return seqBuiltin(receiver, name)
	case TypeObject, TypeKeywordArguments:
		return objectBuiltin(receiver, name)
	default:
		return Value{}, false
	}
}

func stringBuiltin(recv Value, name string) (Value, bool) {
	s := recv.s
	switch name {
	case "length":
		return Int(int64(runeLen(s))), true
	case "upper":
		return method0(func() (Value, error) { return Str(strings.ToUpper(s)), nil }), true
	case "lower":
		return method0(func() (Value, error) { return Str(strings.ToLower(s)), nil }), true
	case "strip":
		return method0(func() (Value, error) { return Str(strings.TrimSpace(s)), nil }), true
	case "lstrip":
		return method0(func() (Value, error) { return Str(strings.TrimLeftFunc(s, unicode.IsSpace)), nil }), true
	case "rstrip":
		return method0(func() (Value, error) { return Str(strings.TrimRightFunc(s, unicode.IsSpace)), nil }), true
	case "title":
		return method0(func() (Value, error) { return Str(titleCase(s)), nil }), true
	case "capitalize":
		return method0(func() (Value, error) { return Str(capitalize(s)), nil }), true
	case "startswith":
		return Func(func(args []Value, env *Environment) (Value, error) {
			return Bool(anyAffix(args, s, strings.HasPrefix)), nil
		}), true
	case "endswith":
		return Func(func(args []Value, env *Environment) (Value, error) {
			return Bool(anyAffix(args, s, strings.HasSuffix)), nil
		}), true
	case "split":
		return Func(func(args []Value, env *Environment) (Value, error) {
			return stringSplit(s, args)
		}), true
	case "replace":
		return Func(func(args []Value, env *Environment) (Value, error) {
			return stringReplace(s, args)
		}), true
	case "get", "keys", "values", "items":
		return Value{}, false
	default:
		return Value{}, false
	}
}

func method0(fn func() (Value, error)) Value {
	return Func(func(args []Value, env *Environment) (Value, error) { return fn() })
}

func titleCase(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	words := make([]string, len(fields))
	for i, f := range fields {
		words[i] = capitalize(f)
	}
	// Words are rejoined with single spaces, so any run of whitespace in s
	// (tabs and newlines included) becomes one space and leading/trailing
	// whitespace is dropped; input without whitespace is its one word.
	if strings.IndexFunc(s, unicode.IsSpace) == -1 {
		if len(words) == 1 {
			return words[0]
		}
		return s
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:]))
}

func anyAffix(args []Value, s string, test func(s, affix string) bool) bool {
	if len(args) == 0 {
		return false
	}
	target := args[0]
	if target.typ == TypeTuple || target.typ == TypeArray {
		for _, e := range target.seq {
			if test(s, e.s) {
				return true
			}
		}
		return false
	}
	return test(s, target.s)
}

func seqBuiltin(recv Value, name string) (Value, bool) {
	items := recv.seq
	switch name {
	case "length":
		return Int(int64(len(items))), true
	default:
		return Value{}, false
	}
}

func objectBuiltin(recv Value, name string) (Value, bool) {
	obj := recv.obj
	switch name {
	case "length":
		return Int(int64(obj.Len())), true
	case "get":
		return Func(func(args []Value, env *Environment) (Value, error) {
			if len(args) == 0 {
				return Undefined(), argError("get", "expected at least 1 argument")
			}
			key := args[0].s
			if v, ok := obj.Get(key); ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return Null(), nil
		}), true
	case "keys":
		return method0(func() (Value, error) {
			out := make([]Value, 0, obj.Len())
			for _, k := range obj.Keys() {
				out = append(out, Str(k))
			}
			return Array(out), nil
		}), true
	case "values":
		return method0(func() (Value, error) {
			out := make([]Value, 0, obj.Len())
			for _, k := range obj.Keys() {
				v, _ := obj.Get(k)
				out = append(out, v)
			}
			return Array(out), nil
		}), true
	case "items":
		return method0(func() (Value, error) {
			out := make([]Value, 0, obj.Len())
			for _, k := range obj.Keys() {
				v, _ := obj.Get(k)
				out = append(out, Array([]Value{Str(k), v}))
			}
			return Array(out), nil
		}), true
	default:
		return Value{}, false
	}
}

// stringSplit implements §4.A's split contract: sep=Null splits on
// whitespace runs (trimming leading whitespace, folding any remainder past
// maxsplit into the last element verbatim); sep=string splits literally and
// rejoins the tail with sep past maxsplit.
func stringSplit(s string, args []Value) (Value, error) {
	var sep Value = Null()
	maxsplit := int64(-1)
	if len(args) > 0 {
		sep = args[0]
	}
	if len(args) > 1 && args[1].typ == TypeInteger {
		maxsplit = args[1].AsInt()
	}
	if sep.IsNull() || sep.IsUndefined() {
		return splitWhitespace(s, maxsplit), nil
	}
	if sep.s == "" {
		return Value{}, argError("split", "empty separator")
	}
	return splitOnSep(s, sep.s, maxsplit), nil
}

func splitWhitespace(s string, maxsplit int64) Value {
	trimmed := strings.TrimLeftFunc(s, unicode.IsSpace)
	if trimmed == "" {
		return Array(nil)
	}
	var parts []string
	count := int64(0)
	for trimmed != "" {
		if maxsplit >= 0 && count == maxsplit {
			parts = append(parts, trimmed)
			break
		}
		idx := strings.IndexFunc(trimmed, unicode.IsSpace)
		if idx == -1 {
			parts = append(parts, trimmed)
			break
		}
		parts = append(parts, trimmed[:idx])
		trimmed = strings.TrimLeftFunc(trimmed[idx:], unicode.IsSpace)
		count++
	}
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return Array(out)
}

func splitOnSep(s, sep string, maxsplit int64) Value {
	if maxsplit < 0 {
		parts := strings.Split(s, sep)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = Str(p)
		}
		return Array(out)
	}
	parts := strings.SplitN(s, sep, int(maxsplit)+1)
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = Str(p)
	}
	return Array(out)
}

// stringReplace implements `replace(old, new, count=Null)`.
func stringReplace(s string, args []Value) (Value, error) {
	if len(args) < 2 {
		return Value{}, argError("replace", "expected at least 2 arguments")
	}
	old, newS := args[0].s, args[1].s
	count := -1
	if len(args) > 2 && args[2].typ == TypeInteger {
		count = int(args[2].AsInt())
	}
	return Str(strings.Replace(s, old, newS, count)), nil
}

// stringToClusters splits s into its grapheme clusters so string indexing
// and slicing count clusters, matching Python's unicode-codepoint string
// slicing closely enough for template text (clusters rather than raw code
// points avoids splitting combining sequences).
func stringToClusters(s string) []string {
	out := make([]string, 0, len(s))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}
