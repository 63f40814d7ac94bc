package templating

import (
	"fmt"
	"strings"
	"time"
)

// setupGlobals binds the names every template can reference without the
// host application doing anything: true/false/none (resolved as ordinary
// Identifier lookups per nodes.Identifier's doc comment, not dedicated
// literal node kinds), namespace (a mutable attribute bag that survives
// across {% for %} iterations, the standard workaround for the fact that
// {% set %} only ever writes the current scope), raise_exception (the usual
// escape hatch templates use to fail loudly on a bad input), range (a
// Python-style integer sequence builder), and strftime_now (the current
// time formatted with strftime-style directives).
func setupGlobals(env *Environment) {
	env.Set("true", Bool(true))
	env.Set("True", Bool(true))
	env.Set("false", Bool(false))
	env.Set("False", Bool(false))
	env.Set("none", Null())
	env.Set("None", Null())
	env.Set("namespace", Func(namespaceGlobal))
	env.Set("raise_exception", Func(raiseExceptionGlobal))
	env.Set("range", Func(rangeGlobal))
	env.Set("strftime_now", Func(strftimeNowGlobal))
}

func namespaceGlobal(args []Value, env *Environment) (Value, error) {
	o := NewObject()
	for _, a := range args {
		if a.Type() == TypeKeywordArguments {
			for _, k := range a.AsObject().Keys() {
				v, _ := a.AsObject().Get(k)
				o.Set(k, v)
			}
		}
	}
	return Obj(o), nil
}

func raiseExceptionGlobal(args []Value, env *Environment) (Value, error) {
	msg := "raised from template"
	if len(args) > 0 {
		msg = args[0].String()
	}
	return Value{}, fmt.Errorf("%s", msg)
}

// rangeGlobal mirrors Python's range(): one argument is stop (start 0,
// step 1); two are start, stop; three are start, stop, step. A zero step
// is rejected the same way Python raises ValueError for it.
func rangeGlobal(args []Value, env *Environment) (Value, error) {
	var start, stop, step int64
	start, step = 0, 1
	switch len(args) {
	case 1:
		stop = args[0].AsInt()
	case 2:
		start = args[0].AsInt()
		stop = args[1].AsInt()
	case 3:
		start = args[0].AsInt()
		stop = args[1].AsInt()
		step = args[2].AsInt()
	default:
		return Value{}, argError("range", "expected 1 to 3 arguments")
	}
	if step == 0 {
		return Value{}, argError("range", "step must not be zero")
	}

	var out []Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, Int(i))
		}
	}
	return Array(out), nil
}

// strftimeDirectives maps the subset of C/Python strftime directives a
// prompt template plausibly needs onto Go's reference-time layout.
var strftimeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'M': "04",
	'S': "05",
	'B': "January",
	'b': "Jan",
	'A': "Monday",
	'a': "Mon",
	'p': "PM",
	'Z': "MST",
	'z': "-0700",
}

// strftimeNowGlobal formats the current time with a strftime-style format
// string (e.g. "%Y-%m-%d %H:%M:%S"). Directives not in strftimeDirectives
// are passed through literally, matching strftime's convention of copying
// unrecognized text verbatim.
func strftimeNowGlobal(args []Value, env *Environment) (Value, error) {
	format := "%Y-%m-%dT%H:%M:%S"
	if len(args) > 0 {
		format = args[0].String()
	}
	return Str(formatStrftime(time.Now(), format)), nil
}

func formatStrftime(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i == len(format)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		if layout, ok := strftimeDirectives[format[i]]; ok {
			b.WriteString(t.Format(layout))
		} else if format[i] == '%' {
			b.WriteByte('%')
		} else {
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
