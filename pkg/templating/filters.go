// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package templating

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// registerDefaultFilters installs every built-in filter onto env's root
// registry, `glob_match` and `b64decode` included. Engine has no option for
// adding a custom filter; host applications bind their own helpers as
// ordinary global Function values instead (see WithGlobal), which templates
// call as `name(...)`, while `| name` resolves only through this registry.
func registerDefaultFilters(env *Environment) {
	env.RegisterFilter("upper", stringFilter("upper", strings.ToUpper))
	env.RegisterFilter("lower", stringFilter("lower", strings.ToLower))
	env.RegisterFilter("trim", stringFilter("trim", strings.TrimSpace))
	env.RegisterFilter("capitalize", stringFilter("capitalize", capitalize))
	env.RegisterFilter("title", stringFilter("title", titleCase))
	env.RegisterFilter("length", filterLength)
	env.RegisterFilter("count", filterLength)
	env.RegisterFilter("first", filterFirst)
	env.RegisterFilter("last", filterLast)
	env.RegisterFilter("reverse", filterReverse)
	env.RegisterFilter("sort", filterSort)
	env.RegisterFilter("unique", filterUnique)
	env.RegisterFilter("join", filterJoin)
	env.RegisterFilter("default", filterDefault)
	env.RegisterFilter("d", filterDefault)
	env.RegisterFilter("list", filterList)
	env.RegisterFilter("int", filterInt)
	env.RegisterFilter("float", filterFloat)
	env.RegisterFilter("string", filterString)
	env.RegisterFilter("abs", filterAbs)
	env.RegisterFilter("round", filterRound)
	env.RegisterFilter("min", filterMin)
	env.RegisterFilter("max", filterMax)
	env.RegisterFilter("sum", filterSum)
	env.RegisterFilter("map", filterMap)
	env.RegisterFilter("select", filterSelect)
	env.RegisterFilter("reject", filterReject)
	env.RegisterFilter("selectattr", filterSelectAttr)
	env.RegisterFilter("rejectattr", filterRejectAttr)
	env.RegisterFilter("replace", filterReplace)
	env.RegisterFilter("truncate", filterTruncate)
	env.RegisterFilter("indent", filterIndent)
	env.RegisterFilter("tojson", filterToJSON)
	env.RegisterFilter("b64decode", filterB64Decode)
	env.RegisterFilter("glob_match", filterGlobMatch)
}

func stringFilter(name string, fn func(string) string) FilterFunc {
	return func(input Value, args []Value, env *Environment) (Value, error) {
		if input.Type() != TypeString {
			return Value{}, &TypeError{Operation: name, Got: input.Type()}
		}
		return Str(fn(input.AsString())), nil
	}
}

func filterLength(input Value, args []Value, env *Environment) (Value, error) {
	switch input.Type() {
	case TypeString:
		return Int(int64(runeLen(input.AsString()))), nil
	case TypeArray, TypeTuple:
		return Int(int64(len(input.AsSeq()))), nil
	case TypeObject, TypeKeywordArguments:
		return Int(int64(input.AsObject().Len())), nil
	default:
		return Value{}, &TypeError{Operation: "length", Got: input.Type()}
	}
}

func filterFirst(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "first")
	if err != nil {
		return Value{}, err
	}
	if len(seq) == 0 {
		return Undefined(), nil
	}
	return seq[0], nil
}

func filterLast(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "last")
	if err != nil {
		return Value{}, err
	}
	if len(seq) == 0 {
		return Undefined(), nil
	}
	return seq[len(seq)-1], nil
}

func asSeq(input Value, name string) ([]Value, error) {
	switch input.Type() {
	case TypeArray, TypeTuple:
		return input.AsSeq(), nil
	case TypeString:
		clusters := stringToClusters(input.AsString())
		out := make([]Value, len(clusters))
		for i, c := range clusters {
			out[i] = Str(c)
		}
		return out, nil
	default:
		return nil, &TypeError{Operation: name, Got: input.Type()}
	}
}

func filterReverse(input Value, args []Value, env *Environment) (Value, error) {
	if input.Type() == TypeString {
		clusters := stringToClusters(input.AsString())
		var out strings.Builder
		for i := len(clusters) - 1; i >= 0; i-- {
			out.WriteString(clusters[i])
		}
		return Str(out.String()), nil
	}
	seq, err := asSeq(input, "reverse")
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, len(seq))
	for i, v := range seq {
		out[len(seq)-1-i] = v
	}
	return Array(out), nil
}

func filterSort(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "sort")
	if err != nil {
		return Value{}, err
	}
	reverse := false
	for _, a := range args {
		if a.Type() == TypeKeywordArguments {
			if v, ok := a.AsObject().Get("reverse"); ok {
				reverse = v.Truthy()
			}
		}
	}
	sorted, err := sortValues(seq)
	if err != nil {
		return Value{}, err
	}
	if reverse {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	return Array(sorted), nil
}

func filterUnique(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "unique")
	if err != nil {
		return Value{}, err
	}
	var out []Value
	for _, v := range seq {
		dup := false
		for _, seen := range out {
			if seen.Equal(v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return Array(out), nil
}

func filterJoin(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "join")
	if err != nil {
		return Value{}, err
	}
	sep := ""
	if len(args) > 0 && args[0].Type() == TypeString {
		sep = args[0].AsString()
	}
	parts := make([]string, len(seq))
	for i, v := range seq {
		parts[i] = v.String()
	}
	return Str(strings.Join(parts, sep)), nil
}

func filterDefault(input Value, args []Value, env *Environment) (Value, error) {
	if len(args) == 0 {
		return input, nil
	}
	useForFalsy := false
	if len(args) > 1 && args[1].Truthy() {
		useForFalsy = true
	}
	if input.IsUndefined() || (useForFalsy && !input.Truthy()) {
		return args[0], nil
	}
	return input, nil
}

func filterList(input Value, args []Value, env *Environment) (Value, error) {
	switch input.Type() {
	case TypeArray:
		return input, nil
	case TypeTuple:
		return Array(input.AsSeq()), nil
	case TypeString:
		clusters := stringToClusters(input.AsString())
		out := make([]Value, len(clusters))
		for i, c := range clusters {
			out[i] = Str(c)
		}
		return Array(out), nil
	case TypeObject, TypeKeywordArguments:
		obj := input.AsObject()
		out := make([]Value, 0, obj.Len())
		for _, k := range obj.Keys() {
			out = append(out, Str(k))
		}
		return Array(out), nil
	default:
		return Value{}, &TypeError{Operation: "list", Got: input.Type()}
	}
}

func filterInt(input Value, args []Value, env *Environment) (Value, error) {
	def := Int(0)
	if len(args) > 0 {
		def = args[0]
	}
	switch input.Type() {
	case TypeInteger:
		return input, nil
	case TypeFloat:
		return Int(int64(input.AsFloat())), nil
	case TypeBoolean:
		if input.AsBool() {
			return Int(1), nil
		}
		return Int(0), nil
	case TypeString:
		if n, err := strconv.ParseInt(strings.TrimSpace(input.AsString()), 10, 64); err == nil {
			return Int(n), nil
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(input.AsString()), 64); err == nil {
			return Int(int64(f)), nil
		}
		return def, nil
	default:
		return def, nil
	}
}

func filterFloat(input Value, args []Value, env *Environment) (Value, error) {
	def := Float(0)
	if len(args) > 0 {
		def = args[0]
	}
	switch input.Type() {
	case TypeFloat:
		return input, nil
	case TypeInteger:
		return Float(float64(input.AsInt())), nil
	case TypeString:
		if f, err := strconv.ParseFloat(strings.TrimSpace(input.AsString()), 64); err == nil {
			return Float(f), nil
		}
		return def, nil
	default:
		return def, nil
	}
}

func filterString(input Value, args []Value, env *Environment) (Value, error) {
	return Str(input.String()), nil
}

func filterAbs(input Value, args []Value, env *Environment) (Value, error) {
	switch input.Type() {
	case TypeInteger:
		v := input.AsInt()
		if v < 0 {
			v = -v
		}
		return Int(v), nil
	case TypeFloat:
		v := input.AsFloat()
		if v < 0 {
			v = -v
		}
		return Float(v), nil
	default:
		return Value{}, &TypeError{Operation: "abs", Got: input.Type()}
	}
}

func filterRound(input Value, args []Value, env *Environment) (Value, error) {
	if !input.IsNumeric() {
		return Value{}, &TypeError{Operation: "round", Got: input.Type()}
	}
	precision := 0
	if len(args) > 0 && args[0].Type() == TypeInteger {
		precision = int(args[0].AsInt())
	}
	scale := 1.0
	for i := 0; i < precision; i++ {
		scale *= 10
	}
	f := input.Float64() * scale
	rounded := float64(int64(f + signOf(f)*0.5))
	return Float(rounded / scale), nil
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func filterMin(input Value, args []Value, env *Environment) (Value, error) {
	return filterExtreme(input, "min", func(c int) bool { return c < 0 })
}

func filterMax(input Value, args []Value, env *Environment) (Value, error) {
	return filterExtreme(input, "max", func(c int) bool { return c > 0 })
}

func filterExtreme(input Value, name string, better func(c int) bool) (Value, error) {
	seq, err := asSeq(input, name)
	if err != nil {
		return Value{}, err
	}
	if len(seq) == 0 {
		return Undefined(), nil
	}
	best := seq[0]
	for _, v := range seq[1:] {
		c, err := Compare(v, best)
		if err != nil {
			return Value{}, err
		}
		if better(c) {
			best = v
		}
	}
	return best, nil
}

func filterSum(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "sum")
	if err != nil {
		return Value{}, err
	}
	var attr string
	if len(args) > 0 && args[0].Type() == TypeString {
		attr = args[0].AsString()
	}
	total := Int(0)
	for _, v := range seq {
		if attr != "" {
			v, err = memberLookup(v, attr)
			if err != nil {
				return Value{}, err
			}
		}
		total, err = add(total, v)
		if err != nil {
			return Value{}, err
		}
	}
	return total, nil
}

// filterMap applies either an attribute lookup (`map(attribute="name")`) or
// a registered filter (`map("upper")`) across input, element-wise.
func filterMap(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "map")
	if err != nil {
		return Value{}, err
	}
	attr, filterName, filterArgs := parseMapArgs(args)
	out := make([]Value, len(seq))
	for i, v := range seq {
		if attr != "" {
			mv, err := memberLookup(v, attr)
			if err != nil {
				return Value{}, err
			}
			out[i] = mv
			continue
		}
		fn, ok := env.Filter(filterName)
		if !ok {
			return Value{}, &UnknownFilterError{Name: filterName}
		}
		mv, err := fn(v, filterArgs, env)
		if err != nil {
			return Value{}, err
		}
		out[i] = mv
	}
	return Array(out), nil
}

func parseMapArgs(args []Value) (attr, filterName string, filterArgs []Value) {
	if len(args) == 0 {
		return "", "", nil
	}
	if args[0].Type() == TypeKeywordArguments {
		if v, ok := args[0].AsObject().Get("attribute"); ok {
			return v.AsString(), "", nil
		}
	}
	if args[0].Type() == TypeString {
		return "", args[0].AsString(), args[1:]
	}
	return "", "", nil
}

func filterSelect(input Value, args []Value, env *Environment) (Value, error) {
	return filterSelectReject(input, args, env, true)
}

func filterReject(input Value, args []Value, env *Environment) (Value, error) {
	return filterSelectReject(input, args, env, false)
}

func filterSelectReject(input Value, args []Value, env *Environment, keepOnTrue bool) (Value, error) {
	seq, err := asSeq(input, "select")
	if err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		var out []Value
		for _, v := range seq {
			if v.Truthy() == keepOnTrue {
				out = append(out, v)
			}
		}
		return Array(out), nil
	}
	testName := args[0].AsString()
	test, ok := env.Test(testName)
	if !ok {
		return Value{}, &UnknownTestError{Name: testName}
	}
	extra := args[1:]
	var out []Value
	for _, v := range seq {
		ok, err := test(v, extra)
		if err != nil {
			return Value{}, err
		}
		if ok == keepOnTrue {
			out = append(out, v)
		}
	}
	return Array(out), nil
}

func filterSelectAttr(input Value, args []Value, env *Environment) (Value, error) {
	return filterSelectRejectAttr(input, args, env, true)
}

func filterRejectAttr(input Value, args []Value, env *Environment) (Value, error) {
	return filterSelectRejectAttr(input, args, env, false)
}

func filterSelectRejectAttr(input Value, args []Value, env *Environment, keepOnTrue bool) (Value, error) {
	seq, err := asSeq(input, "selectattr")
	if err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return Value{}, argError("selectattr", "expected at least 1 argument")
	}
	attr := args[0].AsString()
	var out []Value
	if len(args) == 1 {
		for _, v := range seq {
			av, err := memberLookup(v, attr)
			if err != nil {
				return Value{}, err
			}
			if av.Truthy() == keepOnTrue {
				out = append(out, v)
			}
		}
		return Array(out), nil
	}
	testName := args[1].AsString()
	test, ok := env.Test(testName)
	if !ok {
		return Value{}, &UnknownTestError{Name: testName}
	}
	extra := args[2:]
	for _, v := range seq {
		av, err := memberLookup(v, attr)
		if err != nil {
			return Value{}, err
		}
		ok, err := test(av, extra)
		if err != nil {
			return Value{}, err
		}
		if ok == keepOnTrue {
			out = append(out, v)
		}
	}
	return Array(out), nil
}

func filterReplace(input Value, args []Value, env *Environment) (Value, error) {
	if input.Type() != TypeString {
		return Value{}, &TypeError{Operation: "replace", Got: input.Type()}
	}
	return stringReplace(input.AsString(), args)
}

func filterTruncate(input Value, args []Value, env *Environment) (Value, error) {
	if input.Type() != TypeString {
		return Value{}, &TypeError{Operation: "truncate", Got: input.Type()}
	}
	length := 255
	if len(args) > 0 && args[0].Type() == TypeInteger {
		length = int(args[0].AsInt())
	}
	clusters := stringToClusters(input.AsString())
	if len(clusters) <= length {
		return input, nil
	}
	return Str(strings.Join(clusters[:length], "") + "..."), nil
}

func filterIndent(input Value, args []Value, env *Environment) (Value, error) {
	if input.Type() != TypeString {
		return Value{}, &TypeError{Operation: "indent", Got: input.Type()}
	}
	width := 4
	if len(args) > 0 && args[0].Type() == TypeInteger {
		width = int(args[0].AsInt())
	}
	first := false
	if len(args) > 1 {
		first = args[1].Truthy()
	}
	blank := false
	if len(args) > 2 {
		blank = args[2].Truthy()
	}
	pad := strings.Repeat(" ", width)
	lines := strings.Split(input.AsString(), "\n")
	for i := range lines {
		if i == 0 && !first {
			continue
		}
		if lines[i] == "" && !blank {
			continue
		}
		lines[i] = pad + lines[i]
	}
	return Str(strings.Join(lines, "\n")), nil
}

func filterToJSON(input Value, args []Value, env *Environment) (Value, error) {
	indent := ""
	if len(args) > 0 && args[0].Type() == TypeInteger {
		indent = strings.Repeat(" ", int(args[0].AsInt()))
	}
	s, err := MarshalJSON(input, indent)
	if err != nil {
		return Value{}, err
	}
	return Str(s), nil
}

// filterB64Decode decodes a base64-encoded string. Kubernetes secrets
// automatically base64-encode all data values, so chat-template and
// tool-definition payloads sourced from a Secret typically need this
// before they are usable as plain text.
func filterB64Decode(input Value, args []Value, env *Environment) (Value, error) {
	if input.Type() != TypeString {
		return Value{}, &TypeError{Operation: "b64decode", Got: input.Type()}
	}
	decoded, err := base64.StdEncoding.DecodeString(input.AsString())
	if err != nil {
		return Value{}, fmt.Errorf("b64decode: %w", err)
	}
	return Str(string(decoded)), nil
}

// filterGlobMatch filters a list of strings by glob pattern, e.g. picking
// tool names or file fragments matching `"get_*"` out of a larger set.
func filterGlobMatch(input Value, args []Value, env *Environment) (Value, error) {
	seq, err := asSeq(input, "glob_match")
	if err != nil {
		return Value{}, err
	}
	if len(args) == 0 {
		return Value{}, argError("glob_match", "pattern argument required")
	}
	pattern := args[0].AsString()
	var out []Value
	for _, v := range seq {
		if v.Type() != TypeString {
			continue
		}
		matched, err := filepath.Match(pattern, v.AsString())
		if err != nil {
			return Value{}, fmt.Errorf("glob_match: invalid pattern %q: %w", pattern, err)
		}
		if matched {
			out = append(out, v)
		}
	}
	return Array(out), nil
}
