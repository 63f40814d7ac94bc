package templating

import (
	"github.com/pkg/errors"

	"github.com/prompt-templates/jinjarun/pkg/nodes"
)

// evalExpression walks an expression node and returns its Value. It never
// mutates env except through an explicit CallExpression into a macro or
// host function that itself binds parameters in a child scope.
func evalExpression(n nodes.Node, env *Environment) (Value, error) {
	switch t := n.(type) {
	case *nodes.IntegerLiteral:
		return Int(t.Value), nil
	case *nodes.FloatLiteral:
		return Float(t.Value), nil
	case *nodes.StringLiteral:
		return Str(t.Value), nil
	case *nodes.Identifier:
		v, ok := env.Lookup(t.Name)
		if !ok {
			return Value{}, &UnknownIdentifierError{Name: t.Name}
		}
		return v, nil
	case *nodes.ArrayLiteral:
		return evalArrayLiteral(t, env)
	case *nodes.TupleLiteral:
		items, err := evalNodeList(t.Items, env)
		if err != nil {
			return Value{}, err
		}
		return Tuple(items), nil
	case *nodes.ObjectLiteral:
		return evalObjectLiteral(t, env)
	case *nodes.MemberExpression:
		return evalMember(t, env)
	case *nodes.CallExpression:
		return evalCall(t, env)
	case *nodes.BinaryExpression:
		return evalBinary(t, env)
	case *nodes.UnaryExpression:
		return evalUnary(t, env)
	case *nodes.FilterExpression:
		return evalFilterExpr(t, env)
	case *nodes.TestExpression:
		return evalTestExpr(t, env)
	case *nodes.SelectExpression:
		return evalSelectExpr(t, env)
	case *nodes.Ternary:
		return evalTernary(t, env)
	case *nodes.SliceExpression:
		return evalSlice(t, env)
	case *nodes.SpreadExpression:
		// A bare spread outside a call/array context evaluates to the
		// spread array itself; evalCall/evalArrayLiteral special-case
		// SpreadExpression before recursing here.
		return evalExpression(t.Expression, env)
	default:
		return Value{}, errors.Errorf("nodes: cannot evaluate node kind %q as an expression", n.Kind())
	}
}

func evalNodeList(items []nodes.Node, env *Environment) ([]Value, error) {
	out := make([]Value, 0, len(items))
	for _, it := range items {
		v, err := evalExpression(it, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func evalArrayLiteral(t *nodes.ArrayLiteral, env *Environment) (Value, error) {
	out := make([]Value, 0, len(t.Items))
	for _, it := range t.Items {
		if spread, ok := it.(*nodes.SpreadExpression); ok {
			v, err := evalExpression(spread.Expression, env)
			if err != nil {
				return Value{}, err
			}
			if v.Type() != TypeArray && v.Type() != TypeTuple {
				return Value{}, &TypeError{Operation: "spread in array literal", Got: v.Type()}
			}
			out = append(out, v.AsSeq()...)
			continue
		}
		v, err := evalExpression(it, env)
		if err != nil {
			return Value{}, err
		}
		out = append(out, v)
	}
	return Array(out), nil
}

func evalObjectLiteral(t *nodes.ObjectLiteral, env *Environment) (Value, error) {
	o := NewObject()
	for _, pair := range t.Pairs {
		var key string
		if ident, ok := pair.Key.(*nodes.Identifier); ok {
			key = ident.Name
		} else {
			kv, err := evalExpression(pair.Key, env)
			if err != nil {
				return Value{}, err
			}
			key = kv.String()
		}
		v, err := evalExpression(pair.Value, env)
		if err != nil {
			return Value{}, err
		}
		o.Set(key, v)
	}
	return Obj(o), nil
}

func evalMember(t *nodes.MemberExpression, env *Environment) (Value, error) {
	base, err := evalExpression(t.Base, env)
	if err != nil {
		return Value{}, err
	}
	var key string
	if !t.Computed {
		ident, ok := t.Property.(*nodes.Identifier)
		if !ok {
			return Value{}, errors.New("member access: non-computed property must be an identifier")
		}
		key = ident.Name
	} else {
		pv, err := evalExpression(t.Property, env)
		if err != nil {
			return Value{}, err
		}
		if pv.IsNumeric() {
			return indexSeq(base, pv.AsInt())
		}
		key = pv.AsString()
	}
	return memberLookup(base, key)
}

func memberLookup(base Value, key string) (Value, error) {
	switch base.Type() {
	case TypeObject, TypeKeywordArguments:
		if v, ok := base.AsObject().Get(key); ok {
			return v, nil
		}
	}
	if v, ok := lookupBuiltin(base, key); ok {
		return v, nil
	}
	return Undefined(), nil
}

func indexSeq(base Value, idx int64) (Value, error) {
	switch base.Type() {
	case TypeArray, TypeTuple:
		seq := base.AsSeq()
		i := normalizeIndex(idx, len(seq))
		if i < 0 || i >= len(seq) {
			return Undefined(), nil
		}
		return seq[i], nil
	case TypeString:
		clusters := stringToClusters(base.AsString())
		i := normalizeIndex(idx, len(clusters))
		if i < 0 || i >= len(clusters) {
			return Undefined(), nil
		}
		return Str(clusters[i]), nil
	default:
		return Value{}, &TypeError{Operation: "indexing", Got: base.Type()}
	}
}

func normalizeIndex(idx int64, length int) int {
	if idx < 0 {
		return length + int(idx)
	}
	return int(idx)
}

func evalCall(t *nodes.CallExpression, env *Environment) (Value, error) {
	callee, err := evalExpression(t.Callee, env)
	if err != nil {
		return Value{}, err
	}
	if callee.Type() != TypeFunction {
		return Value{}, &NotCallableError{Got: callee.Type()}
	}
	args, err := evalArgs(t.Args, env)
	if err != nil {
		return Value{}, err
	}
	return callee.AsCallable()(args, env)
}

// evalArgs evaluates a call/filter/test argument list, expanding
// SpreadExpression entries and collecting any trailing
// KeywordArgumentExpression entries into a single KeywordArguments value
// appended as the final positional argument, matching the Design Notes'
// "kwargs arrive as an ordinary trailing argument" contract.
func evalArgs(argNodes []nodes.Node, env *Environment) ([]Value, error) {
	var positional []Value
	var kwargs *Object
	for _, a := range argNodes {
		switch an := a.(type) {
		case *nodes.SpreadExpression:
			v, err := evalExpression(an.Expression, env)
			if err != nil {
				return nil, err
			}
			if v.Type() != TypeArray && v.Type() != TypeTuple {
				return nil, &TypeError{Operation: "spread in call", Got: v.Type()}
			}
			positional = append(positional, v.AsSeq()...)
		case *nodes.KeywordArgumentExpression:
			v, err := evalExpression(an.Value, env)
			if err != nil {
				return nil, err
			}
			if kwargs == nil {
				kwargs = NewObject()
			}
			kwargs.Set(an.Name, v)
		default:
			v, err := evalExpression(a, env)
			if err != nil {
				return nil, err
			}
			positional = append(positional, v)
		}
	}
	if kwargs != nil {
		positional = append(positional, KwArgs(kwargs))
	}
	return positional, nil
}

func evalBinary(t *nodes.BinaryExpression, env *Environment) (Value, error) {
	op := t.Operator.Value

	// Short-circuiting operators must not evaluate the right side eagerly.
	switch op {
	case "and":
		left, err := evalExpression(t.Left, env)
		if err != nil {
			return Value{}, err
		}
		if !left.Truthy() {
			return left, nil
		}
		return evalExpression(t.Right, env)
	case "or":
		left, err := evalExpression(t.Left, env)
		if err != nil {
			return Value{}, err
		}
		if left.Truthy() {
			return left, nil
		}
		return evalExpression(t.Right, env)
	}

	left, err := evalExpression(t.Left, env)
	if err != nil {
		return Value{}, err
	}
	right, err := evalExpression(t.Right, env)
	if err != nil {
		return Value{}, err
	}
	return applyBinary(op, left, right)
}

func applyBinary(op string, left, right Value) (Value, error) {
	switch op {
	case "+":
		return add(left, right)
	case "-":
		return arith(op, left, right, func(a, b float64) float64 { return a - b })
	case "*":
		return mul(left, right)
	case "/":
		return trueDiv(left, right)
	case "//":
		return floorDiv(left, right)
	case "%":
		return mod(left, right)
	case "**":
		return pow(left, right)
	case "~":
		return Str(left.String() + right.String()), nil
	case "==":
		return Bool(left.Equal(right)), nil
	case "!=":
		return Bool(!left.Equal(right)), nil
	case "<", "<=", ">", ">=":
		return compareOp(op, left, right)
	case "in":
		ok, err := containsValue(right, left)
		if err != nil {
			return Value{}, err
		}
		return Bool(ok), nil
	case "not in":
		ok, err := containsValue(right, left)
		if err != nil {
			return Value{}, err
		}
		return Bool(!ok), nil
	default:
		return Value{}, &UnknownOperatorError{Operator: op}
	}
}

func add(left, right Value) (Value, error) {
	if left.Type() == TypeString && right.Type() == TypeString {
		return Str(left.AsString() + right.AsString()), nil
	}
	if (left.Type() == TypeArray && right.Type() == TypeArray) ||
		(left.Type() == TypeTuple && right.Type() == TypeTuple) {
		out := append(append([]Value{}, left.AsSeq()...), right.AsSeq()...)
		if left.Type() == TypeTuple {
			return Tuple(out), nil
		}
		return Array(out), nil
	}
	return arith("+", left, right, func(a, b float64) float64 { return a + b })
}

func mul(left, right Value) (Value, error) {
	if left.Type() == TypeString && right.Type() == TypeInteger {
		return Str(repeatString(left.AsString(), right.AsInt())), nil
	}
	if right.Type() == TypeString && left.Type() == TypeInteger {
		return Str(repeatString(right.AsString(), left.AsInt())), nil
	}
	return arith("*", left, right, func(a, b float64) float64 { return a * b })
}

func repeatString(s string, n int64) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

// arith implements §4.D's mixed-numeric arithmetic rule: Integer op
// Integer stays Integer (computed with Go's int64 operation, which wraps on
// overflow), any Float operand promotes the whole expression to Float.
func arith(op string, left, right Value, floatOp func(a, b float64) float64) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		bad := left
		if left.IsNumeric() {
			bad = right
		}
		return Value{}, &TypeError{Operation: "arithmetic " + op, Got: bad.Type()}
	}
	if left.Type() == TypeInteger && right.Type() == TypeInteger {
		switch op {
		case "+":
			return Int(left.AsInt() + right.AsInt()), nil
		case "-":
			return Int(left.AsInt() - right.AsInt()), nil
		case "*":
			return Int(left.AsInt() * right.AsInt()), nil
		}
	}
	return Float(floatOp(left.Float64(), right.Float64())), nil
}

func trueDiv(left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, &TypeError{Operation: "division", Got: nonNumericType(left, right)}
	}
	if right.Float64() == 0 {
		return Value{}, errors.New("division by zero")
	}
	return Float(left.Float64() / right.Float64()), nil
}

func floorDiv(left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, &TypeError{Operation: "floor division", Got: nonNumericType(left, right)}
	}
	if right.Float64() == 0 {
		return Value{}, errors.New("division by zero")
	}
	if left.Type() == TypeInteger && right.Type() == TypeInteger {
		a, b := left.AsInt(), right.AsInt()
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return Int(q), nil
	}
	return Float(floorFloat(left.Float64() / right.Float64())), nil
}

func floorFloat(f float64) float64 {
	i := float64(int64(f))
	if f < i {
		return i - 1
	}
	return i
}

func mod(left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, &TypeError{Operation: "modulo", Got: nonNumericType(left, right)}
	}
	if right.Float64() == 0 {
		return Value{}, errors.New("modulo by zero")
	}
	if left.Type() == TypeInteger && right.Type() == TypeInteger {
		a, b := left.AsInt(), right.AsInt()
		r := a % b
		if r != 0 && ((r < 0) != (b < 0)) {
			r += b
		}
		return Int(r), nil
	}
	af, bf := left.Float64(), right.Float64()
	r := af - floorFloat(af/bf)*bf
	return Float(r), nil
}

func pow(left, right Value) (Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return Value{}, &TypeError{Operation: "exponentiation", Got: nonNumericType(left, right)}
	}
	if left.Type() == TypeInteger && right.Type() == TypeInteger && right.AsInt() >= 0 {
		result := int64(1)
		base := left.AsInt()
		for i := int64(0); i < right.AsInt(); i++ {
			result *= base
		}
		return Int(result), nil
	}
	return Float(floatPow(left.Float64(), right.Float64())), nil
}

func floatPow(base, exp float64) float64 {
	if exp == 0 {
		return 1
	}
	neg := exp < 0
	if neg {
		exp = -exp
	}
	result := 1.0
	whole := int64(exp)
	frac := exp - float64(whole)
	for i := int64(0); i < whole; i++ {
		result *= base
	}
	if frac != 0 {
		// Fractional exponents are rare in template arithmetic; fall back
		// to a Newton's-method nthRoot approximation rather than pulling in
		// math.Pow for a single call site. Good enough for template rendering, not a
		// numerics library.
		result *= nthRoot(base, 1/frac)
	}
	if neg {
		return 1 / result
	}
	return result
}

func nthRoot(base, n float64) float64 {
	if base <= 0 || n == 0 {
		return 0
	}
	x := base
	for i := 0; i < 30; i++ {
		x = x - (powApprox(x, n)-base)/(n*powApprox(x, n-1))
	}
	return x
}

func powApprox(base, exp float64) float64 {
	result := 1.0
	for e := exp; e >= 1; e-- {
		result *= base
	}
	return result
}

func nonNumericType(left, right Value) Type {
	if !left.IsNumeric() {
		return left.Type()
	}
	return right.Type()
}

func compareOp(op string, left, right Value) (Value, error) {
	c, err := Compare(left, right)
	if err != nil {
		return Value{}, err
	}
	switch op {
	case "<":
		return Bool(c < 0), nil
	case "<=":
		return Bool(c <= 0), nil
	case ">":
		return Bool(c > 0), nil
	case ">=":
		return Bool(c >= 0), nil
	default:
		return Value{}, &UnknownOperatorError{Operator: op}
	}
}

// containsValue implements the `in` operator and `is in` test: container
// `in` subject, i.e. does subject contain needle.
func containsValue(container, needle Value) (bool, error) {
	switch container.Type() {
	case TypeArray, TypeTuple:
		for _, e := range container.AsSeq() {
			if e.Equal(needle) {
				return true, nil
			}
		}
		return false, nil
	case TypeString:
		if needle.Type() != TypeString {
			return false, &TypeError{Operation: "in", Got: needle.Type()}
		}
		return stringContains(container.AsString(), needle.AsString()), nil
	case TypeObject, TypeKeywordArguments:
		_, ok := container.AsObject().Get(needle.AsString())
		return ok, nil
	default:
		return false, &TypeError{Operation: "in", Got: container.Type()}
	}
}

func stringContains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func evalUnary(t *nodes.UnaryExpression, env *Environment) (Value, error) {
	v, err := evalExpression(t.Target, env)
	if err != nil {
		return Value{}, err
	}
	switch t.Operator {
	case "not":
		return Bool(!v.Truthy()), nil
	case "-":
		if v.Type() == TypeInteger {
			return Int(-v.AsInt()), nil
		}
		if v.Type() == TypeFloat {
			return Float(-v.AsFloat()), nil
		}
		return Value{}, &TypeError{Operation: "unary -", Got: v.Type()}
	case "+":
		if !v.IsNumeric() {
			return Value{}, &TypeError{Operation: "unary +", Got: v.Type()}
		}
		return v, nil
	default:
		return Value{}, &UnknownOperatorError{Operator: t.Operator}
	}
}

func evalFilterExpr(t *nodes.FilterExpression, env *Environment) (Value, error) {
	input, err := evalExpression(t.Expression, env)
	if err != nil {
		return Value{}, err
	}
	return applyFilter(t.Filter, input, env)
}

func applyFilter(call nodes.FilterCall, input Value, env *Environment) (Value, error) {
	fn, ok := env.Filter(call.Name)
	if !ok {
		return Value{}, &UnknownFilterError{Name: call.Name}
	}
	args, err := evalArgs(call.Args, env)
	if err != nil {
		return Value{}, err
	}
	return fn(input, args, env)
}

func evalTestExpr(t *nodes.TestExpression, env *Environment) (Value, error) {
	subject, err := evalExpression(t.Expression, env)
	if err != nil {
		return Value{}, err
	}
	fn, ok := env.Test(t.Test.Name)
	if !ok {
		return Value{}, &UnknownTestError{Name: t.Test.Name}
	}
	args, err := evalNodeList(t.Test.Args, env)
	if err != nil {
		return Value{}, err
	}
	result, err := fn(subject, args)
	if err != nil {
		return Value{}, err
	}
	if t.Negate {
		result = !result
	}
	return Bool(result), nil
}

func evalSelectExpr(t *nodes.SelectExpression, env *Environment) (Value, error) {
	test, err := evalExpression(t.Test, env)
	if err != nil {
		return Value{}, err
	}
	if !test.Truthy() {
		return Undefined(), nil
	}
	return evalExpression(t.Expression, env)
}

func evalTernary(t *nodes.Ternary, env *Environment) (Value, error) {
	cond, err := evalExpression(t.Condition, env)
	if err != nil {
		return Value{}, err
	}
	if cond.Truthy() {
		return evalExpression(t.Then, env)
	}
	if t.Else == nil {
		return Undefined(), nil
	}
	return evalExpression(t.Else, env)
}

func evalSlice(t *nodes.SliceExpression, env *Environment) (Value, error) {
	base, err := evalExpression(t.Base, env)
	if err != nil {
		return Value{}, err
	}
	var elems []Value
	var rebuild func([]Value) Value
	switch base.Type() {
	case TypeArray:
		elems, rebuild = base.AsSeq(), Array
	case TypeTuple:
		elems, rebuild = base.AsSeq(), Tuple
	case TypeString:
		clusters := stringToClusters(base.AsString())
		strs := make([]Value, len(clusters))
		for i, c := range clusters {
			strs[i] = Str(c)
		}
		elems = strs
		rebuild = func(vs []Value) Value {
			var out string
			for _, v := range vs {
				out += v.AsString()
			}
			return Str(out)
		}
	default:
		return Value{}, &TypeError{Operation: "slicing", Got: base.Type()}
	}

	step := int64(1)
	if t.Step != nil {
		sv, err := evalExpression(t.Step, env)
		if err != nil {
			return Value{}, err
		}
		step = sv.AsInt()
		if step == 0 {
			return Value{}, errors.New("slice step cannot be zero")
		}
	}

	n := int64(len(elems))
	defaultFrom, defaultTo := int64(0), n
	if step < 0 {
		defaultFrom, defaultTo = n-1, -1
	}
	fromV, err := resolveBound(t.From, defaultFrom, n, env)
	if err != nil {
		return Value{}, err
	}
	toV, err := resolveBound(t.To, defaultTo, n, env)
	if err != nil {
		return Value{}, err
	}

	var out []Value
	if step > 0 {
		for i := clampIndex(fromV, n); i < toV && i < n; i += step {
			if i >= 0 {
				out = append(out, elems[i])
			}
		}
	} else {
		for i := clampIndex(fromV, n); i > toV && i >= 0; i += step {
			if i < n {
				out = append(out, elems[i])
			}
		}
	}
	return rebuild(out), nil
}

// clampIndex bounds a normalized index to [0, n] for use as a slice start.
func clampIndex(i, n int64) int64 {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// resolveBound evaluates a slice bound expression (From/To), if
// present, and normalizes a negative result relative to n the same way
// indexing does; a nil node yields fallback unchanged (fallback is already
// in normalized form).
func resolveBound(node nodes.Node, fallback, n int64, env *Environment) (int64, error) {
	if node == nil {
		return fallback, nil
	}
	v, err := evalExpression(node, env)
	if err != nil {
		return 0, err
	}
	idx := v.AsInt()
	if idx < 0 {
		idx += n
	}
	return idx, nil
}
