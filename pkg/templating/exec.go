package templating

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/prompt-templates/jinjarun/pkg/nodes"
)

// Interpreter walks a compiled Program and renders it against a root
// Environment. It holds no per-render mutable state of its own; all
// render-scoped state lives in the Environment chain, so a single
// Interpreter value is safe to reuse (and a single *Environment tree is
// not, since Set mutates it).
type Interpreter struct{}

// NewInterpreter returns a ready-to-use Interpreter.
func NewInterpreter() *Interpreter { return &Interpreter{} }

// Run renders prog against env, returning the concatenated output of every
// Output statement encountered. A top-level break/continue (one with no
// enclosing For) is a compile-shaped error: a well-formed AST never
// produces it, so it is reported as an ordinary error rather than ignored.
func (it *Interpreter) Run(prog *nodes.Program, env *Environment) (string, error) {
	var out strings.Builder
	sig, err := execBody(prog.Body, env, &out)
	if err != nil {
		return "", err
	}
	if sig != signalNone {
		return "", errors.New("break/continue outside of a loop")
	}
	return out.String(), nil
}

// execBody runs a statement list in order, writing rendered text to out and
// stopping early on the first break/continue signal or error.
func execBody(body []nodes.Node, env *Environment, out *strings.Builder) (signal, error) {
	for _, stmt := range body {
		sig, err := execStatement(stmt, env, out)
		if err != nil {
			return signalNone, err
		}
		if sig != signalNone {
			return sig, nil
		}
	}
	return signalNone, nil
}

func execStatement(n nodes.Node, env *Environment, out *strings.Builder) (signal, error) {
	switch t := n.(type) {
	case *nodes.Output:
		v, err := evalExpression(t.Expression, env)
		if err != nil {
			return signalNone, err
		}
		out.WriteString(v.String())
		return signalNone, nil
	case *nodes.Comment:
		return signalNone, nil
	case *nodes.If:
		return execIf(t, env, out)
	case *nodes.For:
		return execFor(t, env, out)
	case *nodes.SetStatement:
		return signalNone, execSet(t, env)
	case *nodes.Macro:
		env.Set(t.Name, Func(makeMacro(t, env)))
		return signalNone, nil
	case *nodes.CallStatement:
		return signalNone, execCallStatement(t, env, out)
	case *nodes.FilterStatement:
		return signalNone, execFilterStatement(t, env, out)
	case *nodes.Break:
		return signalBreak, nil
	case *nodes.Continue:
		return signalContinue, nil
	default:
		return signalNone, errors.Errorf("nodes: cannot execute node kind %q as a statement", n.Kind())
	}
}

func execIf(t *nodes.If, env *Environment, out *strings.Builder) (signal, error) {
	test, err := evalExpression(t.Test, env)
	if err != nil {
		return signalNone, err
	}
	if test.Truthy() {
		return execBody(t.Body, env.Child(), out)
	}
	if t.Alternate != nil {
		return execBody(t.Alternate, env.Child(), out)
	}
	return signalNone, nil
}

// execFor implements §4.F's loop contract: Target is bound fresh each
// iteration in a child scope (so the loop variable never leaks or persists
// across iterations), `loop` carries index/first/last/length, break/continue
// propagate as signals, and DefaultBody renders once when iteration yields
// zero items.
func execFor(t *nodes.For, env *Environment, out *strings.Builder) (signal, error) {
	items, err := forIterableItems(t.Iterable, t.Target, env)
	if err != nil {
		return signalNone, err
	}
	if len(items) == 0 {
		if t.DefaultBody != nil {
			return execBody(t.DefaultBody, env.Child(), out)
		}
		return signalNone, nil
	}
	for i, item := range items {
		child := env.Child()
		if err := bindTarget(t.Target, item, child); err != nil {
			return signalNone, err
		}
		child.Set("loop", loopObject(i, len(items)))
		sig, err := execBody(t.Body, child, out)
		if err != nil {
			return signalNone, err
		}
		if sig == signalBreak {
			break
		}
		// signalContinue and signalNone both just move to the next item.
	}
	return signalNone, nil
}

// forIterableItems resolves a For statement's Iterable into the concrete
// list of items to loop over. `for x in xs if cond` parses as Iterable
// being a *nodes.SelectExpression, whose Test must be evaluated once per
// candidate with the loop target already bound (so cond can reference x),
// not once in the outer scope the way a bare expression-position select
// (`{{ x if cond }}`) would be. Only candidates for which Test is truthy
// survive.
func forIterableItems(iterable nodes.Node, target nodes.Node, env *Environment) ([]Value, error) {
	sel, ok := iterable.(*nodes.SelectExpression)
	if !ok {
		v, err := evalExpression(iterable, env)
		if err != nil {
			return nil, err
		}
		return iterationItems(v)
	}

	candidates, err := evalExpression(sel.Expression, env)
	if err != nil {
		return nil, err
	}
	all, err := iterationItems(candidates)
	if err != nil {
		return nil, err
	}

	filtered := make([]Value, 0, len(all))
	for _, item := range all {
		child := env.Child()
		if err := bindTarget(target, item, child); err != nil {
			return nil, err
		}
		keep, err := evalExpression(sel.Test, child)
		if err != nil {
			return nil, err
		}
		if keep.Truthy() {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func iterationItems(v Value) ([]Value, error) {
	switch v.Type() {
	case TypeArray, TypeTuple:
		return v.AsSeq(), nil
	case TypeString:
		clusters := stringToClusters(v.AsString())
		out := make([]Value, len(clusters))
		for i, c := range clusters {
			out[i] = Str(c)
		}
		return out, nil
	case TypeObject, TypeKeywordArguments:
		obj := v.AsObject()
		out := make([]Value, 0, obj.Len())
		for _, k := range obj.Keys() {
			out = append(out, Str(k))
		}
		return out, nil
	default:
		return nil, &TypeError{Operation: "iteration", Got: v.Type()}
	}
}

// bindTarget binds a For/SetStatement target: a bare Identifier, a
// TupleLiteral destructuring pattern (`for k, v in ...`), or a non-computed
// MemberExpression (`{% set ns.attr = value %}`), which mutates the
// receiver's Object in place rather than rebinding a name — the mechanism
// namespace() relies on to escape the "set writes only the current scope"
// rule.
func bindTarget(target nodes.Node, v Value, env *Environment) error {
	switch tt := target.(type) {
	case *nodes.Identifier:
		env.Set(tt.Name, v)
		return nil
	case *nodes.TupleLiteral:
		seq := v.AsSeq()
		for i, item := range tt.Items {
			ident, ok := item.(*nodes.Identifier)
			if !ok {
				continue
			}
			if i < len(seq) {
				env.Set(ident.Name, seq[i])
			} else {
				env.Set(ident.Name, Undefined())
			}
		}
		return nil
	case *nodes.MemberExpression:
		if tt.Computed {
			return errors.New("set: computed member targets are not supported")
		}
		ident, ok := tt.Property.(*nodes.Identifier)
		if !ok {
			return errors.New("set: member target property must be an identifier")
		}
		base, err := evalExpression(tt.Base, env)
		if err != nil {
			return err
		}
		if base.Type() != TypeObject {
			return &TypeError{Operation: "set attribute", Got: base.Type()}
		}
		base.AsObject().Set(ident.Name, v)
		return nil
	default:
		return errors.New("set: unsupported assignment target")
	}
}

func loopObject(index, length int) Value {
	o := NewObject()
	o.Set("index", Int(int64(index+1)))
	o.Set("index0", Int(int64(index)))
	o.Set("revindex", Int(int64(length-index)))
	o.Set("revindex0", Int(int64(length-index-1)))
	o.Set("first", Bool(index == 0))
	o.Set("last", Bool(index == length-1))
	o.Set("length", Int(int64(length)))
	return Obj(o)
}

// execSet implements both the expression form (`{% set x = expr %}`) and
// the block-capture form (`{% set x %}...{% endset %}`, detected by a nil
// Value and a non-nil Body); both write through Target via bindTarget,
// which writes the current scope only, never an enclosing one.
func execSet(t *nodes.SetStatement, env *Environment) error {
	if t.Value != nil {
		v, err := evalExpression(t.Value, env)
		if err != nil {
			return err
		}
		return bindTarget(t.Target, v, env)
	}
	var captured strings.Builder
	if _, err := execBody(t.Body, env.Child(), &captured); err != nil {
		return err
	}
	return bindTarget(t.Target, Str(captured.String()), env)
}

// makeMacro closes over the macro's defining environment's parent chain is
// irrelevant: per the call-site closure semantics, the returned Callable
// builds its parameter scope as a child of the *call site* environment
// (env, the argument passed to the Callable), not of the environment
// active when the Macro statement ran.
func makeMacro(t *nodes.Macro, defEnv *Environment) Callable {
	return func(args []Value, callEnv *Environment) (Value, error) {
		scope := callEnv.Child()
		positional, kwargs := splitKwArgs(args)
		for i, p := range t.Params {
			switch {
			case i < len(positional):
				scope.Set(p.Name, positional[i])
			case kwargs != nil:
				if v, ok := kwargs.Get(p.Name); ok {
					scope.Set(p.Name, v)
					continue
				}
				fallthrough
			default:
				if p.Default != nil {
					v, err := evalExpression(p.Default, scope)
					if err != nil {
						return Value{}, err
					}
					scope.Set(p.Name, v)
				} else {
					scope.Set(p.Name, Undefined())
				}
			}
		}
		var out strings.Builder
		if _, err := execBody(t.Body, scope, &out); err != nil {
			return Value{}, err
		}
		return Str(out.String()), nil
	}
}

func splitKwArgs(args []Value) ([]Value, *Object) {
	if len(args) > 0 && args[len(args)-1].Type() == TypeKeywordArguments {
		return args[:len(args)-1], args[len(args)-1].AsObject()
	}
	return args, nil
}

// execCallStatement implements `{% call macro(...) %}body{% endcall %}`:
// Body is rendered into a zero-argument `caller()` Function bound in the
// call's own argument-evaluation scope, then the macro call proceeds as
// usual with that binding visible to it.
func execCallStatement(t *nodes.CallStatement, env *Environment, out *strings.Builder) error {
	callee, err := evalExpression(t.Call.Callee, env)
	if err != nil {
		return err
	}
	if callee.Type() != TypeFunction {
		return &NotCallableError{Got: callee.Type()}
	}
	callerScope := env.Child()
	callerScope.Set("caller", Func(func(args []Value, callEnv *Environment) (Value, error) {
		var captured strings.Builder
		if _, err := execBody(t.Body, callerScope.Child(), &captured); err != nil {
			return Value{}, err
		}
		return Str(captured.String()), nil
	}))
	args, err := evalArgs(t.Call.Args, callerScope)
	if err != nil {
		return err
	}
	result, err := callee.AsCallable()(args, callerScope)
	if err != nil {
		return err
	}
	out.WriteString(result.String())
	return nil
}

// execFilterStatement implements `{% filter name %}body{% endfilter %}`:
// Body is rendered to a string, then piped through Filter.
func execFilterStatement(t *nodes.FilterStatement, env *Environment, out *strings.Builder) error {
	var captured strings.Builder
	if _, err := execBody(t.Body, env.Child(), &captured); err != nil {
		return err
	}
	result, err := applyFilter(t.Filter, Str(captured.String()), env)
	if err != nil {
		return err
	}
	out.WriteString(result.String())
	return nil
}
