// Package nodes defines the abstract syntax tree consumed by the template
// evaluator. Producing this tree from template source is the job of a lexer
// and parser that live outside this module; nodes only describes the shapes
// the evaluator knows how to walk.
package nodes

// Kind identifies the concrete shape of a Node for code that only cares
// about the discriminator (decoders, debug printers); the evaluator itself
// type-switches on the concrete node types.
type Kind string

const (
	KindProgram                   Kind = "Program"
	KindOutput                    Kind = "Output"
	KindIf                        Kind = "If"
	KindFor                       Kind = "For"
	KindSetStatement              Kind = "SetStatement"
	KindMacro                     Kind = "Macro"
	KindCallStatement             Kind = "CallStatement"
	KindFilterStatement           Kind = "FilterStatement"
	KindBreak                     Kind = "Break"
	KindContinue                  Kind = "Continue"
	KindComment                   Kind = "Comment"
	KindIntegerLiteral            Kind = "IntegerLiteral"
	KindFloatLiteral              Kind = "FloatLiteral"
	KindStringLiteral             Kind = "StringLiteral"
	KindArrayLiteral              Kind = "ArrayLiteral"
	KindTupleLiteral              Kind = "TupleLiteral"
	KindObjectLiteral             Kind = "ObjectLiteral"
	KindIdentifier                Kind = "Identifier"
	KindMemberExpression          Kind = "MemberExpression"
	KindCallExpression            Kind = "CallExpression"
	KindBinaryExpression          Kind = "BinaryExpression"
	KindUnaryExpression           Kind = "UnaryExpression"
	KindFilterExpression          Kind = "FilterExpression"
	KindTestExpression            Kind = "TestExpression"
	KindSelectExpression          Kind = "SelectExpression"
	KindTernary                   Kind = "Ternary"
	KindSliceExpression           Kind = "SliceExpression"
	KindKeywordArgumentExpression Kind = "KeywordArgumentExpression"
	KindSpreadExpression          Kind = "SpreadExpression"
)

// Node is the marker interface implemented by every AST node. The evaluator
// type-switches on the concrete type; Kind exists for callers (loaders,
// debug printers) that only need the discriminator.
type Node interface {
	Kind() Kind
}

// Program is the root of a template: a flat sequence of statements that,
// rendered in order and concatenated, produce the template's output.
type Program struct {
	Body []Node
}

func (*Program) Kind() Kind { return KindProgram }

// Output wraps a single expression whose stringified result is appended to
// the render. Literal template text (anything outside a `{{ }}`/`{% %}`
// delimiter) is represented the same way, with Expression set to a
// StringLiteral — there is no separate "raw text" node kind.
type Output struct {
	Expression Node
}

func (*Output) Kind() Kind { return KindOutput }

// If evaluates Test and renders Body when truthy, otherwise Alternate.
// Alternate is nil for a bare `{% if %}`, holds the `{% else %}` body, or
// holds a single-element slice wrapping another *If for `{% elif %}`.
type If struct {
	Test      Node
	Body      []Node
	Alternate []Node
}

func (*If) Kind() Kind { return KindIf }

// For iterates Iterable, binding Target on each surviving iteration and
// rendering Body; DefaultBody renders once if iteration produced zero items.
type For struct {
	Target      Node
	Iterable    Node
	Body        []Node
	DefaultBody []Node
}

func (*For) Kind() Kind { return KindFor }

// SetStatement assigns Value (or, if Value is nil, the rendered string of
// Body — the `{% set x %}...{% endset %}` form) to Target.
type SetStatement struct {
	Target Node
	Value  Node
	Body   []Node
}

func (*SetStatement) Kind() Kind { return KindSetStatement }

// MacroParam is one declared macro parameter, with an optional default
// expression evaluated lazily in the call scope.
type MacroParam struct {
	Name    string
	Default Node
}

// Macro declares a callable template fragment bound to Name in the
// defining scope.
type Macro struct {
	Name   string
	Params []MacroParam
	Body   []Node
}

func (*Macro) Kind() Kind { return KindMacro }

// CallStatement renders Body as the implicit `caller()` macro invoked while
// evaluating Call.
type CallStatement struct {
	Call *CallExpression
	Body []Node
}

func (*CallStatement) Kind() Kind { return KindCallStatement }

// FilterStatement renders Body then pipes the resulting string through
// Filter.
type FilterStatement struct {
	Filter FilterCall
	Body   []Node
}

func (*FilterStatement) Kind() Kind { return KindFilterStatement }

// Break unwinds to the nearest enclosing For.
type Break struct{}

func (*Break) Kind() Kind { return KindBreak }

// Continue unwinds the current For iteration only.
type Continue struct{}

func (*Continue) Kind() Kind { return KindContinue }

// Comment carries no runtime behavior; it is never rendered.
type Comment struct {
	Text string
}

func (*Comment) Kind() Kind { return KindComment }

// IntegerLiteral is a whole-number literal.
type IntegerLiteral struct {
	Value int64
}

func (*IntegerLiteral) Kind() Kind { return KindIntegerLiteral }

// FloatLiteral is a fractional-number literal.
type FloatLiteral struct {
	Value float64
}

func (*FloatLiteral) Kind() Kind { return KindFloatLiteral }

// StringLiteral is a quoted string literal.
type StringLiteral struct {
	Value string
}

func (*StringLiteral) Kind() Kind { return KindStringLiteral }

// ArrayLiteral is a `[a, b, c]` literal.
type ArrayLiteral struct {
	Items []Node
}

func (*ArrayLiteral) Kind() Kind { return KindArrayLiteral }

// TupleLiteral is a `(a, b, c)` literal; it also appears as a destructuring
// target in SetStatement and For.
type TupleLiteral struct {
	Items []Node
}

func (*TupleLiteral) Kind() Kind { return KindTupleLiteral }

// ObjectPair is one `key: value` entry of an ObjectLiteral, in source order.
type ObjectPair struct {
	Key   Node
	Value Node
}

// ObjectLiteral is a `{"k": v, ...}` literal.
type ObjectLiteral struct {
	Pairs []ObjectPair
}

func (*ObjectLiteral) Kind() Kind { return KindObjectLiteral }

// Identifier is a bare name reference, resolved against the environment
// chain (including the built-in `true`/`false`/`none` globals, which are
// ordinary bound names, not dedicated literal node kinds).
type Identifier struct {
	Name string
}

func (*Identifier) Kind() Kind { return KindIdentifier }

// MemberExpression is `base.property` (Computed == false, Property is
// always an Identifier) or `base[property]` (Computed == true, Property is
// an arbitrary expression).
type MemberExpression struct {
	Base     Node
	Property Node
	Computed bool
}

func (*MemberExpression) Kind() Kind { return KindMemberExpression }

// CallExpression invokes Callee with Args. Args may contain
// SpreadExpression and KeywordArgumentExpression entries; keyword
// arguments must follow all positional ones.
type CallExpression struct {
	Callee Node
	Args   []Node
}

func (*CallExpression) Kind() Kind { return KindCallExpression }

// Operator wraps a binary operator's textual form, e.g. "+", "and", "in".
type Operator struct {
	Value string
}

// BinaryExpression is `left OP right`.
type BinaryExpression struct {
	Left     Node
	Right    Node
	Operator Operator
}

func (*BinaryExpression) Kind() Kind { return KindBinaryExpression }

// UnaryExpression is `not target` or a numeric sign (`-target`, `+target`).
type UnaryExpression struct {
	Operator string
	Target   Node
}

func (*UnaryExpression) Kind() Kind { return KindUnaryExpression }

// FilterCall is the `name(args, kwargs)` part of a filter or filter
// statement; Name-only usage (`x | upper`) has a nil/empty Args.
type FilterCall struct {
	Name string
	Args []Node
}

// FilterExpression is `expression | filter`.
type FilterExpression struct {
	Expression Node
	Filter     FilterCall
}

func (*FilterExpression) Kind() Kind { return KindFilterExpression }

// TestCall is the `name(args)` part of `is name(args)`.
type TestCall struct {
	Name string
	Args []Node
}

// TestExpression is `expression is [not] test`.
type TestExpression struct {
	Expression Node
	Test       TestCall
	Negate     bool
}

func (*TestExpression) Kind() Kind { return KindTestExpression }

// SelectExpression is `expression if test` with no `else` branch.
type SelectExpression struct {
	Expression Node
	Test       Node
}

func (*SelectExpression) Kind() Kind { return KindSelectExpression }

// Ternary is `then if condition else alt`.
type Ternary struct {
	Condition Node
	Then      Node
	Else      Node
}

func (*Ternary) Kind() Kind { return KindTernary }

// SliceExpression is `base[from:to:step]`; any of From/To/Step may be nil,
// meaning the corresponding bound was omitted in source.
type SliceExpression struct {
	Base Node
	From Node
	To   Node
	Step Node
}

func (*SliceExpression) Kind() Kind { return KindSliceExpression }

// KeywordArgumentExpression is a `name=value` entry inside a call, filter,
// or test argument list.
type KeywordArgumentExpression struct {
	Name  string
	Value Node
}

func (*KeywordArgumentExpression) Kind() Kind { return KindKeywordArgumentExpression }

// SpreadExpression is a `*expression` entry inside a call argument list;
// Expression must evaluate to an Array, whose items are inlined in place.
type SpreadExpression struct {
	Expression Node
}

func (*SpreadExpression) Kind() Kind { return KindSpreadExpression }
