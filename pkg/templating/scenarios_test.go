package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt-templates/jinjarun/pkg/nodes"
)

// TestScenarioTruthyAndOr covers §8 scenario 1.
func TestScenarioTruthyAndOr(t *testing.T) {
	or := func(l, r nodes.Node) *nodes.Program {
		return programFromOutput(&nodes.BinaryExpression{Left: l, Right: r, Operator: nodes.Operator{Value: "or"}})
	}
	and := func(l, r nodes.Node) *nodes.Program {
		return programFromOutput(&nodes.BinaryExpression{Left: l, Right: r, Operator: nodes.Operator{Value: "and"}})
	}
	assert.Equal(t, "x", mustRender(t, or(&nodes.IntegerLiteral{Value: 0}, &nodes.StringLiteral{Value: "x"}), nil))
	assert.Equal(t, "x", mustRender(t, or(&nodes.ArrayLiteral{}, &nodes.StringLiteral{Value: "x"}), nil))
	assert.Equal(t, "z", mustRender(t, and(&nodes.StringLiteral{Value: "y"}, &nodes.StringLiteral{Value: "z"}), nil))
}

// TestScenarioForElse covers §8 scenario 2.
func TestScenarioForElse(t *testing.T) {
	prog := programOf(&nodes.For{
		Target:      &nodes.Identifier{Name: "x"},
		Iterable:    &nodes.Identifier{Name: "xs"},
		Body:        []nodes.Node{&nodes.Output{Expression: &nodes.Identifier{Name: "x"}}},
		DefaultBody: []nodes.Node{&nodes.Output{Expression: &nodes.StringLiteral{Value: "none"}}},
	})
	assert.Equal(t, "none", mustRender(t, prog, map[string]Value{"xs": Array(nil)}))
	assert.Equal(t, "12", mustRender(t, prog, map[string]Value{"xs": Array([]Value{Int(1), Int(2)})}))
}

// TestScenarioMacroDefaultsAndCaller covers §8 scenario 3.
func TestScenarioMacroDefaultsAndCaller(t *testing.T) {
	macro := &nodes.Macro{
		Name: "m",
		Params: []nodes.MacroParam{
			{Name: "a"},
			{Name: "b", Default: &nodes.IntegerLiteral{Value: 2}},
		},
		Body: []nodes.Node{
			&nodes.Output{Expression: &nodes.Identifier{Name: "a"}},
			&nodes.Output{Expression: &nodes.StringLiteral{Value: "-"}},
			&nodes.Output{Expression: &nodes.Identifier{Name: "b"}},
			&nodes.Output{Expression: &nodes.StringLiteral{Value: "-"}},
			&nodes.Output{Expression: &nodes.CallExpression{Callee: &nodes.Identifier{Name: "caller"}}},
		},
	}
	prog := programOf(macro, &nodes.CallStatement{
		Call: &nodes.CallExpression{
			Callee: &nodes.Identifier{Name: "m"},
			Args:   []nodes.Node{&nodes.IntegerLiteral{Value: 1}},
		},
		Body: []nodes.Node{&nodes.Output{Expression: &nodes.StringLiteral{Value: "hi"}}},
	})
	assert.Equal(t, "1-2-hi", mustRender(t, prog, nil))
}

// TestScenarioSliceNegativeStep covers §8 scenario 4.
func TestScenarioSliceNegativeStep(t *testing.T) {
	reversed := programFromOutput(&nodes.SliceExpression{
		Base: &nodes.StringLiteral{Value: "abcde"},
		Step: &nodes.IntegerLiteral{Value: -1},
	})
	assert.Equal(t, "edcba", mustRender(t, reversed, nil))

	slice := programFromOutput(&nodes.FilterExpression{
		Expression: &nodes.SliceExpression{
			Base: &nodes.ArrayLiteral{Items: []nodes.Node{
				&nodes.IntegerLiteral{Value: 1}, &nodes.IntegerLiteral{Value: 2},
				&nodes.IntegerLiteral{Value: 3}, &nodes.IntegerLiteral{Value: 4},
			}},
			From: &nodes.IntegerLiteral{Value: 1},
			To:   &nodes.IntegerLiteral{Value: 3},
		},
		Filter: nodes.FilterCall{Name: "join"},
	})
	assert.Equal(t, "23", mustRender(t, slice, nil))
}

// TestScenarioDestructuringFor covers §8 scenario 5.
func TestScenarioDestructuringFor(t *testing.T) {
	prog := programOf(&nodes.For{
		Target: &nodes.TupleLiteral{Items: []nodes.Node{
			&nodes.Identifier{Name: "k"}, &nodes.Identifier{Name: "v"},
		}},
		Iterable: &nodes.Identifier{Name: "items"},
		Body: []nodes.Node{
			&nodes.Output{Expression: &nodes.Identifier{Name: "k"}},
			&nodes.Output{Expression: &nodes.StringLiteral{Value: "="}},
			&nodes.Output{Expression: &nodes.Identifier{Name: "v"}},
			&nodes.Output{Expression: &nodes.StringLiteral{Value: ";"}},
		},
	})
	items := Array([]Value{
		Array([]Value{Str("a"), Int(1)}),
		Array([]Value{Str("b"), Int(2)}),
	})
	assert.Equal(t, "a=1;b=2;", mustRender(t, prog, map[string]Value{"items": items}))
}

// TestScenarioDefaultFilter covers §8 scenario 6.
func TestScenarioDefaultFilter(t *testing.T) {
	missing := programFromOutput(&nodes.FilterExpression{
		Expression: &nodes.Identifier{Name: "missing"},
		Filter:     nodes.FilterCall{Name: "default", Args: []nodes.Node{&nodes.StringLiteral{Value: "-"}}},
	})
	assert.Equal(t, "-", mustRender(t, missing, nil))

	zeroForce := programFromOutput(&nodes.FilterExpression{
		Expression: &nodes.IntegerLiteral{Value: 0},
		Filter: nodes.FilterCall{Name: "default", Args: []nodes.Node{
			&nodes.StringLiteral{Value: "-"}, &nodes.Identifier{Name: "true"},
		}},
	})
	assert.Equal(t, "-", mustRender(t, zeroForce, nil))

	zeroPlain := programFromOutput(&nodes.FilterExpression{
		Expression: &nodes.IntegerLiteral{Value: 0},
		Filter:     nodes.FilterCall{Name: "default", Args: []nodes.Node{&nodes.StringLiteral{Value: "-"}}},
	})
	assert.Equal(t, "0", mustRender(t, zeroPlain, nil))
}

// TestScenarioPreCompilationFailsFast covers §8 ambient scenario 7.
func TestScenarioPreCompilationFailsFast(t *testing.T) {
	loader := &failingLoader{name: "broken"}
	_, err := New(loader)
	require.Error(t, err)
	var target *CompilationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "broken", target.TemplateName)
}

type failingLoader struct{ name string }

func (l *failingLoader) Load(name string) (*nodes.Program, error) {
	return nil, assertError("malformed AST")
}
func (l *failingLoader) Names() []string { return []string{l.name} }

// TestScenarioUnknownTemplate covers §8 ambient scenario 8.
func TestScenarioUnknownTemplate(t *testing.T) {
	loader := NewMapLoader(map[string]*nodes.Program{
		"a": programFromOutput(&nodes.StringLiteral{Value: "x"}),
		"b": programFromOutput(&nodes.StringLiteral{Value: "y"}),
	})
	eng, err := New(loader)
	require.NoError(t, err)

	_, err = eng.Render("missing", nil)
	require.Error(t, err)
	var target *TemplateNotFoundError
	require.ErrorAs(t, err, &target)
	assert.ElementsMatch(t, []string{"a", "b"}, target.AvailableTemplates)
}

// TestScenarioPostProcessorChainCollapsesBlankLines covers §8 ambient scenario 9.
func TestScenarioPostProcessorChainCollapsesBlankLines(t *testing.T) {
	prog := programOf(
		&nodes.Output{Expression: &nodes.StringLiteral{Value: "a\n\n\n\n\nb"}},
	)
	loader := NewMapLoader(map[string]*nodes.Program{"t": prog})
	eng, err := New(loader, WithPostProcessor(NewWhitespacePostProcessor()))
	require.NoError(t, err)

	out, err := eng.Render("t", nil)
	require.NoError(t, err)
	assert.Equal(t, "a\n\nb", out)
}
