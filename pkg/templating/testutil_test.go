package templating

import "github.com/prompt-templates/jinjarun/pkg/nodes"

// programFromOutput wraps a single expression node in a one-statement
// Program, the shape most evaluator unit tests need.
func programFromOutput(expr nodes.Node) *nodes.Program {
	return &nodes.Program{Body: []nodes.Node{&nodes.Output{Expression: expr}}}
}

// programOf builds a Program from an arbitrary statement list.
func programOf(body ...nodes.Node) *nodes.Program {
	return &nodes.Program{Body: body}
}

// renderProgram is the common test entry point: build a fresh root
// environment with every default registered, then run prog against vars.
func renderProgram(prog *nodes.Program, vars map[string]Value) (string, error) {
	env := NewEnvironment()
	registerDefaultFilters(env)
	registerDefaultTests(env)
	setupGlobals(env)
	for k, v := range vars {
		env.Set(k, v)
	}
	return NewInterpreter().Run(prog, env)
}
