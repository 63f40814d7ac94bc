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

// Command render exercises the templating engine from the command line: it
// loads a pre-parsed AST from a directory of "<name>.ast.json" files, binds
// a YAML vars file into the rendering context, and writes the result to
// stdout. It exists for manually poking at the evaluator; building or
// parsing template source is out of scope here just as it is for the
// package it drives.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/prompt-templates/jinjarun/pkg/nodes"
	"github.com/prompt-templates/jinjarun/pkg/templating"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		templatesDir = flag.String("templates", ".", "directory of <name>.ast.json files")
		templateName = flag.String("template", "", "name of the template to render (required)")
		varsPath     = flag.String("vars", "", "path to a YAML file providing the render context")
		collapse     = flag.Bool("collapse-blank-lines", false, "collapse runs of 3+ blank lines in the output")
		debugAST     = flag.Bool("debug-ast", false, "print the loaded template's AST instead of rendering")
	)
	flag.Parse()

	logger := slog.Default()

	if *templateName == "" {
		fmt.Fprintln(os.Stderr, "render: -template is required")
		return 2
	}

	loader := templating.NewFileSystemLoader(*templatesDir)

	if *debugAST {
		prog, err := loader.Load(*templateName)
		if err != nil {
			fmt.Fprintln(os.Stderr, templating.FormatRenderErrorShort(err, *templateName))
			return 1
		}
		printAST(prog)
		return 0
	}

	opts := []templating.Option{templating.WithTracing()}
	if *collapse {
		opts = append(opts, templating.WithPostProcessor(templating.NewWhitespacePostProcessor()))
	}

	engine, err := templating.New(loader, opts...)
	if err != nil {
		logger.Error("failed to initialize engine", "error", err, "run_id", uuid.NewString())
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	vars, err := loadVars(*varsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "render: loading vars:", err)
		return 1
	}

	out, err := engine.Render(*templateName, vars)
	if err != nil {
		fmt.Fprintln(os.Stderr, templating.FormatRenderError(err, *templateName))
		return 1
	}

	fmt.Print(out)
	return 0
}

// loadVars reads a YAML document at path into a generic context map. An
// empty path renders with no variables bound, the same as passing an empty
// YAML mapping.
func loadVars(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("parsing %s as YAML: %w", path, err)
	}
	return vars, nil
}

// printAST renders prog as an indented table of node kinds, padding each
// column with go-runewidth so wide (e.g. CJK) literal text embedded in
// string-literal nodes still lines up.
func printAST(prog *nodes.Program) {
	for _, n := range prog.Body {
		printNode(n, 0)
	}
}

func printNode(n nodes.Node, depth int) {
	if n == nil {
		return
	}
	label := fmt.Sprintf("%s%s", indent(depth), n.Kind())
	padded := runewidth.FillRight(label, 28)
	fmt.Printf("%s| %T\n", padded, n)
	for _, child := range childrenOf(n) {
		printNode(child, depth+1)
	}
}

func indent(depth int) string {
	out := make([]byte, depth*2)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

// childrenOf extracts the immediate child nodes of n for the purposes of
// -debug-ast display. It covers the node kinds most templates actually use;
// a kind missing from this switch simply prints as a leaf.
func childrenOf(n nodes.Node) []nodes.Node {
	switch t := n.(type) {
	case *nodes.Output:
		return []nodes.Node{t.Expression}
	case *nodes.If:
		children := append([]nodes.Node{t.Test}, t.Body...)
		return append(children, t.Alternate...)
	case *nodes.For:
		children := []nodes.Node{t.Target, t.Iterable}
		children = append(children, t.Body...)
		return append(children, t.DefaultBody...)
	case *nodes.SetStatement:
		children := []nodes.Node{t.Target}
		if t.Value != nil {
			children = append(children, t.Value)
		}
		return append(children, t.Body...)
	case *nodes.Macro:
		return t.Body
	case *nodes.CallStatement:
		children := []nodes.Node{t.Call}
		return append(children, t.Body...)
	case *nodes.FilterStatement:
		return t.Body
	case *nodes.BinaryExpression:
		return []nodes.Node{t.Left, t.Right}
	case *nodes.UnaryExpression:
		return []nodes.Node{t.Target}
	case *nodes.CallExpression:
		children := []nodes.Node{t.Callee}
		return append(children, t.Args...)
	case *nodes.MemberExpression:
		return []nodes.Node{t.Base, t.Property}
	default:
		return nil
	}
}
