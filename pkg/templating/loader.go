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
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/prompt-templates/jinjarun/pkg/nodes"
)

// Loader resolves a template name to its compiled AST. Unlike a Jinja
// loader, it never sees template source: producing a Program from source
// text is a lexer/parser's job, which lives outside this module. A Loader
// is how the ambient Engine façade gets trees to walk without the
// evaluator itself knowing anything about files, HTTP, or any other
// storage medium.
type Loader interface {
	// Load returns the compiled Program for name, or an error wrapping
	// TemplateNotFoundError when name is unknown.
	Load(name string) (*nodes.Program, error)

	// Names lists every template name the loader currently knows about, in
	// no particular order; used to build the AvailableTemplates hint on a
	// TemplateNotFoundError.
	Names() []string
}

// MapLoader is a flat, in-memory Loader backed by a plain map from name to
// already-parsed Program. It plays the role the teacher's SimpleLoader
// played for raw template strings: a namespace with no '/' prefix rules
// and no path resolution, just name lookup.
type MapLoader struct {
	templates map[string]*nodes.Program
}

// NewMapLoader builds a MapLoader from a fixed set of compiled templates.
func NewMapLoader(templates map[string]*nodes.Program) *MapLoader {
	m := make(map[string]*nodes.Program, len(templates))
	for k, v := range templates {
		m[k] = v
	}
	return &MapLoader{templates: m}
}

// Load implements Loader.
func (l *MapLoader) Load(name string) (*nodes.Program, error) {
	prog, ok := l.templates[name]
	if !ok {
		return nil, NewTemplateNotFoundError(name, l.Names())
	}
	return prog, nil
}

// Names implements Loader.
func (l *MapLoader) Names() []string {
	names := make([]string, 0, len(l.templates))
	for k := range l.templates {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// FileSystemLoader resolves template names to JSON-encoded AST files under
// Dir, named "<name>.ast.json". Producing those files is itself outside
// this module's scope (the job of whatever lexer/parser front-end runs
// ahead of it); FileSystemLoader only decodes what nodes.Decode
// understands.
type FileSystemLoader struct {
	Dir string
}

// NewFileSystemLoader returns a loader rooted at dir.
func NewFileSystemLoader(dir string) *FileSystemLoader {
	return &FileSystemLoader{Dir: dir}
}

// Load implements Loader.
func (l *FileSystemLoader) Load(name string) (*nodes.Program, error) {
	path := filepath.Join(l.Dir, name+".ast.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewTemplateNotFoundError(name, l.Names())
		}
		return nil, fmt.Errorf("loading template %q: %w", name, err)
	}
	prog, err := nodes.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding template %q: %w", name, err)
	}
	return prog, nil
}

// Names implements Loader by listing every "*.ast.json" file directly
// under Dir (no recursive subdirectory search — matching the flat
// namespace the rest of the package assumes).
func (l *FileSystemLoader) Names() []string {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil
	}
	const suffix = ".ast.json"
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if len(n) > len(suffix) && n[len(n)-len(suffix):] == suffix {
			names = append(names, n[:len(n)-len(suffix)])
		}
	}
	sort.Strings(names)
	return names
}
