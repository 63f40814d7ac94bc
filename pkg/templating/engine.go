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
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Engine compiles a Loader's templates once at construction and renders
// them against caller-supplied variables afterward. It pre-validates every
// template the Loader reports via Names so a malformed tree fails fast at
// New rather than on the first Render that happens to touch it.
type Engine struct {
	loader       Loader
	root         *Environment
	extraGlobals map[string]Value

	postProcessors []PostProcessor
	tracing        *tracingConfig

	logger *slog.Logger
}

// New builds an Engine over loader, applying opts, and pre-compiles every
// template loader currently reports. A CompilationError from that pass is
// returned immediately; Engine holds no partially-initialized state on
// failure.
func New(loader Loader, opts ...Option) (*Engine, error) {
	e := &Engine{
		loader:       loader,
		extraGlobals: map[string]Value{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.root = NewEnvironment()
	registerDefaultFilters(e.root)
	registerDefaultTests(e.root)
	setupGlobals(e.root)
	for name, v := range e.extraGlobals {
		e.root.Set(name, v)
	}

	for _, name := range loader.Names() {
		if _, err := loader.Load(name); err != nil {
			return nil, NewCompilationError(name, "", err)
		}
	}

	return e, nil
}

// Render looks up name via the Engine's Loader, binds vars (converted with
// FromGo) into a fresh child of the root environment, evaluates the
// template, and runs the result through every registered PostProcessor in
// order.
func (e *Engine) Render(name string, vars map[string]any) (string, error) {
	traceID := uuid.New().String()
	logger := e.logger.With("template", name, "trace_id", traceID)

	prog, err := e.loader.Load(name)
	if err != nil {
		var notFound *TemplateNotFoundError
		if errors.As(err, &notFound) {
			logger.Warn("template not found")
			return "", err
		}
		logger.Error("failed to load template", "error", err)
		return "", NewCompilationError(name, "", err)
	}

	env := e.root.Child()
	for k, v := range vars {
		env.Set(k, FromGo(v))
	}
	if e.tracing != nil {
		env = withTraceGlobal(env, e.tracing, traceID)
	}

	logger.Debug("rendering template")
	out, err := NewInterpreter().Run(prog, env)
	if err != nil {
		logger.Error("failed to render template", "error", err)
		return "", NewRenderError(name, err)
	}

	for _, p := range e.postProcessors {
		out, err = p.Process(out)
		if err != nil {
			logger.Error("post-processing failed", "error", err)
			return "", NewRenderError(name, errors.Wrap(err, "post-processing"))
		}
	}

	logger.Debug("rendered template", "output_bytes", len(out))
	return out, nil
}

// LastTrace returns every trace line recorded across every Render call made
// with WithTracing enabled, in the order they were recorded. It returns nil
// when tracing was not enabled.
func (e *Engine) LastTrace() []string {
	if e.tracing == nil {
		return nil
	}
	e.tracing.mu.Lock()
	defer e.tracing.mu.Unlock()
	out := make([]string, len(e.tracing.traces))
	copy(out, e.tracing.traces)
	return out
}

// Validate re-checks that name is still loadable, the way a host
// application might call it after hot-swapping a Loader's backing store
// without rebuilding the Engine.
func (e *Engine) Validate(name string) error {
	if _, err := e.loader.Load(name); err != nil {
		return NewCompilationError(name, "", err)
	}
	return nil
}

// tracingConfig accumulates trace lines across every Render call sharing
// one Engine. mu is the only mutable state Engine shares across
// concurrent Render calls; everything else Render touches is either
// read-only (root, loader) or freshly allocated per call (env).
type tracingConfig struct {
	mu     sync.Mutex
	traces []string
}

func newTracingConfig() *tracingConfig {
	return &tracingConfig{}
}

func (tc *tracingConfig) record(traceID, line string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.traces = append(tc.traces, traceID+": "+line)
}

// withTraceGlobal binds a `trace(message)` global in a child of env so a
// template can explicitly emit a trace line, e.g. `{{ trace("reached
// branch A") }}`. Filters and tests do not call it automatically; tracing
// here is opt-in per template, not an automatic log of every filter
// invocation.
func withTraceGlobal(env *Environment, tc *tracingConfig, traceID string) *Environment {
	child := env.Child()
	child.Set("trace", Func(func(args []Value, _ *Environment) (Value, error) {
		if len(args) > 0 {
			tc.record(traceID, args[0].String())
		}
		return Undefined(), nil
	}))
	return child
}
