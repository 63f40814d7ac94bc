// Package templating implements a tree-walking evaluator for a
// Jinja-compatible template AST. It consumes a pre-parsed Program (see
// package nodes) and produces a rendered string; turning template source
// into that Program is the job of a lexer and parser that live outside
// this module.
//
// The package loads every template a Loader knows about at Engine
// construction time for early detection of malformed trees; Render loads
// the requested template from the Loader again on each call, since no
// loaded programs are cached.
package templating

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithGlobal binds name as a global value visible to every template the
// Engine renders, evaluated once here in the host's Go world and converted
// with FromGo (a plain Go func included — FromGo wraps it in a Callable).
// Use this to override a built-in global like range or strftime_now with a
// host-specific policy (a fixed clock for deterministic tests, a different
// step convention), or to add a domain-specific helper of the host's own,
// the way the HAProxy-flavored get_path the teacher carried would be bound
// in this package's shoes.
func WithGlobal(name string, v any) Option {
	return func(e *Engine) {
		e.extraGlobals[name] = FromGo(v)
	}
}

// WithPostProcessor appends p to the chain run over every Render result,
// in the order the options were supplied.
func WithPostProcessor(p PostProcessor) Option {
	return func(e *Engine) {
		e.postProcessors = append(e.postProcessors, p)
	}
}

// WithTracing binds a `trace(message)` global into every render; each call
// records one line tagged with that render's trace id, and Engine.LastTrace
// returns the lines accumulated across all Render calls. Filter and test
// invocations are not traced.
func WithTracing() Option {
	return func(e *Engine) {
		e.tracing = newTracingConfig()
	}
}
