package templating

import "fmt"

// CompilationError represents a template compilation failure.
// This error occurs during template initialization when the stored AST is
// malformed or the loader could not produce one at all.
type CompilationError struct {
	// TemplateName is the name of the template that failed to compile
	TemplateName string

	// TemplateSnippet contains the first 200 characters of the template's
	// raw source, when the loader kept one around for diagnostics
	TemplateSnippet string

	// Cause is the underlying compilation error
	Cause error
}

// Error implements the error interface.
func (e *CompilationError) Error() string {
	return fmt.Sprintf("failed to compile template '%s': %v", e.TemplateName, e.Cause)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// RenderError represents a template rendering failure.
// This error occurs when a valid, compiled template fails during
// evaluation, typically due to missing context variables or a runtime type
// error.
type RenderError struct {
	// TemplateName is the name of the template that failed to render
	TemplateName string

	// Cause is the underlying evaluation error
	Cause error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render template '%s': %v", e.TemplateName, e.Cause)
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// TemplateNotFoundError represents a request for a non-existent template.
type TemplateNotFoundError struct {
	// TemplateName is the name of the requested template
	TemplateName string

	// AvailableTemplates lists all available template names
	AvailableTemplates []string
}

// Error implements the error interface.
func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template '%s' not found", e.TemplateName)
}

// UnknownIdentifierError represents a reference to a name unresolved by any
// scope in the environment chain. The evaluator rejects these outright
// rather than silently producing an Undefined value, per the interpreter's
// only sandboxing guarantee: unknown identifiers are a hard error, not a
// permissive fallback.
type UnknownIdentifierError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownIdentifierError) Error() string {
	return fmt.Sprintf("unknown identifier: %s", e.Name)
}

// UnknownFilterError represents a reference to an unregistered filter name.
type UnknownFilterError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownFilterError) Error() string {
	return fmt.Sprintf("no filter named '%s'", e.Name)
}

// UnknownTestError represents a reference to an unregistered `is` test name.
type UnknownTestError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownTestError) Error() string {
	return fmt.Sprintf("no test named '%s'", e.Name)
}

// UnknownOperatorError represents a binary or unary operator the evaluator
// does not implement. A well-formed AST from a real parser should never
// produce one; this exists to fail loudly on a malformed or hand-built tree
// rather than silently miscompute.
type UnknownOperatorError struct {
	Operator string
}

// Error implements the error interface.
func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator: %s", e.Operator)
}

// TypeError represents an operation applied to a value of the wrong Type,
// such as arithmetic on a string or iteration over a Function.
type TypeError struct {
	Operation string
	Got       Type
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: unsupported type %s", e.Operation, e.Got)
}

// NotCallableError represents a call expression whose callee evaluated to a
// non-Function value.
type NotCallableError struct {
	Got Type
}

// Error implements the error interface.
func (e *NotCallableError) Error() string {
	return fmt.Sprintf("'%s' object is not callable", e.Got)
}

// ArgumentError represents a call into a built-in filter, test, or host
// function with the wrong number or shape of arguments.
type ArgumentError struct {
	Callee string
	Detail string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Callee, e.Detail)
}

// argError is the terse constructor used throughout the filter, test, and
// builtin-method implementations.
func argError(callee, detail string) error {
	return &ArgumentError{Callee: callee, Detail: detail}
}

// Helper functions for creating errors with actionable context

// NewCompilationError creates a CompilationError for a template compilation
// failure.
func NewCompilationError(templateName, templateContent string, cause error) *CompilationError {
	snippet := templateContent
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}

	return &CompilationError{
		TemplateName:    templateName,
		TemplateSnippet: snippet,
		Cause:           cause,
	}
}

// NewRenderError creates a RenderError for a template rendering failure.
func NewRenderError(templateName string, cause error) *RenderError {
	return &RenderError{
		TemplateName: templateName,
		Cause:        cause,
	}
}

// NewTemplateNotFoundError creates a TemplateNotFoundError with the list of
// available templates.
func NewTemplateNotFoundError(templateName string, availableTemplates []string) *TemplateNotFoundError {
	return &TemplateNotFoundError{
		TemplateName:       templateName,
		AvailableTemplates: availableTemplates,
	}
}
