package templating

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// parsedError is the structured view FormatRenderError builds out of a
// render error before rendering it as text.
type parsedError struct {
	Problem string
	Hints   []string
}

// FormatRenderError formats a template rendering error into a
// human-readable multi-line string: a header naming the template, the
// problem (read directly off the typed error via errors.As, not parsed
// out of an error string), and a short list of actionable hints specific
// to the error's kind.
func FormatRenderError(err error, templateName string) string {
	if err == nil {
		return ""
	}

	parsed := classifyError(err)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Template Rendering Error: %s\n", templateName))
	b.WriteString(strings.Repeat("-", 60))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Problem:  %s\n", parsed.Problem))
	if len(parsed.Hints) > 0 {
		b.WriteString("\n")
		b.WriteString("Hint: ")
		b.WriteString(strings.Join(parsed.Hints, "\n      "))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatRenderErrorShort returns a shortened single-line version of the
// error. Useful for logging contexts where multi-line output isn't
// appropriate.
func FormatRenderErrorShort(err error, templateName string) string {
	if err == nil {
		return ""
	}
	parsed := classifyError(err)
	return fmt.Sprintf("Template: %s | %s", templateName, parsed.Problem)
}

func classifyError(err error) parsedError {
	var unknownIdent *UnknownIdentifierError
	var unknownFilter *UnknownFilterError
	var unknownTest *UnknownTestError
	var unknownOp *UnknownOperatorError
	var typeErr *TypeError
	var notCallable *NotCallableError
	var argErr *ArgumentError
	var notFound *TemplateNotFoundError

	switch {
	case errors.As(err, &unknownIdent):
		return parsedError{
			Problem: fmt.Sprintf("Unknown identifier '%s'", unknownIdent.Name),
			Hints: []string{
				"Check that the variable is defined in the rendering context.",
				"Verify spelling and that the variable exists in the data passed to the template.",
			},
		}
	case errors.As(err, &unknownFilter):
		return parsedError{
			Problem: fmt.Sprintf("Unknown filter '%s'", unknownFilter.Name),
			Hints:   []string{"Check the filter name for typos; there is no custom filter registration in this engine."},
		}
	case errors.As(err, &unknownTest):
		return parsedError{
			Problem: fmt.Sprintf("Unknown test '%s'", unknownTest.Name),
			Hints:   []string{"Check the test name for typos after `is`."},
		}
	case errors.As(err, &unknownOp):
		return parsedError{
			Problem: fmt.Sprintf("Unknown operator '%s'", unknownOp.Operator),
		}
	case errors.As(err, &typeErr):
		return parsedError{
			Problem: fmt.Sprintf("Type error in %s: unsupported type %s", typeErr.Operation, typeErr.Got),
			Hints:   []string{"Verify the types of the variables involved match what this operation expects."},
		}
	case errors.As(err, &notCallable):
		return parsedError{
			Problem: fmt.Sprintf("'%s' object is not callable", notCallable.Got),
			Hints:   []string{"Only Function values (macros, host-registered globals) can be called with (...)."},
		}
	case errors.As(err, &argErr):
		return parsedError{
			Problem: fmt.Sprintf("%s: %s", argErr.Callee, argErr.Detail),
		}
	case errors.As(err, &notFound):
		hint := "No templates are registered."
		if len(notFound.AvailableTemplates) > 0 {
			hint = "Available templates: " + strings.Join(notFound.AvailableTemplates, ", ")
		}
		return parsedError{
			Problem: fmt.Sprintf("Template '%s' not found", notFound.TemplateName),
			Hints:   []string{hint},
		}
	default:
		return parsedError{Problem: err.Error()}
	}
}
