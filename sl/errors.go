package sl

import (
	"fmt"
	"strings"
)

// SourceError is a diagnostic tied to a span of source text. Shape
// modeled on gogpu/naga's wgsl.SourceError, but the span carries an
// End position so FormatWithContext can underline the whole offending
// token or identifier rather than a single column.
type SourceError struct {
	Message string
	Span    Span
	Source  string
}

func (e *SourceError) Error() string {
	if e.Span.Start.Line == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

// caretWidth returns how many '^' characters to draw under the error's
// span: the full token width when the span stays on one line, one
// column otherwise (a span that crosses lines can't be underlined on a
// single rendered line).
func (e *SourceError) caretWidth() int {
	if e.Span.End.Line != e.Span.Start.Line || e.Span.End.Column <= e.Span.Start.Column {
		return 1
	}
	return e.Span.End.Column - e.Span.Start.Column
}

// FormatWithContext renders the error with the offending source line
// and a caret underline spanning the reported token, for CLI /
// test-failure output.
func (e *SourceError) FormatWithContext() string {
	if e.Source == "" || e.Span.Start.Line == 0 {
		return e.Error()
	}
	lines := strings.Split(e.Source, "\n")
	lineNum := e.Span.Start.Line
	if lineNum < 1 || lineNum > len(lines) {
		return e.Error()
	}
	line := lines[lineNum-1]
	col := e.Span.Start.Column
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	width := e.caretWidth()
	if col-1+width > len(line)+1 {
		width = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "error: %s\n", e.Message)
	fmt.Fprintf(&sb, "  --> line %d:%d\n", lineNum, col)
	sb.WriteString("   |\n")
	fmt.Fprintf(&sb, "%3d| %s\n", lineNum, line)
	fmt.Fprintf(&sb, "   | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", width))
	return sb.String()
}

// NewSourceErrorf builds a SourceError with a formatted message.
func NewSourceErrorf(span Span, source, format string, args ...any) *SourceError {
	return &SourceError{Message: fmt.Sprintf(format, args...), Span: span, Source: source}
}

// SourceErrors aggregates diagnostics across a compile phase (§7:
// "diagnostics accumulate until the current phase boundary").
type SourceErrors []*SourceError

func (el SourceErrors) Error() string {
	switch n := len(el); n {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	case 2:
		return fmt.Sprintf("%s (and 1 more error)", el[0].Error())
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), n-1)
	}
}

// Add appends an error to the list, dropping it if an error with the
// same span and message is already present, so a misuse reported more
// than once at the same place appears once; a diagnostic list that
// repeats itself is less useful to a shader author than one that doesn't.
func (el *SourceErrors) Add(err *SourceError) {
	for _, existing := range *el {
		if existing.Span == err.Span && existing.Message == err.Message {
			return
		}
	}
	*el = append(*el, err)
}

// Len returns the number of accumulated errors.
func (el SourceErrors) Len() int { return len(el) }

// HasErrors reports whether any errors were accumulated.
func (el SourceErrors) HasErrors() bool { return len(el) > 0 }

// FormatAll renders every error with source context, separated by a
// blank line and preceded by a count summary once more than one error
// accumulated.
func (el SourceErrors) FormatAll() string {
	var sb strings.Builder
	if n := len(el); n > 1 {
		fmt.Fprintf(&sb, "%d errors:\n\n", n)
	}
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.FormatWithContext())
	}
	return sb.String()
}
