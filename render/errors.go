// Package render holds the collaborator-facing pieces the core shading
// subsystem consumes or exposes: the error taxonomy and policy (§7), named
// coordinate systems and the texture interface the VM's dispatch kernels
// call through (§6), and light descriptors (§3, §4.7).
package render

import "fmt"

// ErrorCode enumerates the exit-code-equivalent error taxonomy from §6.
type ErrorCode int

const (
	None ErrorCode = iota
	OpeningFileFailed
	ReadingFileFailed
	UndefinedSymbol
	SyntaxError
	ParsingFailed
	SemanticError
	SemanticAnalysisFailed
	CodeGenerationError
	CodeGenerationFailed
	OutOfMemory
	UnknownColorSpace
	InvalidDisplayMode
)

func (c ErrorCode) String() string {
	switch c {
	case None:
		return "NONE"
	case OpeningFileFailed:
		return "OPENING_FILE_FAILED"
	case ReadingFileFailed:
		return "READING_FILE_FAILED"
	case UndefinedSymbol:
		return "UNDEFINED_SYMBOL"
	case SyntaxError:
		return "SYNTAX_ERROR"
	case ParsingFailed:
		return "PARSING_FAILED"
	case SemanticError:
		return "SEMANTIC_ERROR"
	case SemanticAnalysisFailed:
		return "SEMANTIC_ANALYSIS_FAILED"
	case CodeGenerationError:
		return "CODE_GENERATION_ERROR"
	case CodeGenerationFailed:
		return "CODE_GENERATION_FAILED"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case UnknownColorSpace:
		return "UNKNOWN_COLOR_SPACE"
	case InvalidDisplayMode:
		return "INVALID_DISPLAY_MODE"
	default:
		return "UNKNOWN"
	}
}

// ErrorAction names what a policy does in response to a reported error,
// generalizing the original source's ErrorAction.hpp (ignore / log /
// abort) per SPEC_FULL.md §4.
type ErrorAction int

const (
	ActionIgnore ErrorAction = iota
	ActionLog
	ActionAbort
)

// ErrorPolicy receives diagnostic, resource, and runtime errors from every
// compilation phase and the VM (§7, §9). It decides whether to print,
// count, and/or escalate. The symbol table registry is immutable and
// shared across shaders; the error policy is not, and by convention is
// not shared across goroutines (§5).
type ErrorPolicy interface {
	// RenderError reports an error with a stable code and a
	// printf-style formatted message (§9 "variadic error functions").
	RenderError(code ErrorCode, format string, args ...any)

	// Errors returns the count of errors reported since the last Clear.
	Errors() int

	// TotalErrors returns the count of errors reported since construction.
	TotalErrors() int

	// Clear resets the since-last-clear counter at a phase boundary.
	Clear()
}

// CountingPolicy is the default ErrorPolicy: it counts errors, optionally
// prints them, and can be configured to treat specific codes as fatal.
type CountingPolicy struct {
	// Action maps an error code to how it should be handled. A code not
	// present in the map defaults to ActionLog.
	Action map[ErrorCode]ErrorAction

	// Sink receives formatted messages when the action is ActionLog or
	// louder. A nil Sink means messages are swallowed (they are still
	// counted).
	Sink func(code ErrorCode, message string)

	errorsSinceClear int
	totalErrors      int
	messages         []string
}

// NewCountingPolicy returns a CountingPolicy that logs everything to sink.
func NewCountingPolicy(sink func(code ErrorCode, message string)) *CountingPolicy {
	return &CountingPolicy{
		Action: make(map[ErrorCode]ErrorAction),
		Sink:   sink,
	}
}

// RenderError implements ErrorPolicy.
func (p *CountingPolicy) RenderError(code ErrorCode, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	action, ok := p.Action[code]
	if !ok {
		action = ActionLog
	}
	p.errorsSinceClear++
	p.totalErrors++
	p.messages = append(p.messages, fmt.Sprintf("%s: %s", code, message))

	if action == ActionIgnore {
		return
	}
	if p.Sink != nil {
		p.Sink(code, message)
	}
	if action == ActionAbort {
		panic(&FatalError{Code: code, Message: message})
	}
}

// Errors implements ErrorPolicy.
func (p *CountingPolicy) Errors() int { return p.errorsSinceClear }

// TotalErrors implements ErrorPolicy.
func (p *CountingPolicy) TotalErrors() int { return p.totalErrors }

// Clear implements ErrorPolicy.
func (p *CountingPolicy) Clear() { p.errorsSinceClear = 0 }

// Messages returns every message recorded so far, most recent last.
func (p *CountingPolicy) Messages() []string { return p.messages }

// FatalError is panicked by a CountingPolicy configured with ActionAbort
// for a given code; callers that need abort-on-error semantics should
// recover it at the operation boundary.
type FatalError struct {
	Code    ErrorCode
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
