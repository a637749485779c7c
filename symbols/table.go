// Package symbols implements the two-level symbol table described in
// §3 ("Symbol") and §4.3: a shared, immutable predefined scope seeded at
// renderer construction, and a per-shader scope pushed by the parser.
package symbols

import (
	"fmt"

	"github.com/cwbaker/reyes/lang"
)

// Symbol names a predefined or user-declared identifier with its
// resolved type and storage class (§3). A symbol's storage class is
// immutable once recorded (§4.3).
type Symbol struct {
	Name      string
	Type      lang.Type
	Storage   lang.Storage
	Parameter bool
}

// Scope is a single flat namespace of symbols.
type Scope struct {
	symbols map[string]*Symbol
	order   []string // insertion order, for deterministic iteration
}

func newScope() *Scope {
	return &Scope{symbols: make(map[string]*Symbol)}
}

// Declare adds a new symbol to the scope. Declare does not check for
// shadowing against outer scopes; callers do that via Table.Resolve
// before calling Declare if redeclaration should be rejected.
func (s *Scope) Declare(sym *Symbol) {
	if _, exists := s.symbols[sym.Name]; !exists {
		s.order = append(s.order, sym.Name)
	}
	s.symbols[sym.Name] = sym
}

// Lookup finds a symbol by name in this scope only.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	sym, ok := s.symbols[name]
	return sym, ok
}

// Names returns every symbol name declared in this scope, in declaration
// order.
func (s *Scope) Names() []string {
	return s.order
}

// Table is the two-level symbol table: a shared predefined scope and a
// per-shader scope (§4.3). The predefined scope is built once at
// renderer construction and is immutable afterward (§5); Table never
// mutates it.
type Table struct {
	predefined *Scope
	shader     *Scope
}

// NewTable creates a symbol table over a shared predefined scope, with a
// fresh, empty shader scope.
func NewTable(predefined *Scope) *Table {
	return &Table{predefined: predefined, shader: newScope()}
}

// NewPredefinedScope builds the global predefined scope seeded at
// renderer construction (§3, §4.3): PI and the per-shader-kind globals
// named in §6's table. Callers that need a specific shader kind's
// globals should additionally call DeclareGlobals.
func NewPredefinedScope() *Scope {
	s := newScope()
	s.Declare(&Symbol{Name: "PI", Type: lang.Float, Storage: lang.Constant})
	return s
}

// ShaderKind names which predefined varying globals (§6) are visible.
type ShaderKind uint8

const (
	Surface ShaderKind = iota
	Displacement
	LightShader
	Volume
)

// DeclareGlobals declares the predefined varying globals for a shader
// kind (§6's table) into scope. Surface shaders get Cs, Os, P, N, I, s,
// t, Ci, Oi; displacement shaders get P, N, I, s, t; light shaders get
// Ps, N, Cl, Ol. Volume shaders reuse the surface set, matching the
// original source's convention that volume shading runs the surface
// globals through the same illuminance machinery.
func DeclareGlobals(s *Scope, kind ShaderKind) {
	v := func(name string, t lang.Type) {
		s.Declare(&Symbol{Name: name, Type: t, Storage: lang.Varying})
	}
	switch kind {
	case Surface, Volume:
		v("Cs", lang.Color)
		v("Os", lang.Color)
		v("P", lang.Point)
		v("N", lang.Normal)
		v("I", lang.Vector)
		v("s", lang.Float)
		v("t", lang.Float)
		v("Ci", lang.Color)
		v("Oi", lang.Color)
	case Displacement:
		v("P", lang.Point)
		v("N", lang.Normal)
		v("I", lang.Vector)
		v("s", lang.Float)
		v("t", lang.Float)
	case LightShader:
		v("Ps", lang.Point)
		v("N", lang.Normal)
		v("Cl", lang.Color)
		v("Ol", lang.Color)
	}
}

// Resolve looks up name in the shader scope first, falling back to the
// predefined scope (§4.3: "the parser resolves every identifier to a
// Symbol; unresolved identifiers produce UndefinedSymbol").
func (t *Table) Resolve(name string) (*Symbol, bool) {
	if sym, ok := t.shader.Lookup(name); ok {
		return sym, true
	}
	if sym, ok := t.predefined.Lookup(name); ok {
		return sym, true
	}
	return nil, false
}

// Declare adds a new symbol to the shader scope. New symbols inherit a
// parameter's default storage class (uniform if no default is given) or
// default to varying for plain local declarations (§4.3); callers
// compute the right Storage before calling Declare.
func (t *Table) Declare(sym *Symbol) {
	t.shader.Declare(sym)
}

// DeclareGlobals declares the predefined varying globals for kind into
// the table's shader scope, where the parser and analyzer will find them
// via Resolve.
func (t *Table) DeclareGlobals(kind ShaderKind) {
	DeclareGlobals(t.shader, kind)
}

// UndefinedSymbolError is returned by callers when Resolve fails for an
// identifier the language requires to exist (§4.3, §6 error taxonomy
// UNDEFINED_SYMBOL).
type UndefinedSymbolError struct {
	Name string
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("undefined symbol %q", e.Name)
}
