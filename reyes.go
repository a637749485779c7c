// Package reyes compiles RenderMan-style shading-language (SL) source
// into bytecode and runs it with a register-based, mask-driven virtual
// machine over rectangular grids of shading samples. It ties together
// the four pipeline stages described in the design: package sl (lexer +
// parser), package sem (semantic analysis), package code (code
// generation), and package vm (execution) — mirroring the way
// gogpu/naga's root package (naga.go) threads Parse -> Lower -> Validate
// -> Generate behind a single Compile entry point.
package reyes

import (
	"fmt"

	"github.com/cwbaker/reyes/code"
	"github.com/cwbaker/reyes/grid"
	"github.com/cwbaker/reyes/render"
	"github.com/cwbaker/reyes/sem"
	"github.com/cwbaker/reyes/sl"
	"github.com/cwbaker/reyes/symbols"
	"github.com/cwbaker/reyes/vm"
)

// CompileOptions configures shader compilation, the concrete shape of
// §9's "global state" note and SPEC_FULL.md §2's ambient configuration
// layer (modeled on naga.CompileOptions/naga.DefaultOptions).
type CompileOptions struct {
	// Validate runs the semantic analyzer's full type/storage checking
	// pass. Disabling it is only useful for inspecting a raw syntax
	// tree; code generation still requires a validated tree.
	Validate bool

	// Debug retains source spans on every bytecode instruction's source
	// node for later diagnostics (reserved; the code generator always
	// threads spans through SourceErrors regardless of this flag).
	Debug bool

	// FloatWidth records the VM's lane float width. The core only
	// implements float32 lanes (§3's component-footprint table assumes
	// 4-byte scalars); this knob exists so a future 64-bit lane variant
	// has somewhere to live without changing the Compile signature.
	FloatWidth int
}

// DefaultOptions returns the options used when Compile's caller has no
// special requirements: full validation, no debug info, 32-bit lanes.
func DefaultOptions() CompileOptions {
	return CompileOptions{
		Validate:   true,
		Debug:      false,
		FloatWidth: 32,
	}
}

// Shader is an immutable compiled SL program (§3 "Bytecode program";
// §5: "Compiled Shaders are immutable and may be shared by reference
// across Grids"). A Shader owns no Grid state; VM.New binds one to a
// specific Grid for execution.
type Shader struct {
	Name    string
	Kind    symbols.ShaderKind
	Program *code.Program
}

// ParamRegister returns the register index a named parameter (or
// predefined global) was assigned to during code generation, for
// VM.BindParameter.
func (s *Shader) ParamRegister(name string) (int, bool) {
	for _, idx := range s.Program.Parameters {
		if s.Program.Registers[idx].Name == name {
			return idx, true
		}
	}
	for i, reg := range s.Program.Registers {
		if reg.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Compile runs source through the lexer, parser, semantic analyzer, and
// code generator in sequence, reporting every diagnostic encountered at
// a phase boundary through policy (§6 "compile(source, symbol_table,
// error_policy) -> Shader"; §7: "diagnostics accumulate until the
// current phase boundary... and then gate progression to the next
// phase"). predefined is the renderer's shared, immutable predefined
// symbol scope (§4.3); callers typically build it once with
// symbols.NewPredefinedScope.
func Compile(source string, predefined *symbols.Scope, policy render.ErrorPolicy, opts CompileOptions) (*Shader, error) {
	lexer := sl.NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		reportLexError(policy, err)
		return nil, fmt.Errorf("reyes: lex failed: %w", err)
	}

	table := symbols.NewTable(predefined)
	parser := sl.NewParser(tokens, table, source)
	decl, parseErrors := parser.ParseShader()
	if parseErrors.HasErrors() {
		reportSourceErrors(policy, render.SyntaxError, parseErrors)
		return nil, fmt.Errorf("reyes: %w", parseErrors)
	}

	if opts.Validate {
		analyzer := sem.NewAnalyzer(table, source)
		semErrors := analyzer.Analyze(decl)
		if semErrors.HasErrors() {
			reportSourceErrors(policy, render.SemanticError, semErrors)
			return nil, fmt.Errorf("reyes: %w", semErrors)
		}
	}

	program, genErrors := code.Generate(decl, source)
	if genErrors.HasErrors() {
		reportSourceErrors(policy, render.CodeGenerationError, genErrors)
		return nil, fmt.Errorf("reyes: %w", genErrors)
	}

	return &Shader{Name: decl.Name, Kind: decl.Kind, Program: program}, nil
}

func reportLexError(policy render.ErrorPolicy, err error) {
	if policy == nil {
		return
	}
	policy.RenderError(render.SyntaxError, "%s", err.Error())
}

func reportSourceErrors(policy render.ErrorPolicy, code render.ErrorCode, errs sl.SourceErrors) {
	if policy == nil {
		return
	}
	for _, e := range errs {
		policy.RenderError(code, "%s", e.Message)
	}
}

// Shade runs shader over grid using coords to resolve any named
// coordinate-system transforms the shader references, reporting runtime
// errors (unknown color space, ...) through policy and returning a
// non-nil error only for a VM abort (§4.7 "Failure semantics": runtime
// errors are non-fatal, structural ones are assertion-level and abort).
// Predefined globals present on g (P, N, Cs, ...) are copied into every
// named register the shader references — its declared parameters and
// any predefined global it touches, both of which package code assigns
// registers to lazily on first reference, not just Program.Parameters
// — before execution, and copied back out afterward, the concrete
// shape of §6's "VM::shade(grid_in, grid_out, shader)".
func Shade(g *grid.Grid, shader *Shader, coords *render.CoordinateSystems, policy render.ErrorPolicy) error {
	m := vm.New(shader.Program, g, coords, policy)
	for i, reg := range shader.Program.Registers {
		if reg.Name == "" {
			continue
		}
		if v, ok := g.Lookup(reg.Name); ok {
			m.BindParameter(i, v)
		}
	}
	if err := m.Run(); err != nil {
		return err
	}
	for i, reg := range shader.Program.Registers {
		if reg.Name == "" {
			continue
		}
		if v, ok := g.Lookup(reg.Name); ok {
			m.StoreParameter(i, v)
		}
	}
	return nil
}
