// Package sem implements the semantic analyzer: a bottom-up pass over
// the syntax tree built by package sl that fills in each node's resolved
// type and storage class, inserts implicit conversions, and checks
// assignment rules (§4.4). The analyzer mutates the tree in place rather
// than lowering to a separate representation, mirroring the syntax
// tree's own documented contract that type and storage are "filled in
// during semantic analysis" (§3). break/continue level validity is
// checked later, by package code (§4.5 places that check in the code
// generator's loop-nesting stack, not here).
package sem

import (
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/sl"
	"github.com/cwbaker/reyes/symbols"
)

// Analyzer walks a shader's syntax tree computing (Type, Storage) for
// every expression node, bottom-up, per §4.4.
type Analyzer struct {
	source string
	table  *symbols.Table
	errors sl.SourceErrors
}

// NewAnalyzer creates an analyzer for shader, resolving identifiers
// against table (the same table the parser populated).
func NewAnalyzer(table *symbols.Table, source string) *Analyzer {
	return &Analyzer{table: table, source: source}
}

// Analyze runs semantic analysis over shader's body and parameter
// initializers, returning any accumulated diagnostics.
func (a *Analyzer) Analyze(shader *sl.ShaderDecl) sl.SourceErrors {
	for _, param := range shader.Parameters {
		a.analyzeDeclare(param)
	}
	a.analyzeBlock(shader.Body)
	return a.errors
}

func (a *Analyzer) errorf(n *sl.Node, format string, args ...any) {
	a.errors.Add(sl.NewSourceErrorf(n.Span, a.source, format, args...))
}

// analyzeBlock processes statements in source order, since a
// declaration's inferred storage class must be resolved before any
// later reference to it is analyzed (§4.4).
func (a *Analyzer) analyzeBlock(n *sl.Node) {
	if n == nil {
		return
	}
	for _, stmt := range n.Children {
		a.analyzeStatement(stmt)
	}
}

func (a *Analyzer) analyzeStatement(n *sl.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case sl.NodeBlock:
		a.analyzeBlock(n)
	case sl.NodeDeclare:
		a.analyzeDeclare(n)
	case sl.NodeExprStmt:
		a.analyzeExpr(n.Children[0])
	case sl.NodeIf:
		a.analyzeExpr(n.Children[0])
		a.analyzeStatement(n.Children[1])
		if len(n.Children) > 2 {
			a.analyzeStatement(n.Children[2])
		}
	case sl.NodeWhile:
		a.analyzeExpr(n.Children[0])
		a.analyzeStatement(n.Children[1])
	case sl.NodeFor:
		if n.Children[0] != nil {
			a.analyzeExpr(n.Children[0])
		}
		if n.Children[1] != nil {
			a.analyzeExpr(n.Children[1])
		}
		if n.Children[2] != nil {
			a.analyzeExpr(n.Children[2])
		}
		a.analyzeStatement(n.Children[3])
	case sl.NodeReturn:
		if len(n.Children) > 0 {
			a.analyzeExpr(n.Children[0])
		}
	case sl.NodeIlluminate:
		a.analyzeIlluminate(n)
	case sl.NodeSolar:
		a.analyzeSolar(n)
	case sl.NodeIlluminance:
		a.analyzeIlluminance(n)
	}
}

func (a *Analyzer) analyzeDeclare(n *sl.Node) {
	var initStorage lang.Storage = lang.Constant
	if len(n.Children) > 0 {
		t, s := a.analyzeExpr(n.Children[0])
		initStorage = s
		if !lang.CanAssign(n.Type, t) {
			a.errorf(n, "cannot initialize %s from %s", n.Type, t)
		}
	}

	if n.Symbol != nil && n.Symbol.Parameter {
		// A parameter keeps the storage class the parser recorded:
		// uniform unless declared `varying`.
		n.Storage = n.Symbol.Storage
		if n.Storage != lang.Varying && initStorage == lang.Varying {
			a.errorf(n, "cannot initialize uniform parameter %q from a varying expression", n.Name)
		}
		return
	}

	if n.DeclaredUniform {
		n.Storage = lang.Uniform
		if initStorage == lang.Varying {
			a.errorf(n, "cannot initialize uniform variable %q from a varying expression", n.Name)
		}
	} else if len(n.Children) > 0 {
		n.Storage = initStorage
	} else {
		n.Storage = lang.Varying
	}

	if n.Symbol != nil {
		n.Symbol.Storage = n.Storage
	}
}

// analyzeExpr computes (Type, Storage) for an expression node bottom-up,
// annotating n and returning the computed pair.
func (a *Analyzer) analyzeExpr(n *sl.Node) (lang.Type, lang.Storage) {
	if n == nil {
		return lang.TypeInvalid, lang.Constant
	}
	switch n.Kind {
	case sl.NodeIntLiteral, sl.NodeFloatLiteral, sl.NodeStringLiteral:
		return n.Type, n.Storage

	case sl.NodeIdent:
		if n.Symbol != nil {
			n.Type = n.Symbol.Type
			n.Storage = n.Symbol.Storage
		}
		return n.Type, n.Storage

	case sl.NodeBinary:
		return a.analyzeBinary(n)

	case sl.NodeUnary:
		t, s := a.analyzeExpr(n.Children[0])
		n.Type, n.Storage = t, s
		return n.Type, n.Storage

	case sl.NodeLogicalNot:
		a.analyzeExpr(n.Children[0])
		n.Type, n.Storage = lang.Float, n.Children[0].Storage
		return n.Type, n.Storage

	case sl.NodeLogicalAnd, sl.NodeLogicalOr:
		_, ls := a.analyzeExpr(n.Children[0])
		_, rs := a.analyzeExpr(n.Children[1])
		n.Type = lang.Float
		n.Storage = lang.LUB(ls, rs)
		return n.Type, n.Storage

	case sl.NodeAssign:
		return a.analyzeAssign(n)

	case sl.NodeCall:
		return a.analyzeCall(n)

	case sl.NodeTypecast:
		return a.analyzeTypecast(n)

	default:
		return n.Type, n.Storage
	}
}

func (a *Analyzer) analyzeBinary(n *sl.Node) (lang.Type, lang.Storage) {
	lt, ls := a.analyzeExpr(n.Children[0])
	rt, rs := a.analyzeExpr(n.Children[1])
	storage := lang.LUB(ls, rs)

	switch n.Op {
	case sl.TokenEqualEqual, sl.TokenBangEqual, sl.TokenLess, sl.TokenLessEqual, sl.TokenGreater, sl.TokenGreaterEqual:
		if !comparable(lt, rt) {
			a.errorf(n, "%s", (&lang.TypeError{Op: "comparison", Left: lt, Right: rt}).Error())
		}
		n.Type, n.Storage = lang.Float, storage
		return n.Type, n.Storage
	}

	result, ok := binaryResultType(lt, rt)
	if !ok {
		a.errorf(n, "%s", (&lang.TypeError{Op: "arithmetic", Left: lt, Right: rt}).Error())
		result = lt
	}
	n.Type, n.Storage = result, storage
	return n.Type, n.Storage
}

func comparable(a, b lang.Type) bool {
	if a == b {
		return true
	}
	return lang.ImplicitConversion(a, b) != lang.ConvertIllegal || lang.ImplicitConversion(b, a) != lang.ConvertIllegal
}

// binaryResultType computes the result type of a numeric binary
// operator, applying §4.4's implicit-broadcast rule (scalar combines
// with any type; two distinct geometric types promote to the wider of
// the two, with point taking precedence over vector/normal which take
// precedence over color).
func binaryResultType(a, b lang.Type) (lang.Type, bool) {
	if a == b {
		return a, true
	}
	if a == lang.Float || a == lang.Integer {
		return b, true
	}
	if b == lang.Float || b == lang.Integer {
		return a, true
	}
	if a.IsGeometric() && b.IsGeometric() {
		return geometricPrecedence(a, b), true
	}
	return lang.TypeInvalid, false
}

func geometricPrecedence(a, b lang.Type) lang.Type {
	rank := func(t lang.Type) int {
		switch t {
		case lang.Point:
			return 3
		case lang.Vector:
			return 2
		case lang.Normal:
			return 1
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// analyzeAssign checks the §4.4 assignment rule: the target's storage
// class must be at least as wide as the source's (S_target >= S_rhs),
// and enforces the implicit type-conversion table.
func (a *Analyzer) analyzeAssign(n *sl.Node) (lang.Type, lang.Storage) {
	target := n.Children[0]
	lt, ls := a.analyzeExpr(target)
	rt, rs := a.analyzeExpr(n.Children[1])

	if target.Kind != sl.NodeIdent {
		a.errorf(n, "assignment target must be a variable")
	} else if target.Symbol != nil && !ls.GE(rs) {
		a.errorf(n, "cannot assign %s value to %s variable %q", rs, ls, target.Name)
	}

	resultType := rt
	switch n.Op {
	case sl.TokenPlusEqual, sl.TokenMinusEqual, sl.TokenStarEqual, sl.TokenSlashEqual:
		var ok bool
		resultType, ok = binaryResultType(lt, rt)
		if !ok {
			a.errorf(n, "%s", (&lang.TypeError{Op: "compound assignment", Left: lt, Right: rt}).Error())
			resultType = lt
		}
	}
	if !lang.CanAssign(lt, resultType) {
		a.errorf(n, "cannot assign %s to %s", resultType, lt)
	}

	n.Type, n.Storage = lt, ls
	return n.Type, n.Storage
}

// analyzeTypecast resolves a `type["space"](args)` construction or cast
// (§4.4). A single-argument cast between geometric types, or a color
// given an explicit colorspace name, needs a ConvertColorSpace or
// ConvertGeometric kernel at code-gen time; a multi-argument call
// constructs a compound value component-wise.
func (a *Analyzer) analyzeTypecast(n *sl.Node) (lang.Type, lang.Storage) {
	storage := lang.Constant
	for _, arg := range n.Children {
		_, s := a.analyzeExpr(arg)
		storage = lang.LUB(storage, s)
	}
	switch len(n.Children) {
	case 1:
		// Cast or colorspace conversion; any source type is accepted.
		// Component counts are not checked here or by the code generator.
	case 3:
		if n.Type.Components() != 3 {
			a.errorf(n, "%s does not take 3 arguments", n.Type)
		}
	case 16:
		if n.Type != lang.Matrix {
			a.errorf(n, "%s does not take 16 arguments", n.Type)
		}
	default:
		if len(n.Children) != n.Type.Components() && len(n.Children) != 1 {
			a.errorf(n, "wrong number of arguments constructing %s", n.Type)
		}
	}
	n.Storage = storage
	return n.Type, n.Storage
}
