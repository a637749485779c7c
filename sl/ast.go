package sl

import (
	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/symbols"
)

// NodeKind discriminates the syntax tree node variants (§3 "Syntax
// tree").
type NodeKind uint8

const (
	NodeInvalid NodeKind = iota

	NodeIntLiteral
	NodeFloatLiteral
	NodeStringLiteral
	NodeIdent

	NodeBinary
	NodeUnary
	NodeLogicalAnd
	NodeLogicalOr
	NodeLogicalNot
	NodeAssign
	NodeCall
	NodeTypecast

	NodeBlock
	NodeExprStmt
	NodeDeclare
	NodeIf
	NodeWhile
	NodeFor
	NodeBreak
	NodeContinue
	NodeReturn

	NodeIlluminate
	NodeSolar
	NodeIlluminance

	NodeShader
)

// Node is a single syntax tree node. Every node records its kind, its
// resolved type and storage class (filled in during semantic analysis,
// §3), zero or more children, and up to two annotations: a Symbol
// reference (identifiers and assignment targets) and a literal payload
// (integer/float/string constants).
type Node struct {
	Kind     NodeKind
	Type     lang.Type
	Storage  lang.Storage
	Children []*Node
	Symbol   *symbols.Symbol

	// Literal payloads. Exactly one is meaningful, selected by Kind.
	IntValue    int64
	FloatValue  float64
	StringValue string

	// Op is the token operator for NodeBinary/NodeUnary/NodeAssign
	// (TokenPlus, TokenPlusEqual, TokenEqual, ...).
	Op TokenKind

	// Name carries the callee name for NodeCall, the declared name for
	// NodeDeclare, and the target coordinate-system name for
	// NodeTypecast's `type"space"` form.
	Name string

	// Level is the break/continue nesting level (§4.2: "break [level]").
	// Zero means "innermost enclosing loop" (level 1 in source syntax is
	// stored as Level 0 here; see parser.go).
	Level int

	// DeclaredUniform records whether a NodeDeclare explicitly used the
	// `uniform` qualifier (affects default storage class, §4.3).
	DeclaredUniform bool

	Span Span
}

// ShaderDecl is the root of a compiled-from-source shader: its kind,
// parameter list (as Declare nodes), and body block.
type ShaderDecl struct {
	Kind       symbols.ShaderKind
	Name       string
	Parameters []*Node // NodeDeclare nodes, in parameter order
	Body       *Node   // NodeBlock
	Span       Span
}
