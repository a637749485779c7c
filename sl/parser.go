package sl

import (
	"fmt"

	"github.com/cwbaker/reyes/lang"
	"github.com/cwbaker/reyes/symbols"
)

// maxParseErrors bounds how many syntax errors a single parse collects
// before giving up synchronizing, per §4.2's "policy-defined budget".
const maxParseErrors = 64

// Parser is a recursive-descent parser for SL (§4.2).
type Parser struct {
	tokens  []Token
	current int
	source  string
	table   *symbols.Table
	errors  SourceErrors
}

// NewParser creates a parser over tokens, resolving identifiers against
// table as they are encountered (§4.2: "parser resolves predefined-symbol
// references").
func NewParser(tokens []Token, table *symbols.Table, source string) *Parser {
	return &Parser{tokens: tokens, table: table, source: source}
}

// ParseShader parses a single shader declaration: its kind, name,
// parameter list, and body.
func (p *Parser) ParseShader() (*ShaderDecl, SourceErrors) {
	kind, ok := p.shaderKind()
	if !ok {
		p.errorf(p.peek().Line, p.peek().Column, "expected shader kind (surface, displacement, light, volume)")
		return nil, p.errors
	}
	p.table.DeclareGlobals(kind)

	if !p.check(TokenIdent) {
		p.errorf(p.peek().Line, p.peek().Column, "expected shader name")
		return nil, p.errors
	}
	name := p.advance().Lexeme

	if !p.expect(TokenLeftParen) {
		return nil, p.errors
	}
	params := p.parameterList()
	if !p.expect(TokenRightParen) {
		return nil, p.errors
	}

	body := p.block()
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return &ShaderDecl{Kind: kind, Name: name, Parameters: params, Body: body}, nil
}

func (p *Parser) shaderKind() (symbols.ShaderKind, bool) {
	switch {
	case p.match(TokenSurface):
		return symbols.Surface, true
	case p.match(TokenDisplacement):
		return symbols.Displacement, true
	case p.match(TokenLight):
		return symbols.LightShader, true
	case p.match(TokenVolume):
		return symbols.Volume, true
	default:
		return 0, false
	}
}

func (p *Parser) parameterList() []*Node {
	var params []*Node
	if p.check(TokenRightParen) {
		return params
	}
	for {
		param := p.parameter()
		if param != nil {
			params = append(params, param)
		}
		if !p.match(TokenSemicolon) && !p.match(TokenComma) {
			break
		}
		if p.check(TokenRightParen) {
			break
		}
	}
	return params
}

func (p *Parser) parameter() *Node {
	uniform := p.match(TokenUniform)
	varying := false
	if !uniform {
		varying = p.match(TokenVarying)
	}
	typ, ok := p.typeKeyword()
	if !ok {
		p.errorf(p.peek().Line, p.peek().Column, "expected parameter type")
		return nil
	}
	if !p.check(TokenIdent) {
		p.errorf(p.peek().Line, p.peek().Column, "expected parameter name")
		return nil
	}
	tok := p.advance()
	name := tok.Lexeme

	decl := &Node{Kind: NodeDeclare, Type: typ, Name: name, DeclaredUniform: uniform, Span: spanOf(tok)}
	// Parameters default to uniform storage unless `varying` is given
	// explicitly (§4.3).
	storage := lang.Uniform
	if varying {
		storage = lang.Varying
	}
	sym := &symbols.Symbol{Name: name, Type: typ, Storage: storage, Parameter: true}
	p.table.Declare(sym)
	decl.Symbol = sym

	if p.match(TokenEqual) {
		init := p.expression()
		decl.Children = []*Node{init}
	}
	return decl
}

func (p *Parser) typeKeyword() (lang.Type, bool) {
	tok := p.peek()
	var t lang.Type
	switch tok.Kind {
	case TokenFloatType:
		t = lang.Float
	case TokenPointType:
		t = lang.Point
	case TokenVectorType:
		t = lang.Vector
	case TokenNormalType:
		t = lang.Normal
	case TokenColorType:
		t = lang.Color
	case TokenMatrixType:
		t = lang.Matrix
	case TokenStringType:
		t = lang.String
	default:
		return lang.TypeInvalid, false
	}
	p.advance()
	return t, true
}

// block parses `{ statement* }`.
func (p *Parser) block() *Node {
	start := p.peek()
	if !p.expect(TokenLeftBrace) {
		return &Node{Kind: NodeBlock, Span: spanOf(start)}
	}
	node := &Node{Kind: NodeBlock, Span: spanOf(start)}
	for !p.check(TokenRightBrace) && !p.isAtEnd() && len(p.errors) < maxParseErrors {
		stmt := p.statement()
		if stmt != nil {
			node.Children = append(node.Children, stmt)
		}
	}
	p.expect(TokenRightBrace)
	return node
}

func (p *Parser) statement() *Node {
	switch {
	case p.check(TokenLeftBrace):
		return p.block()
	case p.check(TokenUniform), p.check(TokenVarying):
		return p.declareStatement()
	case p.isTypeKeyword(p.peek().Kind):
		return p.declareStatement()
	case p.match(TokenIf):
		return p.ifStatement()
	case p.match(TokenWhile):
		return p.whileStatement()
	case p.match(TokenFor):
		return p.forStatement()
	case p.match(TokenBreak):
		return p.breakContinue(NodeBreak)
	case p.match(TokenContinue):
		return p.breakContinue(NodeContinue)
	case p.match(TokenReturn):
		return p.returnStatement()
	case p.match(TokenIlluminate):
		return p.illuminateStatement()
	case p.match(TokenSolar):
		return p.solarStatement()
	case p.match(TokenIlluminance):
		return p.illuminanceStatement()
	default:
		return p.exprStatement()
	}
}

func (p *Parser) isTypeKeyword(k TokenKind) bool {
	switch k {
	case TokenFloatType, TokenPointType, TokenVectorType, TokenNormalType,
		TokenColorType, TokenMatrixType, TokenStringType:
		return true
	default:
		return false
	}
}

// declareStatement parses `[uniform] type name [= expr] ;` (§4.2).
// Local declarations default to varying storage unless `uniform` is
// given explicitly (§4.3).
func (p *Parser) declareStatement() *Node {
	tok := p.peek()
	uniform := p.match(TokenUniform)
	if !uniform {
		p.match(TokenVarying)
	}
	typ, ok := p.typeKeyword()
	if !ok {
		p.errorf(tok.Line, tok.Column, "expected type in declaration")
		p.synchronize()
		return nil
	}
	if !p.check(TokenIdent) {
		p.errorf(p.peek().Line, p.peek().Column, "expected variable name")
		p.synchronize()
		return nil
	}
	nameTok := p.advance()
	name := nameTok.Lexeme

	storage := lang.Varying
	if uniform {
		storage = lang.Uniform
	}
	sym := &symbols.Symbol{Name: name, Type: typ, Storage: storage}
	p.table.Declare(sym)

	decl := &Node{Kind: NodeDeclare, Type: typ, Storage: storage, Name: name, Symbol: sym, DeclaredUniform: uniform, Span: spanOf(tok)}
	if p.match(TokenEqual) {
		decl.Children = []*Node{p.expression()}
	}
	p.expect(TokenSemicolon)
	return decl
}

func (p *Parser) exprStatement() *Node {
	tok := p.peek()
	expr := p.expression()
	p.expect(TokenSemicolon)
	return &Node{Kind: NodeExprStmt, Children: []*Node{expr}, Span: spanOf(tok)}
}

func (p *Parser) ifStatement() *Node {
	tok := p.previous()
	p.expect(TokenLeftParen)
	cond := p.expression()
	p.expect(TokenRightParen)
	then := p.statement()
	node := &Node{Kind: NodeIf, Children: []*Node{cond, then}, Span: spanOf(tok)}
	if p.match(TokenElse) {
		node.Children = append(node.Children, p.statement())
	}
	return node
}

func (p *Parser) whileStatement() *Node {
	tok := p.previous()
	p.expect(TokenLeftParen)
	cond := p.expression()
	p.expect(TokenRightParen)
	body := p.statement()
	return &Node{Kind: NodeWhile, Children: []*Node{cond, body}, Span: spanOf(tok)}
}

func (p *Parser) forStatement() *Node {
	tok := p.previous()
	p.expect(TokenLeftParen)
	var init *Node
	if !p.check(TokenSemicolon) {
		init = p.expression()
	}
	p.expect(TokenSemicolon)
	var cond *Node
	if !p.check(TokenSemicolon) {
		cond = p.expression()
	}
	p.expect(TokenSemicolon)
	var step *Node
	if !p.check(TokenRightParen) {
		step = p.expression()
	}
	p.expect(TokenRightParen)
	body := p.statement()
	children := []*Node{init, cond, step, body}
	return &Node{Kind: NodeFor, Children: children, Span: spanOf(tok)}
}

func (p *Parser) breakContinue(kind NodeKind) *Node {
	tok := p.previous()
	node := &Node{Kind: kind, Span: spanOf(tok)}
	if p.check(TokenIntLiteral) {
		lvl := p.advance()
		var n int64
		fmt.Sscanf(lvl.Lexeme, "%d", &n)
		node.Level = int(n) - 1
	}
	p.expect(TokenSemicolon)
	return node
}

func (p *Parser) returnStatement() *Node {
	tok := p.previous()
	node := &Node{Kind: NodeReturn, Span: spanOf(tok)}
	if !p.check(TokenSemicolon) {
		node.Children = []*Node{p.expression()}
	}
	p.expect(TokenSemicolon)
	return node
}

// declareLightBindings makes Ps/Cl/Ol resolvable inside an illumination
// construct's body even in a surface/displacement/volume shader, where
// §6's predefined-globals table does not otherwise declare them: a
// light shader's body gets them from its own predefined scope (§4.3),
// but illuminate/solar/illuminance bind them locally to the construct
// they appear in (§4.2: "illuminate(position) ... defines Ps, Cl, Ol").
// Declaring an already-resolvable name is a harmless no-op overwrite.
func (p *Parser) declareLightBindings() {
	for _, decl := range [...]struct {
		name string
		typ  lang.Type
	}{{"Ps", lang.Point}, {"Cl", lang.Color}, {"Ol", lang.Color}} {
		if _, ok := p.table.Resolve(decl.name); !ok {
			p.table.Declare(&symbols.Symbol{Name: decl.name, Type: decl.typ, Storage: lang.Varying})
		}
	}
}

// illuminateStatement parses `illuminate(position[, axis, angle]) { body }`
// (§4.2).
func (p *Parser) illuminateStatement() *Node {
	tok := p.previous()
	p.expect(TokenLeftParen)
	args := p.argumentList()
	p.expect(TokenRightParen)
	p.declareLightBindings()
	body := p.block()
	return &Node{Kind: NodeIlluminate, Children: append(args, body), Span: spanOf(tok)}
}

// solarStatement parses `solar([axis, angle]) { body }` (§4.2).
func (p *Parser) solarStatement() *Node {
	tok := p.previous()
	p.expect(TokenLeftParen)
	var args []*Node
	if !p.check(TokenRightParen) {
		args = p.argumentList()
	}
	p.expect(TokenRightParen)
	p.declareLightBindings()
	body := p.block()
	return &Node{Kind: NodeSolar, Children: append(args, body), Span: spanOf(tok)}
}

// illuminanceStatement parses `illuminance(position, axis, angle) { body }`
// (§4.2). A one-argument short form `illuminance(position) { body }` with
// an implicit full-sphere cone is also accepted, matching the original
// source's IlluminanceStatements.cpp fixture.
func (p *Parser) illuminanceStatement() *Node {
	tok := p.previous()
	p.expect(TokenLeftParen)
	args := p.argumentList()
	p.expect(TokenRightParen)
	p.declareLightBindings()
	body := p.block()
	return &Node{Kind: NodeIlluminance, Children: append(args, body), Span: spanOf(tok)}
}

func (p *Parser) argumentList() []*Node {
	var args []*Node
	if p.check(TokenRightParen) {
		return args
	}
	for {
		args = append(args, p.expression())
		if !p.match(TokenComma) {
			break
		}
	}
	return args
}

// Expression grammar, precedence climbing (§4.2, §4.4):
//
//	expression    -> assignment
//	assignment    -> logicalOr (('=' | '+=' | '-=' | '*=' | '/=') assignment)?
//	logicalOr     -> logicalAnd ('||' logicalAnd)*
//	logicalAnd    -> equality ('&&' equality)*
//	equality      -> relational (('==' | '!=') relational)*
//	relational    -> additive (('<' | '<=' | '>' | '>=') additive)*
//	additive      -> multiplicative (('+' | '-') multiplicative)*
//	multiplicative-> unary (('*' | '/') unary)*
//	unary         -> ('-' | '!') unary | postfix
//	postfix       -> primary
//	primary       -> literal | ident ['(' args ')'] | typeCast | '(' expression ')'
func (p *Parser) expression() *Node {
	return p.assignment()
}

func (p *Parser) assignment() *Node {
	left := p.logicalOr()
	tok := p.peek()
	switch tok.Kind {
	case TokenEqual, TokenPlusEqual, TokenMinusEqual, TokenStarEqual, TokenSlashEqual:
		p.advance()
		right := p.assignment()
		return &Node{Kind: NodeAssign, Op: tok.Kind, Children: []*Node{left, right}, Span: spanOf(tok)}
	default:
		return left
	}
}

func (p *Parser) logicalOr() *Node {
	left := p.logicalAnd()
	for p.check(TokenPipePipe) {
		tok := p.advance()
		right := p.logicalAnd()
		left = &Node{Kind: NodeLogicalOr, Op: tok.Kind, Children: []*Node{left, right}, Span: spanOf(tok)}
	}
	return left
}

func (p *Parser) logicalAnd() *Node {
	left := p.equality()
	for p.check(TokenAmpAmp) {
		tok := p.advance()
		right := p.equality()
		left = &Node{Kind: NodeLogicalAnd, Op: tok.Kind, Children: []*Node{left, right}, Span: spanOf(tok)}
	}
	return left
}

func (p *Parser) equality() *Node {
	left := p.relational()
	for p.check(TokenEqualEqual) || p.check(TokenBangEqual) {
		tok := p.advance()
		right := p.relational()
		left = &Node{Kind: NodeBinary, Op: tok.Kind, Children: []*Node{left, right}, Span: spanOf(tok)}
	}
	return left
}

func (p *Parser) relational() *Node {
	left := p.additive()
	for p.check(TokenLess) || p.check(TokenLessEqual) || p.check(TokenGreater) || p.check(TokenGreaterEqual) {
		tok := p.advance()
		right := p.additive()
		left = &Node{Kind: NodeBinary, Op: tok.Kind, Children: []*Node{left, right}, Span: spanOf(tok)}
	}
	return left
}

func (p *Parser) additive() *Node {
	left := p.multiplicative()
	for p.check(TokenPlus) || p.check(TokenMinus) {
		tok := p.advance()
		right := p.multiplicative()
		left = &Node{Kind: NodeBinary, Op: tok.Kind, Children: []*Node{left, right}, Span: spanOf(tok)}
	}
	return left
}

func (p *Parser) multiplicative() *Node {
	left := p.unary()
	for p.check(TokenStar) || p.check(TokenSlash) {
		tok := p.advance()
		right := p.unary()
		left = &Node{Kind: NodeBinary, Op: tok.Kind, Children: []*Node{left, right}, Span: spanOf(tok)}
	}
	return left
}

func (p *Parser) unary() *Node {
	if p.check(TokenMinus) || p.check(TokenBang) {
		tok := p.advance()
		operand := p.unary()
		kind := NodeUnary
		if tok.Kind == TokenBang {
			kind = NodeLogicalNot
		}
		return &Node{Kind: kind, Op: tok.Kind, Children: []*Node{operand}, Span: spanOf(tok)}
	}
	return p.primary()
}

func (p *Parser) primary() *Node {
	tok := p.peek()
	switch {
	case p.match(TokenIntLiteral):
		var n int64
		fmt.Sscanf(tok.Lexeme, "%d", &n)
		return &Node{Kind: NodeIntLiteral, Type: lang.Integer, Storage: lang.Constant, IntValue: n, Span: spanOf(tok)}

	case p.match(TokenFloatLiteral):
		var f float64
		fmt.Sscanf(tok.Lexeme, "%g", &f)
		return &Node{Kind: NodeFloatLiteral, Type: lang.Float, Storage: lang.Constant, FloatValue: f, Span: spanOf(tok)}

	case p.match(TokenStringLiteral):
		return &Node{Kind: NodeStringLiteral, Type: lang.String, Storage: lang.Constant, StringValue: unquote(tok.Lexeme), Span: spanOf(tok)}

	case p.isTypeKeyword(tok.Kind):
		return p.typecastOrConstruct()

	case p.check(TokenIdent):
		p.advance()
		if p.match(TokenLeftParen) {
			args := p.argumentList()
			p.expect(TokenRightParen)
			return &Node{Kind: NodeCall, Name: tok.Lexeme, Children: args, Span: spanOf(tok)}
		}
		sym, ok := p.table.Resolve(tok.Lexeme)
		node := &Node{Kind: NodeIdent, Name: tok.Lexeme, Span: spanOf(tok)}
		if ok {
			node.Symbol = sym
			node.Type = sym.Type
			node.Storage = sym.Storage
		} else {
			p.errorf(tok.Line, tok.Column, "undefined symbol %q", tok.Lexeme)
		}
		return node

	case p.match(TokenLeftParen):
		expr := p.expression()
		p.expect(TokenRightParen)
		return expr

	default:
		p.errorf(tok.Line, tok.Column, "unexpected token %s", tok.Kind)
		p.advance()
		return &Node{Kind: NodeInvalid, Span: spanOf(tok)}
	}
}

// typecastOrConstruct parses `type ['"'space'"'] '(' expr [, expr]* ')'`
// (§4.4's typecast rule, plus plain type-name construction such as
// `color(1,0,0)`).
func (p *Parser) typecastOrConstruct() *Node {
	tok := p.peek()
	typ, _ := p.typeKeyword()
	var space string
	if p.check(TokenStringLiteral) {
		space = unquote(p.advance().Lexeme)
	}
	p.expect(TokenLeftParen)
	args := p.argumentList()
	p.expect(TokenRightParen)
	return &Node{Kind: NodeTypecast, Type: typ, Name: space, Children: args, Span: spanOf(tok)}
}

func unquote(lexeme string) string {
	if len(lexeme) >= 2 {
		return lexeme[1 : len(lexeme)-1]
	}
	return lexeme
}

// --- token-stream helpers -------------------------------------------------

func (p *Parser) check(k TokenKind) bool {
	return !p.isAtEnd() && p.peek().Kind == k
}

func (p *Parser) match(k TokenKind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k TokenKind) bool {
	if p.check(k) {
		p.advance()
		return true
	}
	tok := p.peek()
	p.errorf(tok.Line, tok.Column, "expected %s, got %s", k, tok.Kind)
	return false
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() Token    { return p.tokens[p.current] }
func (p *Parser) previous() Token { return p.tokens[p.current-1] }
func (p *Parser) isAtEnd() bool  { return p.peek().Kind == TokenEOF }

func (p *Parser) errorf(line, column int, format string, args ...any) {
	if len(p.errors) >= maxParseErrors {
		return
	}
	p.errors.Add(NewSourceErrorf(Span{Start: Position{Line: line, Column: column}}, p.source, format, args...))
}

// synchronize skips tokens until a statement boundary, so parsing can
// continue after an error and collect more diagnostics (§4.2).
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		if p.tokens[p.current-1].Kind == TokenSemicolon {
			return
		}
		switch p.peek().Kind {
		case TokenIf, TokenWhile, TokenFor, TokenReturn, TokenRightBrace:
			return
		}
		p.advance()
	}
}

func spanOf(tok Token) Span {
	return Span{Start: Position{Line: tok.Line, Column: tok.Column}}
}
