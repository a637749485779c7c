package sl

import "testing"

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"+ - * /", []TokenKind{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenEOF}},
		{"( ) { } [ ]", []TokenKind{TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace, TokenLeftBracket, TokenRightBracket, TokenEOF}},
		{"; ,", []TokenKind{TokenSemicolon, TokenComma, TokenEOF}},
		{"== != <= >= < > = += -= *= /=", []TokenKind{
			TokenEqualEqual, TokenBangEqual, TokenLessEqual, TokenGreaterEqual,
			TokenLess, TokenGreater, TokenEqual, TokenPlusEqual, TokenMinusEqual,
			TokenStarEqual, TokenSlashEqual, TokenEOF,
		}},
		{"&& || !", []TokenKind{TokenAmpAmp, TokenPipePipe, TokenBang, TokenEOF}},
	}

	for _, tt := range tests {
		lexer := NewLexer(tt.input)
		tokens, err := lexer.Tokenize()
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.input, err)
			continue
		}
		if len(tokens) != len(tt.expected) {
			t.Errorf("%q: expected %d tokens, got %d", tt.input, len(tt.expected), len(tokens))
			continue
		}
		for i, tok := range tokens {
			if tok.Kind != tt.expected[i] {
				t.Errorf("%q: token %d: expected %v, got %v", tt.input, i, tt.expected[i], tok.Kind)
			}
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	input := "surface displacement light volume uniform varying if else while for break continue return illuminate solar illuminance"
	expected := []TokenKind{
		TokenSurface, TokenDisplacement, TokenLight, TokenVolume,
		TokenUniform, TokenVarying, TokenIf, TokenElse, TokenWhile, TokenFor,
		TokenBreak, TokenContinue, TokenReturn, TokenIlluminate, TokenSolar,
		TokenIlluminance, TokenEOF,
	}
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("token %d: expected %v, got %v", i, expected[i], tok.Kind)
		}
	}
}

func TestLexerTypeKeywords(t *testing.T) {
	input := "void float point vector normal color matrix string"
	expected := []TokenKind{
		TokenVoid, TokenFloatType, TokenPointType, TokenVectorType,
		TokenNormalType, TokenColorType, TokenMatrixType, TokenStringType, TokenEOF,
	}
	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("token %d: expected %v, got %v", i, expected[i], tok.Kind)
		}
	}
}

func TestLexerNumericLiterals(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"42", TokenIntLiteral},
		{"3.14", TokenFloatLiteral},
		{"0.5", TokenFloatLiteral},
		{"1e10", TokenFloatLiteral},
		{"1.5e-3", TokenFloatLiteral},
		{"2E+4", TokenFloatLiteral},
	}
	for _, tt := range tests {
		tokens, err := NewLexer(tt.input).Tokenize()
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.input, err)
		}
		if len(tokens) != 2 || tokens[0].Kind != tt.kind {
			t.Errorf("%q: expected single %v token, got %v", tt.input, tt.kind, tokens)
		}
	}
}

func TestLexerStringLiteral(t *testing.T) {
	tokens, err := NewLexer(`"hello world"`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 2 || tokens[0].Kind != TokenStringLiteral {
		t.Fatalf("expected a single string literal token, got %v", tokens)
	}
	if tokens[0].Lexeme != `"hello world"` {
		t.Errorf("unexpected lexeme %q", tokens[0].Lexeme)
	}
}

func TestLexerColorSpacePrefixForm(t *testing.T) {
	// color"hsv" lexes as TokenColorType followed by a plain string
	// literal; the parser recognizes the adjacency (§4.1).
	tokens, err := NewLexer(`color"hsv"(1,0,0)`).Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []TokenKind{
		TokenColorType, TokenStringLiteral, TokenLeftParen, TokenIntLiteral,
		TokenComma, TokenIntLiteral, TokenComma, TokenIntLiteral, TokenRightParen, TokenEOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d: %v", len(expected), len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("token %d: expected %v, got %v", i, expected[i], tok.Kind)
		}
	}
}

func TestLexerLineComment(t *testing.T) {
	tokens, err := NewLexer("1 // a comment\n2").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != 3 || tokens[0].Kind != TokenIntLiteral || tokens[1].Kind != TokenIntLiteral {
		t.Fatalf("expected comment to be skipped, got %v", tokens)
	}
}

func TestLexerUnterminatedStringFails(t *testing.T) {
	_, err := NewLexer(`"unterminated`).Tokenize()
	if err == nil {
		t.Fatal("expected an error for an unterminated string literal")
	}
	if _, ok := err.(*LexError); !ok {
		t.Errorf("expected *LexError, got %T", err)
	}
}

func TestLexerInvalidCharacterFails(t *testing.T) {
	_, err := NewLexer("1 ^ 2").Tokenize()
	if err == nil {
		t.Fatal("expected an error for an invalid character")
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := NewLexer("a\nb").Tokenize()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens[0].Line != 1 {
		t.Errorf("expected first identifier on line 1, got %d", tokens[0].Line)
	}
	if tokens[1].Line != 2 {
		t.Errorf("expected second identifier on line 2, got %d", tokens[1].Line)
	}
}
