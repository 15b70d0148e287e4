package lexer

import "testing"

func runTokenCases(t *testing.T, input string, tests []struct {
	expectedType TokenType
	expectedLiteral string
}) {
	t.Helper()
	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestNextToken_BasicTokens(t *testing.T) {
	input := `; , . = ( ) [ ] { }`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenSemicolon, ";"},
		{TokenComma, ","},
		{TokenDot, "."},
		{TokenAssign, "="},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenLBracket, "["},
		{TokenRBracket, "]"},
		{TokenLBrace, "{"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Operators(t *testing.T) {
	input := `+ - * / % < > <= >= == !=`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenPlus, "+"},
		{TokenMinus, "-"},
		{TokenStar, "*"},
		{TokenSlash, "/"},
		{TokenPercent, "%"},
		{TokenLess, "<"},
		{TokenGreater, ">"},
		{TokenLessEq, "<="},
		{TokenGreaterEq, ">="},
		{TokenEq, "=="},
		{TokenNotEq, "!="},
		{TokenEOF, ""},
	})
}

func TestNextToken_Numbers(t *testing.T) {
	input := `42 3.14 -17 -2.5 100`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenInteger, "42"},
		{TokenFloat, "3.14"},
		{TokenInteger, "-17"},
		{TokenFloat, "-2.5"},
		{TokenInteger, "100"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Strings(t *testing.T) {
	input := `"Hello, World!" "test" "" "line\nbreak"`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenString, "Hello, World!"},
		{TokenString, "test"},
		{TokenString, ""},
		{TokenString, "line\nbreak"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Keywords(t *testing.T) {
	input := `true false nil let return fn`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenTrue, "true"},
		{TokenFalse, "false"},
		{TokenNil, "nil"},
		{TokenLet, "let"},
		{TokenReturn, "return"},
		{TokenFn, "fn"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Identifiers(t *testing.T) {
	input := `x count Point println isReady`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "count"},
		{TokenIdentifier, "Point"},
		{TokenIdentifier, "println"},
		{TokenIdentifier, "isReady"},
		{TokenEOF, ""},
	})
}

func TestNextToken_LineComments(t *testing.T) {
	input := "x // this is a comment\ny"
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "x"},
		{TokenIdentifier, "y"},
		{TokenEOF, ""},
	})
}

func TestNextToken_HelloWorld(t *testing.T) {
	input := `"Hello, World!".println();`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenString, "Hello, World!"},
		{TokenDot, "."},
		{TokenIdentifier, "println"},
		{TokenLParen, "("},
		{TokenRParen, ")"},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	})
}

func TestNextToken_VariableDeclaration(t *testing.T) {
	input := "let x, y;\nx = 10;\ny = 20;"
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenLet, "let"},
		{TokenIdentifier, "x"},
		{TokenComma, ","},
		{TokenIdentifier, "y"},
		{TokenSemicolon, ";"},
		{TokenIdentifier, "x"},
		{TokenAssign, "="},
		{TokenInteger, "10"},
		{TokenSemicolon, ";"},
		{TokenIdentifier, "y"},
		{TokenAssign, "="},
		{TokenInteger, "20"},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	})
}

func TestNextToken_Arithmetic(t *testing.T) {
	input := `3 + 4 * 5`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenInteger, "3"},
		{TokenPlus, "+"},
		{TokenInteger, "4"},
		{TokenStar, "*"},
		{TokenInteger, "5"},
		{TokenEOF, ""},
	})
}

func TestTokenize_ValidInput(t *testing.T) {
	input := `"Hello".println();`
	l := New(input)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	expectedTypes := []TokenType{
		TokenString, TokenDot, TokenIdentifier, TokenLParen, TokenRParen, TokenSemicolon, TokenEOF,
	}
	if len(tokens) != len(expectedTypes) {
		t.Fatalf("Expected %d tokens, got %d", len(expectedTypes), len(tokens))
	}
	for i, expectedType := range expectedTypes {
		if tokens[i].Type != expectedType {
			t.Fatalf("Token %d: expected type %q, got %q", i, expectedType, tokens[i].Type)
		}
	}
}

func TestTokenize_IllegalToken(t *testing.T) {
	input := `x ! y` // ! without = is illegal

	l := New(input)
	tokens, err := l.Tokenize()

	if err == nil {
		t.Fatal("Expected error for illegal token, got nil")
	}
	if len(tokens) < 2 {
		t.Fatalf("Expected at least 2 tokens, got %d", len(tokens))
	}
}

func TestLineAndColumn_Tracking(t *testing.T) {
	input := "x\ny\nz"

	l := New(input)

	tok1 := l.NextToken()
	if tok1.Line != 1 {
		t.Errorf("Expected token on line 1, got line %d", tok1.Line)
	}

	tok2 := l.NextToken()
	if tok2.Line != 2 {
		t.Errorf("Expected token on line 2, got line %d", tok2.Line)
	}

	tok3 := l.NextToken()
	if tok3.Line != 3 {
		t.Errorf("Expected token on line 3, got line %d", tok3.Line)
	}
}

func TestNextToken_NumberBeforeSemicolon(t *testing.T) {
	input := `42;`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenInteger, "42"},
		{TokenSemicolon, ";"},
		{TokenEOF, ""},
	})
}

func TestNextToken_DottedCallChain(t *testing.T) {
	input := `list.push(1, 2)`
	runTokenCases(t, input, []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{TokenIdentifier, "list"},
		{TokenDot, "."},
		{TokenIdentifier, "push"},
		{TokenLParen, "("},
		{TokenInteger, "1"},
		{TokenComma, ","},
		{TokenInteger, "2"},
		{TokenRParen, ")"},
		{TokenEOF, ""},
	})
}
