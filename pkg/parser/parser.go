// Package parser implements the Jodin surface language parser: a
// recursive-descent parser over lexer.Token that builds ast.Program.
//
// Jodin's surface syntax is semicolon-terminated and dotted-call: a
// message send is written `receiver.selector(args)` rather than
// Smalltalk's keyword-colon notation, and `fn(params) { ... }` is a
// block literal rather than `[ :params | ... ]`. Operators (`+`, `==`,
// ...) still desugar to a MessageSend the same way a keyword message
// would, so the compiler (which only sees ast.MessageSend) is
// unaffected by the concrete syntax.
//
// Grammar (simplified):
//
// Program := Statement*
// Statement := VariableDecl | ReturnStatement | ExpressionStatement
// VariableDecl := "let" Identifier ("," Identifier)* ";"
// ReturnStatement := "return" Expression ";"
// ExpressionStatement := Expression ";"?
// Expression := Assignment | MessageExpr
// Assignment := Identifier "=" Expression
// MessageExpr := Primary (("." Identifier ("(" Args? ")")?) | (BinOp Primary))?
// Primary := Integer | Float | String | "true" | "false" | "nil" |
// Identifier | ArrayLiteral | FnLiteral | "(" Expression ")"
// ArrayLiteral := "[" (Expression ("," Expression)*)? "]"
// FnLiteral := "fn" "(" (Identifier ("," Identifier)*)? ")" "{" Statement* "}"
//
// The parser accumulates errors rather than aborting on the first one,
// and like the AST it builds, treats every message send (dotted call
// or operator) identically: one selector, zero or more arguments.
package parser

import (
	"fmt"
	"strconv"

	"github.com/jodin-lang/jodin/pkg/ast"
	"github.com/jodin-lang/jodin/pkg/lexer"
)

// Parser is a single-use, stateful recursive-descent parser over a
// two-token lookahead window (curTok, peekTok).
type Parser struct {
	l *lexer.Lexer
	curTok lexer.Token
	peekTok lexer.Token
	errors []string
}

// New creates a parser over input, primed with the first two tokens.
func New(input string) *Parser {
	p := &Parser{l: lexer.New(input), errors: []string{}}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

// Parse consumes the token stream and returns the resulting Program,
// or an error aggregating every syntax error encountered.
func (p *Parser) Parse() (*ast.Program, error) {
	program := &ast.Program{Statements: []ast.Statement{}}

	for p.curTok.Type != lexer.TokenEOF {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	if len(p.errors) > 0 {
		return program, fmt.Errorf("parser errors: %v", p.errors)
	}
	return program, nil
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curTok.Type {
	case lexer.TokenLet:
		return p.parseVariableDeclaration()
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	default:
		expr := p.parseExpression()
		if expr == nil {
			return nil
		}
		stmt := &ast.ExpressionStatement{Expression: expr}
		if p.peekTok.Type == lexer.TokenSemicolon {
			p.nextToken()
		}
		return stmt
	}
}

// parseVariableDeclaration parses `let a, b, c;`.
func (p *Parser) parseVariableDeclaration() ast.Statement {
	p.nextToken() // consume "let"

	var names []string
	if p.curTok.Type != lexer.TokenIdentifier {
		p.addError("expected identifier after let")
		return nil
	}
	names = append(names, p.curTok.Literal)

	for p.peekTok.Type == lexer.TokenComma {
		p.nextToken() // consume identifier
		p.nextToken() // consume comma
		if p.curTok.Type != lexer.TokenIdentifier {
			p.addError("expected identifier after , in let declaration")
			return nil
		}
		names = append(names, p.curTok.Literal)
	}

	if p.peekTok.Type == lexer.TokenSemicolon {
		p.nextToken()
	}

	return &ast.VariableDeclaration{Names: names}
}

// parseReturnStatement parses `return expr;`.
func (p *Parser) parseReturnStatement() ast.Statement {
	p.nextToken() // consume "return"

	value := p.parseExpression()
	if value == nil {
		p.addError("expected expression after return")
		return nil
	}
	if p.peekTok.Type == lexer.TokenSemicolon {
		p.nextToken()
	}
	return &ast.ReturnStatement{Value: value}
}

// parseExpression distinguishes `identifier = expr` assignment from
// every other expression by one token of lookahead.
func (p *Parser) parseExpression() ast.Expression {
	if p.curTok.Type == lexer.TokenIdentifier && p.peekTok.Type == lexer.TokenAssign {
		return p.parseAssignment()
	}
	return p.parseMessageExpr()
}

func (p *Parser) parseAssignment() ast.Expression {
	name := p.curTok.Literal
	p.nextToken() // consume identifier
	p.nextToken() // consume "="

	value := p.parseMessageExpr()
	if value == nil {
		return nil
	}
	return &ast.Assignment{Name: name, Value: value}
}

// parseMessageExpr parses a primary expression optionally followed by
// one dotted call or one binary operator, the way the prior revision
// handled at most one Smalltalk message per receiver.
func (p *Parser) parseMessageExpr() ast.Expression {
	receiver := p.parsePrimaryExpression()
	if receiver == nil {
		return nil
	}

	if p.peekTok.Type == lexer.TokenDot {
		p.nextToken() // advance to "."
		p.nextToken() // advance to selector identifier
		if p.curTok.Type != lexer.TokenIdentifier {
			p.addError("expected method name after .")
			return nil
		}
		selector := p.curTok.Literal

		var args []ast.Expression
		if p.peekTok.Type == lexer.TokenLParen {
			p.nextToken() // advance to "("
			args = p.parseArgList()
		}
		return &ast.MessageSend{Receiver: receiver, Selector: selector, Args: args}
	}

	if p.isBinaryOperator(p.peekTok.Type) {
		p.nextToken() // advance to operator
		operator := p.curTok.Literal
		p.nextToken()
		arg := p.parsePrimaryExpression()
		if arg == nil {
			return nil
		}
		return &ast.MessageSend{Receiver: receiver, Selector: operator, Args: []ast.Expression{arg}}
	}

	return receiver
}

// parseArgList parses a parenthesized, comma-separated expression
// list. curTok is "(" on entry; curTok is ")" on return.
func (p *Parser) parseArgList() []ast.Expression {
	var args []ast.Expression
	if p.peekTok.Type == lexer.TokenRParen {
		p.nextToken()
		return args
	}

	p.nextToken()
	first := p.parseMessageExpr()
	if first != nil {
		args = append(args, first)
	}

	for p.peekTok.Type == lexer.TokenComma {
		p.nextToken() // consume previous arg's last token
		p.nextToken() // consume comma
		arg := p.parseMessageExpr()
		if arg != nil {
			args = append(args, arg)
		}
	}

	if p.peekTok.Type != lexer.TokenRParen {
		p.addError("expected ) to close argument list")
		return args
	}
	p.nextToken()
	return args
}

func (p *Parser) isBinaryOperator(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent,
		lexer.TokenLess, lexer.TokenGreater, lexer.TokenLessEq, lexer.TokenGreaterEq,
		lexer.TokenEq, lexer.TokenNotEq:
		return true
	default:
		return false
	}
}

func (p *Parser) parsePrimaryExpression() ast.Expression {
	switch p.curTok.Type {
	case lexer.TokenInteger:
		return p.parseIntegerLiteral()
	case lexer.TokenFloat:
		return p.parseFloatLiteral()
	case lexer.TokenString:
		return &ast.StringLiteral{Value: p.curTok.Literal}
	case lexer.TokenTrue:
		return &ast.BooleanLiteral{Value: true}
	case lexer.TokenFalse:
		return &ast.BooleanLiteral{Value: false}
	case lexer.TokenNil:
		return &ast.NilLiteral{}
	case lexer.TokenIdentifier:
		return &ast.Identifier{Name: p.curTok.Literal}
	case lexer.TokenLBracket:
		return p.parseArrayLiteral()
	case lexer.TokenFn:
		return p.parseFnLiteral()
	case lexer.TokenLParen:
		p.nextToken()
		expr := p.parseMessageExpr()
		if p.peekTok.Type != lexer.TokenRParen {
			p.addError("expected ) to close parenthesized expression")
			return nil
		}
		p.nextToken()
		return expr
	default:
		p.addError(fmt.Sprintf("unexpected token: %s", p.curTok.Type))
		return nil
	}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curTok.Literal, 10, 64)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as integer", p.curTok.Literal))
		return nil
	}
	return &ast.IntegerLiteral{Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curTok.Literal, 64)
	if err != nil {
		p.addError(fmt.Sprintf("could not parse %q as float", p.curTok.Literal))
		return nil
	}
	return &ast.FloatLiteral{Value: value}
}

// parseArrayLiteral parses `[e1, e2, e3]`.
func (p *Parser) parseArrayLiteral() ast.Expression {
	p.nextToken() // consume "["

	var elements []ast.Expression
	if p.curTok.Type == lexer.TokenRBracket {
		return &ast.ArrayLiteral{Elements: elements}
	}

	elem := p.parseMessageExpr()
	if elem != nil {
		elements = append(elements, elem)
	}
	for p.peekTok.Type == lexer.TokenComma {
		p.nextToken() // consume previous element's last token
		p.nextToken() // consume comma
		elem := p.parseMessageExpr()
		if elem != nil {
			elements = append(elements, elem)
		}
	}

	if p.peekTok.Type != lexer.TokenRBracket {
		p.addError("expected ] to close array literal")
		return nil
	}
	p.nextToken()
	return &ast.ArrayLiteral{Elements: elements}
}

// parseFnLiteral parses `fn(p1, p2) { stmt* }`.
func (p *Parser) parseFnLiteral() ast.Expression {
	p.nextToken() // consume "fn"
	if p.curTok.Type != lexer.TokenLParen {
		p.addError("expected ( after fn")
		return nil
	}
	p.nextToken() // consume "("

	var parameters []string
	if p.curTok.Type != lexer.TokenRParen {
		if p.curTok.Type != lexer.TokenIdentifier {
			p.addError("expected parameter name")
			return nil
		}
		parameters = append(parameters, p.curTok.Literal)
		for p.peekTok.Type == lexer.TokenComma {
			p.nextToken()
			p.nextToken()
			if p.curTok.Type != lexer.TokenIdentifier {
				p.addError("expected parameter name")
				return nil
			}
			parameters = append(parameters, p.curTok.Literal)
		}
		p.nextToken() // advance to ")"
	}
	if p.curTok.Type != lexer.TokenRParen {
		p.addError("expected ) to close parameter list")
		return nil
	}
	p.nextToken() // consume ")"

	if p.curTok.Type != lexer.TokenLBrace {
		p.addError("expected { to open fn body")
		return nil
	}
	p.nextToken() // consume "{"

	var body []ast.Statement
	for p.curTok.Type != lexer.TokenRBrace && p.curTok.Type != lexer.TokenEOF {
		stmt := p.parseStatement()
		if stmt != nil {
			body = append(body, stmt)
		}
		p.nextToken()
	}
	if p.curTok.Type != lexer.TokenRBrace {
		p.addError("expected } to close fn body")
		return nil
	}

	return &ast.BlockLiteral{Parameters: parameters, Body: body}
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, msg)
}

// Errors returns every accumulated syntax error.
func (p *Parser) Errors() []string {
	return p.errors
}
