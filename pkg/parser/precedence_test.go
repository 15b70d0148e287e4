package parser

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/ast"
)

// TestParseDottedCallSelectorAndReceiver verifies that a dotted call
// with no arguments parses as one MessageSend whose selector is the
// name after the dot and whose receiver is the identifier before it.
func TestParseDottedCallSelectorAndReceiver(t *testing.T) {
	input := "arr.size();"

	p := New(input)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	msg, ok := stmt.Expression.(*ast.MessageSend)
	if !ok {
		t.Fatalf("Expected MessageSend, got %T", stmt.Expression)
	}
	if msg.Selector != "size" {
		t.Errorf("Expected selector 'size', got %s", msg.Selector)
	}
	if _, ok := msg.Receiver.(*ast.Identifier); !ok {
		t.Errorf("Expected Identifier receiver, got %T", msg.Receiver)
	}
}

// TestParseBinarySimple confirms that 3 + 4 parses as one binary
// MessageSend with selector "+" and a single argument.
func TestParseBinarySimple(t *testing.T) {
	input := "3 + 4;"

	p := New(input)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	msg, ok := stmt.Expression.(*ast.MessageSend)
	if !ok {
		t.Fatalf("Expected MessageSend, got %T", stmt.Expression)
	}
	if msg.Selector != "+" {
		t.Errorf("Expected selector '+', got %s", msg.Selector)
	}
	if len(msg.Args) != 1 {
		t.Fatalf("Expected 1 arg, got %d", len(msg.Args))
	}
}

// TestParseParenthesizedGroupingOverridesDefault verifies that a
// parenthesized binary expression parses to the same "+" MessageSend,
// since parsePrimaryExpression recurses into parseMessageExpr inside
// "(" ")".
func TestParseParenthesizedGroupingOverridesDefault(t *testing.T) {
	input := "(1 + 2);"

	p := New(input)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	msg, ok := stmt.Expression.(*ast.MessageSend)
	if !ok {
		t.Fatalf("Expected MessageSend, got %T", stmt.Expression)
	}
	if msg.Selector != "+" {
		t.Errorf("Expected selector '+', got %s", msg.Selector)
	}
}

// TestParseCallArgCanBeBinaryExpression verifies that an argument
// inside a dotted call's parens can itself be a full binary
// expression, since parseArgList recurses through parseMessageExpr.
func TestParseCallArgCanBeBinaryExpression(t *testing.T) {
	input := "arr.at(index + 1);"

	p := New(input)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	msg, ok := stmt.Expression.(*ast.MessageSend)
	if !ok {
		t.Fatalf("Expected MessageSend, got %T", stmt.Expression)
	}
	if msg.Selector != "at" {
		t.Errorf("Expected selector 'at', got %s", msg.Selector)
	}
	if len(msg.Args) != 1 {
		t.Fatalf("Expected 1 argument, got %d", len(msg.Args))
	}
	argMsg, ok := msg.Args[0].(*ast.MessageSend)
	if !ok {
		t.Fatalf("Expected MessageSend argument, got %T", msg.Args[0])
	}
	if argMsg.Selector != "+" {
		t.Errorf("Expected argument selector '+', got %s", argMsg.Selector)
	}
}

// TestParseCallWithMultipleArgsEachBinary exercises multiple
// comma-separated arguments, each independently a binary expression.
func TestParseCallWithMultipleArgsEachBinary(t *testing.T) {
	input := "point.move(a + b, c - d);"

	p := New(input)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	msg, ok := stmt.Expression.(*ast.MessageSend)
	if !ok {
		t.Fatalf("Expected MessageSend, got %T", stmt.Expression)
	}
	if msg.Selector != "move" {
		t.Errorf("Expected selector 'move', got %s", msg.Selector)
	}
	if len(msg.Args) != 2 {
		t.Fatalf("Expected 2 arguments, got %d", len(msg.Args))
	}

	arg1, ok := msg.Args[0].(*ast.MessageSend)
	if !ok || arg1.Selector != "+" {
		t.Errorf("Expected first argument selector '+', got %#v", msg.Args[0])
	}
	arg2, ok := msg.Args[1].(*ast.MessageSend)
	if !ok || arg2.Selector != "-" {
		t.Errorf("Expected second argument selector '-', got %#v", msg.Args[1])
	}
}

// TestParseArrayLiteralElementsCanBeBinaryExpressions verifies array
// literal elements recurse through parseMessageExpr the same way call
// arguments do.
func TestParseArrayLiteralElementsCanBeBinaryExpressions(t *testing.T) {
	input := "[1 + 1, 2 * 2];"

	p := New(input)
	program, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	stmt := program.Statements[0].(*ast.ExpressionStatement)
	arr, ok := stmt.Expression.(*ast.ArrayLiteral)
	if !ok {
		t.Fatalf("Expected ArrayLiteral, got %T", stmt.Expression)
	}
	if len(arr.Elements) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(arr.Elements))
	}
	if e0, ok := arr.Elements[0].(*ast.MessageSend); !ok || e0.Selector != "+" {
		t.Errorf("Expected first element selector '+', got %#v", arr.Elements[0])
	}
	if e1, ok := arr.Elements[1].(*ast.MessageSend); !ok || e1.Selector != "*" {
		t.Errorf("Expected second element selector '*', got %#v", arr.Elements[1])
	}
}
