package compiler_test

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/asm"
	"github.com/jodin-lang/jodin/pkg/compiler"
	"github.com/jodin-lang/jodin/pkg/parser"
	"github.com/stretchr/testify/require"
)

func compileSource(t *testing.T, src string) asm.Assembly {
	t.Helper()
	p := parser.New(src)
	program, err := p.Parse()
	require.NoError(t, err)
	out, err := compiler.New().Compile(program)
	require.NoError(t, err)
	return out
}

func containsOp(a asm.Assembly, op asm.Op) bool {
	for _, ins := range a {
		if ins.Op == op {
			return true
		}
	}
	return false
}

func TestCompileIntegerLiteral(t *testing.T) {
	out := compileSource(t, "42;")
	require.True(t, containsOp(out, asm.OpPush))
	require.Equal(t, asm.OpPublicLabel, out[0].Op)
	require.Equal(t, "__start", out[0].Name)
}

func TestCompileStringLiteral(t *testing.T) {
	out := compileSource(t, `"hello";`)
	require.True(t, containsOp(out, asm.OpPush))
}

func TestCompileBooleanLiterals(t *testing.T) {
	out := compileSource(t, "true; false;")
	count := 0
	for _, ins := range out {
		if ins.Op == asm.OpPush {
			count++
		}
	}
	// one Push each for true and false, plus the trailing implicit 0u.
	require.Equal(t, 3, count)
}

func TestCompileNilLiteral(t *testing.T) {
	out := compileSource(t, "nil;")
	require.True(t, containsOp(out, asm.OpPush))
}

func TestCompileVariableDeclarationAndAssignment(t *testing.T) {
	out := compileSource(t, "let x; x = 5;")
	require.True(t, containsOp(out, asm.OpSetVar))
	require.True(t, containsOp(out, asm.OpGetVar))
}

func TestCompileDottedCallNoArgs(t *testing.T) {
	out := compileSource(t, "x.println();")
	require.True(t, containsOp(out, asm.OpSendMessage))
	require.True(t, containsOp(out, asm.OpPack))
}

func TestCompileBinaryMessageSend(t *testing.T) {
	out := compileSource(t, "3 + 4;")
	require.True(t, containsOp(out, asm.OpSendMessage))
}

func TestCompileDottedCallWithArgs(t *testing.T) {
	out := compileSource(t, "arr.at(1, 2);")
	require.True(t, containsOp(out, asm.OpSendMessage))
	found := false
	for _, ins := range out {
		if ins.Op == asm.OpPack && ins.N == 2 {
			found = true
		}
	}
	require.True(t, found, "expected Pack(2) for the two call arguments")
}

func TestCompileMultipleStatements(t *testing.T) {
	out := compileSource(t, "1; 2; 3;")
	pops := 0
	for _, ins := range out {
		if ins.Op == asm.OpPop {
			pops++
		}
	}
	require.Equal(t, 3, pops)
}

func TestCompileSimpleBlock(t *testing.T) {
	out := compileSource(t, "fn() { return 1; };")
	require.True(t, containsOp(out, asm.OpLabel))
	require.True(t, containsOp(out, asm.OpReturn))
}

func TestCompileBlockWithParameter(t *testing.T) {
	out := compileSource(t, "fn(x) { return x; };")
	require.True(t, containsOp(out, asm.OpGetVar))
	require.True(t, containsOp(out, asm.OpReturn))
}

func TestCompileArrayLiteral(t *testing.T) {
	out := compileSource(t, "[1, 2, 3];")
	found := false
	for _, ins := range out {
		if ins.Op == asm.OpPack && ins.N == 3 {
			found = true
		}
	}
	require.True(t, found, "expected Pack(3) for the array elements")
}

func TestCompileEndsInImplicitReturn(t *testing.T) {
	out := compileSource(t, "1;")
	last := out[len(out)-1]
	require.Equal(t, asm.OpReturn, last.Op)
	secondToLast := out[len(out)-2]
	require.Equal(t, asm.OpPush, secondToLast.Op)
}
