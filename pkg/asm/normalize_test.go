package asm_test

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/asm"
	"github.com/jodin-lang/jodin/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFlattensAndResolvesLabels(t *testing.T) {
	root := asm.Root(
		asm.Instruction(asm.PublicLabel("__start")),
		asm.Instruction(asm.Push(value.NewUInteger(10))),
		asm.NewBlock("loop",
			asm.Instruction(asm.Label("top")),
			asm.Instruction(asm.Push(value.NewUInteger(1))),
			asm.Instruction(asm.CondGoto(value.Label("top"))),
		),
		asm.Instruction(asm.Goto(value.Label("__start"))),
		asm.Instruction(asm.Return()),
	)

	out, err := asm.Normalize(root)
	require.NoError(t, err)
	require.Len(t, out, 7)
	assert.Equal(t, "__start", out[0].Name)
	assert.Equal(t, "loop::top", out[2].Name)
	assert.Equal(t, "loop::top", out[4].Loc.LabelName())
	assert.Equal(t, "__start", out[5].Loc.LabelName())
}

func TestNormalizeUnnamedBlockGetsSyntheticPrefix(t *testing.T) {
	root := asm.Root(
		asm.NewBlock("",
			asm.Instruction(asm.Label("inner")),
			asm.Instruction(asm.Goto(value.Label("inner"))),
		),
	)
	out, err := asm.Normalize(root)
	require.NoError(t, err)
	assert.Equal(t, "_0::inner", out[0].Name)
	assert.Equal(t, "_0::inner", out[1].Loc.LabelName())
}

func TestNormalizeUnresolvedLabel(t *testing.T) {
	root := asm.Root(
		asm.Instruction(asm.Goto(value.Label("nowhere"))),
	)
	_, err := asm.Normalize(root)
	require.Error(t, err)
	var unresolved *asm.ErrUnresolvedLabel
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "nowhere", unresolved.Name)
}

func TestNormalizeDuplicatePublicLabel(t *testing.T) {
	root := asm.Root(
		asm.Instruction(asm.PublicLabel("dup")),
		asm.NewBlock("b", asm.Instruction(asm.PublicLabel("dup"))),
	)
	_, err := asm.Normalize(root)
	require.Error(t, err)
	var dup *asm.ErrDuplicatePublicLabel
	require.ErrorAs(t, err, &dup)
}

func TestNormalizeIdempotent(t *testing.T) {
	root := asm.Root(
		asm.Instruction(asm.PublicLabel("__start")),
		asm.NewBlock("blk",
			asm.Instruction(asm.Label("x")),
			asm.Instruction(asm.Goto(value.Label("x"))),
		),
		asm.Instruction(asm.Return()),
	)
	first, err := asm.Normalize(root)
	require.NoError(t, err)

	second, err := asm.Normalize(asm.FromAssembly(first))
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestNormalizePreservesOrder(t *testing.T) {
	root := asm.Root(
		asm.Instruction(asm.Push(value.NewInteger(1))),
		asm.Instruction(asm.Push(value.NewInteger(2))),
		asm.Instruction(asm.Add()),
		asm.Instruction(asm.Return()),
	)
	out, err := asm.Normalize(root)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, asm.OpPush, out[0].Op)
	assert.Equal(t, asm.OpPush, out[1].Op)
	assert.Equal(t, asm.OpAdd, out[2].Op)
	assert.Equal(t, asm.OpReturn, out[3].Op)
}
