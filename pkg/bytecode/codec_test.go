package bytecode_test

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/asm"
	"github.com/jodin-lang/jodin/pkg/bytecode"
	"github.com/jodin-lang/jodin/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagicNumberVerifiesAndDetectsCorruption(t *testing.T) {
	n := bytecode.MagicNumber()
	assert.True(t, bytecode.VerifyMagicNumber(n))
	for shift := 0; shift < 64; shift++ {
		assert.False(t, bytecode.VerifyMagicNumber(n^(1<<uint(shift))), "bit %d flip should invalidate magic", shift)
	}
}

func sampleAssembly(t *testing.T) asm.Assembly {
	root := asm.Root(
		asm.Instruction(asm.PublicLabel("__start")),
		asm.Instruction(asm.Push(value.NewUInteger(10))),
		asm.Instruction(asm.Push(value.NewUInteger(10))),
		asm.Instruction(asm.Multiply()),
		asm.Instruction(asm.Push(value.NewArray([]value.Value{
			value.NewStr("a"), value.NewInteger(-4), value.NewFloat(1.5),
		}))),
		asm.Instruction(asm.Push(value.NewDictionary(map[string]value.Value{
			"@receive": value.NewFunction(value.Label("__output")),
		}))),
		asm.Instruction(asm.Call(value.Label("__start"))),
		asm.Instruction(asm.Return()),
	)
	out, err := asm.Normalize(root)
	require.NoError(t, err)
	return out
}

func TestCodecRoundTrip(t *testing.T) {
	a := sampleAssembly(t)
	encoded, err := bytecode.EncodeBytes(a)
	require.NoError(t, err)

	decoded, err := bytecode.DecodeBytes(encoded)
	require.NoError(t, err)
	require.Len(t, decoded, len(a))
	for i := range a {
		assert.Equal(t, a[i].Op, decoded[i].Op, "instruction %d op", i)
		assert.Equal(t, a[i].String(), decoded[i].String(), "instruction %d text", i)
	}
}

func TestDecodeRejectsInvalidMagic(t *testing.T) {
	encoded, err := bytecode.EncodeBytes(sampleAssembly(t))
	require.NoError(t, err)
	encoded[0] ^= 0xFF

	_, err = bytecode.DecodeBytes(encoded)
	require.ErrorIs(t, err, bytecode.ErrInvalidMagic)
}

func TestDecodeFailureOnTruncatedStream(t *testing.T) {
	encoded, err := bytecode.EncodeBytes(sampleAssembly(t))
	require.NoError(t, err)

	_, err = bytecode.DecodeBytes(encoded[:len(encoded)-3])
	require.Error(t, err)
	var df *bytecode.DecodeFailure
	require.ErrorAs(t, err, &df)
}
