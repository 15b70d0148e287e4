package alu_test

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/alu"
	"github.com/jodin-lang/jodin/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPromotion(t *testing.T) {
	v, err := alu.Add(value.NewInteger(3), value.NewFloat(1.5))
	require.NoError(t, err)
	assert.Equal(t, value.TagFloat, v.Tag)
	assert.Equal(t, 4.5, v.Float())

	v, err = alu.Add(value.NewInteger(3), value.NewInteger(4))
	require.NoError(t, err)
	assert.Equal(t, value.TagInteger, v.Tag)
	assert.Equal(t, int64(7), v.Integer())

	v, err = alu.Add(value.NewUInteger(3), value.NewUInteger(4))
	require.NoError(t, err)
	assert.Equal(t, value.TagUInteger, v.Tag)
	assert.Equal(t, uint64(7), v.UInteger())

	v, err = alu.Add(value.NewByte(2), value.NewUInteger(5))
	require.NoError(t, err)
	assert.Equal(t, value.TagUInteger, v.Tag)
	assert.Equal(t, uint64(7), v.UInteger())
}

func TestAddStringConcatenation(t *testing.T) {
	v, err := alu.Add(value.NewStr("foo"), value.NewStr("bar"))
	require.NoError(t, err)
	assert.Equal(t, "foobar", v.Str())

	_, err = alu.Add(value.NewStr("foo"), value.NewInteger(1))
	require.Error(t, err)
}

func TestSubtractRejectsStrings(t *testing.T) {
	_, err := alu.Subtract(value.NewStr("foo"), value.NewStr("bar"))
	require.Error(t, err)
	var invalid *alu.ErrInvalidType
	require.ErrorAs(t, err, &invalid)
}

func TestDivideByZeroIsFatal(t *testing.T) {
	_, err := alu.Divide(value.NewInteger(10), value.NewInteger(0))
	require.ErrorIs(t, err, alu.ErrDivideByZero)

	_, err = alu.Remainder(value.NewUInteger(10), value.NewUInteger(0))
	require.ErrorIs(t, err, alu.ErrDivideByZero)
}

func TestBoolify(t *testing.T) {
	assert.Equal(t, byte(0), alu.Boolify(value.Empty()).Byte())
	assert.Equal(t, byte(0), alu.Boolify(value.NewInteger(0)).Byte())
	assert.Equal(t, byte(1), alu.Boolify(value.NewInteger(5)).Byte())
	assert.Equal(t, byte(0), alu.Boolify(value.NewStr("")).Byte())
	assert.Equal(t, byte(1), alu.Boolify(value.NewStr("x")).Byte())
}

func TestBooleanOps(t *testing.T) {
	one := value.NewByte(1)
	zero := value.NewByte(0)
	assert.Equal(t, byte(1), alu.BooleanAnd(one, one).Byte())
	assert.Equal(t, byte(0), alu.BooleanAnd(one, zero).Byte())
	assert.Equal(t, byte(1), alu.BooleanOr(zero, one).Byte())
	assert.Equal(t, byte(1), alu.BooleanNot(zero).Byte())
	assert.Equal(t, byte(1), alu.BooleanXor(one, zero).Byte())
	assert.Equal(t, byte(0), alu.BooleanXor(one, one).Byte())
}

func TestGtAndGT0(t *testing.T) {
	gt, err := alu.Gt(value.NewInteger(5), value.NewInteger(3))
	require.NoError(t, err)
	assert.Equal(t, byte(1), gt.Byte())

	gt0, err := alu.GT0(value.NewInteger(-1))
	require.NoError(t, err)
	assert.Equal(t, byte(0), gt0.Byte())
}

func TestAndOrNotRequireIntegral(t *testing.T) {
	v, err := alu.And(value.NewUInteger(0b110), value.NewUInteger(0b011))
	require.NoError(t, err)
	assert.Equal(t, uint64(0b010), v.UInteger())

	_, err = alu.And(value.NewFloat(1.0), value.NewUInteger(1))
	require.Error(t, err)
}
