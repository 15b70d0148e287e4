// Package alu implements Jodin's arithmetic, bitwise, and boolean
// operations as pure Value x Value -> Value functions.
//
// Grounded on a set of numeric helpers
// (github.com/kristofer/smog, pkg/vm/vm.go: add/subtract/multiply/
// divide, lessThan/greaterThan/.../notEqual), generalized from two
// supported dynamic types (int64, float64) to the four numeric Value
// tags plus Byte-as-UInteger participation and Str concatenation
// under Add.
package alu

import (
	"fmt"

	"github.com/jodin-lang/jodin/pkg/value"
)

// ErrInvalidType is returned when an operation is applied to operand
// tags it does not support.
type ErrInvalidType struct {
	Value value.Value
	Expected string
}

func (e *ErrInvalidType) Error() string {
	return fmt.Sprintf("InvalidType{value: %s, expected: %s}", e.Value.Tag, e.Expected)
}

// ErrDivideByZero is returned by Divide/Remainder when the RHS is
// numerically zero. This is always fatal, never silently coerced.
var ErrDivideByZero = fmt.Errorf("DivideByZero")

type numKind int

const (
	numFloat numKind = iota
	numInteger
	numUInteger
)

// classify reports the promoted numeric kind of a Value, treating
// Byte as UInteger, or false if v is not numeric.
func classify(v value.Value) (numKind, bool) {
	switch v.Tag {
	case value.TagFloat:
		return numFloat, true
	case value.TagInteger:
		return numInteger, true
	case value.TagUInteger, value.TagByte:
		return numUInteger, true
	default:
		return 0, false
	}
}

func promote(a, b numKind) numKind {
	if a == numFloat || b == numFloat {
		return numFloat
	}
	if a == numInteger || b == numInteger {
		return numInteger
	}
	return numUInteger
}

func asFloat(v value.Value) float64 {
	switch v.Tag {
	case value.TagFloat:
		return v.Float()
	case value.TagInteger:
		return float64(v.Integer())
	case value.TagUInteger:
		return float64(v.UInteger())
	case value.TagByte:
		return float64(v.Byte())
	}
	return 0
}

func asInt(v value.Value) int64 {
	switch v.Tag {
	case value.TagInteger:
		return v.Integer()
	case value.TagUInteger:
		return int64(v.UInteger())
	case value.TagByte:
		return int64(v.Byte())
	}
	return 0
}

func asUint(v value.Value) uint64 {
	switch v.Tag {
	case value.TagUInteger:
		return v.UInteger()
	case value.TagByte:
		return uint64(v.Byte())
	case value.TagInteger:
		return uint64(v.Integer())
	}
	return 0
}

// arith applies a binary numeric op with the promotion rule: Float >
// Integer > UInteger, computing in the widest representation needed
// and narrowing the result back to the promoted kind.
func arith(a, b value.Value, ffn func(x, y float64) float64, ifn func(x, y int64) int64, ufn func(x, y uint64) uint64) (value.Value, error) {
	ka, oka := classify(a)
	kb, okb := classify(b)
	if !oka || !okb {
		return value.Value{}, &ErrInvalidType{Value: pickNonNumeric(a, b, oka), Expected: "numeric"}
	}
	switch promote(ka, kb) {
	case numFloat:
		return value.NewFloat(ffn(asFloat(a), asFloat(b))), nil
	case numInteger:
		return value.NewInteger(ifn(asInt(a), asInt(b))), nil
	default:
		return value.NewUInteger(ufn(asUint(a), asUint(b))), nil
	}
}

func pickNonNumeric(a, b value.Value, aOk bool) value.Value {
	if !aOk {
		return a
	}
	return b
}

// Add computes L+R, with operands pushed in Push-R-then-Push-L order
// so Op always computes L op R. String concatenation is the one
// non-numeric case Add accepts.
func Add(l, r value.Value) (value.Value, error) {
	if l.Tag == value.TagStr || r.Tag == value.TagStr {
		if l.Tag != value.TagStr || r.Tag != value.TagStr {
			return value.Value{}, &ErrInvalidType{Value: pickNonNumeric(l, r, l.Tag == value.TagStr), Expected: "Str"}
		}
		return value.NewStr(l.Str() + r.Str()), nil
	}
	return arith(l, r,
		func(x, y float64) float64 { return x + y },
		func(x, y int64) int64 { return x + y },
		func(x, y uint64) uint64 { return x + y })
}

func Subtract(l, r value.Value) (value.Value, error) {
	return arith(l, r,
		func(x, y float64) float64 { return x - y },
		func(x, y int64) int64 { return x - y },
		func(x, y uint64) uint64 { return x - y })
}

func Multiply(l, r value.Value) (value.Value, error) {
	return arith(l, r,
		func(x, y float64) float64 { return x * y },
		func(x, y int64) int64 { return x * y },
		func(x, y uint64) uint64 { return x * y })
}

func Divide(l, r value.Value) (value.Value, error) {
	if isZero(r) {
		return value.Value{}, ErrDivideByZero
	}
	return arith(l, r,
		func(x, y float64) float64 { return x / y },
		func(x, y int64) int64 { return x / y },
		func(x, y uint64) uint64 { return x / y })
}

func Remainder(l, r value.Value) (value.Value, error) {
	if isZero(r) {
		return value.Value{}, ErrDivideByZero
	}
	return arith(l, r,
		func(x, y float64) float64 {
			q := float64(int64(x / y))
			return x - q*y
		},
		func(x, y int64) int64 { return x % y },
		func(x, y uint64) uint64 { return x % y })
}

func isZero(v value.Value) bool {
	k, ok := classify(v)
	if !ok {
		return false
	}
	switch k {
	case numFloat:
		return asFloat(v) == 0
	case numInteger:
		return asInt(v) == 0
	default:
		return asUint(v) == 0
	}
}

func requireIntegral(v value.Value) (uint64, error) {
	switch v.Tag {
	case value.TagByte, value.TagUInteger, value.TagInteger:
		return asUint(v), nil
	default:
		return 0, &ErrInvalidType{Value: v, Expected: "integral"}
	}
}

// And, Or, Not are bitwise operations over integral values.
func And(l, r value.Value) (value.Value, error) {
	a, err := requireIntegral(l)
	if err != nil {
		return value.Value{}, err
	}
	b, err := requireIntegral(r)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewUInteger(a & b), nil
}

func Or(l, r value.Value) (value.Value, error) {
	a, err := requireIntegral(l)
	if err != nil {
		return value.Value{}, err
	}
	b, err := requireIntegral(r)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewUInteger(a | b), nil
}

func Not(v value.Value) (value.Value, error) {
	a, err := requireIntegral(v)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewUInteger(^a), nil
}

// Boolify maps zero/empty to 0u8, everything else to 1u8.
func Boolify(v value.Value) value.Value {
	if isFalsy(v) {
		return value.NewByte(0)
	}
	return value.NewByte(1)
}

func isFalsy(v value.Value) bool {
	switch v.Tag {
	case value.TagEmpty:
		return true
	case value.TagByte:
		return v.Byte() == 0
	case value.TagInteger:
		return v.Integer() == 0
	case value.TagUInteger:
		return v.UInteger() == 0
	case value.TagFloat:
		return v.Float() == 0
	case value.TagStr:
		return v.Str() == ""
	case value.TagArray:
		return len(v.Array()) == 0
	case value.TagDictionary:
		return len(v.Dictionary()) == 0
	default:
		return false
	}
}

func BooleanAnd(l, r value.Value) value.Value {
	return boolByte(!isFalsy(l) && !isFalsy(r))
}

func BooleanOr(l, r value.Value) value.Value {
	return boolByte(!isFalsy(l) || !isFalsy(r))
}

func BooleanNot(v value.Value) value.Value {
	return boolByte(isFalsy(v))
}

func BooleanXor(l, r value.Value) value.Value {
	return boolByte(!isFalsy(l) != !isFalsy(r))
}

func boolByte(b bool) value.Value {
	if b {
		return value.NewByte(1)
	}
	return value.NewByte(0)
}

// GT0 pops v, pushes 1 iff v>0 else 0.
func GT0(v value.Value) (value.Value, error) {
	k, ok := classify(v)
	if !ok {
		return value.Value{}, &ErrInvalidType{Value: v, Expected: "numeric"}
	}
	switch k {
	case numFloat:
		return boolByte(asFloat(v) > 0), nil
	case numInteger:
		return boolByte(asInt(v) > 0), nil
	default:
		return boolByte(asUint(v) > 0), nil
	}
}

// Gt pops second then first; pushes 1 iff first>second.
func Gt(first, second value.Value) (value.Value, error) {
	ka, oka := classify(first)
	kb, okb := classify(second)
	if !oka || !okb {
		return value.Value{}, &ErrInvalidType{Value: pickNonNumeric(first, second, oka), Expected: "numeric"}
	}
	switch promote(ka, kb) {
	case numFloat:
		return boolByte(asFloat(first) > asFloat(second)), nil
	case numInteger:
		return boolByte(asInt(first) > asInt(second)), nil
	default:
		return boolByte(asUint(first) > asUint(second)), nil
	}
}
