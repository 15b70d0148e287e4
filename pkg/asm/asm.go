// Package asm defines Jodin's label-based instruction set (Asm), the
// pre-normalization block tree (AssemblyBlock), and the flattening pass
// that turns a tree into a linear, label-resolved Assembly.
//
// The instruction shape follows an opcode/operand split
// (github.com/kristofer/smog, pkg/bytecode, Opcode+Instruction), widened
// from a single-int operand to the several operand kinds Asm
// actually needs (label names, locations, packed values, slot ids).
package asm

import (
	"fmt"

	"github.com/jodin-lang/jodin/pkg/value"
)

// Op identifies an Asm instruction's operation.
type Op int

const (
	OpLabel Op = iota
	OpPublicLabel

	OpNop
	OpHalt
	OpReturn
	OpGoto
	OpCondGoto
	OpCall

	OpPush
	OpPop
	OpClear

	OpSetVar
	OpGetVar
	OpClearVar

	OpGetSymbol
	OpSetSymbol

	OpGetAttribute
	OpIndex
	OpPack
	OpDeref
	OpGetRef
	OpSetRef

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpRemainder

	OpGT0
	OpGt

	OpAnd
	OpOr
	OpNot
	OpBooleanAnd
	OpBooleanOr
	OpBooleanNot
	OpBooleanXor
	OpBoolify

	OpSendMessage
	OpIntoReference

	OpNativeMethod
)

var opNames = map[Op]string{
	OpLabel: "Label", OpPublicLabel: "PublicLabel",
	OpNop: "Nop", OpHalt: "Halt", OpReturn: "Return",
	OpGoto: "Goto", OpCondGoto: "CondGoto", OpCall: "Call",
	OpPush: "Push", OpPop: "Pop", OpClear: "Clear",
	OpSetVar: "SetVar", OpGetVar: "GetVar", OpClearVar: "ClearVar",
	OpGetSymbol: "GetSymbol", OpSetSymbol: "SetSymbol",
	OpGetAttribute: "GetAttribute", OpIndex: "Index", OpPack: "Pack",
	OpDeref: "Deref", OpGetRef: "GetRef", OpSetRef: "SetRef",
	OpAdd: "Add", OpSubtract: "Subtract", OpMultiply: "Multiply",
	OpDivide: "Divide", OpRemainder: "Remainder",
	OpGT0: "GT0", OpGt: "Gt",
	OpAnd: "And", OpOr: "Or", OpNot: "Not",
	OpBooleanAnd: "BooleanAnd", OpBooleanOr: "BooleanOr",
	OpBooleanNot: "BooleanNot", OpBooleanXor: "BooleanXor",
	OpBoolify: "Boolify",
	OpSendMessage: "SendMessage", OpIntoReference: "IntoReference",
	OpNativeMethod: "NativeMethod",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Asm is one instruction. Only the fields relevant to Op are populated;
// see the constructors below for the canonical way to build one.
type Asm struct {
	Op Op

	Name string // Label, PublicLabel, GetSymbol, SetSymbol, GetAttribute, NativeMethod
	Loc value.AsmLocation // Goto, CondGoto, Call
	Val value.Value // Push
	Var int // SetVar, GetVar, ClearVar
	N int // Pack(n), NativeMethod(name, arg_count)
	Idx uint64 // Index(usize)
}

func Label(name string) Asm { return Asm{Op: OpLabel, Name: name} }
func PublicLabel(name string) Asm { return Asm{Op: OpPublicLabel, Name: name} }

func Nop() Asm { return Asm{Op: OpNop} }
func Halt() Asm { return Asm{Op: OpHalt} }
func Return() Asm { return Asm{Op: OpReturn} }

func Goto(loc value.AsmLocation) Asm { return Asm{Op: OpGoto, Loc: loc} }
func CondGoto(loc value.AsmLocation) Asm { return Asm{Op: OpCondGoto, Loc: loc} }
func Call(loc value.AsmLocation) Asm { return Asm{Op: OpCall, Loc: loc} }

func Push(v value.Value) Asm { return Asm{Op: OpPush, Val: v} }
func Pop() Asm { return Asm{Op: OpPop} }
func Clear() Asm { return Asm{Op: OpClear} }

func SetVar(id int) Asm { return Asm{Op: OpSetVar, Var: id} }
func GetVar(id int) Asm { return Asm{Op: OpGetVar, Var: id} }
func ClearVar(id int) Asm { return Asm{Op: OpClearVar, Var: id} }

func GetSymbol(name string) Asm { return Asm{Op: OpGetSymbol, Name: name} }
func SetSymbol(name string) Asm { return Asm{Op: OpSetSymbol, Name: name} }

func GetAttribute(name string) Asm { return Asm{Op: OpGetAttribute, Name: name} }
func Index(i uint64) Asm { return Asm{Op: OpIndex, Idx: i} }
func Pack(n int) Asm { return Asm{Op: OpPack, N: n} }
func Deref() Asm { return Asm{Op: OpDeref} }
func GetRef() Asm { return Asm{Op: OpGetRef} }
func SetRef() Asm { return Asm{Op: OpSetRef} }

func Add() Asm { return Asm{Op: OpAdd} }
func Subtract() Asm { return Asm{Op: OpSubtract} }
func Multiply() Asm { return Asm{Op: OpMultiply} }
func Divide() Asm { return Asm{Op: OpDivide} }
func Remainder() Asm { return Asm{Op: OpRemainder} }

func GT0() Asm { return Asm{Op: OpGT0} }
func Gt() Asm { return Asm{Op: OpGt} }

func And() Asm { return Asm{Op: OpAnd} }
func Or() Asm { return Asm{Op: OpOr} }
func Not() Asm { return Asm{Op: OpNot} }
func BooleanAnd() Asm { return Asm{Op: OpBooleanAnd} }
func BooleanOr() Asm { return Asm{Op: OpBooleanOr} }
func BooleanNot() Asm { return Asm{Op: OpBooleanNot} }
func BooleanXor() Asm { return Asm{Op: OpBooleanXor} }
func Boolify() Asm { return Asm{Op: OpBoolify} }

func SendMessage() Asm { return Asm{Op: OpSendMessage} }
func IntoReference() Asm { return Asm{Op: OpIntoReference} }

func NativeMethod(name string, argCount int) Asm {
	return Asm{Op: OpNativeMethod, Name: name, N: argCount}
}

// String renders a disassembly-style line, following the usual
// Opcode.String() convention of one line per instruction.
func (a Asm) String() string {
	switch a.Op {
	case OpLabel, OpPublicLabel, OpGetSymbol, OpSetSymbol, OpGetAttribute:
		return fmt.Sprintf("%s %q", a.Op, a.Name)
	case OpGoto, OpCondGoto, OpCall:
		return fmt.Sprintf("%s %s", a.Op, a.Loc)
	case OpPush:
		return fmt.Sprintf("%s %s", a.Op, a.Val)
	case OpSetVar, OpGetVar, OpClearVar:
		return fmt.Sprintf("%s %d", a.Op, a.Var)
	case OpIndex:
		return fmt.Sprintf("%s %d", a.Op, a.Idx)
	case OpPack:
		return fmt.Sprintf("%s %d", a.Op, a.N)
	case OpNativeMethod:
		return fmt.Sprintf("%s %q %d", a.Op, a.Name, a.N)
	default:
		return a.Op.String()
	}
}
