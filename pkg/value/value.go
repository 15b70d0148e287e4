// Package value defines Jodin's tagged runtime value union and the
// location addressing scheme used to reference code and data.
//
// Value is a closed sum type: exactly one of its accessor fields is
// meaningful at a time, selected by Tag. This mirrors a constant-pool
// encoding (github.com/kristofer/smog, pkg/bytecode,
// writeConstant/readConstant) which tags every serialized literal with
// a one-byte type before its payload; Value generalizes that pattern
// from six constant kinds to the twelve kinds the Jodin runtime needs,
// including composite and reference-carrying ones.
package value

import "fmt"

// Tag identifies which variant of Value is populated.
type Tag byte

const (
	TagEmpty Tag = iota
	TagByte
	TagInteger
	TagUInteger
	TagFloat
	TagStr
	TagArray
	TagDictionary
	TagReference
	TagBytecode
	TagFunction
	TagNative
)

func (t Tag) String() string {
	switch t {
	case TagEmpty:
		return "Empty"
	case TagByte:
		return "Byte"
	case TagInteger:
		return "Integer"
	case TagUInteger:
		return "UInteger"
	case TagFloat:
		return "Float"
	case TagStr:
		return "Str"
	case TagArray:
		return "Array"
	case TagDictionary:
		return "Dictionary"
	case TagReference:
		return "Reference"
	case TagBytecode:
		return "Bytecode"
	case TagFunction:
		return "Function"
	case TagNative:
		return "Native"
	default:
		return "Unknown"
	}
}

// Value is the tagged union of every value the VM can hold on its
// operand stack, in a variable slot, or in a Dictionary/Array.
//
// Invariants : tags are mutually exclusive; Str holds UTF-8
// text by convention, but NewStr does not check validity and stores any
// byte string it is given (gzip.compress output, for one); Array and Dictionary own
// their contents (never aliased across two Values without a copy).
type Value struct {
	Tag Tag

	byteV byte
	intV int64
	uintV uint64
	floatV float64
	strV string

	arrV []Value
	dictV map[string]Value

	locV AsmLocation // Reference, Function

	bytecodeV []byte // Bytecode (raw, itself decodable)
}

// Empty returns the unit value.
func Empty() Value { return Value{Tag: TagEmpty} }

// Native returns the sentinel value used to address the host/kernel
// message recipient.
func Native() Value { return Value{Tag: TagNative} }

func NewByte(b byte) Value { return Value{Tag: TagByte, byteV: b} }
func NewInteger(i int64) Value { return Value{Tag: TagInteger, intV: i} }
func NewUInteger(u uint64) Value { return Value{Tag: TagUInteger, uintV: u} }
func NewFloat(f float64) Value { return Value{Tag: TagFloat, floatV: f} }
func NewStr(s string) Value { return Value{Tag: TagStr, strV: s} }

// NewArray takes ownership of elems.
func NewArray(elems []Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Tag: TagArray, arrV: elems}
}

// NewDictionary takes ownership of entries.
func NewDictionary(entries map[string]Value) Value {
	if entries == nil {
		entries = map[string]Value{}
	}
	return Value{Tag: TagDictionary, dictV: entries}
}

func NewReference(loc AsmLocation) Value { return Value{Tag: TagReference, locV: loc} }
func NewFunction(loc AsmLocation) Value { return Value{Tag: TagFunction, locV: loc} }

// NewBytecode wraps a raw, independently decodable program fragment.
func NewBytecode(raw []byte) Value {
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return Value{Tag: TagBytecode, bytecodeV: cp}
}

func (v Value) Byte() byte { return v.byteV }
func (v Value) Integer() int64 { return v.intV }
func (v Value) UInteger() uint64 { return v.uintV }
func (v Value) Float() float64 { return v.floatV }
func (v Value) Str() string { return v.strV }
func (v Value) Array() []Value { return v.arrV }
func (v Value) Dictionary() map[string]Value { return v.dictV }
func (v Value) Location() AsmLocation { return v.locV }
func (v Value) BytecodeBytes() []byte { return v.bytecodeV }

// IsEmpty reports whether v is the unit value.
func (v Value) IsEmpty() bool { return v.Tag == TagEmpty }

// String renders a debug/print representation, used by the VM's stdio
// plugin's print/write native methods.
func (v Value) String() string {
	switch v.Tag {
	case TagEmpty:
		return ""
	case TagByte:
		return fmt.Sprintf("%d", v.byteV)
	case TagInteger:
		return fmt.Sprintf("%d", v.intV)
	case TagUInteger:
		return fmt.Sprintf("%d", v.uintV)
	case TagFloat:
		return fmt.Sprintf("%g", v.floatV)
	case TagStr:
		return v.strV
	case TagArray:
		out := "["
		for i, e := range v.arrV {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "]"
	case TagDictionary:
		out := "{"
		first := true
		for k, e := range v.dictV {
			if !first {
				out += ", "
			}
			first = false
			out += k + ": " + e.String()
		}
		return out + "}"
	case TagReference:
		return fmt.Sprintf("&%s", v.locV)
	case TagBytecode:
		return fmt.Sprintf("<bytecode %d bytes>", len(v.bytecodeV))
	case TagFunction:
		return fmt.Sprintf("<function %s>", v.locV)
	case TagNative:
		return "<native>"
	default:
		return "<invalid>"
	}
}

// Equal performs a structural equality check, recursing into Array
// elements and Dictionary entries.
func (v Value) Equal(o Value) bool {
	if v.Tag != o.Tag {
		return false
	}
	switch v.Tag {
	case TagEmpty, TagNative:
		return true
	case TagByte:
		return v.byteV == o.byteV
	case TagInteger:
		return v.intV == o.intV
	case TagUInteger:
		return v.uintV == o.uintV
	case TagFloat:
		return v.floatV == o.floatV
	case TagStr:
		return v.strV == o.strV
	case TagArray:
		if len(v.arrV) != len(o.arrV) {
			return false
		}
		for i := range v.arrV {
			if !v.arrV[i].Equal(o.arrV[i]) {
				return false
			}
		}
		return true
	case TagDictionary:
		if len(v.dictV) != len(o.dictV) {
			return false
		}
		for k, e := range v.dictV {
			oe, ok := o.dictV[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	case TagReference, TagFunction:
		return v.locV == o.locV
	case TagBytecode:
		return string(v.bytecodeV) == string(o.bytecodeV)
	default:
		return false
	}
}
