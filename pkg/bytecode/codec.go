// Package bytecode implements the deterministic binary encoding of a
// normalized asm.Assembly and the 8-byte version magic that guards it.
//
// The layout is a direct generalization of an existing bytecode format
// (github.com/kristofer/smog, pkg/bytecode/format.go): a fixed header
// followed by a length-prefixed, type-tag-then-payload encoding of
// each value, except the header carries a computed version magic
// instead of a fixed four-byte signature, and the single flat opcode
// set is replaced by asm.Asm's wider instruction shape.
package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/jodin-lang/jodin/pkg/asm"
	"github.com/jodin-lang/jodin/pkg/value"
)

// ErrInvalidMagic is returned by Decode when the header's magic number
// does not match the current format version.
var ErrInvalidMagic = fmt.Errorf("InvalidMagic")

// DecodeFailure wraps any error encountered while reading a malformed
// or truncated encoded stream.
type DecodeFailure struct {
	Err error
}

func (e *DecodeFailure) Error() string { return fmt.Sprintf("DecodeFailure: %v", e.Err) }
func (e *DecodeFailure) Unwrap() error { return e.Err }

func fail(err error) error {
	if err == nil {
		return nil
	}
	return &DecodeFailure{Err: err}
}

// Encode writes the 8-byte magic header followed by the serialized
// Assembly to w.
func Encode(a asm.Assembly, w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, MagicNumber()); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(a))); err != nil {
		return fmt.Errorf("write instruction count: %w", err)
	}
	for _, instr := range a {
		if err := writeAsm(w, instr); err != nil {
			return fmt.Errorf("write instruction: %w", err)
		}
	}
	return nil
}

// EncodeBytes is a convenience wrapper returning the encoded bytes
// directly, used when embedding a Value::Bytecode fragment.
func EncodeBytes(a asm.Assembly) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(a, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads and validates the magic header, then decodes the
// Assembly that follows. Invalid magic refuses to load.
func Decode(r io.Reader) (asm.Assembly, error) {
	var magic uint64
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fail(err)
	}
	if !VerifyMagicNumber(magic) {
		return nil, ErrInvalidMagic
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fail(err)
	}
	out := make(asm.Assembly, 0, count)
	for i := uint32(0); i < count; i++ {
		instr, err := readAsm(r)
		if err != nil {
			return nil, fail(err)
		}
		out = append(out, instr)
	}
	return out, nil
}

// DecodeBytes is the inverse of EncodeBytes.
func DecodeBytes(data []byte) (asm.Assembly, error) {
	return Decode(bytes.NewReader(data))
}

func writeAsm(w io.Writer, a asm.Asm) error {
	if err := binary.Write(w, binary.LittleEndian, byte(a.Op)); err != nil {
		return err
	}
	switch a.Op {
	case asm.OpLabel, asm.OpPublicLabel, asm.OpGetSymbol, asm.OpSetSymbol, asm.OpGetAttribute:
		return writeString(w, a.Name)
	case asm.OpGoto, asm.OpCondGoto, asm.OpCall:
		return writeLocation(w, a.Loc)
	case asm.OpPush:
		return writeValue(w, a.Val)
	case asm.OpSetVar, asm.OpGetVar, asm.OpClearVar:
		return binary.Write(w, binary.LittleEndian, int32(a.Var))
	case asm.OpIndex:
		return binary.Write(w, binary.LittleEndian, a.Idx)
	case asm.OpPack:
		return binary.Write(w, binary.LittleEndian, int32(a.N))
	case asm.OpNativeMethod:
		if err := writeString(w, a.Name); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, int32(a.N))
	default:
		return nil
	}
}

func readAsm(r io.Reader) (asm.Asm, error) {
	var opByte byte
	if err := binary.Read(r, binary.LittleEndian, &opByte); err != nil {
		return asm.Asm{}, err
	}
	op := asm.Op(opByte)
	switch op {
	case asm.OpLabel, asm.OpPublicLabel, asm.OpGetSymbol, asm.OpSetSymbol, asm.OpGetAttribute:
		name, err := readString(r)
		if err != nil {
			return asm.Asm{}, err
		}
		return asm.Asm{Op: op, Name: name}, nil
	case asm.OpGoto, asm.OpCondGoto, asm.OpCall:
		loc, err := readLocation(r)
		if err != nil {
			return asm.Asm{}, err
		}
		return asm.Asm{Op: op, Loc: loc}, nil
	case asm.OpPush:
		v, err := readValue(r)
		if err != nil {
			return asm.Asm{}, err
		}
		return asm.Asm{Op: op, Val: v}, nil
	case asm.OpSetVar, asm.OpGetVar, asm.OpClearVar:
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return asm.Asm{}, err
		}
		return asm.Asm{Op: op, Var: int(n)}, nil
	case asm.OpIndex:
		var idx uint64
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return asm.Asm{}, err
		}
		return asm.Asm{Op: op, Idx: idx}, nil
	case asm.OpPack:
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return asm.Asm{}, err
		}
		return asm.Asm{Op: op, N: int(n)}, nil
	case asm.OpNativeMethod:
		name, err := readString(r)
		if err != nil {
			return asm.Asm{}, err
		}
		var n int32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return asm.Asm{}, err
		}
		return asm.Asm{Op: op, Name: name, N: int(n)}, nil
	default:
		return asm.Asm{Op: op}, nil
	}
}

const (
	locByteIndex byte = 0x01
	locInstructionDiff byte = 0x02
	locLabel byte = 0x03
)

func writeLocation(w io.Writer, loc value.AsmLocation) error {
	switch loc.Tag() {
	case value.LocByteIndex:
		if err := binary.Write(w, binary.LittleEndian, locByteIndex); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, loc.Index())
	case value.LocInstructionDiff:
		if err := binary.Write(w, binary.LittleEndian, locInstructionDiff); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, loc.Diff())
	case value.LocLabel:
		if err := binary.Write(w, binary.LittleEndian, locLabel); err != nil {
			return err
		}
		return writeString(w, loc.LabelName())
	default:
		return fmt.Errorf("unknown location tag %v", loc.Tag())
	}
}

func readLocation(r io.Reader) (value.AsmLocation, error) {
	var tag byte
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return value.AsmLocation{}, err
	}
	switch tag {
	case locByteIndex:
		var idx uint64
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return value.AsmLocation{}, err
		}
		return value.ByteIndex(idx), nil
	case locInstructionDiff:
		var d int64
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return value.AsmLocation{}, err
		}
		return value.InstructionDiff(d), nil
	case locLabel:
		name, err := readString(r)
		if err != nil {
			return value.AsmLocation{}, err
		}
		return value.Label(name), nil
	default:
		return value.AsmLocation{}, fmt.Errorf("unknown location tag byte 0x%02x", tag)
	}
}

func writeValue(w io.Writer, v value.Value) error {
	if err := binary.Write(w, binary.LittleEndian, byte(v.Tag)); err != nil {
		return err
	}
	switch v.Tag {
	case value.TagEmpty, value.TagNative:
		return nil
	case value.TagByte:
		return binary.Write(w, binary.LittleEndian, v.Byte())
	case value.TagInteger:
		return binary.Write(w, binary.LittleEndian, v.Integer())
	case value.TagUInteger:
		return binary.Write(w, binary.LittleEndian, v.UInteger())
	case value.TagFloat:
		return binary.Write(w, binary.LittleEndian, math.Float64bits(v.Float()))
	case value.TagStr:
		return writeString(w, v.Str())
	case value.TagArray:
		elems := v.Array()
		if err := binary.Write(w, binary.LittleEndian, uint32(len(elems))); err != nil {
			return err
		}
		for _, e := range elems {
			if err := writeValue(w, e); err != nil {
				return err
			}
		}
		return nil
	case value.TagDictionary:
		entries := v.Dictionary()
		if err := binary.Write(w, binary.LittleEndian, uint32(len(entries))); err != nil {
			return err
		}
		for k, e := range entries {
			if err := writeString(w, k); err != nil {
				return err
			}
			if err := writeValue(w, e); err != nil {
				return err
			}
		}
		return nil
	case value.TagReference, value.TagFunction:
		return writeLocation(w, v.Location())
	case value.TagBytecode:
		raw := v.BytecodeBytes()
		if err := binary.Write(w, binary.LittleEndian, uint32(len(raw))); err != nil {
			return err
		}
		_, err := w.Write(raw)
		return err
	default:
		return fmt.Errorf("unknown value tag %v", v.Tag)
	}
}

func readValue(r io.Reader) (value.Value, error) {
	var tag byte
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return value.Value{}, err
	}
	switch value.Tag(tag) {
	case value.TagEmpty:
		return value.Empty(), nil
	case value.TagNative:
		return value.Native(), nil
	case value.TagByte:
		var b byte
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return value.Value{}, err
		}
		return value.NewByte(b), nil
	case value.TagInteger:
		var i int64
		if err := binary.Read(r, binary.LittleEndian, &i); err != nil {
			return value.Value{}, err
		}
		return value.NewInteger(i), nil
	case value.TagUInteger:
		var u uint64
		if err := binary.Read(r, binary.LittleEndian, &u); err != nil {
			return value.Value{}, err
		}
		return value.NewUInteger(u), nil
	case value.TagFloat:
		var bits uint64
		if err := binary.Read(r, binary.LittleEndian, &bits); err != nil {
			return value.Value{}, err
		}
		return value.NewFloat(math.Float64frombits(bits)), nil
	case value.TagStr:
		s, err := readString(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewStr(s), nil
	case value.TagArray:
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return value.Value{}, err
		}
		elems := make([]value.Value, count)
		for i := range elems {
			e, err := readValue(r)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = e
		}
		return value.NewArray(elems), nil
	case value.TagDictionary:
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return value.Value{}, err
		}
		entries := make(map[string]value.Value, count)
		for i := uint32(0); i < count; i++ {
			k, err := readString(r)
			if err != nil {
				return value.Value{}, err
			}
			e, err := readValue(r)
			if err != nil {
				return value.Value{}, err
			}
			entries[k] = e
		}
		return value.NewDictionary(entries), nil
	case value.TagReference:
		loc, err := readLocation(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewReference(loc), nil
	case value.TagFunction:
		loc, err := readLocation(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewFunction(loc), nil
	case value.TagBytecode:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return value.Value{}, err
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(r, raw); err != nil {
			return value.Value{}, err
		}
		return value.NewBytecode(raw), nil
	default:
		return value.Value{}, fmt.Errorf("unknown value tag byte 0x%02x", tag)
	}
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
