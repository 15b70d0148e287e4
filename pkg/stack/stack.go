// Package stack implements Jodin's byte-level operand stack: the
// narrow byte vector with typed push/pop used by the native FFI path,
// distinct from the VM's higher-level Value stack.
//
// The push/pop-of-fixed-width-bytes shape is grounded on
// KTStephano-GVM's vm/vm.go (pushStack/popStack/pushStackByte,
// uint32ToBytes/uint32FromBytes), since a Value stack holding
// interface{} directly has no byte-level analogue of its own; this
// component borrows its primitive encoding scheme from GVM instead.
package stack

import (
	"fmt"
	"math"
)

// Stack is a growable byte buffer with typed push/pop helpers. The
// zero value is an empty, usable stack.
type Stack struct {
	buf []byte
}

// New returns an empty Stack.
func New() *Stack { return &Stack{} }

func (s *Stack) Len() int { return len(s.buf) }
func (s *Stack) IsEmpty() bool { return len(s.buf) == 0 }

// ErrUnderflow is returned by any pop that needs more bytes than the
// stack currently holds.
var ErrUnderflow = fmt.Errorf("StackUnderflow")

// pushBytes appends raw bytes, most-significant byte pushed first so
// that reading back the top N bytes in reverse reconstructs the
// little-endian encoding: bytes are written in reverse order so the
// first byte appears last in memory.
func (s *Stack) pushBytes(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		s.buf = append(s.buf, b[i])
	}
}

// popBytes pops n bytes and returns them in original (forward) order,
// the symmetric reverse of pushBytes.
func (s *Stack) popBytes(n int) ([]byte, error) {
	if len(s.buf) < n {
		return nil, ErrUnderflow
	}
	raw := make([]byte, n)
	top := s.buf[len(s.buf)-n:]
	for i := 0; i < n; i++ {
		raw[i] = top[n-1-i]
	}
	s.buf = s.buf[:len(s.buf)-n]
	return raw, nil
}

func (s *Stack) PushByte(v byte) { s.buf = append(s.buf, v) }

func (s *Stack) PopByte() (byte, error) {
	if len(s.buf) < 1 {
		return 0, ErrUnderflow
	}
	v := s.buf[len(s.buf)-1]
	s.buf = s.buf[:len(s.buf)-1]
	return v, nil
}

func (s *Stack) PushUint32(v uint32) {
	s.pushBytes([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func (s *Stack) PopUint32() (uint32, error) {
	b, err := s.popBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func (s *Stack) PushInt32(v int32) { s.PushUint32(uint32(v)) }

func (s *Stack) PopInt32() (int32, error) {
	v, err := s.PopUint32()
	return int32(v), err
}

func (s *Stack) PushUint64(v uint64) {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	s.pushBytes(b)
}

func (s *Stack) PopUint64() (uint64, error) {
	b, err := s.popBytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v, nil
}

func (s *Stack) PushInt64(v int64) { s.PushUint64(uint64(v)) }

func (s *Stack) PopInt64() (int64, error) {
	v, err := s.PopUint64()
	return int64(v), err
}

func (s *Stack) PushFloat64(v float64) { s.PushUint64(math.Float64bits(v)) }

func (s *Stack) PopFloat64() (float64, error) {
	v, err := s.PopUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// PushCString pushes a NUL-terminated byte sequence: the C-string
// encoding used by the native FFI path. The NUL goes down first and the
// bytes follow in reverse, so the first byte of str ends up on top.
func (s *Stack) PushCString(str string) {
	s.buf = append(s.buf, 0)
	for i := len(str) - 1; i >= 0; i-- {
		s.buf = append(s.buf, str[i])
	}
}

// PopCString consumes bytes until (and including) a NUL terminator and
// returns the string in reading order.
func (s *Stack) PopCString() (string, error) {
	nul := -1
	for i := len(s.buf) - 1; i >= 0; i-- {
		if s.buf[i] == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return "", ErrUnderflow
	}
	raw := s.buf[nul+1:]
	out := make([]byte, len(raw))
	for i := range raw {
		out[i] = raw[len(raw)-1-i]
	}
	s.buf = s.buf[:nul]
	return string(out), nil
}

// PushBytes pushes a length-prefixed byte array: elements first, then
// its length. An array of T pushes its elements then its length; the
// matching pop reads the length, then the elements.
func (s *Stack) PushBytes(elems []byte) {
	s.buf = append(s.buf, elems...)
	s.PushUint32(uint32(len(elems)))
}

func (s *Stack) PopBytes() ([]byte, error) {
	n, err := s.PopUint32()
	if err != nil {
		return nil, err
	}
	if len(s.buf) < int(n) {
		return nil, ErrUnderflow
	}
	raw := make([]byte, n)
	copy(raw, s.buf[len(s.buf)-int(n):])
	s.buf = s.buf[:len(s.buf)-int(n)]
	return raw, nil
}
