package stack_test

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/stack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopUint32RoundTrip(t *testing.T) {
	s := stack.New()
	s.PushUint32(0xDEADBEEF)
	v, err := s.PopUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)
	assert.True(t, s.IsEmpty())
}

func TestPushPopInt64AndFloat64(t *testing.T) {
	s := stack.New()
	s.PushInt64(-12345)
	s.PushFloat64(3.25)

	f, err := s.PopFloat64()
	require.NoError(t, err)
	assert.Equal(t, 3.25, f)

	i, err := s.PopInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), i)
}

func TestPushPopCString(t *testing.T) {
	s := stack.New()
	s.PushCString("hello")
	got, err := s.PopCString()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestPushPopByteArray(t *testing.T) {
	s := stack.New()
	s.PushBytes([]byte{1, 2, 3, 4, 5})
	got, err := s.PopBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, got)
}

func TestPopUnderflow(t *testing.T) {
	s := stack.New()
	_, err := s.PopUint32()
	require.ErrorIs(t, err, stack.ErrUnderflow)

	_, err = s.PopCString()
	require.ErrorIs(t, err, stack.ErrUnderflow)
}

func TestMixedPushPopOrderLIFO(t *testing.T) {
	s := stack.New()
	s.PushByte(0x7)
	s.PushUint32(42)
	s.PushCString("tail")

	str, err := s.PopCString()
	require.NoError(t, err)
	assert.Equal(t, "tail", str)

	n, err := s.PopUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), n)

	b, err := s.PopByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7), b)
	assert.True(t, s.IsEmpty())
}
