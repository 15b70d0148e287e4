package plugin_test

import (
	"testing"

	"github.com/jodin-lang/jodin/pkg/plugin"
	"github.com/jodin-lang/jodin/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdlibLabelsIncludeFFI(t *testing.T) {
	s := plugin.NewStdlib()
	labels := s.Labels()
	assert.Contains(t, labels, "ffi.checksum")
	assert.Contains(t, labels, "ffi.roundtrip_string")
	assert.Equal(t, len(labels), s.LabelsCount())
}

func TestFFIChecksumRoundTripsThroughByteStack(t *testing.T) {
	s := plugin.NewStdlib()
	arr := value.NewArray([]value.Value{
		value.NewInteger(10),
		value.NewInteger(20),
		value.NewUInteger(12),
	})
	out, err := s.CallLabel("ffi.checksum", []value.Value{arr}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, value.TagInteger, out.Tag)
	assert.Equal(t, int64(42), out.Integer())
}

func TestFFIChecksumRejectsNonNumericElements(t *testing.T) {
	s := plugin.NewStdlib()
	arr := value.NewArray([]value.Value{value.NewStr("not a number")})
	_, err := s.CallLabel("ffi.checksum", []value.Value{arr}, nil, nil)
	require.Error(t, err)
}

func TestFFIRoundtripStringThroughByteStack(t *testing.T) {
	s := plugin.NewStdlib()
	out, err := s.CallLabel("ffi.roundtrip_string", []value.Value{value.NewStr("hello, jodin")}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, value.TagStr, out.Tag)
	assert.Equal(t, "hello, jodin", out.Str())
}

func TestUnregisteredLabelErrors(t *testing.T) {
	s := plugin.NewStdlib()
	_, err := s.CallLabel("not.a.real.label", nil, nil, nil)
	require.Error(t, err)
}
