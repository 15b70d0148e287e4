package value

import (
	"errors"
	"fmt"
)

// LocationTag identifies which variant of AsmLocation is populated.
type LocationTag byte

const (
	LocByteIndex LocationTag = iota
	LocInstructionDiff
	LocLabel
)

// AsmLocation addresses either code or data: an absolute byte offset
// into encoded bytecode, an instruction-relative displacement, or a
// symbolic label resolved at normalization/link time.
//
// AsmLocation is comparable (no slice/map fields) so it can key maps
// and be compared with ==, which Value.Equal relies on for Reference
// and Function values.
type AsmLocation struct {
	tag LocationTag
	index uint64 // ByteIndex
	diff int64 // InstructionDiff
	label string // Label
}

func ByteIndex(i uint64) AsmLocation { return AsmLocation{tag: LocByteIndex, index: i} }
func InstructionDiff(d int64) AsmLocation { return AsmLocation{tag: LocInstructionDiff, diff: d} }
func Label(s string) AsmLocation { return AsmLocation{tag: LocLabel, label: s} }

func (l AsmLocation) Tag() LocationTag { return l.tag }
func (l AsmLocation) Index() uint64 { return l.index }
func (l AsmLocation) Diff() int64 { return l.diff }
func (l AsmLocation) LabelName() string { return l.label }

func (l AsmLocation) String() string {
	switch l.tag {
	case LocByteIndex:
		return fmt.Sprintf("@%d", l.index)
	case LocInstructionDiff:
		return fmt.Sprintf("%+d", l.diff)
	case LocLabel:
		return l.label
	default:
		return "<invalid-location>"
	}
}

// ErrInvalidLocationFromValue is returned by LocationFromValue when v
// cannot be interpreted as an AsmLocation.
type ErrInvalidLocationFromValue struct {
	Value Value
}

func (e *ErrInvalidLocationFromValue) Error() string {
	return fmt.Sprintf("InvalidLocationFromValue: %s is not a valid location (want UInteger, Integer, or Str)", e.Value.Tag)
}

var errInvalidLocationSentinel = errors.New("InvalidLocationFromValue")

// Unwrap lets callers match with errors.Is(err, value.ErrInvalidLocation).
func (e *ErrInvalidLocationFromValue) Unwrap() error { return errInvalidLocationSentinel }

// ErrInvalidLocation is the sentinel matched by errors.Is for any
// ErrInvalidLocationFromValue instance, regardless of the offending Value.
var ErrInvalidLocation = errInvalidLocationSentinel

// LocationFromValue converts a Value into an AsmLocation per the
// conversion rule: UInteger becomes ByteIndex, Integer becomes
// InstructionDiff, Str becomes Label; anything else is rejected.
func LocationFromValue(v Value) (AsmLocation, error) {
	switch v.Tag {
	case TagUInteger:
		return ByteIndex(v.UInteger()), nil
	case TagInteger:
		return InstructionDiff(v.Integer()), nil
	case TagStr:
		return Label(v.Str()), nil
	default:
		return AsmLocation{}, &ErrInvalidLocationFromValue{Value: v}
	}
}
