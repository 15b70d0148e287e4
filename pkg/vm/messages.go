package vm

import (
	"github.com/jodin-lang/jodin/pkg/value"
)

// ErrMissingSymbol is the HostError-visible form of a MissingSymbol
// fault, raised when sendBuiltin finds no handler for a (tag, name)
// pair and no fault handler is registered to recover it.
type ErrMissingSymbol struct{ Name string }

func (e *ErrMissingSymbol) Error() string { return "MissingSymbol(" + e.Name + ")" }

// builtinHandler implements one entry of a per-tag message table: a
// static map of value-tag -> name -> handler function pointer. It
// receives the receiver and the already-unpacked args.
type builtinHandler func(receiver value.Value, args []value.Value) (value.Value, error)

// builtinTables is the static value-tag -> name -> handler map backing
// SendMessage's fallback dispatch once a Dictionary's @receive/get
// special cases and the Native plugin path have been ruled out.
var builtinTables = map[value.Tag]map[string]builtinHandler{
	value.TagArray: {
		"length": func(recv value.Value, _ []value.Value) (value.Value, error) {
			return value.NewUInteger(uint64(len(recv.Array()))), nil
		},
		"get": func(recv value.Value, args []value.Value) (value.Value, error) {
			idx, err := indexArg(args)
			if err != nil {
				return value.Value{}, err
			}
			elems := recv.Array()
			if idx >= uint64(len(elems)) {
				return value.Value{}, &ErrMissingSymbol{Name: "get"}
			}
			return elems[idx], nil
		},
	},
	value.TagStr: {
		"length": func(recv value.Value, _ []value.Value) (value.Value, error) {
			return value.NewUInteger(uint64(len(recv.Str()))), nil
		},
		"get": func(recv value.Value, args []value.Value) (value.Value, error) {
			idx, err := indexArg(args)
			if err != nil {
				return value.Value{}, err
			}
			s := recv.Str()
			if idx >= uint64(len(s)) {
				return value.Value{}, &ErrMissingSymbol{Name: "get"}
			}
			return value.NewByte(s[idx]), nil
		},
	},
	value.TagDictionary: {
		"length": func(recv value.Value, _ []value.Value) (value.Value, error) {
			return value.NewUInteger(uint64(len(recv.Dictionary()))), nil
		},
	},
}

func indexArg(args []value.Value) (uint64, error) {
	if len(args) == 0 {
		return 0, &ErrMissingSymbol{Name: "get"}
	}
	switch args[0].Tag {
	case value.TagUInteger:
		return args[0].UInteger(), nil
	case value.TagInteger:
		return uint64(args[0].Integer()), nil
	default:
		return 0, &ErrMissingSymbol{Name: "get"}
	}
}

// sendBuiltin looks up and invokes the built-in handler for receiver's
// tag and name, returning *ErrMissingSymbol if none is registered.
func sendBuiltin(receiver value.Value, name string, args []value.Value) (value.Value, error) {
	table, ok := builtinTables[receiver.Tag]
	if !ok {
		return value.Value{}, &ErrMissingSymbol{Name: name}
	}
	h, ok := table[name]
	if !ok {
		return value.Value{}, &ErrMissingSymbol{Name: name}
	}
	return h(receiver, args)
}
