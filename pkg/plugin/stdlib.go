package plugin

import (
	"bytes"
	"compress/gzip"
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/jodin-lang/jodin/pkg/stack"
	"github.com/jodin-lang/jodin/pkg/value"
)

// Stdlib is the built-in plugin registered by every VM at construction
// time — here a plugin baked into the process rather than dynamically
// loaded. Its handlers are adapted from a set of VM-builtin primitive
// cases (github.com/kristofer/smog, pkg/vm, the
// http/crypto/gzip/json/regex/file/random/date-time dispatch that used
// to live hard-wired in VM.send) into ordinary NativeMethod handlers
// behind this package's PluginManager/Plugin boundary.
//
// The ffi.* labels marshal their Value arguments through pkg/stack's
// byte-level operand stack instead of passing Values directly — the
// wire format a native method backed by an actual foreign library
// would need, since such a callee can't see Jodin's tagged Value
// union.
type Stdlib struct{}

// NewStdlib returns the built-in stdlib plugin.
func NewStdlib() *Stdlib { return &Stdlib{} }

var stdlibLabels = []string{
	"crypto.md5", "crypto.sha256", "crypto.sha512",
	"base64.encode", "base64.decode",
	"gzip.compress", "gzip.decompress",
	"json.encode", "json.decode",
	"regex.match",
	"file.read", "file.write",
	"time.now",
	"ffi.checksum", "ffi.roundtrip_string",
}

func (s *Stdlib) Labels() []string { return stdlibLabels }
func (s *Stdlib) LabelsCount() int { return len(stdlibLabels) }

func (s *Stdlib) CallLabel(name string, args []value.Value, stk Stack, handle VMHandle) (value.Value, error) {
	switch name {
	case "crypto.md5":
		return hashArg(args, func(b []byte) []byte { sum := md5.Sum(b); return sum[:] })
	case "crypto.sha256":
		return hashArg(args, func(b []byte) []byte { sum := sha256.Sum256(b); return sum[:] })
	case "crypto.sha512":
		return hashArg(args, func(b []byte) []byte { sum := sha512.Sum512(b); return sum[:] })
	case "base64.encode":
		str, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewStr(base64.StdEncoding.EncodeToString([]byte(str))), nil
	case "base64.decode":
		str, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		raw, err := base64.StdEncoding.DecodeString(str)
		if err != nil {
			return value.Value{}, fmt.Errorf("base64.decode: %w", err)
		}
		return value.NewStr(string(raw)), nil
	case "gzip.compress":
		str, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write([]byte(str)); err != nil {
			return value.Value{}, err
		}
		if err := w.Close(); err != nil {
			return value.Value{}, err
		}
		return value.NewStr(buf.String()), nil
	case "gzip.decompress":
		str, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		r, err := gzip.NewReader(bytes.NewReader([]byte(str)))
		if err != nil {
			return value.Value{}, fmt.Errorf("gzip.decompress: %w", err)
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewStr(string(out)), nil
	case "json.encode":
		if len(args) != 1 {
			return value.Value{}, fmt.Errorf("json.encode: expected 1 argument")
		}
		raw, err := json.Marshal(toInterface(args[0]))
		if err != nil {
			return value.Value{}, err
		}
		return value.NewStr(string(raw)), nil
	case "json.decode":
		str, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		var decoded interface{}
		if err := json.Unmarshal([]byte(str), &decoded); err != nil {
			return value.Value{}, fmt.Errorf("json.decode: %w", err)
		}
		return fromInterface(decoded), nil
	case "regex.match":
		pattern, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		input, err := strArg(args, 1)
		if err != nil {
			return value.Value{}, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return value.Value{}, fmt.Errorf("regex.match: %w", err)
		}
		if re.MatchString(input) {
			return value.NewUInteger(1), nil
		}
		return value.NewUInteger(0), nil
	case "file.read":
		path, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return value.Value{}, fmt.Errorf("FunctionError: %w", err)
		}
		return value.NewStr(string(raw)), nil
	case "file.write":
		path, err := strArg(args, 0)
		if err != nil {
			return value.Value{}, err
		}
		content, err := strArg(args, 1)
		if err != nil {
			return value.Value{}, err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return value.Value{}, fmt.Errorf("FunctionError: %w", err)
		}
		return value.Empty(), nil
	case "time.now":
		return value.NewUInteger(uint64(time.Now().Unix())), nil
	case "ffi.checksum":
		return ffiChecksum(args)
	case "ffi.roundtrip_string":
		return ffiRoundtripString(args)
	default:
		return value.Value{}, &ErrLabelNotRegistered{Name: name}
	}
}

func hashArg(args []value.Value, sum func([]byte) []byte) (value.Value, error) {
	str, err := strArg(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewStr(fmt.Sprintf("%x", sum([]byte(str)))), nil
}

func strArg(args []value.Value, i int) (string, error) {
	if i >= len(args) || args[i].Tag != value.TagStr {
		return "", fmt.Errorf("expected Str argument at position %d", i)
	}
	return args[i].Str(), nil
}

// ffiChecksum marshals an Array of Integer elements onto a byte-level
// stack.Stack in wire format (one PushInt64 per element, the shape a
// real cross-language native method would hand a foreign callee) and
// pops them back off to fold a checksum, proving the encode/decode
// pair round-trips rather than just compiling.
func ffiChecksum(args []value.Value) (value.Value, error) {
	if len(args) != 1 || args[0].Tag != value.TagArray {
		return value.Value{}, fmt.Errorf("ffi.checksum: expected 1 Array argument")
	}
	elems := args[0].Array()
	wire := stack.New()
	for _, e := range elems {
		if e.Tag != value.TagInteger && e.Tag != value.TagUInteger {
			return value.Value{}, fmt.Errorf("ffi.checksum: array elements must be Integer or UInteger")
		}
		var n int64
		if e.Tag == value.TagInteger {
			n = e.Integer()
		} else {
			n = int64(e.UInteger())
		}
		wire.PushInt64(n)
	}
	var total int64
	for i := 0; i < len(elems); i++ {
		n, err := wire.PopInt64()
		if err != nil {
			return value.Value{}, fmt.Errorf("ffi.checksum: %w", err)
		}
		total += n
	}
	if !wire.IsEmpty() {
		return value.Value{}, fmt.Errorf("ffi.checksum: wire stack not drained")
	}
	return value.NewInteger(total), nil
}

// ffiRoundtripString marshals a Str argument through the byte-level
// stack's NUL-terminated C-string wire format and pops it straight
// back — the handshake a native method backed by an actual C library
// would use to pass a string across the FFI boundary.
func ffiRoundtripString(args []value.Value) (value.Value, error) {
	str, err := strArg(args, 0)
	if err != nil {
		return value.Value{}, err
	}
	wire := stack.New()
	wire.PushCString(str)
	out, err := wire.PopCString()
	if err != nil {
		return value.Value{}, fmt.Errorf("ffi.roundtrip_string: %w", err)
	}
	return value.NewStr(out), nil
}

// toInterface converts a Value into plain Go data for json.Marshal.
func toInterface(v value.Value) interface{} {
	switch v.Tag {
	case value.TagEmpty, value.TagNative:
		return nil
	case value.TagByte:
		return v.Byte()
	case value.TagInteger:
		return v.Integer()
	case value.TagUInteger:
		return v.UInteger()
	case value.TagFloat:
		return v.Float()
	case value.TagStr:
		return v.Str()
	case value.TagArray:
		elems := v.Array()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = toInterface(e)
		}
		return out
	case value.TagDictionary:
		out := map[string]interface{}{}
		for k, e := range v.Dictionary() {
			out[k] = toInterface(e)
		}
		return out
	default:
		return v.String()
	}
}

// fromInterface converts decoded JSON data back into a Value.
func fromInterface(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Empty()
	case bool:
		if t {
			return value.NewUInteger(1)
		}
		return value.NewUInteger(0)
	case float64:
		return value.NewFloat(t)
	case string:
		return value.NewStr(t)
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = fromInterface(e)
		}
		return value.NewArray(out)
	case map[string]interface{}:
		out := make(map[string]value.Value, len(t))
		for k, e := range t {
			out[k] = fromInterface(e)
		}
		return value.NewDictionary(out)
	default:
		return value.Empty()
	}
}
