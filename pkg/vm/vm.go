package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/jodin-lang/jodin/pkg/alu"
	"github.com/jodin-lang/jodin/pkg/asm"
	"github.com/jodin-lang/jodin/pkg/bytecode"
	"github.com/jodin-lang/jodin/pkg/memory"
	"github.com/jodin-lang/jodin/pkg/plugin"
	"github.com/jodin-lang/jodin/pkg/value"
)

// errHalted is the sentinel propagated by a Halt instruction through
// every nested runUntil/invoke frame up to the outermost Run/Enclosed
// call, which converts it into a clean stop.
var errHalted = fmt.Errorf("Halt")

// callFrame records what a Call/invoke needs to resume its caller: the
// PC to resume at and the caller's own value stack, taken out of
// VMMemory for the duration of the callee. The memory chain-stack depth
// is implicit here, since PushScope/PopScope are paired 1:1 with every
// frame push/pop.
type callFrame struct {
	returnPC int
	savedStack []value.Value
}

// VM is the fetch-decode-execute dispatch loop over a normalized
// Assembly: program counter, call-frame stack, VMMemory,
// PluginManager, and fault jump table.
//
// Grounded on a VM.Run main-loop structure
// (github.com/kristofer/smog, pkg/vm, pushFrame/popFrame and
// executeMethod/executeBlock), generalized from a class-instance
// *Instance/*Block method dispatch to Call/Return over
// asm.AsmLocation targets, and from a hard-wired class/instance
// object model to SendMessage(Dictionary/@receive/Native) dynamic
// dispatch.
type VM struct {
	program asm.Assembly
	labels map[string]int

	mem *memory.VMMemory
	plugins *plugin.Manager

	frames []callFrame
	pc int

	symbols map[string]value.Value
	kernelMode bool

	faultTable FaultJumpTable
	inFault bool

	running bool // true while Run/Enclosed is driving the loop; blocks Load

	debugger *Debugger // optional single-step debugger, nil unless EnableDebugger was called

	stdout io.Writer
	stderr io.Writer
	stdin io.Reader
}

// New returns a VM with an empty program, the global scope, and the
// built-in stdlib/stdio plugins registered.
func New() *VM {
	vm := &VM{
		labels: map[string]int{},
		mem: memory.New(),
		plugins: plugin.NewManager(),
		symbols: map[string]value.Value{},
		faultTable: FaultJumpTable{},
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin: os.Stdin,
	}
	_, _ = vm.plugins.RegisterBuiltin("stdlib", plugin.NewStdlib())
	_, _ = vm.plugins.RegisterBuiltin("stdio", newStdioPlugin(vm))
	return vm
}

// SetStdout, SetStderr, SetStdin rebind the VM's stdio sinks.
// Passing nil discards that stream (stdout/stderr) or yields EOF
// immediately (stdin).
func (vm *VM) SetStdout(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	vm.stdout = w
}

func (vm *VM) SetStderr(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	vm.stderr = w
}

func (vm *VM) SetStdin(r io.Reader) {
	if r == nil {
		r = io.MultiReader()
	}
	vm.stdin = r
}

// Plugins exposes the PluginManager so a host can load additional
// dynamic libraries before running the program.
func (vm *VM) Plugins() *plugin.Manager { return vm.plugins }

// EnableKernelMode grants the program SetSymbol privilege.
// Hosts call this only for trusted boot code; ordinary loaded programs
// run without it.
func (vm *VM) EnableKernelMode() { vm.kernelMode = true }

// SetFaultHandler installs handler (a Value::Function or
// Value::Native) for kind in the fault jump table.
func (vm *VM) SetFaultHandler(kind FaultKind, handler value.Value) {
	vm.faultTable[kind] = handler
}

// Load appends a to the program and re-resolves labels. It
// is forbidden while Run/Enclosed is driving the dispatch loop.
func (vm *VM) Load(a asm.Assembly) error {
	if vm.running {
		return ErrLoadWhileRunning
	}
	base := len(vm.program)
	vm.program = append(vm.program, a...)
	for i, instr := range a {
		if instr.Op == asm.OpLabel || instr.Op == asm.OpPublicLabel {
			vm.labels[instr.Name] = base + i
		}
	}
	return nil
}

// LoadBytecode decodes raw (magic-prefixed wire format) and
// loads the resulting Assembly.
func (vm *VM) LoadBytecode(raw []byte) error {
	a, err := bytecode.DecodeBytes(raw)
	if err != nil {
		return err
	}
	return vm.Load(a)
}

func (vm *VM) resolveLocation(loc value.AsmLocation, pc int) (int, error) {
	switch loc.Tag() {
	case value.LocLabel:
		idx, ok := vm.labels[loc.LabelName()]
		if !ok {
			return 0, &ErrLabelUndefined{Name: loc.LabelName()}
		}
		return idx, nil
	case value.LocInstructionDiff:
		return pc + int(loc.Diff()), nil
	case value.LocByteIndex:
		// The VM dispatches over a decoded, instruction-indexed
		// Assembly rather than a raw byte stream, so a ByteIndex
		// location is interpreted directly as an instruction index
		// (the on-disk encoding is the only place a raw byte offset is
		// pinned down).
		return int(loc.Index()), nil
	default:
		return 0, fmt.Errorf("unknown location tag %v", loc.Tag())
	}
}

func (vm *VM) hostError(err error) *HostError {
	tag := ""
	if name, ok := vm.enclosingLabelAt(vm.pc); ok {
		tag = name
	}
	return &HostError{Err: err, PC: vm.pc, EnclosingTag: tag, CallChain: vm.callChain()}
}

// enclosingLabelAt walks backward from pc to the nearest Label/
// PublicLabel, for the one-line diagnostic HostError carries.
func (vm *VM) enclosingLabelAt(pc int) (string, bool) {
	for i := pc; i >= 0 && i < len(vm.program); i-- {
		if vm.program[i].Op == asm.OpLabel || vm.program[i].Op == asm.OpPublicLabel {
			return vm.program[i].Name, true
		}
	}
	return "", false
}

// callChain reports the enclosing label of every still-open call
// frame at the moment of a HostError, innermost first (the faulting
// instruction's own label, then each caller's).
func (vm *VM) callChain() []string {
	chain := make([]string, 0, len(vm.frames)+1)
	if name, ok := vm.enclosingLabelAt(vm.pc); ok {
		chain = append(chain, name)
	}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		if name, ok := vm.enclosingLabelAt(vm.frames[i].returnPC); ok {
			chain = append(chain, name)
		}
	}
	return chain
}

// Run drives the dispatch loop from startLabel until Halt or a Return
// to an empty call stack, and interprets the final value-stack top as
// the exit code.
func (vm *VM) Run(startLabel string) (uint64, error) {
	pc, ok := vm.labels[startLabel]
	if !ok {
		return 0, vm.hostError(&ErrLabelUndefined{Name: startLabel})
	}
	if vm.running {
		return 0, ErrLoadWhileRunning
	}
	vm.running = true
	defer func() { vm.running = false }()

	vm.pc = pc
	retVal, hasVal, err := vm.call(nil)
	if err != nil {
		if err == errHalted {
			return 0, nil
		}
		return 0, err
	}
	if !hasVal {
		return 0, vm.hostError(ErrNoExitCode)
	}
	if retVal.Tag != value.TagUInteger {
		return 0, vm.hostError(&ErrExitCodeInvalidType{Value: retVal})
	}
	return retVal.UInteger(), nil
}

// Enclosed executes a throwaway Assembly with a fresh value stack but
// the VM's existing variable memory. Load is forbidden for
// its duration, same as Run.
func (vm *VM) Enclosed(a asm.Assembly) (value.Value, error) {
	if vm.running {
		return value.Value{}, ErrLoadWhileRunning
	}
	savedProgram := vm.program
	savedLabels := vm.labels

	base := len(vm.program)
	vm.program = append(append(asm.Assembly{}, vm.program...), a...)
	newLabels := make(map[string]int, len(vm.labels)+len(a))
	for k, v := range vm.labels {
		newLabels[k] = v
	}
	for i, instr := range a {
		if instr.Op == asm.OpLabel || instr.Op == asm.OpPublicLabel {
			newLabels[instr.Name] = base + i
		}
	}
	vm.labels = newLabels

	vm.running = true
	vm.pc = base
	retVal, hasVal, err := vm.call(nil)
	vm.running = false

	vm.program = savedProgram
	vm.labels = savedLabels

	if err != nil {
		if err == errHalted {
			return value.Empty(), nil
		}
		return value.Value{}, err
	}
	if !hasVal {
		return value.Empty(), nil
	}
	return retVal, nil
}

// call pushes a boundary frame at vm.pc and drives the dispatch loop
// until that exact frame is popped by a matching Return, then restores
// vm.pc and returns the callee's final stack-top value (if any). arg,
// when non-nil, is bound to variable slot 0 in the callee's fresh
// scope — the convention every Call instruction, SendMessage's
// @receive handoff, and fault-handler dispatch all share.
func (vm *VM) call(arg *value.Value) (value.Value, bool, error) {
	stopDepth := len(vm.frames)
	savedPC := vm.pc
	vm.frames = append(vm.frames, callFrame{returnPC: savedPC, savedStack: vm.mem.TakeStack()})
	vm.mem.PushScope()
	if arg != nil {
		vm.mem.SetVar(0, *arg)
	}
	retVal, hasVal, err := vm.runUntil(stopDepth)
	vm.pc = savedPC
	return retVal, hasVal, err
}

// runUntil executes instructions until a Return pops the dispatch
// loop's own boundary frame (the one at depth stopDepth+1) — see
// call(). Intermediate Returns (popping a frame pushed by an ordinary
// Call instruction above that boundary) resume the caller in place and
// continue the same loop.
func (vm *VM) runUntil(stopDepth int) (value.Value, bool, error) {
	for {
		if vm.pc < 0 || vm.pc >= len(vm.program) {
			return value.Value{}, false, vm.hostError(fmt.Errorf("program counter %d out of bounds", vm.pc))
		}

		if vm.debugger != nil && vm.debugger.ShouldPause() {
			if !vm.debugger.InteractivePrompt() {
				return value.Value{}, false, errHalted
			}
		}

		instr := vm.program[vm.pc]

		switch instr.Op {
		case asm.OpLabel, asm.OpPublicLabel, asm.OpNop:
			vm.pc++

		case asm.OpHalt:
			return value.Value{}, false, errHalted

		case asm.OpReturn:
			hasVal := vm.mem.StackLen() > 0
			var retVal value.Value
			if hasVal {
				retVal, _ = vm.mem.Pop()
			}
			if len(vm.frames) == stopDepth+1 {
				frame := vm.frames[len(vm.frames)-1]
				vm.frames = vm.frames[:len(vm.frames)-1]
				vm.mem.PopScope()
				vm.mem.ReplaceStack(frame.savedStack)
				return retVal, hasVal, nil
			}
			frame := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.mem.PopScope()
			vm.mem.ReplaceStack(frame.savedStack)
			if hasVal {
				vm.mem.Push(retVal)
			}
			vm.pc = frame.returnPC

		case asm.OpGoto:
			target, err := vm.resolveLocation(instr.Loc, vm.pc)
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.pc = target

		case asm.OpCondGoto:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			if !isZeroOrEmpty(v) {
				target, err := vm.resolveLocation(instr.Loc, vm.pc)
				if err != nil {
					return value.Value{}, false, vm.hostError(err)
				}
				vm.pc = target
			} else {
				vm.pc++
			}

		case asm.OpCall:
			arg, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			target, err := vm.resolveLocation(instr.Loc, vm.pc)
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.frames = append(vm.frames, callFrame{returnPC: vm.pc + 1, savedStack: vm.mem.TakeStack()})
			vm.mem.PushScope()
			vm.mem.SetVar(0, arg)
			vm.pc = target

		case asm.OpPush:
			vm.mem.Push(instr.Val)
			vm.pc++

		case asm.OpPop:
			if _, err := vm.mem.Pop(); err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.pc++

		case asm.OpClear:
			vm.mem.ReplaceStack(nil)
			vm.pc++

		case asm.OpSetVar:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.SetVar(instr.Var, v)
			vm.pc++

		case asm.OpGetVar:
			v, err := vm.mem.GetVar(instr.Var)
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(v)
			vm.pc++

		case asm.OpClearVar:
			if err := vm.mem.ClearVar(instr.Var); err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.pc++

		case asm.OpGetSymbol:
			v, ok := vm.symbols[instr.Name]
			if !ok {
				resolved, err := vm.raiseFault(FaultMissingSymbol, value.NewStr(instr.Name))
				if err != nil {
					return value.Value{}, false, err
				}
				v = resolved
			}
			vm.mem.Push(v)
			vm.pc++

		case asm.OpSetSymbol:
			if !vm.kernelMode {
				return value.Value{}, false, vm.hostError(fmt.Errorf("SetSymbol %q: privileged instruction outside kernel mode", instr.Name))
			}
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.symbols[instr.Name] = v
			vm.pc++

		case asm.OpGetAttribute:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			if v.Tag != value.TagDictionary {
				return value.Value{}, false, vm.hostError(&ErrInvalidType{Value: v, Expected: "Dictionary"})
			}
			attr, ok := v.Dictionary()[instr.Name]
			if !ok {
				resolved, err := vm.raiseFault(FaultMissingSymbol, value.NewStr(instr.Name))
				if err != nil {
					return value.Value{}, false, err
				}
				attr = resolved
			}
			vm.mem.Push(attr)
			vm.pc++

		case asm.OpIndex:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			if v.Tag != value.TagArray {
				return value.Value{}, false, vm.hostError(&ErrInvalidType{Value: v, Expected: "Array"})
			}
			elems := v.Array()
			if instr.Idx >= uint64(len(elems)) {
				return value.Value{}, false, vm.hostError(fmt.Errorf("index %d out of range (len %d)", instr.Idx, len(elems)))
			}
			vm.mem.Push(elems[instr.Idx])
			vm.pc++

		case asm.OpPack:
			elems := make([]value.Value, instr.N)
			for i := 0; i < instr.N; i++ {
				v, err := vm.mem.Pop()
				if err != nil {
					return value.Value{}, false, vm.hostError(err)
				}
				elems[i] = v
			}
			vm.mem.Push(value.NewArray(elems))
			vm.pc++

		case asm.OpDeref:
			if err := vm.execDeref(); err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.pc++

		case asm.OpGetRef:
			if err := vm.execGetRef(); err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.pc++

		case asm.OpSetRef:
			if err := vm.execSetRef(); err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.pc++

		case asm.OpIntoReference:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			loc, err := value.LocationFromValue(v)
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(value.NewReference(loc))
			vm.pc++

		case asm.OpAdd, asm.OpSubtract, asm.OpMultiply, asm.OpDivide, asm.OpRemainder:
			if err := vm.execArith(instr.Op); err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.pc++

		case asm.OpGT0:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			r, err := alu.GT0(v)
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(r)
			vm.pc++

		case asm.OpGt:
			second, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			first, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			r, err := alu.Gt(first, second)
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(r)
			vm.pc++

		case asm.OpAnd, asm.OpOr:
			r, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			l, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			var result value.Value
			if instr.Op == asm.OpAnd {
				result, err = alu.And(l, r)
			} else {
				result, err = alu.Or(l, r)
			}
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(result)
			vm.pc++

		case asm.OpNot:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			r, err := alu.Not(v)
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(r)
			vm.pc++

		case asm.OpBooleanAnd, asm.OpBooleanOr, asm.OpBooleanXor:
			r, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			l, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			switch instr.Op {
			case asm.OpBooleanAnd:
				vm.mem.Push(alu.BooleanAnd(l, r))
			case asm.OpBooleanOr:
				vm.mem.Push(alu.BooleanOr(l, r))
			default:
				vm.mem.Push(alu.BooleanXor(l, r))
			}
			vm.pc++

		case asm.OpBooleanNot:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(alu.BooleanNot(v))
			vm.pc++

		case asm.OpBoolify:
			v, err := vm.mem.Pop()
			if err != nil {
				return value.Value{}, false, vm.hostError(err)
			}
			vm.mem.Push(alu.Boolify(v))
			vm.pc++

		case asm.OpSendMessage:
			if err := vm.execSendMessage(); err != nil {
				return value.Value{}, false, err
			}
			vm.pc++

		case asm.OpNativeMethod:
			if err := vm.execNativeMethod(instr.Name, instr.N); err != nil {
				return value.Value{}, false, err
			}
			vm.pc++

		default:
			return value.Value{}, false, vm.hostError(fmt.Errorf("unimplemented opcode %v", instr.Op))
		}
	}
}

func isZeroOrEmpty(v value.Value) bool {
	return alu.Boolify(v).Byte() == 0
}

func (vm *VM) execArith(op asm.Op) error {
	l, err := vm.mem.Pop()
	if err != nil {
		return err
	}
	r, err := vm.mem.Pop()
	if err != nil {
		return err
	}
	var result value.Value
	switch op {
	case asm.OpAdd:
		result, err = alu.Add(l, r)
	case asm.OpSubtract:
		result, err = alu.Subtract(l, r)
	case asm.OpMultiply:
		result, err = alu.Multiply(l, r)
	case asm.OpDivide:
		result, err = alu.Divide(l, r)
	case asm.OpRemainder:
		result, err = alu.Remainder(l, r)
	}
	if err != nil {
		return err
	}
	vm.mem.Push(result)
	return nil
}

// execDeref, execGetRef, execSetRef implement the Reference mini-API
// as references into VMMemory's variable slots: a ByteIndex-tagged
// location doubles as a variable-slot id.
func (vm *VM) execGetRef() error {
	slot, err := vm.mem.Pop()
	if err != nil {
		return err
	}
	if slot.Tag != value.TagUInteger {
		return &ErrInvalidType{Value: slot, Expected: "UInteger (variable slot)"}
	}
	vm.mem.Push(value.NewReference(value.ByteIndex(slot.UInteger())))
	return nil
}

func (vm *VM) execDeref() error {
	ref, err := vm.mem.Pop()
	if err != nil {
		return err
	}
	if ref.Tag != value.TagReference || ref.Location().Tag() != value.LocByteIndex {
		return &ErrInvalidType{Value: ref, Expected: "Reference(variable slot)"}
	}
	v, err := vm.mem.GetVar(int(ref.Location().Index()))
	if err != nil {
		return err
	}
	vm.mem.Push(v)
	return nil
}

func (vm *VM) execSetRef() error {
	ref, err := vm.mem.Pop()
	if err != nil {
		return err
	}
	v, err := vm.mem.Pop()
	if err != nil {
		return err
	}
	if ref.Tag != value.TagReference || ref.Location().Tag() != value.LocByteIndex {
		return &ErrInvalidType{Value: ref, Expected: "Reference(variable slot)"}
	}
	vm.mem.SetVar(int(ref.Location().Index()), v)
	return nil
}

// execSendMessage implements the dynamic dispatch protocol.
func (vm *VM) execSendMessage() error {
	receiver, err := vm.mem.Pop()
	if err != nil {
		return vm.hostError(err)
	}
	nameVal, err := vm.mem.Pop()
	if err != nil {
		return vm.hostError(err)
	}
	if nameVal.Tag != value.TagStr {
		return vm.hostError(&ErrInvalidType{Value: nameVal, Expected: "Str (message name)"})
	}
	name := nameVal.Str()
	argsVal, err := vm.mem.Pop()
	if err != nil {
		return vm.hostError(err)
	}
	if argsVal.Tag != value.TagArray {
		return vm.hostError(&ErrInvalidType{Value: argsVal, Expected: "Array (message args)"})
	}
	args := argsVal.Array()

	result, err := vm.dispatchMessage(receiver, name, args)
	if err != nil {
		return err
	}
	vm.mem.Push(result)
	return nil
}

func (vm *VM) dispatchMessage(receiver value.Value, name string, args []value.Value) (value.Value, error) {
	if receiver.Tag == value.TagDictionary {
		dict := receiver.Dictionary()
		if handler, ok := dict["@receive"]; ok && handler.Tag == value.TagFunction {
			target, err := vm.resolveLocation(handler.Location(), vm.pc)
			if err != nil {
				return value.Value{}, vm.hostError(err)
			}
			packed := value.NewArray([]value.Value{value.NewStr(name), value.NewArray(args)})
			savedPC := vm.pc
			vm.pc = target
			retVal, hasVal, err := vm.call(&packed)
			vm.pc = savedPC
			if err != nil {
				return value.Value{}, err
			}
			if !hasVal {
				return value.Empty(), nil
			}
			return retVal, nil
		}
		if name == "get" {
			if len(args) == 0 || args[0].Tag != value.TagStr {
				return value.Value{}, vm.hostError(&ErrMissingSymbol{Name: "get"})
			}
			key := args[0].Str()
			v, ok := dict[key]
			if !ok {
				return vm.invokeMissingSymbolFault(key)
			}
			return v, nil
		}
	} else if receiver.Tag == value.TagNative {
		v, err := vm.plugins.CallFunction(name, args, vm.stackAdapter(), vm.handleAdapter())
		if err != nil {
			return value.Value{}, vm.hostError(err)
		}
		return v, nil
	}

	v, err := sendBuiltin(receiver, name, args)
	if err != nil {
		if _, ok := err.(*ErrMissingSymbol); ok {
			return vm.invokeMissingSymbolFault(name)
		}
		return value.Value{}, vm.hostError(err)
	}
	return v, nil
}

// invokeMissingSymbolFault raises the MissingSymbol fault and returns
// its handler's result as the SendMessage/GetSymbol/GetAttribute
// result. MissingSymbol defaults to Value::Native, handing off to a
// plugin's @on_missing_symbol if one is registered, else it aborts.
func (vm *VM) invokeMissingSymbolFault(name string) (value.Value, error) {
	v, err := vm.raiseFault(FaultMissingSymbol, value.NewStr(name))
	if err != nil {
		return value.Value{}, err
	}
	return v, nil
}

func (vm *VM) execNativeMethod(name string, argCount int) error {
	args := make([]value.Value, argCount)
	for i := 0; i < argCount; i++ {
		v, err := vm.mem.Pop()
		if err != nil {
			return vm.hostError(err)
		}
		args[i] = v
	}
	v, err := vm.plugins.CallFunction(name, args, vm.stackAdapter(), vm.handleAdapter())
	if err != nil {
		return vm.hostError(err)
	}
	vm.mem.Push(v)
	return nil
}

// Push, Pop, and Empty let the VM itself serve as the plugin.Stack
// passed to CallFunction/CallLabel, giving a native method direct
// access to the operand stack.
func (vm *VM) Push(v value.Value) { vm.mem.Push(v) }
func (vm *VM) Pop() (value.Value, error) { return vm.mem.Pop() }
func (vm *VM) Empty() bool { return vm.mem.StackLen() == 0 }

// Native lets a plugin synchronously invoke another native method by
// name, satisfying plugin.VMHandle.
func (vm *VM) Native(name string, args []value.Value) (value.Value, error) {
	return vm.plugins.CallFunction(name, args, vm.stackAdapter(), vm.handleAdapter())
}

func (vm *VM) stackAdapter() plugin.Stack { return vm }
func (vm *VM) handleAdapter() plugin.VMHandle { return vm }

// raiseFault looks up kind's handler in the jump table (defaulting
// MissingSymbol to Value::Native), captures a FaultHandle recording
// where and with what stack the fault occurred, invokes the handler
// with info as its sole argument, and restores the pre-fault stack
// before returning the handler's result. A fault raised while already
// inside a fault handler is a DoubleFault and aborts.
func (vm *VM) raiseFault(kind FaultKind, info value.Value) (value.Value, error) {
	if vm.inFault {
		return value.Value{}, vm.hostError(ErrDoubleFault)
	}
	handler, ok := vm.faultTable[kind]
	if !ok {
		if kind == FaultMissingSymbol {
			handler = value.Native()
		} else {
			return value.Value{}, vm.hostError(fmt.Errorf("unhandled fault %v", kind))
		}
	}

	tag, _ := vm.enclosingLabelAt(vm.pc)
	handle := FaultHandle{
		PC: vm.pc,
		EnclosingTag: tag,
		Kind: kind,
		SavedStack: vm.mem.TakeStack(),
		Target: handler,
	}

	vm.inFault = true
	defer func() { vm.inFault = false }()
	defer vm.mem.ReplaceStack(handle.SavedStack)

	switch handle.Target.Tag {
	case value.TagNative:
		if !vm.plugins.HasLabel(missingSymbolPluginLabel) {
			return value.Value{}, vm.hostError(&ErrMissingSymbol{Name: info.Str()})
		}
		v, err := vm.plugins.CallFunction(missingSymbolPluginLabel, []value.Value{info}, vm.stackAdapter(), vm.handleAdapter())
		if err != nil {
			return value.Value{}, fmt.Errorf("%s: %w", handle, vm.hostError(err))
		}
		return v, nil
	case value.TagFunction:
		target, err := vm.resolveLocation(handle.Target.Location(), handle.PC)
		if err != nil {
			return value.Value{}, vm.hostError(err)
		}
		savedPC := vm.pc
		vm.pc = target
		retVal, hasVal, err := vm.call(&info)
		vm.pc = savedPC
		if err != nil {
			return value.Value{}, err
		}
		if !hasVal {
			return value.Empty(), nil
		}
		return retVal, nil
	default:
		return value.Value{}, vm.hostError(fmt.Errorf("fault handler must be Function or Native, got %s", handle.Target.Tag))
	}
}
