package vm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Debugger provides interactive single-step debugging of a VM's
// dispatch loop: breakpoints, step mode, and stack/locals/call-stack
// inspection.
//
// Adapted from a Debugger/breakpoints/stepMode/InteractivePrompt
// design onto asm.Assembly/asm.Asm and VMMemory instead of a flat
// bytecode.Instruction/locals/globals representation. This is an
// execution-time, instruction-level tool, not source-level debugging.
type Debugger struct {
	vm *VM
	breakpoints map[int]bool
	stepMode bool
	enabled bool

	in *bufio.Scanner
	out io.Writer
}

// NewDebugger creates a new, disabled debugger instance for vm.
func NewDebugger(vm *VM) *Debugger {
	return &Debugger{
		vm: vm,
		breakpoints: make(map[int]bool),
		in: bufio.NewScanner(os.Stdin),
		out: os.Stdout,
	}
}

func (d *Debugger) Enable() { d.enabled = true }
func (d *Debugger) Disable() { d.enabled = false }
func (d *Debugger) SetStepMode(step bool) { d.stepMode = step }

func (d *Debugger) AddBreakpoint(pc int) { d.breakpoints[pc] = true }
func (d *Debugger) RemoveBreakpoint(pc int) { delete(d.breakpoints, pc) }
func (d *Debugger) ClearBreakpoints() { d.breakpoints = make(map[int]bool) }

// ShouldPause reports whether the dispatch loop should pause before
// executing the instruction currently at vm.pc.
func (d *Debugger) ShouldPause() bool {
	if !d.enabled {
		return false
	}
	return d.stepMode || d.breakpoints[d.vm.pc]
}

// ShowCurrentInstruction prints the instruction about to execute.
func (d *Debugger) ShowCurrentInstruction() {
	if d.vm.pc < 0 || d.vm.pc >= len(d.vm.program) {
		fmt.Fprintln(d.out, "no current instruction (pc out of range)")
		return
	}
	fmt.Fprintf(d.out, "  %4d: %s\n", d.vm.pc, d.vm.program[d.vm.pc])
}

// ShowStack prints the operand-value stack, top first.
func (d *Debugger) ShowStack() {
	fmt.Fprintln(d.out, "stack (top to bottom):")
	s := d.vm.mem.PeekStack()
	if len(s) == 0 {
		fmt.Fprintln(d.out, "  (empty)")
		return
	}
	for i := len(s) - 1; i >= 0; i-- {
		fmt.Fprintf(d.out, "  [%d] %s\n", i, s[i])
	}
}

// ShowLocals prints the innermost scope's variable bindings.
func (d *Debugger) ShowLocals() {
	fmt.Fprintln(d.out, "local variables:")
	vars := d.vm.mem.Vars()
	if len(vars) == 0 {
		fmt.Fprintln(d.out, "  (none set)")
		return
	}
	for n, v := range vars {
		fmt.Fprintf(d.out, "  [%d] %s\n", n, v)
	}
}

// ShowCallStack prints the open call frames, innermost first, by
// their enclosing label.
func (d *Debugger) ShowCallStack() {
	fmt.Fprintln(d.out, "call stack (top to bottom):")
	chain := d.vm.callChain()
	if len(chain) == 0 {
		fmt.Fprintln(d.out, "  (empty)")
		return
	}
	for _, tag := range chain {
		fmt.Fprintf(d.out, "  %s\n", tag)
	}
}

// listInstructions prints every instruction in the loaded program,
// marking the current pc and any breakpoints.
func (d *Debugger) listInstructions() {
	fmt.Fprintln(d.out, "instructions:")
	for i, instr := range d.vm.program {
		marker := "  "
		switch {
		case i == d.vm.pc:
			marker = "->"
		case d.breakpoints[i]:
			marker = "* "
		}
		fmt.Fprintf(d.out, "%s %4d: %s\n", marker, i, instr)
	}
}

func (d *Debugger) printHelp() {
	fmt.Fprintln(d.out, "debugger commands:")
	fmt.Fprintln(d.out, "  help, h, ?         show this help")
	fmt.Fprintln(d.out, "  continue, c        continue execution")
	fmt.Fprintln(d.out, "  step, s            enable step mode (pause after each instruction)")
	fmt.Fprintln(d.out, "  next, n            execute one instruction")
	fmt.Fprintln(d.out, "  stack, st          show the operand-value stack")
	fmt.Fprintln(d.out, "  locals, l          show the innermost scope's variables")
	fmt.Fprintln(d.out, "  callstack, cs      show open call frames")
	fmt.Fprintln(d.out, "  instruction, i     show the current instruction")
	fmt.Fprintln(d.out, "  breakpoint <n>, b  add a breakpoint at instruction n")
	fmt.Fprintln(d.out, "  delete <n>, d      remove a breakpoint at instruction n")
	fmt.Fprintln(d.out, "  list, ls           list all instructions")
	fmt.Fprintln(d.out, "  quit, q            abort execution")
}

// InteractivePrompt is called by the dispatch loop when ShouldPause
// reports true. It returns whether to resume execution at all; the
// loop itself advances one instruction per call regardless, step mode
// and breakpoints simply decide when InteractivePrompt runs again.
func (d *Debugger) InteractivePrompt() (resume bool) {
	fmt.Fprintln(d.out, "\n=== paused ===")
	d.ShowCurrentInstruction()

	for {
		fmt.Fprint(d.out, "debug> ")
		if !d.in.Scan() {
			return false
		}
		line := strings.TrimSpace(d.in.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		switch parts[0] {
		case "help", "h", "?":
			d.printHelp()
		case "continue", "c":
			d.SetStepMode(false)
			return true
		case "step", "s":
			d.SetStepMode(true)
			return true
		case "next", "n":
			return true
		case "stack", "st":
			d.ShowStack()
		case "locals", "l":
			d.ShowLocals()
		case "callstack", "cs":
			d.ShowCallStack()
		case "instruction", "i":
			d.ShowCurrentInstruction()
		case "breakpoint", "b":
			if len(parts) < 2 {
				fmt.Fprintln(d.out, "usage: breakpoint <instruction number>")
				continue
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Fprintln(d.out, "invalid instruction number")
				continue
			}
			d.AddBreakpoint(n)
			fmt.Fprintf(d.out, "breakpoint added at instruction %d\n", n)
		case "delete", "d":
			if len(parts) < 2 {
				fmt.Fprintln(d.out, "usage: delete <instruction number>")
				continue
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				fmt.Fprintln(d.out, "invalid instruction number")
				continue
			}
			d.RemoveBreakpoint(n)
			fmt.Fprintf(d.out, "breakpoint removed at instruction %d\n", n)
		case "list", "ls":
			d.listInstructions()
		case "quit", "q":
			return false
		default:
			fmt.Fprintf(d.out, "unknown command: %s (type 'help' for commands)\n", parts[0])
		}
	}
}

// EnableDebugger creates (if needed) and enables this VM's debugger.
func (vm *VM) EnableDebugger() *Debugger {
	if vm.debugger == nil {
		vm.debugger = NewDebugger(vm)
	}
	vm.debugger.Enable()
	return vm.debugger
}

// GetDebugger returns the VM's debugger, or nil if EnableDebugger was
// never called.
func (vm *VM) GetDebugger() *Debugger { return vm.debugger }
