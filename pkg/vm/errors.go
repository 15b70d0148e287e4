// Package vm implements the stack-based virtual machine that executes
// a normalized Assembly: fetch-decode-execute dispatch, scoped
// variable memory, SendMessage dynamic dispatch, and fault handling.
package vm

import (
	"fmt"

	"github.com/jodin-lang/jodin/pkg/value"
)

// HostError is a VM-level failure that unwinds execution entirely,
// as opposed to a Fault, which is observable and recoverable from
// inside the running program. Every error the dispatch
// loop cannot route through the fault table is wrapped in a HostError
// before it reaches the host, carrying the PC and the name of the
// nearest enclosing label so a host can report where execution died.
//
// CallChain additionally carries the enclosing label of every call
// frame still open when the error occurred, innermost first —
// adapted from a RuntimeError/StackFrame call-stack capture onto asm
// labels instead of named class/method frames.
type HostError struct {
	Err error
	PC int
	EnclosingTag string
	CallChain []string
}

func (e *HostError) Error() string {
	base := fmt.Sprintf("%v [pc %d]", e.Err, e.PC)
	if e.EnclosingTag != "" {
		base = fmt.Sprintf("%v [pc %d, in %s]", e.Err, e.PC, e.EnclosingTag)
	}
	if len(e.CallChain) == 0 {
		return base
	}
	trace := ""
	for i, tag := range e.CallChain {
		if i > 0 {
			trace += " -> "
		}
		trace += tag
	}
	return fmt.Sprintf("%s\n  call chain: %s", base, trace)
}

func (e *HostError) Unwrap() error { return e.Err }

// Execution error kinds.
type ErrInvalidType struct {
	Value value.Value
	Expected string
}

func (e *ErrInvalidType) Error() string {
	return fmt.Sprintf("InvalidType{value: %s, expected: %s}", e.Value.Tag, e.Expected)
}

var ErrStackUnderflow = fmt.Errorf("StackUnderflow")
var ErrNoExitCode = fmt.Errorf("NoExitCode")

type ErrExitCodeInvalidType struct{ Value value.Value }

func (e *ErrExitCodeInvalidType) Error() string {
	return fmt.Sprintf("ExitCodeInvalidType(%s)", e.Value.Tag)
}

// ErrLoadWhileRunning is returned by Load (and by a nested Run or
// Enclosed) while Run or Enclosed is driving the dispatch loop: the
// program is immutable during execution.
var ErrLoadWhileRunning = fmt.Errorf("program is immutable while enclosed() is executing")

// ErrLabelUndefined is returned when a Goto/CondGoto/Call targets a
// label absent from the loaded program's label table.
type ErrLabelUndefined struct{ Name string }

func (e *ErrLabelUndefined) Error() string { return fmt.Sprintf("undefined label %q", e.Name) }

