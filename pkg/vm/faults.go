package vm

import (
	"fmt"

	"github.com/jodin-lang/jodin/pkg/value"
)

// FaultKind identifies a recoverable, in-program exception.
// Faults are distinguished from HostErrors: a Fault is observable by
// the running program and routed through a jump table; a HostError
// unwinds the VM entirely.
type FaultKind int

const (
	FaultMissingSymbol FaultKind = iota
	FaultDoubleFault
)

func (k FaultKind) String() string {
	switch k {
	case FaultMissingSymbol:
		return "MissingSymbol"
	case FaultDoubleFault:
		return "DoubleFault"
	default:
		return fmt.Sprintf("Fault(%d)", int(k))
	}
}

// FaultHandle captures the state raiseFault needs to jump into a
// handler and unwind back out of it: the PC of the faulting
// instruction, the label enclosing it (for diagnostics if the handler
// itself fails), the fault kind, the pre-fault value stack, and the
// jump-table target being invoked.
type FaultHandle struct {
	PC int
	EnclosingTag string
	Kind FaultKind
	SavedStack []value.Value
	Target value.Value
}

// String renders a one-line diagnostic identifying the fault site.
func (h FaultHandle) String() string {
	return fmt.Sprintf("fault %s at pc=%d in %q", h.Kind, h.PC, h.EnclosingTag)
}

// ErrDoubleFault is fatal and aborts the VM: a fault raised while
// already running a fault handler.
var ErrDoubleFault = fmt.Errorf("DoubleFault")

// FaultJumpTable maps a fault kind to the Value::Function (or
// Value::Native, for the MissingSymbol default) that handles it.
type FaultJumpTable map[FaultKind]value.Value

// missingSymbolPluginLabel is invoked when MissingSymbol has no
// registered Function handler and the default Value::Native hands off
// to a plugin.
const missingSymbolPluginLabel = "@on_missing_symbol"
