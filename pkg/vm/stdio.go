package vm

import (
	"fmt"
	"io"

	"github.com/jodin-lang/jodin/pkg/plugin"
	"github.com/jodin-lang/jodin/pkg/value"
)

// stdioPlugin is the built-in plugin bound to a VM's own stdout/stderr
// writers, exposing the "print"/"write" native methods that runtime
// programs call. Grounded on a stdout-bound primitive cases design
// (github.com/kristofer/smog, pkg/vm, the print/display builtins that
// used to write straight to os.Stdout), adapted to go through the
// VM's rebindable stdout/stderr fields so a host embedding the VM can
// capture output.
type stdioPlugin struct {
	vm *VM
}

func newStdioPlugin(vm *VM) *stdioPlugin { return &stdioPlugin{vm: vm} }

var stdioLabels = []string{"print", "write"}

func (s *stdioPlugin) Labels() []string { return stdioLabels }
func (s *stdioPlugin) LabelsCount() int { return len(stdioLabels) }

// CallLabel implements "print" (writes every argument's display form
// to stdout) and "write" (writes every argument after the first to the
// stream selected by the first: 1 for stdout, 2 for stderr).
func (s *stdioPlugin) CallLabel(name string, args []value.Value, _ plugin.Stack, _ plugin.VMHandle) (value.Value, error) {
	switch name {
	case "print":
		for _, a := range args {
			fmt.Fprint(s.vm.stdout, a.String())
		}
		return value.Empty(), nil
	case "write":
		if len(args) == 0 {
			return value.Value{}, fmt.Errorf("write: missing stream selector argument")
		}
		var w io.Writer
		switch args[0].UInteger() {
		case 1:
			w = s.vm.stdout
		case 2:
			w = s.vm.stderr
		default:
			return value.Value{}, fmt.Errorf("write: unknown stream selector %d", args[0].UInteger())
		}
		for _, a := range args[1:] {
			fmt.Fprint(w, a.String())
		}
		return value.Empty(), nil
	default:
		return value.Value{}, &plugin.ErrLabelNotRegistered{Name: name}
	}
}
