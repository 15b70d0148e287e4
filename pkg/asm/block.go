package asm

// Component is one element of an AssemblyBlock's body: either a single
// Asm instruction or a nested, named AssemblyBlock. Exactly one field
// is set, mirroring an "Instruction(Asm) | Block(name, children)"
// tagged variant.
type Component struct {
	Instr *Asm
	Block *AssemblyBlock
}

// Instruction wraps a single Asm as a Component.
func Instruction(a Asm) Component {
	cp := a
	return Component{Instr: &cp}
}

// NewBlock wraps a nested AssemblyBlock as a Component. name may be
// empty; Normalize assigns it a synthetic name derived from its
// position among its siblings.
func NewBlock(name string, children ...Component) Component {
	return Component{Block: &AssemblyBlock{Name: name, Components: children}}
}

// AssemblyBlock is a named tree node holding an ordered sequence of
// components, each either a single instruction or a nested block.
// Blocks are built by the compiler and macros and are never mutated
// after Normalize runs.
type AssemblyBlock struct {
	Name string
	Components []Component
}

// Root constructs the top-level block passed to Normalize. Its own
// Name is never used as a label prefix — only the names of blocks
// nested beneath it are.
func Root(children ...Component) *AssemblyBlock {
	return &AssemblyBlock{Components: children}
}
