package asm

import (
	"fmt"

	"github.com/jodin-lang/jodin/pkg/value"
)

// Assembly is the flat, normalized instruction sequence produced by
// Normalize: an ordered list of Asm with every label globally unique
// and every Goto/CondGoto/Call target resolvable to a position.
type Assembly []Asm

// ErrUnresolvedLabel is returned when a Goto/CondGoto/Call targets a
// label with no matching definition anywhere in the normalized tree.
type ErrUnresolvedLabel struct{ Name string }

func (e *ErrUnresolvedLabel) Error() string {
	return fmt.Sprintf("UnresolvedLabel(%q)", e.Name)
}

// ErrDuplicatePublicLabel is returned when two PublicLabel definitions
// share the same name.
type ErrDuplicatePublicLabel struct{ Name string }

func (e *ErrDuplicatePublicLabel) Error() string {
	return fmt.Sprintf("DuplicatePublicLabel(%q)", e.Name)
}

// ErrDuplicateLabel is returned when two (necessarily private) labels
// collapse onto the same final, prefixed name — this should not occur
// given unique synthetic names for unnamed blocks, but is checked
// rather than silently overwritten.
type ErrDuplicateLabel struct{ Name string }

func (e *ErrDuplicateLabel) Error() string {
	return fmt.Sprintf("duplicate label %q after normalization", e.Name)
}

// Normalize flattens an AssemblyBlock tree into a linear Assembly:
//
// 1. Every unnamed block is assigned a synthetic name from its
// position among its siblings.
// 2. Depth-first, left-to-right emission; entering a named sub-block
// prefixes every local label/goto/cond-goto/call defined or
// referenced within it with the parent-qualified block name,
// except names already bound as a PublicLabel anywhere in the
// tree, which are left absolute.
// 3. Program order is preserved exactly.
// 4. Every emitted Label is unique and every target resolves.
func Normalize(root *AssemblyBlock) (Assembly, error) {
	publicNames, err := collectPublicLabels(root)
	if err != nil {
		return nil, err
	}

	w := &walker{public: publicNames}
	w.walk(root, "")
	if w.err != nil {
		return nil, w.err
	}

	positions := make(map[string]int, len(w.out))
	for i, a := range w.out {
		if a.Op == OpLabel || a.Op == OpPublicLabel {
			if _, dup := positions[a.Name]; dup {
				return nil, &ErrDuplicateLabel{Name: a.Name}
			}
			positions[a.Name] = i
		}
	}
	for _, a := range w.out {
		if (a.Op == OpGoto || a.Op == OpCondGoto || a.Op == OpCall) && a.Loc.Tag() == value.LocLabel {
			if _, ok := positions[a.Loc.LabelName()]; !ok {
				return nil, &ErrUnresolvedLabel{Name: a.Loc.LabelName()}
			}
		}
	}

	return w.out, nil
}

// collectPublicLabels walks the whole tree up front to build the set
// of globally-absolute label names, and rejects duplicate PublicLabel
// definitions regardless of where in the tree they occur.
func collectPublicLabels(b *AssemblyBlock) (map[string]bool, error) {
	names := map[string]bool{}
	var walk func(*AssemblyBlock) error
	walk = func(blk *AssemblyBlock) error {
		for _, c := range blk.Components {
			if c.Instr != nil && c.Instr.Op == OpPublicLabel {
				if names[c.Instr.Name] {
					return &ErrDuplicatePublicLabel{Name: c.Instr.Name}
				}
				names[c.Instr.Name] = true
			}
			if c.Block != nil {
				if err := walk(c.Block); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(b); err != nil {
		return nil, err
	}
	return names, nil
}

type walker struct {
	public map[string]bool
	out Assembly
	err error
}

func (w *walker) walk(b *AssemblyBlock, prefix string) {
	for i, c := range b.Components {
		if w.err != nil {
			return
		}
		switch {
		case c.Instr != nil:
			w.out = append(w.out, w.rewrite(*c.Instr, prefix))
		case c.Block != nil:
			name := c.Block.Name
			if name == "" {
				name = fmt.Sprintf("_%d", i)
			}
			childPrefix := name
			if prefix != "" {
				childPrefix = prefix + "::" + name
			}
			w.walk(c.Block, childPrefix)
		}
	}
}

func (w *walker) rewrite(a Asm, prefix string) Asm {
	switch a.Op {
	case OpLabel:
		if !w.public[a.Name] {
			a.Name = qualify(prefix, a.Name)
		}
		return a
	case OpPublicLabel:
		return a
	case OpGoto, OpCondGoto, OpCall:
		if a.Loc.Tag() == value.LocLabel {
			name := a.Loc.LabelName()
			if !w.public[name] {
				name = qualify(prefix, name)
			}
			a.Loc = value.Label(name)
		}
		return a
	default:
		return a
	}
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "::" + name
}

// FromAssembly wraps an already-flat Assembly as a single unnamed
// block whose re-normalization is a no-op, used to state and test
// idempotence: Normalize(FromAssembly(Normalize(b))) == Normalize(b).
func FromAssembly(a Assembly) *AssemblyBlock {
	children := make([]Component, len(a))
	for i, instr := range a {
		children[i] = Instruction(instr)
	}
	return Root(children...)
}
