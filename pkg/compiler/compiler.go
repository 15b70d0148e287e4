// Package compiler lowers an AST Program into a normalized Assembly
// ready for vm.Load, entered at the public label "__start".
//
// Grounded on a single-pass, no-backpatching compiler shape
// (github.com/kristofer/smog, pkg/compiler: one emit-as-you-go walk
// over the AST with a flat instruction list and symbol table),
// retargeted from an Opcode/Instruction/constant-pool output shape to
// asm.Component/asm.AssemblyBlock/asm.Normalize.
package compiler

import (
	"fmt"

	"github.com/jodin-lang/jodin/pkg/asm"
	"github.com/jodin-lang/jodin/pkg/ast"
	"github.com/jodin-lang/jodin/pkg/value"
)

// Compiler walks a Program and accumulates asm.Components for the
// current block (the top-level program, or a block literal being
// compiled into its own nested AssemblyBlock).
type Compiler struct {
	components []asm.Component
	symbols map[string]int
	nextVar int
	blockSeq int
}

// New returns an empty Compiler.
func New() *Compiler {
	return &Compiler{symbols: map[string]int{}}
}

// Compile compiles program into a flat, normalized Assembly.
func (c *Compiler) Compile(program *ast.Program) (asm.Assembly, error) {
	c.emit(asm.Instruction(asm.PublicLabel("__start")))
	for _, stmt := range program.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	c.emit(asm.Instruction(asm.Push(value.NewUInteger(0))))
	c.emit(asm.Instruction(asm.Return()))
	return asm.Normalize(asm.Root(c.components...))
}

func (c *Compiler) emit(comp asm.Component) { c.components = append(c.components, comp) }

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := c.compileExpression(s.Expression); err != nil {
			return err
		}
		c.emit(asm.Instruction(asm.Pop()))
		return nil

	case *ast.VariableDeclaration:
		for _, name := range s.Names {
			c.symbols[name] = c.nextVar
			c.nextVar++
		}
		return nil

	case *ast.ReturnStatement:
		if err := c.compileExpression(s.Value); err != nil {
			return err
		}
		c.emit(asm.Instruction(asm.Return()))
		return nil

	default:
		return fmt.Errorf("unknown statement type: %T", stmt)
	}
}

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		c.emit(asm.Instruction(asm.Push(value.NewInteger(e.Value))))
		return nil

	case *ast.FloatLiteral:
		c.emit(asm.Instruction(asm.Push(value.NewFloat(e.Value))))
		return nil

	case *ast.StringLiteral:
		c.emit(asm.Instruction(asm.Push(value.NewStr(e.Value))))
		return nil

	case *ast.BooleanLiteral:
		var b uint64
		if e.Value {
			b = 1
		}
		c.emit(asm.Instruction(asm.Push(value.NewUInteger(b))))
		return nil

	case *ast.NilLiteral:
		c.emit(asm.Instruction(asm.Push(value.Empty())))
		return nil

	case *ast.Identifier:
		if idx, ok := c.symbols[e.Name]; ok {
			c.emit(asm.Instruction(asm.GetVar(idx)))
		} else {
			c.emit(asm.Instruction(asm.GetSymbol(e.Name)))
		}
		return nil

	case *ast.Assignment:
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		idx, ok := c.symbols[e.Name]
		if !ok {
			idx = c.nextVar
			c.nextVar++
			c.symbols[e.Name] = idx
		}
		c.emit(asm.Instruction(asm.SetVar(idx)))
		c.emit(asm.Instruction(asm.GetVar(idx)))
		return nil

	case *ast.ArrayLiteral:
		for i := len(e.Elements) - 1; i >= 0; i-- {
			if err := c.compileExpression(e.Elements[i]); err != nil {
				return err
			}
		}
		c.emit(asm.Instruction(asm.Pack(len(e.Elements))))
		return nil

	case *ast.BlockLiteral:
		return c.compileBlockLiteral(e)

	case *ast.MessageSend:
		for i := len(e.Args) - 1; i >= 0; i-- {
			if err := c.compileExpression(e.Args[i]); err != nil {
				return err
			}
		}
		c.emit(asm.Instruction(asm.Pack(len(e.Args))))
		c.emit(asm.Instruction(asm.Push(value.NewStr(e.Selector))))
		if err := c.compileExpression(e.Receiver); err != nil {
			return err
		}
		c.emit(asm.Instruction(asm.SendMessage()))
		return nil

	default:
		return fmt.Errorf("unknown expression type: %T", expr)
	}
}

// compileBlockLiteral compiles e into its own named sub-block, headed
// by the public label name and jumped over by the enclosing code, and
// leaves a Function(Label(name)) value on the enclosing block's stack.
// A block's Call site pops one argument and binds it at var slot 0
// ; a block declaring exactly one parameter sees it there
// directly, a block declaring several unpacks it from the Array the
// caller is expected to have passed, and a block declaring none
// ignores it.
func (c *Compiler) compileBlockLiteral(e *ast.BlockLiteral) error {
	name := fmt.Sprintf("block_%d", c.blockSeq)
	c.blockSeq++

	savedComponents, savedSymbols, savedNextVar := c.components, c.symbols, c.nextVar
	c.components = nil
	c.symbols = make(map[string]int, len(savedSymbols)+len(e.Parameters))
	for k, v := range savedSymbols {
		c.symbols[k] = v
	}
	c.nextVar = savedNextVar

	switch len(e.Parameters) {
	case 0:
		// Caller's argument (if any) is ignored.
	case 1:
		c.symbols[e.Parameters[0]] = 0
	default:
		for i, p := range e.Parameters {
			c.symbols[p] = c.nextVar
			c.nextVar++
			c.emit(asm.Instruction(asm.GetVar(0)))
			c.emit(asm.Instruction(asm.Index(uint64(i))))
			c.emit(asm.Instruction(asm.SetVar(c.symbols[p])))
		}
	}

	returned := false
	for i, stmt := range e.Body {
		last := i == len(e.Body)-1
		if last {
			if es, ok := stmt.(*ast.ExpressionStatement); ok {
				if err := c.compileExpression(es.Expression); err != nil {
					return err
				}
				c.emit(asm.Instruction(asm.Return()))
				returned = true
				continue
			}
		}
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
		if _, ok := stmt.(*ast.ReturnStatement); ok && last {
			returned = true
		}
	}
	if !returned {
		c.emit(asm.Instruction(asm.Push(value.Empty())))
		c.emit(asm.Instruction(asm.Return()))
	}

	blockComponents := c.components
	c.components, c.symbols, c.nextVar = savedComponents, savedSymbols, savedNextVar

	end := name + "_end"
	c.emit(asm.Instruction(asm.Goto(value.Label(end))))
	c.emit(asm.NewBlock(name, append([]asm.Component{asm.Instruction(asm.PublicLabel(name))}, blockComponents...)...))
	c.emit(asm.Instruction(asm.Label(end)))
	c.emit(asm.Instruction(asm.Push(value.NewFunction(value.Label(name)))))
	return nil
}
