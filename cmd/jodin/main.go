// Command jodin is the CLI front end: it lexes, parses, and compiles
// Jodin source into an Assembly, then loads and runs it on the VM
// (the parser/compiler hand the VM an AssemblyBlock, never bypassing it).
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jodin-lang/jodin/pkg/asm"
	"github.com/jodin-lang/jodin/pkg/bytecode"
	"github.com/jodin-lang/jodin/pkg/compiler"
	"github.com/jodin-lang/jodin/pkg/parser"
	"github.com/jodin-lang/jodin/pkg/vm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		runREPL()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("jodin version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "repl":
		runREPL()
	case "run":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			printUsage()
			os.Exit(1)
		}
		runFile(os.Args[2])
	case "compile":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: jodin compile <input.jdn> [output.jbc]")
			os.Exit(1)
		}
		inputFile := os.Args[2]
		outputFile := ""
		if len(os.Args) >= 4 {
			outputFile = os.Args[3]
		}
		compileFile(inputFile, outputFile)
	case "disassemble", "disasm":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: jodin disassemble <file.jbc>")
			os.Exit(1)
		}
		disassembleFile(os.Args[2])
	case "debug":
		if len(os.Args) < 3 {
			fmt.Println("Error: no file specified")
			fmt.Println("\nUsage: jodin debug <file> [breakpoint-pc ...]")
			os.Exit(1)
		}
		debugFile(os.Args[2], os.Args[3:])
	default:
		runFile(os.Args[1])
	}
}

func printUsage() {
	fmt.Println("jodin - the Jodin language compiler, bytecode tool, and VM")
	fmt.Println("\nUsage:")
	fmt.Println("  jodin                        Start interactive REPL")
	fmt.Println("  jodin [file]                 Run a .jdn or .jbc file")
	fmt.Println("  jodin run [file]             Run a .jdn or .jbc file")
	fmt.Println("  jodin compile <in> [out]     Compile .jdn to .jbc bytecode")
	fmt.Println("  jodin disassemble <file>     Disassemble .jbc bytecode file")
	fmt.Println("  jodin debug <file> [bp ...]  Run under the interactive step debugger")
	fmt.Println("  jodin repl                   Start interactive REPL")
	fmt.Println("  jodin version                Show version")
	fmt.Println("  jodin help                   Show this help")
	fmt.Println("\nFile Extensions:")
	fmt.Println("  .jdn   Source code files (text)")
	fmt.Println("  .jbc   Compiled bytecode files (binary, magic-prefixed)")
}

func runFile(filename string) {
	if filepath.Ext(filename) == ".jbc" {
		runBytecodeFile(filename)
		return
	}
	runSourceFile(filename)
}

func compileProgram(source string) (asm.Assembly, error) {
	p := parser.New(source)
	program, err := p.Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	a, err := compiler.New().Compile(program)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}
	return a, nil
}

func runSourceFile(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	a, err := compileProgram(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runAssembly(a)
}

func runBytecodeFile(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	a, err := bytecode.DecodeBytes(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
		os.Exit(1)
	}

	runAssembly(a)
}

func runAssembly(a asm.Assembly) {
	v := vm.New()
	if err := v.Load(a); err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		os.Exit(1)
	}
	exitCode, err := v.Run("__start")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(int(exitCode))
}

// debugFile loads filename (source or bytecode, same rule as runFile)
// and runs it with the interactive step debugger enabled, pausing
// before the first instruction and at any breakpoint pc passed on the
// command line.
func debugFile(filename string, breakpointArgs []string) {
	var a asm.Assembly
	var err error
	if filepath.Ext(filename) == ".jbc" {
		var data []byte
		data, err = os.ReadFile(filename)
		if err == nil {
			a, err = bytecode.DecodeBytes(data)
		}
	} else {
		var data []byte
		data, err = os.ReadFile(filename)
		if err == nil {
			a, err = compileProgram(string(data))
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	v := vm.New()
	if err := v.Load(a); err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		os.Exit(1)
	}

	dbg := v.EnableDebugger()
	dbg.SetStepMode(true)
	for _, arg := range breakpointArgs {
		pc, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid breakpoint pc %q\n", arg)
			os.Exit(1)
		}
		dbg.AddBreakpoint(pc)
	}

	exitCode, err := v.Run("__start")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(int(exitCode))
}

func compileFile(inputFile, outputFile string) {
	if outputFile == "" {
		if filepath.Ext(inputFile) == ".jdn" {
			outputFile = inputFile[:len(inputFile)-len(filepath.Ext(inputFile))] + ".jbc"
		} else {
			outputFile = inputFile + ".jbc"
		}
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	a, err := compileProgram(string(data))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	outFile, err := os.Create(outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer outFile.Close()

	if err := bytecode.Encode(a, outFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing bytecode: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Compiled %s -> %s\n", inputFile, outputFile)
}

// disassembleFile prints one line per instruction of a .jbc bytecode
// file, using Asm's own disassembly-style String() method.
func disassembleFile(filename string) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	a, err := bytecode.DecodeBytes(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading bytecode: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Bytecode Disassembly: %s ===\n\n", filename)
	if len(a) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i, instr := range a {
		fmt.Printf("  %4d: %s\n", i, instr)
	}
}

// runREPL starts an interactive read-compile-run loop. Each complete
// input (terminated by a semicolon) is parsed, compiled, and loaded
// fresh into the session's VM and run from "__start"; the VM's
// variable memory and loaded labels persist across inputs, but each
// input gets its own fresh local-variable numbering (the compiler is
// not incremental across inputs).
func runREPL() {
	fmt.Printf("jodin REPL v%s\n", version)
	fmt.Println("Type ':help' for help, ':quit' or ':exit' to exit")
	fmt.Println()

	v := vm.New()
	scanner := bufio.NewScanner(os.Stdin)
	var inputBuffer strings.Builder

	for {
		if inputBuffer.Len() == 0 {
			fmt.Print("jodin> ")
		} else {
			fmt.Print("....> ")
		}

		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		if inputBuffer.Len() == 0 {
			switch strings.TrimSpace(line) {
			case ":quit", ":exit":
				fmt.Println("Goodbye!")
				return
			case ":help":
				printREPLHelp()
				continue
			case "":
				continue
			}
		}

		inputBuffer.WriteString(line)
		inputBuffer.WriteString("\n")

		input := strings.TrimSpace(inputBuffer.String())
		if !strings.HasSuffix(input, ";") && !strings.HasSuffix(input, "}") && line != "" {
			continue
		}

		if input != "" {
			evalREPL(v, input)
		}
		inputBuffer.Reset()
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
	}
}

func evalREPL(v *vm.VM, input string) {
	a, err := compileProgram(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if err := v.Load(a); err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return
	}
	if _, err := v.Run("__start"); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error: %v\n", err)
	}
}

func printREPLHelp() {
	fmt.Println("jodin REPL Help")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  :help     Show this help message")
	fmt.Println("  :quit     Exit the REPL")
	fmt.Println("  :exit     Exit the REPL")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  - Enter Jodin statements and press Enter")
	fmt.Println("  - Statements end with a semicolon (;)")
	fmt.Println("  - Use let vars; to declare variables")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  jodin> let x;")
	fmt.Println("  jodin> x = 42;")
	fmt.Println("  jodin> x + 8;")
	fmt.Println()
}
