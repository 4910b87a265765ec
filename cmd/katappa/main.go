package main

import (
	"fmt"
	"os"
	"time"

	"github.com/SuperJPcoder/katappa/internal/ast"
	"github.com/SuperJPcoder/katappa/internal/codegen"
	"github.com/SuperJPcoder/katappa/internal/lexer"
	"github.com/SuperJPcoder/katappa/internal/parser"
	"github.com/SuperJPcoder/katappa/internal/semantic"
	"github.com/tebeka/atexit"
	"github.com/xyproto/env/v2"
)

const VERSION = "1.0.0"

var debugMode = false

func main() {
	start := time.Now()
	exitCode := run()
	if exitCode == 0 {
		atexit.Register(func() {
			fmt.Printf("Compile time: %s\n", time.Since(start))
		})
	}
	atexit.Exit(exitCode)
}

func run() int {
	// KATAPPA_DEBUG=1 or the --debug flag enables diagnostic output.
	debugMode = env.Bool("KATAPPA_DEBUG")
	for _, arg := range os.Args[1:] {
		if arg == "--debug" {
			debugMode = true
			break
		}
	}

	fmt.Println("Katappa Compiler V" + VERSION)
	printDebug("Using debug mode.")

	if len(os.Args) < 2 {
		fmt.Println("Usage: katappa [flags] <file.katp>")
		return 1
	}

	// Find the source file (first non-flag argument).
	var filePath string
	for _, arg := range os.Args[1:] {
		if len(arg) > 0 && arg[0] != '-' {
			filePath = arg
			break
		}
	}
	if filePath == "" {
		fmt.Println("Usage: katappa [flags] <file.katp>")
		return 1
	}
	printDebug("Building using: " + filePath)

	source, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Println("Error: Could not read file.")
		fmt.Println("Error details: " + err.Error())
		return 1
	}

	// --- Lexing ---
	printDebug("Starting lexing process...")
	tokens, lexErrors := lexer.Lex(string(source))
	if len(lexErrors) > 0 {
		fmt.Println("Lexing errors:")
		for _, e := range lexErrors {
			fmt.Printf("  %s\n", e.Error())
		}
		return 1
	}
	printDebug(fmt.Sprintf("Lexing complete. %d tokens produced.", len(tokens)))
	printTokens(tokens)

	// --- Parsing ---
	printDebug("Starting parsing process...")
	program, parseErrors := parser.Parse(tokens)
	if len(parseErrors) > 0 {
		fmt.Println("Parse errors:")
		for _, e := range parseErrors {
			fmt.Printf("  %s\n", e.Error())
		}
		return 1
	}
	printDebug("Parsing complete. No errors.")

	printDebug("--- AST ---")
	printDebug(ast.DebugString(program))
	printDebug("--- End AST ---")

	// --- Semantic analysis ---
	printDebug("Starting semantic analysis...")
	diagnostics := semantic.Analyze(program)

	var semWarnings, semErrors []semantic.Diagnostic
	for _, d := range diagnostics {
		if d.Severity == semantic.Warning {
			semWarnings = append(semWarnings, d)
		} else {
			semErrors = append(semErrors, d)
		}
	}

	if len(semWarnings) > 0 {
		fmt.Println("Warnings:")
		for _, w := range semWarnings {
			fmt.Printf("  %s\n", w.Error())
		}
	}

	if len(semErrors) > 0 {
		fmt.Println("Semantic errors:")
		for _, e := range semErrors {
			fmt.Printf("  %s\n", e.Error())
		}
		return 1
	}
	printDebug("Semantic analysis complete. No errors.")

	// --- Code generation ---
	printDebug("Starting code generation...")

	codegenOpts := codegen.DefaultOptions()
	codegenOpts.Verbose = debugMode

	for _, arg := range os.Args[1:] {
		switch arg {
		case "--asm-only":
			codegenOpts.AsmOnly = true
		case "--skip-link":
			codegenOpts.SkipLink = true
		}
	}

	for _, arg := range os.Args[1:] {
		if len(arg) > 9 && arg[:9] == "--target=" {
			parts := splitTarget(arg[9:])
			if len(parts) != 2 {
				fmt.Printf("Error: invalid target format %q (expected os/arch, e.g. linux/amd64)\n", arg[9:])
				return 1
			}
			target, err := codegen.ResolveTarget(parts[0], parts[1])
			if err != nil {
				fmt.Printf("Error: %s\n", err)
				return 1
			}
			codegenOpts.Target = target
		}
	}

	result, err := codegen.Generate(program, codegenOpts)
	if err != nil {
		fmt.Printf("Codegen error: %s\n", err)
		return 1
	}

	fmt.Println("Build artifacts:")
	if result.AsmFile != "" {
		fmt.Printf("  Assembly: %s\n", result.AsmFile)
	}
	if result.ObjFile != "" {
		fmt.Printf("  Object:   %s\n", result.ObjFile)
	}
	if result.ExeFile != "" {
		fmt.Printf("  Binary:   %s\n", result.ExeFile)
	}

	if len(result.Warnings) > 0 {
		fmt.Println()
		for _, w := range result.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}

	printDebug("Compilation pipeline finished successfully.")
	return 0
}

func splitTarget(s string) []string {
	for i, c := range s {
		if c == '/' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}

/**
* Prints a debug message to the console.
* @param message The message to print.
 */
func printDebug(message string) {
	if !debugMode {
		return
	}
	fmt.Println("[DEBUG] " + message)
}

func printTokens(tokens []lexer.Token) {
	if !debugMode {
		return
	}
	for _, token := range tokens {
		fmt.Printf("[DEBUG] Token: %s, Value: %s, Line: %d, Column: %d\n", token.Type, token.Value, token.Line, token.Column)
	}
}
