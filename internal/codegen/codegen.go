package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SuperJPcoder/katappa/internal/ast"
	"github.com/xyproto/env/v2"
)

// ---------------------------------------------------------------------------
// Pipeline entry point: lower -> emit -> write -> assemble -> link
// ---------------------------------------------------------------------------

// Options configures code generation.
type Options struct {
	Target     *Target
	BuildDir   string
	OutputName string // base name of the produced artifacts
	Verbose    bool
	AsmOnly    bool // stop after writing the assembly file
	SkipLink   bool // stop after assembling
}

// DefaultOptions targets the host machine and honors the
// KATAPPA_BUILD_DIR override.
func DefaultOptions() *Options {
	target, _ := HostTarget()
	return &Options{
		Target:     target,
		BuildDir:   env.Str("KATAPPA_BUILD_DIR", "build"),
		OutputName: "out",
	}
}

// Result reports the artifacts of one compilation.
type Result struct {
	AsmFile  string
	ObjFile  string
	ExeFile  string
	IRDump   string
	Warnings []string
}

// Generate lowers the program, emits assembly for the target, and drives
// the external assembler and linker. Artifacts land in a per-platform
// subdirectory of BuildDir.
func Generate(program *ast.Program, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Target == nil {
		target, err := HostTarget()
		if err != nil {
			return nil, err
		}
		opts.Target = target
	}

	mod, err := Lower(program)
	if err != nil {
		return nil, err
	}

	result := &Result{IRDump: mod.DebugDump()}
	if opts.Verbose {
		fmt.Println("--- IR ---")
		fmt.Print(result.IRDump)
		fmt.Println("--- End IR ---")
	}

	asm, err := EmitX86_64(mod, opts.Target)
	if err != nil {
		return nil, err
	}

	platformDir := filepath.Join(opts.BuildDir,
		fmt.Sprintf("%s_%s", opts.Target.OSName(), opts.Target.ArchName()))
	if err := os.MkdirAll(platformDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	tc := NewToolchain(opts.Target, platformDir, opts.OutputName)
	tc.Verbose = opts.Verbose

	if err := tc.WriteAssembly(asm); err != nil {
		return nil, fmt.Errorf("failed to write assembly: %w", err)
	}
	result.AsmFile = tc.AsmFile

	if opts.AsmOnly {
		return result, nil
	}

	if missing := DetectToolchain(opts.Target); len(missing) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("assembly written, but missing tools for %s: %v", opts.Target.OSName(), missing))
		return result, nil
	}

	if err := tc.Assemble(); err != nil {
		return nil, err
	}
	result.ObjFile = tc.ObjFile

	if opts.SkipLink {
		return result, nil
	}

	if err := tc.Link(); err != nil {
		return nil, err
	}
	result.ExeFile = tc.ExeFile
	return result, nil
}
