package codegen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
)

// ---------------------------------------------------------------------------
// Toolchain — assembler + linker invocation for each target
// ---------------------------------------------------------------------------

// Toolchain represents the external programs used to assemble and link.
// Linking goes through the C compiler driver so the C runtime provides
// printf and the entry glue.
type Toolchain struct {
	Target   *Target
	BuildDir string
	AsmFile  string // path to the assembly file
	ObjFile  string // path to the object file
	ExeFile  string // path to the final executable
	Verbose  bool
	CC       string // linker driver, defaults to $KATAPPA_CC or cc
}

// NewToolchain creates a Toolchain for the given target and build directory.
func NewToolchain(target *Target, buildDir, baseName string) *Toolchain {
	return &Toolchain{
		Target:   target,
		BuildDir: buildDir,
		AsmFile:  filepath.Join(buildDir, baseName+target.FileExtAsm()),
		ObjFile:  filepath.Join(buildDir, baseName+target.FileExtObj()),
		ExeFile:  filepath.Join(buildDir, baseName+target.FileExtExe()),
		CC:       env.Str("KATAPPA_CC", "cc"),
	}
}

// WriteAssembly writes the assembly string to the .s/.asm file.
func (tc *Toolchain) WriteAssembly(asm string) error {
	return os.WriteFile(tc.AsmFile, []byte(asm), 0644)
}

// Assemble invokes the assembler to produce an object file.
func (tc *Toolchain) Assemble() error {
	if tc.Target.Flavor == NASM {
		return tc.assembleNASM()
	}
	return tc.assembleGAS()
}

func (tc *Toolchain) assembleGAS() error {
	var cmd *exec.Cmd
	switch tc.Target.OS {
	case OSDarwin:
		cmd = exec.Command("as", "-arch", "x86_64", "-o", tc.ObjFile, tc.AsmFile)
	default:
		cmd = exec.Command("as", "--64", "-o", tc.ObjFile, tc.AsmFile)
	}
	return tc.runCmd(cmd, "assemble")
}

func (tc *Toolchain) assembleNASM() error {
	cmd := exec.Command("nasm", "-f", "win64", "-o", tc.ObjFile, tc.AsmFile)
	return tc.runCmd(cmd, "assemble (nasm)")
}

// Link produces the final executable.
func (tc *Toolchain) Link() error {
	if tc.Target.OS == OSWindows {
		return tc.linkWindows()
	}
	// The C driver pulls in crt0 and libc, which own the process entry
	// and the printf the emitted code calls.
	cmd := exec.Command(tc.CC, "-o", tc.ExeFile, tc.ObjFile)
	return tc.runCmd(cmd, "link")
}

func (tc *Toolchain) linkWindows() error {
	// Try GoLink first, then MSVC link. msvcrt provides printf.
	if golink, err := exec.LookPath("golink"); err == nil {
		cmd := exec.Command(golink, "/entry", "main", "/console",
			tc.ObjFile, "kernel32.dll", "msvcrt.dll")
		return tc.runCmd(cmd, "link (golink)")
	}
	if link, err := exec.LookPath("link"); err == nil {
		cmd := exec.Command(link,
			"/ENTRY:main",
			"/SUBSYSTEM:CONSOLE",
			fmt.Sprintf("/OUT:%s", tc.ExeFile),
			tc.ObjFile,
			"kernel32.lib", "msvcrt.lib",
		)
		return tc.runCmd(cmd, "link (msvc)")
	}
	return fmt.Errorf("no suitable linker found for Windows (tried golink, link.exe)")
}

func (tc *Toolchain) runCmd(cmd *exec.Cmd, stage string) error {
	if tc.Verbose {
		fmt.Printf("[toolchain] %s: %s\n", stage, strings.Join(cmd.Args, " "))
	}

	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.Stdout = os.Stdout

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\n%s", stage, err, stderr.String())
	}
	return nil
}

// DetectToolchain checks whether the required external tools are present
// for the target and returns the names of the missing ones.
func DetectToolchain(target *Target) []string {
	var missing []string

	if target.Flavor == NASM {
		if _, err := exec.LookPath("nasm"); err != nil {
			missing = append(missing, "nasm")
		}
	} else if _, err := exec.LookPath("as"); err != nil {
		missing = append(missing, "as (assembler)")
	}

	if target.OS == OSWindows {
		hasLinker := false
		for _, l := range []string{"golink", "link"} {
			if _, err := exec.LookPath(l); err == nil {
				hasLinker = true
				break
			}
		}
		if !hasLinker {
			missing = append(missing, "golink or link.exe (linker)")
		}
	} else {
		cc := env.Str("KATAPPA_CC", "cc")
		if _, err := exec.LookPath(cc); err != nil {
			missing = append(missing, cc+" (linker driver)")
		}
	}

	return missing
}
