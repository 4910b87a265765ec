package codegen

import (
	"fmt"
	"runtime"
)

// ---------------------------------------------------------------------------
// Target — per-platform description of the emitted x86-64 assembly
// ---------------------------------------------------------------------------

// OSKind identifies the target operating system.
type OSKind int

const (
	OSLinux OSKind = iota
	OSDarwin
	OSWindows
)

func (o OSKind) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSDarwin:
		return "darwin"
	case OSWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// AsmFlavor selects the assembly dialect.
type AsmFlavor int

const (
	GAS AsmFlavor = iota // AT&T syntax, GNU assembler
	NASM                 // Intel syntax, NASM
)

func (f AsmFlavor) String() string {
	if f == NASM {
		return "nasm"
	}
	return "gas"
}

// Target describes one supported x86-64 platform: the assembly flavor,
// the two argument registers of its variadic calling convention (format
// selector first, payload second) and the stack scratch space the callee
// may clobber around a call.
type Target struct {
	OS           OSKind
	Flavor       AsmFlavor
	SymbolPrefix string    // "_" on Darwin
	ArgRegs      [2]string // without syntax decoration
	ShadowSpace  int       // bytes reserved around variadic calls (Win64)
}

var targets = map[OSKind]*Target{
	OSLinux: {
		OS:      OSLinux,
		Flavor:  GAS,
		ArgRegs: [2]string{"rdi", "rsi"},
	},
	OSDarwin: {
		OS:           OSDarwin,
		Flavor:       GAS,
		SymbolPrefix: "_",
		ArgRegs:      [2]string{"rdi", "rsi"},
	},
	OSWindows: {
		OS:          OSWindows,
		Flavor:      NASM,
		ArgRegs:     [2]string{"rcx", "rdx"},
		ShadowSpace: 32,
	},
}

// ResolveTarget maps an os/arch pair to a Target. Only x86-64 is
// supported.
func ResolveTarget(osName, archName string) (*Target, error) {
	switch archName {
	case "amd64", "x86_64", "x86-64":
	default:
		return nil, fmt.Errorf("unsupported architecture %q (only amd64 is supported)", archName)
	}
	switch osName {
	case "linux":
		return targets[OSLinux], nil
	case "darwin", "macos":
		return targets[OSDarwin], nil
	case "windows":
		return targets[OSWindows], nil
	default:
		return nil, fmt.Errorf("unsupported OS %q (supported: linux, darwin, windows)", osName)
	}
}

// HostTarget resolves the target for the machine the compiler runs on.
func HostTarget() (*Target, error) {
	return ResolveTarget(runtime.GOOS, runtime.GOARCH)
}

// Sym applies the platform symbol prefix to a global name.
func (t *Target) Sym(name string) string {
	return t.SymbolPrefix + name
}

// OSName returns the lowercase OS name used in build paths and flags.
func (t *Target) OSName() string { return t.OS.String() }

// ArchName returns the architecture name used in build paths and flags.
func (t *Target) ArchName() string { return "amd64" }

// FileExtAsm returns the assembly file extension for this target.
func (t *Target) FileExtAsm() string {
	if t.Flavor == NASM {
		return ".asm"
	}
	return ".s"
}

// FileExtObj returns the object file extension for this target.
func (t *Target) FileExtObj() string {
	if t.OS == OSWindows {
		return ".obj"
	}
	return ".o"
}

// FileExtExe returns the executable extension for this target.
func (t *Target) FileExtExe() string {
	if t.OS == OSWindows {
		return ".exe"
	}
	return ""
}
