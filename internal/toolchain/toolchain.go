// Package toolchain describes the compiler a code base is analyzed for: the
// target platform and architecture, the compiler version and the conditional
// symbols those imply.
package toolchain

import (
	"fmt"
	"strings"
)

// Platform is an operating system target.
type Platform uint8

const (
	Windows Platform = iota + 1
	MacOS
	Linux
	IOS
	Android
)

func (p Platform) String() string {
	switch p {
	case Windows:
		return "Windows"
	case MacOS:
		return "macOS"
	case Linux:
		return "Linux"
	case IOS:
		return "iOS"
	case Android:
		return "Android"
	}
	return "unknown"
}

// IsPosix reports whether p is a POSIX target.
func (p Platform) IsPosix() bool { return p != Windows && p != 0 }

// Architecture is a CPU target.
type Architecture uint8

const (
	X86 Architecture = iota + 1
	X64
	ARM32
	ARM64
)

func (a Architecture) String() string {
	switch a {
	case X86:
		return "x86"
	case X64:
		return "x64"
	case ARM32:
		return "ARM32"
	case ARM64:
		return "ARM64"
	}
	return "unknown"
}

// Is64Bit reports whether pointers are 8 bytes wide.
func (a Architecture) Is64Bit() bool { return a == X64 || a == ARM64 }

// Toolchain is one Delphi command-line compiler.
type Toolchain uint8

const (
	DCC32 Toolchain = iota + 1
	DCC64
	DCCOSX
	DCCOSX64
	DCCOSXARM64
	DCCIOSARM
	DCCIOSARM64
	DCCIOSSIMARM64
	DCCAARM
	DCCAARM64
	DCCLINUX64
)

type toolchainInfo struct {
	name     string
	platform Platform
	arch     Architecture
	defines  []string
}

var toolchains = map[Toolchain]toolchainInfo{
	DCC32:          {"DCC32", Windows, X86, []string{"MSWINDOWS", "WIN32", "CPUX86", "CPU386", "CPU32BITS", "ASSEMBLER"}},
	DCC64:          {"DCC64", Windows, X64, []string{"MSWINDOWS", "WIN64", "CPUX64", "CPU64BITS", "ASSEMBLER"}},
	DCCOSX:         {"DCCOSX", MacOS, X86, []string{"MACOS", "MACOS32", "POSIX", "POSIX32", "CPUX86", "CPU386", "CPU32BITS", "PIC", "ALIGN_STACK", "UNDERSCOREIMPORTNAME", "ASSEMBLER"}},
	DCCOSX64:       {"DCCOSX64", MacOS, X64, []string{"MACOS", "MACOS64", "POSIX", "POSIX64", "CPUX64", "CPU64BITS", "PIC"}},
	DCCOSXARM64:    {"DCCOSXARM64", MacOS, ARM64, []string{"MACOS", "MACOS64", "POSIX", "POSIX64", "CPUARM", "CPUARM64", "CPU64BITS", "PIC"}},
	DCCIOSARM:      {"DCCIOSARM", IOS, ARM32, []string{"IOS", "IOS32", "POSIX", "POSIX32", "CPUARM", "CPUARM32", "CPU32BITS", "PIC"}},
	DCCIOSARM64:    {"DCCIOSARM64", IOS, ARM64, []string{"IOS", "IOS64", "POSIX", "POSIX64", "CPUARM", "CPUARM64", "CPU64BITS", "PIC"}},
	DCCIOSSIMARM64: {"DCCIOSSIMARM64", IOS, ARM64, []string{"IOS", "IOS64", "IOSSIMULATOR", "POSIX", "POSIX64", "CPUARM", "CPUARM64", "CPU64BITS", "PIC"}},
	DCCAARM:        {"DCCAARM", Android, ARM32, []string{"ANDROID", "ANDROID32", "POSIX", "POSIX32", "CPUARM", "CPUARM32", "CPU32BITS", "PIC"}},
	DCCAARM64:      {"DCCAARM64", Android, ARM64, []string{"ANDROID", "ANDROID64", "POSIX", "POSIX64", "CPUARM", "CPUARM64", "CPU64BITS", "PIC"}},
	DCCLINUX64:     {"DCCLINUX64", Linux, X64, []string{"LINUX", "LINUX64", "POSIX", "POSIX64", "CPUX64", "CPU64BITS", "PIC"}},
}

// All returns every known toolchain in declaration order.
func All() []Toolchain {
	out := make([]Toolchain, 0, len(toolchains))
	for t := DCC32; t <= DCCLINUX64; t++ {
		out = append(out, t)
	}
	return out
}

// Parse accepts a toolchain name in any case.
func Parse(s string) (Toolchain, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for t, info := range toolchains {
		if info.name == up {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown toolchain %q", s)
}

func (t Toolchain) String() string {
	if info, ok := toolchains[t]; ok {
		return info.name
	}
	return "unknown"
}

// Platform returns the target operating system.
func (t Toolchain) Platform() Platform { return toolchains[t].platform }

// Architecture returns the target CPU.
func (t Toolchain) Architecture() Architecture { return toolchains[t].arch }

// PointerSize is 4 or 8.
func (t Toolchain) PointerSize() int {
	if t.Architecture().Is64Bit() {
		return 8
	}
	return 4
}

// Is64BitPosix reports targets where LongInt and LongWord are 8 bytes.
func (t Toolchain) Is64BitPosix() bool {
	return t.Platform().IsPosix() && t.Architecture().Is64Bit()
}

// Defines returns the conditional symbols the compiler predefines.
func (t Toolchain) Defines() []string {
	return append([]string(nil), toolchains[t].defines...)
}
