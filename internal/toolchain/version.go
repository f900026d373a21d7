package toolchain

import (
	"fmt"
	"strconv"
	"strings"
)

// CompilerVersion is the compiler version in tenths: VER350 is 350 (35.0),
// VER185 is 185 (18.5).
type CompilerVersion uint16

const (
	VER120 CompilerVersion = 120 // Delphi 4
	VER140 CompilerVersion = 140 // Delphi 6
	VER150 CompilerVersion = 150 // Delphi 7
	VER180 CompilerVersion = 180 // Delphi 2006
	VER185 CompilerVersion = 185 // Delphi 2007
	VER200 CompilerVersion = 200 // Delphi 2009
	VER210 CompilerVersion = 210 // Delphi 2010
	VER220 CompilerVersion = 220 // XE
	VER230 CompilerVersion = 230 // XE2
	VER280 CompilerVersion = 280 // XE7
	VER300 CompilerVersion = 300 // 10 Seattle
	VER320 CompilerVersion = 320 // 10.2 Tokyo
	VER330 CompilerVersion = 330 // 10.3 Rio
	VER340 CompilerVersion = 340 // 10.4 Sydney
	VER350 CompilerVersion = 350 // 11 Alexandria
	VER360 CompilerVersion = 360 // 12 Athens

	// Latest is used when no version is configured.
	Latest = VER360
)

// ParseVersion accepts "VER350", "35", "35.0" and "18.5".
func ParseVersion(s string) (CompilerVersion, error) {
	s = strings.TrimSpace(s)
	up := strings.ToUpper(s)
	if rest, ok := strings.CutPrefix(up, "VER"); ok {
		n, err := strconv.ParseUint(rest, 10, 16)
		if err != nil || n < 10 {
			return 0, fmt.Errorf("invalid compiler version %q", s)
		}
		return CompilerVersion(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 1 || f > 999 {
		return 0, fmt.Errorf("invalid compiler version %q", s)
	}
	return CompilerVersion(f*10 + 0.5), nil
}

// Symbol returns the VERxxx conditional symbol.
func (v CompilerVersion) Symbol() string {
	return fmt.Sprintf("VER%d", uint16(v))
}

func (v CompilerVersion) String() string { return v.Symbol() }

// Float returns the value of the CompilerVersion constant, e.g. 35.0.
func (v CompilerVersion) Float() float64 { return float64(v) / 10 }

// RTLVersion mirrors System.RTLVersion, which tracks the compiler version
// on every release this front end knows about.
func (v CompilerVersion) RTLVersion() float64 { return v.Float() }

// AtLeast reports whether v >= other.
func (v CompilerVersion) AtLeast(other CompilerVersion) bool { return v >= other }

// Defines returns the version-dependent conditional symbols.
func (v CompilerVersion) Defines() []string {
	out := []string{v.Symbol()}
	if v.AtLeast(VER140) {
		out = append(out, "CONDITIONALEXPRESSIONS")
	}
	if v.AtLeast(VER200) {
		out = append(out, "UNICODE")
	}
	return out
}

// Target is a toolchain and compiler version pair.
type Target struct {
	Toolchain Toolchain
	Version   CompilerVersion
}

// Defines returns every predefined conditional symbol for the target.
func (t Target) Defines() []string {
	return append(t.Toolchain.Defines(), t.Version.Defines()...)
}
