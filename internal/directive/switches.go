package directive

import "strings"

// SwitchKind identifies a compiler switch.
type SwitchKind uint8

const (
	SwitchAlign SwitchKind = iota + 1
	SwitchBoolEval
	SwitchAssertions
	SwitchDebugInfo
	SwitchImportedData
	SwitchLongStrings
	SwitchIOChecks
	SwitchWriteableConst
	SwitchLocalSymbols
	SwitchTypeInfo
	SwitchOptimization
	SwitchOpenStrings
	SwitchOverflowChecks
	SwitchRangeChecks
	SwitchTypedAddress
	SwitchSafeDivide
	SwitchVarStringChecks
	SwitchStackFrames
	SwitchExtendedSyntax
	SwitchReferenceInfo
	SwitchDefinitionInfo
	SwitchMinEnumSize
	SwitchScopedEnums
	SwitchPointerMath
	SwitchLegacyIfEnd
	SwitchZeroBasedStrings
	SwitchHighCharUnicode
	SwitchExcessPrecision
	SwitchMethodInfo
	SwitchRealCompatibility
	SwitchOldTypeLayout
	SwitchStrongLinkTypes
	SwitchWeakLinkRTTI
	SwitchDesignOnly
	SwitchRunOnly
	SwitchImplicitBuild
	SwitchDenyPackageUnit
	SwitchWeakPackageUnit
	SwitchObjExportAll
	SwitchWarnings
	SwitchHints
	switchCount
)

type switchInfo struct {
	name   string
	letter byte  // 0 when there is no shorthand
	def    bool  // compiler default
	digits []int // accepted numeric values, nil for plain on/off switches
	on     int   // value implied by '+' or ON for numeric switches
}

var switchTable = [switchCount]switchInfo{
	SwitchAlign:             {"ALIGN", 'A', true, []int{1, 2, 4, 8, 16}, 8},
	SwitchBoolEval:          {"BOOLEVAL", 'B', false, nil, 0},
	SwitchAssertions:        {"ASSERTIONS", 'C', true, nil, 0},
	SwitchDebugInfo:         {"DEBUGINFO", 'D', true, nil, 0},
	SwitchImportedData:      {"IMPORTEDDATA", 'G', true, nil, 0},
	SwitchLongStrings:       {"LONGSTRINGS", 'H', true, nil, 0},
	SwitchIOChecks:          {"IOCHECKS", 'I', true, nil, 0},
	SwitchWriteableConst:    {"WRITEABLECONST", 'J', false, nil, 0},
	SwitchLocalSymbols:      {"LOCALSYMBOLS", 'L', true, nil, 0},
	SwitchTypeInfo:          {"TYPEINFO", 'M', false, nil, 0},
	SwitchOptimization:      {"OPTIMIZATION", 'O', true, nil, 0},
	SwitchOpenStrings:       {"OPENSTRINGS", 'P', true, nil, 0},
	SwitchOverflowChecks:    {"OVERFLOWCHECKS", 'Q', false, nil, 0},
	SwitchRangeChecks:       {"RANGECHECKS", 'R', false, nil, 0},
	SwitchTypedAddress:      {"TYPEDADDRESS", 'T', false, nil, 0},
	SwitchSafeDivide:        {"SAFEDIVIDE", 'U', false, nil, 0},
	SwitchVarStringChecks:   {"VARSTRINGCHECKS", 'V', true, nil, 0},
	SwitchStackFrames:       {"STACKFRAMES", 'W', false, nil, 0},
	SwitchExtendedSyntax:    {"EXTENDEDSYNTAX", 'X', true, nil, 0},
	SwitchReferenceInfo:     {"REFERENCEINFO", 'Y', false, nil, 0},
	SwitchDefinitionInfo:    {"DEFINITIONINFO", 0, true, nil, 0},
	SwitchMinEnumSize:       {"MINENUMSIZE", 'Z', false, []int{1, 2, 4}, 4},
	SwitchScopedEnums:       {"SCOPEDENUMS", 0, false, nil, 0},
	SwitchPointerMath:       {"POINTERMATH", 0, false, nil, 0},
	SwitchLegacyIfEnd:       {"LEGACYIFEND", 0, false, nil, 0},
	SwitchZeroBasedStrings:  {"ZEROBASEDSTRINGS", 0, false, nil, 0},
	SwitchHighCharUnicode:   {"HIGHCHARUNICODE", 0, false, nil, 0},
	SwitchExcessPrecision:   {"EXCESSPRECISION", 0, true, nil, 0},
	SwitchMethodInfo:        {"METHODINFO", 0, false, nil, 0},
	SwitchRealCompatibility: {"REALCOMPATIBILITY", 0, false, nil, 0},
	SwitchOldTypeLayout:     {"OLDTYPELAYOUT", 0, false, nil, 0},
	SwitchStrongLinkTypes:   {"STRONGLINKTYPES", 0, false, nil, 0},
	SwitchWeakLinkRTTI:      {"WEAKLINKRTTI", 0, false, nil, 0},
	SwitchDesignOnly:        {"DESIGNONLY", 0, false, nil, 0},
	SwitchRunOnly:           {"RUNONLY", 0, false, nil, 0},
	SwitchImplicitBuild:     {"IMPLICITBUILD", 0, true, nil, 0},
	SwitchDenyPackageUnit:   {"DENYPACKAGEUNIT", 0, false, nil, 0},
	SwitchWeakPackageUnit:   {"WEAKPACKAGEUNIT", 0, false, nil, 0},
	SwitchObjExportAll:      {"OBJEXPORTALL", 0, false, nil, 0},
	SwitchWarnings:          {"WARNINGS", 0, true, nil, 0},
	SwitchHints:             {"HINTS", 0, true, nil, 0},
}

var (
	switchByName   = map[string]SwitchKind{}
	switchByLetter = map[byte]SwitchKind{}
)

func init() {
	for k := SwitchKind(1); k < switchCount; k++ {
		info := switchTable[k]
		switchByName[info.name] = k
		if info.letter != 0 {
			switchByLetter[info.letter] = k
		}
	}
}

// Switches returns every switch kind.
func Switches() []SwitchKind {
	out := make([]SwitchKind, 0, switchCount-1)
	for k := SwitchKind(1); k < switchCount; k++ {
		out = append(out, k)
	}
	return out
}

// LookupSwitch finds a switch by long name or single-letter shorthand.
func LookupSwitch(name string) (SwitchKind, bool) {
	up := strings.ToUpper(name)
	if len(up) == 1 {
		k, ok := switchByLetter[up[0]]
		return k, ok
	}
	k, ok := switchByName[up]
	return k, ok
}

func (k SwitchKind) String() string {
	if k > 0 && k < switchCount {
		return switchTable[k].name
	}
	return "UNKNOWN"
}

// Letter returns the shorthand letter, 0 if none.
func (k SwitchKind) Letter() byte {
	if k > 0 && k < switchCount {
		return switchTable[k].letter
	}
	return 0
}

// Default reports the state the compiler starts with.
func (k SwitchKind) Default() bool {
	if k > 0 && k < switchCount {
		return switchTable[k].def
	}
	return false
}

// Numeric reports whether the switch takes digit arguments ({$A8}, {$Z4}).
func (k SwitchKind) Numeric() bool {
	return k > 0 && k < switchCount && switchTable[k].digits != nil
}

func (k SwitchKind) acceptsValue(v int) bool {
	for _, d := range switchTable[k].digits {
		if d == v {
			return true
		}
	}
	return false
}

// setting builds the normalized setting for an on/off spelling. Numeric
// switches get the value the compiler substitutes: {$A+} is {$A8},
// {$Z-} is {$Z1}.
func setting(k SwitchKind, active bool) SwitchSetting {
	s := SwitchSetting{Kind: k, Active: active}
	if k.Numeric() {
		s.Value = 1
		if active {
			s.Value = switchTable[k].on
		}
	}
	return s
}

// DefaultSetting is the state a switch has before any directive mentions it.
func DefaultSetting(k SwitchKind) SwitchSetting {
	return setting(k, k.Default())
}
