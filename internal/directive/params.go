package directive

import (
	"strings"

	"pasfront/internal/toolchain"
)

// ParamKind identifies a directive that carries an argument rather than an
// on/off state.
type ParamKind uint8

const (
	ParamAppType ParamKind = iota + 1
	ParamLink
	ParamResource
	ParamMinStackSize
	ParamMaxStackSize
	ParamMemorySizes
	ParamImageBase
	ParamExtension
	ParamDescription
	ParamRTTI
	ParamWarn
	ParamMessage
	ParamRegion
	ParamEndRegion
	ParamHPPEmit
	ParamExternalSym
	ParamNoDefine
	ParamNoInclude
	ParamLibPrefix
	ParamLibSuffix
	ParamLibVersion
	ParamSOName
	ParamSOPrefix
	ParamSOSuffix
	ParamSOVersion
	ParamSetPEFlags
	ParamSetPEOptFlags
	ParamSetPEOSVersion
	ParamSetPESubsysVersion
	ParamSetPEUserVersion
	ParamCodeAlign
	ParamInline
	ParamObjTypeName
	ParamResourceReserve
	paramCount
)

type paramInfo struct {
	name      string
	letter    byte
	platforms []toolchain.Platform // nil: every platform
}

var (
	posixOnly   = []toolchain.Platform{toolchain.MacOS, toolchain.Linux, toolchain.IOS, toolchain.Android}
	linuxOnly   = []toolchain.Platform{toolchain.Linux, toolchain.Android}
	windowsOnly = []toolchain.Platform{toolchain.Windows}
)

var paramTable = [paramCount]paramInfo{
	ParamAppType:            {"APPTYPE", 0, windowsOnly},
	ParamLink:               {"LINK", 'L', nil},
	ParamResource:           {"RESOURCE", 'R', nil},
	ParamMinStackSize:       {"MINSTACKSIZE", 0, nil},
	ParamMaxStackSize:       {"MAXSTACKSIZE", 0, nil},
	ParamMemorySizes:        {"MEMORYSIZES", 'M', nil},
	ParamImageBase:          {"IMAGEBASE", 0, windowsOnly},
	ParamExtension:          {"EXTENSION", 'E', nil},
	ParamDescription:        {"DESCRIPTION", 'D', nil},
	ParamRTTI:               {"RTTI", 0, nil},
	ParamWarn:               {"WARN", 0, nil},
	ParamMessage:            {"MESSAGE", 0, nil},
	ParamRegion:             {"REGION", 0, nil},
	ParamEndRegion:          {"ENDREGION", 0, nil},
	ParamHPPEmit:            {"HPPEMIT", 0, nil},
	ParamExternalSym:        {"EXTERNALSYM", 0, nil},
	ParamNoDefine:           {"NODEFINE", 0, nil},
	ParamNoInclude:          {"NOINCLUDE", 0, nil},
	ParamLibPrefix:          {"LIBPREFIX", 0, nil},
	ParamLibSuffix:          {"LIBSUFFIX", 0, nil},
	ParamLibVersion:         {"LIBVERSION", 0, posixOnly},
	ParamSOName:             {"SONAME", 0, linuxOnly},
	ParamSOPrefix:           {"SOPREFIX", 0, linuxOnly},
	ParamSOSuffix:           {"SOSUFFIX", 0, linuxOnly},
	ParamSOVersion:          {"SOVERSION", 0, linuxOnly},
	ParamSetPEFlags:         {"SETPEFLAGS", 0, windowsOnly},
	ParamSetPEOptFlags:      {"SETPEOPTFLAGS", 0, windowsOnly},
	ParamSetPEOSVersion:     {"SETPEOSVERSION", 0, windowsOnly},
	ParamSetPESubsysVersion: {"SETPESUBSYSVERSION", 0, windowsOnly},
	ParamSetPEUserVersion:   {"SETPEUSERVERSION", 0, windowsOnly},
	ParamCodeAlign:          {"CODEALIGN", 0, nil},
	ParamInline:             {"INLINE", 0, nil},
	ParamObjTypeName:        {"OBJTYPENAME", 0, nil},
	ParamResourceReserve:    {"RESOURCERESERVE", 0, nil},
}

var (
	paramByName   = map[string]ParamKind{}
	paramByLetter = map[byte]ParamKind{}
)

func init() {
	for k := ParamKind(1); k < paramCount; k++ {
		info := paramTable[k]
		paramByName[info.name] = k
		if info.letter != 0 {
			paramByLetter[info.letter] = k
		}
	}
}

// LookupParam finds a parameter directive by long name or letter.
func LookupParam(name string) (ParamKind, bool) {
	up := strings.ToUpper(name)
	if len(up) == 1 {
		k, ok := paramByLetter[up[0]]
		return k, ok
	}
	k, ok := paramByName[up]
	return k, ok
}

func (k ParamKind) String() string {
	if k > 0 && k < paramCount {
		return paramTable[k].name
	}
	return "UNKNOWN"
}

// SupportedOn reports whether the directive has any effect on p.
func (k ParamKind) SupportedOn(p toolchain.Platform) bool {
	if k == 0 || k >= paramCount {
		return false
	}
	plats := paramTable[k].platforms
	if plats == nil {
		return true
	}
	for _, x := range plats {
		if x == p {
			return true
		}
	}
	return false
}
