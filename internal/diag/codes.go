package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexer
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexUnterminatedDirective    Code = 1005

	// Parser
	SynInfo                Code = 2000
	SynUnexpectedToken     Code = 2001
	SynExpectSemicolon     Code = 2002
	SynExpectIdentifier    Code = 2003
	SynExpectType          Code = 2004
	SynExpectEquals        Code = 2005
	SynExpectColon         Code = 2006
	SynUnclosedParen       Code = 2007
	SynUnclosedBracket     Code = 2008
	SynExpectEnd           Code = 2009
	SynExpectUnitHeader    Code = 2010
	SynUnexpectedTopLevel  Code = 2011
	SynBadTypeArguments    Code = 2012
	SynUnexpectedEndOfFile Code = 2013

	// Semantic
	SemaInfo                  Code = 3000
	SemaDuplicateSymbol       Code = 3001
	SemaUnresolvedSymbol      Code = 3002
	SemaUnresolvedUnit        Code = 3003
	SemaUnresolvedType        Code = 3004
	SemaConstraintViolated    Code = 3005
	SemaAmbiguousOverload     Code = 3006
	SemaMissingImplementation Code = 3007
	SemaCircularType          Code = 3008
	SemaUnitNameMismatch      Code = 3009

	// IO
	IOInfo          Code = 4000
	IOLoadFileError Code = 4001
	IOReadDirError  Code = 4002
	IOCacheError    Code = 4003

	// Project
	ProjInfo              Code = 5000
	ProjConfigInvalid     Code = 5001
	ProjStdlibMissing     Code = 5002
	ProjStdlibUnitSkipped Code = 5003
	ProjDuplicateUnit     Code = 5004

	// Preprocessor
	PPInfo                 Code = 6000
	PPBadDirective         Code = 6001
	PPIncludeNotFound      Code = 6002
	PPSelfInclude          Code = 6003
	PPIncludeTooDeep       Code = 6004
	PPUnexpectedElse       Code = 6005
	PPUnexpectedEndIf      Code = 6006
	PPUnterminatedIf       Code = 6007
	PPDirectiveWrongTarget Code = 6008
	PPIfOptUnsupported     Code = 6009

	// Observability
	ObsInfo    Code = 7000
	ObsTimings Code = 7001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		LexInfo:                     "Lexical information",
		LexUnknownChar:              "Unknown character",
		LexUnterminatedString:       "Unterminated string",
		LexUnterminatedBlockComment: "Unterminated block comment",
		LexBadNumber:                "Bad number",
		LexUnterminatedDirective:    "Unterminated compiler directive",

		SynInfo:                "Syntax information",
		SynUnexpectedToken:     "Unexpected token",
		SynExpectSemicolon:     "Expect semicolon",
		SynExpectIdentifier:    "Expect identifier",
		SynExpectType:          "Expect type",
		SynExpectEquals:        "Expect '='",
		SynExpectColon:         "Expect ':'",
		SynUnclosedParen:       "Unclosed parenthesis",
		SynUnclosedBracket:     "Unclosed bracket",
		SynExpectEnd:           "Expect 'end'",
		SynExpectUnitHeader:    "Expect unit, program, library or package header",
		SynUnexpectedTopLevel:  "Unexpected top level",
		SynBadTypeArguments:    "Malformed type argument list",
		SynUnexpectedEndOfFile: "Unexpected end of file",

		SemaInfo:                  "Semantic information",
		SemaDuplicateSymbol:       "Duplicate symbol",
		SemaUnresolvedSymbol:      "Unresolved symbol",
		SemaUnresolvedUnit:        "Unresolved unit",
		SemaUnresolvedType:        "Unresolved type",
		SemaConstraintViolated:    "Generic constraint violated",
		SemaAmbiguousOverload:     "Ambiguous overload",
		SemaMissingImplementation: "Method implementation has no declaration",
		SemaCircularType:          "Circular type definition",
		SemaUnitNameMismatch:      "Unit name does not match file name",

		IOInfo:          "I/O information",
		IOLoadFileError: "Failed to load file",
		IOReadDirError:  "Failed to read directory",
		IOCacheError:    "Token cache failure",

		ProjInfo:              "Project information",
		ProjConfigInvalid:     "Invalid project configuration",
		ProjStdlibMissing:     "Standard library not found",
		ProjStdlibUnitSkipped: "Standard library unit skipped",
		ProjDuplicateUnit:     "Duplicate unit name",

		PPInfo:                 "Preprocessor information",
		PPBadDirective:         "Malformed compiler directive",
		PPIncludeNotFound:      "Include file not found",
		PPSelfInclude:          "File includes itself",
		PPIncludeTooDeep:       "Include nesting too deep",
		PPUnexpectedElse:       "$ELSE or $ELSEIF without $IF",
		PPUnexpectedEndIf:      "$ENDIF without $IF",
		PPUnterminatedIf:       "Unterminated conditional block",
		PPDirectiveWrongTarget: "Directive ignored on this platform",
		PPIfOptUnsupported:     "$IFOPT is never satisfied",

		ObsInfo:    "Observability information",
		ObsTimings: "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PPR%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
