package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const maxSeedBytes = 64 << 10 // 64 KiB

// inlineSeeds cover each directive family and the main declaration forms.
var inlineSeeds = []string{
	"",
	"program P; begin end.",
	"unit U;\ninterface\nimplementation\nend.\n",
	"unit U;\ninterface\nuses System.SysUtils, Classes;\ntype\n  TFoo = class(TObject)\n  private\n    FX: Integer;\n  public\n    property X: Integer read FX write FX;\n  end;\nimplementation\nend.\n",
	"unit U; interface type TRec = record A, B: Byte; end; TArr = array[0..3] of TRec; implementation end.",
	"unit U; interface type TList<T> = class end; TInts = TList<Integer>; implementation end.",
	"unit U; interface const C = 1 shl 4; S = 'it''s'; implementation end.",
	"{$IFDEF MSWINDOWS} unit Win; {$ELSE} unit Other; {$ENDIF} interface implementation end.",
	"{$IF CompilerVersion >= 35.0} {$DEFINE NEW} {$IFEND} {$IFNDEF NEW} x {$ENDIF}",
	"{$IF Defined(A) and not Declared(B)} a {$ELSEIF SizeOf(Pointer) = 8} b {$ELSE} c {$ENDIF}",
	"{$R+}{$Q-}{$ALIGN 8}{$MINENUMSIZE 4}{$IFOPT R+} r {$ENDIF}",
	"{$I missing.inc} unit U;",
	"(* old *) { new } // line\nunit U;",
	"{$IFDEF", "{$ENDIF}", "{$ELSE}", "'unterminated", "(* open",
	"procedure P(const A: array of const; var B; out C: string = ''); begin end;",
	"function F: Integer; begin Result := Inherited F + Self.G(@H)[0]^.I; end;",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

// addTestdataSeeds adds every Pascal source found under testdata.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".pas", ".dpr", ".dpk", ".inc":
		default:
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
