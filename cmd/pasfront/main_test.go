package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pasfront/internal/diagfmt"
	"pasfront/internal/observ"
	"pasfront/internal/version"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Errorf("readUIMode accepted an invalid value")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Errorf("explicit modes ignored")
	}
}

func TestPrintTimings(t *testing.T) {
	var buf bytes.Buffer
	printTimings(&buf, "symbols", observ.Report{
		TotalMS: 3,
		Phases: []observ.PhaseReport{
			{Name: "build", DurationMS: 2, Note: "3 units"},
			{Name: "validate", DurationMS: 1},
		},
	})
	want := "symbols timings:\n" +
		"  build             2.0 ms  (3 units)\n" +
		"  validate          1.0 ms\n" +
		"  total             3.0 ms\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("timings mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	printTimings(&buf, "empty", observ.Report{})
	if buf.Len() != 0 {
		t.Errorf("empty report printed %q", buf.String())
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json", "--full")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if payload.Tool != "pasfront" || payload.Version != version.Current().Version {
		t.Errorf("payload = %+v", payload)
	}
	if payload.GitCommit == "" || payload.BuildDate == "" {
		t.Errorf("--full left fields empty: %+v", payload)
	}
	if len(payload.Compilers) == 0 || payload.Compilers[0] != "DCC32" || payload.DefaultVersion != "VER360" {
		t.Errorf("compilers = %v, default = %q", payload.Compilers, payload.DefaultVersion)
	}
}

func TestTypesCommand(t *testing.T) {
	out, _, err := execute(t, "types", "--format", "json", "--compiler", "DCC64", "--color", "off")
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	var payload diagfmt.TypesOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Toolchain != "DCC64" || len(payload.Types) == 0 {
		t.Errorf("toolchain = %s, %d types", payload.Toolchain, len(payload.Types))
	}

	if _, _, err := execute(t, "types", "--compiler", "Z80"); err == nil {
		t.Errorf("unknown toolchain accepted")
	}
}

func TestTokenizeReportsLexErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Bad.pas")
	writeFile(t, path, "unit Bad;\ns := 'abc\n")

	out, errOut, err := execute(t, "tokenize", path, "--format", "pretty", "--color", "off")
	if !errors.Is(err, errReported) {
		t.Fatalf("tokenize error = %v, want reported diagnostics", err)
	}
	if !strings.Contains(out, `"unit" at 1:1`) {
		t.Errorf("tokens missing:\n%s", out)
	}
	if !strings.Contains(errOut, "ERROR LEX1002") {
		t.Errorf("lexer error missing:\n%s", errOut)
	}
}

func TestPreprocessCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Main.pas")
	writeFile(t, path, "unit Main;\n{$IFDEF FEATURE}\nconst A = 1;\n{$ELSE}\nconst B = 2;\n{$ENDIF}\nend.\n")

	out, errOut, err := execute(t, "preprocess", path, "-D", "FEATURE", "--color", "off")
	if err != nil {
		t.Fatalf("preprocess: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "const A = 1 ;") || strings.Contains(out, "const B") {
		t.Errorf("unexpected token text: %q", out)
	}
}

const systemUnit = `unit System;

interface

type
  TObject = class
  public
    constructor Create;
    destructor Destroy; virtual;
    function ToString: string; virtual;
  end;
  TClass = class of TObject;

  IInterface = interface
    function _AddRef: Integer; stdcall;
    function _Release: Integer; stdcall;
  end;

  TInterfacedObject = class(TObject, IInterface)
  end;

  TVarRec = record
    VType: Byte;
  end;

procedure Inc(var X: Integer); overload;
procedure Inc(var X: Integer; N: Integer); overload;

implementation

constructor TObject.Create;
begin
end;

destructor TObject.Destroy;
begin
end;

function TObject.ToString: string;
begin
  Result := '';
end;

procedure Inc(var X: Integer);
begin
  X := X + 1;
end;

procedure Inc(var X: Integer; N: Integer);
begin
  X := X + N;
end;

end.
`

func TestSymbolsCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "rtl", "System.pas"), systemUnit)
	writeFile(t, filepath.Join(root, "rtl", "SysInit.pas"), "unit SysInit;\n\ninterface\n\nimplementation\n\nend.\n")
	src := filepath.Join(root, "src", "Counter.pas")
	writeFile(t, src, `unit Counter;

interface

type
  TCounter = class
  private
    FValue: Integer;
  public
    procedure Step;
  end;

implementation

procedure TCounter.Step;
begin
  Inc(FValue);
end;

end.
`)

	out, errOut, err := execute(t, "symbols", src,
		"--stdlib", filepath.Join(root, "rtl"),
		"--ui", "off",
		"--format", "json",
		"--color", "off")
	if err != nil {
		t.Fatalf("symbols: %v\n%s", err, errOut)
	}
	var payload diagfmt.SymbolsOutput
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Units) != 1 || payload.Units[0].Name != "Counter" {
		t.Fatalf("units = %+v", payload.Units)
	}
	var names []string
	for _, d := range payload.Units[0].Declarations {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"TCounter"}, names); diff != "" {
		t.Errorf("declarations mismatch (-want +got):\n%s", diff)
	}
	if len(payload.Units[0].Unresolved) != 0 {
		t.Errorf("unresolved = %+v", payload.Units[0].Unresolved)
	}
}
