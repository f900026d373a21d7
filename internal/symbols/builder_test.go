package symbols

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pasfront/internal/diag"
	"pasfront/internal/preprocess"
	"pasfront/internal/toolchain"
	"pasfront/internal/types"
)

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

const sysInitUnit = `unit SysInit;

interface

var
  HInstance: NativeUInt;

implementation

end.
`

func baseStdlib() map[string]string {
	return map[string]string{
		"System.pas":  systemUnit,
		"SysInit.pas": sysInitUnit,
	}
}

func writeFiles(t *testing.T, dir string, files map[string]string) []string {
	t.Helper()
	paths := make([]string, 0, len(files))
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// newConfig lays out a standard library and a source directory in a
// temporary directory.
func newConfig(t *testing.T, stdlib, sources map[string]string) (Config, *diag.Bag) {
	t.Helper()
	root := t.TempDir()
	stdDir := filepath.Join(root, "rtl")
	srcDir := filepath.Join(root, "src")
	writeFiles(t, stdDir, stdlib)
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	bag := diag.NewBag(64)
	cfg := Config{
		Factory: types.NewFactory(toolchain.DCC32, toolchain.VER350),
		Preprocess: &preprocess.Config{
			Target: toolchain.Target{Toolchain: toolchain.DCC32, Version: toolchain.VER350},
		},
		StandardLibrary: stdDir,
		Sources:         writeFiles(t, srcDir, sources),
		Jobs:            2,
		Reporter:        diag.BagReporter{Bag: bag},
	}
	return cfg, bag
}

func mustBuild(t *testing.T, cfg Config, bag *diag.Bag) *Table {
	t.Helper()
	tbl, err := NewBuilder(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Errorf("diagnostic %d: %s", d.Code, d.Message)
		}
		t.FailNow()
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return tbl
}

func mustUnit(t *testing.T, tbl *Table, name string) *Unit {
	t.Helper()
	u, ok := tbl.UnitByName(name)
	if !ok {
		t.Fatalf("unit %s not loaded", name)
	}
	return u
}

func mustLookup(t *testing.T, tbl *Table, scope ScopeID, name string) *Symbol {
	t.Helper()
	ids := tbl.Lookup(scope, name)
	if len(ids) == 0 {
		t.Fatalf("%s not found", name)
	}
	return tbl.Symbol(ids[0])
}

// bodyRefs returns the indices of the occurrences of name outside
// declarations, in source order.
func bodyRefs(u *Unit, name string) []int {
	var out []int
	for i, occ := range u.Occurrences {
		if occ.Name == name && occ.Flags&OccDeclaration == 0 {
			out = append(out, i)
		}
	}
	return out
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func intrinsic(t *testing.T, f *types.Factory, name string) types.TypeID {
	t.Helper()
	id, ok := f.Intrinsic(name)
	if !ok {
		t.Fatalf("intrinsic %s missing", name)
	}
	return id
}

const geometryUnit = `unit Geometry;

interface

type
  TPoint = record
    X: Integer;
    Y: Integer;
  end;

  TBase = class
  end;

function Scale(V: Double): Double;

implementation

function Scale(V: Double): Double;
begin
  Result := V * 2;
end;

end.
`

const shapesUnit = `unit Shapes;

interface

uses Geometry;

type
  TShape = class;

  TShape = class(TBase)
  private
    FOrigin: TPoint;
  public
    constructor Create(X, Y: Integer);
    function Area: Double;
    property Origin: TPoint read FOrigin;
  end;

implementation

constructor TShape.Create(X, Y: Integer);
begin
  inherited Create;
  FOrigin.X := X;
  Self.FOrigin.Y := Y;
end;

function TShape.Area: Double;
begin
  Result := Scale(Origin.X);
end;

end.
`

func TestBuildResolvesAcrossUnits(t *testing.T) {
	cfg, bag := newConfig(t, baseStdlib(), map[string]string{"Shapes.pas": shapesUnit})
	lib := t.TempDir()
	writeFiles(t, lib, map[string]string{"Geometry.pas": geometryUnit})
	cfg.SearchPath = []string{lib}
	tbl := mustBuild(t, cfg, bag)
	f := tbl.Factory

	var unitNames []string
	for _, u := range tbl.Units() {
		unitNames = append(unitNames, u.Name)
	}
	if diff := cmp.Diff([]string{"SysInit", "System", "Shapes", "Geometry"}, unitNames); diff != "" {
		t.Fatalf("units mismatch (-want +got):\n%s", diff)
	}

	shapes := mustUnit(t, tbl, "Shapes")
	shape := mustLookup(t, tbl, shapes.Scope, "TShape")
	if shape.Flags&FlagForward != 0 {
		t.Errorf("TShape still marked forward")
	}
	if got := f.Image(shape.Type); got != "Shapes.TShape" {
		t.Errorf("TShape image = %q", got)
	}
	if got := f.Image(f.Parent(shape.Type)); got != "Geometry.TBase" {
		t.Errorf("TShape parent = %q", got)
	}
	if got := f.Image(f.Parent(f.Parent(shape.Type))); got != "System.TObject" {
		t.Errorf("TBase parent = %q", got)
	}

	create := tbl.Member(shape.Type, "Create")
	if len(create) != 1 {
		t.Fatalf("TShape.Create candidates = %d", len(create))
	}
	rt := tbl.Symbol(create[0]).Routine
	if rt.Impl == nil || rt.Owner != tbl.Lookup(shapes.Scope, "TShape")[0] {
		t.Errorf("TShape.Create implementation not attached")
	}
	if rt.Result != shape.Type || len(rt.Params) != 2 {
		t.Errorf("TShape.Create signature = %d params, result %q", len(rt.Params), f.Image(rt.Result))
	}

	inh := bodyRefs(shapes, "Create")
	if len(inh) != 1 {
		t.Fatalf("Create references = %d", len(inh))
	}
	occ := shapes.Occurrences[inh[0]]
	if occ.Flags&OccInherited == 0 {
		t.Errorf("inherited Create not flagged")
	}
	if got := tbl.QualifiedName(occ.Symbol); got != "System.TObject.Create" {
		t.Errorf("inherited Create = %q", got)
	}

	ys := bodyRefs(shapes, "Y")
	var qualified []string
	for _, i := range ys {
		occ := shapes.Occurrences[i]
		if occ.Qualifier < 0 {
			continue
		}
		q := shapes.Occurrences[occ.Qualifier]
		qualified = append(qualified, q.Name+"."+occ.Name)
		if got := tbl.QualifiedName(occ.Symbol); got != "Geometry.TPoint.Y" {
			t.Errorf("FOrigin.Y = %q", got)
		}
		self := shapes.Occurrences[q.Qualifier]
		if self.Flags&OccSelf == 0 || tbl.Symbol(self.Symbol) != shape {
			t.Errorf("Self = %+v", self)
		}
	}
	if diff := cmp.Diff([]string{"FOrigin.Y"}, qualified); diff != "" {
		t.Errorf("qualified Y mismatch (-want +got):\n%s", diff)
	}

	scale := bodyRefs(shapes, "Scale")
	if len(scale) != 1 {
		t.Fatalf("Scale references = %d", len(scale))
	}
	occ = shapes.Occurrences[scale[0]]
	if got := tbl.QualifiedName(occ.Symbol); got != "Geometry.Scale" {
		t.Errorf("Scale = %q", got)
	}
	if occ.Type != intrinsic(t, f, "Double") || occ.Flags&OccExplicitInvocation == 0 || occ.Args != 1 {
		t.Errorf("Scale occurrence = %+v", occ)
	}
	if un := shapes.Unresolved(); len(un) != 0 {
		t.Errorf("unresolved occurrences: %+v", un)
	}
}

func TestBuildFatalErrors(t *testing.T) {
	tests := []struct {
		name   string
		stdlib map[string]string
		mutate func(*Config)
		want   error
	}{
		{
			name:   "missing standard library",
			stdlib: baseStdlib(),
			mutate: func(c *Config) { c.StandardLibrary = filepath.Join(c.StandardLibrary, "nowhere") },
			want:   ErrStdlibMissing,
		},
		{
			name:   "only tools",
			stdlib: map[string]string{"ToolsAPI/Tool.pas": "unit Tool; interface implementation end."},
			want:   ErrStdlibEmpty,
		},
		{
			name:   "missing SysInit",
			stdlib: map[string]string{"System.pas": systemUnit},
			want:   ErrSystemUnit,
		},
		{
			name: "broken System",
			stdlib: map[string]string{
				"System.pas":  "unit System;\ninterface\ntype\n  TB = ;\nimplementation\nend.\n",
				"SysInit.pas": sysInitUnit,
			},
			want: ErrSystemUnit,
		},
		{
			name:   "no factory",
			stdlib: baseStdlib(),
			mutate: func(c *Config) { c.Factory = nil },
			want:   ErrNoFactory,
		},
		{
			name:   "no preprocessor",
			stdlib: baseStdlib(),
			mutate: func(c *Config) { c.Preprocess = nil },
			want:   ErrNoPreprocessor,
		},
		{
			name:   "search path entry is a file",
			stdlib: baseStdlib(),
			mutate: func(c *Config) { c.SearchPath = []string{filepath.Join(c.StandardLibrary, "System.pas")} },
			want:   ErrSearchPath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _ := newConfig(t, tt.stdlib, nil)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			tbl, err := NewBuilder(cfg).Build(context.Background())
			if tbl != nil {
				t.Errorf("table returned alongside error")
			}
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("error = %v, want *BuildError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildDuplicateDeclarationIsFatal(t *testing.T) {
	cfg, bag := newConfig(t, baseStdlib(), map[string]string{"Dup.pas": `unit Dup;
interface
const
  Limit = 1;
var
  Limit: Integer;
implementation
end.
`})
	tbl, err := NewBuilder(cfg).Build(context.Background())
	if tbl != nil || !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Build = %v, %v", tbl, err)
	}
	var be *BuildError
	if !errors.As(err, &be) || filepath.Base(be.Path) != "Dup.pas" {
		t.Fatalf("error = %#v", err)
	}
	if !hasCode(bag, diag.SemaDuplicateSymbol) {
		t.Errorf("no duplicate symbol diagnostic")
	}
}

func TestBuildCancelled(t *testing.T) {
	cfg, _ := newConfig(t, baseStdlib(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(cfg).Build(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

const collectionsUnit = `unit Generics.Collections;

interface

type
  TList<T> = class
  private
    function GetItem(Index: Integer): T;
  public
    procedure Add(const Value: T);
    function First: T;
    property Items[Index: Integer]: T read GetItem; default;
  end;

  TObjectList<T: class> = class(TList<T>)
  end;

implementation

end.
`

const appUnit = `unit App;

interface

uses Generics.Collections;

type
  TIntList = TList<Integer>;
  TNode = class
  end;
  TBadList = TObjectList<Integer>;

procedure Log(const S: string); overload;
procedure Log(const S: string; Level: Integer); overload;
function MakeDefault<T: class, constructor>: T;
procedure Run;

implementation

procedure Log(const S: string);
begin
end;

procedure Log(const S: string; Level: Integer);
begin
end;

procedure Run;
var
  L: TIntList;
  I: Integer;
  N: TNode;
begin
  L.Add(1);
  I := L.First;
  Log('a');
  Log('b', 2);
  N := TObjectList<TNode>.Create;
  N := MakeDefault<TNode>;
  MakeDefault<Integer>;
end;

end.
`

func TestGenericsAndOverloads(t *testing.T) {
	std := baseStdlib()
	std["Generics.Collections.pas"] = collectionsUnit
	cfg, bag := newConfig(t, std, map[string]string{"App.pas": appUnit})
	tbl, err := NewBuilder(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !hasCode(bag, diag.SemaConstraintViolated) {
		t.Errorf("TObjectList<Integer> accepted")
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	f := tbl.Factory
	integer := intrinsic(t, f, "Integer")
	app := mustUnit(t, tbl, "App")

	list := mustLookup(t, tbl, app.Scope, "TIntList")
	inst := f.FindBaseType(list.Type)
	generic, args := f.GenericOf(inst)
	if got := f.Image(generic); got != "Generics.Collections.TList<T>" {
		t.Fatalf("TIntList generic = %q", got)
	}
	if diff := cmp.Diff([]types.TypeID{integer}, args); diff != "" {
		t.Fatalf("TIntList args mismatch (-want +got):\n%s", diff)
	}
	if got := f.Image(f.Parent(inst)); got != "System.TObject" {
		t.Errorf("TList<Integer> parent = %q", got)
	}

	add := bodyRefs(app, "Add")
	if len(add) != 1 || !app.Occurrences[add[0]].Resolved() {
		t.Fatalf("L.Add unresolved")
	}
	if got := tbl.QualifiedName(app.Occurrences[add[0]].Symbol); got != "Generics.Collections.TList.Add" {
		t.Errorf("L.Add = %q", got)
	}
	first := bodyRefs(app, "First")
	if len(first) != 1 || app.Occurrences[first[0]].Type != integer {
		t.Errorf("L.First is not typed Integer")
	}

	logs := bodyRefs(app, "Log")
	if len(logs) != 2 {
		t.Fatalf("Log references = %d", len(logs))
	}
	var arity []int
	for _, i := range logs {
		arity = append(arity, len(tbl.Symbol(app.Occurrences[i].Symbol).Routine.Params))
	}
	if diff := cmp.Diff([]int{1, 2}, arity); diff != "" {
		t.Errorf("Log overloads mismatch (-want +got):\n%s", diff)
	}

	creates := bodyRefs(app, "Create")
	if len(creates) != 1 {
		t.Fatalf("Create references = %d", len(creates))
	}
	if got := tbl.QualifiedName(app.Occurrences[creates[0]].Symbol); got != "System.TObject.Create" {
		t.Errorf("TObjectList<TNode>.Create = %q", got)
	}
	objList := app.Occurrences[app.Occurrences[creates[0]].Qualifier]
	if objList.Flags&OccGeneric == 0 || len(objList.TypeArgs) != 1 {
		t.Errorf("TObjectList<TNode> = %+v", objList)
	}

	makes := bodyRefs(app, "MakeDefault")
	if len(makes) != 2 {
		t.Fatalf("MakeDefault references = %d", len(makes))
	}
	if !app.Occurrences[makes[0]].Symbol.IsValid() {
		t.Errorf("MakeDefault<TNode> unresolved")
	}
	if app.Occurrences[makes[1]].Symbol.IsValid() {
		t.Errorf("MakeDefault<Integer> resolved despite its constraints")
	}
}

func TestLookupOrder(t *testing.T) {
	units := map[string]string{
		"A.pas": "unit A;\ninterface\ntype\n  TThing = class\n  end;\nconst\n  Value = 1;\nimplementation\nend.\n",
		"B.pas": "unit B;\ninterface\ntype\n  TThing = class\n  end;\nconst\n  Value = 'bee';\nimplementation\nend.\n",
		"C.pas": "unit C;\ninterface\ntype\n  TThing = class\n  end;\nconst\n  Value = 2.5;\nimplementation\nend.\n",
		"Main.pas": `unit Main;
interface
uses A, B;
var
  V: TThing;
implementation
uses C;
type
  TLocal = TThing;
const
  Hidden = 3;
end.
`,
	}
	cfg, bag := newConfig(t, baseStdlib(), units)
	tbl := mustBuild(t, cfg, bag)
	f := tbl.Factory
	main := mustUnit(t, tbl, "Main")

	v := mustLookup(t, tbl, main.Scope, "V")
	if got := f.Image(v.Type); got != "B.TThing" {
		t.Errorf("interface sees %q, want B.TThing", got)
	}
	local := mustLookup(t, tbl, main.Scope, "TLocal")
	if got := f.Image(f.FindBaseType(local.Type)); got != "C.TThing" {
		t.Errorf("implementation sees %q, want C.TThing", got)
	}
	value := mustLookup(t, tbl, main.Scope, "Value")
	if got := tbl.QualifiedName(tbl.Lookup(main.Scope, "Value")[0]); got != "C.Value" {
		t.Errorf("Value = %q", got)
	}
	if value.Type != intrinsic(t, f, "Extended") {
		t.Errorf("Value type = %q", f.Image(value.Type))
	}
	if hidden := mustLookup(t, tbl, main.Scope, "Hidden"); hidden.Exported() {
		t.Errorf("implementation constant exported")
	}
	a := mustUnit(t, tbl, "A")
	if ids := tbl.Lookup(a.Scope, "Hidden"); len(ids) != 0 {
		t.Errorf("A sees Main.Hidden")
	}
	if ids := tbl.Lookup(a.Scope, "TObject"); len(ids) != 1 {
		t.Errorf("System not visible from A")
	}
}

func TestUnitScopeNamesAndAliases(t *testing.T) {
	std := baseStdlib()
	std["System.SysUtils.pas"] = "unit System.SysUtils;\ninterface\nfunction IntToStr(V: Integer): string;\nimplementation\nend.\n"
	std["Winapi.Windows.pas"] = "unit Winapi.Windows;\ninterface\nprocedure Beep;\nimplementation\nend.\n"
	cfg, bag := newConfig(t, std, map[string]string{"Tool.pas": `unit Tool;
interface
implementation
uses SysUtils, WinProcs;
procedure Go;
begin
  SysUtils.IntToStr(1);
  System.SysUtils.IntToStr(2);
  Beep;
end;
end.
`})
	cfg.UnitScopeNames = []string{"System", "Winapi"}
	cfg.UnitAliases = map[string]string{"WinProcs": "Winapi.Windows"}
	tbl := mustBuild(t, cfg, bag)
	tool := mustUnit(t, tbl, "Tool")

	var used []string
	for _, u := range tool.ImplementationUses {
		used = append(used, u.Name)
	}
	if diff := cmp.Diff([]string{"System.SysUtils", "Winapi.Windows"}, used); diff != "" {
		t.Fatalf("uses mismatch (-want +got):\n%s", diff)
	}
	for _, i := range bodyRefs(tool, "IntToStr") {
		if got := tbl.QualifiedName(tool.Occurrences[i].Symbol); got != "System.SysUtils.IntToStr" {
			t.Errorf("IntToStr = %q", got)
		}
	}
	beep := bodyRefs(tool, "Beep")
	if len(beep) != 1 || tbl.QualifiedName(tool.Occurrences[beep[0]].Symbol) != "Winapi.Windows.Beep" {
		t.Errorf("Beep not resolved through alias")
	}
	if un := tool.Unresolved(); len(un) != 0 {
		t.Errorf("unresolved occurrences: %+v", un)
	}
}

func TestEnumerations(t *testing.T) {
	cfg, bag := newConfig(t, baseStdlib(), map[string]string{"Colors.pas": `unit Colors;
interface
type
  TColor = (Red, Green, Blue);
  TWarm = Red..Green;
{$SCOPEDENUMS ON}
  TMode = (Fast, Slow);
{$SCOPEDENUMS OFF}
var
  M: TMode;
implementation
end.
`})
	tbl := mustBuild(t, cfg, bag)
	f := tbl.Factory
	colors := mustUnit(t, tbl, "Colors")

	color := mustLookup(t, tbl, colors.Scope, "TColor")
	red := mustLookup(t, tbl, colors.Scope, "Red")
	if red.Kind != SymbolEnumElement || red.Type != color.Type {
		t.Errorf("Red = %s of %q", red.Kind, f.Image(red.Type))
	}
	if len(tbl.Member(color.Type, "Blue")) != 1 {
		t.Errorf("Blue missing from TColor")
	}
	warm := mustLookup(t, tbl, colors.Scope, "TWarm")
	if !f.IsSubrange(warm.Type) {
		t.Errorf("TWarm is %q", f.Image(warm.Type))
	}

	if ids := tbl.Lookup(colors.Scope, "Fast"); len(ids) != 0 {
		t.Errorf("scoped element Fast visible unqualified")
	}
	mode := mustLookup(t, tbl, colors.Scope, "TMode")
	if len(tbl.Member(mode.Type, "Fast")) != 1 {
		t.Errorf("Fast missing from TMode")
	}
}

func TestDiagnosticsDoNotFailBuild(t *testing.T) {
	cfg, bag := newConfig(t, baseStdlib(), map[string]string{
		"Broken.pas": `unit Broken;
interface
uses Nowhere;
type
  TKnown = class
    procedure Run;
  end;
  TA = TB;
  TB = TA;
var
  Missing: TUnknownType;
implementation
procedure TKnown.Walk;
begin
end;
procedure TGhost.Run;
begin
end;
procedure TKnown.Run;
begin
end;
end.
`,
		"Other.pas": "unit Renamed;\ninterface\nimplementation\nend.\n",
	})
	tbl, err := NewBuilder(cfg).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, code := range []diag.Code{
		diag.SemaUnresolvedUnit,
		diag.SemaUnresolvedType,
		diag.SemaMissingImplementation,
		diag.SemaCircularType,
		diag.SemaUnitNameMismatch,
	} {
		if !hasCode(bag, code) {
			t.Errorf("no diagnostic %d", code)
		}
	}
	if _, ok := tbl.UnitByName("Renamed"); !ok {
		t.Errorf("Renamed not loaded under its declared name")
	}
	broken := mustUnit(t, tbl, "Broken")
	known := mustLookup(t, tbl, broken.Scope, "TKnown")
	run := tbl.Member(known.Type, "Run")
	if len(run) != 1 || tbl.Symbol(run[0]).Routine.Impl == nil {
		t.Errorf("TKnown.Run implementation not attached")
	}
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestProgressReportsEveryStage(t *testing.T) {
	cfg, bag := newConfig(t, baseStdlib(), map[string]string{"Main.pas": "program Main;\nbegin\n  Inc(HInstance);\nend.\n"})
	var mu sync.Mutex
	last := make(map[Stage]Progress)
	cfg.Progress = func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		if p.Done >= last[p.Stage].Done {
			last[p.Stage] = p
		}
	}
	tbl := mustBuild(t, cfg, bag)
	for _, stage := range []Stage{StageParsed, StageDeclared, StageResolved} {
		p, ok := last[stage]
		if !ok {
			t.Errorf("no %s event", stage)
			continue
		}
		if p.Done != p.Total {
			t.Errorf("%s ended at %d/%d", stage, p.Done, p.Total)
		}
	}
	if got := last[StageResolved].Total; got != len(tbl.Units()) {
		t.Errorf("resolved total = %d, want %d", got, len(tbl.Units()))
	}
	main := mustUnit(t, tbl, "Main")
	inc := bodyRefs(main, "Inc")
	if len(inc) != 1 || tbl.QualifiedName(main.Occurrences[inc[0]].Symbol) != "System.Inc" {
		t.Errorf("Inc not resolved from System")
	}
}
