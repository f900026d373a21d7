package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pasfront/internal/config"
	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/observ"
	"pasfront/internal/source"
	"pasfront/internal/symbols"
	"pasfront/internal/token"
	"pasfront/internal/toolchain"
)

const systemUnit = `unit System;

interface

type
  TObject = class
  public
    constructor Create;
  end;

procedure Inc(var X: Integer);

implementation

constructor TObject.Create;
begin
end;

procedure Inc(var X: Integer);
begin
  X := X + 1;
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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testOptions() Options {
	return Options{
		Target:         toolchain.Target{Toolchain: toolchain.DCC32, Version: toolchain.VER350},
		MaxDiagnostics: 64,
		Jobs:           2,
	}
}

func openCache(t *testing.T) *DiskCache {
	t.Helper()
	cache, err := OpenDiskCacheAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenDiskCacheAt: %v", err)
	}
	return cache
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestTokenizeDoesNotRunDirectives(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.pas", "{$IFDEF X} a {$ENDIF} b")
	res, err := Tokenize(path, 10)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	var texts []string
	for _, tok := range res.Tokens {
		texts = append(texts, tok.Text)
	}
	want := []string{"{$IFDEF X}", "a", "{$ENDIF}", "b", ""}
	if diff := cmp.Diff(want, texts); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	if res.Bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(res.Bag))
	}

	if _, err := Tokenize(filepath.Join(t.TempDir(), "missing.pas"), 10); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestPreprocess(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Main.pas", "{$IFDEF DEBUG}unit Dbg;{$ELSE}unit Rel;{$ENDIF} {$IF VERSION > 2}new{$IFEND}")
	opts := testOptions()
	opts.Defines = []string{"debug"}
	opts.Constants = map[string]directive.Value{"VERSION": directive.IntValue(3)}

	res, err := Preprocess(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if got := res.Result.CodeText(); got != "unit Dbg ; new" {
		t.Fatalf("code = %q", got)
	}
	if res.Cached {
		t.Fatal("no cache configured, result claims to be cached")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Preprocess(ctx, path, opts); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled Preprocess error = %v", err)
	}
}

func TestPreprocessMalformedDirective(t *testing.T) {
	path := writeFile(t, t.TempDir(), "Bad.pas", "a {$IF (} b {$ENDIF}")
	res, err := Preprocess(context.Background(), path, testOptions())
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if res.Result != nil {
		t.Fatal("expected no stream for a malformed directive")
	}
	if diff := cmp.Diff([]diag.Code{diag.PPBadDirective}, codes(res.Bag)); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestPreprocessDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b/Second.pas", "unit Second; {$IFDEF MSWINDOWS}win{$ENDIF}")
	writeFile(t, dir, "First.pas", "unit First;")
	writeFile(t, dir, "App.dpr", "program App;")
	writeFile(t, dir, "notes.txt", "not pascal")

	_, results, err := PreprocessDir(context.Background(), dir, testOptions())
	if err != nil {
		t.Fatalf("PreprocessDir: %v", err)
	}
	var got []string
	for _, r := range results {
		if r.Bag.Len() != 0 {
			t.Errorf("%s: diagnostics %v", r.File.Path, codes(r.Bag))
		}
		got = append(got, filepath.Base(r.File.Path)+": "+r.Result.CodeText())
	}
	want := []string{
		"App.dpr: program App ;",
		"First.pas: unit First ;",
		"Second.pas: unit Second ; win",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	_, results, err = PreprocessDir(context.Background(), t.TempDir(), testOptions())
	if err != nil || len(results) != 0 {
		t.Fatalf("empty dir: %v, %d results", err, len(results))
	}
	if _, _, err := PreprocessDir(context.Background(), filepath.Join(dir, "nowhere"), testOptions()); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestTokenCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Main.pas", "unit Main; {$R+} {$I defs.inc} x {$R-} y")
	inc := writeFile(t, dir, "defs.inc", "{ included } a b")

	opts := testOptions()
	opts.Cache = openCache(t)

	first, err := Preprocess(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if first.Cached {
		t.Fatal("first run cannot be a cache hit")
	}
	second, err := Preprocess(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if !second.Cached {
		t.Fatal("second run should be served from the cache")
	}
	if diff := cmp.Diff(first.Result.Tokens, second.Result.Tokens); diff != "" {
		t.Fatalf("tokens mismatch (-fresh +cached):\n%s", diff)
	}
	if diff := cmp.Diff(first.Result.Includes, second.Result.Includes); diff != "" {
		t.Fatalf("includes mismatch (-fresh +cached):\n%s", diff)
	}
	if diff := cmp.Diff(first.Result.Defines, second.Result.Defines); diff != "" {
		t.Fatalf("defines mismatch (-fresh +cached):\n%s", diff)
	}
	k := directive.SwitchRangeChecks
	if diff := cmp.Diff(first.Result.Switches.Ranges(k), second.Result.Switches.Ranges(k)); diff != "" {
		t.Fatalf("switch ranges mismatch (-fresh +cached):\n%s", diff)
	}
	for _, tok := range second.Result.Tokens {
		if tok.Text == "a" && (!tok.Included() || tok.Origin == nil) {
			t.Fatalf("included token lost its origin: %+v", tok)
		}
	}

	// a changed include invalidates the entry
	writeFile(t, dir, "defs.inc", "c")
	third, err := Preprocess(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if third.Cached {
		t.Fatalf("stale include %s served from the cache", inc)
	}
	if got := third.Result.CodeText(); got != "unit Main ; c x y" {
		t.Fatalf("code = %q", got)
	}

	// other defines address another entry
	opts.Defines = []string{"EXTRA"}
	fourth, err := Preprocess(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if fourth.Cached {
		t.Fatal("different defines hit the same entry")
	}
}

func TestTokenCacheSkipsRunsWithDiagnostics(t *testing.T) {
	path := writeFile(t, t.TempDir(), "Main.pas", "{$ENDIF} unit Main;")
	opts := testOptions()
	opts.Cache = openCache(t)
	for i := range 2 {
		res, err := Preprocess(context.Background(), path, opts)
		if err != nil {
			t.Fatalf("Preprocess: %v", err)
		}
		if res.Cached {
			t.Fatalf("run %d served from the cache", i)
		}
		if diff := cmp.Diff([]diag.Code{diag.PPUnexpectedEndIf}, codes(res.Bag)); diff != "" {
			t.Fatalf("run %d diagnostics mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestDiskCacheSchemaAndDrop(t *testing.T) {
	cache := openCache(t)
	key := Digest{1, 2, 3}
	payload := &DiskPayload{
		Schema: diskCacheSchemaVersion,
		Path:   "Main.pas",
		Files:  []CachedFile{{Path: "Main.pas", Hash: [32]byte{9}}},
		Tokens: []CachedToken{{Kind: token.EOF, File: 0}},
	}
	if err := cache.Put(key, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}
	var out DiskPayload
	ok, err := cache.Get(key, &out)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if diff := cmp.Diff(payload, &out); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}

	old := *payload
	old.Schema = diskCacheSchemaVersion + 1
	if err := cache.Put(key, &old); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, err := cache.Get(key, &DiskPayload{}); err != nil || ok {
		t.Fatalf("foreign schema: Get = %v, %v", ok, err)
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	if ok, err := cache.Get(key, &DiskPayload{}); err != nil || ok {
		t.Fatalf("after DropAll: Get = %v, %v", ok, err)
	}
	var nilCache *DiskCache
	if err := nilCache.Put(key, payload); err != nil {
		t.Fatalf("nil cache Put: %v", err)
	}
	if ok, _ := nilCache.Get(key, &out); ok {
		t.Fatal("nil cache reported a hit")
	}
}

func TestCacheKeyDependsOnOptions(t *testing.T) {
	base := testOptions()
	same := testOptions()
	same.Defines = []string{"b", "A"}
	base.Defines = []string{"a", "B"}
	if optionsDigest(&base) != optionsDigest(&same) {
		t.Fatal("define order and case changed the digest")
	}
	for name, mutate := range map[string]func(*Options){
		"target":   func(o *Options) { o.Target.Toolchain = toolchain.DCC64 },
		"include":  func(o *Options) { o.IncludePath = []string{"inc"} },
		"constant": func(o *Options) { o.Constants = map[string]directive.Value{"N": directive.IntValue(1)} },
		"depth":    func(o *Options) { o.IncludeDepth = 3 },
	} {
		o := testOptions()
		o.Defines = []string{"a", "B"}
		mutate(&o)
		if optionsDigest(&o) == optionsDigest(&base) {
			t.Errorf("%s does not change the digest", name)
		}
	}
}

func analyzeFixture(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	rtl := filepath.Join(root, "rtl")
	writeFile(t, rtl, "System.pas", systemUnit)
	writeFile(t, rtl, "SysInit.pas", sysInitUnit)
	main := writeFile(t, root, "src/Main.dpr", "program Main;\nbegin\n  Inc(HInstance);\nend.\n")
	return rtl, main
}

func TestAnalyze(t *testing.T) {
	rtl, main := analyzeFixture(t)
	opts := AnalyzeOptions{Options: testOptions(), StandardLibrary: rtl}
	opts.Cache = openCache(t)

	var mu sync.Mutex
	stages := map[symbols.Stage]int{}
	opts.Progress = func(p symbols.Progress) {
		mu.Lock()
		defer mu.Unlock()
		stages[p.Stage]++
	}

	res, err := Analyze(context.Background(), []string{main}, opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", codes(res.Bag))
	}
	var unitNames []string
	for _, u := range res.Table.Units() {
		unitNames = append(unitNames, u.Name)
	}
	if diff := cmp.Diff([]string{"SysInit", "System", "Main"}, unitNames); diff != "" {
		t.Fatalf("units mismatch (-want +got):\n%s", diff)
	}
	var names []string
	for _, p := range res.Timings.Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"load", "declare", "types", "resolve", "validate"}, names); diff != "" {
		t.Fatalf("timings mismatch (-want +got):\n%s", diff)
	}
	for _, stage := range []symbols.Stage{symbols.StageParsed, symbols.StageDeclared, symbols.StageResolved} {
		if stages[stage] == 0 {
			t.Errorf("no %s progress", stage)
		}
	}

	entries, err := filepath.Glob(filepath.Join(opts.Cache.Dir(), "tokens", "*", "*.mp"))
	if err != nil || len(entries) != 3 {
		t.Fatalf("cache entries = %v, %v", entries, err)
	}
	again, err := Analyze(context.Background(), []string{main}, opts)
	if err != nil {
		t.Fatalf("cached Analyze: %v", err)
	}
	if len(again.Table.Units()) != 3 {
		t.Fatalf("cached run loaded %d units", len(again.Table.Units()))
	}
}

func TestAnalyzeMissingStandardLibrary(t *testing.T) {
	_, main := analyzeFixture(t)
	opts := AnalyzeOptions{Options: testOptions(), StandardLibrary: filepath.Join(t.TempDir(), "none")}
	res, err := Analyze(context.Background(), []string{main}, opts)
	if !errors.Is(err, symbols.ErrStdlibMissing) {
		t.Fatalf("error = %v, want ErrStdlibMissing", err)
	}
	if res == nil || res.Table != nil {
		t.Fatal("a failed build must not return a table")
	}
	if len(res.Timings.Phases) != 1 || res.Timings.Phases[0].Name != "load" || res.Timings.Phases[0].Note != "failed" {
		t.Fatalf("timings = %+v", res.Timings)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Toolchain.Compiler = "dcc64"
	cfg.Preprocessor.Defines = []string{"DEBUG"}
	cfg.Preprocessor.Constants = map[string]any{"Level": int64(2)}
	cfg.Paths.StandardLibrary = "/rtl"
	cfg.Analysis.UnitScopeNames = []string{"System"}

	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.Target.Toolchain != toolchain.DCC64 || opts.StandardLibrary != "/rtl" {
		t.Errorf("options = %+v", opts)
	}
	if opts.Constants["Level"] != directive.IntValue(2) {
		t.Errorf("constants = %v", opts.Constants)
	}

	cfg.Toolchain.Compiler = "gcc"
	if _, err := OptionsFromConfig(cfg); err == nil {
		t.Fatal("expected an error for an unknown toolchain")
	}
}

func TestAppendTimings(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.SemaUnresolvedUnit, source.Span{}, "full"))
	AppendTimings(bag, "analyze", "Main.dpr", observ.Report{
		TotalMS: 1.5,
		Phases:  []observ.PhaseReport{{Name: "build", DurationMS: 1.5}},
	})
	if bag.Len() != 2 {
		t.Fatalf("timings dropped from a full bag: %d items", bag.Len())
	}
	d := bag.Items()[1]
	if d.Code != diag.ObsTimings || d.Severity != diag.SevInfo {
		t.Fatalf("diagnostic = %+v", d)
	}
	if !strings.Contains(d.Message, "total 1.50 ms") || len(d.Notes) != 1 || !strings.Contains(d.Notes[0].Msg, `"name":"build"`) {
		t.Fatalf("diagnostic = %+v", d)
	}
}
