package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pasfront/internal/directive"
	"pasfront/internal/toolchain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

const projectTOML = `[toolchain]
compiler = "dcc64"
version = "VER340"

[paths]
standard_library = "vendor/rtl"
search = ["lib", "/opt/shared"]

[preprocessor]
defines = ["DEBUG"]
include_depth = 8

[preprocessor.constants]
Level = 3
Ratio = 1.5
Name = "demo"
Fast = true

[analysis]
unit_scope_names = ["System", "Vcl"]
jobs = 4

[analysis.unit_aliases]
WinTypes = "Winapi.Windows"
`

func TestLoadTOML(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, TOMLName)
	writeFile(t, path, projectTOML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	target, err := cfg.Target()
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	if target.Toolchain != toolchain.DCC64 || target.Version != toolchain.VER340 {
		t.Errorf("target = %v %v", target.Toolchain, target.Version)
	}
	if want := filepath.Join(root, "vendor", "rtl"); cfg.Paths.StandardLibrary != want {
		t.Errorf("standard library = %q, want %q", cfg.Paths.StandardLibrary, want)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "lib"), "/opt/shared"}, cfg.Paths.Search); diff != "" {
		t.Errorf("search mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]string{"WinTypes": "Winapi.Windows"}, cfg.Analysis.UnitAliases); diff != "" {
		t.Errorf("aliases mismatch (-want +got):\n%s", diff)
	}
	if cfg.Analysis.Jobs != 4 || cfg.Preprocessor.IncludeDepth != 8 {
		t.Errorf("jobs = %d, include depth = %d", cfg.Analysis.Jobs, cfg.Preprocessor.IncludeDepth)
	}

	consts, err := cfg.Constants()
	if err != nil {
		t.Fatalf("Constants: %v", err)
	}
	want := map[string]directive.Value{
		"Level": directive.IntValue(3),
		"Ratio": directive.RealValue(1.5),
		"Name":  directive.StringValue("demo"),
		"Fast":  directive.BoolValue(true),
	}
	if diff := cmp.Diff(want, consts); diff != "" {
		t.Errorf("constants mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadYAML(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, YAMLName)
	writeFile(t, path, `toolchain:
  compiler: DCCLINUX64
  version: "VER350"
paths:
  standard_library: rtl
preprocessor:
  defines: [RELEASE]
  constants:
    Level: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Toolchain.Compiler != "DCCLINUX64" {
		t.Errorf("compiler = %q", cfg.Toolchain.Compiler)
	}
	if cfg.Paths.StandardLibrary != filepath.Join(root, "rtl") {
		t.Errorf("standard library = %q", cfg.Paths.StandardLibrary)
	}
	consts, err := cfg.Constants()
	if err != nil {
		t.Fatalf("Constants: %v", err)
	}
	if consts["Level"] != directive.IntValue(2) {
		t.Errorf("Level = %v", consts["Level"])
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name, file, content, want string
	}{
		{"syntax", TOMLName, "[toolchain\n", "failed to parse TOML"},
		{"unknown key", TOMLName, "[paths]\nstdlib = \"x\"\n", "unknown keys"},
		{"missing compiler", TOMLName, "[toolchain]\nversion = \"VER350\"\n", "missing [toolchain].compiler"},
		{"bad toolchain", TOMLName, "[toolchain]\ncompiler = \"gcc\"\n", "unknown toolchain"},
		{"bad version", YAMLName, "toolchain:\n  compiler: DCC32\n  version: VERX\n", "toolchain version"},
		{"unknown yaml field", YAMLName, "paths:\n  nowhere: x\n", "failed to parse YAML"},
		{"bad constant", TOMLName, "[preprocessor.constants]\nList = [1, 2]\n", "constant List"},
		{"negative jobs", YAMLName, "analysis:\n  jobs: -1\n", "jobs must not be negative"},
		{"format", "pasfront.ini", "", "unsupported config format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			writeFile(t, path, tt.content)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, TOMLName), "[toolchain]\ncompiler = \"DCC64\"\nversion = \"VER350\"\n")
	deep := filepath.Join(root, "src", "units")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path, ok, err := Find(deep)
	if err != nil || !ok {
		t.Fatalf("Find = %q, %v, %v", path, ok, err)
	}
	if path != filepath.Join(root, TOMLName) {
		t.Errorf("found %q", path)
	}
	cfg, err := Discover(deep)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if cfg.Toolchain.Compiler != "DCC64" || cfg.Path != path {
		t.Errorf("config = %+v", cfg)
	}
}

func TestDefaultTarget(t *testing.T) {
	target, err := Default().Target()
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	if target.Toolchain != toolchain.DCC32 || target.Version != toolchain.VER350 {
		t.Errorf("default target = %v %v", target.Toolchain, target.Version)
	}
}
