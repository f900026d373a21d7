// Package config loads the project file of a pasfront project.
//
// The file is pasfront.toml or pasfront.yaml, found by walking up from a
// start directory. Relative paths in it are relative to the directory the
// file lives in. Command line flags override what the file says.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"pasfront/internal/directive"
	"pasfront/internal/toolchain"
)

// File names searched for, in order, in every directory.
const (
	TOMLName = "pasfront.toml"
	YAMLName = "pasfront.yaml"
)

// Config is the project file.
type Config struct {
	Toolchain    ToolchainConfig    `toml:"toolchain" yaml:"toolchain"`
	Paths        PathsConfig        `toml:"paths" yaml:"paths"`
	Preprocessor PreprocessorConfig `toml:"preprocessor" yaml:"preprocessor"`
	Analysis     AnalysisConfig     `toml:"analysis" yaml:"analysis"`

	// Path is the file the configuration was read from, empty for
	// defaults.
	Path string `toml:"-" yaml:"-"`
}

type ToolchainConfig struct {
	Compiler string `toml:"compiler" yaml:"compiler"`
	Version  string `toml:"version" yaml:"version"`
}

type PathsConfig struct {
	StandardLibrary string   `toml:"standard_library" yaml:"standard_library"`
	Search          []string `toml:"search" yaml:"search"`
	Include         []string `toml:"include" yaml:"include"`
	Cache           string   `toml:"cache" yaml:"cache"`
}

type PreprocessorConfig struct {
	Defines      []string       `toml:"defines" yaml:"defines"`
	Constants    map[string]any `toml:"constants" yaml:"constants"`
	IncludeDepth int            `toml:"include_depth" yaml:"include_depth"`
}

type AnalysisConfig struct {
	UnitScopeNames []string          `toml:"unit_scope_names" yaml:"unit_scope_names"`
	UnitAliases    map[string]string `toml:"unit_aliases" yaml:"unit_aliases"`
	Jobs           int               `toml:"jobs" yaml:"jobs"`
}

// Default is the configuration used without a project file.
func Default() *Config {
	return &Config{
		Toolchain: ToolchainConfig{
			Compiler: toolchain.DCC32.String(),
			Version:  toolchain.VER350.Symbol(),
		},
	}
}

// Find walks up from startDir and returns the first project file found.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range []string{TOMLName, YAMLName} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the project file above startDir, or the defaults when
// there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load reads a project file; the format follows the extension.
func Load(path string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := loadTOML(path, cfg); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s: unsupported config format", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = abs
	cfg.rebase(filepath.Dir(abs))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func loadTOML(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("toolchain") && !meta.IsDefined("toolchain", "compiler") {
		return fmt.Errorf("%s: missing [toolchain].compiler", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func loadYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	return nil
}

// rebase makes relative paths relative to root.
func (c *Config) rebase(root string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, filepath.FromSlash(p))
	}
	c.Paths.StandardLibrary = abs(c.Paths.StandardLibrary)
	c.Paths.Cache = abs(c.Paths.Cache)
	for i, p := range c.Paths.Search {
		c.Paths.Search[i] = abs(p)
	}
	for i, p := range c.Paths.Include {
		c.Paths.Include[i] = abs(p)
	}
}

// Validate checks the toolchain, the version and the constants.
func (c *Config) Validate() error {
	if _, err := c.Target(); err != nil {
		return err
	}
	if _, err := c.Constants(); err != nil {
		return err
	}
	if c.Preprocessor.IncludeDepth < 0 {
		return fmt.Errorf("include_depth must not be negative")
	}
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative")
	}
	return nil
}

// Target parses the toolchain and compiler version.
func (c *Config) Target() (toolchain.Target, error) {
	tc, err := toolchain.Parse(c.Toolchain.Compiler)
	if err != nil {
		return toolchain.Target{}, fmt.Errorf("toolchain: %w", err)
	}
	v, err := toolchain.ParseVersion(c.Toolchain.Version)
	if err != nil {
		return toolchain.Target{}, fmt.Errorf("toolchain version: %w", err)
	}
	return toolchain.Target{Toolchain: tc, Version: v}, nil
}

// Constants converts the configured $IF constants.
func (c *Config) Constants() (map[string]directive.Value, error) {
	if len(c.Preprocessor.Constants) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(c.Preprocessor.Constants))
	for k := range c.Preprocessor.Constants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]directive.Value, len(keys))
	for _, k := range keys {
		switch v := c.Preprocessor.Constants[k].(type) {
		case bool:
			out[k] = directive.BoolValue(v)
		case int:
			out[k] = directive.IntValue(int64(v))
		case int64:
			out[k] = directive.IntValue(v)
		case float64:
			out[k] = directive.RealValue(v)
		case string:
			out[k] = directive.StringValue(v)
		default:
			return nil, fmt.Errorf("constant %s: unsupported value %v", k, v)
		}
	}
	return out, nil
}
