package driver

import (
	"fmt"

	"pasfront/internal/config"
	"pasfront/internal/directive"
	"pasfront/internal/symbols"
	"pasfront/internal/toolchain"
	"pasfront/internal/trace"
)

// Options configure preprocessing runs.
type Options struct {
	Target         toolchain.Target
	Defines        []string
	IncludePath    []string
	Constants      map[string]directive.Value
	IncludeDepth   int
	MaxDiagnostics int
	Jobs           int
	Tracer         trace.Tracer
	// Cache, when set, stores preprocessed token streams between runs.
	Cache *DiskCache
}

// AnalyzeOptions configure a symbol table build.
type AnalyzeOptions struct {
	Options

	StandardLibrary string
	SearchPath      []string
	UnitScopeNames  []string
	UnitAliases     map[string]string

	// Progress receives unit events from worker goroutines.
	Progress func(symbols.Progress)
}

// OptionsFromConfig converts a project file into analysis options.
func OptionsFromConfig(cfg *config.Config) (AnalyzeOptions, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	target, err := cfg.Target()
	if err != nil {
		return AnalyzeOptions{}, err
	}
	consts, err := cfg.Constants()
	if err != nil {
		return AnalyzeOptions{}, fmt.Errorf("preprocessor: %w", err)
	}
	return AnalyzeOptions{
		Options: Options{
			Target:       target,
			Defines:      cfg.Preprocessor.Defines,
			IncludePath:  cfg.Paths.Include,
			Constants:    consts,
			IncludeDepth: cfg.Preprocessor.IncludeDepth,
			Jobs:         cfg.Analysis.Jobs,
		},
		StandardLibrary: cfg.Paths.StandardLibrary,
		SearchPath:      cfg.Paths.Search,
		UnitScopeNames:  cfg.Analysis.UnitScopeNames,
		UnitAliases:     cfg.Analysis.UnitAliases,
	}, nil
}

func (o *Options) tracer() trace.Tracer {
	if o.Tracer == nil {
		return trace.Nop
	}
	return o.Tracer
}

func (o *Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 100
	}
	return o.MaxDiagnostics
}
