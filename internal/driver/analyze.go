package driver

import (
	"context"
	"fmt"
	"path/filepath"

	"fortio.org/safecast"

	"pasfront/internal/diag"
	"pasfront/internal/observ"
	"pasfront/internal/preprocess"
	"pasfront/internal/source"
	"pasfront/internal/symbols"
	"pasfront/internal/trace"
	"pasfront/internal/types"
)

// AnalyzeResult is a built symbol table together with everything needed
// to report on it.
type AnalyzeResult struct {
	FileSet *source.FileSet
	Factory *types.Factory
	Table   *symbols.Table // nil when the build failed
	Bag     *diag.Bag
	Timings observ.Report
}

// Analyze builds the symbol table of sources against the configured
// standard library. A fatal build error is returned together with the
// diagnostics gathered up to that point.
func Analyze(ctx context.Context, sources []string, opts AnalyzeOptions) (*AnalyzeResult, error) {
	tr := opts.tracer()
	span := trace.Begin(tr, trace.ScopeDriver, "analyze").
		WithExtra("sources", fmt.Sprint(len(sources)))
	defer span.End("")

	timer := observ.NewTimer()
	bag := diag.NewBag(opts.maxDiagnostics())
	reporter := &diag.LockedReporter{Next: diag.NewDedupReporter(diag.BagReporter{Bag: bag})}
	fs := source.NewFileSet()
	factory := types.NewFactory(opts.Target.Toolchain, opts.Target.Version)

	abs := make([]string, len(sources))
	for i, s := range sources {
		p, err := filepath.Abs(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s, err)
		}
		abs[i] = p
	}

	maxErrors, err := safecast.Conv[uint](opts.maxDiagnostics())
	if err != nil {
		panic(fmt.Errorf("maxDiagnostics overflow: %w", err))
	}

	pp := opts.preprocessConfig(fs)
	pp.Sizer = factory
	cfg := symbols.Config{
		Factory:         factory,
		Preprocess:      &pp,
		Preprocessor:    opts.preprocessor(),
		StandardLibrary: opts.StandardLibrary,
		SearchPath:      opts.SearchPath,
		Sources:         abs,
		UnitScopeNames:  opts.UnitScopeNames,
		UnitAliases:     opts.UnitAliases,
		Jobs:            opts.Jobs,
		ParseMaxErrors:  maxErrors,
		Reporter:        reporter,
		Tracer:          tr,
		Timer:           timer,
		Progress:        opts.Progress,
	}

	table, buildErr := symbols.NewBuilder(cfg).Build(ctx)
	res := &AnalyzeResult{FileSet: fs, Factory: factory, Table: table, Bag: bag}
	if buildErr != nil {
		res.Timings = timer.Report()
		return res, buildErr
	}

	stop := timer.Start("validate")
	err = table.Validate()
	stop("")
	res.Timings = timer.Report()
	if err != nil {
		return res, fmt.Errorf("symbol table is inconsistent: %w", err)
	}
	return res, nil
}

// preprocessor routes units through the token cache when one is set.
func (o *AnalyzeOptions) preprocessor() func(*source.File, preprocess.Config) (*preprocess.Result, error) {
	if o.Cache == nil {
		return nil
	}
	return func(file *source.File, cfg preprocess.Config) (*preprocess.Result, error) {
		res, _, err := o.runCached(file, cfg)
		return res, err
	}
}
