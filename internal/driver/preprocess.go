package driver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/preprocess"
	"pasfront/internal/source"
	"pasfront/internal/trace"
	"pasfront/internal/types"
)

// PreprocessResult is the final token stream of one unit.
type PreprocessResult struct {
	FileSet *source.FileSet
	File    *source.File
	Result  *preprocess.Result // nil when a directive was malformed
	Bag     *diag.Bag
	Cached  bool
}

// Preprocess loads path and runs its directives.
func Preprocess(ctx context.Context, path string, opts Options) (*PreprocessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return preprocessFile(fs, fs.Get(id), &opts), nil
}

func preprocessFile(fs *source.FileSet, file *source.File, opts *Options) *PreprocessResult {
	bag := diag.NewBag(opts.maxDiagnostics())
	cfg := opts.preprocessConfig(fs)
	cfg.Reporter = diag.BagReporter{Bag: bag}

	out := &PreprocessResult{FileSet: fs, File: file, Bag: bag}
	res, cached, err := opts.runCached(file, cfg)
	if err != nil {
		sp := source.Span{File: file.ID}
		var perr *directive.ParseError
		if errors.As(err, &perr) {
			sp = perr.Token.Span
		}
		diag.ReportError(cfg.Reporter, diag.PPBadDirective, sp, err.Error()).Emit()
		return out
	}
	out.Result = res
	out.Cached = cached
	return out
}

// preprocessConfig is the configuration every unit starts from.
func (o *Options) preprocessConfig(fs *source.FileSet) preprocess.Config {
	return preprocess.Config{
		Files:        fs,
		Target:       o.Target,
		Defines:      o.Defines,
		SearchPath:   o.IncludePath,
		Constants:    o.Constants,
		Sizer:        types.NewFactory(o.Target.Toolchain, o.Target.Version),
		IncludeDepth: o.IncludeDepth,
		Tracer:       o.tracer(),
	}
}

// runCached answers from the cache when it can and stores clean runs.
// A run that reported anything is not stored, since the cache keeps no
// diagnostics.
func (o *Options) runCached(file *source.File, cfg preprocess.Config) (*preprocess.Result, bool, error) {
	tr := cfg.Tracer
	if o.Cache != nil {
		key := cacheKey(file, o)
		var payload DiskPayload
		ok, err := o.Cache.Get(key, &payload)
		if err != nil {
			diag.ReportWarning(cfg.Reporter, diag.IOCacheError, source.Span{File: file.ID},
				fmt.Sprintf("token cache: %v", err)).Emit()
		}
		if ok {
			if res, hit := payloadToResult(&payload, file, cfg.Files); hit {
				trace.Point(tr, trace.ScopeUnit, "cache hit", file.Path, nil)
				return res, true, nil
			}
		}
	}

	counter := &countingReporter{next: cfg.Reporter}
	cfg.Reporter = counter
	res, err := preprocess.New(file, cfg).Process()
	if err != nil {
		return nil, false, err
	}
	if o.Cache != nil && counter.n.Load() == 0 {
		if payload, ok := resultToPayload(res, cfg.Files); ok {
			if err := o.Cache.Put(cacheKey(file, o), payload); err != nil {
				diag.ReportWarning(counter.next, diag.IOCacheError, source.Span{File: file.ID},
					fmt.Sprintf("token cache: %v", err)).Emit()
			}
		}
	}
	return res, false, nil
}

// countingReporter forwards diagnostics and counts them.
type countingReporter struct {
	next diag.Reporter
	n    atomic.Int64
}

func (r *countingReporter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	r.n.Add(1)
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes)
	}
}
