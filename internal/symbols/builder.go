package symbols

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/names"
	"pasfront/internal/observ"
	"pasfront/internal/preprocess"
	"pasfront/internal/source"
	"pasfront/internal/trace"
	"pasfront/internal/types"
)

// Stage names a step of the build reported through Config.Progress.
type Stage uint8

const (
	StageParsed Stage = iota + 1
	StageDeclared
	StageResolved
)

func (s Stage) String() string {
	switch s {
	case StageParsed:
		return "parsed"
	case StageDeclared:
		return "declared"
	case StageResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Progress is one build event. Total is the number of units known when
// the event was sent; it grows while uses clauses pull in more units.
type Progress struct {
	Stage Stage
	Path  string
	Done  int
	Total int
}

// Config is everything a build depends on.
type Config struct {
	Factory *types.Factory
	// Preprocess is copied for every unit; its Files set, if any, is
	// shared and receives every loaded unit.
	Preprocess *preprocess.Config
	// Preprocessor runs one unit; nil means preprocess.New(...).Process.
	Preprocessor func(file *source.File, cfg preprocess.Config) (*preprocess.Result, error)

	StandardLibrary string   // root directory, walked recursively
	SearchPath      []string // directories searched for used units
	Sources         []string // files to analyse
	UnitScopeNames  []string // SysUtils -> System.SysUtils
	UnitAliases     map[string]string

	Jobs           int  // parallel workers; 0 means GOMAXPROCS
	ParseMaxErrors uint // per file; 0 means unlimited
	Reporter       diag.Reporter
	Tracer         trace.Tracer
	Timer          *observ.Timer // per-phase durations; may be nil
	// Progress is called from worker goroutines.
	Progress func(Progress)
}

// Builder builds a Table from a Config.
type Builder struct {
	cfg      Config
	files    *source.FileSet
	reporter diag.Reporter
	tracer   trace.Tracer
	table    *Table

	enumElems map[*ast.EnumType][]SymbolID
	enumOwner map[SymbolID]SymbolID // element -> declared enum type
}

// NewBuilder prepares a build. Nothing is read until Build.
func NewBuilder(cfg Config) *Builder {
	b := &Builder{cfg: cfg, tracer: cfg.Tracer}
	if b.tracer == nil {
		b.tracer = trace.Nop
	}
	var next diag.Reporter = diag.NopReporter{}
	if cfg.Reporter != nil {
		next = cfg.Reporter
	}
	b.reporter = &diag.LockedReporter{Next: next}
	return b
}

func (b *Builder) jobs() int {
	if b.cfg.Jobs > 0 {
		return b.cfg.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Build loads, declares and resolves every unit. On failure it returns a
// *BuildError and no table.
func (b *Builder) Build(ctx context.Context) (*Table, error) {
	if b.cfg.Factory == nil {
		return nil, &BuildError{Err: ErrNoFactory}
	}
	if b.cfg.Preprocess == nil {
		return nil, &BuildError{Err: ErrNoPreprocessor}
	}
	span := trace.Begin(b.tracer, trace.ScopeDriver, "symbols").
		WithExtra("stdlib", b.cfg.StandardLibrary)

	b.files = b.cfg.Preprocess.Files
	if b.files == nil {
		b.files = source.NewFileSet()
	}
	b.table = newTable(b.cfg.Factory, b.files)
	b.table.scopeNames = b.cfg.UnitScopeNames
	for k, v := range b.cfg.UnitAliases {
		b.table.aliases[names.Key(k)] = v
	}
	b.enumElems = make(map[*ast.EnumType][]SymbolID)
	b.enumOwner = make(map[SymbolID]SymbolID)

	stop := b.cfg.Timer.Start("load")
	if err := b.load(ctx); err != nil {
		stop("failed")
		span.End("load failed")
		return nil, err
	}
	stop(fmt.Sprintf("%d units", len(b.table.units)))

	stop = b.cfg.Timer.Start("declare")
	if err := b.declareAll(); err != nil {
		stop("failed")
		span.End("declare failed")
		return nil, err
	}
	stop(fmt.Sprintf("%d symbols", b.table.Symbols.Len()))

	stop = b.cfg.Timer.Start("types")
	b.resolveTypes()
	stop("")

	stop = b.cfg.Timer.Start("resolve")
	if err := b.resolveOccurrences(ctx); err != nil {
		stop("failed")
		span.End("resolve failed")
		return nil, err
	}
	stop("")
	span.End(fmt.Sprintf("%d units, %d symbols", len(b.table.units), b.table.Symbols.Len()))
	t := b.table
	b.table = nil
	return t, nil
}

func (b *Builder) progress(stage Stage, path string, done, total int) {
	if b.cfg.Progress != nil {
		b.cfg.Progress(Progress{Stage: stage, Path: path, Done: done, Total: total})
	}
}

// declareAll runs phase one over every loaded unit in table order.
func (b *Builder) declareAll() error {
	span := trace.Begin(b.tracer, trace.ScopePass, "declare")
	for i, u := range b.table.units {
		b.resolveUses(u)
		if err := newDeclarer(b, u).declareUnit(); err != nil {
			span.End("error")
			return err
		}
		b.progress(StageDeclared, u.Path, i+1, len(b.table.units))
	}
	span.End(fmt.Sprintf("%d symbols", b.table.Symbols.Len()))
	return nil
}

// resolveOccurrences runs the per-unit half of phase two in parallel.
// Declarations are read-only from here on; each worker writes only the
// occurrences of its own unit.
func (b *Builder) resolveOccurrences(ctx context.Context) error {
	span := trace.Begin(b.tracer, trace.ScopePass, "resolve")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.jobs())
	total := len(b.table.units)
	var done atomic.Int64
	for _, u := range b.table.units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			newRefResolver(b, u).resolveUnit()
			b.progress(StageResolved, u.Path, int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End("cancelled")
		return &BuildError{Err: err}
	}
	span.End("")
	return nil
}
