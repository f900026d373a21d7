package symbols

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/names"
	"pasfront/internal/parser"
	"pasfront/internal/preprocess"
	"pasfront/internal/source"
	"pasfront/internal/trace"
)

// toolsDir is the standard library subtree that only design-time
// packages use; it is never loaded.
const toolsDir = "ToolsAPI"

// mandatoryUnits must exist in the standard library and parse cleanly.
var mandatoryUnits = []string{"System", "SysInit"}

// loadResult is the outcome of parsing one file. unit is nil when the file
// could not be loaded or preprocessed; err is also set for syntax errors.
type loadResult struct {
	path string
	unit *Unit
	err  error
}

// load parses the standard library and the sources, then pulls in units
// named by uses clauses from the search path, one wave at a time, until
// no new unit can be found.
func (b *Builder) load(ctx context.Context) error {
	span := trace.Begin(b.tracer, trace.ScopePass, "load")
	defer span.End("")

	std, err := stdlibFiles(b.cfg.StandardLibrary)
	if err != nil {
		return err
	}
	search, err := b.indexSearchPath()
	if err != nil {
		return err
	}

	results, err := b.parseAll(ctx, std, true)
	if err != nil {
		return err
	}
	if err := checkMandatory(results); err != nil {
		return err
	}
	b.register(results)
	b.table.system, _ = b.table.UnitByName("System")
	b.table.sysInit, _ = b.table.UnitByName("SysInit")

	attempted := make(map[string]bool, len(std)+len(b.cfg.Sources))
	for _, p := range std {
		attempted[source.NormalizePath(p)] = true
	}
	for _, p := range b.cfg.Sources {
		attempted[source.NormalizePath(p)] = true
	}
	results, err = b.parseAll(ctx, b.cfg.Sources, false)
	if err != nil {
		return err
	}
	b.register(results)

	for wave := 1; ; wave++ {
		missing := b.missingUnits(search, attempted)
		if len(missing) == 0 {
			break
		}
		trace.Point(b.tracer, trace.ScopePass, "uses wave", fmt.Sprintf("%d units", len(missing)),
			map[string]string{"wave": fmt.Sprint(wave)})
		results, err = b.parseAll(ctx, missing, false)
		if err != nil {
			return err
		}
		b.register(results)
	}
	return nil
}

// stdlibFiles lists the units below root, skipping the tools subtree.
func stdlibFiles(root string) ([]string, error) {
	if root == "" {
		return nil, &BuildError{Err: ErrStdlibMissing}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, &BuildError{Path: root, Err: fmt.Errorf("%w: %w", ErrStdlibMissing, err)}
	}
	if !info.IsDir() {
		return nil, &BuildError{Path: root, Err: fmt.Errorf("%w: not a directory", ErrStdlibMissing)}
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.EqualFold(d.Name(), toolsDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if isUnitFile(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, &BuildError{Path: root, Err: err}
	}
	if len(out) == 0 {
		return nil, &BuildError{Path: root, Err: ErrStdlibEmpty}
	}
	sort.Strings(out)
	return out, nil
}

func isUnitFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pas")
}

// unitStem is the unit name a file is expected to declare.
func unitStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// indexSearchPath maps unit names to files. The directories of the
// sources come first, then the search path in order; the first file
// found for a name wins. A missing directory is only a warning, any
// other read failure aborts the build.
func (b *Builder) indexSearchPath() (map[string]string, error) {
	dirs := make([]string, 0, len(b.cfg.SearchPath)+1)
	seen := make(map[string]bool)
	for _, p := range b.cfg.Sources {
		if d := filepath.Dir(p); !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, d := range b.cfg.SearchPath {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}

	index := make(map[string]string)
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				diag.ReportWarning(b.reporter, diag.IOReadDirError, source.Span{},
					fmt.Sprintf("search path entry %s does not exist", dir)).Emit()
				continue
			}
			return nil, &BuildError{Path: dir, Err: fmt.Errorf("%w: %w", ErrSearchPath, err)}
		}
		for _, e := range entries {
			if e.IsDir() || !isUnitFile(e.Name()) {
				continue
			}
			key := names.Key(unitStem(e.Name()))
			if _, ok := index[key]; !ok {
				index[key] = filepath.Join(dir, e.Name())
			}
		}
	}
	return index, nil
}

// parseAll preprocesses and parses paths in parallel. Per-file failures
// are reported and returned in the results; only cancellation fails the
// call.
func (b *Builder) parseAll(ctx context.Context, paths []string, stdlib bool) ([]loadResult, error) {
	results := make([]loadResult, len(paths))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.jobs())
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := b.parseUnit(path, stdlib)
			results[i] = loadResult{path: path, unit: u, err: err}
			b.progress(StageParsed, path, int(done.Add(1)), len(paths))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &BuildError{Err: err}
	}
	return results, nil
}

// parseUnit loads, preprocesses and parses one file.
func (b *Builder) parseUnit(path string, stdlib bool) (*Unit, error) {
	span := trace.Begin(b.tracer, trace.ScopeUnit, "parse unit").WithExtra("file", path)
	defer span.End("")

	id, err := b.files.Load(path)
	if err != nil {
		b.reportSkipped(stdlib, diag.IOLoadFileError, source.Span{}, path, err)
		return nil, err
	}
	file := b.files.Get(id)

	cfg := *b.cfg.Preprocess
	cfg.Files = b.files
	cfg.Reporter = b.reporter
	if cfg.Tracer == nil {
		cfg.Tracer = b.tracer
	}
	if cfg.Sizer == nil {
		cfg.Sizer = b.cfg.Factory
	}
	run := b.cfg.Preprocessor
	if run == nil {
		run = func(f *source.File, c preprocess.Config) (*preprocess.Result, error) {
			return preprocess.New(f, c).Process()
		}
	}
	res, err := run(file, cfg)
	if err != nil {
		b.reportSkipped(stdlib, diag.PPBadDirective, directiveSpan(err, file), path, err)
		return nil, err
	}

	p := parser.New(file.Path, res.Tokens, parser.Options{
		MaxErrors: b.cfg.ParseMaxErrors,
		Reporter:  b.reporter,
	})
	tree := p.Parse()
	if p.Errors() > 0 {
		err = fmt.Errorf("%d syntax errors", p.Errors())
	}

	name := tree.UnitName()
	if name == "" {
		name = unitStem(path)
	}
	if tree.Kind == ast.UnitUnit && !stdlib && len(tree.Name) > 0 && !names.Equal(name, unitStem(path)) {
		diag.ReportWarning(b.reporter, diag.SemaUnitNameMismatch, tree.Name[0].Span,
			fmt.Sprintf("unit %s is declared in %s", name, filepath.Base(path))).Emit()
	}
	return &Unit{
		Name:   name,
		Path:   file.Path,
		Kind:   tree.Kind,
		Stdlib: stdlib,
		File:   tree,
		Tokens: res,
	}, err
}

func (b *Builder) reportSkipped(stdlib bool, code diag.Code, sp source.Span, path string, err error) {
	if stdlib {
		diag.ReportWarning(b.reporter, diag.ProjStdlibUnitSkipped, sp,
			fmt.Sprintf("skipping %s: %v", path, err)).Emit()
		return
	}
	diag.ReportError(b.reporter, code, sp, fmt.Sprintf("%s: %v", path, err)).Emit()
}

// directiveSpan points at the malformed directive, or at the file start.
func directiveSpan(err error, file *source.File) source.Span {
	var perr *directive.ParseError
	if errors.As(err, &perr) {
		return perr.Token.Span
	}
	return source.Span{File: file.ID}
}

// checkMandatory fails when System or SysInit is absent, did not
// preprocess, or has syntax errors.
func checkMandatory(results []loadResult) error {
	for _, name := range mandatoryUnits {
		found := false
		for _, r := range results {
			if !names.Equal(unitStem(r.path), name) {
				continue
			}
			found = true
			if r.unit == nil || r.err != nil {
				return &BuildError{Path: r.path, Err: fmt.Errorf("%w: %s: %w", ErrSystemUnit, name, r.err)}
			}
		}
		if !found {
			return &BuildError{Err: fmt.Errorf("%w: %s not found", ErrSystemUnit, name)}
		}
	}
	return nil
}

// register publishes a batch of parsed units in path order. A second unit
// with a known name is reported and dropped.
func (b *Builder) register(results []loadResult) {
	units := make([]*Unit, 0, len(results))
	for _, r := range results {
		if r.unit != nil {
			units = append(units, r.unit)
		}
	}
	sortUnits(units)
	for _, u := range units {
		if prev, ok := b.table.UnitByName(u.Name); ok {
			diag.ReportWarning(b.reporter, diag.ProjDuplicateUnit, source.Span{},
				fmt.Sprintf("unit %s in %s is already loaded from %s", u.Name, u.Path, prev.Path)).Emit()
			continue
		}
		b.table.addUnit(u)
	}
}

// missingUnits returns the files that satisfy uses clauses not yet
// satisfied by a loaded unit.
func (b *Builder) missingUnits(search map[string]string, attempted map[string]bool) []string {
	var out []string
	add := func(path string) bool {
		key := source.NormalizePath(path)
		if attempted[key] {
			return false
		}
		attempted[key] = true
		out = append(out, path)
		return true
	}
	for _, u := range b.table.units {
		for _, item := range usesOf(u.File) {
			name := item.UnitName()
			if b.table.findUnit(name) != nil {
				continue
			}
			if item.Path != "" {
				p := filepath.FromSlash(strings.ReplaceAll(item.Path, `\`, "/"))
				if !filepath.IsAbs(p) {
					p = filepath.Join(filepath.Dir(u.Path), p)
				}
				if _, err := os.Stat(p); err == nil {
					add(p)
					continue
				}
			}
			for _, cand := range b.table.unitCandidates(name) {
				if path, ok := search[names.Key(cand)]; ok {
					add(path)
					break
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func usesOf(f *ast.File) []ast.UsesItem {
	var out []ast.UsesItem
	if f.Interface != nil {
		out = append(out, f.Interface.Uses...)
	}
	if f.Implementation != nil {
		out = append(out, f.Implementation.Uses...)
	}
	return out
}

// resolveUses links the uses clauses of u to loaded units.
func (b *Builder) resolveUses(u *Unit) {
	link := func(sec *ast.Section) []*Unit {
		if sec == nil {
			return nil
		}
		out := make([]*Unit, 0, len(sec.Uses))
		for _, item := range sec.Uses {
			if used := b.table.findUnit(item.UnitName()); used != nil {
				out = append(out, used)
				continue
			}
			if !u.Stdlib && len(item.Name) > 0 {
				diag.ReportWarning(b.reporter, diag.SemaUnresolvedUnit, item.Name[0].Span,
					fmt.Sprintf("unit %s not found", item.UnitName())).Emit()
			}
		}
		return out
	}
	u.InterfaceUses = link(u.File.Interface)
	u.ImplementationUses = link(u.File.Implementation)
}
