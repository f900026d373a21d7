package preprocess

import (
	"fmt"
	"path/filepath"

	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/lexer"
	"pasfront/internal/names"
	"pasfront/internal/source"
	"pasfront/internal/token"
	"pasfront/internal/trace"
)

// Preprocessor runs one unit. It is single use: internal token bookkeeping
// is consumed by Process.
type Preprocessor struct {
	file      *source.File
	cfg       Config
	processed bool
}

// New prepares a preprocessing run of file.
func New(file *source.File, cfg Config) *Preprocessor {
	if cfg.Files == nil {
		cfg.Files = source.NewFileSet()
	}
	return &Preprocessor{file: file, cfg: cfg}
}

// session is the state an include chain shares: definitions, switch events
// and the stack of files being processed.
type session struct {
	cfg      *Config
	defines  *names.Set
	env      *env
	marks    []switchEvent
	includes []Include
	params   []directive.Directive
	active   []string
}

type switchEvent struct {
	unit    *fileUnit
	pos     int
	setting directive.SwitchSetting
}

// fileUnit is the arena of one file's tokens.
type fileUnit struct {
	sess    *session
	file    *source.File
	depth   int
	toks    []token.Token
	kept    []bool
	splices map[int]*fileUnit // include directive position -> included file
	final   []int             // arena position -> final index, -1 if deleted
}

// Process tokenizes, groups and executes the unit and returns the final
// stream. A malformed directive aborts the run with a *directive.ParseError.
// Calling Process twice panics.
func (p *Preprocessor) Process() (*Result, error) {
	if p.processed {
		panic(fmt.Sprintf("preprocess: Process called twice for %s", p.file.Path))
	}
	p.processed = true

	span := trace.Begin(p.cfg.tracer(), trace.ScopeUnit, "preprocess").
		WithExtra("file", p.file.Path)

	sess := &session{cfg: &p.cfg, defines: names.NewSet(p.cfg.InitialDefines()...)}
	sess.env = newEnv(&p.cfg, sess.defines)
	root := sess.newUnit(p.file, 0)

	sess.push(p.file.Path)
	err := root.run()
	sess.pop()
	if err != nil {
		span.End("error")
		return nil, fmt.Errorf("preprocess %s: %w", p.file.Path, err)
	}

	out := make([]token.Token, 0, len(root.toks))
	root.emit(nil, &out)

	marks := make([]switchMark, 0, len(sess.marks))
	for _, ev := range sess.marks {
		if idx := ev.unit.final[ev.pos]; idx >= 0 {
			marks = append(marks, switchMark{index: idx, setting: ev.setting})
		}
	}
	res := &Result{
		File:       p.file,
		Tokens:     out,
		Switches:   newSwitchRegistry(marks, len(out)-1),
		Includes:   sess.includes,
		Parameters: sess.params,
		Defines:    sess.defines.Names(),
	}
	span.End(fmt.Sprintf("%d tokens, %d includes", len(out), len(sess.includes)))
	return res, nil
}

func (s *session) newUnit(file *source.File, depth int) *fileUnit {
	toks := lexer.Tokenize(file, lexer.Options{Reporter: s.cfg.reporter()})
	kept := make([]bool, len(toks))
	for i := range kept {
		kept[i] = true
	}
	return &fileUnit{sess: s, file: file, depth: depth, toks: toks, kept: kept, splices: map[int]*fileUnit{}}
}

func (s *session) push(path string) { s.active = append(s.active, canonical(path)) }
func (s *session) pop()             { s.active = s.active[:len(s.active)-1] }

func (s *session) onStack(path string) bool {
	c := canonical(path)
	for _, p := range s.active {
		if p == c {
			return true
		}
	}
	return false
}

func canonical(path string) string {
	if abs, err := filepath.Abs(filepath.FromSlash(path)); err == nil {
		path = abs
	}
	return source.NormalizePath(path)
}

func (f *fileUnit) report(code diag.Code, tok *token.Token, msg string) {
	sev := diag.SevError
	switch code {
	case diag.PPIncludeNotFound, diag.PPSelfInclude, diag.PPDirectiveWrongTarget, diag.IOLoadFileError:
		sev = diag.SevWarning
	case diag.PPIfOptUnsupported, diag.PPInfo:
		sev = diag.SevInfo
	}
	diag.NewReportBuilder(f.sess.cfg.reporter(), sev, code, tok.Span, msg).Emit()
}

func (f *fileUnit) run() error {
	b := &builder{f: f}
	top, err := b.build()
	if err != nil {
		return err
	}
	return f.execute(top)
}

func (f *fileUnit) execute(nodes []node) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case *simpleNode:
			if err := f.apply(n); err != nil {
				return err
			}
		case *groupNode:
			taken := false
			for _, br := range n.branches {
				if !taken && f.holds(br) {
					taken = true
					if err := f.execute(br.nodes); err != nil {
						return err
					}
					continue
				}
				f.drop(br)
			}
		}
	}
	return nil
}

func (f *fileUnit) holds(br *branch) bool {
	d := br.dir
	switch d.Kind {
	case directive.KindIfDef:
		return f.sess.defines.Has(d.Name) == d.Positive
	case directive.KindIf, directive.KindElseIf:
		return directive.Holds(d.Expr, f.sess.env)
	case directive.KindElse:
		return true
	case directive.KindIfOpt:
		f.report(diag.PPIfOptUnsupported, &f.toks[br.pos], "$IFOPT is not evaluated; branch treated as false")
		return false
	}
	return false
}

// drop deletes a losing branch. Nested groups go with it whatever their own
// conditions say.
func (f *fileUnit) drop(br *branch) {
	for _, pos := range br.tokens {
		f.kept[pos] = false
	}
	for _, n := range br.nodes {
		if g, ok := n.(*groupNode); ok {
			for _, nested := range g.branches {
				f.drop(nested)
			}
		}
	}
}

func (f *fileUnit) apply(n *simpleNode) error {
	d := n.dir
	switch d.Kind {
	case directive.KindDefine:
		f.sess.defines.Add(d.Name)
	case directive.KindUndefine:
		f.sess.defines.Remove(d.Name)
	case directive.KindInclude:
		return f.include(n)
	case directive.KindSwitch:
		for _, s := range d.Switches {
			f.sess.marks = append(f.sess.marks, switchEvent{unit: f, pos: n.pos, setting: s})
		}
	case directive.KindParameter:
		if tc := f.sess.cfg.Target.Toolchain; tc != 0 && !d.Param.SupportedOn(tc.Platform()) {
			f.report(diag.PPDirectiveWrongTarget, &f.toks[n.pos],
				fmt.Sprintf("$%s has no effect when targeting %s", d.Param, tc.Platform()))
		}
		f.sess.params = append(f.sess.params, d)
	}
	return nil
}

// emit appends the kept tokens of f, with its splices, to out and assigns
// final indices. origin is nil for the top-level file.
func (f *fileUnit) emit(origin *token.Insertion, out *[]token.Token) {
	f.final = make([]int, len(f.toks))
	for pos := range f.toks {
		f.final[pos] = -1
		tok := f.toks[pos]
		if !f.kept[pos] || (tok.Kind == token.EOF && origin != nil) {
			continue
		}
		tok.Index = len(*out)
		if origin != nil {
			tok.Origin = origin
			tok.Flags |= token.FlagIncluded
		}
		f.final[pos] = tok.Index
		*out = append(*out, tok)

		if child, ok := f.splices[pos]; ok {
			site := origin
			if site == nil {
				site = &token.Insertion{Path: f.file.Path, Line: tok.Line, Col: tok.Col}
			}
			child.emit(site, out)
		}
	}
}
