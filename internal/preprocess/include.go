package preprocess

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"pasfront/internal/diag"
	"pasfront/internal/source"
	"pasfront/internal/trace"
)

// include resolves, preprocesses and records the splice of one include
// directive. Resolution problems are warnings; the include then contributes
// nothing.
func (f *fileUnit) include(n *simpleNode) error {
	tok := &f.toks[n.pos]
	raw := n.dir.Path
	tr := f.sess.cfg.tracer()

	path, ok := f.resolve(raw)
	if !ok {
		f.report(diag.PPIncludeNotFound, tok, fmt.Sprintf("include file %q not found", raw))
		trace.Point(tr, trace.ScopeDirective, "include", "not found", map[string]string{"file": f.file.Path, "include": raw})
		return nil
	}
	if f.sess.onStack(path) {
		msg := fmt.Sprintf("%s includes itself", filepath.Base(path))
		if canonical(path) != canonical(f.file.Path) {
			msg = fmt.Sprintf("include cycle through %s", filepath.Base(path))
		}
		f.report(diag.PPSelfInclude, tok, msg)
		trace.Point(tr, trace.ScopeDirective, "include", "self reference", map[string]string{"file": f.file.Path, "include": path})
		return nil
	}
	if f.depth+1 > f.sess.cfg.includeDepth() {
		f.report(diag.PPIncludeTooDeep, tok, fmt.Sprintf("includes nested deeper than %d", f.sess.cfg.includeDepth()))
		return nil
	}
	file, err := f.sess.load(path)
	if err != nil {
		f.report(diag.IOLoadFileError, tok, fmt.Sprintf("cannot read include file: %v", err))
		return nil
	}

	child := f.sess.newUnit(file, f.depth+1)
	f.sess.push(file.Path)
	err = child.run()
	f.sess.pop()
	if err != nil {
		return fmt.Errorf("in %s: %w", file.Path, err)
	}
	f.splices[n.pos] = child
	f.sess.includes = append(f.sess.includes, Include{Path: file.Path, Hash: file.Hash, Depth: child.depth})
	trace.Point(tr, trace.ScopeDirective, "include", file.Path, nil)
	return nil
}

// load reuses a file already in the set; include files are read once per
// run no matter how many units include them.
func (s *session) load(path string) (*source.File, error) {
	if file, ok := s.cfg.Files.GetByPath(path); ok {
		return file, nil
	}
	id, err := s.cfg.Files.LoadWithFlags(path, source.FileInclude)
	if err != nil {
		return nil, err
	}
	return s.cfg.Files.Get(id), nil
}

// resolve finds an include file: the including file's directory and its
// subdirectories first, then the search path in order. A '*' stands for the
// including file's base name.
func (f *fileUnit) resolve(raw string) (string, bool) {
	name := strings.ReplaceAll(raw, `\`, "/")
	if strings.Contains(name, "*") {
		name = strings.Replace(name, "*", source.BaseName(f.file.Path), 1)
	}
	name = filepath.FromSlash(name)
	if filepath.IsAbs(name) {
		return findFile(filepath.Dir(name), filepath.Base(name))
	}
	if f.file.Flags&source.FileVirtual == 0 {
		if p, ok := findUnder(filepath.Dir(filepath.FromSlash(f.file.Path)), name); ok {
			return p, true
		}
	}
	for _, dir := range f.sess.cfg.SearchPath {
		if p, ok := findFile(dir, name); ok {
			return p, true
		}
	}
	return "", false
}

// findUnder looks in root, then in every subdirectory of root in lexical
// order.
func findUnder(root, name string) (string, bool) {
	if p, ok := findFile(root, name); ok {
		return p, true
	}
	var found string
	errStop := errors.New("found")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if p, ok := findFile(path, name); ok {
			found = p
			return errStop
		}
		return nil
	})
	return found, found != ""
}

// findFile checks dir/name, falling back to a case-insensitive match of the
// last element: unit sources are written for case-insensitive file systems.
func findFile(dir, name string) (string, bool) {
	p := filepath.Join(dir, name)
	if st, err := os.Stat(p); err == nil && !st.IsDir() {
		return p, true
	}
	parent, base := filepath.Split(p)
	if parent == "" {
		parent = "."
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), base) {
			return filepath.Join(parent, e.Name()), true
		}
	}
	return "", false
}
