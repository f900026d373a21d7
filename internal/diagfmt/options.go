package diagfmt

import (
	"os"
	"path/filepath"
	"strings"

	"pasfront/internal/diag"
	"pasfront/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto uses a path relative to BaseDir when the file lives
	// below it, the absolute path otherwise.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode maps a command line spelling to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch strings.ToLower(s) {
	case "", "auto":
		return PathModeAuto, true
	case "absolute", "abs":
		return PathModeAbsolute, true
	case "relative", "rel":
		return PathModeRelative, true
	case "basename", "base":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Context   int8 // source lines shown up to the primary line, 0 for none
	PathMode  PathMode
	BaseDir   string // empty means the working directory
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // line/col next to byte offsets
	PathMode         PathMode
	BaseDir          string
	Max              int // truncates the output, not the Bag
	IncludeNotes     bool
}

// FormatPath renders path according to mode.
func FormatPath(path string, mode PathMode, base string) string {
	switch mode {
	case PathModeAbsolute:
		return absPath(path)
	case PathModeBasename:
		return filepath.Base(filepath.FromSlash(path))
	case PathModeRelative:
		if rel, ok := relPath(path, base); ok {
			return rel
		}
		return filepath.ToSlash(path)
	default:
		if rel, ok := relPath(path, base); ok && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return absPath(path)
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(filepath.FromSlash(path))
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(abs)
}

func relPath(path, base string) (string, bool) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		base = wd
	}
	rel, err := filepath.Rel(filepath.FromSlash(absPath(base)), filepath.FromSlash(absPath(path)))
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// located reports whether sp can be shown as a file position. Project,
// I/O and timing diagnostics with a zero span have no position.
func located(fs *source.FileSet, sp source.Span, code diag.Code) bool {
	if fs == nil || int(sp.File) >= fs.Len() {
		return false
	}
	if sp == (source.Span{}) && unanchored(code) {
		return false
	}
	return true
}

func unanchored(code diag.Code) bool {
	c := int(code)
	return (c >= 4000 && c < 6000) || (c >= 7000 && c < 8000)
}
