package symbols

import "errors"

// Causes of a failed build. A *BuildError wraps one of them.
var (
	ErrNoFactory      = errors.New("no type factory")
	ErrNoPreprocessor = errors.New("no preprocessor configuration")
	ErrStdlibMissing  = errors.New("standard library not found")
	ErrStdlibEmpty    = errors.New("standard library contains no units")
	ErrSystemUnit     = errors.New("mandatory system unit missing or invalid")
	ErrSearchPath     = errors.New("cannot read search path")
	ErrDuplicate      = errors.New("duplicate declaration")
)

// BuildError is the single error a failed build returns. No table is
// produced alongside it.
type BuildError struct {
	Path string // file or directory involved, if any
	Err  error
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return "symbol table: " + e.Err.Error()
	}
	return "symbol table: " + e.Path + ": " + e.Err.Error()
}

func (e *BuildError) Unwrap() error { return e.Err }
