package preprocess

import (
	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/source"
	"pasfront/internal/toolchain"
	"pasfront/internal/trace"
)

// DefaultIncludeDepth bounds nested includes.
const DefaultIncludeDepth = 64

// Sizer answers SizeOf(X) in $IF conditions. *types.Factory implements it.
type Sizer interface {
	SizeOf(name string) (int, bool)
}

// Config is everything a preprocessing run depends on. It is passed by
// value; nothing is cached between runs.
type Config struct {
	Files      *source.FileSet // include files are loaded here; nil creates one
	Target     toolchain.Target
	Defines    []string // user defines, added to the target's predefined symbols
	SearchPath []string // include directories, searched in order
	// Constants are extra names visible to $IF, e.g. from a project file.
	Constants    map[string]directive.Value
	Sizer        Sizer
	IncludeDepth int // 0 means DefaultIncludeDepth
	Reporter     diag.Reporter
	Tracer       trace.Tracer
}

func (c *Config) reporter() diag.Reporter {
	if c.Reporter == nil {
		return diag.NopReporter{}
	}
	return c.Reporter
}

func (c *Config) tracer() trace.Tracer {
	if c.Tracer == nil {
		return trace.Nop
	}
	return c.Tracer
}

func (c *Config) includeDepth() int {
	if c.IncludeDepth <= 0 {
		return DefaultIncludeDepth
	}
	return c.IncludeDepth
}

// InitialDefines returns the definition set a unit starts with: the
// target's predefined symbols and the configured ones.
func (c *Config) InitialDefines() []string {
	var out []string
	if c.Target.Toolchain != 0 {
		out = append(out, c.Target.Toolchain.Defines()...)
	}
	if c.Target.Version != 0 {
		out = append(out, c.Target.Version.Defines()...)
	}
	return append(out, c.Defines...)
}
