package preprocess

import (
	"strings"

	"pasfront/internal/directive"
	"pasfront/internal/names"
)

// env resolves $IF names against the shared definition set.
type env struct {
	defines *names.Set
	consts  map[string]directive.Value
	sizer   Sizer
}

func newEnv(cfg *Config, defines *names.Set) *env {
	e := &env{defines: defines, consts: map[string]directive.Value{}, sizer: cfg.Sizer}
	if v := cfg.Target.Version; v != 0 {
		e.consts[names.Key("CompilerVersion")] = directive.RealValue(v.Float())
		e.consts[names.Key("RTLVersion")] = directive.RealValue(v.RTLVersion())
	}
	for name, v := range cfg.Constants {
		e.consts[names.Key(name)] = v
	}
	return e
}

func (e *env) Defined(name string) bool { return e.defines.Has(name) }

func (e *env) Constant(name string) (directive.Value, bool) {
	v, ok := e.consts[names.Key(name)]
	return v, ok
}

func (e *env) SizeOf(name string) (int, bool) {
	if e.sizer == nil {
		return 0, false
	}
	// SizeOf(System.Pointer)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return e.sizer.SizeOf(name)
}
