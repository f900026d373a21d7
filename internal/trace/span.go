package trace

import (
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// Span is an open interval of work. A nil or disabled Span is inert, so
// callers never check whether tracing is on.
type Span struct {
	tracer  Tracer
	id      uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

// Begin opens a span and records its start when t allows scope.
func Begin(t Tracer, scope Scope, name string) *Span {
	if !Enabled(t) || !t.Level().Allows(scope) {
		return &Span{}
	}
	s := &Span{
		tracer:  t,
		id:      spanCounter.Add(1),
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(&Event{
		Time:   s.started,
		Seq:    seqCounter.Add(1),
		Kind:   KindBegin,
		Scope:  scope,
		SpanID: s.id,
		Name:   name,
	})
	return s
}

// WithExtra attaches a key to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// End records the end of the span and returns its duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	elapsed := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:    time.Now(),
		Seq:     seqCounter.Add(1),
		Kind:    KindEnd,
		Scope:   s.scope,
		SpanID:  s.id,
		Name:    s.name,
		Detail:  detail,
		Elapsed: elapsed,
		Extra:   s.extra,
	})
	s.tracer = nil
	return elapsed
}

// Point records an instant event such as an include that was not found.
func Point(t Tracer, scope Scope, name, detail string, extra map[string]string) {
	if !Enabled(t) || !t.Level().Allows(scope) {
		return
	}
	t.Emit(&Event{
		Time:   time.Now(),
		Seq:    seqCounter.Add(1),
		Kind:   KindPoint,
		Scope:  scope,
		Name:   name,
		Detail: detail,
		Extra:  extra,
	})
}
