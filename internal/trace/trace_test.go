package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelAllowsScopes(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeUnit, false},
		{LevelDetail, ScopeUnit, true},
		{LevelDetail, ScopeDirective, false},
		{LevelDebug, ScopeDirective, true},
	}
	for _, tc := range cases {
		if got := tc.level.Allows(tc.scope); got != tc.want {
			t.Errorf("%s.Allows(%s) = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevelAndMode(t *testing.T) {
	lvl, err := ParseLevel("DETAIL")
	if err != nil || lvl != LevelDetail {
		t.Fatalf("ParseLevel(DETAIL) = %v, %v", lvl, err)
	}
	if lvl, err := ParseLevel(""); err != nil || lvl != LevelOff {
		t.Fatalf("ParseLevel(\"\") = %v, %v", lvl, err)
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("ParseLevel accepted verbose")
	}
	if m, err := ParseMode("Ring"); err != nil || m != ModeRing {
		t.Fatalf("ParseMode(Ring) = %v, %v", m, err)
	}
	if _, err := ParseMode("file"); err == nil {
		t.Fatalf("ParseMode accepted file")
	}
}

func TestStreamTracerWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)
	sp := Begin(tr, ScopePass, "preprocess")
	Point(tr, ScopeDirective, "include", "Missing.inc", map[string]string{"b": "2", "a": "1"})
	sp.WithExtra("tokens", "12").End("ok")
	sp.End("again")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	for i, want := range []string{
		"pass      + preprocess",
		"directive * include: Missing.inc a=1 b=2",
		"pass      - preprocess: ok [",
	} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
	if !strings.HasSuffix(lines[2], " tokens=12") {
		t.Errorf("end line = %q", lines[2])
	}
}

func TestStreamTracerNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Output: &buf, OutputPath: "run.ndjson"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Begin(tr, ScopeDriver, "analyze").WithExtra("sources", "2").End("")
	Point(tr, ScopeUnit, "hidden at phase level", "", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	var end struct {
		Kind  string            `json:"kind"`
		Scope string            `json:"scope"`
		Name  string            `json:"name"`
		Extra map[string]string `json:"extra"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &end); err != nil {
		t.Fatalf("decode %q: %v", lines[1], err)
	}
	if end.Kind != "end" || end.Scope != "driver" || end.Name != "analyze" || end.Extra["sources"] != "2" {
		t.Errorf("end event = %+v", end)
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	tr := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(tr, ScopeUnit, name, "", nil)
	}
	snap := tr.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := tr.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 2 || !strings.Contains(buf.String(), "* c") {
		t.Errorf("dump = %q", buf.String())
	}
}

func TestBothModeFeedsRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf, RingSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Point(tr, ScopePass, "load", "", nil)
	ring, ok := Ring(tr)
	if !ok {
		t.Fatalf("both mode has no ring")
	}
	if got := len(ring.Snapshot()); got != 1 {
		t.Errorf("ring holds %d events", got)
	}
	if !strings.Contains(buf.String(), "* load") {
		t.Errorf("stream = %q", buf.String())
	}
	if _, ok := Ring(NewStreamTracer(&buf, LevelPhase, FormatText)); ok {
		t.Errorf("stream tracer reported a ring")
	}
}

func TestContextFallsBackToNop(t *testing.T) {
	if Enabled(FromContext(context.Background())) {
		t.Fatalf("empty context should yield Nop")
	}
	tr := NewRingTracer(4, LevelPhase)
	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != Tracer(tr) {
		t.Fatalf("tracer not propagated")
	}
	if FromContext(WithTracer(context.Background(), nil)) != Nop {
		t.Fatalf("nil tracer not replaced by Nop")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || Enabled(tr) {
		t.Fatalf("New(off) = %v, %v", tr, err)
	}
	sp := Begin(tr, ScopeDriver, "x")
	if d := sp.WithExtra("k", "v").End(""); d != 0 {
		t.Fatalf("disabled span measured %v", d)
	}
}
