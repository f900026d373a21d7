package ui

import (
	"strings"
	"testing"

	"pasfront/internal/symbols"
)

func TestProgressModelTracksUnits(t *testing.T) {
	events := make(chan symbols.Progress)
	m := NewProgressModel("analyze", events).(*progressModel)

	m.Update(eventMsg{Stage: symbols.StageParsed, Path: "src/A.pas", Done: 1, Total: 2})
	m.Update(eventMsg{Stage: symbols.StageParsed, Path: "src/B.pas", Done: 2, Total: 2})
	m.Update(eventMsg{Stage: symbols.StageResolved, Path: "src/A.pas", Done: 1, Total: 2})
	// a late event never moves a unit backwards
	m.Update(eventMsg{Stage: symbols.StageDeclared, Path: "src/A.pas", Done: 1, Total: 2})

	if len(m.items) != 2 {
		t.Fatalf("items = %+v", m.items)
	}
	if m.items[0].stage != symbols.StageResolved || m.items[1].stage != symbols.StageParsed {
		t.Fatalf("stages = %v, %v", m.items[0].stage, m.items[1].stage)
	}
	if got, want := m.percent(), (1.0+0.4)/2; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("percent = %v, want %v", got, want)
	}

	view := m.View()
	for _, want := range []string{"analyze (declared 1/2)", "2 units: 1 parsed, 0 declared, 1 resolved", "src/B.pas"} {
		if !strings.Contains(view, want) {
			t.Errorf("view misses %q:\n%s", want, view)
		}
	}

	m.Update(doneMsg{})
	if !strings.Contains(m.View(), "done: analyze") {
		t.Errorf("done view:\n%s", m.View())
	}
}

func TestProgressModelScrollsLongLists(t *testing.T) {
	m := NewProgressModel("analyze", nil).(*progressModel)
	for i := range maxVisible + 3 {
		m.applyEvent(symbols.Progress{Stage: symbols.StageParsed, Path: string(rune('a'+i)) + ".pas", Done: i + 1, Total: maxVisible + 3})
	}
	view := m.View()
	if !strings.Contains(view, "3 more") || strings.Contains(view, " a.pas") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdef", 2, "ab"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
