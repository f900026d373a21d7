// Package observ measures how long the front end phases take.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
	open  bool
}

// Timer records named phases in the order they start. A nil Timer records
// nothing. It is safe for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []phase
}

func NewTimer() *Timer { return &Timer{phases: make([]phase, 0, 8)} }

// Start opens a phase and returns the function that closes it. Closing
// twice keeps the first duration.
func (t *Timer) Start(name string) func(note string) {
	if t == nil {
		return func(string) {}
	}
	t.mu.Lock()
	idx := len(t.phases)
	t.phases = append(t.phases, phase{name: name, start: time.Now(), open: true})
	t.mu.Unlock()
	return func(note string) {
		t.mu.Lock()
		defer t.mu.Unlock()
		p := &t.phases[idx]
		if !p.open {
			return
		}
		p.dur = time.Since(p.start)
		p.note = note
		p.open = false
	}
}

// PhaseReport is the serialized form of one phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report lists phases and their summed duration in milliseconds.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the closed phases. Phases still open are left out.
func (t *Timer) Report() Report {
	if t == nil {
		return Report{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	var total time.Duration
	for _, p := range t.phases {
		if p.open {
			continue
		}
		total += p.dur
		r.Phases = append(r.Phases, PhaseReport{Name: p.name, DurationMS: Millis(p.dur), Note: p.note})
	}
	r.TotalMS = Millis(total)
	return r
}

// Single builds a report of one measured phase.
func Single(name string, d time.Duration, note string) Report {
	ms := Millis(d)
	return Report{TotalMS: ms, Phases: []PhaseReport{{Name: name, DurationMS: ms, Note: note}}}
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// String renders the report as an aligned table.
func (r Report) String() string {
	var sb strings.Builder
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "%-12s %8.1f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(&sb, "  (%s)", p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%-12s %8.1f ms\n", "total", r.TotalMS)
	return sb.String()
}
