package observ

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	if got := tm.Report(); len(got.Phases) != 0 || got.TotalMS != 0 {
		t.Fatalf("empty timer report = %+v", got)
	}
	stopLoad := tm.Start("load")
	stopLoad("3 units")
	stopLoad("again")
	stopResolve := tm.Start("resolve")
	stopResolve("")
	tm.Start("open")

	report := tm.Report()
	names := make([]string, 0, len(report.Phases))
	for _, p := range report.Phases {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"load", "resolve"}, names); diff != "" {
		t.Fatalf("phases (-want +got):\n%s", diff)
	}
	if report.Phases[0].Note != "3 units" {
		t.Errorf("load note = %q", report.Phases[0].Note)
	}
	sum := report.Phases[0].DurationMS + report.Phases[1].DurationMS
	if report.TotalMS < sum-1e-9 || report.TotalMS > sum+1e-9 {
		t.Errorf("total %.6f != sum %.6f", report.TotalMS, sum)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Start("x")("note")
	if got := tm.Report(); len(got.Phases) != 0 {
		t.Fatalf("nil timer report = %+v", got)
	}
}

func TestTimerConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Start("unit")("")
		}()
	}
	wg.Wait()
	if got := len(tm.Report().Phases); got != 8 {
		t.Fatalf("phases = %d, want 8", got)
	}
}

func TestReportString(t *testing.T) {
	r := Single("lex", 1500*time.Microsecond, "12 tokens")
	want := "lex               1.5 ms  (12 tokens)\ntotal             1.5 ms\n"
	if got := r.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
