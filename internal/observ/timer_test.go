package observ

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerAccumulates(t *testing.T) {
	timer := NewTimer()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer.Add("load", time.Millisecond)
		}()
	}
	wg.Wait()
	timer.Add("compile", 3*time.Millisecond)

	report := timer.Report()
	if len(report.Phases) != 2 || report.Phases[0].Name != "load" || report.Phases[0].Count != 8 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Phases[0].DurationMS != 8 || report.TotalMS != 11 {
		t.Fatalf("durations: %+v", report)
	}
	summary := timer.Summary()
	if !strings.Contains(summary, "(8 items)") || !strings.Contains(summary, "total") {
		t.Fatalf("summary:\n%s", summary)
	}
}

func TestTimerMeasure(t *testing.T) {
	timer := NewTimer()
	want := errors.New("boom")
	if err := timer.Measure("write", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("Measure returned %v", err)
	}
	if r := timer.Report(); len(r.Phases) != 1 || r.Phases[0].Count != 1 {
		t.Fatalf("unexpected report: %+v", r)
	}
	var nilTimer *Timer
	nilTimer.Add("x", time.Second)
	if len(nilTimer.Report().Phases) != 0 {
		t.Fatalf("nil timer must stay empty")
	}
}
