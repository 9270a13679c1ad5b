package profiling

import (
	"strings"
	"testing"
	"time"
)

func TestNilProfilerIsNoop(t *testing.T) {
	var p *Profiler
	p.Track("x")()
	p.ResetFrame()
	if s := p.TopN(3); s != "" {
		t.Errorf("Expected empty TopN, got %q", s)
	}
}

func TestTopNOrdersByDuration(t *testing.T) {
	p := New()
	p.frameTotals["slow"] = 5 * time.Millisecond
	p.frameTotals["fast"] = 1500 * time.Microsecond

	got := p.TopN(2)
	if !strings.HasPrefix(got, "slow:5ms") {
		t.Errorf("Expected slow first, got %q", got)
	}
	if !strings.Contains(got, "fast:1.5ms") {
		t.Errorf("Expected fast:1.5ms in %q", got)
	}

	p.ResetFrame()
	if len(p.Snapshot()) != 0 {
		t.Errorf("Expected empty snapshot after reset")
	}
}
