package profiling

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler is a lightweight per-frame CPU profiler for tick-level insights.
// A nil *Profiler is valid and records nothing.
type Profiler struct {
	mu          sync.Mutex
	frameTotals map[string]time.Duration
}

// New creates an empty profiler.
func New() *Profiler {
	return &Profiler{frameTotals: make(map[string]time.Duration)}
}

func noop() {}

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer prof.Track("subsystem.Operation")()
func (p *Profiler) Track(name string) func() {
	if p == nil {
		return noop
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		p.frameTotals[name] += d
		p.mu.Unlock()
	}
}

// ResetFrame clears current per-frame totals. Call at the start of each frame.
func (p *Profiler) ResetFrame() {
	if p == nil {
		return
	}
	p.mu.Lock()
	clear(p.frameTotals)
	p.mu.Unlock()
}

// Snapshot returns a copy of current per-frame totals.
func (p *Profiler) Snapshot() map[string]time.Duration {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.frameTotals))
	for k, v := range p.frameTotals {
		out[k] = v
	}
	return out
}

// TopN formats top N durations from the current frame totals.
// Example: "streaming.Update:4.2ms, meshing.Build:2.1ms"
func (p *Profiler) TopN(n int) string {
	ss := p.Snapshot()
	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(ss))
	for k, v := range ss {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].dur > list[j].dur })
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ms := float64(list[i].dur.Microseconds()) / 1000.0
		parts = append(parts, list[i].name+":"+formatMs(ms))
	}
	return strings.Join(parts, ", ")
}

func formatMs(ms float64) string {
	s := fmt.Sprintf("%.1f", ms)
	return strings.TrimSuffix(s, ".0") + "ms"
}
