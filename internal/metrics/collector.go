package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/shortload/internal/recorder"
)

// Collector aggregates classified results overall and per request type. It
// implements recorder.Sink and is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	overall  *accumulator
	types    map[string]*accumulator
	order    []string
	failures map[string]map[string]int64 // request type -> reason -> count
	start    time.Time
}

type accumulator struct {
	hist       *hdrhistogram.Histogram
	successes  int64
	failures   int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
}

func newAccumulator() *accumulator {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	return &accumulator{hist: hdrhistogram.New(1, 60_000_000, 3)}
}

func (a *accumulator) add(latency time.Duration, success bool) {
	us := latency.Microseconds()
	if us < a.hist.LowestTrackableValue() {
		us = a.hist.LowestTrackableValue()
	}
	if us > a.hist.HighestTrackableValue() {
		us = a.hist.HighestTrackableValue()
	}
	_ = a.hist.RecordValue(us)
	a.sumLatency += latency

	if a.successes+a.failures == 0 || latency < a.minLatency {
		a.minLatency = latency
	}
	if latency > a.maxLatency {
		a.maxLatency = latency
	}
	if success {
		a.successes++
	} else {
		a.failures++
	}
}

// NewCollector returns a collector whose clock starts now. Call Start to reset
// the clock when the run actually begins.
func NewCollector(typeNames ...string) *Collector {
	c := &Collector{
		overall:  newAccumulator(),
		types:    make(map[string]*accumulator, len(typeNames)),
		failures: make(map[string]map[string]int64),
		start:    time.Now(),
	}
	for _, name := range typeNames {
		c.ensureType(name)
	}
	return c
}

// Start marks the beginning of the run for rate calculations.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Elapsed returns the time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

func (c *Collector) ensureType(name string) *accumulator {
	acc, ok := c.types[name]
	if !ok {
		acc = newAccumulator()
		c.types[name] = acc
		c.order = append(c.order, name)
	}
	return acc
}

// Record implements recorder.Sink.
func (c *Collector) Record(res recorder.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.overall.add(res.Latency, res.Success)
	c.ensureType(res.Name).add(res.Latency, res.Success)
	if !res.Success {
		byReason, ok := c.failures[res.Name]
		if !ok {
			byReason = make(map[string]int64)
			c.failures[res.Name] = byReason
		}
		byReason[res.Reason]++
	}
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{LatencySummary: summarize(c.overall, elapsed)}
	stats.Duration = elapsed
	stats.DurationMs = toMs(elapsed)

	if len(c.order) > 0 {
		stats.Types = make([]TypeStats, 0, len(c.order))
		for _, name := range c.order {
			ts := TypeStats{Name: name, LatencySummary: summarize(c.types[name], elapsed)}
			if stats.Total > 0 {
				ts.Share = float64(ts.Total) / float64(stats.Total)
			}
			stats.Types = append(stats.Types, ts)
		}
	}

	if len(c.failures) > 0 {
		nested := make(map[string]map[string]int, len(c.failures))
		for name, reasons := range c.failures {
			nested[name] = make(map[string]int, len(reasons))
			for reason, n := range reasons {
				nested[name][reason] = int(n)
			}
		}
		stats.FailureBreakdown = FlattenFailures(nested)
	}

	return stats
}

func summarize(a *accumulator, elapsed time.Duration) LatencySummary {
	total := a.successes + a.failures
	s := LatencySummary{
		Total:      total,
		Successes:  a.successes,
		Failures:   a.failures,
		MinLatency: a.minLatency,
		MaxLatency: a.maxLatency,
	}
	if total > 0 {
		s.MeanLatency = time.Duration(int64(a.sumLatency) / total)
		s.FailureRate = float64(a.failures) / float64(total)
	}
	if a.hist.TotalCount() > 0 {
		s.P50Latency = time.Duration(a.hist.ValueAtQuantile(50)) * time.Microsecond
		s.P90Latency = time.Duration(a.hist.ValueAtQuantile(90)) * time.Microsecond
		s.P95Latency = time.Duration(a.hist.ValueAtQuantile(95)) * time.Microsecond
		s.P99Latency = time.Duration(a.hist.ValueAtQuantile(99)) * time.Microsecond
	}
	if elapsed > 0 && total > 0 {
		s.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	s.MinLatencyMs = toMs(s.MinLatency)
	s.MaxLatencyMs = toMs(s.MaxLatency)
	s.MeanLatencyMs = toMs(s.MeanLatency)
	s.P50LatencyMs = toMs(s.P50Latency)
	s.P90LatencyMs = toMs(s.P90Latency)
	s.P95LatencyMs = toMs(s.P95Latency)
	s.P99LatencyMs = toMs(s.P99Latency)
	return s
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Type returns the stats for one request type.
func (s Stats) Type(name string) (TypeStats, bool) {
	for _, ts := range s.Types {
		if ts.Name == name {
			return ts, true
		}
	}
	return TypeStats{}, false
}

// TypesByTotal returns the per-type stats ordered by descending request count.
func (s Stats) TypesByTotal() []TypeStats {
	out := append([]TypeStats(nil), s.Types...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
