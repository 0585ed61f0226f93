package metrics

import "time"

// LatencySummary holds counts and latency aggregates for a set of requests.
type LatencySummary struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	FailureRate    float64       `json:"failure_rate"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P90Latency     time.Duration `json:"-"`
	P95Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
}

// TypeStats is the breakdown for a single request type.
type TypeStats struct {
	Name string `json:"name"`
	LatencySummary
	Share float64 `json:"share"` // fraction of all recorded requests
}

// Stats represents aggregated metrics.
type Stats struct {
	LatencySummary
	Duration         time.Duration `json:"-"`
	DurationMs       float64       `json:"duration_ms"`
	Types            []TypeStats   `json:"types,omitempty"`
	FailureBreakdown []FailureRow  `json:"failure_breakdown,omitempty"`
}
