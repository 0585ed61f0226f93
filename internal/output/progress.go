package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/shortload/internal/metrics"
)

// PoolStatus reports live virtual-user state for the progress line.
type PoolStatus interface {
	Active() int
	Requests() int64
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	pool      PoolStatus
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressReporter creates a progress reporter that updates at the given
// interval. pool may be nil.
func NewProgressReporter(collector *metrics.Collector, pool PoolStatus, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		pool:      pool,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	stats := p.collector.Stats(p.collector.Elapsed())
	line := "\r"
	if p.pool != nil {
		// Issued runs ahead of Requests while results sit in the recorder buffer.
		line += fmt.Sprintf("Users: %d | Issued: %d | ", p.pool.Active(), p.pool.Requests())
	}
	line += fmt.Sprintf("Requests: %d | Successes: %d | Failures: %d | RPS: %.1f",
		stats.Total, stats.Successes, stats.Failures, stats.RequestsPerSec)
	if types := stats.TypesByTotal(); len(types) > 0 && stats.Total > 0 {
		top := types[0]
		line += fmt.Sprintf(" | Top: %s (%.0f%%, P99 %.1fms)", top.Name, top.Share*100, top.P99LatencyMs)
	}
	return line
}
