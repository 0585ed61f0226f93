package recorder

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// DefaultBufferSize is the number of classified results that may be queued
// before new results are dropped.
const DefaultBufferSize = 8192

// Sink receives classified results. Record is only ever called from the
// Recorder's drain goroutine.
type Sink interface {
	Record(Result)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Result)

func (f SinkFunc) Record(r Result) { f(r) }

// Fanout delivers every result to each sink in order.
type Fanout []Sink

func (f Fanout) Record(r Result) {
	for _, s := range f {
		if s != nil {
			s.Record(r)
		}
	}
}

// Options configure a Recorder.
type Options struct {
	BufferSize int
	Logger     *zap.Logger
	LogErrors  bool
}

// Recorder classifies outcomes on the caller's goroutine and hands them to a
// buffered drain goroutine. Record never blocks: when the buffer is full the
// result is counted as dropped.
type Recorder struct {
	sink      Sink
	queue     chan Result
	done      chan struct{}
	logger    *zap.Logger
	logErrors bool

	mu       sync.RWMutex
	closed   bool
	once     sync.Once
	recorded int64
	dropped  int64
}

func New(sink Sink, opts Options) *Recorder {
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{
		sink:      sink,
		queue:     make(chan Result, size),
		done:      make(chan struct{}),
		logger:    logger,
		logErrors: opts.LogErrors,
	}
	go r.drain()
	return r
}

// Record classifies o and enqueues the result. It returns the classification
// so callers can react to it without waiting for aggregation.
func (r *Recorder) Record(o Outcome) Result {
	res := Classify(o)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		atomic.AddInt64(&r.dropped, 1)
		return res
	}
	select {
	case r.queue <- res:
	default:
		atomic.AddInt64(&r.dropped, 1)
	}
	return res
}

func (r *Recorder) drain() {
	defer close(r.done)
	for res := range r.queue {
		if r.sink != nil {
			r.sink.Record(res)
		}
		atomic.AddInt64(&r.recorded, 1)
		if r.logErrors && !res.Success {
			r.logger.Debug("request failed",
				zap.String("type", res.Name),
				zap.String("reason", res.Reason),
				zap.Int("status", res.Status),
				zap.Duration("latency", res.Latency),
			)
		}
	}
}

// Close stops accepting results, flushes the buffer and waits for the sink.
func (r *Recorder) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})
	<-r.done
}

// Recorded returns the number of results delivered to the sink.
func (r *Recorder) Recorded() int64 {
	return atomic.LoadInt64(&r.recorded)
}

// Dropped returns the number of results discarded because the buffer was full.
func (r *Recorder) Dropped() int64 {
	return atomic.LoadInt64(&r.dropped)
}
