// Package scheduler drives a single virtual user: it picks request types by
// weight, executes them and records the outcomes.
//
// The loop is closed: request N+1 is not issued until the outcome of request N
// has been handed to the recorder, and there is no think time between
// iterations. Throughput therefore falls as the target's latency rises, and
// reported requests/sec under saturation reflect the service's capacity for
// the configured number of users rather than an offered arrival rate.
package scheduler

import (
	"context"
	"math/rand"

	"github.com/torosent/shortload/internal/catalog"
	"github.com/torosent/shortload/internal/recorder"
)

// Executor performs one request. ok is false when ctx was cancelled mid-call.
type Executor interface {
	Execute(ctx context.Context, rt *catalog.RequestType, rnd *rand.Rand) (recorder.Outcome, bool)
}

// Recorder accepts outcomes without blocking.
type Recorder interface {
	Record(o recorder.Outcome) recorder.Result
}

// Scheduler selects request types for one virtual user. It owns rnd and must
// not be shared between goroutines; the table is shared read-only.
type Scheduler struct {
	table *catalog.WeightTable
	rnd   *rand.Rand
}

func New(table *catalog.WeightTable, rnd *rand.Rand) *Scheduler {
	return &Scheduler{table: table, rnd: rnd}
}

// Next draws uniformly from [0, total) and returns the owning request type.
func (s *Scheduler) Next() *catalog.RequestType {
	return s.table.Pick(s.rnd.Intn(s.table.Total()))
}

// Loop runs until ctx is cancelled and returns the number of outcomes recorded.
// A call interrupted by cancellation records nothing.
func (s *Scheduler) Loop(ctx context.Context, userID string, exec Executor, rec Recorder) int64 {
	var recorded int64
	for {
		if ctx.Err() != nil {
			return recorded
		}
		rt := s.Next()
		outcome, ok := exec.Execute(ctx, rt, s.rnd)
		if !ok {
			return recorded
		}
		outcome.UserID = userID
		rec.Record(outcome)
		recorded++
	}
}
