package runner

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/shortload/internal/catalog"
	"github.com/torosent/shortload/internal/scheduler"
)

// Options configure the Pool.
type Options struct {
	Users     int           // virtual users to keep running
	SpawnRate float64       // users started per second (<=0 means all at once)
	Duration  time.Duration // overall time limit (0 means until ctx is cancelled)
	Seed      int64         // base seed; user i gets Seed+i (0 means clock-based)
	Table     *catalog.WeightTable
	Executor  scheduler.Executor
	Recorder  scheduler.Recorder
	Logger    *zap.Logger
	// LimiterFactory is an optional injection point for tests.
	LimiterFactory func(spawnRate float64) *rate.Limiter
}

func (o *Options) normalize() {
	if o.Users < 0 {
		o.Users = 0
	}
	if o.Duration < 0 {
		o.Duration = 0
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(spawnRate float64) *rate.Limiter {
			if spawnRate <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst of one spaces spawns evenly instead of releasing a second's worth at once.
			return rate.NewLimiter(rate.Limit(spawnRate), 1)
		}
	}
}
