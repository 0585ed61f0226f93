package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/torosent/shortload/internal/recorder"
	"github.com/torosent/shortload/internal/scheduler"
	"github.com/torosent/shortload/internal/valuespace"
)

// ErrIncomplete is returned by New when a required collaborator is missing.
var ErrIncomplete = errors.New("runner: table, executor and recorder are required")

// Result captures execution summary.
type Result struct {
	Users    int64 // users started over the whole run
	Requests int64 // outcomes handed to the recorder
	Duration time.Duration
}

type user struct {
	id     string
	cancel context.CancelFunc
}

// Pool keeps a target number of virtual users running, each in its own
// goroutine with its own scheduler and generator.
type Pool struct {
	opt     Options
	limiter *rate.Limiter

	mu     sync.Mutex
	target int
	active []*user // spawn order; the newest user is last
	wake   chan struct{}

	started  int64
	requests int64
	wg       sync.WaitGroup
}

func New(opt Options) (*Pool, error) {
	if opt.Table == nil || opt.Executor == nil || opt.Recorder == nil {
		return nil, ErrIncomplete
	}
	opt.normalize()
	return &Pool{
		opt:     opt,
		limiter: opt.LimiterFactory(opt.SpawnRate),
		target:  opt.Users,
		wake:    make(chan struct{}, 1),
	}, nil
}

// SetUsers changes the number of users while the pool runs. Surplus users are
// cancelled newest first; missing users are spawned at the spawn rate.
func (p *Pool) SetUsers(n int) {
	if n < 0 {
		n = 0
	}
	p.mu.Lock()
	p.target = n
	var stopped []*user
	for len(p.active) > n {
		last := p.active[len(p.active)-1]
		p.active = p.active[:len(p.active)-1]
		stopped = append(stopped, last)
	}
	p.mu.Unlock()

	for _, u := range stopped {
		u.cancel()
		p.opt.Logger.Debug("user stopped", zap.String("user", u.id))
	}
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Active reports the number of users currently running.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// Requests reports outcomes recorded so far.
func (p *Pool) Requests() int64 {
	return atomic.LoadInt64(&p.requests)
}

// Record forwards to the configured recorder and counts the outcome.
func (p *Pool) Record(o recorder.Outcome) recorder.Result {
	atomic.AddInt64(&p.requests, 1)
	return p.opt.Recorder.Record(o)
}

// Run blocks until the duration elapses or ctx is cancelled, then waits for
// every user to finish its in-flight request.
func (p *Pool) Run(ctx context.Context) Result {
	start := time.Now()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if p.opt.Duration > 0 {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, p.opt.Duration)
		ctx = deadlineCtx
		defer deadlineCancel()
	}

	p.opt.Logger.Info("starting users",
		zap.Int("users", p.opt.Users),
		zap.Float64("spawn_rate", p.opt.SpawnRate),
		zap.Duration("duration", p.opt.Duration))

	p.spawnLoop(ctx)

	p.opt.Logger.Info("stopping users", zap.Int("active", p.Active()))
	cancel()
	p.wg.Wait()

	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()

	return Result{
		Users:    atomic.LoadInt64(&p.started),
		Requests: atomic.LoadInt64(&p.requests),
		Duration: time.Since(start),
	}
}

func (p *Pool) spawnLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.mu.Lock()
		missing := len(p.active) < p.target
		p.mu.Unlock()

		if !missing {
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
			}
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return
		}
		p.spawn(ctx)
	}
}

func (p *Pool) spawn(parent context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// SetUsers may have lowered the target while we waited on the limiter.
	if len(p.active) >= p.target {
		return
	}

	index := atomic.AddInt64(&p.started, 1) - 1
	ctx, cancel := context.WithCancel(parent)
	u := &user{id: ulid.Make().String(), cancel: cancel}
	p.active = append(p.active, u)

	sched := scheduler.New(p.opt.Table, valuespace.NewSource(p.opt.Seed+index))
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		sched.Loop(ctx, u.id, p.opt.Executor, p)
	}()

	p.opt.Logger.Debug("user spawned", zap.String("user", u.id), zap.Int64("index", index))
	if len(p.active) == p.target {
		p.opt.Logger.Info("all users spawned", zap.Int("users", p.target))
	}
}
