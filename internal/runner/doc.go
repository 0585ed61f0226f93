// Package runner keeps a pool of closed-loop virtual users running against
// the target.
//
// Each user runs in its own goroutine with a private generator seeded from
// the pool seed, so two runs with the same seed and user count draw the same
// request sequence per user. Users are started at a configurable spawn rate
// and stopped newest first when the pool shrinks.
//
// # Basic Usage
//
//	pool, err := runner.New(runner.Options{
//		Users:     50,
//		SpawnRate: 10,
//		Duration:  time.Minute,
//		Table:     table,
//		Executor:  exec,
//		Recorder:  rec,
//	})
//	if err != nil {
//		return err
//	}
//	result := pool.Run(ctx)
//
// Cancelling ctx stops every user; an in-flight request interrupted by the
// cancellation is not recorded.
package runner
