package main

import (
	"context"
	"os"

	"go.uber.org/zap"
)

// userScaler is the part of *runner.Pool that scaleUsers drives.
type userScaler interface {
	SetUsers(n int)
}

// scaleUsers adds one user per up signal and removes one per down signal
// until ctx is done. users is the count the pool was started with.
func scaleUsers(ctx context.Context, sigs <-chan os.Signal, up, down os.Signal, users int, pool userScaler, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			switch sig {
			case up:
				users++
			case down:
				if users == 0 {
					continue
				}
				users--
			default:
				continue
			}
			pool.SetUsers(users)
			logger.Info("user target changed", zap.Int("users", users), zap.Stringer("signal", sig))
		}
	}
}
