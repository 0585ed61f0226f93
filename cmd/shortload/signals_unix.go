//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyScaleSignals routes SIGUSR1 (add a user) and SIGUSR2 (remove one) to ch.
func notifyScaleSignals(ch chan<- os.Signal) (up, down os.Signal, ok bool) {
	signal.Notify(ch, syscall.SIGUSR1, syscall.SIGUSR2)
	return syscall.SIGUSR1, syscall.SIGUSR2, true
}
