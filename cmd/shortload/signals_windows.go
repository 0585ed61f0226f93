//go:build windows

package main

import "os"

func notifyScaleSignals(chan<- os.Signal) (up, down os.Signal, ok bool) {
	return nil, nil, false
}
