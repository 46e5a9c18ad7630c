//go:build !tinygo

package core

import "sync/atomic"

var clockValue atomic.Uint32

func getClockValue() uint32 {
	return clockValue.Load()
}

func setClockValue(us uint32) {
	clockValue.Store(us)
}
