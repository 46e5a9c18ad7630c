//go:build tinygo

package core

import "sync/atomic"

var clockValue uint32

// getClockValue reads the clock stored by the timer poll
func getClockValue() uint32 {
	return atomic.LoadUint32(&clockValue)
}

// setClockValue stores the clock
func setClockValue(us uint32) {
	atomic.StoreUint32(&clockValue, us)
}
