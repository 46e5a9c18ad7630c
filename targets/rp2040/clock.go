//go:build rp2040 || rp2350

package main

import (
	"runtime/volatile"
	"unsafe"

	"blinky/core"
)

// RP2040 timer peripheral: a free running 64-bit microsecond counter
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08
	timerTIMERAWL = timerBase + 0x0C
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// InitClock publishes the timer before the first tick
func InitClock() {
	UpdateSystemTime()
}

// GetHardwareUptime reads the full 64-bit counter
func GetHardwareUptime() uint64 {
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()

		// retry if the low word rolled over between the reads
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}

// UpdateSystemTime publishes the low clock word to core and returns the uptime in microseconds
func UpdateSystemTime() uint64 {
	up := GetHardwareUptime()
	core.SetClock(uint32(up))
	return up
}
