package core

// ClockFreq is the frequency of the free running hardware clock (1MHz)
const ClockFreq = 1000000

// GetClock returns the raw hardware clock in microseconds
func GetClock() uint32 {
	return getClockValue()
}

// SetClock stores the raw hardware clock (set by the target from its timer)
func SetClock(us uint32) {
	setClockValue(us)
}
