package core

// Tick is a scheduler time value. It counts kernel ticks and wraps modulo 2^32.
type Tick uint32

// DefaultTickRate is the kernel tick frequency in Hz
const DefaultTickRate = 1000

// TickBefore reports whether a is strictly earlier than b, allowing for wrap.
// Valid while the two values are less than 2^31 ticks apart.
func TickBefore(a, b Tick) bool {
	return int32(a-b) < 0
}

// TickReached reports whether now is at or past deadline
func TickReached(now, deadline Tick) bool {
	return !TickBefore(now, deadline)
}

// TicksFromMS converts milliseconds to ticks at the given rate, rounding down.
// A non-zero duration never rounds to zero ticks.
func TicksFromMS(ms uint32, rate uint32) Tick {
	if rate == 0 {
		rate = DefaultTickRate
	}
	t := Tick(uint64(ms) * uint64(rate) / 1000)
	if t == 0 && ms != 0 {
		t = 1
	}
	return t
}

// TicksToMS converts ticks at the given rate to milliseconds
func TicksToMS(t Tick, rate uint32) uint32 {
	if rate == 0 {
		rate = DefaultTickRate
	}
	return uint32(uint64(t) * 1000 / uint64(rate))
}
