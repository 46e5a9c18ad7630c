package core

import "sync"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a scheduler event for post-mortem analysis
type TraceEvent struct {
	EventType uint8  // Event type code
	OID       uint8  // Task or output id
	Clock     uint32 // Kernel tick at event
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtSpawn     = 1 // Task created (v1=priority)
	EvtWake      = 2 // Task woke on its deadline
	EvtWakeLate  = 3 // Task woke after its deadline (v1=lateness)
	EvtToggle    = 4 // Output changed (v1=1 asserted, 0 deasserted)
	EvtFault     = 5 // Task panicked
	EvtSpawnFail = 6 // Task table full (v1=capacity)
	EvtHalt      = 7 // Kernel halted
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	traceMu       sync.Mutex
	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, stderr, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 16)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Drops the message when the channel is full.
func DebugAsync(msg string) {
	if !debugEnabled || debugChan == nil {
		return
	}
	select {
	case debugChan <- msg:
	default:
	}
}

// RecordTrace captures an event in the trace ring. Never blocks on output.
func RecordTrace(eventType, oid uint8, clock, value1, value2 uint32) {
	traceMu.Lock()
	idx := traceRingHead
	traceRing[idx] = TraceEvent{
		EventType: eventType,
		OID:       oid,
		Clock:     clock,
		Value1:    value1,
		Value2:    value2,
	}
	traceRingHead = (idx + 1) % TraceRingSize
	traceMu.Unlock()
}

// TraceEvents returns the recorded events from oldest to newest
func TraceEvents() []TraceEvent {
	traceMu.Lock()
	defer traceMu.Unlock()

	events := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.EventType == 0 {
			continue
		}
		events = append(events, evt)
	}
	return events
}

// DumpTraceRing writes the trace ring through the debug writer (call on halt)
func DumpTraceRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range TraceEvents() {
		debugPrintln("[TRACE] " + traceEventName(evt.EventType) +
			" oid=" + itoa(int(evt.OID)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

// ClearTraceRing clears the trace buffer
func ClearTraceRing() {
	traceMu.Lock()
	defer traceMu.Unlock()
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}

func traceEventName(t uint8) string {
	switch t {
	case EvtSpawn:
		return "SPAWN"
	case EvtWake:
		return "WAKE"
	case EvtWakeLate:
		return "WAKE_LATE!"
	case EvtToggle:
		return "TOGGLE"
	case EvtFault:
		return "FAULT!"
	case EvtSpawnFail:
		return "SPAWN_FAIL!"
	case EvtHalt:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}
