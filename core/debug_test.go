package core

import (
	"strings"
	"testing"
)

func TestTraceRingKeepsNewestEvents(t *testing.T) {
	ClearTraceRing()
	defer ClearTraceRing()

	for i := 0; i < TraceRingSize+5; i++ {
		RecordTrace(EvtWake, 1, uint32(i), 0, 0)
	}

	events := TraceEvents()
	if len(events) != TraceRingSize {
		t.Fatalf("expected %d events, got %d", TraceRingSize, len(events))
	}
	if events[0].Clock != 5 || events[len(events)-1].Clock != TraceRingSize+4 {
		t.Errorf("expected clocks 5..%d, got %d..%d", TraceRingSize+4, events[0].Clock, events[len(events)-1].Clock)
	}
}

func TestDumpTraceRing(t *testing.T) {
	ClearTraceRing()
	defer ClearTraceRing()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordTrace(EvtWakeLate, 2, 350, 250, 0)
	DumpTraceRing()

	if len(lines) != 3 {
		t.Fatalf("expected header, one event and footer, got %v", lines)
	}
	if !strings.Contains(lines[1], "WAKE_LATE! oid=2 clock=350 v1=250") {
		t.Errorf("unexpected event line %q", lines[1])
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if len(lines) != 1 || lines[0] != "shown" {
		t.Errorf("expected only the enabled message, got %v", lines)
	}
	if itoa(-42) != "-42" || utoa(0) != "0" {
		t.Errorf("itoa/utoa formatting broken: %q %q", itoa(-42), utoa(0))
	}
}
