package core

import "sync/atomic"

// PassStatusMessage is reported while every monitored task keeps running
const PassStatusMessage = "All tasks are executing without error."

// DefaultCheckPeriod is the health check interval in ticks (5s at 1kHz)
const DefaultCheckPeriod Tick = 5000

// StatusMessage is a string with one writer and any number of readers
type StatusMessage struct {
	msg atomic.Pointer[string]
}

// NewStatusMessage returns a status holding PassStatusMessage
func NewStatusMessage() *StatusMessage {
	s := &StatusMessage{}
	s.Set(PassStatusMessage)
	return s
}

// Set replaces the message
func (s *StatusMessage) Set(msg string) {
	s.msg.Store(&msg)
}

// Get returns the current message
func (s *StatusMessage) Get() string {
	if p := s.msg.Load(); p != nil {
		return *p
	}
	return PassStatusMessage
}

// HealthCheck runs from the tick hook and checks that every watched task
// woke at least once during each check period. The first failure is latched
// into the status message.
type HealthCheck struct {
	status  *StatusMessage
	period  Tick
	next    Tick
	armed   bool
	failed  atomic.Bool
	watched []*watchedTask
}

type watchedTask struct {
	task      *Task
	lastWakes uint32
}

// NewHealthCheck creates a check writing to status every period ticks
func NewHealthCheck(status *StatusMessage, period Tick) *HealthCheck {
	if period == 0 {
		period = DefaultCheckPeriod
	}
	return &HealthCheck{status: status, period: period}
}

// Watch adds t to the set of monitored tasks.
// A task whose period exceeds the check period will be reported as stalled.
func (h *HealthCheck) Watch(t *Task) {
	h.watched = append(h.watched, &watchedTask{task: t})
}

// Attach registers the check as a tick hook on k
func (h *HealthCheck) Attach(k *Kernel) {
	k.OnTick(h.OnTick)
}

// OnTick is the tick hook
func (h *HealthCheck) OnTick(now Tick) {
	if !h.armed {
		h.armed = true
		h.next = now - 1 + h.period
	}
	if TickBefore(now, h.next) {
		return
	}
	h.next = now + h.period
	h.check()
}

func (h *HealthCheck) check() {
	for _, w := range h.watched {
		st := w.task.Stats()
		stalled := st.Wakes == w.lastWakes
		w.lastWakes = st.Wakes
		if h.failed.Load() {
			continue
		}
		if st.State == TaskFaulted || st.State == TaskDone || stalled {
			h.failed.Store(true)
			h.status.Set("An error has been detected in the " + st.Name + " task.")
			DebugPrintln("[CHECK] " + st.Name + " state=" + st.State.String() + " wakes=" + utoa(st.Wakes))
		}
	}
}

// Failed reports whether an error has been latched
func (h *HealthCheck) Failed() bool {
	return h.failed.Load()
}
