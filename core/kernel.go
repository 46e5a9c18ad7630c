package core

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Priority orders tasks that wake on the same tick; larger values run first
type Priority uint8

// IdlePriority is the lowest priority. Application tasks sit above it.
const IdlePriority Priority = 0

// DefaultMaxTasks is the task table size used when KernelConfig leaves it unset
const DefaultMaxTasks = 8

// TaskFunc is a task entry routine. Tasks normally loop forever.
type TaskFunc func(s Sleeper)

// Sleeper is the scheduler as seen from inside a task
type Sleeper interface {
	// Now returns the current tick count
	Now() Tick

	// DelayUntil blocks until *last + period, then stores that deadline in *last.
	// It returns immediately if the deadline has already been reached.
	DelayUntil(last *Tick, period Tick)
}

// TaskState is the lifecycle state of a task
type TaskState uint8

const (
	TaskReady TaskState = iota
	TaskRunning
	TaskBlocked
	TaskDone
	TaskFaulted
	TaskStopped
)

func (s TaskState) String() string {
	switch s {
	case TaskReady:
		return "ready"
	case TaskRunning:
		return "running"
	case TaskBlocked:
		return "blocked"
	case TaskDone:
		return "done"
	case TaskFaulted:
		return "faulted"
	case TaskStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// TaskStats is a snapshot of a task's run-time statistics
type TaskStats struct {
	Name        string
	Priority    Priority
	State       TaskState
	Wakes       uint32
	LastWake    Tick
	MaxLateness Tick // worst delay between a deadline and the dispatch that served it
	Fault       string
}

// KernelConfig configures a Kernel
type KernelConfig struct {
	// MaxTasks bounds the task table; Spawn fails with ErrResourceExhausted beyond it
	MaxTasks int

	// OnFault is called when a task panics, before the kernel halts
	OnFault func(name, reason string)
}

// Kernel is a tick driven cooperative scheduler.
//
// Every task runs on its own goroutine, but only one of them (or the goroutine
// driving the kernel) executes at any time: control is handed to a task when
// its wake time is reached and handed back when it blocks again. This gives the
// same ordering on a host as a single core preemptive kernel gives on the MCU.
type Kernel struct {
	cfg KernelConfig
	now atomic.Uint32

	// drive serializes Start, Tick, SkipTicks and Stop
	drive sync.Mutex

	mu       sync.Mutex
	tasks    []*Task
	queue    sleepQueue
	hooks    []func(Tick)
	started  bool
	stopping bool
	halted   atomic.Bool

	yield chan struct{}
}

// Task is a kernel task
type Task struct {
	k        *Kernel
	id       uint8
	name     string
	priority Priority
	entry    TaskFunc

	resume   chan struct{}
	launched bool // driver only

	// protected by k.mu
	next        *Task
	wakeAt      Tick
	state       TaskState
	wakes       uint32
	lastWake    Tick
	maxLateness Tick
	fault       string
}

// NewKernel creates a kernel with its clock at tick 0
func NewKernel(cfg KernelConfig) *Kernel {
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = DefaultMaxTasks
	}
	return &Kernel{
		cfg:   cfg,
		yield: make(chan struct{}),
	}
}

// Now returns the current tick count
func (k *Kernel) Now() Tick {
	return Tick(k.now.Load())
}

// Started reports whether Start has been called
func (k *Kernel) Started() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.started
}

// Halted reports whether the kernel has stopped dispatching for good
func (k *Kernel) Halted() bool {
	return k.halted.Load()
}

// Spawn creates a task. It returns immediately; the task first runs when the
// kernel is started (or on the next tick if it already is).
func (k *Kernel) Spawn(name string, priority Priority, entry TaskFunc) (*Task, error) {
	if entry == nil {
		return nil, &SpawnError{Name: name, Err: ErrInvalidTask}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.halted.Load() || k.stopping {
		return nil, &SpawnError{Name: name, Err: ErrKernelHalted}
	}
	if len(k.tasks) >= k.cfg.MaxTasks {
		RecordTrace(EvtSpawnFail, uint8(len(k.tasks)), uint32(k.Now()), uint32(k.cfg.MaxTasks), 0)
		return nil, &SpawnError{Name: name, Err: ErrResourceExhausted}
	}

	t := &Task{
		k:        k,
		id:       uint8(len(k.tasks)),
		name:     name,
		priority: priority,
		entry:    entry,
		resume:   make(chan struct{}),
		wakeAt:   k.Now(),
		state:    TaskReady,
	}
	k.tasks = append(k.tasks, t)
	k.queue.insert(t)

	RecordTrace(EvtSpawn, t.id, uint32(t.wakeAt), uint32(priority), 0)
	return t, nil
}

// OnTick registers a hook run on every tick before due tasks are woken
func (k *Kernel) OnTick(hook func(now Tick)) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.hooks = append(k.hooks, hook)
}

// Start runs every task until it first blocks. Calling it again does nothing.
func (k *Kernel) Start() error {
	k.drive.Lock()
	defer k.drive.Unlock()

	if k.halted.Load() {
		return ErrKernelHalted
	}

	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return nil
	}
	k.started = true
	n := len(k.tasks)
	k.mu.Unlock()

	DebugPrintln("[KERNEL] start tasks=" + itoa(n))
	k.dispatch()
	return nil
}

// Tick advances the clock by one tick, runs the tick hooks and wakes due tasks.
// It does nothing before Start or after the kernel halts.
func (k *Kernel) Tick() {
	k.drive.Lock()
	defer k.drive.Unlock()
	k.step(1)
}

// AdvanceTo ticks the kernel one tick at a time until Now reaches target
func (k *Kernel) AdvanceTo(target Tick) {
	k.drive.Lock()
	defer k.drive.Unlock()
	for TickBefore(k.Now(), target) && k.running() {
		k.step(1)
	}
}

// SkipTicks moves the clock forward by n ticks in one step, as happens when the
// tick source stalls. Tasks whose deadlines fell inside the gap wake late.
func (k *Kernel) SkipTicks(n Tick) {
	k.drive.Lock()
	defer k.drive.Unlock()
	k.step(n)
}

// Halt stops all further dispatching
func (k *Kernel) Halt(reason string) {
	if k.halted.Swap(true) {
		return
	}
	RecordTrace(EvtHalt, 0, uint32(k.Now()), 0, 0)
	DebugPrintln("[KERNEL] halted: " + reason)
}

// Stop halts the kernel and unwinds every parked task goroutine
func (k *Kernel) Stop() {
	k.drive.Lock()
	defer k.drive.Unlock()

	k.halted.Store(true)

	k.mu.Lock()
	if k.stopping {
		k.mu.Unlock()
		return
	}
	k.stopping = true
	var parked []*Task
	for _, t := range k.tasks {
		if t.launched && t.state == TaskBlocked {
			parked = append(parked, t)
		}
	}
	k.mu.Unlock()

	for _, t := range parked {
		close(t.resume)
		<-k.yield
	}
}

// Run starts the kernel and drives it from the wall clock, one tick per
// tickPeriod, until ctx ends or the kernel halts. Parked tasks are unwound
// before it returns.
func (k *Kernel) Run(ctx context.Context, tickPeriod time.Duration) error {
	if err := k.Start(); err != nil {
		return err
	}
	defer k.Stop()

	base := k.Now()
	start := time.Now()
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			k.AdvanceTo(base + Tick(time.Since(start)/tickPeriod))
			if k.Halted() {
				return ErrKernelHalted
			}
		}
	}
}

// Stats returns a snapshot of every task in spawn order
func (k *Kernel) Stats() []TaskStats {
	k.mu.Lock()
	defer k.mu.Unlock()

	stats := make([]TaskStats, 0, len(k.tasks))
	for _, t := range k.tasks {
		stats = append(stats, t.snapshot())
	}
	return stats
}

// Tasks returns the spawned tasks in spawn order
func (k *Kernel) Tasks() []*Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]*Task(nil), k.tasks...)
}

func (k *Kernel) running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.started && !k.halted.Load()
}

// step must be called with k.drive held
func (k *Kernel) step(n Tick) {
	if n == 0 || !k.running() {
		return
	}

	now := Tick(k.now.Add(uint32(n)))

	k.mu.Lock()
	hooks := k.hooks
	k.mu.Unlock()
	for _, hook := range hooks {
		hook(now)
	}

	k.dispatch()
}

// dispatch wakes every due task in queue order
func (k *Kernel) dispatch() {
	for !k.halted.Load() {
		now := k.Now()

		k.mu.Lock()
		t := k.queue.popDue(now)
		if t == nil {
			k.mu.Unlock()
			return
		}
		late := now - t.wakeAt
		t.wakes++
		t.lastWake = now
		if late > t.maxLateness {
			t.maxLateness = late
		}
		t.state = TaskRunning
		k.mu.Unlock()

		if late > 0 {
			RecordTrace(EvtWakeLate, t.id, uint32(now), uint32(late), 0)
		} else {
			RecordTrace(EvtWake, t.id, uint32(now), 0, 0)
		}

		k.switchTo(t)

		k.mu.Lock()
		faulted := t.state == TaskFaulted
		reason := t.fault
		k.mu.Unlock()
		if faulted {
			k.taskFault(t, reason)
		}
	}
}

// switchTo hands control to t and waits for it to block, return or fault
func (k *Kernel) switchTo(t *Task) {
	if !t.launched {
		t.launched = true
		go t.run()
	} else {
		t.resume <- struct{}{}
	}
	<-k.yield
}

func (k *Kernel) taskFault(t *Task, reason string) {
	RecordTrace(EvtFault, t.id, uint32(k.Now()), 0, 0)
	DebugPrintln("[KERNEL] task " + t.name + " faulted: " + reason)
	if k.cfg.OnFault != nil {
		k.cfg.OnFault(t.name, reason)
	}
	k.Halt("fault in " + t.name)
}

// Name returns the task name
func (t *Task) Name() string {
	return t.name
}

// Priority returns the task priority
func (t *Task) Priority() Priority {
	return t.priority
}

// Now returns the kernel tick count
func (t *Task) Now() Tick {
	return t.k.Now()
}

// Stats returns a snapshot of the task's statistics
func (t *Task) Stats() TaskStats {
	t.k.mu.Lock()
	defer t.k.mu.Unlock()
	return t.snapshot()
}

// DelayUntil implements Sleeper
func (t *Task) DelayUntil(last *Tick, period Tick) {
	if period == 0 {
		panic("zero delay period")
	}

	wake := *last + period
	*last = wake

	k := t.k
	if TickReached(k.Now(), wake) {
		return
	}

	k.mu.Lock()
	t.wakeAt = wake
	t.state = TaskBlocked
	k.queue.insert(t)
	k.mu.Unlock()

	k.yield <- struct{}{}
	<-t.resume

	k.mu.Lock()
	stopping := k.stopping
	if stopping {
		t.state = TaskStopped
	}
	k.mu.Unlock()
	if stopping {
		runtime.Goexit()
	}
}

func (t *Task) run() {
	defer t.exit()
	t.entry(t)
}

func (t *Task) exit() {
	r := recover()

	k := t.k
	k.mu.Lock()
	switch {
	case r != nil:
		t.state = TaskFaulted
		t.fault = panicReason(r)
	case t.state != TaskStopped:
		t.state = TaskDone
	}
	k.mu.Unlock()

	k.yield <- struct{}{}
}

// snapshot must be called with k.mu held
func (t *Task) snapshot() TaskStats {
	return TaskStats{
		Name:        t.name,
		Priority:    t.priority,
		State:       t.state,
		Wakes:       t.wakes,
		LastWake:    t.lastWake,
		MaxLateness: t.maxLateness,
		Fault:       t.fault,
	}
}

func panicReason(r interface{}) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return "panic"
	}
}
