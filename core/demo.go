package core

import (
	"context"
	"errors"
	"time"
)

// SpawnPolicy selects what happens when a demo task cannot be created
type SpawnPolicy uint8

const (
	// HaltOnSpawnFailure halts the kernel and calls the halt handler
	HaltOnSpawnFailure SpawnPolicy = iota
	// ReturnSpawnFailure returns the error to the caller
	ReturnSpawnFailure
)

func (p SpawnPolicy) String() string {
	switch p {
	case HaltOnSpawnFailure:
		return "halt"
	case ReturnSpawnFailure:
		return "return"
	default:
		return "unknown"
	}
}

// DefaultBlinkPriority matches the demo tasks: two levels above idle
const DefaultBlinkPriority = IdlePriority + 2

// DefaultBlinks returns the stock two-LED demo at DefaultTickRate:
// LED0 toggles every second, LED1 every 100ms.
func DefaultBlinks() []BlinkConfig {
	return []BlinkConfig{
		{ID: 0, Period: 1000, Priority: DefaultBlinkPriority, Name: "LED0"},
		{ID: 1, Period: 100, Priority: DefaultBlinkPriority, Name: "LED1"},
	}
}

// DemoConfig configures SetupDemo
type DemoConfig struct {
	Blinks      []BlinkConfig
	CheckPeriod Tick
	SpawnPolicy SpawnPolicy
	Kernel      KernelConfig
}

// Demo is a wired set of periodic output tasks
type Demo struct {
	Kernel  *Kernel
	Outputs *OutputDriver
	Status  *StatusMessage
	Check   *HealthCheck
	Tasks   []*Task
}

// haltHandler is called on a fatal setup failure, after the kernel halts
var haltHandler func(reason string)

// SetHaltHandler sets the platform-specific fatal halt handler
func SetHaltHandler(handler func(reason string)) {
	haltHandler = handler
}

// SetupDemo initializes out, creates the kernel and spawns one task per blink.
// The kernel is returned unstarted.
func SetupDemo(cfg DemoConfig, out *OutputDriver) (*Demo, error) {
	for _, b := range cfg.Blinks {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}

	if err := out.Init(); err != nil {
		return nil, err
	}

	d := &Demo{
		Outputs: out,
		Status:  NewStatusMessage(),
	}
	kcfg := cfg.Kernel
	userFault := kcfg.OnFault
	kcfg.OnFault = func(name, reason string) {
		d.Status.Set("An error has been detected in the " + name + " task.")
		if userFault != nil {
			userFault(name, reason)
		}
	}
	d.Kernel = NewKernel(kcfg)
	d.Check = NewHealthCheck(d.Status, cfg.CheckPeriod)
	d.Check.Attach(d.Kernel)

	for _, b := range cfg.Blinks {
		t, err := SpawnBlinker(d.Kernel, b, out)
		if err != nil {
			if cfg.SpawnPolicy == HaltOnSpawnFailure && errors.Is(err, ErrResourceExhausted) {
				d.fatal("Insufficient memory to create the " + b.TaskName() + " task.")
			}
			return d, err
		}
		d.Check.Watch(t)
		d.Tasks = append(d.Tasks, t)
		DebugPrintln("[DEMO] spawned " + t.Name() + " period=" + utoa(uint32(b.Period)))
	}
	return d, nil
}

// Start starts the kernel
func (d *Demo) Start() error {
	return d.Kernel.Start()
}

// Run drives the kernel from the wall clock until ctx ends
func (d *Demo) Run(ctx context.Context, tickPeriod time.Duration) error {
	return d.Kernel.Run(ctx, tickPeriod)
}

func (d *Demo) fatal(reason string) {
	d.Status.Set(reason)
	d.Kernel.Halt(reason)
	DumpTraceRing()
	if haltHandler != nil {
		haltHandler(reason)
	}
}
