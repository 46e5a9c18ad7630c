package core

// Actuator drives logical outputs. *OutputDriver satisfies it.
type Actuator interface {
	Set(id OutputID) error
	Clear(id OutputID) error
}

// BlinkConfig describes one periodic output task.
// The task toggles ID every Period ticks: set, wait, clear, wait, ...
type BlinkConfig struct {
	ID       OutputID
	Period   Tick
	Priority Priority
	Name     string
}

// TaskName returns Name, or "LED<id>" when unset
func (c BlinkConfig) TaskName() string {
	if c.Name != "" {
		return c.Name
	}
	return "LED" + utoa(uint32(c.ID))
}

// Validate checks the configuration
func (c BlinkConfig) Validate() error {
	if c.Period == 0 {
		return &SpawnError{Name: c.TaskName(), Err: ErrInvalidPeriod}
	}
	return nil
}

// Entry returns the task routine for c driving out.
// Deadlines advance by exactly Period from the tick the task first ran, so
// late wakes never accumulate into drift.
func (c BlinkConfig) Entry(out Actuator) TaskFunc {
	return func(s Sleeper) {
		b := &blinker{id: c.ID, out: out}
		last := s.Now()
		for {
			b.toggle(s.Now())
			s.DelayUntil(&last, c.Period)
		}
	}
}

// SpawnBlinker validates c and spawns its task on k
func SpawnBlinker(k *Kernel, c BlinkConfig, out Actuator) (*Task, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return k.Spawn(c.TaskName(), c.Priority, c.Entry(out))
}

// blinker is the per-task output state; it starts deasserted
type blinker struct {
	id       OutputID
	out      Actuator
	asserted bool
}

// toggle flips the output. Driver errors do not stop the cadence.
func (b *blinker) toggle(now Tick) {
	var v uint32
	if b.asserted {
		_ = b.out.Clear(b.id)
		b.asserted = false
	} else {
		_ = b.out.Set(b.id)
		b.asserted = true
		v = 1
	}
	RecordTrace(EvtToggle, uint8(b.id), uint32(now), v, 0)
}
