// Package config loads the JSON description of a blink demo.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"blinky/board"
	"blinky/core"
)

// TaskConfig describes one periodic output task
type TaskConfig struct {
	Name     string `json:"name,omitempty"`
	Output   uint8  `json:"output"`
	PeriodMS uint32 `json:"period_ms"`
	Priority uint8  `json:"priority,omitempty"` // 0 selects core.DefaultBlinkPriority
}

// DemoConfig is the on-disk demo configuration
type DemoConfig struct {
	Board           string       `json:"board"`
	TickRateHz      uint32       `json:"tick_rate_hz"`
	CheckPeriodMS   uint32       `json:"check_period_ms"`
	MaxTasks        int          `json:"max_tasks"`
	SpawnPolicy     string       `json:"spawn_policy"`
	InvalidIDPolicy string       `json:"invalid_id_policy"`
	Debug           bool         `json:"debug"`
	Tasks           []TaskConfig `json:"tasks"`
}

// LoadConfig parses a JSON configuration, fills defaults and validates it
func LoadConfig(jsonData []byte) (*DemoConfig, error) {
	var config DemoConfig

	if err := json.Unmarshal(jsonData, &config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadFile reads and parses the configuration at path
func LoadFile(path string) (*DemoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	config, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(config *DemoConfig) {
	if config.Board == "" {
		config.Board = board.MbedLPC1768.Name
	}
	if config.TickRateHz == 0 {
		config.TickRateHz = core.DefaultTickRate
	}
	if config.CheckPeriodMS == 0 {
		config.CheckPeriodMS = 5000
	}
	if config.MaxTasks == 0 {
		config.MaxTasks = core.DefaultMaxTasks
	}
	if config.SpawnPolicy == "" {
		config.SpawnPolicy = core.HaltOnSpawnFailure.String()
	}
	if config.InvalidIDPolicy == "" {
		config.InvalidIDPolicy = core.IgnoreInvalidID.String()
	}
	if config.Tasks == nil {
		config.Tasks = DefaultDemoConfig().Tasks
	}

	for i, task := range config.Tasks {
		if task.Priority == 0 {
			task.Priority = uint8(core.DefaultBlinkPriority)
		}
		config.Tasks[i] = task
	}
}

// MaxTickRateHz is the fastest tick rate whose period is still a whole nanosecond
const MaxTickRateHz = uint32(time.Second)

var (
	ErrNoTasks     = errors.New("config: no tasks")
	ErrBadPolicy   = errors.New("config: unknown policy")
	ErrBadPeriod   = errors.New("config: period must be positive")
	ErrBadTaskSize = errors.New("config: max_tasks must be positive")
	ErrBadTickRate = errors.New("config: tick_rate_hz out of range")
)

// Validate checks the configuration against the selected board
func (c *DemoConfig) Validate() error {
	b, err := board.ByName(c.Board)
	if err != nil {
		return err
	}
	table, err := b.Table()
	if err != nil {
		return err
	}
	if c.TickRateHz == 0 || c.TickRateHz > MaxTickRateHz {
		return fmt.Errorf("%d: %w", c.TickRateHz, ErrBadTickRate)
	}
	if c.MaxTasks < 0 {
		return ErrBadTaskSize
	}
	if _, err := c.Spawn(); err != nil {
		return err
	}
	if _, err := c.InvalidID(); err != nil {
		return err
	}
	if len(c.Tasks) == 0 {
		return ErrNoTasks
	}
	for i, task := range c.Tasks {
		if task.PeriodMS == 0 {
			return fmt.Errorf("task %d: %w", i, ErrBadPeriod)
		}
		if _, ok := table.Lookup(core.OutputID(task.Output)); !ok {
			return fmt.Errorf("task %d: %w", i, &core.OutputError{Op: "config", ID: core.OutputID(task.Output), Err: core.ErrInvalidOutputID})
		}
	}
	return nil
}

// Spawn returns the configured spawn failure policy
func (c *DemoConfig) Spawn() (core.SpawnPolicy, error) {
	switch c.SpawnPolicy {
	case core.HaltOnSpawnFailure.String():
		return core.HaltOnSpawnFailure, nil
	case core.ReturnSpawnFailure.String():
		return core.ReturnSpawnFailure, nil
	}
	return 0, fmt.Errorf("spawn_policy %q: %w", c.SpawnPolicy, ErrBadPolicy)
}

// InvalidID returns the configured unknown output id policy
func (c *DemoConfig) InvalidID() (core.InvalidIDPolicy, error) {
	switch c.InvalidIDPolicy {
	case core.IgnoreInvalidID.String():
		return core.IgnoreInvalidID, nil
	case core.RejectInvalidID.String():
		return core.RejectInvalidID, nil
	}
	return 0, fmt.Errorf("invalid_id_policy %q: %w", c.InvalidIDPolicy, ErrBadPolicy)
}

// BlinkConfigs converts the task list to kernel ticks
func (c *DemoConfig) BlinkConfigs() []core.BlinkConfig {
	blinks := make([]core.BlinkConfig, 0, len(c.Tasks))
	for _, task := range c.Tasks {
		blinks = append(blinks, core.BlinkConfig{
			ID:       core.OutputID(task.Output),
			Period:   core.TicksFromMS(task.PeriodMS, c.TickRateHz),
			Priority: core.Priority(task.Priority),
			Name:     task.Name,
		})
	}
	return blinks
}

// TickPeriod is the wall clock length of one kernel tick
func (c *DemoConfig) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}

// KernelConfig returns the kernel settings
func (c *DemoConfig) KernelConfig() core.KernelConfig {
	return core.KernelConfig{MaxTasks: c.MaxTasks}
}

// Demo assembles the core demo configuration
func (c *DemoConfig) Demo() core.DemoConfig {
	policy, _ := c.Spawn()
	return core.DemoConfig{
		Blinks:      c.BlinkConfigs(),
		CheckPeriod: core.TicksFromMS(c.CheckPeriodMS, c.TickRateHz),
		SpawnPolicy: policy,
		Kernel:      c.KernelConfig(),
	}
}

// OutputDriver builds the board's output driver over ports
func (c *DemoConfig) OutputDriver(ports core.PortDriver) (*core.OutputDriver, error) {
	b, err := board.ByName(c.Board)
	if err != nil {
		return nil, err
	}
	table, err := b.Table()
	if err != nil {
		return nil, err
	}
	policy, err := c.InvalidID()
	if err != nil {
		return nil, err
	}
	return core.NewOutputDriver(table, ports, policy), nil
}

// DefaultDemoConfig returns the stock two-LED demo on the mbed LPC1768
func DefaultDemoConfig() *DemoConfig {
	return &DemoConfig{
		Board:           board.MbedLPC1768.Name,
		TickRateHz:      core.DefaultTickRate,
		CheckPeriodMS:   5000,
		MaxTasks:        core.DefaultMaxTasks,
		SpawnPolicy:     core.HaltOnSpawnFailure.String(),
		InvalidIDPolicy: core.IgnoreInvalidID.String(),
		Tasks: []TaskConfig{
			{Name: "LED0", Output: 0, PeriodMS: 1000, Priority: uint8(core.DefaultBlinkPriority)},
			{Name: "LED1", Output: 1, PeriodMS: 100, Priority: uint8(core.DefaultBlinkPriority)},
		},
	}
}
