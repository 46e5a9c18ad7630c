package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoDriver(t *testing.T) (*OutputDriver, *recordingPorts) {
	ports := &recordingPorts{}
	return NewOutputDriver(ledTable(t), ports, IgnoreInvalidID), ports
}

func captureHalt(t *testing.T) *[]string {
	var reasons []string
	SetHaltHandler(func(reason string) { reasons = append(reasons, reason) })
	t.Cleanup(func() { SetHaltHandler(nil) })
	return &reasons
}

func TestSetupDemoRunsDefaultBlinks(t *testing.T) {
	out, ports := demoDriver(t)
	d, err := SetupDemo(DemoConfig{Blinks: DefaultBlinks()}, out)
	require.NoError(t, err)
	defer d.Kernel.Stop()

	require.Len(t, d.Tasks, 2)
	require.NoError(t, d.Start())
	d.Kernel.AdvanceTo(1000)

	var led0, led1 int
	for _, w := range ports.dataWrites() {
		switch w.Mask {
		case Bit(18):
			led0++
		case Bit(20):
			led1++
		default:
			t.Errorf("unexpected write %+v", w)
		}
	}
	assert.Equal(t, 2, led0)
	assert.Equal(t, 11, led1)
	assert.Equal(t, PassStatusMessage, d.Status.Get())
}

func TestSetupDemoHaltsWhenTasksCannotBeCreated(t *testing.T) {
	reasons := captureHalt(t)
	out, _ := demoDriver(t)

	d, err := SetupDemo(DemoConfig{
		Blinks: DefaultBlinks(),
		Kernel: KernelConfig{MaxTasks: 1},
	}, out)

	assert.ErrorIs(t, err, ErrResourceExhausted)
	require.NotNil(t, d)
	assert.True(t, d.Kernel.Halted())
	assert.Equal(t, "Insufficient memory to create the LED1 task.", d.Status.Get())
	assert.Equal(t, []string{"Insufficient memory to create the LED1 task."}, *reasons)
	d.Kernel.Stop()
}

func TestSetupDemoReturnsSpawnFailure(t *testing.T) {
	reasons := captureHalt(t)
	out, _ := demoDriver(t)

	d, err := SetupDemo(DemoConfig{
		Blinks:      DefaultBlinks(),
		SpawnPolicy: ReturnSpawnFailure,
		Kernel:      KernelConfig{MaxTasks: 1},
	}, out)

	assert.ErrorIs(t, err, ErrResourceExhausted)
	assert.False(t, d.Kernel.Halted())
	assert.Equal(t, PassStatusMessage, d.Status.Get())
	assert.Empty(t, *reasons)
	d.Kernel.Stop()
}

func TestSetupDemoRejectsZeroPeriod(t *testing.T) {
	out, ports := demoDriver(t)
	_, err := SetupDemo(DemoConfig{Blinks: []BlinkConfig{{ID: 0}}}, out)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Empty(t, ports.writes)
}

func TestDemoFaultUpdatesStatus(t *testing.T) {
	var faulted string
	out, _ := demoDriver(t)
	d, err := SetupDemo(DemoConfig{
		Blinks: DefaultBlinks(),
		Kernel: KernelConfig{OnFault: func(name, _ string) { faulted = name }},
	}, out)
	require.NoError(t, err)
	defer d.Kernel.Stop()

	_, err = d.Kernel.Spawn("worker", 1, func(s Sleeper) {
		last := s.Now()
		s.DelayUntil(&last, 300)
		panic("boom")
	})
	require.NoError(t, err)

	require.NoError(t, d.Start())
	d.Kernel.AdvanceTo(1000)

	assert.Equal(t, "worker", faulted)
	assert.Equal(t, "An error has been detected in the worker task.", d.Status.Get())
	assert.Equal(t, Tick(300), d.Kernel.Now())
}
