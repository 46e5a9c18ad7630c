package monitor

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinky/board"
	"blinky/core"
	"blinky/hal/sim"
	"blinky/host/link"
)

// newBoard starts a simulated demo served over a pipe and returns a monitor on it
func newBoard(t *testing.T, cfg core.DemoConfig) (*Monitor, *core.Demo) {
	t.Helper()
	table, err := board.MbedLPC1768.Table()
	require.NoError(t, err)
	d, err := core.SetupDemo(cfg, core.NewOutputDriver(table, sim.New(), core.IgnoreInvalidID))
	if d == nil {
		require.NoError(t, err)
	}
	t.Cleanup(d.Kernel.Stop)

	hostEnd, devEnd := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan struct{})
	go func() {
		defer close(served)
		_ = link.Serve(ctx, devEnd, d)
	}()

	m := New(hostEnd)
	t.Cleanup(func() {
		m.Close()
		cancel()
		<-served
	})
	return m, d
}

func TestStatusAndClock(t *testing.T) {
	m, d := newBoard(t, core.DemoConfig{Blinks: core.DefaultBlinks()})
	require.NoError(t, d.Start())
	d.Kernel.AdvanceTo(250)

	s, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, Status{Message: core.PassStatusMessage}, s)

	c, err := m.Clock()
	require.NoError(t, err)
	assert.Equal(t, core.Tick(250), c.Tick)
}

func TestTaskStats(t *testing.T) {
	m, d := newBoard(t, core.DemoConfig{Blinks: core.DefaultBlinks()})
	require.NoError(t, d.Start())
	d.Kernel.AdvanceTo(1000)

	stats, err := m.TaskStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "LED0", stats[0].Name)
	assert.Equal(t, "LED1", stats[1].Name)
	assert.Equal(t, core.TaskBlocked, stats[1].State)
	assert.Equal(t, core.Tick(1000), stats[1].LastWake)
}

func TestTaskStatsWithNoTasks(t *testing.T) {
	m, _ := newBoard(t, core.DemoConfig{})
	stats, err := m.TaskStats()
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestOutputs(t *testing.T) {
	m, _ := newBoard(t, core.DemoConfig{Blinks: core.DefaultBlinks()})

	outputs, err := m.Outputs()
	require.NoError(t, err)
	assert.Equal(t, board.MbedLPC1768.Outputs, outputs)
}

func TestHaltedBoardReportsSpawnFailure(t *testing.T) {
	core.SetHaltHandler(func(string) {})
	t.Cleanup(func() { core.SetHaltHandler(nil) })

	m, _ := newBoard(t, core.DemoConfig{
		Blinks: core.DefaultBlinks(),
		Kernel: core.KernelConfig{MaxTasks: 1},
	})
	s, err := m.Status()
	require.NoError(t, err)
	assert.True(t, s.Halted)
	assert.Equal(t, "Insufficient memory to create the LED1 task.", s.Message)
}

func TestWatchStopsWithContext(t *testing.T) {
	m, d := newBoard(t, core.DemoConfig{Blinks: core.DefaultBlinks()})
	require.NoError(t, d.Start())

	ctx, cancel := context.WithCancel(context.Background())
	var polls int
	err := m.Watch(ctx, time.Millisecond, func(c Clock, s Status) {
		polls++
		if polls == 3 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, polls)
}

func TestTimeoutWithoutBoard(t *testing.T) {
	hostEnd, devEnd := net.Pipe()
	go func() {
		buf := make([]byte, 64)
		for {
			if _, err := devEnd.Read(buf); err != nil {
				return
			}
		}
	}()
	m := New(hostEnd)
	m.Timeout = 20 * time.Millisecond
	defer m.Close()
	defer devEnd.Close()

	_, err := m.Status()
	assert.Error(t, err)
}
