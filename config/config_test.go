package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blinky/core"
	"blinky/hal/sim"
)

func TestEmptyDocumentIsTheStockDemo(t *testing.T) {
	c, err := LoadConfig([]byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultDemoConfig(), c)

	demo := c.Demo()
	assert.Equal(t, core.DefaultBlinks(), demo.Blinks)
	assert.Equal(t, core.DefaultCheckPeriod, demo.CheckPeriod)
	assert.Equal(t, core.HaltOnSpawnFailure, demo.SpawnPolicy)
	assert.Equal(t, core.DefaultMaxTasks, demo.Kernel.MaxTasks)
}

func TestTickRateScalesPeriods(t *testing.T) {
	c, err := LoadConfig([]byte(`{
		"tick_rate_hz": 100,
		"tasks": [{"output": 2, "period_ms": 250, "priority": 5}]
	}`))
	require.NoError(t, err)

	blinks := c.BlinkConfigs()
	require.Len(t, blinks, 1)
	assert.Equal(t, core.BlinkConfig{ID: 2, Period: 25, Priority: 5}, blinks[0])
	assert.Equal(t, "LED2", blinks[0].TaskName())
	assert.Equal(t, core.Tick(500), c.Demo().CheckPeriod)
	assert.Equal(t, 10*time.Millisecond, c.TickPeriod())
}

func TestDefaultTickPeriod(t *testing.T) {
	assert.Equal(t, time.Millisecond, DefaultDemoConfig().TickPeriod())

	c, err := LoadConfig([]byte(`{"tick_rate_hz": 1000000000}`))
	require.NoError(t, err)
	assert.Equal(t, time.Nanosecond, c.TickPeriod())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"unknown output", `{"tasks":[{"output":9,"period_ms":10}]}`, core.ErrInvalidOutputID},
		{"zero period", `{"tasks":[{"output":0}]}`, ErrBadPeriod},
		{"empty task list", `{"tasks":[]}`, ErrNoTasks},
		{"spawn policy", `{"spawn_policy":"retry"}`, ErrBadPolicy},
		{"id policy", `{"invalid_id_policy":"panic"}`, ErrBadPolicy},
		{"tick rate above 1GHz", `{"tick_rate_hz":1000000001}`, ErrBadTickRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig([]byte(tt.json))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	_, err := LoadConfig([]byte(`{"board":`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"board":"pico","invalid_id_policy":"reject"}`), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pico", c.Board)

	out, err := c.OutputDriver(sim.New())
	require.NoError(t, err)
	assert.Equal(t, core.RejectInvalidID, out.Policy())
	assert.Equal(t, 3, out.Table().Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
