package link

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
	"blinky/protocol"
)

func TestServeAnswersGetStatus(t *testing.T) {
	table, err := board.Pico.Table()
	require.NoError(t, err)
	d, err := core.SetupDemo(core.DemoConfig{Blinks: core.DefaultBlinks()}, core.NewOutputDriver(table, sim.New(), core.IgnoreInvalidID))
	require.NoError(t, err)
	defer d.Kernel.Stop()

	hostEnd, devEnd := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- Serve(ctx, devEnd, d) }()

	host := protocol.NewHostTransport(hostEnd)
	require.NoError(t, host.SendCommand(protocol.MsgGetStatus, nil))
	resp, err := host.ReceiveResponse(time.Second)
	require.NoError(t, err)

	data := resp.Payload
	id, _ := protocol.DecodeVLQUint(&data)
	assert.Equal(t, uint32(protocol.MsgStatus), id)
	halted, _ := protocol.DecodeVLQUint(&data)
	assert.Zero(t, halted)
	msg, err := protocol.DecodeVLQString(&data)
	require.NoError(t, err)
	assert.Equal(t, core.PassStatusMessage, msg)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	host.Close()
}
