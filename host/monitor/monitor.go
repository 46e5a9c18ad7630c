// Package monitor is the host side of the status link: it polls a board for
// its clock, status string, task statistics and output table.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"blinky/core"
	"blinky/host/serial"
	"blinky/protocol"
)

// DefaultTimeout bounds each request
const DefaultTimeout = time.Second

var ErrShortResponse = errors.New("monitor: short response")

// Clock is a board clock sample
type Clock struct {
	Micros uint32
	Tick   core.Tick
}

// Status is the board's status string and halt flag
type Status struct {
	Halted  bool
	Message string
}

// Monitor talks to one board
type Monitor struct {
	transport *protocol.HostTransport

	Timeout time.Duration
}

// Connect opens the serial device described by cfg
func Connect(cfg *serial.Config) (*Monitor, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return New(port), nil
}

// New returns a monitor speaking over port. Close closes port.
func New(port io.ReadWriteCloser) *Monitor {
	return &Monitor{
		transport: protocol.NewHostTransport(port),
		Timeout:   DefaultTimeout,
	}
}

// Close shuts the link down
func (m *Monitor) Close() error {
	return m.transport.Close()
}

// Clock reads the board clock
func (m *Monitor) Clock() (Clock, error) {
	d, err := m.request(protocol.MsgGetClock, protocol.MsgClock)
	if err != nil {
		return Clock{}, err
	}
	c := Clock{Micros: d.uint(), Tick: core.Tick(d.uint())}
	return c, d.err
}

// Status reads the status string
func (m *Monitor) Status() (Status, error) {
	d, err := m.request(protocol.MsgGetStatus, protocol.MsgStatus)
	if err != nil {
		return Status{}, err
	}
	s := Status{Halted: d.uint() != 0, Message: d.str()}
	return s, d.err
}

// TaskStats reads the statistics of every task, in spawn order
func (m *Monitor) TaskStats() ([]core.TaskStats, error) {
	var stats []core.TaskStats
	for index := uint32(0); ; index++ {
		d, err := m.request(protocol.MsgGetTaskStats, protocol.MsgTaskStats, index)
		if err != nil {
			return nil, err
		}
		_ = d.uint()
		count := d.uint()
		st := core.TaskStats{
			State:       core.TaskState(d.uint()),
			Wakes:       d.uint(),
			LastWake:    core.Tick(d.uint()),
			MaxLateness: core.Tick(d.uint()),
			Name:        d.str(),
		}
		if d.err != nil {
			return nil, d.err
		}
		if index >= count {
			return stats, nil
		}
		stats = append(stats, st)
		if index+1 == count {
			return stats, nil
		}
	}
}

// Outputs reads the board's output table
func (m *Monitor) Outputs() ([]core.LogicalOutput, error) {
	if err := m.send(protocol.MsgGetOutputs); err != nil {
		return nil, err
	}
	var outputs []core.LogicalOutput
	for {
		d, err := m.expect(protocol.MsgOutput)
		if err != nil {
			return nil, err
		}
		index := d.uint()
		count := d.uint()
		o := core.LogicalOutput{
			ID:   core.OutputID(d.uint()),
			Port: core.Port(d.uint()),
			Mask: core.Mask(d.uint()),
			Name: d.str(),
		}
		if d.err != nil {
			return nil, d.err
		}
		outputs = append(outputs, o)
		if index+1 >= count {
			return outputs, nil
		}
	}
}

// Watch polls the clock and status every interval until ctx ends
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, fn func(Clock, Status)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		c, err := m.Clock()
		if err != nil {
			return err
		}
		s, err := m.Status()
		if err != nil {
			return err
		}
		fn(c, s)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) send(cmd uint16, args ...uint32) error {
	err := m.transport.SendCommandWithTimeout(cmd, func(output protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQUint(output, a)
		}
	}, m.Timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", protocol.Catalog[cmd].Name, err)
	}
	return nil
}

func (m *Monitor) request(cmd, want uint16, args ...uint32) (*decoder, error) {
	if err := m.send(cmd, args...); err != nil {
		return nil, err
	}
	return m.expect(want)
}

// expect returns the next response with id want, dropping any others
func (m *Monitor) expect(want uint16) (*decoder, error) {
	deadline := time.Now().Add(m.Timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%s: response timeout after %v", protocol.Catalog[want].Name, m.Timeout)
		}
		msg, err := m.transport.ReceiveResponse(remaining)
		if err != nil {
			return nil, err
		}
		d := &decoder{data: msg.Payload}
		if id := d.uint(); d.err == nil && uint16(id) == want {
			return d, nil
		}
	}
}

// decoder reads response arguments, keeping the first error
type decoder struct {
	data []byte
	err  error
}

func (d *decoder) uint() uint32 {
	if d.err != nil {
		return 0
	}
	v, err := protocol.DecodeVLQUint(&d.data)
	if err != nil {
		d.err = fmt.Errorf("%w: %v", ErrShortResponse, err)
	}
	return v
}

func (d *decoder) str() string {
	if d.err != nil {
		return ""
	}
	s, err := protocol.DecodeVLQString(&d.data)
	if err != nil {
		d.err = fmt.Errorf("%w: %v", ErrShortResponse, err)
	}
	return s
}
