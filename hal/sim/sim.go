// Package sim simulates an LPC17xx style GPIO block on the host.
//
// Each port has a direction register (FIODIR), a write-one-to-set register
// (FIOSET), a write-one-to-clear register (FIOCLR) and the resulting pin
// latch (FIOPIN). Every register write is logged.
package sim

import (
	"errors"
	"sync"

	"blinky/core"
)

// NumPorts matches the five GPIO ports of the LPC1768
const NumPorts = 5

var ErrNoSuchPort = errors.New("sim: no such port")

// Register names a written register
type Register uint8

const (
	FIODIR Register = iota
	FIOSET
	FIOCLR
)

func (r Register) String() string {
	switch r {
	case FIODIR:
		return "FIODIR"
	case FIOSET:
		return "FIOSET"
	case FIOCLR:
		return "FIOCLR"
	default:
		return "?"
	}
}

// Write is one logged register write
type Write struct {
	Reg  Register
	Port core.Port
	Mask core.Mask
}

type portRegs struct {
	dir   core.Mask
	latch core.Mask
}

// Bank is a simulated GPIO block. It implements core.PortDriver.
type Bank struct {
	mu      sync.Mutex
	ports   [NumPorts]portRegs
	writes  []Write
	onWrite func(Write)
}

// New returns a bank with every pin an input and every latch low
func New() *Bank {
	return &Bank{}
}

// OnWrite installs a callback run after every register write
func (b *Bank) OnWrite(fn func(Write)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onWrite = fn
}

func (b *Bank) ConfigureOutput(port core.Port, mask core.Mask) error {
	return b.write(Write{FIODIR, port, mask})
}

func (b *Bank) SetBits(port core.Port, mask core.Mask) error {
	return b.write(Write{FIOSET, port, mask})
}

func (b *Bank) ClearBits(port core.Port, mask core.Mask) error {
	return b.write(Write{FIOCLR, port, mask})
}

func (b *Bank) write(w Write) error {
	if int(w.Port) >= NumPorts {
		return ErrNoSuchPort
	}

	b.mu.Lock()
	regs := &b.ports[w.Port]
	switch w.Reg {
	case FIODIR:
		regs.dir |= w.Mask
	case FIOSET:
		regs.latch |= w.Mask
	case FIOCLR:
		regs.latch &^= w.Mask
	}
	b.writes = append(b.writes, w)
	fn := b.onWrite
	b.mu.Unlock()

	if fn != nil {
		fn(w)
	}
	return nil
}

// Dir returns the direction register of port (1 = output)
func (b *Bank) Dir(port core.Port) core.Mask {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int(port) >= NumPorts {
		return 0
	}
	return b.ports[port].dir
}

// Pins returns the driven level of every output pin on port
func (b *Bank) Pins(port core.Port) core.Mask {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int(port) >= NumPorts {
		return 0
	}
	return b.ports[port].latch & b.ports[port].dir
}

// Level reports whether every bit of mask on port is driven high
func (b *Bank) Level(port core.Port, mask core.Mask) bool {
	return b.Pins(port)&mask == mask
}

// Writes returns a copy of the write log
func (b *Bank) Writes() []Write {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Write(nil), b.writes...)
}

// DataWrites returns the logged FIOSET and FIOCLR writes
func (b *Bank) DataWrites() []Write {
	var out []Write
	for _, w := range b.Writes() {
		if w.Reg != FIODIR {
			out = append(out, w)
		}
	}
	return out
}

// ClearLog empties the write log
func (b *Bank) ClearLog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = nil
}
