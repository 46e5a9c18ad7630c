// Package expander drives logical outputs on an MCP23017 I2C port expander.
//
// Port 0 is bank A and port 1 is bank B. The chip is used in its power-on
// IOCON.BANK=0 register layout. Output latches are cached so every set or
// clear is a single register write.
package expander

import (
	"errors"
	"sync"

	"tinygo.org/x/drivers"

	"blinky/core"
)

// DefaultAddress is the MCP23017 address with A2..A0 tied low
const DefaultAddress = 0x20

const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regOLATA  = 0x14
	regOLATB  = 0x15
)

var ErrNoSuchPort = errors.New("expander: no such port")

// MCP23017 implements core.PortDriver over an I2C bus
type MCP23017 struct {
	bus  drivers.I2C
	addr uint16

	mu    sync.Mutex
	iodir [2]uint8
	olat  [2]uint8
}

// New returns a driver for the expander at addr. The register caches start at
// the power-on values: all inputs, all latches low.
func New(bus drivers.I2C, addr uint16) *MCP23017 {
	return &MCP23017{
		bus:   bus,
		addr:  addr,
		iodir: [2]uint8{0xFF, 0xFF},
	}
}

func (m *MCP23017) ConfigureOutput(port core.Port, mask core.Mask) error {
	bits, err := bankBits(port, mask)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	olat := m.olat[port] &^ bits
	if err := m.write(regOLATA+uint8(port), olat); err != nil {
		return err
	}
	m.olat[port] = olat
	iodir := m.iodir[port] &^ bits
	if err := m.write(regIODIRA+uint8(port), iodir); err != nil {
		return err
	}
	m.iodir[port] = iodir
	return nil
}

func (m *MCP23017) SetBits(port core.Port, mask core.Mask) error {
	bits, err := bankBits(port, mask)
	if err != nil {
		return err
	}
	return m.latch(port, func(v uint8) uint8 { return v | bits })
}

func (m *MCP23017) ClearBits(port core.Port, mask core.Mask) error {
	bits, err := bankBits(port, mask)
	if err != nil {
		return err
	}
	return m.latch(port, func(v uint8) uint8 { return v &^ bits })
}

// Latch returns the cached output latch of port
func (m *MCP23017) Latch(port core.Port) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if port > 1 {
		return 0
	}
	return m.olat[port]
}

func (m *MCP23017) latch(port core.Port, fn func(uint8) uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := fn(m.olat[port])
	if err := m.write(regOLATA+uint8(port), v); err != nil {
		return err
	}
	m.olat[port] = v
	return nil
}

func (m *MCP23017) write(reg, val uint8) error {
	return m.bus.Tx(m.addr, []byte{reg, val}, nil)
}

func bankBits(port core.Port, mask core.Mask) (uint8, error) {
	if port > 1 || mask > 0xFF {
		return 0, ErrNoSuchPort
	}
	return uint8(mask), nil
}
